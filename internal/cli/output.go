package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Room:
		o.printRoom(v)
	case RoomState:
		o.printRoomState(v)
	case CreateResult:
		o.printCreateResult(v)
	case JoinResult:
		o.printJoinResult(v)
	case Player:
		o.printPlayer(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Card response type (matches API)
type Card struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
	ID   string `json:"id"`
}

// Winner response type
type Winner struct {
	PlayerID    string `json:"player_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Room response type
type Room struct {
	ID             string   `json:"id"`
	Stage          string   `json:"stage"`
	CommunityCards []Card   `json:"community_cards"`
	DeckCount      int      `json:"deck_count"`
	ShuffleFactor  int      `json:"shuffle_factor"`
	QRUrl          string   `json:"qr_url,omitempty"`
	Winners        []Winner `json:"winners"`
	DealerIndex    int      `json:"dealer_index"`
	RoundCount     int      `json:"round_count"`
	Version        int64    `json:"version"`
}

// Player response type
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	IsRevealed bool   `json:"is_revealed"`
	HandCount  int    `json:"hand_count"`
	Hand       []Card `json:"hand,omitempty"`
}

// RoomState response type
type RoomState struct {
	Room    Room     `json:"room"`
	Players []Player `json:"players"`
}

// CreateResult combines room and host token
type CreateResult struct {
	Room         Room   `json:"room"`
	SessionToken string `json:"session_token"`
}

// JoinResult combines player and seat token
type JoinResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func cardList(cards []Card) string {
	if len(cards) == 0 {
		return "-"
	}
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return strings.Join(ids, " ")
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s\n", r.ID)
	fmt.Printf("Stage: %s\n", r.Stage)
	fmt.Printf("Round: %d\n", r.RoundCount)
	fmt.Printf("Board: %s\n", cardList(r.CommunityCards))
	fmt.Printf("Deck: %d cards\n", r.DeckCount)
	fmt.Printf("Shuffle Factor: %d\n", r.ShuffleFactor)
	if r.QRUrl != "" {
		fmt.Printf("Join URL: %s\n", r.QRUrl)
	}
	for _, w := range r.Winners {
		fmt.Printf("Winner: %s - %s\n", w.Name, w.Description)
	}
}

func (o *Output) printRoomState(s RoomState) {
	o.printRoom(s.Room)
	fmt.Printf("Players (%d):\n", len(s.Players))
	for _, p := range s.Players {
		hand := fmt.Sprintf("%d cards", p.HandCount)
		if len(p.Hand) > 0 {
			hand = cardList(p.Hand)
		}
		marker := ""
		if p.Status == "folded" {
			marker = " [folded]"
		}
		if p.IsRevealed {
			marker += " [revealed]"
		}
		fmt.Printf("  - %s: %s%s\n", p.Name, hand, marker)
	}
}

func (o *Output) printCreateResult(c CreateResult) {
	o.printRoom(c.Room)
	fmt.Printf("Token: %s\n", c.SessionToken)
}

func (o *Output) printJoinResult(j JoinResult) {
	o.printPlayer(j.Player)
	fmt.Printf("Token: %s\n", j.SessionToken)
}

func (o *Output) printPlayer(p Player) {
	fmt.Printf("Player: %s (%s)\n", p.Name, p.ID)
	fmt.Printf("Status: %s\n", p.Status)
	if len(p.Hand) > 0 {
		fmt.Printf("Hand: %s\n", cardList(p.Hand))
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
