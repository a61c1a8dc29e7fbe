package response

import (
	"github.com/hostcard/pokerroom/internal/model"
	"github.com/hostcard/pokerroom/internal/services/registry"
)

// Card represents a card in API responses
type Card struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
	ID   string `json:"id"`
}

// CardFromModel converts a model.Card
func CardFromModel(c model.Card) Card {
	return Card{Suit: string(c.Suit), Rank: c.Rank, ID: c.ID}
}

func cardsFromModel(cards []model.Card) []Card {
	out := make([]Card, len(cards))
	for i, c := range cards {
		out[i] = CardFromModel(c)
	}
	return out
}

// Winner represents a showdown winner
type Winner struct {
	PlayerID    string `json:"player_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Room represents a room in API responses. Community cards are trimmed
// to what the current stage allows and the draw pile is never exposed,
// only its size.
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

// RoomFromModel converts a model.Room, concealing undealt information
func RoomFromModel(r *model.Room) Room {
	visible := r.Stage.VisibleCommunity()
	if visible > len(r.CommunityCards) {
		visible = len(r.CommunityCards)
	}

	winners := make([]Winner, len(r.Winners))
	for i, w := range r.Winners {
		winners[i] = Winner{
			PlayerID:    string(w.PlayerID),
			Name:        w.Name,
			Description: w.Description,
		}
	}

	return Room{
		ID:             string(r.ID),
		Stage:          string(r.Stage),
		CommunityCards: cardsFromModel(r.CommunityCards[:visible]),
		DeckCount:      len(r.Deck),
		ShuffleFactor:  r.ShuffleFactor,
		QRUrl:          r.QRUrl,
		Winners:        winners,
		DealerIndex:    r.DealerIndex,
		RoundCount:     r.RoundCount,
		Version:        r.Version,
	}
}

// Player represents a player in API responses. Hand is present only for
// the viewer's own seat or a player who has toggled reveal; everyone
// else shows just the card count. Showdown is no exception: a player
// who never reveals mucks their hand.
type Player struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	IsRevealed bool   `json:"is_revealed"`
	HandCount  int    `json:"hand_count"`
	Hand       []Card `json:"hand,omitempty"`
}

// PlayerFromModel converts a model.Player for a given viewer
func PlayerFromModel(p *model.Player, viewer model.PlayerID) Player {
	out := Player{
		ID:         string(p.ID),
		Name:       p.Name,
		Status:     string(p.Status),
		IsRevealed: p.IsRevealed,
		HandCount:  len(p.Hand),
	}
	if p.ID == viewer || p.IsRevealed {
		out.Hand = cardsFromModel(p.Hand)
	}
	return out
}

// RoomState is a room plus its players, the full fetch clients use to
// seed or repair their mirrors
type RoomState struct {
	Room    Room     `json:"room"`
	Players []Player `json:"players"`
}

// RoomStateFromModel converts a room and its players for a given viewer
func RoomStateFromModel(r *model.Room, players []*model.Player, viewer model.PlayerID) RoomState {
	out := RoomState{Room: RoomFromModel(r), Players: make([]Player, len(players))}
	for i, p := range players {
		out.Players[i] = PlayerFromModel(p, viewer)
	}
	return out
}

// CreateRoomResponse is the response for room creation
type CreateRoomResponse struct {
	Room         Room   `json:"room"`
	SessionToken string `json:"session_token"`
}

// JoinResponse is the response for joining a room
type JoinResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// JoinResponseFromSession builds the join response; the joining player
// always sees their own hand
func JoinResponseFromSession(p *model.Player, s *registry.Session) JoinResponse {
	return JoinResponse{
		Player:       PlayerFromModel(p, p.ID),
		SessionToken: s.Token,
	}
}
