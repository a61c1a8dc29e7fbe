package model

// Suit is one of the four card suits, stored as its unicode symbol
type Suit string

const (
	Spades   Suit = "♠"
	Hearts   Suit = "♥"
	Clubs    Suit = "♣"
	Diamonds Suit = "♦"
)

// Suits lists all suits in base-deck order
var Suits = []Suit{Spades, Hearts, Clubs, Diamonds}

// Ranks lists all ranks in base-deck order, low to high
var Ranks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A"}

// Card is an immutable card value. ID is rank+suit (e.g. "A♠") and is
// unique within a deck.
type Card struct {
	Suit Suit   `json:"suit"`
	Rank string `json:"rank"`
	ID   string `json:"id"`
}

// NewCard creates a card with its derived ID
func NewCard(suit Suit, rank string) Card {
	return Card{
		Suit: suit,
		Rank: rank,
		ID:   rank + string(suit),
	}
}

// String returns the card's ID
func (c Card) String() string {
	return c.ID
}

// BaseDeck returns the canonical 52-card deck in its fixed base order:
// suits in Suits order, ranks low to high within each suit.
func BaseDeck() []Card {
	deck := make([]Card, 0, len(Suits)*len(Ranks))
	for _, suit := range Suits {
		for _, rank := range Ranks {
			deck = append(deck, NewCard(suit, rank))
		}
	}
	return deck
}
