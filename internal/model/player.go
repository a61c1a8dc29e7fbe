package model

import "time"

// PlayerID uniquely identifies a player within the system
type PlayerID string

// PlayerStatus is a player's standing in the current round
type PlayerStatus string

const (
	StatusActive PlayerStatus = "active"
	StatusFolded PlayerStatus = "folded"
)

// Player is one seat at a table. A player belongs to exactly one room
// for its lifetime and is deleted on leave or when the room ends.
// Hand is empty or exactly two hole cards.
type Player struct {
	ID         PlayerID     `json:"id"`
	RoomID     RoomCode     `json:"room_id"`
	Name       string       `json:"name"`
	Hand       []Card       `json:"hand"`
	Status     PlayerStatus `json:"status"`
	IsRevealed bool         `json:"is_revealed"`
	CreatedAt  time.Time    `json:"created_at"`
}

// HasHoleCards reports whether the player holds a complete two-card hand
func (p *Player) HasHoleCards() bool {
	return len(p.Hand) == 2
}
