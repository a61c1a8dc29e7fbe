package model

import "time"

// RoomCode is the short numeric code players use to join a room
type RoomCode string

// Stage represents the round's current phase
type Stage string

const (
	StageWaiting  Stage = "waiting"
	StagePreflop  Stage = "preflop"
	StageFlop     Stage = "flop"
	StageTurn     Stage = "turn"
	StageRiver    Stage = "river"
	StageShowdown Stage = "showdown"
)

// Stages is the fixed forward progression of a round
var Stages = []Stage{StageWaiting, StagePreflop, StageFlop, StageTurn, StageRiver, StageShowdown}

// Next returns the following stage, or false if the stage is terminal
// (showdown exits only via a full reset back to waiting).
func (s Stage) Next() (Stage, bool) {
	for i, stage := range Stages {
		if stage == s && i+1 < len(Stages) {
			return Stages[i+1], true
		}
	}
	return "", false
}

// VisibleCommunity returns how many community cards are shown at this
// stage. The room always stores all 5; concealment is presentational.
func (s Stage) VisibleCommunity() int {
	switch s {
	case StageFlop:
		return 3
	case StageTurn:
		return 4
	case StageRiver, StageShowdown:
		return 5
	default:
		return 0
	}
}

// Winner records one winning player at showdown
type Winner struct {
	PlayerID    PlayerID `json:"player_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
}

// Room is the shared record for one table. All 5 community cards are
// dealt at round creation; the deck holds the remaining undealt cards,
// consumed from the tail as hole cards are dealt.
//
// Version increases by one on every persisted change and is the basis
// for optimistic concurrency: saves are conditional on the version the
// writer read.
type Room struct {
	ID             RoomCode  `json:"id"`
	Stage          Stage     `json:"stage"`
	CommunityCards []Card    `json:"community_cards"`
	Deck           []Card    `json:"deck"`
	ShuffleFactor  int       `json:"shuffle_factor"`
	QRUrl          string    `json:"qr_url,omitempty"`
	Winners        []Winner  `json:"winners"`
	DealerIndex    int       `json:"dealer_index"`
	RoundCount     int       `json:"round_count"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
