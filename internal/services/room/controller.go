package room

import (
	"context"
	"errors"

	"github.com/hostcard/pokerroom/internal/deck"
	"github.com/hostcard/pokerroom/internal/dependencies/clock"
	"github.com/hostcard/pokerroom/internal/dependencies/random"
	"github.com/hostcard/pokerroom/internal/model"
	"github.com/hostcard/pokerroom/internal/services/hands"
	"github.com/hostcard/pokerroom/internal/storage"
)

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 4
	// RoomCodeAlphabet is the characters used in room codes
	RoomCodeAlphabet = "0123456789"
	// HoleCardsPerPlayer is how many cards each player is dealt at preflop
	HoleCardsPerPlayer = 2
	// DefaultShuffleFactor is the bias applied when a room doesn't choose one
	DefaultShuffleFactor = 100

	// casRetryLimit bounds how often a read-modify-write is replayed when
	// another writer bumped the room version underneath it.
	casRetryLimit = 3
)

// Controller manages the round state machine and host controls
type Controller struct {
	storage      storage.Storage
	handsService *hands.Service
	clock        clock.Clock
	random       random.Random
}

// NewController creates a new room Controller
func NewController(
	storage storage.Storage,
	handsService *hands.Service,
	clock clock.Clock,
	random random.Random,
) *Controller {
	return &Controller{
		storage:      storage,
		handsService: handsService,
		clock:        clock,
		random:       random,
	}
}

// CreateRoom creates a new room in the waiting stage with a fresh deck.
// The 5 community cards are dealt immediately; the stage only controls
// how many of them are visible.
func (c *Controller) CreateRoom(ctx context.Context, shuffleFactor int) (*model.Room, error) {
	if shuffleFactor < 0 || shuffleFactor > 100 {
		return nil, model.ErrInvalidShuffle
	}
	now := c.clock.Now()

	// Generate unique room code
	var code model.RoomCode
	for {
		code = model.RoomCode(c.random.String(RoomCodeLength, RoomCodeAlphabet))
		exists, err := c.storage.RoomExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
	}

	community, remaining := deck.Split(deck.Generate(shuffleFactor, c.random))

	room := &model.Room{
		ID:             code,
		Stage:          model.StageWaiting,
		CommunityCards: community,
		Deck:           remaining,
		ShuffleFactor:  shuffleFactor,
		Winners:        []model.Winner{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := c.storage.SaveRoom(ctx, room, 0); err != nil {
		return nil, err
	}
	return room, nil
}

// GetRoom retrieves a room by code
func (c *Controller) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return c.storage.GetRoom(ctx, code)
}

// GetPlayers retrieves a room's players in join order
func (c *Controller) GetPlayers(ctx context.Context, code model.RoomCode) ([]*model.Player, error) {
	return c.storage.ListPlayers(ctx, code)
}

// Advance moves the round to its next stage. Entering preflop deals hole
// cards; entering showdown resolves winners; advancing from showdown
// performs the full reset back to waiting with a fresh deck.
func (c *Controller) Advance(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	for attempt := 0; ; attempt++ {
		room, err := c.storage.GetRoom(ctx, code)
		if err != nil {
			return nil, err
		}
		players, err := c.storage.ListPlayers(ctx, code)
		if err != nil {
			return nil, err
		}

		var updatedPlayers []*model.Player
		switch room.Stage {
		case model.StageWaiting:
			updatedPlayers, err = c.dealHoleCards(room, players)
			if err != nil {
				return nil, err
			}
			room.Stage = model.StagePreflop
			room.Winners = []model.Winner{}
		case model.StagePreflop:
			room.Stage = model.StageFlop
		case model.StageFlop:
			room.Stage = model.StageTurn
		case model.StageTurn:
			room.Stage = model.StageRiver
		case model.StageRiver:
			room.Stage = model.StageShowdown
			room.Winners = c.handsService.Resolve(room.CommunityCards, players)
		case model.StageShowdown:
			updatedPlayers = c.resetRound(room, players)
		default:
			return nil, model.ErrInvalidStage
		}
		room.UpdatedAt = c.clock.Now()

		err = c.storage.SaveRoom(ctx, room, room.Version)
		if errors.Is(err, model.ErrVersionConflict) && attempt < casRetryLimit {
			continue
		}
		if err != nil {
			return nil, err
		}

		// Player writes follow the committed room write; they are
		// last-writer-wins records keyed by player id.
		for _, p := range updatedPlayers {
			if err := c.storage.SavePlayer(ctx, p); err != nil {
				return nil, err
			}
		}
		return room, nil
	}
}

// dealHoleCards pops two cards off the deck tail for every non-folded
// player, in join order
func (c *Controller) dealHoleCards(room *model.Room, players []*model.Player) ([]*model.Player, error) {
	updated := make([]*model.Player, 0, len(players))
	for _, p := range players {
		if p.Status == model.StatusFolded {
			continue
		}
		hand, remaining, err := deck.DealHole(room.Deck, HoleCardsPerPlayer)
		if err != nil {
			return nil, err
		}
		room.Deck = remaining
		p.Hand = hand
		p.IsRevealed = false
		updated = append(updated, p)
	}
	return updated, nil
}

// resetRound returns the room to waiting with a fresh deck at the current
// bias and clears every player's round state
func (c *Controller) resetRound(room *model.Room, players []*model.Player) []*model.Player {
	room.CommunityCards, room.Deck = deck.Split(deck.Generate(room.ShuffleFactor, c.random))
	room.Stage = model.StageWaiting
	room.Winners = []model.Winner{}
	room.RoundCount++
	// Monotonic counter; seat rotation for display is derived from it,
	// so it advances even while the room is empty.
	room.DealerIndex++
	for _, p := range players {
		p.Hand = []model.Card{}
		p.Status = model.StatusActive
		p.IsRevealed = false
	}
	return players
}

// Fold marks a player as folded for the rest of the round
func (c *Controller) Fold(ctx context.Context, code model.RoomCode, playerID model.PlayerID) (*model.Player, error) {
	player, err := c.playerInRoom(ctx, code, playerID)
	if err != nil {
		return nil, err
	}
	player.Status = model.StatusFolded
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// ToggleReveal flips whether a player's hole cards are shown on the host
// display
func (c *Controller) ToggleReveal(ctx context.Context, code model.RoomCode, playerID model.PlayerID) (*model.Player, error) {
	player, err := c.playerInRoom(ctx, code, playerID)
	if err != nil {
		return nil, err
	}
	player.IsRevealed = !player.IsRevealed
	if err := c.storage.SavePlayer(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

// SetShuffleFactor updates the room's bias setting. It takes effect at
// the next reset; the current deck is left alone.
func (c *Controller) SetShuffleFactor(ctx context.Context, code model.RoomCode, factor int) (*model.Room, error) {
	if factor < 0 || factor > 100 {
		return nil, model.ErrInvalidShuffle
	}
	return c.updateRoom(ctx, code, func(room *model.Room) {
		room.ShuffleFactor = factor
	})
}

// SetQRUrl updates the join URL shown on the host display
func (c *Controller) SetQRUrl(ctx context.Context, code model.RoomCode, url string) (*model.Room, error) {
	return c.updateRoom(ctx, code, func(room *model.Room) {
		room.QRUrl = url
	})
}

// EndRoom deletes the room and all its players
func (c *Controller) EndRoom(ctx context.Context, code model.RoomCode) error {
	return c.storage.DeleteRoom(ctx, code)
}

// updateRoom applies a small mutation under the CAS retry loop
func (c *Controller) updateRoom(ctx context.Context, code model.RoomCode, mutate func(*model.Room)) (*model.Room, error) {
	for attempt := 0; ; attempt++ {
		room, err := c.storage.GetRoom(ctx, code)
		if err != nil {
			return nil, err
		}
		mutate(room)
		room.UpdatedAt = c.clock.Now()

		err = c.storage.SaveRoom(ctx, room, room.Version)
		if errors.Is(err, model.ErrVersionConflict) && attempt < casRetryLimit {
			continue
		}
		if err != nil {
			return nil, err
		}
		return room, nil
	}
}

// playerInRoom fetches a player and verifies room membership
func (c *Controller) playerInRoom(ctx context.Context, code model.RoomCode, playerID model.PlayerID) (*model.Player, error) {
	player, err := c.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player.RoomID != code {
		return nil, model.ErrNotInRoom
	}
	return player, nil
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateRoom(ctx context.Context, shuffleFactor int) (*model.Room, error)
	GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error)
	GetPlayers(ctx context.Context, code model.RoomCode) ([]*model.Player, error)
	Advance(ctx context.Context, code model.RoomCode) (*model.Room, error)
	Fold(ctx context.Context, code model.RoomCode, playerID model.PlayerID) (*model.Player, error)
	ToggleReveal(ctx context.Context, code model.RoomCode, playerID model.PlayerID) (*model.Player, error)
	SetShuffleFactor(ctx context.Context, code model.RoomCode, factor int) (*model.Room, error)
	SetQRUrl(ctx context.Context, code model.RoomCode, url string) (*model.Room, error)
	EndRoom(ctx context.Context, code model.RoomCode) error
}

var _ ControllerInterface = (*Controller)(nil)
