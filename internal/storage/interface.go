package storage

import (
	"context"

	"github.com/hostcard/pokerroom/internal/model"
)

// Storage defines the interface for data persistence.
//
// Room saves are conditional writes: SaveRoom succeeds only when the
// stored room's version equals expectedVersion (0 for a fresh insert)
// and bumps the version by one, so concurrent hosts cannot silently
// overwrite each other. Player records are small and whole-record
// replaced; last writer wins per record.
//
// Every successful write emits a matching change event on the backend's
// feed. DeleteRoom cascades to the room's players and emits a single
// room delete event.
type Storage interface {
	// Room operations
	SaveRoom(ctx context.Context, room *model.Room, expectedVersion int64) error
	GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error)
	DeleteRoom(ctx context.Context, code model.RoomCode) error
	RoomExists(ctx context.Context, code model.RoomCode) (bool, error)

	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	ListPlayers(ctx context.Context, code model.RoomCode) ([]*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error
	DeletePlayersForRoom(ctx context.Context, code model.RoomCode) error
}

// ChangeFeed is the store's push-notification channel. Events are
// room-scoped and delivered at least once; receivers must deduplicate
// and tolerate reordering between room and player events. A subscriber
// that connects after missing events covers the gap with a full fetch.
type ChangeFeed interface {
	// Subscribe returns a channel of change events for one room. The
	// channel is closed when ctx is cancelled or cancel is called.
	Subscribe(ctx context.Context, code model.RoomCode) (events <-chan model.ChangeEvent, cancel func(), err error)
}

// Store combines persistence with its change feed; every backend
// provides both so writes and notifications come from the same place.
type Store interface {
	Storage
	ChangeFeed
}
