package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hostcard/pokerroom/internal/model"
	"github.com/hostcard/pokerroom/internal/storage"
)

// feedBufferSize is the per-subscriber event buffer; a subscriber that
// falls this far behind starts dropping events and must rely on its
// next full fetch.
const feedBufferSize = 64

// Storage is an in-memory implementation of the store, with a loopback
// change feed. Useful for tests and single-process deployments.
type Storage struct {
	mu sync.RWMutex

	rooms   map[model.RoomCode]model.Room
	players map[model.PlayerID]model.Player

	subMu       sync.RWMutex
	subscribers map[model.RoomCode]map[chan model.ChangeEvent]struct{}
}

// New creates a new in-memory store
func New() *Storage {
	return &Storage{
		rooms:       make(map[model.RoomCode]model.Room),
		players:     make(map[model.PlayerID]model.Player),
		subscribers: make(map[model.RoomCode]map[chan model.ChangeEvent]struct{}),
	}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room, expectedVersion int64) error {
	s.mu.Lock()
	current, exists := s.rooms[room.ID]
	if exists && current.Version != expectedVersion {
		s.mu.Unlock()
		return model.ErrVersionConflict
	}
	if !exists && expectedVersion != 0 {
		s.mu.Unlock()
		return model.ErrRoomNotFound
	}

	room.Version = expectedVersion + 1
	s.rooms[room.ID] = *room
	stored := *room
	s.mu.Unlock()

	kind := model.ChangeUpdate
	if !exists {
		kind = model.ChangeInsert
	}
	s.publish(model.ChangeEvent{
		Entity:      model.EntityRoom,
		Kind:        kind,
		RoomID:      stored.ID,
		RoomVersion: stored.Version,
		Room:        &stored,
		OccurredAt:  time.Now(),
	})
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return &room, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	s.mu.Lock()
	_, existed := s.rooms[code]
	delete(s.rooms, code)
	for id, p := range s.players {
		if p.RoomID == code {
			delete(s.players, id)
		}
	}
	s.mu.Unlock()

	if existed {
		s.publish(model.ChangeEvent{
			Entity:     model.EntityRoom,
			Kind:       model.ChangeDelete,
			RoomID:     code,
			OccurredAt: time.Now(),
		})
	}
	return nil
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[code]
	return ok, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	_, exists := s.players[player.ID]
	s.players[player.ID] = *player
	stored := *player
	s.mu.Unlock()

	kind := model.ChangeUpdate
	if !exists {
		kind = model.ChangeInsert
	}
	s.publish(model.ChangeEvent{
		Entity:     model.EntityPlayer,
		Kind:       kind,
		RoomID:     stored.RoomID,
		Player:     &stored,
		PlayerID:   stored.ID,
		OccurredAt: time.Now(),
	})
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return &player, nil
}

func (s *Storage) ListPlayers(ctx context.Context, code model.RoomCode) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := []*model.Player{}
	for _, p := range s.players {
		if p.RoomID == code {
			player := p
			players = append(players, &player)
		}
	}
	// Stable order by join time, then id for ties
	sortPlayers(players)
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	player, existed := s.players[id]
	delete(s.players, id)
	s.mu.Unlock()

	if existed {
		s.publish(model.ChangeEvent{
			Entity:     model.EntityPlayer,
			Kind:       model.ChangeDelete,
			RoomID:     player.RoomID,
			PlayerID:   id,
			OccurredAt: time.Now(),
		})
	}
	return nil
}

func (s *Storage) DeletePlayersForRoom(ctx context.Context, code model.RoomCode) error {
	s.mu.Lock()
	for id, p := range s.players {
		if p.RoomID == code {
			delete(s.players, id)
		}
	}
	s.mu.Unlock()
	return nil
}

// Change feed

func (s *Storage) Subscribe(ctx context.Context, code model.RoomCode) (<-chan model.ChangeEvent, func(), error) {
	ch := make(chan model.ChangeEvent, feedBufferSize)

	s.subMu.Lock()
	if s.subscribers[code] == nil {
		s.subscribers[code] = make(map[chan model.ChangeEvent]struct{})
	}
	s.subscribers[code][ch] = struct{}{}
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers[code], ch)
			s.subMu.Unlock()
			close(ch)
		})
	}

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return ch, cancel, nil
}

func (s *Storage) publish(event model.ChangeEvent) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for ch := range s.subscribers[event.RoomID] {
		select {
		case ch <- event:
		default:
			// Subscriber buffer full; it will catch up on next fetch
		}
	}
}

// sortPlayers orders by creation time then id
func sortPlayers(players []*model.Player) {
	sort.Slice(players, func(i, j int) bool {
		if !players[i].CreatedAt.Equal(players[j].CreatedAt) {
			return players[i].CreatedAt.Before(players[j].CreatedAt)
		}
		return players[i].ID < players[j].ID
	})
}
