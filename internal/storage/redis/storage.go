package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hostcard/pokerroom/internal/model"
	"github.com/hostcard/pokerroom/internal/storage"
)

// feedBufferSize is the per-subscriber event buffer; a subscriber that
// falls this far behind starts dropping events and must rely on its
// next full fetch.
const feedBufferSize = 64

// Storage is a Redis-backed implementation of the store. The change
// feed rides on Redis pub/sub, one channel per room, so every process
// connected to the same Redis sees every write.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room, expectedVersion int64) error {
	key := roomKey(room.ID)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		exists := true
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				return err
			}
			exists = false
		}

		if exists {
			var current model.Room
			if err := json.Unmarshal(data, &current); err != nil {
				return err
			}
			if current.Version != expectedVersion {
				return model.ErrVersionConflict
			}
		} else if expectedVersion != 0 {
			return model.ErrRoomNotFound
		}

		room.Version = expectedVersion + 1
		payload, err := json.Marshal(room)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.cfg.RoomTTL)
			return nil
		})
		if err != nil {
			return err
		}

		kind := model.ChangeUpdate
		if !exists {
			kind = model.ChangeInsert
		}
		return s.publish(ctx, model.ChangeEvent{
			Entity:      model.EntityRoom,
			Kind:        kind,
			RoomID:      room.ID,
			RoomVersion: room.Version,
			Room:        room,
			OccurredAt:  time.Now(),
		})
	}

	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		// Someone else wrote the room between our read and our write, so
		// the caller's version is stale either way.
		return model.ErrVersionConflict
	}
	return err
}

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	existed, err := s.client.Exists(ctx, roomKey(code)).Result()
	if err != nil {
		return err
	}

	if err := s.deletePlayersForRoom(ctx, code); err != nil {
		return err
	}
	if err := s.client.Del(ctx, roomKey(code)).Err(); err != nil {
		return err
	}

	if existed > 0 {
		return s.publish(ctx, model.ChangeEvent{
			Entity:     model.EntityRoom,
			Kind:       model.ChangeDelete,
			RoomID:     code,
			OccurredAt: time.Now(),
		})
	}
	return nil
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	exists, err := s.client.Exists(ctx, roomKey(code)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}

	pKey := playerKey(player.ID)
	indexKey := playersForRoomIndexKey(player.RoomID)

	exists, err := s.client.Exists(ctx, pKey).Result()
	if err != nil {
		return err
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, pKey, data, s.cfg.PlayerTTL)
	pipe.SAdd(ctx, indexKey, pKey)
	pipe.Expire(ctx, indexKey, s.cfg.PlayerTTL) // Keep index TTL in sync
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	kind := model.ChangeUpdate
	if exists == 0 {
		kind = model.ChangeInsert
	}
	return s.publish(ctx, model.ChangeEvent{
		Entity:     model.EntityPlayer,
		Kind:       kind,
		RoomID:     player.RoomID,
		Player:     player,
		PlayerID:   player.ID,
		OccurredAt: time.Now(),
	})
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) ListPlayers(ctx context.Context, code model.RoomCode) ([]*model.Player, error) {
	playerKeys, err := s.client.SMembers(ctx, playersForRoomIndexKey(code)).Result()
	if err != nil {
		return nil, err
	}

	if len(playerKeys) == 0 {
		return []*model.Player{}, nil
	}

	values, err := s.client.MGet(ctx, playerKeys...).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Player may have expired
		}
		var player model.Player
		if err := json.Unmarshal([]byte(val.(string)), &player); err != nil {
			continue // Skip invalid data
		}
		players = append(players, &player)
	}

	// Stable order by join time, then id for ties
	sort.Slice(players, func(i, j int) bool {
		if !players[i].CreatedAt.Equal(players[j].CreatedAt) {
			return players[i].CreatedAt.Before(players[j].CreatedAt)
		}
		return players[i].ID < players[j].ID
	})
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	player, err := s.GetPlayer(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, playerKey(id))
	pipe.SRem(ctx, playersForRoomIndexKey(player.RoomID), playerKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	return s.publish(ctx, model.ChangeEvent{
		Entity:     model.EntityPlayer,
		Kind:       model.ChangeDelete,
		RoomID:     player.RoomID,
		PlayerID:   id,
		OccurredAt: time.Now(),
	})
}

func (s *Storage) DeletePlayersForRoom(ctx context.Context, code model.RoomCode) error {
	return s.deletePlayersForRoom(ctx, code)
}

func (s *Storage) deletePlayersForRoom(ctx context.Context, code model.RoomCode) error {
	indexKey := playersForRoomIndexKey(code)

	playerKeys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}

	if len(playerKeys) == 0 {
		return nil
	}

	// Delete all players and the index in one pipeline
	pipe := s.client.Pipeline()
	for _, key := range playerKeys {
		pipe.Del(ctx, key)
	}
	pipe.Del(ctx, indexKey)
	_, err = pipe.Exec(ctx)
	return err
}

// Change feed

func (s *Storage) publish(ctx context.Context, event model.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, feedChannel(event.RoomID), data).Err()
}

func (s *Storage) Subscribe(ctx context.Context, code model.RoomCode) (<-chan model.ChangeEvent, func(), error) {
	pubsub := s.client.Subscribe(ctx, feedChannel(code))

	// Wait for the subscription to be confirmed so no write between
	// Subscribe and the first read is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = pubsub.Close()
		})
	}

	out := make(chan model.ChangeEvent, feedBufferSize)
	go func() {
		defer close(out)
		defer cancel()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event model.ChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue // Skip invalid payloads
				}
				select {
				case out <- event:
				default:
					// Subscriber buffer full; it will catch up on next fetch
				}
			}
		}
	}()

	return out, cancel, nil
}
