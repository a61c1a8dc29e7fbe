package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hostcard/pokerroom/internal/model"
	"github.com/hostcard/pokerroom/internal/storage"
)

//go:embed schema.sql
var schema embed.FS

// feedBufferSize is the per-subscriber event buffer; a subscriber that
// falls this far behind starts dropping events and must rely on its
// next full fetch.
const feedBufferSize = 64

// Storage is a Postgres-backed implementation of the store. The change
// feed rides on LISTEN/NOTIFY, one channel per room, so every process
// connected to the same database sees every write. Notification
// payloads carry the full event; our rows stay well under the 8000
// byte NOTIFY payload limit.
type Storage struct {
	pool *pgxpool.Pool
}

// New creates a new Postgres storage instance and verifies the connection
func New(ctx context.Context, dsn string) (*Storage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Storage{pool: pool}, nil
}

// Migrate applies the embedded schema
func (s *Storage) Migrate(ctx context.Context) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, string(sqlBytes))
	return err
}

// Close closes the connection pool
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room, expectedVersion int64) error {
	if expectedVersion == 0 {
		room.Version = 1
		tag, err := s.pool.Exec(ctx, `
			INSERT INTO rooms(
				id, stage, community_cards, deck, shuffle_factor, qr_url,
				winners, dealer_index, round_count, version, created_at, updated_at
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now(),now())
			ON CONFLICT (id) DO NOTHING
		`, room.ID, room.Stage, room.CommunityCards, room.Deck, room.ShuffleFactor,
			room.QRUrl, room.Winners, room.DealerIndex, room.RoundCount, room.Version)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return model.ErrVersionConflict
		}
		return s.notify(ctx, model.ChangeEvent{
			Entity:      model.EntityRoom,
			Kind:        model.ChangeInsert,
			RoomID:      room.ID,
			RoomVersion: room.Version,
			Room:        room,
			OccurredAt:  time.Now(),
		})
	}

	room.Version = expectedVersion + 1
	tag, err := s.pool.Exec(ctx, `
		UPDATE rooms
		   SET stage = $2,
		       community_cards = $3,
		       deck = $4,
		       shuffle_factor = $5,
		       qr_url = $6,
		       winners = $7,
		       dealer_index = $8,
		       round_count = $9,
		       version = $10,
		       updated_at = now()
		 WHERE id = $1 AND version = $11
	`, room.ID, room.Stage, room.CommunityCards, room.Deck, room.ShuffleFactor,
		room.QRUrl, room.Winners, room.DealerIndex, room.RoundCount, room.Version, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		exists, err := s.RoomExists(ctx, room.ID)
		if err != nil {
			return err
		}
		if !exists {
			return model.ErrRoomNotFound
		}
		return model.ErrVersionConflict
	}

	return s.notify(ctx, model.ChangeEvent{
		Entity:      model.EntityRoom,
		Kind:        model.ChangeUpdate,
		RoomID:      room.ID,
		RoomVersion: room.Version,
		Room:        room,
		OccurredAt:  time.Now(),
	})
}

func (s *Storage) GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	var room model.Room
	err := s.pool.QueryRow(ctx, `
		SELECT id, stage, community_cards, deck, shuffle_factor, qr_url,
		       winners, dealer_index, round_count, version, created_at, updated_at
		  FROM rooms WHERE id = $1
	`, code).Scan(
		&room.ID, &room.Stage, &room.CommunityCards, &room.Deck, &room.ShuffleFactor,
		&room.QRUrl, &room.Winners, &room.DealerIndex, &room.RoundCount,
		&room.Version, &room.CreatedAt, &room.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}
	return &room, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	// Players go with the room via ON DELETE CASCADE
	tag, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return nil
	}
	return s.notify(ctx, model.ChangeEvent{
		Entity:     model.EntityRoom,
		Kind:       model.ChangeDelete,
		RoomID:     code,
		OccurredAt: time.Now(),
	})
}

func (s *Storage) RoomExists(ctx context.Context, code model.RoomCode) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM rooms WHERE id = $1)`, code).Scan(&exists)
	return exists, err
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO players(id, room_id, name, hand, status, is_revealed, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE
		  SET room_id = EXCLUDED.room_id,
		      name = EXCLUDED.name,
		      hand = EXCLUDED.hand,
		      status = EXCLUDED.status,
		      is_revealed = EXCLUDED.is_revealed
		RETURNING (xmax = 0)
	`, player.ID, player.RoomID, player.Name, player.Hand, player.Status,
		player.IsRevealed, player.CreatedAt).Scan(&inserted)
	if err != nil {
		return err
	}

	kind := model.ChangeUpdate
	if inserted {
		kind = model.ChangeInsert
	}
	return s.notify(ctx, model.ChangeEvent{
		Entity:     model.EntityPlayer,
		Kind:       kind,
		RoomID:     player.RoomID,
		Player:     player,
		PlayerID:   player.ID,
		OccurredAt: time.Now(),
	})
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	var player model.Player
	err := s.pool.QueryRow(ctx, `
		SELECT id, room_id, name, hand, status, is_revealed, created_at
		  FROM players WHERE id = $1
	`, id).Scan(
		&player.ID, &player.RoomID, &player.Name, &player.Hand,
		&player.Status, &player.IsRevealed, &player.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}
	return &player, nil
}

func (s *Storage) ListPlayers(ctx context.Context, code model.RoomCode) ([]*model.Player, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, room_id, name, hand, status, is_revealed, created_at
		  FROM players
		 WHERE room_id = $1
		 ORDER BY created_at, id
	`, code)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []*model.Player{}
	for rows.Next() {
		var player model.Player
		if err := rows.Scan(
			&player.ID, &player.RoomID, &player.Name, &player.Hand,
			&player.Status, &player.IsRevealed, &player.CreatedAt,
		); err != nil {
			return nil, err
		}
		players = append(players, &player)
	}
	return players, rows.Err()
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	var roomID model.RoomCode
	err := s.pool.QueryRow(ctx, `
		DELETE FROM players WHERE id = $1 RETURNING room_id
	`, id).Scan(&roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	return s.notify(ctx, model.ChangeEvent{
		Entity:     model.EntityPlayer,
		Kind:       model.ChangeDelete,
		RoomID:     roomID,
		PlayerID:   id,
		OccurredAt: time.Now(),
	})
}

func (s *Storage) DeletePlayersForRoom(ctx context.Context, code model.RoomCode) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM players WHERE room_id = $1`, code)
	return err
}

// Change feed

// feedChannel returns the NOTIFY channel name for a room. Codes are
// short and numeric so the name is always a valid identifier.
func feedChannel(code model.RoomCode) string {
	return fmt.Sprintf("pokerroom_feed_%s", code)
}

func (s *Storage) notify(ctx context.Context, event model.ChangeEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, feedChannel(event.RoomID), string(data))
	return err
}

func (s *Storage) Subscribe(ctx context.Context, code model.RoomCode) (<-chan model.ChangeEvent, func(), error) {
	poolConn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}

	// Hijack a dedicated connection: a conn with an active LISTEN must
	// not go back into the pool.
	conn := poolConn.Hijack()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{feedChannel(code)}.Sanitize()); err != nil {
		_ = conn.Close(context.Background())
		return nil, nil, err
	}

	listenCtx, stop := context.WithCancel(ctx)
	var once sync.Once
	cancel := func() {
		once.Do(stop)
	}

	out := make(chan model.ChangeEvent, feedBufferSize)
	go func() {
		defer close(out)
		defer func() { _ = conn.Close(context.Background()) }()
		for {
			notification, err := conn.WaitForNotification(listenCtx)
			if err != nil {
				return
			}
			var event model.ChangeEvent
			if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
				continue // Skip invalid payloads
			}
			select {
			case out <- event:
			default:
				// Subscriber buffer full; it will catch up on next fetch
			}
		}
	}()

	return out, cancel, nil
}
