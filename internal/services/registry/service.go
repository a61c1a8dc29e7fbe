package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hostcard/pokerroom/internal/dependencies/clock"
	"github.com/hostcard/pokerroom/internal/dependencies/random"
	"github.com/hostcard/pokerroom/internal/model"
	"github.com/hostcard/pokerroom/internal/storage"
)

// Errors
var (
	ErrInvalidSession = errors.New("invalid or expired session")
)

const (
	idAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
	idLength    = 16
	tokenLength = 24
)

// Session represents an authenticated device session, bound to one room
// and (for player devices) one seat
type Session struct {
	Token     string
	RoomID    model.RoomCode
	PlayerID  model.PlayerID
	IsHost    bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Config holds configuration for the registry service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default registry configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// Service handles joining rooms and session management. Seat identity is
// the player name: rejoining with the same name (case-insensitive)
// resumes the existing seat rather than creating a new one. Two humans
// picking the same name therefore share a seat; that is a known
// trade-off of the join-by-name protocol.
//
// Sessions are held in a per-process map: tokens minted by one server
// replica are not honored by another, even when rooms live in a shared
// redis or postgres store. Run a single server, or move sessions into
// storage before scaling out.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
}

// New creates a new registry Service
func New(storage storage.Storage, clock clock.Clock, random random.Random, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         storage,
		clock:           clock,
		random:          random,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// Join adds a named player to a room, or resumes the existing seat if a
// player with that name (case-insensitive) is already present. A new
// session is minted either way.
func (s *Service) Join(ctx context.Context, code model.RoomCode, name string) (*model.Player, *Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, model.ErrEmptyName
	}

	if _, err := s.storage.GetRoom(ctx, code); err != nil {
		return nil, nil, err
	}

	players, err := s.storage.ListPlayers(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	for _, p := range players {
		if strings.EqualFold(p.Name, name) {
			session := s.createSession(code, p.ID, false)
			return p, session, nil
		}
	}

	player := &model.Player{
		ID:        model.PlayerID("p_" + s.random.String(idLength, idAlphabet)),
		RoomID:    code,
		Name:      name,
		Hand:      []model.Card{},
		Status:    model.StatusActive,
		CreatedAt: s.clock.Now(),
	}
	if err := s.storage.SavePlayer(ctx, player); err != nil {
		return nil, nil, err
	}

	session := s.createSession(code, player.ID, false)
	return player, session, nil
}

// MintHostSession creates the host device's session for a room. The host
// has no seat of its own.
func (s *Service) MintHostSession(code model.RoomCode) *Session {
	return s.createSession(code, "", true)
}

// Leave removes a player from their room and drops their sessions
func (s *Service) Leave(ctx context.Context, code model.RoomCode, playerID model.PlayerID) error {
	player, err := s.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	if player.RoomID != code {
		return model.ErrNotInRoom
	}

	if err := s.storage.DeletePlayer(ctx, playerID); err != nil {
		return err
	}

	s.mu.Lock()
	for token, session := range s.sessions {
		if session.PlayerID == playerID {
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()
	return nil
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// InvalidateRoomSessions drops every session bound to a room, for when
// the room ends
func (s *Service) InvalidateRoomSessions(code model.RoomCode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if session.RoomID == code {
			delete(s.sessions, token)
		}
	}
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// createSession mints a session bound to a room and optionally a seat
func (s *Service) createSession(code model.RoomCode, playerID model.PlayerID, isHost bool) *Session {
	now := s.clock.Now()
	session := &Session{
		Token:     "sess_" + s.random.String(tokenLength, idAlphabet),
		RoomID:    code,
		PlayerID:  playerID,
		IsHost:    isHost,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	return session
}
