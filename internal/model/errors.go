package model

import "errors"

// Common errors used across the application
var (
	// Room errors
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomEnded       = errors.New("room has ended")
	ErrVersionConflict = errors.New("room was modified concurrently")
	ErrInvalidStage    = errors.New("invalid stage for this action")
	ErrInvalidShuffle  = errors.New("shuffle factor must be between 0 and 100")
	ErrNotHost         = errors.New("only the host can perform this action")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrNotInRoom      = errors.New("player is not in this room")
	ErrEmptyName      = errors.New("player name must not be empty")

	// Deck errors
	ErrDeckExhausted = errors.New("not enough cards left in the deck")
)
