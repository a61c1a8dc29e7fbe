package redis

import (
	"fmt"

	"github.com/hostcard/pokerroom/internal/model"
)

// Key prefix for all room-related data
const keyPrefix = "pokerroom"

// roomKey returns the Redis key for a Room
func roomKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, code)
}

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// playersForRoomIndexKey returns the Redis key for the SET of player keys in a room
func playersForRoomIndexKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:idx:players_for_room:%s", keyPrefix, code)
}

// feedChannel returns the pub/sub channel carrying a room's change events
func feedChannel(code model.RoomCode) string {
	return fmt.Sprintf("%s:feed:%s", keyPrefix, code)
}
