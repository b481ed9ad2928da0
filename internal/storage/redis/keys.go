package redis

import (
	"fmt"

	"github.com/ratrace-game/server/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "ratrace"

// accountKey returns the Redis key for an Account
func accountKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, id)
}

// registeredAccountKey returns the Redis key for a RegisteredAccount
func registeredAccountKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_account:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// roomKey returns the Redis key for a Room document
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// activeRoomsIndexKey returns the ZSET of active room ids scored by
// last-activity time
func activeRoomsIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms:active", keyPrefix)
}

// inactiveRoomsIndexKey returns the ZSET of deactivated room ids scored
// by last-activity time; the cleanup sweep range-scans it
func inactiveRoomsIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms:inactive", keyPrefix)
}

// hallOfFameKey returns the Redis key for a HallOfFameEntry
func hallOfFameKey(username string) string {
	return fmt.Sprintf("%s:halloffame:%s", keyPrefix, username)
}

// hallOfFameIndexKey returns the SET of usernames with hall-of-fame entries
func hallOfFameIndexKey() string {
	return fmt.Sprintf("%s:idx:halloffame", keyPrefix)
}
