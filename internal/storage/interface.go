package storage

import (
	"context"
	"time"

	"github.com/ratrace-game/server/internal/model"
)

// Storage is the persistence gateway the game core calls to durably
// save and restore state. The core depends only on this contract, not on
// any specific store.
type Storage interface {
	// Account operations (auth)
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id model.PlayerID) (*model.Account, error)
	DeleteAccount(ctx context.Context, id model.PlayerID) error

	// Registered account operations
	SaveRegisteredAccount(ctx context.Context, ra *model.RegisteredAccount) error
	GetRegisteredAccount(ctx context.Context, playerID model.PlayerID) (*model.RegisteredAccount, error)
	GetRegisteredAccountByUsername(ctx context.Context, username string) (*model.RegisteredAccount, error)

	// Room operations

	// SaveNewRoom saves a room only if no document with its id exists,
	// returning model.ErrDuplicateRoomID otherwise
	SaveNewRoom(ctx context.Context, room *model.Room) error
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error
	RoomExists(ctx context.Context, id model.RoomID) (bool, error)

	// ListActiveRooms returns snapshots of all active rooms, ordered by
	// most recent activity first
	ListActiveRooms(ctx context.Context) ([]*model.Room, error)

	// DeactivateRoom marks a room inactive without deleting its document
	DeactivateRoom(ctx context.Context, id model.RoomID) error

	// DeleteInactiveRoomsOlderThan permanently deletes inactive rooms whose
	// last activity predates the cutoff, returning the number deleted
	DeleteInactiveRoomsOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Hall of fame operations
	SaveHallOfFameEntry(ctx context.Context, entry *model.HallOfFameEntry) error
	GetHallOfFameEntry(ctx context.Context, username string) (*model.HallOfFameEntry, error)
	ListHallOfFame(ctx context.Context) ([]*model.HallOfFameEntry, error)
}
