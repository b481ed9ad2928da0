package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	accounts           map[model.PlayerID]*model.Account
	registeredAccounts map[model.PlayerID]*model.RegisteredAccount
	usernameIndex      map[string]model.PlayerID
	rooms              map[model.RoomID]*model.Room
	hallOfFame         map[string]*model.HallOfFameEntry
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:           make(map[model.PlayerID]*model.Account),
		registeredAccounts: make(map[model.PlayerID]*model.RegisteredAccount),
		usernameIndex:      make(map[string]model.PlayerID),
		rooms:              make(map[model.RoomID]*model.Room),
		hallOfFame:         make(map[string]*model.HallOfFameEntry),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.ID] = account
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.PlayerID) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return account, nil
}

func (s *Storage) DeleteAccount(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, id)
	return nil
}

// Registered account operations

func (s *Storage) SaveRegisteredAccount(ctx context.Context, ra *model.RegisteredAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registeredAccounts[ra.PlayerID] = ra
	s.usernameIndex[ra.Username] = ra.PlayerID
	return nil
}

func (s *Storage) GetRegisteredAccount(ctx context.Context, playerID model.PlayerID) (*model.RegisteredAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ra, ok := s.registeredAccounts[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return ra, nil
}

func (s *Storage) GetRegisteredAccountByUsername(ctx context.Context, username string) (*model.RegisteredAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	ra, ok := s.registeredAccounts[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return ra, nil
}

// Room operations

func (s *Storage) SaveNewRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; ok {
		return model.ErrDuplicateRoomID
	}
	s.rooms[room.ID] = room
	return nil
}

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func (s *Storage) RoomExists(ctx context.Context, id model.RoomID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[id]
	return ok, nil
}

func (s *Storage) ListActiveRooms(ctx context.Context) ([]*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rooms []*model.Room
	for _, room := range s.rooms {
		if room.Active {
			rooms = append(rooms, room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].LastActivity.After(rooms[j].LastActivity)
	})
	return rooms, nil
}

func (s *Storage) DeactivateRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	room.Active = false
	return nil
}

func (s *Storage) DeleteInactiveRoomsOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for id, room := range s.rooms {
		if !room.Active && room.LastActivity.Before(cutoff) {
			delete(s.rooms, id)
			deleted++
		}
	}
	return deleted, nil
}

// Hall of fame operations

func (s *Storage) SaveHallOfFameEntry(ctx context.Context, entry *model.HallOfFameEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hallOfFame[entry.Username] = entry
	return nil
}

func (s *Storage) GetHallOfFameEntry(ctx context.Context, username string) (*model.HallOfFameEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.hallOfFame[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return entry, nil
}

func (s *Storage) ListHallOfFame(ctx context.Context) ([]*model.HallOfFameEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]*model.HallOfFameEntry, 0, len(s.hallOfFame))
	for _, e := range s.hallOfFame {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].Points > entries[j].Points
	})
	return entries, nil
}
