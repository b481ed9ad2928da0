package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ratrace-game/server/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Account tests

func (s *StorageSuite) TestSaveAndGetAccount() {
	account := &model.Account{
		ID:          "player-1",
		DisplayName: "Alice",
		Email:       "alice@example.com",
		IsGuest:     false,
		CreatedAt:   time.Now(),
	}

	err := s.storage.SaveAccount(s.ctx, account)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetAccount(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(account.ID, retrieved.ID)
	s.Equal(account.DisplayName, retrieved.DisplayName)
	s.Equal(account.Email, retrieved.Email)
}

func (s *StorageSuite) TestGetAccountNotFound() {
	_, err := s.storage.GetAccount(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestDeleteAccount() {
	account := &model.Account{ID: "player-1", DisplayName: "Alice"}
	_ = s.storage.SaveAccount(s.ctx, account)

	err := s.storage.DeleteAccount(s.ctx, "player-1")
	s.Require().NoError(err)

	_, err = s.storage.GetAccount(s.ctx, "player-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Registered account tests

func (s *StorageSuite) TestSaveAndGetRegisteredAccount() {
	ra := &model.RegisteredAccount{
		PlayerID:     "player-1",
		Username:     "alice",
		PasswordHash: "hash123",
		CreatedAt:    time.Now(),
	}

	err := s.storage.SaveRegisteredAccount(s.ctx, ra)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRegisteredAccount(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(ra.Username, retrieved.Username)
}

func (s *StorageSuite) TestGetRegisteredAccountByUsername() {
	ra := &model.RegisteredAccount{
		PlayerID:     "player-1",
		Username:     "alice",
		PasswordHash: "hash123",
	}
	_ = s.storage.SaveRegisteredAccount(s.ctx, ra)

	retrieved, err := s.storage.GetRegisteredAccountByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("player-1", string(retrieved.PlayerID))
}

func (s *StorageSuite) TestGetRegisteredAccountByUsernameNotFound() {
	_, err := s.storage.GetRegisteredAccountByUsername(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Room tests

func (s *StorageSuite) TestSaveAndGetRoom() {
	room := &model.Room{
		ID:           "ABC123",
		Name:         "Test Table",
		State:        model.RoomStateWaiting,
		Config:       model.DefaultRoomConfig(),
		Active:       true,
		LastActivity: time.Now(),
		CreatedAt:    time.Now(),
	}

	err := s.storage.SaveRoom(s.ctx, room)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoom(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(room.ID, retrieved.ID)
	s.Equal(room.Name, retrieved.Name)
	s.Equal(room.State, retrieved.State)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "NONEXISTENT")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestSaveNewRoomRejectsDuplicate() {
	room := &model.Room{ID: "ABC123", Name: "First", State: model.RoomStateWaiting, Active: true}
	s.Require().NoError(s.storage.SaveNewRoom(s.ctx, room))

	clash := &model.Room{ID: "ABC123", Name: "Second", State: model.RoomStateWaiting, Active: true}
	err := s.storage.SaveNewRoom(s.ctx, clash)
	s.ErrorIs(err, model.ErrDuplicateRoomID)

	// The original document is untouched
	saved, err := s.storage.GetRoom(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal("First", saved.Name)
}

func (s *StorageSuite) TestRoomExists() {
	room := &model.Room{ID: "ABC123", State: model.RoomStateWaiting, Active: true}
	_ = s.storage.SaveRoom(s.ctx, room)

	exists, err := s.storage.RoomExists(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.storage.RoomExists(s.ctx, "NONEXISTENT")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestDeleteRoom() {
	room := &model.Room{ID: "ABC123", State: model.RoomStateWaiting, Active: true}
	_ = s.storage.SaveRoom(s.ctx, room)

	err := s.storage.DeleteRoom(s.ctx, "ABC123")
	s.Require().NoError(err)

	_, err = s.storage.GetRoom(s.ctx, "ABC123")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestListActiveRoomsOrdering() {
	base := time.Now()
	older := &model.Room{ID: "OLD111", Active: true, LastActivity: base.Add(-time.Hour)}
	newer := &model.Room{ID: "NEW222", Active: true, LastActivity: base}
	inactive := &model.Room{ID: "GONE33", Active: false, LastActivity: base}

	_ = s.storage.SaveRoom(s.ctx, older)
	_ = s.storage.SaveRoom(s.ctx, newer)
	_ = s.storage.SaveRoom(s.ctx, inactive)

	rooms, err := s.storage.ListActiveRooms(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(rooms, 2)
	s.Equal(model.RoomID("NEW222"), rooms[0].ID)
	s.Equal(model.RoomID("OLD111"), rooms[1].ID)
}

func (s *StorageSuite) TestDeactivateRoom() {
	room := &model.Room{ID: "ABC123", Active: true, LastActivity: time.Now()}
	_ = s.storage.SaveRoom(s.ctx, room)

	err := s.storage.DeactivateRoom(s.ctx, "ABC123")
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoom(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.False(retrieved.Active)

	rooms, err := s.storage.ListActiveRooms(s.ctx)
	s.Require().NoError(err)
	s.Empty(rooms)
}

func (s *StorageSuite) TestDeactivateRoomNotFound() {
	err := s.storage.DeactivateRoom(s.ctx, "NONEXISTENT")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestDeleteInactiveRoomsOlderThan() {
	base := time.Now()
	stale := &model.Room{ID: "STALE1", Active: false, LastActivity: base.Add(-48 * time.Hour)}
	recent := &model.Room{ID: "FRESH1", Active: false, LastActivity: base.Add(-time.Hour)}
	active := &model.Room{ID: "LIVE11", Active: true, LastActivity: base.Add(-48 * time.Hour)}

	_ = s.storage.SaveRoom(s.ctx, stale)
	_ = s.storage.SaveRoom(s.ctx, recent)
	_ = s.storage.SaveRoom(s.ctx, active)

	deleted, err := s.storage.DeleteInactiveRoomsOlderThan(s.ctx, base.Add(-24*time.Hour))
	s.Require().NoError(err)
	s.Equal(1, deleted)

	_, err = s.storage.GetRoom(s.ctx, "STALE1")
	s.ErrorIs(err, model.ErrRoomNotFound)

	_, err = s.storage.GetRoom(s.ctx, "FRESH1")
	s.NoError(err)

	_, err = s.storage.GetRoom(s.ctx, "LIVE11")
	s.NoError(err)
}

// Hall of fame tests

func (s *StorageSuite) TestSaveAndGetHallOfFameEntry() {
	entry := &model.HallOfFameEntry{
		Username: "alice",
		Games:    10,
		Wins:     4,
		Points:   12000,
	}

	err := s.storage.SaveHallOfFameEntry(s.ctx, entry)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetHallOfFameEntry(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(entry.Games, retrieved.Games)
	s.Equal(entry.Wins, retrieved.Wins)
}

func (s *StorageSuite) TestGetHallOfFameEntryNotFound() {
	_, err := s.storage.GetHallOfFameEntry(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestListHallOfFameOrdering() {
	_ = s.storage.SaveHallOfFameEntry(s.ctx, &model.HallOfFameEntry{Username: "alice", Wins: 2, Points: 5000})
	_ = s.storage.SaveHallOfFameEntry(s.ctx, &model.HallOfFameEntry{Username: "bob", Wins: 5, Points: 1000})
	_ = s.storage.SaveHallOfFameEntry(s.ctx, &model.HallOfFameEntry{Username: "carol", Wins: 2, Points: 9000})

	entries, err := s.storage.ListHallOfFame(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal("bob", entries[0].Username)
	s.Equal("carol", entries[1].Username)
	s.Equal("alice", entries[2].Username)
}
