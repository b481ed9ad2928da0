package registry

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ratrace-game/server/internal/dependencies/mocks"
	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/services/ledger"
	"github.com/ratrace-game/server/internal/services/profession"
	"github.com/ratrace-game/server/internal/services/session"
	"github.com/ratrace-game/server/internal/services/stats"
	"github.com/ratrace-game/server/internal/services/turn"
	"github.com/ratrace-game/server/internal/storage/memory"
)

type RegistrySuite struct {
	suite.Suite
	storage  *memory.Storage
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	registry *Registry
	ctx      context.Context
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()

	ledgerService := ledger.New(s.clock, s.random)
	negotiator := profession.New(ledgerService, s.random, model.DefaultProfessions())
	scheduler := turn.New(s.clock)
	aggregator := stats.New(s.storage, s.clock)
	logger := slog.New(slog.DiscardHandler)

	s.registry = New(
		DefaultConfig(),
		s.storage,
		ledgerService,
		negotiator,
		scheduler,
		aggregator,
		s.clock,
		s.random,
		logger,
	)
	s.ctx = context.Background()
}

func (s *RegistrySuite) createRoom(name string) *session.Session {
	sess, err := s.registry.CreateRoom(s.ctx, name, "creator-1", model.DefaultRoomConfig())
	s.Require().NoError(err)
	return sess
}

func (s *RegistrySuite) TestCreateRoomGeneratesIDAndPersists() {
	s.random.QueueString("ROOM01")
	sess := s.createRoom("My Game")

	s.Equal(model.RoomID("ROOM01"), sess.ID())

	saved, err := s.storage.GetRoom(s.ctx, "ROOM01")
	s.Require().NoError(err)
	s.Equal("My Game", saved.Name)
	s.Equal(model.RoomStateWaiting, saved.State)
	s.True(saved.Active)
}

func (s *RegistrySuite) TestCreateRoomRetriesOnIDCollision() {
	s.random.QueueString("ROOM01")
	s.createRoom("First")

	s.random.QueueString("ROOM01", "ROOM02")
	sess := s.createRoom("Second")
	s.Equal(model.RoomID("ROOM02"), sess.ID())
}

func (s *RegistrySuite) TestCreateRoomExhaustedIDsRejected() {
	s.random.QueueString("ROOM01")
	s.createRoom("First")

	// Every attempt collides with the existing room
	s.random.QueueString("ROOM01", "ROOM01", "ROOM01", "ROOM01", "ROOM01")
	_, err := s.registry.CreateRoom(s.ctx, "Clash", "creator-2", model.DefaultRoomConfig())
	s.ErrorIs(err, model.ErrDuplicateRoomID)
}

func (s *RegistrySuite) TestCreateRoomNeverOverwritesExisting() {
	s.random.QueueString("ROOM01")
	first := s.createRoom("First")
	_, err := first.Join(s.ctx, "player-1", "Alice", "alice@example.com", "conn-1")
	s.Require().NoError(err)
	first.Flush()

	s.random.QueueString("ROOM01", "ROOM02")
	s.createRoom("Second")

	saved, err := s.storage.GetRoom(s.ctx, "ROOM01")
	s.Require().NoError(err)
	s.Equal("First", saved.Name)
	s.Len(saved.Players, 1)
}

func (s *RegistrySuite) TestGetSessionReturnsLiveSession() {
	created := s.createRoom("My Game")

	found, err := s.registry.GetSession(s.ctx, created.ID())
	s.Require().NoError(err)
	s.Same(created, found)
}

func (s *RegistrySuite) TestGetSessionUnknownRoom() {
	_, err := s.registry.GetSession(s.ctx, "NOPE")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *RegistrySuite) TestGetSessionLazilyRestoresFromStorage() {
	room := &model.Room{
		ID:           "STORED",
		Name:         "Persisted",
		State:        model.RoomStateWaiting,
		Config:       model.DefaultRoomConfig(),
		Active:       true,
		LastActivity: s.clock.Now(),
	}
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))

	sess, err := s.registry.GetSession(s.ctx, "STORED")
	s.Require().NoError(err)
	s.Equal("Persisted", sess.Snapshot().Name)
}

func (s *RegistrySuite) TestListActiveOrdersByRecency() {
	s.random.QueueString("ROOM01", "ROOM02")
	s.createRoom("Old")
	s.clock.Advance(time.Minute)
	s.createRoom("New")

	summaries := s.registry.ListActive()
	s.Require().Len(summaries, 2)
	s.Equal(model.RoomID("ROOM02"), summaries[0].ID)
	s.Equal(model.RoomID("ROOM01"), summaries[1].ID)
}

func (s *RegistrySuite) TestRemoveRoomDeletesEverywhere() {
	sess := s.createRoom("Doomed")
	s.Require().NoError(s.registry.RemoveRoom(s.ctx, sess.ID()))

	_, err := s.registry.GetSession(s.ctx, sess.ID())
	s.ErrorIs(err, model.ErrRoomNotFound)
	_, err = s.storage.GetRoom(s.ctx, sess.ID())
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *RegistrySuite) TestRestoreActiveRebuildsSessions() {
	room := &model.Room{
		ID:     "GAME99",
		Name:   "Survivor",
		State:  model.RoomStateStarted,
		Config: model.DefaultRoomConfig(),
		Players: []model.Player{
			{ID: "player-1", Active: true, ConnectionID: "conn-1"},
		},
		Active:       true,
		LastActivity: s.clock.Now(),
	}
	s.Require().NoError(s.storage.SaveRoom(s.ctx, room))

	s.Require().NoError(s.registry.RestoreActive(s.ctx))

	sess, err := s.registry.GetSession(s.ctx, "GAME99")
	s.Require().NoError(err)

	// Connections do not survive a restart
	snap := sess.Snapshot()
	s.False(snap.Players[0].Active)
	s.Empty(snap.Players[0].ConnectionID)
}

// Sweep tests

func (s *RegistrySuite) TestSweepDeactivatesIdleEmptyRoom() {
	sess := s.createRoom("Abandoned")

	s.clock.Advance(61 * time.Minute)
	deactivated, _ := s.registry.SweepInactive(s.ctx, s.clock.Now())
	s.Equal(1, deactivated)

	// Session is gone from the table and the document marked inactive
	_, err := s.registry.GetSession(s.ctx, sess.ID())
	s.ErrorIs(err, model.ErrRoomNotFound)
	saved, err := s.storage.GetRoom(s.ctx, sess.ID())
	s.Require().NoError(err)
	s.False(saved.Active)
}

func (s *RegistrySuite) TestSweepSparesRoomWithConnectedPlayer() {
	sess := s.createRoom("Occupied")
	_, err := sess.Join(s.ctx, "player-1", "Alice", "alice@example.com", "conn-1")
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)
	deactivated, deleted := s.registry.SweepInactive(s.ctx, s.clock.Now())
	s.Equal(0, deactivated)
	s.Equal(0, deleted)

	_, err = s.registry.GetSession(s.ctx, sess.ID())
	s.NoError(err)
}

func (s *RegistrySuite) TestSweepSparesRecentlyActiveRoom() {
	s.createRoom("Fresh")

	s.clock.Advance(30 * time.Minute)
	deactivated, _ := s.registry.SweepInactive(s.ctx, s.clock.Now())
	s.Equal(0, deactivated)
}

func (s *RegistrySuite) TestSweepDeletesLongDeadRooms() {
	sess := s.createRoom("Ancient")
	roomID := sess.ID()

	// First sweep deactivates after the idle timeout
	s.clock.Advance(2 * time.Hour)
	deactivated, deleted := s.registry.SweepInactive(s.ctx, s.clock.Now())
	s.Equal(1, deactivated)
	s.Equal(0, deleted)

	// Second sweep deletes once past the retention window
	s.clock.Advance(25 * time.Hour)
	_, deleted = s.registry.SweepInactive(s.ctx, s.clock.Now())
	s.Equal(1, deleted)

	_, err := s.storage.GetRoom(s.ctx, roomID)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *RegistrySuite) TestSessionHookRunsForNewSessions() {
	var hooked []model.RoomID
	s.registry.SetSessionHook(func(sess *session.Session) {
		hooked = append(hooked, sess.ID())
	})

	sess := s.createRoom("Hooked")
	s.Equal([]model.RoomID{sess.ID()}, hooked)
}
