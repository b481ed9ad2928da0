package turn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ratrace-game/server/internal/dependencies/mocks"
	"github.com/ratrace-game/server/internal/model"
)

type SchedulerSuite struct {
	suite.Suite
	clock     *mocks.MockClock
	scheduler *Scheduler
	room      *model.Room
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.scheduler = New(s.clock)

	s.room = &model.Room{
		ID:     "room-1",
		State:  model.RoomStateStarted,
		Config: model.DefaultRoomConfig(),
		Players: []model.Player{
			{ID: "player-1", Active: true},
			{ID: "player-2", Active: true},
			{ID: "player-3", Active: true},
		},
	}
	s.Require().NoError(s.scheduler.Begin(s.room))
}

func (s *SchedulerSuite) TestBeginSetsFirstTurn() {
	s.Equal(0, s.room.CurrentIndex)
	s.Equal(1, s.room.Round)
	s.Equal(s.clock.CurrentTime.Add(120*time.Second), s.room.TurnDeadline)
	s.Equal(model.PlayerID("player-1"), s.room.CurrentPlayer().ID)
}

func (s *SchedulerSuite) TestBeginSkipsDisconnectedLeader() {
	s.room.Players[0].Active = false
	s.Require().NoError(s.scheduler.Begin(s.room))
	s.Equal(model.PlayerID("player-2"), s.room.CurrentPlayer().ID)
}

func (s *SchedulerSuite) TestPassAdvancesInRosterOrder() {
	s.Require().NoError(s.scheduler.Pass(s.room, "player-1"))
	s.Equal(model.PlayerID("player-2"), s.room.CurrentPlayer().ID)
	s.Equal(1, s.room.Round)

	s.Require().NoError(s.scheduler.Pass(s.room, "player-2"))
	s.Equal(model.PlayerID("player-3"), s.room.CurrentPlayer().ID)
}

func (s *SchedulerSuite) TestPassWrapAroundBumpsRound() {
	s.Require().NoError(s.scheduler.Pass(s.room, "player-1"))
	s.Require().NoError(s.scheduler.Pass(s.room, "player-2"))
	s.Require().NoError(s.scheduler.Pass(s.room, "player-3"))

	s.Equal(model.PlayerID("player-1"), s.room.CurrentPlayer().ID)
	s.Equal(2, s.room.Round)
}

func (s *SchedulerSuite) TestPassOutOfTurnRejected() {
	err := s.scheduler.Pass(s.room, "player-2")
	s.ErrorIs(err, model.ErrNotPlayersTurn)
	s.Equal(model.PlayerID("player-1"), s.room.CurrentPlayer().ID)
}

func (s *SchedulerSuite) TestPassSkipsDisconnectedPlayers() {
	s.room.Players[1].Active = false

	s.Require().NoError(s.scheduler.Pass(s.room, "player-1"))
	s.Equal(model.PlayerID("player-3"), s.room.CurrentPlayer().ID)
}

func (s *SchedulerSuite) TestPassResetsDeadline() {
	s.clock.Advance(50 * time.Second)
	s.Require().NoError(s.scheduler.Pass(s.room, "player-1"))
	s.Equal(s.clock.CurrentTime.Add(120*time.Second), s.room.TurnDeadline)
}

func (s *SchedulerSuite) TestSoleActivePlayerKeepsTurn() {
	s.room.Players[1].Active = false
	s.room.Players[2].Active = false

	s.Require().NoError(s.scheduler.Pass(s.room, "player-1"))
	s.Equal(model.PlayerID("player-1"), s.room.CurrentPlayer().ID)
	s.Equal(2, s.room.Round)
}

func (s *SchedulerSuite) TestPassBeforeStartRejected() {
	s.room.State = model.RoomStateWaiting
	err := s.scheduler.Pass(s.room, "player-1")
	s.ErrorIs(err, model.ErrGameNotStarted)
}

// Expiry tests

func (s *SchedulerSuite) TestExpireBeforeDeadlineIsNoop() {
	s.clock.Advance(119 * time.Second)
	moved, err := s.scheduler.Expire(s.room, s.clock.Now())
	s.Require().NoError(err)
	s.False(moved)
	s.Equal(model.PlayerID("player-1"), s.room.CurrentPlayer().ID)
}

func (s *SchedulerSuite) TestExpireAtDeadlineAdvances() {
	s.clock.Advance(120 * time.Second)
	moved, err := s.scheduler.Expire(s.room, s.clock.Now())
	s.Require().NoError(err)
	s.True(moved)
	s.Equal(model.PlayerID("player-2"), s.room.CurrentPlayer().ID)
}

func (s *SchedulerSuite) TestExpireRespectsAutoPassFlag() {
	s.room.Config.AutoPassOnExpiry = false
	s.clock.Advance(300 * time.Second)

	moved, err := s.scheduler.Expire(s.room, s.clock.Now())
	s.Require().NoError(err)
	s.False(moved)
	s.Equal(model.PlayerID("player-1"), s.room.CurrentPlayer().ID)
}

// TimeRemaining tests

func (s *SchedulerSuite) TestTimeRemainingCountsDown() {
	s.Equal(120*time.Second, s.scheduler.TimeRemaining(s.room))
	s.clock.Advance(45 * time.Second)
	s.Equal(75*time.Second, s.scheduler.TimeRemaining(s.room))
}

func (s *SchedulerSuite) TestTimeRemainingClampsToZero() {
	s.clock.Advance(500 * time.Second)
	s.Equal(time.Duration(0), s.scheduler.TimeRemaining(s.room))
}
