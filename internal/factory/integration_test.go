package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/services/auth"
	"github.com/ratrace-game/server/internal/services/registry"
	"github.com/ratrace-game/server/internal/services/session"
	"github.com/ratrace-game/server/internal/testutil"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

// registerPlayer creates a registered account and returns its player id
func (s *IntegrationSuite) registerPlayer(username, name, email string) model.PlayerID {
	identity, err := s.app.AuthService.Register(s.ctx, username, "secret123", name, email)
	s.Require().NoError(err)
	return identity.Account.ID
}

// seatPlayers creates a two-player room in choice mode with both
// professions confirmed, ready to start
func (s *IntegrationSuite) seatPlayers(aliceID, bobID model.PlayerID) *session.Session {
	cfg := model.DefaultRoomConfig()
	sess, err := s.app.Registry.CreateRoom(s.ctx, "Test Table", aliceID, cfg)
	s.Require().NoError(err)

	_, err = sess.Join(s.ctx, aliceID, "Alice", "alice@example.com", "conn-a")
	s.Require().NoError(err)
	_, err = sess.Join(s.ctx, bobID, "Bob", "bob@example.com", "conn-b")
	s.Require().NoError(err)

	s.Require().NoError(sess.SelectProfession(s.ctx, aliceID, "engineer"))
	s.Require().NoError(sess.ConfirmProfession(s.ctx, aliceID))
	s.Require().NoError(sess.SelectProfession(s.ctx, bobID, "doctor"))
	s.Require().NoError(sess.ConfirmProfession(s.ctx, bobID))

	return sess
}

// restartApp rebuilds the app around the existing store, as a process
// restart would
func (s *IntegrationSuite) restartApp() *TestApp {
	authCfg := auth.DefaultConfig()
	authCfg.Secret = "test-secret"
	logger := testutil.NopLogger()

	app := newWithDependencies(s.app.Storage, s.app.MockClock, s.app.MockRandom, authCfg, registry.DefaultConfig(), logger)
	return &TestApp{App: app, MockClock: s.app.MockClock, MockRandom: s.app.MockRandom}
}

// Test: complete flow from registration to the hall of fame
func (s *IntegrationSuite) TestCompleteGameFlow() {
	aliceID := s.registerPlayer("alice", "Alice", "alice@example.com")
	bobID := s.registerPlayer("bob", "Bob", "bob@example.com")

	sess := s.seatPlayers(aliceID, bobID)
	s.Require().NoError(sess.Start(s.ctx, aliceID))

	snap := sess.Snapshot()
	s.Equal(model.RoomStateStarted, snap.State)
	s.Equal(int64(400), snap.GetPlayer(aliceID).Balance)  // engineer savings
	s.Equal(int64(3500), snap.GetPlayer(bobID).Balance)   // doctor savings

	// Alice banks on her turn
	_, err := sess.Deposit(s.ctx, aliceID, 1000, "salary")
	s.Require().NoError(err)
	credit, err := sess.IssueCredit(s.ctx, aliceID, 5000, 10, 12)
	s.Require().NoError(err)
	s.Require().NoError(sess.Transfer(s.ctx, aliceID, bobID, 200, "rent"))

	snap = sess.Snapshot()
	s.Equal(int64(400+1000+5000-200), snap.GetPlayer(aliceID).Balance)
	s.Equal(int64(3500+200), snap.GetPlayer(bobID).Balance)

	// Pay the credit off so no interest accrues over the long game
	_, err = sess.Repay(s.ctx, aliceID, credit.ID, 5000)
	s.Require().NoError(err)
	snap = sess.Snapshot()
	s.Empty(snap.GetPlayer(aliceID).Credits)

	// Turns alternate
	s.Require().NoError(sess.PassTurn(s.ctx, aliceID))
	s.Require().NoError(sess.PassTurn(s.ctx, bobID))

	// Run past the game deadline; the maintenance tick finishes the room
	s.app.MockClock.Advance(4 * time.Hour)
	s.app.Registry.TickAll(s.ctx, s.app.MockClock.Now())

	snap = sess.Snapshot()
	s.Equal(model.RoomStateFinished, snap.State)

	// Bob's doctor savings outlast Alice's banking
	s.Greater(snap.GetPlayer(bobID).NetWorth(), snap.GetPlayer(aliceID).NetWorth())

	entries, err := s.app.Stats.Top(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal("bob", entries[0].Username)
	s.Equal(1, entries[0].Wins)
	s.Equal("alice", entries[1].Username)
	s.Equal(1, entries[1].Games)
	s.Equal(0, entries[1].Wins)
}

// Test: a room survives a process restart with all monetary state
// intact
func (s *IntegrationSuite) TestRoomSurvivesRestart() {
	aliceID := s.registerPlayer("alice", "Alice", "alice@example.com")
	bobID := s.registerPlayer("bob", "Bob", "bob@example.com")

	sess := s.seatPlayers(aliceID, bobID)
	s.Require().NoError(sess.Start(s.ctx, aliceID))
	_, err := sess.Deposit(s.ctx, aliceID, 750, "salary")
	s.Require().NoError(err)
	roomID := sess.ID()

	// Queued saves must land before the "crash"
	sess.Flush()

	// A fresh app over the same store stands in for a restarted process
	restarted := s.restartApp()
	s.Require().NoError(restarted.Registry.RestoreActive(s.ctx))

	reloaded, err := restarted.Registry.GetSession(s.ctx, roomID)
	s.Require().NoError(err)
	snap := reloaded.Snapshot()
	s.Equal(model.RoomStateStarted, snap.State)
	s.Equal(int64(400+750), snap.GetPlayer(aliceID).Balance)
	s.Len(snap.PlayerTransactions(aliceID), 2)

	// Connections do not survive the restart
	s.False(snap.GetPlayer(aliceID).Active)
	s.False(snap.GetPlayer(bobID).Active)
}

// Test: reconnecting by email reclaims the same seat
func (s *IntegrationSuite) TestReconnectByEmail() {
	aliceID := s.registerPlayer("alice", "Alice", "alice@example.com")
	bobID := s.registerPlayer("bob", "Bob", "bob@example.com")

	sess := s.seatPlayers(aliceID, bobID)
	s.Require().NoError(sess.Start(s.ctx, aliceID))
	s.Require().NoError(sess.Leave(s.ctx, bobID))

	snap := sess.Snapshot()
	s.False(snap.GetPlayer(bobID).Active)

	reconnect, err := sess.Join(s.ctx, bobID, "Bob", "bob@example.com", "conn-b2")
	s.Require().NoError(err)
	s.True(reconnect)

	snap = sess.Snapshot()
	s.True(snap.GetPlayer(bobID).Active)
	s.Equal(int64(3500), snap.GetPlayer(bobID).Balance)
}

// Test: idle rooms get deactivated and eventually deleted by the sweep
func (s *IntegrationSuite) TestSweepLifecycle() {
	aliceID := s.registerPlayer("alice", "Alice", "alice@example.com")

	cfg := model.DefaultRoomConfig()
	sess, err := s.app.Registry.CreateRoom(s.ctx, "Idle Table", aliceID, cfg)
	s.Require().NoError(err)
	_, err = sess.Join(s.ctx, aliceID, "Alice", "alice@example.com", "")
	s.Require().NoError(err)
	s.Require().NoError(sess.Leave(s.ctx, aliceID))
	roomID := sess.ID()

	// Not yet idle for long enough
	deactivated, deleted := s.app.Registry.SweepInactive(s.ctx, s.app.MockClock.Now())
	s.Equal(0, deactivated)
	s.Equal(0, deleted)

	s.app.MockClock.Advance(2 * time.Hour)
	deactivated, _ = s.app.Registry.SweepInactive(s.ctx, s.app.MockClock.Now())
	s.Equal(1, deactivated)

	_, err = s.app.Registry.GetSession(s.ctx, roomID)
	s.ErrorIs(err, model.ErrRoomNotFound)

	// Past the retention window the document goes away entirely
	s.app.MockClock.Advance(25 * time.Hour)
	_, deleted = s.app.Registry.SweepInactive(s.ctx, s.app.MockClock.Now())
	s.Equal(1, deleted)
}

// Test: websocket hubs receive events from sessions wired by the hook
func (s *IntegrationSuite) TestSessionHookWiresHub() {
	aliceID := s.registerPlayer("alice", "Alice", "alice@example.com")

	cfg := model.DefaultRoomConfig()
	sess, err := s.app.Registry.CreateRoom(s.ctx, "Hooked Table", aliceID, cfg)
	s.Require().NoError(err)

	// The factory installs the ws session hook, so a hub must exist for
	// every room the registry creates
	s.NotNil(s.app.HubManager.GetHub(sess.ID()))
}
