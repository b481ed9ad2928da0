package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ratrace-game/server/internal/dependencies/mocks"
	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/services/ledger"
	"github.com/ratrace-game/server/internal/services/profession"
	"github.com/ratrace-game/server/internal/services/session"
	"github.com/ratrace-game/server/internal/services/stats"
	"github.com/ratrace-game/server/internal/services/turn"
	"github.com/ratrace-game/server/internal/storage/memory"
)

// newHookSession builds a live session backed by in-memory storage for
// exercising the session hook
func newHookSession(roomID model.RoomID) *session.Session {
	store := memory.New()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	rnd := mocks.NewMockRandom()
	ledgerService := ledger.New(clk, rnd)
	negotiator := profession.New(ledgerService, rnd, model.DefaultProfessions())

	room := &model.Room{
		ID:           roomID,
		Name:         "Hooked",
		CreatorID:    "player-1",
		Config:       model.DefaultRoomConfig(),
		State:        model.RoomStateWaiting,
		Active:       true,
		CreatedAt:    clk.Now(),
		LastActivity: clk.Now(),
	}
	return session.New(
		room,
		store,
		ledgerService,
		negotiator,
		turn.New(clk),
		stats.New(store, clk),
		clk,
		testLogger(),
		time.Hour,
		2*time.Minute,
	)
}

func TestSessionHookCreatesHub(t *testing.T) {
	hubs := NewHubManager(testLogger())
	handler := &Handler{hubs: hubs, logger: testLogger()}

	sess := newHookSession("ROOM01")
	handler.SessionHook()(sess)

	if hubs.GetHub("ROOM01") == nil {
		t.Fatal("hook did not create a hub for the room")
	}
	hubs.RemoveHub("ROOM01")
}

// A session outlives its hub: the empty-hub sweep drops hubs nobody is
// connected to, and the next connection gets a fresh one. Events
// emitted after the sweep must land on the fresh hub.
func TestSessionHookSurvivesHubCleanup(t *testing.T) {
	hubs := NewHubManager(testLogger())
	handler := &Handler{hubs: hubs, logger: testLogger()}

	sess := newHookSession("ROOM01")
	handler.SessionHook()(sess)

	hubs.CleanupEmptyHubs()
	if hubs.GetHub("ROOM01") != nil {
		t.Fatal("empty hub survived cleanup")
	}

	// A later connection lands on a recreated hub
	hub := hubs.GetOrCreateHub("ROOM01")
	defer hubs.RemoveHub("ROOM01")
	client := testClient(hub, "player-1")
	hub.Register(client)
	time.Sleep(10 * time.Millisecond)

	if _, err := sess.Join(context.Background(), "player-1", "Alice", "alice@example.com", "conn-1"); err != nil {
		t.Fatalf("join: %v", err)
	}

	select {
	case msg := <-client.send:
		var frame OutFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			t.Fatalf("unmarshal broadcast: %v", err)
		}
		if frame.Type != string(model.EventRoomJoined) {
			t.Errorf("frame type = %q, want %q", frame.Type, model.EventRoomJoined)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("client on the recreated hub did not receive the event")
	}
}
