package registry

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ratrace-game/server/internal/dependencies/clock"
	"github.com/ratrace-game/server/internal/dependencies/random"
	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/services/ledger"
	"github.com/ratrace-game/server/internal/services/profession"
	"github.com/ratrace-game/server/internal/services/session"
	"github.com/ratrace-game/server/internal/services/stats"
	"github.com/ratrace-game/server/internal/services/turn"
	"github.com/ratrace-game/server/internal/storage"
)

const (
	// RoomIDLength is the length of generated room ids
	RoomIDLength = 6
	// RoomIDAlphabet is the characters used in room ids (avoids confusing chars)
	RoomIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// createAttempts bounds room id generation; a collision on every
	// attempt surfaces as ErrDuplicateRoomID
	createAttempts = 5
)

// Config tunes the cleanup sweep
type Config struct {
	// IdleTimeout is how long a room with no connected players stays
	// active before being deactivated
	IdleTimeout time.Duration

	// Retention is how long a deactivated room's document is kept before
	// permanent deletion
	Retention time.Duration

	// InterestPeriod is the wall-clock length of one in-game month
	InterestPeriod time.Duration

	// DisconnectGrace is how long a waiting room holds a disconnected
	// player's seat before the maintenance tick reclaims it
	DisconnectGrace time.Duration
}

// DefaultConfig returns the default registry configuration
func DefaultConfig() Config {
	return Config{
		IdleTimeout:     time.Hour,
		Retention:       24 * time.Hour,
		InterestPeriod:  time.Hour,
		DisconnectGrace: 2 * time.Minute,
	}
}

// Registry is the authoritative index of live room sessions. Rooms are
// created through it, looked up through it and retired through it; the
// cleanup sweep and the maintenance tick both walk its session table.
type Registry struct {
	mu       sync.RWMutex
	sessions map[model.RoomID]*session.Session

	cfg        Config
	storage    storage.Storage
	ledger     *ledger.Service
	negotiator *profession.Negotiator
	scheduler  *turn.Scheduler
	stats      *stats.Aggregator
	clock      clock.Clock
	random     random.Random
	logger     *slog.Logger

	// sessionHook runs for every session entering the table, before it
	// serves requests; the transport layer uses it to attach notifiers
	sessionHook func(*session.Session)
}

// New creates a new room registry
func New(
	cfg Config,
	storage storage.Storage,
	ledgerService *ledger.Service,
	negotiator *profession.Negotiator,
	scheduler *turn.Scheduler,
	statsAggregator *stats.Aggregator,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		sessions:   make(map[model.RoomID]*session.Session),
		cfg:        cfg,
		storage:    storage,
		ledger:     ledgerService,
		negotiator: negotiator,
		scheduler:  scheduler,
		stats:      statsAggregator,
		clock:      clock,
		random:     random,
		logger:     logger,
	}
}

// SetSessionHook installs a callback invoked for every session added to
// the registry. Must be set before any rooms exist.
func (r *Registry) SetSessionHook(hook func(*session.Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessionHook = hook
}

// CreateRoom creates a room and its live session
func (r *Registry) CreateRoom(ctx context.Context, name string, creatorID model.PlayerID, cfg model.RoomConfig) (*session.Session, error) {
	now := r.clock.Now()

	room := &model.Room{
		Name:         name,
		CreatorID:    creatorID,
		Config:       cfg,
		State:        model.RoomStateWaiting,
		Players:      []model.Player{},
		Transactions: []model.Transaction{},
		LastActivity: now,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Claim a generated id with a create-only save; a collision loses
	// the claim and retries with a fresh id
	saved := false
	for attempt := 0; attempt < createAttempts; attempt++ {
		room.ID = model.RoomID(r.random.String(RoomIDLength, RoomIDAlphabet))
		err := r.storage.SaveNewRoom(ctx, room.Clone())
		if err == nil {
			saved = true
			break
		}
		if !errors.Is(err, model.ErrDuplicateRoomID) {
			return nil, err
		}
	}
	if !saved {
		return nil, model.ErrDuplicateRoomID
	}

	sess := r.newSession(room)

	r.mu.Lock()
	r.sessions[room.ID] = sess
	r.mu.Unlock()

	r.logger.Info("room created", "room_id", room.ID, "creator_id", creatorID)
	return sess, nil
}

// GetSession returns the live session for a room. A session not in the
// table is lazily restored from storage if its room is still active.
func (r *Registry) GetSession(ctx context.Context, id model.RoomID) (*session.Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return sess, nil
	}

	room, err := r.storage.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}
	if !room.Active {
		return nil, model.ErrRoomNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Another caller may have restored it while we were loading
	if sess, ok := r.sessions[id]; ok {
		return sess, nil
	}
	sess = r.newSession(room)
	r.sessions[id] = sess
	r.logger.Info("room restored from storage", "room_id", id)
	return sess, nil
}

// RemoveRoom deletes a room outright: session and stored document
func (r *Registry) RemoveRoom(ctx context.Context, id model.RoomID) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	// Let queued saves land so the delete below is final
	if ok {
		sess.Flush()
	}
	return r.storage.DeleteRoom(ctx, id)
}

// ListActive returns summaries of all active rooms, most recently
// active first
func (r *Registry) ListActive() []model.RoomSummary {
	r.mu.RLock()
	sessions := make([]*session.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.mu.RUnlock()

	summaries := make([]model.RoomSummary, 0, len(sessions))
	for _, sess := range sessions {
		snap := sess.Snapshot()
		if !snap.Active {
			continue
		}
		summaries = append(summaries, snap.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastActivity.After(summaries[j].LastActivity)
	})
	return summaries
}

// RestoreActive loads every active room from storage into the session
// table. Called once at startup so games survive a restart.
func (r *Registry) RestoreActive(ctx context.Context) error {
	rooms, err := r.storage.ListActiveRooms(ctx)
	if err != nil {
		return err
	}

	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range rooms {
		if _, ok := r.sessions[room.ID]; ok {
			continue
		}
		// Nobody is connected after a restart; the disconnect grace runs
		// from now so waiting rooms are not pruned immediately
		for i := range room.Players {
			room.Players[i].Active = false
			room.Players[i].ConnectionID = ""
			room.Players[i].DisconnectedAt = now
		}
		r.sessions[room.ID] = r.newSession(room)
	}

	r.logger.Info("restored active rooms", "count", len(rooms))
	return nil
}

// TickAll drives time-based behavior on every live session
func (r *Registry) TickAll(ctx context.Context, now time.Time) {
	for _, sess := range r.snapshotSessions() {
		sess.Tick(ctx, now)
	}
}

// SweepInactive retires idle rooms in two stages: active rooms with no
// connected players past the idle timeout are deactivated and dropped
// from the session table; deactivated documents past the retention
// window are deleted permanently. Returns (deactivated, deleted).
func (r *Registry) SweepInactive(ctx context.Context, now time.Time) (int, int) {
	idleCutoff := now.Add(-r.cfg.IdleTimeout)

	deactivated := 0
	for _, sess := range r.snapshotSessions() {
		if sess.Deactivate(ctx, idleCutoff) {
			// The session leaves the table, so its queued saves must
			// land before anything else reads the document
			sess.Flush()
			r.mu.Lock()
			delete(r.sessions, sess.ID())
			r.mu.Unlock()
			deactivated++
		}
	}

	deleteCutoff := now.Add(-r.cfg.Retention)
	deleted, err := r.storage.DeleteInactiveRoomsOlderThan(ctx, deleteCutoff)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.logger.Error("deleting expired rooms", "error", err)
		}
		deleted = 0
	}

	if deactivated > 0 || deleted > 0 {
		r.logger.Info("cleanup sweep", "deactivated", deactivated, "deleted", deleted)
	}
	return deactivated, deleted
}

// FlushAll blocks until every live session's queued saves have reached
// the store. Called at shutdown so no state is lost.
func (r *Registry) FlushAll() {
	for _, sess := range r.snapshotSessions() {
		sess.Flush()
	}
}

func (r *Registry) snapshotSessions() []*session.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]*session.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	return sessions
}

func (r *Registry) newSession(room *model.Room) *session.Session {
	sess := session.New(
		room,
		r.storage,
		r.ledger,
		r.negotiator,
		r.scheduler,
		r.stats,
		r.clock,
		r.logger,
		r.cfg.InterestPeriod,
		r.cfg.DisconnectGrace,
	)
	if r.sessionHook != nil {
		r.sessionHook(sess)
	}
	return sess
}
