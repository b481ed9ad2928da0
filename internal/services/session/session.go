package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ratrace-game/server/internal/dependencies/clock"
	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/services/ledger"
	"github.com/ratrace-game/server/internal/services/profession"
	"github.com/ratrace-game/server/internal/services/stats"
	"github.com/ratrace-game/server/internal/services/turn"
	"github.com/ratrace-game/server/internal/storage"
)

// Notifier receives events produced by a session, typically to fan them
// out to connected clients
type Notifier func(event model.Event)

// Session owns the live state of one room. Every operation takes the
// session mutex, so all mutations of a room are serialized; the rest of
// the system only ever sees snapshots. Persistence happens in the
// background after each mutation but never fails an operation: the
// in-memory room is the authority and the store is a crash-recovery
// copy.
type Session struct {
	mu   sync.Mutex
	room *model.Room

	storage    storage.Storage
	ledger     *ledger.Service
	negotiator *profession.Negotiator
	scheduler  *turn.Scheduler
	stats      *stats.Aggregator
	clock      clock.Clock
	logger     *slog.Logger

	// interestPeriod is the wall-clock length of one in-game month
	interestPeriod time.Duration

	// disconnectGrace is how long a waiting room holds a disconnected
	// player's seat before the maintenance tick reclaims it
	disconnectGrace time.Duration

	notify Notifier

	// Background persistence state: at most one writer goroutine per
	// session, always saving the newest queued snapshot
	persistMu sync.Mutex
	pending   *model.Room
	saves     sync.WaitGroup
}

// New creates a session around a room
func New(
	room *model.Room,
	storage storage.Storage,
	ledgerService *ledger.Service,
	negotiator *profession.Negotiator,
	scheduler *turn.Scheduler,
	statsAggregator *stats.Aggregator,
	clock clock.Clock,
	logger *slog.Logger,
	interestPeriod time.Duration,
	disconnectGrace time.Duration,
) *Session {
	return &Session{
		room:            room,
		storage:         storage,
		ledger:          ledgerService,
		negotiator:      negotiator,
		scheduler:       scheduler,
		stats:           statsAggregator,
		clock:           clock,
		logger:          logger,
		interestPeriod:  interestPeriod,
		disconnectGrace: disconnectGrace,
	}
}

// SetNotifier installs the event sink. Pass nil to silence the session.
func (s *Session) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = n
}

// ID returns the room's identifier
func (s *Session) ID() model.RoomID {
	return s.room.ID
}

// Snapshot returns a deep copy of the room's current state
func (s *Session) Snapshot() *model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.Clone()
}

// Join adds a player to the room, or reconnects them if a roster entry
// with the same email already exists. Reconnection works in any
// non-terminal state; fresh joins only before the game starts.
func (s *Session) Join(ctx context.Context, playerID model.PlayerID, displayName, email string, connID model.ConnectionID) (reconnect bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNotTerminalLocked(); err != nil {
		return false, err
	}

	if existing := s.room.GetPlayerByEmail(email); existing != nil {
		existing.ConnectionID = connID
		existing.Active = true
		existing.DisconnectedAt = time.Time{}
		s.touchLocked()
		s.emitLocked(model.EventRoomJoined, existing.ID, model.RoomJoinedPayload{
			PlayerID:    existing.ID,
			DisplayName: existing.DisplayName,
			Reconnect:   true,
		})
		s.persistLocked(ctx)
		return true, nil
	}

	if s.room.State != model.RoomStateWaiting {
		return false, model.ErrAlreadyStarted
	}
	if s.room.IsFull() {
		return false, model.ErrRoomFull
	}

	s.room.Players = append(s.room.Players, model.Player{
		ID:           playerID,
		DisplayName:  displayName,
		Email:        email,
		ConnectionID: connID,
		Active:       true,
		JoinedAt:     s.clock.Now(),
	})

	if err := s.negotiator.ApplyOnJoin(s.room, playerID); err != nil {
		// Roll the roster entry back; the player never joined
		s.room.Players = s.room.Players[:len(s.room.Players)-1]
		return false, err
	}

	s.touchLocked()
	s.emitLocked(model.EventRoomJoined, playerID, model.RoomJoinedPayload{
		PlayerID:    playerID,
		DisplayName: displayName,
	})
	s.persistLocked(ctx)
	return false, nil
}

// Leave removes a player from the room. Before the game starts the
// roster entry is dropped; afterwards the seat is kept and only marked
// inactive so the player can reconnect.
func (s *Session) Leave(ctx context.Context, playerID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.room.GetPlayer(playerID)
	if player == nil {
		return model.ErrPlayerNotFound
	}
	displayName := player.DisplayName

	switch s.room.State {
	case model.RoomStateWaiting:
		for i := range s.room.Players {
			if s.room.Players[i].ID == playerID {
				s.room.Players = append(s.room.Players[:i], s.room.Players[i+1:]...)
				break
			}
		}
		// The creator seat passes to the oldest remaining player
		if s.room.CreatorID == playerID && len(s.room.Players) > 0 {
			s.room.CreatorID = s.room.Players[0].ID
		}
	case model.RoomStateStarted:
		wasCurrent := s.room.CurrentPlayer() != nil && s.room.CurrentPlayer().ID == playerID
		player.Active = false
		player.ConnectionID = ""
		player.DisconnectedAt = s.clock.Now()
		if wasCurrent && s.room.ActivePlayerCount() > 0 {
			if err := s.scheduler.Pass(s.room, playerID); err == nil {
				s.emitTurnLocked(false)
			}
		}
	default:
		// Terminal states keep the roster for the record
	}

	s.touchLocked()
	s.emitLocked(model.EventRoomLeft, playerID, model.RoomLeftPayload{
		PlayerID:    playerID,
		DisplayName: displayName,
	})
	s.persistLocked(ctx)
	return nil
}

// Disconnect marks the player holding a connection as inactive without
// removing them from the roster. Called when a socket drops.
func (s *Session) Disconnect(ctx context.Context, connID model.ConnectionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.room.GetPlayerByConnection(connID)
	if player == nil {
		return
	}
	player.Active = false
	player.ConnectionID = ""
	player.DisconnectedAt = s.clock.Now()

	s.touchLocked()
	s.emitLocked(model.EventRoomUpdated, player.ID, nil)
	s.persistLocked(ctx)
}

// SelectProfession stakes a provisional profession claim
func (s *Session) SelectProfession(ctx context.Context, playerID model.PlayerID, professionID model.ProfessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.negotiator.Select(s.room, playerID, professionID); err != nil {
		return err
	}

	s.touchLocked()
	s.emitLocked(model.EventProfessionSelected, playerID, model.ProfessionSelectedPayload{
		PlayerID:     playerID,
		ProfessionID: professionID,
	})
	s.persistLocked(ctx)
	return nil
}

// ConfirmProfession finalizes the player's profession claim
func (s *Session) ConfirmProfession(ctx context.Context, playerID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.negotiator.Confirm(s.room, playerID); err != nil {
		return err
	}

	player := s.room.GetPlayer(playerID)
	s.touchLocked()
	s.emitLocked(model.EventProfessionConfirmed, playerID, model.ProfessionSelectedPayload{
		PlayerID:     playerID,
		ProfessionID: player.ProfessionID,
		Confirmed:    true,
	})
	s.persistLocked(ctx)
	return nil
}

// Start begins the game. Only the creator may start, at least two
// connected players are required, and every one of them must have a
// confirmed profession.
func (s *Session) Start(ctx context.Context, playerID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room.State != model.RoomStateWaiting {
		if err := s.checkNotTerminalLocked(); err != nil {
			return err
		}
		return model.ErrAlreadyStarted
	}
	if s.room.CreatorID != playerID {
		return model.ErrNotCreator
	}
	if s.room.ActivePlayerCount() < 2 {
		return model.ErrNotEnoughPlayers
	}
	if !s.negotiator.AllResolved(s.room) {
		return model.ErrProfessionsUnresolved
	}

	now := s.clock.Now()
	s.room.State = model.RoomStateStarted
	s.room.GameEndAt = now.Add(time.Duration(s.room.Config.GameDurationSec) * time.Second)
	if err := s.scheduler.Begin(s.room); err != nil {
		s.room.State = model.RoomStateWaiting
		return err
	}

	order := make([]model.PlayerID, len(s.room.Players))
	for i := range s.room.Players {
		order[i] = s.room.Players[i].ID
	}

	s.touchLocked()
	s.emitLocked(model.EventGameStarted, playerID, model.GameStartedPayload{
		TurnOrder: order,
		GameEndAt: s.room.GameEndAt,
	})
	s.persistLocked(ctx)
	return nil
}

// Deposit adds funds to a player's balance
func (s *Session) Deposit(ctx context.Context, playerID model.PlayerID, amount int64, description string) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBankableLocked(); err != nil {
		return nil, err
	}
	tx, err := s.ledger.Deposit(s.room, playerID, amount, description)
	if err != nil {
		return nil, err
	}
	return s.settleLocked(ctx, tx, playerID)
}

// Withdraw removes funds from a player's balance
func (s *Session) Withdraw(ctx context.Context, playerID model.PlayerID, amount int64, description string) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBankableLocked(); err != nil {
		return nil, err
	}
	tx, err := s.ledger.Withdraw(s.room, playerID, amount, description)
	if err != nil {
		return nil, err
	}
	return s.settleLocked(ctx, tx, playerID)
}

// Transfer moves funds from one player to another
func (s *Session) Transfer(ctx context.Context, from, to model.PlayerID, amount int64, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBankableLocked(); err != nil {
		return err
	}
	if err := s.ledger.Transfer(s.room, from, to, amount, description); err != nil {
		return err
	}
	if err := s.verifyLocked(ctx, from, to); err != nil {
		return err
	}

	s.touchLocked()
	s.emitLocked(model.EventBankOperation, from, model.BankOperationPayload{
		Transaction: s.room.Transactions[len(s.room.Transactions)-2],
		Balance:     s.room.GetPlayer(from).Balance,
	})
	s.persistLocked(ctx)
	return nil
}

// IssueCredit opens a credit line for a player. When the room restricts
// credit to the active turn, only the current player may borrow.
func (s *Session) IssueCredit(ctx context.Context, playerID model.PlayerID, amount, rate int64, termMonths int) (*model.CreditLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBankableLocked(); err != nil {
		return nil, err
	}
	if s.room.Config.CreditOnTurnOnly {
		current := s.room.CurrentPlayer()
		if current == nil || current.ID != playerID {
			return nil, model.ErrNotPlayersTurn
		}
	}

	credit, err := s.ledger.IssueCredit(s.room, playerID, amount, rate, termMonths, s.negotiator.Pool())
	if err != nil {
		return nil, err
	}
	if err := s.verifyLocked(ctx, playerID); err != nil {
		return nil, err
	}

	s.touchLocked()
	s.emitLocked(model.EventBankOperation, playerID, model.BankOperationPayload{
		Transaction: s.room.Transactions[len(s.room.Transactions)-1],
		Balance:     s.room.GetPlayer(playerID).Balance,
	})
	s.persistLocked(ctx)
	return credit, nil
}

// Repay pays down a credit line from the player's balance
func (s *Session) Repay(ctx context.Context, playerID model.PlayerID, creditID model.CreditID, amount int64) (*model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBankableLocked(); err != nil {
		return nil, err
	}
	tx, err := s.ledger.Repay(s.room, playerID, creditID, amount)
	if err != nil {
		return nil, err
	}
	return s.settleLocked(ctx, tx, playerID)
}

// PassTurn hands the turn to the next active player
func (s *Session) PassTurn(ctx context.Context, playerID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkNotTerminalLocked(); err != nil {
		return err
	}
	// A pass at or past the game deadline ends the game instead of
	// advancing the turn
	if s.room.State == model.RoomStateStarted && !s.clock.Now().Before(s.room.GameEndAt) {
		s.finishLocked(ctx)
		return nil
	}
	if err := s.scheduler.Pass(s.room, playerID); err != nil {
		return err
	}

	s.touchLocked()
	s.emitTurnLocked(false)
	s.persistLocked(ctx)
	return nil
}

// TimeRemaining returns the time left on the current turn
func (s *Session) TimeRemaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler.TimeRemaining(s.room)
}

// Tick drives the session's time-based behavior: profession selection
// timeouts while waiting, then turn expiry, interest accrual and the
// game clock running out once started. Called periodically by the
// maintenance loop.
func (s *Session) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room.State == model.RoomStateWaiting {
		changed := false
		for _, p := range s.pruneSeatsLocked(now) {
			s.emitLocked(model.EventRoomLeft, p.ID, model.RoomLeftPayload{
				PlayerID:    p.ID,
				DisplayName: p.DisplayName,
			})
			changed = true
		}
		if forced := s.negotiator.ResolveTimeouts(s.room, now); len(forced) > 0 {
			for _, id := range forced {
				player := s.room.GetPlayer(id)
				s.emitLocked(model.EventProfessionConfirmed, id, model.ProfessionSelectedPayload{
					PlayerID:     id,
					ProfessionID: player.ProfessionID,
					Confirmed:    true,
				})
			}
			changed = true
		}
		if changed {
			s.room.UpdatedAt = s.clock.Now()
			s.persistLocked(ctx)
		}
		return
	}

	if s.room.State != model.RoomStateStarted {
		return
	}

	if !now.Before(s.room.GameEndAt) {
		s.finishLocked(ctx)
		return
	}

	changed := false

	if moved, err := s.scheduler.Expire(s.room, now); err == nil && moved {
		s.emitTurnLocked(true)
		changed = true
	}

	if accrued := s.ledger.AccrueInterest(s.room, now, s.interestPeriod); len(accrued) > 0 {
		for _, tx := range accrued {
			s.emitLocked(model.EventBankOperation, tx.PlayerID, model.BankOperationPayload{
				Transaction: tx,
				Balance:     s.room.GetPlayer(tx.PlayerID).Balance,
			})
		}
		changed = true
	}

	if changed {
		s.room.UpdatedAt = s.clock.Now()
		s.persistLocked(ctx)
	}
}

// Deactivate marks the room inactive if nobody is connected and its
// last activity predates the cutoff. The check runs under the session
// lock so a join racing the sweep wins. Returns true when deactivated.
func (s *Session) Deactivate(ctx context.Context, cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.room.Active {
		return true
	}
	if s.room.ActivePlayerCount() > 0 {
		return false
	}
	if s.room.LastActivity.After(cutoff) {
		return false
	}

	s.room.Active = false
	s.room.UpdatedAt = s.clock.Now()
	s.persistLocked(ctx)
	return true
}

// Halted reports whether the room is in the safe-halt state
func (s *Session) Halted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.State == model.RoomStateHalted
}

// pruneSeatsLocked reclaims seats held by players who disconnected
// from a waiting room and stayed gone past the grace period, so they
// stop counting against capacity. Started games never prune: those
// seats are kept for reconnection. Returns the removed players.
func (s *Session) pruneSeatsLocked(now time.Time) []model.Player {
	if s.disconnectGrace <= 0 {
		return nil
	}
	cutoff := now.Add(-s.disconnectGrace)

	var removed []model.Player
	kept := s.room.Players[:0]
	for _, p := range s.room.Players {
		if !p.Active && !p.DisconnectedAt.IsZero() && !p.DisconnectedAt.After(cutoff) {
			removed = append(removed, p)
			continue
		}
		kept = append(kept, p)
	}
	if len(removed) == 0 {
		return nil
	}

	s.room.Players = kept
	if s.room.GetPlayer(s.room.CreatorID) == nil && len(kept) > 0 {
		s.room.CreatorID = kept[0].ID
	}
	return removed
}

// settleLocked runs the post-operation bookkeeping shared by the
// single-player bank operations
func (s *Session) settleLocked(ctx context.Context, tx *model.Transaction, playerID model.PlayerID) (*model.Transaction, error) {
	if err := s.verifyLocked(ctx, playerID); err != nil {
		return nil, err
	}

	s.touchLocked()
	s.emitLocked(model.EventBankOperation, playerID, model.BankOperationPayload{
		Transaction: *tx,
		Balance:     s.room.GetPlayer(playerID).Balance,
	})
	s.persistLocked(ctx)
	return tx, nil
}

// verifyLocked checks conservation for the given players and halts the
// room on any violation. A halted room freezes all game operations
// until an operator intervenes.
func (s *Session) verifyLocked(ctx context.Context, playerIDs ...model.PlayerID) error {
	for _, id := range playerIDs {
		if err := s.ledger.CheckConservation(s.room, id); err != nil {
			s.haltLocked(ctx, err.Error())
			return fmt.Errorf("%w: %v", model.ErrRoomHalted, err)
		}
	}
	return nil
}

// haltLocked freezes the room after an invariant violation. The state
// is persisted as-is so the damage can be inspected.
func (s *Session) haltLocked(ctx context.Context, reason string) {
	s.logger.Error("halting room on invariant violation",
		"room_id", s.room.ID,
		"reason", reason,
	)
	s.room.State = model.RoomStateHalted
	s.room.UpdatedAt = s.clock.Now()
	s.emitLocked(model.EventRoomHalted, "", model.RoomHaltedPayload{Reason: reason})
	s.persistLocked(ctx)
}

// finishLocked ends the game: the winner is the player with the highest
// net worth, earlier join order breaking ties. Results are folded into
// the hall of fame for registered players.
func (s *Session) finishLocked(ctx context.Context) {
	s.room.State = model.RoomStateFinished
	s.room.UpdatedAt = s.clock.Now()

	netWorths := make(map[model.PlayerID]int64, len(s.room.Players))
	var winner model.PlayerID
	var best int64
	for i := range s.room.Players {
		p := &s.room.Players[i]
		nw := p.NetWorth()
		netWorths[p.ID] = nw
		if winner == "" || nw > best {
			winner = p.ID
			best = nw
		}
	}

	playTime := time.Duration(s.room.Config.GameDurationSec) * time.Second
	for i := range s.room.Players {
		p := &s.room.Players[i]
		ra, err := s.storage.GetRegisteredAccount(ctx, p.ID)
		if err != nil {
			if !errors.Is(err, model.ErrPlayerNotFound) {
				s.logger.Warn("looking up account for stats", "player_id", p.ID, "error", err)
			}
			continue
		}
		if err := s.stats.RecordResult(ctx, ra.Username, p.ID == winner, netWorths[p.ID], playTime); err != nil {
			s.logger.Warn("recording game result", "username", ra.Username, "error", err)
		}
	}

	s.emitLocked(model.EventGameFinished, winner, model.GameFinishedPayload{
		Winner:    winner,
		NetWorths: netWorths,
	})
	s.persistLocked(ctx)
}

// checkBankableLocked gates the bank operations on room state
func (s *Session) checkBankableLocked() error {
	if err := s.checkNotTerminalLocked(); err != nil {
		return err
	}
	if s.room.State != model.RoomStateStarted {
		return model.ErrGameNotStarted
	}
	return nil
}

func (s *Session) checkNotTerminalLocked() error {
	switch s.room.State {
	case model.RoomStateHalted:
		return model.ErrRoomHalted
	case model.RoomStateFinished:
		return model.ErrGameFinished
	default:
		return nil
	}
}

// touchLocked bumps the activity timestamps; the cleanup sweep keys off
// LastActivity
func (s *Session) touchLocked() {
	now := s.clock.Now()
	s.room.LastActivity = now
	s.room.UpdatedAt = now
}

// persistLocked queues the room for the background writer. Failures
// are logged, never surfaced: the live session is the authority and a
// missed save only costs crash-recovery freshness. Writes happen off
// the session lock so a slow store cannot stall game operations, and
// off the request context so a cancelled request cannot abort a save.
func (s *Session) persistLocked(ctx context.Context) {
	snapshot := s.room.Clone()
	saveCtx := context.WithoutCancel(ctx)

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if s.pending != nil {
		// A writer is already in flight; it will pick up the newer state
		s.pending = snapshot
		return
	}
	s.pending = snapshot
	s.saves.Add(1)
	go s.drainPending(saveCtx)
}

// drainPending writes queued snapshots until none remain. At most one
// writer runs per session, so saves reach the store in order.
func (s *Session) drainPending(ctx context.Context) {
	defer s.saves.Done()
	for {
		s.persistMu.Lock()
		snapshot := s.pending
		s.persistMu.Unlock()

		if err := s.storage.SaveRoom(ctx, snapshot); err != nil {
			s.logger.Error("persisting room", "room_id", snapshot.ID, "error", err)
		}

		s.persistMu.Lock()
		if s.pending == snapshot {
			s.pending = nil
			s.persistMu.Unlock()
			return
		}
		s.persistMu.Unlock()
	}
}

// Flush blocks until every queued save has reached the store. Called
// before the session leaves the registry table and at shutdown.
func (s *Session) Flush() {
	s.saves.Wait()
}

func (s *Session) emitTurnLocked(expired bool) {
	current := s.room.CurrentPlayer()
	if current == nil {
		return
	}
	eventType := model.EventTurnAdvanced
	if expired {
		eventType = model.EventTurnExpired
	}
	s.emitLocked(eventType, current.ID, model.TurnAdvancedPayload{
		CurrentPlayer: current.ID,
		Round:         s.room.Round,
		TurnDeadline:  s.room.TurnDeadline,
		Expired:       expired,
	})
}

func (s *Session) emitLocked(eventType model.EventType, playerID model.PlayerID, payload any) {
	if s.notify == nil {
		return
	}
	s.notify(model.Event{
		Type:      eventType,
		Timestamp: s.clock.Now(),
		RoomID:    s.room.ID,
		PlayerID:  playerID,
		Payload:   payload,
	})
}
