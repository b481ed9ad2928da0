package turn

import (
	"time"

	"github.com/ratrace-game/server/internal/dependencies/clock"
	"github.com/ratrace-game/server/internal/model"
)

// Scheduler drives the circular turn order of a started room. The
// roster's insertion order is the turn order; disconnected players are
// skipped but keep their seat for reconnection.
type Scheduler struct {
	clock clock.Clock
}

// New creates a new turn scheduler
func New(clock clock.Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// Begin initializes turn state at game start: the first active player
// gets the opening turn
func (s *Scheduler) Begin(room *model.Room) error {
	if room.State != model.RoomStateStarted {
		return model.ErrGameNotStarted
	}
	idx := s.firstActiveFrom(room, 0)
	if idx < 0 {
		return model.ErrNotEnoughPlayers
	}
	room.CurrentIndex = idx
	room.Round = 1
	room.TurnDeadline = s.clock.Now().Add(time.Duration(room.Config.TurnTimeSec) * time.Second)
	return nil
}

// Pass hands the turn to the next active player in roster order. Only
// the current player may pass. Wrapping past the end of the roster bumps
// the round counter.
func (s *Scheduler) Pass(room *model.Room, playerID model.PlayerID) error {
	if room.State != model.RoomStateStarted {
		return model.ErrGameNotStarted
	}
	current := room.CurrentPlayer()
	if current == nil || current.ID != playerID {
		return model.ErrNotPlayersTurn
	}
	return s.advance(room)
}

// Expire advances the turn if its deadline has passed and the room is
// configured to auto-pass. Returns true when the turn moved.
func (s *Scheduler) Expire(room *model.Room, now time.Time) (bool, error) {
	if room.State != model.RoomStateStarted {
		return false, nil
	}
	if !room.Config.AutoPassOnExpiry {
		return false, nil
	}
	if now.Before(room.TurnDeadline) {
		return false, nil
	}
	if err := s.advance(room); err != nil {
		return false, err
	}
	return true, nil
}

// TimeRemaining returns the time left on the current turn, clamped to
// zero
func (s *Scheduler) TimeRemaining(room *model.Room) time.Duration {
	if room.State != model.RoomStateStarted {
		return 0
	}
	remaining := room.TurnDeadline.Sub(s.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// advance moves CurrentIndex to the next active player and resets the
// deadline. The current player keeps the turn if nobody else is active;
// the deadline still resets so the turn does not expire in a tight loop.
func (s *Scheduler) advance(room *model.Room) error {
	n := len(room.Players)
	if n == 0 {
		return model.ErrNotEnoughPlayers
	}

	wrapped := false
	idx := room.CurrentIndex
	for range n {
		idx++
		if idx >= n {
			idx = 0
			wrapped = true
		}
		if room.Players[idx].Active {
			break
		}
	}

	room.CurrentIndex = idx
	if wrapped {
		room.Round++
	}
	room.TurnDeadline = s.clock.Now().Add(time.Duration(room.Config.TurnTimeSec) * time.Second)
	return nil
}

// firstActiveFrom scans the roster circularly from the given index for
// an active player, returning -1 if there is none
func (s *Scheduler) firstActiveFrom(room *model.Room, start int) int {
	n := len(room.Players)
	for i := range n {
		idx := (start + i) % n
		if room.Players[idx].Active {
			return idx
		}
	}
	return -1
}
