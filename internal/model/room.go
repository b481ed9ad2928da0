package model

import "time"

// RoomID uniquely identifies a room
type RoomID string

// RoomState represents the current phase of a room's lifecycle
type RoomState string

const (
	RoomStateWaiting  RoomState = "waiting"  // Accepting joins and profession selection
	RoomStateStarted  RoomState = "started"  // Turn loop active
	RoomStateFinished RoomState = "finished" // Terminal, read-only
	RoomStateHalted   RoomState = "halted"   // Invariant violation detected, frozen for recovery
)

// RoomConfig holds configurable settings for a room
type RoomConfig struct {
	MaxPlayers      int
	TurnTimeSec     int
	GameDurationSec int

	ProfessionMode      ProfessionMode
	AssignedProfession  ProfessionID // used when ProfessionMode is assigned
	SelectionTimeoutSec int          // 0 disables the forced-random fallback in choice mode

	CreditOnTurnOnly bool // credit issuance restricted to the active turn
	AutoPassOnExpiry bool // expired turns advance automatically
}

// DefaultRoomConfig returns the default room configuration
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		MaxPlayers:       4,
		TurnTimeSec:      120,
		GameDurationSec:  3 * 3600,
		ProfessionMode:   ProfessionModeChoice,
		CreditOnTurnOnly: true,
		AutoPassOnExpiry: true,
	}
}

// Room is the authoritative container for one game session.
// Players is ordered: insertion order is preserved and becomes the turn
// order at game start, so it must never be reshuffled.
type Room struct {
	ID        RoomID
	Name      string
	CreatorID PlayerID
	Config    RoomConfig
	State     RoomState

	Players []Player

	// Turn state (meaningful only once State is started)
	CurrentIndex int
	Round        int
	TurnDeadline time.Time
	GameEndAt    time.Time

	// Append-only audit trail for all bank operations in this room
	Transactions []Transaction

	LastActivity time.Time
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GetPlayer returns the roster entry with the given player ID, or nil
func (r *Room) GetPlayer(id PlayerID) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// GetPlayerByEmail returns the roster entry matching the email, or nil.
// Email is the reconnection key: a joining player with a matching email
// resumes their existing game state.
func (r *Room) GetPlayerByEmail(email string) *Player {
	if email == "" {
		return nil
	}
	for i := range r.Players {
		if r.Players[i].Email == email {
			return &r.Players[i]
		}
	}
	return nil
}

// GetPlayerByConnection returns the roster entry holding the given
// connection ID, or nil
func (r *Room) GetPlayerByConnection(connID ConnectionID) *Player {
	for i := range r.Players {
		if r.Players[i].ConnectionID == connID {
			return &r.Players[i]
		}
	}
	return nil
}

// CurrentPlayer returns the player whose turn it is, or nil pre-start
func (r *Room) CurrentPlayer() *Player {
	if r.State != RoomStateStarted || len(r.Players) == 0 {
		return nil
	}
	if r.CurrentIndex < 0 || r.CurrentIndex >= len(r.Players) {
		return nil
	}
	return &r.Players[r.CurrentIndex]
}

// ActivePlayerCount returns the number of players with a live connection
func (r *Room) ActivePlayerCount() int {
	count := 0
	for i := range r.Players {
		if r.Players[i].Active {
			count++
		}
	}
	return count
}

// IsFull returns true if the roster is at capacity
func (r *Room) IsFull() bool {
	return len(r.Players) >= r.Config.MaxPlayers
}

// PlayerTransactions returns the transactions belonging to one player,
// in append order
func (r *Room) PlayerTransactions(id PlayerID) []Transaction {
	var txs []Transaction
	for _, t := range r.Transactions {
		if t.PlayerID == id {
			txs = append(txs, t)
		}
	}
	return txs
}

// Clone returns a deep copy of the room, safe to hand outside the
// owning session's lock
func (r *Room) Clone() *Room {
	clone := *r
	clone.Players = make([]Player, len(r.Players))
	for i := range r.Players {
		clone.Players[i] = r.Players[i]
		clone.Players[i].Credits = append([]CreditLine(nil), r.Players[i].Credits...)
	}
	clone.Transactions = append([]Transaction(nil), r.Transactions...)
	return &clone
}

// RoomSummary is a lightweight projection for room listings
type RoomSummary struct {
	ID           RoomID
	Name         string
	State        RoomState
	PlayerCount  int
	MaxPlayers   int
	LastActivity time.Time
}

// Summary returns the listing projection for this room
func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		ID:           r.ID,
		Name:         r.Name,
		State:        r.State,
		PlayerCount:  len(r.Players),
		MaxPlayers:   r.Config.MaxPlayers,
		LastActivity: r.LastActivity,
	}
}
