package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// ConnectionID identifies a single live socket connection.
// It changes every time a player reconnects.
type ConnectionID string

// Account represents a player identity as known to the auth service.
// Room rosters carry Player, which adds per-game state on top of this.
type Account struct {
	ID          PlayerID
	DisplayName string
	Email       string
	IsGuest     bool // true for unregistered players
	CreatedAt   time.Time
}

// RegisteredAccount extends Account with authentication data
// Stored separately for security (password never in memory with session)
type RegisteredAccount struct {
	PlayerID     PlayerID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Player is one roster entry in a room: identity plus game state.
// The roster's slice order is the turn order once the game starts.
type Player struct {
	ID           PlayerID
	DisplayName  string
	Email        string // reconnection matching key
	ConnectionID ConnectionID
	Ready        bool

	// Profession selection state
	ProfessionID        ProfessionID // empty until selected
	ProfessionConfirmed bool

	// Monetary state
	Balance int64
	Credits []CreditLine

	// Board state
	Position int

	Active   bool
	JoinedAt time.Time

	// DisconnectedAt is set when the player's connection drops and
	// cleared on reconnect. Waiting rooms reclaim the seat once it is
	// older than the disconnect grace period.
	DisconnectedAt time.Time
}

// OutstandingPrincipal returns the sum of all open credit line principals
func (p *Player) OutstandingPrincipal() int64 {
	var total int64
	for _, c := range p.Credits {
		total += c.Principal
	}
	return total
}

// GetCredit returns the credit line with the given ID, or nil if not found
func (p *Player) GetCredit(id CreditID) *CreditLine {
	for i := range p.Credits {
		if p.Credits[i].ID == id {
			return &p.Credits[i]
		}
	}
	return nil
}

// NetWorth is balance minus outstanding credit principal.
// Used as the win criterion at game end.
func (p *Player) NetWorth() int64 {
	return p.Balance - p.OutstandingPrincipal()
}
