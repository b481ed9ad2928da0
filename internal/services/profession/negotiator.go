package profession

import (
	"time"

	"github.com/ratrace-game/server/internal/dependencies/random"
	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/services/ledger"
)

// Negotiator resolves which profession each player enters the game with.
// Depending on the room's mode this happens automatically on join
// (assigned, random) or through an explicit select/confirm exchange
// (choice). A profession is held by at most one player per room.
type Negotiator struct {
	ledger *ledger.Service
	random random.Random
	pool   []model.Profession
}

// New creates a negotiator over the given profession pool
func New(ledgerService *ledger.Service, random random.Random, pool []model.Profession) *Negotiator {
	return &Negotiator{
		ledger: ledgerService,
		random: random,
		pool:   pool,
	}
}

// Pool returns the profession pool the negotiator draws from
func (n *Negotiator) Pool() []model.Profession {
	return n.pool
}

// ApplyOnJoin resolves the profession for a newly joined player in
// assigned and random modes. In choice mode it does nothing; the player
// drives resolution through Select and Confirm.
func (n *Negotiator) ApplyOnJoin(room *model.Room, playerID model.PlayerID) error {
	player := room.GetPlayer(playerID)
	if player == nil {
		return model.ErrPlayerNotFound
	}

	switch room.Config.ProfessionMode {
	case model.ProfessionModeAssigned:
		profession := model.FindProfession(n.pool, room.Config.AssignedProfession)
		if profession == nil {
			return model.ErrProfessionNotAvailable
		}
		n.resolve(room, player, profession)
		return nil
	case model.ProfessionModeRandom:
		profession := n.draw(room)
		if profession == nil {
			return model.ErrProfessionPoolExhausted
		}
		n.resolve(room, player, profession)
		return nil
	default:
		return nil
	}
}

// Select stakes a claim on a profession in choice mode. The claim is
// provisional until confirmed and can be changed; a confirmed selection
// is final.
func (n *Negotiator) Select(room *model.Room, playerID model.PlayerID, professionID model.ProfessionID) error {
	if room.Config.ProfessionMode != model.ProfessionModeChoice {
		return model.ErrProfessionNotAvailable
	}
	if room.State != model.RoomStateWaiting {
		return model.ErrAlreadyStarted
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return model.ErrPlayerNotFound
	}
	if player.ProfessionConfirmed {
		return model.ErrProfessionTaken
	}
	if model.FindProfession(n.pool, professionID) == nil {
		return model.ErrProfessionNotAvailable
	}
	if holder := n.holder(room, professionID); holder != nil && holder.ID != playerID {
		return model.ErrProfessionTaken
	}

	player.ProfessionID = professionID
	return nil
}

// Confirm finalizes the player's selected profession and credits their
// starting savings
func (n *Negotiator) Confirm(room *model.Room, playerID model.PlayerID) error {
	if room.State != model.RoomStateWaiting {
		return model.ErrAlreadyStarted
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return model.ErrPlayerNotFound
	}
	if player.ProfessionConfirmed {
		return nil
	}
	if player.ProfessionID == "" {
		return model.ErrProfessionNotSelected
	}
	profession := model.FindProfession(n.pool, player.ProfessionID)
	if profession == nil {
		return model.ErrProfessionNotAvailable
	}

	n.resolve(room, player, profession)
	return nil
}

// AllResolved reports whether every active player has a confirmed
// profession. Game start is gated on this.
func (n *Negotiator) AllResolved(room *model.Room) bool {
	for i := range room.Players {
		p := &room.Players[i]
		if p.Active && !p.ProfessionConfirmed {
			return false
		}
	}
	return true
}

// ResolveTimeouts force-resolves players who have sat in choice mode
// past the room's selection timeout. A player with a provisional claim
// has it confirmed; one with no claim gets a random draw. Returns the
// players that were forced. A zero timeout disables the mechanism.
func (n *Negotiator) ResolveTimeouts(room *model.Room, now time.Time) []model.PlayerID {
	if room.Config.ProfessionMode != model.ProfessionModeChoice {
		return nil
	}
	if room.Config.SelectionTimeoutSec <= 0 {
		return nil
	}
	timeout := time.Duration(room.Config.SelectionTimeoutSec) * time.Second

	var forced []model.PlayerID
	for i := range room.Players {
		player := &room.Players[i]
		if !player.Active || player.ProfessionConfirmed {
			continue
		}
		if now.Sub(player.JoinedAt) < timeout {
			continue
		}

		profession := model.FindProfession(n.pool, player.ProfessionID)
		if profession == nil {
			profession = n.draw(room)
		}
		if profession == nil {
			continue // pool exhausted, leave for the next sweep
		}
		n.resolve(room, player, profession)
		forced = append(forced, player.ID)
	}
	return forced
}

// resolve applies a profession to a player and deposits their starting
// savings, so the balance stays derivable from the transaction log
func (n *Negotiator) resolve(room *model.Room, player *model.Player, profession *model.Profession) {
	player.ProfessionID = profession.ID
	player.ProfessionConfirmed = true
	if profession.Savings > 0 {
		_, _ = n.ledger.Deposit(room, player.ID, profession.Savings, "starting savings")
	}
}

// draw picks an unclaimed profession uniformly at random, or nil if
// every profession in the pool is already held
func (n *Negotiator) draw(room *model.Room) *model.Profession {
	var available []*model.Profession
	for i := range n.pool {
		if n.holder(room, n.pool[i].ID) == nil {
			available = append(available, &n.pool[i])
		}
	}
	if len(available) == 0 {
		return nil
	}
	return available[n.random.Intn(len(available))]
}

// holder returns the player currently claiming a profession, or nil
func (n *Negotiator) holder(room *model.Room, id model.ProfessionID) *model.Player {
	if id == "" {
		return nil
	}
	for i := range room.Players {
		if room.Players[i].ProfessionID == id {
			return &room.Players[i]
		}
	}
	return nil
}
