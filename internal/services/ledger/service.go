package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/ratrace-game/server/internal/dependencies/clock"
	"github.com/ratrace-game/server/internal/dependencies/random"
	"github.com/ratrace-game/server/internal/model"
)

// CreditCapMultiplier derives a player's credit cap from their monthly
// cashflow: max outstanding principal = cashflow * multiplier
const CreditCapMultiplier = 10

// Service implements the monetary core: balances, credit lines and the
// append-only transaction log. It performs no I/O and is fully
// deterministic given its clock and random inputs, which is what makes
// the conservation invariant testable.
type Service struct {
	clock  clock.Clock
	random random.Random
}

// New creates a new ledger service
func New(clock clock.Clock, random random.Random) *Service {
	return &Service{
		clock:  clock,
		random: random,
	}
}

// Deposit adds funds to a player's balance
func (s *Service) Deposit(room *model.Room, playerID model.PlayerID, amount int64, description string) (*model.Transaction, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}

	player.Balance += amount
	return s.append(room, model.Transaction{
		Type:        model.TransactionDeposit,
		Amount:      amount,
		Description: description,
		PlayerID:    playerID,
	}), nil
}

// Withdraw removes funds from a player's balance.
// The balance never goes negative.
func (s *Service) Withdraw(room *model.Room, playerID model.PlayerID, amount int64, description string) (*model.Transaction, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}
	if amount > player.Balance {
		return nil, model.ErrInsufficientFunds
	}

	player.Balance -= amount
	return s.append(room, model.Transaction{
		Type:        model.TransactionWithdrawal,
		Amount:      amount,
		Description: description,
		PlayerID:    playerID,
	}), nil
}

// Transfer moves funds between two players in the same room, logging one
// record per side so each player's transaction history stays
// self-contained
func (s *Service) Transfer(room *model.Room, from, to model.PlayerID, amount int64, description string) error {
	if amount <= 0 {
		return model.ErrInvalidAmount
	}
	if from == to {
		return model.ErrInvalidAmount
	}
	sender := room.GetPlayer(from)
	recipient := room.GetPlayer(to)
	if sender == nil || recipient == nil {
		return model.ErrPlayerNotFound
	}
	if amount > sender.Balance {
		return model.ErrInsufficientFunds
	}

	sender.Balance -= amount
	recipient.Balance += amount

	s.append(room, model.Transaction{
		Type:         model.TransactionTransfer,
		Amount:       amount,
		Description:  description,
		PlayerID:     from,
		Counterparty: to,
		Direction:    model.TransferOut,
	})
	s.append(room, model.Transaction{
		Type:         model.TransactionTransfer,
		Amount:       amount,
		Description:  description,
		PlayerID:     to,
		Counterparty: from,
		Direction:    model.TransferIn,
	})
	return nil
}

// IssueCredit opens a credit line for a player. The cap on total
// outstanding principal is derived from the player's profession cashflow;
// the monthly payment follows standard amortization.
func (s *Service) IssueCredit(room *model.Room, playerID model.PlayerID, amount, rate int64, termMonths int, pool []model.Profession) (*model.CreditLine, error) {
	if amount <= 0 || rate < 0 || termMonths <= 0 {
		return nil, model.ErrInvalidAmount
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}

	limit := MaxCredit(player, pool)
	if player.OutstandingPrincipal()+amount > limit {
		return nil, model.ErrCreditLimitExceeded
	}

	now := s.clock.Now()
	credit := model.CreditLine{
		ID:             model.CreditID("c_" + s.random.String(10, random.IDAlphabet)),
		Principal:      amount,
		InterestRate:   rate,
		TermMonths:     termMonths,
		MonthlyPayment: MonthlyPayment(amount, rate, termMonths),
		IssuedAt:       now,
		MaturesAt:      now.AddDate(0, termMonths, 0),
		LastAccrual:    now,
	}

	player.Balance += amount
	player.Credits = append(player.Credits, credit)

	s.append(room, model.Transaction{
		Type:        model.TransactionCredit,
		Amount:      amount,
		Description: fmt.Sprintf("credit %s issued over %d months", credit.ID, termMonths),
		PlayerID:    playerID,
	})
	return &credit, nil
}

// Repay reduces a credit line's principal. A repayment equal to the
// remaining principal closes the line.
func (s *Service) Repay(room *model.Room, playerID model.PlayerID, creditID model.CreditID, amount int64) (*model.Transaction, error) {
	if amount <= 0 {
		return nil, model.ErrInvalidAmount
	}
	player := room.GetPlayer(playerID)
	if player == nil {
		return nil, model.ErrPlayerNotFound
	}
	credit := player.GetCredit(creditID)
	if credit == nil {
		return nil, model.ErrCreditNotFound
	}
	if amount > credit.Principal {
		return nil, model.ErrOverRepayment
	}
	if amount > player.Balance {
		return nil, model.ErrInsufficientFunds
	}

	player.Balance -= amount
	credit.Principal -= amount

	if credit.Principal == 0 {
		for i := range player.Credits {
			if player.Credits[i].ID == creditID {
				player.Credits = append(player.Credits[:i], player.Credits[i+1:]...)
				break
			}
		}
	}

	return s.append(room, model.Transaction{
		Type:        model.TransactionPayment,
		Amount:      amount,
		Description: fmt.Sprintf("repayment on credit %s", creditID),
		PlayerID:    playerID,
	}), nil
}

// AccrueInterest compounds interest into the principal of every credit
// line that has crossed a monthly boundary since its last accrual. One
// wall-clock period represents one in-game month. Interest does not touch
// the cash balance, so conservation over cash transactions is preserved.
func (s *Service) AccrueInterest(room *model.Room, now time.Time, period time.Duration) []model.Transaction {
	if period <= 0 {
		return nil
	}
	var accrued []model.Transaction
	for pi := range room.Players {
		player := &room.Players[pi]
		for ci := range player.Credits {
			credit := &player.Credits[ci]
			for now.Sub(credit.LastAccrual) >= period {
				credit.LastAccrual = credit.LastAccrual.Add(period)
				interest := credit.Principal * credit.InterestRate / 100
				if interest <= 0 {
					continue
				}
				credit.Principal += interest
				tx := s.append(room, model.Transaction{
					Type:        model.TransactionInterest,
					Amount:      interest,
					Description: fmt.Sprintf("interest on credit %s", credit.ID),
					PlayerID:    player.ID,
				})
				accrued = append(accrued, *tx)
			}
		}
	}
	return accrued
}

// CheckConservation verifies that a player's balance equals the signed
// sum of their transactions. Every mutation path must log, so any
// mismatch is an invariant violation the caller must treat as fatal for
// the room.
func (s *Service) CheckConservation(room *model.Room, playerID model.PlayerID) error {
	player := room.GetPlayer(playerID)
	if player == nil {
		return model.ErrPlayerNotFound
	}
	var sum int64
	for _, tx := range room.Transactions {
		if tx.PlayerID == playerID {
			sum += tx.SignedAmount()
		}
	}
	if sum != player.Balance {
		return fmt.Errorf("conservation violated for player %s: balance %d, transaction sum %d",
			playerID, player.Balance, sum)
	}
	if player.Balance < 0 {
		return fmt.Errorf("negative balance %d for player %s", player.Balance, playerID)
	}
	return nil
}

// MaxCredit returns the player's cap on total outstanding principal:
// monthly cashflow times CreditCapMultiplier, clamped to zero for
// cash-negative professions
func MaxCredit(player *model.Player, pool []model.Profession) int64 {
	profession := model.FindProfession(pool, player.ProfessionID)
	if profession == nil {
		return 0
	}
	limit := profession.MonthlyCashflow() * CreditCapMultiplier
	if limit < 0 {
		return 0
	}
	return limit
}

// MonthlyPayment computes the amortized monthly payment for a loan of
// the given principal at rate percent per month over termMonths. A zero
// rate degrades to simple division. Results round up so the schedule
// never undershoots the principal.
func MonthlyPayment(principal, rate int64, termMonths int) int64 {
	if termMonths <= 0 {
		return principal
	}
	if rate == 0 {
		return ceilDiv(principal, int64(termMonths))
	}
	r := float64(rate) / 100
	factor := math.Pow(1+r, float64(termMonths))
	payment := float64(principal) * r * factor / (factor - 1)
	return int64(math.Ceil(payment))
}

// append stamps and records a transaction in the room's audit trail
func (s *Service) append(room *model.Room, tx model.Transaction) *model.Transaction {
	tx.ID = model.TransactionID("t_" + s.random.String(10, random.IDAlphabet))
	tx.Timestamp = s.clock.Now()
	room.Transactions = append(room.Transactions, tx)
	return &room.Transactions[len(room.Transactions)-1]
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
