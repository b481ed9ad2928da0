package model

import "time"

// CreditID uniquely identifies a credit line within a room
type CreditID string

// TransactionID uniquely identifies a ledger transaction
type TransactionID string

// TransactionType classifies ledger transactions
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionCredit     TransactionType = "credit"
	TransactionPayment    TransactionType = "payment"
	TransactionTransfer   TransactionType = "transfer"
	TransactionInterest   TransactionType = "interest"
	TransactionFee        TransactionType = "fee"
)

// CreditLine is one open loan against a player.
// Created by credit issuance, reduced by repayments, removed when the
// principal reaches zero.
type CreditLine struct {
	ID             CreditID
	Principal      int64
	InterestRate   int64 // percent per month
	TermMonths     int
	MonthlyPayment int64
	IssuedAt       time.Time
	MaturesAt      time.Time
	LastAccrual    time.Time // last interest accrual boundary
}

// TransferDirection disambiguates the two records a transfer appends,
// one per side
type TransferDirection string

const (
	TransferIn  TransferDirection = "in"
	TransferOut TransferDirection = "out"
)

// Transaction is an immutable record in the room's audit trail.
// Amount is always positive; the type (and, for transfers, the
// direction) determines the sign of its effect on the player's balance.
type Transaction struct {
	ID           TransactionID
	Type         TransactionType
	Amount       int64
	Description  string
	PlayerID     PlayerID
	Counterparty PlayerID          // set for transfers
	Direction    TransferDirection // set for transfers
	Timestamp    time.Time
}

// SignedAmount returns the transaction's effect on the player balance
func (t Transaction) SignedAmount() int64 {
	switch t.Type {
	case TransactionDeposit, TransactionCredit:
		return t.Amount
	case TransactionWithdrawal, TransactionPayment, TransactionFee:
		return -t.Amount
	case TransactionTransfer:
		if t.Direction == TransferIn {
			return t.Amount
		}
		return -t.Amount
	case TransactionInterest:
		// Interest accrues into principal, not into the cash balance
		return 0
	default:
		return 0
	}
}
