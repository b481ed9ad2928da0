package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Room errors
	ErrRoomNotFound     = errors.New("room not found")
	ErrDuplicateRoomID  = errors.New("room id already in use")
	ErrRoomFull         = errors.New("room is full")
	ErrAlreadyStarted   = errors.New("game has already started")
	ErrNotEnoughPlayers = errors.New("not enough players to start game")
	ErrGameFinished     = errors.New("game is finished")
	ErrGameNotStarted   = errors.New("game has not started")
	ErrRoomHalted       = errors.New("room is halted pending recovery")
	ErrNotCreator       = errors.New("only the room creator may do this")

	// Turn errors
	ErrNotPlayersTurn = errors.New("not this player's turn")

	// Ledger errors
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrCreditNotFound      = errors.New("credit line not found")
	ErrOverRepayment       = errors.New("repayment exceeds remaining principal")
	ErrCreditLimitExceeded = errors.New("credit limit exceeded")

	// Profession errors
	ErrProfessionNotAvailable  = errors.New("profession is not in the pool")
	ErrProfessionTaken         = errors.New("profession is already taken")
	ErrProfessionPoolExhausted = errors.New("profession pool is exhausted")
	ErrProfessionsUnresolved   = errors.New("not all players have resolved professions")
	ErrProfessionNotSelected   = errors.New("no profession selected to confirm")
)
