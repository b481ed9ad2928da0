package handler

import (
	"net/http"

	"github.com/ratrace-game/server/internal/api/apierr"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// Re-export error codes
const (
	CodeInvalidRequest        = apierr.CodeInvalidRequest
	CodeUnauthorized          = apierr.CodeUnauthorized
	CodePlayerNotFound        = apierr.CodePlayerNotFound
	CodeRoomNotFound          = apierr.CodeRoomNotFound
	CodeRoomFull              = apierr.CodeRoomFull
	CodeRoomHalted            = apierr.CodeRoomHalted
	CodeGameStarted           = apierr.CodeGameStarted
	CodeGameNotStarted        = apierr.CodeGameNotStarted
	CodeGameFinished          = apierr.CodeGameFinished
	CodeNotCreator            = apierr.CodeNotCreator
	CodeNotYourTurn           = apierr.CodeNotYourTurn
	CodeNotEnoughPlayers      = apierr.CodeNotEnoughPlayers
	CodeInvalidAmount         = apierr.CodeInvalidAmount
	CodeInsufficientFunds     = apierr.CodeInsufficientFunds
	CodeCreditNotFound        = apierr.CodeCreditNotFound
	CodeOverRepayment         = apierr.CodeOverRepayment
	CodeCreditLimitExceeded   = apierr.CodeCreditLimitExceeded
	CodeProfessionUnavailable = apierr.CodeProfessionUnavailable
	CodeProfessionTaken       = apierr.CodeProfessionTaken
	CodeProfessionsUnresolved = apierr.CodeProfessionsUnresolved
	CodeProfessionNotSelected = apierr.CodeProfessionNotSelected
	CodeUsernameExists        = apierr.CodeUsernameExists
	CodeInvalidCredentials    = apierr.CodeInvalidCredentials
	CodeInternalError         = apierr.CodeInternalError
)

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return apierr.NewUnauthorizedError()
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return apierr.NewInternalError()
}
