package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodePlayerNotFound        = "PLAYER_NOT_FOUND"
	CodeRoomNotFound          = "ROOM_NOT_FOUND"
	CodeDuplicateRoomID       = "DUPLICATE_ROOM_ID"
	CodeRoomFull              = "ROOM_FULL"
	CodeRoomHalted            = "ROOM_HALTED"
	CodeGameStarted           = "GAME_STARTED"
	CodeGameNotStarted        = "GAME_NOT_STARTED"
	CodeGameFinished          = "GAME_FINISHED"
	CodeNotCreator            = "NOT_CREATOR"
	CodeNotYourTurn           = "NOT_YOUR_TURN"
	CodeNotEnoughPlayers      = "NOT_ENOUGH_PLAYERS"
	CodeInvalidAmount         = "INVALID_AMOUNT"
	CodeInsufficientFunds     = "INSUFFICIENT_FUNDS"
	CodeCreditNotFound        = "CREDIT_NOT_FOUND"
	CodeOverRepayment         = "OVER_REPAYMENT"
	CodeCreditLimitExceeded   = "CREDIT_LIMIT_EXCEEDED"
	CodeProfessionUnavailable = "PROFESSION_UNAVAILABLE"
	CodeProfessionTaken       = "PROFESSION_TAKEN"
	CodeProfessionsUnresolved = "PROFESSIONS_UNRESOLVED"
	CodeProfessionNotSelected = "PROFESSION_NOT_SELECTED"
	CodeUsernameExists        = "USERNAME_EXISTS"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeInternalError         = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrRoomNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeRoomNotFound, "Room not found"}}
	case errors.Is(err, model.ErrDuplicateRoomID):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateRoomID, "Could not allocate a room id"}}
	case errors.Is(err, model.ErrRoomFull):
		return &httpError{http.StatusConflict, APIError{CodeRoomFull, "Room is full"}}
	case errors.Is(err, model.ErrRoomHalted):
		return &httpError{http.StatusConflict, APIError{CodeRoomHalted, "Room is halted pending recovery"}}
	case errors.Is(err, model.ErrAlreadyStarted):
		return &httpError{http.StatusConflict, APIError{CodeGameStarted, "Game has already started"}}
	case errors.Is(err, model.ErrGameNotStarted):
		return &httpError{http.StatusConflict, APIError{CodeGameNotStarted, "Game has not started"}}
	case errors.Is(err, model.ErrGameFinished):
		return &httpError{http.StatusConflict, APIError{CodeGameFinished, "Game is finished"}}
	case errors.Is(err, model.ErrNotCreator):
		return &httpError{http.StatusForbidden, APIError{CodeNotCreator, "Only the room creator can perform this action"}}
	case errors.Is(err, model.ErrNotEnoughPlayers):
		return &httpError{http.StatusConflict, APIError{CodeNotEnoughPlayers, "Not enough players to start"}}
	case errors.Is(err, model.ErrNotPlayersTurn):
		return &httpError{http.StatusForbidden, APIError{CodeNotYourTurn, "Not your turn"}}

	// Map ledger errors
	case errors.Is(err, model.ErrInvalidAmount):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAmount, "Amount must be positive"}}
	case errors.Is(err, model.ErrInsufficientFunds):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientFunds, "Insufficient funds"}}
	case errors.Is(err, model.ErrCreditNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeCreditNotFound, "Credit line not found"}}
	case errors.Is(err, model.ErrOverRepayment):
		return &httpError{http.StatusBadRequest, APIError{CodeOverRepayment, "Repayment exceeds remaining principal"}}
	case errors.Is(err, model.ErrCreditLimitExceeded):
		return &httpError{http.StatusConflict, APIError{CodeCreditLimitExceeded, "Credit limit exceeded"}}

	// Map profession errors
	case errors.Is(err, model.ErrProfessionNotAvailable):
		return &httpError{http.StatusBadRequest, APIError{CodeProfessionUnavailable, "Profession is not in the pool"}}
	case errors.Is(err, model.ErrProfessionTaken):
		return &httpError{http.StatusConflict, APIError{CodeProfessionTaken, "Profession is already taken"}}
	case errors.Is(err, model.ErrProfessionPoolExhausted):
		return &httpError{http.StatusConflict, APIError{CodeProfessionUnavailable, "Profession pool is exhausted"}}
	case errors.Is(err, model.ErrProfessionsUnresolved):
		return &httpError{http.StatusConflict, APIError{CodeProfessionsUnresolved, "Not all players have confirmed professions"}}
	case errors.Is(err, model.ErrProfessionNotSelected):
		return &httpError{http.StatusConflict, APIError{CodeProfessionNotSelected, "No profession selected to confirm"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired token"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
