package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ratrace-game/server/internal/api/middleware"
	"github.com/ratrace-game/server/internal/api/request"
	"github.com/ratrace-game/server/internal/api/response"
	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/services/registry"
	"github.com/ratrace-game/server/internal/services/session"
)

// BankHandler handles in-room banking endpoints
type BankHandler struct {
	registry *registry.Registry
}

// NewBankHandler creates a new bank handler
func NewBankHandler(reg *registry.Registry) *BankHandler {
	return &BankHandler{
		registry: reg,
	}
}

// getSession resolves the room from the request path
func (h *BankHandler) getSession(r *http.Request) (*session.Session, error) {
	return h.registry.GetSession(r.Context(), model.RoomID(mux.Vars(r)["roomId"]))
}

// Deposit handles POST /api/v1/rooms/{roomId}/bank/deposit
func (h *BankHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	account := middleware.MustGetAccount(r.Context())

	var req request.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	sess, err := h.getSession(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	tx, err := sess.Deposit(r.Context(), account.ID, req.Amount, req.Description)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.TransactionFromModel(*tx))
}

// Withdraw handles POST /api/v1/rooms/{roomId}/bank/withdraw
func (h *BankHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	account := middleware.MustGetAccount(r.Context())

	var req request.AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	sess, err := h.getSession(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	tx, err := sess.Withdraw(r.Context(), account.ID, req.Amount, req.Description)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.TransactionFromModel(*tx))
}

// Transfer handles POST /api/v1/rooms/{roomId}/bank/transfer
func (h *BankHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	account := middleware.MustGetAccount(r.Context())

	var req request.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.To == "" {
		WriteError(w, NewInvalidRequestError("to is required"))
		return
	}

	sess, err := h.getSession(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := sess.Transfer(r.Context(), account.ID, model.PlayerID(req.To), req.Amount, req.Description); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// IssueCredit handles POST /api/v1/rooms/{roomId}/bank/credit
func (h *BankHandler) IssueCredit(w http.ResponseWriter, r *http.Request) {
	account := middleware.MustGetAccount(r.Context())

	var req request.IssueCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.TermMonths <= 0 {
		WriteError(w, NewInvalidRequestError("term_months must be positive"))
		return
	}
	if req.Rate < 0 {
		WriteError(w, NewInvalidRequestError("rate must not be negative"))
		return
	}

	sess, err := h.getSession(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	credit, err := sess.IssueCredit(r.Context(), account.ID, req.Amount, req.Rate, req.TermMonths)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CreditLineFromModel(*credit))
}

// Repay handles POST /api/v1/rooms/{roomId}/bank/repay
func (h *BankHandler) Repay(w http.ResponseWriter, r *http.Request) {
	account := middleware.MustGetAccount(r.Context())

	var req request.RepayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}
	if req.CreditID == "" {
		WriteError(w, NewInvalidRequestError("credit_id is required"))
		return
	}

	sess, err := h.getSession(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	tx, err := sess.Repay(r.Context(), account.ID, model.CreditID(req.CreditID), req.Amount)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.TransactionFromModel(*tx))
}

// Transactions handles GET /api/v1/rooms/{roomId}/bank/transactions.
// Returns the caller's own ledger history.
func (h *BankHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	account := middleware.MustGetAccount(r.Context())

	sess, err := h.getSession(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	snap := sess.Snapshot()
	if snap.GetPlayer(account.ID) == nil {
		WriteError(w, model.ErrPlayerNotFound)
		return
	}

	response.JSON(w, http.StatusOK, response.TransactionListFromModel(snap.PlayerTransactions(account.ID)))
}
