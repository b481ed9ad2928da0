package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratrace-game/server/internal/api"
	"github.com/ratrace-game/server/internal/api/response"
	"github.com/ratrace-game/server/internal/factory"
	"github.com/ratrace-game/server/internal/services/auth"
	"github.com/ratrace-game/server/internal/storage/memory"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	storage *memory.Storage
	auth    *auth.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests - use production factory with real random/clock
	app, err := factory.New(factory.Config{
		AuthConfig: auth.Config{Secret: "api-test-secret"},
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		AuthService: app.AuthService,
		Registry:    app.Registry,
		Negotiator:  app.Negotiator,
		Stats:       app.Stats,
		WSHandler:   app.WSHandler,
	})

	return &testServer{
		handler: router,
		storage: app.Storage.(*memory.Storage),
		auth:    app.AuthService,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestCreateGuestPlayer(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{"display_name": "Alice", "email": "alice@example.com"}
	rr := ts.request(http.MethodPost, "/api/v1/players/guest", body, "")

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)

	assert.Equal(t, "Alice", resp.Account.DisplayName)
	assert.True(t, resp.Account.IsGuest)
	assert.NotEmpty(t, resp.Token)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	// Register
	registerBody := map[string]string{
		"username":     "alice",
		"password":     "secret123",
		"display_name": "Alice",
		"email":        "alice@example.com",
	}
	rr := ts.request(http.MethodPost, "/api/v1/players/register", registerBody, "")
	assert.Equal(t, http.StatusCreated, rr.Code)

	var registerResp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &registerResp)
	require.NoError(t, err)
	assert.False(t, registerResp.Account.IsGuest)

	// Login
	loginBody := map[string]string{
		"username": "alice",
		"password": "secret123",
	}
	rr = ts.request(http.MethodPost, "/api/v1/players/login", loginBody, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var loginResp response.AuthResponse
	err = json.Unmarshal(rr.Body.Bytes(), &loginResp)
	require.NoError(t, err)
	assert.Equal(t, registerResp.Account.ID, loginResp.Account.ID)
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)

	// Create guest first
	body := map[string]string{"display_name": "Bob"}
	rr := ts.request(http.MethodPost, "/api/v1/players/guest", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var authResp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &authResp)
	require.NoError(t, err)

	// Get me
	rr = ts.request(http.MethodGet, "/api/v1/players/me", nil, authResp.Token)
	assert.Equal(t, http.StatusOK, rr.Code)

	var meResp response.Account
	err = json.Unmarshal(rr.Body.Bytes(), &meResp)
	require.NoError(t, err)
	assert.Equal(t, "Bob", meResp.DisplayName)
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	// Try to get /me without token
	rr := ts.request(http.MethodGet, "/api/v1/players/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Try to create a room without token
	rr = ts.request(http.MethodPost, "/api/v1/rooms", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListProfessions(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/professions", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp response.ProfessionList
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Professions)

	for _, p := range resp.Professions {
		assert.Equal(t, p.Salary-p.Expenses, p.Cashflow)
	}
}

func TestCreateAndJoinRoom(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuest(t, ts, "Alice", "alice@example.com")
	token2 := createGuest(t, ts, "Bob", "bob@example.com")

	// Alice creates a room
	body := map[string]any{"name": "High Rollers", "max_players": 3}
	rr := ts.request(http.MethodPost, "/api/v1/rooms", body, token1)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var roomResp response.Room
	err := json.Unmarshal(rr.Body.Bytes(), &roomResp)
	require.NoError(t, err)

	assert.Equal(t, "waiting", roomResp.State)
	assert.Equal(t, "High Rollers", roomResp.Name)
	assert.Equal(t, 3, roomResp.Config.MaxPlayers)
	assert.Empty(t, roomResp.Players)

	// Both join
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomResp.ID+"/join", nil, token1)
	assert.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomResp.ID+"/join", nil, token2)
	assert.Equal(t, http.StatusOK, rr.Code)

	var joinResp response.JoinResponse
	err = json.Unmarshal(rr.Body.Bytes(), &joinResp)
	require.NoError(t, err)
	assert.False(t, joinResp.Reconnected)
	assert.Len(t, joinResp.Room.Players, 2)

	// Room shows up in the listing
	rr = ts.request(http.MethodGet, "/api/v1/rooms", nil, token1)
	assert.Equal(t, http.StatusOK, rr.Code)

	var listResp response.RoomList
	err = json.Unmarshal(rr.Body.Bytes(), &listResp)
	require.NoError(t, err)
	require.Len(t, listResp.Rooms, 1)
	assert.Equal(t, 2, listResp.Rooms[0].PlayerCount)
}

func TestRoomNotFound(t *testing.T) {
	ts := newTestServer(t)

	token := createGuest(t, ts, "Alice", "alice@example.com")

	rr := ts.request(http.MethodGet, "/api/v1/rooms/NOPE42", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGameAndBankFlow(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuest(t, ts, "Alice", "alice@example.com")
	token2 := createGuest(t, ts, "Bob", "bob@example.com")

	roomID := createRoom(t, ts, token1, "Bank Test")

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/join", nil, token1)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/join", nil, token2)
	require.Equal(t, http.StatusOK, rr.Code)

	// Pick professions
	selectProfession(t, ts, roomID, token1, "engineer")
	selectProfession(t, ts, roomID, token2, "doctor")

	// Only the creator may start
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/start", nil, token2)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/start", nil, token1)
	assert.Equal(t, http.StatusOK, rr.Code)

	var startResp response.Room
	err := json.Unmarshal(rr.Body.Bytes(), &startResp)
	require.NoError(t, err)
	assert.Equal(t, "started", startResp.State)
	assert.Equal(t, 1, startResp.Round)
	require.NotNil(t, startResp.TurnDeadline)

	// Starting savings were deposited through the ledger
	assert.Equal(t, int64(400), startResp.Players[0].Balance)
	assert.Equal(t, int64(3500), startResp.Players[1].Balance)

	// Alice deposits
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/bank/deposit",
		map[string]any{"amount": 500, "description": "payday"}, token1)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var txResp response.Transaction
	err = json.Unmarshal(rr.Body.Bytes(), &txResp)
	require.NoError(t, err)
	assert.Equal(t, "deposit", txResp.Type)
	assert.Equal(t, int64(500), txResp.Amount)

	// Overdraft is rejected
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/bank/withdraw",
		map[string]any{"amount": 99999}, token1)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Negative amounts are rejected
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/bank/deposit",
		map[string]any{"amount": -5}, token1)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Alice takes credit on her turn
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/bank/credit",
		map[string]any{"amount": 2000, "rate": 10, "term_months": 12}, token1)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var creditResp response.CreditLine
	err = json.Unmarshal(rr.Body.Bytes(), &creditResp)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), creditResp.Principal)
	assert.NotEmpty(t, creditResp.ID)

	// Bob cannot take credit off-turn
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/bank/credit",
		map[string]any{"amount": 1000, "rate": 10, "term_months": 6}, token2)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Repay part of the loan
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/bank/repay",
		map[string]any{"credit_id": creditResp.ID, "amount": 500}, token1)
	assert.Equal(t, http.StatusCreated, rr.Code)

	// Transaction history covers everything so far
	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+roomID+"/bank/transactions", nil, token1)
	assert.Equal(t, http.StatusOK, rr.Code)

	var txList response.TransactionList
	err = json.Unmarshal(rr.Body.Bytes(), &txList)
	require.NoError(t, err)
	// savings, deposit, credit, payment
	assert.Len(t, txList.Transactions, 4)

	// Pass the turn to Bob
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/turn/pass", nil, token1)
	assert.Equal(t, http.StatusOK, rr.Code)

	var passResp response.Room
	err = json.Unmarshal(rr.Body.Bytes(), &passResp)
	require.NoError(t, err)
	assert.Equal(t, passResp.Players[1].ID, passResp.CurrentPlayer)

	// Passing out of turn fails
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/turn/pass", nil, token1)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestProfessionConflict(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuest(t, ts, "Alice", "alice@example.com")
	token2 := createGuest(t, ts, "Bob", "bob@example.com")

	roomID := createRoom(t, ts, token1, "Conflict")

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/join", nil, token1)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/join", nil, token2)
	require.Equal(t, http.StatusOK, rr.Code)

	selectProfession(t, ts, roomID, token1, "engineer")

	// Bob cannot take a confirmed profession
	body := map[string]string{"profession_id": "engineer"}
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/profession", body, token2)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Starting with Bob unresolved fails
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/start", nil, token1)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestLeaveRoomBeforeStart(t *testing.T) {
	ts := newTestServer(t)

	token1 := createGuest(t, ts, "Alice", "alice@example.com")
	token2 := createGuest(t, ts, "Bob", "bob@example.com")

	roomID := createRoom(t, ts, token1, "Leavers")

	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/join", nil, token1)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/join", nil, token2)
	require.Equal(t, http.StatusOK, rr.Code)

	// Bob leaves
	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/leave", nil, token2)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	// Verify Bob is gone
	rr = ts.request(http.MethodGet, "/api/v1/rooms/"+roomID, nil, token1)
	assert.Equal(t, http.StatusOK, rr.Code)

	var roomResp response.Room
	err := json.Unmarshal(rr.Body.Bytes(), &roomResp)
	require.NoError(t, err)
	assert.Len(t, roomResp.Players, 1)
}

func TestHallOfFameEmpty(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/halloffame", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var resp response.HallOfFame
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Empty(t, resp.Entries)

	// Unknown username is a 404
	rr = ts.request(http.MethodGet, "/api/v1/halloffame/nobody", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// Helper functions

func createGuest(t *testing.T, ts *testServer, displayName, email string) string {
	t.Helper()

	body := map[string]string{"display_name": displayName, "email": email}
	rr := ts.request(http.MethodPost, "/api/v1/players/guest", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.AuthResponse
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)

	return resp.Token
}

func createRoom(t *testing.T, ts *testServer, token, name string) string {
	t.Helper()

	body := map[string]string{"name": name}
	rr := ts.request(http.MethodPost, "/api/v1/rooms", body, token)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp response.Room
	err := json.Unmarshal(rr.Body.Bytes(), &resp)
	require.NoError(t, err)

	return resp.ID
}

func selectProfession(t *testing.T, ts *testServer, roomID, token, professionID string) {
	t.Helper()

	body := map[string]string{"profession_id": professionID}
	rr := ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/profession", body, token)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/rooms/"+roomID+"/profession/confirm", nil, token)
	require.Equal(t, http.StatusNoContent, rr.Code)
}
