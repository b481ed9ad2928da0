package request

// CreateGuestRequest is the request body for creating a guest player
type CreateGuestRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

// RegisterRequest is the request body for registering a player
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateRoomRequest is the request body for creating a room.
// Omitted config fields fall back to the server defaults.
type CreateRoomRequest struct {
	Name                string `json:"name"`
	MaxPlayers          int    `json:"max_players,omitempty"`
	TurnTimeSec         int    `json:"turn_time_sec,omitempty"`
	GameDurationSec     int    `json:"game_duration_sec,omitempty"`
	ProfessionMode      string `json:"profession_mode,omitempty"`
	AssignedProfession  string `json:"assigned_profession,omitempty"`
	SelectionTimeoutSec int    `json:"selection_timeout_sec,omitempty"`
	CreditOnTurnOnly    *bool  `json:"credit_on_turn_only,omitempty"`
	AutoPassOnExpiry    *bool  `json:"auto_pass_on_expiry,omitempty"`
}

// SelectProfessionRequest is the request body for claiming a profession
type SelectProfessionRequest struct {
	ProfessionID string `json:"profession_id"`
}

// AmountRequest is the request body for deposits and withdrawals
type AmountRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// TransferRequest is the request body for transferring between players
type TransferRequest struct {
	To          string `json:"to"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

// IssueCreditRequest is the request body for taking out a credit line
type IssueCreditRequest struct {
	Amount     int64 `json:"amount"`
	Rate       int64 `json:"rate"`
	TermMonths int   `json:"term_months"`
}

// RepayRequest is the request body for repaying a credit line
type RepayRequest struct {
	CreditID string `json:"credit_id"`
	Amount   int64  `json:"amount"`
}
