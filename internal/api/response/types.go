package response

import (
	"time"

	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/services/auth"
)

// Account represents a player identity in API responses
type Account struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	IsGuest     bool   `json:"is_guest"`
}

// AccountFromModel converts a model.Account to a response Account
func AccountFromModel(a *model.Account) Account {
	return Account{
		ID:          string(a.ID),
		DisplayName: a.DisplayName,
		Email:       a.Email,
		IsGuest:     a.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Account Account `json:"account"`
	Token   string  `json:"token"`
}

// AuthResponseFromIdentity creates an AuthResponse from an issued identity
func AuthResponseFromIdentity(id *auth.Identity) AuthResponse {
	return AuthResponse{
		Account: AccountFromModel(&id.Account),
		Token:   id.Token,
	}
}

// CreditLine represents an open loan in API responses
type CreditLine struct {
	ID             string    `json:"id"`
	Principal      int64     `json:"principal"`
	InterestRate   int64     `json:"interest_rate"`
	TermMonths     int       `json:"term_months"`
	MonthlyPayment int64     `json:"monthly_payment"`
	IssuedAt       time.Time `json:"issued_at"`
	MaturesAt      time.Time `json:"matures_at"`
}

// CreditLineFromModel converts model.CreditLine
func CreditLineFromModel(c model.CreditLine) CreditLine {
	return CreditLine{
		ID:             string(c.ID),
		Principal:      c.Principal,
		InterestRate:   c.InterestRate,
		TermMonths:     c.TermMonths,
		MonthlyPayment: c.MonthlyPayment,
		IssuedAt:       c.IssuedAt,
		MaturesAt:      c.MaturesAt,
	}
}

// Transaction represents one ledger record in API responses
type Transaction struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Amount       int64     `json:"amount"`
	Description  string    `json:"description,omitempty"`
	PlayerID     string    `json:"player_id"`
	Counterparty string    `json:"counterparty,omitempty"`
	Direction    string    `json:"direction,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// TransactionFromModel converts model.Transaction
func TransactionFromModel(t model.Transaction) Transaction {
	return Transaction{
		ID:           string(t.ID),
		Type:         string(t.Type),
		Amount:       t.Amount,
		Description:  t.Description,
		PlayerID:     string(t.PlayerID),
		Counterparty: string(t.Counterparty),
		Direction:    string(t.Direction),
		Timestamp:    t.Timestamp,
	}
}

// Player represents a roster entry in API responses
type Player struct {
	ID                  string       `json:"id"`
	DisplayName         string       `json:"display_name"`
	ProfessionID        string       `json:"profession_id,omitempty"`
	ProfessionConfirmed bool         `json:"profession_confirmed"`
	Balance             int64        `json:"balance"`
	NetWorth            int64        `json:"net_worth"`
	Credits             []CreditLine `json:"credits,omitempty"`
	Position            int          `json:"position"`
	Active              bool         `json:"active"`
	JoinedAt            time.Time    `json:"joined_at"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	var credits []CreditLine
	if len(p.Credits) > 0 {
		credits = make([]CreditLine, len(p.Credits))
		for i, c := range p.Credits {
			credits[i] = CreditLineFromModel(c)
		}
	}
	return Player{
		ID:                  string(p.ID),
		DisplayName:         p.DisplayName,
		ProfessionID:        string(p.ProfessionID),
		ProfessionConfirmed: p.ProfessionConfirmed,
		Balance:             p.Balance,
		NetWorth:            p.NetWorth(),
		Credits:             credits,
		Position:            p.Position,
		Active:              p.Active,
		JoinedAt:            p.JoinedAt,
	}
}

// RoomConfig represents room configuration in API responses
type RoomConfig struct {
	MaxPlayers          int    `json:"max_players"`
	TurnTimeSec         int    `json:"turn_time_sec"`
	GameDurationSec     int    `json:"game_duration_sec"`
	ProfessionMode      string `json:"profession_mode"`
	AssignedProfession  string `json:"assigned_profession,omitempty"`
	SelectionTimeoutSec int    `json:"selection_timeout_sec,omitempty"`
	CreditOnTurnOnly    bool   `json:"credit_on_turn_only"`
	AutoPassOnExpiry    bool   `json:"auto_pass_on_expiry"`
}

// RoomConfigFromModel converts model.RoomConfig
func RoomConfigFromModel(c model.RoomConfig) RoomConfig {
	return RoomConfig{
		MaxPlayers:          c.MaxPlayers,
		TurnTimeSec:         c.TurnTimeSec,
		GameDurationSec:     c.GameDurationSec,
		ProfessionMode:      string(c.ProfessionMode),
		AssignedProfession:  string(c.AssignedProfession),
		SelectionTimeoutSec: c.SelectionTimeoutSec,
		CreditOnTurnOnly:    c.CreditOnTurnOnly,
		AutoPassOnExpiry:    c.AutoPassOnExpiry,
	}
}

// Room represents a full room snapshot in API responses
type Room struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatorID string     `json:"creator_id"`
	State     string     `json:"state"`
	Config    RoomConfig `json:"config"`
	Players   []Player   `json:"players"`

	CurrentPlayer string     `json:"current_player,omitempty"`
	Round         int        `json:"round,omitempty"`
	TurnDeadline  *time.Time `json:"turn_deadline,omitempty"`
	GameEndAt     *time.Time `json:"game_end_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// RoomFromModel converts a room snapshot to a response Room
func RoomFromModel(r *model.Room) Room {
	players := make([]Player, len(r.Players))
	for i := range r.Players {
		players[i] = PlayerFromModel(&r.Players[i])
	}

	var currentPlayer string
	if cp := r.CurrentPlayer(); cp != nil {
		currentPlayer = string(cp.ID)
	}

	var turnDeadline, gameEndAt *time.Time
	if !r.TurnDeadline.IsZero() {
		d := r.TurnDeadline
		turnDeadline = &d
	}
	if !r.GameEndAt.IsZero() {
		e := r.GameEndAt
		gameEndAt = &e
	}

	return Room{
		ID:            string(r.ID),
		Name:          r.Name,
		CreatorID:     string(r.CreatorID),
		State:         string(r.State),
		Config:        RoomConfigFromModel(r.Config),
		Players:       players,
		CurrentPlayer: currentPlayer,
		Round:         r.Round,
		TurnDeadline:  turnDeadline,
		GameEndAt:     gameEndAt,
		CreatedAt:     r.CreatedAt,
	}
}

// RoomSummary represents a room listing entry
type RoomSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	State        string    `json:"state"`
	PlayerCount  int       `json:"player_count"`
	MaxPlayers   int       `json:"max_players"`
	LastActivity time.Time `json:"last_activity"`
}

// RoomSummaryFromModel converts model.RoomSummary
func RoomSummaryFromModel(s model.RoomSummary) RoomSummary {
	return RoomSummary{
		ID:           string(s.ID),
		Name:         s.Name,
		State:        string(s.State),
		PlayerCount:  s.PlayerCount,
		MaxPlayers:   s.MaxPlayers,
		LastActivity: s.LastActivity,
	}
}

// RoomList is the response for room listings
type RoomList struct {
	Rooms []RoomSummary `json:"rooms"`
}

// RoomListFromModel converts a slice of summaries
func RoomListFromModel(summaries []model.RoomSummary) RoomList {
	rooms := make([]RoomSummary, len(summaries))
	for i, s := range summaries {
		rooms[i] = RoomSummaryFromModel(s)
	}
	return RoomList{Rooms: rooms}
}

// JoinResponse is the response for joining a room
type JoinResponse struct {
	Room        Room `json:"room"`
	Reconnected bool `json:"reconnected"`
}

// Profession represents a profession in API responses
type Profession struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Salary   int64  `json:"salary"`
	Expenses int64  `json:"expenses"`
	Savings  int64  `json:"savings"`
	Cashflow int64  `json:"cashflow"`
}

// ProfessionFromModel converts model.Profession
func ProfessionFromModel(p model.Profession) Profession {
	return Profession{
		ID:       string(p.ID),
		Name:     p.Name,
		Salary:   p.Salary,
		Expenses: p.Expenses,
		Savings:  p.Savings,
		Cashflow: p.MonthlyCashflow(),
	}
}

// ProfessionList is the response for the profession pool
type ProfessionList struct {
	Professions []Profession `json:"professions"`
}

// ProfessionListFromModel converts a profession pool
func ProfessionListFromModel(pool []model.Profession) ProfessionList {
	professions := make([]Profession, len(pool))
	for i, p := range pool {
		professions[i] = ProfessionFromModel(p)
	}
	return ProfessionList{Professions: professions}
}

// TransactionList is the response for a player's transaction history
type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
}

// TransactionListFromModel converts a transaction slice
func TransactionListFromModel(txs []model.Transaction) TransactionList {
	out := make([]Transaction, len(txs))
	for i, t := range txs {
		out[i] = TransactionFromModel(t)
	}
	return TransactionList{Transactions: out}
}

// HallOfFameEntry represents one hall of fame row
type HallOfFameEntry struct {
	Username        string  `json:"username"`
	Games           int     `json:"games"`
	Wins            int     `json:"wins"`
	Points          int64   `json:"points"`
	WinRate         float64 `json:"win_rate"`
	AverageGameTime string  `json:"average_game_time"`
}

// HallOfFameEntryFromModel converts model.HallOfFameEntry
func HallOfFameEntryFromModel(e *model.HallOfFameEntry) HallOfFameEntry {
	return HallOfFameEntry{
		Username:        e.Username,
		Games:           e.Games,
		Wins:            e.Wins,
		Points:          e.Points,
		WinRate:         e.WinRate,
		AverageGameTime: e.AverageGameTime.String(),
	}
}

// HallOfFame is the response for the hall of fame listing
type HallOfFame struct {
	Entries []HallOfFameEntry `json:"entries"`
}

// HallOfFameFromModel converts a slice of entries
func HallOfFameFromModel(entries []*model.HallOfFameEntry) HallOfFame {
	out := make([]HallOfFameEntry, len(entries))
	for i, e := range entries {
		out[i] = HallOfFameEntryFromModel(e)
	}
	return HallOfFame{Entries: out}
}
