package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Account:
		o.printAccount(v)
	case AuthResult:
		o.printAuthResult(v)
	case Room:
		o.printRoom(v)
	case RoomList:
		o.printRoomList(v)
	case JoinResult:
		o.printJoinResult(v)
	case Transaction:
		o.printTransaction(v)
	case TransactionList:
		o.printTransactionList(v)
	case CreditLine:
		o.printCreditLine(v)
	case ProfessionList:
		o.printProfessionList(v)
	case HallOfFame:
		o.printHallOfFame(v)
	case HallOfFameEntry:
		o.printHallOfFameEntry(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Account response type (matches API)
type Account struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	IsGuest     bool   `json:"is_guest"`
}

// AuthResult combines account and token
type AuthResult struct {
	Account Account `json:"account"`
	Token   string  `json:"token"`
}

// CreditLine response type
type CreditLine struct {
	ID             string `json:"id"`
	Principal      int64  `json:"principal"`
	InterestRate   int64  `json:"interest_rate"`
	TermMonths     int    `json:"term_months"`
	MonthlyPayment int64  `json:"monthly_payment"`
}

// RoomPlayer response type
type RoomPlayer struct {
	ID                  string       `json:"id"`
	DisplayName         string       `json:"display_name"`
	ProfessionID        string       `json:"profession_id,omitempty"`
	ProfessionConfirmed bool         `json:"profession_confirmed"`
	Balance             int64        `json:"balance"`
	NetWorth            int64        `json:"net_worth"`
	Credits             []CreditLine `json:"credits,omitempty"`
	Active              bool         `json:"active"`
}

// RoomConfig response type
type RoomConfig struct {
	MaxPlayers      int    `json:"max_players"`
	TurnTimeSec     int    `json:"turn_time_sec"`
	GameDurationSec int    `json:"game_duration_sec"`
	ProfessionMode  string `json:"profession_mode"`
}

// Room response type
type Room struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	CreatorID     string       `json:"creator_id"`
	State         string       `json:"state"`
	Config        RoomConfig   `json:"config"`
	Players       []RoomPlayer `json:"players"`
	CurrentPlayer string       `json:"current_player,omitempty"`
	Round         int          `json:"round,omitempty"`
	TurnDeadline  *time.Time   `json:"turn_deadline,omitempty"`
	GameEndAt     *time.Time   `json:"game_end_at,omitempty"`
}

// RoomSummary response type
type RoomSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	State       string `json:"state"`
	PlayerCount int    `json:"player_count"`
	MaxPlayers  int    `json:"max_players"`
}

// RoomList response type
type RoomList struct {
	Rooms []RoomSummary `json:"rooms"`
}

// JoinResult response type
type JoinResult struct {
	Room        Room `json:"room"`
	Reconnected bool `json:"reconnected"`
}

// Transaction response type
type Transaction struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Amount       int64     `json:"amount"`
	Description  string    `json:"description,omitempty"`
	Counterparty string    `json:"counterparty,omitempty"`
	Direction    string    `json:"direction,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// TransactionList response type
type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
}

// Profession response type
type Profession struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Salary   int64  `json:"salary"`
	Expenses int64  `json:"expenses"`
	Savings  int64  `json:"savings"`
	Cashflow int64  `json:"cashflow"`
}

// ProfessionList response type
type ProfessionList struct {
	Professions []Profession `json:"professions"`
}

// HallOfFameEntry response type
type HallOfFameEntry struct {
	Username        string  `json:"username"`
	Games           int     `json:"games"`
	Wins            int     `json:"wins"`
	Points          int64   `json:"points"`
	WinRate         float64 `json:"win_rate"`
	AverageGameTime string  `json:"average_game_time"`
}

// HallOfFame response type
type HallOfFame struct {
	Entries []HallOfFameEntry `json:"entries"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printAccount(a Account) {
	guestStr := "no"
	if a.IsGuest {
		guestStr = "yes"
	}
	fmt.Printf("Player: %s (%s)\n", a.DisplayName, a.ID)
	if a.Email != "" {
		fmt.Printf("Email: %s\n", a.Email)
	}
	fmt.Printf("Guest: %s\n", guestStr)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printAccount(a.Account)
	fmt.Printf("Token: %s\n", a.Token)
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s (%s)\n", r.Name, r.ID)
	fmt.Printf("State: %s\n", r.State)
	fmt.Printf("Mode: %s\n", r.Config.ProfessionMode)
	if r.Round > 0 {
		fmt.Printf("Round: %d\n", r.Round)
	}
	if r.CurrentPlayer != "" {
		fmt.Printf("Current Player: %s\n", r.CurrentPlayer)
	}
	if r.TurnDeadline != nil {
		fmt.Printf("Turn Deadline: %s\n", r.TurnDeadline.Format(time.RFC3339))
	}
	if r.GameEndAt != nil {
		fmt.Printf("Game Ends: %s\n", r.GameEndAt.Format(time.RFC3339))
	}

	fmt.Printf("Players (%d/%d):\n", len(r.Players), r.Config.MaxPlayers)
	for _, p := range r.Players {
		marker := ""
		if p.ID == r.CreatorID {
			marker = " [creator]"
		}
		if !p.Active {
			marker += " [away]"
		}
		profession := p.ProfessionID
		if profession == "" {
			profession = "undecided"
		} else if !p.ProfessionConfirmed {
			profession += "?"
		}
		fmt.Printf("  - %s (%s) - %s, balance %d, net worth %d%s\n",
			p.DisplayName, p.ID, profession, p.Balance, p.NetWorth, marker)
		for _, c := range p.Credits {
			fmt.Printf("      credit %s: %d outstanding at %d%%/mo, %d/mo\n",
				c.ID, c.Principal, c.InterestRate, c.MonthlyPayment)
		}
	}
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Println("No active rooms")
		return
	}
	fmt.Printf("Rooms (%d):\n", len(l.Rooms))
	for _, r := range l.Rooms {
		fmt.Printf("  - %s (%s) - %s, %d/%d players\n",
			r.Name, r.ID, r.State, r.PlayerCount, r.MaxPlayers)
	}
}

func (o *Output) printJoinResult(j JoinResult) {
	if j.Reconnected {
		fmt.Println("Reconnected to room")
	} else {
		fmt.Println("Joined room")
	}
	o.printRoom(j.Room)
}

func (o *Output) printTransaction(t Transaction) {
	desc := t.Description
	if desc != "" {
		desc = " - " + desc
	}
	counterparty := ""
	if t.Counterparty != "" {
		counterparty = fmt.Sprintf(" (%s %s)", t.Direction, t.Counterparty)
	}
	fmt.Printf("[%s] %s %d%s%s\n", t.Timestamp.Format("15:04:05"), t.Type, t.Amount, counterparty, desc)
}

func (o *Output) printTransactionList(l TransactionList) {
	if len(l.Transactions) == 0 {
		fmt.Println("No transactions")
		return
	}
	for _, t := range l.Transactions {
		o.printTransaction(t)
	}
}

func (o *Output) printCreditLine(c CreditLine) {
	fmt.Printf("Credit: %s\n", c.ID)
	fmt.Printf("Principal: %d\n", c.Principal)
	fmt.Printf("Rate: %d%%/mo over %d months\n", c.InterestRate, c.TermMonths)
	fmt.Printf("Monthly Payment: %d\n", c.MonthlyPayment)
}

func (o *Output) printProfessionList(l ProfessionList) {
	fmt.Printf("Professions (%d):\n", len(l.Professions))
	for _, p := range l.Professions {
		fmt.Printf("  - %s (%s): salary %d, expenses %d, savings %d, cashflow %d\n",
			p.Name, p.ID, p.Salary, p.Expenses, p.Savings, p.Cashflow)
	}
}

func (o *Output) printHallOfFameEntry(e HallOfFameEntry) {
	fmt.Printf("%s: %d games, %d wins (%.1f%%), %d points, avg game %s\n",
		e.Username, e.Games, e.Wins, e.WinRate, e.Points, e.AverageGameTime)
}

func (o *Output) printHallOfFame(h HallOfFame) {
	if len(h.Entries) == 0 {
		fmt.Println("Hall of fame is empty")
		return
	}
	for i, e := range h.Entries {
		fmt.Printf("%2d. ", i+1)
		o.printHallOfFameEntry(e)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
