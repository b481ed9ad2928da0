package model

import "time"

// EventType identifies the type of event broadcast to room clients
type EventType string

const (
	// Room lifecycle events
	EventRoomCreated EventType = "room-created"
	EventRoomJoined  EventType = "room-joined"
	EventRoomLeft    EventType = "room-left"
	EventRoomUpdated EventType = "room-updated"
	EventRoomHalted  EventType = "room-halted"

	// Profession events
	EventProfessionSelected  EventType = "profession-selected"
	EventProfessionConfirmed EventType = "profession-confirmed"

	// Game events
	EventGameStarted   EventType = "game-started"
	EventTurnAdvanced  EventType = "turn-advanced"
	EventTurnExpired   EventType = "turn-expired"
	EventBankOperation EventType = "bank-operation"
	EventGameFinished  EventType = "game-finished"

	// Error event, delivered to the originating client only
	EventError EventType = "error"
)

// Event is the base structure for all outbound events
type Event struct {
	Type      EventType
	Timestamp time.Time
	RoomID    RoomID
	PlayerID  PlayerID // The player who triggered or is affected
	Payload   any      // Type-specific data
}

// RoomJoinedPayload contains data for room joined events
type RoomJoinedPayload struct {
	PlayerID    PlayerID
	DisplayName string
	Reconnect   bool
}

// RoomLeftPayload contains data for room left events
type RoomLeftPayload struct {
	PlayerID    PlayerID
	DisplayName string
}

// ProfessionSelectedPayload contains data for profession selection events
type ProfessionSelectedPayload struct {
	PlayerID     PlayerID
	ProfessionID ProfessionID
	Confirmed    bool
}

// GameStartedPayload contains data for game started events
type GameStartedPayload struct {
	TurnOrder []PlayerID
	GameEndAt time.Time
}

// TurnAdvancedPayload contains data for turn change events
type TurnAdvancedPayload struct {
	CurrentPlayer PlayerID
	Round         int
	TurnDeadline  time.Time
	Expired       bool
}

// BankOperationPayload contains data for bank operation events
type BankOperationPayload struct {
	Transaction Transaction
	Balance     int64
}

// GameFinishedPayload contains data for game finished events
type GameFinishedPayload struct {
	Winner    PlayerID
	NetWorths map[PlayerID]int64
}

// RoomHaltedPayload contains data for safe-halt events
type RoomHaltedPayload struct {
	Reason string
}

// ErrorPayload contains data for error events
type ErrorPayload struct {
	Code    string
	Message string
}
