package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ratrace-game/server/internal/model"
	"github.com/ratrace-game/server/internal/services/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// Intent types clients may send over the socket
const (
	IntentSelectProfession  = "select-profession"
	IntentConfirmProfession = "confirm-profession"
	IntentStartGame         = "start-game"
	IntentPassTurn          = "pass-turn"
	IntentDeposit           = "deposit"
	IntentWithdraw          = "withdraw"
	IntentTransfer          = "transfer"
	IntentIssueCredit       = "issue-credit"
	IntentRepay             = "repay"
	IntentLeaveRoom         = "leave-room"
	IntentGetState          = "get-state"
)

// Client is one websocket connection bound to a player in a room. The
// same socket carries inbound intents and outbound events.
type Client struct {
	hub     *Hub
	session *session.Session
	conn    *websocket.Conn
	logger  *slog.Logger

	playerID     model.PlayerID
	connectionID model.ConnectionID
	connectedAt  time.Time

	send chan []byte
}

// NewClient creates a client around an upgraded connection
func NewClient(
	hub *Hub,
	sess *session.Session,
	conn *websocket.Conn,
	playerID model.PlayerID,
	connectionID model.ConnectionID,
	logger *slog.Logger,
) *Client {
	return &Client{
		hub:          hub,
		session:      sess,
		conn:         conn,
		logger:       logger.With(slog.String("player_id", string(playerID))),
		playerID:     playerID,
		connectionID: connectionID,
		connectedAt:  time.Now(),
		send:         make(chan []byte, sendBufferSize),
	}
}

// Serve registers the client and runs its pumps. Blocks until the
// connection drops, then cleans up the player's presence in the room.
func (c *Client) Serve(ctx context.Context) {
	c.hub.Register(c)
	go c.writePump()
	c.readPump(ctx)

	c.hub.Unregister(c)
	c.session.Disconnect(ctx, c.connectionID)
}

// readPump reads intents off the socket and dispatches them until the
// connection errors or closes
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws read error", "error", err)
			}
			return
		}
		c.dispatch(ctx, frame)
	}
}

// writePump pushes outbound messages and keepalive pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch routes one inbound frame to the session. Failures go back to
// this client only; successful mutations reach everyone through the
// session's event notifier.
func (c *Client) dispatch(ctx context.Context, frame Frame) {
	var err error

	switch frame.Type {
	case IntentSelectProfession:
		var p struct {
			ProfessionID model.ProfessionID `json:"profession_id"`
		}
		if err = json.Unmarshal(frame.Payload, &p); err == nil {
			err = c.session.SelectProfession(ctx, c.playerID, p.ProfessionID)
		}

	case IntentConfirmProfession:
		err = c.session.ConfirmProfession(ctx, c.playerID)

	case IntentStartGame:
		err = c.session.Start(ctx, c.playerID)

	case IntentPassTurn:
		err = c.session.PassTurn(ctx, c.playerID)

	case IntentDeposit:
		var p struct {
			Amount      int64  `json:"amount"`
			Description string `json:"description"`
		}
		if err = json.Unmarshal(frame.Payload, &p); err == nil {
			_, err = c.session.Deposit(ctx, c.playerID, p.Amount, p.Description)
		}

	case IntentWithdraw:
		var p struct {
			Amount      int64  `json:"amount"`
			Description string `json:"description"`
		}
		if err = json.Unmarshal(frame.Payload, &p); err == nil {
			_, err = c.session.Withdraw(ctx, c.playerID, p.Amount, p.Description)
		}

	case IntentTransfer:
		var p struct {
			To          model.PlayerID `json:"to"`
			Amount      int64          `json:"amount"`
			Description string         `json:"description"`
		}
		if err = json.Unmarshal(frame.Payload, &p); err == nil {
			err = c.session.Transfer(ctx, c.playerID, p.To, p.Amount, p.Description)
		}

	case IntentIssueCredit:
		var p struct {
			Amount     int64 `json:"amount"`
			Rate       int64 `json:"rate"`
			TermMonths int   `json:"term_months"`
		}
		if err = json.Unmarshal(frame.Payload, &p); err == nil {
			_, err = c.session.IssueCredit(ctx, c.playerID, p.Amount, p.Rate, p.TermMonths)
		}

	case IntentRepay:
		var p struct {
			CreditID model.CreditID `json:"credit_id"`
			Amount   int64          `json:"amount"`
		}
		if err = json.Unmarshal(frame.Payload, &p); err == nil {
			_, err = c.session.Repay(ctx, c.playerID, p.CreditID, p.Amount)
		}

	case IntentLeaveRoom:
		err = c.session.Leave(ctx, c.playerID)

	case IntentGetState:
		c.sendState()
		return

	default:
		err = errors.New("unknown intent type " + frame.Type)
	}

	if err != nil {
		c.sendError(frame.Type, err)
	}
}

// sendState pushes the current room snapshot to this client only
func (c *Client) sendState() {
	snap := c.session.Snapshot()
	data, err := json.Marshal(OutFrame{Type: "room-state", Payload: snap})
	if err != nil {
		c.logger.Error("ws state marshal failed", "error", err)
		return
	}
	c.trySend(data)
}

// sendError delivers an error frame to this client only
func (c *Client) sendError(intent string, opErr error) {
	data, err := json.Marshal(OutFrame{
		Type: string(model.EventError),
		Payload: model.ErrorPayload{
			Code:    intent,
			Message: opErr.Error(),
		},
	})
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *Client) trySend(data []byte) {
	select {
	case c.send <- data:
	default:
		c.logger.Warn("ws send dropped - client buffer full")
	}
}
