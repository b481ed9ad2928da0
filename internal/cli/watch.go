package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "watch <room-id>",
		Short: "Watch room events over websocket",
		Long: `Connect to the room's websocket endpoint and print events in real-time.

Events include:
  - room-joined / room-left / room-updated: Roster or settings changed
  - profession-selected / profession-confirmed: Negotiation progress
  - game-started: Game has started
  - turn-advanced / turn-expired: The active turn moved on
  - bank-operation: A ledger operation settled
  - game-finished: Game finished
  - room-halted: Room was halted after a ledger audit failure
  - state: Full room snapshot (sent on connect and on request)

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchRoom(args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// wsEvent is a printed event frame
type wsEvent struct {
	Time    time.Time       `json:"time"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func watchRoom(roomID string, jsonOutput bool) error {
	wsURL, err := websocketURL(cfg.ServerURL, roomID, cfg.Token)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if !jsonOutput {
		fmt.Printf("Connected to room %s\n", roomID)
	}

	// Close the connection when the context is cancelled so ReadMessage unblocks
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !jsonOutput {
					fmt.Println("\nDisconnected")
				}
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		var frame wsEvent
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		frame.Time = time.Now()
		printWSEvent(frame, jsonOutput)
	}
}

func websocketURL(serverURL, roomID, token string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/api/v1/rooms/" + roomID + "/ws"

	q := u.Query()
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func printWSEvent(evt wsEvent, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.Marshal(evt)
		fmt.Println(string(data))
		return
	}

	timestamp := evt.Time.Format("2006-01-02 15:04:05")
	display := string(evt.Payload)
	if len(display) > 100 {
		display = display[:100] + "..."
	}
	display = strings.ReplaceAll(display, "\n", " ")
	fmt.Printf("[%s] %s: %s\n", timestamp, evt.Type, display)
}
