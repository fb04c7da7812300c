package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Keep-alive tuning.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// InboundMessage is the wire shape of a message sent from an observer to
// the server (join/answer for players; admins send nothing).
type InboundMessage struct {
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	PlayerID string          `json:"player_id,omitempty"`
	Answer   json.RawMessage `json:"answer,omitempty"`
}

// OutboundMessage is the wire shape of every message pushed to an observer.
type OutboundMessage struct {
	Type   string      `json:"type"`
	State  interface{} `json:"state,omitempty"`
	Player interface{} `json:"player,omitempty"`
}

// AnswerHandler is called when a player submits an answer message.
type AnswerHandler func(ctx context.Context, sessionID uuid.UUID, playerID string, rawAnswer *string)

// Client is one observer connection: either an admin watching the full
// state feed, or a player who may also submit answers.
type Client struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	Role      Role
	PlayerID  string // set for RolePlayer after join

	Conn *websocket.Conn
	Send chan []byte

	Ctx    context.Context
	Cancel context.CancelFunc

	OnAnswer AnswerHandler
	Log      zerolog.Logger
}

// NewClient wraps an accepted connection.
func NewClient(sessionID uuid.UUID, role Role, conn *websocket.Conn, log zerolog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      role,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		Ctx:       ctx,
		Cancel:    cancel,
		Log:       log,
	}
}

// ReadPump processes inbound messages until the connection closes. Only
// players send meaningful messages (answer submissions); anything else is
// ignored rather than treated as an error, matching the silent-ignore
// policy for invalid player actions.
func (c *Client) ReadPump() {
	defer func() {
		c.Cancel()
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			return
		}

		var msg InboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "answer":
			if c.Role != RolePlayer || c.PlayerID == "" || c.OnAnswer == nil {
				continue
			}
			var answer *string
			if len(msg.Answer) > 0 && string(msg.Answer) != "null" {
				var s string
				if err := json.Unmarshal(msg.Answer, &s); err == nil {
					answer = &s
				}
			}
			c.OnAnswer(c.Ctx, c.SessionID, c.PlayerID, answer)
		default:
			// join is handled synchronously before ReadPump starts; any
			// other message type from a connected client is ignored.
		}
	}
}

// WritePump flushes Send and periodic pings to the connection until the
// client is cancelled or the connection breaks.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.Ctx.Done():
			return
		}
	}
}
