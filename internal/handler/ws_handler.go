package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lumenquiz/session-runtime/internal/config"
	"github.com/lumenquiz/session-runtime/internal/runtime"
	"github.com/lumenquiz/session-runtime/internal/ws"
)

// WebSocketHandler is the Connection Adapter: it upgrades HTTP requests to
// the admin/player observer protocol and drives the Runtime Controller.
type WebSocketHandler struct {
	controller *runtime.Controller
	hub        *ws.Hub
	heartbeat  time.Duration
	log        zerolog.Logger
	upgrader   websocket.Upgrader
}

func NewWebSocketHandler(controller *runtime.Controller, hub *ws.Hub, cfg config.RuntimeConfig, log zerolog.Logger) *WebSocketHandler {
	interval := cfg.HeartbeatInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &WebSocketHandler{
		controller: controller,
		hub:        hub,
		heartbeat:  interval,
		log:        log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleAdmin handles GET /ws/sessions/:id/admin — pushes state at the
// configured heartbeat cadence until the connection closes.
func (h *WebSocketHandler) HandleAdmin(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(sessionID, ws.RoleAdmin, conn, h.log)
	h.hub.Register <- client
	defer func() { h.hub.Unregister <- client }()

	go h.heartbeatLoop(client)
	go client.WritePump()
	client.ReadPump()
}

// HandlePlayer handles GET /ws/sessions/:id/player. The first message must
// be a join; the server replies with a welcome, then the connection behaves
// like an admin connection plus inbound answer submissions.
func (h *WebSocketHandler) HandlePlayer(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}

	var join ws.InboundMessage
	if err := json.Unmarshal(raw, &join); err != nil || join.Type != "join" {
		conn.WriteJSON(map[string]string{"type": "error", "message": "expected join message"})
		conn.Close()
		return
	}

	player, err := h.controller.RegisterPlayer(c.Request.Context(), sessionID, join.Name, join.PlayerID)
	if err != nil {
		conn.WriteJSON(map[string]string{"type": "error", "message": err.Error()})
		conn.Close()
		return
	}

	client := ws.NewClient(sessionID, ws.RolePlayer, conn, h.log)
	client.PlayerID = player.ID
	client.OnAnswer = func(ctx context.Context, sessionID uuid.UUID, playerID string, answer *string) {
		if _, err := h.controller.SubmitAnswer(ctx, sessionID, playerID, answer); err != nil {
			h.log.Error().Err(err).Str("player_id", playerID).Msg("submit answer failed")
		}
	}

	welcome, _ := json.Marshal(map[string]interface{}{
		"type":   "welcome",
		"player": map[string]interface{}{"id": player.ID, "name": player.Name, "score": player.Score, "connected": player.Connected},
	})
	client.Send <- welcome

	h.hub.Register <- client
	defer func() {
		h.hub.Unregister <- client
		h.controller.DisconnectPlayer(context.Background(), sessionID, player.ID)
	}()

	go h.heartbeatLoop(client)
	go client.WritePump()
	client.ReadPump()
}

// heartbeatLoop pushes the current state at the configured cadence, in
// addition to the event-driven broadcasts the controller sends on every
// stage transition, so observers see deadline countdowns tick down between
// transitions.
func (h *WebSocketHandler) heartbeatLoop(client *ws.Client) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-client.Ctx.Done():
			return
		case <-ticker.C:
			st, err := h.controller.State(client.Ctx, client.SessionID)
			if err != nil {
				continue
			}
			payload, err := json.Marshal(map[string]interface{}{"type": "state", "state": st})
			if err != nil {
				continue
			}
			select {
			case client.Send <- payload:
			default:
			}
		}
	}
}
