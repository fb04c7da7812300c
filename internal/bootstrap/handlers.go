package bootstrap

import (
	"github.com/rs/zerolog"

	"github.com/lumenquiz/session-runtime/internal/config"
	"github.com/lumenquiz/session-runtime/internal/handler"
	"github.com/lumenquiz/session-runtime/internal/runtime"
	"github.com/lumenquiz/session-runtime/internal/ws"
)

// Handlers holds all handler instances.
type Handlers struct {
	SessionHandler *handler.SessionHandler
	WSHandler      *handler.WebSocketHandler
}

// NewHandlers initializes all handlers.
func NewHandlers(controller *runtime.Controller, repos *Repositories, hub *ws.Hub, cfg *config.Config, log zerolog.Logger) *Handlers {
	return &Handlers{
		SessionHandler: handler.NewSessionHandler(controller, repos.SessionRepo),
		WSHandler:      handler.NewWebSocketHandler(controller, hub, cfg.Runtime, log),
	}
}
