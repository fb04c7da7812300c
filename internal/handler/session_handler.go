// Package handler exposes the admin HTTP surface and the websocket
// Connection Adapter on top of the Session Runtime controller.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lumenquiz/session-runtime/internal/repository"
	"github.com/lumenquiz/session-runtime/internal/runtime"
	"github.com/lumenquiz/session-runtime/pkg/response"
)

// SessionHandler exposes the session lifecycle endpoints that drive the
// Runtime Controller: start/resume/next/manual/reset/reveal_scores.
type SessionHandler struct {
	controller *runtime.Controller
	sessions   repository.SessionRepository
}

func NewSessionHandler(controller *runtime.Controller, sessions repository.SessionRepository) *SessionHandler {
	return &SessionHandler{controller: controller, sessions: sessions}
}

func (h *SessionHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.WithError(c, http.StatusBadRequest, "invalid session id", err.Error())
		return uuid.UUID{}, false
	}
	return id, true
}

// parseBoolParam reads a boolean from the query string, falling back to a
// JSON body field of the same name.
func parseBoolParam(c *gin.Context, name string) (bool, bool) {
	if raw := c.Query(name); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.WithError(c, http.StatusBadRequest, "invalid "+name+" parameter", err.Error())
			return false, false
		}
		return v, true
	}
	var body map[string]bool
	if err := c.ShouldBindJSON(&body); err == nil {
		if v, ok := body[name]; ok {
			return v, true
		}
	}
	response.WithError(c, http.StatusBadRequest, "missing "+name+" parameter", "")
	return false, false
}

func (h *SessionHandler) respondErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, runtime.ErrSessionNotFound):
		response.WithError(c, http.StatusNotFound, "session not found", err.Error())
	case errors.Is(err, runtime.ErrEmptyTimeline),
		errors.Is(err, runtime.ErrAnotherSessionLive),
		errors.Is(err, runtime.ErrSessionNotActive),
		errors.Is(err, runtime.ErrNoSnapshot),
		errors.Is(err, runtime.ErrSnapshotOutOfRange),
		errors.Is(err, runtime.ErrNotFinished):
		response.WithError(c, http.StatusBadRequest, "invalid transition", err.Error())
	default:
		response.WithError(c, http.StatusInternalServerError, "internal error", err.Error())
	}
}

// GetState handles GET /sessions/:id
func (h *SessionHandler) GetState(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	h.sendState(c, id)
}

// Start handles POST /sessions/:id/start
func (h *SessionHandler) Start(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.controller.Start(c.Request.Context(), id); err != nil {
		h.respondErr(c, err)
		return
	}
	h.sendState(c, id)
}

// Resume handles POST /sessions/:id/resume
func (h *SessionHandler) Resume(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.controller.Resume(c.Request.Context(), id); err != nil {
		h.respondErr(c, err)
		return
	}
	h.sendState(c, id)
}

// Next handles POST /sessions/:id/next
func (h *SessionHandler) Next(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.controller.ForceNext(c.Request.Context(), id); err != nil {
		h.respondErr(c, err)
		return
	}
	h.sendState(c, id)
}

// SetManual handles POST /sessions/:id/manual?manual=<bool>
func (h *SessionHandler) SetManual(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	manual, ok := parseBoolParam(c, "manual")
	if !ok {
		return
	}
	if err := h.controller.SetManual(c.Request.Context(), id, manual); err != nil {
		h.respondErr(c, err)
		return
	}
	h.sendState(c, id)
}

// Reset handles POST /sessions/:id/reset — aborts the session if it is the
// active one, discarding its in-memory run state.
func (h *SessionHandler) Reset(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	h.controller.Cancel(id)
	response.WithSuccess(c, http.StatusOK, "session reset", nil)
}

// Delete handles DELETE /sessions/:id — aborts the run if active, then
// removes the session row (players, answers, and snapshots cascade).
func (h *SessionHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	h.controller.Cancel(id)
	if err := h.sessions.DeleteSession(c.Request.Context(), id); err != nil {
		h.respondErr(c, err)
		return
	}
	response.WithSuccess(c, http.StatusOK, response.MessageDeleted, nil)
}

// RevealScores handles POST /sessions/:id/reveal_scores?reveal=<bool>
func (h *SessionHandler) RevealScores(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	reveal, ok := parseBoolParam(c, "reveal")
	if !ok {
		return
	}
	if err := h.controller.SetScoresRevealed(c.Request.Context(), id, reveal); err != nil {
		h.respondErr(c, err)
		return
	}
	h.sendState(c, id)
}

func (h *SessionHandler) sendState(c *gin.Context, id uuid.UUID) {
	st, err := h.controller.State(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.WithSuccess(c, http.StatusOK, response.MessageFetched, st)
}
