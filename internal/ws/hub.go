// Package ws is the Connection Adapter: a thin websocket shim translating
// external observer connections into register/submit/remove calls on the
// Runtime Controller, and the Broadcaster that fans state out to them.
package ws

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Role discriminates the two observer kinds; admins see unredacted state,
// players see the redacted projection.
type Role string

const (
	RoleAdmin  Role = "admin"
	RolePlayer Role = "player"
)

// Hub tracks connected observer Clients per session and fans broadcasts out
// to them, pruning any sink whose send buffer is full rather than blocking.
type Hub struct {
	clients    map[uuid.UUID]map[uuid.UUID]*Client
	Register   chan *Client
	Unregister chan *Client
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[uuid.UUID]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Run drives the register/unregister loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.Register:
			h.register(c)
		case c := <-h.Unregister:
			h.unregister(c)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionClients, ok := h.clients[c.SessionID]
	if !ok {
		sessionClients = make(map[uuid.UUID]*Client)
		h.clients[c.SessionID] = sessionClients
	}
	sessionClients[c.ID] = c
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionClients, ok := h.clients[c.SessionID]
	if !ok {
		return
	}
	if _, ok := sessionClients[c.ID]; ok {
		delete(sessionClients, c.ID)
		close(c.Send)
		if len(sessionClients) == 0 {
			delete(h.clients, c.SessionID)
		}
	}
}

// Broadcast sends message to every observer of a session concurrently. A
// client whose send buffer is full is dropped rather than allowed to stall
// the others — this never blocks on a slow or dead sink.
func (h *Hub) Broadcast(sessionID uuid.UUID, message []byte) {
	h.mu.Lock()
	targets := make([]*Client, 0, len(h.clients[sessionID]))
	for _, c := range h.clients[sessionID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	var g errgroup.Group
	for _, c := range targets {
		c := c
		g.Go(func() error {
			select {
			case c.Send <- message:
			default:
				h.mu.Lock()
				h.unregisterLocked(c)
				h.mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (h *Hub) unregisterLocked(c *Client) {
	sessionClients, ok := h.clients[c.SessionID]
	if !ok {
		return
	}
	if existing, ok := sessionClients[c.ID]; ok && existing == c {
		delete(sessionClients, c.ID)
		close(c.Send)
		if len(sessionClients) == 0 {
			delete(h.clients, c.SessionID)
		}
	}
}

// CountConnected returns how many clients of the given role are currently
// registered for a session.
func (h *Hub) CountConnected(sessionID uuid.UUID, role Role) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, c := range h.clients[sessionID] {
		if c.Role == role {
			n++
		}
	}
	return n
}
