package ws

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RedisHub layers cross-instance fan-out on top of Hub: a Broadcast call on
// one process is published to Redis and every subscribed process
// (including the publisher) delivers it to its own local Clients. This
// keeps the "at most one live session" invariant meaningful even when
// several API processes share one Postgres behind a load balancer.
type RedisHub struct {
	*Hub
	rdb        *redis.Client
	instanceID string
	log        zerolog.Logger

	mu   chan struct{} // binary semaphore guarding subscriptions map
	subs map[uuid.UUID]*redis.PubSub
}

func NewRedisHub(rdb *redis.Client, instanceID string, log zerolog.Logger) *RedisHub {
	return &RedisHub{
		Hub:        NewHub(),
		rdb:        rdb,
		instanceID: instanceID,
		log:        log,
		mu:         make(chan struct{}, 1),
		subs:       make(map[uuid.UUID]*redis.PubSub),
	}
}

func (h *RedisHub) channel(sessionID uuid.UUID) string {
	return "session-state:" + sessionID.String()
}

// SubscribeSession ensures a Redis subscription exists for the given
// session, delivering any message published (by this instance or another)
// to the local Hub's clients.
func (h *RedisHub) SubscribeSession(ctx context.Context, sessionID uuid.UUID) {
	h.mu <- struct{}{}
	if _, exists := h.subs[sessionID]; !exists {
		sub := h.rdb.Subscribe(ctx, h.channel(sessionID))
		h.subs[sessionID] = sub
		go h.relay(ctx, sessionID, sub)
	}
	<-h.mu
}

// Broadcast publishes the payload to the session's Redis channel so every
// subscribed instance (this one included, via its relay) delivers it to its
// local clients. Falls back to a local-only broadcast if the publish fails,
// so a Redis outage degrades to single-instance fan-out instead of silence.
func (h *RedisHub) Broadcast(sessionID uuid.UUID, message []byte) {
	ctx := context.Background()
	h.SubscribeSession(ctx, sessionID)
	if err := h.rdb.Publish(ctx, h.channel(sessionID), message).Err(); err != nil {
		h.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("redis publish failed, broadcasting locally")
		h.Hub.Broadcast(sessionID, message)
	}
}

func (h *RedisHub) relay(ctx context.Context, sessionID uuid.UUID, sub *redis.PubSub) {
	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.Hub.Broadcast(sessionID, []byte(msg.Payload))
		case <-ctx.Done():
			sub.Close()
			return
		}
	}
}

// PublishState publishes a state payload for a session; every subscribed
// instance (this one included) relays it to its local clients.
func (h *RedisHub) PublishState(ctx context.Context, sessionID uuid.UUID, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, h.channel(sessionID), body).Err()
}
