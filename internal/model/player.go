package model

import (
	"crypto/rand"
	"time"

	"github.com/google/uuid"
)

// playerTokenAlphabet is uppercase letters and digits with visually
// similar characters removed, so tokens survive being read aloud.
const playerTokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const playerTokenLength = 8

// SessionPlayer is a participant in one Session, identified by a short
// token so it is easy to read back from a reconnect URL or QR code.
type SessionPlayer struct {
	ID        string    `json:"id" db:"id"`
	SessionID uuid.UUID `json:"sessionId" db:"session_id"`
	Name      string    `json:"name" db:"name"`
	Score     float64   `json:"score" db:"score"`
	Connected bool      `json:"connected" db:"connected"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// NewSessionPlayer creates a newly connected player with a freshly minted
// token and zero score.
func NewSessionPlayer(sessionID uuid.UUID, name string) *SessionPlayer {
	now := time.Now()
	return &SessionPlayer{
		ID:        generatePlayerToken(),
		SessionID: sessionID,
		Name:      name,
		Connected: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// generatePlayerToken produces a short, unique-enough, human-typeable id.
func generatePlayerToken() string {
	buf := make([]byte, playerTokenLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the OS entropy source is broken; fall
		// back to a UUID-derived token rather than panicking.
		u := uuid.New()
		for i := range buf {
			buf[i] = playerTokenAlphabet[int(u[i%16])%len(playerTokenAlphabet)]
		}
		return string(buf)
	}
	result := make([]byte, playerTokenLength)
	for i, b := range buf {
		result[i] = playerTokenAlphabet[int(b)%len(playerTokenAlphabet)]
	}
	return string(result)
}
