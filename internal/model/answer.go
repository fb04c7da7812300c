package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionAnswer is a single player's submission for one question within a
// session. At most one exists per (session, question, player).
type SessionAnswer struct {
	ID          uuid.UUID `json:"id" db:"id"`
	SessionID   uuid.UUID `json:"sessionId" db:"session_id"`
	QuestionID  uuid.UUID `json:"questionId" db:"question_id"`
	PlayerID    string    `json:"playerId" db:"player_id"`
	Answer      *string   `json:"answer" db:"answer"`
	IsCorrect   bool      `json:"isCorrect" db:"is_correct"`
	SubmittedAt time.Time `json:"submittedAt" db:"submitted_at"`
}

// NewSessionAnswer records an accepted submission; correctness is decided
// by the caller before construction (exact questions), or patched in later
// by closest-value finalization.
func NewSessionAnswer(sessionID, questionID uuid.UUID, playerID string, answer *string, isCorrect bool) *SessionAnswer {
	return &SessionAnswer{
		ID:          uuid.New(),
		SessionID:   sessionID,
		QuestionID:  questionID,
		PlayerID:    playerID,
		Answer:      answer,
		IsCorrect:   isCorrect,
		SubmittedAt: time.Now(),
	}
}
