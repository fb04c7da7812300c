package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is a plain string enum, matching the originating system's
// convention of string constants rather than a narrow integer enum.
type SessionStatus string

const (
	SessionDraft    SessionStatus = "draft"
	SessionLive     SessionStatus = "live"
	SessionFinished SessionStatus = "finished"
)

// Session is the single live-or-not playlist runner. At most one Session
// is `live` at a time within a Controller.
type Session struct {
	ID                  uuid.UUID     `json:"id" db:"id"`
	Name                string        `json:"name" db:"name"`
	Status              SessionStatus `json:"status" db:"status"`
	AutoAdvance         bool          `json:"autoAdvance" db:"auto_advance"`
	ManualOverride      bool          `json:"manualOverride" db:"manual_override"`
	ActiveQuizIndex     *int          `json:"activeQuizIndex" db:"active_quiz_index"`
	ActiveQuestionIndex *int          `json:"activeQuestionIndex" db:"active_question_index"`
	ScoresRevealed      bool          `json:"scoresRevealed" db:"scores_revealed"`
	StartedAt           *time.Time    `json:"startedAt" db:"started_at"`
	FinishedAt          *time.Time    `json:"finishedAt" db:"finished_at"`
	CreatedAt           time.Time     `json:"createdAt" db:"created_at"`
}

// SessionQuiz is the ordered join between a Session and the Quizzes in its
// playlist; Position determines timeline order.
type SessionQuiz struct {
	SessionID uuid.UUID `json:"sessionId" db:"session_id"`
	QuizID    uuid.UUID `json:"quizId" db:"quiz_id"`
	Position  int       `json:"position" db:"position"`
}

// NewSession creates a draft session with auto-advance enabled, matching
// the originating system's default.
func NewSession(name string) *Session {
	return &Session{
		ID:          uuid.New(),
		Name:        name,
		Status:      SessionDraft,
		AutoAdvance: true,
		CreatedAt:   time.Now(),
	}
}
