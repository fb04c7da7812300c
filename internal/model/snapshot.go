package model

import (
	"time"

	"github.com/google/uuid"
)

// StageKind discriminates the two timeline entry shapes.
type StageKind string

const (
	StageQuizIntro StageKind = "quiz_intro"
	StageQuestion  StageKind = "question"
)

// SessionSnapshot is a durable checkpoint of the live cursor, written on
// every stage transition so a restarted process can resume mid-question
// instead of losing the in-flight stage.
type SessionSnapshot struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	SessionID            uuid.UUID  `json:"sessionId" db:"session_id"`
	CurrentIndex         int        `json:"currentIndex" db:"current_index"`
	CurrentEntryKind     StageKind  `json:"currentEntryKind" db:"current_entry_kind"`
	QuizID               *uuid.UUID `json:"quizId" db:"quiz_id"`
	QuestionID           *uuid.UUID `json:"questionId" db:"question_id"`
	ActiveQuizIndex      *int       `json:"activeQuizIndex" db:"active_quiz_index"`
	ActiveQuestionIndex  *int       `json:"activeQuestionIndex" db:"active_question_index"`
	CurrentStart         *time.Time `json:"currentStart" db:"current_start"`
	CurrentEnd           *time.Time `json:"currentEnd" db:"current_end"`
	CreatedAt            time.Time  `json:"createdAt" db:"created_at"`
}

// NewSessionSnapshot stamps a snapshot for the given session at the current
// moment; the caller fills in the stage-specific fields.
func NewSessionSnapshot(sessionID uuid.UUID) *SessionSnapshot {
	return &SessionSnapshot{
		ID:        uuid.New(),
		SessionID: sessionID,
		CreatedAt: time.Now(),
	}
}
