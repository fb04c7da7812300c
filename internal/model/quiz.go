package model

import (
	"time"

	"github.com/google/uuid"
)

// Quiz is one block of an ordered session playlist: a named set of
// questions sharing a default duration and an inter-question gap. Quiz
// definitions are immutable once a session referencing them goes live.
type Quiz struct {
	ID                      uuid.UUID `json:"id" db:"id"`
	Name                    string    `json:"name" db:"name"`
	Description             string    `json:"description" db:"description"`
	DefaultQuestionDuration int       `json:"defaultQuestionDuration" db:"default_question_duration"`
	GapSeconds              int       `json:"gapSeconds" db:"gap_seconds"`
	CreatedAt               time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt               time.Time `json:"updatedAt" db:"updated_at"`
}

// AnswerType discriminates how a Question's answer is collected and graded.
type AnswerType string

const (
	AnswerTypeMultipleChoice AnswerType = "multiple_choice"
	AnswerTypeText           AnswerType = "text"
	AnswerTypeNumeric        AnswerType = "numeric"
)

// ScoringType selects the scoring rule applied when a question closes.
type ScoringType string

const (
	ScoringExact   ScoringType = "exact"
	ScoringClosest ScoringType = "closest"
)

// Question belongs to a Quiz and carries its own duration, independent of
// the parent quiz's default (the default only seeds new questions).
type Question struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	QuizID          uuid.UUID   `json:"quizId" db:"quiz_id"`
	Text            string      `json:"text" db:"text"`
	ImageURLs       []string    `json:"images" db:"-"`
	AudioURLs       []string    `json:"audio" db:"-"`
	AnswerType      AnswerType  `json:"answerType" db:"answer_type"`
	Options         []string    `json:"options" db:"-"`
	CorrectAnswer   *string     `json:"-" db:"correct_answer"`
	ScoringType     ScoringType `json:"scoringType" db:"scoring_type"`
	DurationSeconds int         `json:"durationSeconds" db:"duration_seconds"`
	Position        int         `json:"position" db:"position"`
	SpeedBonus      bool        `json:"speedBonus" db:"speed_bonus"`
	ImageURLsJSON   string      `json:"-" db:"image_urls"`
	AudioURLsJSON   string      `json:"-" db:"audio_urls"`
	OptionsJSON     string      `json:"-" db:"options"`
	CreatedAt       time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time   `json:"updatedAt" db:"updated_at"`
}

// NewQuiz creates a quiz with the given name and default pacing.
func NewQuiz(name string) *Quiz {
	now := time.Now()
	return &Quiz{
		ID:                      uuid.New(),
		Name:                    name,
		DefaultQuestionDuration: 30,
		GapSeconds:              3,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}

// NewQuestion creates a question inheriting the parent quiz's default
// duration unless overridden by the caller afterward.
func NewQuestion(quizID uuid.UUID, position int, defaultDuration int) *Question {
	now := time.Now()
	return &Question{
		ID:              uuid.New(),
		QuizID:          quizID,
		AnswerType:      AnswerTypeMultipleChoice,
		ScoringType:     ScoringExact,
		DurationSeconds: defaultDuration,
		Position:        position,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
