package runtime

import (
	"time"

	"github.com/lumenquiz/session-runtime/internal/model"
)

// ClosestResult is one entry of the closest-value ranking exposed once a
// `closest`-scored question has been finalized.
type ClosestResult struct {
	PlayerID string  `json:"playerId"`
	Answer   string  `json:"answer"`
	Distance float64 `json:"distance"`
	IsExact  bool    `json:"isExact"`
}

// QuizIntroView is the quiz_intro projection of State.
type QuizIntroView struct {
	QuizIndex       int    `json:"quizIndex"`
	QuizID          string `json:"quizId"`
	QuizName        string `json:"quizName"`
	QuizDescription string `json:"quizDescription"`
	QuestionCount   int    `json:"questionCount"`
}

// QuestionView is the question projection of State. CorrectAnswer is nil
// until the question is revealed.
type QuestionView struct {
	ID               string            `json:"id"`
	QuizIndex        int               `json:"quizIndex"`
	QuestionIndex    int               `json:"questionIndex"`
	Text             string            `json:"text"`
	Images           []string          `json:"images"`
	Audio            []string          `json:"audio"`
	AnswerType       model.AnswerType  `json:"answerType"`
	Options          []string          `json:"options"`
	ScoringType      model.ScoringType `json:"scoringType"`
	DurationSeconds  int               `json:"durationSeconds"`
	SpeedBonus       bool              `json:"speedBonus"`
	StartedAt        *time.Time        `json:"startedAt"`
	ClosesAt         *time.Time        `json:"closesAt"`
	RemainingSeconds int               `json:"remainingSeconds"`
	Revealed         bool              `json:"revealed"`
	CorrectAnswer    *string           `json:"correctAnswer"`
}

// PlayerView is a single player's public surface.
type PlayerView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Connected bool    `json:"connected"`
}

// State is the full read-only projection of a live (or recently finished)
// session, returned by Controller.State and broadcast to every observer.
type State struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Status              model.SessionStatus `json:"status"`
	ManualOverride      bool                `json:"manualOverride"`
	ActiveQuizIndex     *int                `json:"activeQuizIndex"`
	ActiveQuestionIndex *int                `json:"activeQuestionIndex"`
	Stage               *model.StageKind    `json:"stage"`
	QuizIntro           *QuizIntroView      `json:"quizIntro"`
	Question            *QuestionView       `json:"question"`
	Players             []PlayerView        `json:"players"`
	Now                 time.Time           `json:"now"`
	ScoresRevealed      bool                `json:"scoresRevealed"`
	Answers             map[string]*bool    `json:"answers"`
	AnswerValues        map[string]string   `json:"answerValues"`
	ClosestResults      []ClosestResult     `json:"closestResults"`
}
