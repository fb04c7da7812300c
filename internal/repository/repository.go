// Package repository is the Persistence Gateway: typed read/write access to
// sessions, players, answers, and snapshots, backed by PostgreSQL.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lumenquiz/session-runtime/internal/model"
)

// ErrNotFound is returned by Get* methods when no row matches.
var ErrNotFound = errors.New("record not found")

// QuizRepository provides read access to quiz/question definitions. Quiz
// and question authoring is out of scope here; the runtime only ever reads.
type QuizRepository interface {
	GetQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
	GetQuestionsByQuiz(ctx context.Context, quizID uuid.UUID) ([]*model.Question, error)
}

// SessionRepository persists Session rows and their ordered quiz playlist.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session, quizIDs []uuid.UUID) error
	GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error)
	UpdateSession(ctx context.Context, session *model.Session) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	GetPlaylist(ctx context.Context, sessionID uuid.UUID) ([]*model.SessionQuiz, error)
}

// PlayerRepository persists SessionPlayer rows.
type PlayerRepository interface {
	CreatePlayer(ctx context.Context, player *model.SessionPlayer) error
	GetPlayer(ctx context.Context, sessionID uuid.UUID, playerID string) (*model.SessionPlayer, error)
	ListPlayers(ctx context.Context, sessionID uuid.UUID) ([]*model.SessionPlayer, error)
	UpdatePlayer(ctx context.Context, player *model.SessionPlayer) error
}

// AnswerRepository persists SessionAnswer rows.
type AnswerRepository interface {
	CreateAnswer(ctx context.Context, answer *model.SessionAnswer) error
	GetAnswer(ctx context.Context, sessionID, questionID uuid.UUID, playerID string) (*model.SessionAnswer, error)
	ListAnswersForQuestion(ctx context.Context, sessionID, questionID uuid.UUID) ([]*model.SessionAnswer, error)
	UpdateAnswerCorrectness(ctx context.Context, answerID uuid.UUID, isCorrect bool) error
}

// SnapshotRepository persists append-only SessionSnapshot rows.
type SnapshotRepository interface {
	CreateSnapshot(ctx context.Context, snapshot *model.SessionSnapshot) error
	GetLatestSnapshot(ctx context.Context, sessionID uuid.UUID) (*model.SessionSnapshot, error)
}
