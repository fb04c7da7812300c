package bootstrap

import (
	"github.com/lumenquiz/session-runtime/internal/repository"
)

// Repositories holds all repository instances.
type Repositories struct {
	QuizRepo     repository.QuizRepository
	SessionRepo  repository.SessionRepository
	PlayerRepo   repository.PlayerRepository
	AnswerRepo   repository.AnswerRepository
	SnapshotRepo repository.SnapshotRepository
}

// NewRepositories initializes all repositories against db.
func NewRepositories(db *repository.DB) *Repositories {
	return &Repositories{
		QuizRepo:     repository.NewPostgresQuizRepository(db),
		SessionRepo:  repository.NewPostgresSessionRepository(db),
		PlayerRepo:   repository.NewPostgresPlayerRepository(db),
		AnswerRepo:   repository.NewPostgresAnswerRepository(db),
		SnapshotRepo: repository.NewPostgresSnapshotRepository(db),
	}
}
