package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lumenquiz/session-runtime/internal/model"
)

// PostgresSessionRepository implements SessionRepository.
type PostgresSessionRepository struct {
	db *DB
}

func NewPostgresSessionRepository(db *DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

func (r *PostgresSessionRepository) CreateSession(ctx context.Context, session *model.Session, quizIDs []uuid.UUID) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, name, status, auto_advance, manual_override, scores_revealed, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, session.ID, session.Name, session.Status, session.AutoAdvance, session.ManualOverride, session.ScoresRevealed, session.CreatedAt)
		if err != nil {
			return err
		}

		for i, quizID := range quizIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO session_quizzes (session_id, quiz_id, position)
				VALUES ($1, $2, $3)
			`, session.ID, quizID, i); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresSessionRepository) GetSession(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	query := `
		SELECT id, name, status, auto_advance, manual_override, active_quiz_index,
		       active_question_index, scores_revealed, started_at, finished_at, created_at
		FROM sessions
		WHERE id = $1
	`
	var s model.Session
	var activeQuizIdx, activeQuestionIdx sql.NullInt64
	var startedAt, finishedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.Name, &s.Status, &s.AutoAdvance, &s.ManualOverride,
		&activeQuizIdx, &activeQuestionIdx, &s.ScoresRevealed, &startedAt, &finishedAt, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if activeQuizIdx.Valid {
		v := int(activeQuizIdx.Int64)
		s.ActiveQuizIndex = &v
	}
	if activeQuestionIdx.Valid {
		v := int(activeQuestionIdx.Int64)
		s.ActiveQuestionIndex = &v
	}
	if startedAt.Valid {
		s.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		s.FinishedAt = &finishedAt.Time
	}
	return &s, nil
}

func (r *PostgresSessionRepository) UpdateSession(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions
		SET name = $2, status = $3, auto_advance = $4, manual_override = $5,
		    active_quiz_index = $6, active_question_index = $7, scores_revealed = $8,
		    started_at = $9, finished_at = $10
		WHERE id = $1
	`,
		session.ID, session.Name, session.Status, session.AutoAdvance, session.ManualOverride,
		session.ActiveQuizIndex, session.ActiveQuestionIndex, session.ScoresRevealed,
		session.StartedAt, session.FinishedAt,
	)
	return err
}

func (r *PostgresSessionRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (r *PostgresSessionRepository) GetPlaylist(ctx context.Context, sessionID uuid.UUID) ([]*model.SessionQuiz, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, quiz_id, position
		FROM session_quizzes
		WHERE session_id = $1
		ORDER BY position ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlist []*model.SessionQuiz
	for rows.Next() {
		var sq model.SessionQuiz
		if err := rows.Scan(&sq.SessionID, &sq.QuizID, &sq.Position); err != nil {
			return nil, err
		}
		playlist = append(playlist, &sq)
	}
	return playlist, rows.Err()
}
