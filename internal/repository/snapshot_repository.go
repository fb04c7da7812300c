package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lumenquiz/session-runtime/internal/model"
)

// PostgresSnapshotRepository implements SnapshotRepository. Snapshots are
// append-only; resume always consults the newest row for a session.
type PostgresSnapshotRepository struct {
	db *DB
}

func NewPostgresSnapshotRepository(db *DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

func (r *PostgresSnapshotRepository) CreateSnapshot(ctx context.Context, snapshot *model.SessionSnapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_snapshots (
			id, session_id, current_index, current_entry_kind, quiz_id, question_id,
			active_quiz_index, active_question_index, current_start, current_end, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		snapshot.ID, snapshot.SessionID, snapshot.CurrentIndex, snapshot.CurrentEntryKind,
		snapshot.QuizID, snapshot.QuestionID, snapshot.ActiveQuizIndex, snapshot.ActiveQuestionIndex,
		snapshot.CurrentStart, snapshot.CurrentEnd, snapshot.CreatedAt,
	)
	return err
}

func (r *PostgresSnapshotRepository) GetLatestSnapshot(ctx context.Context, sessionID uuid.UUID) (*model.SessionSnapshot, error) {
	var s model.SessionSnapshot
	var quizID, questionID uuid.NullUUID
	var activeQuizIdx, activeQuestionIdx sql.NullInt64
	var currentStart, currentEnd sql.NullTime

	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, current_index, current_entry_kind, quiz_id, question_id,
		       active_quiz_index, active_question_index, current_start, current_end, created_at
		FROM session_snapshots
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, sessionID).Scan(
		&s.ID, &s.SessionID, &s.CurrentIndex, &s.CurrentEntryKind, &quizID, &questionID,
		&activeQuizIdx, &activeQuestionIdx, &currentStart, &currentEnd, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if quizID.Valid {
		s.QuizID = &quizID.UUID
	}
	if questionID.Valid {
		s.QuestionID = &questionID.UUID
	}
	if activeQuizIdx.Valid {
		v := int(activeQuizIdx.Int64)
		s.ActiveQuizIndex = &v
	}
	if activeQuestionIdx.Valid {
		v := int(activeQuestionIdx.Int64)
		s.ActiveQuestionIndex = &v
	}
	if currentStart.Valid {
		s.CurrentStart = &currentStart.Time
	}
	if currentEnd.Valid {
		s.CurrentEnd = &currentEnd.Time
	}
	return &s, nil
}
