package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lumenquiz/session-runtime/internal/model"
)

// PostgresAnswerRepository implements AnswerRepository.
type PostgresAnswerRepository struct {
	db *DB
}

func NewPostgresAnswerRepository(db *DB) *PostgresAnswerRepository {
	return &PostgresAnswerRepository{db: db}
}

func (r *PostgresAnswerRepository) CreateAnswer(ctx context.Context, answer *model.SessionAnswer) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_answers (id, session_id, question_id, player_id, answer, is_correct, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, answer.ID, answer.SessionID, answer.QuestionID, answer.PlayerID, answer.Answer, answer.IsCorrect, answer.SubmittedAt)
	return err
}

func (r *PostgresAnswerRepository) GetAnswer(ctx context.Context, sessionID, questionID uuid.UUID, playerID string) (*model.SessionAnswer, error) {
	var a model.SessionAnswer
	var answer sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, question_id, player_id, answer, is_correct, submitted_at
		FROM session_answers
		WHERE session_id = $1 AND question_id = $2 AND player_id = $3
	`, sessionID, questionID, playerID).Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.PlayerID, &answer, &a.IsCorrect, &a.SubmittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if answer.Valid {
		a.Answer = &answer.String
	}
	return &a, nil
}

func (r *PostgresAnswerRepository) ListAnswersForQuestion(ctx context.Context, sessionID, questionID uuid.UUID) ([]*model.SessionAnswer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, question_id, player_id, answer, is_correct, submitted_at
		FROM session_answers
		WHERE session_id = $1 AND question_id = $2
	`, sessionID, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []*model.SessionAnswer
	for rows.Next() {
		var a model.SessionAnswer
		var answer sql.NullString
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.PlayerID, &answer, &a.IsCorrect, &a.SubmittedAt); err != nil {
			return nil, err
		}
		if answer.Valid {
			a.Answer = &answer.String
		}
		answers = append(answers, &a)
	}
	return answers, rows.Err()
}

func (r *PostgresAnswerRepository) UpdateAnswerCorrectness(ctx context.Context, answerID uuid.UUID, isCorrect bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE session_answers SET is_correct = $2 WHERE id = $1
	`, answerID, isCorrect)
	return err
}
