package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/lumenquiz/session-runtime/internal/model"
)

// PostgresQuizRepository implements QuizRepository. Only the read paths the
// Timeline Builder needs are present; authoring quizzes/questions happens
// through a separate content-management surface out of scope here.
type PostgresQuizRepository struct {
	db *DB
}

func NewPostgresQuizRepository(db *DB) *PostgresQuizRepository {
	return &PostgresQuizRepository{db: db}
}

func (r *PostgresQuizRepository) GetQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	query := `
		SELECT id, name, description, default_question_duration, gap_seconds, created_at, updated_at
		FROM quizzes
		WHERE id = $1
	`

	var quiz model.Quiz
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&quiz.ID,
		&quiz.Name,
		&description,
		&quiz.DefaultQuestionDuration,
		&quiz.GapSeconds,
		&quiz.CreatedAt,
		&quiz.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if description.Valid {
		quiz.Description = description.String
	}
	return &quiz, nil
}

func (r *PostgresQuizRepository) GetQuestionsByQuiz(ctx context.Context, quizID uuid.UUID) ([]*model.Question, error) {
	query := `
		SELECT id, quiz_id, text, image_urls, audio_urls, answer_type, options, correct_answer,
		       scoring_type, duration_seconds, position, speed_bonus, created_at, updated_at
		FROM questions
		WHERE quiz_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*model.Question
	for rows.Next() {
		var q model.Question
		var correctAnswer sql.NullString
		var imageJSON, audioJSON, optionsJSON sql.NullString

		if err := rows.Scan(
			&q.ID, &q.QuizID, &q.Text, &imageJSON, &audioJSON, &q.AnswerType, &optionsJSON,
			&correctAnswer, &q.ScoringType, &q.DurationSeconds, &q.Position, &q.SpeedBonus,
			&q.CreatedAt, &q.UpdatedAt,
		); err != nil {
			return nil, err
		}

		if correctAnswer.Valid {
			val := correctAnswer.String
			q.CorrectAnswer = &val
		}
		if imageJSON.Valid && imageJSON.String != "" {
			_ = json.Unmarshal([]byte(imageJSON.String), &q.ImageURLs)
		}
		if audioJSON.Valid && audioJSON.String != "" {
			_ = json.Unmarshal([]byte(audioJSON.String), &q.AudioURLs)
		}
		if optionsJSON.Valid && optionsJSON.String != "" {
			_ = json.Unmarshal([]byte(optionsJSON.String), &q.Options)
		}

		questions = append(questions, &q)
	}
	return questions, rows.Err()
}
