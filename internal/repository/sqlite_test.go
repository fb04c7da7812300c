package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/lumenquiz/session-runtime/internal/model"
)

// The test schema mirrors migrations/schema.sql in SQLite terms; the
// repositories run the same SQL against both engines.
const testSchema = `
CREATE TABLE quizzes (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	default_question_duration INTEGER NOT NULL DEFAULT 30,
	gap_seconds INTEGER NOT NULL DEFAULT 3,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE questions (
	id TEXT PRIMARY KEY,
	quiz_id TEXT NOT NULL REFERENCES quizzes(id),
	text TEXT NOT NULL DEFAULT '',
	image_urls TEXT NOT NULL DEFAULT '[]',
	audio_urls TEXT NOT NULL DEFAULT '[]',
	answer_type TEXT NOT NULL DEFAULT 'multiple_choice',
	options TEXT NOT NULL DEFAULT '[]',
	correct_answer TEXT,
	scoring_type TEXT NOT NULL DEFAULT 'exact',
	duration_seconds INTEGER NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	speed_bonus INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE sessions (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'draft',
	auto_advance INTEGER NOT NULL DEFAULT 1,
	manual_override INTEGER NOT NULL DEFAULT 0,
	active_quiz_index INTEGER,
	active_question_index INTEGER,
	scores_revealed INTEGER NOT NULL DEFAULT 0,
	started_at TIMESTAMP,
	finished_at TIMESTAMP,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE session_quizzes (
	session_id TEXT NOT NULL REFERENCES sessions(id),
	quiz_id TEXT NOT NULL REFERENCES quizzes(id),
	position INTEGER NOT NULL,
	PRIMARY KEY (session_id, quiz_id)
);

CREATE TABLE session_players (
	id TEXT NOT NULL,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	name TEXT NOT NULL,
	score REAL NOT NULL DEFAULT 0,
	connected INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (session_id, id)
);

CREATE TABLE session_answers (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	question_id TEXT NOT NULL REFERENCES questions(id),
	player_id TEXT NOT NULL,
	answer TEXT,
	is_correct INTEGER NOT NULL DEFAULT 0,
	submitted_at TIMESTAMP NOT NULL,
	UNIQUE (session_id, question_id, player_id)
);

CREATE TABLE session_snapshots (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	current_index INTEGER NOT NULL,
	current_entry_kind TEXT NOT NULL,
	quiz_id TEXT,
	question_id TEXT,
	active_quiz_index INTEGER,
	active_question_index INTEGER,
	current_start TIMESTAMP,
	current_end TIMESTAMP,
	created_at TIMESTAMP NOT NULL
);
`

func openTestDB(t *testing.T) *DB {
	t.Helper()
	raw, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// In-memory SQLite evaporates when its one connection closes
	raw.SetMaxOpenConns(1)
	_, err = raw.Exec(testSchema)
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return &DB{raw}
}

func seedQuizRow(t *testing.T, db *DB, quiz *model.Quiz) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO quizzes (id, name, description, default_question_duration, gap_seconds, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, quiz.ID, quiz.Name, quiz.Description, quiz.DefaultQuestionDuration, quiz.GapSeconds, quiz.CreatedAt, quiz.UpdatedAt)
	require.NoError(t, err)
}

func seedQuestionRow(t *testing.T, db *DB, q *model.Question, imageJSON, audioJSON, optionsJSON string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO questions (id, quiz_id, text, image_urls, audio_urls, answer_type, options,
		                       correct_answer, scoring_type, duration_seconds, position, speed_bonus, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, q.ID, q.QuizID, q.Text, imageJSON, audioJSON, q.AnswerType, optionsJSON,
		q.CorrectAnswer, q.ScoringType, q.DurationSeconds, q.Position, q.SpeedBonus, q.CreatedAt, q.UpdatedAt)
	require.NoError(t, err)
}

func seedSessionRow(t *testing.T, db *DB, quizIDs ...uuid.UUID) *model.Session {
	t.Helper()
	sess := model.NewSession("test session")
	sess.CreatedAt = sess.CreatedAt.UTC().Truncate(time.Second)
	require.NoError(t, NewPostgresSessionRepository(db).CreateSession(context.Background(), sess, quizIDs))
	return sess
}
