package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenquiz/session-runtime/internal/model"
)

func seedAnswerFixtures(t *testing.T, db *DB) (*model.Session, *model.Question) {
	t.Helper()
	quiz := model.NewQuiz("answers")
	seedQuizRow(t, db, quiz)
	q := model.NewQuestion(quiz.ID, 0, 30)
	seedQuestionRow(t, db, q, "[]", "[]", "[]")
	sess := seedSessionRow(t, db, quiz.ID)
	return sess, q
}

func TestAnswerRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresAnswerRepository(db)
	ctx := context.Background()

	sess, q := seedAnswerFixtures(t, db)
	raw := "B"
	a := model.NewSessionAnswer(sess.ID, q.ID, "PLAYER01", &raw, true)
	require.NoError(t, repo.CreateAnswer(ctx, a))

	got, err := repo.GetAnswer(ctx, sess.ID, q.ID, "PLAYER01")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	require.NotNil(t, got.Answer)
	assert.Equal(t, "B", *got.Answer)
	assert.True(t, got.IsCorrect)
}

func TestAnswerNullValue(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresAnswerRepository(db)
	ctx := context.Background()

	sess, q := seedAnswerFixtures(t, db)
	a := model.NewSessionAnswer(sess.ID, q.ID, "PLAYER01", nil, false)
	require.NoError(t, repo.CreateAnswer(ctx, a))

	got, err := repo.GetAnswer(ctx, sess.ID, q.ID, "PLAYER01")
	require.NoError(t, err)
	assert.Nil(t, got.Answer)
	assert.False(t, got.IsCorrect)
}

// The unique constraint is the durable backstop for the one-answer-per-
// question invariant; a second insert must fail rather than overwrite.
func TestAnswerDuplicateRejected(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresAnswerRepository(db)
	ctx := context.Background()

	sess, q := seedAnswerFixtures(t, db)
	first := "A"
	second := "B"
	require.NoError(t, repo.CreateAnswer(ctx, model.NewSessionAnswer(sess.ID, q.ID, "PLAYER01", &first, true)))
	err := repo.CreateAnswer(ctx, model.NewSessionAnswer(sess.ID, q.ID, "PLAYER01", &second, false))
	require.Error(t, err)

	got, err := repo.GetAnswer(ctx, sess.ID, q.ID, "PLAYER01")
	require.NoError(t, err)
	assert.Equal(t, "A", *got.Answer)
}

func TestListAnswersForQuestion(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresAnswerRepository(db)
	ctx := context.Background()

	sess, q := seedAnswerFixtures(t, db)
	for _, player := range []string{"PLAYER01", "PLAYER02", "PLAYER03"} {
		v := player
		require.NoError(t, repo.CreateAnswer(ctx, model.NewSessionAnswer(sess.ID, q.ID, player, &v, false)))
	}

	answers, err := repo.ListAnswersForQuestion(ctx, sess.ID, q.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 3)
}

func TestUpdateAnswerCorrectness(t *testing.T) {
	db := openTestDB(t)
	repo := NewPostgresAnswerRepository(db)
	ctx := context.Background()

	sess, q := seedAnswerFixtures(t, db)
	raw := "99"
	a := model.NewSessionAnswer(sess.ID, q.ID, "PLAYER01", &raw, false)
	require.NoError(t, repo.CreateAnswer(ctx, a))

	require.NoError(t, repo.UpdateAnswerCorrectness(ctx, a.ID, true))

	got, err := repo.GetAnswer(ctx, sess.ID, q.ID, "PLAYER01")
	require.NoError(t, err)
	assert.True(t, got.IsCorrect)
}
