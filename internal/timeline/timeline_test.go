package timeline

import (
	"context"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenquiz/session-runtime/internal/model"
	"github.com/lumenquiz/session-runtime/internal/repository"
)

type fakeSource struct {
	playlists map[uuid.UUID][]*model.SessionQuiz
	quizzes   map[uuid.UUID]*model.Quiz
	questions map[uuid.UUID][]*model.Question
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		playlists: make(map[uuid.UUID][]*model.SessionQuiz),
		quizzes:   make(map[uuid.UUID]*model.Quiz),
		questions: make(map[uuid.UUID][]*model.Question),
	}
}

func (f *fakeSource) GetQuiz(_ context.Context, id uuid.UUID) (*model.Quiz, error) {
	q, ok := f.quizzes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return q, nil
}

func (f *fakeSource) GetQuestionsByQuiz(_ context.Context, quizID uuid.UUID) ([]*model.Question, error) {
	qs := append([]*model.Question(nil), f.questions[quizID]...)
	sort.Slice(qs, func(i, j int) bool { return qs[i].Position < qs[j].Position })
	return qs, nil
}

func (f *fakeSource) CreateSession(context.Context, *model.Session, []uuid.UUID) error { return nil }
func (f *fakeSource) GetSession(context.Context, uuid.UUID) (*model.Session, error) {
	return nil, repository.ErrNotFound
}
func (f *fakeSource) UpdateSession(context.Context, *model.Session) error { return nil }
func (f *fakeSource) DeleteSession(context.Context, uuid.UUID) error      { return nil }
func (f *fakeSource) GetPlaylist(_ context.Context, sessionID uuid.UUID) ([]*model.SessionQuiz, error) {
	return f.playlists[sessionID], nil
}

func (f *fakeSource) addQuiz(sessionID uuid.UUID, name string, gap int, questionCount int) *model.Quiz {
	quiz := model.NewQuiz(name)
	quiz.GapSeconds = gap
	f.quizzes[quiz.ID] = quiz
	for i := 0; i < questionCount; i++ {
		q := model.NewQuestion(quiz.ID, i, 15)
		f.questions[quiz.ID] = append(f.questions[quiz.ID], q)
	}
	f.playlists[sessionID] = append(f.playlists[sessionID], &model.SessionQuiz{
		SessionID: sessionID,
		QuizID:    quiz.ID,
		Position:  len(f.playlists[sessionID]),
	})
	return quiz
}

func TestBuildFlattensPlaylist(t *testing.T) {
	src := newFakeSource()
	sessionID := uuid.New()
	first := src.addQuiz(sessionID, "warmup", 3, 2)
	second := src.addQuiz(sessionID, "main round", 5, 1)

	entries, err := NewBuilder(src, src).Build(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	assert.Equal(t, model.StageQuizIntro, entries[0].Kind)
	assert.Equal(t, first.ID, entries[0].Quiz.ID)
	assert.Equal(t, 0, entries[0].QuizIndex)
	assert.Equal(t, -1, entries[0].QuestionIndex)
	assert.Len(t, entries[0].Questions, 2)

	assert.Equal(t, model.StageQuestion, entries[1].Kind)
	assert.Equal(t, 0, entries[1].QuestionIndex)
	assert.Equal(t, 15, entries[1].DurationSeconds)
	assert.Equal(t, 3, entries[1].GapSeconds)
	assert.Equal(t, model.StageQuestion, entries[2].Kind)
	assert.Equal(t, 1, entries[2].QuestionIndex)

	assert.Equal(t, model.StageQuizIntro, entries[3].Kind)
	assert.Equal(t, second.ID, entries[3].Quiz.ID)
	assert.Equal(t, 1, entries[3].QuizIndex)
	assert.Equal(t, model.StageQuestion, entries[4].Kind)
	assert.Equal(t, 5, entries[4].GapSeconds)

	assert.Equal(t, 3, CountQuestions(entries))
}

func TestBuildQuestionsOrderedByPosition(t *testing.T) {
	src := newFakeSource()
	sessionID := uuid.New()
	quiz := src.addQuiz(sessionID, "shuffled", 0, 3)

	// Scramble stored positions; Build must emit them back in order.
	src.questions[quiz.ID][0].Position = 2
	src.questions[quiz.ID][1].Position = 0
	src.questions[quiz.ID][2].Position = 1
	wantFirst := src.questions[quiz.ID][1].ID

	entries, err := NewBuilder(src, src).Build(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, wantFirst, entries[1].Question.ID)
	for i, e := range entries[1:] {
		assert.Equal(t, i, e.QuestionIndex)
	}
}

func TestBuildEmptyQuizIntroOnly(t *testing.T) {
	src := newFakeSource()
	sessionID := uuid.New()
	src.addQuiz(sessionID, "placeholder", 0, 0)

	entries, err := NewBuilder(src, src).Build(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.StageQuizIntro, entries[0].Kind)
	assert.Equal(t, 0, CountQuestions(entries))
}

func TestBuildEmptyPlaylist(t *testing.T) {
	src := newFakeSource()

	entries, err := NewBuilder(src, src).Build(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildMissingQuiz(t *testing.T) {
	src := newFakeSource()
	sessionID := uuid.New()
	src.playlists[sessionID] = []*model.SessionQuiz{{SessionID: sessionID, QuizID: uuid.New(), Position: 0}}

	_, err := NewBuilder(src, src).Build(context.Background(), sessionID)
	require.Error(t, err)
}
