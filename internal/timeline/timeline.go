// Package timeline materializes a session's quiz playlist into the ordered
// sequence of stages the Runtime Controller advances through.
package timeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lumenquiz/session-runtime/internal/model"
	"github.com/lumenquiz/session-runtime/internal/repository"
)

// Entry is one stage of a materialized timeline: either a quiz's
// introduction card or a single question.
type Entry struct {
	Kind            model.StageKind
	QuizIndex       int
	QuestionIndex   int // -1 for quiz_intro entries
	Quiz            *model.Quiz
	Question        *model.Question
	Questions       []*model.Question // populated only on quiz_intro entries
	DurationSeconds int
	GapSeconds      int
}

// Builder loads quizzes and questions and flattens them into a Timeline.
type Builder struct {
	quizzes repository.QuizRepository
	playlists repository.SessionRepository
}

func NewBuilder(quizzes repository.QuizRepository, playlists repository.SessionRepository) *Builder {
	return &Builder{quizzes: quizzes, playlists: playlists}
}

// Build loads the session's playlist in position order and returns the
// flattened timeline: a quiz_intro entry followed by one question entry per
// question, for each quiz in turn.
func (b *Builder) Build(ctx context.Context, sessionID uuid.UUID) ([]Entry, error) {
	playlist, err := b.playlists.GetPlaylist(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load playlist: %w", err)
	}

	var entries []Entry
	for quizIndex, sq := range playlist {
		quiz, err := b.quizzes.GetQuiz(ctx, sq.QuizID)
		if err != nil {
			return nil, fmt.Errorf("load quiz %s: %w", sq.QuizID, err)
		}

		questions, err := b.quizzes.GetQuestionsByQuiz(ctx, sq.QuizID)
		if err != nil {
			return nil, fmt.Errorf("load questions for quiz %s: %w", sq.QuizID, err)
		}

		entries = append(entries, Entry{
			Kind:      model.StageQuizIntro,
			QuizIndex: quizIndex,
			QuestionIndex: -1,
			Quiz:      quiz,
			Questions: questions,
			GapSeconds: quiz.GapSeconds,
		})

		for questionIndex, q := range questions {
			entries = append(entries, Entry{
				Kind:            model.StageQuestion,
				QuizIndex:       quizIndex,
				QuestionIndex:   questionIndex,
				Quiz:            quiz,
				Question:        q,
				DurationSeconds: q.DurationSeconds,
				GapSeconds:      quiz.GapSeconds,
			})
		}
	}

	return entries, nil
}

// CountQuestions reports how many question entries a timeline has.
func CountQuestions(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if e.Kind == model.StageQuestion {
			n++
		}
	}
	return n
}
