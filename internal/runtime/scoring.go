package runtime

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/lumenquiz/session-runtime/internal/grader"
	"github.com/lumenquiz/session-runtime/internal/model"
)

// SubmitAnswer is `submit_answer`: validates the submission against the
// current stage and deadline, scores it, persists it, and evaluates
// fast-forward. Returns false (not an error) for any rejected submission —
// rejections are silent by design.
//
// The mutex covers only the in-memory bookkeeping, never the grader call:
// the answered-set entry is reserved under the lock (first write wins), the
// oracle is consulted unlocked, and the lock is retaken to apply the
// result. A stage that moved on while grading keeps the durable row but
// touches no caches — they already belong to the next question.
func (c *Controller) SubmitAnswer(ctx context.Context, sessionID uuid.UUID, playerID string, answer *string) (bool, error) {
	c.mu.Lock()

	ls := c.active
	if ls == nil || ls.sessionID != sessionID ||
		ls.currentEntry == nil || ls.currentEntry.Kind != model.StageQuestion ||
		(ls.currentEnd != nil && c.clock.Now().After(*ls.currentEnd)) {
		c.mu.Unlock()
		return false, nil
	}
	if _, ok := ls.players[playerID]; !ok {
		c.mu.Unlock()
		return false, nil
	}
	if ls.answered[playerID] {
		c.mu.Unlock()
		return false, nil
	}

	q := ls.currentEntry.Question
	generation := ls.stageGeneration
	isClosest := q.ScoringType == model.ScoringClosest || (q.ScoringType == "" && q.AnswerType == model.AnswerTypeNumeric)

	var answerValue string
	if answer != nil {
		answerValue = *answer
	}

	// Reserve the slot and record the raw value before releasing the lock:
	// a concurrent last answer can trigger fast-forward finalize while this
	// one is still off grading, and finalize must see every submitted value.
	ls.answered[playerID] = true
	ls.answerValues[playerID] = answerValue
	if isClosest {
		ls.answerResults[playerID] = nil
	}
	c.mu.Unlock()

	isCorrect := false
	if !isClosest {
		switch q.AnswerType {
		case model.AnswerTypeText:
			expected := ""
			if q.CorrectAnswer != nil {
				expected = *q.CorrectAnswer
			}
			if expected != "" && strings.TrimSpace(answerValue) != "" {
				verdict, err := c.oracle.Evaluate(ctx, q.Text, expected, answerValue)
				if err != nil {
					verdict = grader.Fallback(expected, answerValue)
				}
				isCorrect = verdict
			}
		case model.AnswerTypeMultipleChoice, model.AnswerTypeNumeric:
			isCorrect = q.CorrectAnswer != nil && answer != nil && *q.CorrectAnswer == *answer
		default:
			isCorrect = answer != nil
		}
	}

	dbAnswer := model.NewSessionAnswer(sessionID, q.ID, playerID, answer, isCorrect && !isClosest)
	if err := c.answers.CreateAnswer(ctx, dbAnswer); err != nil {
		c.mu.Lock()
		if c.active == ls && ls.stageGeneration == generation {
			delete(ls.answered, playerID)
			delete(ls.answerValues, playerID)
			delete(ls.answerResults, playerID)
		}
		c.mu.Unlock()
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != ls || ls.stageGeneration != generation {
		return true, nil
	}

	if !isClosest {
		correct := isCorrect
		ls.answerResults[playerID] = &correct
		if isCorrect {
			if p, ok := ls.players[playerID]; ok {
				p.Score += 1.0
				p.UpdatedAt = c.clock.Now()
				_ = c.players.UpdatePlayer(ctx, p)
			}
		}
	}

	c.broadcastLocked(ctx)
	c.maybeFastForwardLocked(ctx)
	return true, nil
}

// finalizeCurrentQuestionLocked applies closest-value scoring to the
// current question (a no-op for exact-scored questions, which were already
// scored at submit time) and marks the stage finalized exactly once.
func (c *Controller) finalizeCurrentQuestionLocked(ctx context.Context) {
	ls := c.active
	ls.currentFinalized = true

	q := ls.currentEntry.Question
	isClosest := q.ScoringType == model.ScoringClosest || (q.ScoringType == "" && q.AnswerType == model.AnswerTypeNumeric)
	if !isClosest || q.CorrectAnswer == nil {
		return
	}

	target, err := strconv.ParseFloat(*q.CorrectAnswer, 64)
	if err != nil {
		return
	}

	type parsed struct {
		playerID string
		value    float64
		diff     float64
	}

	var entries []parsed
	minDiff, maxDiff := 0.0, 0.0
	first := true
	for playerID, raw := range ls.answerValues {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			continue
		}
		diff := v - target
		if diff < 0 {
			diff = -diff
		}
		entries = append(entries, parsed{playerID: playerID, value: v, diff: diff})
		if first {
			minDiff, maxDiff = diff, diff
			first = false
		} else {
			if diff < minDiff {
				minDiff = diff
			}
			if diff > maxDiff {
				maxDiff = diff
			}
		}
	}
	if len(entries) == 0 {
		return
	}

	rng := maxDiff - minDiff
	results := make([]ClosestResult, 0, len(entries))

	for _, e := range entries {
		var base float64
		if rng == 0 {
			base = 1.0
		} else {
			base = 1.0 - (e.diff-minDiff)/rng
		}
		isExact := e.diff == 0
		if isExact {
			base += 0.5
		}
		if base < 0 {
			base = 0
		}
		if base > 1.5 {
			base = 1.5
		}

		if p, ok := ls.players[e.playerID]; ok {
			p.Score += base
			p.UpdatedAt = c.clock.Now()
			_ = c.players.UpdatePlayer(ctx, p)
		}

		isCorrectFlag := isExact || base > 0
		ls.answerResults[e.playerID] = &isCorrectFlag
		if ans, err := c.answers.GetAnswer(ctx, ls.sessionID, q.ID, e.playerID); err == nil {
			_ = c.answers.UpdateAnswerCorrectness(ctx, ans.ID, isCorrectFlag)
		}

		results = append(results, ClosestResult{
			PlayerID: e.playerID,
			Answer:   ls.answerValues[e.playerID],
			Distance: e.diff,
			IsExact:  isExact,
		})
	}

	for i := 0; i < len(results); i++ {
		for j := i + 1; j < len(results); j++ {
			if results[j].Distance < results[i].Distance {
				results[i], results[j] = results[j], results[i]
			}
		}
	}
	ls.closestResults = results
}
