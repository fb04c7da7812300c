package runtime

import (
	"context"
	"time"

	"github.com/lumenquiz/session-runtime/internal/model"
)

// advanceLocked is `_advance`: finalize the outgoing stage if needed, move
// the cursor forward, and either end the session or enter the new stage.
// Must be called with mu held.
func (c *Controller) advanceLocked(ctx context.Context) error {
	ls := c.active

	if ls.currentEntry != nil && ls.currentEntry.Kind == model.StageQuestion && !ls.currentFinalized {
		c.finalizeCurrentQuestionLocked(ctx)
	}

	ls.currentIndex++
	ls.stageGeneration++

	if ls.currentIndex >= len(ls.entries) {
		ls.session.Status = model.SessionFinished
		now := c.clock.Now()
		ls.session.FinishedAt = &now
		ls.session.ActiveQuizIndex = nil
		ls.session.ActiveQuestionIndex = nil
		ls.currentEntry = nil
		ls.currentStart = nil
		ls.currentEnd = nil
		c.stopTimerLocked()

		if err := c.sessions.UpdateSession(ctx, ls.session); err != nil {
			c.log.Error().Err(err).Msg("persist finished session")
		}
		c.broadcastLocked(ctx)
		c.active = nil
		return nil
	}

	entry := ls.entries[ls.currentIndex]
	ls.currentEntry = &entry
	quizIdx := entry.QuizIndex
	ls.session.ActiveQuizIndex = &quizIdx
	if entry.Kind == model.StageQuestion {
		qIdx := entry.QuestionIndex
		ls.session.ActiveQuestionIndex = &qIdx
	} else {
		ls.session.ActiveQuestionIndex = nil
	}

	now := c.clock.Now()
	ls.currentStart = &now
	ls.currentFinalized = false

	if entry.Kind == model.StageQuestion {
		end := now.Add(time.Duration(entry.DurationSeconds) * time.Second)
		ls.currentEnd = &end
		ls.answered = make(map[string]bool)
		ls.answerResults = make(map[string]*bool)
		ls.answerValues = make(map[string]string)
		ls.closestResults = nil
		c.startTimerLocked(ctx, time.Duration(entry.DurationSeconds)*time.Second)
	} else {
		ls.currentEnd = nil
		ls.answered = nil
		ls.answerResults = nil
		ls.answerValues = nil
		ls.closestResults = nil
	}

	if err := c.sessions.UpdateSession(ctx, ls.session); err != nil {
		c.log.Error().Err(err).Msg("persist session cursor")
	}
	c.persistSnapshotLocked(ctx)
	c.broadcastLocked(ctx)
	return nil
}

// startTimerLocked schedules the per-question timer goroutine: sleep for
// duration, reveal if the host hasn't taken manual control, sleep the gap,
// then force the advance. The captured generation guards against acting on
// a stage that has since changed (superseded by fast-forward or a manual
// set_manual restart).
func (c *Controller) startTimerLocked(ctx context.Context, duration time.Duration) {
	ls := c.active
	generation := ls.stageGeneration
	sessionID := ls.sessionID

	timerCtx, cancel := context.WithCancel(context.Background())
	ls.cancelTimer = cancel

	go func() {
		timer := time.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-timerCtx.Done():
			return
		case <-timer.C:
		}

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.active == nil || c.active.sessionID != sessionID || c.active.stageGeneration != generation {
			return
		}
		if c.active.session.ManualOverride {
			return
		}

		c.revealLocked(ctx)
		gap := time.Duration(c.active.currentEntry.GapSeconds) * time.Second

		gapGeneration := c.active.stageGeneration
		go func() {
			time.Sleep(gap)
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.active == nil || c.active.sessionID != sessionID || c.active.stageGeneration != gapGeneration {
				return
			}
			_ = c.advanceLocked(ctx)
		}()
	}()
}

func (c *Controller) stopTimerLocked() {
	if c.active != nil && c.active.cancelTimer != nil {
		c.active.cancelTimer()
		c.active.cancelTimer = nil
	}
}

// revealLocked finalizes (if needed), marks the question closed by setting
// currentEnd to now, and broadcasts. Idempotent via currentFinalized.
func (c *Controller) revealLocked(ctx context.Context) {
	ls := c.active
	if ls.currentEntry == nil || ls.currentEntry.Kind != model.StageQuestion {
		return
	}
	if !ls.currentFinalized {
		c.finalizeCurrentQuestionLocked(ctx)
	}
	now := c.clock.Now()
	if ls.currentEnd == nil || ls.currentEnd.After(now) {
		ls.currentEnd = &now
	}
	c.broadcastLocked(ctx)
}

// maybeFastForwardLocked checks whether every connected player has
// answered the current question; if so, it reveals immediately, waits the
// gap, then advances — mirroring the timer path but triggered early.
func (c *Controller) maybeFastForwardLocked(ctx context.Context) {
	ls := c.active
	if ls.currentEntry == nil || ls.currentEntry.Kind != model.StageQuestion {
		return
	}

	connected := 0
	for _, p := range ls.players {
		if p.Connected {
			connected++
		}
	}
	if connected == 0 {
		return
	}
	for _, p := range ls.players {
		if p.Connected && !ls.answered[p.ID] {
			return
		}
	}

	c.stopTimerLocked()
	c.revealLocked(ctx)

	sessionID := ls.sessionID
	generation := ls.stageGeneration
	gap := time.Duration(ls.currentEntry.GapSeconds) * time.Second

	go func() {
		time.Sleep(gap)
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.active == nil || c.active.sessionID != sessionID || c.active.stageGeneration != generation {
			return
		}
		_ = c.advanceLocked(ctx)
	}()
}

func (c *Controller) persistSnapshotLocked(ctx context.Context) {
	ls := c.active
	snap := model.NewSessionSnapshot(ls.sessionID)
	snap.CurrentIndex = ls.currentIndex
	if ls.currentEntry != nil {
		snap.CurrentEntryKind = ls.currentEntry.Kind
		snap.QuizID = &ls.currentEntry.Quiz.ID
		if ls.currentEntry.Kind == model.StageQuestion {
			snap.QuestionID = &ls.currentEntry.Question.ID
		}
	}
	snap.ActiveQuizIndex = ls.session.ActiveQuizIndex
	snap.ActiveQuestionIndex = ls.session.ActiveQuestionIndex
	snap.CurrentStart = ls.currentStart
	snap.CurrentEnd = ls.currentEnd

	if err := c.snapshots.CreateSnapshot(ctx, snap); err != nil {
		c.log.Error().Err(err).Msg("persist snapshot")
	}
}
