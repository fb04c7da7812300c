package runtime

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lumenquiz/session-runtime/internal/model"
	"github.com/lumenquiz/session-runtime/internal/repository"
)

// Resume rebuilds in-memory state for a session from its newest snapshot
// after a process restart. If the stage was an in-progress question whose
// deadline has already passed, it reveals and advances immediately instead
// of waiting on a timer that would never fire on time.
func (c *Controller) Resume(ctx context.Context, sessionID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		if c.active.sessionID != sessionID {
			return ErrAnotherSessionLive
		}
		// Resuming the session that is already running rebuilds it from
		// the snapshot; the old timer must not keep firing meanwhile.
		c.stopTimerLocked()
	}

	session, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if err == repository.ErrNotFound {
			return ErrSessionNotFound
		}
		return err
	}

	snap, err := c.snapshots.GetLatestSnapshot(ctx, sessionID)
	if err != nil {
		if err == repository.ErrNotFound {
			return ErrNoSnapshot
		}
		return err
	}

	entries, err := c.timelines.Build(ctx, sessionID)
	if err != nil {
		return err
	}
	if snap.CurrentIndex < 0 || snap.CurrentIndex >= len(entries) {
		return ErrSnapshotOutOfRange
	}

	existingPlayers, err := c.players.ListPlayers(ctx, sessionID)
	if err != nil {
		return err
	}
	playerCache := make(map[string]*model.SessionPlayer, len(existingPlayers))
	for _, p := range existingPlayers {
		playerCache[p.ID] = p
	}

	session.Status = model.SessionLive
	entry := entries[snap.CurrentIndex]

	ls := &liveSession{
		sessionID:    sessionID,
		session:      session,
		entries:      entries,
		currentIndex: snap.CurrentIndex,
		currentEntry: &entry,
		currentStart: snap.CurrentStart,
		currentEnd:   snap.CurrentEnd,
		players:      playerCache,
	}
	c.active = ls

	if entry.Kind == model.StageQuestion {
		ls.answered = make(map[string]bool)
		ls.answerResults = make(map[string]*bool)
		ls.answerValues = make(map[string]string)

		existingAnswers, err := c.answers.ListAnswersForQuestion(ctx, sessionID, entry.Question.ID)
		if err != nil {
			return err
		}
		for _, a := range existingAnswers {
			ls.answered[a.PlayerID] = true
			if a.Answer != nil {
				ls.answerValues[a.PlayerID] = *a.Answer
			}
			correct := a.IsCorrect
			ls.answerResults[a.PlayerID] = &correct
		}

		// A manually-held question stays paused across the restart; the
		// host releases it by clearing the override.
		if !session.ManualOverride && ls.currentEnd != nil {
			if c.clock.Now().Before(*ls.currentEnd) {
				c.startTimerLocked(ctx, ls.currentEnd.Sub(c.clock.Now()))
			} else {
				c.revealLocked(ctx)
				gap := time.Duration(entry.GapSeconds) * time.Second
				sessionID := ls.sessionID
				generation := ls.stageGeneration
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
		}
	}

	if err := c.sessions.UpdateSession(ctx, session); err != nil {
		return err
	}
	c.broadcastLocked(ctx)
	return nil
}
