// Package runtime implements the Session Runtime: the single-active-session
// controller that materializes a playlist into a timeline, advances it
// under timer- and host-driven transitions, scores answers, fans out state,
// and persists enough to resume after a restart.
package runtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lumenquiz/session-runtime/internal/grader"
	"github.com/lumenquiz/session-runtime/internal/model"
	"github.com/lumenquiz/session-runtime/internal/repository"
	"github.com/lumenquiz/session-runtime/internal/timeline"
)

// Broadcaster fans a serialized state payload out to every observer of a
// session. Implemented by *ws.Hub / *ws.RedisHub.
type Broadcaster interface {
	Broadcast(sessionID uuid.UUID, message []byte)
}

// liveSession holds everything mutable about the one session currently
// being run. Only one exists at a time; Controller.active is nil otherwise.
type liveSession struct {
	sessionID uuid.UUID
	session   *model.Session
	entries   []timeline.Entry

	currentIndex     int
	currentEntry     *timeline.Entry
	currentStart     *time.Time
	currentEnd       *time.Time
	currentFinalized bool

	// stageGeneration increments every time the current stage changes; a
	// timer goroutine captures it at start and treats a mismatch on wake as
	// proof that it is stale and must no-op (resolves the timer-vs-
	// fast-forward race without extra bookkeeping).
	stageGeneration uint64
	cancelTimer     context.CancelFunc

	players map[string]*model.SessionPlayer

	answered      map[string]bool   // playerID -> answered current question
	answerResults map[string]*bool  // playerID -> correctness, nil = pending (closest, pre-finalize)
	answerValues  map[string]string // playerID -> raw submitted answer
	closestResults []ClosestResult
}

// Controller is the Session Runtime. All mutating operations serialize on
// mu; State() takes the lock only long enough to copy what it needs.
type Controller struct {
	mu sync.Mutex

	sessions  repository.SessionRepository
	quizzes   repository.QuizRepository
	players   repository.PlayerRepository
	answers   repository.AnswerRepository
	snapshots repository.SnapshotRepository

	timelines *timeline.Builder
	oracle    grader.Oracle
	hub       Broadcaster
	clock     Clock
	log       zerolog.Logger

	active *liveSession
}

// NewController wires the Session Runtime's collaborators.
func NewController(
	sessions repository.SessionRepository,
	quizzes repository.QuizRepository,
	players repository.PlayerRepository,
	answers repository.AnswerRepository,
	snapshots repository.SnapshotRepository,
	oracle grader.Oracle,
	hub Broadcaster,
	log zerolog.Logger,
) *Controller {
	return &Controller{
		sessions:  sessions,
		quizzes:   quizzes,
		players:   players,
		answers:   answers,
		snapshots: snapshots,
		timelines: timeline.NewBuilder(quizzes, sessions),
		oracle:    oracle,
		hub:       hub,
		clock:     SystemClock{},
		log:       log,
	}
}

// Start materializes the session's timeline and advances to its first
// stage. A session already live in this controller is aborted first; at
// most one session runs at a time. Fails if the session does not exist or
// its timeline has no questions.
func (c *Controller) Start(ctx context.Context, sessionID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if err == repository.ErrNotFound {
			return ErrSessionNotFound
		}
		return err
	}

	entries, err := c.timelines.Build(ctx, sessionID)
	if err != nil {
		return err
	}
	if timeline.CountQuestions(entries) == 0 {
		return ErrEmptyTimeline
	}

	existingPlayers, err := c.players.ListPlayers(ctx, sessionID)
	if err != nil {
		return err
	}
	playerCache := make(map[string]*model.SessionPlayer, len(existingPlayers))
	for _, p := range existingPlayers {
		playerCache[p.ID] = p
	}

	// A valid start supersedes whatever is currently running.
	if c.active != nil {
		c.log.Warn().
			Str("aborted_session_id", c.active.sessionID.String()).
			Str("session_id", sessionID.String()).
			Msg("aborting live session to start another")
		c.stopTimerLocked()
		c.active = nil
	}

	session.Status = model.SessionLive
	now := c.clock.Now()
	session.StartedAt = &now

	ls := &liveSession{
		sessionID:    sessionID,
		session:      session,
		entries:      entries,
		currentIndex: -1,
		players:      playerCache,
	}
	c.active = ls

	c.log.Info().Str("session_id", sessionID.String()).Int("stages", len(entries)).Msg("session starting")

	return c.advanceLocked(ctx)
}

// ForceNext advances one stage early. Only valid for the active session.
func (c *Controller) ForceNext(ctx context.Context, sessionID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil || c.active.sessionID != sessionID {
		return ErrSessionNotActive
	}
	c.stopTimerLocked()
	return c.advanceLocked(ctx)
}

// SetManual toggles manual_override. Clearing it on an in-progress question
// either forces the advance immediately (deadline already passed) or
// restarts the timer for the time remaining.
func (c *Controller) SetManual(ctx context.Context, sessionID uuid.UUID, manual bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil || c.active.sessionID != sessionID {
		return ErrSessionNotActive
	}
	ls := c.active
	ls.session.ManualOverride = manual
	if err := c.sessions.UpdateSession(ctx, ls.session); err != nil {
		return err
	}

	if manual || ls.currentEntry == nil || ls.currentEntry.Kind != model.StageQuestion {
		c.broadcastLocked(ctx)
		return nil
	}

	remaining := ls.currentEnd.Sub(c.clock.Now())
	c.stopTimerLocked()
	if remaining <= 0 {
		return c.advanceLocked(ctx)
	}
	c.startTimerLocked(ctx, remaining)
	c.broadcastLocked(ctx)
	return nil
}

// Cancel stops the active session's timer and discards all in-memory
// state for it, without altering persisted rows beyond what's already
// written. Idempotent.
func (c *Controller) Cancel(sessionID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil || c.active.sessionID != sessionID {
		return
	}
	c.stopTimerLocked()
	c.active = nil
}

// SetScoresRevealed flips the post-finish scoreboard visibility flag. Only
// meaningful once the session has finished.
func (c *Controller) SetScoresRevealed(ctx context.Context, sessionID uuid.UUID, reveal bool) error {
	session, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if err == repository.ErrNotFound {
			return ErrSessionNotFound
		}
		return err
	}
	if session.Status != model.SessionFinished {
		return ErrNotFinished
	}
	session.ScoresRevealed = reveal
	if err := c.sessions.UpdateSession(ctx, session); err != nil {
		return err
	}

	c.mu.Lock()
	if c.active != nil && c.active.sessionID == sessionID {
		c.active.session.ScoresRevealed = reveal
	}
	c.mu.Unlock()
	return nil
}

// RegisterPlayer creates or reconnects a player. Players may join before
// the session goes live (the lobby); Start picks them up from durable
// state when it builds the player cache.
func (c *Controller) RegisterPlayer(ctx context.Context, sessionID uuid.UUID, name string, playerID string) (*model.SessionPlayer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil && c.active.sessionID == sessionID {
		ls := c.active
		if playerID != "" {
			if p, ok := ls.players[playerID]; ok {
				p.Name = name
				p.Connected = true
				p.UpdatedAt = c.clock.Now()
				if err := c.players.UpdatePlayer(ctx, p); err != nil {
					return nil, err
				}
				c.broadcastLocked(ctx)
				return p, nil
			}
		}

		p := model.NewSessionPlayer(sessionID, name)
		if err := c.players.CreatePlayer(ctx, p); err != nil {
			return nil, err
		}
		ls.players[p.ID] = p
		c.broadcastLocked(ctx)
		return p, nil
	}

	if _, err := c.sessions.GetSession(ctx, sessionID); err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if playerID != "" {
		if p, err := c.players.GetPlayer(ctx, sessionID, playerID); err == nil {
			p.Name = name
			p.Connected = true
			p.UpdatedAt = c.clock.Now()
			if err := c.players.UpdatePlayer(ctx, p); err != nil {
				return nil, err
			}
			return p, nil
		}
	}

	p := model.NewSessionPlayer(sessionID, name)
	if err := c.players.CreatePlayer(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DisconnectPlayer marks a player disconnected, in memory and durably.
func (c *Controller) DisconnectPlayer(ctx context.Context, sessionID uuid.UUID, playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == nil || c.active.sessionID != sessionID {
		if p, err := c.players.GetPlayer(ctx, sessionID, playerID); err == nil {
			p.Connected = false
			p.UpdatedAt = c.clock.Now()
			_ = c.players.UpdatePlayer(ctx, p)
		}
		return
	}
	ls := c.active
	p, ok := ls.players[playerID]
	if !ok {
		return
	}
	p.Connected = false
	p.UpdatedAt = c.clock.Now()
	_ = c.players.UpdatePlayer(ctx, p)
	c.broadcastLocked(ctx)
}

// State returns the current read-only projection of a session. Works for
// both the in-memory active session and (minimally) an inactive one.
func (c *Controller) State(ctx context.Context, sessionID uuid.UUID) (*State, error) {
	c.mu.Lock()
	if c.active != nil && c.active.sessionID == sessionID {
		st := c.buildStateLocked()
		c.mu.Unlock()
		return st, nil
	}
	c.mu.Unlock()

	session, err := c.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	players, err := c.players.ListPlayers(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	pv := make([]PlayerView, 0, len(players))
	for _, p := range players {
		pv = append(pv, PlayerView{ID: p.ID, Name: p.Name, Score: p.Score, Connected: p.Connected})
	}

	return &State{
		ID:             session.ID.String(),
		Name:           session.Name,
		Status:         session.Status,
		ManualOverride: session.ManualOverride,
		Players:        pv,
		Now:            c.clock.Now(),
		ScoresRevealed: session.ScoresRevealed,
		Answers:        map[string]*bool{},
		AnswerValues:   map[string]string{},
	}, nil
}

// broadcastLocked serializes the current state and fans it out. Must be
// called with mu held; the hub send itself is async/non-blocking so this
// never stalls the controller for long.
func (c *Controller) broadcastLocked(ctx context.Context) {
	if c.active == nil || c.hub == nil {
		return
	}
	st := c.buildStateLocked()
	payload, err := json.Marshal(map[string]interface{}{"type": "state", "state": st})
	if err != nil {
		c.log.Error().Err(err).Msg("failed to marshal state broadcast")
		return
	}
	sessionID := c.active.sessionID
	go c.hub.Broadcast(sessionID, payload)
}

func (c *Controller) buildStateLocked() *State {
	ls := c.active
	st := &State{
		ID:                  ls.sessionID.String(),
		Name:                ls.session.Name,
		Status:              ls.session.Status,
		ManualOverride:      ls.session.ManualOverride,
		ActiveQuizIndex:     ls.session.ActiveQuizIndex,
		ActiveQuestionIndex: ls.session.ActiveQuestionIndex,
		Now:                 c.clock.Now(),
		ScoresRevealed:      ls.session.ScoresRevealed,
		Answers:             map[string]*bool{},
		AnswerValues:        map[string]string{},
		ClosestResults:      ls.closestResults,
	}

	for pid, correct := range ls.answerResults {
		st.Answers[pid] = correct
	}
	for pid, v := range ls.answerValues {
		st.AnswerValues[pid] = v
	}

	for _, p := range ls.players {
		st.Players = append(st.Players, PlayerView{ID: p.ID, Name: p.Name, Score: p.Score, Connected: p.Connected})
	}

	if ls.currentEntry == nil {
		return st
	}

	kind := ls.currentEntry.Kind
	st.Stage = &kind

	switch kind {
	case model.StageQuizIntro:
		st.QuizIntro = &QuizIntroView{
			QuizIndex:       ls.currentEntry.QuizIndex,
			QuizID:          ls.currentEntry.Quiz.ID.String(),
			QuizName:        ls.currentEntry.Quiz.Name,
			QuizDescription: ls.currentEntry.Quiz.Description,
			QuestionCount:   len(ls.currentEntry.Questions),
		}
	case model.StageQuestion:
		q := ls.currentEntry.Question
		revealed := ls.currentEnd != nil && !c.clock.Now().Before(*ls.currentEnd)
		remaining := 0
		if ls.currentEnd != nil {
			if d := ls.currentEnd.Sub(c.clock.Now()); d > 0 {
				remaining = int(d.Seconds())
			}
		}
		qv := &QuestionView{
			ID:               q.ID.String(),
			QuizIndex:        ls.currentEntry.QuizIndex,
			QuestionIndex:    ls.currentEntry.QuestionIndex,
			Text:             q.Text,
			Images:           q.ImageURLs,
			Audio:            q.AudioURLs,
			AnswerType:       q.AnswerType,
			Options:          q.Options,
			ScoringType:      q.ScoringType,
			DurationSeconds:  q.DurationSeconds,
			SpeedBonus:       q.SpeedBonus,
			StartedAt:        ls.currentStart,
			ClosesAt:         ls.currentEnd,
			RemainingSeconds: remaining,
			Revealed:         revealed,
		}
		if revealed {
			qv.CorrectAnswer = q.CorrectAnswer
		}
		st.Question = qv
	}

	return st
}
