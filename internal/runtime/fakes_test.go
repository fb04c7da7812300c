package runtime

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumenquiz/session-runtime/internal/model"
	"github.com/lumenquiz/session-runtime/internal/repository"
)

// memStore is an in-memory Persistence Gateway implementing every
// repository interface, so controller tests run without a database.
type memStore struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*model.Session
	playlists map[uuid.UUID][]*model.SessionQuiz
	quizzes   map[uuid.UUID]*model.Quiz
	questions map[uuid.UUID][]*model.Question
	players   map[uuid.UUID]map[string]*model.SessionPlayer
	answers   []*model.SessionAnswer
	snapshots []*model.SessionSnapshot
}

func newMemStore() *memStore {
	return &memStore{
		sessions:  make(map[uuid.UUID]*model.Session),
		playlists: make(map[uuid.UUID][]*model.SessionQuiz),
		quizzes:   make(map[uuid.UUID]*model.Quiz),
		questions: make(map[uuid.UUID][]*model.Question),
		players:   make(map[uuid.UUID]map[string]*model.SessionPlayer),
	}
}

func (s *memStore) GetQuiz(_ context.Context, id uuid.UUID) (*model.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quizzes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return q, nil
}

func (s *memStore) GetQuestionsByQuiz(_ context.Context, quizID uuid.UUID) ([]*model.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qs := append([]*model.Question(nil), s.questions[quizID]...)
	sort.Slice(qs, func(i, j int) bool { return qs[i].Position < qs[j].Position })
	return qs, nil
}

func (s *memStore) CreateSession(_ context.Context, session *model.Session, quizIDs []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	for i, quizID := range quizIDs {
		s.playlists[session.ID] = append(s.playlists[session.ID], &model.SessionQuiz{SessionID: session.ID, QuizID: quizID, Position: i})
	}
	return nil
}

func (s *memStore) GetSession(_ context.Context, id uuid.UUID) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *memStore) UpdateSession(_ context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *memStore) DeleteSession(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	delete(s.playlists, id)
	delete(s.players, id)
	return nil
}

func (s *memStore) GetPlaylist(_ context.Context, sessionID uuid.UUID) ([]*model.SessionQuiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.SessionQuiz(nil), s.playlists[sessionID]...), nil
}

func (s *memStore) CreatePlayer(_ context.Context, player *model.SessionPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.players[player.SessionID]
	if !ok {
		byID = make(map[string]*model.SessionPlayer)
		s.players[player.SessionID] = byID
	}
	cp := *player
	byID[player.ID] = &cp
	return nil
}

func (s *memStore) GetPlayer(_ context.Context, sessionID uuid.UUID, playerID string) (*model.SessionPlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[sessionID][playerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) ListPlayers(_ context.Context, sessionID uuid.UUID) ([]*model.SessionPlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.SessionPlayer
	for _, p := range s.players[sessionID] {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) UpdatePlayer(_ context.Context, player *model.SessionPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[player.SessionID][player.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *player
	s.players[player.SessionID][player.ID] = &cp
	return nil
}

func (s *memStore) CreateAnswer(_ context.Context, answer *model.SessionAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.answers {
		if a.SessionID == answer.SessionID && a.QuestionID == answer.QuestionID && a.PlayerID == answer.PlayerID {
			return errors.New("duplicate answer")
		}
	}
	cp := *answer
	s.answers = append(s.answers, &cp)
	return nil
}

func (s *memStore) GetAnswer(_ context.Context, sessionID, questionID uuid.UUID, playerID string) (*model.SessionAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.answers {
		if a.SessionID == sessionID && a.QuestionID == questionID && a.PlayerID == playerID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *memStore) ListAnswersForQuestion(_ context.Context, sessionID, questionID uuid.UUID) ([]*model.SessionAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.SessionAnswer
	for _, a := range s.answers {
		if a.SessionID == sessionID && a.QuestionID == questionID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) UpdateAnswerCorrectness(_ context.Context, answerID uuid.UUID, isCorrect bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.answers {
		if a.ID == answerID {
			a.IsCorrect = isCorrect
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *memStore) CreateSnapshot(_ context.Context, snapshot *model.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *snapshot
	s.snapshots = append(s.snapshots, &cp)
	return nil
}

func (s *memStore) GetLatestSnapshot(_ context.Context, sessionID uuid.UUID) (*model.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *model.SessionSnapshot
	for _, snap := range s.snapshots {
		if snap.SessionID != sessionID {
			continue
		}
		if latest == nil || !snap.CreatedAt.Before(latest.CreatedAt) {
			latest = snap
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *memStore) sessionStatus(id uuid.UUID) model.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess.Status
	}
	return ""
}

func (s *memStore) playerScore(sessionID uuid.UUID, playerID string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[sessionID][playerID]; ok {
		return p.Score
	}
	return -1
}

func (s *memStore) answerCount(sessionID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.answers {
		if a.SessionID == sessionID {
			n++
		}
	}
	return n
}

// fakeClock is a hand-advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 19, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingHub counts broadcast payloads per session.
type recordingHub struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (h *recordingHub) Broadcast(_ uuid.UUID, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.payloads = append(h.payloads, message)
}

func (h *recordingHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.payloads)
}

// stubOracle returns a scripted verdict or error.
type stubOracle struct {
	verdict bool
	err     error
	calls   int
	mu      sync.Mutex
}

func (o *stubOracle) Evaluate(context.Context, string, string, string) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	return o.verdict, o.err
}
