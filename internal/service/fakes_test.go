package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"stylequiz/internal/cache"
	"stylequiz/internal/config"
	"stylequiz/internal/model"
	"stylequiz/internal/quiz"
	"stylequiz/internal/repository"
)

// memSessionRepo is an in-memory repository.SessionRepo
type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*model.Session)}
}

// clone round-trips through JSON so callers never share maps or slices
func clone(s *model.Session) *model.Session {
	data, _ := json.Marshal(s)
	var out model.Session
	json.Unmarshal(data, &out)
	return &out
}

func (r *memSessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.CreatedAt = time.Now()
	r.sessions[session.ID] = clone(session)
	return nil
}

func (r *memSessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return clone(s), nil
}

func (r *memSessionRepo) UpdateQuiz(ctx context.Context, id string, st model.QuizState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Quiz = st
	s = clone(s)
	r.sessions[id] = s
	return nil
}

func (r *memSessionRepo) SetColorStep(ctx context.Context, id string, step model.ColorStep, analysis *model.ColorAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	if s.Color == nil {
		s.Color = make(map[model.ColorStep]*model.ColorAnalysis)
	}
	s.Color[step] = analysis
	return nil
}

func (r *memSessionRepo) ClearColorStep(ctx context.Context, id string, step model.ColorStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.Color, step)
	return nil
}

func (r *memSessionRepo) ClearColor(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Color = nil
	return nil
}

// memReportRepo is an in-memory repository.ReportRepo
type memReportRepo struct {
	mu      sync.Mutex
	reports map[string]*model.Report
	saves   int
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{reports: make(map[string]*model.Report)}
}

func (r *memReportRepo) Save(ctx context.Context, report *model.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.reports[report.SessionID] = report
	return nil
}

func (r *memReportRepo) GetBySession(ctx context.Context, sessionID string) (*model.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reports[sessionID], nil
}

func (r *memReportRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reports, sessionID)
	return nil
}

// recordingBroadcaster captures every message sent to a session
type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []broadcastRecord
}

type broadcastRecord struct {
	SessionID string
	Type      string
	Payload   interface{}
}

func (b *recordingBroadcaster) BroadcastToSession(sessionID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, broadcastRecord{sessionID, msgType, payload})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.messages))
	for i, m := range b.messages {
		out[i] = m.Type
	}
	return out
}

// fakeAnalyzer returns canned photo results
type fakeAnalyzer struct {
	results []model.PhotoResult
	err     error
	calls   int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, photos []Photo) ([]model.PhotoResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "test-secret",
		ClientTimeout: 5 * time.Second,
		Polling: config.PollingConfig{
			MaxAttempts:      10,
			QueueInterval:    10 * time.Second,
			ProgressInterval: 5 * time.Second,
			JobTimeout:       time.Minute,
		},
	}
}

func testEngine() *quiz.Engine {
	questions := []model.Question{
		{ID: "gender", Text: "Gender", Options: []model.Option{{ID: "female"}, {ID: "male"}}},
		{ID: "q1", Text: "Q1", Condition: &model.Condition{QuestionID: "gender", OptionIDs: []string{"female"}},
			Options: []model.Option{{ID: "A", Text: "Casual"}, {ID: "B", Text: "Elegant"}}},
		{ID: "q2", Text: "Q2", Options: []model.Option{{ID: "A"}, {ID: "C"}}},
	}
	styles := []model.StyleCategory{
		{ID: "A", Name: "Estilo Casual"},
		{ID: "B", Name: "Estilo Elegante"},
		{ID: "C", Name: "Estilo Romântico"},
	}
	return quiz.NewEngine(questions, styles)
}

type sessionFixture struct {
	svc     *SessionService
	repo    *memSessionRepo
	reports *memReportRepo
	stats   cache.StyleStatsCache
	photos  *fakeAnalyzer
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	client := newTestRedis(t)
	engine := testEngine()
	f := &sessionFixture{
		repo:    newMemSessionRepo(),
		reports: newMemReportRepo(),
		stats:   cache.NewStyleStatsCache(client),
		photos:  &fakeAnalyzer{},
	}
	reportSvc := NewReportService(engine, f.reports, f.stats)
	f.svc = NewSessionService(engine, f.repo, cache.NewSessionCache(client), reportSvc, NewAuthService(testConfig()), f.photos)
	return f
}
