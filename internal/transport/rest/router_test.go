package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylequiz/internal/cache"
	"stylequiz/internal/catalog"
	"stylequiz/internal/config"
	"stylequiz/internal/model"
	"stylequiz/internal/quiz"
	"stylequiz/internal/repository"
	"stylequiz/internal/service"
	"stylequiz/internal/transport/ws"
)

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func (m *memSessions) Create(ctx context.Context, s *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memSessions) GetByID(ctx context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSessions) UpdateQuiz(ctx context.Context, id string, st model.QuizState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Quiz = st
	m.sessions[id] = s
	return nil
}

func (m *memSessions) SetColorStep(ctx context.Context, id string, step model.ColorStep, a *model.ColorAnalysis) error {
	return nil
}

func (m *memSessions) ClearColorStep(ctx context.Context, id string, step model.ColorStep) error {
	return nil
}

func (m *memSessions) ClearColor(ctx context.Context, id string) error {
	return nil
}

type memReports struct {
	mu      sync.Mutex
	reports map[string]*model.Report
}

func (m *memReports) Save(ctx context.Context, r *model.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.SessionID] = r
	return nil
}

func (m *memReports) GetBySession(ctx context.Context, id string) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reports[id], nil
}

func (m *memReports) DeleteBySession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reports, id)
	return nil
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(ctx context.Context, photos []service.Photo) ([]model.PhotoResult, error) {
	results := make([]model.PhotoResult, len(photos))
	for i, p := range photos {
		results[i] = model.PhotoResult{FileName: p.FileName, Size: int64(len(p.Data)), Result: "Estilo Elegante"}
	}
	return results, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cat, err := catalog.Default()
	require.NoError(t, err)
	engine := quiz.NewEngine(cat.Questions, cat.Styles)
	cfg := &config.Config{JWTSecret: "router-secret", ClientTimeout: time.Second}

	auth := service.NewAuthService(cfg)
	jobs := service.NewJobService(cache.NewJobCache(client))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		jobs.Shutdown(ctx)
	})
	reports := service.NewReportService(engine, &memReports{reports: map[string]*model.Report{}}, cache.NewStyleStatsCache(client))
	sessions := service.NewSessionService(engine, &memSessions{sessions: map[string]model.Session{}},
		cache.NewSessionCache(client), reports, auth, stubAnalyzer{})

	return NewRouter(&Container{
		Engine:            engine,
		AuthService:       auth,
		SessionService:    sessions,
		ReportService:     reports,
		JobService:        jobs,
		BackgroundRemoval: service.NewBackgroundRemovalService(cfg, jobs),
		ColorAnalysis:     service.NewColorAnalysisService(cfg, jobs, sessions),
		WSHub:             ws.NewHub(),
		CORSOrigins:       "https://quiz.example",
	})
}

func do(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, h http.Handler) model.CreateSessionResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp model.CreateSessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRouter_HealthAndCatalog(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/v1/catalog", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cat struct {
		Questions []model.Question      `json:"questions"`
		Styles    []model.StyleCategory `json:"styles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cat))
	assert.Equal(t, model.GenderQuestionID, cat.Questions[0].ID)
	assert.Len(t, cat.Styles, 7)
}

func TestRouter_CORSPreflight(t *testing.T) {
	h := newTestRouter(t)
	rec := do(t, h, http.MethodOptions, "/v1/sessions/abc/answers", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://quiz.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_SessionAuth(t *testing.T) {
	h := newTestRouter(t)
	a := createSession(t, h)
	b := createSession(t, h)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/v1/sessions/"+a.SessionID, "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/v1/sessions/"+a.SessionID, "bogus", nil).Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodGet, "/v1/sessions/"+a.SessionID, b.Token, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/v1/sessions/"+a.SessionID, a.Token, nil).Code)
}

func TestRouter_QuestionnaireFlow(t *testing.T) {
	h := newTestRouter(t)
	s := createSession(t, h)
	base := "/v1/sessions/" + s.SessionID

	rec := do(t, h, http.MethodPost, base+"/start", s.Token, map[string]bool{"photoUploadFirst": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view model.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, model.GenderQuestionID, view.Question.ID)
	assert.Equal(t, []string{model.GenderQuestionID, model.PhotoUploadID}, view.ActiveQuestions)

	rec = do(t, h, http.MethodPut, base+"/answers", s.Token, map[string]string{"questionId": "gender", "optionId": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, base+"/answers", s.Token, map[string]string{"questionId": "gender", "optionId": "male"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, base+"/next", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var next struct {
		Session model.SessionView `json:"session"`
		Report  *model.Report     `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &next))
	assert.Equal(t, model.PhotoUploadID, next.Session.Question.ID)
	assert.Nil(t, next.Report)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("photos", "look.jpg")
	part.Write([]byte("jpeg-bytes"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, base+"/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.Token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, base+"/report", s.Token, nil).Code)

	rec = do(t, h, http.MethodPost, base+"/next", s.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &next))
	require.NotNil(t, next.Report)
	assert.True(t, next.Session.Finished)
	require.Len(t, next.Report.Top, 1)
	assert.Equal(t, "B", next.Report.Top[0].ID)
	assert.Equal(t, 100, next.Report.Top[0].Percentage)

	rec = do(t, h, http.MethodGet, base+"/report", s.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/stats/styles", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"styleId":"B"`)
}

func TestRouter_Jobs(t *testing.T) {
	h := newTestRouter(t)
	s := createSession(t, h)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/v1/jobs/unknown", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/v1/background-removal", "", map[string]string{}).Code)

	rec := do(t, h, http.MethodPost, "/v1/sessions/"+s.SessionID+"/color/nariz", s.Token, map[string]string{"url": "http://x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/sessions/"+s.SessionID+"/color/final", s.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no step results yet")

	rec = do(t, h, http.MethodDelete, "/v1/sessions/"+s.SessionID+"/color", s.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Endpoints are not configured, so the job is accepted and then fails
	rec = do(t, h, http.MethodPost, "/v1/background-removal", "", map[string]string{"url": "http://x/p.jpg"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	var accepted struct {
		JobID string `json:"jobId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))

	var job model.Job
	require.Eventually(t, func() bool {
		rec := do(t, h, http.MethodGet, "/v1/jobs/"+accepted.JobID, "", nil)
		if rec.Code != http.StatusOK {
			return false
		}
		json.Unmarshal(rec.Body.Bytes(), &job)
		return job.Status.IsTerminal()
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, model.JobFailed, job.Status)
	assert.Equal(t, service.KindConfiguration, job.ErrorKind)

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodGet, "/v1/jobs/"+accepted.JobID+"/result", "", nil).Code)
}
