package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylequiz/internal/config"
	"stylequiz/internal/model"
	"stylequiz/internal/poller"
)

// colorWebhook accepts step and final submissions and answers polls from a script
type colorWebhook struct {
	mu        sync.Mutex
	submitted []map[string]interface{}
	final     map[string]model.ColorPalette
	polls     []string
}

func (c *colorWebhook) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/analyze", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		c.mu.Lock()
		c.submitted = append(c.submitted, body)
		c.mu.Unlock()
		w.Write([]byte(`{"id":"step-job"}`))
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&c.final))
		c.mu.Unlock()
		w.Write([]byte(`{"id":"final-job"}`))
	})
	mux.HandleFunc("/poll", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ID string `json:"id"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		c.mu.Lock()
		c.polls = append(c.polls, body.ID)
		n := len(c.polls)
		c.mu.Unlock()

		if body.ID == "final-job" {
			w.Write([]byte(`{"status":"COMPLETED","output":{"results":{"seasonal_classification":"winter"}}}`))
			return
		}
		switch n {
		case 1:
			// Completed before the regions are written
			w.Write([]byte(`{"status":"COMPLETED","output":{"image_url":"http://img","result":{"iris":{}}}}`))
		default:
			w.Write([]byte(`{"status":"COMPLETED","output":{"image_url":"http://img","result":{
				"iris":{"color_palette":{"median":"#111","dark":"#000","average":"#222","light":"#333","result":"deep"}},
				"under_eye_skin":{"color_palette":{"median":"#aaa","result":"warm"}}}}}`))
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (c *colorWebhook) snapshot() ([]map[string]interface{}, map[string]model.ColorPalette, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]interface{}{}, c.submitted...), c.final, append([]string{}, c.polls...)
}

func newColorFixture(t *testing.T) (*ColorAnalysisService, *sessionFixture, *JobService, *colorWebhook) {
	t.Helper()
	hook := &colorWebhook{}
	srv := hook.server(t)

	cfg := testConfig()
	cfg.Webhooks.ColorAnalysis = config.JobEndpoints{
		Submit: config.Endpoint{URL: srv.URL + "/analyze"},
		Poll:   config.Endpoint{URL: srv.URL + "/poll"},
	}
	cfg.Webhooks.ColorFinal = config.Endpoint{URL: srv.URL + "/final"}

	f := newSessionFixture(t)
	jobs, _ := newJobService(t)
	svc := NewColorAnalysisService(cfg, jobs, f.svc, poller.WithSleeper(noSleep))
	return svc, f, jobs, hook
}

func TestColorAnalysis_StepThenFinal(t *testing.T) {
	svc, f, jobs, hook := newColorFixture(t)
	ctx := context.Background()
	resp, err := f.svc.Create(ctx)
	require.NoError(t, err)
	id := resp.SessionID

	_, err = svc.Finalize(ctx, id)
	assert.ErrorIs(t, err, ErrNoColorResults)

	started, err := svc.AnalyzeStep(ctx, id, model.ColorOlho, "http://photo/eye.jpg")
	require.NoError(t, err)
	job := waitTerminal(t, jobs, started.ID)
	require.Equal(t, model.JobCompleted, job.Status, job.Error)

	submitted, _, polls := hook.snapshot()
	assert.Equal(t, []string{"step-job", "step-job"}, polls, "incomplete regions keep polling")
	require.Len(t, submitted, 1)
	assert.Equal(t, "http://photo/eye.jpg", submitted[0]["url"])
	assert.Equal(t, "olho", submitted[0]["type"])

	view, err := f.svc.View(ctx, id)
	require.NoError(t, err)
	require.Contains(t, view.Color, model.ColorOlho)
	assert.True(t, view.Color[model.ColorOlho].HasRegions(model.ColorOlho))

	started, err = svc.Finalize(ctx, id)
	require.NoError(t, err)
	job = waitTerminal(t, jobs, started.ID)
	require.Equal(t, model.JobCompleted, job.Status, job.Error)
	_, final, polls := hook.snapshot()
	assert.Equal(t, "final-job", polls[len(polls)-1], "final shares the poll endpoint")

	assert.Equal(t, "#111", final["iris"].Median)
	assert.Equal(t, "deep", final["iris"].Result)
	assert.Equal(t, "warm", final["under_eye_skin"].Result)

	_, data, err := jobs.GetResult(ctx, started.ID)
	require.NoError(t, err)
	assert.Contains(t, string(data), "winter")
}

func TestColorAnalysis_Validation(t *testing.T) {
	svc, f, _, _ := newColorFixture(t)
	ctx := context.Background()
	resp, _ := f.svc.Create(ctx)

	_, err := svc.AnalyzeStep(ctx, resp.SessionID, model.ColorStep("nariz"), "http://x")
	assert.ErrorIs(t, err, ErrUnknownStep)

	_, err = svc.AnalyzeStep(ctx, resp.SessionID, model.ColorPulso, "")
	assert.ErrorIs(t, err, ErrMissingURL)

	_, err = svc.AnalyzeStep(ctx, "missing", model.ColorPulso, "http://x")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, svc.ClearStep(ctx, resp.SessionID, "nariz"), ErrUnknownStep)
	assert.NoError(t, svc.ClearStep(ctx, resp.SessionID, model.ColorPulso))
	assert.NoError(t, svc.ClearAll(ctx, resp.SessionID))
}

func TestBuildFinalPalettes(t *testing.T) {
	results := map[model.ColorStep]*model.ColorAnalysis{
		model.ColorPulso: {Result: map[string]model.FeatureAnalysis{
			"pulse": {ColorPalette: model.ColorPalette{Result: "cool"}},
		}},
		model.ColorPerfil: {Result: map[string]model.FeatureAnalysis{
			"cheek": {ColorPalette: model.ColorPalette{Median: "#f0c0a0"}},
		}},
		model.ColorOlho: nil,
	}

	palettes := BuildFinalPalettes(results)
	assert.Len(t, palettes, 2)
	assert.Equal(t, "cool", palettes["pulse"].Result)
	assert.Equal(t, "#f0c0a0", palettes["cheek"].Median)

	assert.Empty(t, BuildFinalPalettes(nil))
}
