package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"stylequiz/internal/config"
	"stylequiz/internal/model"
	"stylequiz/internal/poller"
)

// ColorStore persists per-step color results on a session
type ColorStore interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	SetColorStep(ctx context.Context, id string, step model.ColorStep, analysis *model.ColorAnalysis) error
	ClearColorStep(ctx context.Context, id string, step model.ColorStep) error
	ClearColor(ctx context.Context, id string) error
}

// ColorAnalysisService runs the per-step seasonal color analysis and the
// final classification built from all step palettes
type ColorAnalysisService struct {
	steps    *poller.Client
	final    *poller.Client
	jobs     *JobService
	sessions ColorStore
}

// NewColorAnalysisService creates a new color analysis service. The final
// analysis has its own submit endpoint but shares the step poll endpoint.
func NewColorAnalysisService(cfg *config.Config, jobs *JobService, sessions ColorStore, opts ...poller.Option) *ColorAnalysisService {
	opts = append([]poller.Option{poller.WithHTTPClient(&http.Client{Timeout: cfg.ClientTimeout})}, opts...)
	finalEndpoints := config.JobEndpoints{
		Submit: cfg.Webhooks.ColorFinal,
		Poll:   cfg.Webhooks.ColorAnalysis.Poll,
	}
	return &ColorAnalysisService{
		steps:    poller.NewClient("ColorAnalysis", cfg.Webhooks.ColorAnalysis, cfg.Polling, opts...),
		final:    poller.NewClient("ColorFinal", finalEndpoints, cfg.Polling, opts...),
		jobs:     jobs,
		sessions: sessions,
	}
}

// AnalyzeStep starts the analysis of one photo type for a session
func (s *ColorAnalysisService) AnalyzeStep(ctx context.Context, sessionID string, step model.ColorStep, url string) (*model.Job, error) {
	if !step.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrMissingURL
	}
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		return nil, err
	}

	payload := model.ColorAnalysisRequest{URL: url, Type: step}
	run := func(ctx context.Context, onStatus poller.StatusFunc) (*poller.Result, error) {
		return s.steps.Run(ctx, payload, stepResultReady(step), onStatus)
	}
	store := func(ctx context.Context, result *poller.Result) error {
		var analysis model.ColorAnalysis
		if err := json.Unmarshal(result.Output, &analysis); err != nil {
			return fmt.Errorf("decode %s result: %w", step, err)
		}
		return s.sessions.SetColorStep(ctx, sessionID, step, &analysis)
	}
	return s.jobs.Start(ctx, model.JobKindColorStep, sessionID, step, run, store)
}

// ClearStep discards the result of one step
func (s *ColorAnalysisService) ClearStep(ctx context.Context, sessionID string, step model.ColorStep) error {
	if !step.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	return s.sessions.ClearColorStep(ctx, sessionID, step)
}

// ClearAll discards every step result of the session
func (s *ColorAnalysisService) ClearAll(ctx context.Context, sessionID string) error {
	return s.sessions.ClearColor(ctx, sessionID)
}

// Finalize submits the palettes of all analyzed steps for the final classification
func (s *ColorAnalysisService) Finalize(ctx context.Context, sessionID string) (*model.Job, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	palettes := BuildFinalPalettes(session.Color)
	if len(palettes) == 0 {
		return nil, ErrNoColorResults
	}

	run := func(ctx context.Context, onStatus poller.StatusFunc) (*poller.Result, error) {
		return s.final.Run(ctx, palettes, nil, onStatus)
	}
	return s.jobs.Start(ctx, model.JobKindColorFinal, sessionID, "", run, nil)
}

// BuildFinalPalettes flattens every region palette of every step result into
// one map keyed by region
func BuildFinalPalettes(results map[model.ColorStep]*model.ColorAnalysis) model.FinalPalettes {
	palettes := model.FinalPalettes{}
	for _, step := range model.ColorSteps {
		analysis := results[step]
		if analysis == nil {
			continue
		}
		for region, feature := range analysis.Result {
			palettes[region] = feature.ColorPalette
		}
	}
	return palettes
}

// stepResultReady requires every region the step is expected to produce
func stepResultReady(step model.ColorStep) poller.ResultCheck {
	return func(output json.RawMessage) bool {
		var analysis model.ColorAnalysis
		if err := json.Unmarshal(output, &analysis); err != nil {
			return false
		}
		return analysis.HasRegions(step)
	}
}
