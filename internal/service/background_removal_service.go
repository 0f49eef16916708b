package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"stylequiz/internal/config"
	"stylequiz/internal/model"
	"stylequiz/internal/poller"
)

// BackgroundRemovalService removes the background of a photo through the
// submit/poll webhook pair
type BackgroundRemovalService struct {
	client *poller.Client
	jobs   *JobService
}

// NewBackgroundRemovalService creates a new background removal service
func NewBackgroundRemovalService(cfg *config.Config, jobs *JobService, opts ...poller.Option) *BackgroundRemovalService {
	opts = append([]poller.Option{poller.WithHTTPClient(&http.Client{Timeout: cfg.ClientTimeout})}, opts...)
	return &BackgroundRemovalService{
		client: poller.NewClient("RemoveBackground", cfg.Webhooks.BackgroundRemoval, cfg.Polling, opts...),
		jobs:   jobs,
	}
}

// Remove starts a background removal job for the image at url. sessionID may
// be empty for anonymous jobs.
func (s *BackgroundRemovalService) Remove(ctx context.Context, sessionID, url string) (*model.Job, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, ErrMissingURL
	}

	payload := map[string]string{"url": url}
	run := func(ctx context.Context, onStatus poller.StatusFunc) (*poller.Result, error) {
		return s.client.Run(ctx, payload, backgroundResultReady, onStatus)
	}
	return s.jobs.Start(ctx, model.JobKindBackgroundRemoval, sessionID, "", run, nil)
}

// backgroundResultReady requires the processed image reference in the output
func backgroundResultReady(output json.RawMessage) bool {
	var out struct {
		Image    string `json:"image"`
		ImageURL string `json:"image_url"`
	}
	if err := json.Unmarshal(output, &out); err != nil {
		return false
	}
	return out.Image != "" || out.ImageURL != ""
}
