package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"

	"golang.org/x/sync/errgroup"

	"stylequiz/internal/config"
	"stylequiz/internal/model"
	"stylequiz/internal/poller"
)

const maxStyleResponseBytes = 1 << 20

// Photo is one uploaded image waiting for style classification
type Photo struct {
	FileName string
	Data     []byte
}

// StyleAnalysisService classifies photos against the style webhook. It is a
// single synchronous request per photo, not a polled job.
type StyleAnalysisService struct {
	endpoint   config.Endpoint
	httpClient *http.Client
}

// NewStyleAnalysisService creates a new style analysis service
func NewStyleAnalysisService(cfg *config.Config, httpClient *http.Client) *StyleAnalysisService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.ClientTimeout}
	}
	return &StyleAnalysisService{
		endpoint:   cfg.Webhooks.StyleAnalysis,
		httpClient: httpClient,
	}
}

// Analyze sends every photo concurrently and returns results in upload order.
// The first failure cancels the remaining uploads.
func (s *StyleAnalysisService) Analyze(ctx context.Context, photos []Photo) ([]model.PhotoResult, error) {
	if len(photos) == 0 {
		return nil, ErrNoPhotos
	}
	if !s.endpoint.IsSet() {
		return nil, fmt.Errorf("%s: %w", s.endpoint.Key, poller.ErrNotConfigured)
	}

	results := make([]model.PhotoResult, len(photos))
	g, gctx := errgroup.WithContext(ctx)
	for i, photo := range photos {
		i, photo := i, photo
		g.Go(func() error {
			label, err := s.send(gctx, photo)
			if err != nil {
				return fmt.Errorf("error sending photo %d: %w", i+1, err)
			}
			results[i] = model.PhotoResult{
				FileName: photo.FileName,
				Size:     int64(len(photo.Data)),
				Result:   label.Style,
				Tags:     label.Tags,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("[StyleAnalysis] ERROR: %v", err)
		return nil, err
	}

	log.Printf("[StyleAnalysis] Classified %d photos", len(results))
	return results, nil
}

func (s *StyleAnalysisService) send(ctx context.Context, photo Photo) (*styleLabel, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("data", photo.FileName)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(photo.Data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint.URL, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	log.Printf("[StyleAnalysis] POST %s (%s, %d bytes)", s.endpoint.URL, photo.FileName, len(photo.Data))
	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", poller.ErrAborted, ctx.Err())
		}
		return nil, &poller.TransportError{URL: s.endpoint.URL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStyleResponseBytes))
	if err != nil {
		return nil, &poller.TransportError{URL: s.endpoint.URL, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &poller.TransportError{URL: s.endpoint.URL, StatusCode: resp.StatusCode, Body: string(body)}
	}

	return decodeStyleLabel(body)
}

// styleLabel is the normalized classification of one photo
type styleLabel struct {
	Style string
	Tags  []string
}

// styleShape holds every field any tolerated response shape may carry
type styleShape struct {
	Estilo *string  `json:"estilo"`
	Tags   []string `json:"tags"`
	Result *string  `json:"result"`
}

// decodeStyleLabel accepts exactly three shapes:
//
//	[{"estilo": "...", "tags": [...]}]
//	{"estilo": "...", "tags": [...]}
//	{"result": "..."}
func decodeStyleLabel(body []byte) (*styleLabel, error) {
	if !json.Valid(body) {
		return nil, poller.ErrMalformedResponse
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var wrapped []styleShape
		if err := json.Unmarshal(trimmed, &wrapped); err != nil || len(wrapped) == 0 || wrapped[0].Estilo == nil {
			return nil, poller.ErrUnexpectedResponse
		}
		return &styleLabel{Style: *wrapped[0].Estilo, Tags: nonNil(wrapped[0].Tags)}, nil
	}

	var flat styleShape
	if err := json.Unmarshal(trimmed, &flat); err != nil {
		return nil, poller.ErrUnexpectedResponse
	}
	switch {
	case flat.Estilo != nil && flat.Tags != nil:
		return &styleLabel{Style: *flat.Estilo, Tags: flat.Tags}, nil
	case flat.Result != nil:
		return &styleLabel{Style: *flat.Result, Tags: []string{}}, nil
	}
	return nil, poller.ErrUnexpectedResponse
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
