// Package poller submits jobs to an analysis webhook and polls them to completion.
package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"stylequiz/internal/config"
	"stylequiz/internal/model"
)

const maxBodyBytes = 32 << 20

// StatusFunc receives every non-terminal status the job reports, with the
// remote id the service assigned on submit
type StatusFunc func(remoteID string, status model.JobStatus)

// ResultCheck reports whether a COMPLETED job's output is fully populated.
// Some webhooks flip to COMPLETED one cycle before the output is written.
type ResultCheck func(output json.RawMessage) bool

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Result is the payload of a completed job: either a binary image or JSON output
type Result struct {
	ContentType string
	Image       []byte
	Output      json.RawMessage
}

// IsImage returns true when the webhook streamed the result as an image
func (r *Result) IsImage() bool {
	return len(r.Image) > 0
}

// Client runs the submit/poll protocol against one webhook pair
type Client struct {
	name       string
	submitURL  string
	pollURL    string
	httpClient *http.Client
	polling    config.PollingConfig
	sleep      Sleeper
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithSleeper replaces the wait between polls
func WithSleeper(sleep Sleeper) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

// NewClient creates a poller for a submit/poll endpoint pair
func NewClient(name string, endpoints config.JobEndpoints, polling config.PollingConfig, opts ...Option) *Client {
	c := &Client{
		name:      name,
		submitURL: endpoints.Submit.URL,
		pollURL:   endpoints.Poll.URL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		polling: polling,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run submits payload and polls the job until it completes, fails, or the
// configured wall-clock limit aborts the whole sequence.
func (c *Client) Run(ctx context.Context, payload interface{}, check ResultCheck, onStatus StatusFunc) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.polling.JobTimeout)
	defer cancel()

	id, err := c.Submit(ctx, payload)
	if err != nil {
		return nil, err
	}
	notify(onStatus, id, model.JobSubmitted)
	return c.Poll(ctx, id, check, onStatus)
}

// Submit posts payload and returns the remote job id
func (c *Client) Submit(ctx context.Context, payload interface{}) (string, error) {
	if c.submitURL == "" {
		return "", fmt.Errorf("%s submit: %w", c.name, ErrNotConfigured)
	}

	resp, err := c.post(ctx, c.submitURL, payload)
	if err != nil {
		return "", err
	}

	var submitted struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.body, &submitted); err != nil {
		log.Printf("[Poller:%s] ERROR: Submit response is not JSON: %v", c.name, err)
		return "", fmt.Errorf("%s submit: %w", c.name, ErrMalformedResponse)
	}
	if submitted.ID == "" {
		log.Printf("[Poller:%s] ERROR: Submit response has no id: %s", c.name, truncate(resp.body))
		return "", fmt.Errorf("%s submit: missing job id: %w", c.name, ErrMalformedResponse)
	}

	log.Printf("[Poller:%s] Submitted job %s", c.name, submitted.ID)
	return submitted.ID, nil
}

// pollResponse is the JSON status document returned by the poll endpoint
type pollResponse struct {
	Status *string         `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

type failureOutput struct {
	Details []string `json:"details"`
}

// Poll checks job id until it reaches a terminal state or the attempt budget
// runs out. IN_QUEUE and IN_PROGRESS are reported to onStatus and waited on.
func (c *Client) Poll(ctx context.Context, id string, check ResultCheck, onStatus StatusFunc) (*Result, error) {
	if c.pollURL == "" {
		return nil, fmt.Errorf("%s poll: %w", c.name, ErrNotConfigured)
	}

	for attempt := 0; attempt < c.polling.MaxAttempts; attempt++ {
		resp, err := c.post(ctx, c.pollURL, map[string]string{"id": id})
		if err != nil {
			return nil, err
		}

		if strings.HasPrefix(resp.contentType, "image/") {
			log.Printf("[Poller:%s] Job %s completed with %s (%d bytes)", c.name, id, resp.contentType, len(resp.body))
			return &Result{ContentType: resp.contentType, Image: resp.body}, nil
		}

		var pr pollResponse
		if err := json.Unmarshal(resp.body, &pr); err != nil {
			log.Printf("[Poller:%s] ERROR: Poll response for %s is not a JSON object: %s", c.name, id, truncate(resp.body))
			if isJSON(resp.body) {
				return nil, fmt.Errorf("%s poll: %w", c.name, ErrUnexpectedResponse)
			}
			return nil, fmt.Errorf("%s poll: %w", c.name, ErrMalformedResponse)
		}
		if pr.Status == nil {
			log.Printf("[Poller:%s] ERROR: Poll response for %s has no status: %s", c.name, id, truncate(resp.body))
			return nil, fmt.Errorf("%s poll: %w", c.name, ErrUnexpectedResponse)
		}

		status := model.JobStatus(*pr.Status)
		log.Printf("[Poller:%s] Job %s status %s (attempt %d/%d)", c.name, id, status, attempt+1, c.polling.MaxAttempts)

		var wait time.Duration
		switch status {
		case model.JobInQueue:
			wait = c.polling.QueueInterval
		case model.JobInProgress:
			wait = c.polling.ProgressInterval
		case model.JobCompleted:
			if hasOutput(pr.Output) && (check == nil || check(pr.Output)) {
				return &Result{ContentType: resp.contentType, Output: pr.Output}, nil
			}
			// Output not written yet; keep polling as if still in progress
			status = model.JobInProgress
			wait = c.polling.ProgressInterval
		case model.JobFailed:
			var out failureOutput
			_ = json.Unmarshal(pr.Output, &out)
			return nil, &RemoteError{Status: model.JobFailed, Details: out.Details, Message: pr.Error}
		case model.JobCancelled:
			return nil, &RemoteError{Status: model.JobCancelled, Message: pr.Error}
		default:
			reason := pr.Error
			if reason == "" {
				reason = string(status)
			}
			return nil, fmt.Errorf("%s poll: %w: %s", c.name, ErrUnexpectedStatus, reason)
		}

		notify(onStatus, id, status)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("%s poll: %w: %v", c.name, ErrAborted, err)
		}
	}

	log.Printf("[Poller:%s] ERROR: Job %s still running after %d attempts", c.name, id, c.polling.MaxAttempts)
	return nil, fmt.Errorf("%s poll: %w", c.name, ErrPollTimeout)
}

type response struct {
	contentType string
	body        []byte
}

// post sends one JSON request. Context cancellation is reported as ErrAborted
// so callers can tell it apart from network failures.
func (c *Client) post(ctx context.Context, url string, payload interface{}) (*response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w: %v", c.name, ErrAborted, ctx.Err())
		}
		log.Printf("[Poller:%s] ERROR: HTTP request failed: %v", c.name, err)
		return nil, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s: %w: %v", c.name, ErrAborted, ctx.Err())
		}
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[Poller:%s] ERROR: %s returned %d: %s", c.name, url, resp.StatusCode, truncate(respBody))
		return nil, &TransportError{URL: url, StatusCode: resp.StatusCode, Body: truncate(respBody)}
	}

	return &response{contentType: resp.Header.Get("Content-Type"), body: respBody}, nil
}

func notify(onStatus StatusFunc, id string, status model.JobStatus) {
	if onStatus != nil {
		onStatus(id, status)
	}
}

func hasOutput(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func isJSON(body []byte) bool {
	return json.Valid(body)
}

func truncate(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
