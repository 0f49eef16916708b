package poller

import (
	"errors"
	"fmt"
	"strings"

	"stylequiz/internal/model"
)

var (
	// ErrNotConfigured means a submit or poll URL is empty
	ErrNotConfigured = errors.New("webhook endpoint not configured")

	// ErrMalformedResponse means the body could not be decoded at all,
	// or the submit response carried no job id
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUnexpectedResponse means the body decoded but has an unknown shape
	ErrUnexpectedResponse = errors.New("unexpected server response")

	// ErrUnexpectedStatus means the job reported a status outside the protocol
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrJobFailed is wrapped by RemoteError for FAILED jobs
	ErrJobFailed = errors.New("processing failed")

	// ErrJobCancelled is wrapped by RemoteError for CANCELLED jobs
	ErrJobCancelled = errors.New("processing was cancelled")

	// ErrPollTimeout means the attempt budget ran out before a terminal state
	ErrPollTimeout = errors.New("timed out waiting for processing")

	// ErrAborted means the caller's context was cancelled or its deadline passed
	ErrAborted = errors.New("aborted")
)

// TransportError is a network failure or a non-2xx response
type TransportError struct {
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request to %s returned %d: %s", e.URL, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError is a job that reached FAILED or CANCELLED
type RemoteError struct {
	Status  model.JobStatus
	Details []string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status == model.JobCancelled {
		return ErrJobCancelled.Error()
	}
	reason := strings.Join(e.Details, " ")
	if reason == "" {
		reason = e.Message
	}
	if reason == "" {
		reason = "unknown error"
	}
	return ErrJobFailed.Error() + ": " + reason
}

func (e *RemoteError) Unwrap() error {
	if e.Status == model.JobCancelled {
		return ErrJobCancelled
	}
	return ErrJobFailed
}

// IsTimeout reports either kind of timeout: attempts exhausted or aborted
func IsTimeout(err error) bool {
	return errors.Is(err, ErrPollTimeout) || errors.Is(err, ErrAborted)
}

// IsProtocol reports a malformed or unexpected response
func IsProtocol(err error) bool {
	return errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrUnexpectedResponse) ||
		errors.Is(err, ErrUnexpectedStatus)
}
