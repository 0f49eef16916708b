package model

import (
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a remote analysis job
type JobStatus string

const (
	JobSubmitted  JobStatus = "SUBMITTED"
	JobInQueue    JobStatus = "IN_QUEUE"
	JobInProgress JobStatus = "IN_PROGRESS"
	JobCompleted  JobStatus = "COMPLETED"
	JobFailed     JobStatus = "FAILED"
	JobCancelled  JobStatus = "CANCELLED"
)

// IsTerminal returns true for COMPLETED, FAILED and CANCELLED
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// Label is the human readable status shown while waiting
func (s JobStatus) Label() string {
	switch s {
	case JobSubmitted:
		return "Submitted"
	case JobInQueue:
		return "In queue..."
	case JobInProgress:
		return "Processing..."
	case JobCompleted:
		return "Completed"
	case JobFailed:
		return "Failed"
	case JobCancelled:
		return "Cancelled"
	}
	return string(s)
}

// JobKind names the external service a job runs against
type JobKind string

const (
	JobKindBackgroundRemoval JobKind = "background_removal"
	JobKindColorStep         JobKind = "color_step"
	JobKindColorFinal        JobKind = "color_final"
)

// Job tracks one submit+poll lifecycle
type Job struct {
	ID          string    `json:"id"`
	RemoteID    string    `json:"remoteId,omitempty"`
	Kind        JobKind   `json:"kind"`
	SessionID   string    `json:"sessionId,omitempty"`
	Step        ColorStep `json:"step,omitempty"`
	Status      JobStatus `json:"status"`
	StatusText  string    `json:"statusText,omitempty"`
	Error       string    `json:"error,omitempty"`
	ErrorKind   string    `json:"errorKind,omitempty"`
	ContentType string    `json:"contentType,omitempty"`
	HasResult   bool      `json:"hasResult"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Transition moves the job to next. A terminal job never changes state.
func (j *Job) Transition(next JobStatus) error {
	if j.Status.IsTerminal() {
		return fmt.Errorf("job %s is %s and cannot move to %s", j.ID, j.Status, next)
	}
	j.Status = next
	j.StatusText = next.Label()
	j.UpdatedAt = time.Now()
	return nil
}
