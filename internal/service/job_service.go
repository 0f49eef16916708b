package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"stylequiz/internal/cache"
	"stylequiz/internal/model"
	"stylequiz/internal/poller"
)

// JobFunc performs the remote submit+poll of one job
type JobFunc func(ctx context.Context, onStatus poller.StatusFunc) (*poller.Result, error)

// ResultHook stores a completed result in domain state before the job is
// reported as completed. A hook error fails the job.
type ResultHook func(ctx context.Context, result *poller.Result) error

const cacheWriteTimeout = 5 * time.Second

// JobService runs analysis jobs in the background and tracks their status
type JobService struct {
	cache       cache.JobCache
	broadcaster Broadcaster

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJobService creates a new job service
func NewJobService(jobCache cache.JobCache) *JobService {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobService{
		cache:  jobCache,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetBroadcaster sets the broadcaster for WebSocket events
func (s *JobService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Start registers the job and runs it in its own goroutine. The request
// context only covers registration; the job outlives the request.
func (s *JobService) Start(ctx context.Context, kind model.JobKind, sessionID string, step model.ColorStep, run JobFunc, onDone ResultHook) (*model.Job, error) {
	now := time.Now()
	job := &model.Job{
		ID:         uuid.New().String(),
		Kind:       kind,
		SessionID:  sessionID,
		Step:       step,
		Status:     model.JobSubmitted,
		StatusText: "Submitting...",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.cache.SetJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to register job: %w", err)
	}

	log.Printf("[Jobs] Started %s job %s (session=%s step=%s)", kind, job.ID, sessionID, step)

	snapshot := *job
	s.wg.Add(1)
	go s.run(job, run, onDone)
	return &snapshot, nil
}

func (s *JobService) run(job *model.Job, run JobFunc, onDone ResultHook) {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Jobs] Recovered from panic in job %s: %v", job.ID, r)
			s.fail(job, fmt.Errorf("panic: %v", r))
		}
	}()

	result, err := run(s.ctx, func(remoteID string, status model.JobStatus) {
		assigned := remoteID != "" && remoteID != job.RemoteID
		if assigned {
			job.RemoteID = remoteID
		}
		if status == job.Status && job.StatusText == status.Label() {
			if assigned {
				s.save(job)
			}
			return
		}
		if err := job.Transition(status); err != nil {
			log.Printf("[Jobs] %v", err)
			return
		}
		s.save(job)
		s.broadcast(job, MsgJobStatus)
	})
	if err != nil {
		s.fail(job, err)
		return
	}

	data := []byte(result.Output)
	job.ContentType = "application/json"
	if result.IsImage() {
		data = result.Image
		job.ContentType = result.ContentType
	}

	ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
	defer cancel()
	if err := s.cache.SetResult(ctx, job.ID, data); err != nil {
		s.fail(job, fmt.Errorf("failed to store result: %w", err))
		return
	}
	if onDone != nil {
		if err := onDone(ctx, result); err != nil {
			s.fail(job, fmt.Errorf("failed to store result: %w", err))
			return
		}
	}

	job.HasResult = true
	if err := job.Transition(model.JobCompleted); err != nil {
		log.Printf("[Jobs] %v", err)
		return
	}
	s.save(job)
	s.broadcast(job, MsgJobCompleted)
	log.Printf("[Jobs] Job %s completed (%s, %d bytes)", job.ID, job.ContentType, len(data))
}

func (s *JobService) fail(job *model.Job, err error) {
	status := model.JobFailed
	if errors.Is(err, poller.ErrJobCancelled) {
		status = model.JobCancelled
	}
	kind, message := Classify(err)
	job.Error = message
	job.ErrorKind = kind
	if terr := job.Transition(status); terr != nil {
		log.Printf("[Jobs] %v", terr)
		return
	}
	log.Printf("[Jobs] ERROR: Job %s %s: %v", job.ID, status, err)
	s.save(job)
	s.broadcast(job, MsgJobFailed)
}

func (s *JobService) save(job *model.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
	defer cancel()
	if err := s.cache.SetJob(ctx, job); err != nil {
		log.Printf("[Jobs] ERROR: Failed to save job %s: %v", job.ID, err)
	}
}

func (s *JobService) broadcast(job *model.Job, msgType string) {
	if s.broadcaster == nil || job.SessionID == "" {
		return
	}
	s.broadcaster.BroadcastToSession(job.SessionID, msgType, *job)
}

// Get returns the job status
func (s *JobService) Get(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.cache.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// GetResult returns the job and its raw result bytes
func (s *JobService) GetResult(ctx context.Context, id string) (*model.Job, []byte, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !job.HasResult {
		return job, nil, ErrResultNotReady
	}
	data, err := s.cache.GetResult(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if data == nil {
		return job, nil, ErrResultNotReady
	}
	return job, data, nil
}

// Shutdown aborts running jobs and waits for them to record their final state
func (s *JobService) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
