package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stylequiz/internal/model"
)

// JobCache handles Redis operations for async job status and results
type JobCache interface {
	SetJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
	SetResult(ctx context.Context, id string, data []byte) error
	GetResult(ctx context.Context, id string) ([]byte, error)
}

type jobCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewJobCache creates a new job cache
func NewJobCache(client *redis.Client) JobCache {
	return &jobCache{
		client: client,
		ttl:    2 * time.Hour,
	}
}

func (c *jobCache) key(id string) string {
	return fmt.Sprintf("job:%s", id)
}

func (c *jobCache) resultKey(id string) string {
	return fmt.Sprintf("job:%s:result", id)
}

func (c *jobCache) SetJob(ctx context.Context, job *model.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(job.ID), data, c.ttl).Err()
}

// GetJob returns nil, nil for an unknown or expired job
func (c *jobCache) GetJob(ctx context.Context, id string) (*model.Job, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var job model.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// SetResult stores the raw result bytes: an image or a JSON document
func (c *jobCache) SetResult(ctx context.Context, id string, data []byte) error {
	return c.client.Set(ctx, c.resultKey(id), data, c.ttl).Err()
}

func (c *jobCache) GetResult(ctx context.Context, id string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.resultKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}
