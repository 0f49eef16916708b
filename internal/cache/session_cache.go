package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"stylequiz/internal/model"
)

// SessionCache keeps hot quiz sessions in Redis in front of MongoDB. Every
// write bumps a per-session generation; a copy loaded before a write is never
// cached after it.
type SessionCache interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	Generation(ctx context.Context, id string) (int64, error)
	SetIfUnchanged(ctx context.Context, session *model.Session, gen int64) (bool, error)
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a new session cache
func NewSessionCache(client *redis.Client) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    30 * time.Minute,
	}
}

func (c *sessionCache) key(id string) string {
	return "session:" + id
}

func (c *sessionCache) genKey(id string) string {
	return "session:" + id + ":gen"
}

// Generation returns the write counter of a session, 0 when none was recorded.
// Read it before loading the session from MongoDB.
func (c *sessionCache) Generation(ctx context.Context, id string) (int64, error) {
	gen, err := c.client.Get(ctx, c.genKey(id)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// SetIfUnchanged caches the session only while its generation still equals gen.
// It reports false when a write got in first.
func (c *sessionCache) SetIfUnchanged(ctx context.Context, session *model.Session, gen int64) (bool, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return false, err
	}

	genKey := c.genKey(session.ID)
	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(session.ID), data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)
	if err == redis.TxFailedErr {
		return false, nil
	}
	return stored, err
}

// Get returns nil, nil on a cache miss
func (c *sessionCache) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete records a write and drops the cached copy
func (c *sessionCache) Delete(ctx context.Context, id string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(id))
		pipe.Expire(ctx, c.genKey(id), 2*c.ttl)
		pipe.Del(ctx, c.key(id))
		return nil
	})
	return err
}
