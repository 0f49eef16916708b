package cache

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const styleStatsKey = "stats:styles"

// StyleStatsCache handles the Redis ZSET counting how often each style wins a report
type StyleStatsCache interface {
	Increment(ctx context.Context, styleID string) error
	GetTop(ctx context.Context, limit int) ([]StyleCount, error)
}

// StyleCount is one entry of the popularity tally
type StyleCount struct {
	StyleID string
	Count   int
	Rank    int
}

type styleStatsCache struct {
	client *redis.Client
}

// NewStyleStatsCache creates a new style popularity cache
func NewStyleStatsCache(client *redis.Client) StyleStatsCache {
	return &styleStatsCache{
		client: client,
	}
}

func (c *styleStatsCache) Increment(ctx context.Context, styleID string) error {
	return c.client.ZIncrBy(ctx, styleStatsKey, 1, styleID).Err()
}

// GetTop returns the most frequent styles, limit <= 0 returns all of them
func (c *styleStatsCache) GetTop(ctx context.Context, limit int) ([]StyleCount, error) {
	stop := int64(limit - 1)
	if limit <= 0 {
		stop = -1
	}
	results, err := c.client.ZRevRangeWithScores(ctx, styleStatsKey, 0, stop).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]StyleCount, len(results))
	for i, z := range results {
		entries[i] = StyleCount{
			StyleID: z.Member.(string),
			Count:   int(z.Score),
			Rank:    i + 1,
		}
	}
	return entries, nil
}
