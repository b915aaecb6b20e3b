package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SummaryCache keeps monthly rollups in Redis so repeated dashboard loads
// skip the aggregate queries. A nil cache disables caching entirely.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache wraps a Redis client. TTL values below one second fall
// back to ten minutes.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	if client == nil {
		panic("finance: redis client required")
	}
	if ttl < time.Second {
		ttl = 10 * time.Minute
	}
	return &SummaryCache{client: client, ttl: ttl}
}

func summaryKey(month string) string {
	return "agenda:summary:" + month
}

// Get returns the cached summary for a month, or (nil, nil) on a miss.
func (c *SummaryCache) Get(ctx context.Context, month string) (*MonthlySummary, error) {
	if c == nil {
		return nil, nil
	}
	raw, err := c.client.Get(ctx, summaryKey(month)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finance: cache get: %w", err)
	}
	var s MonthlySummary
	if err := json.Unmarshal(raw, &s); err != nil {
		// Stale or corrupt payload, treat as a miss.
		return nil, nil
	}
	return &s, nil
}

// Set stores a summary under the configured TTL.
func (c *SummaryCache) Set(ctx context.Context, s *MonthlySummary) error {
	if c == nil || s == nil {
		return nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("finance: cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey(s.Month), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("finance: cache set: %w", err)
	}
	return nil
}

// Invalidate drops the cached summary for a month. Booking mutations call
// this so the dashboard never shows pre-mutation numbers.
func (c *SummaryCache) Invalidate(ctx context.Context, month string) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, summaryKey(month)).Err(); err != nil {
		return fmt.Errorf("finance: cache invalidate: %w", err)
	}
	return nil
}
