// Package cache provides Redis-backed caching for rendered previews and
// recommendation batches. The engines stay pure; caching wraps them at the
// service boundary.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/printcraft/personalization/internal/recommendation"
)

// Cache wraps a Redis client with typed get/set helpers. A nil *Cache is a
// valid no-op cache, so callers never branch on whether caching is wired.
type Cache struct {
	rdb        *redis.Client
	previewTTL time.Duration
	recTTL     time.Duration
}

// New creates a cache around an existing Redis client.
func New(rdb *redis.Client, previewTTL, recTTL time.Duration) *Cache {
	return &Cache{rdb: rdb, previewTTL: previewTTL, recTTL: recTTL}
}

// previewKey derives a stable key from the customer and the full render
// input. Callers fold everything the output depends on into content, so any
// edit to the template (or its rendering options) naturally misses.
func previewKey(customerID, content string) string {
	sum := sha256.Sum256([]byte(content))
	return fmt.Sprintf("personalization:preview:%s:%s", customerID, hex.EncodeToString(sum[:8]))
}

func recommendationKey(customerID string, limit int) string {
	return fmt.Sprintf("personalization:recs:%s:%d", customerID, limit)
}

// GetPreview returns a cached rendered preview, or "" on miss.
func (c *Cache) GetPreview(ctx context.Context, customerID, content string) (string, bool) {
	if c == nil {
		return "", false
	}
	val, err := c.rdb.Get(ctx, previewKey(customerID, content)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// SetPreview stores a rendered preview. Cache write failures are ignored;
// the render already succeeded.
func (c *Cache) SetPreview(ctx context.Context, customerID, content, rendered string) {
	if c == nil {
		return
	}
	c.rdb.Set(ctx, previewKey(customerID, content), rendered, c.previewTTL)
}

// GetRecommendations returns a cached recommendation batch, or nil on miss.
func (c *Cache) GetRecommendations(ctx context.Context, customerID string, limit int) ([]recommendation.ProductRecommendation, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, recommendationKey(customerID, limit)).Bytes()
	if err != nil {
		return nil, false
	}
	var recs []recommendation.ProductRecommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, false
	}
	return recs, true
}

// SetRecommendations stores a recommendation batch.
func (c *Cache) SetRecommendations(ctx context.Context, customerID string, limit int, recs []recommendation.ProductRecommendation) {
	if c == nil {
		return
	}
	data, err := json.Marshal(recs)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, recommendationKey(customerID, limit), data, c.recTTL)
}

// InvalidateCustomer drops all cached entries for one customer, called when
// the customer record changes upstream.
func (c *Cache) InvalidateCustomer(ctx context.Context, customerID string) error {
	if c == nil {
		return nil
	}
	patterns := []string{
		fmt.Sprintf("personalization:preview:%s:*", customerID),
		fmt.Sprintf("personalization:recs:%s:*", customerID),
	}
	for _, pattern := range patterns {
		iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
		for iter.Next(ctx) {
			if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
				return fmt.Errorf("invalidate %s: %w", customerID, err)
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan %s: %w", pattern, err)
		}
	}
	return nil
}
