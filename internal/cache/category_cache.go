// Package cache memoizes confident categorization results in Redis so repeated
// titles do not hit the categorization service again.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"celengan/internal/logger"
	"celengan/internal/ml"
)

const keyPrefix = "celengan:category:"

type categorizer interface {
	Categorize(ctx context.Context, description string, amount decimal.Decimal) (*ml.Prediction, error)
}

// CategoryCache wraps a categorizer with a Redis read-through cache.
type CategoryCache struct {
	next          categorizer
	rdb           *redis.Client
	ttl           time.Duration
	minConfidence float64
}

// NewCategoryCache returns a categorizer that consults rdb before calling next.
// Only predictions with at least minConfidence are stored.
func NewCategoryCache(next categorizer, rdb *redis.Client, ttl time.Duration, minConfidence float64) *CategoryCache {
	return &CategoryCache{next: next, rdb: rdb, ttl: ttl, minConfidence: minConfidence}
}

// NewRedisClient parses url (redis://...) and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// Categorize returns a cached prediction for description, or asks the wrapped
// categorizer and caches a confident answer. Redis failures are logged and
// bypassed.
func (c *CategoryCache) Categorize(ctx context.Context, description string, amount decimal.Decimal) (*ml.Prediction, error) {
	key := cacheKey(description)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var pred ml.Prediction
		if jsonErr := json.Unmarshal(raw, &pred); jsonErr == nil {
			return &pred, nil
		}
		logger.Get().Warnw("discarding corrupt category cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		logger.Get().Warnw("category cache read failed", "error", err)
	}

	pred, err := c.next.Categorize(ctx, description, amount)
	if err != nil {
		return nil, err
	}

	if pred.Confidence >= c.minConfidence {
		if payload, jsonErr := json.Marshal(pred); jsonErr == nil {
			if setErr := c.rdb.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
				logger.Get().Warnw("category cache write failed", "error", setErr)
			}
		}
	}
	return pred, nil
}

func cacheKey(description string) string {
	return keyPrefix + strings.Join(strings.Fields(strings.ToLower(description)), " ")
}
