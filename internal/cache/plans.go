// Package cache provides Redis read-through caching for hot, rarely changing
// reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/DukeRupert/samplebase/internal/metrics"
	"github.com/DukeRupert/samplebase/internal/repository"
	"github.com/go-redis/redis/v8"
)

// DefaultPlanTTL is how long plan entries live in Redis.
const DefaultPlanTTL = 10 * time.Minute

const (
	planListKey     = "plans:active"
	planKeyPrefix   = "plan:"
	planCacheMetric = "plan"
	planListMetric  = "plan_list"
)

// PlanQuerier is the subset of repository queries fronted by the cache.
type PlanQuerier interface {
	ListActivePlans(ctx context.Context) ([]repository.Plan, error)
	GetPlanByPriceID(ctx context.Context, stripePriceID string) (repository.Plan, error)
}

// PlanCatalog caches plan reads in Redis. A nil client disables caching and
// every call goes straight to the database. Redis failures are logged and
// fall through to the database; they never fail a read.
type PlanCatalog struct {
	inner  PlanQuerier
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewPlanCatalog wraps inner with a Redis cache.
func NewPlanCatalog(inner PlanQuerier, client *redis.Client, ttl time.Duration, logger *slog.Logger) *PlanCatalog {
	if ttl <= 0 {
		ttl = DefaultPlanTTL
	}
	return &PlanCatalog{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// ListActivePlans returns the active plans, from cache when possible.
func (c *PlanCatalog) ListActivePlans(ctx context.Context) ([]repository.Plan, error) {
	var plans []repository.Plan
	if c.get(ctx, planListKey, planListMetric, &plans) {
		return plans, nil
	}

	plans, err := c.inner.ListActivePlans(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, planListKey, planListMetric, plans)
	return plans, nil
}

// GetPlanByPriceID returns a plan by Stripe price ID, active or not.
// Missing plans are not cached.
func (c *PlanCatalog) GetPlanByPriceID(ctx context.Context, stripePriceID string) (repository.Plan, error) {
	key := planKeyPrefix + stripePriceID

	var plan repository.Plan
	if c.get(ctx, key, planCacheMetric, &plan) {
		return plan, nil
	}

	plan, err := c.inner.GetPlanByPriceID(ctx, stripePriceID)
	if err != nil {
		return repository.Plan{}, err
	}
	c.set(ctx, key, planCacheMetric, plan)
	return plan, nil
}

// Invalidate drops the cached plan list and the given plans.
func (c *PlanCatalog) Invalidate(ctx context.Context, stripePriceIDs ...string) {
	if c.client == nil {
		return
	}
	keys := []string{planListKey}
	for _, id := range stripePriceIDs {
		keys = append(keys, planKeyPrefix+id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		metrics.CacheError(planCacheMetric)
		c.logger.Warn("Failed to invalidate plan cache", "keys", keys, "error", err)
	}
}

func (c *PlanCatalog) get(ctx context.Context, key, metric string, dst interface{}) bool {
	if c.client == nil {
		return false
	}

	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheMiss(metric)
		} else {
			metrics.CacheError(metric)
			c.logger.Warn("Plan cache read failed", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(val, dst); err != nil {
		metrics.CacheError(metric)
		c.logger.Warn("Discarding corrupt plan cache entry", "key", key, "error", err)
		return false
	}
	metrics.CacheHit(metric)
	return true
}

func (c *PlanCatalog) set(ctx context.Context, key, metric string, v interface{}) {
	if c.client == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		metrics.CacheError(metric)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		metrics.CacheError(metric)
		c.logger.Warn("Plan cache write failed", "key", key, "error", err)
	}
}
