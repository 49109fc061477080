package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"reportcard-backend/internal/db"
	"reportcard-backend/internal/logger"
	"reportcard-backend/internal/model"
)

const (
	summariesKey  = "reportcard:summaries"
	statisticsKey = "reportcard:statistics"
)

// SummaryCache is a cache-aside wrapper around the repository's projection
// reads. Writes go straight through and invalidate both keys; a cache
// failure is logged and degrades to the store, never to an error.
type SummaryCache struct {
	db.Repository
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func NewSummaryCache(repo db.Repository, redisClient *RedisClient, ttl time.Duration) *SummaryCache {
	return &SummaryCache{
		Repository: repo,
		client:     redisClient.Client(),
		ttl:        ttl,
		log:        logger.Get(),
	}
}

func (c *SummaryCache) ListSummaries(ctx context.Context) ([]model.StudentSummary, error) {
	data, err := c.client.Get(ctx, summariesKey).Bytes()
	if err == nil {
		var summaries []model.StudentSummary
		if jerr := json.Unmarshal(data, &summaries); jerr == nil {
			return summaries, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn().Err(err).Msg("Summary cache read failed, falling back to store")
	}

	summaries, err := c.Repository.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, summariesKey, summaries)
	return summaries, nil
}

func (c *SummaryCache) Statistics(ctx context.Context) (*model.Statistics, error) {
	data, err := c.client.Get(ctx, statisticsKey).Bytes()
	if err == nil {
		var stats model.Statistics
		if jerr := json.Unmarshal(data, &stats); jerr == nil {
			return &stats, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn().Err(err).Msg("Statistics cache read failed, falling back to store")
	}

	stats, err := c.Repository.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, statisticsKey, stats)
	return stats, nil
}

func (c *SummaryCache) UpsertStudent(ctx context.Context, req model.UpsertRequest) error {
	if err := c.Repository.UpsertStudent(ctx, req); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *SummaryCache) DeleteStudent(ctx context.Context, studentID string) error {
	if err := c.Repository.DeleteStudent(ctx, studentID); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *SummaryCache) AddSubject(ctx context.Context, req model.SubjectRequest) error {
	if err := c.Repository.AddSubject(ctx, req); err != nil {
		return err
	}
	// Max marks feed the marks percentage, so the projection is stale too.
	c.invalidate(ctx)
	return nil
}

func (c *SummaryCache) set(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

func (c *SummaryCache) invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, summariesKey, statisticsKey).Err(); err != nil {
		c.log.Warn().Err(err).Msg("Cache invalidation failed")
	}
}
