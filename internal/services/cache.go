package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"jobly/cv-analyzer/internal/metrics"
	"jobly/cv-analyzer/internal/models"
	"jobly/cv-analyzer/internal/repositories"
	"jobly/cv-analyzer/internal/scoring"
)

const cacheKeyPrefix = "cv:analysis:"

// CachedReport is a report previously stored under a content hash.
type CachedReport struct {
	AnalysisID string              `json:"analysis_id"`
	Report     scoring.ScoreReport `json:"report"`
	AnalyzedAt time.Time           `json:"analyzed_at"`
}

type HistoryEntry struct {
	AnalysisID string
	Report     scoring.ScoreReport
	Cached     bool
	AnalyzedAt time.Time
}

type AnalysisCache interface {
	Lookup(ctx context.Context, hash string) (*CachedReport, bool, error)
	Store(ctx context.Context, hash, subjectID string, report *scoring.ScoreReport) error
	RecordHit(ctx context.Context, hash, subjectID string) error
	History(ctx context.Context, subjectID string) ([]HistoryEntry, error)
}

type analysisCache struct {
	repo  repositories.AnalysisRepository
	redis *redis.Client
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time
}

// NewAnalysisCache puts an optional Redis tier in front of the repository.
// A nil client disables the Redis tier.
func NewAnalysisCache(
	repo repositories.AnalysisRepository,
	rdb *redis.Client,
	ttl time.Duration,
	log *zap.Logger,
) AnalysisCache {
	return &analysisCache{
		repo:  repo,
		redis: rdb,
		ttl:   ttl,
		log:   log.Named("cache"),
		now:   time.Now,
	}
}

func cacheKey(hash string) string {
	return cacheKeyPrefix + hash
}

func (c *analysisCache) Lookup(ctx context.Context, hash string) (*CachedReport, bool, error) {
	if cached, ok := c.lookupRedis(ctx, hash); ok {
		return cached, true, nil
	}

	analysis, err := c.repo.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repositories.ErrAnalysisNotFound) {
			metrics.CacheLookups.WithLabelValues("postgres", "miss").Inc()
			return nil, false, nil
		}
		metrics.CacheLookups.WithLabelValues("postgres", "error").Inc()
		return nil, false, fmt.Errorf("failed to lookup analysis: %w", err)
	}
	metrics.CacheLookups.WithLabelValues("postgres", "hit").Inc()

	cached := &CachedReport{
		AnalysisID: analysis.ID.String(),
		Report:     *analysis.Report(),
		AnalyzedAt: analysis.AnalyzedAt,
	}
	c.writeRedis(ctx, hash, cached)

	return cached, true, nil
}

// Store persists the report and the submitter's history row, then warms the
// Redis tier. Redis is only written once Postgres has the row.
func (c *analysisCache) Store(ctx context.Context, hash, subjectID string, report *scoring.ScoreReport) error {
	now := c.now().UTC()
	analysis := models.NewCVAnalysis(hash, subjectID, report, now)
	history := &models.CVAnalysisHistory{
		ID:         uuid.New(),
		CVHash:     hash,
		UserID:     subjectID,
		Cached:     false,
		AnalyzedAt: now,
	}

	inserted, err := c.repo.SaveAnalysis(ctx, analysis, history)
	if err != nil {
		return err
	}

	if !inserted {
		// Another submission stored this hash first; cache its row, not ours
		stored, err := c.repo.FindByHash(ctx, hash)
		if err != nil {
			c.log.Warn("failed to reload stored analysis, skipping redis", zap.String("cv_hash", hash), zap.Error(err))
			return nil
		}
		analysis = stored
	}

	c.writeRedis(ctx, hash, &CachedReport{
		AnalysisID: analysis.ID.String(),
		Report:     *analysis.Report(),
		AnalyzedAt: analysis.AnalyzedAt,
	})
	return nil
}

func (c *analysisCache) RecordHit(ctx context.Context, hash, subjectID string) error {
	return c.repo.AddHistory(ctx, &models.CVAnalysisHistory{
		ID:         uuid.New(),
		CVHash:     hash,
		UserID:     subjectID,
		Cached:     true,
		AnalyzedAt: c.now().UTC(),
	})
}

func (c *analysisCache) History(ctx context.Context, subjectID string) ([]HistoryEntry, error) {
	rows, err := c.repo.FindHistoryByUser(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		if row.Analysis.ID == uuid.Nil {
			c.log.Warn("history row without analysis", zap.String("cv_hash", row.CVHash), zap.String("history_id", row.ID.String()))
			continue
		}
		entries = append(entries, HistoryEntry{
			AnalysisID: row.Analysis.ID.String(),
			Report:     *row.Analysis.Report(),
			Cached:     row.Cached,
			AnalyzedAt: row.AnalyzedAt,
		})
	}

	return entries, nil
}

func (c *analysisCache) lookupRedis(ctx context.Context, hash string) (*CachedReport, bool) {
	if c.redis == nil {
		return nil, false
	}

	val, err := c.redis.Get(ctx, cacheKey(hash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheLookups.WithLabelValues("redis", "miss").Inc()
		} else {
			metrics.CacheLookups.WithLabelValues("redis", "error").Inc()
			c.log.Warn("redis lookup failed, falling back to postgres", zap.String("cv_hash", hash), zap.Error(err))
		}
		return nil, false
	}

	var cached CachedReport
	if err := json.Unmarshal(val, &cached); err != nil {
		metrics.CacheLookups.WithLabelValues("redis", "error").Inc()
		c.log.Warn("discarding unreadable cache entry", zap.String("cv_hash", hash), zap.Error(err))
		return nil, false
	}

	metrics.CacheLookups.WithLabelValues("redis", "hit").Inc()
	return &cached, true
}

func (c *analysisCache) writeRedis(ctx context.Context, hash string, cached *CachedReport) {
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(cached)
	if err != nil {
		c.log.Warn("failed to encode cache entry", zap.String("cv_hash", hash), zap.Error(err))
		return
	}

	if err := c.redis.Set(ctx, cacheKey(hash), data, c.ttl).Err(); err != nil {
		c.log.Warn("failed to write redis cache", zap.String("cv_hash", hash), zap.Error(err))
	}
}
