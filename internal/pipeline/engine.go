// internal/pipeline/engine.go
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"hybrid-query-engine/internal/common/errors"
	"hybrid-query-engine/internal/common/logger"
	"hybrid-query-engine/internal/common/metrics"
	"hybrid-query-engine/internal/models"
	"hybrid-query-engine/internal/pipeline/merger"
	"hybrid-query-engine/internal/pipeline/router"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SearchExecutor runs a translated query against the full-text backend.
type SearchExecutor interface {
	Execute(ctx context.Context, params *models.SearchQueryParams) (models.SourceResult, error)
}

// SQLExecutor runs a translated statement against the relational backend.
type SQLExecutor interface {
	Execute(ctx context.Context, params *models.SQLQueryParams) (models.SourceResult, error)
}

// Cache is the result cache surface the engine needs. Satisfied by
// database.RedisClient.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Config wires the engine's collaborators.
type Config struct {
	Search      SearchExecutor
	SQL         SQLExecutor
	Cache       Cache
	CacheTTL    time.Duration
	CachePrefix string
	Logger      logger.Logger
}

// Engine drives one query end to end: cache lookup, routing, concurrent
// backend execution, and merging.
type Engine struct {
	search      SearchExecutor
	sql         SQLExecutor
	cache       Cache
	cacheTTL    time.Duration
	cachePrefix string
	merger      *merger.Merger
	log         logger.Logger
}

func New(cfg Config) *Engine {
	return &Engine{
		search:      cfg.Search,
		sql:         cfg.SQL,
		cache:       cfg.Cache,
		cacheTTL:    cfg.CacheTTL,
		cachePrefix: cfg.CachePrefix,
		merger:      merger.New(),
		log:         cfg.Logger,
	}
}

// Execute processes one normalized intent. A backend failure degrades the
// response to the surviving sources; when every queried backend fails the
// merge runs over nothing and yields an empty result rather than an error.
func (e *Engine) Execute(ctx context.Context, intent *models.NormalizedIntent) (*models.MergedResult, error) {
	requestID := uuid.NewString()
	log := e.log.WithFields(map[string]interface{}{
		"request_id": requestID,
		"intent":     string(intent.Intent),
	})

	metrics.QueriesTotal.WithLabelValues(string(intent.Intent)).Inc()

	cacheKey := e.cacheKey(intent)
	if cached, ok := e.cacheGet(ctx, cacheKey, log); ok {
		cached.Metadata.RequestID = requestID
		return cached, nil
	}

	decision := router.Route(intent)
	log.Info("query routed", map[string]interface{}{
		"use_search":     decision.UseSearch,
		"use_sql":        decision.UseSQL,
		"primary_source": string(decision.PrimarySource),
		"search_score":   decision.Confidence.Search,
		"sql_score":      decision.Confidence.SQL,
	})

	recordSelection(decision)

	results := e.fanOut(ctx, decision, log)
	if len(results) == 0 {
		metrics.QueriesFailed.WithLabelValues(string(intent.Intent), string(errors.ErrCodeAllSourcesFailed)).Inc()
		log.Warn("every queried backend failed, returning empty result", nil)
	}

	mergeStart := time.Now()
	merged := e.merger.Merge(results, intent)
	metrics.MergeDuration.WithLabelValues(string(intent.Intent)).Observe(time.Since(mergeStart).Seconds())

	merged.Metadata.RequestID = requestID

	// An all-backends-down result is not cached; the next request retries
	// the backends.
	if len(results) > 0 {
		e.cacheSet(ctx, cacheKey, merged, log)
	}

	return merged, nil
}

// fanOut queries the enabled backends concurrently and collects whatever
// succeeded. Failures are logged and counted, not propagated.
func (e *Engine) fanOut(ctx context.Context, decision *models.RoutingDecision, log logger.Logger) map[models.Source]models.SourceResult {
	results := map[models.Source]models.SourceResult{}

	var wg sync.WaitGroup
	var mu sync.Mutex

	if decision.UseSearch && e.search != nil && decision.SearchQuery != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			result, err := e.search.Execute(ctx, decision.SearchQuery)
			metrics.BackendQueryDuration.WithLabelValues(string(models.SourceSearch)).Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.BackendQueryErrors.WithLabelValues(string(models.SourceSearch)).Inc()
				log.WithError(err).Warn("search backend failed, continuing with partial results", nil)
				return
			}
			mu.Lock()
			results[models.SourceSearch] = result
			mu.Unlock()
		}()
	}

	if decision.UseSQL && e.sql != nil && decision.SQLQuery != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			result, err := e.sql.Execute(ctx, decision.SQLQuery)
			metrics.BackendQueryDuration.WithLabelValues(string(models.SourceSQL)).Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.BackendQueryErrors.WithLabelValues(string(models.SourceSQL)).Inc()
				log.WithError(err).Warn("sql backend failed, continuing with partial results", nil)
				return
			}
			mu.Lock()
			results[models.SourceSQL] = result
			mu.Unlock()
		}()
	}

	wg.Wait()
	return results
}

func recordSelection(decision *models.RoutingDecision) {
	if decision.UseSearch {
		metrics.BackendSelected.WithLabelValues(string(models.SourceSearch),
			primaryLabel(decision.PrimarySource == models.SourceSearch)).Inc()
	}
	if decision.UseSQL {
		metrics.BackendSelected.WithLabelValues(string(models.SourceSQL),
			primaryLabel(decision.PrimarySource == models.SourceSQL)).Inc()
	}
}

func primaryLabel(primary bool) string {
	if primary {
		return "true"
	}
	return "false"
}

// cacheKey derives a stable key from the full intent. Two identical intents
// hit the same entry regardless of request identity.
func (e *Engine) cacheKey(intent *models.NormalizedIntent) string {
	payload, err := json.Marshal(intent)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(payload)
	return e.cachePrefix + hex.EncodeToString(sum[:])
}

func (e *Engine) cacheGet(ctx context.Context, key string, log logger.Logger) (*models.MergedResult, bool) {
	if e.cache == nil || key == "" {
		return nil, false
	}

	cached, err := e.cache.Get(ctx, key)
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).Warn("cache read failed", nil)
		}
		metrics.CacheMisses.Inc()
		return nil, false
	}

	var merged models.MergedResult
	if err := json.Unmarshal([]byte(cached), &merged); err != nil {
		log.WithError(err).Warn("cache entry corrupt, ignoring", nil)
		metrics.CacheMisses.Inc()
		return nil, false
	}

	metrics.CacheHits.Inc()
	log.Debug("cache hit", map[string]interface{}{"key": key})
	return &merged, true
}

func (e *Engine) cacheSet(ctx context.Context, key string, merged *models.MergedResult, log logger.Logger) {
	if e.cache == nil || key == "" {
		return
	}

	payload, err := json.Marshal(merged)
	if err != nil {
		log.WithError(err).Warn("failed to marshal result for cache", nil)
		return
	}

	if err := e.cache.Set(ctx, key, payload, e.cacheTTL); err != nil {
		log.WithError(err).Warn("cache write failed", nil)
	}
}
