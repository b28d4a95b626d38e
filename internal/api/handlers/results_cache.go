package handlers

import (
	"context"

	"go.uber.org/zap"

	rediscache "github.com/ethicsupply/backend/internal/cache/redis"
	"github.com/ethicsupply/backend/internal/metrics"
	"github.com/ethicsupply/backend/internal/storage/models"
	"github.com/ethicsupply/backend/pkg/circuitbreaker"
	"github.com/ethicsupply/backend/pkg/logger"
)

// ResultsCache wraps the Redis client in a circuit breaker so a dead Redis
// degrades reads to straight SQLite instead of stalling every request.
// All cache failures are soft: callers only ever see a miss. A nil
// ResultsCache is valid and behaves as an always-miss cache.
type ResultsCache struct {
	client  *rediscache.Client
	breaker *circuitbreaker.CircuitBreaker
}

func NewResultsCache(client *rediscache.Client, breaker *circuitbreaker.CircuitBreaker) *ResultsCache {
	return &ResultsCache{client: client, breaker: breaker}
}

func (rc *ResultsCache) Get(ctx context.Context, optimizationID int64) ([]models.OptimizationResult, bool) {
	if rc == nil {
		return nil, false
	}

	var results []models.OptimizationResult
	var found bool

	err := rc.breaker.Execute(ctx, func() error {
		var err error
		results, found, err = rc.client.GetResults(ctx, optimizationID)
		return err
	})
	if err != nil {
		logger.Debug("Results cache unavailable",
			zap.Int64("optimization_id", optimizationID),
			zap.Error(err),
		)
		metrics.CacheMisses.WithLabelValues("results").Inc()
		return nil, false
	}

	if found {
		metrics.CacheHits.WithLabelValues("results").Inc()
	} else {
		metrics.CacheMisses.WithLabelValues("results").Inc()
	}
	return results, found
}

func (rc *ResultsCache) Set(ctx context.Context, optimizationID int64, results []models.OptimizationResult) {
	if rc == nil {
		return
	}

	err := rc.breaker.Execute(ctx, func() error {
		return rc.client.SetResults(ctx, optimizationID, results)
	})
	if err != nil {
		logger.Debug("Failed to cache results",
			zap.Int64("optimization_id", optimizationID),
			zap.Error(err),
		)
	}
}

// Warm primes the cache with a freshly persisted run so the first read
// never touches SQLite.
func (rc *ResultsCache) Warm(ctx context.Context, optimizationID int64, suppliers []models.Supplier) {
	results := make([]models.OptimizationResult, len(suppliers))
	for i, s := range suppliers {
		results[i] = models.OptimizationResult{
			Name:           s.Name,
			Cost:           s.Cost,
			CO2:            s.CO2,
			DeliveryTime:   s.DeliveryTime,
			EthicalScore:   s.EthicalScoreValue(),
			PredictedScore: s.PredictedScore,
			Selected:       s.Selected,
		}
	}
	rc.Set(ctx, optimizationID, results)
}
