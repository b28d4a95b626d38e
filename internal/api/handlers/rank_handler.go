package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ethicsupply/backend/internal/metrics"
	"github.com/ethicsupply/backend/internal/ranking"
	"github.com/ethicsupply/backend/internal/storage/models"
	"github.com/ethicsupply/backend/internal/storage/sqlite"
	"github.com/ethicsupply/backend/pkg/config"
	"github.com/ethicsupply/backend/pkg/logger"
)

type RankHandler struct {
	engine *ranking.Engine
	store  *sqlite.Client
	cache  *ResultsCache
	cfg    config.RankingConfig
}

func NewRankHandler(engine *ranking.Engine, store *sqlite.Client, cache *ResultsCache, cfg config.RankingConfig) *RankHandler {
	return &RankHandler{
		engine: engine,
		store:  store,
		cache:  cache,
		cfg:    cfg,
	}
}

type RankRequest struct {
	Suppliers       []models.Supplier `json:"suppliers"`
	Description     string            `json:"description"`
	TopK            int               `json:"top_k"`
	Sample          bool              `json:"sample"`
	MinEthicalScore *float64          `json:"min_ethical_score"`
	Persist         *bool             `json:"persist"`
}

func (r RankRequest) options(cfg config.RankingConfig) ranking.Options {
	opts := ranking.Options{
		TopK:            r.TopK,
		MinEthicalScore: cfg.MinEthicalScore,
		Sample:          r.Sample,
	}
	if opts.TopK <= 0 {
		opts.TopK = cfg.TopK
	}
	if r.MinEthicalScore != nil {
		opts.MinEthicalScore = *r.MinEthicalScore
	}
	return opts
}

// shouldPersist defaults to persisting real runs and discarding sample ones.
func (r RankRequest) shouldPersist() bool {
	if r.Persist != nil {
		return *r.Persist
	}
	return !r.Sample
}

func (h *RankHandler) HandleRank(c *fiber.Ctx) error {
	var req RankRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse rank request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.engine.Rank(c.Context(), req.Suppliers, req.options(h.cfg))
	if err != nil {
		if errors.Is(err, ranking.ErrInvalidSupplierData) {
			metrics.RankingsTotal.WithLabelValues("invalid", h.engine.PredictorName()).Inc()
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logger.Error("Ranking failed", zap.Error(err))
		metrics.RankingsTotal.WithLabelValues("error", h.engine.PredictorName()).Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to rank suppliers",
		})
	}

	observeRanking(result, req.Sample, h.engine.PredictorName())

	response := fiber.Map{
		"batch_id":   result.BatchID,
		"predictor":  result.Predictor,
		"suppliers":  result.Suppliers,
		"latency_ms": result.LatencyMS,
	}

	if req.shouldPersist() && len(result.Suppliers) > 0 {
		optimizationID, err := h.persist(c, result, req.Description)
		if err != nil {
			logger.Error("Failed to persist optimization", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Ranking succeeded but could not be persisted",
			})
		}
		response["optimization_id"] = optimizationID
	}

	return c.JSON(response)
}

// observeRanking records a completed ranking regardless of which surface
// (HTTP or WebSocket) produced it.
func observeRanking(result *ranking.Result, sample bool, configuredPredictor string) {
	metrics.RankingsTotal.WithLabelValues("ok", result.Predictor).Inc()
	metrics.RankingDuration.WithLabelValues(result.Predictor).
		Observe(float64(result.LatencyMS) / 1000)
	metrics.BatchSize.Observe(float64(len(result.Suppliers)))
	for _, s := range result.Suppliers {
		metrics.PredictedScore.Observe(s.PredictedScore)
	}
	if !sample && result.Predictor != configuredPredictor {
		metrics.PredictorFallbacks.Inc()
	}
}

func (h *RankHandler) persist(c *fiber.Ctx, result *ranking.Result, description string) (int64, error) {
	startTime := time.Now()

	optimizationID, err := h.store.SaveOptimization(c.Context(), result.Suppliers, description)
	if err != nil {
		return 0, err
	}

	metrics.PersistDuration.Observe(time.Since(startTime).Seconds())
	metrics.OptimizationsSaved.Inc()

	if h.cache != nil {
		h.cache.Warm(c.Context(), optimizationID, result.Suppliers)
	}

	if err := h.store.LogActivity(c.Context(), "optimize",
		"Ranked supplier batch", result.BatchID); err != nil {
		logger.Warn("Failed to log activity", zap.Error(err))
	}

	return optimizationID, nil
}
