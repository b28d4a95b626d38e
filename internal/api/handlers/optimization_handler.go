package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ethicsupply/backend/internal/storage/sqlite"
	"github.com/ethicsupply/backend/internal/transfer"
	"github.com/ethicsupply/backend/pkg/logger"
)

const (
	defaultRunLimit      = 10
	defaultTrendLimit    = 7
	defaultActivityLimit = 10
	maxListLimit         = 100
)

type OptimizationHandler struct {
	store *sqlite.Client
	cache *ResultsCache
}

func NewOptimizationHandler(store *sqlite.Client, cache *ResultsCache) *OptimizationHandler {
	return &OptimizationHandler{store: store, cache: cache}
}

func (h *OptimizationHandler) ListOptimizations(c *fiber.Ctx) error {
	limit := queryLimit(c, defaultRunLimit)

	runs, err := h.store.GetOptimizations(c.Context(), limit)
	if err != nil {
		logger.Error("Failed to list optimizations", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list optimizations",
		})
	}

	return c.JSON(fiber.Map{
		"optimizations": runs,
	})
}

func (h *OptimizationHandler) GetResults(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid optimization id",
		})
	}

	if h.cache != nil {
		if results, found := h.cache.Get(c.Context(), id); found {
			return c.JSON(fiber.Map{
				"optimization_id": id,
				"results":         results,
			})
		}
	}

	results, err := h.store.GetOptimizationResults(c.Context(), id)
	if err != nil {
		if errors.Is(err, sqlite.ErrOptimizationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Optimization not found",
			})
		}
		logger.Error("Failed to get optimization results", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get optimization results",
		})
	}

	if h.cache != nil {
		h.cache.Set(c.Context(), id, results)
	}

	return c.JSON(fiber.Map{
		"optimization_id": id,
		"results":         results,
	})
}

func (h *OptimizationHandler) GetTrends(c *fiber.Ctx) error {
	limit := queryLimit(c, defaultTrendLimit)

	trends, err := h.store.GetOptimizationTrends(c.Context(), limit)
	if err != nil {
		logger.Error("Failed to get optimization trends", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get optimization trends",
		})
	}

	return c.JSON(fiber.Map{
		"trends": trends,
	})
}

func (h *OptimizationHandler) ExportResults(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid optimization id",
		})
	}

	results, err := h.store.GetOptimizationResults(c.Context(), id)
	if err != nil {
		if errors.Is(err, sqlite.ErrOptimizationNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Optimization not found",
			})
		}
		logger.Error("Failed to export optimization", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export optimization",
		})
	}

	var buf bytes.Buffer
	if err := transfer.EncodeResults(&buf, results); err != nil {
		logger.Error("Failed to encode results as CSV", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export optimization",
		})
	}

	if err := h.store.LogActivity(c.Context(), "export",
		fmt.Sprintf("Exported optimization %d", id), ""); err != nil {
		logger.Warn("Failed to log activity", zap.Error(err))
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="optimization_%d.csv"`, id))
	return c.Send(buf.Bytes())
}

func (h *OptimizationHandler) ListActivities(c *fiber.Ctx) error {
	limit := queryLimit(c, defaultActivityLimit)

	activities, err := h.store.GetRecentActivities(c.Context(), limit)
	if err != nil {
		logger.Error("Failed to list activities", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list activities",
		})
	}

	return c.JSON(fiber.Map{
		"activities": activities,
	})
}

func queryLimit(c *fiber.Ctx, fallback int) int {
	limit := c.QueryInt("limit", fallback)
	if limit <= 0 {
		return fallback
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
