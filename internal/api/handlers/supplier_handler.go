package handlers

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ethicsupply/backend/internal/metrics"
	"github.com/ethicsupply/backend/internal/ranking"
	"github.com/ethicsupply/backend/internal/sample"
	"github.com/ethicsupply/backend/internal/storage/sqlite"
	"github.com/ethicsupply/backend/internal/transfer"
	"github.com/ethicsupply/backend/pkg/config"
	"github.com/ethicsupply/backend/pkg/logger"
)

type SupplierHandler struct {
	engine    *ranking.Engine
	store     *sqlite.Client
	sampleCfg config.SampleConfig
}

func NewSupplierHandler(engine *ranking.Engine, store *sqlite.Client, sampleCfg config.SampleConfig) *SupplierHandler {
	return &SupplierHandler{
		engine:    engine,
		store:     store,
		sampleCfg: sampleCfg,
	}
}

// ImportCSV decodes a CSV body into supplier records ready for /rank.
// Nothing is persisted; the caller reviews the batch before ranking it.
func (h *SupplierHandler) ImportCSV(c *fiber.Ctx) error {
	suppliers, err := transfer.DecodeSuppliers(bytes.NewReader(c.Body()))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("Invalid CSV: %v", err),
		})
	}

	metrics.SuppliersImported.Add(float64(len(suppliers)))

	if err := h.store.LogActivity(c.Context(), "import",
		fmt.Sprintf("Imported %d suppliers from CSV", len(suppliers)), ""); err != nil {
		logger.Warn("Failed to log activity", zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"suppliers": suppliers,
		"count":     len(suppliers),
	})
}

func (h *SupplierHandler) ListSuppliers(c *fiber.Ctx) error {
	suppliers, err := h.store.GetSuppliers(c.Context())
	if err != nil {
		logger.Error("Failed to list suppliers", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list suppliers",
		})
	}

	return c.JSON(fiber.Map{
		"suppliers": suppliers,
	})
}

// GetSample returns a generated batch ranked in sample mode (noisy,
// never persisted) for demos and UI smoke tests.
func (h *SupplierHandler) GetSample(c *fiber.Ctx) error {
	count := c.QueryInt("count", h.sampleCfg.DefaultCount)
	if count <= 0 {
		count = h.sampleCfg.DefaultCount
	}
	if count > h.sampleCfg.MaxCount {
		count = h.sampleCfg.MaxCount
	}

	suppliers := sample.Suppliers(count, 0)

	result, err := h.engine.Rank(c.Context(), suppliers, ranking.Options{Sample: true})
	if err != nil {
		logger.Error("Failed to rank sample batch", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate sample data",
		})
	}

	return c.JSON(fiber.Map{
		"batch_id":  result.BatchID,
		"suppliers": result.Suppliers,
	})
}
