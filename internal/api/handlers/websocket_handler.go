package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/ethicsupply/backend/internal/metrics"
	"github.com/ethicsupply/backend/internal/ranking"
	"github.com/ethicsupply/backend/internal/storage/models"
	"github.com/ethicsupply/backend/internal/storage/sqlite"
	"github.com/ethicsupply/backend/pkg/config"
	"github.com/ethicsupply/backend/pkg/logger"
)

// WebSocketHandler runs ranking requests over a socket, reporting pipeline
// progress per stage before delivering the final payload. Long batches get
// feedback instead of a silent request.
type WebSocketHandler struct {
	engine *ranking.Engine
	store  *sqlite.Client
	cfg    config.RankingConfig
}

func NewWebSocketHandler(engine *ranking.Engine, store *sqlite.Client, cfg config.RankingConfig) *WebSocketHandler {
	return &WebSocketHandler{
		engine: engine,
		store:  store,
		cfg:    cfg,
	}
}

type wsRankMessage struct {
	Type            string            `json:"type"`
	Suppliers       []models.Supplier `json:"suppliers"`
	Description     string            `json:"description"`
	TopK            int               `json:"top_k"`
	Sample          bool              `json:"sample"`
	MinEthicalScore *float64          `json:"min_ethical_score"`
	Persist         *bool             `json:"persist"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg wsRankMessage
		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "rank" {
			h.sendError(c, "Unsupported message type")
			continue
		}

		if err := h.rankAndStream(c, msg); err != nil {
			logger.Error("WebSocket ranking failed", zap.Error(err))
			h.sendError(c, err.Error())
		}
	}
}

func (h *WebSocketHandler) rankAndStream(c *websocket.Conn, msg wsRankMessage) error {
	ctx := context.Background()

	if err := ranking.ValidateBatch(msg.Suppliers); err != nil {
		metrics.RankingsTotal.WithLabelValues("invalid", h.engine.PredictorName()).Inc()
		return err
	}
	h.sendStage(c, "validated", len(msg.Suppliers))

	req := RankRequest{
		Suppliers:       msg.Suppliers,
		Description:     msg.Description,
		TopK:            msg.TopK,
		Sample:          msg.Sample,
		MinEthicalScore: msg.MinEthicalScore,
		Persist:         msg.Persist,
	}

	opts := req.options(h.cfg)
	opts.OnStage = func(stage string, count int) {
		h.sendStage(c, stage, count)
	}

	result, err := h.engine.Rank(ctx, msg.Suppliers, opts)
	if err != nil {
		metrics.RankingsTotal.WithLabelValues("error", h.engine.PredictorName()).Inc()
		return err
	}
	h.sendStage(c, "ranked", len(result.Suppliers))

	observeRanking(result, msg.Sample, h.engine.PredictorName())

	var optimizationID int64
	if req.shouldPersist() && len(result.Suppliers) > 0 {
		optimizationID, err = h.store.SaveOptimization(ctx, result.Suppliers, msg.Description)
		if err != nil {
			return err
		}
		h.sendStage(c, "persisted", len(result.Suppliers))
	}

	complete := map[string]interface{}{
		"type":       "complete",
		"batch_id":   result.BatchID,
		"predictor":  result.Predictor,
		"suppliers":  result.Suppliers,
		"latency_ms": result.LatencyMS,
	}
	if optimizationID != 0 {
		complete["optimization_id"] = optimizationID
	}

	return c.WriteJSON(complete)
}

func (h *WebSocketHandler) sendStage(c *websocket.Conn, stage string, count int) {
	msg := map[string]interface{}{
		"type":          "status",
		"stage":         stage,
		"num_suppliers": count,
	}
	if err := c.WriteJSON(msg); err != nil {
		logger.Debug("Failed to send stage update", zap.Error(err))
	}
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	msg := map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	}
	if err := c.WriteJSON(msg); err != nil {
		logger.Debug("Failed to send error message", zap.Error(err))
	}
}
