package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Config bounds request payloads before they reach the ranking engine.
type Config struct {
	MaxBatchSize int
	MaxBodySize  int
	Logger       *zap.Logger
}

func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = 1000
	}
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 10 * 1024 * 1024
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		if len(c.Body()) > cfg.MaxBodySize {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
				"error": "Request body exceeds maximum size",
			})
		}

		path := c.Path()

		if strings.HasSuffix(path, "/rank") {
			contentType := c.Get(fiber.HeaderContentType)
			if contentType != "" && !strings.Contains(contentType, fiber.MIMEApplicationJSON) {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Ranking requests must be application/json",
				})
			}

			var req struct {
				Suppliers []map[string]interface{} `json:"suppliers"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			if len(req.Suppliers) > cfg.MaxBatchSize {
				cfg.Logger.Warn("Oversized ranking batch rejected",
					zap.String("ip", c.IP()),
					zap.Int("batch_size", len(req.Suppliers)),
					zap.Int("max", cfg.MaxBatchSize),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Batch exceeds maximum supplier count",
				})
			}
		}

		if strings.HasSuffix(path, "/suppliers/import") {
			contentType := c.Get(fiber.HeaderContentType)
			if contentType != "" &&
				!strings.Contains(contentType, "text/csv") &&
				!strings.Contains(contentType, "text/plain") &&
				!strings.Contains(contentType, fiber.MIMEOctetStream) {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Imports must be text/csv",
				})
			}
		}

		return c.Next()
	}
}
