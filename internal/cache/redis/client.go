package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ethicsupply/backend/internal/storage/models"
	"github.com/ethicsupply/backend/pkg/logger"
)

// Client caches the results of persisted optimization runs. Runs are
// immutable once saved, so cached entries never need invalidation, only
// expiry.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func resultsKey(optimizationID int64) string {
	return fmt.Sprintf("optimization:%d:results", optimizationID)
}

func (c *Client) SetResults(ctx context.Context, optimizationID int64, results []models.OptimizationResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := c.client.Set(ctx, resultsKey(optimizationID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set results cache: %w", err)
	}

	logger.Debug("Optimization results cached", zap.Int64("optimization_id", optimizationID))
	return nil
}

// GetResults returns (nil, false, nil) on a cache miss.
func (c *Client) GetResults(ctx context.Context, optimizationID int64) ([]models.OptimizationResult, bool, error) {
	data, err := c.client.Get(ctx, resultsKey(optimizationID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get results cache: %w", err)
	}

	var results []models.OptimizationResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal results: %w", err)
	}

	logger.Debug("Optimization results cache hit", zap.Int64("optimization_id", optimizationID))
	return results, true, nil
}
