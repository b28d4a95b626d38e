package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ethicsupply/backend/internal/storage/models"
	"github.com/ethicsupply/backend/pkg/logger"
	"github.com/ethicsupply/backend/pkg/retry"
)

// timestampLayout is the TEXT format stored for optimization and
// activity timestamps.
const timestampLayout = "2006-01-02 15:04:05"

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.db.PingContext(ctx)
}

// migrations is the versioned schema. Version N is the statement at index
// N-1; the schema_version table records the highest applied version.
var migrations = []string{
	`
	CREATE TABLE IF NOT EXISTS suppliers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		cost REAL NOT NULL,
		co2 REAL NOT NULL,
		delivery_time REAL NOT NULL,
		ethical_score REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS optimizations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		description TEXT,
		num_suppliers INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_optimizations_timestamp ON optimizations(timestamp);

	CREATE TABLE IF NOT EXISTS optimization_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		optimization_id INTEGER NOT NULL,
		supplier_id INTEGER NOT NULL,
		score REAL NOT NULL,
		selected INTEGER NOT NULL,
		FOREIGN KEY (optimization_id) REFERENCES optimizations (id),
		FOREIGN KEY (supplier_id) REFERENCES suppliers (id)
	);
	CREATE INDEX IF NOT EXISTS idx_results_optimization ON optimization_results(optimization_id);

	CREATE TABLE IF NOT EXISTS activities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		activity_type TEXT NOT NULL,
		description TEXT NOT NULL,
		details TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_activities_timestamp ON activities(timestamp);
	`,
}

func (c *Client) InitSchema() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var current sql.NullInt64
	err = c.db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	applied := int(current.Int64)
	for version := applied + 1; version <= len(migrations); version++ {
		tx, err := c.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", version, err)
		}

		if _, err := tx.Exec(migrations[version-1]); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", version, err)
		}

		logger.Info("Schema migration applied", zap.Int("version", version))
	}

	return nil
}

// isBusy reports whether an error is a transient SQLITE_BUSY/LOCKED
// condition worth retrying.
func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func writeRetryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.Retryable = isBusy
	cfg.Logger = logger.Log
	return cfg
}

// SaveOptimization persists one ranking run in a single transaction: the
// run row, its suppliers (with their final ethical scores), and one result
// row per supplier carrying the score and selected flag. Runs are
// append-only; nothing updates them afterwards.
func (c *Client) SaveOptimization(ctx context.Context, suppliers []models.Supplier, description string) (int64, error) {
	timestamp := time.Now().Format(timestampLayout)
	if description == "" {
		description = fmt.Sprintf("Optimization run at %s", timestamp)
	}

	return retry.DoWithResult(ctx, writeRetryConfig(), func() (int64, error) {
		return c.saveOptimizationOnce(ctx, suppliers, description, timestamp)
	})
}

func (c *Client) saveOptimizationOnce(ctx context.Context, suppliers []models.Supplier, description, timestamp string) (int64, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO optimizations (timestamp, description, num_suppliers)
		VALUES (?, ?, ?)
	`, timestamp, description, len(suppliers))
	if err != nil {
		return 0, fmt.Errorf("failed to insert optimization: %w", err)
	}

	optimizationID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get optimization id: %w", err)
	}

	for _, s := range suppliers {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO suppliers (name, cost, co2, delivery_time, ethical_score)
			VALUES (?, ?, ?, ?, ?)
		`, s.Name, s.Cost, s.CO2, s.DeliveryTime, s.EthicalScoreValue())
		if err != nil {
			return 0, fmt.Errorf("failed to insert supplier: %w", err)
		}

		supplierID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to get supplier id: %w", err)
		}

		selected := 0
		if s.Selected {
			selected = 1
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO optimization_results (optimization_id, supplier_id, score, selected)
			VALUES (?, ?, ?, ?)
		`, optimizationID, supplierID, s.PredictedScore, selected)
		if err != nil {
			return 0, fmt.Errorf("failed to insert optimization result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit optimization: %w", err)
	}

	logger.Info("Optimization saved",
		zap.Int64("optimization_id", optimizationID),
		zap.Int("num_suppliers", len(suppliers)),
	)

	return optimizationID, nil
}

func (c *Client) GetOptimizations(ctx context.Context, limit int) ([]models.OptimizationRun, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, timestamp, description, num_suppliers
		FROM optimizations
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get optimizations: %w", err)
	}
	defer rows.Close()

	var runs []models.OptimizationRun
	for rows.Next() {
		var run models.OptimizationRun
		var timestamp string

		if err := rows.Scan(&run.ID, &timestamp, &run.Description, &run.NumSuppliers); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		run.Timestamp, err = time.ParseInLocation(timestampLayout, timestamp, time.Local)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

var ErrOptimizationNotFound = errors.New("optimization not found")

func (c *Client) GetOptimizationResults(ctx context.Context, optimizationID int64) ([]models.OptimizationResult, error) {
	var exists int
	err := c.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM optimizations WHERE id = ?", optimizationID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check optimization: %w", err)
	}
	if exists == 0 {
		return nil, ErrOptimizationNotFound
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT s.name, s.cost, s.co2, s.delivery_time, s.ethical_score,
		       r.score, r.selected
		FROM optimization_results r
		JOIN suppliers s ON r.supplier_id = s.id
		WHERE r.optimization_id = ?
		ORDER BY r.score DESC, r.id ASC
	`, optimizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get optimization results: %w", err)
	}
	defer rows.Close()

	var results []models.OptimizationResult
	for rows.Next() {
		var r models.OptimizationResult
		var selected int

		err := rows.Scan(&r.Name, &r.Cost, &r.CO2, &r.DeliveryTime,
			&r.EthicalScore, &r.PredictedScore, &selected)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.Selected = selected == 1
		results = append(results, r)
	}

	return results, rows.Err()
}

// GetOptimizationTrends averages the selected suppliers of the most recent
// runs, returned in chronological order for trend charts.
func (c *Client) GetOptimizationTrends(ctx context.Context, limit int) ([]models.TrendPoint, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT o.timestamp,
		       AVG(CASE WHEN r.selected = 1 THEN s.cost ELSE NULL END),
		       AVG(CASE WHEN r.selected = 1 THEN s.co2 ELSE NULL END),
		       AVG(CASE WHEN r.selected = 1 THEN s.delivery_time ELSE NULL END),
		       AVG(CASE WHEN r.selected = 1 THEN s.ethical_score ELSE NULL END)
		FROM optimizations o
		JOIN optimization_results r ON o.id = r.optimization_id
		JOIN suppliers s ON r.supplier_id = s.id
		GROUP BY o.id
		ORDER BY o.timestamp DESC, o.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get optimization trends: %w", err)
	}
	defer rows.Close()

	var points []models.TrendPoint
	for rows.Next() {
		var p models.TrendPoint
		var timestamp string
		var avgCost, avgCO2, avgDelivery, avgEthical sql.NullFloat64

		if err := rows.Scan(&timestamp, &avgCost, &avgCO2, &avgDelivery, &avgEthical); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		p.Timestamp, err = time.ParseInLocation(timestampLayout, timestamp, time.Local)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}
		p.AvgCost = avgCost.Float64
		p.AvgCO2 = avgCO2.Float64
		p.AvgDelivery = avgDelivery.Float64
		p.AvgEthical = avgEthical.Float64
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Newest-first from the query; charts want chronological order.
	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}

	return points, nil
}

func (c *Client) LogActivity(ctx context.Context, activityType, description, details string) error {
	timestamp := time.Now().Format(timestampLayout)

	return retry.Do(ctx, writeRetryConfig(), func() error {
		_, err := c.db.ExecContext(ctx, `
			INSERT INTO activities (timestamp, activity_type, description, details)
			VALUES (?, ?, ?, ?)
		`, timestamp, activityType, description, details)
		if err != nil {
			return fmt.Errorf("failed to log activity: %w", err)
		}
		return nil
	})
}

func (c *Client) GetRecentActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, timestamp, activity_type, description, COALESCE(details, '')
		FROM activities
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		var timestamp string

		if err := rows.Scan(&a.ID, &timestamp, &a.ActivityType, &a.Description, &a.Details); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		a.Timestamp, err = time.ParseInLocation(timestampLayout, timestamp, time.Local)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}
		activities = append(activities, a)
	}

	return activities, rows.Err()
}

func (c *Client) GetSuppliers(ctx context.Context) ([]models.Supplier, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, name, cost, co2, delivery_time, ethical_score
		FROM suppliers
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []models.Supplier
	for rows.Next() {
		var s models.Supplier
		var ethical float64

		if err := rows.Scan(&s.ID, &s.Name, &s.Cost, &s.CO2, &s.DeliveryTime, &ethical); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		s.EthicalScore = &ethical
		suppliers = append(suppliers, s)
	}

	return suppliers, rows.Err()
}
