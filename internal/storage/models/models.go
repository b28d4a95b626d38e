package models

import "time"

// Supplier is one candidate in a ranking batch. EthicalScore is nil when
// the caller did not supply one; the ranking engine synthesizes and sets it
// so persisted suppliers always carry a concrete value.
type Supplier struct {
	ID             int64    `json:"id,omitempty"`
	Name           string   `json:"name"`
	Cost           float64  `json:"cost"`
	CO2            float64  `json:"co2"`
	DeliveryTime   float64  `json:"delivery_time"`
	EthicalScore   *float64 `json:"ethical_score,omitempty"`
	PredictedScore float64  `json:"predicted_score"`
	Selected       bool     `json:"selected"`
}

// EthicalScoreValue returns the ethical score or 0 when unset.
func (s Supplier) EthicalScoreValue() float64 {
	if s.EthicalScore == nil {
		return 0
	}
	return *s.EthicalScore
}

// OptimizationRun is the append-only record of one ranking invocation.
type OptimizationRun struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Description  string    `json:"description"`
	NumSuppliers int       `json:"num_suppliers"`
}

// OptimizationResult is one supplier's outcome within a persisted run.
type OptimizationResult struct {
	Name           string  `json:"name"`
	Cost           float64 `json:"cost"`
	CO2            float64 `json:"co2"`
	DeliveryTime   float64 `json:"delivery_time"`
	EthicalScore   float64 `json:"ethical_score"`
	PredictedScore float64 `json:"predicted_score"`
	Selected       bool    `json:"selected"`
}

type Activity struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	Details      string    `json:"details,omitempty"`
}

// TrendPoint aggregates the selected suppliers of one run.
type TrendPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	AvgCost     float64   `json:"avg_cost"`
	AvgCO2      float64   `json:"avg_co2"`
	AvgDelivery float64   `json:"avg_delivery"`
	AvgEthical  float64   `json:"avg_ethical"`
}
