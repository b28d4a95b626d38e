package ranking

import (
	"errors"
	"fmt"
	"math"

	"github.com/ethicsupply/backend/internal/storage/models"
)

var ErrInvalidSupplierData = errors.New("invalid supplier data")

// InvalidSupplierError identifies the first offending record in a batch.
// Callers must exclude or fix the record before ranking again.
type InvalidSupplierError struct {
	Index  int
	Name   string
	Field  string
	Reason string
}

func (e *InvalidSupplierError) Error() string {
	return fmt.Sprintf("invalid supplier data: supplier %d (%q) field %s: %s",
		e.Index, e.Name, e.Field, e.Reason)
}

func (e *InvalidSupplierError) Unwrap() error {
	return ErrInvalidSupplierData
}

// ValidateBatch rejects records with missing or physically senseless values
// before normalization ever sees them.
func ValidateBatch(suppliers []models.Supplier) error {
	for i, s := range suppliers {
		if s.Name == "" {
			return &InvalidSupplierError{Index: i, Name: s.Name, Field: "name", Reason: "must not be empty"}
		}
		if err := checkMetric(i, s.Name, "cost", s.Cost); err != nil {
			return err
		}
		if err := checkMetric(i, s.Name, "co2", s.CO2); err != nil {
			return err
		}
		if err := checkMetric(i, s.Name, "delivery_time", s.DeliveryTime); err != nil {
			return err
		}
		if s.EthicalScore != nil {
			v := *s.EthicalScore
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return &InvalidSupplierError{Index: i, Name: s.Name, Field: "ethical_score", Reason: "must be a finite number"}
			}
			if v < 0 || v > 100 {
				return &InvalidSupplierError{Index: i, Name: s.Name, Field: "ethical_score", Reason: "must be in [0,100]"}
			}
		}
	}
	return nil
}

func checkMetric(index int, name, field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidSupplierError{Index: index, Name: name, Field: field, Reason: "must be a finite number"}
	}
	if v <= 0 {
		return &InvalidSupplierError{Index: index, Name: name, Field: field, Reason: "must be positive"}
	}
	return nil
}
