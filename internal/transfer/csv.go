// Package transfer decodes and encodes the supplier CSV schema used for
// import and export: name, cost, co2, delivery_time, and an optional
// ethical_score column.
package transfer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ethicsupply/backend/internal/storage/models"
)

var requiredColumns = []string{"name", "cost", "co2", "delivery_time"}

const ethicalColumn = "ethical_score"

// DecodeSuppliers parses supplier records. The first row must be a header
// naming at least the required columns, in any order. Rows with missing or
// non-numeric values fail the whole import with the row number reported.
func DecodeSuppliers(r io.Reader) ([]models.Supplier, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}
	_, hasEthical := index[ethicalColumn]

	var suppliers []models.Supplier
	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row %d: %w", row, err)
		}

		s := models.Supplier{Name: strings.TrimSpace(record[index["name"]])}
		if s.Name == "" {
			return nil, fmt.Errorf("row %d: name must not be empty", row)
		}

		if s.Cost, err = parseField(record, index, "cost", row); err != nil {
			return nil, err
		}
		if s.CO2, err = parseField(record, index, "co2", row); err != nil {
			return nil, err
		}
		if s.DeliveryTime, err = parseField(record, index, "delivery_time", row); err != nil {
			return nil, err
		}

		if hasEthical {
			raw := strings.TrimSpace(record[index[ethicalColumn]])
			if raw != "" {
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, fmt.Errorf("row %d: invalid %s %q", row, ethicalColumn, raw)
				}
				s.EthicalScore = &v
			}
		}

		suppliers = append(suppliers, s)
	}

	return suppliers, nil
}

func parseField(record []string, index map[string]int, column string, row int) (float64, error) {
	raw := strings.TrimSpace(record[index[column]])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: invalid %s %q", row, column, raw)
	}
	return v, nil
}

// EncodeResults writes a persisted run's results, one row per supplier in
// the given order, with predicted_score and selected appended to the
// import schema.
func EncodeResults(w io.Writer, results []models.OptimizationResult) error {
	writer := csv.NewWriter(w)

	header := []string{"name", "cost", "co2", "delivery_time", "ethical_score", "predicted_score", "selected"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range results {
		selected := "0"
		if r.Selected {
			selected = "1"
		}

		row := []string{
			r.Name,
			formatFloat(r.Cost),
			formatFloat(r.CO2),
			formatFloat(r.DeliveryTime),
			formatFloat(r.EthicalScore),
			formatFloat(r.PredictedScore),
			selected,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
