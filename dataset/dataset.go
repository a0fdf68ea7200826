// Package dataset loads tabular data from uploaded CSV/Excel files or a
// built-in synthetic generator and exposes it as a uniform column-typed table.
package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Dataset represents a tabular dataset with typed columns.
// Rows hold float64 values for numeric columns, string values for
// categorical columns, and nil for missing cells.
type Dataset struct {
	Source      string           `json:"source"` // "csv", "excel", "demo"
	Columns     []ColumnMetadata `json:"columns"`
	ColumnCount int              `json:"column_count"`
	Rows        []map[string]any `json:"rows"`
	RowCount    int              `json:"row_count"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ColumnMetadata describes a column's characteristics
type ColumnMetadata struct {
	Name      string `json:"name"`
	Index     int    `json:"index"`
	DataType  string `json:"data_type"` // "numeric" or "string"
	IsNumeric bool   `json:"is_numeric"`
	HasNulls  bool   `json:"has_nulls"`
	NullCount int    `json:"null_count"`

	// Statistical summary, numeric columns only
	Stats *ColumnStats `json:"stats,omitempty"`

	// Observed distinct values in first-occurrence order, categorical columns only
	DistinctValues []string `json:"distinct_values,omitempty"`
}

// ColumnStats contains statistical information for numeric columns
type ColumnStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// Validate checks if the Dataset is internally consistent
func (ds *Dataset) Validate() error {
	if ds.RowCount == 0 {
		return fmt.Errorf("dataset is empty (0 rows)")
	}
	if ds.ColumnCount == 0 {
		return fmt.Errorf("dataset has no columns")
	}
	if len(ds.Columns) != ds.ColumnCount {
		return fmt.Errorf("column count mismatch: expected %d, got %d", ds.ColumnCount, len(ds.Columns))
	}
	if len(ds.Rows) != ds.RowCount {
		return fmt.Errorf("row count mismatch: expected %d, got %d", ds.RowCount, len(ds.Rows))
	}
	return nil
}

// ColumnNames returns the column names in source order
func (ds *Dataset) ColumnNames() []string {
	names := make([]string, len(ds.Columns))
	for i, col := range ds.Columns {
		names[i] = col.Name
	}
	return names
}

// GetColumn returns metadata for a named column
func (ds *Dataset) GetColumn(name string) (*ColumnMetadata, error) {
	for i := range ds.Columns {
		if ds.Columns[i].Name == name {
			return &ds.Columns[i], nil
		}
	}
	return nil, fmt.Errorf("column not found: %s", name)
}

// HasColumn reports whether the dataset contains the named column
func (ds *Dataset) HasColumn(name string) bool {
	_, err := ds.GetColumn(name)
	return err == nil
}

// newDatasetFromCells builds a Dataset from a header row and string cells,
// inferring column types. A column is numeric when every non-empty cell
// parses as a float; otherwise it is categorical. Empty cells become nil.
func newDatasetFromCells(source string, header []string, cells [][]string) (*Dataset, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("header row is empty")
	}
	for i, row := range cells {
		if len(row) > len(header) {
			return nil, fmt.Errorf("row %d has %d cells but header has %d columns", i+1, len(row), len(header))
		}
	}

	ds := &Dataset{
		Source:      source,
		ColumnCount: len(header),
		RowCount:    len(cells),
		CreatedAt:   time.Now(),
	}

	// Decide column types from the full column contents
	numeric := make([]bool, len(header))
	for j := range header {
		numeric[j] = true
		seen := false
		for _, row := range cells {
			if j >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[j])
			if cell == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric[j] = false
				break
			}
		}
		if !seen {
			numeric[j] = false
		}
	}

	// Materialize typed rows
	ds.Rows = make([]map[string]any, len(cells))
	for i, row := range cells {
		typed := make(map[string]any, len(header))
		for j, name := range header {
			var cell string
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
			}
			if cell == "" {
				typed[name] = nil
				continue
			}
			if numeric[j] {
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("row %d, column %q: %w", i+1, name, err)
				}
				typed[name] = v
			} else {
				typed[name] = cell
			}
		}
		ds.Rows[i] = typed
	}

	// Build column metadata
	ds.Columns = make([]ColumnMetadata, len(header))
	for j, name := range header {
		meta := ColumnMetadata{
			Name:      name,
			Index:     j,
			IsNumeric: numeric[j],
		}
		if numeric[j] {
			meta.DataType = "numeric"
		} else {
			meta.DataType = "string"
		}
		for _, row := range ds.Rows {
			if row[name] == nil {
				meta.NullCount++
			}
		}
		meta.HasNulls = meta.NullCount > 0
		if meta.IsNumeric {
			meta.Stats = computeColumnStats(ds.Rows, name)
		} else {
			meta.DistinctValues = distinctStrings(ds.Rows, name)
		}
		ds.Columns[j] = meta
	}

	return ds, nil
}

// computeColumnStats computes statistics over non-missing numeric values
func computeColumnStats(rows []map[string]any, columnName string) *ColumnStats {
	var values []float64
	for _, row := range rows {
		if v, ok := row[columnName].(float64); ok {
			values = append(values, v)
		}
	}

	stats := &ColumnStats{Count: len(values)}
	if len(values) == 0 {
		return stats
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	stats.Min = sorted[0]
	stats.Max = sorted[len(sorted)-1]
	stats.Mean = stat.Mean(values, nil)
	stats.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	return stats
}

// distinctStrings returns distinct non-missing string values in first-occurrence order
func distinctStrings(rows []map[string]any, columnName string) []string {
	seen := make(map[string]bool)
	var distinct []string
	for _, row := range rows {
		if s, ok := row[columnName].(string); ok {
			if !seen[s] {
				seen[s] = true
				distinct = append(distinct, s)
			}
		}
	}
	return distinct
}
