package ml

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers numeric columns to zero mean and unit variance.
// Zero-variance columns pass through centered only.
type StandardScaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

// Fit computes per-column means and standard deviations
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("scaler: no rows to fit")
	}
	width := len(X[0])
	s.Means = make([]float64, width)
	s.Stds = make([]float64, width)

	column := make([]float64, len(X))
	for j := 0; j < width; j++ {
		for i, row := range X {
			column[i] = row[j]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if math.IsNaN(std) || std == 0 {
			std = 1
		}
		s.Means[j] = mean
		s.Stds[j] = std
	}
	return nil
}

// Transform standardizes rows using the fitted statistics
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(s.Means) {
			return nil, fmt.Errorf("scaler: row %d has %d columns, fitted on %d", i, len(row), len(s.Means))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Means[j]) / s.Stds[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// OneHotEncoder expands categorical columns into indicator columns, one
// per category observed during Fit. Categories sort lexically within each
// column. Unknown values at transform time encode as all zeros.
type OneHotEncoder struct {
	Columns    []string   `json:"columns"`
	Categories [][]string `json:"categories"`
}

// Fit records the sorted distinct categories of each column
func (e *OneHotEncoder) Fit(columns []string, X [][]string) error {
	e.Columns = columns
	e.Categories = make([][]string, len(columns))

	for j := range columns {
		seen := make(map[string]bool)
		var cats []string
		for _, row := range X {
			if j >= len(row) {
				return fmt.Errorf("one-hot: row has %d columns, expected %d", len(row), len(columns))
			}
			if !seen[row[j]] {
				seen[row[j]] = true
				cats = append(cats, row[j])
			}
		}
		sort.Strings(cats)
		e.Categories[j] = cats
	}
	return nil
}

// Transform one-hot encodes rows using the fitted categories
func (e *OneHotEncoder) Transform(X [][]string) ([][]float64, error) {
	width := e.Width()
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(e.Columns) {
			return nil, fmt.Errorf("one-hot: row %d has %d columns, fitted on %d", i, len(row), len(e.Columns))
		}
		encoded := make([]float64, width)
		offset := 0
		for j, value := range row {
			for k, cat := range e.Categories[j] {
				if value == cat {
					encoded[offset+k] = 1
					break
				}
			}
			offset += len(e.Categories[j])
		}
		out[i] = encoded
	}
	return out, nil
}

// Width returns the number of encoded output columns
func (e *OneHotEncoder) Width() int {
	width := 0
	for _, cats := range e.Categories {
		width += len(cats)
	}
	return width
}

// FeatureNames returns the expanded column names as "column_category"
func (e *OneHotEncoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	for j, col := range e.Columns {
		for _, cat := range e.Categories[j] {
			names = append(names, col+"_"+cat)
		}
	}
	return names
}

// ColumnTransformer applies the standard scaler to numeric columns and
// one-hot encoding to categorical columns, concatenating the results.
// Either side is skipped when it has no columns.
type ColumnTransformer struct {
	Schema  FeatureSchema   `json:"schema"`
	Scaler  *StandardScaler `json:"scaler,omitempty"`
	Encoder *OneHotEncoder  `json:"encoder,omitempty"`
}

// NewColumnTransformer builds an unfitted transformer for the schema
func NewColumnTransformer(schema FeatureSchema) *ColumnTransformer {
	ct := &ColumnTransformer{Schema: schema}
	if len(schema.NumericColumns) > 0 {
		ct.Scaler = &StandardScaler{}
	}
	if len(schema.CategoricalColumns) > 0 {
		ct.Encoder = &OneHotEncoder{}
	}
	return ct
}

// Fit fits both sides on the feature table
func (ct *ColumnTransformer) Fit(ft *FeatureTable) error {
	if ct.Schema.FeatureCount() == 0 {
		return fmt.Errorf("no feature columns to transform")
	}
	if ct.Scaler != nil {
		if err := ct.Scaler.Fit(ft.Numeric); err != nil {
			return err
		}
	}
	if ct.Encoder != nil {
		if err := ct.Encoder.Fit(ct.Schema.CategoricalColumns, ft.Categorical); err != nil {
			return err
		}
	}
	return nil
}

// Transform produces the dense numeric design matrix, numeric columns
// first then one-hot columns.
func (ct *ColumnTransformer) Transform(numeric [][]float64, categorical [][]string) ([][]float64, error) {
	rows := len(numeric)
	if rows == 0 {
		rows = len(categorical)
	}

	var scaled [][]float64
	var err error
	if ct.Scaler != nil {
		scaled, err = ct.Scaler.Transform(numeric)
		if err != nil {
			return nil, err
		}
	}

	var encoded [][]float64
	if ct.Encoder != nil {
		encoded, err = ct.Encoder.Transform(categorical)
		if err != nil {
			return nil, err
		}
	}

	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, 0, ct.Width())
		if scaled != nil {
			row = append(row, scaled[i]...)
		}
		if encoded != nil {
			row = append(row, encoded[i]...)
		}
		out[i] = row
	}
	return out, nil
}

// Width returns the number of transformed output columns
func (ct *ColumnTransformer) Width() int {
	width := 0
	if ct.Scaler != nil {
		width += len(ct.Scaler.Means)
	}
	if ct.Encoder != nil {
		width += ct.Encoder.Width()
	}
	return width
}

// FeatureNames returns the transformed column names: numeric names
// followed by one-hot expanded names. Falls back to the raw categorical
// names when the encoder has not been fitted.
func (ct *ColumnTransformer) FeatureNames() []string {
	names := make([]string, 0, ct.Width())
	names = append(names, ct.Schema.NumericColumns...)
	if ct.Encoder != nil && len(ct.Encoder.Categories) > 0 {
		names = append(names, ct.Encoder.FeatureNames()...)
	} else {
		names = append(names, ct.Schema.CategoricalColumns...)
	}
	return names
}
