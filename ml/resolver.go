package ml

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dropout-studio/dropout-studio-go/dataset"
	"github.com/dropout-studio/dropout-studio-go/utils"
)

// Missing feature values are replaced by this sentinel before modeling
const (
	SentinelNumeric     = -999.0
	SentinelCategorical = "-999"
)

// targetHints are matched case-insensitively against column names to
// suggest a likely target column
var targetHints = []string{"drop", "risk", "out"}

// SuggestTarget returns the first column whose name contains a known
// target hint, or "" when none matches.
func SuggestTarget(columns []string) string {
	for _, col := range columns {
		lower := strings.ToLower(col)
		for _, hint := range targetHints {
			if strings.Contains(lower, hint) {
				return col
			}
		}
	}
	return ""
}

// LabelCodec maps encoded integer labels back to display names.
// When Encoded is set the original labels were strings and Names is
// indexed by code; otherwise labels pass through as integers.
type LabelCodec struct {
	Encoded bool     `json:"encoded"`
	Names   []string `json:"names,omitempty"`
}

// Decode returns the display name for an encoded label
func (c *LabelCodec) Decode(label int) string {
	if c.Encoded && label >= 0 && label < len(c.Names) {
		return c.Names[label]
	}
	return strconv.Itoa(label)
}

// FeatureSchema lists the feature columns by kind. The two lists are
// disjoint and together cover every feature column, in dataset order.
type FeatureSchema struct {
	NumericColumns     []string `json:"numeric_columns"`
	CategoricalColumns []string `json:"categorical_columns"`
}

// FeatureCount returns the total number of raw feature columns
func (s *FeatureSchema) FeatureCount() int {
	return len(s.NumericColumns) + len(s.CategoricalColumns)
}

// FeatureTable holds sentinel-filled feature data in columnar row-major
// form: Numeric[i][j] is row i of schema.NumericColumns[j], likewise
// Categorical for categorical columns.
type FeatureTable struct {
	Schema      FeatureSchema
	Numeric     [][]float64
	Categorical [][]string
}

// RowCount returns the number of feature rows
func (ft *FeatureTable) RowCount() int {
	if len(ft.Numeric) > 0 {
		return len(ft.Numeric)
	}
	return len(ft.Categorical)
}

// Resolved is the modeling-ready view of a dataset: encoded labels plus
// the sentinel-filled feature table.
type Resolved struct {
	Target   string
	Labels   []int
	Codec    LabelCodec
	Features *FeatureTable
}

// Resolve splits a dataset into an encoded label vector and a feature
// table. Integer-valued targets are cast directly; any other target is
// encoded by a sorted-lexical string-to-int mapping. Rows with a missing
// target value are dropped with a warning. Missing feature values become
// the -999 sentinel.
func Resolve(ds *dataset.Dataset, target string) (*Resolved, error) {
	logger := utils.GetLogger()

	if target == "" {
		return nil, fmt.Errorf("target column is required")
	}
	targetMeta, err := ds.GetColumn(target)
	if err != nil {
		return nil, fmt.Errorf("target column %q not found in dataset", target)
	}

	// Keep only rows where the target is present
	var rows []map[string]any
	dropped := 0
	for _, row := range ds.Rows {
		if row[target] == nil {
			dropped++
			continue
		}
		rows = append(rows, row)
	}
	if dropped > 0 {
		logger.Warn("Dropped rows with missing target value",
			utils.Component("resolver"),
			utils.String("target", target),
			utils.Int("dropped", dropped))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("target column %q has no non-missing values", target)
	}

	labels, codec, err := encodeLabels(rows, target, targetMeta.IsNumeric)
	if err != nil {
		return nil, err
	}

	schema := FeatureSchema{}
	for _, col := range ds.Columns {
		if col.Name == target {
			continue
		}
		if col.IsNumeric {
			schema.NumericColumns = append(schema.NumericColumns, col.Name)
		} else {
			schema.CategoricalColumns = append(schema.CategoricalColumns, col.Name)
		}
	}

	features := &FeatureTable{
		Schema:      schema,
		Numeric:     make([][]float64, len(rows)),
		Categorical: make([][]string, len(rows)),
	}
	for i, row := range rows {
		numeric, categorical := FeatureRow(&schema, row)
		features.Numeric[i] = numeric
		features.Categorical[i] = categorical
	}

	return &Resolved{
		Target:   target,
		Labels:   labels,
		Codec:    codec,
		Features: features,
	}, nil
}

// FeatureRow projects one record onto the schema, filling missing values
// with the sentinel. Values of the wrong kind count as missing.
func FeatureRow(schema *FeatureSchema, record map[string]any) ([]float64, []string) {
	numeric := make([]float64, len(schema.NumericColumns))
	for j, col := range schema.NumericColumns {
		if v, ok := record[col].(float64); ok {
			numeric[j] = v
		} else {
			numeric[j] = SentinelNumeric
		}
	}
	categorical := make([]string, len(schema.CategoricalColumns))
	for j, col := range schema.CategoricalColumns {
		if s, ok := record[col].(string); ok && s != "" {
			categorical[j] = s
		} else {
			categorical[j] = SentinelCategorical
		}
	}
	return numeric, categorical
}

// encodeLabels turns the target column into integer labels. Numeric
// targets whose values are all integral cast directly; everything else
// gets a sorted-lexical mapping recorded in the codec.
func encodeLabels(rows []map[string]any, target string, isNumeric bool) ([]int, LabelCodec, error) {
	if isNumeric {
		labels := make([]int, len(rows))
		integral := true
		for i, row := range rows {
			v := row[target].(float64)
			if v != math.Trunc(v) {
				integral = false
				break
			}
			labels[i] = int(v)
		}
		if integral {
			return labels, LabelCodec{}, nil
		}
	}

	// Sorted-lexical string encoding
	seen := make(map[string]bool)
	var names []string
	values := make([]string, len(rows))
	for i, row := range rows {
		values[i] = labelString(row[target])
		if !seen[values[i]] {
			seen[values[i]] = true
			names = append(names, values[i])
		}
	}
	sort.Strings(names)

	codes := make(map[string]int, len(names))
	for i, name := range names {
		codes[name] = i
	}
	labels := make([]int, len(rows))
	for i, v := range values {
		labels[i] = codes[v]
	}
	return labels, LabelCodec{Encoded: true, Names: names}, nil
}

// labelString renders a target cell for encoding
func labelString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
