package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/dropout-studio/dropout-studio-go/utils"
)

// TrainOptions selects algorithms and controls the train/test split
type TrainOptions struct {
	Algorithms []string `json:"algorithms"`
	TestSize   int      `json:"test_size"` // percent of rows held out, 10-50
	Seed       int64    `json:"seed"`      // 0-9999
}

// Validate checks option ranges and catalog membership
func (o *TrainOptions) Validate() error {
	if len(o.Algorithms) == 0 {
		return fmt.Errorf("at least one algorithm must be selected")
	}
	for _, name := range o.Algorithms {
		if !InCatalog(name) {
			return fmt.Errorf("unknown algorithm: %s", name)
		}
	}
	if o.TestSize < 10 || o.TestSize > 50 {
		return fmt.Errorf("test size must be between 10 and 50 percent, got %d", o.TestSize)
	}
	if o.Seed < 0 || o.Seed > 9999 {
		return fmt.Errorf("seed must be between 0 and 9999, got %d", o.Seed)
	}
	return nil
}

// TrainedModel is one successfully trained catalog entry
type TrainedModel struct {
	Algorithm  string
	Pipeline   *Pipeline
	Accuracy   float64
	Predicted  []int
	Confusion  *ConfusionMatrix
	Importance []FeatureWeight // nil when the learner has no importance surface
}

// FieldDefault seeds one input of the single-prediction form
type FieldDefault struct {
	Column  string   `json:"column"`
	Numeric bool     `json:"numeric"`
	Value   any      `json:"value"`
	Choices []string `json:"choices,omitempty"`
}

// TrainResult is the complete outcome of one training run: the models
// that trained, the held-out split they share, and the schema needed for
// later predictions. It replaces a session's previous result wholesale.
type TrainResult struct {
	Models          []*TrainedModel
	Warnings        []string
	Codec           LabelCodec
	Schema          FeatureSchema
	TestNumeric     [][]float64
	TestCategorical [][]string
	TestLabels      []int
	FormDefaults    []FieldDefault
	TrainedAt       time.Time
}

// Model returns the trained entry for an algorithm, or nil
func (r *TrainResult) Model(algorithm string) *TrainedModel {
	for _, m := range r.Models {
		if m.Algorithm == algorithm {
			return m
		}
	}
	return nil
}

// Best returns the entry with the highest accuracy, catalog order
// breaking ties. Nil when nothing trained.
func (r *TrainResult) Best() *TrainedModel {
	var best *TrainedModel
	for _, m := range r.Models {
		if best == nil || m.Accuracy > best.Accuracy {
			best = m
		}
	}
	return best
}

// Train runs the selected algorithms against one seeded split of the
// resolved dataset. A failing algorithm is logged and reported as a
// warning; its siblings still train.
func Train(resolved *Resolved, opts TrainOptions) (*TrainResult, error) {
	logger := utils.GetLogger()

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if resolved.Features.Schema.FeatureCount() == 0 {
		return nil, fmt.Errorf("dataset has no feature columns besides the target")
	}
	if resolved.Features.RowCount() < 4 {
		return nil, fmt.Errorf("dataset too small to split: %d rows", resolved.Features.RowCount())
	}

	trainIdx, testIdx := splitIndices(resolved.Labels, float64(opts.TestSize)/100, opts.Seed)

	trainTable := subsetTable(resolved.Features, trainIdx)
	trainLabels := subsetLabels(resolved.Labels, trainIdx)
	testTable := subsetTable(resolved.Features, testIdx)
	testLabels := subsetLabels(resolved.Labels, testIdx)

	result := &TrainResult{
		Codec:           resolved.Codec,
		Schema:          resolved.Features.Schema,
		TestNumeric:     testTable.Numeric,
		TestCategorical: testTable.Categorical,
		TestLabels:      testLabels,
		FormDefaults:    formDefaults(resolved.Features),
		TrainedAt:       time.Now(),
	}

	// Catalog order, filtered to the selection
	selected := make(map[string]bool, len(opts.Algorithms))
	for _, name := range opts.Algorithms {
		selected[name] = true
	}

	for _, algorithm := range Catalog {
		if !selected[algorithm] {
			continue
		}

		model, err := trainOne(algorithm, trainTable, trainLabels, testTable, testLabels, resolved.Codec, opts.Seed)
		if err != nil {
			logger.Warn("Algorithm failed to train",
				utils.Component("trainer"),
				utils.String("algorithm", algorithm),
				utils.Error(err))
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s failed: %v", algorithm, err))
			continue
		}

		logger.Info("Algorithm trained",
			utils.Component("trainer"),
			utils.String("algorithm", algorithm),
			utils.Float("accuracy", model.Accuracy),
			utils.Int("test_rows", len(testLabels)))
		result.Models = append(result.Models, model)
	}

	return result, nil
}

// trainOne fits and evaluates a single catalog algorithm
func trainOne(algorithm string, trainTable *FeatureTable, trainLabels []int,
	testTable *FeatureTable, testLabels []int, codec LabelCodec, seed int64) (*TrainedModel, error) {

	pipeline, err := NewPipeline(algorithm, trainTable.Schema, seed)
	if err != nil {
		return nil, err
	}
	pipeline.Codec = codec

	if err := pipeline.Fit(trainTable, trainLabels); err != nil {
		return nil, err
	}

	predicted, err := pipeline.Predict(testTable.Numeric, testTable.Categorical)
	if err != nil {
		return nil, err
	}

	accuracy, err := Accuracy(testLabels, predicted)
	if err != nil {
		return nil, err
	}

	confusion, err := NewConfusionMatrix(testLabels, predicted, &codec)
	if err != nil {
		return nil, err
	}

	return &TrainedModel{
		Algorithm:  algorithm,
		Pipeline:   pipeline,
		Accuracy:   accuracy,
		Predicted:  predicted,
		Confusion:  confusion,
		Importance: ExtractImportance(algorithm, pipeline.Learner, pipeline.FeatureNames()),
	}, nil
}

// splitIndices partitions row indices into train/test with a seeded
// shuffle, stratified by label when at least two distinct labels exist.
// The test side gets round(N*fraction) rows, within one per stratum.
func splitIndices(labels []int, testFraction float64, seed int64) ([]int, []int) {
	n := len(labels)
	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	var train, test []int
	if len(distinctClasses(labels)) >= 2 {
		// Group the shuffled order by label, then slice each group
		groups := make(map[int][]int)
		var order []int
		for _, i := range perm {
			label := labels[i]
			if _, ok := groups[label]; !ok {
				order = append(order, label)
			}
			groups[label] = append(groups[label], i)
		}
		sort.Ints(order)

		for _, label := range order {
			group := groups[label]
			take := int(math.Round(float64(len(group)) * testFraction))
			test = append(test, group[:take]...)
			train = append(train, group[take:]...)
		}
	} else {
		take := int(math.Round(float64(n) * testFraction))
		test = append(test, perm[:take]...)
		train = append(train, perm[take:]...)
	}

	// Neither side may be empty
	if len(test) == 0 && len(train) > 1 {
		test = append(test, train[len(train)-1])
		train = train[:len(train)-1]
	}
	if len(train) == 0 && len(test) > 1 {
		train = append(train, test[len(test)-1])
		test = test[:len(test)-1]
	}
	return train, test
}

// subsetTable materializes a feature table for the given row indices
func subsetTable(ft *FeatureTable, indices []int) *FeatureTable {
	out := &FeatureTable{
		Schema:      ft.Schema,
		Numeric:     make([][]float64, len(indices)),
		Categorical: make([][]string, len(indices)),
	}
	for pos, i := range indices {
		out.Numeric[pos] = ft.Numeric[i]
		out.Categorical[pos] = ft.Categorical[i]
	}
	return out
}

// subsetLabels picks labels for the given row indices
func subsetLabels(labels []int, indices []int) []int {
	out := make([]int, len(indices))
	for pos, i := range indices {
		out[pos] = labels[i]
	}
	return out
}

// formDefaults derives prediction-form seeds from the feature table:
// column medians for numeric fields, the first observed value plus the
// full observed list for categorical fields.
func formDefaults(ft *FeatureTable) []FieldDefault {
	var defaults []FieldDefault

	column := make([]float64, len(ft.Numeric))
	for j, name := range ft.Schema.NumericColumns {
		for i, row := range ft.Numeric {
			column[i] = row[j]
		}
		sorted := make([]float64, len(column))
		copy(sorted, column)
		sort.Float64s(sorted)

		median := 0.0
		if len(sorted) > 0 {
			median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
		}
		defaults = append(defaults, FieldDefault{
			Column:  name,
			Numeric: true,
			Value:   median,
		})
	}

	for j, name := range ft.Schema.CategoricalColumns {
		seen := make(map[string]bool)
		var choices []string
		for _, row := range ft.Categorical {
			if !seen[row[j]] {
				seen[row[j]] = true
				choices = append(choices, row[j])
			}
		}
		field := FieldDefault{
			Column:  name,
			Numeric: false,
			Choices: choices,
		}
		if len(choices) > 0 {
			field.Value = choices[0]
		}
		defaults = append(defaults, field)
	}

	return defaults
}
