// Package ml implements the modeling workflow: target resolution,
// preprocessing, a fixed catalog of classifiers, training with a seeded
// stratified split, evaluation, and feature-importance extraction.
package ml

import (
	"fmt"
	"sort"
)

// Capability flags describe what a learner can report beyond predictions.
// Importance extraction and probability handling dispatch on these flags
// rather than probing the concrete type.
type Capability uint8

const (
	// CapProbability means PredictProba returns calibrated class probabilities
	CapProbability Capability = 1 << iota
	// CapNativeImportance means FeatureImportances reports per-feature scores
	CapNativeImportance
	// CapLinearCoefficients means Coefficients reports per-class weight vectors
	CapLinearCoefficients
)

// Has reports whether the flag set includes the given capability
func (c Capability) Has(flag Capability) bool {
	return c&flag != 0
}

// Learner is a classifier over a dense numeric feature matrix with
// integer-encoded labels.
type Learner interface {
	Name() string

	// Fit trains on row-major features X and labels y
	Fit(X [][]float64, y []int) error

	// Predict returns one label per row of X
	Predict(X [][]float64) ([]int, error)

	// PredictProba returns per-row class probabilities, columns ordered
	// as Classes(). Valid only when CapProbability is set.
	PredictProba(X [][]float64) ([][]float64, error)

	// Classes returns the sorted distinct labels seen during Fit
	Classes() []int

	Capabilities() Capability

	// FeatureImportances returns per-feature scores summing to 1, or nil
	// when CapNativeImportance is unset
	FeatureImportances() []float64

	// Coefficients returns one weight vector per fitted class (a single
	// vector for binary problems), or nil when CapLinearCoefficients is unset
	Coefficients() [][]float64
}

// Catalog is the fixed set of selectable algorithms, in iteration order.
// Order matters: best-model ties are broken by position here.
var Catalog = []string{
	"Logistic Regression",
	"Random Forest",
	"Gradient Boosting",
	"Decision Tree",
	"SVM",
	"KNN",
	"Naive Bayes",
}

// InCatalog reports whether the name is a known algorithm
func InCatalog(name string) bool {
	for _, n := range Catalog {
		if n == name {
			return true
		}
	}
	return false
}

// CatalogIndex returns the catalog position of an algorithm, or -1
func CatalogIndex(name string) int {
	for i, n := range Catalog {
		if n == name {
			return i
		}
	}
	return -1
}

// NewLearner constructs an untrained learner for a catalog algorithm.
// The seed drives every stochastic learner; deterministic learners ignore it.
func NewLearner(name string, seed int64) (Learner, error) {
	switch name {
	case "Logistic Regression":
		return NewLogisticRegression(), nil
	case "Random Forest":
		return NewRandomForest(200, seed), nil
	case "Gradient Boosting":
		return NewGradientBoosting(), nil
	case "Decision Tree":
		return NewDecisionTree(), nil
	case "SVM":
		return NewSVC(seed), nil
	case "KNN":
		return NewKNN(5), nil
	case "Naive Bayes":
		return NewGaussianNB(), nil
	default:
		return nil, fmt.Errorf("unknown algorithm: %s", name)
	}
}

// distinctClasses returns the sorted distinct labels in y
func distinctClasses(y []int) []int {
	seen := make(map[int]bool)
	var classes []int
	for _, label := range y {
		if !seen[label] {
			seen[label] = true
			classes = append(classes, label)
		}
	}
	sort.Ints(classes)
	return classes
}

// classIndex maps each class label to its position in the sorted class list
func classIndex(classes []int) map[int]int {
	idx := make(map[int]int, len(classes))
	for i, c := range classes {
		idx[c] = i
	}
	return idx
}

// argmax returns the index of the largest value, first on ties
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

// validateFit checks the common preconditions shared by all learners
func validateFit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("training set is empty")
	}
	if len(X) != len(y) {
		return fmt.Errorf("feature rows (%d) and labels (%d) differ in length", len(X), len(y))
	}
	width := len(X[0])
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, expected %d", i, len(row), width)
		}
	}
	return nil
}
