package ml

import (
	"fmt"
	"math"
	"sort"
)

// KNN is a k-nearest-neighbors classifier over Euclidean distance.
// Probabilities are neighbor vote fractions. There is no model state
// beyond the training data and no importance surface.
type KNN struct {
	K int `json:"k"`

	TrainX       [][]float64 `json:"train_x,omitempty"`
	TrainY       []int       `json:"train_y,omitempty"`
	ClassList    []int       `json:"classes,omitempty"`
	FeatureCount int         `json:"feature_count"`
}

// NewKNN creates a classifier with the given neighbor count
func NewKNN(k int) *KNN {
	return &KNN{K: k}
}

func (k *KNN) Name() string { return "KNN" }

func (k *KNN) Capabilities() Capability {
	return CapProbability
}

func (k *KNN) Classes() []int { return k.ClassList }

// Fit stores the training data
func (k *KNN) Fit(X [][]float64, y []int) error {
	if err := validateFit(X, y); err != nil {
		return fmt.Errorf("knn: %w", err)
	}
	if k.K < 1 {
		return fmt.Errorf("knn: k must be positive, got %d", k.K)
	}

	k.TrainX = X
	k.TrainY = y
	k.ClassList = distinctClasses(y)
	k.FeatureCount = len(X[0])
	return nil
}

// Predict returns the majority vote among the k nearest neighbors
func (k *KNN) Predict(X [][]float64) ([]int, error) {
	probas, err := k.PredictProba(X)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(probas))
	for i, p := range probas {
		labels[i] = k.ClassList[argmax(p)]
	}
	return labels, nil
}

// PredictProba returns neighbor vote fractions per class
func (k *KNN) PredictProba(X [][]float64) ([][]float64, error) {
	if len(k.TrainX) == 0 {
		return nil, fmt.Errorf("knn: not fitted")
	}

	neighbors := k.K
	if neighbors > len(k.TrainX) {
		neighbors = len(k.TrainX)
	}
	idx := classIndex(k.ClassList)

	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != k.FeatureCount {
			return nil, fmt.Errorf("knn: row %d has %d features, fitted on %d", i, len(row), k.FeatureCount)
		}

		distances := make([]struct {
			dist  float64
			label int
		}, len(k.TrainX))
		for j, train := range k.TrainX {
			distances[j].dist = euclidean(row, train)
			distances[j].label = k.TrainY[j]
		}
		// Stable sort keeps training order as the distance tiebreak
		sort.SliceStable(distances, func(a, b int) bool {
			return distances[a].dist < distances[b].dist
		})

		proba := make([]float64, len(k.ClassList))
		for _, n := range distances[:neighbors] {
			proba[idx[n.label]] += 1 / float64(neighbors)
		}
		out[i] = proba
	}
	return out, nil
}

func (k *KNN) FeatureImportances() []float64 { return nil }

func (k *KNN) Coefficients() [][]float64 { return nil }

// euclidean computes the L2 distance between two rows
func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i, v := range a {
		d := v - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
