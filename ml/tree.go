package ml

import (
	"fmt"
	"sort"
)

// TreeNode is one node of a fitted decision tree. Leaves carry class
// counts; internal nodes route on Feature <= Threshold.
type TreeNode struct {
	Feature     int       `json:"feature"`
	Threshold   float64   `json:"threshold"`
	Left        *TreeNode `json:"left,omitempty"`
	Right       *TreeNode `json:"right,omitempty"`
	IsLeaf      bool      `json:"is_leaf"`
	ClassCounts []int     `json:"class_counts,omitempty"`
	Samples     int       `json:"samples"`
}

// DecisionTree is a CART-style classifier using gini impurity splits
// with midpoint thresholds. Ties break on the first best split found,
// so fitting is deterministic.
type DecisionTree struct {
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	SplitFeatures   []int `json:"split_features,omitempty"` // candidate features per split; nil means all

	Root         *TreeNode `json:"root,omitempty"`
	ClassList    []int     `json:"classes,omitempty"`
	FeatureCount int       `json:"feature_count"`
	Importances  []float64 `json:"importances,omitempty"`
}

// NewDecisionTree creates a tree with the default depth limit
func NewDecisionTree() *DecisionTree {
	return &DecisionTree{
		MaxDepth:        10,
		MinSamplesSplit: 2,
	}
}

func (t *DecisionTree) Name() string { return "Decision Tree" }

func (t *DecisionTree) Capabilities() Capability {
	return CapProbability | CapNativeImportance
}

func (t *DecisionTree) Classes() []int { return t.ClassList }

// Fit builds the tree on X and y
func (t *DecisionTree) Fit(X [][]float64, y []int) error {
	if err := validateFit(X, y); err != nil {
		return fmt.Errorf("decision tree: %w", err)
	}

	t.ClassList = distinctClasses(y)
	t.FeatureCount = len(X[0])
	t.Importances = make([]float64, t.FeatureCount)

	idx := classIndex(t.ClassList)
	encoded := make([]int, len(y))
	for i, label := range y {
		encoded[i] = idx[label]
	}

	indices := make([]int, len(y))
	for i := range indices {
		indices[i] = i
	}

	t.Root = t.buildNode(X, encoded, indices, 0)
	t.normalizeImportances()
	return nil
}

// buildNode grows the tree recursively over the sample indices
func (t *DecisionTree) buildNode(X [][]float64, y []int, indices []int, depth int) *TreeNode {
	counts := make([]int, len(t.ClassList))
	for _, i := range indices {
		counts[y[i]]++
	}

	node := &TreeNode{
		ClassCounts: counts,
		Samples:     len(indices),
	}

	if depth >= t.MaxDepth || len(indices) < t.MinSamplesSplit || isPure(counts) {
		node.IsLeaf = true
		return node
	}

	feature, threshold, gain := t.bestSplit(X, y, indices, counts)
	if gain <= 0 {
		node.IsLeaf = true
		return node
	}

	var left, right []int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		node.IsLeaf = true
		return node
	}

	t.Importances[feature] += float64(len(indices)) * gain

	node.Feature = feature
	node.Threshold = threshold
	node.ClassCounts = nil
	node.Left = t.buildNode(X, y, left, depth+1)
	node.Right = t.buildNode(X, y, right, depth+1)
	return node
}

// bestSplit finds the feature/threshold pair with the largest gini gain.
// Thresholds are midpoints between consecutive distinct sorted values.
func (t *DecisionTree) bestSplit(X [][]float64, y []int, indices []int, counts []int) (int, float64, float64) {
	parentImpurity := gini(counts, len(indices))
	total := float64(len(indices))

	candidates := t.SplitFeatures
	if candidates == nil {
		candidates = make([]int, t.FeatureCount)
		for f := range candidates {
			candidates[f] = f
		}
	}

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0

	sorted := make([]int, len(indices))
	for _, feature := range candidates {
		copy(sorted, indices)
		sort.Slice(sorted, func(a, b int) bool {
			return X[sorted[a]][feature] < X[sorted[b]][feature]
		})

		leftCounts := make([]int, len(t.ClassList))
		rightCounts := make([]int, len(t.ClassList))
		copy(rightCounts, counts)

		for pos := 0; pos < len(sorted)-1; pos++ {
			i := sorted[pos]
			leftCounts[y[i]]++
			rightCounts[y[i]]--

			cur, next := X[i][feature], X[sorted[pos+1]][feature]
			if cur == next {
				continue
			}

			nLeft := pos + 1
			nRight := len(sorted) - nLeft
			weighted := (float64(nLeft)*gini(leftCounts, nLeft) +
				float64(nRight)*gini(rightCounts, nRight)) / total
			gain := parentImpurity - weighted

			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = (cur + next) / 2
			}
		}
	}

	return bestFeature, bestThreshold, bestGain
}

// Predict returns the majority class of each row's leaf
func (t *DecisionTree) Predict(X [][]float64) ([]int, error) {
	probas, err := t.PredictProba(X)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(probas))
	for i, p := range probas {
		labels[i] = t.ClassList[argmax(p)]
	}
	return labels, nil
}

// PredictProba returns leaf class frequencies per row
func (t *DecisionTree) PredictProba(X [][]float64) ([][]float64, error) {
	if t.Root == nil {
		return nil, fmt.Errorf("decision tree: not fitted")
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != t.FeatureCount {
			return nil, fmt.Errorf("decision tree: row %d has %d features, fitted on %d", i, len(row), t.FeatureCount)
		}
		leaf := t.Root
		for !leaf.IsLeaf {
			if row[leaf.Feature] <= leaf.Threshold {
				leaf = leaf.Left
			} else {
				leaf = leaf.Right
			}
		}
		proba := make([]float64, len(t.ClassList))
		for c, count := range leaf.ClassCounts {
			proba[c] = float64(count) / float64(leaf.Samples)
		}
		out[i] = proba
	}
	return out, nil
}

// FeatureImportances returns impurity-decrease importances summing to 1
func (t *DecisionTree) FeatureImportances() []float64 {
	return t.Importances
}

func (t *DecisionTree) Coefficients() [][]float64 { return nil }

// normalizeImportances rescales raw gains to sum to 1
func (t *DecisionTree) normalizeImportances() {
	total := 0.0
	for _, v := range t.Importances {
		total += v
	}
	if total == 0 {
		return
	}
	for i := range t.Importances {
		t.Importances[i] /= total
	}
}

// gini computes the gini impurity from class counts
func gini(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, count := range counts {
		p := float64(count) / float64(total)
		impurity -= p * p
	}
	return impurity
}

// isPure reports whether all samples share one class
func isPure(counts []int) bool {
	nonzero := 0
	for _, c := range counts {
		if c > 0 {
			nonzero++
		}
	}
	return nonzero <= 1
}
