package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// RandomForest is a bagged ensemble of decision trees. Every tree trains
// on a bootstrap sample over a random feature subset and the forest
// averages tree probabilities. Per-tree seeds are drawn up front from the
// forest seed, so results are identical across runs for a given seed even
// though trees train concurrently.
type RandomForest struct {
	NumTrees int   `json:"num_trees"`
	MaxDepth int   `json:"max_depth"`
	Seed     int64 `json:"seed"`

	Trees        []*DecisionTree `json:"trees,omitempty"`
	ClassList    []int           `json:"classes,omitempty"`
	FeatureCount int             `json:"feature_count"`
}

// NewRandomForest creates an untrained forest
func NewRandomForest(numTrees int, seed int64) *RandomForest {
	return &RandomForest{
		NumTrees: numTrees,
		MaxDepth: 10,
		Seed:     seed,
	}
}

func (f *RandomForest) Name() string { return "Random Forest" }

func (f *RandomForest) Capabilities() Capability {
	return CapProbability | CapNativeImportance
}

func (f *RandomForest) Classes() []int { return f.ClassList }

// Fit trains all trees concurrently from pre-drawn seeds
func (f *RandomForest) Fit(X [][]float64, y []int) error {
	if err := validateFit(X, y); err != nil {
		return fmt.Errorf("random forest: %w", err)
	}

	f.ClassList = distinctClasses(y)
	f.FeatureCount = len(X[0])
	f.Trees = make([]*DecisionTree, f.NumTrees)

	seeder := rand.New(rand.NewSource(f.Seed))
	treeSeeds := make([]int64, f.NumTrees)
	for i := range treeSeeds {
		treeSeeds[i] = seeder.Int63()
	}

	subsetSize := int(math.Sqrt(float64(f.FeatureCount)))
	if subsetSize < 1 {
		subsetSize = 1
	}

	var wg sync.WaitGroup
	errs := make([]error, f.NumTrees)
	for i := 0; i < f.NumTrees; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tree, err := f.trainTree(X, y, treeSeeds[i], subsetSize)
			if err != nil {
				errs[i] = err
				return
			}
			f.Trees[i] = tree
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("random forest: %w", err)
		}
	}
	return nil
}

// trainTree fits one tree on a bootstrap sample with a feature subset
func (f *RandomForest) trainTree(X [][]float64, y []int, seed int64, subsetSize int) (*DecisionTree, error) {
	rng := rand.New(rand.NewSource(seed))

	n := len(X)
	bootX := make([][]float64, n)
	bootY := make([]int, n)
	for i := 0; i < n; i++ {
		j := rng.Intn(n)
		bootX[i] = X[j]
		bootY[i] = y[j]
	}

	subset := rng.Perm(f.FeatureCount)[:subsetSize]

	tree := NewDecisionTree()
	tree.MaxDepth = f.MaxDepth
	tree.SplitFeatures = subset
	if err := tree.Fit(bootX, bootY); err != nil {
		return nil, err
	}
	return tree, nil
}

// Predict returns the class with the highest averaged probability
func (f *RandomForest) Predict(X [][]float64) ([]int, error) {
	probas, err := f.PredictProba(X)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(probas))
	for i, p := range probas {
		labels[i] = f.ClassList[argmax(p)]
	}
	return labels, nil
}

// PredictProba averages the tree probabilities. Trees may have seen only
// a subset of classes in their bootstrap, so their columns are realigned
// to the forest's class list.
func (f *RandomForest) PredictProba(X [][]float64) ([][]float64, error) {
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("random forest: not fitted")
	}

	idx := classIndex(f.ClassList)
	out := make([][]float64, len(X))
	for i := range out {
		out[i] = make([]float64, len(f.ClassList))
	}

	for _, tree := range f.Trees {
		treeProbas, err := tree.PredictProba(X)
		if err != nil {
			return nil, fmt.Errorf("random forest: %w", err)
		}
		for i, proba := range treeProbas {
			for c, p := range proba {
				out[i][idx[tree.ClassList[c]]] += p
			}
		}
	}

	for i := range out {
		for c := range out[i] {
			out[i][c] /= float64(len(f.Trees))
		}
	}
	return out, nil
}

// FeatureImportances averages tree importances and renormalizes
func (f *RandomForest) FeatureImportances() []float64 {
	if len(f.Trees) == 0 {
		return nil
	}
	importances := make([]float64, f.FeatureCount)
	for _, tree := range f.Trees {
		for j, v := range tree.Importances {
			importances[j] += v
		}
	}
	total := 0.0
	for _, v := range importances {
		total += v
	}
	if total > 0 {
		for j := range importances {
			importances[j] /= total
		}
	}
	return importances
}

func (f *RandomForest) Coefficients() [][]float64 { return nil }
