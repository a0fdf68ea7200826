package ml

import (
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableData builds a binary problem where the first feature fully
// determines the label and the second is seeded noise.
func separableData(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		label := i % 2
		X[i] = []float64{float64(label)*10 - 5, rng.Float64()}
		y[i] = label
	}
	return X, y
}

func allLearners(t *testing.T) []Learner {
	t.Helper()
	learners := make([]Learner, 0, len(Catalog))
	for _, name := range Catalog {
		learner, err := NewLearner(name, 42)
		require.NoError(t, err)
		learners = append(learners, learner)
	}
	return learners
}

func TestCatalog(t *testing.T) {
	t.Run("SevenAlgorithmsInOrder", func(t *testing.T) {
		assert.Len(t, Catalog, 7)
		assert.Equal(t, "Logistic Regression", Catalog[0])
		assert.Equal(t, "Random Forest", Catalog[1])
	})

	t.Run("Membership", func(t *testing.T) {
		assert.True(t, InCatalog("Naive Bayes"))
		assert.False(t, InCatalog("AdaBoost"))
		assert.Equal(t, 5, CatalogIndex("KNN"))
		assert.Equal(t, -1, CatalogIndex("missing"))
	})

	t.Run("UnknownAlgorithmErrors", func(t *testing.T) {
		_, err := NewLearner("AdaBoost", 42)
		assert.Error(t, err)
	})
}

func TestLearnersOnSeparableData(t *testing.T) {
	X, y := separableData(80, 1)

	for _, learner := range allLearners(t) {
		t.Run(learner.Name(), func(t *testing.T) {
			require.NoError(t, learner.Fit(X, y))
			assert.Equal(t, []int{0, 1}, learner.Classes())

			predicted, err := learner.Predict(X)
			require.NoError(t, err)

			accuracy, err := Accuracy(y, predicted)
			require.NoError(t, err)
			assert.Greater(t, accuracy, 0.95, "separable data should be learned")

			require.True(t, learner.Capabilities().Has(CapProbability))
			probas, err := learner.PredictProba(X)
			require.NoError(t, err)
			for _, proba := range probas {
				require.Len(t, proba, 2)
				sum := proba[0] + proba[1]
				assert.InDelta(t, 1.0, sum, 1e-6)
			}
		})
	}
}

func TestLearnersRejectBadInput(t *testing.T) {
	for _, learner := range allLearners(t) {
		t.Run(learner.Name(), func(t *testing.T) {
			assert.Error(t, learner.Fit(nil, nil))
			assert.Error(t, learner.Fit([][]float64{{1}}, []int{0, 1}))
			assert.Error(t, learner.Fit([][]float64{{1}, {2, 3}}, []int{0, 1}))

			_, err := learner.Predict([][]float64{{1}})
			assert.Error(t, err, "predict before fit must fail")
		})
	}
}

func TestDecisionTree(t *testing.T) {
	t.Run("PerfectSeparationReachesFullAccuracy", func(t *testing.T) {
		X, y := separableData(40, 2)
		tree := NewDecisionTree()
		require.NoError(t, tree.Fit(X, y))

		predicted, err := tree.Predict(X)
		require.NoError(t, err)
		accuracy, err := Accuracy(y, predicted)
		require.NoError(t, err)
		assert.Equal(t, 1.0, accuracy)
	})

	t.Run("ImportancesSumToOne", func(t *testing.T) {
		X, y := separableData(40, 3)
		tree := NewDecisionTree()
		require.NoError(t, tree.Fit(X, y))

		total := 0.0
		for _, v := range tree.FeatureImportances() {
			total += v
		}
		assert.InDelta(t, 1.0, total, 1e-9)
		assert.Greater(t, tree.FeatureImportances()[0], tree.FeatureImportances()[1],
			"the deciding feature should dominate")
	})

	t.Run("SingleClassYieldsThatClass", func(t *testing.T) {
		tree := NewDecisionTree()
		require.NoError(t, tree.Fit([][]float64{{1}, {2}, {3}}, []int{7, 7, 7}))

		predicted, err := tree.Predict([][]float64{{1.5}})
		require.NoError(t, err)
		assert.Equal(t, []int{7}, predicted)
	})
}

func TestRandomForest(t *testing.T) {
	t.Run("DeterministicPerSeed", func(t *testing.T) {
		X, y := separableData(60, 4)

		run := func(seed int64) []int {
			forest := NewRandomForest(25, seed)
			require.NoError(t, forest.Fit(X, y))
			predicted, err := forest.Predict(X)
			require.NoError(t, err)
			return predicted
		}

		assert.Equal(t, run(42), run(42))
	})

	t.Run("ImportancesNormalized", func(t *testing.T) {
		X, y := separableData(60, 5)
		forest := NewRandomForest(25, 42)
		require.NoError(t, forest.Fit(X, y))

		total := 0.0
		for _, v := range forest.FeatureImportances() {
			total += v
		}
		assert.InDelta(t, 1.0, total, 1e-9)
	})
}

func TestLogisticRegressionCoefficients(t *testing.T) {
	X, y := separableData(60, 6)
	lr := NewLogisticRegression()
	require.NoError(t, lr.Fit(X, y))

	require.True(t, lr.Capabilities().Has(CapLinearCoefficients))
	coefs := lr.Coefficients()
	require.Len(t, coefs, 1, "binary fit yields one weight vector")
	require.Len(t, coefs[0], 2)
	assert.Greater(t, coefs[0][0], 0.0, "positive class sits at high feature values")
}

func TestSVCDeterministicPerSeed(t *testing.T) {
	X, y := separableData(60, 7)

	run := func() []float64 {
		svc := NewSVC(42)
		require.NoError(t, svc.Fit(X, y))
		return svc.Weights[0]
	}
	assert.Equal(t, run(), run())
}

func TestGradientBoostingMultiClass(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	var X [][]float64
	var y []int
	for class := 0; class < 3; class++ {
		for i := 0; i < 30; i++ {
			X = append(X, []float64{float64(class)*5 + rng.Float64()})
			y = append(y, class)
		}
	}

	gb := NewGradientBoosting()
	require.NoError(t, gb.Fit(X, y))
	assert.Equal(t, []int{0, 1, 2}, gb.Classes())

	probas, err := gb.PredictProba(X)
	require.NoError(t, err)
	for _, proba := range probas {
		require.Len(t, proba, 3)
		sum := 0.0
		for _, p := range proba {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
	}

	predicted, err := gb.Predict(X)
	require.NoError(t, err)
	accuracy, err := Accuracy(y, predicted)
	require.NoError(t, err)
	assert.Greater(t, accuracy, 0.9)
}

func TestKNNVoteProbabilities(t *testing.T) {
	X := [][]float64{{0}, {0.1}, {0.2}, {10}, {10.1}, {10.2}}
	y := []int{0, 0, 0, 1, 1, 1}

	knn := NewKNN(3)
	require.NoError(t, knn.Fit(X, y))

	probas, err := knn.PredictProba([][]float64{{0.05}, {10.05}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0}, probas[0])
	assert.Equal(t, []float64{0, 1}, probas[1])
}

func TestGaussianNB(t *testing.T) {
	X, y := separableData(60, 9)
	nb := NewGaussianNB()
	require.NoError(t, nb.Fit(X, y))

	assert.Nil(t, nb.FeatureImportances())
	assert.Nil(t, nb.Coefficients())
	assert.False(t, nb.Capabilities().Has(CapNativeImportance))

	predicted, err := nb.Predict([][]float64{{-5, 0.5}, {5, 0.5}})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, predicted)
}

func TestAccuracy(t *testing.T) {
	t.Run("ExactMatchFraction", func(t *testing.T) {
		acc, err := Accuracy([]int{1, 0, 1, 1}, []int{1, 1, 1, 0})
		require.NoError(t, err)
		assert.InDelta(t, 0.5, acc, 1e-9)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := Accuracy(nil, nil)
		assert.Error(t, err)
		_, err = Accuracy([]int{1}, []int{1, 2})
		assert.Error(t, err)
	})
}

func TestConfusionMatrix(t *testing.T) {
	codec := &LabelCodec{Encoded: true, Names: []string{"no", "yes"}}

	t.Run("CountsActualByPredicted", func(t *testing.T) {
		cm, err := NewConfusionMatrix([]int{0, 0, 1, 1}, []int{0, 1, 1, 1}, codec)
		require.NoError(t, err)

		assert.Equal(t, []int{0, 1}, cm.Labels)
		assert.Equal(t, []string{"no", "yes"}, cm.LabelNames)
		assert.Equal(t, [][]int{{1, 1}, {0, 2}}, cm.Counts)
	})

	t.Run("DimensionCoversPredictedOnlyLabels", func(t *testing.T) {
		cm, err := NewConfusionMatrix([]int{0, 0}, []int{0, 2}, &LabelCodec{})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2}, cm.Labels)
		assert.Equal(t, 2, cm.Counts[0][0]+cm.Counts[0][1])
	})

	t.Run("LengthMismatchErrors", func(t *testing.T) {
		_, err := NewConfusionMatrix([]int{0}, []int{0, 1}, &LabelCodec{})
		assert.Error(t, err)
	})
}

func TestExtractImportance(t *testing.T) {
	t.Run("NativeImportanceSortedDescending", func(t *testing.T) {
		X, y := separableData(40, 10)
		tree := NewDecisionTree()
		require.NoError(t, tree.Fit(X, y))

		table := ExtractImportance("Decision Tree", tree, []string{"deciding", "noise"})
		require.NotEmpty(t, table)
		assert.Equal(t, "deciding", table[0].Feature)
		for i := 1; i < len(table); i++ {
			assert.GreaterOrEqual(t, table[i-1].Importance, table[i].Importance)
		}
	})

	t.Run("CoefficientMagnitudes", func(t *testing.T) {
		X, y := separableData(40, 11)
		lr := NewLogisticRegression()
		require.NoError(t, lr.Fit(X, y))

		table := ExtractImportance("Logistic Regression", lr, []string{"deciding", "noise"})
		require.Len(t, table, 2)
		assert.Equal(t, "deciding", table[0].Feature)
		for _, row := range table {
			assert.GreaterOrEqual(t, row.Importance, 0.0)
		}
	})

	t.Run("TruncatesOnLengthMismatch", func(t *testing.T) {
		X, y := separableData(40, 12)
		tree := NewDecisionTree()
		require.NoError(t, tree.Fit(X, y))

		table := ExtractImportance("Decision Tree", tree, []string{"only_one"})
		assert.Len(t, table, 1)
	})

	t.Run("NoSurfaceYieldsNil", func(t *testing.T) {
		X, y := separableData(40, 13)
		knn := NewKNN(3)
		require.NoError(t, knn.Fit(X, y))
		assert.Nil(t, ExtractImportance("KNN", knn, []string{"a", "b"}))
	})
}

func TestMeanCoefficientMagnitudes(t *testing.T) {
	out := coefficientMagnitudes([][]float64{{1, -3}, {-5, 1}})
	require.Len(t, out, 2)
	assert.InDelta(t, 3.0, out[0], 1e-9)
	assert.InDelta(t, 2.0, out[1], 1e-9)
}

func TestPipelineSaveLoad(t *testing.T) {
	ds := loadTestDataset(t, "num,cat,label\n1,x,0\n2,y,0\n8,x,1\n9,y,1\n7,x,1\n2,y,0\n")
	resolved, err := Resolve(ds, "label")
	require.NoError(t, err)

	pipeline, err := NewPipeline("Decision Tree", resolved.Features.Schema, 42)
	require.NoError(t, err)
	pipeline.Codec = resolved.Codec
	require.NoError(t, pipeline.Fit(resolved.Features, resolved.Labels))

	path := t.TempDir() + "/model.json"
	require.NoError(t, pipeline.Save(path))

	loaded, err := LoadPipeline(path)
	require.NoError(t, err)
	assert.Equal(t, "Decision Tree", loaded.Algorithm)

	record := map[string]any{"num": 8.5, "cat": "x"}
	want, err := pipeline.PredictRecord(record)
	require.NoError(t, err)
	got, err := loaded.PredictRecord(record)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadPipelineErrors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadPipeline(t.TempDir() + "/nope.json")
		assert.Error(t, err)
	})

	t.Run("GarbageContent", func(t *testing.T) {
		path := t.TempDir() + "/bad.json"
		require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))
		_, err := LoadPipeline(path)
		assert.Error(t, err)
	})
}
