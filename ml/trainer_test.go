package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropout-studio/dropout-studio-go/dataset"
)

func TestTrainOptionsValidate(t *testing.T) {
	valid := TrainOptions{Algorithms: []string{"KNN"}, TestSize: 25, Seed: 42}

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("Invalid", func(t *testing.T) {
		cases := []TrainOptions{
			{Algorithms: nil, TestSize: 25, Seed: 42},
			{Algorithms: []string{"AdaBoost"}, TestSize: 25, Seed: 42},
			{Algorithms: []string{"KNN"}, TestSize: 9, Seed: 42},
			{Algorithms: []string{"KNN"}, TestSize: 51, Seed: 42},
			{Algorithms: []string{"KNN"}, TestSize: 25, Seed: -1},
			{Algorithms: []string{"KNN"}, TestSize: 25, Seed: 10000},
		}
		for _, opts := range cases {
			assert.Error(t, opts.Validate())
		}
	})
}

func TestSplitIndices(t *testing.T) {
	t.Run("SizesWithinOne", func(t *testing.T) {
		labels := make([]int, 100)
		for i := range labels {
			labels[i] = i % 2
		}
		train, test := splitIndices(labels, 0.25, 42)

		assert.Equal(t, 100, len(train)+len(test))
		assert.InDelta(t, 25, len(test), 1)
	})

	t.Run("StratificationPreservesProportions", func(t *testing.T) {
		labels := make([]int, 100)
		for i := range labels {
			if i < 80 {
				labels[i] = 0
			} else {
				labels[i] = 1
			}
		}
		_, test := splitIndices(labels, 0.25, 42)

		minority := 0
		for _, i := range test {
			if labels[i] == 1 {
				minority++
			}
		}
		assert.Equal(t, 5, minority, "25% of the 20 minority rows")
	})

	t.Run("DeterministicPerSeed", func(t *testing.T) {
		labels := make([]int, 50)
		for i := range labels {
			labels[i] = i % 3
		}
		trainA, testA := splitIndices(labels, 0.3, 7)
		trainB, testB := splitIndices(labels, 0.3, 7)
		trainC, _ := splitIndices(labels, 0.3, 8)

		assert.Equal(t, trainA, trainB)
		assert.Equal(t, testA, testB)
		assert.NotEqual(t, trainA, trainC)
	})

	t.Run("SingleLabelSplitsWithoutStratification", func(t *testing.T) {
		labels := []int{1, 1, 1, 1, 1, 1, 1, 1}
		train, test := splitIndices(labels, 0.25, 42)
		assert.Len(t, test, 2)
		assert.Len(t, train, 6)
	})

	t.Run("NeitherSideEmpty", func(t *testing.T) {
		labels := []int{0, 1, 0, 1}
		train, test := splitIndices(labels, 0.1, 42)
		assert.NotEmpty(t, train)
		assert.NotEmpty(t, test)
	})
}

func TestTrain(t *testing.T) {
	demo := dataset.Demo(42)
	resolved, err := Resolve(demo, "Dropout_Risk")
	require.NoError(t, err)

	t.Run("EndToEndDefaultSelection", func(t *testing.T) {
		result, err := Train(resolved, TrainOptions{
			Algorithms: []string{"Logistic Regression", "Random Forest"},
			TestSize:   25,
			Seed:       42,
		})
		require.NoError(t, err)

		require.Len(t, result.Models, 2)
		assert.Empty(t, result.Warnings)
		assert.Equal(t, "Logistic Regression", result.Models[0].Algorithm)
		assert.Equal(t, "Random Forest", result.Models[1].Algorithm)

		for _, model := range result.Models {
			assert.GreaterOrEqual(t, model.Accuracy, 0.0)
			assert.LessOrEqual(t, model.Accuracy, 1.0)
			require.NotNil(t, model.Confusion)
			assert.Len(t, model.Confusion.Counts, 2)
			assert.Len(t, model.Confusion.Counts[0], 2)
			assert.NotEmpty(t, model.Importance)
		}

		assert.InDelta(t, 75, len(result.TestLabels), 1)
		assert.Equal(t, len(result.TestLabels), len(result.TestNumeric))
	})

	t.Run("FullCatalog", func(t *testing.T) {
		result, err := Train(resolved, TrainOptions{
			Algorithms: Catalog,
			TestSize:   25,
			Seed:       42,
		})
		require.NoError(t, err)
		assert.Len(t, result.Models, 7)

		knn := result.Model("KNN")
		require.NotNil(t, knn)
		assert.Nil(t, knn.Importance, "KNN has no importance surface")
	})

	t.Run("DeterministicPerSeed", func(t *testing.T) {
		opts := TrainOptions{Algorithms: []string{"Random Forest"}, TestSize: 25, Seed: 42}

		a, err := Train(resolved, opts)
		require.NoError(t, err)
		b, err := Train(resolved, opts)
		require.NoError(t, err)

		require.Len(t, a.Models, 1)
		require.Len(t, b.Models, 1)
		assert.Equal(t, a.Models[0].Accuracy, b.Models[0].Accuracy)
		assert.Equal(t, a.Models[0].Predicted, b.Models[0].Predicted)
	})

	t.Run("FormDefaults", func(t *testing.T) {
		result, err := Train(resolved, TrainOptions{
			Algorithms: []string{"KNN"},
			TestSize:   25,
			Seed:       42,
		})
		require.NoError(t, err)

		require.Len(t, result.FormDefaults, 7)

		byColumn := make(map[string]FieldDefault)
		for _, field := range result.FormDefaults {
			byColumn[field.Column] = field
		}

		age := byColumn["Age"]
		require.True(t, age.Numeric)
		median := age.Value.(float64)
		assert.False(t, math.IsNaN(median))
		assert.GreaterOrEqual(t, median, 16.0)
		assert.LessOrEqual(t, median, 23.0)

		status := byColumn["Financial_Status"]
		require.False(t, status.Numeric)
		assert.Len(t, status.Choices, 3)
		assert.Equal(t, status.Choices[0], status.Value)
	})

	t.Run("InvalidOptions", func(t *testing.T) {
		_, err := Train(resolved, TrainOptions{Algorithms: []string{"KNN"}, TestSize: 5, Seed: 42})
		assert.Error(t, err)
	})

	t.Run("NoFeatureColumns", func(t *testing.T) {
		ds := loadTestDataset(t, "label\n0\n1\n0\n1\n")
		bare, err := Resolve(ds, "label")
		require.NoError(t, err)

		_, err = Train(bare, TrainOptions{Algorithms: []string{"KNN"}, TestSize: 25, Seed: 42})
		assert.Error(t, err)
	})
}

func TestTrainResultBest(t *testing.T) {
	t.Run("MaxAccuracy", func(t *testing.T) {
		result := &TrainResult{Models: []*TrainedModel{
			{Algorithm: "Logistic Regression", Accuracy: 0.8},
			{Algorithm: "Random Forest", Accuracy: 0.9},
		}}
		assert.Equal(t, "Random Forest", result.Best().Algorithm)
	})

	t.Run("TieBreaksByCatalogOrder", func(t *testing.T) {
		result := &TrainResult{Models: []*TrainedModel{
			{Algorithm: "Logistic Regression", Accuracy: 0.9},
			{Algorithm: "Random Forest", Accuracy: 0.9},
		}}
		assert.Equal(t, "Logistic Regression", result.Best().Algorithm)
	})

	t.Run("NilWhenEmpty", func(t *testing.T) {
		result := &TrainResult{}
		assert.Nil(t, result.Best())
	})
}
