package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRegistry(t *testing.T) *ModelRegistry {
	t.Helper()
	registry, err := NewModelRegistry(filepath.Join(t.TempDir(), "models.db"))
	require.NoError(t, err)
	t.Cleanup(func() { registry.Close() })
	return registry
}

func TestModelRegistry(t *testing.T) {
	ctx := context.Background()

	t.Run("SaveAssignsIDAndTimestamp", func(t *testing.T) {
		registry := openTestRegistry(t)

		model := &SavedModel{
			Algorithm:      "Random Forest",
			Accuracy:       0.91,
			ArtifactPath:   "/data/models/best_dropout_model.json",
			FeatureColumns: []string{"Age", "CGPA"},
			LabelNames:     []string{"0", "1"},
		}
		require.NoError(t, registry.Save(ctx, model))
		assert.NotEmpty(t, model.ID)
		assert.False(t, model.CreatedAt.IsZero())
	})

	t.Run("GetRoundTrip", func(t *testing.T) {
		registry := openTestRegistry(t)

		model := &SavedModel{
			Algorithm:      "Logistic Regression",
			Accuracy:       0.85,
			ArtifactPath:   "/tmp/m.json",
			FeatureColumns: []string{"Age", "Financial_Status"},
			LabelNames:     []string{"no", "yes"},
		}
		require.NoError(t, registry.Save(ctx, model))

		got, err := registry.Get(ctx, model.ID)
		require.NoError(t, err)
		assert.Equal(t, model.Algorithm, got.Algorithm)
		assert.Equal(t, model.Accuracy, got.Accuracy)
		assert.Equal(t, model.FeatureColumns, got.FeatureColumns)
		assert.Equal(t, model.LabelNames, got.LabelNames)
	})

	t.Run("GetMissing", func(t *testing.T) {
		registry := openTestRegistry(t)
		_, err := registry.Get(ctx, "nope")
		assert.Error(t, err)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		registry := openTestRegistry(t)

		base := time.Now().UTC().Add(-time.Hour)
		for i, algorithm := range []string{"KNN", "SVM", "Naive Bayes"} {
			require.NoError(t, registry.Save(ctx, &SavedModel{
				Algorithm:      algorithm,
				Accuracy:       0.5,
				ArtifactPath:   "/tmp/m.json",
				FeatureColumns: []string{"x"},
				LabelNames:     []string{"0", "1"},
				CreatedAt:      base.Add(time.Duration(i) * time.Minute),
			}))
		}

		models, err := registry.List(ctx)
		require.NoError(t, err)
		require.Len(t, models, 3)
		assert.Equal(t, "Naive Bayes", models[0].Algorithm)
		assert.Equal(t, "KNN", models[2].Algorithm)
	})

	t.Run("PersistsAcrossReopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models.db")

		registry, err := NewModelRegistry(path)
		require.NoError(t, err)
		require.NoError(t, registry.Save(ctx, &SavedModel{
			Algorithm:      "Decision Tree",
			Accuracy:       0.7,
			ArtifactPath:   "/tmp/m.json",
			FeatureColumns: []string{"x"},
			LabelNames:     []string{"0", "1"},
		}))
		require.NoError(t, registry.Close())

		reopened, err := NewModelRegistry(path)
		require.NoError(t, err)
		defer reopened.Close()

		models, err := reopened.List(ctx)
		require.NoError(t, err)
		assert.Len(t, models, 1)
	})
}
