package charts

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropout-studio/dropout-studio-go/ml"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRenderImportancePNG(t *testing.T) {
	t.Run("ProducesPNG", func(t *testing.T) {
		table := []ml.FeatureWeight{
			{Feature: "CGPA", Importance: 0.5},
			{Feature: "Attendance_Percentage", Importance: 0.3},
			{Feature: "Age", Importance: 0.2},
		}

		data, err := RenderImportancePNG("Random Forest", table)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic))
	})

	t.Run("TruncatesToTopFifteen", func(t *testing.T) {
		table := make([]ml.FeatureWeight, 30)
		for i := range table {
			table[i] = ml.FeatureWeight{
				Feature:    fmt.Sprintf("f%02d", i),
				Importance: 1 / float64(i+1),
			}
		}

		data, err := RenderImportancePNG("Decision Tree", table)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})

	t.Run("EmptyTableErrors", func(t *testing.T) {
		_, err := RenderImportancePNG("KNN", nil)
		assert.Error(t, err)
	})
}

func TestImportanceFilename(t *testing.T) {
	assert.Equal(t, "Random Forest_feature_importance.png", ImportanceFilename("Random Forest"))
}
