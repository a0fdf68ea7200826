package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

const demoRows = 300

// Demo generates a synthetic student-dropout dataset. Deterministic per seed.
func Demo(seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed))

	header := []string{
		"Age",
		"CGPA",
		"Attendance_Percentage",
		"Hours_Spent_on_LMS_per_Week",
		"Psychological_Wellbeing_Score",
		"Parental_Education_Level",
		"Financial_Status",
		"Dropout_Risk",
	}
	financial := []string{"low", "medium", "high"}

	rows := make([]map[string]any, demoRows)
	for i := 0; i < demoRows; i++ {
		cgpa := 4.0 + rng.Float64()*5.0
		cgpa = math.Round(cgpa*100) / 100

		risk := 0.0
		if rng.Float64() < 0.18 {
			risk = 1.0
		}

		rows[i] = map[string]any{
			"Age":                           float64(16 + rng.Intn(8)),
			"CGPA":                          cgpa,
			"Attendance_Percentage":         float64(50 + rng.Intn(50)),
			"Hours_Spent_on_LMS_per_Week":   float64(rng.Intn(30)),
			"Psychological_Wellbeing_Score": float64(1 + rng.Intn(9)),
			"Parental_Education_Level":      float64(1 + rng.Intn(4)),
			"Financial_Status":              financial[rng.Intn(len(financial))],
			"Dropout_Risk":                  risk,
		}
	}

	ds := &Dataset{
		Source:      "demo",
		ColumnCount: len(header),
		RowCount:    demoRows,
		Rows:        rows,
		CreatedAt:   time.Now(),
	}

	ds.Columns = make([]ColumnMetadata, len(header))
	for j, name := range header {
		meta := ColumnMetadata{
			Name:      name,
			Index:     j,
			IsNumeric: name != "Financial_Status",
		}
		if meta.IsNumeric {
			meta.DataType = "numeric"
			meta.Stats = computeColumnStats(rows, name)
		} else {
			meta.DataType = "string"
			meta.DistinctValues = distinctStrings(rows, name)
		}
		ds.Columns[j] = meta
	}

	return ds
}

// DemoName returns the display name used for generated demo datasets
func DemoName(seed int64) string {
	return fmt.Sprintf("demo_dropout_%d.csv", seed)
}
