package dataset

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `Name,Age,Score,Grade
alice,20,8.50,A
bob,21,7.25,B
carol,,6.00,A
dave,22,9.75,C
`

func TestLoadCSV(t *testing.T) {
	t.Run("ParsesHeaderAndTypes", func(t *testing.T) {
		ds, err := LoadCSV([]byte(sampleCSV))
		require.NoError(t, err)
		require.NoError(t, ds.Validate())

		assert.Equal(t, "csv", ds.Source)
		assert.Equal(t, 4, ds.ColumnCount)
		assert.Equal(t, 4, ds.RowCount)
		assert.Equal(t, []string{"Name", "Age", "Score", "Grade"}, ds.ColumnNames())

		age, err := ds.GetColumn("Age")
		require.NoError(t, err)
		assert.True(t, age.IsNumeric)
		assert.Equal(t, "numeric", age.DataType)

		name, err := ds.GetColumn("Name")
		require.NoError(t, err)
		assert.False(t, name.IsNumeric)
		assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, name.DistinctValues)
	})

	t.Run("ComputesNumericStats", func(t *testing.T) {
		ds, err := LoadCSV([]byte(sampleCSV))
		require.NoError(t, err)

		score, err := ds.GetColumn("Score")
		require.NoError(t, err)
		require.NotNil(t, score.Stats)
		assert.Equal(t, 4, score.Stats.Count)
		assert.InDelta(t, 6.00, score.Stats.Min, 1e-9)
		assert.InDelta(t, 9.75, score.Stats.Max, 1e-9)
		assert.InDelta(t, 7.875, score.Stats.Mean, 1e-9)
	})

	t.Run("CountsMissingValues", func(t *testing.T) {
		ds, err := LoadCSV([]byte(sampleCSV))
		require.NoError(t, err)

		age, err := ds.GetColumn("Age")
		require.NoError(t, err)
		assert.True(t, age.HasNulls)
		assert.Equal(t, 1, age.NullCount)
		assert.Nil(t, ds.Rows[2]["Age"])
		assert.Equal(t, 3, age.Stats.Count)
	})

	t.Run("RejectsEmptyContent", func(t *testing.T) {
		_, err := LoadCSV([]byte(""))
		assert.Error(t, err)
	})

	t.Run("RejectsRowWiderThanHeader", func(t *testing.T) {
		_, err := LoadCSV([]byte("a,b\n1,2,3\n"))
		assert.Error(t, err)
	})

	t.Run("PadsShortRowsAsMissing", func(t *testing.T) {
		ds, err := LoadCSV([]byte("a,b\n1\n2,3\n"))
		require.NoError(t, err)
		assert.Nil(t, ds.Rows[0]["b"])
		assert.Equal(t, 3.0, ds.Rows[1]["b"])
	})

	t.Run("MixedColumnFallsBackToString", func(t *testing.T) {
		ds, err := LoadCSV([]byte("v\n1\ntwo\n3\n"))
		require.NoError(t, err)
		col, err := ds.GetColumn("v")
		require.NoError(t, err)
		assert.False(t, col.IsNumeric)
		assert.Equal(t, "1", ds.Rows[0]["v"])
	})
}

func TestLoadExcel(t *testing.T) {
	buildWorkbook := func(t *testing.T, rows [][]any) []byte {
		t.Helper()
		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(sheet, cell, &row))
		}
		var buf bytes.Buffer
		require.NoError(t, f.Write(&buf))
		return buf.Bytes()
	}

	t.Run("ParsesFirstSheet", func(t *testing.T) {
		content := buildWorkbook(t, [][]any{
			{"Student", "GPA"},
			{"alice", 3.5},
			{"bob", 2.8},
		})

		ds, err := LoadExcel(content)
		require.NoError(t, err)
		assert.Equal(t, "excel", ds.Source)
		assert.Equal(t, 2, ds.RowCount)
		assert.Equal(t, []string{"Student", "GPA"}, ds.ColumnNames())

		gpa, err := ds.GetColumn("GPA")
		require.NoError(t, err)
		assert.True(t, gpa.IsNumeric)
		assert.InDelta(t, 3.5, ds.Rows[0]["GPA"].(float64), 1e-9)
	})

	t.Run("RejectsGarbage", func(t *testing.T) {
		_, err := LoadExcel([]byte("not a zip archive"))
		assert.Error(t, err)
	})
}

func TestLoadDispatch(t *testing.T) {
	t.Run("UnsupportedExtension", func(t *testing.T) {
		_, err := Load("data.parquet", []byte("x"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported file type")
	})

	t.Run("EmptyFile", func(t *testing.T) {
		_, err := Load("data.csv", nil)
		assert.Error(t, err)
	})

	t.Run("CSVByExtension", func(t *testing.T) {
		ds, err := Load("Data.CSV", []byte(sampleCSV))
		require.NoError(t, err)
		assert.Equal(t, 4, ds.RowCount)
	})
}

func TestDemo(t *testing.T) {
	t.Run("SchemaAndRanges", func(t *testing.T) {
		ds := Demo(42)
		require.NoError(t, ds.Validate())
		assert.Equal(t, 300, ds.RowCount)
		assert.Equal(t, []string{
			"Age", "CGPA", "Attendance_Percentage", "Hours_Spent_on_LMS_per_Week",
			"Psychological_Wellbeing_Score", "Parental_Education_Level",
			"Financial_Status", "Dropout_Risk",
		}, ds.ColumnNames())

		for _, row := range ds.Rows {
			age := row["Age"].(float64)
			assert.GreaterOrEqual(t, age, 16.0)
			assert.LessOrEqual(t, age, 23.0)

			cgpa := row["CGPA"].(float64)
			assert.GreaterOrEqual(t, cgpa, 4.0)
			assert.LessOrEqual(t, cgpa, 9.0)

			risk := row["Dropout_Risk"].(float64)
			assert.True(t, risk == 0 || risk == 1)

			fs := row["Financial_Status"].(string)
			assert.Contains(t, []string{"low", "medium", "high"}, fs)
		}

		status, err := ds.GetColumn("Financial_Status")
		require.NoError(t, err)
		assert.False(t, status.IsNumeric)
		assert.Len(t, status.DistinctValues, 3)
	})

	t.Run("DeterministicPerSeed", func(t *testing.T) {
		a := Demo(7)
		b := Demo(7)
		c := Demo(8)

		assert.Equal(t, a.Rows, b.Rows)
		assert.NotEqual(t, a.Rows, c.Rows)
	})

	t.Run("HasBothClasses", func(t *testing.T) {
		ds := Demo(42)
		counts := map[float64]int{}
		for _, row := range ds.Rows {
			counts[row["Dropout_Risk"].(float64)]++
		}
		assert.Greater(t, counts[0], 0)
		assert.Greater(t, counts[1], 0)
	})
}

func TestCache(t *testing.T) {
	t.Run("MemoizesIdenticalContent", func(t *testing.T) {
		cache := NewCache()

		first, hit, err := cache.LoadOrParse("a.csv", []byte(sampleCSV))
		require.NoError(t, err)
		assert.False(t, hit)

		second, hit, err := cache.LoadOrParse("b.csv", []byte(sampleCSV))
		require.NoError(t, err)
		assert.True(t, hit)
		assert.Same(t, first, second)
	})

	t.Run("ParseErrorNotCached", func(t *testing.T) {
		cache := NewCache()
		_, _, err := cache.LoadOrParse("bad.csv", []byte(`a,"b`+"\n"))
		require.Error(t, err)
		assert.Empty(t, cache.List())
	})

	t.Run("GetByID", func(t *testing.T) {
		cache := NewCache()
		entry, _, err := cache.LoadOrParse("a.csv", []byte(sampleCSV))
		require.NoError(t, err)

		got, ok := cache.Get(entry.ID)
		require.True(t, ok)
		assert.Same(t, entry, got)

		_, ok = cache.Get("missing")
		assert.False(t, ok)
	})

	t.Run("DemoKeyedBySeed", func(t *testing.T) {
		cache := NewCache()
		a := cache.PutDemo(42)
		b := cache.PutDemo(42)
		c := cache.PutDemo(43)

		assert.Same(t, a, b)
		assert.NotEqual(t, a.ID, c.ID)
		assert.Equal(t, "demo_dropout_42.csv", a.Filename)
	})

	t.Run("ListNewestFirst", func(t *testing.T) {
		cache := NewCache()
		for i := 0; i < 3; i++ {
			content := []byte(fmt.Sprintf("v\n%d\n", i))
			_, _, err := cache.LoadOrParse(fmt.Sprintf("f%d.csv", i), content)
			require.NoError(t, err)
		}
		assert.Len(t, cache.List(), 3)
	})
}
