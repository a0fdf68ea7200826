package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dropout-studio/dropout-studio-go/utils"
)

// Load parses an uploaded file into a Dataset, dispatching on the
// filename extension. Supported: .csv, .xlsx, .xls.
func Load(name string, content []byte) (*Dataset, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("file %q is empty", name)
	}

	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv":
		return LoadCSV(content)
	case ".xlsx", ".xls":
		return LoadExcel(content)
	default:
		return nil, fmt.Errorf("unsupported file type %q (expected .csv, .xlsx or .xls)", ext)
	}
}

// LoadCSV parses CSV content with a header row into a Dataset
func LoadCSV(content []byte) (*Dataset, error) {
	logger := utils.GetLogger()

	reader := csv.NewReader(bytes.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // short rows pad as missing; long rows are rejected below

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file has no header row")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			return nil, fmt.Errorf("CSV header column %d is empty", i+1)
		}
	}

	ds, err := newDatasetFromCells("csv", header, records[1:])
	if err != nil {
		return nil, err
	}

	logger.Debug("Parsed CSV dataset",
		utils.Component("dataset"),
		utils.Int("rows", ds.RowCount),
		utils.Int("columns", ds.ColumnCount))

	return ds, nil
}
