package dataset

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dropout-studio/dropout-studio-go/utils"
)

// LoadExcel parses the first sheet of an XLSX/XLS workbook into a Dataset.
// The first row is the header.
func LoadExcel(content []byte) (*Dataset, error) {
	logger := utils.GetLogger()

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel workbook has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
		if header[i] == "" {
			return nil, fmt.Errorf("sheet %q header column %d is empty", sheet, i+1)
		}
	}

	ds, err := newDatasetFromCells("excel", header, rows[1:])
	if err != nil {
		return nil, err
	}

	logger.Debug("Parsed Excel dataset",
		utils.Component("dataset"),
		utils.String("sheet", sheet),
		utils.Int("rows", ds.RowCount),
		utils.Int("columns", ds.ColumnCount))

	return ds, nil
}
