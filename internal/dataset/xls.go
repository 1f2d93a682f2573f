package dataset

import (
	"bytes"
	"fmt"

	"github.com/shakinm/xlsReader/xls"
)

// readXLS decodes the first sheet of a legacy BIFF workbook.
func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	if len(workbook.GetSheets()) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	sheet, err := workbook.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("failed to read first sheet: %w", err)
	}

	var records [][]string
	for _, row := range sheet.GetRows() {
		var record []string
		for _, cell := range row.GetCols() {
			record = append(record, cell.GetString())
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}

	return records, nil
}
