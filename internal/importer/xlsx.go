package importer

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads the first worksheet of an Excel workbook into raw rows.
// It returns the rows together with the header offset (the number of
// spreadsheet rows preceding the first data row), scanning past any title
// rows above the real column header.
func ReadXLSX(r io.Reader) ([]Row, int, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, errors.Wrap(err, "open workbook")
	}
	defer func() { _ = wb.Close() }()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, errors.New("workbook has no sheets")
	}

	lines, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, 0, errors.Wrap(err, "read sheet")
	}

	return rowsFromLines(lines)
}

// rowsFromLines locates the header line and converts everything below it
// into Rows. Blank lines are skipped entirely, matching how spreadsheet
// tooling flattens sheets to records.
func rowsFromLines(lines [][]string) ([]Row, int, error) {
	headerIdx := -1
	var mapping map[int]column
	// The template puts a title row above the header; scan the first few
	// lines for a row that actually names the required columns.
	for i := 0; i < len(lines) && i < 5; i++ {
		if m, ok := mapHeader(lines[i]); ok {
			headerIdx = i
			mapping = m
			break
		}
	}
	if headerIdx < 0 {
		return nil, 0, errors.New("no header row found")
	}

	var rows []Row
	for _, line := range lines[headerIdx+1:] {
		if isBlank(line) {
			continue
		}
		rows = append(rows, rowFromCells(line, mapping))
	}

	return rows, headerIdx + 1, nil
}
