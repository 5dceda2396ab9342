package importer

import (
	"encoding/csv"
	"io"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
)

// ReadCSV reads a CSV export of the import template into raw rows, using
// the same header detection as the XLSX path.
func ReadCSV(r io.Reader) ([]Row, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // hand-edited exports often have ragged rows
	cr.TrimLeadingSpace = true

	lines, err := cr.ReadAll()
	if err != nil {
		return nil, 0, errors.Wrap(err, "read csv")
	}

	return rowsFromLines(lines)
}

// ReadCSVGzip reads a pgzip-compressed CSV stream. Large seller catalogs
// are shipped compressed; pgzip decompresses in parallel.
func ReadCSVGzip(r io.Reader) ([]Row, int, error) {
	zr, err := pgzip.NewReader(r)
	if err != nil {
		return nil, 0, errors.Wrap(err, "open gzip stream")
	}
	defer func() { _ = zr.Close() }()

	return ReadCSV(zr)
}
