package importer

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/shopcuathuy/marketplace-api/internal/domain/product"
)

// ErrMalformedFile is returned when the uploaded file cannot be parsed at
// all. Unlike per-row validation failures, this is fatal to the whole import.
var ErrMalformedFile = errors.New("import file cannot be parsed")

// Result is the outcome of parsing a batch of rows: the products that
// validated, and one message per rejected row.
type Result struct {
	Products []product.Product
	Errors   []string
}

// Parse validates and expands rows independently, never aborting the batch
// on a single row's failure. headerOffset is the number of spreadsheet rows
// preceding the first data row (the standard import template has a title row
// and a header row, so its offset is 2); error messages add it so row
// numbers match the operator's sheet.
func Parse(rows []Row, headerOffset int) Result {
	var res Result
	for i, row := range rows {
		p, err := ParseRow(row, i+1+headerOffset)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		res.Products = append(res.Products, p)
	}
	return res
}

// Report is the externally visible result of one import invocation.
type Report struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// Importer orchestrates a bulk catalog import: read the file, validate and
// expand each row, persist what validated, and report the per-row tally.
type Importer struct {
	products product.Repository
}

// New creates an Importer that persists through the given repository.
func New(products product.Repository) *Importer {
	return &Importer{products: products}
}

// Import reads a spreadsheet, parses it, persists the valid products and
// returns the tally. The format is chosen by filename extension: .xlsx
// workbooks, .csv files, and pgzip-compressed .csv.gz files are accepted.
// A file that cannot be parsed at all fails with ErrMalformedFile.
func (im *Importer) Import(ctx context.Context, r io.Reader, filename, sellerID string) (Report, error) {
	rows, offset, err := ReadRows(r, filename)
	if err != nil {
		return Report{}, errors.Wrap(ErrMalformedFile, err.Error())
	}

	res := Parse(rows, offset)

	for i := range res.Products {
		res.Products[i].ID = uuid.New().String()
		res.Products[i].SellerID = sellerID
		for j := range res.Products[i].Variants {
			res.Products[i].Variants[j].ID = uuid.New().String()
			res.Products[i].Variants[j].ProductID = res.Products[i].ID
		}
	}

	if len(res.Products) > 0 {
		if err := im.products.CreateBatch(ctx, res.Products); err != nil {
			return Report{}, errors.Wrap(err, "persist imported products")
		}
	}

	return Report{
		Success: len(res.Products),
		Failed:  len(res.Errors),
		Errors:  res.Errors,
	}, nil
}

// ReadRows reads raw rows from r, choosing the format by filename extension.
// It returns the rows and the header offset for spreadsheet row numbering.
func ReadRows(r io.Reader, filename string) ([]Row, int, error) {
	name := strings.ToLower(filepath.Base(filename))
	switch {
	case strings.HasSuffix(name, ".xlsx"):
		return ReadXLSX(r)
	case strings.HasSuffix(name, ".csv.gz"), strings.HasSuffix(name, ".gz"):
		return ReadCSVGzip(r)
	case strings.HasSuffix(name, ".csv"):
		return ReadCSV(r)
	default:
		return nil, 0, errors.Errorf("unsupported file type %q", name)
	}
}
