// Package importer turns operator-supplied spreadsheets into catalog
// products, expanding comma-separated size/color/price/stock columns into
// concrete variants. Rows are processed independently: one bad row never
// aborts the batch.
package importer

import (
	"fmt"
	"strings"
)

// Row is one raw spreadsheet row. All fields are the untrimmed cell text;
// parsing and validation happen in ParseRow.
type Row struct {
	Name          string
	Description   string
	Price         string
	ComparePrice  string
	Category      string
	SKU           string
	Images        string
	Sizes         string
	Colors        string
	VariantPrices string
	VariantStocks string
	TotalQuantity string
	Status        string
}

// RowError is a per-row validation failure. The row number is the
// operator-facing spreadsheet row (1-based, counting title and header rows),
// so the message matches what the operator sees in their sheet.
type RowError struct {
	Row    int
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

// column identifies a canonical Row field.
type column int

const (
	colUnknown column = iota
	colName
	colDescription
	colPrice
	colComparePrice
	colCategory
	colSKU
	colImages
	colSizes
	colColors
	colVariantPrices
	colVariantStocks
	colTotalQuantity
	colStatus
)

// headerAliases maps normalized header cell text to canonical columns. The
// import template ships with Vietnamese headers; English spellings are
// accepted for sheets edited elsewhere.
var headerAliases = map[string]column{
	"name":           colName,
	"product name":   colName,
	"tên sản phẩm":   colName,
	"description":    colDescription,
	"mô tả":          colDescription,
	"price":          colPrice,
	"giá":            colPrice,
	"compare price":  colComparePrice,
	"giá so sánh":    colComparePrice,
	"category":       colCategory,
	"danh mục":       colCategory,
	"sku":            colSKU,
	"images":         colImages,
	"hình ảnh":       colImages,
	"sizes":          colSizes,
	"kích thước":     colSizes,
	"colors":         colColors,
	"màu sắc":        colColors,
	"variant prices": colVariantPrices,
	"giá variant":    colVariantPrices,
	"variant stocks": colVariantStocks,
	"số lượng":       colVariantStocks,
	"total quantity": colTotalQuantity,
	"số lượng tổng":  colTotalQuantity,
	"status":         colStatus,
	"trạng thái":     colStatus,
}

func normalizeHeader(cell string) string {
	return strings.ToLower(strings.TrimSpace(cell))
}

// mapHeader resolves a header row into a column index mapping. It reports
// false when the row cannot be a header (no name or no price column), which
// lets the readers skip title rows above the real header.
func mapHeader(cells []string) (map[int]column, bool) {
	mapping := make(map[int]column, len(cells))
	var hasName, hasPrice bool
	for i, cell := range cells {
		col, ok := headerAliases[normalizeHeader(cell)]
		if !ok {
			continue
		}
		mapping[i] = col
		switch col {
		case colName:
			hasName = true
		case colPrice:
			hasPrice = true
		}
	}
	return mapping, hasName && hasPrice
}

// rowFromCells builds a Row from one data line using the header mapping.
func rowFromCells(cells []string, mapping map[int]column) Row {
	var r Row
	for i, cell := range cells {
		switch mapping[i] {
		case colName:
			r.Name = cell
		case colDescription:
			r.Description = cell
		case colPrice:
			r.Price = cell
		case colComparePrice:
			r.ComparePrice = cell
		case colCategory:
			r.Category = cell
		case colSKU:
			r.SKU = cell
		case colImages:
			r.Images = cell
		case colSizes:
			r.Sizes = cell
		case colColors:
			r.Colors = cell
		case colVariantPrices:
			r.VariantPrices = cell
		case colVariantStocks:
			r.VariantStocks = cell
		case colTotalQuantity:
			r.TotalQuantity = cell
		case colStatus:
			r.Status = cell
		}
	}
	return r
}

// isBlank reports whether every cell in the line is empty after trimming.
func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
