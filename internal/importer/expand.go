package importer

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shopcuathuy/marketplace-api/internal/domain/product"
)

// splitList splits a comma-separated cell into trimmed, non-empty tokens.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseDecimalList parses tokens as decimal amounts, dropping anything
// unparseable, matching the permissive handling of hand-edited sheets.
func parseDecimalList(tokens []string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(tokens))
	for _, t := range tokens {
		d, err := decimal.NewFromString(t)
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

// parseIntList parses tokens as integers, dropping anything unparseable.
func parseIntList(tokens []string) []int {
	out := make([]int, 0, len(tokens))
	for _, t := range tokens {
		n, err := strconv.Atoi(t)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// ExpandVariants expands the four parallel lists positionally into variant
// tuples. The variant count is the longest list's length; shorter lists
// contribute nil for the missing positions. This is deliberately not a
// strict zip: an operator may list sizes without per-size prices and the
// base product price applies. Zero prices and stocks are treated as
// unspecified, the same way the import template's empty cells are.
func ExpandVariants(sizes, colors []string, prices []decimal.Decimal, stocks []int) []product.Variant {
	n := max(len(sizes), len(colors), len(prices), len(stocks))
	if n == 0 {
		return nil
	}

	variants := make([]product.Variant, n)
	for i := range n {
		var v product.Variant
		if i < len(sizes) {
			v.Size = &sizes[i]
		}
		if i < len(colors) {
			v.Color = &colors[i]
		}
		if i < len(prices) && !prices[i].IsZero() {
			v.Price = &prices[i]
		}
		if i < len(stocks) && stocks[i] != 0 {
			v.Stock = &stocks[i]
		}
		variants[i] = v
	}
	return variants
}

// ParseRow validates one spreadsheet row and expands it into a product with
// variants. rowNumber is the operator-facing spreadsheet row used in error
// messages.
func ParseRow(r Row, rowNumber int) (product.Product, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return product.Product{}, &RowError{Row: rowNumber, Reason: "missing product name"}
	}

	priceText := strings.TrimSpace(r.Price)
	if priceText == "" {
		return product.Product{}, &RowError{Row: rowNumber, Reason: "invalid price"}
	}
	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return product.Product{}, &RowError{Row: rowNumber, Reason: "invalid price"}
	}

	category := strings.TrimSpace(r.Category)
	if category == "" {
		return product.Product{}, &RowError{Row: rowNumber, Reason: "missing category"}
	}

	if !price.IsPositive() {
		return product.Product{}, &RowError{Row: rowNumber, Reason: "price must be greater than 0"}
	}

	comparePrice := decimal.Zero
	if ct := strings.TrimSpace(r.ComparePrice); ct != "" {
		comparePrice, err = decimal.NewFromString(ct)
		if err != nil {
			return product.Product{}, &RowError{Row: rowNumber, Reason: "invalid compare price"}
		}
		if !comparePrice.GreaterThan(price) {
			return product.Product{}, &RowError{Row: rowNumber, Reason: "compare price must be greater than price"}
		}
	}

	sizes := splitList(r.Sizes)
	colors := splitList(r.Colors)
	prices := parseDecimalList(splitList(r.VariantPrices))
	stocks := parseIntList(splitList(r.VariantStocks))

	// Variants exist only when at least one size or color was declared.
	var variants []product.Variant
	if len(sizes) > 0 || len(colors) > 0 {
		variants = ExpandVariants(sizes, colors, prices, stocks)
	}

	// Aggregate quantity: explicit total column first, then the sum of
	// variant stocks, otherwise unknown.
	var quantity *int
	if qt := strings.TrimSpace(r.TotalQuantity); qt != "" {
		if n, err := strconv.Atoi(qt); err == nil {
			quantity = &n
		}
	}
	if quantity == nil && len(stocks) > 0 {
		sum := 0
		for _, s := range stocks {
			sum += s
		}
		quantity = &sum
	}

	status := strings.TrimSpace(r.Status)
	if status == "" {
		status = "active"
	}

	return product.Product{
		Name:         name,
		Description:  strings.TrimSpace(r.Description),
		Price:        price,
		ComparePrice: comparePrice,
		Category:     category,
		SKU:          strings.TrimSpace(r.SKU),
		Images:       splitList(r.Images),
		Quantity:     quantity,
		Status:       status,
		Variants:     variants,
	}, nil
}
