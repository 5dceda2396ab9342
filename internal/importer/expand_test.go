package importer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandVariants_ShortColorList(t *testing.T) {
	// Sizes "S, M, L", one color, no prices, stocks "10,5,3": the color list
	// contributes nil past its length, not a repeat of its last value.
	sizes := splitList("S, M, L")
	colors := splitList("Đen")
	prices := parseDecimalList(splitList(""))
	stocks := parseIntList(splitList("10,5,3"))

	variants := ExpandVariants(sizes, colors, prices, stocks)
	require.Len(t, variants, 3)

	require.NotNil(t, variants[0].Size)
	assert.Equal(t, "S", *variants[0].Size)
	require.NotNil(t, variants[0].Color)
	assert.Equal(t, "Đen", *variants[0].Color)
	assert.Nil(t, variants[0].Price)
	require.NotNil(t, variants[0].Stock)
	assert.Equal(t, 10, *variants[0].Stock)

	assert.Equal(t, "M", *variants[1].Size)
	assert.Nil(t, variants[1].Color)
	assert.Nil(t, variants[1].Price)
	assert.Equal(t, 5, *variants[1].Stock)

	assert.Equal(t, "L", *variants[2].Size)
	assert.Nil(t, variants[2].Color)
	assert.Nil(t, variants[2].Price)
	assert.Equal(t, 3, *variants[2].Stock)
}

func TestExpandVariants_Empty(t *testing.T) {
	assert.Nil(t, ExpandVariants(nil, nil, nil, nil))
}

func TestExpandVariants_StocksLongerThanSizes(t *testing.T) {
	variants := ExpandVariants(splitList("S"), nil, nil, parseIntList(splitList("4,7")))
	require.Len(t, variants, 2)
	assert.Nil(t, variants[1].Size)
	require.NotNil(t, variants[1].Stock)
	assert.Equal(t, 7, *variants[1].Stock)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"S", "M", "L"}, splitList(" S, M ,L "))
	assert.Equal(t, []string{"a"}, splitList("a,,  ,"))
	assert.Nil(t, splitList("  "))
	assert.Nil(t, splitList(""))
}

func TestParseRow_Valid(t *testing.T) {
	p, err := ParseRow(Row{
		Name:          " Áo thun nam ",
		Price:         "150000",
		ComparePrice:  "200000",
		Category:      "Thời trang",
		SKU:           "AT-001",
		Images:        "https://cdn.example.com/a.jpg, https://cdn.example.com/b.jpg",
		Sizes:         "S,M",
		Colors:        "Đen,Trắng",
		VariantPrices: "150000,160000",
		VariantStocks: "10,20",
	}, 3)
	require.NoError(t, err)

	assert.Equal(t, "Áo thun nam", p.Name)
	assert.True(t, decimal.NewFromInt(150_000).Equal(p.Price))
	assert.Equal(t, "Thời trang", p.Category)
	assert.Len(t, p.Images, 2)
	require.Len(t, p.Variants, 2)
	require.NotNil(t, p.Variants[1].Price)
	assert.True(t, decimal.NewFromInt(160_000).Equal(*p.Variants[1].Price))
	require.NotNil(t, p.Quantity)
	assert.Equal(t, 30, *p.Quantity, "quantity defaults to the sum of variant stocks")
	assert.Equal(t, "active", p.Status, "status defaults to active")
}

func TestParseRow_ExplicitTotalQuantityWins(t *testing.T) {
	p, err := ParseRow(Row{
		Name:          "Áo",
		Price:         "100000",
		Category:      "Thời trang",
		Sizes:         "S,M",
		VariantStocks: "10,20",
		TotalQuantity: "99",
	}, 3)
	require.NoError(t, err)
	require.NotNil(t, p.Quantity)
	assert.Equal(t, 99, *p.Quantity)
}

func TestParseRow_NoQuantityInfo(t *testing.T) {
	p, err := ParseRow(Row{Name: "Áo", Price: "100000", Category: "Thời trang"}, 3)
	require.NoError(t, err)
	assert.Nil(t, p.Quantity)
	assert.Nil(t, p.Variants)
}

func TestParseRow_Errors(t *testing.T) {
	tests := []struct {
		name   string
		row    Row
		reason string
	}{
		{
			name:   "missing name",
			row:    Row{Price: "1000", Category: "c"},
			reason: "missing product name",
		},
		{
			name:   "missing price",
			row:    Row{Name: "n", Category: "c"},
			reason: "invalid price",
		},
		{
			name:   "unparseable price",
			row:    Row{Name: "n", Price: "abc", Category: "c"},
			reason: "invalid price",
		},
		{
			name:   "missing category",
			row:    Row{Name: "n", Price: "1000"},
			reason: "missing category",
		},
		{
			name:   "zero price",
			row:    Row{Name: "n", Price: "0", Category: "c"},
			reason: "price must be greater than 0",
		},
		{
			name:   "negative price",
			row:    Row{Name: "n", Price: "-5", Category: "c"},
			reason: "price must be greater than 0",
		},
		{
			name:   "compare price not above price",
			row:    Row{Name: "n", Price: "1000", ComparePrice: "1000", Category: "c"},
			reason: "compare price must be greater than price",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRow(tt.row, 7)

			var re *RowError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, 7, re.Row)
			assert.Equal(t, tt.reason, re.Reason)
			assert.Contains(t, err.Error(), "row 7:")
		})
	}
}
