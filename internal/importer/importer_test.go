package importer

import (
	"bytes"
	"context"
	"strings"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopcuathuy/marketplace-api/internal/domain/product"
)

type mockProductRepo struct {
	created   []product.Product
	createErr error
}

func (m *mockProductRepo) GetByIDs(_ context.Context, _ []string) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) CreateBatch(_ context.Context, products []product.Product) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, products...)
	return nil
}

func validRow(name string) Row {
	return Row{Name: name, Price: "100000", Category: "Thời trang"}
}

func TestParse_BadRowDoesNotAbortBatch(t *testing.T) {
	rows := []Row{
		validRow("Áo thun"),
		validRow("Quần jean"),
		{Name: "Váy", Price: "0", Category: "Thời trang"},
		validRow("Giày"),
		validRow("Nón"),
	}

	res := Parse(rows, 2)

	assert.Len(t, res.Products, 4)
	require.Len(t, res.Errors, 1)
	// Data ordinal 3 plus a title row and a header row is spreadsheet row 5.
	assert.Contains(t, res.Errors[0], "row 5")
	assert.Contains(t, res.Errors[0], "price must be greater than 0")
}

func TestParse_Empty(t *testing.T) {
	res := Parse(nil, 2)
	assert.Empty(t, res.Products)
	assert.Empty(t, res.Errors)
}

func TestParse_Pure(t *testing.T) {
	rows := []Row{validRow("Áo thun"), {Name: "x"}}

	first := Parse(rows, 2)
	second := Parse(rows, 2)

	assert.Equal(t, first, second)
}

const sampleCSV = `Danh sách sản phẩm nhập kho,,,,,,
Tên sản phẩm,Giá,Danh mục,Kích thước,Màu sắc,Giá variant,Số lượng
Áo thun nam,150000,Thời trang,"S, M, L",Đen,,"10,5,3"
Quần jean,250000,Thời trang,,,,"20"
,0,,,,,
Giày sneaker,500000,Giày dép,"39,40",Trắng,"500000,510000","4,6"
`

func TestImport_CSV(t *testing.T) {
	repo := &mockProductRepo{}
	im := New(repo)

	rep, err := im.Import(context.Background(), strings.NewReader(sampleCSV), "catalog.csv", "seller-1")
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Success)
	assert.Equal(t, 1, rep.Failed)
	require.Len(t, rep.Errors, 1)
	// The broken line is the third data row, under a title and a header row.
	assert.Contains(t, rep.Errors[0], "row 5")

	require.Len(t, repo.created, 3)
	for _, p := range repo.created {
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, "seller-1", p.SellerID)
		for _, v := range p.Variants {
			assert.NotEmpty(t, v.ID)
			assert.Equal(t, p.ID, v.ProductID)
		}
	}

	ao := repo.created[0]
	assert.Equal(t, "Áo thun nam", ao.Name)
	require.Len(t, ao.Variants, 3)
	require.NotNil(t, ao.Quantity)
	assert.Equal(t, 18, *ao.Quantity)
}

func TestImport_CSVGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	repo := &mockProductRepo{}
	rep, err := New(repo).Import(context.Background(), &buf, "catalog.csv.gz", "seller-1")
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Success)
	assert.Equal(t, 1, rep.Failed)
}

func TestImport_UnsupportedExtension(t *testing.T) {
	repo := &mockProductRepo{}
	_, err := New(repo).Import(context.Background(), strings.NewReader("x"), "catalog.pdf", "seller-1")

	require.ErrorIs(t, err, ErrMalformedFile)
	assert.Empty(t, repo.created)
}

func TestImport_GarbageXLSX(t *testing.T) {
	repo := &mockProductRepo{}
	_, err := New(repo).Import(context.Background(), strings.NewReader("not a workbook"), "catalog.xlsx", "seller-1")

	require.ErrorIs(t, err, ErrMalformedFile)
	assert.Empty(t, repo.created)
}

func TestImport_NoHeaderRow(t *testing.T) {
	repo := &mockProductRepo{}
	_, err := New(repo).Import(context.Background(), strings.NewReader("a,b,c\n1,2,3\n"), "catalog.csv", "seller-1")

	require.ErrorIs(t, err, ErrMalformedFile)
}

func TestRowsFromLines_HeaderWithoutTitleRow(t *testing.T) {
	lines := [][]string{
		{"Tên sản phẩm", "Giá", "Danh mục"},
		{"Áo", "100000", "Thời trang"},
	}

	rows, offset, err := rowsFromLines(lines)
	require.NoError(t, err)
	assert.Equal(t, 1, offset)
	require.Len(t, rows, 1)
	assert.Equal(t, "Áo", rows[0].Name)
}

func TestRowsFromLines_SkipsBlankLines(t *testing.T) {
	lines := [][]string{
		{"Tên sản phẩm", "Giá", "Danh mục"},
		{"", "", ""},
		{"Áo", "100000", "Thời trang"},
	}

	rows, _, err := rowsFromLines(lines)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestMapHeader_EnglishAliases(t *testing.T) {
	mapping, ok := mapHeader([]string{"Name", "Price", "Category", "Sizes"})
	require.True(t, ok)
	assert.Equal(t, colName, mapping[0])
	assert.Equal(t, colPrice, mapping[1])
	assert.Equal(t, colCategory, mapping[2])
	assert.Equal(t, colSizes, mapping[3])
}

func TestMapHeader_TitleRowRejected(t *testing.T) {
	_, ok := mapHeader([]string{"Danh sách sản phẩm nhập kho", "", ""})
	assert.False(t, ok)
}
