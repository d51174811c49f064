// Command catalog-ingest loads supplier product feeds into the catalog.
//
// Each feed is a gzip-compressed file of JSON lines, one product per line.
// Suppliers occasionally ship overlapping SKUs; the ingest runs two passes:
// pass 1 builds a bloom filter of SKUs per feed, pass 2 streams the feeds
// again and upserts products, skipping any SKU that an earlier feed may
// already have claimed. Feed order is therefore the precedence order.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/luxora-commerce/internal/storage/postgres"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000
)

// feedProduct is a single decoded supplier feed line.
type feedProduct struct {
	SKU         string
	Title       string
	Description string
	Category    string
	Brand       string
	Image       string
	Price       decimal.Decimal
	SalePrice   decimal.Decimal
	TotalStock  int
}

const upsertProductSQL = `INSERT INTO products
	(id, title, description, category, brand, image, price, sale_price, total_stock)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title, description = EXCLUDED.description,
		category = EXCLUDED.category, brand = EXCLUDED.brand,
		image = EXCLUDED.image, price = EXCLUDED.price,
		sale_price = EXCLUDED.sale_price, total_stock = EXCLUDED.total_stock,
		updated_at = now()`

func main() {
	var (
		feedDir     string
		databaseURL string
	)

	flag.StringVar(&feedDir, "feed-dir", "feeds", "directory containing *.jsonl.gz supplier feeds")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, feedDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, feedDir, databaseURL string) error {
	feeds, err := filepath.Glob(filepath.Join(feedDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob feed files")
	}
	if len(feeds) == 0 {
		return errors.Errorf("no *.jsonl.gz feeds found in %s", feedDir)
	}

	// Lexical feed order decides SKU precedence, so make it deterministic.
	sort.Strings(feeds)

	slog.Info("pass 1: indexing feed SKUs", slog.Int("feeds", len(feeds)))

	filters, err := buildSKUFilters(ctx, feeds)
	if err != nil {
		return errors.Wrap(err, "index feed SKUs")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("pass 2: upserting products")

	for i, feed := range feeds {
		if err := ingestFeed(ctx, pool, i, feed, filters); err != nil {
			return errors.Wrapf(err, "ingest feed %s", feed)
		}
	}

	return nil
}

// buildSKUFilters creates one bloom filter of SKUs per feed, concurrently.
func buildSKUFilters(ctx context.Context, feeds []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(feeds))

	g, ctx := errgroup.WithContext(ctx)
	for i, feed := range feeds {
		g.Go(buildFilterForFeed(ctx, i, feed, filters))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return filters, nil
}

func buildFilterForFeed(ctx context.Context, idx int, path string, filters []*bloom.BloomFilter) func() error {
	return func() error {
		filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
		var count uint64

		if err := streamFeed(ctx, path, func(line []byte) error {
			sku, err := decodeSKU(line)
			if err != nil {
				return err
			}
			if sku == "" {
				return nil
			}

			filter.AddString(sku)
			count++
			if count%progressEvery == 0 {
				slog.Info("pass 1 progress",
					slog.String("feed", filepath.Base(path)),
					slog.Uint64("skus", count),
				)
			}
			return nil
		}); err != nil {
			return errors.Wrapf(err, "index feed %s", path)
		}

		slog.Info("pass 1 complete",
			slog.String("feed", filepath.Base(path)),
			slog.Uint64("total_skus", count),
		)

		filters[idx] = filter
		return nil
	}
}

// ingestFeed streams one feed and upserts its products, skipping SKUs that
// any earlier feed already covers.
func ingestFeed(ctx context.Context, pool *pgxpool.Pool, idx int, path string, filters []*bloom.BloomFilter) error {
	var written, skipped uint64

	err := streamFeed(ctx, path, func(line []byte) error {
		p, err := decodeProduct(line)
		if err != nil {
			return err
		}
		if p.SKU == "" {
			return nil
		}

		for j := range idx {
			if filters[j].TestString(p.SKU) {
				skipped++
				return nil
			}
		}

		if _, err := pool.Exec(ctx, upsertProductSQL,
			p.SKU, p.Title, p.Description, p.Category, p.Brand, p.Image,
			p.Price, p.SalePrice, p.TotalStock,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.SKU)
		}

		written++
		if written%progressEvery == 0 {
			slog.Info("pass 2 progress",
				slog.String("feed", filepath.Base(path)),
				slog.Uint64("written", written),
			)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("pass 2 complete",
		slog.String("feed", filepath.Base(path)),
		slog.Uint64("written", written),
		slog.Uint64("skipped", skipped),
	)

	return nil
}

// streamFeed opens a gzip-compressed feed and calls fn for each non-empty line.
func streamFeed(ctx context.Context, path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// decodeSKU extracts just the sku field from a feed line.
func decodeSKU(line []byte) (string, error) {
	var sku string

	d := jx.DecodeBytes(line)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) == "sku" {
			s, err := d.Str()
			if err != nil {
				return err
			}
			sku = s
			return nil
		}
		return d.Skip()
	}); err != nil {
		return "", errors.Wrap(err, "decode feed line")
	}

	return sku, nil
}

// decodeProduct decodes a full feed line.
func decodeProduct(line []byte) (feedProduct, error) {
	var p feedProduct

	d := jx.DecodeBytes(line)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "sku":
			s, err := d.Str()
			p.SKU = s
			return err
		case "title":
			s, err := d.Str()
			p.Title = s
			return err
		case "description":
			s, err := d.Str()
			p.Description = s
			return err
		case "category":
			s, err := d.Str()
			p.Category = s
			return err
		case "brand":
			s, err := d.Str()
			p.Brand = s
			return err
		case "image":
			s, err := d.Str()
			p.Image = s
			return err
		case "price":
			s, err := d.Str()
			if err != nil {
				return err
			}
			v, err := decimal.NewFromString(s)
			if err != nil {
				return errors.Wrap(err, "parse price")
			}
			p.Price = v
			return nil
		case "salePrice":
			s, err := d.Str()
			if err != nil {
				return err
			}
			v, err := decimal.NewFromString(s)
			if err != nil {
				return errors.Wrap(err, "parse sale price")
			}
			p.SalePrice = v
			return nil
		case "totalStock":
			n, err := d.Int()
			p.TotalStock = n
			return err
		default:
			return d.Skip()
		}
	}); err != nil {
		return feedProduct{}, errors.Wrap(err, "decode feed line")
	}

	return p, nil
}
