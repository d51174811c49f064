// Command seed-db prepares a development database: schema migrations, a small
// product catalog, a demo cart and an admin API key.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/luxora-commerce/internal/storage/postgres"
)

type productJSON struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	SalePrice   decimal.Decimal `json:"salePrice"`
	TotalStock  int             `json:"totalStock"`
}

const (
	upsertProductSQL = `INSERT INTO products
		(id, title, description, category, brand, image, price, sale_price, total_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title, description = EXCLUDED.description,
			category = EXCLUDED.category, brand = EXCLUDED.brand,
			image = EXCLUDED.image, price = EXCLUDED.price,
			sale_price = EXCLUDED.sale_price, total_stock = EXCLUDED.total_stock,
			updated_at = now()`

	upsertCartSQL = `INSERT INTO carts (id, shopper_id, items)
		VALUES ($1, $2, $3)
		ON CONFLICT (shopper_id) DO UPDATE SET items = EXCLUDED.items, updated_at = now()`

	upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, scopes)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET key_hash = EXCLUDED.key_hash,
			name = EXCLUDED.name, scopes = EXCLUDED.scopes`
)

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		demoShopper  string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or LUXORA_SEED_API_KEY env)")
	flag.StringVar(&demoShopper, "demo-shopper", "", "shopper id to seed a demo cart for (optional)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("LUXORA_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or LUXORA_SEED_API_KEY")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, demoShopper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, demoShopper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if demoShopper != "" {
		if err := seedDemoCart(ctx, pool, demoShopper); err != nil {
			return errors.Wrap(err, "seed demo cart")
		}
	}

	if err := seedAPIKey(ctx, pool, apiKey); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		_, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Title, p.Description, p.Category, p.Brand, p.Image,
			p.Price, p.SalePrice, p.TotalStock,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("title", p.Title))
	}

	return nil
}

func seedDemoCart(ctx context.Context, pool *pgxpool.Pool, shopperID string) error {
	items, err := json.Marshal([]map[string]any{
		{"productId": "p-leather-tote", "quantity": 1},
		{"productId": "p-silk-scarf", "quantity": 2},
	})
	if err != nil {
		return errors.Wrap(err, "marshal demo cart items")
	}

	if _, err := pool.Exec(ctx, upsertCartSQL, uuid.New().String(), shopperID, items); err != nil {
		return errors.Wrap(err, "upsert demo cart")
	}

	slog.Info("seeded demo cart", slog.String("shopper", shopperID))
	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey string) error {
	slog.Info("seeding admin API key")

	hash := sha256.Sum256([]byte(apiKey))
	keyHash := hex.EncodeToString(hash[:])

	_, err := pool.Exec(ctx, upsertAPIKeySQL,
		"admin", keyHash, "Admin panel key", []string{"admin"},
	)
	if err != nil {
		return errors.Wrap(err, "upsert admin API key")
	}

	slog.Info("upserted API key", slog.String("id", "admin"))
	return nil
}
