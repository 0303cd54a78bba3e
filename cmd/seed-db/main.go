package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/techvault/retail-core/internal/postgres"
)

type productJSON struct {
	ID          string            `json:"id"`
	SKU         string            `json:"sku"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Price       decimal.Decimal   `json:"price"`
	Stock       int               `json:"stock"`
	ImageURL    string            `json:"imageUrl"`
	Specs       map[string]string `json:"specs"`
}

type seedUser struct {
	ID       string
	FullName string
	Email    string
	Role     string
	// KeyEnv names the environment variable holding this user's API key.
	KeyEnv string
	Scopes []string
}

var seedUsers = []seedUser{
	{
		ID: "admin", FullName: "Store Admin", Email: "admin@techvault.local",
		Role: "admin", KeyEnv: "RETAIL_SEED_ADMIN_KEY",
		Scopes: []string{"orders:write", "orders:admin"},
	},
	{
		ID: "pos-terminal-1", FullName: "POS Terminal 1", Email: "pos1@techvault.local",
		Role: "staff", KeyEnv: "RETAIL_SEED_POS_KEY",
		Scopes: []string{"orders:write"},
	},
	{
		ID: "demo-customer", FullName: "Demo Customer", Email: "customer@techvault.local",
		Role: "customer", KeyEnv: "RETAIL_SEED_CUSTOMER_KEY",
		Scopes: []string{"orders:write"},
	},
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or RETAIL_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("RETAIL_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, pepper string) error {
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

	if err := seedUsersAndKeys(ctx, pool, pepper); err != nil {
		return errors.Wrap(err, "seed users")
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
		specs, err := json.Marshal(p.Specs)
		if err != nil {
			return errors.Wrapf(err, "marshal specs for %s", p.ID)
		}

		_, err = pool.Exec(ctx, `
			INSERT INTO products (id, sku, name, description, category, price, stock, image_url, specs)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				sku = EXCLUDED.sku, name = EXCLUDED.name,
				description = EXCLUDED.description, category = EXCLUDED.category,
				price = EXCLUDED.price, stock = EXCLUDED.stock,
				image_url = EXCLUDED.image_url, specs = EXCLUDED.specs`,
			p.ID, p.SKU, p.Name, p.Description, p.Category, p.Price, p.Stock, p.ImageURL, specs)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedUsersAndKeys(ctx context.Context, pool *pgxpool.Pool, pepper string) error {
	slog.Info("seeding demo users and API keys")

	for _, u := range seedUsers {
		_, err := pool.Exec(ctx, `
			INSERT INTO users (id, full_name, email, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET
				full_name = EXCLUDED.full_name, email = EXCLUDED.email, role = EXCLUDED.role`,
			u.ID, u.FullName, u.Email, u.Role)
		if err != nil {
			return errors.Wrapf(err, "upsert user %s", u.ID)
		}

		key := os.Getenv(u.KeyEnv)
		if key == "" {
			slog.Info("skipping API key, env not set",
				slog.String("user", u.ID), slog.String("env", u.KeyEnv))
			continue
		}

		mac := hmac.New(sha256.New, []byte(pepper))
		mac.Write([]byte(key))
		keyHash := hex.EncodeToString(mac.Sum(nil))

		_, err = pool.Exec(ctx, `
			INSERT INTO api_keys (id, key_hash, name, actor_id, scopes, active)
			VALUES ($1, $2, $3, $4, $5, TRUE)
			ON CONFLICT (id) DO UPDATE SET
				key_hash = EXCLUDED.key_hash, name = EXCLUDED.name,
				actor_id = EXCLUDED.actor_id, scopes = EXCLUDED.scopes,
				active = TRUE`,
			u.ID+"-key", keyHash, u.FullName+" key", u.ID, u.Scopes)
		if err != nil {
			return errors.Wrapf(err, "upsert api key for %s", u.ID)
		}

		slog.Info("upserted api key", slog.String("user", u.ID))
	}

	return nil
}
