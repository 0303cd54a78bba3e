package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/techvault/retail-core/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

const productColumns = `id, sku, name, description, category, price, stock, image_url, specs, created_at`

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all products from the catalog ordered by name.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

func scanProduct(row pgx.Row) (product.Product, error) {
	var (
		p         product.Product
		price     decimal.Decimal
		specsJSON []byte
		createdAt time.Time
	)
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Category,
		&price, &p.Stock, &p.ImageURL, &specsJSON, &createdAt)
	if err != nil {
		return product.Product{}, err
	}
	p.Price = price
	p.CreatedAt = createdAt
	if len(specsJSON) > 0 {
		if err := json.Unmarshal(specsJSON, &p.Specs); err != nil {
			return product.Product{}, fmt.Errorf("unmarshaling specs: %w", err)
		}
	}
	return p, nil
}
