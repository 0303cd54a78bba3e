package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/techvault/retail-core/internal/domain/inventory"
)

var _ inventory.Ledger = (*InventoryLedger)(nil)

// InventoryLedger implements inventory.Ledger backed by PostgreSQL. The
// check-then-decrement is a single conditional UPDATE, so concurrent
// deductions for the same product serialize on the row and the stock >= qty
// guard makes oversell impossible regardless of interleaving.
type InventoryLedger struct {
	pool *pgxpool.Pool
}

// NewInventoryLedger returns an InventoryLedger that uses the given pool.
func NewInventoryLedger(pool *pgxpool.Pool) *InventoryLedger {
	return &InventoryLedger{pool: pool}
}

// CheckAndDeduct atomically decrements a product's stock by quantity and
// returns the line snapshot captured by the same statement. When the guarded
// UPDATE matches no row, a follow-up read distinguishes a missing product
// from insufficient stock; neither case mutates anything.
func (l *InventoryLedger) CheckAndDeduct(ctx context.Context, productID string, quantity int) (inventory.Snapshot, error) {
	var (
		name  string
		price decimal.Decimal
	)
	err := l.pool.QueryRow(ctx, `
		UPDATE products
		   SET stock = stock - $2
		 WHERE id = $1 AND stock >= $2
		RETURNING name, price`,
		productID, quantity,
	).Scan(&name, &price)

	if err == nil {
		return inventory.Snapshot{
			ProductID: productID,
			Name:      name,
			UnitPrice: price,
			Quantity:  quantity,
		}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return inventory.Snapshot{}, fmt.Errorf("deducting stock for %q: %w", productID, err)
	}

	err = l.pool.QueryRow(ctx,
		`SELECT name FROM products WHERE id = $1`, productID,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.Snapshot{}, &inventory.ProductNotFoundError{ProductID: productID}
		}
		return inventory.Snapshot{}, fmt.Errorf("looking up product %q: %w", productID, err)
	}

	return inventory.Snapshot{}, &inventory.InsufficientStockError{
		ProductID: productID,
		Name:      name,
		Requested: quantity,
	}
}

// Restock returns quantity units to the product's pool. Used only as the
// fulfillment saga's compensation step.
func (l *InventoryLedger) Restock(ctx context.Context, productID string, quantity int) error {
	tag, err := l.pool.Exec(ctx,
		`UPDATE products SET stock = stock + $2 WHERE id = $1`,
		productID, quantity)
	if err != nil {
		return fmt.Errorf("restocking %q: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return &inventory.ProductNotFoundError{ProductID: productID}
	}
	return nil
}
