// Package inventory defines the stock ledger contract: the single authority
// on how many units of each product can still be sold.
package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Snapshot is what a successful deduction hands back: the product identity
// and price captured at the moment stock was taken, so the order line records
// what was actually sold even if the catalog changes later.
type Snapshot struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Ledger guards product stock. CheckAndDeduct must be atomic per product:
// under concurrent calls the combined decrement never exceeds available
// stock and stock never goes negative.
type Ledger interface {
	// CheckAndDeduct verifies quantity units of the product are available and
	// deducts them in one indivisible step. On success it returns the snapshot
	// used to build the order line. On failure nothing is deducted.
	CheckAndDeduct(ctx context.Context, productID string, quantity int) (Snapshot, error)

	// Restock returns quantity units to the product. It is the compensation
	// step for a checkout that deducted some lines and then failed.
	Restock(ctx context.Context, productID string, quantity int) error
}

// ProductNotFoundError indicates the requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InsufficientStockError indicates the product exists but cannot cover the
// requested quantity. The message is surfaced verbatim to API clients.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for: %s", e.Name)
}
