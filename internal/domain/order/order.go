package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Channel is the sales path an order originates from.
type Channel string

const (
	ChannelOnline Channel = "Online"
	ChannelPOS    Channel = "POS"
)

// ParseChannel validates a channel string.
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelOnline, ChannelPOS:
		return Channel(s), nil
	default:
		return "", &ValidationError{Field: "channel", Reason: fmt.Sprintf("unknown channel %q", s)}
	}
}

// CartLine is a client-supplied request for a quantity of one product.
// It is transient; nothing persists it standalone.
type CartLine struct {
	ProductID string
	Quantity  int
}

// Line is a persisted, immutable snapshot of one ordered product, captured at
// order-creation time so later catalog changes never alter order history.
type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"itemName"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"qty"`
}

// Address is a shipping destination. Required and validated for Online
// orders; synthesized for POS sales.
type Address struct {
	FullName string
	Address  string
	City     string
	Zip      string
}

// BuyerDetails identifies the purchasing customer, which for POS sales is
// typically a walk-in with no account.
type BuyerDetails struct {
	Name  string
	Email string
}

// Order is the root aggregate produced by a committed checkout. After
// creation only Status ever changes.
type Order struct {
	ID        string
	ActorID   string
	Lines     []Line
	Buyer     BuyerDetails
	Shipping  Address
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	Channel   Channel
	Status    Status
	CreatedAt time.Time
}

// ShortID returns the human-readable order reference used in notifications
// and on receipts: the last six characters of the id, upper-cased.
func (o *Order) ShortID() string {
	id := strings.ReplaceAll(o.ID, "-", "")
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return strings.ToUpper(id)
}

// ActorOrder is an order joined with the placing actor's identity, for the
// privileged listing.
type ActorOrder struct {
	Order
	ActorName  string
	ActorEmail string
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// UpdateStatus persists the new status and returns the updated order.
	// Returns ErrNotFound when the id does not resolve.
	UpdateStatus(ctx context.Context, id string, status Status) (*Order, error)
	// ListByActor returns the actor's orders, most recent first.
	ListByActor(ctx context.Context, actorID string) ([]Order, error)
	// ListAll returns every order, most recent first, with the placing actor
	// resolved to a display name and email.
	ListAll(ctx context.Context) ([]ActorOrder, error)
}

// Sentinel errors.
var (
	ErrEmptyCart = errors.New("no items in cart")
	ErrNotFound  = errors.New("order not found")
)

// ValidationError indicates malformed or missing input. It is always raised
// before any inventory mutation, so retrying with corrected input is safe.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
