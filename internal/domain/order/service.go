package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/techvault/retail-core/internal/domain/inventory"
	"github.com/techvault/retail-core/internal/events"
)

// POS orders get a synthesized shipping record when the terminal sends none.
const (
	posDefaultName    = "Walk-in Customer"
	posDefaultAddress = "In-Store Pickup"
	posDefaultCity    = "Local"
	posDefaultZip     = "00000"
)

// CreateRequest holds the input for a checkout on either channel.
type CreateRequest struct {
	ActorID  string
	Channel  Channel
	Items    []CartLine
	Shipping *Address
	Buyer    *BuyerDetails
}

// Service turns a cart into a committed order while keeping stock consistent.
// It is the only writer of orders and the only caller of the inventory ledger.
type Service struct {
	ledger   inventory.Ledger
	orders   Repository
	notifier events.Notifier
	now      func() time.Time
}

// NewService creates the fulfillment service. The notifier is injected rather
// than reached through ambient state so tests run without a live transport.
func NewService(ledger inventory.Ledger, orders Repository, notifier events.Notifier) *Service {
	return &Service{
		ledger:   ledger,
		orders:   orders,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create validates the cart against the channel policy, deducts stock for
// every line in the order submitted, prices the snapshots, and persists the
// order. Deductions are all-or-nothing: when any line fails or the final
// insert fails, every deduction already made for this request is restocked
// before the error is returned.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if _, err := ParseChannel(string(req.Channel)); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, &ValidationError{
				Field:  "quantity",
				Reason: fmt.Sprintf("must be at least 1 for product %s", item.ProductID),
			}
		}
	}

	shipping, buyer, err := resolveDestination(req)
	if err != nil {
		return nil, err
	}

	// Deduct stock line by line, in the order submitted. Each deduction is
	// atomic per product; cross-line consistency comes from the compensation
	// below, not from a global lock.
	lines := make([]Line, 0, len(req.Items))
	for _, item := range req.Items {
		snap, err := s.ledger.CheckAndDeduct(ctx, item.ProductID, item.Quantity)
		if err != nil {
			s.restock(ctx, lines)
			return nil, err
		}
		lines = append(lines, Line{
			ProductID: snap.ProductID,
			Name:      snap.Name,
			UnitPrice: snap.UnitPrice,
			Quantity:  snap.Quantity,
		})
	}

	totals := ComputeTotals(lines)

	o := &Order{
		ID:        uuid.New().String(),
		ActorID:   req.ActorID,
		Lines:     lines,
		Buyer:     buyer,
		Shipping:  shipping,
		Subtotal:  totals.Subtotal,
		Tax:       totals.Tax,
		Total:     totals.Total,
		Channel:   req.Channel,
		Status:    initialStatus(req.Channel),
		CreatedAt: s.now(),
	}
	if err := s.orders.Create(ctx, o); err != nil {
		s.restock(ctx, lines)
		return nil, errors.Wrap(err, "create order")
	}

	s.notifier.Notify(ctx, events.OrderNew,
		fmt.Sprintf("New Order Placed: #%s (%s)", o.ShortID(), o.Channel))

	return o, nil
}

// UpdateStatus sets an order's status after validating the value against the
// enumerated set. Any enumerated status may replace any other; the lifecycle
// graph is advisory. Cancelling does not replenish inventory.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (*Order, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}

	o, err := s.orders.UpdateStatus(ctx, orderID, st)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "update order status")
	}

	s.notifier.Notify(ctx, events.OrderUpdate,
		fmt.Sprintf("Order #%s updated to %s", o.ShortID(), st))

	return o, nil
}

// restock compensates already-deducted lines, most recent first. Failures are
// logged and skipped: there is nothing further the request can do, and the
// caller's error must still be the original one.
func (s *Service) restock(ctx context.Context, lines []Line) {
	for i := len(lines) - 1; i >= 0; i-- {
		l := lines[i]
		if err := s.ledger.Restock(ctx, l.ProductID, l.Quantity); err != nil {
			zctx.From(ctx).Error("restock compensation failed",
				zap.String("product_id", l.ProductID),
				zap.Int("quantity", l.Quantity),
				zap.Error(err),
			)
		}
	}
}

// resolveDestination applies the channel policy to the shipping address and
// buyer details.
//
// Online requires a complete address with minimum field lengths. POS accepts
// a missing or partial address and fills the gaps with in-store placeholders;
// buyer details default to the resolved name with no email.
func resolveDestination(req CreateRequest) (Address, BuyerDetails, error) {
	switch req.Channel {
	case ChannelOnline:
		if req.Shipping == nil {
			return Address{}, BuyerDetails{}, &ValidationError{Field: "shippingAddress", Reason: "required for online orders"}
		}
		addr := trimAddress(*req.Shipping)
		if err := validateAddress(addr); err != nil {
			return Address{}, BuyerDetails{}, err
		}
		buyer := BuyerDetails{Name: addr.FullName}
		if req.Buyer != nil {
			buyer = *req.Buyer
		}
		return addr, buyer, nil

	case ChannelPOS:
		addr := Address{
			FullName: posDefaultName,
			Address:  posDefaultAddress,
			City:     posDefaultCity,
			Zip:      posDefaultZip,
		}
		if req.Shipping != nil {
			merged := trimAddress(*req.Shipping)
			if merged.FullName != "" {
				addr.FullName = merged.FullName
			}
			if merged.Address != "" {
				addr.Address = merged.Address
			}
			if merged.City != "" {
				addr.City = merged.City
			}
			if merged.Zip != "" {
				addr.Zip = merged.Zip
			}
		}
		buyer := BuyerDetails{Name: addr.FullName}
		if req.Buyer != nil && strings.TrimSpace(req.Buyer.Name) != "" {
			buyer = BuyerDetails{
				Name:  strings.TrimSpace(req.Buyer.Name),
				Email: strings.TrimSpace(req.Buyer.Email),
			}
		}
		return addr, buyer, nil
	}

	return Address{}, BuyerDetails{}, &ValidationError{Field: "channel", Reason: fmt.Sprintf("unknown channel %q", req.Channel)}
}

func trimAddress(a Address) Address {
	return Address{
		FullName: strings.TrimSpace(a.FullName),
		Address:  strings.TrimSpace(a.Address),
		City:     strings.TrimSpace(a.City),
		Zip:      strings.TrimSpace(a.Zip),
	}
}

// validateAddress enforces the online checkout field minimums.
func validateAddress(a Address) error {
	checks := []struct {
		field string
		value string
		min   int
	}{
		{"fullName", a.FullName, 2},
		{"address", a.Address, 5},
		{"city", a.City, 2},
		{"zip", a.Zip, 3},
	}
	for _, c := range checks {
		if len(c.value) < c.min {
			return &ValidationError{
				Field:  c.field,
				Reason: fmt.Sprintf("must be at least %d characters", c.min),
			}
		}
	}
	return nil
}
