package order_test

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/techvault/retail-core/internal/domain/inventory"
	"github.com/techvault/retail-core/internal/domain/order"
	"github.com/techvault/retail-core/internal/events"
)

type stockItem struct {
	name  string
	price decimal.Decimal
	stock int
}

// memLedger is an in-memory inventory.Ledger with the same atomicity contract
// as the real one: the check and the decrement happen under one lock.
type memLedger struct {
	mu    sync.Mutex
	items map[string]*stockItem
}

func newMemLedger() *memLedger {
	return &memLedger{items: make(map[string]*stockItem)}
}

func (l *memLedger) add(id, name, price string, stock int) {
	l.items[id] = &stockItem{name: name, price: decimal.RequireFromString(price), stock: stock}
}

func (l *memLedger) stockOf(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items[id].stock
}

func (l *memLedger) CheckAndDeduct(_ context.Context, productID string, quantity int) (inventory.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[productID]
	if !ok {
		return inventory.Snapshot{}, &inventory.ProductNotFoundError{ProductID: productID}
	}
	if it.stock < quantity {
		return inventory.Snapshot{}, &inventory.InsufficientStockError{
			ProductID: productID,
			Name:      it.name,
			Requested: quantity,
		}
	}
	it.stock -= quantity
	return inventory.Snapshot{
		ProductID: productID,
		Name:      it.name,
		UnitPrice: it.price,
		Quantity:  quantity,
	}, nil
}

func (l *memLedger) Restock(_ context.Context, productID string, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	it, ok := l.items[productID]
	if !ok {
		return &inventory.ProductNotFoundError{ProductID: productID}
	}
	it.stock += quantity
	return nil
}

// memOrders is an in-memory order.Repository.
type memOrders struct {
	mu        sync.Mutex
	orders    map[string]*order.Order
	createErr error
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[string]*order.Order)}
}

func (r *memOrders) Create(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *memOrders) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *memOrders) UpdateStatus(_ context.Context, id string, status order.Status) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	o.Status = status
	cp := *o
	return &cp, nil
}

func (r *memOrders) ListByActor(_ context.Context, actorID string) ([]order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []order.Order
	for _, o := range r.orders {
		if o.ActorID == actorID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *memOrders) ListAll(_ context.Context) ([]order.ActorOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []order.ActorOrder
	for _, o := range r.orders {
		out = append(out, order.ActorOrder{Order: *o})
	}
	return out, nil
}

func (r *memOrders) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

// recNotifier records every event it receives.
type recNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	Type    events.Type
	Message string
}

func (n *recNotifier) Notify(_ context.Context, t events.Type, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{Type: t, Message: message})
}

func (n *recNotifier) recorded() []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedEvent(nil), n.events...)
}

func validShipping() *order.Address {
	return &order.Address{
		FullName: "Jamie Lee",
		Address:  "12 Harbor Street",
		City:     "Portsmouth",
		Zip:      "40210",
	}
}

func setup(t *testing.T) (*order.Service, *memLedger, *memOrders, *recNotifier) {
	t.Helper()
	ledger := newMemLedger()
	repo := newMemOrders()
	notifier := &recNotifier{}
	return order.NewService(ledger, repo, notifier), ledger, repo, notifier
}

func TestServiceCreateOnline(t *testing.T) {
	svc, ledger, repo, notifier := setup(t)
	ledger.add("gpu-1", "GeForce RTX 4070 12GB", "100.00", 10)

	o, err := svc.Create(context.Background(), order.CreateRequest{
		ActorID:  "customer-1",
		Channel:  order.ChannelOnline,
		Items:    []order.CartLine{{ProductID: "gpu-1", Quantity: 2}},
		Shipping: validShipping(),
	})
	require.NoError(t, err)

	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.ChannelOnline, o.Channel)
	assert.Equal(t, "200.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "20.00", o.Tax.StringFixed(2))
	assert.Equal(t, "220.00", o.Total.StringFixed(2))
	assert.Equal(t, 8, ledger.stockOf("gpu-1"))

	require.Len(t, o.Lines, 1)
	assert.Equal(t, "GeForce RTX 4070 12GB", o.Lines[0].Name)
	assert.Equal(t, "100.00", o.Lines[0].UnitPrice.StringFixed(2))
	assert.Equal(t, 2, o.Lines[0].Quantity)

	stored, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, stored.Status)

	evs := notifier.recorded()
	require.Len(t, evs, 1)
	assert.Equal(t, events.OrderNew, evs[0].Type)
	assert.Contains(t, evs[0].Message, "New Order Placed: #"+o.ShortID())
	assert.Contains(t, evs[0].Message, "(Online)")
}

func TestServiceCreateInsufficientStock(t *testing.T) {
	svc, ledger, repo, notifier := setup(t)
	ledger.add("gpu-1", "GeForce RTX 4070 12GB", "100.00", 8)

	_, err := svc.Create(context.Background(), order.CreateRequest{
		ActorID:  "customer-1",
		Channel:  order.ChannelOnline,
		Items:    []order.CartLine{{ProductID: "gpu-1", Quantity: 100}},
		Shipping: validShipping(),
	})

	var insufficient *inventory.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "Insufficient stock for: GeForce RTX 4070 12GB", insufficient.Error())
	assert.Equal(t, 8, ledger.stockOf("gpu-1"), "failed checkout must not touch stock")
	assert.Zero(t, repo.count())
	assert.Empty(t, notifier.recorded())
}

func TestServiceCreatePOSDefaults(t *testing.T) {
	svc, ledger, _, notifier := setup(t)
	ledger.add("mouse-1", "MX Master 3S", "99.99", 60)

	o, err := svc.Create(context.Background(), order.CreateRequest{
		ActorID: "pos-terminal-1",
		Channel: order.ChannelPOS,
		Items:   []order.CartLine{{ProductID: "mouse-1", Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, order.StatusCompleted, o.Status)
	assert.Equal(t, "Walk-in Customer", o.Shipping.FullName)
	assert.Equal(t, "In-Store Pickup", o.Shipping.Address)
	assert.Equal(t, "Local", o.Shipping.City)
	assert.Equal(t, "00000", o.Shipping.Zip)
	assert.Equal(t, "Walk-in Customer", o.Buyer.Name)
	assert.Empty(t, o.Buyer.Email)
	assert.Equal(t, "109.99", o.Total.StringFixed(2))

	evs := notifier.recorded()
	require.Len(t, evs, 1)
	assert.Contains(t, evs[0].Message, "(POS)")
}

func TestServiceCreatePOSPartialAddress(t *testing.T) {
	svc, ledger, _, _ := setup(t)
	ledger.add("mouse-1", "MX Master 3S", "99.99", 60)

	o, err := svc.Create(context.Background(), order.CreateRequest{
		ActorID:  "pos-terminal-1",
		Channel:  order.ChannelPOS,
		Items:    []order.CartLine{{ProductID: "mouse-1", Quantity: 1}},
		Shipping: &order.Address{FullName: "  Alex Chen  "},
		Buyer:    &order.BuyerDetails{Name: "Alex Chen", Email: "alex@example.com"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Alex Chen", o.Shipping.FullName)
	assert.Equal(t, "In-Store Pickup", o.Shipping.Address)
	assert.Equal(t, "Alex Chen", o.Buyer.Name)
	assert.Equal(t, "alex@example.com", o.Buyer.Email)
}

func TestServiceCreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   order.CreateRequest
		field string
	}{
		{
			name: "unknown channel",
			req: order.CreateRequest{
				Channel: "Phone",
				Items:   []order.CartLine{{ProductID: "gpu-1", Quantity: 1}},
			},
			field: "channel",
		},
		{
			name: "zero quantity",
			req: order.CreateRequest{
				Channel:  order.ChannelOnline,
				Items:    []order.CartLine{{ProductID: "gpu-1", Quantity: 0}},
				Shipping: validShipping(),
			},
			field: "quantity",
		},
		{
			name: "negative quantity",
			req: order.CreateRequest{
				Channel:  order.ChannelOnline,
				Items:    []order.CartLine{{ProductID: "gpu-1", Quantity: -3}},
				Shipping: validShipping(),
			},
			field: "quantity",
		},
		{
			name: "online without shipping",
			req: order.CreateRequest{
				Channel: order.ChannelOnline,
				Items:   []order.CartLine{{ProductID: "gpu-1", Quantity: 1}},
			},
			field: "shippingAddress",
		},
		{
			name: "online city too short",
			req: order.CreateRequest{
				Channel: order.ChannelOnline,
				Items:   []order.CartLine{{ProductID: "gpu-1", Quantity: 1}},
				Shipping: &order.Address{
					FullName: "Jamie Lee",
					Address:  "12 Harbor Street",
					City:     "X",
					Zip:      "40210",
				},
			},
			field: "city",
		},
		{
			name: "online whitespace-only zip",
			req: order.CreateRequest{
				Channel: order.ChannelOnline,
				Items:   []order.CartLine{{ProductID: "gpu-1", Quantity: 1}},
				Shipping: &order.Address{
					FullName: "Jamie Lee",
					Address:  "12 Harbor Street",
					City:     "Portsmouth",
					Zip:      "   ",
				},
			},
			field: "zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, ledger, repo, notifier := setup(t)
			ledger.add("gpu-1", "GeForce RTX 4070 12GB", "100.00", 10)

			_, err := svc.Create(context.Background(), tt.req)

			var verr *order.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, 10, ledger.stockOf("gpu-1"), "validation failures must precede deduction")
			assert.Zero(t, repo.count())
			assert.Empty(t, notifier.recorded())
		})
	}
}

func TestServiceCreateEmptyCart(t *testing.T) {
	svc, _, _, _ := setup(t)

	_, err := svc.Create(context.Background(), order.CreateRequest{
		Channel:  order.ChannelOnline,
		Items:    nil,
		Shipping: validShipping(),
	})
	require.ErrorIs(t, err, order.ErrEmptyCart)
}

func TestServiceCreateUnknownProduct(t *testing.T) {
	svc, ledger, _, _ := setup(t)
	ledger.add("gpu-1", "GeForce RTX 4070 12GB", "100.00", 10)

	_, err := svc.Create(context.Background(), order.CreateRequest{
		Channel:  order.ChannelOnline,
		Items:    []order.CartLine{{ProductID: "missing", Quantity: 1}},
		Shipping: validShipping(),
	})

	var notFound *inventory.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.ProductID)
}

func TestServiceCreateExactStockBoundary(t *testing.T) {
	svc, ledger, _, _ := setup(t)
	ledger.add("gpu-1", "GeForce RTX 4070 12GB", "100.00", 5)

	_, err := svc.Create(context.Background(), order.CreateRequest{
		ActorID:  "customer-1",
		Channel:  order.ChannelOnline,
		Items:    []order.CartLine{{ProductID: "gpu-1", Quantity: 5}},
		Shipping: validShipping(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.stockOf("gpu-1"))

	_, err = svc.Create(context.Background(), order.CreateRequest{
		ActorID:  "customer-1",
		Channel:  order.ChannelOnline,
		Items:    []order.CartLine{{ProductID: "gpu-1", Quantity: 1}},
		Shipping: validShipping(),
	})
	var insufficient *inventory.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 0, ledger.stockOf("gpu-1"))
}

func TestServiceCreateCompensatesEarlierLines(t *testing.T) {
	svc, ledger, repo, notifier := setup(t)
	ledger.add("gpu-1", "GeForce RTX 4070 12GB", "599.99", 10)
	ledger.add("cpu-1", "Ryzen 7 7800X3D", "449.00", 3)

	_, err := svc.Create(context.Background(), order.CreateRequest{
		ActorID: "customer-1",
		Channel: order.ChannelOnline,
		Items: []order.CartLine{
			{ProductID: "gpu-1", Quantity: 2},
			{ProductID: "cpu-1", Quantity: 5},
		},
		Shipping: validShipping(),
	})

	var insufficient *inventory.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "cpu-1", insufficient.ProductID)
	assert.Equal(t, 10, ledger.stockOf("gpu-1"), "first line must be restocked")
	assert.Equal(t, 3, ledger.stockOf("cpu-1"))
	assert.Zero(t, repo.count())
	assert.Empty(t, notifier.recorded())
}

func TestServiceCreateCompensatesOnPersistFailure(t *testing.T) {
	svc, ledger, repo, notifier := setup(t)
	ledger.add("gpu-1", "GeForce RTX 4070 12GB", "599.99", 10)
	repo.createErr = errors.New("connection reset")

	_, err := svc.Create(context.Background(), order.CreateRequest{
		ActorID:  "customer-1",
		Channel:  order.ChannelOnline,
		Items:    []order.CartLine{{ProductID: "gpu-1", Quantity: 4}},
		Shipping: validShipping(),
	})

	require.Error(t, err)
	assert.Equal(t, 10, ledger.stockOf("gpu-1"), "deduction must be compensated when persist fails")
	assert.Empty(t, notifier.recorded())
}

func TestServiceCreateConcurrentOversell(t *testing.T) {
	svc, ledger, repo, _ := setup(t)
	ledger.add("gpu-1", "GeForce RTX 4070 12GB", "599.99", 10)

	var g errgroup.Group
	results := make([]error, 2)
	for i := range results {
		g.Go(func() error {
			_, err := svc.Create(context.Background(), order.CreateRequest{
				ActorID:  "customer-1",
				Channel:  order.ChannelOnline,
				Items:    []order.CartLine{{ProductID: "gpu-1", Quantity: 6}},
				Shipping: validShipping(),
			})
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var succeeded, failed int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		var insufficient *inventory.InsufficientStockError
		assert.ErrorAs(t, err, &insufficient)
	}
	assert.Equal(t, 1, succeeded, "exactly one of two qty-6 orders can fit in stock 10")
	assert.Equal(t, 1, failed)
	assert.Equal(t, 4, ledger.stockOf("gpu-1"))
	assert.Equal(t, 1, repo.count())
}

func TestServiceCreateConcurrentNeverNegative(t *testing.T) {
	svc, ledger, repo, _ := setup(t)
	ledger.add("gpu-1", "GeForce RTX 4070 12GB", "599.99", 7)

	var g errgroup.Group
	for i := 0; i < 20; i++ {
		g.Go(func() error {
			_, _ = svc.Create(context.Background(), order.CreateRequest{
				ActorID:  "customer-1",
				Channel:  order.ChannelOnline,
				Items:    []order.CartLine{{ProductID: "gpu-1", Quantity: 2}},
				Shipping: validShipping(),
			})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	remaining := ledger.stockOf("gpu-1")
	assert.GreaterOrEqual(t, remaining, 0, "stock must never go negative")
	assert.Equal(t, 7-2*repo.count(), remaining, "remaining stock must match committed orders")
	assert.Equal(t, 3, repo.count(), "only three qty-2 orders fit in stock 7")
}

func TestServiceUpdateStatus(t *testing.T) {
	svc, ledger, repo, notifier := setup(t)
	ledger.add("gpu-1", "GeForce RTX 4070 12GB", "100.00", 10)

	o, err := svc.Create(context.Background(), order.CreateRequest{
		ActorID:  "customer-1",
		Channel:  order.ChannelOnline,
		Items:    []order.CartLine{{ProductID: "gpu-1", Quantity: 1}},
		Shipping: validShipping(),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), o.ID, "Shipped")
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, updated.Status)

	stored, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, stored.Status)

	evs := notifier.recorded()
	require.Len(t, evs, 2)
	assert.Equal(t, events.OrderUpdate, evs[1].Type)
	assert.Contains(t, evs[1].Message, "Order #"+o.ShortID()+" updated to Shipped")
}

func TestServiceUpdateStatusUnknownValue(t *testing.T) {
	svc, ledger, repo, notifier := setup(t)
	ledger.add("gpu-1", "GeForce RTX 4070 12GB", "100.00", 10)

	o, err := svc.Create(context.Background(), order.CreateRequest{
		ActorID:  "customer-1",
		Channel:  order.ChannelOnline,
		Items:    []order.CartLine{{ProductID: "gpu-1", Quantity: 1}},
		Shipping: validShipping(),
	})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(context.Background(), o.ID, "Returned")
	var unknown *order.UnknownStatusError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Returned", unknown.Value)

	stored, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, stored.Status, "rejected update must not change stored status")
	assert.Len(t, notifier.recorded(), 1, "no update event for a rejected status")
}

func TestServiceUpdateStatusNotFound(t *testing.T) {
	svc, _, _, _ := setup(t)

	_, err := svc.UpdateStatus(context.Background(), "no-such-order", "Shipped")
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestServiceUpdateStatusPermissive(t *testing.T) {
	svc, ledger, _, _ := setup(t)
	ledger.add("gpu-1", "GeForce RTX 4070 12GB", "100.00", 10)

	o, err := svc.Create(context.Background(), order.CreateRequest{
		ActorID:  "customer-1",
		Channel:  order.ChannelOnline,
		Items:    []order.CartLine{{ProductID: "gpu-1", Quantity: 1}},
		Shipping: validShipping(),
	})
	require.NoError(t, err)

	// Any enumerated status may replace any other, including moving out of a
	// terminal state.
	for _, st := range []string{"Delivered", "Pending", "Cancelled", "Completed", "Shipped"} {
		updated, err := svc.UpdateStatus(context.Background(), o.ID, st)
		require.NoError(t, err)
		assert.Equal(t, order.Status(st), updated.Status)
	}
}

func TestServiceCancelDoesNotRestock(t *testing.T) {
	svc, ledger, _, _ := setup(t)
	ledger.add("gpu-1", "GeForce RTX 4070 12GB", "100.00", 10)

	o, err := svc.Create(context.Background(), order.CreateRequest{
		ActorID:  "customer-1",
		Channel:  order.ChannelOnline,
		Items:    []order.CartLine{{ProductID: "gpu-1", Quantity: 3}},
		Shipping: validShipping(),
	})
	require.NoError(t, err)
	require.Equal(t, 7, ledger.stockOf("gpu-1"))

	_, err = svc.UpdateStatus(context.Background(), o.ID, "Cancelled")
	require.NoError(t, err)
	assert.Equal(t, 7, ledger.stockOf("gpu-1"), "cancellation does not replenish inventory")
}
