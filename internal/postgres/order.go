package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/techvault/retail-core/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

const orderColumns = `id, actor_id, lines, buyer_name, buyer_email,
	ship_name, ship_address, ship_city, ship_zip,
	subtotal, tax, total, channel, status, created_at`

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order as a single atomic insert. The line snapshots
// are serialized to JSON for the JSONB column.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO orders (id, actor_id, lines, buyer_name, buyer_email,
			ship_name, ship_address, ship_city, ship_zip,
			subtotal, tax, total, channel, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		o.ID, o.ActorID, linesJSON, o.Buyer.Name, o.Buyer.Email,
		o.Shipping.FullName, o.Shipping.Address, o.Shipping.City, o.Shipping.Zip,
		o.Subtotal, o.Tax, o.Total, string(o.Channel), string(o.Status), o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns a single order by id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return o, nil
}

// UpdateStatus persists the new status and returns the updated order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE orders SET status = $2 WHERE id = $1
		RETURNING `+orderColumns,
		id, string(status))

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("updating order %q status: %w", id, err)
	}
	return o, nil
}

// ListByActor returns the actor's orders, most recent first.
func (r *OrderRepository) ListByActor(ctx context.Context, actorID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		  WHERE actor_id = $1 ORDER BY created_at DESC`, actorID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for actor %q: %w", actorID, err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// ListAll returns every order, most recent first, with the placing actor
// resolved to a display name and email.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.ActorOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.actor_id, o.lines, o.buyer_name, o.buyer_email,
			o.ship_name, o.ship_address, o.ship_city, o.ship_zip,
			o.subtotal, o.tax, o.total, o.channel, o.status, o.created_at,
			u.full_name, u.email
		  FROM orders o
		  JOIN users u ON u.id = o.actor_id
		 ORDER BY o.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing all orders: %w", err)
	}
	defer rows.Close()

	var out []order.ActorOrder
	for rows.Next() {
		var (
			o         order.Order
			linesJSON []byte
			channel   string
			status    string
			name      string
			email     string
		)
		err := rows.Scan(&o.ID, &o.ActorID, &linesJSON, &o.Buyer.Name, &o.Buyer.Email,
			&o.Shipping.FullName, &o.Shipping.Address, &o.Shipping.City, &o.Shipping.Zip,
			&o.Subtotal, &o.Tax, &o.Total, &channel, &status, &o.CreatedAt,
			&name, &email)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
			return nil, fmt.Errorf("unmarshaling order lines: %w", err)
		}
		o.Channel = order.Channel(channel)
		o.Status = order.Status(status)
		out = append(out, order.ActorOrder{Order: o, ActorName: name, ActorEmail: email})
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o         order.Order
		linesJSON []byte
		channel   string
		status    string
	)
	err := row.Scan(&o.ID, &o.ActorID, &linesJSON, &o.Buyer.Name, &o.Buyer.Email,
		&o.Shipping.FullName, &o.Shipping.Address, &o.Shipping.City, &o.Shipping.Zip,
		&o.Subtotal, &o.Tax, &o.Total, &channel, &status, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return nil, fmt.Errorf("unmarshaling order lines: %w", err)
	}
	o.Channel = order.Channel(channel)
	o.Status = order.Status(status)
	return &o, nil
}
