package order

import (
	"context"
	"errors"

	"bookshop/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `o.id::text, o.user_id, COALESCE(u.username, ''), COALESCE(u.email, ''), o.items, o.total_amount,
o.status, o.payment_method, o.payment_status, o.transaction_id, o.gateway_transaction_id,
o.payment_details, o.shipping_address, o.created_at, o.updated_at`

const selectOrders = `
SELECT ` + orderColumns + `
FROM orders o
LEFT JOIN users u ON u.id = o.user_id
`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	const q = `
INSERT INTO orders (user_id, items, total_amount, status, payment_method, payment_status, transaction_id, payment_details, shipping_address)
VALUES ($1, $2, $3, 'pending', $4, 'pending', $5, $6, $7)
RETURNING id::text
`
	items := in.Items
	if items == nil {
		items = []domain.OrderItem{}
	}
	var id string
	err := r.pool.QueryRow(ctx, q,
		in.UserID,
		items,
		in.TotalAmount,
		string(in.PaymentMethod),
		in.TransactionID,
		in.PaymentDetails,
		in.ShippingAddress,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	return r.fetchOne(ctx, selectOrders+`WHERE o.id = $1`, id)
}

func (r *postgresRepo) GetForUser(ctx context.Context, userID, id string) (*domain.Order, error) {
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	return r.fetchOne(ctx, selectOrders+`WHERE o.id = $1 AND o.user_id = $2`, id, userID)
}

func (r *postgresRepo) GetByTransaction(ctx context.Context, transactionID string) (*domain.Order, error) {
	return r.fetchOne(ctx, selectOrders+`WHERE o.transaction_id = $1`, transactionID)
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.fetchMany(ctx, selectOrders+`WHERE o.user_id = $1 ORDER BY o.created_at DESC`, userID)
}

func (r *postgresRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.fetchMany(ctx, selectOrders+`ORDER BY o.created_at DESC`)
}

func (r *postgresRepo) SettlePending(ctx context.Context, in SettleInput) (*domain.Order, error) {
	// A single conditional update: concurrent settlements of one transaction
	// serialise on the row and only the first sees payment_status = 'pending'.
	const q = `
UPDATE orders
SET payment_status = $1,
    status = $2,
    gateway_transaction_id = NULLIF($3, ''),
    payment_details = payment_details || jsonb_build_object(
        'paymentGateway', $4::text,
        'gatewayTransactionId', $3::text,
        'paymentTime', $5::timestamptz
    ),
    updated_at = now()
WHERE transaction_id = $6
  AND payment_status = 'pending'
  AND ($7 = '' OR user_id = $7)
RETURNING id::text
`
	var id string
	err := r.pool.QueryRow(ctx, q,
		string(in.PaymentStatus),
		string(in.Status),
		in.GatewayTransactionID,
		in.Gateway,
		in.PaymentTime,
		in.TransactionID,
		in.UserID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAlreadyProcessed
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *postgresRepo) MarkRefunded(ctx context.Context, userID, id string) (*domain.Order, error) {
	const q = `
UPDATE orders
SET payment_status = 'refunded',
    status = 'cancelled',
    updated_at = now()
WHERE id = $1 AND user_id = $2 AND payment_status = 'completed'
RETURNING id::text
`
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	var out string
	if err := r.pool.QueryRow(ctx, q, id, userID).Scan(&out); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAlreadyProcessed
		}
		return nil, err
	}
	return r.GetByID(ctx, out)
}

func (r *postgresRepo) RevertRefund(ctx context.Context, userID, id string, status domain.OrderStatus) (*domain.Order, error) {
	const q = `
UPDATE orders
SET payment_status = 'completed',
    status = $3,
    updated_at = now()
WHERE id = $1 AND user_id = $2 AND payment_status = 'refunded'
RETURNING id::text
`
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	var out string
	if err := r.pool.QueryRow(ctx, q, id, userID, status).Scan(&out); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, out)
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, paymentStatus domain.PaymentStatus) (*domain.Order, error) {
	const q = `
UPDATE orders
SET status = $1, payment_status = $2, updated_at = now()
WHERE id = $3
RETURNING id::text
`
	if !validID(id) {
		return nil, domain.ErrNotFound
	}
	var out string
	if err := r.pool.QueryRow(ctx, q, string(status), string(paymentStatus), id).Scan(&out); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, out)
}

func (r *postgresRepo) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[domain.OrderStatus]int{
		domain.OrderStatusPending:   0,
		domain.OrderStatusCompleted: 0,
		domain.OrderStatusCancelled: 0,
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[domain.OrderStatus(status)] = n
	}
	return out, rows.Err()
}

func (r *postgresRepo) fetchOne(ctx context.Context, q string, args ...interface{}) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) fetchMany(ctx context.Context, q string, args ...interface{}) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// validID rejects ids that cannot be a uuid before they reach the database.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o             domain.Order
		user          domain.OrderUser
		status        string
		method        string
		paymentStatus string
	)
	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&user.Username,
		&user.Email,
		&o.Items,
		&o.TotalAmount,
		&status,
		&method,
		&paymentStatus,
		&o.TransactionID,
		&o.GatewayTransactionID,
		&o.PaymentDetails,
		&o.ShippingAddress,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.ID = o.UserID
	o.User = &user
	o.Status = domain.OrderStatus(status)
	o.PaymentMethod = domain.PaymentMethod(method)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return &o, nil
}
