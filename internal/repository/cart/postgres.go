package cart

import (
	"context"
	"errors"

	"bookshop/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const itemColumns = `id::text, user_id, book_id, title, author, price, image_url, purchased, created_at`

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) AddItem(ctx context.Context, in AddItemInput) (*domain.CartItem, error) {
	const insert = `
INSERT INTO cart_items (user_id, book_id, title, author, price, image_url)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, book_id) WHERE NOT purchased DO NOTHING
RETURNING ` + itemColumns

	item, err := scanItem(r.pool.QueryRow(ctx, insert, in.UserID, in.BookID, in.Title, in.Author, in.Price, in.ImageURL))
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	// The conflicting row already exists and is left as-is.
	const existing = `
SELECT ` + itemColumns + `
FROM cart_items
WHERE user_id = $1 AND book_id = $2 AND NOT purchased
`
	return scanItem(r.pool.QueryRow(ctx, existing, in.UserID, in.BookID))
}

func (r *postgresRepo) ListOpen(ctx context.Context, userID string) ([]domain.CartItem, error) {
	const q = `
SELECT ` + itemColumns + `
FROM cart_items
WHERE user_id = $1 AND NOT purchased
ORDER BY created_at ASC, id ASC
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *postgresRepo) Remove(ctx context.Context, userID, itemID string) error {
	// A malformed uuid cannot name an existing item.
	if _, err := uuid.Parse(itemID); err != nil {
		return domain.ErrNotFound
	}
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Clear(ctx context.Context, userID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND NOT purchased`, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func scanItem(row pgx.Row) (*domain.CartItem, error) {
	var item domain.CartItem
	if err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.BookID,
		&item.Title,
		&item.Author,
		&item.Price,
		&item.ImageURL,
		&item.Purchased,
		&item.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}
