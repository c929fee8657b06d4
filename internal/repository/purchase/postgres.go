package purchase

import (
	"context"

	"bookshop/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) InsertBatch(ctx context.Context, purchases []domain.Purchase) (int, error) {
	if len(purchases) == 0 {
		return 0, nil
	}
	const q = `
INSERT INTO purchases (order_id, user_id, book_id, title, author, price, quantity, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (order_id, book_id) DO NOTHING
`
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, p := range purchases {
		qty := p.Quantity
		if qty <= 0 {
			qty = 1
		}
		batch.Queue(q, p.OrderID, p.UserID, p.BookID, p.Title, p.Author, p.Price, qty, p.ImageURL)
	}

	results := tx.SendBatch(ctx, batch)
	inserted := 0
	for range purchases {
		cmd, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, err
		}
		inserted += int(cmd.RowsAffected())
	}
	if err := results.Close(); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Purchase, error) {
	const q = `
SELECT id::text, order_id::text, user_id, book_id, title, author, price, quantity, image_url, created_at
FROM purchases
WHERE user_id = $1
ORDER BY created_at DESC, id
`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Purchase{}
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(
			&p.ID,
			&p.OrderID,
			&p.UserID,
			&p.BookID,
			&p.Title,
			&p.Author,
			&p.Price,
			&p.Quantity,
			&p.ImageURL,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *postgresRepo) TopSelling(ctx context.Context, limit int) ([]domain.BookSales, error) {
	// Title, author, price and image come from the most recent sale of each book.
	const q = `
SELECT DISTINCT ON (s.book_id) s.book_id, s.title, s.author, s.price, s.image_url, t.total_sold
FROM purchases s
JOIN (
    SELECT book_id, SUM(quantity)::int AS total_sold
    FROM purchases
    GROUP BY book_id
) t ON t.book_id = s.book_id
ORDER BY s.book_id, s.created_at DESC
`
	wrapped := `SELECT * FROM (` + q + `) ranked ORDER BY total_sold DESC, title ASC LIMIT $1`

	rows, err := r.pool.Query(ctx, wrapped, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.BookSales{}
	for rows.Next() {
		var b domain.BookSales
		if err := rows.Scan(&b.BookID, &b.Title, &b.Author, &b.Price, &b.ImageURL, &b.TotalSold); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Totals(ctx context.Context) (domain.LedgerTotals, error) {
	const q = `
SELECT COALESCE(SUM(quantity), 0)::int, COALESCE(SUM(price * quantity), 0), COUNT(DISTINCT user_id)::int
FROM purchases
`
	var t domain.LedgerTotals
	if err := r.pool.QueryRow(ctx, q).Scan(&t.UnitsSold, &t.Revenue, &t.DistinctBuyers); err != nil {
		return domain.LedgerTotals{}, err
	}
	return t, nil
}
