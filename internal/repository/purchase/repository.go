package purchase

import (
	"context"

	"bookshop/internal/domain"
)

type Repository interface {
	// InsertBatch appends ledger rows; rows already recorded for the same
	// (order, book) are skipped. It returns the number of rows inserted.
	InsertBatch(ctx context.Context, purchases []domain.Purchase) (int, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Purchase, error)
	TopSelling(ctx context.Context, limit int) ([]domain.BookSales, error)
	Totals(ctx context.Context) (domain.LedgerTotals, error)
}
