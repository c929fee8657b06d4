package cart

import (
	"context"

	"bookshop/internal/domain"
	"github.com/shopspring/decimal"
)

type AddItemInput struct {
	UserID   string
	BookID   string
	Title    string
	Author   string
	Price    decimal.Decimal
	ImageURL string
}

type Repository interface {
	// AddItem inserts the item unless an unpurchased row for the same book exists,
	// and returns whichever row is stored.
	AddItem(ctx context.Context, in AddItemInput) (*domain.CartItem, error)
	ListOpen(ctx context.Context, userID string) ([]domain.CartItem, error)
	Remove(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) (int64, error)
}
