package seed

import (
	"context"
	"fmt"

	"bookshop/internal/domain"
	cartrepo "bookshop/internal/repository/cart"
	"github.com/shopspring/decimal"
)

type userStore interface {
	Upsert(ctx context.Context, u domain.User) (*domain.User, error)
}

type cartStore interface {
	AddItem(ctx context.Context, in cartrepo.AddItemInput) (*domain.CartItem, error)
}

type bookSeed struct {
	BookID   string
	Title    string
	Author   string
	Price    string
	ImageURL string
}

// Users seeded for manual testing.
var Users = []domain.User{
	{ID: "demo-user", Username: "demo", Email: "demo@bookshop.local", Role: domain.RoleUser},
	{ID: "demo-admin", Username: "admin", Email: "admin@bookshop.local", Role: domain.RoleAdmin},
}

var books = []bookSeed{
	{BookID: "OL27448W", Title: "The Lord of the Rings", Author: "J.R.R. Tolkien", Price: "799.00"},
	{BookID: "OL82563W", Title: "Pride and Prejudice", Author: "Jane Austen", Price: "249.00"},
	{BookID: "OL893415W", Title: "Dune", Author: "Frank Herbert", Price: "499.50"},
}

// Apply inserts demo users and fills the demo user's cart. It is idempotent:
// users are upserted and cart adds keep existing rows.
func Apply(ctx context.Context, users userStore, carts cartStore) ([]domain.User, error) {
	out := make([]domain.User, 0, len(Users))
	for _, u := range Users {
		saved, err := users.Upsert(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("upsert user %s: %w", u.ID, err)
		}
		out = append(out, *saved)
	}

	for _, b := range books {
		price, err := decimal.NewFromString(b.Price)
		if err != nil {
			return nil, fmt.Errorf("book %s price: %w", b.BookID, err)
		}
		if _, err := carts.AddItem(ctx, cartrepo.AddItemInput{
			UserID:   Users[0].ID,
			BookID:   b.BookID,
			Title:    b.Title,
			Author:   b.Author,
			Price:    price,
			ImageURL: b.ImageURL,
		}); err != nil {
			return nil, fmt.Errorf("add cart item %s: %w", b.BookID, err)
		}
	}
	return out, nil
}
