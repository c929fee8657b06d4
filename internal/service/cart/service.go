package cart

import (
	"context"
	"fmt"
	"strings"

	"bookshop/internal/domain"
	cartrepo "bookshop/internal/repository/cart"
	"github.com/shopspring/decimal"
)

type Service struct {
	repo cartRepo
}

type cartRepo interface {
	AddItem(ctx context.Context, in cartrepo.AddItemInput) (*domain.CartItem, error)
	ListOpen(ctx context.Context, userID string) ([]domain.CartItem, error)
	Remove(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) (int64, error)
}

func New(repo cartrepo.Repository) *Service {
	return &Service{repo: repo}
}

type AddInput struct {
	BookID   string           `json:"bookId"`
	Title    string           `json:"title"`
	Author   string           `json:"author"`
	Price    *decimal.Decimal `json:"price"`
	ImageURL string           `json:"imageUrl"`
}

// AddItem stores a book in the user's cart. Adding a book that is already in
// the cart returns the existing item unchanged.
func (s *Service) AddItem(ctx context.Context, userID string, in AddInput) (*domain.CartItem, error) {
	bookID := strings.TrimSpace(in.BookID)
	title := strings.TrimSpace(in.Title)
	switch {
	case userID == "":
		return nil, domain.ErrUnauthorized
	case bookID == "":
		return nil, domain.Invalid("bookId required")
	case title == "":
		return nil, domain.Invalid("title required")
	case in.Price == nil:
		return nil, domain.Invalid("price required")
	case in.Price.IsNegative():
		return nil, domain.Invalid("price must not be negative")
	}

	item, err := s.repo.AddItem(ctx, cartrepo.AddItemInput{
		UserID:   userID,
		BookID:   bookID,
		Title:    title,
		Author:   strings.TrimSpace(in.Author),
		Price:    in.Price.Round(2),
		ImageURL: strings.TrimSpace(in.ImageURL),
	})
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.CartItem, error) {
	return s.repo.ListOpen(ctx, userID)
}

func (s *Service) Remove(ctx context.Context, userID, itemID string) error {
	if strings.TrimSpace(itemID) == "" {
		return domain.ErrNotFound
	}
	return s.repo.Remove(ctx, userID, itemID)
}

func (s *Service) Clear(ctx context.Context, userID string) (int64, error) {
	return s.repo.Clear(ctx, userID)
}
