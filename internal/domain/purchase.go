package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is an immutable record of one sold unit.
type Purchase struct {
	ID        string          `json:"_id"`
	OrderID   string          `json:"orderId"`
	UserID    string          `json:"userId"`
	BookID    string          `json:"bookId"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	CreatedAt time.Time       `json:"date"`
}

// PurchasesFromOrder builds one ledger row per order line item.
func PurchasesFromOrder(o Order) []Purchase {
	out := make([]Purchase, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, Purchase{
			OrderID:  o.ID,
			UserID:   o.UserID,
			BookID:   it.BookID,
			Title:    it.Title,
			Author:   it.Author,
			Price:    it.Price,
			Quantity: 1,
			ImageURL: it.ImageURL,
		})
	}
	return out
}

// BookSales aggregates ledger rows for one book.
type BookSales struct {
	BookID    string          `json:"bookId"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	TotalSold int             `json:"totalSold"`
}

// LedgerTotals summarises the whole purchase ledger.
type LedgerTotals struct {
	UnitsSold      int             `json:"unitsSold"`
	Revenue        decimal.Decimal `json:"revenue"`
	DistinctBuyers int             `json:"distinctBuyers"`
}
