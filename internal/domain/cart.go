package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one unpurchased candidate line item owned by a user.
type CartItem struct {
	ID        string          `json:"_id"`
	UserID    string          `json:"userId"`
	BookID    string          `json:"bookId"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl"`
	Purchased bool            `json:"purchased"`
	CreatedAt time.Time       `json:"createdAt"`
}
