package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the fulfillment statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	// PaymentMethodUPI is prepaid through the payment gateway.
	PaymentMethodUPI PaymentMethod = "upi"
	// PaymentMethodCOD is paid on fulfillment; payment status follows the admin's decision.
	PaymentMethodCOD PaymentMethod = "cod"
)

// PayOnFulfillment reports whether payment bookkeeping follows fulfillment status.
func (m PaymentMethod) PayOnFulfillment() bool {
	return m == PaymentMethodCOD
}

// OrderItem is a line item copied from the cart at checkout time.
type OrderItem struct {
	BookID   string          `json:"bookId"`
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

// Address is an optional shipping address attached to an order.
type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// PaymentDetails records what the gateway reported for an order.
type PaymentDetails struct {
	UPIID                string     `json:"upiId,omitempty"`
	Gateway              string     `json:"paymentGateway,omitempty"`
	GatewayTransactionID string     `json:"gatewayTransactionId,omitempty"`
	PaymentTime          *time.Time `json:"paymentTime,omitempty"`
}

// OrderUser is the owning user's public identity, populated for admin listings.
type OrderUser struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Order is one checkout attempt with its payment and fulfillment lifecycle.
type Order struct {
	ID                   string          `json:"_id"`
	UserID               string          `json:"-"`
	User                 *OrderUser      `json:"userId,omitempty"`
	Items                []OrderItem     `json:"items"`
	TotalAmount          decimal.Decimal `json:"totalAmount"`
	Status               OrderStatus     `json:"status"`
	PaymentMethod        PaymentMethod   `json:"paymentMethod"`
	PaymentStatus        PaymentStatus   `json:"paymentStatus"`
	TransactionID        string          `json:"transactionId"`
	GatewayTransactionID *string         `json:"upiTransactionId,omitempty"`
	PaymentDetails       PaymentDetails  `json:"paymentDetails"`
	ShippingAddress      *Address        `json:"address,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// Owner returns the owning user reference, falling back to the bare id when
// the user projection is not populated.
func (o Order) Owner() OrderUser {
	if o.User != nil {
		return *o.User
	}
	return OrderUser{ID: o.UserID}
}
