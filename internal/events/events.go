// Package events carries order lifecycle notifications to Kafka and to the
// admin websocket feed.
package events

import (
	"context"
	"errors"
	"time"

	"bookshop/internal/domain"
	"github.com/shopspring/decimal"
)

type Type string

const (
	OrderCreated   Type = "order.created"
	OrderCompleted Type = "order.completed"
	OrderCancelled Type = "order.cancelled"
	OrderUpdated   Type = "order.updated"
	OrderRefunded  Type = "order.refunded"
)

type Event struct {
	Type          Type                 `json:"type"`
	OrderID       string               `json:"orderId"`
	UserID        string               `json:"userId"`
	TransactionID string               `json:"transactionId,omitempty"`
	Status        domain.OrderStatus   `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	Amount        decimal.Decimal      `json:"amount"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

// FromOrder snapshots o into an event of type t.
func FromOrder(t Type, o domain.Order) Event {
	return Event{
		Type:          t,
		OrderID:       o.ID,
		UserID:        o.UserID,
		TransactionID: o.TransactionID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		Amount:        o.TotalAmount,
		OccurredAt:    time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
