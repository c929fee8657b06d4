package order

import (
	"context"
	"time"

	"bookshop/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateOrderInput struct {
	UserID          string
	Items           []domain.OrderItem
	TotalAmount     decimal.Decimal
	PaymentMethod   domain.PaymentMethod
	TransactionID   string
	PaymentDetails  domain.PaymentDetails
	ShippingAddress *domain.Address
}

// SettleInput moves a pending order to a terminal payment state.
type SettleInput struct {
	TransactionID string
	// UserID scopes the update to the owner; empty for gateway callbacks.
	UserID               string
	PaymentStatus        domain.PaymentStatus
	Status               domain.OrderStatus
	GatewayTransactionID string
	Gateway              string
	PaymentTime          time.Time
}

type Repository interface {
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetForUser(ctx context.Context, userID, id string) (*domain.Order, error)
	GetByTransaction(ctx context.Context, transactionID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	// SettlePending applies in only if the order is still pending; otherwise it
	// returns domain.ErrAlreadyProcessed.
	SettlePending(ctx context.Context, in SettleInput) (*domain.Order, error)
	// MarkRefunded moves a completed order to refunded/cancelled, or returns
	// domain.ErrAlreadyProcessed.
	MarkRefunded(ctx context.Context, userID, id string) (*domain.Order, error)
	// RevertRefund undoes MarkRefunded after a failed gateway refund, restoring
	// a completed payment and the given fulfillment status.
	RevertRefund(ctx context.Context, userID, id string, status domain.OrderStatus) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, paymentStatus domain.PaymentStatus) (*domain.Order, error)
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
}
