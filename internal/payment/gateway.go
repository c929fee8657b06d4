// Package payment adapts UPI payment providers behind a single Gateway
// interface. The checkout flow never knows which implementation is wired.
package payment

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GatewayName is recorded on orders settled through any UPI gateway.
const GatewayName = "UPI"

type Gateway interface {
	GeneratePaymentRequest(ctx context.Context, in PaymentRequestInput) (*PaymentRequest, error)
	Verify(ctx context.Context, transactionID string) (*Settlement, error)
	ProcessRefund(ctx context.Context, transactionID string, amount decimal.Decimal, reason string) (*Refund, error)
	// VerifyCallback authenticates an asynchronous gateway notification.
	VerifyCallback(payload CallbackPayload) (*Settlement, error)
}

// Payee identifies the merchant collecting the payment.
type Payee struct {
	ID       string
	Name     string
	Currency string
}

type Payer struct {
	Name  string
	Email string
}

type PaymentRequestInput struct {
	Amount  decimal.Decimal
	OrderID string
	// TransactionID is echoed when set; otherwise a new one is generated.
	TransactionID string
	Payer         Payer
}

type PaymentRequest struct {
	TransactionID string          `json:"transactionId"`
	PayeeID       string          `json:"upiId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Note          string          `json:"note"`
	PaymentString string          `json:"paymentString"`
	QRPayload     string          `json:"qrPayload"`
}

type SettlementStatus string

const (
	SettlementCompleted SettlementStatus = "completed"
	SettlementFailed    SettlementStatus = "failed"
)

// Settlement is the gateway's final word on a transaction.
type Settlement struct {
	TransactionID        string
	Status               SettlementStatus
	GatewayTransactionID string
	Gateway              string
	PaymentTime          time.Time
	// Amount is only known for callbacks.
	Amount decimal.Decimal
}

func (s Settlement) Succeeded() bool {
	return s.Status == SettlementCompleted
}

type Refund struct {
	RefundID      string          `json:"refundId"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
}

// NewTransactionID returns TXN<unix millis><8 hex chars>.
func NewTransactionID(now time.Time) string {
	return "TXN" + strconv.FormatInt(now.UnixMilli(), 10) + randomHex(8)
}

func randomHex(n int) string {
	s := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return s[:n]
}
