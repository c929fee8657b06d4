package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"bookshop/internal/domain"
	"github.com/shopspring/decimal"
)

// CallbackPayload is the body a gateway posts to the webhook.
type CallbackPayload struct {
	TransactionID        string           `json:"transactionId"`
	Status               SettlementStatus `json:"status"`
	GatewayTransactionID string           `json:"gatewayTransactionId"`
	Amount               decimal.Decimal  `json:"amount"`
	PaymentTime          *time.Time       `json:"paymentTime,omitempty"`
	Signature            string           `json:"signature"`
}

// Signer computes and checks webhook signatures:
// hex(HMAC-SHA256(secret, transactionId|status|gatewayTransactionId|amount)).
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) Signer {
	return Signer{secret: []byte(secret), now: time.Now}
}

func (s Signer) Sign(p CallbackPayload) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%s|%s", p.TransactionID, p.Status, p.GatewayTransactionID, p.Amount.StringFixed(2))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the payload and returns the settlement it carries.
// All failures wrap domain.ErrGateway.
func (s Signer) Verify(p CallbackPayload) (*Settlement, error) {
	if len(s.secret) == 0 {
		return nil, fmt.Errorf("%w: callbacks are not configured", domain.ErrGateway)
	}
	if p.TransactionID == "" || p.Signature == "" {
		return nil, fmt.Errorf("%w: malformed callback", domain.ErrGateway)
	}
	if p.Status != SettlementCompleted && p.Status != SettlementFailed {
		return nil, fmt.Errorf("%w: unknown callback status %q", domain.ErrGateway, p.Status)
	}
	got, err := hex.DecodeString(p.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid callback signature", domain.ErrGateway)
	}
	want, _ := hex.DecodeString(s.Sign(p))
	if !hmac.Equal(got, want) {
		return nil, fmt.Errorf("%w: invalid callback signature", domain.ErrGateway)
	}

	paid := s.now().UTC()
	if p.PaymentTime != nil {
		paid = p.PaymentTime.UTC()
	}
	return &Settlement{
		TransactionID:        p.TransactionID,
		Status:               p.Status,
		GatewayTransactionID: p.GatewayTransactionID,
		Gateway:              GatewayName,
		PaymentTime:          paid,
		Amount:               p.Amount,
	}, nil
}
