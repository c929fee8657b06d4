package payment

import (
	"strings"
	"testing"
	"time"

	"bookshop/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUPIString(t *testing.T) {
	got := UPIString("shop@upi", "Book Shop", "349.00", "INR", "TXN1", "Payment for order o-1")
	assert.Equal(t, "upi://pay?pa=shop@upi&pn=Book+Shop&am=349.00&cu=INR&tr=TXN1&tn=Payment+for+order+o-1", got)
}

func TestBuildRequest(t *testing.T) {
	payee := Payee{ID: "shop@upi", Name: "Bookshop", Currency: "INR"}
	now := time.UnixMilli(1700000000000)

	req, err := buildRequest(payee, PaymentRequestInput{
		Amount:        decimal.RequireFromString("349.5"),
		OrderID:       "o-1",
		TransactionID: "TXN42",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "TXN42", req.TransactionID)
	assert.Equal(t, "shop@upi", req.PayeeID)
	assert.Contains(t, req.PaymentString, "am=349.50")
	assert.Contains(t, req.PaymentString, "tr=TXN42")
	assert.True(t, strings.HasPrefix(req.QRPayload, "data:image/png;base64,"))

	generated, err := buildRequest(payee, PaymentRequestInput{Amount: decimal.NewFromInt(10)}, now)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(generated.TransactionID, "TXN1700000000000"))
	assert.Len(t, generated.TransactionID, len("TXN1700000000000")+8)
}

func TestBuildRequestRejectsNonPositiveAmount(t *testing.T) {
	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := buildRequest(Payee{ID: "shop@upi"}, PaymentRequestInput{Amount: amount}, time.Now())
		assert.True(t, domain.IsValidation(err), "amount %s", amount)
	}
}

func TestNewTransactionIDUnique(t *testing.T) {
	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewTransactionID(now)
		require.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}
