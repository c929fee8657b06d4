package payment

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"bookshop/internal/domain"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// buildRequest validates the amount and renders the UPI deep link and its QR code.
func buildRequest(payee Payee, in PaymentRequestInput, now time.Time) (*PaymentRequest, error) {
	if !in.Amount.IsPositive() {
		return nil, domain.Invalid("amount must be greater than zero")
	}
	txn := in.TransactionID
	if txn == "" {
		txn = NewTransactionID(now)
	}
	note := "Bookshop order"
	if in.OrderID != "" {
		note = "Payment for order " + in.OrderID
	}
	currency := payee.Currency
	if currency == "" {
		currency = "INR"
	}
	amount := in.Amount.Round(2)

	link := UPIString(payee.ID, payee.Name, amount.StringFixed(2), currency, txn, note)
	qr, err := QRDataURL(link)
	if err != nil {
		return nil, err
	}
	return &PaymentRequest{
		TransactionID: txn,
		PayeeID:       payee.ID,
		Amount:        amount,
		Currency:      currency,
		Note:          note,
		PaymentString: link,
		QRPayload:     qr,
	}, nil
}

// UPIString builds a upi://pay link. Parameter order is fixed so the same
// request always renders the same string.
func UPIString(payeeID, payeeName, amount, currency, transactionID, note string) string {
	params := [][2]string{
		{"pa", payeeID},
		{"pn", payeeName},
		{"am", amount},
		{"cu", currency},
		{"tr", transactionID},
		{"tn", note},
	}
	var b strings.Builder
	b.WriteString("upi://pay?")
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		// VPAs keep their literal '@'.
		b.WriteString(strings.ReplaceAll(url.QueryEscape(p[1]), "%40", "@"))
	}
	return b.String()
}

// QRDataURL encodes content as a PNG QR code data URL.
func QRDataURL(content string) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
