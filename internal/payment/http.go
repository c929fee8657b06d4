package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bookshop/internal/domain"
	"bookshop/internal/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

type HTTPConfig struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	Payee         Payee
	WebhookSecret string
	Logger        logrus.FieldLogger
}

// HTTPGateway talks to an external UPI provider through a circuit breaker.
type HTTPGateway struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker
	payee   Payee
	signer  Signer
	logger  logrus.FieldLogger
	now     func() time.Time
}

type verifyRequest struct {
	TransactionID string `json:"transactionId"`
}

type verifyResponse struct {
	Status               SettlementStatus `json:"status"`
	GatewayTransactionID string           `json:"gatewayTransactionId"`
	PaymentTime          *time.Time       `json:"paymentTime"`
}

type refundRequest struct {
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason,omitempty"`
}

// IdempotencyHeader keys refund requests by transaction id.
const IdempotencyHeader = "Idempotency-Key"

func NewHTTPGateway(cfg HTTPConfig) *HTTPGateway {
	logger := cfg.Logger
	if logger == nil {
		logger = discardLogger()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && ratio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.GatewayCircuitState.Set(stateValue(to))
			logger.WithFields(logrus.Fields{
				"circuit": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("payment gateway circuit changed state")
		},
	})
	metrics.GatewayCircuitState.Set(0)

	return &HTTPGateway{
		client:  client,
		breaker: breaker,
		payee:   cfg.Payee,
		signer:  NewSigner(cfg.WebhookSecret),
		logger:  logger,
		now:     time.Now,
	}
}

func (g *HTTPGateway) GeneratePaymentRequest(_ context.Context, in PaymentRequestInput) (*PaymentRequest, error) {
	return buildRequest(g.payee, in, g.now())
}

func (g *HTTPGateway) Verify(ctx context.Context, transactionID string) (*Settlement, error) {
	var out verifyResponse
	if err := g.post(ctx, "/v1/payments/verify", verifyRequest{TransactionID: transactionID}, &out, nil); err != nil {
		return nil, err
	}
	if out.Status != SettlementCompleted && out.Status != SettlementFailed {
		return nil, fmt.Errorf("%w: unexpected verification status %q", domain.ErrGateway, out.Status)
	}
	paid := g.now().UTC()
	if out.PaymentTime != nil {
		paid = out.PaymentTime.UTC()
	}
	return &Settlement{
		TransactionID:        transactionID,
		Status:               out.Status,
		GatewayTransactionID: out.GatewayTransactionID,
		Gateway:              GatewayName,
		PaymentTime:          paid,
	}, nil
}

func (g *HTTPGateway) ProcessRefund(ctx context.Context, transactionID string, amount decimal.Decimal, reason string) (*Refund, error) {
	var out Refund
	req := refundRequest{TransactionID: transactionID, Amount: amount, Reason: reason}
	headers := map[string]string{IdempotencyHeader: "refund-" + transactionID}
	if err := g.post(ctx, "/v1/refunds", req, &out, headers); err != nil {
		return nil, err
	}
	if out.TransactionID == "" {
		out.TransactionID = transactionID
	}
	return &out, nil
}

func (g *HTTPGateway) VerifyCallback(payload CallbackPayload) (*Settlement, error) {
	return g.signer.Verify(payload)
}

func (g *HTTPGateway) post(ctx context.Context, path string, body, result any, headers map[string]string) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		resp, err := g.client.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetBody(body).
			Post(path)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
		}
		if err := json.Unmarshal(resp.Body(), result); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		g.logger.WithError(err).WithField("path", path).Error("payment gateway call failed")
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: provider unavailable", domain.ErrGateway)
		}
		return fmt.Errorf("%w: %s: %v", domain.ErrGateway, path, err)
	}
	return nil
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	}
	return 0
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
