package payment

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type SimulatedConfig struct {
	Payee Payee
	// SuccessRate is the probability in [0,1] that a verification succeeds.
	SuccessRate float64
	// Delay is how long Verify waits before settling.
	Delay         time.Duration
	WebhookSecret string
	// Rand returns values in [0,1). Defaults to a time-seeded source.
	Rand   func() float64
	Logger logrus.FieldLogger
}

// Simulated settles payments locally without contacting a provider.
type Simulated struct {
	payee  Payee
	rate   float64
	delay  time.Duration
	rand   func() float64
	signer Signer
	logger logrus.FieldLogger
	now    func() time.Time
}

func NewSimulated(cfg SimulatedConfig) *Simulated {
	rnd := cfg.Rand
	if rnd == nil {
		var mu sync.Mutex
		src := rand.New(rand.NewSource(time.Now().UnixNano()))
		rnd = func() float64 {
			mu.Lock()
			defer mu.Unlock()
			return src.Float64()
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = discardLogger()
	}
	return &Simulated{
		payee:  cfg.Payee,
		rate:   cfg.SuccessRate,
		delay:  cfg.Delay,
		rand:   rnd,
		signer: NewSigner(cfg.WebhookSecret),
		logger: logger,
		now:    time.Now,
	}
}

func (s *Simulated) GeneratePaymentRequest(_ context.Context, in PaymentRequestInput) (*PaymentRequest, error) {
	return buildRequest(s.payee, in, s.now())
}

func (s *Simulated) Verify(ctx context.Context, transactionID string) (*Settlement, error) {
	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	out := &Settlement{
		TransactionID: transactionID,
		Status:        SettlementFailed,
		Gateway:       GatewayName,
		PaymentTime:   s.now().UTC(),
	}
	if s.rand() < s.rate {
		out.Status = SettlementCompleted
		out.GatewayTransactionID = "UPI" + strconv.FormatInt(out.PaymentTime.UnixMilli(), 10) + randomHex(6)
	}
	s.logger.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"outcome":        out.Status,
	}).Debug("simulated verification")
	return out, nil
}

func (s *Simulated) ProcessRefund(_ context.Context, transactionID string, amount decimal.Decimal, reason string) (*Refund, error) {
	s.logger.WithFields(logrus.Fields{
		"transaction_id": transactionID,
		"amount":         amount.StringFixed(2),
		"reason":         reason,
	}).Info("simulated refund")
	return &Refund{
		RefundID:      "REF" + strconv.FormatInt(s.now().UnixMilli(), 10) + randomHex(6),
		TransactionID: transactionID,
		Amount:        amount,
		Status:        "processed",
	}, nil
}

func (s *Simulated) VerifyCallback(payload CallbackPayload) (*Settlement, error) {
	return s.signer.Verify(payload)
}
