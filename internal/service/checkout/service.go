// Package checkout turns carts into orders and drives their payment
// lifecycle through a payment.Gateway.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"bookshop/internal/domain"
	"bookshop/internal/events"
	"bookshop/internal/metrics"
	"bookshop/internal/payment"
	orderrepo "bookshop/internal/repository/order"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Checkout stages, used as log fields.
const (
	stageInitiated      = "initiated"
	stagePaymentPending = "payment_pending"
	stageVerifying      = "verifying"
	stageSettled        = "settled"
)

type CartStore interface {
	ListOpen(ctx context.Context, userID string) ([]domain.CartItem, error)
	Clear(ctx context.Context, userID string) (int64, error)
}

type OrderStore interface {
	Create(ctx context.Context, in orderrepo.CreateOrderInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetForUser(ctx context.Context, userID, id string) (*domain.Order, error)
	GetByTransaction(ctx context.Context, transactionID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	SettlePending(ctx context.Context, in orderrepo.SettleInput) (*domain.Order, error)
	MarkRefunded(ctx context.Context, userID, id string) (*domain.Order, error)
	RevertRefund(ctx context.Context, userID, id string, status domain.OrderStatus) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, paymentStatus domain.PaymentStatus) (*domain.Order, error)
}

type PurchaseLedger interface {
	InsertBatch(ctx context.Context, purchases []domain.Purchase) (int, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type Deps struct {
	Carts     CartStore
	Orders    OrderStore
	Purchases PurchaseLedger
	// Users is optional; it supplies payer details for payment requests.
	Users     UserDirectory
	Gateway   payment.Gateway
	Publisher events.Publisher
	Logger    logrus.FieldLogger
}

type Service struct {
	carts     CartStore
	orders    OrderStore
	purchases PurchaseLedger
	users     UserDirectory
	gateway   payment.Gateway
	publisher events.Publisher
	logger    logrus.FieldLogger
	now       func() time.Time
}

func New(d Deps) *Service {
	pub := d.Publisher
	if pub == nil {
		pub = events.Nop{}
	}
	logger := d.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	return &Service{
		carts:     d.Carts,
		orders:    d.Orders,
		purchases: d.Purchases,
		users:     d.Users,
		gateway:   d.Gateway,
		publisher: pub,
		logger:    logger,
		now:       time.Now,
	}
}

type InitiateInput struct {
	UPIID           string          `json:"upiId"`
	ShippingAddress *domain.Address `json:"address"`
}

type InitiateResult struct {
	Success       bool            `json:"success"`
	OrderID       string          `json:"orderId"`
	TransactionID string          `json:"transactionId"`
	PaymentString string          `json:"paymentString"`
	QRPayload     string          `json:"qrPayload"`
	Amount        decimal.Decimal `json:"amount"`
	UPIID         string          `json:"upiId"`
}

// InitiateCheckout snapshots the caller's cart into a pending UPI order and
// returns the payment request the payer completes out of band.
func (s *Service) InitiateCheckout(ctx context.Context, id domain.Identity, in InitiateInput) (*InitiateResult, error) {
	items, total, err := s.snapshotCart(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	if !total.IsPositive() {
		return nil, domain.Invalid("order total must be greater than zero")
	}

	txn := payment.NewTransactionID(s.now())
	log := s.logger.WithFields(logrus.Fields{"user_id": id.UserID, "transaction_id": txn})

	o, err := s.orders.Create(ctx, orderrepo.CreateOrderInput{
		UserID:          id.UserID,
		Items:           items,
		TotalAmount:     total,
		PaymentMethod:   domain.PaymentMethodUPI,
		TransactionID:   txn,
		PaymentDetails:  domain.PaymentDetails{UPIID: in.UPIID},
		ShippingAddress: in.ShippingAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	log = log.WithField("order_id", o.ID)
	log.WithField("stage", stageInitiated).Info("checkout initiated")

	req, err := s.gateway.GeneratePaymentRequest(ctx, payment.PaymentRequestInput{
		Amount:        total,
		OrderID:       o.ID,
		TransactionID: txn,
		Payer:         s.payer(ctx, id.UserID),
	})
	if err != nil {
		// Leave nothing pending that can never be paid.
		if _, serr := s.orders.SettlePending(ctx, orderrepo.SettleInput{
			TransactionID: txn,
			UserID:        id.UserID,
			PaymentStatus: domain.PaymentStatusFailed,
			Status:        domain.OrderStatusCancelled,
			Gateway:       payment.GatewayName,
			PaymentTime:   s.now().UTC(),
		}); serr != nil {
			log.WithError(serr).Warn("cancel order after failed payment request")
		}
		return nil, fmt.Errorf("generate payment request: %w", err)
	}

	metrics.CheckoutsTotal.WithLabelValues(string(domain.PaymentMethodUPI)).Inc()
	log.WithField("stage", stagePaymentPending).Info("payment request issued")
	s.publish(ctx, events.OrderCreated, *o)

	return &InitiateResult{
		Success:       true,
		OrderID:       o.ID,
		TransactionID: req.TransactionID,
		PaymentString: req.PaymentString,
		QRPayload:     req.QRPayload,
		Amount:        total,
		UPIID:         req.PayeeID,
	}, nil
}

type VerifyResult struct {
	Success              bool   `json:"success"`
	Message              string `json:"message"`
	OrderID              string `json:"orderId"`
	TransactionID        string `json:"transactionId"`
	GatewayTransactionID string `json:"gatewayTransactionId,omitempty"`
}

// VerifyPayment asks the gateway for the outcome of the caller's pending
// transaction and settles the order. A declined payment is a normal result.
func (s *Service) VerifyPayment(ctx context.Context, id domain.Identity, transactionID string) (*VerifyResult, error) {
	if transactionID == "" {
		return nil, domain.Invalid("transactionId required")
	}
	o, err := s.orders.GetByTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAlreadyProcessed
		}
		return nil, err
	}
	if o.UserID != id.UserID || o.PaymentStatus != domain.PaymentStatusPending {
		return nil, domain.ErrAlreadyProcessed
	}

	log := s.logger.WithFields(logrus.Fields{
		"user_id":        id.UserID,
		"order_id":       o.ID,
		"transaction_id": transactionID,
	})
	log.WithField("stage", stageVerifying).Info("verifying payment")

	st, err := s.gateway.Verify(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, domain.ErrGateway) {
			return nil, err
		}
		log.WithError(err).Warn("gateway verification failed, settling as failed")
		st = &payment.Settlement{
			TransactionID: transactionID,
			Status:        payment.SettlementFailed,
			Gateway:       payment.GatewayName,
			PaymentTime:   s.now().UTC(),
		}
	}

	settled, err := s.settle(ctx, "verify", id.UserID, *st)
	if err != nil {
		return nil, err
	}

	res := &VerifyResult{
		Success:       st.Succeeded(),
		Message:       "Payment failed",
		OrderID:       settled.ID,
		TransactionID: transactionID,
	}
	if res.Success {
		res.Message = "Payment successful"
		res.GatewayTransactionID = st.GatewayTransactionID
	}
	return res, nil
}

type CallbackResult struct {
	Success   bool   `json:"success"`
	Processed bool   `json:"processed"`
	OrderID   string `json:"orderId,omitempty"`
}

// HandleCallback applies a signed gateway notification. Notifications for
// orders that are already settled are acknowledged without changes.
func (s *Service) HandleCallback(ctx context.Context, p payment.CallbackPayload) (*CallbackResult, error) {
	st, err := s.gateway.VerifyCallback(p)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.GetByTransaction(ctx, st.TransactionID)
	if err != nil {
		return nil, err
	}
	if !st.Amount.Equal(o.TotalAmount) {
		return nil, fmt.Errorf("%w: callback amount %s does not match order total %s",
			domain.ErrGateway, st.Amount.StringFixed(2), o.TotalAmount.StringFixed(2))
	}
	if o.PaymentStatus != domain.PaymentStatusPending {
		return &CallbackResult{Success: true, OrderID: o.ID}, nil
	}

	settled, err := s.settle(ctx, "callback", "", *st)
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return &CallbackResult{Success: true, OrderID: o.ID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &CallbackResult{Success: true, Processed: true, OrderID: settled.ID}, nil
}

// settle moves the order for st.TransactionID out of pending. Only the caller
// whose conditional update wins records purchases and clears the cart.
// userID scopes the update to an owner; empty means any owner.
func (s *Service) settle(ctx context.Context, source, userID string, st payment.Settlement) (*domain.Order, error) {
	in := orderrepo.SettleInput{
		TransactionID: st.TransactionID,
		UserID:        userID,
		PaymentStatus: domain.PaymentStatusFailed,
		Status:        domain.OrderStatusCancelled,
		Gateway:       st.Gateway,
		PaymentTime:   st.PaymentTime,
	}
	if in.PaymentTime.IsZero() {
		in.PaymentTime = s.now().UTC()
	}
	if st.Succeeded() {
		in.PaymentStatus = domain.PaymentStatusCompleted
		in.Status = domain.OrderStatusCompleted
		in.GatewayTransactionID = st.GatewayTransactionID
	}

	o, err := s.orders.SettlePending(ctx, in)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyProcessed) {
			metrics.SettlementsTotal.WithLabelValues(source, "already_processed").Inc()
		}
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"user_id":        o.UserID,
		"order_id":       o.ID,
		"transaction_id": o.TransactionID,
		"stage":          stageSettled,
		"outcome":        string(in.PaymentStatus),
		"source":         source,
	})
	metrics.SettlementsTotal.WithLabelValues(source, string(in.PaymentStatus)).Inc()

	if !st.Succeeded() {
		log.Info("payment failed")
		s.publish(ctx, events.OrderCancelled, *o)
		return o, nil
	}

	if err := s.recordPurchases(ctx, *o); err != nil {
		log.WithError(err).Error("record purchases")
	}
	if _, err := s.carts.Clear(ctx, o.UserID); err != nil {
		log.WithError(err).Error("clear cart")
	}
	log.Info("payment completed")
	s.publish(ctx, events.OrderCompleted, *o)
	return o, nil
}

type PlaceOrderInput struct {
	ShippingAddress *domain.Address `json:"address"`
}

// PlaceOrder creates a pay-on-fulfillment order from the caller's cart.
// Purchases are recorded when the order is marked completed.
func (s *Service) PlaceOrder(ctx context.Context, id domain.Identity, in PlaceOrderInput) (*domain.Order, error) {
	items, total, err := s.snapshotCart(ctx, id.UserID)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.Create(ctx, orderrepo.CreateOrderInput{
		UserID:          id.UserID,
		Items:           items,
		TotalAmount:     total,
		PaymentMethod:   domain.PaymentMethodCOD,
		TransactionID:   payment.NewTransactionID(s.now()),
		ShippingAddress: in.ShippingAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	log := s.logger.WithFields(logrus.Fields{"user_id": id.UserID, "order_id": o.ID, "stage": stageInitiated})
	if _, err := s.carts.Clear(ctx, id.UserID); err != nil {
		log.WithError(err).Error("clear cart")
	}
	metrics.CheckoutsTotal.WithLabelValues(string(domain.PaymentMethodCOD)).Inc()
	log.Info("order placed")
	s.publish(ctx, events.OrderCreated, *o)
	return o, nil
}

// UpdateOrderStatus is an admin operation. Pay-on-fulfillment orders derive
// their payment status from the new fulfillment status unless already refunded.
func (s *Service) UpdateOrderStatus(ctx context.Context, actor domain.Identity, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if !status.Valid() {
		return nil, domain.Invalid("invalid status %q", status)
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	paymentStatus := o.PaymentStatus
	if o.PaymentMethod.PayOnFulfillment() && o.PaymentStatus != domain.PaymentStatusRefunded {
		paymentStatus = fulfillmentPaymentStatus(status)
	}
	updated, err := s.orders.UpdateStatus(ctx, o.ID, status, paymentStatus)
	if err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{
		"order_id": updated.ID,
		"user_id":  updated.UserID,
		"actor":    actor.UserID,
		"status":   string(status),
	})
	if updated.Status == domain.OrderStatusCompleted && updated.PaymentStatus == domain.PaymentStatusCompleted {
		if err := s.recordPurchases(ctx, *updated); err != nil {
			log.WithError(err).Error("record purchases")
		}
	}
	log.Info("order status updated")
	s.publish(ctx, events.OrderUpdated, *updated)
	return updated, nil
}

func fulfillmentPaymentStatus(status domain.OrderStatus) domain.PaymentStatus {
	switch status {
	case domain.OrderStatusCompleted:
		return domain.PaymentStatusCompleted
	case domain.OrderStatusCancelled:
		return domain.PaymentStatusFailed
	}
	return domain.PaymentStatusPending
}

type RefundInput struct {
	OrderID string           `json:"orderId"`
	Amount  *decimal.Decimal `json:"amount"`
	Reason  string           `json:"reason"`
}

type RefundResult struct {
	Success  bool            `json:"success"`
	OrderID  string          `json:"orderId"`
	RefundID string          `json:"refundId"`
	Amount   decimal.Decimal `json:"amount"`
	Status   string          `json:"status"`
}

// Refund returns money for one of the caller's paid orders. Ledger rows are
// kept.
func (s *Service) Refund(ctx context.Context, id domain.Identity, in RefundInput) (*RefundResult, error) {
	o, err := s.orders.GetForUser(ctx, id.UserID, in.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotRefundable
		}
		return nil, err
	}
	if o.PaymentStatus != domain.PaymentStatusCompleted {
		return nil, domain.ErrNotRefundable
	}

	amount := o.TotalAmount
	if in.Amount != nil {
		amount = *in.Amount
	}
	if !amount.IsPositive() || amount.GreaterThan(o.TotalAmount) {
		return nil, domain.Invalid("refund amount must be greater than zero and at most %s", o.TotalAmount.StringFixed(2))
	}

	// Only the caller that claims the order reaches the gateway.
	updated, err := s.orders.MarkRefunded(ctx, id.UserID, o.ID)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyProcessed) {
			return nil, domain.ErrNotRefundable
		}
		return nil, err
	}
	refund, err := s.gateway.ProcessRefund(ctx, o.TransactionID, amount, in.Reason)
	if err != nil {
		if _, rerr := s.orders.RevertRefund(context.WithoutCancel(ctx), id.UserID, o.ID, o.Status); rerr != nil {
			s.logger.WithError(rerr).WithField("order_id", o.ID).Error("release refund claim")
		}
		return nil, fmt.Errorf("process refund: %w", err)
	}

	if refund.Amount.IsZero() {
		refund.Amount = amount
	}
	metrics.RefundsTotal.Inc()
	s.logger.WithFields(logrus.Fields{
		"user_id":        id.UserID,
		"order_id":       o.ID,
		"transaction_id": o.TransactionID,
		"refund_id":      refund.RefundID,
		"amount":         amount.StringFixed(2),
	}).Info("order refunded")
	s.publish(ctx, events.OrderRefunded, *updated)

	return &RefundResult{
		Success:  true,
		OrderID:  o.ID,
		RefundID: refund.RefundID,
		Amount:   refund.Amount,
		Status:   refund.Status,
	}, nil
}

type StatusResult struct {
	TransactionID string               `json:"transactionId"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	OrderStatus   domain.OrderStatus   `json:"orderStatus"`
	Amount        decimal.Decimal      `json:"amount"`
	CreatedAt     time.Time            `json:"createdAt"`
}

func (s *Service) PaymentStatus(ctx context.Context, id domain.Identity, transactionID string) (*StatusResult, error) {
	o, err := s.orders.GetByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if o.UserID != id.UserID {
		return nil, domain.ErrNotFound
	}
	return &StatusResult{
		TransactionID: o.TransactionID,
		PaymentStatus: o.PaymentStatus,
		OrderStatus:   o.Status,
		Amount:        o.TotalAmount,
		CreatedAt:     o.CreatedAt,
	}, nil
}

func (s *Service) ListUserOrders(ctx context.Context, id domain.Identity, userID string) ([]domain.Order, error) {
	if !id.CanAccessUser(userID) {
		return nil, domain.ErrForbidden
	}
	return s.orders.ListByUser(ctx, userID)
}

func (s *Service) ListAllOrders(ctx context.Context, id domain.Identity) ([]domain.Order, error) {
	if !id.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.orders.ListAll(ctx)
}

// snapshotCart copies the caller's open cart into order line items. It is the
// only place an order total is computed.
func (s *Service) snapshotCart(ctx context.Context, userID string) ([]domain.OrderItem, decimal.Decimal, error) {
	if userID == "" {
		return nil, decimal.Zero, domain.ErrUnauthorized
	}
	cart, err := s.carts.ListOpen(ctx, userID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("list cart: %w", err)
	}
	if len(cart) == 0 {
		return nil, decimal.Zero, domain.ErrEmptyCart
	}
	items := make([]domain.OrderItem, 0, len(cart))
	prices := make([]decimal.Decimal, 0, len(cart))
	for _, c := range cart {
		items = append(items, domain.OrderItem{
			BookID:   c.BookID,
			Title:    c.Title,
			Author:   c.Author,
			Price:    c.Price,
			ImageURL: c.ImageURL,
		})
		prices = append(prices, c.Price)
	}
	return items, domain.Sum(prices...), nil
}

func (s *Service) recordPurchases(ctx context.Context, o domain.Order) error {
	rows := domain.PurchasesFromOrder(o)
	if len(rows) == 0 {
		return nil
	}
	n, err := s.purchases.InsertBatch(ctx, rows)
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"order_id": o.ID, "inserted": n}).Debug("purchases recorded")
	return nil
}

func (s *Service) payer(ctx context.Context, userID string) payment.Payer {
	if s.users == nil {
		return payment.Payer{}
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WithError(err).WithField("user_id", userID).Warn("lookup payer")
		}
		return payment.Payer{}
	}
	return payment.Payer{Name: u.Username, Email: u.Email}
}

func (s *Service) publish(ctx context.Context, t events.Type, o domain.Order) {
	if err := s.publisher.Publish(ctx, events.FromOrder(t, o)); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"order_id": o.ID, "event": string(t)}).Warn("publish order event")
	}
}
