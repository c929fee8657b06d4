package checkout

import (
	"context"
	"strconv"
	"sync"
	"time"

	"bookshop/internal/domain"
	"bookshop/internal/events"
	"bookshop/internal/payment"
	orderrepo "bookshop/internal/repository/order"
	"github.com/shopspring/decimal"
)

type memCarts struct {
	mu         sync.Mutex
	items      map[string][]domain.CartItem
	clearCalls int
}

func newMemCarts() *memCarts {
	return &memCarts{items: map[string][]domain.CartItem{}}
}

func (m *memCarts) add(userID, bookID, title, author, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[userID] = append(m.items[userID], domain.CartItem{
		ID:     strconv.Itoa(len(m.items[userID]) + 1),
		UserID: userID,
		BookID: bookID,
		Title:  title,
		Author: author,
		Price:  decimal.RequireFromString(price),
	})
}

func (m *memCarts) ListOpen(_ context.Context, userID string) ([]domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CartItem(nil), m.items[userID]...), nil
}

func (m *memCarts) Clear(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearCalls++
	n := int64(len(m.items[userID]))
	delete(m.items, userID)
	return n, nil
}

func (m *memCarts) count(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items[userID])
}

type memOrders struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	seq    int
}

func newMemOrders() *memOrders {
	return &memOrders{orders: map[string]*domain.Order{}}
}

func (m *memOrders) Create(_ context.Context, in orderrepo.CreateOrderInput) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.TransactionID == in.TransactionID {
			return nil, domain.ErrAlreadyExists
		}
	}
	m.seq++
	now := time.Now().UTC()
	o := &domain.Order{
		ID:              "order-" + strconv.Itoa(m.seq),
		UserID:          in.UserID,
		Items:           in.Items,
		TotalAmount:     in.TotalAmount,
		Status:          domain.OrderStatusPending,
		PaymentMethod:   in.PaymentMethod,
		PaymentStatus:   domain.PaymentStatusPending,
		TransactionID:   in.TransactionID,
		PaymentDetails:  in.PaymentDetails,
		ShippingAddress: in.ShippingAddress,
		CreatedAt:       now.Add(time.Duration(m.seq) * time.Millisecond),
		UpdatedAt:       now,
	}
	m.orders[o.ID] = o
	cp := *o
	return &cp, nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) GetForUser(ctx context.Context, userID, id string) (*domain.Order, error) {
	o, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) GetByTransaction(_ context.Context, transactionID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.TransactionID == transactionID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memOrders) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Order{}
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrders) ListAll(_ context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Order{}
	for _, o := range m.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (m *memOrders) SettlePending(_ context.Context, in orderrepo.SettleInput) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.TransactionID != in.TransactionID {
			continue
		}
		if o.PaymentStatus != domain.PaymentStatusPending || (in.UserID != "" && o.UserID != in.UserID) {
			return nil, domain.ErrAlreadyProcessed
		}
		o.PaymentStatus = in.PaymentStatus
		o.Status = in.Status
		if in.GatewayTransactionID != "" {
			ref := in.GatewayTransactionID
			o.GatewayTransactionID = &ref
		}
		paid := in.PaymentTime
		o.PaymentDetails.Gateway = in.Gateway
		o.PaymentDetails.GatewayTransactionID = in.GatewayTransactionID
		o.PaymentDetails.PaymentTime = &paid
		cp := *o
		return &cp, nil
	}
	return nil, domain.ErrAlreadyProcessed
}

func (m *memOrders) MarkRefunded(_ context.Context, userID, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.UserID != userID || o.PaymentStatus != domain.PaymentStatusCompleted {
		return nil, domain.ErrAlreadyProcessed
	}
	o.PaymentStatus = domain.PaymentStatusRefunded
	o.Status = domain.OrderStatusCancelled
	cp := *o
	return &cp, nil
}

func (m *memOrders) RevertRefund(_ context.Context, userID, id string, status domain.OrderStatus) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.UserID != userID || o.PaymentStatus != domain.PaymentStatusRefunded {
		return nil, domain.ErrNotFound
	}
	o.PaymentStatus = domain.PaymentStatusCompleted
	o.Status = status
	cp := *o
	return &cp, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, status domain.OrderStatus, paymentStatus domain.PaymentStatus) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o.Status = status
	o.PaymentStatus = paymentStatus
	cp := *o
	return &cp, nil
}

type memPurchases struct {
	mu   sync.Mutex
	rows []domain.Purchase
}

func (m *memPurchases) InsertBatch(_ context.Context, purchases []domain.Purchase) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
next:
	for _, p := range purchases {
		for _, r := range m.rows {
			if r.OrderID == p.OrderID && r.BookID == p.BookID {
				continue next
			}
		}
		m.rows = append(m.rows, p)
		n++
	}
	return n, nil
}

func (m *memPurchases) forOrder(orderID string) []domain.Purchase {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Purchase
	for _, r := range m.rows {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out
}

type memUsers map[string]domain.User

func (m memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

// stubGateway builds real payment requests and returns scripted settlements.
type stubGateway struct {
	mu          sync.Mutex
	settle      payment.SettlementStatus
	verifyErr   error
	verifyCalls int
	refundErr   error
	refundDelay time.Duration
	refunds     []decimal.Decimal
	lastPayer   payment.Payer
	signer      payment.Signer
	requestErr  error
}

func newStubGateway(status payment.SettlementStatus) *stubGateway {
	return &stubGateway{settle: status, signer: payment.NewSigner("hook-secret")}
}

func (g *stubGateway) GeneratePaymentRequest(_ context.Context, in payment.PaymentRequestInput) (*payment.PaymentRequest, error) {
	g.mu.Lock()
	g.lastPayer = in.Payer
	g.mu.Unlock()
	if g.requestErr != nil {
		return nil, g.requestErr
	}
	return &payment.PaymentRequest{
		TransactionID: in.TransactionID,
		PayeeID:       "shop@upi",
		Amount:        in.Amount,
		PaymentString: payment.UPIString("shop@upi", "Shop", in.Amount.StringFixed(2), "INR", in.TransactionID, "test"),
		QRPayload:     "data:image/png;base64,AAAA",
	}, nil
}

func (g *stubGateway) Verify(_ context.Context, transactionID string) (*payment.Settlement, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	s := &payment.Settlement{
		TransactionID: transactionID,
		Status:        g.settle,
		Gateway:       payment.GatewayName,
		PaymentTime:   time.Now().UTC(),
	}
	if g.settle == payment.SettlementCompleted {
		s.GatewayTransactionID = "GW-" + transactionID
	}
	return s, nil
}

func (g *stubGateway) ProcessRefund(_ context.Context, transactionID string, amount decimal.Decimal, _ string) (*payment.Refund, error) {
	time.Sleep(g.refundDelay)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refunds = append(g.refunds, amount)
	return &payment.Refund{RefundID: "REF-" + transactionID, TransactionID: transactionID, Amount: amount, Status: "processed"}, nil
}

func (g *stubGateway) VerifyCallback(p payment.CallbackPayload) (*payment.Settlement, error) {
	return g.signer.Verify(p)
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []events.Event
}

func (r *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, e)
	return nil
}

func (r *recordingPublisher) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.got))
	for _, e := range r.got {
		out = append(out, e.Type)
	}
	return out
}
