package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bookshop/internal/domain"
	"bookshop/internal/events"
	"bookshop/internal/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc       *Service
	carts     *memCarts
	orders    *memOrders
	purchases *memPurchases
	gateway   *stubGateway
	events    *recordingPublisher
}

func newFixture(status payment.SettlementStatus) *fixture {
	f := &fixture{
		carts:     newMemCarts(),
		orders:    newMemOrders(),
		purchases: &memPurchases{},
		gateway:   newStubGateway(status),
		events:    &recordingPublisher{},
	}
	f.svc = New(Deps{
		Carts:     f.carts,
		Orders:    f.orders,
		Purchases: f.purchases,
		Users:     memUsers{"u1": {ID: "u1", Username: "asha", Email: "asha@example.com"}},
		Gateway:   f.gateway,
		Publisher: f.events,
	})
	return f
}

var (
	alice = domain.Identity{UserID: "u1", Role: domain.RoleUser}
	bob   = domain.Identity{UserID: "u2", Role: domain.RoleUser}
	admin = domain.Identity{UserID: "a1", Role: domain.RoleAdmin}
)

func TestInitiateCheckout(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Dune", "Frank Herbert", "200")
	f.carts.add("u1", "b2", "Emma", "Jane Austen", "150")

	res, err := f.svc.InitiateCheckout(context.Background(), alice, InitiateInput{UPIID: "asha@okbank"})
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(350)))
	assert.True(t, strings.HasPrefix(res.TransactionID, "TXN"))
	assert.Contains(t, res.PaymentString, "am=350.00")
	assert.Equal(t, "shop@upi", res.UPIID)
	assert.Equal(t, payment.Payer{Name: "asha", Email: "asha@example.com"}, f.gateway.lastPayer)

	o, err := f.orders.GetByTransaction(context.Background(), res.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, res.OrderID, o.ID)
	assert.Equal(t, domain.PaymentStatusPending, o.PaymentStatus)
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	assert.Equal(t, domain.PaymentMethodUPI, o.PaymentMethod)
	assert.Equal(t, "asha@okbank", o.PaymentDetails.UPIID)
	assert.Len(t, o.Items, 2)

	// Cart survives until payment settles.
	assert.Equal(t, 2, f.carts.count("u1"))
	assert.Equal(t, []events.Type{events.OrderCreated}, f.events.types())
}

func TestInitiateCheckoutSnapshotsCart(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Dune", "Frank Herbert", "200")
	f.carts.add("u1", "b2", "Emma", "Jane Austen", "150")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)

	f.carts.mu.Lock()
	f.carts.items["u1"][0].Price = decimal.NewFromInt(999)
	f.carts.items["u1"][1].Title = "Renamed"
	f.carts.mu.Unlock()
	f.carts.add("u1", "b3", "Ulysses", "James Joyce", "300")

	o, err := f.orders.GetByID(ctx, started.OrderID)
	require.NoError(t, err)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(350)), "total %s", o.TotalAmount)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "b1", o.Items[0].BookID)
	assert.True(t, o.Items[0].Price.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "Emma", o.Items[1].Title)
}

func TestInitiateCheckoutEmptyCart(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	_, err := f.svc.InitiateCheckout(context.Background(), alice, InitiateInput{})
	require.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.True(t, domain.IsValidation(err))

	all, _ := f.orders.ListAll(context.Background())
	assert.Empty(t, all)
}

func TestInitiateCheckoutZeroTotal(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Free Book", "", "0")
	_, err := f.svc.InitiateCheckout(context.Background(), alice, InitiateInput{})
	assert.True(t, domain.IsValidation(err))
}

func TestInitiateCheckoutGatewayFailureCancelsOrder(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.gateway.requestErr = errors.New("qr failed")
	f.carts.add("u1", "b1", "Dune", "", "200")

	_, err := f.svc.InitiateCheckout(context.Background(), alice, InitiateInput{})
	require.Error(t, err)

	all, _ := f.orders.ListAll(context.Background())
	require.Len(t, all, 1)
	assert.Equal(t, domain.PaymentStatusFailed, all[0].PaymentStatus)
	assert.Equal(t, 1, f.carts.count("u1"))
}

func TestVerifyPaymentSuccess(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Dune", "Frank Herbert", "200")
	f.carts.add("u1", "b2", "Emma", "Jane Austen", "150")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)

	res, err := f.svc.VerifyPayment(ctx, alice, started.TransactionID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, started.OrderID, res.OrderID)
	assert.Equal(t, "GW-"+started.TransactionID, res.GatewayTransactionID)

	o, _ := f.orders.GetByID(ctx, started.OrderID)
	assert.Equal(t, domain.PaymentStatusCompleted, o.PaymentStatus)
	assert.Equal(t, domain.OrderStatusCompleted, o.Status)
	require.NotNil(t, o.GatewayTransactionID)
	assert.Equal(t, payment.GatewayName, o.PaymentDetails.Gateway)
	assert.NotNil(t, o.PaymentDetails.PaymentTime)

	rows := f.purchases.forOrder(o.ID)
	require.Len(t, rows, len(o.Items))
	lines := map[string]decimal.Decimal{}
	for _, it := range o.Items {
		lines[it.BookID] = it.Price
	}
	for _, r := range rows {
		assert.Equal(t, "u1", r.UserID)
		assert.Equal(t, 1, r.Quantity)
		price, ok := lines[r.BookID]
		require.True(t, ok, "purchase for book %s not in order", r.BookID)
		assert.True(t, price.Equal(r.Price), "book %s: purchase price %s, order price %s", r.BookID, r.Price, price)
	}
	assert.Zero(t, f.carts.count("u1"))
	assert.Equal(t, []events.Type{events.OrderCreated, events.OrderCompleted}, f.events.types())
}

func TestVerifyPaymentFailure(t *testing.T) {
	f := newFixture(payment.SettlementFailed)
	f.carts.add("u1", "b1", "Dune", "", "200")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)

	res, err := f.svc.VerifyPayment(ctx, alice, started.TransactionID)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, res.GatewayTransactionID)

	o, _ := f.orders.GetByID(ctx, started.OrderID)
	assert.Equal(t, domain.PaymentStatusFailed, o.PaymentStatus)
	assert.Equal(t, domain.OrderStatusCancelled, o.Status)
	assert.Empty(t, f.purchases.forOrder(o.ID))
	assert.Equal(t, 1, f.carts.count("u1"))
	assert.Contains(t, f.events.types(), events.OrderCancelled)
}

func TestVerifyPaymentGatewayErrorSettlesAsFailed(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.gateway.verifyErr = domain.ErrGateway
	f.carts.add("u1", "b1", "Dune", "", "200")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)

	res, err := f.svc.VerifyPayment(ctx, alice, started.TransactionID)
	require.NoError(t, err)
	assert.False(t, res.Success)

	o, _ := f.orders.GetByID(ctx, started.OrderID)
	assert.Equal(t, domain.PaymentStatusFailed, o.PaymentStatus)
}

func TestVerifyPaymentCanceledContextLeavesOrderPending(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.gateway.verifyErr = context.Canceled
	f.carts.add("u1", "b1", "Dune", "", "200")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)

	_, err = f.svc.VerifyPayment(ctx, alice, started.TransactionID)
	require.ErrorIs(t, err, context.Canceled)

	o, _ := f.orders.GetByID(ctx, started.OrderID)
	assert.Equal(t, domain.PaymentStatusPending, o.PaymentStatus)
}

func TestVerifyPaymentTwiceIsAlreadyProcessed(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Dune", "", "200")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)
	_, err = f.svc.VerifyPayment(ctx, alice, started.TransactionID)
	require.NoError(t, err)

	_, err = f.svc.VerifyPayment(ctx, alice, started.TransactionID)
	require.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, f.gateway.verifyCalls)
	assert.Len(t, f.purchases.forOrder(started.OrderID), 1)
}

func TestVerifyPaymentOtherUser(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Dune", "", "200")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)

	_, err = f.svc.VerifyPayment(ctx, bob, started.TransactionID)
	require.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	_, err = f.svc.VerifyPayment(ctx, alice, "TXN-unknown")
	require.ErrorIs(t, err, domain.ErrAlreadyProcessed)
	_, err = f.svc.VerifyPayment(ctx, alice, "")
	assert.True(t, domain.IsValidation(err))
}

func TestVerifyPaymentConcurrentSettlesOnce(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Dune", "", "200")
	f.carts.add("u1", "b2", "Emma", "", "150")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		rejected int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.VerifyPayment(ctx, alice, started.TransactionID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrAlreadyProcessed):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, rejected)
	assert.Len(t, f.purchases.forOrder(started.OrderID), 2)
}

func signedCallback(f *fixture, txn string, status payment.SettlementStatus, amount string) payment.CallbackPayload {
	p := payment.CallbackPayload{
		TransactionID:        txn,
		Status:               status,
		GatewayTransactionID: "GWCB-1",
		Amount:               decimal.RequireFromString(amount),
	}
	p.Signature = f.gateway.signer.Sign(p)
	return p
}

func TestHandleCallback(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Dune", "", "200")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)

	res, err := f.svc.HandleCallback(ctx, signedCallback(f, started.TransactionID, payment.SettlementCompleted, "200"))
	require.NoError(t, err)
	assert.True(t, res.Processed)

	o, _ := f.orders.GetByID(ctx, started.OrderID)
	assert.Equal(t, domain.PaymentStatusCompleted, o.PaymentStatus)
	assert.Len(t, f.purchases.forOrder(o.ID), 1)
	assert.Zero(t, f.carts.count("u1"))

	again, err := f.svc.HandleCallback(ctx, signedCallback(f, started.TransactionID, payment.SettlementFailed, "200"))
	require.NoError(t, err)
	assert.False(t, again.Processed)
	o, _ = f.orders.GetByID(ctx, started.OrderID)
	assert.Equal(t, domain.PaymentStatusCompleted, o.PaymentStatus)

	_, err = f.svc.VerifyPayment(ctx, alice, started.TransactionID)
	assert.ErrorIs(t, err, domain.ErrAlreadyProcessed)
}

func TestHandleCallbackRejectsBadPayloads(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Dune", "", "200")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)

	forged := signedCallback(f, started.TransactionID, payment.SettlementCompleted, "200")
	forged.Signature = strings.Repeat("0", 64)
	_, err = f.svc.HandleCallback(ctx, forged)
	assert.ErrorIs(t, err, domain.ErrGateway)

	_, err = f.svc.HandleCallback(ctx, signedCallback(f, started.TransactionID, payment.SettlementCompleted, "1"))
	assert.ErrorIs(t, err, domain.ErrGateway)

	o, _ := f.orders.GetByID(ctx, started.OrderID)
	assert.Equal(t, domain.PaymentStatusPending, o.PaymentStatus)
}

func TestPlaceOrderAndFulfilment(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Dune", "", "200")
	f.carts.add("u1", "b2", "Emma", "", "150")
	ctx := context.Background()

	o, err := f.svc.PlaceOrder(ctx, alice, PlaceOrderInput{ShippingAddress: &domain.Address{City: "Pune"}})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentMethodCOD, o.PaymentMethod)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(350)))
	assert.Zero(t, f.carts.count("u1"))
	assert.Empty(t, f.purchases.forOrder(o.ID))

	_, err = f.svc.UpdateOrderStatus(ctx, alice, o.ID, domain.OrderStatusCompleted)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.UpdateOrderStatus(ctx, admin, o.ID, "shipped")
	require.True(t, domain.IsValidation(err))

	done, err := f.svc.UpdateOrderStatus(ctx, admin, o.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, done.PaymentStatus)
	assert.Len(t, f.purchases.forOrder(o.ID), 2)

	// Re-marking completed does not duplicate ledger rows.
	_, err = f.svc.UpdateOrderStatus(ctx, admin, o.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Len(t, f.purchases.forOrder(o.ID), 2)

	cancelled, err := f.svc.UpdateOrderStatus(ctx, admin, o.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusFailed, cancelled.PaymentStatus)

	_, err = f.svc.PlaceOrder(ctx, alice, PlaceOrderInput{})
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestUpdateOrderStatusKeepsUPIPayment(t *testing.T) {
	f := newFixture(payment.SettlementFailed)
	f.carts.add("u1", "b1", "Dune", "", "200")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)
	_, err = f.svc.VerifyPayment(ctx, alice, started.TransactionID)
	require.NoError(t, err)

	o, err := f.svc.UpdateOrderStatus(ctx, admin, started.OrderID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, o.Status)
	assert.Equal(t, domain.PaymentStatusFailed, o.PaymentStatus)
	assert.Empty(t, f.purchases.forOrder(o.ID))

	_, err = f.svc.UpdateOrderStatus(ctx, admin, "missing", domain.OrderStatusCompleted)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateOrderStatusKeepsRefundedCOD(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Dune", "", "200")
	ctx := context.Background()

	placed, err := f.svc.PlaceOrder(ctx, alice, PlaceOrderInput{})
	require.NoError(t, err)
	_, err = f.svc.UpdateOrderStatus(ctx, admin, placed.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	_, err = f.svc.Refund(ctx, alice, RefundInput{OrderID: placed.ID})
	require.NoError(t, err)

	o, err := f.svc.UpdateOrderStatus(ctx, admin, placed.ID, domain.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCompleted, o.Status)
	assert.Equal(t, domain.PaymentStatusRefunded, o.PaymentStatus)

	_, err = f.svc.Refund(ctx, alice, RefundInput{OrderID: placed.ID})
	assert.ErrorIs(t, err, domain.ErrNotRefundable)
	f.gateway.mu.Lock()
	assert.Len(t, f.gateway.refunds, 1)
	f.gateway.mu.Unlock()
}

func TestRefund(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Dune", "", "200")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)

	_, err = f.svc.Refund(ctx, alice, RefundInput{OrderID: started.OrderID})
	require.ErrorIs(t, err, domain.ErrNotRefundable, "pending orders cannot be refunded")

	_, err = f.svc.VerifyPayment(ctx, alice, started.TransactionID)
	require.NoError(t, err)

	tooMuch := decimal.NewFromInt(500)
	_, err = f.svc.Refund(ctx, alice, RefundInput{OrderID: started.OrderID, Amount: &tooMuch})
	require.True(t, domain.IsValidation(err))

	_, err = f.svc.Refund(ctx, bob, RefundInput{OrderID: started.OrderID})
	require.ErrorIs(t, err, domain.ErrNotFound)

	res, err := f.svc.Refund(ctx, alice, RefundInput{OrderID: started.OrderID, Reason: "changed mind"})
	require.NoError(t, err)
	assert.True(t, res.Amount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "processed", res.Status)

	o, _ := f.orders.GetByID(ctx, started.OrderID)
	assert.Equal(t, domain.PaymentStatusRefunded, o.PaymentStatus)
	assert.Equal(t, domain.OrderStatusCancelled, o.Status)
	assert.Len(t, f.purchases.forOrder(o.ID), 1, "ledger is not reversed")

	_, err = f.svc.Refund(ctx, alice, RefundInput{OrderID: started.OrderID})
	assert.ErrorIs(t, err, domain.ErrNotRefundable)
}

func TestRefundGatewayErrorLeavesOrderPaid(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Dune", "", "200")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)
	_, err = f.svc.VerifyPayment(ctx, alice, started.TransactionID)
	require.NoError(t, err)

	f.gateway.refundErr = domain.ErrGateway
	_, err = f.svc.Refund(ctx, alice, RefundInput{OrderID: started.OrderID})
	require.ErrorIs(t, err, domain.ErrGateway)

	o, _ := f.orders.GetByID(ctx, started.OrderID)
	assert.Equal(t, domain.PaymentStatusCompleted, o.PaymentStatus)
	assert.Equal(t, domain.OrderStatusCompleted, o.Status)

	f.gateway.refundErr = nil
	res, err := f.svc.Refund(ctx, alice, RefundInput{OrderID: started.OrderID})
	require.NoError(t, err, "failed refund must release the order")
	assert.True(t, res.Success)
}

func TestRefundConcurrentRefundsOnce(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Dune", "", "200")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)
	_, err = f.svc.VerifyPayment(ctx, alice, started.TransactionID)
	require.NoError(t, err)

	f.gateway.refundDelay = 20 * time.Millisecond
	const callers = 5
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		rejected int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Refund(ctx, alice, RefundInput{OrderID: started.OrderID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrNotRefundable):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, rejected)
	f.gateway.mu.Lock()
	assert.Len(t, f.gateway.refunds, 1, "gateway refunded more than once")
	f.gateway.mu.Unlock()
}

func TestPaymentStatusAndListings(t *testing.T) {
	f := newFixture(payment.SettlementCompleted)
	f.carts.add("u1", "b1", "Dune", "", "200")
	ctx := context.Background()

	started, err := f.svc.InitiateCheckout(ctx, alice, InitiateInput{})
	require.NoError(t, err)

	st, err := f.svc.PaymentStatus(ctx, alice, started.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, st.PaymentStatus)
	assert.True(t, st.Amount.Equal(decimal.NewFromInt(200)))

	_, err = f.svc.PaymentStatus(ctx, bob, started.TransactionID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mine, err := f.svc.ListUserOrders(ctx, alice, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = f.svc.ListUserOrders(ctx, bob, "u1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	viaAdmin, err := f.svc.ListUserOrders(ctx, admin, "u1")
	require.NoError(t, err)
	assert.Len(t, viaAdmin, 1)

	_, err = f.svc.ListAllOrders(ctx, alice)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	all, err := f.svc.ListAllOrders(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
