package httpserver

import (
	"context"
	"errors"
	"io"
	"time"

	"bookshop/internal/domain"
	"bookshop/internal/events"
	"bookshop/internal/metrics"
	"bookshop/internal/payment"
	cartsvc "bookshop/internal/service/cart"
	checkoutsvc "bookshop/internal/service/checkout"
	reportsvc "bookshop/internal/service/report"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type CartService interface {
	AddItem(ctx context.Context, userID string, in cartsvc.AddInput) (*domain.CartItem, error)
	List(ctx context.Context, userID string) ([]domain.CartItem, error)
	Remove(ctx context.Context, userID, itemID string) error
}

type CheckoutService interface {
	InitiateCheckout(ctx context.Context, id domain.Identity, in checkoutsvc.InitiateInput) (*checkoutsvc.InitiateResult, error)
	VerifyPayment(ctx context.Context, id domain.Identity, transactionID string) (*checkoutsvc.VerifyResult, error)
	HandleCallback(ctx context.Context, p payment.CallbackPayload) (*checkoutsvc.CallbackResult, error)
	PlaceOrder(ctx context.Context, id domain.Identity, in checkoutsvc.PlaceOrderInput) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, actor domain.Identity, orderID string, status domain.OrderStatus) (*domain.Order, error)
	Refund(ctx context.Context, id domain.Identity, in checkoutsvc.RefundInput) (*checkoutsvc.RefundResult, error)
	PaymentStatus(ctx context.Context, id domain.Identity, transactionID string) (*checkoutsvc.StatusResult, error)
	ListUserOrders(ctx context.Context, id domain.Identity, userID string) ([]domain.Order, error)
	ListAllOrders(ctx context.Context, id domain.Identity) ([]domain.Order, error)
}

type ReportService interface {
	History(ctx context.Context, userID string) ([]reportsvc.DayGroup, error)
	Stats(ctx context.Context, userID string) (*reportsvc.Stats, error)
	TopSelling(ctx context.Context, limit int) ([]domain.BookSales, error)
	Summary(ctx context.Context, id domain.Identity) (*reportsvc.Summary, error)
	ExportOrders(ctx context.Context, id domain.Identity, w io.Writer) error
}

type TokenVerifier interface {
	Parse(token string) (domain.Identity, error)
}

// Deps are the services the router exposes.
type Deps struct {
	Cart     CartService
	Checkout CheckoutService
	Reports  ReportService
	Tokens   TokenVerifier
	// Feed is optional; without it the admin feed route is not registered.
	Feed        *events.Hub
	CORSOrigins []string
}

func (d Deps) validate() error {
	switch {
	case d.Cart == nil:
		return errors.New("httpserver: cart service required")
	case d.Checkout == nil:
		return errors.New("httpserver: checkout service required")
	case d.Reports == nil:
		return errors.New("httpserver: report service required")
	case d.Tokens == nil:
		return errors.New("httpserver: token verifier required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *logrus.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), metrics.Middleware())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	var ready pinger
	if db != nil {
		ready = db
	}
	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(ready))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	authed := authMiddleware(deps.Tokens, false)
	admin := requireAdmin()

	cart := api.Group("/cart", authed)
	cart.POST("/add", addCartItemHandler(logger, deps.Cart))
	cart.GET("", listCartHandler(logger, deps.Cart))
	cart.DELETE("/:itemId", removeCartItemHandler(logger, deps.Cart))

	payments := api.Group("/payments")
	payments.POST("/callback", paymentCallbackHandler(logger, deps.Checkout))
	payments.POST("/upi/initiate", authed, initiatePaymentHandler(logger, deps.Checkout))
	payments.POST("/upi/verify", authed, verifyPaymentHandler(logger, deps.Checkout))
	payments.GET("/status/:transactionId", authed, paymentStatusHandler(logger, deps.Checkout))
	payments.POST("/refund", authed, refundHandler(logger, deps.Checkout))

	orders := api.Group("/orders")
	orders.POST("", authed, placeOrderHandler(logger, deps.Checkout))
	orders.GET("/user/:userId", authed, listUserOrdersHandler(logger, deps.Checkout))
	orders.GET("/admin", authed, admin, listAllOrdersHandler(logger, deps.Checkout))
	orders.GET("/admin/export", authed, admin, exportOrdersHandler(logger, deps.Reports))
	if deps.Feed != nil {
		orders.GET("/admin/feed", authMiddleware(deps.Tokens, true), admin, orderFeedHandler(logger, deps.Feed))
	}
	orders.PUT("/:orderId/status", authed, admin, updateOrderStatusHandler(logger, deps.Checkout))

	purchases := api.Group("/purchases", authed)
	purchases.GET("/history", purchaseHistoryHandler(logger, deps.Reports))
	purchases.GET("/stats", purchaseStatsHandler(logger, deps.Reports))

	reports := api.Group("/reports")
	reports.GET("/top-selling", topSellingHandler(logger, deps.Reports))
	reports.GET("/summary", authed, admin, summaryHandler(logger, deps.Reports))

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
