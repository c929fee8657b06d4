package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"bookshop/internal/auth"
	"bookshop/internal/config"
	"bookshop/internal/db"
	"bookshop/internal/events"
	"bookshop/internal/httpserver"
	"bookshop/internal/logging"
	"bookshop/internal/payment"
	cartrepo "bookshop/internal/repository/cart"
	orderrepo "bookshop/internal/repository/order"
	purchaserepo "bookshop/internal/repository/purchase"
	userrepo "bookshop/internal/repository/user"
	cartsvc "bookshop/internal/service/cart"
	checkoutsvc "bookshop/internal/service/checkout"
	reportsvc "bookshop/internal/service/report"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, db.Options{MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	cartRepo := cartrepo.NewPostgres(dbpool)
	orderRepo := orderrepo.NewPostgres(dbpool)
	purchaseRepo := purchaserepo.NewPostgres(dbpool)
	userRepo := userrepo.NewPostgres(dbpool, logger)

	hub := events.NewHub()
	publisher := events.Multi{hub}
	kafkaPub, err := events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
	switch {
	case errors.Is(err, events.ErrDisabled):
		logger.Info("kafka brokers not configured, order events stay in-process")
	case err != nil:
		logger.Fatalf("init kafka publisher: %v", err)
	default:
		defer kafkaPub.Close()
		publisher = append(publisher, kafkaPub)
		logger.WithField("topic", cfg.KafkaTopic).Info("publishing order events to kafka")
	}

	checkoutService := checkoutsvc.New(checkoutsvc.Deps{
		Carts:     cartRepo,
		Orders:    orderRepo,
		Purchases: purchaseRepo,
		Users:     userRepo,
		Gateway:   newGateway(cfg, logger),
		Publisher: publisher,
		Logger:    logger.WithField("component", "checkout"),
	})

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Cart:        cartsvc.New(cartRepo),
		Checkout:    checkoutService,
		Reports:     reportsvc.New(purchaseRepo, orderRepo),
		Tokens:      auth.NewVerifier(cfg.JWTSecret),
		Feed:        hub,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Infof("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Errorf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	} else {
		logger.Info("server stopped")
	}
}

func newGateway(cfg config.Config, logger *logrus.Logger) payment.Gateway {
	payee := payment.Payee{ID: cfg.PayeeUPIID, Name: cfg.PayeeName, Currency: cfg.Currency}
	gwLogger := logger.WithFields(logrus.Fields{"component": "payment", "gateway": cfg.PaymentGateway})
	if cfg.PaymentGateway == "http" {
		return payment.NewHTTPGateway(payment.HTTPConfig{
			BaseURL:       cfg.GatewayURL,
			APIKey:        cfg.GatewayAPIKey,
			Timeout:       cfg.GatewayTimeout,
			Payee:         payee,
			WebhookSecret: cfg.WebhookSecret,
			Logger:        gwLogger,
		})
	}
	return payment.NewSimulated(payment.SimulatedConfig{
		Payee:         payee,
		SuccessRate:   cfg.SimulatedSuccessRate,
		Delay:         cfg.SimulatedDelay,
		WebhookSecret: cfg.WebhookSecret,
		Logger:        gwLogger,
	})
}
