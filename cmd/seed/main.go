package main

import (
	"context"
	"time"

	"bookshop/internal/auth"
	"bookshop/internal/config"
	"bookshop/internal/db"
	"bookshop/internal/domain"
	"bookshop/internal/logging"
	cartrepo "bookshop/internal/repository/cart"
	userrepo "bookshop/internal/repository/user"
	"bookshop/internal/seed"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "text").Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, db.Options{MaxConns: cfg.DBMaxConns})
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	users, err := seed.Apply(ctx, userrepo.NewPostgres(pool, logger), cartrepo.NewPostgres(pool))
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	// Development tokens so the API can be exercised without the identity service.
	verifier := auth.NewVerifier(cfg.JWTSecret)
	for _, u := range users {
		token, err := verifier.Issue(domain.Identity{UserID: u.ID, Role: u.Role}, 7*24*time.Hour)
		if err != nil {
			logger.Fatalf("issue token for %s: %v", u.ID, err)
		}
		logger.WithFields(logrus.Fields{"user_id": u.ID, "role": u.Role, "token": token}).Info("seeded user")
	}
	logger.Info("seed applied")
}
