package main

import (
	"context"
	"os"

	"bookshop/internal/config"
	"bookshop/internal/db"
	"bookshop/internal/logging"
	"bookshop/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := logging.New("info", "text")

	app := &cli.App{
		Name:  "migrate",
		Usage: "manage the bookshop database schema",
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: withPool(logger, func(ctx context.Context, pool *pgxpool.Pool, _ *cli.Context) error {
					if err := migrate.Apply(ctx, pool); err != nil {
						return err
					}
					logger.Info("migrations applied")
					return nil
				}),
			},
			{
				Name:  "down",
				Usage: "roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
				},
				Action: withPool(logger, func(ctx context.Context, pool *pgxpool.Pool, c *cli.Context) error {
					steps := c.Int("steps")
					if err := migrate.Rollback(ctx, pool, steps); err != nil {
						return err
					}
					logger.WithField("steps", steps).Info("migrations rolled back")
					return nil
				}),
			},
			{
				Name:  "version",
				Usage: "print the current schema version",
				Action: withPool(logger, func(ctx context.Context, pool *pgxpool.Pool, _ *cli.Context) error {
					v, dirty, err := migrate.Version(ctx, pool)
					if err != nil {
						return err
					}
					logger.WithFields(logrus.Fields{"version": v, "dirty": dirty}).Info("schema version")
					return nil
				}),
			},
		},
	}

	// Plain "migrate" keeps applying everything, as before subcommands existed.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "up")
	}
	if err := app.Run(os.Args); err != nil {
		logger.Fatalf("migrate: %v", err)
	}
}

func withPool(logger *logrus.Logger, fn func(context.Context, *pgxpool.Pool, *cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		pool, err := db.Connect(c.Context, cfg.DBConnString, db.Options{MaxConns: 2})
		if err != nil {
			return err
		}
		defer pool.Close()
		configured := logging.New(cfg.LogLevel, cfg.LogFormat)
		logger.SetFormatter(configured.Formatter)
		logger.SetLevel(configured.GetLevel())
		return fn(c.Context, pool, c)
	}
}
