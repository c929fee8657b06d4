package main

import (
	"fmt"
	"os"
	"time"

	"bookshop/internal/config"
	"bookshop/internal/db"
	"bookshop/internal/importer"
	"bookshop/internal/logging"
	cartrepo "bookshop/internal/repository/cart"
	cartsvc "bookshop/internal/service/cart"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "importer",
		Usage: "load a CSV reading list into a user's cart",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Required: true, Usage: "path to CSV with bookId,title,author,price,imageUrl"},
			&cli.StringFlag{Name: "user", Required: true, Usage: "user id that owns the cart"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "importer:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	pool, err := db.Connect(c.Context, cfg.DBConnString, db.Options{MaxConns: 2})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	f, err := os.Open(c.String("file"))
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, cartsvc.New(cartrepo.NewPostgres(pool)), c.String("user"))

	start := time.Now()
	count, err := imp.Run(c.Context)
	if err != nil {
		return fmt.Errorf("import failed after %d rows: %w", count, err)
	}

	logger.WithFields(logrus.Fields{
		"rows":    count,
		"user":    c.String("user"),
		"elapsed": time.Since(start).Truncate(time.Millisecond).String(),
	}).Info("reading list imported")
	return nil
}
