package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"bookshop/internal/client"
	"bookshop/internal/domain"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "shopctl",
		Usage: "talk to a bookshop API from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Value: "http://localhost:8080", EnvVars: []string{"SHOPCTL_API"}, Usage: "API base URL"},
			&cli.StringFlag{Name: "session", Value: defaultSessionPath(), EnvVars: []string{"SHOPCTL_SESSION"}, Usage: "token file"},
			&cli.DurationFlag{Name: "timeout", Value: 10 * time.Second},
		},
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "store a bearer token for later commands",
				Flags: []cli.Flag{&cli.StringFlag{Name: "token", Required: true}},
				Action: func(c *cli.Context) error {
					sess, err := client.NewSession(c.String("session"))
					if err != nil {
						return err
					}
					if err := sess.Set(c.String("token")); err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, "logged in")
					return nil
				},
			},
			{
				Name:  "logout",
				Usage: "forget the stored token",
				Action: func(c *cli.Context) error {
					sess, err := client.NewSession(c.String("session"))
					if err != nil {
						return err
					}
					return sess.Clear()
				},
			},
			{
				Name: "cart",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "show open cart items",
						Action: withClient(func(c *cli.Context, api *client.Client) error {
							items, err := api.Cart(c.Context)
							if err != nil {
								return err
							}
							w := table(c)
							fmt.Fprintln(w, "ID\tBOOK\tTITLE\tPRICE")
							for _, it := range items {
								fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", it.ID, it.BookID, it.Title, it.Price.StringFixed(2))
							}
							return w.Flush()
						}),
					},
				},
			},
			{
				Name: "orders",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "list orders for a user, or every order with --all",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "user"},
							&cli.BoolFlag{Name: "all", Usage: "admin: list every order"},
						},
						Action: withClient(func(c *cli.Context, api *client.Client) error {
							var (
								orders []domain.Order
								err    error
							)
							switch {
							case c.Bool("all"):
								orders, err = api.AllOrders(c.Context)
							case c.String("user") != "":
								orders, err = api.Orders(c.Context, c.String("user"))
							default:
								return cli.Exit("either --user or --all is required", 2)
							}
							if err != nil {
								return err
							}
							w := table(c)
							fmt.Fprintln(w, "ID\tSTATUS\tPAYMENT\tMETHOD\tTOTAL\tCREATED")
							for _, o := range orders {
								fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", o.ID, o.Status, o.PaymentStatus, o.PaymentMethod,
									o.TotalAmount.StringFixed(2), o.CreatedAt.Format(time.RFC3339))
							}
							return w.Flush()
						}),
					},
					{
						Name:      "set-status",
						Usage:     "admin: change an order's fulfillment status",
						ArgsUsage: "<order-id> <pending|completed|cancelled>",
						Action: withClient(func(c *cli.Context, api *client.Client) error {
							if c.NArg() != 2 {
								return cli.Exit("usage: shopctl orders set-status <order-id> <status>", 2)
							}
							status := domain.OrderStatus(c.Args().Get(1))
							if !status.Valid() {
								return cli.Exit(fmt.Sprintf("unknown status %q", status), 2)
							}
							o, err := api.SetOrderStatus(c.Context, c.Args().Get(0), status)
							if err != nil {
								return err
							}
							fmt.Fprintf(c.App.Writer, "%s: status=%s payment=%s\n", o.ID, o.Status, o.PaymentStatus)
							return nil
						}),
					},
				},
			},
			{
				Name: "report",
				Subcommands: []*cli.Command{
					{
						Name:  "top",
						Usage: "best selling books",
						Flags: []cli.Flag{&cli.IntFlag{Name: "limit", Value: 10}},
						Action: withClient(func(c *cli.Context, api *client.Client) error {
							books, err := api.TopSelling(c.Context, c.Int("limit"))
							if err != nil {
								return err
							}
							w := table(c)
							fmt.Fprintln(w, "BOOK\tTITLE\tAUTHOR\tSOLD")
							for _, b := range books {
								fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", b.BookID, b.Title, b.Author, b.TotalSold)
							}
							return w.Flush()
						}),
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "shopctl:", err)
		os.Exit(1)
	}
}

func withClient(fn func(*cli.Context, *client.Client) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		sess, err := client.NewSession(c.String("session"))
		if err != nil {
			return err
		}
		sess.OnCleared(func() {
			fmt.Fprintln(c.App.ErrWriter, "session rejected by server, run shopctl login again")
		})
		api := client.New(client.Config{BaseURL: c.String("api"), Timeout: c.Duration("timeout")}, sess)
		return fn(c, api)
	}
}

func table(c *cli.Context) *tabwriter.Writer {
	return tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".shopctl-token"
	}
	return filepath.Join(dir, "shopctl", "token")
}
