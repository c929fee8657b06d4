// Package report derives purchase history, statistics and sales rankings
// from the purchase ledger.
package report

import (
	"context"
	"fmt"
	"sort"

	"bookshop/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultTopLimit = 10
	MaxTopLimit     = 50
)

type PurchaseReader interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Purchase, error)
	TopSelling(ctx context.Context, limit int) ([]domain.BookSales, error)
	Totals(ctx context.Context) (domain.LedgerTotals, error)
}

type OrderReader interface {
	ListAll(ctx context.Context) ([]domain.Order, error)
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
}

type Service struct {
	purchases PurchaseReader
	orders    OrderReader
}

func New(purchases PurchaseReader, orders OrderReader) *Service {
	return &Service{purchases: purchases, orders: orders}
}

// DayGroup holds one UTC calendar day of a user's purchases.
type DayGroup struct {
	Date      string            `json:"date"`
	Purchases []domain.Purchase `json:"purchases"`
	Total     decimal.Decimal   `json:"total"`
}

// History groups the user's purchases by day, newest day first.
func (s *Service) History(ctx context.Context, userID string) ([]DayGroup, error) {
	rows, err := s.purchases.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	groups := []DayGroup{}
	index := map[string]int{}
	for _, p := range rows {
		day := p.CreatedAt.UTC().Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(groups)
			index[day] = i
			groups = append(groups, DayGroup{Date: day, Total: decimal.Zero})
		}
		groups[i].Purchases = append(groups[i].Purchases, p)
		groups[i].Total = groups[i].Total.Add(lineTotal(p))
	}
	return groups, nil
}

type MonthStat struct {
	Month string          `json:"month"`
	Count int             `json:"count"`
	Spent decimal.Decimal `json:"spent"`
}

type Stats struct {
	TotalPurchases int             `json:"totalPurchases"`
	TotalSpent     decimal.Decimal `json:"totalSpent"`
	FavoriteAuthor string          `json:"favoriteAuthor"`
	MonthlyStats   []MonthStat     `json:"monthlyStats"`
}

func (s *Service) Stats(ctx context.Context, userID string) (*Stats, error) {
	rows, err := s.purchases.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}

	out := &Stats{TotalSpent: decimal.Zero, MonthlyStats: []MonthStat{}}
	authors := map[string]int{}
	months := map[string]*MonthStat{}
	for _, p := range rows {
		out.TotalPurchases += p.Quantity
		out.TotalSpent = out.TotalSpent.Add(lineTotal(p))
		if p.Author != "" {
			authors[p.Author] += p.Quantity
		}

		key := p.CreatedAt.UTC().Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &MonthStat{Month: key, Spent: decimal.Zero}
			months[key] = m
		}
		m.Count += p.Quantity
		m.Spent = m.Spent.Add(lineTotal(p))
	}
	out.FavoriteAuthor = favorite(authors)

	for _, m := range months {
		out.MonthlyStats = append(out.MonthlyStats, *m)
	}
	sort.Slice(out.MonthlyStats, func(i, j int) bool {
		return out.MonthlyStats[i].Month > out.MonthlyStats[j].Month
	})
	return out, nil
}

// favorite returns the author with the most units; ties go to the
// alphabetically first name.
func favorite(counts map[string]int) string {
	best, bestN := "", 0
	for author, n := range counts {
		if n > bestN || (n == bestN && author < best) {
			best, bestN = author, n
		}
	}
	return best
}

// TopSelling ranks books by units sold. limit falls back to DefaultTopLimit
// when not positive and is capped at MaxTopLimit.
func (s *Service) TopSelling(ctx context.Context, limit int) ([]domain.BookSales, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	if limit > MaxTopLimit {
		limit = MaxTopLimit
	}
	return s.purchases.TopSelling(ctx, limit)
}

type Summary struct {
	domain.LedgerTotals
	Orders map[domain.OrderStatus]int `json:"orders"`
}

func (s *Service) Summary(ctx context.Context, id domain.Identity) (*Summary, error) {
	if !id.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	totals, err := s.purchases.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger totals: %w", err)
	}
	counts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	return &Summary{LedgerTotals: totals, Orders: counts}, nil
}

func lineTotal(p domain.Purchase) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}
