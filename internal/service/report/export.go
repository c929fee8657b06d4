package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"bookshop/internal/domain"
	"github.com/tealeg/xlsx"
)

const exportTimeLayout = "2006-01-02 15:04:05"

var exportHeaders = []string{
	"Order ID", "User ID", "Username", "Email", "Items", "Total",
	"Status", "Payment Method", "Payment Status", "Transaction ID",
	"Gateway Reference", "Created At", "Updated At",
}

// ExportOrders writes every order as an XLSX workbook to w.
func (s *Service) ExportOrders(ctx context.Context, id domain.Identity, w io.Writer) error {
	if !id.IsAdmin() {
		return domain.ErrForbidden
	}
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}
	file, err := OrdersWorkbook(orders)
	if err != nil {
		return err
	}
	return file.Write(w)
}

// OrdersWorkbook renders orders into a single "Orders" sheet.
func OrdersWorkbook(orders []domain.Order) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetValue(h)
	}

	for _, o := range orders {
		owner := o.Owner()
		titles := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			titles = append(titles, it.Title)
		}
		gatewayRef := ""
		if o.GatewayTransactionID != nil {
			gatewayRef = *o.GatewayTransactionID
		}

		row := sheet.AddRow()
		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(owner.ID)
		row.AddCell().SetValue(owner.Username)
		row.AddCell().SetValue(owner.Email)
		row.AddCell().SetValue(strings.Join(titles, "; "))
		row.AddCell().SetFloat(o.TotalAmount.InexactFloat64())
		row.AddCell().SetValue(string(o.Status))
		row.AddCell().SetValue(string(o.PaymentMethod))
		row.AddCell().SetValue(string(o.PaymentStatus))
		row.AddCell().SetValue(o.TransactionID)
		row.AddCell().SetValue(gatewayRef)
		row.AddCell().SetValue(o.CreatedAt.UTC().Format(exportTimeLayout))
		row.AddCell().SetValue(formatTime(o.UpdatedAt))
	}
	return file, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(exportTimeLayout)
}
