package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"bookshop/internal/domain"
	cartsvc "bookshop/internal/service/cart"
	"github.com/shopspring/decimal"
)

type CartWriter interface {
	AddItem(ctx context.Context, userID string, in cartsvc.AddInput) (*domain.CartItem, error)
}

// CSVImporter loads a reading list export into one user's cart.
// Expected headers: bookId,title,author,price,imageUrl (case-insensitive,
// snake_case accepted).
type CSVImporter struct {
	reader *csv.Reader
	carts  CartWriter
	userID string
}

func NewCSVImporter(r io.Reader, carts CartWriter, userID string) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader: csvr,
		carts:  carts,
		userID: userID,
	}
}

type csvRow struct {
	Line     int
	BookID   string
	Title    string
	Author   string
	Price    string
	ImageURL string
}

// Run adds every row to the cart and returns how many rows were applied.
// Books already in the cart count as applied; the cart keeps one line per book.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["bookid"]; !ok {
		return 0, fmt.Errorf("missing bookId column")
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		row.Line = line
		if err := i.save(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	price, err := decimal.NewFromString(row.Price)
	if err != nil {
		return fmt.Errorf("row %d: invalid price %q", row.Line, row.Price)
	}
	_, err = i.carts.AddItem(ctx, i.userID, cartsvc.AddInput{
		BookID:   row.BookID,
		Title:    row.Title,
		Author:   row.Author,
		Price:    &price,
		ImageURL: row.ImageURL,
	})
	if err != nil {
		return fmt.Errorf("row %d (book %q): %w", row.Line, row.BookID, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(h), "_", ""))
		idx[strings.TrimPrefix(key, "\ufeff")] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	bookID := pick(record, index, "bookid")
	if bookID == "" {
		return nil
	}
	return &csvRow{
		BookID:   bookID,
		Title:    pick(record, index, "title"),
		Author:   pick(record, index, "author"),
		Price:    pick(record, index, "price"),
		ImageURL: pick(record, index, "imageurl"),
	}
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
