// Package client is a typed HTTP client for the bookshop API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bookshop/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	http    *resty.Client
	session *Session
}

// New builds a client that authenticates with session's token and clears
// the session whenever the API answers 401 or 403.
func New(cfg Config, session *Session) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{session: session}
	c.http = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			if tok := session.Token(); tok != "" {
				r.SetAuthToken(tok)
			}
			return nil
		}).
		OnAfterResponse(func(_ *resty.Client, r *resty.Response) error {
			switch r.StatusCode() {
			case http.StatusUnauthorized, http.StatusForbidden:
				return session.Clear()
			}
			return nil
		})
	return c
}

type AddToCartInput struct {
	BookID   string          `json:"bookId"`
	Title    string          `json:"title"`
	Author   string          `json:"author,omitempty"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"imageUrl,omitempty"`
}

type InitiateResult struct {
	Success       bool            `json:"success"`
	OrderID       string          `json:"orderId"`
	TransactionID string          `json:"transactionId"`
	PaymentString string          `json:"paymentString"`
	QRPayload     string          `json:"qrPayload"`
	Amount        decimal.Decimal `json:"amount"`
	UPIID         string          `json:"upiId"`
}

type VerifyResult struct {
	Success              bool   `json:"success"`
	Message              string `json:"message"`
	OrderID              string `json:"orderId"`
	TransactionID        string `json:"transactionId"`
	GatewayTransactionID string `json:"gatewayTransactionId"`
}

type PaymentStatus struct {
	TransactionID string               `json:"transactionId"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	OrderStatus   domain.OrderStatus   `json:"orderStatus"`
	Amount        decimal.Decimal      `json:"amount"`
	CreatedAt     time.Time            `json:"createdAt"`
}

func (c *Client) Cart(ctx context.Context) ([]domain.CartItem, error) {
	var out struct {
		Items []domain.CartItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/cart", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) AddToCart(ctx context.Context, in AddToCartInput) (*domain.CartItem, error) {
	var out struct {
		Item domain.CartItem `json:"item"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/cart/add", in, &out); err != nil {
		return nil, err
	}
	return &out.Item, nil
}

func (c *Client) RemoveFromCart(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/api/cart/"+itemID, nil, nil)
}

func (c *Client) InitiateCheckout(ctx context.Context, upiID string) (*InitiateResult, error) {
	var out InitiateResult
	if err := c.do(ctx, http.MethodPost, "/api/payments/upi/initiate", map[string]string{"upiId": upiID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyPayment(ctx context.Context, transactionID string) (*VerifyResult, error) {
	var out VerifyResult
	if err := c.do(ctx, http.MethodPost, "/api/payments/upi/verify", map[string]string{"transactionId": transactionID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PaymentStatus(ctx context.Context, transactionID string) (*PaymentStatus, error) {
	var out PaymentStatus
	if err := c.do(ctx, http.MethodGet, "/api/payments/status/"+transactionID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Orders(ctx context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/user/"+userID, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AllOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/admin", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	var out struct {
		Order domain.Order `json:"order"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/orders/"+orderID+"/status", map[string]string{"status": string(status)}, &out); err != nil {
		return nil, err
	}
	return &out.Order, nil
}

func (c *Client) TopSelling(ctx context.Context, limit int) ([]domain.BookSales, error) {
	path := "/api/reports/top-selling"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []domain.BookSales
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode()}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(resp.Body(), &payload) == nil {
			apiErr.Message = payload.Error
		}
		if apiErr.Status == http.StatusUnauthorized {
			return fmt.Errorf("%w: %v", ErrNotLoggedIn, apiErr)
		}
		return apiErr
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
