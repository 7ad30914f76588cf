// Package storecore implements the OrderRepository and OrderProcessor
// interfaces by communicating with the storefront core's internal API.
// The core owns the order records and applies every state transition under
// per-order mutual exclusion, so concurrent notifications for the same
// order cannot double-apply a transition.
package storecore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopstack/oxipay-payments/internal/domain"
)

// Client implements domain.OrderRepository and domain.OrderProcessor
// by making HTTP requests to the storefront core API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new storefront core client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// orderResponse represents the JSON order record from the core API.
type orderResponse struct {
	ID              int64                   `json:"id"`
	OrderGuid       uuid.UUID               `json:"order_guid"`
	OrderTotal      decimal.Decimal         `json:"order_total"`
	PaymentStatus   string                  `json:"payment_status"`
	OrderNotes      []domain.OrderNote      `json:"order_notes"`
	ShippingAddress *domain.ShippingAddress `json:"shipping_address"`
	CreatedOn       time.Time               `json:"created_on"`
}

func (r *orderResponse) toDomain() (*domain.Order, error) {
	status, err := domain.ParsePaymentStatus(r.PaymentStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to parse order payment status: %w", err)
	}
	return &domain.Order{
		ID:              r.ID,
		OrderGuid:       r.OrderGuid,
		Total:           r.OrderTotal,
		PaymentStatus:   status,
		Notes:           r.OrderNotes,
		ShippingAddress: r.ShippingAddress,
		CreatedOn:       r.CreatedOn,
	}, nil
}

// GetOrderByGuid resolves an order by its correlation key.
func (c *Client) GetOrderByGuid(ctx context.Context, guid uuid.UUID) (*domain.Order, error) {
	url := fmt.Sprintf("%s/api/internal/orders/by-guid/%s/", c.baseURL, guid)
	var resp orderResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain()
}

// GetMostRecentOrder returns the customer's latest order.
func (c *Client) GetMostRecentOrder(ctx context.Context, customerID int64) (*domain.Order, error) {
	url := fmt.Sprintf("%s/api/internal/customers/%d/orders/latest/", c.baseURL, customerID)
	var resp orderResponse
	if err := c.get(ctx, url, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain()
}

// AddOrderNote appends a note to the order's audit log.
func (c *Client) AddOrderNote(ctx context.Context, orderID int64, note domain.OrderNote) error {
	url := fmt.Sprintf("%s/api/internal/orders/%d/notes/", c.baseURL, orderID)
	return c.post(ctx, url, note, nil)
}

// SaveOrderAttribute stores a key/value attribute on the order.
func (c *Client) SaveOrderAttribute(ctx context.Context, orderID int64, key, value string) error {
	url := fmt.Sprintf("%s/api/internal/orders/%d/attributes/", c.baseURL, orderID)
	payload := map[string]string{"key": key, "value": value}
	return c.post(ctx, url, payload, nil)
}

// GetOrderAttribute reads a stored attribute; unset keys yield "".
func (c *Client) GetOrderAttribute(ctx context.Context, orderID int64, key string) (string, error) {
	url := fmt.Sprintf("%s/api/internal/orders/%d/attributes/%s/", c.baseURL, orderID, key)
	var resp struct {
		Value string `json:"value"`
	}
	if err := c.get(ctx, url, &resp); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			return "", nil
		}
		return "", err
	}
	return resp.Value, nil
}

// CanMarkOrderAsPaid reports whether the core allows marking the order paid.
func (c *Client) CanMarkOrderAsPaid(ctx context.Context, order *domain.Order) (bool, error) {
	return c.checkPrecondition(ctx, order.ID, "can-mark-paid")
}

// MarkOrderAsPaid transitions the order to paid.
func (c *Client) MarkOrderAsPaid(ctx context.Context, order *domain.Order) error {
	url := fmt.Sprintf("%s/api/internal/orders/%d/mark-paid/", c.baseURL, order.ID)
	return c.post(ctx, url, nil, nil)
}

// CanVoidOffline reports whether the core allows a record-keeping void.
func (c *Client) CanVoidOffline(ctx context.Context, order *domain.Order) (bool, error) {
	return c.checkPrecondition(ctx, order.ID, "can-void-offline")
}

// VoidOffline voids the order without moving money.
func (c *Client) VoidOffline(ctx context.Context, order *domain.Order) error {
	url := fmt.Sprintf("%s/api/internal/orders/%d/void-offline/", c.baseURL, order.ID)
	return c.post(ctx, url, nil, nil)
}

// CanCancelOrder reports whether the shopper may cancel the order.
func (c *Client) CanCancelOrder(ctx context.Context, order *domain.Order) (bool, error) {
	return c.checkPrecondition(ctx, order.ID, "can-cancel")
}

// CancelOrder cancels the order.
func (c *Client) CancelOrder(ctx context.Context, order *domain.Order) error {
	url := fmt.Sprintf("%s/api/internal/orders/%d/cancel/", c.baseURL, order.ID)
	return c.post(ctx, url, nil, nil)
}

func (c *Client) checkPrecondition(ctx context.Context, orderID int64, name string) (bool, error) {
	url := fmt.Sprintf("%s/api/internal/orders/%d/%s/", c.baseURL, orderID, name)
	var resp struct {
		Allowed bool `json:"allowed"`
	}
	if err := c.get(ctx, url, &resp); err != nil {
		return false, err
	}
	return resp.Allowed, nil
}

func (c *Client) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, url string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(jsonBody)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	// Add internal API authentication
	req.Header.Set("X-Internal-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		// Success - continue
	case http.StatusNotFound:
		return domain.ErrOrderNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("authentication failed with core API")
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
