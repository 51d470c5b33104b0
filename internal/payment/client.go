// Package payment talks to the external payment processor.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrUnavailable = errors.New("payment gateway unavailable")

// SessionItem is a resolved order line as the gateway expects it.
type SessionItem struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
}

// Session references the payer-facing checkout flow for one order.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Gateway interface {
	CreateSession(ctx context.Context, orderID, currency string, items []SessionItem) (*Session, error)
}

type HTTPGateway struct {
	http    *http.Client
	baseURL string
}

func NewHTTPGateway(baseURL string) *HTTPGateway {
	return &HTTPGateway{
		http:    &http.Client{Timeout: 5 * time.Second},
		baseURL: baseURL,
	}
}

func (g *HTTPGateway) CreateSession(ctx context.Context, orderID, currency string, items []SessionItem) (*Session, error) {
	body, _ := json.Marshal(map[string]any{
		"order_id": orderID,
		"currency": currency,
		"items":    items,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payment-sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: status %s", ErrUnavailable, res.Status)
	}

	var s Session
	if err := json.NewDecoder(res.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &s, nil
}
