// Package catalog talks to the external product catalog service.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnavailable classifies any transport-level failure (timeout, remote
// error, bad payload) as a single error; partial results never leak out.
var ErrUnavailable = errors.New("catalog unavailable")

type Product struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// Client resolves product existence, name and price for a set of ids.
// The returned map holds an entry for every id that exists; absent ids
// are simply missing from it.
type Client interface {
	ValidateProducts(ctx context.Context, ids []string) (map[string]Product, error)
}

type HTTPClient struct {
	http    *http.Client
	baseURL string
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		http:    &http.Client{Timeout: 5 * time.Second},
		baseURL: baseURL,
	}
}

func (c *HTTPClient) ValidateProducts(ctx context.Context, ids []string) (map[string]Product, error) {
	body, _ := json.Marshal(map[string][]string{"ids": ids})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/products/validate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %s", ErrUnavailable, res.Status)
	}

	var out struct {
		Products []Product `json:"products"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	found := make(map[string]Product, len(out.Products))
	for _, p := range out.Products {
		found[p.ID] = p
	}
	return found, nil
}
