package order

import (
	"fmt"
	"strings"
	"time"
)

// Status is the workflow-owned order state machine. The store maps it to
// its own column representation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

var statusList = []Status{StatusPending, StatusPaid, StatusDelivered, StatusCancelled}

func ParseStatus(s string) (Status, error) {
	up := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range statusList {
		if st == up {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q, possible values: %v", s, statusList)
}

type Order struct {
	ID              string     `json:"id"`
	Status          Status     `json:"status"`
	TotalAmount     string     `json:"total_amount"` // NUMERIC -> string
	TotalItems      int        `json:"total_items"`
	Paid            bool       `json:"paid"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	ChargeReference *string    `json:"charge_reference,omitempty"`
	Active          bool       `json:"active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Item is one product line of an order. Name and price are captured at
// creation time; the price is a historical fact and is never re-resolved.
type Item struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"` // NUMERIC -> string
}

// Receipt is created exactly once per order, on payment confirmation.
type Receipt struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	ReceiptURL string    `json:"receipt_url"`
	CreatedAt  time.Time `json:"created_at"`
}

type OrderWithItems struct {
	Order
	Items []Item `json:"items"`
}
