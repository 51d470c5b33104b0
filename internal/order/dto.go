package order

// CreateOrderItem is one requested line of a new order.
type CreateOrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest payload for order creation. Totals are always
// derived server-side, never accepted from the caller.
type CreateOrderRequest struct {
	Items []CreateOrderItem `json:"items"`
}

// UpdateOrderStatusRequest payload for the generic status setter.
type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

// Pagination is a 1-based page request with an optional status filter.
type Pagination struct {
	Page   int
	Limit  int
	Status *Status
}

type PageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
}

type Page struct {
	Meta PageMeta `json:"meta"`
	Data []Order  `json:"data"`
}
