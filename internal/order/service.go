package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ordeneslab/orders-service/internal/catalog"
	"github.com/ordeneslab/orders-service/internal/payment"
)

// Metrics is the subset of counters the workflow reports to.
type Metrics interface {
	OrderCreated()
	OrderPaid()
	ValidationFailed()
}

// Service orchestrates the catalog, the store and the payment gateway.
// It holds no per-order state; every operation is safe to run from
// concurrent request handlers.
type Service struct {
	store    Store
	catalog  catalog.Client
	gateway  payment.Gateway
	currency string
	metrics  Metrics
	log      *slog.Logger
}

func NewService(store Store, cat catalog.Client, gw payment.Gateway, currency string, m Metrics, log *slog.Logger) *Service {
	return &Service{store: store, catalog: cat, gateway: gw, currency: currency, metrics: m, log: log}
}

// Create validates the requested items against the catalog, persists the
// order and its lines atomically, then asks the gateway for a payment
// session. A gateway failure does not undo the order: the persisted
// record is the source of truth and the session can be retried, so the
// order is returned together with ErrSessionUnavailable.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest) (*OrderWithItems, *payment.Session, error) {
	if len(req.Items) == 0 {
		return nil, nil, fmt.Errorf("%w: items must not be empty", ErrBadRequest)
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, nil, fmt.Errorf("%w: quantity must be positive for product %s", ErrBadRequest, it.ProductID)
		}
	}

	ids := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ProductID)
	}

	products, err := s.catalog.ValidateProducts(ctx, ids)
	if err != nil {
		s.metrics.ValidationFailed()
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	now := time.Now().UTC()
	o := &Order{
		ID:        uuid.NewString(),
		Status:    StatusPending,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	total := decimal.Zero
	items := make([]Item, 0, len(req.Items))
	for _, it := range req.Items {
		p, ok := products[it.ProductID]
		if !ok {
			s.metrics.ValidationFailed()
			return nil, nil, fmt.Errorf("%w: product %s not found in catalog", ErrValidation, it.ProductID)
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			s.metrics.ValidationFailed()
			return nil, nil, fmt.Errorf("%w: product %s has invalid price %q", ErrValidation, it.ProductID, p.Price)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		o.TotalItems += it.Quantity
		items = append(items, Item{
			ID:        uuid.NewString(),
			OrderID:   o.ID,
			ProductID: it.ProductID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			Price:     price.StringFixed(2),
		})
	}
	o.TotalAmount = total.StringFixed(2)

	if err := s.store.Create(ctx, o, items); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	s.metrics.OrderCreated()
	s.log.Info("order created", "order_id", o.ID, "total_amount", o.TotalAmount, "total_items", o.TotalItems)

	out := &OrderWithItems{Order: *o, Items: items}
	session, err := s.gateway.CreateSession(ctx, o.ID, s.currency, sessionItems(items))
	if err != nil {
		s.log.Warn("payment session creation failed", "order_id", o.ID, "err", err)
		return out, nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	return out, session, nil
}

// FindAll returns one page of active orders, optionally filtered by
// status. An empty result set on page 1 is valid; any page beyond the
// last one is ErrNotFound.
func (s *Service) FindAll(ctx context.Context, p Pagination) (*Page, error) {
	if p.Page < 1 || p.Limit < 1 {
		return nil, fmt.Errorf("%w: page and limit must be positive", ErrBadRequest)
	}

	f := Filter{Status: p.Status}
	totalItems, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	totalPages := (totalItems + p.Limit - 1) / p.Limit
	if p.Page > totalPages && !(totalPages == 0 && p.Page == 1) {
		return nil, fmt.Errorf("%w: page %d of %d", ErrNotFound, p.Page, totalPages)
	}

	data := []Order{}
	if totalItems > 0 {
		data, err = s.store.FindPage(ctx, f, (p.Page-1)*p.Limit, p.Limit)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
	}
	return &Page{
		Meta: PageMeta{Page: p.Page, Limit: p.Limit, TotalPages: totalPages, TotalItems: totalItems},
		Data: data,
	}, nil
}

// FindOne reads an active order with its lines. Names were captured at
// creation, so the read never touches the catalog.
func (s *Service) FindOne(ctx context.Context, id string) (*OrderWithItems, error) {
	o, items, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return &OrderWithItems{Order: *o, Items: items}, nil
}

// UpdateStatus is the generic status setter. Setting the current status
// again is a no-op, not an error.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*OrderWithItems, error) {
	current, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}

	if err := s.store.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return s.FindOne(ctx, id)
}

// ConfirmPayment applies an asynchronous payment-succeeded notification.
// Delivery is at least once: a redelivery for an already PAID order
// resolves to the current state without a second receipt or a new
// paid_at.
func (s *Service) ConfirmPayment(ctx context.Context, orderID, chargeReference, receiptURL string) (*OrderWithItems, error) {
	applied, err := s.store.ApplyPaymentConfirmation(ctx, orderID, chargeReference, receiptURL, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if applied {
		s.metrics.OrderPaid()
		s.log.Info("order paid", "order_id", orderID, "charge_reference", chargeReference)
		return s.FindOne(ctx, orderID)
	}

	current, err := s.FindOne(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.Status == StatusPaid {
		if current.ChargeReference != nil && *current.ChargeReference != chargeReference {
			s.log.Warn("duplicate confirmation with different charge reference",
				"order_id", orderID, "stored", *current.ChargeReference, "received", chargeReference)
		}
		return current, nil
	}
	return nil, fmt.Errorf("%w: order %s is %s", ErrInvalidTransition, orderID, current.Status)
}

// RetryPaymentSession opens a new payment session for a persisted order
// whose initial session request failed.
func (s *Service) RetryPaymentSession(ctx context.Context, orderID string) (*payment.Session, error) {
	current, err := s.FindOne(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusPending {
		return nil, fmt.Errorf("%w: order %s is %s", ErrInvalidTransition, orderID, current.Status)
	}
	session, err := s.gateway.CreateSession(ctx, orderID, s.currency, sessionItems(current.Items))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	return session, nil
}

// Deactivate soft-deletes an order; it disappears from reads but no row
// is physically removed.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	ok, err := s.store.Deactivate(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !ok {
		return fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	s.log.Info("order deactivated", "order_id", id)
	return nil
}

func sessionItems(items []Item) []payment.SessionItem {
	out := make([]payment.SessionItem, 0, len(items))
	for _, it := range items {
		out = append(out, payment.SessionItem{Name: it.Name, Price: it.Price, Quantity: it.Quantity})
	}
	return out
}
