package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Filter narrows count/page queries. Inactive orders are always excluded.
type Filter struct {
	Status *Status
}

type Store interface {
	Create(ctx context.Context, o *Order, items []Item) error
	Count(ctx context.Context, f Filter) (int, error)
	FindPage(ctx context.Context, f Filter, skip, take int) ([]Order, error)
	FindByID(ctx context.Context, id string) (*Order, []Item, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	// ApplyPaymentConfirmation performs the PENDING -> PAID transition and
	// receipt creation in one transaction. It reports applied=false when
	// the order was not in PENDING (or does not exist), leaving state
	// untouched; concurrent duplicate confirmations serialize on the
	// conditional update so only the first one applies.
	ApplyPaymentConfirmation(ctx context.Context, id, chargeReference, receiptURL string, paidAt time.Time) (applied bool, err error)
	Deactivate(ctx context.Context, id string) (bool, error)
}

type PGStore struct{ db *pgxpool.Pool }

func NewPGStore(db *pgxpool.Pool) *PGStore { return &PGStore{db: db} }

func (s *PGStore) Create(ctx context.Context, o *Order, items []Item) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    INSERT INTO orders (id, status, total_amount, total_items, paid, active, created_at, updated_at)
    VALUES ($1,$2,$3,$4,FALSE,TRUE,NOW(),NOW())
  `, o.ID, string(o.Status), o.TotalAmount, o.TotalItems); err != nil {
		return err
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
      INSERT INTO order_items (id, order_id, product_id, name, quantity, price)
      VALUES ($1,$2,$3,$4,$5,$6)
    `, it.ID, o.ID, it.ProductID, it.Name, it.Quantity, it.Price); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Count(ctx context.Context, f Filter) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := s.db.QueryRow(ctx, `
    SELECT COUNT(*) FROM orders
    WHERE active AND ($1::text IS NULL OR status = $1)
  `, statusArg(f.Status)).Scan(&n)
	return n, err
}

func (s *PGStore) FindPage(ctx context.Context, f Filter, skip, take int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.db.Query(ctx, `
    SELECT id, status, total_amount::text, total_items, paid, paid_at, charge_reference, active, created_at, updated_at
    FROM orders
    WHERE active AND ($1::text IS NULL OR status = $1)
    ORDER BY created_at, id
    LIMIT $2 OFFSET $3
  `, statusArg(f.Status), take, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		var o Order
		if err := scanOrder(rows.Scan, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PGStore) FindByID(ctx context.Context, id string) (*Order, []Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var o Order
	err := scanOrder(s.db.QueryRow(ctx, `
    SELECT id, status, total_amount::text, total_items, paid, paid_at, charge_reference, active, created_at, updated_at
    FROM orders WHERE id=$1 AND active
  `, id).Scan, &o)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}

	rows, err := s.db.Query(ctx, `
    SELECT id, order_id, product_id, name, quantity, price::text
    FROM order_items WHERE order_id=$1
  `, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, nil, err
		}
		items = append(items, it)
	}
	return &o, items, rows.Err()
}

func (s *PGStore) UpdateStatus(ctx context.Context, id string, status Status) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
    UPDATE orders
    SET status = $2, updated_at = NOW()
    WHERE id = $1 AND active
  `, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ApplyPaymentConfirmation(ctx context.Context, id, chargeReference, receiptURL string, paidAt time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Only a PENDING order can transition; a concurrent duplicate blocks
	// here until the first commit and then sees zero rows updated.
	tag, err := tx.Exec(ctx, `
    UPDATE orders
    SET status = $2, paid = TRUE, paid_at = $3, charge_reference = $4, updated_at = NOW()
    WHERE id = $1 AND active AND status = $5
  `, id, string(StatusPaid), paidAt, chargeReference, string(StatusPending))
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	// order_receipts.order_id is UNIQUE, so at most one receipt can ever
	// exist per order.
	if _, err := tx.Exec(ctx, `
    INSERT INTO order_receipts (id, order_id, receipt_url, created_at)
    VALUES ($1,$2,$3,NOW())
  `, uuid.NewString(), id, receiptURL); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

func (s *PGStore) Deactivate(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
    UPDATE orders SET active = FALSE, updated_at = NOW()
    WHERE id = $1 AND active
  `, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func statusArg(st *Status) *string {
	if st == nil {
		return nil
	}
	s := string(*st)
	return &s
}

func scanOrder(scan func(dest ...any) error, o *Order) error {
	var status string
	if err := scan(&o.ID, &status, &o.TotalAmount, &o.TotalItems, &o.Paid, &o.PaidAt, &o.ChargeReference, &o.Active, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return err
	}
	o.Status = Status(status)
	return nil
}
