package orders

import (
	"context"
	"errors"
	"fmt"

	"farmcon/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgUniqueViolation is the PostgreSQL error code for a unique-constraint hit.
// The (checkout_session_id, seller_id) constraint turns it into the
// idempotency signal for payment confirmation.
const pgUniqueViolation = "23505"

// RepositoryInterface defines the contract for the order repository.
type RepositoryInterface interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	AddOrderItem(ctx context.Context, item *models.OrderItem) error
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
	FindBySessionID(ctx context.Context, sessionID string) ([]*models.Order, error)
	ListItems(ctx context.Context, orderID string) ([]*models.OrderItem, error)
	ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error)
	ListBySeller(ctx context.Context, sellerID string, page, limit int) ([]*models.Order, int, error)
	UpdateStatus(ctx context.Context, orderID, status string) error
}

// Repository implements RepositoryInterface over PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const orderColumns = `id, customer_id, seller_id, order_type, total_amount, status, payment_status,
	payment_method, checkout_session_id, shipping_address, billing_address, notes, created_at, updated_at`

// CreateOrder inserts an order. A duplicate (checkout_session_id, seller_id)
// pair maps to ErrConflict so the materializer can treat it as already done.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, customer_id, seller_id, order_type, total_amount, status, payment_status,
			payment_method, checkout_session_id, shipping_address, billing_address, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		order.ID, order.CustomerID, order.SellerID, order.OrderType, order.TotalAmount,
		order.Status, order.PaymentStatus, order.PaymentMethod, order.CheckoutSessionID,
		order.ShippingAddress, order.BillingAddress, order.Notes).
		Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.ErrConflict
		}
		return fmt.Errorf("repository.CreateOrder: %w", err)
	}
	return nil
}

func (r *Repository) AddOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, crop_listing_id, name, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`
	err := r.db.QueryRow(ctx, query,
		item.ID, item.OrderID, item.ProductID, item.CropListingID, item.Name,
		item.Quantity, item.UnitPrice, item.TotalPrice).
		Scan(&item.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository.AddOrderItem: %w", err)
	}
	return nil
}

func (r *Repository) scanOrder(row pgx.Row) (*models.Order, error) {
	var o models.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.SellerID, &o.OrderType, &o.TotalAmount,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.CheckoutSessionID,
		&o.ShippingAddress, &o.BillingAddress, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	return &o, nil
}

func (r *Repository) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)
	return r.scanOrder(r.db.QueryRow(ctx, query, orderID))
}

// FindBySessionID returns every order materialized from one checkout session
// (one per seller).
func (r *Repository) FindBySessionID(ctx context.Context, sessionID string) ([]*models.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE checkout_session_id = $1 ORDER BY created_at`, orderColumns)
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("repository.FindBySessionID: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.FindBySessionID: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *Repository) ListItems(ctx context.Context, orderID string) ([]*models.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, crop_listing_id, name, quantity, unit_price, total_price, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListItems: %w", err)
	}
	defer rows.Close()

	var items []*models.OrderItem
	for rows.Next() {
		var it models.OrderItem
		err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.CropListingID, &it.Name,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.ListItems.Scan: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *Repository) listByColumn(ctx context.Context, column, id string, page, limit int) ([]*models.Order, int, error) {
	offset := (page - 1) * limit
	query := fmt.Sprintf(`
		SELECT %s FROM orders
		WHERE %s = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, orderColumns, column)

	rows, err := r.db.Query(ctx, query, id, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.listByColumn.Query: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.listByColumn.Scan: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM orders WHERE %s = $1`, column)
	if err := r.db.QueryRow(ctx, countQuery, id).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.listByColumn.Count: %w", err)
	}
	return orders, total, nil
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error) {
	return r.listByColumn(ctx, "customer_id", customerID, page, limit)
}

func (r *Repository) ListBySeller(ctx context.Context, sellerID string, page, limit int) ([]*models.Order, int, error) {
	return r.listByColumn(ctx, "seller_id", sellerID, page, limit)
}

func (r *Repository) UpdateStatus(ctx context.Context, orderID, status string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, orderID, status)
	if err != nil {
		return fmt.Errorf("repository.UpdateStatus: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
