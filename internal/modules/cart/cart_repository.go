package cart

import (
	"context"
	"errors"
	"fmt"

	"farmcon/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the cart repository.
type RepositoryInterface interface {
	ListByUser(ctx context.Context, userID string) ([]models.CartItemDetail, error)
	Upsert(ctx context.Context, item *models.CartItem) error
	UpdateQuantity(ctx context.Context, itemID, userID string, quantity int) error
	Remove(ctx context.Context, itemID, userID string) error
	Clear(ctx context.Context, userID string) error
}

// Repository implements RepositoryInterface over PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

// ListByUser returns the user's cart with product/listing details joined in,
// including the resolved seller id used for checkout partitioning.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]models.CartItemDetail, error) {
	query := `
		SELECT ci.id, ci.user_id, ci.product_id, ci.crop_listing_id, ci.quantity, ci.created_at,
		       COALESCE(p.name, c.name, '') AS name,
		       COALESCE(p.description, cl.description, '') AS description,
		       COALESCE(p.image_urls[1], cl.image_urls[1], '') AS image_url,
		       COALESCE(p.unit_price, cl.unit_price, 0) AS unit_price,
		       COALESCE(cl.unit, '') AS unit,
		       COALESCE(p.supplier_id, cl.farmer_id) AS seller_id
		FROM cart_items ci
		LEFT JOIN products p ON p.id = ci.product_id
		LEFT JOIN crop_listings cl ON cl.id = ci.crop_listing_id
		LEFT JOIN crops c ON c.id = cl.crop_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListByUser: %w", err)
	}
	defer rows.Close()

	items := []models.CartItemDetail{}
	for rows.Next() {
		var d models.CartItemDetail
		err := rows.Scan(&d.ID, &d.UserID, &d.ProductID, &d.CropListingID, &d.Quantity, &d.CreatedAt,
			&d.Name, &d.Description, &d.ImageURL, &d.UnitPrice, &d.Unit, &d.SellerID)
		if err != nil {
			return nil, fmt.Errorf("repository.ListByUser.Scan: %w", err)
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// Upsert inserts a cart item, or adds to the quantity of the existing row
// for the same (user, product) or (user, listing) pair.
func (r *Repository) Upsert(ctx context.Context, item *models.CartItem) error {
	var query string
	var ref *string
	switch {
	case item.ProductID != nil:
		query = `
			INSERT INTO cart_items (id, user_id, product_id, quantity)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
			RETURNING id, quantity, created_at`
		ref = item.ProductID
	case item.CropListingID != nil:
		query = `
			INSERT INTO cart_items (id, user_id, crop_listing_id, quantity)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, crop_listing_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
			RETURNING id, quantity, created_at`
		ref = item.CropListingID
	default:
		return models.ErrInvalidItemReference
	}

	err := r.db.QueryRow(ctx, query, item.ID, item.UserID, *ref, item.Quantity).
		Scan(&item.ID, &item.Quantity, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("repository.Upsert: %w", err)
	}
	return nil
}

func (r *Repository) UpdateQuantity(ctx context.Context, itemID, userID string, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $3
		WHERE id = $1 AND user_id = $2`
	cmdTag, err := r.db.Exec(ctx, query, itemID, userID, quantity)
	if err != nil {
		return fmt.Errorf("repository.UpdateQuantity: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, itemID, userID string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND user_id = $2`, itemID, userID)
	if err != nil {
		return fmt.Errorf("repository.Remove: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Clear deletes every cart item for the user. Clearing an already-empty
// cart is not an error.
func (r *Repository) Clear(ctx context.Context, userID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("repository.Clear: %w", err)
	}
	return nil
}
