package catalog

import (
	"context"
	"errors"
	"fmt"

	"farmcon/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryInterface defines the contract for the catalog repository.
type RepositoryInterface interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	FindProductByID(ctx context.Context, productID string) (*models.Product, error)
	ListProductsBySupplier(ctx context.Context, supplierID string, page, limit int) ([]*models.Product, error)
	DecrementProductStock(ctx context.Context, productID string, quantity int) error

	CreateCrop(ctx context.Context, c *models.Crop) error
	FindCropByID(ctx context.Context, cropID string) (*models.Crop, error)
	CreateListing(ctx context.Context, l *models.CropListing) error
	FindListingByID(ctx context.Context, listingID string) (*models.CropListing, error)
	ListListingsByFarmer(ctx context.Context, farmerID string, page, limit int) ([]*models.CropListing, error)
	DecrementListingQuantity(ctx context.Context, listingID string, quantity int) error
}

// Repository implements RepositoryInterface over PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

func (r *Repository) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (id, supplier_id, name, description, image_urls, unit_price, stock_quantity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		p.ID, p.SupplierID, p.Name, p.Description, p.ImageURLs, p.UnitPrice, p.StockQuantity).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.CreateProduct: %w", err)
	}
	p.IsActive = true
	return nil
}

func (r *Repository) scanProduct(row pgx.Row) (*models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.SupplierID, &p.Name, &p.Description, &p.ImageURLs,
		&p.UnitPrice, &p.StockQuantity, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return &p, nil
}

func (r *Repository) FindProductByID(ctx context.Context, productID string) (*models.Product, error) {
	query := `
		SELECT id, supplier_id, name, description, image_urls, unit_price, stock_quantity, is_active, created_at, updated_at
		FROM products
		WHERE id = $1`
	return r.scanProduct(r.db.QueryRow(ctx, query, productID))
}

func (r *Repository) ListProductsBySupplier(ctx context.Context, supplierID string, page, limit int) ([]*models.Product, error) {
	offset := (page - 1) * limit
	query := `
		SELECT id, supplier_id, name, description, image_urls, unit_price, stock_quantity, is_active, created_at, updated_at
		FROM products
		WHERE supplier_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, supplierID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("repository.ListProductsBySupplier: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := r.scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListProductsBySupplier: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// DecrementProductStock subtracts quantity from the product's stock, floored
// at zero. A single UPDATE keeps the decrement atomic under concurrency.
func (r *Repository) DecrementProductStock(ctx context.Context, productID string, quantity int) error {
	query := `
		UPDATE products
		SET stock_quantity = GREATEST(stock_quantity - $2, 0), updated_at = NOW()
		WHERE id = $1`
	cmdTag, err := r.db.Exec(ctx, query, productID, quantity)
	if err != nil {
		return fmt.Errorf("repository.DecrementProductStock: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) CreateCrop(ctx context.Context, c *models.Crop) error {
	query := `
		INSERT INTO crops (id, farmer_id, name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query, c.ID, c.FarmerID, c.Name, c.Status).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.CreateCrop: %w", err)
	}
	return nil
}

func (r *Repository) FindCropByID(ctx context.Context, cropID string) (*models.Crop, error) {
	query := `
		SELECT id, farmer_id, name, status, created_at, updated_at
		FROM crops
		WHERE id = $1`
	var c models.Crop
	err := r.db.QueryRow(ctx, query, cropID).
		Scan(&c.ID, &c.FarmerID, &c.Name, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindCropByID: %w", err)
	}
	return &c, nil
}

func (r *Repository) CreateListing(ctx context.Context, l *models.CropListing) error {
	query := `
		INSERT INTO crop_listings (id, crop_id, farmer_id, unit_price, quantity_available, unit, image_urls, description, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		l.ID, l.CropID, l.FarmerID, l.UnitPrice, l.QuantityAvailable, l.Unit, l.ImageURLs, l.Description).
		Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository.CreateListing: %w", err)
	}
	l.IsActive = true
	return nil
}

func (r *Repository) scanListing(row pgx.Row) (*models.CropListing, error) {
	var l models.CropListing
	err := row.Scan(&l.ID, &l.CropID, &l.FarmerID, &l.UnitPrice, &l.QuantityAvailable,
		&l.Unit, &l.ImageURLs, &l.Description, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan crop listing: %w", err)
	}
	return &l, nil
}

func (r *Repository) FindListingByID(ctx context.Context, listingID string) (*models.CropListing, error) {
	query := `
		SELECT id, crop_id, farmer_id, unit_price, quantity_available, unit, image_urls, description, is_active, created_at, updated_at
		FROM crop_listings
		WHERE id = $1`
	return r.scanListing(r.db.QueryRow(ctx, query, listingID))
}

func (r *Repository) ListListingsByFarmer(ctx context.Context, farmerID string, page, limit int) ([]*models.CropListing, error) {
	offset := (page - 1) * limit
	query := `
		SELECT id, crop_id, farmer_id, unit_price, quantity_available, unit, image_urls, description, is_active, created_at, updated_at
		FROM crop_listings
		WHERE farmer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, farmerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("repository.ListListingsByFarmer: %w", err)
	}
	defer rows.Close()

	var listings []*models.CropListing
	for rows.Next() {
		l, err := r.scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("repository.ListListingsByFarmer: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// DecrementListingQuantity subtracts quantity from a listing, floored at
// zero. A listing that reaches zero is deactivated and its parent crop is
// marked sold.
func (r *Repository) DecrementListingQuantity(ctx context.Context, listingID string, quantity int) error {
	query := `
		UPDATE crop_listings
		SET quantity_available = GREATEST(quantity_available - $2, 0), updated_at = NOW()
		WHERE id = $1
		RETURNING quantity_available, crop_id`
	var remaining int
	var cropID string
	err := r.db.QueryRow(ctx, query, listingID, quantity).Scan(&remaining, &cropID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		return fmt.Errorf("repository.DecrementListingQuantity: %w", err)
	}

	if remaining > 0 {
		return nil
	}

	if _, err := r.db.Exec(ctx,
		`UPDATE crop_listings SET is_active = false, updated_at = NOW() WHERE id = $1`, listingID); err != nil {
		return fmt.Errorf("repository.DecrementListingQuantity.deactivate: %w", err)
	}
	if _, err := r.db.Exec(ctx,
		`UPDATE crops SET status = $2, updated_at = NOW() WHERE id = $1`, cropID, models.CropStatusSold); err != nil {
		return fmt.Errorf("repository.DecrementListingQuantity.markSold: %w", err)
	}
	return nil
}
