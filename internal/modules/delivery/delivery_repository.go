package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"farmcon/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// DeliveryUpdateData carries the optional fields a status update may touch.
// Nil fields are left untouched.
type DeliveryUpdateData struct {
	Status         *models.DeliveryStatus
	DriverID       *string
	Notes          *string
	ActualPickup   *time.Time
	ActualDelivery *time.Time
}

// RepositoryInterface defines the contract for the delivery repository.
type RepositoryInterface interface {
	CreateDelivery(ctx context.Context, d *models.Delivery) error
	FindByID(ctx context.Context, deliveryID string) (*models.Delivery, error)
	FindByOrderID(ctx context.Context, orderID string) (*models.Delivery, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Delivery, error)
	ListByDriver(ctx context.Context, driverID string, page, limit int) ([]*models.Delivery, int, error)
	Update(ctx context.Context, deliveryID string, data DeliveryUpdateData) error
	AddLocation(ctx context.Context, loc *models.DeliveryLocation) error
	ListLocations(ctx context.Context, deliveryID string, limit int, since *time.Time) ([]*models.DeliveryLocation, error)
	AddMilestone(ctx context.Context, m *models.DeliveryMilestone) error
	ListMilestones(ctx context.Context, deliveryID string) ([]*models.DeliveryMilestone, error)
	UpdateDriverPosition(ctx context.Context, driverID string, lat, lng float64, at time.Time) error
	FindCustomerForDelivery(ctx context.Context, deliveryID string) (string, error)
}

// Repository implements RepositoryInterface over PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const deliveryColumns = `id, order_id, driver_id, status, pickup_latitude, pickup_longitude, pickup_address,
	delivery_latitude, delivery_longitude, delivery_address, estimated_pickup, estimated_delivery,
	actual_pickup, actual_delivery, distance_km, tracking_number, notes, created_at, updated_at`

// CreateDelivery inserts a delivery. A second delivery for the same order
// violates the unique order_id constraint and maps to ErrConflict.
func (r *Repository) CreateDelivery(ctx context.Context, d *models.Delivery) error {
	query := `
		INSERT INTO deliveries (id, order_id, driver_id, status, pickup_latitude, pickup_longitude,
			pickup_address, delivery_latitude, delivery_longitude, delivery_address,
			estimated_pickup, estimated_delivery, distance_km, tracking_number, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		d.ID, d.OrderID, d.DriverID, d.Status, d.PickupLatitude, d.PickupLongitude,
		d.PickupAddress, d.DeliveryLatitude, d.DeliveryLongitude, d.DeliveryAddress,
		d.EstimatedPickup, d.EstimatedDelivery, d.DistanceKm, d.TrackingNumber, d.Notes).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.ErrConflict
		}
		return fmt.Errorf("repository.CreateDelivery: %w", err)
	}
	return nil
}

func (r *Repository) scanDelivery(row pgx.Row) (*models.Delivery, error) {
	var d models.Delivery
	err := row.Scan(&d.ID, &d.OrderID, &d.DriverID, &d.Status,
		&d.PickupLatitude, &d.PickupLongitude, &d.PickupAddress,
		&d.DeliveryLatitude, &d.DeliveryLongitude, &d.DeliveryAddress,
		&d.EstimatedPickup, &d.EstimatedDelivery, &d.ActualPickup, &d.ActualDelivery,
		&d.DistanceKm, &d.TrackingNumber, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan delivery: %w", err)
	}
	return &d, nil
}

func (r *Repository) findByColumn(ctx context.Context, column, value string) (*models.Delivery, error) {
	query := fmt.Sprintf(`SELECT %s FROM deliveries WHERE %s = $1`, deliveryColumns, column)
	return r.scanDelivery(r.db.QueryRow(ctx, query, value))
}

func (r *Repository) FindByID(ctx context.Context, deliveryID string) (*models.Delivery, error) {
	return r.findByColumn(ctx, "id", deliveryID)
}

func (r *Repository) FindByOrderID(ctx context.Context, orderID string) (*models.Delivery, error) {
	return r.findByColumn(ctx, "order_id", orderID)
}

func (r *Repository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Delivery, error) {
	return r.findByColumn(ctx, "tracking_number", trackingNumber)
}

func (r *Repository) ListByDriver(ctx context.Context, driverID string, page, limit int) ([]*models.Delivery, int, error) {
	offset := (page - 1) * limit
	query := fmt.Sprintf(`
		SELECT %s FROM deliveries
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, deliveryColumns)
	rows, err := r.db.Query(ctx, query, driverID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("repository.ListByDriver.Query: %w", err)
	}
	defer rows.Close()

	var deliveries []*models.Delivery
	for rows.Next() {
		d, err := r.scanDelivery(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository.ListByDriver.Scan: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM deliveries WHERE driver_id = $1`, driverID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository.ListByDriver.Count: %w", err)
	}
	return deliveries, total, nil
}

// Update builds the SET clause from the non-nil fields of data.
func (r *Repository) Update(ctx context.Context, deliveryID string, data DeliveryUpdateData) error {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{deliveryID}
	argID := 2

	addClause := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}

	if data.Status != nil {
		addClause("status", *data.Status)
	}
	if data.DriverID != nil {
		addClause("driver_id", *data.DriverID)
	}
	if data.Notes != nil {
		addClause("notes", *data.Notes)
	}
	if data.ActualPickup != nil {
		addClause("actual_pickup", *data.ActualPickup)
	}
	if data.ActualDelivery != nil {
		addClause("actual_delivery", *data.ActualDelivery)
	}

	query := fmt.Sprintf(`UPDATE deliveries SET %s WHERE id = $1`, strings.Join(setClauses, ", "))
	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("repository.Update: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) AddLocation(ctx context.Context, loc *models.DeliveryLocation) error {
	query := `
		INSERT INTO delivery_locations (id, delivery_id, latitude, longitude, accuracy, speed, heading, address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING recorded_at`
	err := r.db.QueryRow(ctx, query,
		loc.ID, loc.DeliveryID, loc.Latitude, loc.Longitude,
		loc.Accuracy, loc.Speed, loc.Heading, loc.Address).
		Scan(&loc.RecordedAt)
	if err != nil {
		return fmt.Errorf("repository.AddLocation: %w", err)
	}
	return nil
}

// ListLocations returns pings newest first. A nil since returns the latest
// limit pings; otherwise only pings recorded at or after since. The bound is
// inclusive so pollers can pass their last-seen timestamp without losing a
// ping recorded exactly then.
func (r *Repository) ListLocations(ctx context.Context, deliveryID string, limit int, since *time.Time) ([]*models.DeliveryLocation, error) {
	query := `
		SELECT id, delivery_id, latitude, longitude, accuracy, speed, heading, address, recorded_at
		FROM delivery_locations
		WHERE delivery_id = $1 AND ($3::timestamptz IS NULL OR recorded_at >= $3)
		ORDER BY recorded_at DESC
		LIMIT $2`
	rows, err := r.db.Query(ctx, query, deliveryID, limit, since)
	if err != nil {
		return nil, fmt.Errorf("repository.ListLocations: %w", err)
	}
	defer rows.Close()

	var locations []*models.DeliveryLocation
	for rows.Next() {
		var loc models.DeliveryLocation
		err := rows.Scan(&loc.ID, &loc.DeliveryID, &loc.Latitude, &loc.Longitude,
			&loc.Accuracy, &loc.Speed, &loc.Heading, &loc.Address, &loc.RecordedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.ListLocations.Scan: %w", err)
		}
		locations = append(locations, &loc)
	}
	return locations, rows.Err()
}

func (r *Repository) AddMilestone(ctx context.Context, m *models.DeliveryMilestone) error {
	query := `
		INSERT INTO delivery_milestones (id, delivery_id, milestone, description, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING completed_at`
	err := r.db.QueryRow(ctx, query,
		m.ID, m.DeliveryID, m.Milestone, m.Description, m.Latitude, m.Longitude).
		Scan(&m.CompletedAt)
	if err != nil {
		return fmt.Errorf("repository.AddMilestone: %w", err)
	}
	return nil
}

func (r *Repository) ListMilestones(ctx context.Context, deliveryID string) ([]*models.DeliveryMilestone, error) {
	query := `
		SELECT id, delivery_id, milestone, description, latitude, longitude, completed_at
		FROM delivery_milestones
		WHERE delivery_id = $1
		ORDER BY completed_at`
	rows, err := r.db.Query(ctx, query, deliveryID)
	if err != nil {
		return nil, fmt.Errorf("repository.ListMilestones: %w", err)
	}
	defer rows.Close()

	var milestones []*models.DeliveryMilestone
	for rows.Next() {
		var m models.DeliveryMilestone
		err := rows.Scan(&m.ID, &m.DeliveryID, &m.Milestone, &m.Description,
			&m.Latitude, &m.Longitude, &m.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.ListMilestones.Scan: %w", err)
		}
		milestones = append(milestones, &m)
	}
	return milestones, rows.Err()
}

// UpdateDriverPosition refreshes the driver's denormalized last-known
// position used by dispatch views; the authoritative trail stays in
// delivery_locations.
func (r *Repository) UpdateDriverPosition(ctx context.Context, driverID string, lat, lng float64, at time.Time) error {
	cmdTag, err := r.db.Exec(ctx, `
		UPDATE drivers
		SET current_latitude = $2, current_longitude = $3, last_location_update = $4
		WHERE user_id = $1`, driverID, lat, lng, at)
	if err != nil {
		return fmt.Errorf("repository.UpdateDriverPosition: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// FindCustomerForDelivery resolves the customer who should receive tracking
// notifications for a delivery.
func (r *Repository) FindCustomerForDelivery(ctx context.Context, deliveryID string) (string, error) {
	var customerID string
	err := r.db.QueryRow(ctx, `
		SELECT o.customer_id
		FROM deliveries d
		JOIN orders o ON o.id = d.order_id
		WHERE d.id = $1`, deliveryID).Scan(&customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("repository.FindCustomerForDelivery: %w", err)
	}
	return customerID, nil
}
