package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"farmcon/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// RepositoryInterface defines the contract for the user repository.
type RepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, userID string) (*models.User, error)
	Update(ctx context.Context, userID string, data models.UserUpdateData) (*models.User, error)
	CreateOAuthUser(ctx context.Context, user *models.User) error
	CreateDriverProfile(ctx context.Context, driver *models.Driver) error
}

// Repository implements RepositoryInterface over PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) RepositoryInterface {
	return &Repository{db: db}
}

const userColumns = `id, name, email, password_hash, role, avatar_url, auth_provider, auth_provider_id,
	is_active, created_at, updated_at`

// Create inserts a local-auth user. A taken email maps to ErrConflict.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, auth_provider, is_active)
		VALUES ($1, $2, $3, $4, $5, 'local', TRUE)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.ErrConflict
		}
		return fmt.Errorf("repository.Create: %w", err)
	}
	return nil
}

// CreateOAuthUser inserts a user provisioned from an OAuth callback; no
// password hash is stored.
func (r *Repository) CreateOAuthUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, role, avatar_url, auth_provider, auth_provider_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		user.ID, user.Name, user.Email, user.Role, user.AvatarURL,
		user.AuthProvider, user.AuthProviderID).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.ErrConflict
		}
		return fmt.Errorf("repository.CreateOAuthUser: %w", err)
	}
	return nil
}

// CreateDriverProfile inserts the fulfilment-side profile for a user with the
// driver role. The row is what location pings later refresh with the driver's
// denormalized position.
func (r *Repository) CreateDriverProfile(ctx context.Context, driver *models.Driver) error {
	query := `
		INSERT INTO drivers (id, user_id, phone, vehicle_type, vehicle_number, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		driver.ID, driver.UserID, driver.Phone, driver.VehicleType, driver.VehicleNumber).
		Scan(&driver.CreatedAt, &driver.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.ErrConflict
		}
		return fmt.Errorf("repository.CreateDriverProfile: %w", err)
	}
	driver.IsActive = true
	return nil
}

func (r *Repository) scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.AvatarURL,
		&u.AuthProvider, &u.AuthProviderID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	return r.scanUser(r.db.QueryRow(ctx, query, email))
}

func (r *Repository) FindByID(ctx context.Context, userID string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.scanUser(r.db.QueryRow(ctx, query, userID))
}

// Update changes only the non-nil fields of data and returns the fresh row.
func (r *Repository) Update(ctx context.Context, userID string, data models.UserUpdateData) (*models.User, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{userID}
	argID := 2

	if data.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argID))
		args = append(args, *data.Name)
		argID++
	}
	if data.AvatarURL != nil {
		setClauses = append(setClauses, fmt.Sprintf("avatar_url = $%d", argID))
		args = append(args, *data.AvatarURL)
		argID++
	}

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(setClauses, ", "), userColumns)
	return r.scanUser(r.db.QueryRow(ctx, query, args...))
}
