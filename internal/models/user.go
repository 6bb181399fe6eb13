package models

import "time"

// Roles a FarmCon account can hold. Sellers are farmers or suppliers;
// consumers buy; drivers fulfil deliveries.
const (
	RoleFarmer   = "farmer"
	RoleSupplier = "supplier"
	RoleConsumer = "consumer"
	RoleDriver   = "driver"
	RoleAdmin    = "admin"
)

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           string    `json:"role"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	AuthProvider   string    `json:"auth_provider"`
	AuthProviderID string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SignupRequest registers a local-auth account. The vehicle fields only
// matter for the driver role and seed the driver profile.
type SignupRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	Role          string `json:"role" validate:"required,oneof=farmer supplier consumer driver"`
	Phone         string `json:"phone,omitempty" validate:"omitempty,max=20"`
	VehicleType   string `json:"vehicle_type,omitempty" validate:"omitempty,max=50"`
	VehicleNumber string `json:"vehicle_number,omitempty" validate:"omitempty,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// UserUpdateData defines the profile fields a user may change.
type UserUpdateData struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// Driver carries the fulfilment-side profile of a user with the driver role.
// CurrentLatitude/Longitude is a denormalized cache of the most recent
// delivery location ping for deliveries assigned to this driver.
type Driver struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	Phone              string     `json:"phone"`
	VehicleType        string     `json:"vehicle_type"`
	VehicleNumber      string     `json:"vehicle_number"`
	CurrentLatitude    *float64   `json:"current_latitude,omitempty"`
	CurrentLongitude   *float64   `json:"current_longitude,omitempty"`
	LastLocationUpdate *time.Time `json:"last_location_update,omitempty"`
	IsActive           bool       `json:"is_active"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
