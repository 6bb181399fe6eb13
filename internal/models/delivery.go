package models

import "time"

// DeliveryStatus is the explicit state machine for a delivery. Transitions
// are validated in the delivery module; cancelled and failed are absorbing.
type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "pending"
	DeliveryAssigned       DeliveryStatus = "assigned"
	DeliveryPickedUp       DeliveryStatus = "picked_up"
	DeliveryInTransit      DeliveryStatus = "in_transit"
	DeliveryOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryDelivered      DeliveryStatus = "delivered"
	DeliveryCancelled      DeliveryStatus = "cancelled"
	DeliveryFailed         DeliveryStatus = "failed"
)

// Delivery is the fulfilment record for an order; at most one per order.
type Delivery struct {
	ID                string         `json:"id"`
	OrderID           string         `json:"order_id"`
	DriverID          *string        `json:"driver_id,omitempty"`
	Status            DeliveryStatus `json:"status"`
	PickupLatitude    float64        `json:"pickup_latitude"`
	PickupLongitude   float64        `json:"pickup_longitude"`
	PickupAddress     string         `json:"pickup_address"`
	DeliveryLatitude  float64        `json:"delivery_latitude"`
	DeliveryLongitude float64        `json:"delivery_longitude"`
	DeliveryAddress   string         `json:"delivery_address"`
	EstimatedPickup   *time.Time     `json:"estimated_pickup,omitempty"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery,omitempty"`
	ActualPickup      *time.Time     `json:"actual_pickup,omitempty"`
	ActualDelivery    *time.Time     `json:"actual_delivery,omitempty"`
	DistanceKm        float64        `json:"distance_km"`
	TrackingNumber    string         `json:"tracking_number"`
	Notes             string         `json:"notes,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// DeliveryLocation is an append-only ping; rows are never mutated or deleted.
type DeliveryLocation struct {
	ID         string    `json:"id"`
	DeliveryID string    `json:"delivery_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Speed      *float64  `json:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	Address    string    `json:"address,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// DeliveryMilestone is an append-only event log entry, written exactly once
// per status change.
type DeliveryMilestone struct {
	ID          string         `json:"id"`
	DeliveryID  string         `json:"delivery_id"`
	Milestone   DeliveryStatus `json:"milestone"`
	Description string         `json:"description"`
	Latitude    *float64       `json:"latitude,omitempty"`
	Longitude   *float64       `json:"longitude,omitempty"`
	CompletedAt time.Time      `json:"completed_at"`
}

type CreateDeliveryRequest struct {
	OrderID           string     `json:"order_id" validate:"required,uuid4"`
	DriverID          *string    `json:"driver_id,omitempty" validate:"omitempty,uuid4"`
	PickupLatitude    float64    `json:"pickup_latitude" validate:"latitude"`
	PickupLongitude   float64    `json:"pickup_longitude" validate:"longitude"`
	PickupAddress     string     `json:"pickup_address" validate:"required"`
	DeliveryLatitude  float64    `json:"delivery_latitude" validate:"latitude"`
	DeliveryLongitude float64    `json:"delivery_longitude" validate:"longitude"`
	DeliveryAddress   string     `json:"delivery_address" validate:"required"`
	EstimatedPickup   *time.Time `json:"estimated_pickup,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	DistanceKm        float64    `json:"distance_km" validate:"gte=0"`
}

// Zero is a valid coordinate (the equator and the prime meridian exist), so
// latitude/longitude fields carry only range validation, never "required".
type RecordLocationRequest struct {
	Latitude  float64  `json:"latitude" validate:"latitude"`
	Longitude float64  `json:"longitude" validate:"longitude"`
	Accuracy  *float64 `json:"accuracy,omitempty" validate:"omitempty,gte=0"`
	Speed     *float64 `json:"speed,omitempty" validate:"omitempty,gte=0"`
	Heading   *float64 `json:"heading,omitempty" validate:"omitempty,gte=0,lt=360"`
	Address   string   `json:"address,omitempty"`
}

type UpdateDeliveryStatusRequest struct {
	Status         DeliveryStatus `json:"status" validate:"required,oneof=pending assigned picked_up in_transit out_for_delivery delivered cancelled failed"`
	Notes          *string        `json:"notes,omitempty"`
	ActualPickup   *time.Time     `json:"actual_pickup,omitempty"`
	ActualDelivery *time.Time     `json:"actual_delivery,omitempty"`
}

type AssignDriverRequest struct {
	DriverID string `json:"driver_id" validate:"required,uuid4"`
}
