package delivery

import (
	"context"
	"fmt"
	"log"
	"time"

	"farmcon/internal/models"
	"farmcon/internal/realtime"
	"farmcon/pkg/utils"

	"github.com/google/uuid"
)

// Notifier announces delivery progress to the customer; orders.Notifier
// satisfies it.
type Notifier interface {
	NotifyDeliveryUpdate(customerID string, delivery *models.Delivery)
}

// Publisher pushes realtime events; realtime.Hub satisfies it.
type Publisher interface {
	Publish(userID string, ev realtime.Event)
}

// OrderReader resolves the order a delivery fulfils; orders.Repository
// satisfies it.
type OrderReader interface {
	FindByID(ctx context.Context, orderID string) (*models.Order, error)
}

// TrackingView is the public tracking payload: the delivery plus its event
// log and the most recent position pings.
type TrackingView struct {
	Delivery   *models.Delivery            `json:"delivery"`
	Milestones []*models.DeliveryMilestone `json:"milestones"`
	Locations  []*models.DeliveryLocation  `json:"locations"`
}

// ServiceInterface defines the delivery business logic.
type ServiceInterface interface {
	Create(ctx context.Context, callerID, callerRole string, req models.CreateDeliveryRequest) (*models.Delivery, error)
	GetByID(ctx context.Context, deliveryID string) (*models.Delivery, error)
	Track(ctx context.Context, trackingNumber string) (*TrackingView, error)
	ListDriverDeliveries(ctx context.Context, driverID string, page, limit int) ([]*models.Delivery, int, error)
	AssignDriver(ctx context.Context, deliveryID, driverID string) (*models.Delivery, error)
	RecordLocation(ctx context.Context, deliveryID, driverID string, req models.RecordLocationRequest) (*models.DeliveryLocation, error)
	UpdateStatus(ctx context.Context, deliveryID, driverID string, req models.UpdateDeliveryStatusRequest) (*models.Delivery, error)
	ListLocations(ctx context.Context, deliveryID string, limit int, since *time.Time) ([]*models.DeliveryLocation, error)
}

type Service struct {
	repo     RepositoryInterface
	orders   OrderReader
	notifier Notifier
	hub      Publisher
}

func NewService(repo RepositoryInterface, orders OrderReader, notifier Notifier, hub Publisher) *Service {
	return &Service{repo: repo, orders: orders, notifier: notifier, hub: hub}
}

// Create registers the fulfilment record for an order. Only the order's
// seller (or an admin) may create it, and at most one delivery exists per
// order; a duplicate surfaces as ErrConflict. The initial status depends on
// whether a driver was supplied up front.
func (s *Service) Create(ctx context.Context, callerID, callerRole string, req models.CreateDeliveryRequest) (*models.Delivery, error) {
	order, err := s.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	// A foreign order looks absent rather than forbidden.
	if callerRole != models.RoleAdmin && order.SellerID != callerID {
		return nil, models.ErrNotFound
	}

	status := models.DeliveryPending
	if req.DriverID != nil {
		status = models.DeliveryAssigned
	}

	trackingNumber, err := utils.NewTrackingNumber(time.Now())
	if err != nil {
		return nil, fmt.Errorf("service.Create: %w", err)
	}

	d := &models.Delivery{
		ID:                uuid.NewString(),
		OrderID:           req.OrderID,
		DriverID:          req.DriverID,
		Status:            status,
		PickupLatitude:    req.PickupLatitude,
		PickupLongitude:   req.PickupLongitude,
		PickupAddress:     req.PickupAddress,
		DeliveryLatitude:  req.DeliveryLatitude,
		DeliveryLongitude: req.DeliveryLongitude,
		DeliveryAddress:   req.DeliveryAddress,
		EstimatedPickup:   req.EstimatedPickup,
		EstimatedDelivery: req.EstimatedDelivery,
		DistanceKm:        req.DistanceKm,
		TrackingNumber:    trackingNumber,
	}
	if err := s.repo.CreateDelivery(ctx, d); err != nil {
		return nil, err
	}

	s.recordMilestone(ctx, d.ID, status, nil, nil)
	return d, nil
}

func (s *Service) GetByID(ctx context.Context, deliveryID string) (*models.Delivery, error) {
	return s.repo.FindByID(ctx, deliveryID)
}

// Track is the public tracking-number lookup. It returns the last 20 pings
// alongside the full milestone log.
func (s *Service) Track(ctx context.Context, trackingNumber string) (*TrackingView, error) {
	d, err := s.repo.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}

	milestones, err := s.repo.ListMilestones(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("service.Track: %w", err)
	}
	locations, err := s.repo.ListLocations(ctx, d.ID, 20, nil)
	if err != nil {
		return nil, fmt.Errorf("service.Track: %w", err)
	}
	return &TrackingView{Delivery: d, Milestones: milestones, Locations: locations}, nil
}

func (s *Service) ListDriverDeliveries(ctx context.Context, driverID string, page, limit int) ([]*models.Delivery, int, error) {
	return s.repo.ListByDriver(ctx, driverID, page, limit)
}

// AssignDriver moves a pending delivery to assigned and pins the driver.
func (s *Service) AssignDriver(ctx context.Context, deliveryID, driverID string) (*models.Delivery, error) {
	d, err := s.repo.FindByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(d.Status, models.DeliveryAssigned); err != nil {
		return nil, err
	}

	status := models.DeliveryAssigned
	if err := s.repo.Update(ctx, deliveryID, DeliveryUpdateData{Status: &status, DriverID: &driverID}); err != nil {
		return nil, err
	}
	d.Status = status
	d.DriverID = &driverID

	s.recordMilestone(ctx, d.ID, status, nil, nil)
	s.notifyCustomer(ctx, d)
	return d, nil
}

// RecordLocation appends a position ping from the assigned driver. The first
// ping after assignment or pickup also advances the delivery to in_transit,
// so drivers who forget the explicit status tap still produce a live map.
func (s *Service) RecordLocation(ctx context.Context, deliveryID, driverID string, req models.RecordLocationRequest) (*models.DeliveryLocation, error) {
	d, err := s.repo.FindByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if d.DriverID == nil || *d.DriverID != driverID {
		return nil, models.ErrNotFound
	}
	if IsTerminal(d.Status) {
		return nil, fmt.Errorf("%w: %s to %s", models.ErrInvalidStatusTransition, d.Status, models.DeliveryInTransit)
	}

	loc := &models.DeliveryLocation{
		ID:         uuid.NewString(),
		DeliveryID: deliveryID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Accuracy:   req.Accuracy,
		Speed:      req.Speed,
		Heading:    req.Heading,
		Address:    req.Address,
	}
	if err := s.repo.AddLocation(ctx, loc); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateDriverPosition(ctx, driverID, req.Latitude, req.Longitude, loc.RecordedAt); err != nil {
		log.Printf("delivery: update driver position %s: %v", driverID, err)
	}

	if d.Status == models.DeliveryAssigned || d.Status == models.DeliveryPickedUp {
		status := models.DeliveryInTransit
		if err := s.repo.Update(ctx, deliveryID, DeliveryUpdateData{Status: &status}); err != nil {
			log.Printf("delivery: auto-advance %s to in_transit: %v", deliveryID, err)
		} else {
			d.Status = status
			s.recordMilestone(ctx, d.ID, status, &req.Latitude, &req.Longitude)
			s.notifyCustomer(ctx, d)
		}
	}

	if customerID, err := s.repo.FindCustomerForDelivery(ctx, deliveryID); err == nil {
		s.hub.Publish(customerID, realtime.Event{
			Type: realtime.EventLocationUpdate,
			Payload: map[string]interface{}{
				"delivery_id": deliveryID,
				"latitude":    req.Latitude,
				"longitude":   req.Longitude,
				"recorded_at": loc.RecordedAt,
			},
		})
	}
	return loc, nil
}

// UpdateStatus applies one validated transition. Repeating the current status
// is a no-op so retried requests do not duplicate milestones. Pickup and
// delivery timestamps are stamped automatically when the caller omits them.
func (s *Service) UpdateStatus(ctx context.Context, deliveryID, driverID string, req models.UpdateDeliveryStatusRequest) (*models.Delivery, error) {
	d, err := s.repo.FindByID(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if d.DriverID == nil || *d.DriverID != driverID {
		return nil, models.ErrNotFound
	}
	if d.Status == req.Status {
		return d, nil
	}
	if err := ValidateTransition(d.Status, req.Status); err != nil {
		return nil, err
	}

	now := time.Now()
	data := DeliveryUpdateData{
		Status:         &req.Status,
		Notes:          req.Notes,
		ActualPickup:   req.ActualPickup,
		ActualDelivery: req.ActualDelivery,
	}
	if req.Status == models.DeliveryPickedUp && data.ActualPickup == nil {
		data.ActualPickup = &now
	}
	if req.Status == models.DeliveryDelivered && data.ActualDelivery == nil {
		data.ActualDelivery = &now
	}
	if err := s.repo.Update(ctx, deliveryID, data); err != nil {
		return nil, err
	}
	d.Status = req.Status
	if data.ActualPickup != nil {
		d.ActualPickup = data.ActualPickup
	}
	if data.ActualDelivery != nil {
		d.ActualDelivery = data.ActualDelivery
	}
	if req.Notes != nil {
		d.Notes = *req.Notes
	}

	var lat, lng *float64
	if latest, err := s.repo.ListLocations(ctx, deliveryID, 1, nil); err == nil && len(latest) > 0 {
		lat, lng = &latest[0].Latitude, &latest[0].Longitude
	}
	s.recordMilestone(ctx, d.ID, req.Status, lat, lng)
	s.notifyCustomer(ctx, d)
	return d, nil
}

func (s *Service) ListLocations(ctx context.Context, deliveryID string, limit int, since *time.Time) ([]*models.DeliveryLocation, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListLocations(ctx, deliveryID, limit, since)
}

// recordMilestone appends to the event log; log-only on failure because the
// triggering state change has already committed.
func (s *Service) recordMilestone(ctx context.Context, deliveryID string, status models.DeliveryStatus, lat, lng *float64) {
	m := &models.DeliveryMilestone{
		ID:          uuid.NewString(),
		DeliveryID:  deliveryID,
		Milestone:   status,
		Description: MilestoneDescription(status),
		Latitude:    lat,
		Longitude:   lng,
	}
	if err := s.repo.AddMilestone(ctx, m); err != nil {
		log.Printf("delivery: record milestone %s for %s: %v", status, deliveryID, err)
	}
}

func (s *Service) notifyCustomer(ctx context.Context, d *models.Delivery) {
	customerID, err := s.repo.FindCustomerForDelivery(ctx, d.ID)
	if err != nil {
		log.Printf("delivery: resolve customer for %s: %v", d.ID, err)
		return
	}
	s.notifier.NotifyDeliveryUpdate(customerID, d)
}
