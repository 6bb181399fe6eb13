package delivery

import (
	"context"
	"testing"
	"time"

	"farmcon/internal/models"
	"farmcon/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	delivery   *models.Delivery
	findErr    error
	updates    []DeliveryUpdateData
	locations  []*models.DeliveryLocation
	milestones []*models.DeliveryMilestone
	positions  []string // driver ids whose position was refreshed
	customerID string
	latest     []*models.DeliveryLocation
	lastSince  *time.Time
	lastLimit  int
}

func (m *mockRepo) CreateDelivery(ctx context.Context, d *models.Delivery) error {
	m.delivery = d
	return nil
}
func (m *mockRepo) FindByID(ctx context.Context, deliveryID string) (*models.Delivery, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	d := *m.delivery
	return &d, nil
}
func (m *mockRepo) FindByOrderID(ctx context.Context, orderID string) (*models.Delivery, error) {
	return m.delivery, nil
}
func (m *mockRepo) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Delivery, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.delivery, nil
}
func (m *mockRepo) ListByDriver(ctx context.Context, driverID string, page, limit int) ([]*models.Delivery, int, error) {
	return []*models.Delivery{m.delivery}, 1, nil
}
func (m *mockRepo) Update(ctx context.Context, deliveryID string, data DeliveryUpdateData) error {
	m.updates = append(m.updates, data)
	if data.Status != nil {
		m.delivery.Status = *data.Status
	}
	return nil
}
func (m *mockRepo) AddLocation(ctx context.Context, loc *models.DeliveryLocation) error {
	loc.RecordedAt = time.Now()
	m.locations = append(m.locations, loc)
	return nil
}
func (m *mockRepo) ListLocations(ctx context.Context, deliveryID string, limit int, since *time.Time) ([]*models.DeliveryLocation, error) {
	m.lastLimit = limit
	m.lastSince = since
	return m.latest, nil
}
func (m *mockRepo) AddMilestone(ctx context.Context, ms *models.DeliveryMilestone) error {
	ms.CompletedAt = time.Now()
	m.milestones = append(m.milestones, ms)
	return nil
}
func (m *mockRepo) ListMilestones(ctx context.Context, deliveryID string) ([]*models.DeliveryMilestone, error) {
	return m.milestones, nil
}
func (m *mockRepo) UpdateDriverPosition(ctx context.Context, driverID string, lat, lng float64, at time.Time) error {
	m.positions = append(m.positions, driverID)
	return nil
}
func (m *mockRepo) FindCustomerForDelivery(ctx context.Context, deliveryID string) (string, error) {
	return m.customerID, nil
}

type mockOrders struct {
	order *models.Order
}

func (m *mockOrders) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	if m.order == nil {
		return nil, models.ErrNotFound
	}
	return m.order, nil
}

type mockDeliveryNotifier struct {
	updates []models.DeliveryStatus
}

func (m *mockDeliveryNotifier) NotifyDeliveryUpdate(customerID string, d *models.Delivery) {
	m.updates = append(m.updates, d.Status)
}

type mockHub struct {
	events []realtime.Event
}

func (m *mockHub) Publish(userID string, ev realtime.Event) {
	m.events = append(m.events, ev)
}

func strPtr(s string) *string { return &s }

func activeDelivery(status models.DeliveryStatus, driverID *string) *models.Delivery {
	return &models.Delivery{
		ID:             "del-1",
		OrderID:        "order-1",
		DriverID:       driverID,
		Status:         status,
		TrackingNumber: "FC-20260828-A1B2C3",
	}
}

func newTestService(repo *mockRepo) (*Service, *mockDeliveryNotifier, *mockHub) {
	orders := &mockOrders{order: &models.Order{ID: "order-1", SellerID: "seller-1"}}
	notifier := &mockDeliveryNotifier{}
	hub := &mockHub{}
	return NewService(repo, orders, notifier, hub), notifier, hub
}

func TestCreate_StartsPendingWithTrackingNumberAndMilestone(t *testing.T) {
	repo := &mockRepo{customerID: "cust-1"}
	svc, _, _ := newTestService(repo)

	d, err := svc.Create(context.Background(), "seller-1", models.RoleFarmer, models.CreateDeliveryRequest{
		OrderID:         "order-1",
		PickupAddress:   "Farm Gate 4",
		DeliveryAddress: "12 Market Road",
	})

	require.NoError(t, err)
	assert.Equal(t, models.DeliveryPending, d.Status)
	assert.Regexp(t, `^FC-\d{8}-[0-9A-F]{6}$`, d.TrackingNumber)
	require.Len(t, repo.milestones, 1)
	assert.Equal(t, models.DeliveryPending, repo.milestones[0].Milestone)
}

func TestCreate_WithDriverStartsAssigned(t *testing.T) {
	repo := &mockRepo{customerID: "cust-1"}
	svc, _, _ := newTestService(repo)

	d, err := svc.Create(context.Background(), "seller-1", models.RoleFarmer, models.CreateDeliveryRequest{
		OrderID:  "order-1",
		DriverID: strPtr("driver-1"),
	})

	require.NoError(t, err)
	assert.Equal(t, models.DeliveryAssigned, d.Status)
}

// A seller cannot register the delivery for another seller's order; the
// order simply looks absent. Admins may create it for anyone.
func TestCreate_ForeignOrderLooksAbsent(t *testing.T) {
	repo := &mockRepo{customerID: "cust-1"}
	svc, _, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), "seller-2", models.RoleSupplier, models.CreateDeliveryRequest{
		OrderID: "order-1",
	})

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Nil(t, repo.delivery, "no delivery row may be created for a foreign order")

	_, err = svc.Create(context.Background(), "admin-1", models.RoleAdmin, models.CreateDeliveryRequest{
		OrderID: "order-1",
	})
	assert.NoError(t, err)
}

func TestUpdateStatus_ValidTransitionRecordsOneMilestone(t *testing.T) {
	repo := &mockRepo{
		delivery:   activeDelivery(models.DeliveryPickedUp, strPtr("driver-1")),
		customerID: "cust-1",
	}
	svc, notifier, _ := newTestService(repo)

	d, err := svc.UpdateStatus(context.Background(), "del-1", "driver-1",
		models.UpdateDeliveryStatusRequest{Status: models.DeliveryInTransit})

	require.NoError(t, err)
	assert.Equal(t, models.DeliveryInTransit, d.Status)
	require.Len(t, repo.milestones, 1)
	assert.Equal(t, models.DeliveryInTransit, repo.milestones[0].Milestone)
	assert.Equal(t, []models.DeliveryStatus{models.DeliveryInTransit}, notifier.updates)
}

func TestUpdateStatus_SameStatusIsNoOp(t *testing.T) {
	repo := &mockRepo{
		delivery:   activeDelivery(models.DeliveryInTransit, strPtr("driver-1")),
		customerID: "cust-1",
	}
	svc, notifier, _ := newTestService(repo)

	d, err := svc.UpdateStatus(context.Background(), "del-1", "driver-1",
		models.UpdateDeliveryStatusRequest{Status: models.DeliveryInTransit})

	require.NoError(t, err)
	assert.Equal(t, models.DeliveryInTransit, d.Status)
	assert.Empty(t, repo.updates, "retried status must not write")
	assert.Empty(t, repo.milestones, "retried status must not duplicate milestones")
	assert.Empty(t, notifier.updates)
}

func TestUpdateStatus_InvalidTransitionRejected(t *testing.T) {
	repo := &mockRepo{
		delivery:   activeDelivery(models.DeliveryPending, strPtr("driver-1")),
		customerID: "cust-1",
	}
	svc, _, _ := newTestService(repo)

	_, err := svc.UpdateStatus(context.Background(), "del-1", "driver-1",
		models.UpdateDeliveryStatusRequest{Status: models.DeliveryDelivered})

	assert.ErrorIs(t, err, models.ErrInvalidStatusTransition)
	assert.Empty(t, repo.updates)
	assert.Empty(t, repo.milestones)
}

func TestUpdateStatus_WrongDriverGetsNotFound(t *testing.T) {
	repo := &mockRepo{
		delivery:   activeDelivery(models.DeliveryInTransit, strPtr("driver-1")),
		customerID: "cust-1",
	}
	svc, _, _ := newTestService(repo)

	_, err := svc.UpdateStatus(context.Background(), "del-1", "driver-2",
		models.UpdateDeliveryStatusRequest{Status: models.DeliveryDelivered})

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateStatus_DeliveredStampsActualDelivery(t *testing.T) {
	repo := &mockRepo{
		delivery:   activeDelivery(models.DeliveryOutForDelivery, strPtr("driver-1")),
		customerID: "cust-1",
	}
	svc, _, _ := newTestService(repo)

	d, err := svc.UpdateStatus(context.Background(), "del-1", "driver-1",
		models.UpdateDeliveryStatusRequest{Status: models.DeliveryDelivered})

	require.NoError(t, err)
	require.NotNil(t, d.ActualDelivery)
	assert.WithinDuration(t, time.Now(), *d.ActualDelivery, 5*time.Second)
}

func TestRecordLocation_AppendsAndPublishes(t *testing.T) {
	repo := &mockRepo{
		delivery:   activeDelivery(models.DeliveryInTransit, strPtr("driver-1")),
		customerID: "cust-1",
	}
	svc, _, hub := newTestService(repo)

	loc, err := svc.RecordLocation(context.Background(), "del-1", "driver-1",
		models.RecordLocationRequest{Latitude: 18.52, Longitude: 73.85})

	require.NoError(t, err)
	assert.Equal(t, 18.52, loc.Latitude)
	require.Len(t, repo.locations, 1)
	assert.Equal(t, []string{"driver-1"}, repo.positions)
	require.Len(t, hub.events, 1)
	assert.Equal(t, realtime.EventLocationUpdate, hub.events[0].Type)
}

func TestRecordLocation_AutoAdvancesToInTransit(t *testing.T) {
	for _, from := range []models.DeliveryStatus{models.DeliveryAssigned, models.DeliveryPickedUp} {
		t.Run(string(from), func(t *testing.T) {
			repo := &mockRepo{
				delivery:   activeDelivery(from, strPtr("driver-1")),
				customerID: "cust-1",
			}
			svc, notifier, _ := newTestService(repo)

			_, err := svc.RecordLocation(context.Background(), "del-1", "driver-1",
				models.RecordLocationRequest{Latitude: 18.52, Longitude: 73.85})

			require.NoError(t, err)
			assert.Equal(t, models.DeliveryInTransit, repo.delivery.Status)
			require.Len(t, repo.milestones, 1)
			assert.Equal(t, models.DeliveryInTransit, repo.milestones[0].Milestone)
			assert.Equal(t, []models.DeliveryStatus{models.DeliveryInTransit}, notifier.updates)
		})
	}
}

func TestRecordLocation_InTransitDoesNotReAdvance(t *testing.T) {
	repo := &mockRepo{
		delivery:   activeDelivery(models.DeliveryInTransit, strPtr("driver-1")),
		customerID: "cust-1",
	}
	svc, notifier, _ := newTestService(repo)

	_, err := svc.RecordLocation(context.Background(), "del-1", "driver-1",
		models.RecordLocationRequest{Latitude: 18.52, Longitude: 73.85})

	require.NoError(t, err)
	assert.Empty(t, repo.updates)
	assert.Empty(t, repo.milestones)
	assert.Empty(t, notifier.updates)
}

func TestRecordLocation_TerminalDeliveryRejected(t *testing.T) {
	repo := &mockRepo{
		delivery:   activeDelivery(models.DeliveryDelivered, strPtr("driver-1")),
		customerID: "cust-1",
	}
	svc, _, _ := newTestService(repo)

	_, err := svc.RecordLocation(context.Background(), "del-1", "driver-1",
		models.RecordLocationRequest{Latitude: 18.52, Longitude: 73.85})

	assert.ErrorIs(t, err, models.ErrInvalidStatusTransition)
	assert.Empty(t, repo.locations)
}

func TestRecordLocation_UnassignedDriverRejected(t *testing.T) {
	repo := &mockRepo{
		delivery:   activeDelivery(models.DeliveryPending, nil),
		customerID: "cust-1",
	}
	svc, _, _ := newTestService(repo)

	_, err := svc.RecordLocation(context.Background(), "del-1", "driver-1",
		models.RecordLocationRequest{Latitude: 18.52, Longitude: 73.85})

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAssignDriver_PendingOnly(t *testing.T) {
	repo := &mockRepo{
		delivery:   activeDelivery(models.DeliveryPending, nil),
		customerID: "cust-1",
	}
	svc, notifier, _ := newTestService(repo)

	d, err := svc.AssignDriver(context.Background(), "del-1", "driver-1")

	require.NoError(t, err)
	assert.Equal(t, models.DeliveryAssigned, d.Status)
	require.NotNil(t, d.DriverID)
	assert.Equal(t, "driver-1", *d.DriverID)
	require.Len(t, repo.milestones, 1)
	assert.Equal(t, []models.DeliveryStatus{models.DeliveryAssigned}, notifier.updates)

	// A second assignment attempt must be rejected.
	_, err = svc.AssignDriver(context.Background(), "del-1", "driver-2")
	assert.ErrorIs(t, err, models.ErrInvalidStatusTransition)
}

func TestTrack_ReturnsDeliveryWithHistory(t *testing.T) {
	repo := &mockRepo{
		delivery: activeDelivery(models.DeliveryInTransit, strPtr("driver-1")),
		milestones: []*models.DeliveryMilestone{
			{Milestone: models.DeliveryPending},
			{Milestone: models.DeliveryAssigned},
			{Milestone: models.DeliveryInTransit},
		},
		latest: []*models.DeliveryLocation{
			{Latitude: 18.52, Longitude: 73.85},
		},
		customerID: "cust-1",
	}
	svc, _, _ := newTestService(repo)

	view, err := svc.Track(context.Background(), "FC-20260828-A1B2C3")

	require.NoError(t, err)
	assert.Equal(t, "del-1", view.Delivery.ID)
	assert.Len(t, view.Milestones, 3)
	assert.Len(t, view.Locations, 1)
}

// The since bound is forwarded untouched; the repository query treats it
// inclusively so a poller passing its last-seen timestamp misses nothing.
func TestListLocations_ForwardsSinceAndClampsLimit(t *testing.T) {
	repo := &mockRepo{
		delivery:   activeDelivery(models.DeliveryInTransit, strPtr("driver-1")),
		customerID: "cust-1",
	}
	svc, _, _ := newTestService(repo)
	since := time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC)

	_, err := svc.ListLocations(context.Background(), "del-1", 500, &since)

	require.NoError(t, err)
	require.NotNil(t, repo.lastSince)
	assert.True(t, repo.lastSince.Equal(since))
	assert.Equal(t, 50, repo.lastLimit, "out-of-range limits fall back to the default")
}

func TestTrack_UnknownNumber(t *testing.T) {
	repo := &mockRepo{findErr: models.ErrNotFound}
	svc, _, _ := newTestService(repo)

	_, err := svc.Track(context.Background(), "FC-00000000-FFFFFF")

	assert.ErrorIs(t, err, models.ErrNotFound)
}
