package checkout

import (
	"context"
	"errors"
	"testing"

	"farmcon/internal/models"
	"farmcon/internal/realtime"
	"farmcon/pkg/payments"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCartStore struct {
	items      []models.CartItemDetail
	itemsErr   error
	clearCalls int
}

func (m *mockCartStore) ItemsForCheckout(ctx context.Context, userID string) ([]models.CartItemDetail, error) {
	return m.items, m.itemsErr
}
func (m *mockCartStore) ClearCart(ctx context.Context, userID string) error {
	m.clearCalls++
	return nil
}

type mockOrderStore struct {
	createdOrders []*models.Order
	createErrFor  map[string]error // keyed by seller id
	addedItems    []*models.OrderItem
	addItemErrFor map[string]error // keyed by item name
	existing      []*models.Order
}

func (m *mockOrderStore) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := m.createErrFor[order.SellerID]; err != nil {
		return err
	}
	m.createdOrders = append(m.createdOrders, order)
	return nil
}
func (m *mockOrderStore) AddOrderItem(ctx context.Context, item *models.OrderItem) error {
	if err := m.addItemErrFor[item.Name]; err != nil {
		return err
	}
	m.addedItems = append(m.addedItems, item)
	return nil
}
func (m *mockOrderStore) FindBySessionID(ctx context.Context, sessionID string) ([]*models.Order, error) {
	return m.existing, nil
}

type mockCatalogStore struct {
	productDecrements map[string]int
	listingDecrements map[string]int
	productErrFor     map[string]error
}

func (m *mockCatalogStore) DecrementProductStock(ctx context.Context, productID string, quantity int) error {
	if err := m.productErrFor[productID]; err != nil {
		return err
	}
	if m.productDecrements == nil {
		m.productDecrements = map[string]int{}
	}
	m.productDecrements[productID] += quantity
	return nil
}
func (m *mockCatalogStore) DecrementListingQuantity(ctx context.Context, listingID string, quantity int) error {
	if m.listingDecrements == nil {
		m.listingDecrements = map[string]int{}
	}
	m.listingDecrements[listingID] += quantity
	return nil
}

type mockNotifier struct {
	notified []string // seller ids
}

func (m *mockNotifier) NotifySellerOrder(order *models.Order, itemCount int) {
	m.notified = append(m.notified, order.SellerID)
}

type mockPublisher struct {
	events []realtime.Event
}

func (m *mockPublisher) Publish(userID string, ev realtime.Event) {
	m.events = append(m.events, ev)
}

type mockAnalytics struct {
	counts map[string]int64
}

func (m *mockAnalytics) IncrementDaily(ctx context.Context, name string, n int64) {
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[name] += n
}

type mockPayments struct {
	session    *payments.Session
	createFn   func(req payments.CreateSessionRequest) (*payments.Session, error)
	lastCreate *payments.CreateSessionRequest
}

func (m *mockPayments) CreateCheckoutSession(ctx context.Context, req payments.CreateSessionRequest) (*payments.Session, error) {
	m.lastCreate = &req
	if m.createFn != nil {
		return m.createFn(req)
	}
	return &payments.Session{ID: "cs_test", URL: "https://pay.example/cs_test"}, nil
}
func (m *mockPayments) GetCheckoutSession(ctx context.Context, sessionID string) (*payments.Session, error) {
	return m.session, nil
}

func productItem(id, productID, name string, qty int, price int64, sellerID string) models.CartItemDetail {
	return models.CartItemDetail{
		CartItem:  models.CartItem{ID: id, ProductID: &productID, Quantity: qty},
		Name:      name,
		UnitPrice: price,
		SellerID:  sellerID,
	}
}

func listingItem(id, listingID, name string, qty int, price int64, sellerID string) models.CartItemDetail {
	return models.CartItemDetail{
		CartItem:  models.CartItem{ID: id, CropListingID: &listingID, Quantity: qty},
		Name:      name,
		UnitPrice: price,
		SellerID:  sellerID,
	}
}

type fixture struct {
	svc       *Service
	carts     *mockCartStore
	orders    *mockOrderStore
	catalog   *mockCatalogStore
	notifier  *mockNotifier
	hub       *mockPublisher
	analytics *mockAnalytics
}

func newFixture(items []models.CartItemDetail, pc payments.Client) *fixture {
	f := &fixture{
		carts:     &mockCartStore{items: items},
		orders:    &mockOrderStore{},
		catalog:   &mockCatalogStore{},
		notifier:  &mockNotifier{},
		hub:       &mockPublisher{},
		analytics: &mockAnalytics{},
	}
	f.svc = NewService(f.carts, f.orders, f.catalog, pc, f.notifier, f.hub, f.analytics, "https://farmcon.example")
	return f
}

func paidSession(id string) *payments.Session {
	return &payments.Session{ID: id, PaymentStatus: payments.SessionPaid, ShippingAddress: "12 Market Road, Pune"}
}

func TestCreateSession_PaymentsNotConfigured(t *testing.T) {
	f := newFixture(nil, nil)

	_, err := f.svc.CreateSession(context.Background(), "user-1", models.CreateCheckoutSessionRequest{
		ShippingAddress: "12 Market Road, Pune",
	})

	assert.ErrorIs(t, err, models.ErrPaymentNotConfigured)
}

func TestCreateSession_EmptyCart(t *testing.T) {
	f := newFixture(nil, &mockPayments{})

	_, err := f.svc.CreateSession(context.Background(), "user-1", models.CreateCheckoutSessionRequest{
		ShippingAddress: "12 Market Road, Pune",
	})

	assert.ErrorIs(t, err, models.ErrEmptyCart)
}

func TestCreateSession_BuildsLineItemsFromCart(t *testing.T) {
	pc := &mockPayments{}
	f := newFixture([]models.CartItemDetail{
		productItem("ci-1", "prod-a", "Organic Seeds", 2, 10000, "seller-1"),
		listingItem("ci-2", "listing-b", "Fresh Wheat", 1, 5000, "seller-2"),
	}, pc)

	resp, err := f.svc.CreateSession(context.Background(), "user-1", models.CreateCheckoutSessionRequest{
		ShippingAddress: "12 Market Road, Pune",
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_test", resp.SessionID)
	require.NotNil(t, pc.lastCreate)
	require.Len(t, pc.lastCreate.LineItems, 2)
	assert.Equal(t, int64(10000), pc.lastCreate.LineItems[0].UnitAmount)
	assert.Equal(t, int64(2), pc.lastCreate.LineItems[0].Quantity)
	assert.Equal(t, "12 Market Road, Pune", pc.lastCreate.Metadata["shipping_address"])
	// Billing falls back to shipping when omitted.
	assert.Equal(t, "12 Market Road, Pune", pc.lastCreate.Metadata["billing_address"])
}

func TestConfirmPayment_UnpaidSession(t *testing.T) {
	pc := &mockPayments{session: &payments.Session{ID: "cs_1", PaymentStatus: payments.SessionUnpaid}}
	f := newFixture([]models.CartItemDetail{
		productItem("ci-1", "prod-a", "Organic Seeds", 1, 100, "seller-1"),
	}, pc)

	_, err := f.svc.ConfirmPayment(context.Background(), "user-1", "cs_1")

	assert.ErrorIs(t, err, models.ErrPaymentNotCompleted)
	assert.Empty(t, f.orders.createdOrders)
	assert.Zero(t, f.carts.clearCalls, "unpaid confirmation must not clear the cart")
}

func TestConfirmPayment_AlreadyProcessed(t *testing.T) {
	pc := &mockPayments{session: paidSession("cs_1")}
	f := newFixture([]models.CartItemDetail{
		productItem("ci-1", "prod-a", "Organic Seeds", 1, 100, "seller-1"),
	}, pc)
	f.orders.existing = []*models.Order{{ID: "order-1"}, {ID: "order-2"}}

	resp, err := f.svc.ConfirmPayment(context.Background(), "user-1", "cs_1")

	require.NoError(t, err)
	assert.True(t, resp.AlreadyProcessed)
	assert.Equal(t, []string{"order-1", "order-2"}, resp.OrderIDs)
	assert.Equal(t, 2, resp.OrdersCreated)
	assert.Empty(t, f.orders.createdOrders, "replay must not create new orders")
	assert.Zero(t, f.carts.clearCalls)
}

// A paid session over an empty cart is a server-state anomaly, not the
// client error an empty cart is at session creation.
func TestConfirmPayment_PaidSessionWithEmptyCart(t *testing.T) {
	pc := &mockPayments{session: paidSession("cs_1")}
	f := newFixture(nil, pc)

	_, err := f.svc.ConfirmPayment(context.Background(), "user-1", "cs_1")

	assert.ErrorIs(t, err, models.ErrPaidCartMissing)
	assert.NotErrorIs(t, err, models.ErrEmptyCart)
	assert.Empty(t, f.orders.createdOrders)
	assert.Zero(t, f.carts.clearCalls)
}

// Two sellers in one cart: product A (qty 2 at 100) and listing B (qty 1 at
// 50) yield two orders with totals 200 and 50, and the cart ends empty.
func TestConfirmPayment_SplitsOrdersBySeller(t *testing.T) {
	pc := &mockPayments{session: paidSession("cs_1")}
	f := newFixture([]models.CartItemDetail{
		productItem("ci-1", "prod-a", "Product A", 2, 100, "seller-1"),
		listingItem("ci-2", "listing-b", "Listing B", 1, 50, "seller-2"),
	}, pc)

	resp, err := f.svc.ConfirmPayment(context.Background(), "user-1", "cs_1")

	require.NoError(t, err)
	assert.False(t, resp.AlreadyProcessed)
	assert.Equal(t, 2, resp.OrdersCreated)
	require.Len(t, f.orders.createdOrders, 2)

	bySeller := map[string]*models.Order{}
	for _, o := range f.orders.createdOrders {
		bySeller[o.SellerID] = o
	}
	require.Contains(t, bySeller, "seller-1")
	require.Contains(t, bySeller, "seller-2")
	assert.Equal(t, int64(200), bySeller["seller-1"].TotalAmount)
	assert.Equal(t, int64(50), bySeller["seller-2"].TotalAmount)
	assert.Equal(t, models.OrderTypeProduct, bySeller["seller-1"].OrderType)
	assert.Equal(t, models.OrderTypeCrop, bySeller["seller-2"].OrderType)
	for _, o := range f.orders.createdOrders {
		assert.Equal(t, models.OrderStatusConfirmed, o.Status)
		assert.Equal(t, models.PaymentStatusPaid, o.PaymentStatus)
		require.NotNil(t, o.CheckoutSessionID)
		assert.Equal(t, "cs_1", *o.CheckoutSessionID)
	}

	assert.Equal(t, 1, f.carts.clearCalls)
	assert.Equal(t, 2, f.catalog.productDecrements["prod-a"])
	assert.Equal(t, 1, f.catalog.listingDecrements["listing-b"])
	assert.ElementsMatch(t, []string{"seller-1", "seller-2"}, f.notifier.notified)
	assert.Equal(t, int64(2), f.analytics.counts["orders"])

	for _, res := range resp.Items {
		assert.Equal(t, models.ItemResultSucceeded, res.Status)
	}
}

// The order item snapshots the cart's price even if the catalog has moved on.
func TestConfirmPayment_SnapshotsUnitPrice(t *testing.T) {
	pc := &mockPayments{session: paidSession("cs_1")}
	f := newFixture([]models.CartItemDetail{
		productItem("ci-1", "prod-a", "Product A", 3, 175, "seller-1"),
	}, pc)

	_, err := f.svc.ConfirmPayment(context.Background(), "user-1", "cs_1")

	require.NoError(t, err)
	require.Len(t, f.orders.addedItems, 1)
	assert.Equal(t, int64(175), f.orders.addedItems[0].UnitPrice)
	assert.Equal(t, int64(525), f.orders.addedItems[0].TotalPrice)
	assert.Equal(t, 3, f.orders.addedItems[0].Quantity)
}

// A duplicate for one seller's order skips that partition only; the other
// seller's order still materializes and the cart is still cleared.
func TestConfirmPayment_PartitionConflictIsIsolated(t *testing.T) {
	pc := &mockPayments{session: paidSession("cs_1")}
	f := newFixture([]models.CartItemDetail{
		productItem("ci-1", "prod-a", "Product A", 1, 100, "seller-1"),
		productItem("ci-2", "prod-b", "Product B", 1, 200, "seller-2"),
	}, pc)
	f.orders.createErrFor = map[string]error{"seller-1": models.ErrConflict}

	resp, err := f.svc.ConfirmPayment(context.Background(), "user-1", "cs_1")

	require.NoError(t, err)
	assert.Equal(t, 1, resp.OrdersCreated)
	require.Len(t, f.orders.createdOrders, 1)
	assert.Equal(t, "seller-2", f.orders.createdOrders[0].SellerID)
	assert.Equal(t, 1, f.carts.clearCalls)

	byStatus := map[string]int{}
	for _, res := range resp.Items {
		byStatus[res.Status]++
	}
	assert.Equal(t, 1, byStatus[models.ItemResultSkipped])
	assert.Equal(t, 1, byStatus[models.ItemResultSucceeded])
}

// An inventory failure marks the item skipped but keeps the order and its
// sibling items.
func TestConfirmPayment_InventoryFailureSkipsItemOnly(t *testing.T) {
	pc := &mockPayments{session: paidSession("cs_1")}
	f := newFixture([]models.CartItemDetail{
		productItem("ci-1", "prod-a", "Product A", 1, 100, "seller-1"),
		productItem("ci-2", "prod-b", "Product B", 2, 300, "seller-1"),
	}, pc)
	f.catalog.productErrFor = map[string]error{"prod-a": errors.New("connection reset")}

	resp, err := f.svc.ConfirmPayment(context.Background(), "user-1", "cs_1")

	require.NoError(t, err)
	assert.Equal(t, 1, resp.OrdersCreated)
	assert.Equal(t, 2, f.catalog.productDecrements["prod-b"])
	assert.Equal(t, 1, f.carts.clearCalls)

	require.Len(t, resp.Items, 2)
	byID := map[string]models.ItemResult{}
	for _, res := range resp.Items {
		byID[res.CartItemID] = res
	}
	assert.Equal(t, models.ItemResultSkipped, byID["ci-1"].Status)
	assert.Contains(t, byID["ci-1"].Reason, "inventory update failed")
	assert.Equal(t, models.ItemResultSucceeded, byID["ci-2"].Status)
}

func TestConfirmPayment_PublishesOrderCreatedEvent(t *testing.T) {
	pc := &mockPayments{session: paidSession("cs_1")}
	f := newFixture([]models.CartItemDetail{
		productItem("ci-1", "prod-a", "Product A", 1, 100, "seller-1"),
	}, pc)

	_, err := f.svc.ConfirmPayment(context.Background(), "user-1", "cs_1")

	require.NoError(t, err)
	require.NotEmpty(t, f.hub.events)
	assert.Equal(t, realtime.EventOrderCreated, f.hub.events[0].Type)
}

func TestPartitionBySeller_PreservesFirstSeenOrder(t *testing.T) {
	items := []models.CartItemDetail{
		productItem("ci-1", "p1", "A", 1, 1, "s2"),
		productItem("ci-2", "p2", "B", 1, 1, "s1"),
		productItem("ci-3", "p3", "C", 1, 1, "s2"),
	}

	partitions := partitionBySeller(items)

	require.Len(t, partitions, 2)
	assert.Equal(t, "s2", partitions[0].sellerID)
	assert.Len(t, partitions[0].items, 2)
	assert.Equal(t, "s1", partitions[1].sellerID)
	assert.Len(t, partitions[1].items, 1)
}
