package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"farmcon/internal/models"
	"farmcon/internal/realtime"
	"farmcon/pkg/payments"

	"github.com/google/uuid"
)

// CartStore is the slice of the cart module checkout needs. It reads the
// cart straight from the database; the cart stays the source of truth until
// confirmation, so no pending-order row is ever written.
type CartStore interface {
	ItemsForCheckout(ctx context.Context, userID string) ([]models.CartItemDetail, error)
	ClearCart(ctx context.Context, userID string) error
}

// OrderStore is the slice of the orders repository checkout writes through.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	AddOrderItem(ctx context.Context, item *models.OrderItem) error
	FindBySessionID(ctx context.Context, sessionID string) ([]*models.Order, error)
}

// CatalogStore applies the inventory side effects of a purchase.
type CatalogStore interface {
	DecrementProductStock(ctx context.Context, productID string, quantity int) error
	DecrementListingQuantity(ctx context.Context, listingID string, quantity int) error
}

// SellerNotifier announces a freshly materialized order to its seller.
type SellerNotifier interface {
	NotifySellerOrder(order *models.Order, itemCount int)
}

// Publisher pushes realtime events to the customer.
type Publisher interface {
	Publish(userID string, ev realtime.Event)
}

// Analytics records coarse per-day counters; implemented by the redis cache.
type Analytics interface {
	IncrementDaily(ctx context.Context, name string, n int64)
}

// ServiceInterface defines the checkout business logic.
type ServiceInterface interface {
	CreateSession(ctx context.Context, userID string, req models.CreateCheckoutSessionRequest) (*models.CheckoutSessionResponse, error)
	ConfirmPayment(ctx context.Context, userID, sessionID string) (*models.ConfirmPaymentResponse, error)
}

type Service struct {
	carts        CartStore
	orders       OrderStore
	catalog      CatalogStore
	payments     payments.Client // nil when the provider is unconfigured
	notifier     SellerNotifier
	hub          Publisher
	analytics    Analytics
	clientOrigin string
}

func NewService(
	carts CartStore,
	orders OrderStore,
	catalog CatalogStore,
	paymentsClient payments.Client,
	notifier SellerNotifier,
	hub Publisher,
	analytics Analytics,
	clientOrigin string,
) *Service {
	return &Service{
		carts:        carts,
		orders:       orders,
		catalog:      catalog,
		payments:     paymentsClient,
		notifier:     notifier,
		hub:          hub,
		analytics:    analytics,
		clientOrigin: clientOrigin,
	}
}

// CreateSession builds a hosted payment session from the cart, one provider
// line item per cart entry. It fails closed when the provider is missing.
func (s *Service) CreateSession(ctx context.Context, userID string, req models.CreateCheckoutSessionRequest) (*models.CheckoutSessionResponse, error) {
	if s.payments == nil {
		return nil, models.ErrPaymentNotConfigured
	}

	items, err := s.carts.ItemsForCheckout(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.CreateSession: %w", err)
	}
	if len(items) == 0 {
		return nil, models.ErrEmptyCart
	}

	lineItems := make([]payments.LineItem, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, payments.LineItem{
			Name:        item.Name,
			Description: item.Description,
			ImageURL:    item.ImageURL,
			UnitAmount:  item.UnitPrice,
			Quantity:    int64(item.Quantity),
		})
	}

	billing := req.BillingAddress
	if billing == "" {
		billing = req.ShippingAddress
	}
	session, err := s.payments.CreateCheckoutSession(ctx, payments.CreateSessionRequest{
		UserID:     userID,
		LineItems:  lineItems,
		SuccessURL: s.clientOrigin + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.clientOrigin + "/cart",
		Metadata: map[string]string{
			"shipping_address": req.ShippingAddress,
			"billing_address":  billing,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("service.CreateSession: %w", err)
	}

	return &models.CheckoutSessionResponse{SessionID: session.ID, URL: session.URL}, nil
}

// ConfirmPayment re-verifies the session with the provider and materializes
// one order per distinct seller in the cart. The session id comes from the
// client but is only used to look state up server-side; payment status is
// never trusted from client input.
//
// A single item's side-effect failure is recorded and skipped rather than
// aborting its order or sibling orders: once the customer has paid, getting
// most of the purchase through beats strict atomicity, and the per-item
// result list lets reconciliation replay what was skipped.
func (s *Service) ConfirmPayment(ctx context.Context, userID, sessionID string) (*models.ConfirmPaymentResponse, error) {
	if s.payments == nil {
		return nil, models.ErrPaymentNotConfigured
	}

	session, err := s.payments.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("service.ConfirmPayment: %w", err)
	}
	if !session.Paid() {
		return nil, models.ErrPaymentNotCompleted
	}

	// Fast idempotency path. The database constraint below is the real
	// guard; this read just avoids reloading the cart on page refreshes.
	if existing, err := s.orders.FindBySessionID(ctx, sessionID); err == nil && len(existing) > 0 {
		resp := &models.ConfirmPaymentResponse{AlreadyProcessed: true, OrdersCreated: len(existing)}
		for _, o := range existing {
			resp.OrderIDs = append(resp.OrderIDs, o.ID)
		}
		return resp, nil
	}

	items, err := s.carts.ItemsForCheckout(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.ConfirmPayment: %w", err)
	}
	if len(items) == 0 {
		// The customer paid but there is nothing to materialize. This must
		// be surfaced, not silently succeed.
		return nil, fmt.Errorf("service.ConfirmPayment: session %s: %w", sessionID, models.ErrPaidCartMissing)
	}

	shipping, billing := s.resolveAddresses(session)

	resp := &models.ConfirmPaymentResponse{}
	for _, partition := range partitionBySeller(items) {
		order, results := s.materializeSellerOrder(ctx, userID, sessionID, shipping, billing, partition)
		resp.Items = append(resp.Items, results...)
		if order != nil {
			resp.OrderIDs = append(resp.OrderIDs, order.ID)
			resp.OrdersCreated++
		}
	}

	// The cart is cleared even when partitions failed: checkout has been
	// attempted and settled, and a stale cart must not be re-purchasable.
	if err := s.carts.ClearCart(ctx, userID); err != nil {
		log.Printf("checkout: clear cart for %s: %v", userID, err)
	}

	if resp.OrdersCreated > 0 {
		s.analytics.IncrementDaily(ctx, "orders", int64(resp.OrdersCreated))
		s.hub.Publish(userID, realtime.Event{
			Type:    realtime.EventOrderCreated,
			Payload: map[string]interface{}{"order_ids": resp.OrderIDs},
		})
	}
	return resp, nil
}

// sellerPartition groups the cart items belonging to one seller.
type sellerPartition struct {
	sellerID string
	items    []models.CartItemDetail
}

// partitionBySeller splits cart items by resolved seller, preserving
// first-seen seller order so materialization is deterministic.
func partitionBySeller(items []models.CartItemDetail) []sellerPartition {
	index := make(map[string]int)
	var partitions []sellerPartition
	for _, item := range items {
		i, ok := index[item.SellerID]
		if !ok {
			i = len(partitions)
			index[item.SellerID] = i
			partitions = append(partitions, sellerPartition{sellerID: item.SellerID})
		}
		partitions[i].items = append(partitions[i].items, item)
	}
	return partitions
}

// materializeSellerOrder creates one order plus items for a seller
// partition. Prices are snapshotted from the cart detail at this instant.
// Returns nil when the order row itself could not be created.
func (s *Service) materializeSellerOrder(
	ctx context.Context,
	userID, sessionID, shipping, billing string,
	partition sellerPartition,
) (*models.Order, []models.ItemResult) {
	var total int64
	for _, item := range partition.items {
		total += item.Subtotal()
	}

	orderType := models.OrderTypeCrop
	if partition.items[0].ProductID != nil {
		orderType = models.OrderTypeProduct
	}

	order := &models.Order{
		ID:                uuid.NewString(),
		CustomerID:        userID,
		SellerID:          partition.sellerID,
		OrderType:         orderType,
		TotalAmount:       total,
		Status:            models.OrderStatusConfirmed,
		PaymentStatus:     models.PaymentStatusPaid,
		PaymentMethod:     "card",
		CheckoutSessionID: &sessionID,
		ShippingAddress:   shipping,
		BillingAddress:    billing,
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		// A conflict means another confirmation for this session already
		// materialized this seller's order; nothing left to do here.
		reason := "order creation failed"
		if errors.Is(err, models.ErrConflict) {
			reason = "order already materialized"
		}
		log.Printf("checkout: create order for seller %s: %v", partition.sellerID, err)
		results := make([]models.ItemResult, 0, len(partition.items))
		for _, item := range partition.items {
			results = append(results, models.ItemResult{
				CartItemID: item.ID,
				Name:       item.Name,
				Status:     models.ItemResultSkipped,
				Reason:     reason,
			})
		}
		return nil, results
	}

	results := make([]models.ItemResult, 0, len(partition.items))
	for _, item := range partition.items {
		if reason := s.materializeItem(ctx, order.ID, item); reason != "" {
			log.Printf("checkout: item %s in order %s skipped: %s", item.ID, order.ID, reason)
			results = append(results, models.ItemResult{
				CartItemID: item.ID,
				Name:       item.Name,
				Status:     models.ItemResultSkipped,
				Reason:     reason,
			})
			continue
		}
		results = append(results, models.ItemResult{
			CartItemID: item.ID,
			Name:       item.Name,
			Status:     models.ItemResultSucceeded,
		})
	}

	s.notifier.NotifySellerOrder(order, len(partition.items))
	return order, results
}

// materializeItem writes the order item and applies its inventory side
// effect. An empty return means success.
func (s *Service) materializeItem(ctx context.Context, orderID string, item models.CartItemDetail) string {
	orderItem := &models.OrderItem{
		ID:            uuid.NewString(),
		OrderID:       orderID,
		ProductID:     item.ProductID,
		CropListingID: item.CropListingID,
		Name:          item.Name,
		Quantity:      item.Quantity,
		UnitPrice:     item.UnitPrice,
		TotalPrice:    item.Subtotal(),
	}
	if err := s.orders.AddOrderItem(ctx, orderItem); err != nil {
		return fmt.Sprintf("order item creation failed: %v", err)
	}

	var err error
	if item.ProductID != nil {
		err = s.catalog.DecrementProductStock(ctx, *item.ProductID, item.Quantity)
	} else {
		err = s.catalog.DecrementListingQuantity(ctx, *item.CropListingID, item.Quantity)
	}
	if err != nil {
		return fmt.Sprintf("inventory update failed: %v", err)
	}
	return ""
}

// resolveAddresses prefers the addresses the provider collected, falling
// back to what the client supplied at session creation (carried in metadata).
func (s *Service) resolveAddresses(session *payments.Session) (shipping, billing string) {
	shipping = session.ShippingAddress
	if shipping == "" {
		shipping = session.Metadata["shipping_address"]
	}
	billing = session.BillingAddress
	if billing == "" {
		billing = session.Metadata["billing_address"]
	}
	if billing == "" {
		billing = shipping
	}
	return shipping, billing
}
