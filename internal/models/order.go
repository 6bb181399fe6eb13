package models

import "time"

// Order statuses. Orders materialized from a paid checkout session start
// at confirmed; pending only exists for flows that create orders before
// payment (not used by the standard checkout pipeline).
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

const (
	OrderTypeProduct = "product"
	OrderTypeCrop    = "crop"
)

// Order groups the items bought from a single seller in one checkout.
// Invariant: every item of an order shares the order's SellerID.
// CheckoutSessionID carries the payment provider's session id; the
// (checkout_session_id, seller_id) pair is unique in the database, which is
// what makes payment confirmation idempotent.
type Order struct {
	ID                string    `json:"id"`
	CustomerID        string    `json:"customer_id"`
	SellerID          string    `json:"seller_id"`
	OrderType         string    `json:"order_type"`
	TotalAmount       int64     `json:"total_amount"`
	Status            string    `json:"status"`
	PaymentStatus     string    `json:"payment_status"`
	PaymentMethod     string    `json:"payment_method,omitempty"`
	CheckoutSessionID *string   `json:"checkout_session_id,omitempty"`
	ShippingAddress   string    `json:"shipping_address,omitempty"`
	BillingAddress    string    `json:"billing_address,omitempty"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// OrderItem snapshots UnitPrice at order-creation time; later catalog price
// changes never alter historical orders.
type OrderItem struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"order_id"`
	ProductID     *string   `json:"product_id,omitempty"`
	CropListingID *string   `json:"crop_listing_id,omitempty"`
	Name          string    `json:"name"`
	Quantity      int       `json:"quantity"`
	UnitPrice     int64     `json:"unit_price"`
	TotalPrice    int64     `json:"total_price"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateCheckoutSessionRequest starts the hosted payment flow. The cart is
// the source of truth for the line items; only addresses come from the client.
type CreateCheckoutSessionRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required,min=10"`
	BillingAddress  string `json:"billing_address,omitempty"`
}

type CheckoutSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// ConfirmPaymentRequest is sent by the client after the provider redirects
// back. The session id is only used to look state up server-side; payment
// status is always re-verified against the provider.
type ConfirmPaymentRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// Item side-effect outcomes during order materialization. A skipped item
// never aborts its order; the reason is surfaced so reconciliation can
// detect and replay it.
const (
	ItemResultSucceeded = "succeeded"
	ItemResultSkipped   = "skipped"
)

type ItemResult struct {
	CartItemID string `json:"cart_item_id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// ConfirmPaymentResponse reports what the materializer did.
type ConfirmPaymentResponse struct {
	AlreadyProcessed bool         `json:"already_processed"`
	OrderIDs         []string     `json:"order_ids"`
	OrdersCreated    int          `json:"orders_created"`
	Items            []ItemResult `json:"items,omitempty"`
}
