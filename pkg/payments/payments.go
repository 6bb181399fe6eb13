// Package payments abstracts the hosted-checkout payment provider. The
// checkout module only ever talks to the Client interface; the Stripe
// implementation lives in stripe.go.
package payments

import "context"

// Payment session statuses as reported by the provider.
const (
	SessionPaid   = "paid"
	SessionUnpaid = "unpaid"
)

// LineItem is one purchasable row of a checkout session.
type LineItem struct {
	Name        string
	Description string
	ImageURL    string
	UnitAmount  int64 // minor currency units
	Quantity    int64
}

// CreateSessionRequest describes the hosted session to create. Metadata is
// attached verbatim and comes back on retrieval.
type CreateSessionRequest struct {
	UserID     string
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

// Session is the provider's view of a checkout session.
type Session struct {
	ID              string
	URL             string
	PaymentStatus   string
	AmountTotal     int64
	Metadata        map[string]string
	ShippingAddress string
	BillingAddress  string
}

// Paid reports whether the provider considers the session settled.
func (s *Session) Paid() bool {
	return s != nil && s.PaymentStatus == SessionPaid
}

// Client is the payment-provider contract used by checkout.
type Client interface {
	CreateCheckoutSession(ctx context.Context, req CreateSessionRequest) (*Session, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*Session, error)
}
