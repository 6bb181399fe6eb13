package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeClient implements Client against the Stripe Checkout API.
type StripeClient struct {
	api      *client.API
	currency string
}

// NewStripeClient builds a client from the secret key. An empty key is an
// error so that checkout fails closed rather than half-configured.
func NewStripeClient(secretKey, currency string) (*StripeClient, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("payments: stripe secret key is empty")
	}
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api, currency: currency}, nil
}

// CreateCheckoutSession creates a hosted payment page for the given line items.
func (s *StripeClient) CreateCheckoutSession(ctx context.Context, req CreateSessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.UserID),
	}
	params.Context = ctx
	params.AddMetadata("user_id", req.UserID)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	for _, item := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			product.Description = stripe.String(item.Description)
		}
		if item.ImageURL != "" {
			product.Images = []*string{stripe.String(item.ImageURL)}
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(item.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(s.currency),
				UnitAmount:  stripe.Int64(item.UnitAmount),
				ProductData: product,
			},
		})
	}

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("payments: create checkout session: %w", err)
	}
	return fromStripeSession(sess), nil
}

// GetCheckoutSession retrieves a session by id for server-side re-verification.
func (s *StripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := s.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("payments: get checkout session %s: %w", sessionID, err)
	}
	return fromStripeSession(sess), nil
}

func fromStripeSession(sess *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
		AmountTotal:   sess.AmountTotal,
		Metadata:      sess.Metadata,
	}
	if sess.CustomerDetails != nil && sess.CustomerDetails.Address != nil {
		out.BillingAddress = formatAddress(sess.CustomerDetails.Address)
	}
	if sess.ShippingDetails != nil && sess.ShippingDetails.Address != nil {
		out.ShippingAddress = formatAddress(sess.ShippingDetails.Address)
	}
	return out
}

func formatAddress(a *stripe.Address) string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
