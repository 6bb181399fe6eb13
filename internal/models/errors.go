package models

import "errors"

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when a write collides with an existing resource,
	// e.g. a duplicate email on signup or a second delivery for the same order.
	ErrConflict = errors.New("resource already exists")

	// ErrInvalidCredentials is returned on a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmptyCart is returned when a checkout session is requested with no
	// cart items. This is an ordinary client error.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrPaidCartMissing is returned when a settled payment session points at
	// an empty cart: money has been captured with nothing to materialize.
	// Unlike ErrEmptyCart this is a server-state anomaly and maps to a 500.
	ErrPaidCartMissing = errors.New("paid checkout session has no cart items")

	// ErrPaymentNotCompleted is returned when the payment provider reports the
	// checkout session as anything other than paid. The caller should redirect
	// the customer back to payment rather than materialize orders.
	ErrPaymentNotCompleted = errors.New("payment has not been completed")

	// ErrPaymentNotConfigured is returned when no payment provider credentials
	// are present. Checkout fails closed.
	ErrPaymentNotConfigured = errors.New("payment provider is not configured")

	// ErrInvalidStatusTransition is returned when a delivery status update does
	// not follow the transition table, e.g. moving delivered back to in_transit.
	ErrInvalidStatusTransition = errors.New("invalid delivery status transition")

	// ErrOutOfStock is returned when a purchase would require more units than
	// the product or crop listing has available.
	ErrOutOfStock = errors.New("not enough stock available")

	// ErrInvalidItemReference is returned when a cart item does not reference
	// exactly one of a product or a crop listing.
	ErrInvalidItemReference = errors.New("exactly one of product_id or crop_listing_id must be set")
)
