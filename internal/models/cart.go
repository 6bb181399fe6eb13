package models

import "time"

// CartItem references exactly one of a product or a crop listing.
type CartItem struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ProductID     *string   `json:"product_id,omitempty"`
	CropListingID *string   `json:"crop_listing_id,omitempty"`
	Quantity      int       `json:"quantity"`
	CreatedAt     time.Time `json:"created_at"`
}

// CartItemDetail is a cart item joined with its product or listing so the
// client (and the checkout flow) see name, price and seller without extra
// round trips. UnitPrice here is the live catalog price; it is only
// snapshotted onto order items at materialization time.
type CartItemDetail struct {
	CartItem
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	UnitPrice   int64  `json:"unit_price"`
	Unit        string `json:"unit,omitempty"`
	SellerID    string `json:"seller_id"`
}

// Subtotal is the line total at the current catalog price.
func (d CartItemDetail) Subtotal() int64 {
	return d.UnitPrice * int64(d.Quantity)
}

type AddCartItemRequest struct {
	ProductID     *string `json:"product_id,omitempty" validate:"omitempty,uuid4"`
	CropListingID *string `json:"crop_listing_id,omitempty" validate:"omitempty,uuid4"`
	Quantity      int     `json:"quantity" validate:"required,gt=0"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}
