package models

import "time"

// Crop lifecycle statuses. A crop whose only listing sells out is marked sold.
const (
	CropStatusSown      = "sown"
	CropStatusGrowing   = "growing"
	CropStatusHarvested = "harvested"
	CropStatusSold      = "sold"
)

// Product is a supplier-owned inventory item (seeds, tools, fertilizer).
// Prices are stored in minor currency units.
type Product struct {
	ID            string    `json:"id"`
	SupplierID    string    `json:"supplier_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	ImageURLs     []string  `json:"image_urls"`
	UnitPrice     int64     `json:"unit_price"`
	StockQuantity int       `json:"stock_quantity"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Crop is a farmer's planted crop; listings hang off it.
type Crop struct {
	ID        string    `json:"id"`
	FarmerID  string    `json:"farmer_id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CropListing is the sellable unit of a harvested crop. When
// QuantityAvailable reaches zero the listing is deactivated and the
// parent crop is marked sold.
type CropListing struct {
	ID                string    `json:"id"`
	CropID            string    `json:"crop_id"`
	FarmerID          string    `json:"farmer_id"`
	UnitPrice         int64     `json:"unit_price"`
	QuantityAvailable int       `json:"quantity_available"`
	Unit              string    `json:"unit"`
	ImageURLs         []string  `json:"image_urls"`
	Description       string    `json:"description,omitempty"`
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type CreateProductRequest struct {
	Name          string   `json:"name" validate:"required,min=2,max=200"`
	Description   string   `json:"description,omitempty"`
	ImageURLs     []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
	UnitPrice     int64    `json:"unit_price" validate:"required,gt=0"`
	StockQuantity int      `json:"stock_quantity" validate:"gte=0"`
}

type CreateCropListingRequest struct {
	CropID            string   `json:"crop_id" validate:"required,uuid4"`
	UnitPrice         int64    `json:"unit_price" validate:"required,gt=0"`
	QuantityAvailable int      `json:"quantity_available" validate:"required,gt=0"`
	Unit              string   `json:"unit" validate:"required"`
	ImageURLs         []string `json:"image_urls,omitempty" validate:"omitempty,dive,url"`
	Description       string   `json:"description,omitempty"`
}
