package catalog

import (
	"context"
	"fmt"

	"farmcon/internal/models"

	"github.com/google/uuid"
)

// ServiceInterface defines the catalog business logic used by handlers.
type ServiceInterface interface {
	CreateProduct(ctx context.Context, supplierID string, req models.CreateProductRequest) (*models.Product, error)
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	ListMyProducts(ctx context.Context, supplierID string, page, limit int) ([]*models.Product, error)

	CreateCrop(ctx context.Context, farmerID, name, status string) (*models.Crop, error)
	CreateListing(ctx context.Context, farmerID string, req models.CreateCropListingRequest) (*models.CropListing, error)
	GetListing(ctx context.Context, listingID string) (*models.CropListing, error)
	ListMyListings(ctx context.Context, farmerID string, page, limit int) ([]*models.CropListing, error)
}

type Service struct {
	repo RepositoryInterface
}

func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateProduct(ctx context.Context, supplierID string, req models.CreateProductRequest) (*models.Product, error) {
	product := &models.Product{
		ID:            uuid.NewString(),
		SupplierID:    supplierID,
		Name:          req.Name,
		Description:   req.Description,
		ImageURLs:     req.ImageURLs,
		UnitPrice:     req.UnitPrice,
		StockQuantity: req.StockQuantity,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("service.CreateProduct: %w", err)
	}
	return product, nil
}

func (s *Service) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	return s.repo.FindProductByID(ctx, productID)
}

func (s *Service) ListMyProducts(ctx context.Context, supplierID string, page, limit int) ([]*models.Product, error) {
	return s.repo.ListProductsBySupplier(ctx, supplierID, page, limit)
}

func (s *Service) CreateCrop(ctx context.Context, farmerID, name, status string) (*models.Crop, error) {
	if status == "" {
		status = models.CropStatusSown
	}
	crop := &models.Crop{
		ID:       uuid.NewString(),
		FarmerID: farmerID,
		Name:     name,
		Status:   status,
	}
	if err := s.repo.CreateCrop(ctx, crop); err != nil {
		return nil, fmt.Errorf("service.CreateCrop: %w", err)
	}
	return crop, nil
}

// CreateListing creates a sellable listing for one of the farmer's crops.
// Listing someone else's crop reports not-found rather than forbidden so the
// endpoint does not leak which crop ids exist.
func (s *Service) CreateListing(ctx context.Context, farmerID string, req models.CreateCropListingRequest) (*models.CropListing, error) {
	crop, err := s.repo.FindCropByID(ctx, req.CropID)
	if err != nil {
		return nil, err
	}
	if crop.FarmerID != farmerID {
		return nil, models.ErrNotFound
	}

	listing := &models.CropListing{
		ID:                uuid.NewString(),
		CropID:            req.CropID,
		FarmerID:          farmerID,
		UnitPrice:         req.UnitPrice,
		QuantityAvailable: req.QuantityAvailable,
		Unit:              req.Unit,
		ImageURLs:         req.ImageURLs,
		Description:       req.Description,
	}
	if err := s.repo.CreateListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("service.CreateListing: %w", err)
	}
	return listing, nil
}

func (s *Service) GetListing(ctx context.Context, listingID string) (*models.CropListing, error) {
	return s.repo.FindListingByID(ctx, listingID)
}

func (s *Service) ListMyListings(ctx context.Context, farmerID string, page, limit int) ([]*models.CropListing, error) {
	return s.repo.ListListingsByFarmer(ctx, farmerID, page, limit)
}
