package catalog

import (
	"context"
	"testing"

	"farmcon/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	crop            *models.Crop
	cropErr         error
	createdProducts []*models.Product
	createdListings []*models.CropListing
}

func (m *mockRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	m.createdProducts = append(m.createdProducts, p)
	return nil
}
func (m *mockRepository) FindProductByID(ctx context.Context, productID string) (*models.Product, error) {
	return nil, models.ErrNotFound
}
func (m *mockRepository) ListProductsBySupplier(ctx context.Context, supplierID string, page, limit int) ([]*models.Product, error) {
	return nil, nil
}
func (m *mockRepository) DecrementProductStock(ctx context.Context, productID string, quantity int) error {
	return nil
}
func (m *mockRepository) CreateCrop(ctx context.Context, c *models.Crop) error { return nil }
func (m *mockRepository) FindCropByID(ctx context.Context, cropID string) (*models.Crop, error) {
	if m.cropErr != nil {
		return nil, m.cropErr
	}
	return m.crop, nil
}
func (m *mockRepository) CreateListing(ctx context.Context, l *models.CropListing) error {
	m.createdListings = append(m.createdListings, l)
	return nil
}
func (m *mockRepository) FindListingByID(ctx context.Context, listingID string) (*models.CropListing, error) {
	return nil, models.ErrNotFound
}
func (m *mockRepository) ListListingsByFarmer(ctx context.Context, farmerID string, page, limit int) ([]*models.CropListing, error) {
	return nil, nil
}
func (m *mockRepository) DecrementListingQuantity(ctx context.Context, listingID string, quantity int) error {
	return nil
}

func TestCreateListing_OwnCrop(t *testing.T) {
	repo := &mockRepository{crop: &models.Crop{ID: "crop-1", FarmerID: "farmer-1"}}
	svc := NewService(repo)

	listing, err := svc.CreateListing(context.Background(), "farmer-1", models.CreateCropListingRequest{
		CropID:            "crop-1",
		UnitPrice:         5000,
		QuantityAvailable: 40,
		Unit:              "kg",
	})

	require.NoError(t, err)
	assert.Equal(t, "crop-1", listing.CropID)
	assert.Equal(t, "farmer-1", listing.FarmerID)
	require.Len(t, repo.createdListings, 1)
}

func TestCreateListing_ForeignCropLooksAbsent(t *testing.T) {
	repo := &mockRepository{crop: &models.Crop{ID: "crop-1", FarmerID: "farmer-1"}}
	svc := NewService(repo)

	_, err := svc.CreateListing(context.Background(), "farmer-2", models.CreateCropListingRequest{
		CropID:            "crop-1",
		UnitPrice:         5000,
		QuantityAvailable: 40,
		Unit:              "kg",
	})

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, repo.createdListings)
}

func TestCreateCrop_DefaultsToSown(t *testing.T) {
	repo := &mockRepository{}
	svc := NewService(repo)

	crop, err := svc.CreateCrop(context.Background(), "farmer-1", "Wheat", "")

	require.NoError(t, err)
	assert.Equal(t, models.CropStatusSown, crop.Status)
}
