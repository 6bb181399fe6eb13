package cart

import (
	"context"
	"testing"
	"time"

	"farmcon/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	ListByUserFunc     func(ctx context.Context, userID string) ([]models.CartItemDetail, error)
	UpsertFunc         func(ctx context.Context, item *models.CartItem) error
	UpdateQuantityFunc func(ctx context.Context, itemID, userID string, quantity int) error
	RemoveFunc         func(ctx context.Context, itemID, userID string) error
	ClearFunc          func(ctx context.Context, userID string) error
}

func (m *mockRepository) ListByUser(ctx context.Context, userID string) ([]models.CartItemDetail, error) {
	return m.ListByUserFunc(ctx, userID)
}
func (m *mockRepository) Upsert(ctx context.Context, item *models.CartItem) error {
	return m.UpsertFunc(ctx, item)
}
func (m *mockRepository) UpdateQuantity(ctx context.Context, itemID, userID string, quantity int) error {
	return m.UpdateQuantityFunc(ctx, itemID, userID, quantity)
}
func (m *mockRepository) Remove(ctx context.Context, itemID, userID string) error {
	return m.RemoveFunc(ctx, itemID, userID)
}
func (m *mockRepository) Clear(ctx context.Context, userID string) error {
	return m.ClearFunc(ctx, userID)
}

// mockCache records sets and deletes and can be pre-seeded with a hit.
type mockCache struct {
	hit        bool
	hitValue   []models.CartItemDetail
	setKeys    []string
	deleteKeys []string
}

func (m *mockCache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if !m.hit {
		return false
	}
	*(dest.(*[]models.CartItemDetail)) = m.hitValue
	return true
}
func (m *mockCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	m.setKeys = append(m.setKeys, key)
}
func (m *mockCache) Delete(ctx context.Context, keys ...string) {
	m.deleteKeys = append(m.deleteKeys, keys...)
}

type mockCatalog struct {
	product *models.Product
	listing *models.CropListing
}

func (m *mockCatalog) FindProductByID(ctx context.Context, productID string) (*models.Product, error) {
	if m.product == nil {
		return nil, models.ErrNotFound
	}
	return m.product, nil
}
func (m *mockCatalog) FindListingByID(ctx context.Context, listingID string) (*models.CropListing, error) {
	if m.listing == nil {
		return nil, models.ErrNotFound
	}
	return m.listing, nil
}

// stockedCatalog has plenty of everything, for tests that are not about
// availability.
func stockedCatalog() *mockCatalog {
	return &mockCatalog{
		product: &models.Product{ID: "prod-1", StockQuantity: 100, IsActive: true},
		listing: &models.CropListing{ID: "listing-1", QuantityAvailable: 100, IsActive: true},
	}
}

func strPtr(s string) *string { return &s }

func TestGet_CacheHitSkipsRepository(t *testing.T) {
	cached := []models.CartItemDetail{{CartItem: models.CartItem{ID: "item-1"}, Name: "Tomatoes"}}
	repoCalled := false
	repo := &mockRepository{
		ListByUserFunc: func(ctx context.Context, userID string) ([]models.CartItemDetail, error) {
			repoCalled = true
			return nil, nil
		},
	}
	svc := NewService(repo, &mockCache{hit: true, hitValue: cached}, stockedCatalog())

	items, err := svc.Get(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, cached, items)
	assert.False(t, repoCalled, "cache hit must not touch the repository")
}

func TestGet_CacheMissReadsThroughAndPopulates(t *testing.T) {
	fromDB := []models.CartItemDetail{{CartItem: models.CartItem{ID: "item-1"}, Name: "Seeds"}}
	repo := &mockRepository{
		ListByUserFunc: func(ctx context.Context, userID string) ([]models.CartItemDetail, error) {
			return fromDB, nil
		},
	}
	cache := &mockCache{}
	svc := NewService(repo, cache, stockedCatalog())

	items, err := svc.Get(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, fromDB, items)
	assert.Equal(t, []string{"cart:user-1"}, cache.setKeys)
}

func TestAdd_RejectsAmbiguousItemReference(t *testing.T) {
	tests := []struct {
		name string
		req  models.AddCartItemRequest
	}{
		{
			name: "neither product nor listing",
			req:  models.AddCartItemRequest{Quantity: 1},
		},
		{
			name: "both product and listing",
			req: models.AddCartItemRequest{
				ProductID:     strPtr("prod-1"),
				CropListingID: strPtr("listing-1"),
				Quantity:      1,
			},
		},
	}

	svc := NewService(&mockRepository{}, &mockCache{}, stockedCatalog())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), "user-1", tt.req)
			assert.ErrorIs(t, err, models.ErrInvalidItemReference)
		})
	}
}

func TestAdd_RejectsMoreThanAvailable(t *testing.T) {
	catalog := &mockCatalog{
		product: &models.Product{ID: "prod-1", StockQuantity: 3, IsActive: true},
		listing: &models.CropListing{ID: "listing-1", QuantityAvailable: 5, IsActive: true},
	}

	tests := []struct {
		name string
		req  models.AddCartItemRequest
	}{
		{
			name: "product beyond stock",
			req:  models.AddCartItemRequest{ProductID: strPtr("prod-1"), Quantity: 4},
		},
		{
			name: "listing beyond availability",
			req:  models.AddCartItemRequest{CropListingID: strPtr("listing-1"), Quantity: 6},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upserted := false
			repo := &mockRepository{
				UpsertFunc: func(ctx context.Context, item *models.CartItem) error {
					upserted = true
					return nil
				},
			}
			svc := NewService(repo, &mockCache{}, catalog)

			_, err := svc.Add(context.Background(), "user-1", tt.req)

			assert.ErrorIs(t, err, models.ErrOutOfStock)
			assert.False(t, upserted, "unavailable items must not reach the cart")
		})
	}
}

func TestAdd_ExactAvailabilityAccepted(t *testing.T) {
	catalog := &mockCatalog{product: &models.Product{ID: "prod-1", StockQuantity: 3, IsActive: true}}
	repo := &mockRepository{
		UpsertFunc: func(ctx context.Context, item *models.CartItem) error { return nil },
	}
	svc := NewService(repo, &mockCache{}, catalog)

	_, err := svc.Add(context.Background(), "user-1",
		models.AddCartItemRequest{ProductID: strPtr("prod-1"), Quantity: 3})

	assert.NoError(t, err)
}

func TestAdd_InactiveProductLooksAbsent(t *testing.T) {
	catalog := &mockCatalog{product: &models.Product{ID: "prod-1", StockQuantity: 10, IsActive: false}}
	svc := NewService(&mockRepository{}, &mockCache{}, catalog)

	_, err := svc.Add(context.Background(), "user-1",
		models.AddCartItemRequest{ProductID: strPtr("prod-1"), Quantity: 1})

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMutations_InvalidateCache(t *testing.T) {
	repo := &mockRepository{
		UpsertFunc: func(ctx context.Context, item *models.CartItem) error { return nil },
		UpdateQuantityFunc: func(ctx context.Context, itemID, userID string, quantity int) error {
			return nil
		},
		RemoveFunc: func(ctx context.Context, itemID, userID string) error { return nil },
		ClearFunc:  func(ctx context.Context, userID string) error { return nil },
	}

	tests := []struct {
		name   string
		mutate func(svc *Service) error
	}{
		{
			name: "add",
			mutate: func(svc *Service) error {
				_, err := svc.Add(context.Background(), "user-1",
					models.AddCartItemRequest{ProductID: strPtr("prod-1"), Quantity: 2})
				return err
			},
		},
		{
			name: "update quantity",
			mutate: func(svc *Service) error {
				return svc.UpdateQuantity(context.Background(), "item-1", "user-1", 5)
			},
		},
		{
			name: "remove",
			mutate: func(svc *Service) error {
				return svc.Remove(context.Background(), "item-1", "user-1")
			},
		},
		{
			name: "clear",
			mutate: func(svc *Service) error {
				return svc.Clear(context.Background(), "user-1")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &mockCache{}
			svc := NewService(repo, cache, stockedCatalog())

			require.NoError(t, tt.mutate(svc))
			assert.Equal(t, []string{"cart:user-1"}, cache.deleteKeys)
		})
	}
}

func TestMutationError_LeavesCacheAlone(t *testing.T) {
	repo := &mockRepository{
		RemoveFunc: func(ctx context.Context, itemID, userID string) error {
			return models.ErrNotFound
		},
	}
	cache := &mockCache{}
	svc := NewService(repo, cache, stockedCatalog())

	err := svc.Remove(context.Background(), "missing", "user-1")

	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, cache.deleteKeys)
}

func TestItemsForCheckout_BypassesCache(t *testing.T) {
	fromDB := []models.CartItemDetail{{CartItem: models.CartItem{ID: "item-1"}}}
	repo := &mockRepository{
		ListByUserFunc: func(ctx context.Context, userID string) ([]models.CartItemDetail, error) {
			return fromDB, nil
		},
	}
	// A poisoned cache hit proves the bypass.
	cache := &mockCache{hit: true, hitValue: []models.CartItemDetail{{CartItem: models.CartItem{ID: "stale"}}}}
	svc := NewService(repo, cache, stockedCatalog())

	items, err := svc.ItemsForCheckout(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, fromDB, items)
}
