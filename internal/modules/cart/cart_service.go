package cart

import (
	"context"
	"fmt"
	"time"

	"farmcon/internal/models"

	"github.com/google/uuid"
)

// cacheTTL bounds staleness for cart reads that race a mutation from another
// device; every mutation also invalidates the entry explicitly.
const cacheTTL = 60 * time.Second

// CacheInterface is the slice of the cache client the cart needs. All
// methods are fail-open: a cache outage degrades to database reads.
type CacheInterface interface {
	GetJSON(ctx context.Context, key string, dest interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration)
	Delete(ctx context.Context, keys ...string)
}

// CatalogReader resolves current availability for the item being added;
// catalog.Repository satisfies it.
type CatalogReader interface {
	FindProductByID(ctx context.Context, productID string) (*models.Product, error)
	FindListingByID(ctx context.Context, listingID string) (*models.CropListing, error)
}

// ServiceInterface defines the cart business logic.
type ServiceInterface interface {
	Get(ctx context.Context, userID string) ([]models.CartItemDetail, error)
	Add(ctx context.Context, userID string, req models.AddCartItemRequest) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, itemID, userID string, quantity int) error
	Remove(ctx context.Context, itemID, userID string) error
	Clear(ctx context.Context, userID string) error

	// ItemsForCheckout bypasses the cache: materialization must see the
	// cart as the database has it right now.
	ItemsForCheckout(ctx context.Context, userID string) ([]models.CartItemDetail, error)
	// ClearCart is Clear under the name the checkout module wires against.
	ClearCart(ctx context.Context, userID string) error
}

type Service struct {
	repo    RepositoryInterface
	cache   CacheInterface
	catalog CatalogReader
}

func NewService(repo RepositoryInterface, cache CacheInterface, catalog CatalogReader) *Service {
	return &Service{repo: repo, cache: cache, catalog: catalog}
}

func cartKey(userID string) string {
	return "cart:" + userID
}

// Get serves the cart from cache when present, reading through to the
// database otherwise.
func (s *Service) Get(ctx context.Context, userID string) ([]models.CartItemDetail, error) {
	key := cartKey(userID)

	var cached []models.CartItemDetail
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.Get: %w", err)
	}
	s.cache.SetJSON(ctx, key, items, cacheTTL)
	return items, nil
}

// Add merges with an existing row for the same item by summing quantities.
// The requested quantity must not exceed what the catalog has available; the
// floored decrement at checkout remains the final guard under concurrency.
func (s *Service) Add(ctx context.Context, userID string, req models.AddCartItemRequest) (*models.CartItem, error) {
	if (req.ProductID == nil) == (req.CropListingID == nil) {
		return nil, models.ErrInvalidItemReference
	}
	if err := s.checkAvailability(ctx, req); err != nil {
		return nil, err
	}

	item := &models.CartItem{
		ID:            uuid.NewString(),
		UserID:        userID,
		ProductID:     req.ProductID,
		CropListingID: req.CropListingID,
		Quantity:      req.Quantity,
	}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return nil, fmt.Errorf("service.Add: %w", err)
	}

	s.cache.Delete(ctx, cartKey(userID))
	return item, nil
}

func (s *Service) checkAvailability(ctx context.Context, req models.AddCartItemRequest) error {
	if req.ProductID != nil {
		product, err := s.catalog.FindProductByID(ctx, *req.ProductID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return models.ErrNotFound
		}
		if req.Quantity > product.StockQuantity {
			return models.ErrOutOfStock
		}
		return nil
	}

	listing, err := s.catalog.FindListingByID(ctx, *req.CropListingID)
	if err != nil {
		return err
	}
	if !listing.IsActive {
		return models.ErrNotFound
	}
	if req.Quantity > listing.QuantityAvailable {
		return models.ErrOutOfStock
	}
	return nil
}

func (s *Service) UpdateQuantity(ctx context.Context, itemID, userID string, quantity int) error {
	if err := s.repo.UpdateQuantity(ctx, itemID, userID, quantity); err != nil {
		return err
	}
	s.cache.Delete(ctx, cartKey(userID))
	return nil
}

func (s *Service) Remove(ctx context.Context, itemID, userID string) error {
	if err := s.repo.Remove(ctx, itemID, userID); err != nil {
		return err
	}
	s.cache.Delete(ctx, cartKey(userID))
	return nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return err
	}
	s.cache.Delete(ctx, cartKey(userID))
	return nil
}

func (s *Service) ItemsForCheckout(ctx context.Context, userID string) ([]models.CartItemDetail, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ClearCart(ctx context.Context, userID string) error {
	return s.Clear(ctx, userID)
}
