package orders

import (
	"context"
	"fmt"

	"farmcon/internal/models"
)

// OrderWithItems is the detail view returned by GetOrderDetails.
type OrderWithItems struct {
	*models.Order
	Items []*models.OrderItem `json:"items"`
}

// ServiceInterface defines order queries. Order creation happens in the
// checkout module; this module reads and transitions existing orders.
type ServiceInterface interface {
	GetOrderDetails(ctx context.Context, orderID, userID, role string) (*OrderWithItems, error)
	ListMyOrders(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error)
	ListSellerOrders(ctx context.Context, sellerID string, page, limit int) ([]*models.Order, int, error)
	UpdateStatus(ctx context.Context, orderID, sellerID, status string) error
}

type Service struct {
	repo RepositoryInterface
}

func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// GetOrderDetails returns the order with its items. Only the customer, the
// seller, or an admin may see it; everyone else gets not-found so order ids
// stay unguessable.
func (s *Service) GetOrderDetails(ctx context.Context, orderID, userID, role string) (*OrderWithItems, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != userID && order.SellerID != userID && role != models.RoleAdmin {
		return nil, models.ErrNotFound
	}

	items, err := s.repo.ListItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("service.GetOrderDetails: %w", err)
	}
	return &OrderWithItems{Order: order, Items: items}, nil
}

func (s *Service) ListMyOrders(ctx context.Context, customerID string, page, limit int) ([]*models.Order, int, error) {
	return s.repo.ListByCustomer(ctx, customerID, page, limit)
}

func (s *Service) ListSellerOrders(ctx context.Context, sellerID string, page, limit int) ([]*models.Order, int, error) {
	return s.repo.ListBySeller(ctx, sellerID, page, limit)
}

// UpdateStatus lets a seller move their order through fulfilment states.
func (s *Service) UpdateStatus(ctx context.Context, orderID, sellerID, status string) error {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.SellerID != sellerID {
		return models.ErrNotFound
	}
	return s.repo.UpdateStatus(ctx, orderID, status)
}
