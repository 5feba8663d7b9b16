package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/NEARBuilders/near-merch-store-sub000/internal/domain"
	"github.com/NEARBuilders/near-merch-store-sub000/internal/repository"
	apperrors "github.com/NEARBuilders/near-merch-store-sub000/pkg/errors"
)

// OrderService exposes the admin read surface over orders. Mutation goes
// exclusively through webhook processing and the cleanup job.
type OrderService struct {
	repo   repository.OrderRepository
	logger *slog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(repo repository.OrderRepository, logger *slog.Logger) *OrderService {
	return &OrderService{repo: repo, logger: logger}
}

// GetOrder retrieves an order by id.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return order, nil
}

// ListOrdersInput holds the parameters for listing orders.
type ListOrdersInput struct {
	Status  string
	Page    int
	PerPage int
}

// ListOrders returns orders matching the input filter with the total count.
func (s *OrderService) ListOrders(ctx context.Context, input ListOrdersInput) ([]domain.Order, int, error) {
	filter := repository.OrderFilter{
		Page:    input.Page,
		PerPage: input.PerPage,
	}
	if input.Status != "" {
		if !domain.IsValidStatus(input.Status) {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("unknown order status %q", input.Status))
		}
		filter.Status = &input.Status
	}

	orders, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}
