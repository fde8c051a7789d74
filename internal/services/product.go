package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stockkeep/apiserver/types"
)

// ProductRepository defines owner-scoped persistence operations for products.
type ProductRepository interface {
	List(ctx context.Context, ownerID int) ([]types.Product, error)
	Get(ctx context.Context, ownerID, id int) (types.Product, error)
	Create(ctx context.Context, ownerID int, in types.ProductInput) (types.Product, error)
	Update(ctx context.Context, ownerID, id int, in types.ProductInput) (types.Product, error)
	Delete(ctx context.Context, ownerID, id int) error
	Statistics(ctx context.Context, ownerID int) (types.Statistics, error)
}

// ProductService encapsulates product use-cases. Every operation is bound to
// the calling identity; there is no unscoped access path.
type ProductService struct {
	repo   ProductRepository
	events EventPublisher
	logger *slog.Logger
}

func NewProductService(repo ProductRepository, events EventPublisher, logger *slog.Logger) *ProductService {
	if events == nil {
		events = NopEventPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductService{repo: repo, events: events, logger: logger}
}

func (s *ProductService) List(ctx context.Context, caller types.Identity) ([]types.Product, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, caller.UserID)
}

func (s *ProductService) Get(ctx context.Context, caller types.Identity, id int) (types.Product, error) {
	if err := requireCaller(caller); err != nil {
		return types.Product{}, err
	}
	return s.repo.Get(ctx, caller.UserID, id)
}

func (s *ProductService) Create(ctx context.Context, caller types.Identity, in types.ProductInput) (types.Product, error) {
	if err := requireCaller(caller); err != nil {
		return types.Product{}, err
	}
	in, err := normalizeProductInput(in)
	if err != nil {
		return types.Product{}, err
	}

	product, err := s.repo.Create(ctx, caller.UserID, in)
	if err != nil {
		return types.Product{}, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created", "user_id", caller.UserID, "product_id", product.ID)
	s.events.ProductChanged(ctx, types.ProductCreated, product)
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, caller types.Identity, id int, in types.ProductInput) (types.Product, error) {
	if err := requireCaller(caller); err != nil {
		return types.Product{}, err
	}
	in, err := normalizeProductInput(in)
	if err != nil {
		return types.Product{}, err
	}

	product, err := s.repo.Update(ctx, caller.UserID, id, in)
	if err != nil {
		return types.Product{}, err
	}

	s.events.ProductChanged(ctx, types.ProductUpdated, product)
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, caller types.Identity, id int) error {
	if err := requireCaller(caller); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, caller.UserID, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "product deleted", "user_id", caller.UserID, "product_id", id)
	s.events.ProductChanged(ctx, types.ProductDeleted, types.Product{ID: id, UserID: caller.UserID})
	return nil
}

// Statistics summarizes the caller's inventory.
func (s *ProductService) Statistics(ctx context.Context, caller types.Identity) (types.Statistics, error) {
	if err := requireCaller(caller); err != nil {
		return types.Statistics{}, err
	}
	return s.repo.Statistics(ctx, caller.UserID)
}

func requireCaller(caller types.Identity) error {
	if caller.UserID < 1 {
		return ErrMissingToken
	}
	return nil
}

func normalizeProductInput(in types.ProductInput) (types.ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)

	switch {
	case in.Name == "":
		return in, invalidf("name is required")
	case in.Category == "":
		return in, invalidf("category is required")
	case in.Price < 0:
		return in, invalidf("price must not be negative")
	case in.Quantity < 0:
		return in, invalidf("quantity must not be negative")
	}
	return in, nil
}
