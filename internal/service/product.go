package service

import (
	"context"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/product-catalog/internal/domain"
	"github.com/kahvecikaan/product-catalog/internal/events"
	"github.com/kahvecikaan/product-catalog/internal/metrics"
	"github.com/kahvecikaan/product-catalog/internal/repository"
)

type ProductService interface {
	ListProducts(ctx context.Context) (Products, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, in domain.ProductCreate) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	CountProducts(ctx context.Context) (int, error)
}

type productService struct {
	repo     repository.ProductRepository
	factory  *domain.Factory
	eventBus *events.EventBus[any]
	logger   hclog.Logger

	// writeMu makes an update's read-merge-write a single step with respect
	// to deletes, since repo.Update re-inserts missing entries.
	writeMu sync.Mutex
}

type Products []*domain.Product

func NewProductService(
	repo repository.ProductRepository,
	factory *domain.Factory,
	eventBus *events.EventBus[any],
	logger hclog.Logger) ProductService {
	return &productService{
		repo:     repo,
		factory:  factory,
		eventBus: eventBus,
		logger:   logger,
	}
}

func (s *productService) ListProducts(ctx context.Context) (Products, error) {
	s.logger.Debug("Listing products")

	products, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Unable to list products", "error", err)
		return nil, err
	}

	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	s.logger.Debug("Getting product", "id", id)

	product, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		s.logger.Error("Unable to get product", "id", id, "error", err)
		return nil, err
	}
	if !ok {
		return nil, domain.NotFound(id)
	}

	return product, nil
}

func (s *productService) CreateProduct(ctx context.Context, in domain.ProductCreate) (*domain.Product, error) {
	s.logger.Debug("Creating product")

	parsed, err := s.factory.Validation.ParseCreate(in)
	if err != nil {
		s.logger.Debug("Rejected product", "error", err)
		return nil, err
	}

	product, err := s.factory.Create(parsed)
	if err != nil {
		s.logger.Debug("Rejected product", "error", err)
		return nil, err
	}

	if err := s.repo.Add(ctx, product); err != nil {
		s.logger.Error("Unable to add product", "name", product.Name, "error", err)
		return nil, err
	}

	metrics.ProductsCreated.Inc()
	s.eventBus.Publish(events.ProductAdded{ProductID: product.ID, Name: product.Name})
	s.logger.Info("Created product", "id", product.ID, "name", product.Name)

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	s.logger.Debug("Updating product", "id", id)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	existing, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		s.logger.Error("Unable to get product for update", "id", id, "error", err)
		return nil, err
	}
	if !ok {
		return nil, domain.NotFound(id)
	}

	parsed, err := s.factory.Validation.ParsePatch(patch)
	if err != nil {
		s.logger.Debug("Rejected product update", "id", id, "error", err)
		return nil, err
	}

	updated, err := s.factory.Update(*existing, parsed)
	if err != nil {
		s.logger.Debug("Rejected product update", "id", id, "error", err)
		return nil, err
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		s.logger.Error("Unable to update product", "id", id, "error", err)
		return nil, err
	}

	metrics.ProductsUpdated.Inc()
	s.eventBus.Publish(events.ProductUpdated{ProductID: updated.ID, Name: updated.Name})

	return updated, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	s.logger.Debug("Deleting product", "id", id)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("Unable to delete product", "id", id, "error", err)
		return err
	}
	if !removed {
		return domain.NotFound(id)
	}

	metrics.ProductsDeleted.Inc()
	s.eventBus.Publish(events.ProductDeleted{ProductID: id})
	s.logger.Info("Deleted product", "id", id)

	return nil
}

func (s *productService) CountProducts(ctx context.Context) (int, error) {
	n, err := s.repo.Len(ctx)
	if err != nil {
		s.logger.Error("Unable to count products", "error", err)
		return 0, err
	}
	return n, nil
}
