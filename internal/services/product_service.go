package services

import (
	"context"
	"errors"

	"catalog/internal/apperrors"
	"catalog/internal/metrics"
	"catalog/internal/models"
	"catalog/internal/repositories"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo    repositories.ProductRepository
	metrics *metrics.Metrics
}

// NewProductService creates a new ProductService. m may be nil.
func NewProductService(repo repositories.ProductRepository, m *metrics.Metrics) *ProductService {
	return &ProductService{
		repo:    repo,
		metrics: m,
	}
}

// ListProducts retrieves every product in storage order.
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.FindAll(ctx)
	s.record("list", err)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.findByID(ctx, id)
	s.record("get", err)
	return product, err
}

// GetProductByName retrieves a single product by its exact name.
func (s *ProductService) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	product, err := s.repo.FindByName(ctx, name)
	if errors.Is(err, repositories.ErrNotFound) {
		err = apperrors.NotFound("Product not found with name: %s", name)
	}
	s.record("get_by_name", err)
	if err != nil {
		return nil, err
	}
	return product, nil
}

// CreateProduct stores candidate under a freshly generated ID. The candidate's
// fields must already be valid; only the name uniqueness is checked here.
func (s *ProductService) CreateProduct(ctx context.Context, candidate models.Product) (*models.Product, error) {
	product, err := s.create(ctx, candidate)
	s.record("create", err)
	return product, err
}

func (s *ProductService) create(ctx context.Context, candidate models.Product) (*models.Product, error) {
	exists, err := s.repo.ExistsByName(ctx, candidate.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicateName(candidate.Name)
	}

	product := candidate
	product.ID = ""
	if err := s.repo.Create(ctx, &product); err != nil {
		// another creator won the race for the same name
		if errors.Is(err, repositories.ErrDuplicateName) {
			return nil, duplicateName(candidate.Name)
		}
		return nil, err
	}
	if product.ID == "" {
		return nil, apperrors.Internal(nil, "Product %s was stored without an identifier", product.Name)
	}
	return &product, nil
}

// DeleteAllProducts removes every product.
func (s *ProductService) DeleteAllProducts(ctx context.Context) error {
	err := s.repo.DeleteAll(ctx)
	s.record("delete_all", err)
	return err
}

// DeleteProductByID removes a product if it exists. A missing product is not an error.
func (s *ProductService) DeleteProductByID(ctx context.Context, id string) error {
	err := s.deleteIf(ctx, s.repo.ExistsByID, s.repo.DeleteByID, id)
	s.record("delete", err)
	return err
}

// DeleteProductByName removes a product by name if it exists. A missing product is not an error.
func (s *ProductService) DeleteProductByName(ctx context.Context, name string) error {
	err := s.deleteIf(ctx, s.repo.ExistsByName, s.repo.DeleteByName, name)
	s.record("delete_by_name", err)
	return err
}

func (s *ProductService) deleteIf(
	ctx context.Context,
	exists func(context.Context, string) (bool, error),
	remove func(context.Context, string) error,
	key string,
) error {
	found, err := exists(ctx, key)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return remove(ctx, key)
}

// UpdateProductPrice replaces only the price of an existing product.
func (s *ProductService) UpdateProductPrice(ctx context.Context, id string, price float64) (*models.Product, error) {
	product, err := s.update(ctx, id, func(p models.Product) models.Product {
		return p.WithPrice(price)
	})
	s.record("update_price", err)
	return product, err
}

// UpdateProductQuantity replaces only the quantity of an existing product.
func (s *ProductService) UpdateProductQuantity(ctx context.Context, id string, quantity int) (*models.Product, error) {
	product, err := s.update(ctx, id, func(p models.Product) models.Product {
		return p.WithQuantity(quantity)
	})
	s.record("update_quantity", err)
	return product, err
}

func (s *ProductService) update(ctx context.Context, id string, change func(models.Product) models.Product) (*models.Product, error) {
	current, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := change(*current)
	if err := s.repo.Update(ctx, &updated); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFoundByID(id)
		}
		return nil, err
	}
	return &updated, nil
}

// CountProducts returns the number of stored products.
func (s *ProductService) CountProducts(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *ProductService) findByID(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, notFoundByID(id)
		}
		return nil, err
	}
	return product, nil
}

// record counts the operation under the kind of its failure, if any. Errors
// without a client-facing kind count as failures.
func (s *ProductService) record(operation string, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailure
		switch kind := apperrors.KindOf(err); kind {
		case apperrors.KindBadRequest, apperrors.KindNotFound, apperrors.KindConflict:
			result = kind.String()
		}
	}
	s.metrics.ProductOperation(operation, result)
}

func notFoundByID(id string) error {
	return apperrors.NotFound("Product not found with id: %s", id)
}

func duplicateName(name string) error {
	return apperrors.Conflict("Product already exists with name: %s", name)
}
