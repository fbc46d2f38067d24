package repositories

import (
	"context"
	"sync"

	"catalog/internal/models"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
// The unique name invariant is checked under the write lock.
type MemoryProductRepository struct {
	products map[string]models.Product
	order    []string
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// FindAll returns all products in insertion order.
func (r *MemoryProductRepository) FindAll(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.order))
	for _, id := range r.order {
		productList = append(productList, r.products[id])
	}
	return productList, nil
}

// FindByID returns a product by its ID.
func (r *MemoryProductRepository) FindByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &product, nil
}

// FindByName returns a product by its exact name.
func (r *MemoryProductRepository) FindByName(_ context.Context, name string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, ok := r.idByName(name); ok {
		product := r.products[id]
		return &product, nil
	}
	return nil, ErrNotFound
}

// ExistsByID reports whether a product with the given ID exists.
func (r *MemoryProductRepository) ExistsByID(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.products[id]
	return ok, nil
}

// ExistsByName reports whether a product with the given name exists.
func (r *MemoryProductRepository) ExistsByName(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.idByName(name)
	return ok, nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.idByName(product.Name); taken {
		return ErrDuplicateName
	}
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	r.products[product.ID] = *product
	r.order = append(r.order, product.ID)
	return nil
}

// Update modifies an existing product.
func (r *MemoryProductRepository) Update(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return ErrNotFound
	}
	if id, taken := r.idByName(product.Name); taken && id != product.ID {
		return ErrDuplicateName
	}
	r.products[product.ID] = *product
	return nil
}

// DeleteByID removes a product by its ID.
func (r *MemoryProductRepository) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remove(id)
	return nil
}

// DeleteByName removes a product by its name.
func (r *MemoryProductRepository) DeleteByName(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.idByName(name); ok {
		r.remove(id)
	}
	return nil
}

// DeleteAll removes every product.
func (r *MemoryProductRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products = make(map[string]models.Product)
	r.order = nil
	return nil
}

// Count returns the number of stored products.
func (r *MemoryProductRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.products)), nil
}

// idByName must be called with r.mu held.
func (r *MemoryProductRepository) idByName(name string) (string, bool) {
	for id, p := range r.products {
		if p.Name == name {
			return id, true
		}
	}
	return "", false
}

// remove must be called with r.mu held for writing.
func (r *MemoryProductRepository) remove(id string) {
	if _, ok := r.products[id]; !ok {
		return
	}
	delete(r.products, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}
