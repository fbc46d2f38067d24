package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// productRecord is the row layout; CreatedAt only keeps FindAll in insertion order.
type productRecord struct {
	models.Product
	CreatedAt time.Time `gorm:"index"`
}

func (productRecord) TableName() string {
	return models.Product{}.TableName()
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
// db should be opened with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Migrate creates or updates the products table and its unique name index.
func (r *GORMProductRepository) Migrate() error {
	if err := r.db.AutoMigrate(&productRecord{}); err != nil {
		return fmt.Errorf("failed to migrate products: %w", err)
	}
	return nil
}

// FindAll retrieves all products in insertion order.
func (r *GORMProductRepository) FindAll(ctx context.Context) ([]models.Product, error) {
	var records []productRecord
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	products := make([]models.Product, 0, len(records))
	for _, rec := range records {
		products = append(products, rec.Product)
	}
	return products, nil
}

// FindByID retrieves a single product by its ID.
func (r *GORMProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByName retrieves a single product by its exact name.
func (r *GORMProductRepository) FindByName(ctx context.Context, name string) (*models.Product, error) {
	return r.findOne(ctx, "name = ?", name)
}

func (r *GORMProductRepository) findOne(ctx context.Context, query string, key string) (*models.Product, error) {
	var rec productRecord
	if err := r.db.WithContext(ctx).Where(query, key).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product by %q: %w", key, err)
	}
	return &rec.Product, nil
}

// ExistsByID reports whether a product with the given ID exists.
func (r *GORMProductRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	return r.exists(ctx, "id = ?", id)
}

// ExistsByName reports whether a product with the given name exists.
func (r *GORMProductRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	return r.exists(ctx, "name = ?", name)
}

func (r *GORMProductRepository) exists(ctx context.Context, query string, key string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&productRecord{}).Where(query, key).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check product %q: %w", key, err)
	}
	return count > 0, nil
}

// Create inserts a new product, generating its ID.
func (r *GORMProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	rec := productRecord{Product: *product, CreatedAt: time.Now()}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update writes every mutable column of an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(&productRecord{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"quantity":    product.Quantity,
		})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByID deletes a product by its ID. Deleting a missing product is not an error.
func (r *GORMProductRepository) DeleteByID(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&productRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

// DeleteByName deletes a product by its name. Deleting a missing product is not an error.
func (r *GORMProductRepository) DeleteByName(ctx context.Context, name string) error {
	if err := r.db.WithContext(ctx).Where("name = ?", name).Delete(&productRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete product %q: %w", name, err)
	}
	return nil
}

// DeleteAll removes every product.
func (r *GORMProductRepository) DeleteAll(ctx context.Context) error {
	err := r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&productRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete all products: %w", err)
	}
	return nil
}

// Count returns the number of stored products.
func (r *GORMProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&productRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}
