package repositories

import (
	"errors"
	"fmt"

	"pasar/internal/apperrors"
	"pasar/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
// Associated categories are loaded eagerly so DTO conversion never relies
// on lazy loading.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// GetAll retrieves all products from the database. Unbounded; callers that
// need a bounded result should use GetLatestPaged.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Preload("Category").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID from the database.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.Preload("Category").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &product, nil
}

// Create creates a new product in the database.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Omit("Category").Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Save updates an existing product in the database. Save writes all fields,
// including zero values.
func (r *GORMProductRepository) Save(product *models.Product) error {
	res := r.db.Omit("Category").Save(product)
	if res.Error != nil {
		return fmt.Errorf("failed to save product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s for save: %w", product.ID, apperrors.ErrNotFound)
	}
	return nil
}

// Delete removes a product by its ID from the database. Hard delete, no
// tombstone.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product %s for deletion: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// GetTopByCategory retrieves the newest products of a category, at most
// limit of them, ordered by creation time descending.
func (r *GORMProductRepository) GetTopByCategory(categoryID string, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.Preload("Category").
		Where("category_id = ?", categoryID).
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top products for category %s: %w", categoryID, err)
	}
	return products, nil
}

// GetByCategoryPaged retrieves one page of a category's products ordered by
// creation time descending, plus the total row count for the category.
func (r *GORMProductRepository) GetByCategoryPaged(categoryID string, page, size int) ([]models.Product, int64, error) {
	var total int64
	if err := r.db.Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products for category %s: %w", categoryID, err)
	}

	var products []models.Product
	err := r.db.Preload("Category").
		Where("category_id = ?", categoryID).
		Order("created_at DESC").
		Offset(page * size).
		Limit(size).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get paged products for category %s: %w", categoryID, err)
	}
	return products, total, nil
}

// GetLatestPaged retrieves one page across all categories ordered by
// creation time descending, plus the total row count.
func (r *GORMProductRepository) GetLatestPaged(page, size int) ([]models.Product, int64, error) {
	var total int64
	if err := r.db.Model(&models.Product{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var products []models.Product
	err := r.db.Preload("Category").
		Order("created_at DESC").
		Offset(page * size).
		Limit(size).
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get latest products: %w", err)
	}
	return products, total, nil
}

// GetByUserID retrieves all products owned by a user. Ordering beyond the
// store default is not guaranteed.
func (r *GORMProductRepository) GetByUserID(userID string) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Preload("Category").Where("user_id = ?", userID).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products for user %s: %w", userID, err)
	}
	return products, nil
}
