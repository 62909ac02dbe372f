package repositories

import (
	"pasar/internal/models"
)

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	Create(product *models.Product) error
	Save(product *models.Product) error
	Delete(id string) error
	GetTopByCategory(categoryID string, limit int) ([]models.Product, error)
	GetByCategoryPaged(categoryID string, page, size int) ([]models.Product, int64, error)
	GetLatestPaged(page, size int) ([]models.Product, int64, error)
	GetByUserID(userID string) ([]models.Product, error)
}

// CategoryRepository defines the interface for category data access.
type CategoryRepository interface {
	GetAll() ([]models.Category, error)
	GetByID(id string) (*models.Category, error)
	Create(category *models.Category) error
}
