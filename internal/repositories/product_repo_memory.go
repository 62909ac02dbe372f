package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"pasar/internal/apperrors"
	"pasar/internal/models"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory implementation of
// ProductRepository. It backs the "memory" database driver so the server
// can run without a real database.
type MemoryProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// GetAll returns all products.
func (r *MemoryProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	return productList, nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, apperrors.ErrNotFound)
	}
	return &product, nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = *product
	return nil
}

// Save overwrites an existing product.
func (r *MemoryProductRepository) Save(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[product.ID]
	if !ok {
		return fmt.Errorf("product %s for save: %w", product.ID, apperrors.ErrNotFound)
	}
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.products[id]
	if !ok {
		return fmt.Errorf("product %s for deletion: %w", id, apperrors.ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

// GetTopByCategory returns at most limit products of a category, newest first.
func (r *MemoryProductRepository) GetTopByCategory(categoryID string, limit int) ([]models.Product, error) {
	matched := r.byCategorySorted(categoryID)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// GetByCategoryPaged returns one page of a category's products, newest
// first, plus the category's total count.
func (r *MemoryProductRepository) GetByCategoryPaged(categoryID string, page, size int) ([]models.Product, int64, error) {
	matched := r.byCategorySorted(categoryID)
	total := int64(len(matched))
	return slicePage(matched, page, size), total, nil
}

// GetLatestPaged returns one page across all categories, newest first,
// plus the total count.
func (r *MemoryProductRepository) GetLatestPaged(page, size int) ([]models.Product, int64, error) {
	matched := r.byCategorySorted("")
	total := int64(len(matched))
	return slicePage(matched, page, size), total, nil
}

// GetByUserID returns all products owned by a user.
func (r *MemoryProductRepository) GetByUserID(userID string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Product
	for _, p := range r.products {
		if p.UserID == userID {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// byCategorySorted returns products of a category (or all products when
// categoryID is empty) ordered by creation time descending.
func (r *MemoryProductRepository) byCategorySorted(categoryID string) []models.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if categoryID == "" || p.CategoryID == categoryID {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched
}

// slicePage tolerates negative input the way the gorm driver does: a
// negative page reads as the first page, a negative size as no limit.
func slicePage(products []models.Product, page, size int) []models.Product {
	if page < 0 {
		page = 0
	}
	if size < 0 {
		return products
	}
	start := page * size
	if start >= len(products) {
		return []models.Product{}
	}
	end := start + size
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}
