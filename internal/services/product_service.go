package services

import (
	"fmt"
	"log"

	"pasar/internal/apperrors"
	"pasar/internal/dto"
	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/pkg/rabbitmq"
)

// Number of items in the fixed-size "recent items" feed per category.
const latestByCategoryLimit = 16

// ProductService handles business logic related to product listings.
type ProductService struct {
	productRepo  repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
	userRepo     repositories.UserRepository
	mqClient     *rabbitmq.Client // optional, may be nil
}

// NewProductService creates a new ProductService. mqClient may be nil, in
// which case lifecycle events are not published.
func NewProductService(
	productRepo repositories.ProductRepository,
	categoryRepo repositories.CategoryRepository,
	userRepo repositories.UserRepository,
	mqClient *rabbitmq.Client,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		mqClient:     mqClient,
	}
}

// GetAllProducts retrieves all products. Unbounded; the paged feeds are the
// scalable alternative.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.productRepo.GetAll()
}

// GetProductByID retrieves a single product by its ID. Absence comes back
// as an error wrapping apperrors.ErrNotFound.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.productRepo.GetByID(id)
}

// CreateProduct builds a new product from the DTO for the given owner.
// The referenced category and owner must exist. Image URLs are attached by
// the caller after file storage; the product is created with an empty list
// and a view count of zero.
func (s *ProductService) CreateProduct(d *dto.ProductDTO, ownerID string) (*models.Product, error) {
	condition, err := models.ParseItemCondition(d.ItemCondition)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperrors.ErrValidation)
	}

	status := models.StatusActive
	if d.ProductStatus != "" {
		status, err = models.ParseProductStatus(d.ProductStatus)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, apperrors.ErrValidation)
		}
	}

	category, err := s.categoryRepo.GetByID(d.CategoryID)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ownerID)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Title:             d.Title,
		Price:             d.Price,
		Description:       d.Description,
		ShippingAvailable: d.ShippingAvailable,
		ItemCondition:     condition,
		ProductStatus:     status,
		Attributes:        d.Attributes,
		ImageURLs:         []string{},
		ViewCount:         0,
		UserID:            user.ID,
		CategoryID:        category.ID,
		Category:          category,
	}

	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	s.publishEvent("product.created", product)
	return product, nil
}

// IncrementViewCount bumps a product's view count by one and returns the
// updated product. Plain read-modify-write; concurrent increments against
// the same product may lose an update, which is accepted here.
func (s *ProductService) IncrementViewCount(id string) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	product.ViewCount++
	if err := s.productRepo.Save(product); err != nil {
		return nil, err
	}
	return product, nil
}

// SaveProduct persists the product as-is. Used for the second phase of
// create (attaching image URLs) and for the status-only update.
func (s *ProductService) SaveProduct(product *models.Product) error {
	return s.productRepo.Save(product)
}

// UpdateProduct overwrites the editable fields of an existing product from
// the DTO. The owner, ID, creation time and view count are never touched.
// The category is swapped only when the DTO references a different one, and
// the new category must exist.
func (s *ProductService) UpdateProduct(d *dto.ProductDTO, existing *models.Product) (*models.Product, error) {
	condition, err := models.ParseItemCondition(d.ItemCondition)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperrors.ErrValidation)
	}
	status := existing.ProductStatus
	if d.ProductStatus != "" {
		status, err = models.ParseProductStatus(d.ProductStatus)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, apperrors.ErrValidation)
		}
	}

	existing.Title = d.Title
	existing.Price = d.Price
	existing.Description = d.Description
	existing.ShippingAvailable = d.ShippingAvailable
	existing.ItemCondition = condition
	existing.ProductStatus = status
	existing.Attributes = d.Attributes

	if existing.CategoryID != d.CategoryID {
		newCategory, err := s.categoryRepo.GetByID(d.CategoryID)
		if err != nil {
			return nil, err
		}
		existing.CategoryID = newCategory.ID
		existing.Category = newCategory
	}

	existing.ImageURLs = d.ImageURLs
	if existing.ImageURLs == nil {
		existing.ImageURLs = []string{}
	}

	if err := s.productRepo.Save(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteProduct removes the product permanently. Hard delete, no tombstone.
func (s *ProductService) DeleteProduct(product *models.Product) error {
	if err := s.productRepo.Delete(product.ID); err != nil {
		return err
	}
	s.publishEvent("product.deleted", product)
	return nil
}

// GetLatestByCategory returns the fixed-size recent-items feed for a
// category: at most 16 products, newest first, as basic DTOs.
func (s *ProductService) GetLatestByCategory(categoryID string) ([]dto.BasicProductDTO, error) {
	products, err := s.productRepo.GetTopByCategory(categoryID, latestByCategoryLimit)
	if err != nil {
		return nil, err
	}
	basics := make([]dto.BasicProductDTO, 0, len(products))
	for i := range products {
		basics = append(basics, dto.ToBasicProductDTO(&products[i]))
	}
	return basics, nil
}

// GetLatestByCategoryPaged returns one page of a category's products,
// newest first, with total-count metadata.
func (s *ProductService) GetLatestByCategoryPaged(categoryID string, page, size int) (dto.Page, error) {
	products, total, err := s.productRepo.GetByCategoryPaged(categoryID, page, size)
	if err != nil {
		return dto.Page{}, err
	}
	return dto.NewPage(products, page, size, total), nil
}

// GetLatestProducts returns one page across all categories, newest first,
// with total-count metadata.
func (s *ProductService) GetLatestProducts(page, size int) (dto.Page, error) {
	products, total, err := s.productRepo.GetLatestPaged(page, size)
	if err != nil {
		return dto.Page{}, err
	}
	return dto.NewPage(products, page, size, total), nil
}

// GetProductsByUser retrieves all products owned by a user.
func (s *ProductService) GetProductsByUser(userID string) ([]models.Product, error) {
	return s.productRepo.GetByUserID(userID)
}

// publishEvent sends a product lifecycle event to the message queue.
// Publish failures are logged, never propagated; the write already
// succeeded and the request must not fail because of the broker.
func (s *ProductService) publishEvent(event string, product *models.Product) {
	if s.mqClient == nil {
		return
	}
	payload := map[string]interface{}{
		"productID":  product.ID,
		"title":      product.Title,
		"userID":     product.UserID,
		"categoryID": product.CategoryID,
		"status":     string(product.ProductStatus),
	}
	if err := s.mqClient.PublishProductEvent(event, payload); err != nil {
		log.Printf("Warning: Failed to publish %s event for product %s: %v", event, product.ID, err)
	}
}
