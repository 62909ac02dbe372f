// Package dto defines the wire-format projections of the domain entities.
// Conversion is pure field copying; no business logic lives here.
package dto

import (
	"time"

	"pasar/internal/models"
)

// ProductDTO is the full wire representation of a product.
type ProductDTO struct {
	ID                string            `json:"id,omitempty"`
	Title             string            `json:"title" validate:"required,min=3,max=100"`
	Price             float64           `json:"price" validate:"required,gt=0"`
	Description       string            `json:"description" validate:"omitempty,max=2000"`
	ShippingAvailable bool              `json:"shipping_available"`
	ItemCondition     string            `json:"item_condition" validate:"required"`
	ProductStatus     string            `json:"product_status" validate:"omitempty"`
	Attributes        map[string]string `json:"attributes,omitempty"`
	CategoryID        string            `json:"category_id" validate:"required"`
	CategoryName      string            `json:"category_name,omitempty"`
	ImageURLs         []string          `json:"image_urls"`
	ViewCount         int64             `json:"view_count"`
	UserID            string            `json:"user_id,omitempty"`
	CreatedAt         time.Time         `json:"created_at,omitempty"`
	UpdatedAt         time.Time         `json:"updated_at,omitempty"`
}

// BasicProductDTO is a trimmed projection for list views. Its image list
// never holds more than one entry to keep feed payloads small.
type BasicProductDTO struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Price             float64   `json:"price"`
	Description       string    `json:"description"`
	ShippingAvailable bool      `json:"shipping_available"`
	ProductStatus     string    `json:"product_status"`
	CategoryID        string    `json:"category_id"`
	CategoryName      string    `json:"category_name,omitempty"`
	ImageURLs         []string  `json:"image_urls"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProductStatusUpdateDTO carries just the status field for the
// status-only update endpoint.
type ProductStatusUpdateDTO struct {
	ProductStatus string `json:"product_status" validate:"required"`
}

// Page is a bounded slice of an ordered result set plus total-count metadata.
type Page struct {
	Content       []BasicProductDTO `json:"content"`
	Page          int               `json:"page"`
	Size          int               `json:"size"`
	TotalElements int64             `json:"total_elements"`
	TotalPages    int               `json:"total_pages"`
}

// NewPage assembles a page envelope from a slice of products and the total
// row count reported by the repository.
func NewPage(products []models.Product, page, size int, total int64) Page {
	content := make([]BasicProductDTO, 0, len(products))
	for i := range products {
		content = append(content, ToBasicProductDTO(&products[i]))
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return Page{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

// ToProductDTO copies every product field onto the full DTO.
func ToProductDTO(p *models.Product) ProductDTO {
	d := ProductDTO{
		ID:                p.ID,
		Title:             p.Title,
		Price:             p.Price,
		Description:       p.Description,
		ShippingAvailable: p.ShippingAvailable,
		ItemCondition:     string(p.ItemCondition),
		ProductStatus:     string(p.ProductStatus),
		Attributes:        p.Attributes,
		CategoryID:        p.CategoryID,
		ImageURLs:         p.ImageURLs,
		ViewCount:         p.ViewCount,
		UserID:            p.UserID,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if d.ImageURLs == nil {
		d.ImageURLs = []string{}
	}
	if p.Category != nil {
		d.CategoryName = p.Category.Name
	}
	return d
}

// ToBasicProductDTO copies the list-view fields, keeping only the first
// image URL regardless of how many the product carries.
func ToBasicProductDTO(p *models.Product) BasicProductDTO {
	d := BasicProductDTO{
		ID:                p.ID,
		Title:             p.Title,
		Price:             p.Price,
		Description:       p.Description,
		ShippingAvailable: p.ShippingAvailable,
		ProductStatus:     string(p.ProductStatus),
		CategoryID:        p.CategoryID,
		ImageURLs:         []string{},
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if len(p.ImageURLs) > 0 {
		d.ImageURLs = []string{p.ImageURLs[0]}
	}
	if p.Category != nil {
		d.CategoryName = p.Category.Name
	}
	return d
}
