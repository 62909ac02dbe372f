package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"

	"pasar/internal/apperrors"
	"pasar/internal/dto"
	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/services"
	"pasar/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for product listings.
type ProductHandler struct {
	service  *services.ProductService
	storage  *storage.LocalStorage
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService, fileStorage *storage.LocalStorage) *ProductHandler {
	return &ProductHandler{
		service:  service,
		storage:  fileStorage,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app. Mutation
// routes require a valid token; create and edit additionally require the
// "USER" role. The catch-all GET /:id route goes last so it cannot shadow
// the named routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, authService *services.AuthService) {
	authRequired := middleware.AuthRequired(authService)
	userRole := middleware.RequireRole("USER")

	productRoutes := router.Group("/products")
	productRoutes.Get("/all-products", h.HandleGetAllProducts)
	productRoutes.Get("/latest-by-category/:categoryId", h.HandleLatestByCategory)
	productRoutes.Get("/latest-by-category-wp/:categoryId", h.HandleLatestByCategoryPaged)
	productRoutes.Get("/latest-products", h.HandleLatestProducts)
	productRoutes.Get("/my-products", authRequired, h.HandleMyProducts)
	productRoutes.Post("/create-product", authRequired, userRole, h.HandleCreateProduct)
	productRoutes.Put("/edit-product/:productId", authRequired, userRole, h.HandleEditProduct)
	// TODO: status update and delete accept any authenticated caller; they
	// should verify ownership the way edit-product does.
	productRoutes.Put("/:id/status", authRequired, h.HandleUpdateStatus)
	productRoutes.Delete("/:id", authRequired, h.HandleDeleteProduct)
	productRoutes.Get("/:id", h.HandleGetProductByID)
}

// statusForError maps a service error kind to an HTTP status code.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperrors.ErrValidation):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// HandleGetAllProducts retrieves every product as full DTOs. Public and
// unbounded.
func (h *ProductHandler) HandleGetAllProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		log.Printf("Error getting all products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
		})
	}
	return c.JSON(toProductDTOs(products))
}

// HandleGetProductByID retrieves a single product by its ID. Every fetch
// counts as a view, so the view count is incremented as a side effect.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.IncrementViewCount(productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", productID),
			})
		}
		log.Printf("Error getting product by ID %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
		})
	}
	return c.JSON(dto.ToProductDTO(product))
}

// HandleMyProducts returns the authenticated caller's products. On an
// internal failure the endpoint answers 500 with an empty list.
func (h *ProductHandler) HandleMyProducts(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	products, err := h.service.GetProductsByUser(userID)
	if err != nil {
		log.Printf("Error getting products for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON([]dto.ProductDTO{})
	}
	return c.JSON(toProductDTOs(products))
}

// HandleCreateProduct creates a listing from a multipart request carrying a
// "product" JSON field and optional "images" file parts. Two-phase: the
// entity is persisted first, then files are stored keyed by the new ID and
// the entity is re-saved with the resulting URLs. A crash between phases
// leaves a product without images; there is no compensation.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	productDTO, ok := h.parseProductForm(c)
	if !ok {
		return nil // response already written
	}

	userID, _ := c.Locals("user_id").(string)
	product, err := h.service.CreateProduct(productDTO, userID)
	if err != nil {
		log.Printf("Error creating product for user %s: %v", userID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Failed to create product",
		})
	}

	if files := h.formFiles(c); len(files) > 0 {
		storedNames, err := h.storage.StoreFiles(files, product.ID)
		if err != nil {
			log.Printf("Error storing images for product %s: %v", product.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to create product with images",
			})
		}
		imageURLs := make([]string, 0, len(storedNames))
		for _, name := range storedNames {
			imageURLs = append(imageURLs, h.storage.ImageURL(name))
		}
		product.ImageURLs = imageURLs
		if err := h.service.SaveProduct(product); err != nil {
			log.Printf("Error saving image URLs for product %s: %v", product.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to create product with images",
			})
		}
	}

	return c.JSON(dto.ToProductDTO(product))
}

// HandleEditProduct overwrites an existing listing. Only the owner may
// edit; the payload mirrors create-product.
func (h *ProductHandler) HandleEditProduct(c *fiber.Ctx) error {
	productID := c.Params("productId")
	productDTO, ok := h.parseProductForm(c)
	if !ok {
		return nil
	}

	existing, err := h.service.GetProductByID(productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		log.Printf("Error loading product %s for edit: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to edit product",
		})
	}

	userID, _ := c.Locals("user_id").(string)
	if existing.UserID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "You do not have permission to edit this product",
		})
	}

	if files := h.formFiles(c); len(files) > 0 {
		storedNames, err := h.storage.StoreFiles(files, existing.ID)
		if err != nil {
			log.Printf("Error storing images for product %s: %v", existing.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to edit product",
			})
		}
		imageURLs := make([]string, 0, len(storedNames))
		for _, name := range storedNames {
			imageURLs = append(imageURLs, h.storage.ImageURL(name))
		}
		productDTO.ImageURLs = imageURLs
	}

	updated, err := h.service.UpdateProduct(productDTO, existing)
	if err != nil {
		log.Printf("Error updating product %s: %v", productID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Failed to edit product",
		})
	}
	return c.JSON(dto.ToProductDTO(updated))
}

// HandleUpdateStatus overwrites only the status of a listing and returns a
// minimal status DTO.
func (h *ProductHandler) HandleUpdateStatus(c *fiber.Ctx) error {
	productID := c.Params("id")
	var statusUpdate dto.ProductStatusUpdateDTO
	if err := c.BodyParser(&statusUpdate); err != nil {
		log.Printf("Error parsing status update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	newStatus, err := models.ParseProductStatus(statusUpdate.ProductStatus)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product status",
			"error":   err.Error(),
		})
	}

	product, err := h.service.GetProductByID(productID)
	if err != nil {
		log.Printf("Error loading product %s for status update: %v", productID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Failed to update product status",
		})
	}

	product.ProductStatus = newStatus
	if err := h.service.SaveProduct(product); err != nil {
		log.Printf("Error saving status for product %s: %v", productID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to update product status",
		})
	}

	return c.JSON(dto.ProductStatusUpdateDTO{ProductStatus: string(product.ProductStatus)})
}

// HandleDeleteProduct removes a listing permanently. 200 with an empty body
// on success.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	productID := c.Params("id")
	product, err := h.service.GetProductByID(productID)
	if err != nil {
		log.Printf("Error loading product %s for deletion: %v", productID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Failed to delete product",
		})
	}

	if err := h.service.DeleteProduct(product); err != nil {
		log.Printf("Error deleting product %s: %v", productID, err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"message": "Failed to delete product",
		})
	}
	return c.SendStatus(fiber.StatusOK)
}

// HandleLatestByCategory returns the fixed top-16 feed for a category, or
// 204 No Content when the category has no products.
func (h *ProductHandler) HandleLatestByCategory(c *fiber.Ctx) error {
	categoryID := c.Params("categoryId")
	products, err := h.service.GetLatestByCategory(categoryID)
	if err != nil {
		log.Printf("Error getting latest products for category %s: %v", categoryID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
		})
	}
	if len(products) == 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(products)
}

// pagination reads the page and size query parameters and clamps hostile
// values: a negative page reads as the first page, a non-positive size
// falls back to the route default.
func pagination(c *fiber.Ctx, defaultSize int) (int, int) {
	page := c.QueryInt("page", 0)
	if page < 0 {
		page = 0
	}
	size := c.QueryInt("size", defaultSize)
	if size <= 0 {
		size = defaultSize
	}
	return page, size
}

// HandleLatestByCategoryPaged returns one page of a category's products.
// Defaults: page 0, size 7.
func (h *ProductHandler) HandleLatestByCategoryPaged(c *fiber.Ctx) error {
	categoryID := c.Params("categoryId")
	page, size := pagination(c, 7)

	result, err := h.service.GetLatestByCategoryPaged(categoryID, page, size)
	if err != nil {
		log.Printf("Error getting paged products for category %s: %v", categoryID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
		})
	}
	return c.JSON(result)
}

// HandleLatestProducts returns one page across all categories. Defaults:
// page 0, size 25.
func (h *ProductHandler) HandleLatestProducts(c *fiber.Ctx) error {
	page, size := pagination(c, 25)

	result, err := h.service.GetLatestProducts(page, size)
	if err != nil {
		log.Printf("Error getting latest products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve products",
		})
	}
	return c.JSON(result)
}

// parseProductForm extracts and validates the "product" JSON field of a
// multipart request. On failure it writes the error response and returns
// ok=false.
func (h *ProductHandler) parseProductForm(c *fiber.Ctx) (*dto.ProductDTO, bool) {
	productJSON := c.FormValue("product")
	if productJSON == "" {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Missing 'product' form field",
		})
		return nil, false
	}

	var productDTO dto.ProductDTO
	if err := json.Unmarshal([]byte(productJSON), &productDTO); err != nil {
		log.Printf("Error parsing product JSON: %v", err)
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid product JSON",
			"error":   err.Error(),
		})
		return nil, false
	}

	if err := h.validate.Struct(productDTO); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
		return nil, false
	}
	return &productDTO, true
}

// formFiles returns the "images" file parts of a multipart request, if any.
func (h *ProductHandler) formFiles(c *fiber.Ctx) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File["images"]
}

func toProductDTOs(products []models.Product) []dto.ProductDTO {
	result := make([]dto.ProductDTO, 0, len(products))
	for i := range products {
		result = append(result, dto.ToProductDTO(&products[i]))
	}
	return result
}
