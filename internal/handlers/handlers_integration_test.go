package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"pasar/internal/dto"
	"pasar/internal/handlers"
	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"
	"pasar/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite and all
// handlers/services wired the way main does it. Each call gets its own
// named in-memory database so tests stay isolated.
func setupApp(t *testing.T) (*fiber.App, *services.AuthService) {
	t.Helper()

	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory database: %v", err)
	}

	err = db.AutoMigrate(&models.Category{}, &models.User{}, &models.Product{})
	if err != nil {
		t.Fatalf("failed to auto-migrate database: %v", err)
	}

	// Initialize Repositories
	productRepo := repositories.NewGORMProductRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// Initialize Services (nil for the RabbitMQ client)
	productService := services.NewProductService(productRepo, categoryRepo, userRepo, nil)
	categoryService := services.NewCategoryService(categoryRepo)
	authService := services.NewAuthService(userRepo, jwtSecret)

	fileStorage := storage.NewLocalStorage(t.TempDir(), "http://localhost:8080/images")

	// Initialize Handlers
	productHandler := handlers.NewProductHandler(productService, fileStorage)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()
	api := app.Group("/api")
	authHandler.RegisterRoutes(api)
	categoryHandler.RegisterRoutes(api, authService)
	productHandler.RegisterRoutes(api, authService)

	return app, authService
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

// registerAndLogin creates a member and returns their token and user ID.
func registerAndLogin(t *testing.T, app *fiber.App, authService *services.AuthService, username string) (string, string) {
	t.Helper()

	registerBody, _ := json.Marshal(map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(registerBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	loginBody, _ := json.Marshal(map[string]string{
		"username": username,
		"password": "password123",
	})
	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(loginBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp map[string]string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	resp.Body.Close()
	token := loginResp["token"]
	assert.NotEmpty(t, token)

	claims, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	userID, _ := claims["user_id"].(string)
	assert.NotEmpty(t, userID)

	return token, userID
}

// createCategory creates a category through the API and returns its ID.
func createCategory(t *testing.T, app *fiber.App, token, name string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"name": name})
	req := httptest.NewRequest(http.MethodPost, "/api/categories/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var category models.Category
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&category))
	resp.Body.Close()
	assert.NotEmpty(t, category.ID)
	return category.ID
}

// productRequest builds a multipart request with a "product" JSON field and
// optional "images" file parts, the payload shape of create and edit.
func productRequest(t *testing.T, method, url, token string, productDTO dto.ProductDTO, images map[string][]byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	productJSON, err := json.Marshal(productDTO)
	assert.NoError(t, err)
	assert.NoError(t, writer.WriteField("product", string(productJSON)))

	for name, data := range images {
		part, err := writer.CreateFormFile("images", name)
		assert.NoError(t, err)
		_, err = part.Write(data)
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func createProduct(t *testing.T, app *fiber.App, token string, productDTO dto.ProductDTO, images map[string][]byte) dto.ProductDTO {
	t.Helper()

	req := productRequest(t, http.MethodPost, "/api/products/create-product", token, productDTO, images)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var created dto.ProductDTO
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.NotEmpty(t, created.ID)
	return created
}

func fetchProduct(t *testing.T, app *fiber.App, id string) (dto.ProductDTO, int) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	var product dto.ProductDTO
	if resp.StatusCode == http.StatusOK {
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&product))
	}
	return product, resp.StatusCode
}

func TestCreateProductLifecycle(t *testing.T) {
	app, authService := setupApp(t)
	token, userID := registerAndLogin(t, app, authService, "seller7")
	categoryID := createCategory(t, app, token, "Cars")

	created := createProduct(t, app, token, dto.ProductDTO{
		Title:         "Bike",
		Price:         50,
		CategoryID:    categoryID,
		ItemCondition: "GOOD",
	}, nil)

	// Owner and category come from the referenced IDs; counters start clean
	assert.Equal(t, userID, created.UserID)
	assert.Equal(t, categoryID, created.CategoryID)
	assert.Equal(t, int64(0), created.ViewCount)
	assert.Empty(t, created.ImageURLs)
	assert.Equal(t, "ACTIVE", created.ProductStatus)

	// Every fetch by ID counts as a view
	fetched, status := fetchProduct(t, app, created.ID)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), fetched.ViewCount)

	fetched, _ = fetchProduct(t, app, created.ID)
	assert.Equal(t, int64(2), fetched.ViewCount)

	// Absent product is a 404
	_, status = fetchProduct(t, app, "no-such-id")
	assert.Equal(t, http.StatusNotFound, status)

	// Creating against a missing category fails with 404
	req := productRequest(t, http.MethodPost, "/api/products/create-product", token, dto.ProductDTO{
		Title:         "Ghost",
		Price:         10,
		CategoryID:    "no-such-category",
		ItemCondition: "GOOD",
	}, nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateProductWithImages(t *testing.T) {
	app, authService := setupApp(t)
	token, _ := registerAndLogin(t, app, authService, "photographer")
	categoryID := createCategory(t, app, token, "Electronics")

	created := createProduct(t, app, token, dto.ProductDTO{
		Title:         "Camera",
		Price:         120,
		CategoryID:    categoryID,
		ItemCondition: "LIKE_NEW",
	}, map[string][]byte{
		"front.jpg": []byte("front bytes"),
		"back.jpg":  []byte("back bytes"),
	})

	assert.Len(t, created.ImageURLs, 2)
	for _, url := range created.ImageURLs {
		assert.Contains(t, url, "http://localhost:8080/images/"+created.ID+"/")
	}

	// The stored URLs survive the re-save and come back on fetch
	fetched, _ := fetchProduct(t, app, created.ID)
	assert.Equal(t, created.ImageURLs, fetched.ImageURLs)
}

func TestEditProduct(t *testing.T) {
	app, authService := setupApp(t)
	ownerToken, ownerID := registerAndLogin(t, app, authService, "owner")
	strangerToken, _ := registerAndLogin(t, app, authService, "stranger")
	categoryID := createCategory(t, app, ownerToken, "Fashion")
	otherCategoryID := createCategory(t, app, ownerToken, "Sports")

	created := createProduct(t, app, ownerToken, dto.ProductDTO{
		Title:         "Old Jacket",
		Price:         30,
		CategoryID:    categoryID,
		ItemCondition: "FAIR",
	}, nil)

	update := dto.ProductDTO{
		Title:         "Winter Jacket",
		Price:         45,
		Description:   "Warm and waterproof",
		CategoryID:    otherCategoryID,
		ItemCondition: "GOOD",
		ProductStatus: "RESERVED",
	}

	// A non-owner may not edit
	req := productRequest(t, http.MethodPut, "/api/products/edit-product/"+created.ID, strangerToken, update, nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// The owner may; every overwritable field changes, identity does not
	req = productRequest(t, http.MethodPut, "/api/products/edit-product/"+created.ID, ownerToken, update, nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated dto.ProductDTO
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	resp.Body.Close()
	assert.Equal(t, "Winter Jacket", updated.Title)
	assert.Equal(t, 45.0, updated.Price)
	assert.Equal(t, otherCategoryID, updated.CategoryID)
	assert.Equal(t, "RESERVED", updated.ProductStatus)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, ownerID, updated.UserID)

	// An unrecognized condition value is a validation failure
	update.ItemCondition = "SPARKLING"
	req = productRequest(t, http.MethodPut, "/api/products/edit-product/"+created.ID, ownerToken, update, nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Editing a missing product is a 404
	update.ItemCondition = "GOOD"
	req = productRequest(t, http.MethodPut, "/api/products/edit-product/no-such-id", ownerToken, update, nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestStatusUpdateAndDelete(t *testing.T) {
	app, authService := setupApp(t)
	tok, _ := registerAndLogin(t, app, authService, "lifecycle")
	categoryID := createCategory(t, app, tok, "Games")

	created := createProduct(t, app, tok, dto.ProductDTO{
		Title:         "Console",
		Price:         200,
		CategoryID:    categoryID,
		ItemCondition: "GOOD",
	}, nil)

	// Status-only update returns the minimal status DTO
	body, _ := json.Marshal(map[string]string{"product_status": "SOLD"})
	req := httptest.NewRequest(http.MethodPut, "/api/products/"+created.ID+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var statusResp dto.ProductStatusUpdateDTO
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&statusResp))
	resp.Body.Close()
	assert.Equal(t, "SOLD", statusResp.ProductStatus)

	// An unknown status value is rejected
	body, _ = json.Marshal(map[string]string{"product_status": "TELEPORTED"})
	req = httptest.NewRequest(http.MethodPut, "/api/products/"+created.ID+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Delete removes the row permanently
	req = httptest.NewRequest(http.MethodDelete, "/api/products/"+created.ID, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	_, status := fetchProduct(t, app, created.ID)
	assert.Equal(t, http.StatusNotFound, status)

	// Deleting again is a 404
	req = httptest.NewRequest(http.MethodDelete, "/api/products/"+created.ID, nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestLatestFeeds(t *testing.T) {
	app, authService := setupApp(t)
	tok, _ := registerAndLogin(t, app, authService, "curator")
	categoryID := createCategory(t, app, tok, "Books")
	emptyCategoryID := createCategory(t, app, tok, "Music")

	titles := []string{"First", "Second", "Third"}
	for _, title := range titles {
		createProduct(t, app, tok, dto.ProductDTO{
			Title:         title + " Book",
			Price:         10,
			CategoryID:    categoryID,
			ItemCondition: "GOOD",
			ProductStatus: "ACTIVE",
		}, nil)
		time.Sleep(10 * time.Millisecond) // distinct creation timestamps
	}

	// Fixed feed: newest first
	req := httptest.NewRequest(http.MethodGet, "/api/products/latest-by-category/"+categoryID, nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var feed []dto.BasicProductDTO
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&feed))
	resp.Body.Close()
	assert.Len(t, feed, 3)
	assert.LessOrEqual(t, len(feed), 16)
	assert.Equal(t, "Third Book", feed[0].Title)
	assert.Equal(t, "First Book", feed[2].Title)
	for _, item := range feed {
		assert.LessOrEqual(t, len(item.ImageURLs), 1)
	}

	// An empty category feed is 204 No Content
	req = httptest.NewRequest(http.MethodGet, "/api/products/latest-by-category/"+emptyCategoryID, nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// Paged category feed carries total-count metadata
	req = httptest.NewRequest(http.MethodGet, "/api/products/latest-by-category-wp/"+categoryID+"?page=0&size=2", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var page dto.Page
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	resp.Body.Close()
	assert.Len(t, page.Content, 2)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, "Third Book", page.Content[0].Title)

	// Second page holds the remainder
	req = httptest.NewRequest(http.MethodGet, "/api/products/latest-by-category-wp/"+categoryID+"?page=1&size=2", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	var page2 dto.Page
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&page2))
	resp.Body.Close()
	assert.Len(t, page2.Content, 1)
	assert.Equal(t, "First Book", page2.Content[0].Title)

	// Cross-category feed works the same way
	req = httptest.NewRequest(http.MethodGet, "/api/products/latest-products?page=0&size=25", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	var all dto.Page
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	resp.Body.Close()
	assert.Equal(t, int64(3), all.TotalElements)
	assert.Equal(t, 25, all.Size)
}

func TestPagedFeedBounds(t *testing.T) {
	app, authService := setupApp(t)
	tok, _ := registerAndLogin(t, app, authService, "prober")
	categoryID := createCategory(t, app, tok, "Outdoors")

	for _, title := range []string{"Tent", "Stove", "Lantern"} {
		createProduct(t, app, tok, dto.ProductDTO{
			Title: title, Price: 20, CategoryID: categoryID, ItemCondition: "GOOD",
		}, nil)
	}

	getPage := func(url string) dto.Page {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var page dto.Page
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
		resp.Body.Close()
		return page
	}

	// A negative page reads as the first page
	page := getPage("/api/products/latest-by-category-wp/" + categoryID + "?page=-1&size=2")
	assert.Equal(t, 0, page.Page)
	assert.Len(t, page.Content, 2)
	assert.Equal(t, int64(3), page.TotalElements)

	page = getPage("/api/products/latest-products?page=-1")
	assert.Equal(t, 0, page.Page)
	assert.Len(t, page.Content, 3)

	// A non-positive size falls back to the route default
	page = getPage("/api/products/latest-by-category-wp/" + categoryID + "?size=-1")
	assert.Equal(t, 7, page.Size)
	assert.Len(t, page.Content, 3)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 1, page.TotalPages)

	page = getPage("/api/products/latest-products?size=-1")
	assert.Equal(t, 25, page.Size)
	assert.Len(t, page.Content, 3)

	// A page past the end is empty but keeps the totals
	page = getPage("/api/products/latest-by-category-wp/" + categoryID + "?page=999&size=2")
	assert.Empty(t, page.Content)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)

	page = getPage("/api/products/latest-products?page=999&size=2")
	assert.Empty(t, page.Content)
	assert.Equal(t, int64(3), page.TotalElements)
}

func TestMyProducts(t *testing.T) {
	app, authService := setupApp(t)
	aliceToken, _ := registerAndLogin(t, app, authService, "alice")
	bobToken, _ := registerAndLogin(t, app, authService, "bob")
	categoryID := createCategory(t, app, aliceToken, "Home")

	createProduct(t, app, aliceToken, dto.ProductDTO{
		Title: "Alice Lamp", Price: 15, CategoryID: categoryID, ItemCondition: "GOOD",
	}, nil)
	createProduct(t, app, bobToken, dto.ProductDTO{
		Title: "Bob Chair", Price: 25, CategoryID: categoryID, ItemCondition: "FAIR",
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/products/my-products", nil)
	req.Header.Set("Authorization", "Bearer "+aliceToken)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var mine []dto.ProductDTO
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&mine))
	resp.Body.Close()
	assert.Len(t, mine, 1)
	assert.Equal(t, "Alice Lamp", mine[0].Title)
}

func TestAuthGates(t *testing.T) {
	app, authService := setupApp(t)
	tok, _ := registerAndLogin(t, app, authService, "gatekeeper")
	categoryID := createCategory(t, app, tok, "Tools")

	// Mutations without a token are rejected
	req := productRequest(t, http.MethodPost, "/api/products/create-product", "", dto.ProductDTO{
		Title: "Drill", Price: 60, CategoryID: categoryID, ItemCondition: "GOOD",
	}, nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodDelete, "/api/products/some-id", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Public reads need no token
	req = httptest.NewRequest(http.MethodGet, "/api/products/all-products", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
