package routes

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/models"
)

type testAPI struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := database.Open(":memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		AppPort:               "0",
		JWTSecret:             "test-secret",
		TokenExpires:          time.Hour,
		CategoryCacheTTL:      time.Minute,
		Currency:              "INR",
		KeywordMatchMode:      "word",
		TaxRate:               decimal.RequireFromString("0.18"),
		FreeShippingThreshold: decimal.NewFromInt(1000),
		FlatShippingFee:       decimal.NewFromInt(100),
	}

	svc, err := NewServices(db, cfg, nil, nil)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(zap.NewNop())})
	Register(app, db, cfg, svc, nil)
	return &testAPI{t: t, app: app, db: db}
}

func (a *testAPI) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	if resp.StatusCode != fiber.StatusNoContent {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func (a *testAPI) register(name, email, role string) string {
	a.t.Helper()
	status, body := a.do("POST", "/api/auth/register", "", fiber.Map{
		"name": name, "email": email, "password": "secret123",
	})
	require.Equal(a.t, fiber.StatusCreated, status, body)

	if role != models.RoleCustomer {
		require.NoError(a.t, a.db.Model(&models.User{}).Where("email = ?", email).Update("role", role).Error)
	}

	status, body = a.do("POST", "/api/auth/login", "", fiber.Map{"email": email, "password": "secret123"})
	require.Equal(a.t, fiber.StatusOK, status, body)
	return body["token"].(string)
}

func data(body map[string]interface{}) map[string]interface{} {
	return body["data"].(map[string]interface{})
}

func money(t *testing.T, v interface{}) string {
	t.Helper()
	switch n := v.(type) {
	case string:
		return decimal.RequireFromString(n).StringFixed(2)
	case float64:
		return decimal.NewFromFloat(n).StringFixed(2)
	}
	t.Fatalf("unexpected money value %T", v)
	return ""
}

func TestHealth(t *testing.T) {
	api := setupAPI(t)
	status, body := api.do("GET", "/api/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestAuthErrors(t *testing.T) {
	api := setupAPI(t)
	api.register("Asha", "asha@example.com", models.RoleCustomer)

	status, body := api.do("POST", "/api/auth/register", "", fiber.Map{
		"name": "Asha", "email": "ASHA@example.com", "password": "secret123",
	})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, false, body["success"])

	status, _ = api.do("POST", "/api/auth/register", "", fiber.Map{
		"name": "Ravi", "email": "ravi@example.com", "password": "123",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = api.do("POST", "/api/auth/login", "", fiber.Map{"email": "asha@example.com", "password": "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = api.do("GET", "/api/cart", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "missing authorization header", body["message"])
}

func TestRoleGuards(t *testing.T) {
	api := setupAPI(t)
	customer := api.register("Asha", "asha@example.com", models.RoleCustomer)
	seller := api.register("Sam", "sam@example.com", models.RoleSeller)

	status, _ := api.do("GET", "/api/admin/dashboard", customer, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = api.do("GET", "/api/admin/dashboard", seller, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = api.do("GET", "/api/seller/dashboard", seller, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = api.do("GET", "/api/seller/dashboard", customer, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestCategoriesSeedDefaults(t *testing.T) {
	api := setupAPI(t)

	status, body := api.do("GET", "/api/categories", "", nil)
	require.Equal(t, fiber.StatusOK, status)

	categories := body["data"].([]interface{})
	require.Len(t, categories, 6)
	assert.Equal(t, "t-shirts", categories[0].(map[string]interface{})["slug"])

	// a second listing does not seed again
	_, body = api.do("GET", "/api/categories", "", nil)
	assert.Len(t, body["data"].([]interface{}), 6)
}

func TestShoppingFlow(t *testing.T) {
	api := setupAPI(t)
	admin := api.register("Admin", "admin@example.com", models.RoleAdmin)
	customer := api.register("Asha", "asha@example.com", models.RoleCustomer)

	status, body := api.do("POST", "/api/admin/products", admin, fiber.Map{
		"name":              "Men's Running Shoes",
		"description":       "Lightweight mesh upper",
		"brand":             "Stride",
		"base_price":        1500,
		"stock":             10,
		"use_auto_category": true,
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	product := data(body)
	productID := product["id"].(string)
	result := body["categorization"].(map[string]interface{})
	assert.Equal(t, "men", result["primary_category"].(map[string]interface{})["slug"])
	assert.Equal(t, "footwear", result["secondary_category"].(map[string]interface{})["slug"])

	status, body = api.do("GET", "/api/categories/footwear/products", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"].([]interface{}), 1)

	status, body = api.do("GET", "/api/products?search=running&category=men", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(1), body["pagination"].(map[string]interface{})["total_items"])

	status, body = api.do("POST", "/api/admin/coupons", admin, fiber.Map{
		"code": "save10", "kind": "percentage", "amount": 10, "min_amount": 1000,
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, "SAVE10", data(body)["code"])

	status, body = api.do("POST", "/api/cart/items", customer, fiber.Map{"product_id": productID, "quantity": 1})
	require.Equal(t, fiber.StatusOK, status, body)
	cart := data(body)
	assert.Equal(t, "1500.00", money(t, cart["subtotal"]))
	assert.Equal(t, "0.00", money(t, cart["shipping"]))
	assert.Equal(t, "270.00", money(t, cart["tax"]))
	assert.Equal(t, "1770.00", money(t, cart["total"]))
	assert.Equal(t, float64(1), body["item_count"])

	status, body = api.do("POST", "/api/cart/coupon", customer, fiber.Map{"code": "save10"})
	require.Equal(t, fiber.StatusOK, status, body)
	cart = data(body)
	assert.Equal(t, "150.00", money(t, cart["discount"]))
	assert.Equal(t, "243.00", money(t, cart["tax"]))
	assert.Equal(t, "1593.00", money(t, cart["total"]))

	status, body = api.do("POST", "/api/orders", customer, fiber.Map{
		"shipping_address": fiber.Map{
			"name": "Asha", "phone": "9876543210", "address": "12 MG Road",
			"city": "Pune", "state": "MH", "pincode": "411001",
		},
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	order := data(body)
	orderID := order["id"].(string)
	assert.Regexp(t, `^TC\d{6}0001$`, order["order_number"])
	assert.Equal(t, "1593.00", money(t, order["total"]))
	assert.Equal(t, "pending", order["status"])

	status, body = api.do("GET", "/api/cart", customer, nil)
	require.Equal(t, fiber.StatusOK, status)
	cart = data(body)
	assert.Equal(t, "0.00", money(t, cart["subtotal"]))
	assert.Equal(t, "100.00", money(t, cart["total"]))
	assert.Equal(t, float64(0), body["item_count"])

	status, body = api.do("GET", "/api/products/"+productID, "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(9), data(body)["stock"])

	status, body = api.do("POST", "/api/orders/"+orderID+"/cancel", customer, fiber.Map{"reason": "changed my mind"})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "cancelled", data(body)["status"])

	status, body = api.do("POST", "/api/orders/"+orderID+"/cancel", customer, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "order can no longer be cancelled", body["message"])

	status, body = api.do("GET", "/api/products/"+productID, "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(10), data(body)["stock"])

	status, body = api.do("GET", "/api/admin/dashboard", admin, nil)
	require.Equal(t, fiber.StatusOK, status)
	stats := data(body)
	assert.Equal(t, float64(1), stats["total_orders"])
	assert.Equal(t, float64(1), stats["orders_by_status"].(map[string]interface{})["cancelled"])
	assert.Equal(t, "0.00", money(t, stats["total_revenue"]))
}

func TestCheckoutEmptyCart(t *testing.T) {
	api := setupAPI(t)
	customer := api.register("Asha", "asha@example.com", models.RoleCustomer)

	status, body := api.do("POST", "/api/orders", customer, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "cart is empty", body["message"])
}

func TestReviews(t *testing.T) {
	api := setupAPI(t)
	admin := api.register("Admin", "admin@example.com", models.RoleAdmin)
	customer := api.register("Asha", "asha@example.com", models.RoleCustomer)

	_, body := api.do("POST", "/api/admin/products", admin, fiber.Map{
		"name": "Floral Maxi Dress", "base_price": 899, "stock": 3,
	})
	productID := data(body)["id"].(string)

	status, _ := api.do("POST", "/api/products/"+productID+"/reviews", customer, fiber.Map{"rating": 6})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = api.do("POST", "/api/products/"+productID+"/reviews", customer, fiber.Map{"rating": 4, "title": "Lovely"})
	require.Equal(t, fiber.StatusCreated, status, body)

	status, _ = api.do("POST", "/api/products/"+productID+"/reviews", customer, fiber.Map{"rating": 5})
	assert.Equal(t, fiber.StatusConflict, status)

	status, body = api.do("GET", "/api/products/"+productID+"/reviews", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"].([]interface{}), 1)

	_, body = api.do("GET", "/api/products/"+productID, "", nil)
	assert.Equal(t, float64(4), data(body)["rating_average"])
	assert.Equal(t, float64(1), data(body)["rating_count"])
}

func TestSellerOwnsProducts(t *testing.T) {
	api := setupAPI(t)
	seller := api.register("Sam", "sam@example.com", models.RoleSeller)
	other := api.register("Sue", "sue@example.com", models.RoleSeller)

	status, body := api.do("POST", "/api/seller/products", seller, fiber.Map{
		"name": "Kids Denim Jacket", "base_price": 700, "stock": 4,
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	productID := data(body)["id"].(string)
	assert.NotNil(t, data(body)["category_id"])

	status, _ = api.do("PATCH", "/api/seller/products/"+productID+"/stock", other, fiber.Map{"stock": 1})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = api.do("PATCH", "/api/seller/products/"+productID+"/stock", seller, fiber.Map{"stock": 12})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, float64(12), data(body)["stock"])

	status, body = api.do("GET", "/api/seller/products", seller, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"].([]interface{}), 1)

	status, body = api.do("GET", "/api/seller/products", other, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["data"].([]interface{}), 0)
}

func TestPreviewAndRecategorize(t *testing.T) {
	api := setupAPI(t)
	admin := api.register("Admin", "admin@example.com", models.RoleAdmin)

	status, body := api.do("POST", "/api/admin/preview-categorization", admin, fiber.Map{
		"name": "Women's Leather Handbag",
	})
	require.Equal(t, fiber.StatusOK, status)
	preview := data(body)
	assert.Equal(t, "women", preview["primary"])
	assert.Equal(t, "accessories", preview["secondary_slug"])

	var count int64
	require.NoError(t, api.db.Model(&models.Category{}).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, api.db.Create(&models.Product{
		Name: "Ladies Silk Scarf", BasePrice: decimal.NewFromInt(300), IsActive: true,
	}).Error)

	status, body = api.do("POST", "/api/admin/recategorize", admin, nil)
	require.Equal(t, fiber.StatusOK, status, body)
	report := data(body)
	assert.Equal(t, float64(1), report["scanned"])
	assert.Equal(t, float64(1), report["updated"])
}

func TestWebsiteSettings(t *testing.T) {
	api := setupAPI(t)
	admin := api.register("Admin", "admin@example.com", models.RoleAdmin)

	status, body := api.do("GET", "/api/website-settings", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Storefront", data(body)["site_name"])

	status, _ = api.do("PUT", "/api/admin/website-settings", admin, fiber.Map{"contact_email": "not-an-email"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = api.do("PUT", "/api/admin/website-settings", admin, fiber.Map{
		"site_name": "Thread & Co", "announcements": []string{"Free shipping above 1000"},
	})
	require.Equal(t, fiber.StatusOK, status)

	_, body = api.do("GET", "/api/website-settings", "", nil)
	settings := data(body)
	assert.Equal(t, "Thread & Co", settings["site_name"])
	assert.Equal(t, []interface{}{"Free shipping above 1000"}, settings["announcements"])
	assert.Equal(t, "#3B82F6", settings["primary_color"])
}

func TestAdminCategoryCRUD(t *testing.T) {
	api := setupAPI(t)
	admin := api.register("Admin", "admin@example.com", models.RoleAdmin)

	status, body := api.do("POST", "/api/admin/categories", admin, fiber.Map{"name": "Ethnic Wear", "sort_order": 2})
	require.Equal(t, fiber.StatusCreated, status, body)
	category := data(body)
	assert.Equal(t, "ethnic-wear", category["slug"])
	categoryID := category["id"].(string)

	status, _ = api.do("POST", "/api/admin/categories", admin, fiber.Map{"name": "Ethnic  Wear!"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = api.do("POST", "/api/admin/categories", admin, fiber.Map{"name": " "})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = api.do("PUT", "/api/admin/categories/"+categoryID, admin, fiber.Map{"name": "Festive Wear", "slug": "Festive Wear"})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "festive-wear", data(body)["slug"])

	status, body = api.do("POST", "/api/admin/products", admin, fiber.Map{
		"name": "Silk Kurta", "base_price": 1200, "stock": 2, "category_id": categoryID,
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	productID := data(body)["id"].(string)

	status, body = api.do("DELETE", "/api/admin/categories/"+categoryID, admin, nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "category has products", body["message"])

	status, _ = api.do("DELETE", "/api/admin/products/"+productID, admin, nil)
	require.Equal(t, fiber.StatusNoContent, status)

	status, _ = api.do("DELETE", "/api/admin/categories/"+categoryID, admin, nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = api.do("DELETE", "/api/admin/categories/"+categoryID, admin, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestProductStatusHidesProduct(t *testing.T) {
	api := setupAPI(t)
	admin := api.register("Admin", "admin@example.com", models.RoleAdmin)

	_, body := api.do("POST", "/api/admin/products", admin, fiber.Map{
		"name": "Denim Jacket", "base_price": 2000, "discounted_price": 1500, "stock": 5,
	})
	product := data(body)
	productID := product["id"].(string)
	assert.Equal(t, "1500.00", money(t, product["current_price"]))
	assert.Equal(t, float64(25), product["discount_percent"])

	status, body := api.do("PATCH", "/api/admin/products/"+productID+"/status", admin, fiber.Map{"is_active": false})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, false, data(body)["is_active"])

	status, _ = api.do("GET", "/api/products/"+productID, "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = api.do("PATCH", "/api/admin/products/"+productID+"/status", admin, fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAdminUpdatesUserRole(t *testing.T) {
	api := setupAPI(t)
	admin := api.register("Admin", "admin@example.com", models.RoleAdmin)
	api.register("Asha", "asha@example.com", models.RoleCustomer)

	var user models.User
	require.NoError(t, api.db.First(&user, "email = ?", "asha@example.com").Error)

	status, _ := api.do("PATCH", "/api/admin/users/"+user.ID.String()+"/role", admin, fiber.Map{"role": "owner"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body := api.do("PATCH", "/api/admin/users/"+user.ID.String()+"/role", admin, fiber.Map{"role": models.RoleSeller})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, models.RoleSeller, data(body)["role"])

	// the new role applies from the next login
	_, body = api.do("POST", "/api/auth/login", "", fiber.Map{"email": "asha@example.com", "password": "secret123"})
	token := body["token"].(string)
	status, _ = api.do("GET", "/api/seller/dashboard", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAddressBook(t *testing.T) {
	api := setupAPI(t)
	customer := api.register("Asha", "asha@example.com", models.RoleCustomer)

	status, _ := api.do("POST", "/api/profile/addresses", customer, fiber.Map{"name": "Asha"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	home := fiber.Map{"label": "Home", "name": "Asha", "address_line": "12 MG Road", "city": "Pune", "pincode": "411001"}
	status, body := api.do("POST", "/api/profile/addresses", customer, home)
	require.Equal(t, fiber.StatusCreated, status, body)
	homeID := data(body)["id"].(string)
	assert.Equal(t, true, data(body)["is_default"])

	office := fiber.Map{"label": "Office", "name": "Asha", "address_line": "4 FC Road", "city": "Pune", "pincode": "411004", "is_default": true}
	status, body = api.do("POST", "/api/profile/addresses", customer, office)
	require.Equal(t, fiber.StatusCreated, status, body)
	officeID := data(body)["id"].(string)

	status, body = api.do("GET", "/api/profile/addresses", customer, nil)
	require.Equal(t, fiber.StatusOK, status)
	addresses := body["data"].([]interface{})
	require.Len(t, addresses, 2)
	assert.Equal(t, officeID, addresses[0].(map[string]interface{})["id"])
	assert.Equal(t, false, addresses[1].(map[string]interface{})["is_default"])

	status, body = api.do("PUT", "/api/profile/addresses/"+homeID, customer, fiber.Map{"city": "Mumbai"})
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "Mumbai", data(body)["city"])

	other := api.register("Ravi", "ravi@example.com", models.RoleCustomer)
	status, _ = api.do("DELETE", "/api/profile/addresses/"+homeID, other, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = api.do("DELETE", "/api/profile/addresses/"+homeID, customer, nil)
	assert.Equal(t, fiber.StatusOK, status)
}
