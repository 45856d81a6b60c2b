package routes

import (
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/storefront/internal/cache"
	"github.com/example/storefront/internal/categorization"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/handlers"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/middleware"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/pricing"
	"github.com/example/storefront/internal/repository"
	"github.com/example/storefront/internal/services"
)

// Services holds the domain services shared by the HTTP layer and the CLI.
type Services struct {
	Categories    *repository.CategoryRepository
	CategoryCache *cache.CategoryStore
	Catalog       *services.CatalogService
	Carts         *services.CartService
	Orders        *services.OrderService
	Reviews       *services.ReviewService
}

// NewServices builds the service graph. redisClient may be nil to disable caching.
func NewServices(db *gorm.DB, cfg *config.Config, redisClient *redis.Client, log *zap.Logger) (*Services, error) {
	log = logger.OrNop(log)

	mode, err := categorization.ParseMatchMode(cfg.KeywordMatchMode)
	if err != nil {
		return nil, err
	}

	categories := repository.NewCategoryRepository(db)
	categoryCache := cache.NewCategoryStore(
		categories,
		cache.New(redisClient, "storefront:category:", cfg.CategoryCacheTTL),
		log.Named("cache"),
	)
	categorizer := categorization.NewService(
		categorization.NewClassifier(categorization.DefaultKeywords(), mode),
		categoryCache,
		log.Named("categorization"),
	)

	calc := pricing.NewCalculator(pricing.Rates{
		TaxRate:               cfg.TaxRate,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatShippingFee:       cfg.FlatShippingFee,
	})
	carts := services.NewCartService(db, calc, cfg.Currency, log.Named("cart"))
	telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat, log.Named("telegram"))

	return &Services{
		Categories:    categories,
		CategoryCache: categoryCache,
		Catalog:       services.NewCatalogService(db, categorizer, log.Named("catalog")),
		Carts:         carts,
		Orders:        services.NewOrderService(db, carts, telegram, log.Named("order")),
		Reviews:       services.NewReviewService(db),
	}, nil
}

// NewApp creates the Fiber app with the shared error handler and middleware.
func NewApp(log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Storefront Backend",
		ErrorHandler: handlers.ErrorHandler(logger.OrNop(log)),
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	return app
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config, svc *Services, log *zap.Logger) {
	authHandler := handlers.NewAuthHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db, svc.Categories, svc.CategoryCache)
	productHandler := handlers.NewProductHandler(db, svc.Catalog, log)
	reviewHandler := handlers.NewReviewHandler(svc.Reviews)
	cartHandler := handlers.NewCartHandler(svc.Carts)
	orderHandler := handlers.NewOrderHandler(svc.Orders)
	profileHandler := handlers.NewProfileHandler(db)
	settingsHandler := handlers.NewSettingsHandler(db)
	sellerHandler := handlers.NewSellerHandler(db)
	couponHandler := handlers.NewCouponHandler(db)
	adminHandler := handlers.NewAdminHandler(db)

	authRequired := middleware.AuthMiddleware(cfg.JWTSecret)
	sellerOnly := middleware.RequireRole(models.RoleSeller, models.RoleAdmin)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"success": true, "status": "ok"})
	})

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", authRequired, authHandler.Me)

	// Catalog routes
	categories := api.Group("/categories")
	categories.Get("/", catalogHandler.ListCategories)
	categories.Get("/:slug/products", catalogHandler.CategoryProducts)

	products := api.Group("/products")
	products.Get("/", productHandler.ListProducts)
	products.Get("/:id", productHandler.GetProduct)
	products.Get("/:id/reviews", reviewHandler.ListReviews)
	products.Post("/:id/reviews", authRequired, reviewHandler.CreateReview)

	api.Get("/website-settings", settingsHandler.GetSettings)

	// Cart routes
	cart := api.Group("/cart", authRequired)
	cart.Get("/", cartHandler.GetCart)
	cart.Delete("/", cartHandler.ClearCart)
	cart.Post("/items", cartHandler.AddItem)
	cart.Put("/items/:itemId", cartHandler.UpdateItem)
	cart.Delete("/items/:itemId", cartHandler.RemoveItem)
	cart.Post("/items/:itemId/save-for-later", cartHandler.SaveForLater)
	cart.Post("/items/:itemId/move-to-cart", cartHandler.MoveToCart)
	cart.Post("/coupon", cartHandler.ApplyCoupon)
	cart.Delete("/coupon", cartHandler.RemoveCoupon)

	// Order routes
	orders := api.Group("/orders", authRequired)
	orders.Post("/", orderHandler.Checkout)
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Post("/:id/cancel", orderHandler.CancelOrder)

	// Profile routes
	profile := api.Group("/profile", authRequired)
	profile.Get("/", profileHandler.GetProfile)
	profile.Put("/", profileHandler.UpdateProfile)
	profile.Get("/addresses", profileHandler.ListAddresses)
	profile.Post("/addresses", profileHandler.CreateAddress)
	profile.Put("/addresses/:id", profileHandler.UpdateAddress)
	profile.Delete("/addresses/:id", profileHandler.DeleteAddress)

	// Seller routes
	seller := api.Group("/seller", authRequired, sellerOnly)
	seller.Get("/dashboard", sellerHandler.Dashboard)
	seller.Get("/products", productHandler.ListSellerProducts)
	seller.Post("/products", productHandler.CreateProduct)
	seller.Put("/products/:id", productHandler.UpdateProduct)
	seller.Delete("/products/:id", productHandler.DeleteProduct)
	seller.Patch("/products/:id/stock", productHandler.UpdateStock)

	// Admin routes
	admin := api.Group("/admin", authRequired, adminOnly)
	admin.Get("/dashboard", adminHandler.DashboardStats)
	admin.Get("/recent-orders", adminHandler.RecentOrders)
	admin.Get("/users", adminHandler.ListAllUsers)
	admin.Patch("/users/:id/role", adminHandler.UpdateUserRole)

	admin.Post("/products", productHandler.CreateProduct)
	admin.Put("/products/:id", productHandler.UpdateProduct)
	admin.Patch("/products/:id/status", productHandler.UpdateProductStatus)
	admin.Delete("/products/:id", productHandler.DeleteProduct)
	admin.Post("/preview-categorization", productHandler.PreviewCategorization)
	admin.Post("/recategorize", productHandler.Recategorize)

	admin.Get("/categories", catalogHandler.ListAllCategories)
	admin.Post("/categories", catalogHandler.CreateCategory)
	admin.Put("/categories/:id", catalogHandler.UpdateCategory)
	admin.Delete("/categories/:id", catalogHandler.DeleteCategory)

	admin.Get("/coupons", couponHandler.ListCoupons)
	admin.Post("/coupons", couponHandler.CreateCoupon)
	admin.Put("/coupons/:id", couponHandler.UpdateCoupon)
	admin.Delete("/coupons/:id", couponHandler.DeleteCoupon)

	admin.Get("/orders", orderHandler.ListAllOrders)
	admin.Patch("/orders/:id/status", orderHandler.UpdateOrderStatus)

	admin.Put("/website-settings", settingsHandler.UpdateSettings)
}
