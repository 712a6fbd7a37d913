package main

import (
	"log"

	"siparis-backend/internal/admin"
	"siparis-backend/internal/apperr"
	"siparis-backend/internal/audit"
	"siparis-backend/internal/auth"
	"siparis-backend/internal/catalog"
	"siparis-backend/internal/config"
	"siparis-backend/internal/database"
	"siparis-backend/internal/models"
	"siparis-backend/internal/order"
	"siparis-backend/internal/ratelimit"
	"siparis-backend/internal/settings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: apperr.FiberErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	// Cookie ile auth için credentials açık, origin listesi env'den
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: true,
	}))

	settingsSvc := settings.NewService(database.DB)
	orderSvc := order.NewService(database.DB, cfg.Location, settingsSvc)
	catalogSvc := catalog.NewService(database.DB)
	adminSvc := admin.NewService(database.DB, settingsSvc)
	limits := ratelimit.NewLimiter(cfg.RateLimitStrategy, cfg.RedisURL, cfg.RateLimitPrefix)
	defer limits.Close()

	merkezOrAdmin := auth.RequireRole(models.RoleCenter, models.RoleAdmin)
	adminOnly := auth.RequireRole(models.RoleAdmin)
	productLimit := limits.Middleware(ratelimit.ProductMutationRule)

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/login", limits.Middleware(ratelimit.LoginRule), auth.LoginHandler(cfg, database.DB, settingsSvc))
	api.Post("/auth/logout", auth.LogoutHandler(cfg))

	// Protected
	protected := api.Group("", auth.JWTMiddleware(cfg, database.DB))
	protected.Get("/auth/me", auth.MeHandler(database.DB))

	// Profil
	protected.Get("/profile/me", auth.ProfileHandler(database.DB))
	protected.Put("/profile/me", auth.UpdateProfileHandler(database.DB))
	protected.Put("/profile/password", auth.ChangePasswordHandler(database.DB, settingsSvc))

	// Ürünler
	protected.Get("/products", catalog.ListProductsHandler(catalogSvc))
	protected.Post("/products", merkezOrAdmin, productLimit, catalog.CreateProductHandler(catalogSvc))
	protected.Put("/products/status-bulk", merkezOrAdmin, productLimit, catalog.SetProductStatusBulkHandler(catalogSvc))
	protected.Put("/products/:id", merkezOrAdmin, productLimit, catalog.UpdateProductHandler(catalogSvc))
	protected.Put("/products/:id/status", merkezOrAdmin, productLimit, catalog.SetProductStatusHandler(catalogSvc))
	protected.Delete("/products/:id", merkezOrAdmin, productLimit, catalog.DeleteProductHandler(catalogSvc))

	// Şubeler ve fiyat farkları
	protected.Get("/branches/my-context", catalog.MyContextHandler(catalogSvc))
	protected.Get("/branches", merkezOrAdmin, admin.ListBranchesHandler(adminSvc))
	protected.Post("/branches", adminOnly, admin.CreateBranchHandler(adminSvc))
	protected.Put("/branches/:id", adminOnly, admin.UpdateBranchHandler(adminSvc))
	protected.Put("/branches/:id/status", merkezOrAdmin, admin.SetBranchStatusHandler(adminSvc))
	protected.Put("/branches/:id/price-adjustment", merkezOrAdmin, admin.SetPriceAdjustmentHandler(adminSvc))
	protected.Get("/branches/:id/product-adjustments", merkezOrAdmin, admin.ListProductAdjustmentsHandler(adminSvc))
	protected.Put("/branches/:id/product-adjustments", merkezOrAdmin, admin.SetProductAdjustmentsHandler(adminSvc))
	protected.Put("/branches/:id/product-adjustments/:productId", merkezOrAdmin, admin.SetProductAdjustmentHandler(adminSvc))

	// Merkezler
	protected.Get("/centers", adminOnly, admin.ListCentersHandler(adminSvc))
	protected.Post("/centers", adminOnly, admin.CreateCenterHandler(adminSvc))
	protected.Put("/centers/:id", adminOnly, admin.UpdateCenterHandler(adminSvc))
	protected.Put("/centers/:id/status", adminOnly, admin.SetCenterStatusHandler(adminSvc))

	// Siparişler
	protected.Post("/orders",
		auth.RequireRole(models.RoleBranch, models.RoleAdmin),
		limits.Middleware(ratelimit.OrderCreateRule),
		order.CreateOrderHandler(orderSvc))
	protected.Get("/orders/my", auth.RequireRole(models.RoleBranch, models.RoleAdmin), order.ListMyOrdersHandler(orderSvc))
	protected.Get("/orders/carryover", order.CarryoverHandler(orderSvc))
	protected.Get("/orders/summary", merkezOrAdmin, order.SummaryHandler(orderSvc))
	protected.Get("/orders/summary/export", merkezOrAdmin, order.ExportSummaryHandler(orderSvc))
	protected.Get("/orders", merkezOrAdmin, order.ListOrdersHandler(orderSvc))
	protected.Put("/orders/decide-bulk", merkezOrAdmin,
		limits.Middleware(ratelimit.BulkDecisionRule),
		order.DecideBulkHandler(orderSvc))
	protected.Get("/orders/:id", order.GetOrderHandler(orderSvc))
	protected.Put("/orders/:id/approve", merkezOrAdmin, order.ApproveOrderHandler(orderSvc))
	protected.Put("/orders/:id/reject", merkezOrAdmin, order.RejectOrderHandler(orderSvc))
	protected.Put("/orders/:id/deliver", merkezOrAdmin, order.DeliverOrderHandler(orderSvc))

	// Admin
	adminGroup := protected.Group("/admin", adminOnly)
	adminGroup.Get("/users", admin.ListUsersHandler(adminSvc))
	adminGroup.Post("/users", admin.CreateUserHandler(adminSvc))
	adminGroup.Put("/users/:id", admin.UpdateUserHandler(adminSvc))
	adminGroup.Put("/users/:id/status", admin.SetUserStatusHandler(adminSvc))
	adminGroup.Put("/users/:id/reset-password", admin.ResetPasswordHandler(adminSvc))

	// Audit logs
	adminGroup.Get("/logs", audit.ListAuditLogsHandler(cfg.Location))

	// Sistem ayarları
	adminGroup.Get("/settings", settings.GetSettingsHandler(settingsSvc))
	adminGroup.Put("/settings", limits.Middleware(ratelimit.SettingsMutationRule), settings.UpdateSettingsHandler(settingsSvc))
	adminGroup.Get("/settings/history", settings.SettingsHistoryHandler(settingsSvc))

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
