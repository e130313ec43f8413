package server

import (
	"context"

	"marketplace-api/internal/config"
	"marketplace-api/internal/handler"
	mw "marketplace-api/internal/middleware"
	"marketplace-api/internal/model"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo   *echo.Echo
	jwtCfg *config.JWT

	authHandler         *handler.AuthHandler
	checkoutHandler     *handler.CheckoutHandler
	productHandler      *handler.ProductHandler
	orderHandler        *handler.OrderHandler
	merchantHandler     *handler.MerchantHandler
	adminHandler        *handler.AdminHandler
	notificationHandler *handler.NotificationHandler
}

func NewServer(
	jwtCfg *config.JWT,
	authHandler *handler.AuthHandler,
	checkoutHandler *handler.CheckoutHandler,
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	merchantHandler *handler.MerchantHandler,
	adminHandler *handler.AdminHandler,
	notificationHandler *handler.NotificationHandler,
) *Server {
	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:                e,
		jwtCfg:              jwtCfg,
		authHandler:         authHandler,
		checkoutHandler:     checkoutHandler,
		productHandler:      productHandler,
		orderHandler:        orderHandler,
		merchantHandler:     merchantHandler,
		adminHandler:        adminHandler,
		notificationHandler: notificationHandler,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	authRequired := mw.AuthMiddleware(s.jwtCfg)
	merchantOnly := mw.RequireRole(model.RoleMerchant, model.RoleAdmin)
	adminOnly := mw.RequireRole(model.RoleAdmin)

	// -------- auth --------
	auth := api.Group("/auth")
	auth.POST("/register", s.authHandler.Register)
	auth.POST("/login", s.authHandler.Login)
	auth.POST("/logout", s.authHandler.Logout)
	auth.GET("/me", s.authHandler.Me, authRequired)

	// -------- storefront --------
	api.GET("/products", s.productHandler.List)
	api.GET("/products/:id", s.productHandler.Get)
	api.GET("/categories", s.productHandler.Categories)
	api.POST("/products", s.productHandler.Create, authRequired, merchantOnly)
	api.PUT("/products/:id", s.productHandler.Update, authRequired, merchantOnly)
	api.DELETE("/products/:id", s.productHandler.Delete, authRequired, merchantOnly)

	// -------- checkout --------
	checkout := api.Group("/checkout")
	checkout.POST("/split", s.checkoutHandler.Split, authRequired)
	checkout.POST("/confirm", s.checkoutHandler.Confirm, authRequired)
	checkout.POST("/webhook", s.checkoutHandler.Webhook)

	// -------- customer --------
	api.GET("/orders", s.orderHandler.ListMine, authRequired)
	api.GET("/orders/:id", s.orderHandler.GetMine, authRequired)
	api.GET("/addresses", s.authHandler.ListAddresses, authRequired)
	api.POST("/addresses", s.authHandler.CreateAddress, authRequired)
	api.DELETE("/addresses/:id", s.authHandler.DeleteAddress, authRequired)
	api.GET("/notifications", s.notificationHandler.List, authRequired)
	api.PUT("/notifications/:id/read", s.notificationHandler.MarkRead, authRequired)

	// -------- merchant dashboard --------
	api.POST("/merchants/register", s.merchantHandler.Register, authRequired)
	merchant := api.Group("/merchant", authRequired, merchantOnly)
	merchant.GET("/me", s.merchantHandler.Me)
	merchant.GET("/orders", s.merchantHandler.Orders)
	merchant.PUT("/orders/:id/status", s.merchantHandler.UpdateOrderStatus)
	merchant.GET("/payouts", s.merchantHandler.Payouts)
	merchant.GET("/stats", s.merchantHandler.Stats)

	// -------- admin console --------
	admin := api.Group("/admin", authRequired, adminOnly)
	admin.GET("/users", s.adminHandler.Users)
	admin.PUT("/users/:id/role", s.adminHandler.UpdateUserRole)
	admin.GET("/merchants", s.adminHandler.Merchants)
	admin.PUT("/merchants/:id/status", s.adminHandler.UpdateMerchantStatus)
	admin.PUT("/products/:id/status", s.adminHandler.ModerateProduct)
	admin.GET("/orders", s.adminHandler.Orders)
	admin.GET("/stats", s.adminHandler.Stats)
	admin.POST("/categories", s.adminHandler.CreateCategory)
	admin.PUT("/categories/:id", s.adminHandler.UpdateCategory)
	admin.DELETE("/categories/:id", s.adminHandler.DeleteCategory)
	admin.GET("/settings", s.adminHandler.GetSettings)
	admin.PUT("/settings", s.adminHandler.UpdateSettings)
	admin.POST("/terms", s.adminHandler.PublishTerms)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
