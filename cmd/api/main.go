package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-api/internal/client"
	"marketplace-api/internal/config"
	"marketplace-api/internal/handler"
	"marketplace-api/internal/repository"
	"marketplace-api/internal/server"
	"marketplace-api/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	db := client.InitMysqlClient(cfg.DatabaseURL)
	stripeClient := client.NewStripeClient(&cfg.Stripe)
	mailer := client.NewMailerClient(&cfg.Mail)

	userRepo := repository.NewUserRepository(db)
	merchantRepo := repository.NewMerchantRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	termsRepo := repository.NewTermsRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	userService := service.NewUserService(db, &cfg.JWT, userRepo, addressRepo)
	productService := service.NewProductService(productRepo, categoryRepo)
	orderService := service.NewOrderService(orderRepo)
	merchantService := service.NewMerchantService(merchantRepo, orderRepo, payoutRepo, productRepo, userRepo)
	adminService := service.NewAdminService(userRepo, merchantRepo, orderRepo, categoryRepo, settingRepo, termsRepo)
	notificationService := service.NewNotificationService(notificationRepo)
	checkoutService := service.NewCheckoutService(
		db, stripeClient, mailer, cfg.Stripe.WebhookSecret,
		productRepo, merchantRepo, orderRepo, paymentRepo, payoutRepo,
		addressRepo, userRepo, termsRepo, notificationRepo, webhookEventRepo, settingRepo,
	)

	tokenExpiry := time.Duration(cfg.JWT.ExpiryHour) * time.Hour

	srv := server.NewServer(
		&cfg.JWT,
		handler.NewAuthHandler(userService, tokenExpiry),
		handler.NewCheckoutHandler(checkoutService),
		handler.NewProductHandler(productService, merchantService),
		handler.NewOrderHandler(orderService),
		handler.NewMerchantHandler(merchantService, orderService),
		handler.NewAdminHandler(adminService, merchantService, productService, orderService),
		handler.NewNotificationHandler(notificationService),
	)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error: ", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("HTTP server shutdown error: ", err)
	}
}
