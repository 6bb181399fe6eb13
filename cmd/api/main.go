package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"farmcon/internal/api"
	"farmcon/internal/config"
	"farmcon/internal/modules/cart"
	"farmcon/internal/modules/catalog"
	"farmcon/internal/modules/checkout"
	"farmcon/internal/modules/delivery"
	"farmcon/internal/modules/orders"
	"farmcon/internal/modules/users"
	"farmcon/internal/realtime"
	"farmcon/pkg/cache"
	emailSvc "farmcon/pkg/email"
	"farmcon/pkg/payments"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	e := echo.New()
	e.HideBanner = true

	// 2. --- Middleware ---
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// 3. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database configuration: %v", err)
	}
	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}

	// 4. --- Redis Cache ---
	redisCache, err := cache.New(context.Background(), cfg.RedisAddr)
	if err != nil {
		log.Fatalf("Unable to connect to redis: %v", err)
	}
	defer redisCache.Close()

	// 5. --- Optional External Services ---
	// Payments and email degrade gracefully: without a Stripe key checkout
	// endpoints return 503, without AWS credentials notifications are
	// socket-only.
	var paymentsClient payments.Client
	if cfg.StripeSecretKey != "" {
		stripeClient, err := payments.NewStripeClient(cfg.StripeSecretKey, cfg.Currency)
		if err != nil {
			log.Fatalf("Unable to initialize payments client: %v", err)
		}
		paymentsClient = stripeClient
	} else {
		log.Println("STRIPE_SECRET_KEY not set; checkout is disabled")
	}

	var emailer emailSvc.Sender
	if cfg.AWSRegion != "" && cfg.EmailFrom != "" {
		sesSender, err := emailSvc.NewSESV2Sender(context.Background(), cfg.AWSRegion, cfg.EmailFrom)
		if err != nil {
			log.Printf("Unable to initialize email sender, continuing without email: %v", err)
		} else {
			emailer = sesSender
		}
	}

	templates, err := emailSvc.NewTemplateManager()
	if err != nil {
		log.Fatalf("Unable to parse email templates: %v", err)
	}

	var googleOAuthConfig *oauth2.Config
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		googleOAuthConfig = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		}
	}

	// 6. --- Realtime Hub ---
	hub := realtime.NewHub()
	realtimeHandler := realtime.NewHandler(hub)

	// 7. --- Dependency Injection ---
	userRepo := users.NewRepository(dbPool)
	userService := users.NewService(userRepo, cfg.JWTSecret, cfg.ClientOrigin, googleOAuthConfig)
	userHandler := users.NewHandler(userService, cfg.ClientOrigin)

	catalogRepo := catalog.NewRepository(dbPool)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	cartRepo := cart.NewRepository(dbPool)
	cartService := cart.NewService(cartRepo, redisCache, catalogRepo)
	cartHandler := cart.NewHandler(cartService)

	notifier := orders.NewNotifier(emailer, templates, userRepo, hub, cfg.ClientOrigin)

	orderRepo := orders.NewRepository(dbPool)
	orderService := orders.NewService(orderRepo)
	orderHandler := orders.NewHandler(orderService)

	checkoutService := checkout.NewService(
		cartService, orderRepo, catalogRepo, paymentsClient,
		notifier, hub, redisCache, cfg.ClientOrigin)
	checkoutHandler := checkout.NewHandler(checkoutService)

	deliveryRepo := delivery.NewRepository(dbPool)
	deliveryService := delivery.NewService(deliveryRepo, orderRepo, notifier, hub)
	deliveryHandler := delivery.NewHandler(deliveryService)

	// 8. --- Routes ---
	api.SetupRoutes(e,
		userHandler,
		catalogHandler,
		cartHandler,
		checkoutHandler,
		orderHandler,
		deliveryHandler,
		realtimeHandler,
		cfg.JWTSecret,
	)

	// 9. --- Start Server with graceful shutdown ---
	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server, an error occurred:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub.Close()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal("Server forced to shutdown:", err)
	}
	log.Println("Server exiting")
}
