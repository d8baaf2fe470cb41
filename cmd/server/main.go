package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acmefin/backend/docs"
	"github.com/acmefin/backend/internal/auth"
	"github.com/acmefin/backend/internal/cache"
	"github.com/acmefin/backend/internal/config"
	"github.com/acmefin/backend/internal/database"
	"github.com/acmefin/backend/internal/handlers"
	mW "github.com/acmefin/backend/internal/middleware"
	"github.com/acmefin/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Acme Financial Dashboard API
// @version 1.0
// @description API backing the invoices and customers dashboard
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.SetEnvPrefix("")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("cache.page_ttl", "PAGE_CACHE_TTL")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	viper.SetDefault("cache.page_ttl", time.Minute)

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "Acme Financial Dashboard API"
	docs.SwaggerInfo.Description = "API backing the invoices and customers dashboard"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	pageCache := cache.NewPageCache(redisClient, viper.GetDuration("cache.page_ttl"))

	sessionConfig := config.LoadSessionConfig()
	authenticator := auth.NewAuthenticator(redisClient, sessionConfig,
		services.NewCredentialsProvider(db))

	authService := services.NewAuthService(authenticator)
	invoiceService := services.NewInvoiceService(db, pageCache)
	dashboardService := services.NewDashboardService(db, pageCache)
	customerService := services.NewCustomerService(db, pageCache)
	remittanceService := services.NewRemittanceService(db)
	qrService := services.NewQRService(db, redisClient, invoiceService)
	qrHandler := handlers.NewQRHandler(qrService)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// Static file server for customer avatars
	r.Handle("/static/customer-images/*", http.StripPrefix("/static/customer-images/",
		mW.StaticFileServer("./static/customer-images")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			// Dashboard endpoints
			r.Get("/dashboard/cards", dashboardService.GetCardData)
			r.Get("/dashboard/revenue", dashboardService.GetRevenue)
			r.Get("/dashboard/latest-invoices", dashboardService.GetLatestInvoices)

			// Invoice endpoints
			r.Get("/invoices", invoiceService.ListInvoices)
			r.Get("/invoices/pages", invoiceService.GetInvoicePages)
			r.Get("/invoices/{invoiceId}", invoiceService.GetInvoice)
			r.Post("/invoices", invoiceService.CreateInvoice)
			r.Put("/invoices/{invoiceId}", invoiceService.UpdateInvoice)
			r.Delete("/invoices/{invoiceId}", invoiceService.DeleteInvoice)

			// Customer endpoints
			r.Get("/customers", customerService.ListCustomers)
			r.Get("/customers/filtered", customerService.GetFilteredCustomers)

			// Remittance export
			r.Get("/invoices/{invoiceId}/remittance", remittanceService.GetRemittance)

			// Payment QR endpoints
			r.Post("/invoices/{invoiceId}/qr", qrHandler.GeneratePaymentQR)
			r.Post("/qr/redeem", qrHandler.RedeemPaymentQR)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
