package main

import (
	"context"
	"net/http"
	"os"

	"shopify-order-bridge/internal/application"
	"shopify-order-bridge/internal/config"
	apiinfra "shopify-order-bridge/internal/infrastructure/api"
	"shopify-order-bridge/internal/infrastructure/metrics"
	"shopify-order-bridge/internal/infrastructure/repository"
	shopifyinfra "shopify-order-bridge/internal/infrastructure/shopify"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	// Connect to Postgres and apply migrations
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL, cfg.PGMaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := repository.Migrate(pool); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize database")
	}
	logger.Info().Msg("Database tables initialized")

	// Redis holds the short-lived OAuth state nonces
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	// Initialize repositories
	shopRepo := repository.NewShopRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	stateStore := repository.NewRedisStateStore(redisClient)

	// Initialize Shopify edge
	gateway := shopifyinfra.NewGateway(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, cfg.APIVersion, cfg.AppURL, logger)
	verifier := shopifyinfra.NewWebhookVerifier(cfg.ShopifyAPISecret)

	// Initialize application services
	ingestService := application.NewIngestService(orderRepo, logger)
	syncService := application.NewSyncService(
		shopRepo,
		gateway,
		verifier,
		ingestService,
		logger,
		cfg.SyncWindow,
		cfg.SyncPageSize,
	)

	handler := apiinfra.NewHandler(
		syncService,
		orderRepo,
		shopRepo,
		gateway,
		stateStore,
		cfg.ShopifyAPIKey,
		cfg.ShopifyAPISecret,
		cfg.Scopes,
		cfg.AppURL,
		logger,
	)

	metrics.MustRegister()

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check - must be public for monitoring
	r.Get("/health", handler.Health)

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Dashboard API
	r.Get("/orders", handler.GetOrders)

	// Webhook endpoint; the body stays raw for signature verification
	r.Post("/webhooks/orders/create", handler.CreateOrderWebhook)

	// OAuth routes
	r.Get("/install", handler.Install)
	r.Get("/auth/callback", handler.OAuthCallback)

	logger.Info().Str("addr", cfg.Addr).Msg("Starting API server")
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
