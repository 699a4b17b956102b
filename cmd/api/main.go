package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"printflow-core-monday-layer/internal/application"
	"printflow-core-monday-layer/internal/application/webhook_handlers"
	apiinfra "printflow-core-monday-layer/internal/infrastructure/api"
	mondayinfra "printflow-core-monday-layer/internal/infrastructure/monday"
	"printflow-core-monday-layer/internal/infrastructure/pubsub"
	"printflow-core-monday-layer/internal/infrastructure/repository"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("⚠️  Warning: .env file not found")
	}

	// Get configuration from environment
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	dbName := os.Getenv("MONGODB_DATABASE")
	if dbName == "" {
		dbName = "printflow"
	}

	webhookAPIKey := os.Getenv("WEBHOOK_API_KEY")
	if webhookAPIKey == "" {
		logger.Warn().Msg("WEBHOOK_API_KEY not set, order intake webhook will reject all requests")
	}

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(dbName)

	// Initialize pub/sub for live order streams
	orderPubSub := pubsub.NewOrderPubSub(logger)

	// Initialize repositories
	orderRepo := repository.NewMongoOrderRepository(db, orderPubSub, logger)
	settingsRepo := repository.NewMongoSettingsRepository(db)
	userRepo := repository.NewMongoUserRepository(db)
	webhookLogRepo := repository.NewMongoWebhookLogRepository(db)

	// Initialize Monday API client
	mondayClient := mondayinfra.NewClient(logger)

	// Initialize application services
	syncService := application.NewMondaySyncService(settingsRepo, mondayClient, logger)
	orderService := application.NewOrderService(orderRepo, userRepo, syncService, logger)
	settingsService := application.NewSettingsService(settingsRepo, syncService, logger)

	// Initialize webhook handlers
	intakeHandler := webhook_handlers.NewIntakeHandler(orderService, webhookLogRepo, webhookAPIKey, logger)
	mondayHandler := webhook_handlers.NewMondayWebhookHandler(orderService, settingsRepo, webhookLogRepo, logger)

	// Initialize REST handlers
	ordersHandler := apiinfra.NewOrdersHandler(orderService, logger)
	settingsHandler := apiinfra.NewSettingsHandler(settingsService, logger)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health check - must be public for monitoring
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// Webhook endpoints
	r.Handle("/api/webhook", intakeHandler)
	r.Handle("/api/monday-webhook", mondayHandler)

	// REST API
	r.Mount("/api/orders", ordersHandler.Routes())
	r.Mount("/api/settings", settingsHandler.Routes())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("Starting API server")
	logger.Info().Msg("Swagger documentation available at http://localhost:" + port + "/swagger/index.html")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}
