package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tair/gadget-inventory/docs"
	"github.com/tair/gadget-inventory/internal/app"
	"github.com/tair/gadget-inventory/internal/config"
	"github.com/tair/gadget-inventory/internal/httpapi"
	orderrepo "github.com/tair/gadget-inventory/internal/order/repository"
	producthttp "github.com/tair/gadget-inventory/internal/product/delivery/http"
	productrepo "github.com/tair/gadget-inventory/internal/product/repository"
	"github.com/tair/gadget-inventory/internal/storage/memory"
	"github.com/tair/gadget-inventory/kafka"
	"github.com/tair/gadget-inventory/pkg/auth"
	"github.com/tair/gadget-inventory/pkg/cache"
	"github.com/tair/gadget-inventory/pkg/database"
	"github.com/tair/gadget-inventory/pkg/logger"
	"github.com/tair/gadget-inventory/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("catalog-service", true)
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	logger.Init(cfg.Logger.ServiceName, cfg.Logger.IsDevelopment)
	logger.SetLevel(cfg.Logger.Level)

	logger.Logger.Info().
		Str("service", cfg.Logger.ServiceName).
		Str("storage", cfg.Storage.Driver).
		Str("log_level", cfg.Logger.Level).
		Msg("Starting catalog service")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize tracer
	tp, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Cache
	var productCache *cache.Cache
	if cfg.Redis.Enabled {
		productCache, err = cache.New(ctx, cfg.Redis.Config)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Redis unavailable, caching disabled")
			productCache = nil
		} else {
			defer productCache.Close()
		}
	}

	// Event bus
	var publisher *kafka.Publisher
	if cfg.Kafka.Enabled() {
		publisher, err = kafka.NewPublisher(cfg.Kafka.Brokers)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka publisher")
		}
		defer publisher.Close()
	}

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL)
	reg := prometheus.DefaultRegisterer

	application, checks, cleanup := initializeApp(ctx, cfg, productCache, publisher, tokens, reg)
	defer cleanup()

	if productCache != nil {
		checks = append(checks, httpapi.HealthCheck{Name: "redis", Ping: productCache.Ping})
	}

	if cfg.Kafka.Enabled() {
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, []string{kafka.TopicSalesOrders})
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka consumer")
		}
		defer consumer.Close()

		application.StockEvents.Register(consumer)
		if err := consumer.Start(ctx); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start Kafka consumer")
		}
	}

	server := newHTTPServer(cfg, application, checks)

	go func() {
		logger.Logger.Info().
			Str("port", cfg.Server.Port).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	logger.Logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
}

// initializeApp connects the configured storage backend and builds the application
func initializeApp(
	ctx context.Context,
	cfg *config.Config,
	productCache *cache.Cache,
	publisher *kafka.Publisher,
	tokens *auth.TokenService,
	reg prometheus.Registerer,
) (*app.App, []httpapi.HealthCheck, func()) {
	switch cfg.Storage.Driver {
	case config.DriverMongo:
		client, err := database.NewMongoClient(ctx, cfg.Mongo)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		db := client.Database(cfg.Mongo.Database)

		if cfg.Storage.AutoMigrate {
			if err := productrepo.NewMongoProductRepository(db).EnsureIndexes(ctx); err != nil {
				logger.Logger.Fatal().Err(err).Msg("Failed to create product indexes")
			}
			if err := orderrepo.NewMongoOrderRepository(db).EnsureIndexes(ctx); err != nil {
				logger.Logger.Fatal().Err(err).Msg("Failed to create order indexes")
			}
		}

		application, err := app.InitializeMongoApp(db, productCache, publisher, tokens, reg)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to initialize application")
		}

		checks := []httpapi.HealthCheck{{
			Name: "mongo",
			Ping: func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
		}}
		return application, checks, func() { _ = client.Disconnect(context.Background()) }

	case config.DriverMemory:
		logger.Logger.Warn().Msg("Using in-memory storage, data is lost on restart")

		application, err := app.InitializeMemoryApp(memory.NewStore(), productCache, publisher, tokens, reg)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to initialize application")
		}
		return application, nil, func() {}

	default:
		db, err := database.NewGormConnection(cfg.Postgres)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
		}

		sqlDB, err := db.DB()
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
		}

		// Run migrations
		if cfg.Storage.AutoMigrate {
			if err := productrepo.NewGormProductRepository(db).AutoMigrate(); err != nil {
				logger.Logger.Fatal().Err(err).Msg("Failed to migrate products")
			}
			if err := orderrepo.NewGormOrderRepository(db).AutoMigrate(); err != nil {
				logger.Logger.Fatal().Err(err).Msg("Failed to migrate sales orders")
			}
		}

		logger.Logger.Info().Msg("Database initialized successfully")

		application, err := app.InitializeGormApp(db, productCache, publisher, tokens, reg)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to initialize application")
		}

		checks := []httpapi.HealthCheck{{Name: "database", Ping: sqlDB.PingContext}}
		return application, checks, func() { _ = sqlDB.Close() }
	}
}

func newHTTPServer(cfg *config.Config, application *app.App, checks []httpapi.HealthCheck) *http.Server {
	// Setup router
	router := mux.NewRouter()

	// Register all middlewares using middleware registration system
	middlewareConfig := httpapi.DefaultMiddlewareConfig(cfg.Logger.ServiceName, cfg.Server.AllowedOrigins)
	middlewareConfig.EnableTracing = cfg.Tracing.Enabled
	httpapi.RegisterMiddlewares(router, middlewareConfig)

	// Register routes
	application.Products.RegisterRoutes(router)
	application.Orders.RegisterRoutes(router)

	// Health check endpoint
	httpapi.RegisterHealthCheck(router, cfg.Logger.ServiceName, checks...)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Swagger UI
	docs.SwaggerInfo.Host = "localhost:" + cfg.Server.Port
	producthttp.RegisterSwaggerDocs(router, httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      httpapi.CORS(middlewareConfig, router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
