package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/stitchworks/uniform-order-service/config"
	"github.com/stitchworks/uniform-order-service/pkg/broker"
	"github.com/stitchworks/uniform-order-service/pkg/cache"
	"github.com/stitchworks/uniform-order-service/pkg/database/postgres"
	"github.com/stitchworks/uniform-order-service/pkg/logger"

	catH "github.com/stitchworks/uniform-order-service/internal/catalog/handler"
	catListenerPkg "github.com/stitchworks/uniform-order-service/internal/catalog/listener"
	catRepoPkg "github.com/stitchworks/uniform-order-service/internal/catalog/repository"
	catUCPkg "github.com/stitchworks/uniform-order-service/internal/catalog/usecase"

	orderH "github.com/stitchworks/uniform-order-service/internal/order/handler"
	orderRepoPkg "github.com/stitchworks/uniform-order-service/internal/order/repository"
	orderUCPkg "github.com/stitchworks/uniform-order-service/internal/order/usecase"

	"github.com/stitchworks/uniform-order-service/internal/payment/ocr"

	payH "github.com/stitchworks/uniform-order-service/internal/payment/handler"
	payRepoPkg "github.com/stitchworks/uniform-order-service/internal/payment/repository"
	payUCPkg "github.com/stitchworks/uniform-order-service/internal/payment/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka Consumer
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 6. Initialize Repositories
	catRepo := catRepoPkg.NewPGRepository(db)
	orderRepo := orderRepoPkg.NewPGRepository(db)
	payRepo := payRepoPkg.NewPGRepository(db)

	// 7. Initialize OCR client
	ocrClient := ocr.NewClient(&ocr.Config{
		Endpoint: cfg.OCR.Endpoint,
		APIKey:   cfg.OCR.APIKey,
		Timeout:  cfg.OCR.Timeout,
	}, appLogger)

	// 8. Initialize UseCases
	catUC := catUCPkg.NewCatalogUseCase(catRepo, redisClient, appLogger)
	orderUC := orderUCPkg.NewOrderUseCase(orderRepo, catUC, appLogger)
	payUC := payUCPkg.NewPaymentUseCase(payRepo, orderRepo, ocrClient, redisClient, appLogger)

	// Warm the catalog index before serving requests.
	if err := catUC.Load(context.Background()); err != nil {
		appLogger.Fatal("Could not load catalog feed", zap.Error(err))
	}

	// 9. Start Catalog Listener
	catListener := catListenerPkg.NewCatalogListener(kafkaConsumer, catUC, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go catListener.Start(ctx)

	// 10. Initialize Handlers
	mux := http.NewServeMux()
	catH.NewCatalogHandler(catUC, appLogger).RegisterRoutes(mux)
	orderH.NewOrderHandler(orderUC, appLogger).RegisterRoutes(mux)
	payH.NewPaymentHandler(payUC, appLogger).RegisterRoutes(mux)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// 11. Start HTTP Server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	server := &http.Server{
		Addr:         port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
