package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/Mouuuuu1/valoria/config"
	"github.com/Mouuuuu1/valoria/database"
	"github.com/Mouuuuu1/valoria/middleware"
	"github.com/Mouuuuu1/valoria/routes"
	"github.com/Mouuuuu1/valoria/services/account"
	cartsvc "github.com/Mouuuuu1/valoria/services/cart"
	"github.com/Mouuuuu1/valoria/services/catalog"
	"github.com/Mouuuuu1/valoria/services/checkout"
	"github.com/Mouuuuu1/valoria/services/notify"
	"github.com/Mouuuuu1/valoria/services/payment"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Starting application", zap.String("port", cfg.Port))

	db, err := database.Open(cfg, logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}

	ctx := context.Background()
	accounts := account.NewService(db, logger)
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := accounts.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
	}
	if cfg.SeedCatalog {
		if err := database.SeedCatalog(db, logger); err != nil {
			return err
		}
	}

	hub := notify.NewHub(logger)
	notifiers := notify.Multi{notify.Log{Logger: logger}, hub}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.OrderEventsTopic, logger)
		defer func() { _ = kafkaNotifier.Close() }()
		notifiers = append(notifiers, kafkaNotifier)
		logger.Info("Publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.OrderEventsTopic))
	}

	deps := routes.Deps{
		Catalog:       catalog.NewService(db, logger),
		Carts:         cartsvc.NewService(db, logger),
		Checkout:      checkout.NewService(db, checkout.NewNumberGenerator(cfg.OrderNumberPrefix), notifiers, logger),
		Accounts:      accounts,
		Gateway:       payment.NewStripeGateway(cfg.PaymentAPIKey, cfg.PaymentAPIURL, cfg.PaymentCurrency, logger),
		Hub:           hub,
		Logger:        logger,
		JWTSecret:     cfg.JWTSecret,
		WebhookSecret: cfg.PaymentWebhookSecret,
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(logger))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	r.MaxMultipartMemory = 16 << 20

	routes.SetupRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
