package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marketplace-service/controllers"
	"marketplace-service/database"
	"marketplace-service/kafka"
	"marketplace-service/logger"
	"marketplace-service/middleware"
	aws_pkg "marketplace-service/pkg/aws"
	"marketplace-service/repository"
	"marketplace-service/routes"
	"marketplace-service/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const serviceName = "marketplace-service"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Config load failed: %v", err)
	}

	zl, err := logger.New(cfg.Env)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer zl.Sync()

	// --- Database ---
	db, err := database.ConnectPostgres(cfg.Postgres(), zl)
	if err != nil {
		zl.Fatal("DB connection failed", zap.Error(err))
	}

	// --- Redis (idempotency keys, optional) ---
	var redisClient *redis.Client
	var idem repository.IdempotencyStore
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			zl.Warn("Redis unavailable, idempotency keys disabled", zap.Error(err))
		} else {
			idem = repository.NewRedisIdempotencyStore(redisClient)
		}
	}

	// --- Event sinks ---
	var producer kafka.ProducerAPI
	if len(cfg.KafkaBrokers) > 0 {
		producer = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, zl)
	}

	var snsClient aws_pkg.SNSPublisher
	var metricsClient *aws_pkg.MetricsClient
	awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
	if err != nil {
		zl.Warn("AWS config unavailable, SNS and CloudWatch disabled", zap.Error(err))
	} else {
		if cfg.SNSTopicARN != "" {
			snsClient = aws_pkg.NewSNSClient(awsCfg)
		}
		metricsClient = aws_pkg.NewMetricsClient(awsCfg, "Marketplace", cfg.MetricsEnabled)
	}
	events := services.NewEventPublisher(producer, snsClient, cfg.SNSTopicARN, zl)

	// --- Dependency injection ---
	orderRepo := repository.NewGormOrderRepository(db)
	cartRepo := repository.NewGormCartRepository(db)
	catalogRepo := repository.NewGormCatalogRepository(db)
	reviewRepo := repository.NewGormReviewRepository(db)
	statsRepo := repository.NewGormStatisticsRepository(db)

	orderService := services.NewOrderService(orderRepo, statsRepo, events, metricsClient, zl)
	checkoutService := services.NewCheckoutService(cartRepo, catalogRepo, orderRepo, idem, events, metricsClient,
		services.CheckoutOptions{Concurrency: cfg.CheckoutConcurrency, IdempotencyTTL: cfg.IdempotencyTTL}, zl)
	cartService := services.NewCartService(cartRepo, catalogRepo, zl)
	reviewService := services.NewReviewService(orderRepo, reviewRepo, events, metricsClient, zl)

	// --- HTTP router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(middleware.RequestLogger(zl))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()
	checkoutLimiter := middleware.NewRateLimiter(rate.Limit(cfg.CheckoutRateLimit), cfg.CheckoutBurst, 10*time.Minute)
	go checkoutLimiter.Run(rootCtx)

	routes.RegisterRoutes(r, routes.Controllers{
		Orders:   controllers.NewOrderController(orderService),
		Checkout: controllers.NewCheckoutController(checkoutService),
		Cart:     controllers.NewCartController(cartService),
		Reviews:  controllers.NewReviewController(reviewService),
	}, middleware.AuthMiddleware([]byte(cfg.JWTSecret)), checkoutLimiter)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})

	// --- HTTP server ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		zl.Info("Marketplace Service started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("Initiating graceful shutdown...")
	stop()
	httpShutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(httpShutdownCtx); err != nil {
		zl.Error("Server shutdown error", zap.Error(err))
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			zl.Error("Kafka producer close error", zap.Error(err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			zl.Error("Redis close error", zap.Error(err))
		}
	}
	if err := database.Close(db); err != nil {
		zl.Error("Database close error", zap.Error(err))
	}

	zl.Info("Marketplace Service stopped gracefully")
}
