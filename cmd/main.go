package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"medassist/internal/analytics"
	"medassist/internal/availability"
	"medassist/internal/caching"
	"medassist/internal/common"
	"medassist/internal/config"
	"medassist/internal/handlers"
	"medassist/internal/jobs"
	"medassist/internal/jobs/background"
	"medassist/internal/middleware"
	"medassist/internal/models"
	"medassist/internal/repositories"
	"medassist/internal/services"
	"medassist/pkg/database"
	"medassist/pkg/logger"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.Env, cfg.LogLevel)
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer cacheSvc.Close()

	minioSvc, err := services.NewMinioService(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MinIO service")
	}
	for _, bucket := range []string{cfg.Minio.MedicineBucket, cfg.Minio.PharmacyBucket} {
		if err := minioSvc.EnsureBucketExists(ctx, bucket); err != nil {
			log.Warn().Err(err).Str("bucket", bucket).Msg("Image bucket unavailable, uploads will fail")
		}
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
	queueClient := asynq.NewClient(redisOpt)
	defer queueClient.Close()

	clock := availability.SystemClock(cfg.Location)

	// Repositories
	medicineRepo := repositories.NewMedicineRepo(pool)
	pharmacyRepo := repositories.NewPharmacyRepo(pool)
	offerRepo := repositories.NewOfferRepo(pool)
	subscriptionRepo := repositories.NewSubscriptionRepo(pool)

	// Services
	images := services.NewImageResolver(minioSvc, cfg.Minio.MedicineBucket, cfg.Minio.PharmacyBucket, cfg.Minio.PresignedExpiry)
	analyticsSvc := analytics.NewAnalyticsService(offerRepo, cacheSvc, cfg.Jobs.TrendingCacheTTL, images.Medicine)
	searchSvc := services.NewSearchService(medicineRepo, offerRepo, images, clock, cfg.Search)
	medicineSvc := services.NewMedicineService(medicineRepo, offerRepo, analyticsSvc, cacheSvc, minioSvc, images,
		cfg.Minio.MedicineBucket, cfg.Jobs.CategoriesCacheTTL, clock)
	pharmacySvc := services.NewPharmacyService(pharmacyRepo, offerRepo, minioSvc, images, cfg.Minio.PharmacyBucket, clock, cfg.Search)
	inventorySvc := services.NewInventoryService(offerRepo, pharmacyRepo, medicineRepo, cfg.Search)

	smsNotifier := services.NewSMSNotifier(cfg.SMS)
	queueNotifier := jobs.NewQueueNotifier(queueClient)
	gateway := services.NewMpesaGateway(cfg.Mpesa, clock)
	subscriptionSvc := services.NewSubscriptionService(subscriptionRepo, gateway, queueNotifier, cfg.Plans, clock)

	// Background work
	analyticsRefresh := jobs.NewAnalyticsRefreshService(analyticsSvc)
	lowStockAlerts := jobs.NewLowStockAlertService(offerRepo, queueNotifier)
	scheduler, err := background.NewJobScheduler(cfg.Jobs, subscriptionSvc, analyticsRefresh, lowStockAlerts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create job scheduler")
	}

	worker := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Queuing.Concurrency,
		Queues:      cfg.Queuing.QueuePriorities,
	})

	// Handlers
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, minioSvc, version)
	medicineHandlers := handlers.NewMedicineHandlers(searchSvc, medicineSvc)
	pharmacyHandlers := handlers.NewPharmacyHandlers(pharmacySvc)
	inventoryHandlers := handlers.NewInventoryHandlers(inventorySvc)
	paymentHandlers := handlers.NewPaymentHandlers(subscriptionSvc, cfg.Mpesa.CallbackToken, cfg.Location)
	jobHandlers := handlers.NewJobHandlers(scheduler, analyticsRefresh, lowStockAlerts)

	publicLimit, err := middleware.RateLimit(cfg.Jobs.PublicRateLimit)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid PUBLIC_RATE_LIMIT")
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = common.HTTPErrorHandler

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.BodyLimit("10M"))
	e.Use(echoMiddleware.RemoveTrailingSlash())

	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/detailed", healthHandlers.DetailedHealthCheck)

	v1 := middleware.MountVersion(e, middleware.APIVersion{Name: "v1"})
	v1.Use(middleware.AuditWrites())

	authenticate := middleware.Authenticate(cfg.JWTSecret)
	optionalAuth := middleware.OptionalAuthenticate(cfg.JWTSecret)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	pharmacyStaff := middleware.RequireRole(models.RolePharmacy, models.RoleAdmin)

	medicines := v1.Group("/medicines")
	medicines.GET("/search", medicineHandlers.Search, publicLimit, optionalAuth,
		middleware.SearchQuota(subscriptionSvc, cacheSvc, clock))
	medicines.GET("/categories", medicineHandlers.Categories, publicLimit)
	medicines.GET("/trending", medicineHandlers.Trending, publicLimit)
	medicines.GET("/overview", medicineHandlers.Overview, publicLimit)
	medicines.GET("/:id", medicineHandlers.GetMedicine, publicLimit)
	medicines.POST("", medicineHandlers.CreateMedicine, authenticate, pharmacyStaff)
	medicines.POST("/:id/image", medicineHandlers.UploadImage, authenticate, pharmacyStaff)

	pharmacies := v1.Group("/pharmacies")
	pharmacies.GET("/nearby", pharmacyHandlers.Nearby, publicLimit)
	pharmacies.GET("/:id", pharmacyHandlers.GetPharmacy, publicLimit)
	pharmacies.GET("/:id/inventory", pharmacyHandlers.Inventory, publicLimit)
	pharmacies.POST("", pharmacyHandlers.CreatePharmacy, authenticate)
	pharmacies.PUT("/:id", pharmacyHandlers.UpdatePharmacy, authenticate)
	pharmacies.POST("/:id/images", pharmacyHandlers.UploadImage, authenticate)

	inventory := v1.Group("/inventory", authenticate, pharmacyStaff)
	inventory.GET("", inventoryHandlers.ListInventory)
	inventory.POST("", inventoryHandlers.UpsertInventory)
	inventory.GET("/alerts", inventoryHandlers.LowStockAlerts)
	inventory.DELETE("/:id", inventoryHandlers.DeleteInventory)

	payments := v1.Group("/payments")
	payments.GET("/plans", paymentHandlers.Plans, authenticate)
	payments.POST("/callback", paymentHandlers.Callback)
	payments.POST("/subscribe", paymentHandlers.Subscribe, authenticate,
		middleware.Throttle(cacheSvc, "subscribe", 5, time.Minute))
	payments.POST("/query", paymentHandlers.QueryPayment, authenticate)
	payments.GET("/subscriptions", paymentHandlers.Subscriptions, authenticate)
	payments.GET("/subscriptions/:id/receipt", paymentHandlers.Receipt, authenticate)
	payments.POST("/cancel", paymentHandlers.Cancel, authenticate)

	admin := v1.Group("/admin", authenticate, adminOnly)
	admin.GET("/jobs", jobHandlers.Status)
	admin.POST("/jobs/trending-refresh", jobHandlers.RefreshTrending)
	admin.POST("/jobs/low-stock-scan", jobHandlers.ScanLowStock)

	// Workers and scheduler
	go func() {
		if err := worker.Run(jobs.NewServeMux(jobs.NewSMSHandler(smsNotifier))); err != nil {
			log.Error().Err(err).Msg("Task worker stopped")
		}
	}()
	scheduler.Start()

	go func() {
		if _, err := analyticsRefresh.ScheduledTrendingRefresh(ctx); err != nil {
			log.Warn().Err(err).Msg("Initial trending refresh failed")
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		log.Info().Str("version", version).Str("addr", addr).Str("env", cfg.Env).Msg("MedAssist server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := scheduler.Stop(); err != nil {
		log.Error().Err(err).Msg("Scheduler shutdown failed")
	}
	worker.Shutdown()
}
