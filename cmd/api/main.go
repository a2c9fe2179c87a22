package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-backend/config"
	"storefront-backend/internal/delivery/http/middleware"
	v1 "storefront-backend/internal/delivery/http/v1"
	infracache "storefront-backend/internal/infrastructure/cache"
	pgrepo "storefront-backend/internal/repository/postgres"
	"storefront-backend/internal/usecase"
	"storefront-backend/pkg/cache"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/storage"
	"storefront-backend/pkg/utils"

	"github.com/NYTimes/gziphandler"
	"github.com/google/uuid"
)

const serviceName = "storefront-shipping"

var version = "dev"

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	ctx := context.Background()

	pgxPool, err := pgrepo.NewPgxPool(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgxPool.Close()
	log.Info().Msg("Successfully connected to PostgreSQL via pgx")

	if err := pgrepo.InitSchema(ctx, pgxPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize shipping schema")
	}

	shippingRepo := pgrepo.NewShippingRepository(pgxPool)
	txManager := pgrepo.NewTransactionManager(pgxPool)
	settingsCache := newCache(cfg)

	// Logo uploads are disabled when R2 is not configured.
	var logoStorage usecase.LogoStorage
	if cfg.StorageEnabled() {
		r2Storage, err := storage.NewR2Storage(
			ctx,
			cfg.R2AccountID,
			cfg.R2AccessKeyID,
			cfg.R2AccessKeySecret,
			cfg.R2BucketName,
			cfg.R2PublicURL,
			cfg.R2UploadTimeout,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize R2 Storage")
		}
		logoStorage = r2Storage
	} else {
		log.Warn().Msg("R2 storage not configured, carrier logo uploads disabled")
	}

	shippingUC := usecase.NewShippingUsecase(shippingRepo, settingsCache, cfg.CacheSettingsTTL, cfg.MaxQuoteItems)
	settingsUC := usecase.NewShippingSettingsUsecase(shippingRepo, txManager, settingsCache, logoStorage)

	seedShipping(ctx, cfg, settingsUC)

	shippingHandler := v1.NewShippingHandler(shippingUC)
	configHandler := v1.NewConfigHandler(settingsCache, shippingUC, cfg.CacheSettingsTTL)
	adminHandler := v1.NewAdminShippingHandler(settingsUC)
	logoHandler := v1.NewLogoUploadHandler(settingsUC, cfg.MaxUploadSizeMB)
	healthHandler := v1.NewHealthHandler(pgxPool)

	mux := http.NewServeMux()

	// Shipping (Public)
	mux.HandleFunc("POST /api/v1/shipping/quote", shippingHandler.Quote)
	mux.HandleFunc("POST /api/v1/shipping/options", shippingHandler.Options)
	mux.HandleFunc("GET /api/v1/config/shipping", configHandler.GetShippingConfig)

	// Shipping settings (Admin)
	mux.Handle("GET /api/v1/admin/shipping/settings", middleware.Admin(adminHandler.GetSettings))
	mux.Handle("PUT /api/v1/admin/shipping/settings/general", middleware.Admin(adminHandler.UpdateGeneral))
	mux.Handle("PUT /api/v1/admin/shipping/settings/package-defaults", middleware.Admin(adminHandler.UpdatePackageDefaults))

	mux.Handle("POST /api/v1/admin/shipping/zones", middleware.Admin(adminHandler.CreateZone))
	mux.Handle("PATCH /api/v1/admin/shipping/zones/{id}", middleware.Admin(adminHandler.UpdateZone))
	mux.Handle("DELETE /api/v1/admin/shipping/zones/{id}", middleware.Admin(adminHandler.DeleteZone))

	mux.Handle("POST /api/v1/admin/shipping/carriers", middleware.Admin(adminHandler.CreateCarrier))
	mux.Handle("PATCH /api/v1/admin/shipping/carriers/{id}", middleware.Admin(adminHandler.UpdateCarrier))
	mux.Handle("DELETE /api/v1/admin/shipping/carriers/{id}", middleware.Admin(adminHandler.DeleteCarrier))
	mux.Handle("POST /api/v1/admin/shipping/carriers/{id}/logo", middleware.Admin(logoHandler.UploadCarrierLogo))
	mux.Handle("PUT /api/v1/admin/shipping/carriers/{carrierId}/rates/{zoneId}", middleware.Admin(adminHandler.UpsertRate))

	mux.HandleFunc("GET /api/v1/health", healthHandler.Health)
	mux.HandleFunc("GET /health", healthHandler.Health) // load balancers check the root path

	rateLimiter := middleware.NewRateLimiter(ctx, middleware.RateLimitConfig{
		RPS:           cfg.RateLimitRPS,
		Burst:         cfg.RateLimitBurst,
		CleanupPeriod: time.Minute,
		ClientTTL:     3 * time.Minute,
		Exempt:        []string{"/health", "/api/v1/health"},
	})

	handler := middleware.NewCORSMiddleware(cfg.AllowedOrigin)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()
	logger.ServiceStart(serviceName, version, cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")
	rateLimiter.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	logger.ServiceStop(serviceName)
}

func newCache(cfg *config.Config) cache.CacheService {
	if cfg.CacheDriver == "redis" {
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis settings cache")
		return infracache.NewRedisCache(cfg.RedisAddr)
	}
	// Default expiration 30m, cleanup every 60m
	return infracache.NewMemoryCache(30*time.Minute, 60*time.Minute)
}

// seedShipping populates an empty database from the YAML seed file. Seed
// failures are logged, not fatal.
func seedShipping(ctx context.Context, cfg *config.Config, settingsUC *usecase.ShippingSettingsUsecase) {
	if cfg.ShippingSeedFile == "" {
		return
	}
	log := logger.Get()

	seed, err := config.LoadShippingSeed(cfg.ShippingSeedFile)
	if err != nil {
		log.Warn().Err(err).Str("file", cfg.ShippingSeedFile).Msg("Shipping seed not loaded")
		return
	}
	settings, err := seed.ToSettings(uuid.NewString)
	if err != nil {
		log.Error().Err(err).Str("file", cfg.ShippingSeedFile).Msg("Shipping seed is invalid")
		return
	}

	seeded, err := settingsUC.SeedIfEmpty(ctx, settings)
	if err != nil {
		log.Error().Err(err).Msg("Failed to seed shipping settings")
		return
	}
	if seeded {
		log.Info().Int("zones", len(settings.Zones)).Int("carriers", len(settings.Carriers)).Msg("Seeded shipping settings")
	}
}
