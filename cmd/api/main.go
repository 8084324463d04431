//	@title			Imagehost API
//	@version		1.0
//	@description	Tiered image hosting: uploads, thumbnails and expiring links.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/radif/imagehost/internal/account"
	"github.com/radif/imagehost/internal/config"
	"github.com/radif/imagehost/internal/db"
	"github.com/radif/imagehost/internal/imaging"
	"github.com/radif/imagehost/internal/logging"
	"github.com/radif/imagehost/internal/media"
	appMiddleware "github.com/radif/imagehost/internal/middleware"
	"github.com/radif/imagehost/internal/signedlink"
	"github.com/radif/imagehost/internal/storage"
	"github.com/radif/imagehost/internal/tier"

	_ "github.com/radif/imagehost/docs/swagger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration failed")
	}
	logging.Setup(cfg.LogLevel, !cfg.IsProduction())

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}

	tiers, err := tier.LoadRegistry(ctx, tier.NewRepository(pool))
	if err != nil {
		log.Fatal().Err(err).Msg("loading tiers failed")
	}
	log.Info().Int("tiers", tiers.Len()).Msg("tier registry loaded")

	var blobs storage.Storage
	if cfg.StorageEndpoint == "" {
		log.Warn().Msg("STORAGE_ENDPOINT is empty, originals are kept in memory")
		blobs = storage.NewMemoryStorage()
	} else {
		blobs, err = storage.NewMinioStorage(ctx, storage.MinioOptions{
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			UseSSL:    cfg.StorageUseSSL,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("object storage init failed")
		}
	}

	var deriver imaging.Deriver = imaging.NewPool(cfg.DeriveWorkers)
	if cfg.DerivativeCacheDir != "" {
		cache, err := imaging.OpenBadgerCache(cfg.DerivativeCacheDir)
		if err != nil {
			log.Fatal().Err(err).Msg("derivative cache init failed")
		}
		defer cache.Close()
		deriver = imaging.NewCachedDeriver(deriver, cache)
	}

	signer, err := signedlink.New([]byte(cfg.LinkSigningSecret), signedlink.WithTTLBounds(cfg.LinkMinTTL, cfg.LinkMaxTTL))
	if err != nil {
		log.Fatal().Err(err).Msg("link signer init failed")
	}

	// Wire dependencies: repository → service → handler
	accountSvc := account.NewService(account.NewRepository(pool), tiers)
	accountHandler := account.NewHandler(accountSvc)

	mediaSvc := media.NewService(media.NewRepository(pool), blobs, deriver, signer, accountSvc, media.Limits{
		MaxBytes:            cfg.MaxUploadBytes,
		MaxPixels:           cfg.MaxImagePixels,
		AllowedContentTypes: cfg.AllowedContentTypes,
	})
	mediaHandler := media.NewHandler(mediaSvc, accountSvc, media.HandlerConfig{
		PublicBase:          cfg.PublicBaseURL,
		TrustForwardedProto: cfg.TrustProxyHeaders,
		MaxBytes:            cfg.MaxUploadBytes,
	})

	requireAuth := appMiddleware.RequireAuth([]byte(cfg.JWTSecret))

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"database unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.With(requireAuth).Get("/me", accountHandler.GetMe)
	r.Mount("/", mediaHandler.Routes(requireAuth))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	log.Info().Msg("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
