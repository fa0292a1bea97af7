package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/JungesAngebot/platform-connectors/internal/api/handler"
	"github.com/JungesAngebot/platform-connectors/internal/api/middleware"
	"github.com/JungesAngebot/platform-connectors/internal/config"
	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
	"github.com/JungesAngebot/platform-connectors/internal/infrastructure/cache"
	"github.com/JungesAngebot/platform-connectors/internal/infrastructure/download"
	"github.com/JungesAngebot/platform-connectors/internal/infrastructure/facebook"
	"github.com/JungesAngebot/platform-connectors/internal/infrastructure/mongo"
	"github.com/JungesAngebot/platform-connectors/internal/infrastructure/youtube"
	"github.com/JungesAngebot/platform-connectors/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Triggers run the workflow inside the request, so the API stages
	// downloads the same way the worker does.
	if err := os.MkdirAll(cfg.Worker.TempDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}

	// Initialize infrastructure clients
	connectorClient, err := mongo.NewClient(ctx, mongo.ClientConfig{
		URI:            cfg.Mongo.ConnectorURI,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to connector MongoDB: %w", err)
	}
	defer connectorClient.Close(context.Background())
	logger.Info("connected to connector MongoDB")

	assetClient, err := mongo.NewClient(ctx, mongo.ClientConfig{
		URI:            cfg.Mongo.AssetURI,
		ConnectTimeout: cfg.Mongo.ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to asset MongoDB: %w", err)
	}
	defer assetClient.Close(context.Background())
	logger.Info("connected to asset MongoDB")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	// Initialize repositories and service
	connectorDB := connectorClient.Database(cfg.Mongo.ConnectorDB)
	assetDB := assetClient.Database(cfg.Mongo.AssetDB)

	registry := mongo.NewRegistryStore(connectorDB, cfg.Mongo.RegistryCollection)
	mappings := cache.NewCachedMappingStore(
		mongo.NewMappingStore(connectorDB, cfg.Mongo.MappingCollection),
		cache.NewRedisMappingCache(redisClient),
		cfg.Redis.CacheTTL,
	)
	catalog := mongo.NewAssetCatalog(assetDB, cfg.Mongo.AssetCollection, cfg.Worker.TempDir)
	thumbnails, err := mongo.NewThumbnailStore(assetDB)
	if err != nil {
		return fmt.Errorf("failed to create thumbnail store: %w", err)
	}

	router, err := buildPlatformRouter(ctx, cfg, mappings, registry)
	if err != nil {
		return err
	}

	svc := usecase.NewConnectorService(registry, catalog, thumbnails, download.NewHTTPDownloader(), router)

	r := setupRouter(logger, handler.NewConnectorHandler(svc))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// buildPlatformRouter wires one adapter per target platform. In test mode a
// dry-run router replaces every platform call so entries can be driven through
// the workflow without credentials.
func buildPlatformRouter(ctx context.Context, cfg *config.Config, mappings repository.MappingStore, registry repository.RegistryStore) (*usecase.PlatformRouter, error) {
	if cfg.TestMode {
		slog.Warn("test mode enabled, platform calls are skipped")
		return usecase.NewDryRunRouter(registry), nil
	}

	fbCfg := facebook.DefaultClientConfig()
	fbCfg.GraphURL = cfg.Facebook.GraphURL
	fb := facebook.NewAdapter(fbCfg, mappings, registry)

	ytCfg := youtube.DefaultClientConfig()
	ytCfg.ClientID = cfg.YouTube.ClientID
	ytCfg.ClientSecret = cfg.YouTube.ClientSecret
	ytCfg.TokenURI = cfg.YouTube.TokenURI
	ytCfg.ServiceAccountFile = cfg.YouTube.ServiceAccountFile
	ytCfg.ClaimPolicyID = cfg.YouTube.ClaimPolicyID

	mcn, err := youtube.NewMCNAdapter(ctx, ytCfg, mappings, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube MCN adapter: %w", err)
	}
	direct := youtube.NewDirectAdapter(ytCfg, mappings, registry)

	return usecase.NewPlatformRouter(fb, mcn, direct), nil
}

func setupRouter(logger *slog.Logger, connector *handler.ConnectorHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/update/{registryID}", connector.Update)
		r.Post("/unpublish/{registryID}", connector.Unpublish)
		r.Post("/delete/{registryID}", connector.Delete)
	})

	return r
}
