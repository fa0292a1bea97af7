package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/JungesAngebot/platform-connectors/internal/config"
	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
	"github.com/JungesAngebot/platform-connectors/internal/infrastructure/cache"
	"github.com/JungesAngebot/platform-connectors/internal/infrastructure/download"
	"github.com/JungesAngebot/platform-connectors/internal/infrastructure/facebook"
	"github.com/JungesAngebot/platform-connectors/internal/infrastructure/mongo"
	"github.com/JungesAngebot/platform-connectors/internal/infrastructure/queue"
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

	// Ensure staging directory exists
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

	queueCfg := queue.DefaultClientConfig(cfg.RabbitMQ.URL())
	queueCfg.QueueName = cfg.RabbitMQ.QueueName
	queueCfg.RoutingKey = cfg.RabbitMQ.QueueName
	queueCfg.Prefetch = cfg.RabbitMQ.Prefetch

	queueClient, err := queue.NewClient(ctx, queueCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

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

	// Setup signal handling for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// WaitGroup to track in-flight runs
	var wg sync.WaitGroup

	// Start consuming messages in a goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting worker, consuming publish notifications")
		err := queueClient.ConsumeNotifications(ctx, func(n repository.Notification) error {
			wg.Add(1)
			defer wg.Done()

			logger.Info("processing notification",
				slog.String("registry_id", n.RegistryID),
				slog.String("event", n.Event.String()),
			)

			if err := dispatch(ctx, svc, n); err != nil {
				logger.Error("notification run failed",
					slog.String("registry_id", n.RegistryID),
					slog.String("event", n.Event.String()),
					slog.String("error", err.Error()),
				)
				return err
			}

			logger.Info("notification processed",
				slog.String("registry_id", n.RegistryID),
				slog.String("event", n.Event.String()),
			)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down worker", slog.String("signal", sig.String()))
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Worker.ShutdownTimeout)
	defer shutdownCancel()

	// Cancel the main context to stop consuming new messages
	cancel()

	// Wait for in-flight runs to complete (or timeout)
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all in-flight runs completed")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, some runs may not have completed")
	}

	logger.Info("worker stopped")
	return nil
}

// dispatch maps a notification event onto the matching workflow entry point.
func dispatch(ctx context.Context, svc usecase.ConnectorService, n repository.Notification) error {
	switch n.Event {
	case repository.EventUpdate:
		return svc.Update(ctx, n.RegistryID)
	case repository.EventUnpublish:
		return svc.Unpublish(ctx, n.RegistryID)
	case repository.EventDelete:
		return svc.Delete(ctx, n.RegistryID)
	default:
		return fmt.Errorf("unknown event %q for registry entry %s", n.Event, n.RegistryID)
	}
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
