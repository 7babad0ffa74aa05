package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/ordershop/pkg/clients"
	"github.com/example/ordershop/pkg/config"
	"github.com/example/ordershop/pkg/discovery"
	"github.com/example/ordershop/pkg/saga"
	"github.com/example/ordershop/pkg/store"
	"github.com/example/ordershop/server"
	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting order service",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	ctx := context.Background()

	// Order store
	orderStore, err := store.NewMongoOrderStore(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := orderStore.Ping(ctx); err != nil {
		logger.Fatal("MongoDB ping failed", zap.Error(err))
	}
	logger.Info("MongoDB connected successfully")

	// Read cache
	cache := store.NewOrderCache(&cfg.Redis)
	if err := cache.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed, continuing without read cache", zap.Error(err))
		cache = nil
	} else {
		logger.Info("Redis connected successfully")
	}

	// Service discovery is optional: without etcd the configured base URLs
	// are used as-is.
	directoryURL := cfg.Services.DirectoryURL
	catalogURL := cfg.Services.CatalogURL

	sd, err := discovery.NewServiceDiscovery(&cfg.Etcd)
	if err != nil {
		logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		sd = nil
	} else {
		instance := &discovery.ServiceInstance{
			Name: cfg.Server.Name,
			Host: cfg.Server.Host,
			Port: cfg.Server.Port,
		}
		if err := sd.Register(ctx, instance); err != nil {
			logger.Warn("Failed to register service in etcd", zap.Error(err))
		} else {
			logger.Info("Service registered in etcd",
				zap.String("name", cfg.Server.Name),
				zap.String("address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)))
		}
		defer func() {
			if err := sd.Deregister(context.Background(), instance); err != nil {
				logger.Error("Failed to deregister service", zap.Error(err))
			}
			sd.Close()
		}()

		directoryURL = sd.ResolveBaseURL(ctx, "user-service", directoryURL)
		catalogURL = sd.ResolveBaseURL(ctx, "product-service", catalogURL)
	}

	logger.Info("Using collaborator endpoints",
		zap.String("user_service", directoryURL),
		zap.String("product_service", catalogURL))

	// Remote clients
	directoryClient := clients.NewDirectoryClient(directoryURL, cfg.Services.RequestTimeout, logger)
	catalogClient := clients.NewCatalogClient(catalogURL, cfg.Services.RequestTimeout, logger)

	// Saga coordinator and HTTP server
	var invalidator saga.CacheInvalidator
	if cache != nil {
		invalidator = cache
	}
	coordinator := saga.NewCoordinator(orderStore, directoryClient, catalogClient, invalidator, logger)
	srv := server.New(cfg, logger, coordinator, orderStore, cache)
	srv.SetupRoutes()

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := orderStore.Close(closeCtx); err != nil {
		logger.Error("Failed to close MongoDB connection", zap.Error(err))
	}
	if cache != nil {
		cache.Close()
	}

	logger.Info("Service stopped")
}
