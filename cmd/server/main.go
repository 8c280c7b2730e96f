package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ttokjang/backend/config"
	httpDelivery "github.com/ttokjang/backend/internal/delivery/http"
	"github.com/ttokjang/backend/internal/domain"
	"github.com/ttokjang/backend/internal/infrastructure/cache"
	"github.com/ttokjang/backend/internal/infrastructure/catalog"
	"github.com/ttokjang/backend/internal/infrastructure/naver"
	"github.com/ttokjang/backend/internal/logger"
	"github.com/ttokjang/backend/internal/usecase"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Initialize(cfg.Server.Environment, cfg.Log.Level)
	defer logger.Log.Sync()
	log := logger.Log

	log.Info("Starting ttokjang backend",
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache_type", cfg.Cache.Type),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Catalog
	store, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("open catalog %s: %w", cfg.Catalog.Path, err)
	}
	defer store.Close()

	if cfg.Catalog.SeedFile != "" {
		seeded, err := catalog.Seed(ctx, store, cfg.Catalog.SeedFile)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Warn("Catalog seed file not found", zap.String("path", cfg.Catalog.SeedFile))
		case err != nil:
			return fmt.Errorf("seed catalog: %w", err)
		case seeded > 0:
			log.Info("Catalog seeded", zap.Int("products", seeded), zap.String("from", cfg.Catalog.SeedFile))
		}
	}
	if count, err := store.Count(ctx); err == nil {
		log.Info("Catalog ready", zap.String("path", cfg.Catalog.Path), zap.Int("products", count))
	}

	// Cache
	cacheRepo, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer cacheRepo.Close()
	log.Info("Cache ready", zap.String("type", cfg.Cache.Type), zap.Duration("ttl", cfg.Cache.TTL))

	// Local search
	naverClient := naver.NewClient(naver.Config{
		ClientID:      cfg.Naver.ClientID,
		ClientSecret:  cfg.Naver.ClientSecret,
		BaseURL:       cfg.Naver.BaseURL,
		Timeout:       cfg.Naver.Timeout,
		RetryMax:      cfg.Naver.RetryMax,
		RatePerSecond: float64(cfg.RateLimit.Naver),
		Logger:        log.Named("naver"),
	})
	if !naverClient.Configured() {
		log.Warn("Local search API credentials missing, geocoding will answer 503")
	}

	// Usecase layer
	matcher := usecase.NewMatchingService(store, usecase.MatchConfig{
		MinScore:     cfg.Matching.MinScore,
		SuggestLimit: cfg.Matching.SuggestLimit,
	}, log.Named("matching"))

	candidateService := usecase.NewCandidateService(cacheRepo, matcher, usecase.CandidateServiceConfig{
		CacheTTL:     cfg.Cache.TTL,
		MaxItems:     cfg.Matching.MaxItems,
		Concurrency:  cfg.Matching.Concurrency,
		SuggestLimit: cfg.Matching.SuggestLimit,
	}, log.Named("candidates"))

	geocodeService := usecase.NewGeocodeService(cacheRepo, naverClient, usecase.GeocodeServiceConfig{
		CacheTTL: cfg.Cache.GeocodeTTL,
	}, log.Named("geocode"))

	// HTTP
	handler := httpDelivery.NewHandler(candidateService, geocodeService)
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

type closableCache interface {
	domain.CacheRepository
	io.Closer
}

func newCache(ctx context.Context, cfg *config.Config) (closableCache, error) {
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, cfg.Cache.KeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return redisCache, nil
	default:
		return cache.NewMemoryCache(0), nil
	}
}
