package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/daytrace/pipeline/internal/bus"
	"github.com/daytrace/pipeline/internal/config"
	"github.com/daytrace/pipeline/internal/geocode"
	"github.com/daytrace/pipeline/internal/httpapi"
	"github.com/daytrace/pipeline/internal/objectstore"
	"github.com/daytrace/pipeline/internal/observability"
	"github.com/daytrace/pipeline/internal/stages"
	"github.com/daytrace/pipeline/internal/tracker"
)

// staticReady always reports ready: the Ingest binary has no warm-up
// dependency to wait on, unlike the worker's first-dispatch readiness.
type staticReady struct{}

func (staticReady) CheckReadiness(context.Context) error { return nil }

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := newStore(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to initialize object store", "error", err)
		os.Exit(1)
	}

	publisher, closePublisher := newPublisher(cfg, logger)

	geocoder := newGeocoder(cfg, logger)
	trk := newTracker(cfg, logger)

	ingestHandler := &stages.IngestHandler{
		Store:     store,
		Publisher: publisher,
		Tracker:   trk,
		Geocoder:  geocoder,
		Bucket:    cfg.Bucket,
		Logger:    logger,
		Metrics:   metrics,
	}

	router := httpapi.NewRouter(http.HandlerFunc(ingestHandler.ServeHTTP), staticReady{}, logger)
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("ingest http server starting", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if closePublisher != nil {
		if err := closePublisher(); err != nil {
			logger.Error("publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

func newStore(ctx context.Context, cfg *config.Config) (objectstore.Store, error) {
	if !cfg.UseS3 {
		return objectstore.NewMemStore(), nil
	}
	return objectstore.NewS3Store(ctx, cfg.S3Endpoint)
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (bus.Publisher, func() error) {
	if len(cfg.KafkaBrokers) == 0 {
		return bus.NewDirectBus(256), nil
	}
	kp := bus.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaEventTopic, logger)
	return kp, kp.Close
}

func newGeocoder(cfg *config.Config, logger *slog.Logger) geocode.Geocoder {
	if cfg.PlaceIndex == "" {
		return nil
	}
	client := geocode.NewClient(cfg.GeocodeBaseURL, cfg.PlaceIndex, cfg.GeocodeLanguage, cfg.GeocodeTimeout, logger)

	var g geocode.Geocoder = client
	if cfg.RedisAddr != "" {
		rdb, err := geocode.NewRedisClient(context.Background(), cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis geocode cache unavailable, falling back to in-process LRU", "error", err)
		} else {
			return geocode.NewRedisCachedGeocoder(g, rdb, cfg.GeocodeTimeout)
		}
	}
	return geocode.NewCachedGeocoder(g, cfg.GeocodeCacheSize)
}

func newTracker(cfg *config.Config, logger *slog.Logger) tracker.Tracker {
	if cfg.TrackerName == "" {
		return tracker.Unconfigured{}
	}
	return tracker.NewClient(cfg.TrackerBaseURL, cfg.TrackerName, cfg.TrackerTimeout, logger)
}
