package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/daytrace/pipeline/internal/adapter/httpadapter"
	"github.com/daytrace/pipeline/internal/bus"
	"github.com/daytrace/pipeline/internal/config"
	"github.com/daytrace/pipeline/internal/domain"
	"github.com/daytrace/pipeline/internal/geocode"
	"github.com/daytrace/pipeline/internal/objectstore"
	"github.com/daytrace/pipeline/internal/observability"
	"github.com/daytrace/pipeline/internal/router"
	"github.com/daytrace/pipeline/internal/stages"
	"github.com/daytrace/pipeline/internal/worker"
)

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

	publisher, extractor, closeBus := newBus(cfg, logger)

	geocoder := newGeocoder(cfg, logger)
	calculator := newCalculator(cfg, logger)

	stayRegime := domain.StayRegime
	if cfg.StayRadiusM > 0 {
		stayRegime.RadiusM = cfg.StayRadiusM
	}
	if cfg.StayMinDuration > 0 {
		stayRegime.MinDuration = cfg.StayMinDuration
	}
	visitRegime := domain.VisitRegime
	if cfg.VisitRadiusM > 0 {
		visitRegime.RadiusM = cfg.VisitRadiusM
	}
	if cfg.VisitMinDuration > 0 {
		visitRegime.MinDuration = cfg.VisitMinDuration
	}

	dispatcher := &worker.Dispatcher{
		Merge: &stages.MergeHandler{
			Store: store, Publisher: publisher, Bucket: cfg.Bucket, Logger: logger, Metrics: metrics,
		},
		Segment: &stages.SegmentHandler{
			Store: store, Publisher: publisher, Bucket: cfg.Bucket, Logger: logger, Metrics: metrics,
			StayRegime: stayRegime, VisitRegime: visitRegime,
		},
		Enrich: &stages.EnrichHandler{
			Store: store, Publisher: publisher, Geocoder: geocoder, Bucket: cfg.Bucket, Logger: logger, Metrics: metrics,
		},
		Trips: &stages.TripsHandler{
			Store: store, Calculator: calculator, Bucket: cfg.Bucket, Logger: logger, Metrics: metrics,
		},
		Logger: logger,
	}

	w := worker.New(extractor, dispatcher, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, w, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Error("worker error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if closeBus != nil {
		if err := closeBus(); err != nil {
			logger.Error("bus close error", "error", err)
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

// newBus returns the shared Publisher/Extractor pair for the worker's own
// stage-to-stage chaining (Merge publishes points.jsonl, Segment publishes
// stays/visits, Enrich publishes stays_enriched). With no Kafka brokers
// configured, a single DirectBus instance must back both roles so a
// publish from one stage handler reaches the next stage's extract.
func newBus(cfg *config.Config, logger *slog.Logger) (bus.Publisher, bus.Extractor, func() error) {
	if len(cfg.KafkaBrokers) == 0 {
		direct := bus.NewDirectBus(256)
		return direct, direct, nil
	}
	publisher := bus.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaEventTopic, logger)
	extractor := bus.NewKafkaExtractor(cfg.KafkaBrokers, cfg.KafkaEventTopic, cfg.KafkaGroupID, logger)
	return publisher, extractor, func() error {
		err1 := publisher.Close()
		err2 := extractor.Close()
		if err1 != nil {
			return err1
		}
		return err2
	}
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

func newCalculator(cfg *config.Config, logger *slog.Logger) router.Calculator {
	if cfg.RouteCalculator == "" {
		return router.Unconfigured{}
	}
	return router.NewClient(cfg.RouteBaseURL, cfg.RouteCalculator, cfg.RouteTimeout, logger)
}
