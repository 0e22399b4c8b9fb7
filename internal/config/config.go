package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// HTTP / shutdown.
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Event bus. When KafkaBrokers is empty the in-process direct bus is
	// used instead (local runs and every test).
	KafkaBrokers    []string
	KafkaEventTopic string
	KafkaGroupID    string

	// Object store.
	Bucket     string
	S3Endpoint string
	UseS3      bool
	AWSRegion  string

	// Reverse geocoding. Empty PlaceIndex means reverse-geocoding is
	// skipped (non-fatal, per spec §4.1/§4.4).
	PlaceIndex        string
	GeocodeBaseURL    string
	GeocodeLanguage   string
	GeocodeTimeout    time.Duration
	GeocodeMaxResults int
	GeocodeCacheSize  int
	RedisAddr         string

	// Route calculation. Empty RouteCalculator means "unconfigured" per
	// spec §4.5 and the Trips stage always falls back to a straight line.
	RouteCalculator string
	RouteBaseURL    string
	RouteTimeout    time.Duration

	// Live-position tracker. Empty TrackerName means tracker echo is
	// skipped (non-fatal, per spec §4.1).
	TrackerName    string
	TrackerBaseURL string
	TrackerTimeout time.Duration

	// Dwell-segmentation regime overrides (0 ⇒ use domain defaults).
	StayRadiusM      float64
	StayMinDuration  time.Duration
	VisitRadiusM     float64
	VisitMinDuration time.Duration

	// DebugMode enables verbose per-record logging, same switch as the
	// original per-stage lambdas.
	DebugMode bool
}

// Load reads configuration from environment variables, applying defaults
// where unset, and validates the parsed durations/numbers.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	routeTimeout, err := parseDuration("ROUTE_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	trackerTimeout, err := parseDuration("TRACKER_TIMEOUT", "3s")
	if err != nil {
		return nil, err
	}

	geocodeCacheSize := 1000
	if s := os.Getenv("GEOCODE_CACHE_SIZE"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n <= 0 {
			return nil, errors.New("invalid GEOCODE_CACHE_SIZE")
		}
		geocodeCacheSize = n
	}

	maxResults := 1
	if s := os.Getenv("MAX_RESULTS"); s != "" {
		n, convErr := strconv.Atoi(s)
		if convErr != nil || n <= 0 {
			return nil, errors.New("invalid MAX_RESULTS")
		}
		maxResults = n
	}

	region := envOrDefault("AWS_REGION", "us-east-1")

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers:    parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaEventTopic: envOrDefault("KAFKA_EVENTS_TOPIC", "daytrace-events"),
		KafkaGroupID:    envOrDefault("KAFKA_GROUP_ID", "daytrace-worker"),

		Bucket:     envOrDefault("RAW_BUCKET", "daytrace"),
		S3Endpoint: os.Getenv("S3_ENDPOINT"),
		UseS3:      os.Getenv("USE_S3") == "true",
		AWSRegion:  region,

		PlaceIndex:        os.Getenv("PLACE_INDEX"),
		GeocodeBaseURL:    envOrDefault("GEOCODE_BASE_URL", locationServiceURL(region, "places")),
		GeocodeLanguage:   envOrDefault("GEOCODE_LANGUAGE", "ja"),
		GeocodeTimeout:    geocodeTimeout,
		GeocodeMaxResults: maxResults,
		GeocodeCacheSize:  geocodeCacheSize,
		RedisAddr:         os.Getenv("REDIS_ADDR"),

		RouteCalculator: os.Getenv("ROUTE_CALCULATOR"),
		RouteBaseURL:    envOrDefault("ROUTE_BASE_URL", locationServiceURL(region, "routes")),
		RouteTimeout:    routeTimeout,

		TrackerName:    os.Getenv("TRACKER_NAME"),
		TrackerBaseURL: envOrDefault("TRACKER_BASE_URL", locationServiceURL(region, "tracking")),
		TrackerTimeout: trackerTimeout,

		StayRadiusM:      envOrFloat("STAY_RADIUS_M", 0),
		StayMinDuration:  envOrSecondsZero("STAY_MIN_SEC"),
		VisitRadiusM:     envOrFloat("VISIT_RADIUS_M", 0),
		VisitMinDuration: envOrSecondsZero("VISIT_MIN_SEC"),

		DebugMode: isTruthy(os.Getenv("DEBUG_MODE")),
	}

	return cfg, nil
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func envOrFloat(key string, fallback float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

// envOrSecondsZero reads an integer-seconds env var (the spec's
// STAY_MIN_SEC / VISIT_MIN_SEC shape), returning 0 when unset or invalid
// so the caller falls back to the domain package's default regime.
func envOrSecondsZero(key string) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

// locationServiceURL builds the default Amazon Location Service endpoint
// for the given resource family (places, routes, tracking) in a region.
func locationServiceURL(region, family string) string {
	return "https://" + family + ".geo." + region + ".amazonaws.com/" + family + "/v0/indexes"
}

func parseBrokers(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	brokers := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}
