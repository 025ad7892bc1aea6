package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds run-wide settings, populated from environment variables.
// Per-diagnostic selection policy lives in the diagnostics-config file given
// on the command line; the values here are defaults and ambient concerns.
type Config struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string // empty disables the metrics HTTP server

	Workers        int
	Strict         bool
	NeighbourK     int
	SearchRadius   float64 // metres, 0 = unlimited
	IndexCacheSize int

	ShutdownTimeout time.Duration

	// Kafka spot publishing configuration.
	KafkaBrokers   []string
	KafkaSinkTopic string
	KafkaEnabled   bool

	// SQLite spot database path; empty disables the sink.
	SpotDBPath string
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	workers, err := parseIntRange("WORKERS", 4, 1, 256)
	if err != nil {
		return nil, err
	}

	neighbourK, err := parseIntRange("NEIGHBOUR_K", 4, 1, 64)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseIntRange("INDEX_CACHE_SIZE", 8, 1, 1024)
	if err != nil {
		return nil, err
	}

	searchRadius, err := parseSearchRadius()
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := time.ParseDuration(envOrDefault("SHUTDOWN_TIMEOUT", "10s"))
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		LogFormat:   envOrDefault("LOG_FORMAT", "json"),
		MetricsAddr: os.Getenv("METRICS_ADDR"),

		Workers:        workers,
		Strict:         os.Getenv("STRICT") == "true",
		NeighbourK:     neighbourK,
		SearchRadius:   searchRadius,
		IndexCacheSize: cacheSize,

		ShutdownTimeout: shutdownTimeout,

		KafkaBrokers:   brokers,
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "spot-forecasts"),
		KafkaEnabled:   kafkaEnabled,

		SpotDBPath: os.Getenv("SPOT_DB_PATH"),
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required when Kafka publishing is enabled")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntRange(key string, fallback, minVal, maxVal int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minVal || n > maxVal {
		return 0, fmt.Errorf("invalid %s: want an integer in [%d, %d], got %q", key, minVal, maxVal, s)
	}
	return n, nil
}

func parseSearchRadius() (float64, error) {
	s := os.Getenv("SEARCH_RADIUS")
	if s == "" {
		return 0, nil
	}
	r, err := strconv.ParseFloat(s, 64)
	if err != nil || r < 0 {
		return 0, fmt.Errorf("invalid SEARCH_RADIUS: want metres >= 0, got %q", s)
	}
	return r, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
