package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// WBGT computation configuration.
	Mode             string  // "outdoor" or "indoor"
	SolverWorkers    int     // 0 means GOMAXPROCS
	GlobeDiameterM   float64 // 0 means the standard 50 mm globe
	ProductCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	solverWorkers, err := parsePositiveInt("SOLVER_WORKERS", 0)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parsePositiveInt("PRODUCT_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	globeDiameter, err := parseGlobeDiameter()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "gridded-analysis"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "wbgt-products"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "wbgt-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		Mode:             sharedcfg.EnvOrDefault("WBGT_MODE", "outdoor"),
		SolverWorkers:    solverWorkers,
		GlobeDiameterM:   globeDiameter,
		ProductCacheSize: cacheSize,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.Mode != "outdoor" && cfg.Mode != "indoor" {
		return nil, fmt.Errorf("invalid WBGT_MODE %q (want outdoor or indoor)", cfg.Mode)
	}

	return cfg, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}

// parseGlobeDiameter reads the optional GLOBE_DIAMETER_M override. Zero
// means "use the standard globe"; anything set must be a plausible physical
// diameter.
func parseGlobeDiameter() (float64, error) {
	s := os.Getenv("GLOBE_DIAMETER_M")
	if s == "" {
		return 0, nil
	}
	d, err := strconv.ParseFloat(s, 64)
	if err != nil || d <= 0 || d > 1 {
		return 0, fmt.Errorf("invalid GLOBE_DIAMETER_M %q", s)
	}
	return d, nil
}
