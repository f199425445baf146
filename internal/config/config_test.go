package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "gridded-analysis", cfg.KafkaSourceTopic)
	assert.Equal(t, "wbgt-products", cfg.KafkaSinkTopic)
	assert.Equal(t, "wbgt-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, "outdoor", cfg.Mode)
	assert.Zero(t, cfg.SolverWorkers)
	assert.Zero(t, cfg.GlobeDiameterM)
	assert.Equal(t, 256, cfg.ProductCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("WBGT_MODE", "indoor")
	t.Setenv("SOLVER_WORKERS", "8")
	t.Setenv("GLOBE_DIAMETER_M", "0.15")
	t.Setenv("PRODUCT_CACHE_SIZE", "64")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, "indoor", cfg.Mode)
	assert.Equal(t, 8, cfg.SolverWorkers)
	assert.Equal(t, 0.15, cfg.GlobeDiameterM)
	assert.Equal(t, 64, cfg.ProductCacheSize)
}

func TestLoad_InvalidMode(t *testing.T) {
	t.Setenv("WBGT_MODE", "orbital")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidGlobeDiameter(t *testing.T) {
	for _, v := range []string{"-0.05", "0", "2", "tiny"} {
		t.Setenv("GLOBE_DIAMETER_M", v)
		_, err := Load()
		assert.Error(t, err, "GLOBE_DIAMETER_M=%s", v)
	}
}

func TestLoad_InvalidWorkers(t *testing.T) {
	t.Setenv("SOLVER_WORKERS", "-2")
	_, err := Load()
	assert.Error(t, err)
}
