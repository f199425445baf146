//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/wbgt-etl-service/internal/adapter/kafka"
	"github.com/couchcryptid/wbgt-etl-service/internal/config"
	"github.com/couchcryptid/wbgt-etl-service/internal/domain"
	"github.com/couchcryptid/wbgt-etl-service/internal/observability"
	"github.com/couchcryptid/wbgt-etl-service/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testSourceTopic = "test-gridded-analysis"
	testSinkTopic   = "test-wbgt-products"
)

// startKafka runs a single-node Kafka in a container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic via the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp",
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockRecords builds a couple of small grid messages: one fully valid, one
// with a masked cell in each input field.
func mockRecords() []domain.RawGridRecord {
	base := time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)
	return []domain.RawGridRecord{
		{
			GridID: "itest-a", ValidTime: base, Rows: 2, Cols: 2, MissingValue: -9999,
			AirTemperatureC:     []float64{30, 32, 34, 36},
			RelativeHumidityPct: []float64{40, 45, 50, 55},
			ShortwaveWM2:        []float64{700, 800, 900, 1000},
			WindSpeedMS:         []float64{1, 2, 3, 4},
		},
		{
			GridID: "itest-b", ValidTime: base.Add(time.Hour), Rows: 2, Cols: 2, MissingValue: -9999,
			AirTemperatureC:     []float64{-9999, 28, 29, 30},
			RelativeHumidityPct: []float64{60, -9999, 70, 75},
			ShortwaveWM2:        []float64{500, 550, -9999, 650},
			WindSpeedMS:         []float64{2, 2, 2, -9999},
		},
	}
}

// sinkMessage holds a deserialized message read from the sink topic.
type sinkMessage struct {
	Product domain.WBGTProduct
	Key     string
	Headers map[string]string
}

// readProduct reads a single message from the sink consumer and deserializes it.
func readProduct(ctx context.Context, t *testing.T, consumer *kafkago.Reader) sinkMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var product domain.WBGTProduct
	require.NoError(t, json.Unmarshal(msg.Value, &product), "unmarshal sink message")

	return sinkMessage{
		Product: product,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

func testConfig(broker, groupID string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       groupID,
		BatchFlushInterval: 5 * time.Second,
	}
}

func newTestTransformer() *pipeline.WBGTTransformer {
	return pipeline.NewTransformer(
		domain.DefaultConstants(), domain.ModeOutdoor, 1, 16,
		discardLogger(), observability.NewMetricsForTesting(),
	)
}

// TestKafkaReaderWriter verifies the adapter layer: kafka.Reader (extractor)
// and kafka.Writer (loader) correctly round-trip a grid through Kafka.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-reader-%d", time.Now().UnixNano()))

	// Publish a raw grid record to the source topic.
	record := mockRecords()[0]
	payload, err := json.Marshal(record)
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("test-key"),
		Value: payload,
	}))

	// Extract via kafka.Reader. The first fetch blocks through the consumer
	// group rebalance until the message is assigned and delivered.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	batch, err := reader.ExtractBatch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("test-key"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")

	// Commit the offset.
	require.NoError(t, raw.Commit(ctx))

	// Transform the raw grid into a product.
	product, err := newTestTransformer().Transform(ctx, raw)
	require.NoError(t, err)

	// Load via kafka.Writer.
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	require.NoError(t, writer.LoadBatch(ctx, []domain.WBGTProduct{product}))

	// Read from the sink topic and verify headers + value.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	sm := readProduct(ctx, t, consumer)
	assert.Equal(t, "itest-a", sm.Headers["grid_id"])
	assert.Equal(t, "outdoor", sm.Headers["mode"])
	_, err = time.Parse(time.RFC3339, sm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	assert.Equal(t, "itest-a", sm.Product.GridID)
	assert.Equal(t, 4, sm.Product.Quality.ConvergedCells)
	assert.Zero(t, sm.Product.Quality.MissingCells)
	for _, v := range sm.Product.WBGTC {
		assert.False(t, math.IsNaN(v))
		assert.NotEqual(t, sm.Product.MissingValue, v)
	}
}

// TestPipelineEndToEnd wires the full pipeline (Reader → Transformer → Writer)
// with real Kafka and verifies missing-cell propagation end to end.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-pipeline-%d", time.Now().UnixNano()))

	// Publish all mock records to the source topic.
	records := mockRecords()
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(records))
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		require.NoError(t, err)
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(fmt.Sprintf("record-%d", i)),
			Value: payload,
		})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, newTestTransformer(), writer,
		discardLogger(), observability.NewMetricsForTesting(), 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	defer pipelineCancel()
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	products := make(map[string]domain.WBGTProduct, len(records))
	for range records {
		sm := readProduct(ctx, t, consumer)
		products[sm.Product.GridID] = sm.Product
	}

	clean, ok := products["itest-a"]
	require.True(t, ok)
	assert.Equal(t, 4, clean.Quality.ConvergedCells)

	masked, ok := products["itest-b"]
	require.True(t, ok)
	// Cells 0 and 3 are missing solver inputs (Ta and WS respectively);
	// cell 2 is missing shortwave. Cell 1 solves but has no humidity, so
	// its wet bulb — and therefore its WBGT — is missing too.
	assert.Equal(t, 3, masked.Quality.MissingCells)
	assert.Equal(t, 1, masked.Quality.ConvergedCells)
	for _, i := range []int{0, 1, 2, 3} {
		assert.Equal(t, masked.MissingValue, masked.WBGTC[i], "cell %d", i)
	}
	assert.NotEqual(t, masked.MissingValue, masked.GlobeTemperatureC[1],
		"globe solves from Ta/SW/WS alone")

	pipelineCancel()
	require.NoError(t, <-errCh)
}

// TestPipelineTransformError verifies that an invalid message (poison pill) is
// skipped and the pipeline continues processing valid messages.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)

	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)

	cfg := testConfig(broker, fmt.Sprintf("test-poison-%d", time.Now().UnixNano()))

	// Publish: invalid JSON, then a valid grid record.
	validPayload, err := json.Marshal(mockRecords()[0])
	require.NoError(t, err)

	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("good"), Value: validPayload},
	))

	// Wire up the pipeline.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, newTestTransformer(), writer,
		discardLogger(), observability.NewMetricsForTesting(), 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	// Only the valid message should appear on the sink topic.
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	sm := readProduct(ctx, t, consumer)
	assert.Equal(t, "itest-a", sm.Product.GridID)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err = consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
