package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/wbgt-etl-service/internal/config"
	"github.com/couchcryptid/wbgt-etl-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces WBGT products to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes multiple WBGT products to the sink
// Kafka topic in a single WriteMessages call for efficiency.
func (w *Writer) LoadBatch(ctx context.Context, products []domain.WBGTProduct) error {
	if len(products) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(products))
	for i := range products {
		msg, err := serializeToMessage(products[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a WBGTProduct into a Kafka message. The
// product ID keys the message so redeliveries land on the same partition.
func serializeToMessage(product domain.WBGTProduct) (kafkago.Message, error) {
	data, err := json.Marshal(product)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize wbgt product: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(product.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "grid_id", Value: []byte(product.GridID)},
			{Key: "mode", Value: []byte(product.Mode)},
			{Key: "processed_at", Value: []byte(product.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
