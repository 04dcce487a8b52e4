package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/soilgen/soilgen-fire/internal/config"
)

// MappingEntry is the message value published for each mapping log record.
type MappingEntry struct {
	SoilName   string    `json:"soil_name"`
	MuKey      string    `json:"mukey"`
	RecordedAt time.Time `json:"recorded_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer mirrors mapping log records to a Kafka topic.
// It implements pipeline.MappingLog.
type Writer struct {
	writer messageWriter
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured mapping topic.
func NewWriter(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, clock: clock, logger: logger}
}

// Record publishes one soil-to-map-unit entry keyed by mukey, so every
// entry for a map unit lands on the same partition.
func (w *Writer) Record(ctx context.Context, soilName, mukey string) error {
	msg, err := serializeToMessage(MappingEntry{
		SoilName:   soilName,
		MuKey:      mukey,
		RecordedAt: w.clock.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish mapping %s,%s: %w", soilName, mukey, err)
	}
	w.logger.Debug("mapping published", "soil", soilName, "mukey", mukey)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a MappingEntry into a Kafka message.
func serializeToMessage(entry MappingEntry) (kafkago.Message, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize mapping entry: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(entry.MuKey),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "soil_name", Value: []byte(entry.SoilName)},
			{Key: "recorded_at", Value: []byte(entry.RecordedAt.Format(time.RFC3339))},
		},
	}, nil
}
