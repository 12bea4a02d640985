// Package kafka exports applied observations to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-traffic-etl/internal/config"
	"github.com/couchcryptid/weather-traffic-etl/internal/domain"
)

// Writer produces messages to a Kafka topic.
// It implements pipeline.Exporter.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured export topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishWeather serializes and publishes a batch of weather observations in
// a single WriteMessages call. Keys repeat the upsert identity, so a
// compacted topic converges to the same state as the database.
func (w *Writer) PublishWeather(ctx context.Context, records []domain.WeatherObservation) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
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

// serializeToMessage marshals a weather observation into a Kafka message
// keyed by "<location_code>|<date>".
func serializeToMessage(rec domain.WeatherObservation) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize weather observation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.LocationCode + "|" + rec.Date),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "location_name", Value: []byte(rec.LocationName)},
		},
	}, nil
}
