// Package kafka publishes extracted spot values to a sink topic so
// downstream consumers (verification, site feeds) can pick them up without
// polling the output directory.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/spot-extract/internal/config"
	"github.com/couchcryptid/spot-extract/internal/domain"
)

// Writer produces spot messages to a Kafka topic.
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

// PublishResult serializes one message per extracted site and publishes the
// whole result in a single WriteMessages call. Failures are not published;
// they stay in the run report.
func (w *Writer) PublishResult(ctx context.Context, result *domain.SpotResult) error {
	if len(result.Sites) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(result.Sites))
	for i := range result.Sites {
		msg, err := serializeToMessage(result, &result.Sites[i])
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

// spotMessage is the wire form of one site's extracted series.
type spotMessage struct {
	SiteID        string                `json:"site_id"`
	Diagnostic    string                `json:"diagnostic"`
	Units         string                `json:"units"`
	ValidityTimes []time.Time           `json:"validity_times"`
	Values        []float64             `json:"values"`
	Match         domain.NeighbourMatch `json:"match"`
	Corrected     bool                  `json:"corrected"`
}

// serializeToMessage marshals one site's values into a Kafka message keyed
// by site ID.
func serializeToMessage(result *domain.SpotResult, sv *domain.SpotValue) (kafkago.Message, error) {
	data, err := json.Marshal(spotMessage{
		SiteID:        sv.Site.ID,
		Diagnostic:    result.Diagnostic,
		Units:         result.Units,
		ValidityTimes: result.ValidityTimes,
		Values:        sv.Values,
		Match:         sv.Match,
		Corrected:     sv.Corrected,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize spot value: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(sv.Site.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "diagnostic", Value: []byte(result.Diagnostic)},
			{Key: "created_at", Value: []byte(result.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
