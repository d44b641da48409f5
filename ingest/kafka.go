package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	"github.com/Auyante/refineryiq-system/config"
	"github.com/Auyante/refineryiq-system/models"
	"github.com/Auyante/refineryiq-system/telemetry"
)

var (
	readingsConsumedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kafka_readings_consumed_total",
		Help: "Readings consumed from the feed topic",
	})

	readingsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kafka_readings_rejected_total",
		Help: "Feed messages rejected as malformed",
	})
)

// Consumer pulls raw readings off the plant feed topic into the window
// store. Malformed messages are counted and skipped; the feed never stops
// over a single bad payload.
type Consumer struct {
	reader *kafka.Reader
	store  *telemetry.Store
	lg     *slog.Logger
}

func NewConsumer(cfg config.KafkaConfig, store *telemetry.Store, lg *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})

	return &Consumer{
		reader: reader,
		store:  store,
		lg:     lg.With("component", "kafka-consumer"),
	}
}

func (c *Consumer) Run(ctx context.Context) {
	c.lg.Info("readings consumer starting", "topic", c.reader.Config().Topic)

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				c.lg.Info("readings consumer exiting")
				return
			}
			c.lg.Error("read error", "error", err)
			continue
		}

		reading, err := decodeReading(msg.Value)
		if err != nil {
			readingsRejectedTotal.Inc()
			c.lg.Warn("reading dropped", "offset", msg.Offset, "error", err)
			continue
		}

		c.store.Ingest(reading)
		readingsConsumedTotal.Inc()
	}
}

func decodeReading(value []byte) (models.Reading, error) {
	var reading models.Reading
	if err := json.Unmarshal(value, &reading); err != nil {
		return models.Reading{}, err
	}
	if err := reading.Validate(); err != nil {
		return models.Reading{}, err
	}
	return reading, nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
