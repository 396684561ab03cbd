package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/quiniela/platform/internal/domain"
	"github.com/segmentio/kafka-go"
)

// KafkaProducer publishes outbox events. Each event goes to the topic named by
// its aggregate and type, keyed by aggregate ID so one pool's events stay on
// one partition in order.
type KafkaProducer struct {
	writer  *kafka.Writer
	logger  *slog.Logger
	enabled bool
}

// NewKafkaProducer creates a producer for a comma-separated broker list. With
// no brokers or enabled false every publish is a no-op.
func NewKafkaProducer(brokers string, enabled bool, logger *slog.Logger) *KafkaProducer {
	addrs := splitBrokers(brokers)
	if !enabled || len(addrs) == 0 {
		logger.Info("kafka producer disabled")
		return &KafkaProducer{logger: logger}
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		AllowAutoTopicCreation: true,
	}

	logger.Info("kafka producer initialized", "brokers", addrs)
	return &KafkaProducer{writer: w, logger: logger, enabled: true}
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Enabled reports whether messages are actually sent.
func (p *KafkaProducer) Enabled() bool { return p.enabled }

// Publish sends one event.
func (p *KafkaProducer) Publish(ctx context.Context, e domain.OutboxDraft) error {
	if !p.enabled {
		return nil
	}
	msg, err := eventMessage(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// eventMessage encodes an event as a Kafka message. Consumers can route on the
// headers without decoding the value.
func eventMessage(e domain.OutboxDraft) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event %s: %w", e.EventID, err)
	}
	return kafka.Message{
		Topic: e.Topic(),
		Key:   []byte(e.AggregateID),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(e.EventID.String())},
			{Key: "event_type", Value: []byte(e.EventType)},
			{Key: "aggregate_type", Value: []byte(e.AggregateType)},
		},
	}, nil
}

// Close flushes and shuts down the writer.
func (p *KafkaProducer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
