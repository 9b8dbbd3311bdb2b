package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"rain-check/internal/models"

	"github.com/twmb/franz-go/pkg/kgo"
)

type Producer struct {
	topic  string
	client *kgo.Client
}

// NewProducer creates a client for the given brokers. No connection is made
// until the first record is produced.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	slog.Info("kafka producer initialized", "topic", topic, "brokers", brokers)
	return &Producer{topic: topic, client: client}, nil
}

func (p *Producer) Close() {
	p.client.Close()
}

// Publish produces the event synchronously, keyed by its ID.
func (p *Producer) Publish(ctx context.Context, event models.EstimationEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.ID),
		Value: value,
	}
	for _, r := range p.client.ProduceSync(ctx, record) {
		if r.Err != nil {
			return fmt.Errorf("kafka publish %s: %w", p.topic, r.Err)
		}
	}

	slog.Debug("published estimation event", "topic", p.topic, "id", event.ID)
	return nil
}
