package bootstrap

import (
	"context"
	"fmt"

	"rain-check/internal/config"
	"rain-check/internal/db"
	"rain-check/internal/kafka"
	"rain-check/internal/messaging"

	"github.com/redis/go-redis/v9"
)

type PublishersBundle struct {
	Publisher messaging.Publisher
	Producer  *kafka.Producer
	Redis     *redis.Client
}

// InitPublishers connects every configured event sink. Sinks that are not
// configured are skipped; with none configured events are dropped.
func InitPublishers(ctx context.Context, cfg *config.Config) (*PublishersBundle, error) {
	b := &PublishersBundle{}
	var sinks []messaging.Publisher

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.EstimationTopic)
		if err != nil {
			return nil, err
		}
		b.Producer = producer
		sinks = append(sinks, producer)
	}

	if cfg.RedisURL != "" {
		client, err := db.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("estimation event sink: %w", err)
		}
		b.Redis = client
		sinks = append(sinks, messaging.NewRedisPublisher(client, cfg.RedisChannel))
	}

	b.Publisher = messaging.Combine(sinks...)
	return b, nil
}

func (b *PublishersBundle) Close() {
	if b.Producer != nil {
		b.Producer.Close()
	}
	if b.Redis != nil {
		_ = b.Redis.Close()
	}
}
