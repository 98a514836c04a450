package feed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PocketPalCo/voicecart/config"
	"github.com/PocketPalCo/voicecart/pkg/telemetry"
	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RedisFeed subscribes to a pub/sub channel. Pub/sub delivers at most once, so a
// message published while the service is down is lost.
type RedisFeed struct {
	client  *redis.Client
	channel string
	sink    Sink
	logger  *slog.Logger
}

func NewRedisFeed(cfg config.Config, sink Sink, logger *slog.Logger) *RedisFeed {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Username: cfg.RedisUser,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDb,
	})

	return &RedisFeed{
		client:  client,
		channel: cfg.RedisChannel,
		sink:    sink,
		logger:  logger.With("component", "redis-feed", "channel", cfg.RedisChannel),
	}
}

func (f *RedisFeed) Name() string {
	return "redis"
}

func (f *RedisFeed) Run(ctx context.Context) error {
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()

	// Receive blocks until the subscription is confirmed.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", f.channel, err)
	}
	f.logger.Info("Subscribed to message feed")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				telemetry.FeedErrorsTotal.Add(ctx, 1, metric.WithAttributes(
					attribute.String("provider", f.Name()),
					attribute.String("reason", "closed"),
				))
				return fmt.Errorf("redis subscription to %s closed", f.channel)
			}
			f.handle(ctx, msg)
		}
	}
}

func (f *RedisFeed) handle(ctx context.Context, msg *redis.Message) {
	_ = dispatch(ctx, f.sink, f.Name(), []byte(msg.Payload), f.logger)
}

func (f *RedisFeed) Publish(ctx context.Context, r Record) error {
	data, err := encode(r)
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, f.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", f.channel, err)
	}
	return nil
}

func (f *RedisFeed) Close() error {
	return f.client.Close()
}
