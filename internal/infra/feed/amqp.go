package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/PocketPalCo/voicecart/config"
	"github.com/PocketPalCo/voicecart/pkg/telemetry"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const consumerTag = "voicecart"

// AMQPFeed consumes a durable queue with prefetch 1, which keeps deliveries in
// queue order. Malformed records are rejected without requeue.
type AMQPFeed struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	sink   Sink
	logger *slog.Logger
}

func DialAMQP(cfg config.Config, sink Sink, logger *slog.Logger) (*AMQPFeed, error) {
	conn, err := amqp.Dial(cfg.AmqpURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(cfg.AmqpQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.AmqpQueue, err)
	}

	return &AMQPFeed{
		conn:   conn,
		ch:     ch,
		queue:  cfg.AmqpQueue,
		sink:   sink,
		logger: logger.With("component", "amqp-feed", "queue", cfg.AmqpQueue),
	}, nil
}

func (f *AMQPFeed) Name() string {
	return "amqp"
}

func (f *AMQPFeed) Run(ctx context.Context) error {
	if err := f.ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set qos: %w", err)
	}

	deliveries, err := f.ch.Consume(f.queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", f.queue, err)
	}
	f.logger.Info("Consuming message feed")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				telemetry.FeedErrorsTotal.Add(ctx, 1, metric.WithAttributes(
					attribute.String("provider", f.Name()),
					attribute.String("reason", "closed"),
				))
				return fmt.Errorf("delivery channel for %s closed", f.queue)
			}
			f.handle(ctx, d)
		}
	}
}

func (f *AMQPFeed) handle(ctx context.Context, d amqp.Delivery) {
	err := dispatch(ctx, f.sink, f.Name(), d.Body, f.logger)
	if errors.Is(err, ErrInvalidRecord) {
		if nackErr := d.Nack(false, false); nackErr != nil {
			f.logger.Error("Failed to reject delivery", "error", nackErr)
		}
		return
	}

	if ackErr := d.Ack(false); ackErr != nil {
		f.logger.Error("Failed to ack delivery", "error", ackErr)
	}
}

func (f *AMQPFeed) Publish(ctx context.Context, r Record) error {
	data, err := encode(r)
	if err != nil {
		return err
	}

	err = f.ch.PublishWithContext(ctx, "", f.queue, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		Body:         data,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", f.queue, err)
	}
	return nil
}

func (f *AMQPFeed) Close() error {
	if f.ch != nil {
		_ = f.ch.Close()
	}
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}
