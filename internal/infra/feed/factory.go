package feed

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PocketPalCo/voicecart/config"
)

// New opens the configured feed. It returns nil, nil when feeds are disabled.
func New(cfg config.Config, sink Sink, logger *slog.Logger) (Feed, error) {
	switch strings.ToLower(cfg.FeedProvider) {
	case "", "none":
		return nil, nil
	case "redis":
		return NewRedisFeed(cfg, sink, logger), nil
	case "amqp", "rabbitmq":
		return DialAMQP(cfg, sink, logger)
	default:
		return nil, fmt.Errorf("unsupported feed provider: %s", cfg.FeedProvider)
	}
}
