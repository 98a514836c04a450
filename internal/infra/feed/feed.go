// Package feed consumes assistant status messages from a broker and routes them
// into cart sessions, one record per message, in delivery order.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PocketPalCo/voicecart/internal/core/session"
	"github.com/PocketPalCo/voicecart/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var ErrInvalidRecord = errors.New("invalid feed record")

// Record is the wire format on every transport.
type Record struct {
	SessionID string     `json:"session_id"`
	Text      string     `json:"text"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

func (r Record) Message() session.Message {
	msg := session.Message{Text: r.Text}
	if r.Timestamp != nil {
		msg.Timestamp = *r.Timestamp
	}
	return msg
}

// Decode parses and validates one record.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := r.validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

func (r Record) validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return fmt.Errorf("%w: missing session_id", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: missing text", ErrInvalidRecord)
	}
	return nil
}

// Sink receives decoded messages. *session.Hub implements it.
type Sink interface {
	Ingest(ctx context.Context, sessionID string, msg session.Message) session.Outcome
}

// Feed is a running subscription.
type Feed interface {
	// Run blocks until ctx is cancelled or the transport fails
	Run(ctx context.Context) error
	Publish(ctx context.Context, r Record) error
	Close() error
	Name() string
}

// dispatch decodes data and hands it to sink. Records that fail to decode are
// counted and logged, and the error is returned so transports can drop them.
func dispatch(ctx context.Context, sink Sink, provider string, data []byte, logger *slog.Logger) error {
	r, err := Decode(data)
	if err != nil {
		telemetry.FeedErrorsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("reason", "decode"),
		))
		logger.Warn("Dropping malformed feed record", "error", err, "size", len(data))
		return err
	}

	out := sink.Ingest(ctx, r.SessionID, r.Message())
	logger.Debug("Feed record applied",
		"session_id", r.SessionID,
		"intent", out.Intent.String(),
		"duplicate", out.Duplicate,
		"changed", out.Changed)
	return nil
}

func encode(r Record) ([]byte, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(r)
}
