package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/PocketPalCo/voicecart/internal/core/ledger"
	"github.com/PocketPalCo/voicecart/internal/core/parser"
	"github.com/PocketPalCo/voicecart/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("session-service")

// OrderSink is told once per session when its order is placed.
type OrderSink interface {
	OrderPlaced(ctx context.Context, sessionID string, snap Snapshot) error
}

// Outcome describes what one Ingest call did.
type Outcome struct {
	Duplicate bool
	Intent    parser.Intent
	Strategy  string
	Changed   bool
	// Placed is true only for the message that moved the order to placed.
	Placed   bool
	Snapshot Snapshot
}

type Options struct {
	// LockAfterOrder drops cart operations once the order is placed.
	LockAfterOrder bool
	Sink           OrderSink
	Logger         *slog.Logger
}

// Engine reconciles one conversation's messages into a cart. The whole
// ledger-check, extract, reduce, mark sequence runs under one mutex so each
// message fingerprint is applied at most once.
type Engine struct {
	id        string
	extractor *parser.Extractor
	opts      Options
	logger    *slog.Logger

	mu     sync.Mutex
	state  State
	ledger *ledger.Ledger
	clock  ledger.MonotonicClock
}

func NewEngine(id string, extractor *parser.Extractor, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		id:        id,
		extractor: extractor,
		opts:      opts,
		logger:    logger.With("component", "session-engine", "session_id", id),
		ledger:    ledger.New(),
	}
}

// Ingest processes one message. Unparsable and duplicate messages are no-ops,
// never errors.
func (e *Engine) Ingest(ctx context.Context, msg Message) Outcome {
	ctx, span := tracer.Start(ctx, "session.Ingest", trace.WithAttributes(
		attribute.String("session.id", e.id),
	))
	defer span.End()

	out := e.ingest(ctx, msg)

	span.SetAttributes(
		attribute.String("message.intent", out.Intent.String()),
		attribute.Bool("message.duplicate", out.Duplicate),
		attribute.Bool("cart.changed", out.Changed),
	)

	if out.Placed {
		telemetry.OrdersPlacedTotal.Add(ctx, 1)
		e.logger.Info("Order placed",
			"order_id", out.Snapshot.Order.OrderID,
			"items", len(out.Snapshot.Items),
			"total", out.Snapshot.Total)

		if e.opts.Sink != nil {
			if err := e.opts.Sink.OrderPlaced(ctx, e.id, out.Snapshot); err != nil {
				span.RecordError(err)
				e.logger.Error("Failed to hand off placed order", "error", err)
			}
		}
	}

	return out
}

func (e *Engine) ingest(ctx context.Context, msg Message) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	stamp := e.stampOf(msg)
	if !e.ledger.ShouldProcess(msg.Text, stamp) {
		telemetry.DuplicatesTotal.Add(ctx, 1)
		e.logger.Debug("Skipping redelivered message", "stamp", string(stamp), "ledger_size", e.ledger.Len())
		return Outcome{Duplicate: true, Snapshot: snapshotOf(e.state)}
	}
	e.ledger.MarkProcessed(msg.Text, stamp)

	res := e.extractor.Parse(msg.Text)
	telemetry.MessagesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", res.Intent.String())))

	if res.Intent != parser.IntentNone && !res.Matched() {
		telemetry.NoopExtractions.Add(ctx, 1, metric.WithAttributes(attribute.String("intent", res.Intent.String())))
		e.logger.Debug("Message matched no extraction pattern", "intent", res.Intent.String(), "text", msg.Text)
	}

	if e.opts.LockAfterOrder && e.state.Order.Placed && len(res.Operations) > 0 {
		e.logger.Debug("Ignoring cart change after order", "intent", res.Intent.String())
		res.Operations = nil
	}

	for _, op := range res.Operations {
		telemetry.CartOperationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", op.Kind())))
	}

	wasPlaced := e.state.Order.Placed
	next, changed := Apply(e.state, res)
	e.state = next

	return Outcome{
		Intent:   res.Intent,
		Strategy: res.Strategy,
		Changed:  changed,
		Placed:   !wasPlaced && next.Order.Placed,
		Snapshot: snapshotOf(next),
	}
}

// stampOf uses the transport timestamp, or a fresh clock tick when there is none.
// Unstamped messages therefore never collide in the ledger.
func (e *Engine) stampOf(msg Message) ledger.Stamp {
	if msg.Timestamp.IsZero() {
		return ledger.FromClock(e.clock.Next())
	}
	return ledger.FromTime(msg.Timestamp)
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshotOf(e.state)
}
