package telemetry

import (
	"log/slog"

	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Business metrics for cart reconciliation. They start out bound to a no-op meter
// so packages can record unconditionally; InitBusinessMetrics rebinds them.
var (
	// Message ingestion
	MessagesTotal       api.Int64Counter
	DuplicatesTotal     api.Int64Counter
	NoopExtractions     api.Int64Counter
	CartOperationsTotal api.Int64Counter
	OrdersPlacedTotal   api.Int64Counter

	// Sessions
	SessionsActive api.Int64UpDownCounter

	// Error tracking
	FeedErrorsTotal    api.Int64Counter
	ArchiveErrorsTotal api.Int64Counter
)

func init() {
	if err := bindBusinessMetrics(noop.NewMeterProvider().Meter("business")); err != nil {
		panic(err)
	}
}

// InitBusinessMetrics initializes all business-level metrics
func InitBusinessMetrics(provider *metric.MeterProvider) error {
	if err := bindBusinessMetrics(provider.Meter("business")); err != nil {
		return err
	}

	slog.Info("Business metrics initialized successfully")
	return nil
}

func bindBusinessMetrics(meter api.Meter) error {
	var err error

	MessagesTotal, err = meter.Int64Counter("cart.messages.total",
		api.WithDescription("Total assistant messages ingested by intent"))
	if err != nil {
		return err
	}

	DuplicatesTotal, err = meter.Int64Counter("cart.messages.duplicates.total",
		api.WithDescription("Total redelivered messages skipped by the ledger"))
	if err != nil {
		return err
	}

	NoopExtractions, err = meter.Int64Counter("cart.extractions.noop.total",
		api.WithDescription("Total classified messages whose text matched no extraction pattern"))
	if err != nil {
		return err
	}

	CartOperationsTotal, err = meter.Int64Counter("cart.operations.total",
		api.WithDescription("Total cart operations by kind (insert, upsert, remove, set quantity)"))
	if err != nil {
		return err
	}

	OrdersPlacedTotal, err = meter.Int64Counter("cart.orders.placed.total",
		api.WithDescription("Total sessions that reached the placed state"))
	if err != nil {
		return err
	}

	SessionsActive, err = meter.Int64UpDownCounter("cart.sessions.active",
		api.WithDescription("Number of live cart sessions"))
	if err != nil {
		return err
	}

	FeedErrorsTotal, err = meter.Int64Counter("feed.errors.total",
		api.WithDescription("Total message feed errors by provider"))
	if err != nil {
		return err
	}

	ArchiveErrorsTotal, err = meter.Int64Counter("archive.errors.total",
		api.WithDescription("Total receipt archive errors by provider"))
	if err != nil {
		return err
	}

	return nil
}
