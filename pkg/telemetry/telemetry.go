package telemetry

import (
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitTelemetry starts Go runtime instrumentation and binds the business metrics
// to provider.
func InitTelemetry(provider *metric.MeterProvider) error {
	err := runtime.Start(
		runtime.WithMeterProvider(provider),
		runtime.WithMinimumReadMemStatsInterval(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("failed to start runtime instrumentation: %w", err)
	}

	if err := InitBusinessMetrics(provider); err != nil {
		return fmt.Errorf("failed to init business metrics: %w", err)
	}

	return nil
}
