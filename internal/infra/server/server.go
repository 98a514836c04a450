package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PocketPalCo/voicecart/config"
	"github.com/PocketPalCo/voicecart/internal/core/catalog"
	"github.com/PocketPalCo/voicecart/internal/core/cloud"
	"github.com/PocketPalCo/voicecart/internal/core/parser"
	"github.com/PocketPalCo/voicecart/internal/core/receipts"
	"github.com/PocketPalCo/voicecart/internal/core/session"
	"github.com/PocketPalCo/voicecart/internal/infra/feed"
	"github.com/PocketPalCo/voicecart/pkg/telemetry"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.30.0"
	"google.golang.org/grpc"
)

const serviceName = "voicecart"

type Server struct {
	cfg            *config.Config
	app            *fiber.App
	db             *telemetry.InstrumentedPool
	hub            *session.Hub
	feed           feed.Feed
	traceProvider  *sdktrace.TracerProvider
	metricProvider *metric.MeterProvider
	loggerProvider interface{ Shutdown(context.Context) error }
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
}

// New wires telemetry, the catalog, the session hub, the receipt archive and the
// message feed. dbConn may be nil when the catalog does not live in postgres.
func New(ctx context.Context, cfg *config.Config, dbConn *pgxpool.Pool, loggerProvider interface{ Shutdown(context.Context) error }) (*Server, error) {
	logger := slog.Default().With("component", "server")

	traceExporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jaeger exporter: %w", err)
	}

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OtlpEndpoint),
		otlpmetricgrpc.WithInsecure(),
		otlpmetricgrpc.WithDialOption(grpc.WithUserAgent(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize otlp exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
		semconv.DeploymentEnvironmentName(cfg.Environment),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	provider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(metricExporter, metric.WithInterval(15*time.Second))),
	)
	otel.SetMeterProvider(provider)

	if err := telemetry.InitTelemetry(provider); err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	if err := initHttpMetrics(provider.Meter("http")); err != nil {
		return nil, fmt.Errorf("failed to initialize http metrics: %w", err)
	}

	var (
		db      *telemetry.InstrumentedPool
		querier catalog.Querier
	)
	if dbConn != nil {
		db, err = telemetry.NewInstrumentedPool(provider, dbConn)
		if err != nil {
			return nil, fmt.Errorf("failed to create instrumented pool: %w", err)
		}
		querier = db
	}

	cat, err := catalog.Open(ctx, *cfg, querier, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	logger.Info("Catalog ready", "source", cfg.CatalogSource, "entries", cat.Len(), "fallback_price", cat.FallbackPrice())

	archive, err := newArchive(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := session.Options{
		LockAfterOrder: cfg.SessionLockAfterOrder,
		Logger:         slog.Default(),
	}
	if archive != nil {
		opts.Sink = archive
	}
	hub := session.NewHub(parser.NewExtractor(cat, nil), opts)

	messageFeed, err := feed.New(*cfg, hub, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to open message feed: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)

	return &Server{
		cfg:            cfg,
		app:            newApp(cfg, newHandlers(hub, cat, archive, slog.Default())),
		db:             db,
		hub:            hub,
		feed:           messageFeed,
		traceProvider:  tp,
		metricProvider: provider,
		loggerProvider: loggerProvider,
		ctx:            serverCtx,
		cancel:         cancel,
	}, nil
}

// newArchive returns nil when receipts are not archived.
func newArchive(cfg *config.Config, logger *slog.Logger) (*receipts.Service, error) {
	if strings.EqualFold(cfg.ArchiveProvider, "none") || cfg.ArchiveProvider == "" {
		return nil, nil
	}

	provider, err := cloud.NewProvider(cloud.FromAppConfig(cfg.GetCloudConfig()))
	if err != nil {
		return nil, fmt.Errorf("failed to create receipt archive: %w", err)
	}
	logger.Info("Receipt archive ready", "provider", provider.Name())

	return receipts.NewService(provider, cfg.Currency, slog.Default()), nil
}

func newApp(cfg *config.Config, h *handlers) *fiber.App {
	app := fiber.New(cfg.Fiber())
	initGlobalMiddlewares(app, cfg)
	registerHttpRoutes(app, h)
	return app
}

func (s *Server) Start() {
	if s.feed != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			slog.Info("Starting message feed", slog.String("provider", s.feed.Name()))
			if err := s.feed.Run(s.ctx); err != nil {
				slog.Error("Message feed error", slog.String("error", err.Error()))
			}
		}()
	}

	slog.Info("Starting HTTP server", slog.String("address", s.cfg.ServerAddress))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.app.Listen(s.cfg.ServerAddress); err != nil {
			slog.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()
}

func (s *Server) Shutdown() {
	slog.Info("Shutting down server", slog.Int("sessions", s.hub.Count()))

	// Cancel context to stop the feed consumer
	s.cancel()

	if err := s.app.Shutdown(); err != nil {
		slog.Error("Error shutting down HTTP server", slog.String("error", err.Error()))
	}

	s.wg.Wait()

	if s.feed != nil {
		if err := s.feed.Close(); err != nil {
			slog.Error("Error closing message feed", slog.String("error", err.Error()))
		}
	}

	if err := s.traceProvider.Shutdown(context.Background()); err != nil {
		slog.Error("Error shutting down trace provider", slog.String("error", err.Error()))
	}

	if err := s.metricProvider.Shutdown(context.Background()); err != nil {
		slog.Error("Error shutting down metric provider", slog.String("error", err.Error()))
	}

	if s.loggerProvider != nil {
		if err := s.loggerProvider.Shutdown(context.Background()); err != nil {
			slog.Error("Error shutting down log provider", slog.String("error", err.Error()))
		}
	}

	if s.db != nil {
		s.db.Close()
	}

	slog.Info("Server shut down successfully")
}
