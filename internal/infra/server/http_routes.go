package server

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/PocketPalCo/voicecart/config"
	"github.com/PocketPalCo/voicecart/internal/core/catalog"
	"github.com/PocketPalCo/voicecart/internal/core/cloud"
	"github.com/PocketPalCo/voicecart/internal/core/receipts"
	"github.com/PocketPalCo/voicecart/internal/core/session"
	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogfiber "github.com/samber/slog-fiber"
	"go.opentelemetry.io/otel/attribute"
	api "go.opentelemetry.io/otel/metric"
)

var (
	httpRequestsCounter  api.Int64Counter
	httpRequestHistogram api.Float64Histogram
)

func initHttpMetrics(meter api.Meter) error {
	var err error
	httpRequestsCounter, err = meter.Int64Counter("http_requests_total",
		api.WithDescription("Total number of HTTP requests."))
	if err != nil {
		return err
	}

	httpRequestHistogram, err = meter.Float64Histogram("http_request_duration_ms",
		api.WithDescription("Duration of HTTP requests in milliseconds."),
		api.WithUnit("ms"))
	return err
}

func initGlobalMiddlewares(app *fiber.App, cfg *config.Config) {
	app.Use(
		compress.New(compress.Config{
			Level: compress.LevelDefault,
		}),

		slogfiber.NewWithFilters(slog.Default(), slogfiber.IgnorePath("/health")),

		cors.New(cors.Config{
			AllowOrigins: "*",
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			AllowMethods: "GET, POST, DELETE, OPTIONS",
		}),

		favicon.New(),
		limiter.New(limiter.Config{
			Max:               cfg.RateLimitMax,
			Expiration:        time.Duration(cfg.RateLimitWindow) * time.Second,
			LimiterMiddleware: limiter.SlidingWindow{},
		}),
	)

	app.Use(otelfiber.Middleware())
}

type handlers struct {
	hub      *session.Hub
	catalog  *catalog.Catalog
	receipts *receipts.Service
	registry *prometheus.Registry
	logger   *slog.Logger
}

// newHandlers builds the HTTP surface. archive may be nil, in which case the
// order endpoints answer 503.
func newHandlers(hub *session.Hub, cat *catalog.Catalog, archive *receipts.Service, logger *slog.Logger) *handlers {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "voicecart_sessions_live",
			Help: "Conversations currently holding a cart.",
		}, func() float64 { return float64(hub.Count()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "voicecart_catalog_entries",
			Help: "Entries in the loaded price table.",
		}, func() float64 { return float64(cat.Len()) }),
	)

	return &handlers{
		hub:      hub,
		catalog:  cat,
		receipts: archive,
		registry: registry,
		logger:   logger.With("component", "http_handler"),
	}
}

func registerHttpRoutes(app *fiber.App, h *handlers) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "sessions": h.hub.Count(), "timestamp": time.Now().Unix()})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})))

	apiRoutes := app.Group("/v1")

	apiRoutes.Get("/sessions", withMetrics(h.listSessions))
	apiRoutes.Post("/sessions/:id/messages", withMetrics(h.postMessage))
	apiRoutes.Get("/sessions/:id/cart", withMetrics(h.getCart))
	apiRoutes.Delete("/sessions/:id", withMetrics(h.resetSession))

	apiRoutes.Get("/catalog", withMetrics(h.getCatalog))
	apiRoutes.Get("/catalog/price", withMetrics(h.getPrice))

	apiRoutes.Get("/orders", withMetrics(h.listOrders))
	apiRoutes.Get("/orders/:session/:order", withMetrics(h.getOrder))
	apiRoutes.Delete("/orders/:session/:order", withMetrics(h.deleteOrder))
}

type messageRequest struct {
	Text      string     `json:"text"`
	Timestamp *time.Time `json:"timestamp"`
}

type outcomeResponse struct {
	Duplicate bool             `json:"duplicate"`
	Intent    string           `json:"intent"`
	Strategy  string           `json:"strategy,omitempty"`
	Changed   bool             `json:"changed"`
	Placed    bool             `json:"placed"`
	Cart      session.Snapshot `json:"cart"`
}

func (h *handlers) postMessage(c *fiber.Ctx) error {
	var req messageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text is required")
	}

	msg := session.Message{Text: req.Text}
	if req.Timestamp != nil {
		msg.Timestamp = *req.Timestamp
	}

	out := h.hub.Ingest(c.UserContext(), c.Params("id"), msg)

	return c.JSON(outcomeResponse{
		Duplicate: out.Duplicate,
		Intent:    out.Intent.String(),
		Strategy:  out.Strategy,
		Changed:   out.Changed,
		Placed:    out.Placed,
		Cart:      out.Snapshot,
	})
}

func (h *handlers) listSessions(c *fiber.Ctx) error {
	ids := h.hub.IDs()
	return c.JSON(fiber.Map{"sessions": ids, "count": len(ids)})
}

func (h *handlers) getCart(c *fiber.Ctx) error {
	snap, ok := h.hub.Snapshot(c.Params("id"))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return c.JSON(snap)
}

func (h *handlers) resetSession(c *fiber.Ctx) error {
	if !h.hub.Reset(c.UserContext(), c.Params("id")) {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) getCatalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"items":          h.catalog.Entries(),
		"fallback_price": h.catalog.FallbackPrice(),
	})
}

func (h *handlers) getPrice(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	return c.JSON(fiber.Map{"name": name, "price": h.catalog.ResolvePrice(name)})
}

func (h *handlers) listOrders(c *fiber.Ctx) error {
	if h.receipts == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "receipt archive disabled")
	}

	summaries, err := h.receipts.List(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to list receipts", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "archive error"})
	}
	return c.JSON(fiber.Map{"orders": summaries})
}

func (h *handlers) getOrder(c *fiber.Ctx) error {
	if h.receipts == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "receipt archive disabled")
	}

	receipt, err := h.receipts.Get(c.UserContext(), c.Params("session"), c.Params("order"))
	if err != nil {
		if errors.Is(err, cloud.ErrObjectNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		h.logger.Error("Failed to load receipt", "session_id", c.Params("session"), "order_id", c.Params("order"), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "archive error"})
	}
	return c.JSON(receipt)
}

func (h *handlers) deleteOrder(c *fiber.Ctx) error {
	if h.receipts == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "receipt archive disabled")
	}

	if err := h.receipts.Delete(c.UserContext(), c.Params("session"), c.Params("order")); err != nil {
		if errors.Is(err, cloud.ErrObjectNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		h.logger.Error("Failed to delete receipt", "session_id", c.Params("session"), "order_id", c.Params("order"), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "archive error"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func withMetrics(handler fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := handler(c)

		durationMs := float64(time.Since(start).Microseconds()) / 1000
		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		attrs := api.WithAttributes(
			attribute.String("method", c.Method()),
			attribute.String("path", c.Route().Path),
			attribute.Int("status_code", status),
		)

		if httpRequestsCounter != nil {
			httpRequestsCounter.Add(c.UserContext(), 1, attrs)
		}

		if httpRequestHistogram != nil {
			httpRequestHistogram.Record(c.UserContext(), durationMs, attrs)
		}

		return err
	}
}
