package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PocketPalCo/voicecart/config"
	"github.com/PocketPalCo/voicecart/internal/core/catalog"
	"github.com/PocketPalCo/voicecart/internal/core/cloud"
	"github.com/PocketPalCo/voicecart/internal/core/parser"
	"github.com/PocketPalCo/voicecart/internal/core/receipts"
	"github.com/PocketPalCo/voicecart/internal/core/session"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T, withArchive bool) *fiber.App {
	t.Helper()

	cfg := config.DefaultConfig()
	cat := catalog.Default()

	var archive *receipts.Service
	opts := session.Options{Logger: discardLogger()}
	if withArchive {
		provider, err := cloud.NewLocalProvider(cloud.LocalConfig{Dir: t.TempDir()})
		require.NoError(t, err)
		archive = receipts.NewService(provider, cfg.Currency, discardLogger())
		opts.Sink = archive
	}

	hub := session.NewHub(parser.NewExtractor(cat, nil), opts)
	return newApp(&cfg, newHandlers(hub, cat, archive, discardLogger()))
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestRoutes_MessageFlow(t *testing.T) {
	app := newTestApp(t, false)

	resp, body := do(t, app, http.MethodPost, "/v1/sessions/s1/messages",
		`{"text":"I've added 2 litres of milk to your cart","timestamp":"2025-02-10T14:21:00Z"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out outcomeResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "add", out.Intent)
	assert.True(t, out.Changed)
	require.Len(t, out.Cart.Items, 1)
	assert.Equal(t, 120, out.Cart.Total)

	resp, body = do(t, app, http.MethodPost, "/v1/sessions/s1/messages",
		`{"text":"I've added 2 litres of milk to your cart","timestamp":"2025-02-10T14:21:00Z"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Duplicate)

	resp, body = do(t, app, http.MethodGet, "/v1/sessions/s1/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, 120, snap.Total)
	assert.False(t, snap.Order.Placed)

	resp, _ = do(t, app, http.MethodDelete, "/v1/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/v1/sessions/s1/cart", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoutes_MessageValidation(t *testing.T) {
	app := newTestApp(t, false)

	resp, _ := do(t, app, http.MethodPost, "/v1/sessions/s1/messages", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodPost, "/v1/sessions/s1/messages", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, "/v1/sessions/unknown", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoutes_Catalog(t *testing.T) {
	app := newTestApp(t, false)

	resp, body := do(t, app, http.MethodGet, "/v1/catalog/price?name=Toned%20Milk", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var price struct {
		Name  string `json:"name"`
		Price int    `json:"price"`
	}
	require.NoError(t, json.Unmarshal(body, &price))
	assert.Equal(t, 60, price.Price)

	resp, _ = do(t, app, http.MethodGet, "/v1/catalog/price", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, app, http.MethodGet, "/v1/catalog", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		Items         []catalog.Entry `json:"items"`
		FallbackPrice int             `json:"fallback_price"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, catalog.DefaultFallbackPrice, listing.FallbackPrice)
	assert.Equal(t, "milk", listing.Items[0].Name)
}

func TestRoutes_OrdersArchive(t *testing.T) {
	app := newTestApp(t, true)

	do(t, app, http.MethodPost, "/v1/sessions/s1/messages", `{"text":"Added milk to your cart"}`)
	resp, body := do(t, app, http.MethodPost, "/v1/sessions/s1/messages", `{"text":"Order placed, Order ID: AB12-99"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out outcomeResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Placed)

	resp, body = do(t, app, http.MethodGet, "/v1/orders/s1/AB12-99", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var receipt receipts.Receipt
	require.NoError(t, json.Unmarshal(body, &receipt))
	assert.Equal(t, "s1", receipt.SessionID)
	assert.Equal(t, 60, receipt.Total)

	resp, _ = do(t, app, http.MethodGet, "/v1/orders/s1/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/v1/orders/s2/AB12-99", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/v1/orders", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, "/v1/orders/s1/AB12-99", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, app, http.MethodGet, "/v1/orders/s1/AB12-99", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, app, http.MethodDelete, "/v1/orders/s1/AB12-99", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoutes_OrdersDisabled(t *testing.T) {
	app := newTestApp(t, false)

	resp, _ := do(t, app, http.MethodGet, "/v1/orders", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	app := newTestApp(t, false)

	resp, _ := do(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	do(t, app, http.MethodPost, "/v1/sessions/s1/messages", `{"text":"Added milk to your cart"}`)
	resp, body := do(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "voicecart_sessions_live 1")
}
