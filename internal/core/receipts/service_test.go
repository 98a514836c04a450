package receipts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/PocketPalCo/voicecart/internal/core/cart"
	"github.com/PocketPalCo/voicecart/internal/core/catalog"
	"github.com/PocketPalCo/voicecart/internal/core/cloud"
	"github.com/PocketPalCo/voicecart/internal/core/parser"
	"github.com/PocketPalCo/voicecart/internal/core/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingProvider struct {
	cloud.Provider
}

func (failingProvider) Name() string { return "broken" }

func (failingProvider) Put(context.Context, *cloud.Object) (*cloud.ObjectInfo, error) {
	return nil, errors.New("disk full")
}

func newLocalService(t *testing.T) *Service {
	t.Helper()
	provider, err := cloud.NewLocalProvider(cloud.LocalConfig{Dir: t.TempDir()})
	require.NoError(t, err)

	svc := NewService(provider, "INR", slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2025, 2, 10, 14, 21, 0, 0, time.UTC) }
	return svc
}

func placedSnapshot(orderID string) session.Snapshot {
	return session.Snapshot{
		Items: []cart.Item{{ID: "1", Name: "Milk", Price: 60, Unit: "litre", Quantity: 2}},
		Total: 120,
		Order: session.OrderState{Placed: true, OrderID: orderID},
	}
}

func TestService_ArchiveAndGet(t *testing.T) {
	svc := newLocalService(t)
	ctx := context.Background()

	receipt, err := svc.Archive(ctx, "s1", placedSnapshot("AB12-99"))
	require.NoError(t, err)
	assert.Equal(t, StatusReceived, receipt.Status)
	assert.Equal(t, "orders/s1/order_AB12-99.json", Key(receipt))

	got, err := svc.Get(ctx, "s1", "AB12-99")
	require.NoError(t, err)
	assert.Equal(t, receipt.ID, got.ID)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, 120, got.Total)
	assert.Equal(t, "INR", got.Currency)
	assert.True(t, receipt.PlacedAt.Equal(got.PlacedAt))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Milk", got.Items[0].Name)

	summaries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "orders/s1/order_AB12-99.json", summaries[0].Key)
}

func TestService_ArchiveWithoutOrderID(t *testing.T) {
	svc := newLocalService(t)

	receipt, err := svc.Archive(context.Background(), "s1", placedSnapshot(""))
	require.NoError(t, err)
	assert.Equal(t, "orders/s1/order_"+receipt.ID.String()+".json", Key(receipt))
}

func TestService_OrderPlacedFromEngine(t *testing.T) {
	svc := newLocalService(t)
	ctx := context.Background()

	engine := session.NewEngine("s9", parser.NewExtractor(catalog.Default(), nil), session.Options{Sink: svc})
	engine.Ingest(ctx, session.Message{Text: "I've added 2 litres of milk to your cart"})
	engine.Ingest(ctx, session.Message{Text: "Order placed, Order ID: X1"})

	got, err := svc.Get(ctx, "s9", "X1")
	require.NoError(t, err)
	assert.Equal(t, "s9", got.SessionID)
	assert.Equal(t, 120, got.Total)
}

func TestService_ArchiveFailure(t *testing.T) {
	svc := NewService(failingProvider{}, "INR", slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.Archive(context.Background(), "s1", placedSnapshot("X1"))
	assert.ErrorContains(t, err, "disk full")
}

func TestService_GetMissing(t *testing.T) {
	svc := newLocalService(t)

	_, err := svc.Get(context.Background(), "s1", "nope")
	assert.ErrorIs(t, err, cloud.ErrObjectNotFound)
}

func TestService_SameOrderIDAcrossSessions(t *testing.T) {
	svc := newLocalService(t)
	ctx := context.Background()

	first, err := svc.Archive(ctx, "kitchen", placedSnapshot("1001"))
	require.NoError(t, err)

	other := placedSnapshot("1001")
	other.Total = 45
	second, err := svc.Archive(ctx, "office", other)
	require.NoError(t, err)
	assert.NotEqual(t, Key(first), Key(second))

	got, err := svc.Get(ctx, "kitchen", "1001")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 120, got.Total)

	got, err = svc.Get(ctx, "office", "1001")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, 45, got.Total)

	summaries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}

func TestService_Delete(t *testing.T) {
	svc := newLocalService(t)
	ctx := context.Background()

	_, err := svc.Archive(ctx, "s1", placedSnapshot("AB12-99"))
	require.NoError(t, err)
	_, err = svc.Archive(ctx, "s2", placedSnapshot("AB12-99"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "s1", "AB12-99"))

	_, err = svc.Get(ctx, "s1", "AB12-99")
	assert.ErrorIs(t, err, cloud.ErrObjectNotFound)
	_, err = svc.Get(ctx, "s2", "AB12-99")
	assert.NoError(t, err)

	err = svc.Delete(ctx, "s1", "AB12-99")
	assert.ErrorIs(t, err, cloud.ErrObjectNotFound)
}

func TestKeySegment(t *testing.T) {
	assert.Equal(t, "AB12-99", keySegment(" AB12-99 "))
	assert.Equal(t, "a_b___c", keySegment("a/b/..c"))
	assert.Equal(t, "_", keySegment(""))
}
