package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/PocketPalCo/voicecart/internal/core/catalog"
	"github.com/PocketPalCo/voicecart/internal/core/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return NewHub(parser.NewExtractor(catalog.Default(), nil), Options{})
}

func TestHub_SessionsAreIndependent(t *testing.T) {
	h := newTestHub()
	ctx := context.Background()

	h.Ingest(ctx, "alice", at("Added milk to your cart", 0))
	h.Ingest(ctx, "bob", at("Added eggs to your cart", 0))

	alice, ok := h.Snapshot("alice")
	require.True(t, ok)
	require.Len(t, alice.Items, 1)
	assert.Equal(t, "Milk", alice.Items[0].Name)

	bob, ok := h.Snapshot("bob")
	require.True(t, ok)
	require.Len(t, bob.Items, 1)
	assert.Equal(t, "Eggs", bob.Items[0].Name)

	assert.Equal(t, 2, h.Count())
	assert.Equal(t, []string{"alice", "bob"}, h.IDs())
}

func TestHub_UnknownSession(t *testing.T) {
	h := newTestHub()

	_, ok := h.Snapshot("nobody")
	assert.False(t, ok)
	assert.False(t, h.Reset(context.Background(), "nobody"))
}

func TestHub_Reset(t *testing.T) {
	h := newTestHub()
	ctx := context.Background()
	msg := at("Added milk to your cart", 0)

	h.Ingest(ctx, "s", msg)
	assert.True(t, h.Reset(ctx, "s"))
	assert.Zero(t, h.Count())

	// a fresh session has a fresh ledger
	out := h.Ingest(ctx, "s", msg)
	assert.False(t, out.Duplicate)
	assert.Len(t, out.Snapshot.Items, 1)
}

func TestHub_ConcurrentSessions(t *testing.T) {
	h := newTestHub()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i%4)
			h.Ingest(ctx, id, Message{Text: "Added milk to your cart"})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, h.Count())
	for _, id := range h.IDs() {
		snap, ok := h.Snapshot(id)
		require.True(t, ok)
		assert.Len(t, snap.Items, 1)
	}
}
