package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/PocketPalCo/voicecart/internal/core/parser"
	"github.com/PocketPalCo/voicecart/pkg/telemetry"
)

// Hub keeps one Engine per conversation id, created on first message.
type Hub struct {
	extractor *parser.Extractor
	opts      Options
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Engine
}

func NewHub(extractor *parser.Extractor, opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Hub{
		extractor: extractor,
		opts:      opts,
		logger:    opts.Logger.With("component", "session-hub"),
		sessions:  make(map[string]*Engine),
	}
}

// Ingest routes msg to the session's engine, creating it if needed.
func (h *Hub) Ingest(ctx context.Context, sessionID string, msg Message) Outcome {
	return h.engine(ctx, sessionID).Ingest(ctx, msg)
}

func (h *Hub) engine(ctx context.Context, sessionID string) *Engine {
	h.mu.RLock()
	e, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if ok {
		return e
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if e, ok := h.sessions[sessionID]; ok {
		return e
	}

	e = NewEngine(sessionID, h.extractor, h.opts)
	h.sessions[sessionID] = e
	telemetry.SessionsActive.Add(ctx, 1)
	h.logger.Debug("Session started", "session_id", sessionID)
	return e
}

// Snapshot returns the session's cart, or false if the session is unknown.
func (h *Hub) Snapshot(sessionID string) (Snapshot, bool) {
	h.mu.RLock()
	e, ok := h.sessions[sessionID]
	h.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}
	return e.Snapshot(), true
}

// Reset drops the session with its cart and ledger. It reports whether the
// session existed.
func (h *Hub) Reset(ctx context.Context, sessionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[sessionID]; !ok {
		return false
	}
	delete(h.sessions, sessionID)
	telemetry.SessionsActive.Add(ctx, -1)
	h.logger.Info("Session reset", "session_id", sessionID)
	return true
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// IDs lists live sessions in lexical order.
func (h *Hub) IDs() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	sort.Strings(ids)
	return ids
}
