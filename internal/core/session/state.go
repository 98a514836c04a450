// Package session owns the per-conversation cart state: it gates each incoming
// assistant message through the dedup ledger, extracts operations from it and
// folds them into the cart and order state.
package session

import (
	"time"

	"github.com/PocketPalCo/voicecart/internal/core/cart"
	"github.com/PocketPalCo/voicecart/internal/core/parser"
)

// OrderState moves from active to placed once and never back.
type OrderState struct {
	Placed  bool   `json:"placed"`
	OrderID string `json:"order_id,omitempty"`
}

// State is everything a session knows. It is a value: Apply returns a new one.
type State struct {
	Cart  cart.Cart
	Order OrderState
}

// Apply folds one extraction result into s. The bool reports whether anything
// changed. A placed order keeps the id it was placed with.
func Apply(s State, res parser.Result) (State, bool) {
	changed := false
	for _, op := range res.Operations {
		var applied bool
		s.Cart, applied = cart.Apply(s.Cart, op)
		changed = changed || applied
	}

	if res.Intent == parser.IntentOrderPlaced && !s.Order.Placed {
		s.Order = OrderState{Placed: true, OrderID: res.OrderID}
		changed = true
	}

	return s, changed
}

// Message is one assistant status line as delivered by the transport. A zero
// Timestamp means the transport supplied none.
type Message struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Snapshot is the read model handed to callers.
type Snapshot struct {
	Items []cart.Item `json:"items"`
	Total int         `json:"total"`
	Order OrderState  `json:"order"`
}

func snapshotOf(s State) Snapshot {
	items := s.Cart.Clone().Items
	if items == nil {
		items = []cart.Item{}
	}
	return Snapshot{
		Items: items,
		Total: s.Cart.Total(),
		Order: s.Order,
	}
}
