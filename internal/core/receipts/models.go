package receipts

import (
	"time"

	"github.com/PocketPalCo/voicecart/internal/core/cart"
	"github.com/google/uuid"
)

// StatusReceived is the only status this service assigns; fulfilment happens elsewhere.
const StatusReceived = "received"

// Receipt is the archived record of a placed order.
type Receipt struct {
	ID        uuid.UUID   `json:"id"`
	OrderID   string      `json:"order_id,omitempty"`
	SessionID string      `json:"session_id"`
	Items     []cart.Item `json:"items"`
	Total     int         `json:"total"`
	Currency  string      `json:"currency"`
	Status    string      `json:"status"`
	PlacedAt  time.Time   `json:"placed_at"`
}

// Summary is one line of a receipt listing.
type Summary struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
