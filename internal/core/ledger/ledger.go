// Package ledger remembers which assistant messages were already applied so that
// replayed deliveries become no-ops.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync/atomic"
	"time"
)

// Stamp identifies one delivery of a message: its timestamp, or a clock value
// injected when the transport supplied none.
type Stamp string

// FromTime stamps a message by its transport timestamp.
func FromTime(ts time.Time) Stamp {
	return Stamp("ts:" + strconv.FormatInt(ts.UnixNano(), 10))
}

// FromClock stamps a message that arrived without a timestamp.
func FromClock(tick int64) Stamp {
	return Stamp("clock:" + strconv.FormatInt(tick, 10))
}

// Fingerprint hashes stamp and raw text into the ledger key.
func Fingerprint(text string, stamp Stamp) string {
	hash := sha256.Sum256([]byte(string(stamp) + "|" + text))
	return hex.EncodeToString(hash[:])
}

// Ledger is a grow-only set of message fingerprints. It is not safe for concurrent
// use; the owning session serializes access.
type Ledger struct {
	seen map[string]struct{}
}

func New() *Ledger {
	return &Ledger{seen: make(map[string]struct{})}
}

// ShouldProcess reports whether this delivery has not been applied yet.
func (l *Ledger) ShouldProcess(text string, stamp Stamp) bool {
	_, ok := l.seen[Fingerprint(text, stamp)]
	return !ok
}

// MarkProcessed records the delivery. Marking twice is harmless.
func (l *Ledger) MarkProcessed(text string, stamp Stamp) {
	l.seen[Fingerprint(text, stamp)] = struct{}{}
}

func (l *Ledger) Len() int {
	return len(l.seen)
}

// MonotonicClock hands out strictly increasing ticks for unstamped messages.
type MonotonicClock struct {
	last atomic.Int64
}

func (c *MonotonicClock) Next() int64 {
	return c.last.Add(1)
}
