package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLedger_MarkAndCheck(t *testing.T) {
	l := New()
	ts := time.Date(2025, 2, 10, 14, 21, 0, 0, time.UTC)
	stamp := FromTime(ts)

	assert.True(t, l.ShouldProcess("Removed Milk from your cart", stamp))

	l.MarkProcessed("Removed Milk from your cart", stamp)
	assert.False(t, l.ShouldProcess("Removed Milk from your cart", stamp))

	l.MarkProcessed("Removed Milk from your cart", stamp)
	assert.Equal(t, 1, l.Len())
}

func TestLedger_DistinguishesStampAndText(t *testing.T) {
	l := New()
	ts := time.Date(2025, 2, 10, 14, 21, 0, 0, time.UTC)
	l.MarkProcessed("Added milk to your cart", FromTime(ts))

	assert.True(t, l.ShouldProcess("Added milk to your cart", FromTime(ts.Add(time.Millisecond))))
	assert.True(t, l.ShouldProcess("Added bread to your cart", FromTime(ts)))
	assert.True(t, l.ShouldProcess("Added milk to your cart", FromClock(ts.UnixNano())),
		"clock ticks never collide with transport timestamps")
}

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint("hello", FromClock(7))
	b := Fingerprint("hello", FromClock(7))
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, Fingerprint("hello", FromClock(8)))
}

func TestMonotonicClock(t *testing.T) {
	var c MonotonicClock
	prev := c.Next()
	for i := 0; i < 100; i++ {
		next := c.Next()
		assert.Greater(t, next, prev)
		prev = next
	}
}
