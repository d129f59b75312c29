package breaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsOpen_TripsAfterThreshold(t *testing.T) {
	cb := New(5, time.Minute)

	for i := 0; i < 4; i++ {
		cb.RecordFailure("h")
		assert.False(t, cb.IsOpen("h"))
	}
	cb.RecordFailure("h")
	assert.True(t, cb.IsOpen("h"))
}

func TestIsOpen_HalfOpenAfterCooldown(t *testing.T) {
	cb := New(2, time.Minute)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return base }

	cb.RecordFailure("h")
	cb.RecordFailure("h")
	assert.True(t, cb.IsOpen("h"))

	cb.now = func() time.Time { return base.Add(time.Minute) }
	assert.False(t, cb.IsOpen("h"), "cooldown elapsed should half-open")

	// the probe (half-open transition) cleared state; breaker stays closed
	// until failures accumulate again.
	assert.False(t, cb.IsOpen("h"))
}

func TestRecordSuccess_ClearsFailures(t *testing.T) {
	cb := New(2, time.Minute)
	cb.RecordFailure("h")
	cb.RecordSuccess("h")
	cb.RecordFailure("h")
	assert.False(t, cb.IsOpen("h"))
}

func TestHosts_AreIndependent(t *testing.T) {
	cb := New(1, time.Minute)
	cb.RecordFailure("a")
	assert.True(t, cb.IsOpen("a"))
	assert.False(t, cb.IsOpen("b"))
}
