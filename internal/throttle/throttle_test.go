package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_AppliesHardFloor(t *testing.T) {
	tt := New(0)
	assert.Equal(t, Floor, tt.Delay())
}

func TestNew_RespectsConfiguredAboveFloor(t *testing.T) {
	tt := New(5 * time.Second)
	assert.Equal(t, 5*time.Second, tt.Delay())
}

func TestWait_SleepsForRemainingDelay(t *testing.T) {
	tt := New(2 * time.Second)
	var slept time.Duration
	tt.sleep = func(d time.Duration) { slept = d }

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	tt.now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(500 * time.Millisecond)
	}

	tt.Wait("example.com")
	slept = 0
	tt.now = func() time.Time { return base.Add(500 * time.Millisecond) }
	tt.Wait("example.com")

	assert.Equal(t, 1500*time.Millisecond, slept)
}

func TestWait_DistinctHostsIndependent(t *testing.T) {
	tt := New(2 * time.Second)
	tt.sleep = func(time.Duration) { t.Fatal("should not sleep on first request per host") }

	tt.Wait("a.example.com")
	tt.Wait("b.example.com")
}
