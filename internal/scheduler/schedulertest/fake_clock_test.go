package schedulertest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClockTimer(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	timer := clock.NewTimer(time.Minute)

	clock.Advance(59 * time.Second)
	assert.Len(t, timer.C(), 0)

	clock.Advance(time.Second)
	require.Len(t, timer.C(), 1)
	fired := <-timer.C()
	assert.Equal(t, time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC), fired)
	assert.Equal(t, 0, clock.Pending())

	timer.Reset(time.Minute)
	assert.Equal(t, 1, clock.Pending())
	assert.True(t, timer.Stop())
	clock.Advance(time.Hour)
	assert.Len(t, timer.C(), 0)
}

func TestFakeClockTicker(t *testing.T) {
	clock := NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	ticker := clock.NewTicker(time.Minute)

	clock.Advance(time.Minute)
	<-ticker.C()
	clock.Advance(time.Minute)
	<-ticker.C()

	// Unreceived ticks are dropped rather than queued.
	clock.Advance(5 * time.Minute)
	assert.Len(t, ticker.C(), 1)
	<-ticker.C()

	ticker.Stop()
	clock.Advance(time.Hour)
	assert.Len(t, ticker.C(), 0)
}

func TestFakeClockFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := NewFakeClock(start)
	late := clock.NewTimer(2 * time.Minute)
	early := clock.NewTimer(time.Minute)

	clock.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Minute), <-early.C())
	assert.Equal(t, start.Add(2*time.Minute), <-late.C())
	assert.Equal(t, start.Add(time.Hour), clock.Now())
}
