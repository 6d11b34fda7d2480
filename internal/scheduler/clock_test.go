package scheduler

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUntilNextMidnight(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		loc  *time.Location
		want time.Duration
	}{
		{name: "noon", now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), loc: time.UTC, want: 12 * time.Hour},
		{name: "exactly midnight", now: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), loc: time.UTC, want: 24 * time.Hour},
		{name: "one second before", now: time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC), loc: time.UTC, want: time.Second},
		{name: "spring forward day", now: time.Date(2024, 3, 10, 0, 0, 0, 0, ny), loc: ny, want: 23 * time.Hour},
		{name: "fall back day", now: time.Date(2024, 11, 3, 0, 0, 0, 0, ny), loc: ny, want: 25 * time.Hour},
		{name: "other zone", now: time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC), loc: ny, want: 8 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UntilNextMidnight(tt.now, tt.loc))
		})
	}
}
