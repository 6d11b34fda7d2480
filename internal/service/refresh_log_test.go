package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fridgewatch/fridgewatch/backend/internal/model"
	"github.com/fridgewatch/fridgewatch/backend/internal/testhelpers"
)

func TestRefreshLog(t *testing.T) {
	ctx := context.Background()
	log := NewRefreshLog(testhelpers.SetupTestDatabase(t))

	last, err := log.LastSuccess(ctx, "g")
	require.NoError(t, err)
	assert.Nil(t, last)

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	finished := base.Add(time.Second)
	runs := []*model.RefreshRun{
		{GroupID: "g", Trigger: "activate", Seq: 1, StartedAt: base, FinishedAt: &finished, Succeeded: true, ItemCount: 3},
		{GroupID: "g", Trigger: "interval", Seq: 2, StartedAt: base.Add(2 * time.Minute), Error: "backend down"},
		{GroupID: "other", Trigger: "activate", Seq: 1, StartedAt: base.Add(time.Hour), Succeeded: true},
	}
	for _, r := range runs {
		require.NoError(t, log.Record(ctx, r))
		assert.NotEmpty(t, r.ID)
	}

	last, err = log.LastSuccess(ctx, "g")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.True(t, finished.Equal(*last))

	recent, err := log.Recent(ctx, "g", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "interval", recent[0].Trigger)
	assert.Equal(t, "backend down", recent[0].Error)
	assert.False(t, recent[0].Succeeded)
}

func TestRefreshLogPrune(t *testing.T) {
	ctx := context.Background()
	log := NewRefreshLog(testhelpers.SetupTestDatabase(t))

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		require.NoError(t, log.Record(ctx, &model.RefreshRun{
			GroupID:   "g",
			Trigger:   "interval",
			Seq:       uint64(i + 1),
			StartedAt: base.AddDate(0, 0, i),
			Succeeded: true,
		}))
	}

	n, err := log.Prune(ctx, base.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	recent, err := log.Recent(ctx, "g", 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, uint64(4), recent[0].Seq)
}
