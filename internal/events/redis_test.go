package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fridgewatch/fridgewatch/backend/internal/testhelpers"
)

func TestRedisBusFansOutAcrossInstances(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	ctx := context.Background()
	logger := testhelpers.DiscardLogger()

	first, err := NewRedisBus(ctx, client, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = first.Close() })

	second, err := NewRedisBus(ctx, client, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	onFirst := first.Subscribe("g-1")
	onSecond := second.Subscribe("g-1")
	unrelated := second.Subscribe("g-2")

	require.NoError(t, first.Publish(ctx, "g-1"))

	for _, s := range []*Subscription{onFirst, onSecond} {
		select {
		case <-s.C():
		case <-time.After(5 * time.Second):
			t.Fatal("invalidation not delivered")
		}
	}
	assert.False(t, received(unrelated))
}

func TestRedisBusClose(t *testing.T) {
	client := testhelpers.SetupRedis(t)

	bus, err := NewRedisBus(context.Background(), client, testhelpers.DiscardLogger())
	require.NoError(t, err)

	assert.NoError(t, bus.Close())
	assert.NoError(t, client.Ping(context.Background()).Err())
}
