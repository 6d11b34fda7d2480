package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fridgewatch/fridgewatch/backend/internal/backend"
	"github.com/fridgewatch/fridgewatch/backend/internal/events"
	"github.com/fridgewatch/fridgewatch/backend/internal/mocks"
	"github.com/fridgewatch/fridgewatch/backend/internal/model"
	"github.com/fridgewatch/fridgewatch/backend/internal/scheduler"
	"github.com/fridgewatch/fridgewatch/backend/internal/scheduler/schedulertest"
	"github.com/fridgewatch/fridgewatch/backend/internal/service"
	"github.com/fridgewatch/fridgewatch/backend/internal/testhelpers"
)

type notificationFixture struct {
	notifications *mocks.MockNotificationService
	refreshLog    *mocks.MockRefreshLog
	hub           *service.NotificationHub
	router        *gin.Engine
}

func newNotificationFixture(t *testing.T) *notificationFixture {
	t.Helper()
	f := &notificationFixture{
		notifications: new(mocks.MockNotificationService),
		refreshLog:    new(mocks.MockRefreshLog),
	}
	bus := events.NewLocalBus()
	clock := schedulertest.NewFakeClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	sched := scheduler.New(bus, testhelpers.DiscardLogger(),
		scheduler.Config{Interval: 2 * time.Minute, Location: time.UTC},
		scheduler.WithClock(clock))
	t.Cleanup(sched.Close)
	f.hub = service.NewNotificationHub(sched, copyingNotifications{f.notifications}, nil, testhelpers.DiscardLogger())

	h := NewNotificationHandler(f.notifications, f.hub, f.refreshLog, testhelpers.DiscardLogger())
	h.pingInterval = time.Hour
	f.router = newTestRouter(h.RegisterRoutes)
	return f
}

// copyingNotifications hands every pass its own snapshot, since the hub
// stamps the sequence number onto it.
type copyingNotifications struct {
	*mocks.MockNotificationService
}

func (c copyingNotifications) Snapshot(ctx context.Context, token, groupID string) (*model.NotificationSnapshot, error) {
	snap, err := c.MockNotificationService.Snapshot(ctx, token, groupID)
	if snap != nil {
		cp := *snap
		snap = &cp
	}
	return snap, err
}

func snapshot(groupID string, total int) *model.NotificationSnapshot {
	return &model.NotificationSnapshot{
		GroupID:       groupID,
		Items:         []model.Notification{},
		TotalExpiring: total,
		Counts:        map[model.UrgencyLevel]int{},
		UpdatedAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestGetNotifications(t *testing.T) {
	f := newNotificationFixture(t)
	token := tokenFor(t, "7")
	last := time.Date(2024, 5, 1, 9, 58, 0, 0, time.UTC)
	f.notifications.On("Snapshot", mock.Anything, token, "g1").Return(snapshot("g1", 3), nil)
	f.refreshLog.On("LastSuccess", mock.Anything, "g1").Return(&last, nil)

	w := performRequest(t, f.router, http.MethodGet, "/api/v1/fridge/notifications?group_id=g1", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	decode(t, w, &body)
	assert.Equal(t, "g1", body["group_id"])
	assert.EqualValues(t, 3, body["total_expiring"])
	assert.Equal(t, "2024-05-01T09:58:00Z", body["last_refreshed_at"])
	f.notifications.AssertExpectations(t)
}

func TestGetNotificationsErrors(t *testing.T) {
	f := newNotificationFixture(t)
	token := tokenFor(t, "7")
	f.notifications.On("Snapshot", mock.Anything, token, "expired").
		Return(nil, fmt.Errorf("fetch fridge items: %w", &backend.StatusError{StatusCode: http.StatusUnauthorized}))
	f.notifications.On("Snapshot", mock.Anything, token, "down").
		Return(nil, fmt.Errorf("fetch fridge items: %w", &backend.StatusError{StatusCode: http.StatusServiceUnavailable}))

	tests := []struct {
		query  string
		status int
	}{
		{"?group_id=expired", http.StatusUnauthorized},
		{"?group_id=down", http.StatusBadGateway},
	}
	for _, tt := range tests {
		w := performRequest(t, f.router, http.MethodGet, "/api/v1/fridge/notifications"+tt.query, nil, token)
		assert.Equal(t, tt.status, w.Code, tt.query)
		assert.Contains(t, w.Body.String(), `"error"`)
	}

	w := performRequest(t, f.router, http.MethodGet, "/api/v1/fridge/notifications?group_id=g1", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetNotificationsWithoutGroup(t *testing.T) {
	f := newNotificationFixture(t)
	token := tokenFor(t, "7")
	f.notifications.On("Snapshot", mock.Anything, token, "").Return(snapshot("", 1), nil)

	w := performRequest(t, f.router, http.MethodGet, "/api/v1/fridge/notifications", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	decode(t, w, &body)
	assert.EqualValues(t, 1, body["total_expiring"])
	assert.Nil(t, body["last_refreshed_at"])
	f.refreshLog.AssertNotCalled(t, "LastSuccess", mock.Anything, mock.Anything)
}

func TestListRuns(t *testing.T) {
	f := newNotificationFixture(t)
	token := tokenFor(t, "7")
	runs := []model.RefreshRun{{ID: "r1", GroupID: "g1", Trigger: "interval", Succeeded: true}}
	f.refreshLog.On("Recent", mock.Anything, "g1", 5).Return(runs, nil)
	f.refreshLog.On("Recent", mock.Anything, "g1", defaultRunsLimit).Return([]model.RefreshRun{}, nil)

	w := performRequest(t, f.router, http.MethodGet, "/api/v1/fridge/notifications/runs?group_id=g1&limit=5", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"r1"`)

	w = performRequest(t, f.router, http.MethodGet, "/api/v1/fridge/notifications/runs?group_id=g1", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(t, f.router, http.MethodGet, "/api/v1/fridge/notifications/runs?group_id=g1&limit=zero", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(t, f.router, http.MethodGet, "/api/v1/fridge/notifications/runs", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.refreshLog.AssertExpectations(t)
}

type stream struct {
	events *bufio.Reader
	cancel context.CancelFunc
}

func openStream(t *testing.T, srv *httptest.Server, groupID, token string) *stream {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/fridge/notifications/stream?group_id="+groupID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")
	return &stream{events: bufio.NewReader(resp.Body), cancel: cancel}
}

func TestStreamDeliversSnapshots(t *testing.T) {
	f := newNotificationFixture(t)
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	token := tokenFor(t, "7")
	f.notifications.On("Snapshot", mock.Anything, token, "g1").Return(snapshot("g1", 2), nil)

	s := openStream(t, srv, "g1", token)

	ev := nextEvent(t, s.events)
	require.Equal(t, "watch", ev.Name)
	var watch struct {
		WatchID string `json:"watch_id"`
		GroupID string `json:"group_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(ev.Data), &watch))
	assert.NotEmpty(t, watch.WatchID)
	assert.Equal(t, "g1", watch.GroupID)

	ev = nextEvent(t, s.events)
	require.Equal(t, "snapshot", ev.Name)
	var snap model.NotificationSnapshot
	require.NoError(t, json.Unmarshal([]byte(ev.Data), &snap))
	assert.Equal(t, "g1", snap.GroupID)
	assert.Equal(t, 2, snap.TotalExpiring)
	assert.Equal(t, uint64(1), snap.Seq)

	refreshPath := "/api/v1/fridge/notifications/watches/" + watch.WatchID + "/refresh"
	w := performRequest(t, f.router, http.MethodPost, refreshPath, nil, tokenFor(t, "8"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = performRequest(t, f.router, http.MethodPost, "/api/v1/fridge/notifications/watches/nope/refresh", nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(t, f.router, http.MethodPost, refreshPath, nil, token)
	assert.Equal(t, http.StatusAccepted, w.Code)
	ev = nextEvent(t, s.events)
	require.Equal(t, "snapshot", ev.Name)
	require.NoError(t, json.Unmarshal([]byte(ev.Data), &snap))
	assert.Equal(t, uint64(2), snap.Seq)

	visibilityPath := "/api/v1/fridge/notifications/watches/" + watch.WatchID + "/visibility"
	w = performRequest(t, f.router, http.MethodPost, visibilityPath, map[string]any{}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = performRequest(t, f.router, http.MethodPost, visibilityPath, map[string]any{"visible": true}, token)
	assert.Equal(t, http.StatusAccepted, w.Code)
	ev = nextEvent(t, s.events)
	require.Equal(t, "snapshot", ev.Name)

	s.cancel()
	assert.Eventually(t, func() bool { return f.hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamEndsWhenBackendRejectsToken(t *testing.T) {
	f := newNotificationFixture(t)
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	token := tokenFor(t, "7")
	f.notifications.On("Snapshot", mock.Anything, token, "g1").
		Return(nil, fmt.Errorf("fetch fridge items: %w", &backend.StatusError{StatusCode: http.StatusUnauthorized}))

	s := openStream(t, srv, "g1", token)
	assert.Equal(t, "watch", nextEvent(t, s.events).Name)

	ev := nextEvent(t, s.events)
	require.Equal(t, "error", ev.Name)
	assert.Contains(t, ev.Data, backend.ErrUnauthorized.Error())

	_, ok := readEvent(t, s.events)
	assert.False(t, ok)
	assert.Eventually(t, func() bool { return f.hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamRequiresGroup(t *testing.T) {
	f := newNotificationFixture(t)
	w := performRequest(t, f.router, http.MethodGet, "/api/v1/fridge/notifications/stream", nil, tokenFor(t, "7"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, f.hub.Len())
	f.notifications.AssertNotCalled(t, "Snapshot", mock.Anything, mock.Anything, mock.Anything)
}

func TestStreamKeepsRunningAfterTransientFailure(t *testing.T) {
	f := newNotificationFixture(t)
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	token := tokenFor(t, "7")
	f.notifications.On("Snapshot", mock.Anything, token, "g1").Return(nil, errors.New("connection reset")).Once()
	f.notifications.On("Snapshot", mock.Anything, token, "g1").Return(snapshot("g1", 1), nil)

	s := openStream(t, srv, "g1", token)
	watchEv := nextEvent(t, s.events)
	require.Equal(t, "watch", watchEv.Name)
	var watch struct {
		WatchID string `json:"watch_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(watchEv.Data), &watch))

	ev := nextEvent(t, s.events)
	require.Equal(t, "error", ev.Name)
	assert.Contains(t, ev.Data, "internal server error")

	w := performRequest(t, f.router, http.MethodPost, "/api/v1/fridge/notifications/watches/"+watch.WatchID+"/refresh", nil, token)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "snapshot", nextEvent(t, s.events).Name)
}
