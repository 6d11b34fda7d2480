package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fridgewatch/fridgewatch/backend/internal/model"
	"github.com/fridgewatch/fridgewatch/backend/internal/scheduler"
)

var (
	ErrWatchNotFound = errors.New("watch not found")
	ErrWatchNotOwned = errors.New("watch belongs to another user")
)

const refreshLogTimeout = 5 * time.Second

// NotificationHub runs one scheduled watch per open notification stream and
// keeps each watch's latest snapshot.
type NotificationHub struct {
	scheduler     *scheduler.Scheduler
	notifications INotificationService
	refreshLog    IRefreshLog
	logger        *slog.Logger

	mu       sync.Mutex
	sessions map[string]*WatchSession
}

// NewNotificationHub creates a hub. refreshLog may be nil.
func NewNotificationHub(sched *scheduler.Scheduler, notifications INotificationService, refreshLog IRefreshLog, logger *slog.Logger) *NotificationHub {
	return &NotificationHub{
		scheduler:     sched,
		notifications: notifications,
		refreshLog:    refreshLog,
		logger:        logger,
		sessions:      make(map[string]*WatchSession),
	}
}

// WatchSession is one client's view of a group's notifications.
type WatchSession struct {
	id      string
	userID  string
	groupID string
	watch   *scheduler.Watch

	mu     sync.Mutex
	latest *model.NotificationSnapshot

	updates chan *model.NotificationSnapshot
	errs    chan error
}

// Open starts watching groupID on behalf of userID. The token is forwarded to
// the store backend on every pass. The session ends when ctx is cancelled or
// Close is called.
func (h *NotificationHub) Open(ctx context.Context, token, userID, groupID string) (*WatchSession, error) {
	if groupID == "" {
		return nil, ErrMissingGroup
	}

	s := &WatchSession{
		userID:  userID,
		groupID: groupID,
		updates: make(chan *model.NotificationSnapshot, 1),
		errs:    make(chan error, 1),
	}
	pass := func(ctx context.Context, run scheduler.Run) error {
		return h.refresh(ctx, s, token, run)
	}

	w, err := h.scheduler.Activate(ctx, scheduler.WatchSpec{Key: groupID, Pass: pass})
	if err != nil {
		return nil, fmt.Errorf("activate watch: %w", err)
	}
	s.id = w.ID()
	s.watch = w

	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()

	go func() {
		<-w.Done()
		h.mu.Lock()
		delete(h.sessions, s.id)
		h.mu.Unlock()
	}()
	return s, nil
}

// Lookup returns the open session with the given ID if userID owns it.
func (h *NotificationHub) Lookup(id, userID string) (*WatchSession, error) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	h.mu.Unlock()
	if !ok {
		return nil, ErrWatchNotFound
	}
	if s.userID != userID {
		return nil, ErrWatchNotOwned
	}
	return s, nil
}

// Len reports how many sessions are open.
func (h *NotificationHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *NotificationHub) refresh(ctx context.Context, s *WatchSession, token string, run scheduler.Run) error {
	snap, err := h.notifications.Snapshot(ctx, token, s.groupID)
	if err != nil {
		if ctx.Err() == nil {
			h.recordRun(ctx, run, nil, err)
			s.fail(err)
		}
		return err
	}

	snap.Seq = run.Seq
	h.recordRun(ctx, run, snap, nil)
	if !run.Commit(func() { s.apply(snap) }) {
		h.logger.Debug("discarded stale snapshot",
			slog.String("watch_id", run.WatchID),
			slog.Uint64("seq", run.Seq),
		)
	}
	return nil
}

func (h *NotificationHub) recordRun(ctx context.Context, run scheduler.Run, snap *model.NotificationSnapshot, passErr error) {
	if h.refreshLog == nil {
		return
	}
	finished := time.Now()
	rec := &model.RefreshRun{
		GroupID:    run.Key,
		WatchID:    run.WatchID,
		Trigger:    string(run.Trigger),
		Seq:        run.Seq,
		StartedAt:  run.StartedAt,
		FinishedAt: &finished,
		Succeeded:  passErr == nil,
	}
	if snap != nil {
		rec.ItemCount = snap.TotalExpiring
		rec.CriticalCount = snap.Counts[model.UrgencyCritical]
	}
	if passErr != nil {
		rec.Error = passErr.Error()
	}

	// The audit row is written even if the watch closes mid-write.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshLogTimeout)
	defer cancel()
	if err := h.refreshLog.Record(wctx, rec); err != nil {
		h.logger.Warn("failed to record refresh run",
			slog.String("group_id", run.Key),
			slog.String("error", err.Error()),
		)
	}
}

func (s *WatchSession) ID() string      { return s.id }
func (s *WatchSession) GroupID() string { return s.groupID }

// Latest returns the most recently applied snapshot, or nil before the first
// successful pass.
func (s *WatchSession) Latest() *model.NotificationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Updates delivers applied snapshots. Only the newest undelivered one is kept.
func (s *WatchSession) Updates() <-chan *model.NotificationSnapshot { return s.updates }

// Errors delivers failed pass errors. Only the newest undelivered one is kept.
func (s *WatchSession) Errors() <-chan error { return s.errs }

// Done is closed once the session's watch has stopped.
func (s *WatchSession) Done() <-chan struct{} { return s.watch.Done() }

// Refresh requests an immediate pass.
func (s *WatchSession) Refresh() { s.watch.Refresh() }

// SetVisible tells the session whether the client is in the foreground.
// Becoming visible triggers an immediate pass.
func (s *WatchSession) SetVisible(visible bool) {
	if visible {
		s.watch.Foreground()
	}
}

// Close stops the session's watch.
func (s *WatchSession) Close() { s.watch.Close() }

// apply runs under the watch's commit lock, so calls never overlap.
func (s *WatchSession) apply(snap *model.NotificationSnapshot) {
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()

	select {
	case <-s.updates:
	default:
	}
	s.updates <- snap
}

func (s *WatchSession) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.errs:
	default:
	}
	select {
	case s.errs <- err:
	default:
	}
}
