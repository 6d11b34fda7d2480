// Package scheduler runs notification refresh passes for watched groups.
//
// Each Watch performs one pass when activated and again on every interval
// tick, at every local midnight, on manual refresh, when the client regains
// visibility and when the group's inventory is invalidated on the bus.
// Closing a Watch releases all of its timers and its bus subscription, and
// no pass runs or commits after Close returns.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fridgewatch/fridgewatch/backend/internal/events"
)

// ErrClosed is returned by Activate once the scheduler has been closed.
var ErrClosed = errors.New("scheduler: closed")

// Trigger names what caused a pass.
type Trigger string

const (
	TriggerActivate    Trigger = "activate"
	TriggerInterval    Trigger = "interval"
	TriggerMidnight    Trigger = "midnight"
	TriggerManual      Trigger = "manual"
	TriggerForeground  Trigger = "foreground"
	TriggerInvalidated Trigger = "invalidated"
)

// Run describes one pass.
type Run struct {
	WatchID   string
	Key       string
	Seq       uint64
	Trigger   Trigger
	StartedAt time.Time

	watch *Watch
}

// Commit runs apply if this pass is the newest one to finish so far and the
// watch is still open. It reports whether apply ran.
func (r Run) Commit(apply func()) bool {
	if r.watch == nil {
		return false
	}
	return r.watch.commit(r.Seq, apply)
}

// PassFunc performs one refresh. Its context is cancelled when the watch closes.
type PassFunc func(ctx context.Context, run Run) error

// WatchSpec describes what to refresh.
type WatchSpec struct {
	// Key is the invalidation bus key, normally the group ID.
	Key  string
	Pass PassFunc
}

// Recorder observes scheduler activity. metrics.Collector implements it.
type Recorder interface {
	RecordPass(trigger, outcome string, d time.Duration)
	RecordStale()
	SetActiveWatches(n int)
}

// Config configures a Scheduler.
type Config struct {
	Interval    time.Duration
	Location    *time.Location
	MaxInFlight int
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithRecorder reports pass outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// Scheduler owns every active Watch.
type Scheduler struct {
	bus      events.Bus
	logger   *slog.Logger
	cfg      Config
	clock    Clock
	recorder Recorder

	mu      sync.Mutex
	watches map[string]*Watch
	closed  bool
}

// New creates a Scheduler. Zero config values fall back to a 2 minute
// interval, the local timezone and two passes in flight per watch.
func New(bus events.Bus, logger *slog.Logger, cfg Config, opts ...Option) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxInFlight <= 0 {
		cfg.MaxInFlight = 2
	}
	s := &Scheduler{
		bus:     bus,
		logger:  logger,
		cfg:     cfg,
		clock:   RealClock{},
		watches: make(map[string]*Watch),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Activate starts a watch and runs its first pass immediately. The watch
// stops when ctx is cancelled or Close is called.
func (s *Scheduler) Activate(ctx context.Context, spec WatchSpec) (*Watch, error) {
	if spec.Pass == nil {
		return nil, errors.New("scheduler: nil pass")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	wctx, cancel := context.WithCancel(ctx)
	w := &Watch{
		id:       uuid.NewString(),
		key:      spec.Key,
		pass:     spec.Pass,
		s:        s,
		ctx:      wctx,
		cancel:   cancel,
		kick:     make(chan Trigger, 1),
		sem:      make(chan struct{}, s.cfg.MaxInFlight),
		ticker:   s.clock.NewTicker(s.cfg.Interval),
		midnight: s.clock.NewTimer(UntilNextMidnight(s.clock.Now(), s.cfg.Location)),
		sub:      s.bus.Subscribe(spec.Key),
		done:     make(chan struct{}),
	}
	w.logger = s.logger.With(slog.String("watch_id", w.id), slog.String("group_id", w.key))

	s.watches[w.id] = w
	s.setActive(len(s.watches))

	go w.loop()
	return w, nil
}

// Get returns the open watch with the given ID.
func (s *Scheduler) Get(id string) (*Watch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.watches[id]
	return w, ok
}

// Active reports how many watches are open.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watches)
}

// Close closes every watch and rejects further activations.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	watches := make([]*Watch, 0, len(s.watches))
	for _, w := range s.watches {
		watches = append(watches, w)
	}
	s.mu.Unlock()

	for _, w := range watches {
		w.Close()
	}
}

func (s *Scheduler) forget(w *Watch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watches, w.id)
	s.setActive(len(s.watches))
}

// setActive must be called with s.mu held.
func (s *Scheduler) setActive(n int) {
	if s.recorder != nil {
		s.recorder.SetActiveWatches(n)
	}
}

// Watch is the handle of one scheduled refresh task.
type Watch struct {
	id     string
	key    string
	pass   PassFunc
	s      *Scheduler
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	kick   chan Trigger
	sem    chan struct{}

	ticker   Ticker
	midnight Timer
	sub      *events.Subscription

	// seq is only touched by the loop goroutine.
	seq    uint64
	passes sync.WaitGroup

	mu      sync.Mutex
	applied uint64
	closed  bool

	closeOnce sync.Once
	done      chan struct{}
}

func (w *Watch) ID() string  { return w.id }
func (w *Watch) Key() string { return w.key }

// Done is closed once the watch has fully stopped.
func (w *Watch) Done() <-chan struct{} { return w.done }

// Refresh requests an immediate pass.
func (w *Watch) Refresh() { w.trigger(TriggerManual) }

// Foreground requests an immediate pass because the client became visible.
func (w *Watch) Foreground() { w.trigger(TriggerForeground) }

// trigger queues a pass. A request made while one is already queued is merged
// into it.
func (w *Watch) trigger(t Trigger) {
	select {
	case w.kick <- t:
	default:
	}
}

// Close stops the watch and waits for in-flight passes to return. It is safe
// to call more than once and from multiple goroutines.
func (w *Watch) Close() {
	w.closeOnce.Do(func() {
		w.markClosed()
		w.cancel()
	})
	<-w.done
}

func (w *Watch) markClosed() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

func (w *Watch) commit(seq uint64, apply func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	if seq <= w.applied {
		if w.s.recorder != nil {
			w.s.recorder.RecordStale()
		}
		return false
	}
	w.applied = seq
	apply()
	return true
}

func (w *Watch) loop() {
	defer w.teardown()

	w.launch(TriggerActivate)
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.ticker.C():
			w.launch(TriggerInterval)
		case <-w.midnight.C():
			w.midnight.Reset(UntilNextMidnight(w.s.clock.Now(), w.s.cfg.Location))
			w.launch(TriggerMidnight)
		case <-w.sub.C():
			w.launch(TriggerInvalidated)
		case t := <-w.kick:
			w.launch(t)
		}
	}
}

func (w *Watch) launch(trigger Trigger) {
	if w.ctx.Err() != nil {
		return
	}
	select {
	case w.sem <- struct{}{}:
	case <-w.ctx.Done():
		return
	}

	w.seq++
	run := Run{
		WatchID:   w.id,
		Key:       w.key,
		Seq:       w.seq,
		Trigger:   trigger,
		StartedAt: w.s.clock.Now(),
		watch:     w,
	}

	w.passes.Add(1)
	go func() {
		defer w.passes.Done()
		defer func() { <-w.sem }()
		w.execute(run)
	}()
}

func (w *Watch) execute(run Run) {
	start := time.Now()
	err := w.pass(w.ctx, run)
	elapsed := time.Since(start)

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled) && w.ctx.Err() != nil:
		outcome = "canceled"
	default:
		outcome = "error"
		w.logger.Error("notification refresh failed",
			slog.String("trigger", string(run.Trigger)),
			slog.Uint64("seq", run.Seq),
			slog.String("error", err.Error()),
		)
	}
	if w.s.recorder != nil {
		w.s.recorder.RecordPass(string(run.Trigger), outcome, elapsed)
	}
}

func (w *Watch) teardown() {
	w.markClosed()
	w.cancel()
	w.ticker.Stop()
	w.midnight.Stop()
	w.sub.Close()
	w.passes.Wait()
	w.s.forget(w)
	w.logger.Debug("watch closed")
	close(w.done)
}
