package schedule

import (
	"context"
	"time"
)

const (
	// tickGrace is added past each minute boundary before evaluating,
	// so a slow wakeup never lands in the previous minute.
	tickGrace = time.Second

	// defaultSweepInterval is how often fired one-shot entries are
	// removed from the registry.
	defaultSweepInterval = time.Minute
)

// Observer is notified after an entry's command has been invoked.
// Implementations must be safe for concurrent use; dispatches run on
// separate goroutines.
type Observer interface {
	Dispatched(entry string, pattern string, firedAt time.Time)
}

// Scheduler evaluates the registry once per minute and dispatches
// matching entries.
//
// Each tick is aligned to the wall clock: the scheduler sleeps until
// just past the next minute boundary, evaluates a snapshot of the
// registry against that minute, and re-derives the next wakeup from the
// current wall time. Long dispatches therefore never skew subsequent
// ticks, and a suspended process resumes on the correct boundary.
//
// Commands run on their own goroutines. A command that outlives its
// minute simply overlaps the next tick; the scheduler does not wait.
type Scheduler struct {
	registry      *Registry
	logger        Logger
	observer      Observer
	sweepInterval time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

// NewScheduler creates a scheduler over the given registry.
func NewScheduler(registry *Registry) *Scheduler {
	return &Scheduler{
		registry:      registry,
		logger:        noopLogger{},
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
	}
}

// SetLogger sets the logger for dispatch and sweep diagnostics.
func (s *Scheduler) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetObserver sets a hook invoked after each successful dispatch.
// Must be called before Run.
func (s *Scheduler) SetObserver(observer Observer) {
	s.observer = observer
}

// SetSweepInterval overrides how often fired one-shots are removed.
// Must be called before Run.
func (s *Scheduler) SetSweepInterval(interval time.Duration) {
	if interval > 0 {
		s.sweepInterval = interval
	}
}

// Run drives the tick loop until ctx is cancelled, then returns nil.
//
// Dispatched commands already in flight are not waited for; they hold
// the same ctx and are expected to wind down on their own.
func (s *Scheduler) Run(ctx context.Context) error {
	timer := time.NewTimer(untilNextTick(s.now()))
	defer timer.Stop()

	sweep := time.NewTicker(s.sweepInterval)
	defer sweep.Stop()

	s.logger.Info("scheduler started",
		"entries", s.registry.Len(),
		"sweep_interval", s.sweepInterval.String(),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil

		case <-timer.C:
			s.tick(ctx, s.now())
			timer.Reset(untilNextTick(s.now()))

		case <-sweep.C:
			if removed := s.registry.Sweep(); removed > 0 {
				s.logger.Debug("swept fired one-shot entries", "removed", removed)
			}
		}
	}
}

// tick evaluates every registered entry against the current minute.
// Each entry is dispatched on its own goroutine so one slow or stuck
// command cannot delay the others.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	minute := now.Truncate(time.Minute)

	for _, entry := range s.registry.Snapshot() {
		go s.dispatch(ctx, entry, minute)
	}
}

// dispatch invokes a single entry with panic isolation. A panicking
// command is logged and discarded; it never takes down the scheduler
// or other entries.
func (s *Scheduler) dispatch(ctx context.Context, entry Entry, minute time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dispatch panic recovered",
				"entry", entry.Name(),
				"pattern", entry.Pattern().String(),
				"panic", r,
			)
		}
	}()

	if !entry.Dispatch(ctx, minute) {
		return
	}

	s.logger.Info("dispatched entry",
		"entry", entry.Name(),
		"pattern", entry.Pattern().String(),
		"minute", minute.Format("15:04"),
	)

	if s.observer != nil {
		s.observer.Dispatched(entry.Name(), entry.Pattern().String(), minute)
	}
}

// untilNextTick returns how long to sleep to land just past the next
// minute boundary.
func untilNextTick(now time.Time) time.Duration {
	next := now.Truncate(time.Minute).Add(time.Minute + tickGrace)
	return next.Sub(now)
}
