package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls until cond returns true or the deadline passes.
// Dispatches run on their own goroutines, so tests that drive tick
// directly must wait for side effects rather than assert immediately.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

type recordingObserver struct {
	mu      sync.Mutex
	entries []string
}

func (o *recordingObserver) Dispatched(entry, pattern string, firedAt time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.entries = append(o.entries, entry)
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.entries)
}

func TestScheduler_TickDispatchesMatchingEntries(t *testing.T) {
	r := NewRegistry()
	var offCount, onCount atomic.Int32

	r.Append(NewEvent("lights.off", Daily(22, 35), func(context.Context) {
		offCount.Add(1)
	}))
	r.Append(NewEvent("lights.on", Daily(18, 0), func(context.Context) {
		onCount.Add(1)
	}))

	s := NewScheduler(r)
	s.tick(context.Background(), time.Date(2026, 8, 24, 22, 35, 12, 0, time.UTC))

	waitFor(t, func() bool { return offCount.Load() == 1 })
	if onCount.Load() != 0 {
		t.Errorf("lights.on ran %d times at 22:35, want 0", onCount.Load())
	}
}

func TestScheduler_MidnightOff(t *testing.T) {
	r := NewRegistry()
	var count atomic.Int32

	r.Append(NewEvent("lights.off", Daily(0, 0), func(context.Context) {
		count.Add(1)
	}))

	s := NewScheduler(r)
	ctx := context.Background()

	// Simulate the minutes around midnight across two days.
	start := time.Date(2026, 8, 24, 23, 58, 0, 0, time.UTC)
	for i := 0; i < 24*60+4; i++ {
		s.tick(ctx, start.Add(time.Duration(i)*time.Minute))
	}

	waitFor(t, func() bool { return count.Load() == 2 })
}

func TestScheduler_OneShotAcrossSimulatedDay(t *testing.T) {
	r := NewRegistry()
	var count atomic.Int32

	r.Append(NewTask("lights.on", Daily(19, 42), func(context.Context) {
		count.Add(1)
	}))
	r.Append(NewEvent("lights.off", Daily(22, 35), func(context.Context) {}))

	s := NewScheduler(r)
	ctx := context.Background()

	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24*60; i++ {
		s.tick(ctx, start.Add(time.Duration(i)*time.Minute))
	}

	waitFor(t, func() bool { return count.Load() == 1 })

	// Sweep removes the fired one-shot, the recurring entry survives.
	waitFor(t, func() bool { return r.Sweep() == 1 })
	if r.Len() != 1 {
		t.Errorf("Len() = %d after sweep, want 1", r.Len())
	}
}

func TestScheduler_PanicIsolation(t *testing.T) {
	r := NewRegistry()
	var survived atomic.Bool

	r.Append(NewEvent("lights.show", Daily(20, 0), func(context.Context) {
		panic("choreography bug")
	}))
	r.Append(NewEvent("lights.off", Daily(20, 0), func(context.Context) {
		survived.Store(true)
	}))

	s := NewScheduler(r)
	s.tick(context.Background(), time.Date(2026, 8, 24, 20, 0, 0, 0, time.UTC))

	waitFor(t, survived.Load)

	// The panicking entry stays registered and the scheduler keeps ticking.
	if r.Len() != 2 {
		t.Errorf("Len() = %d after panic, want 2", r.Len())
	}
}

func TestScheduler_ObserverNotified(t *testing.T) {
	r := NewRegistry()
	r.Append(NewEvent("lights.off", Daily(22, 35), func(context.Context) {}))

	obs := &recordingObserver{}
	s := NewScheduler(r)
	s.SetObserver(obs)

	s.tick(context.Background(), time.Date(2026, 8, 24, 22, 35, 0, 0, time.UTC))

	waitFor(t, func() bool { return obs.count() == 1 })
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	s := NewScheduler(NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestScheduler_RunSweepsFiredTasks(t *testing.T) {
	r := NewRegistry()

	task := NewTask("lights.on", Daily(19, 42), func(context.Context) {})
	r.Append(task)
	task.Dispatch(context.Background(), time.Date(2026, 8, 24, 19, 42, 0, 0, time.UTC))

	s := NewScheduler(r)
	s.SetSweepInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx) //nolint:errcheck // Run returns nil on cancel

	waitFor(t, func() bool { return r.Len() == 0 })
}

func TestUntilNextTick(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{
			name: "mid minute",
			now:  time.Date(2026, 8, 24, 12, 0, 30, 0, time.UTC),
			want: 31 * time.Second,
		},
		{
			name: "on boundary",
			now:  time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
			want: 61 * time.Second,
		},
		{
			name: "just after grace",
			now:  time.Date(2026, 8, 24, 12, 0, 1, 0, time.UTC),
			want: 60 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := untilNextTick(tt.now); got != tt.want {
				t.Errorf("untilNextTick(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}
