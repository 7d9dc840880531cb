package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEvent_FiresOnEveryMatch(t *testing.T) {
	var count atomic.Int32
	e := NewEvent("lights.off", Daily(22, 35), func(context.Context) {
		count.Add(1)
	})

	at := time.Date(2026, 8, 24, 22, 35, 0, 0, time.UTC)
	ctx := context.Background()

	if !e.Dispatch(ctx, at) {
		t.Fatal("expected dispatch on matching minute")
	}
	if !e.Dispatch(ctx, at.AddDate(0, 0, 1)) {
		t.Fatal("expected dispatch on next day's matching minute")
	}
	if e.Dispatch(ctx, at.Add(time.Minute)) {
		t.Fatal("unexpected dispatch on non-matching minute")
	}
	if count.Load() != 2 {
		t.Errorf("command ran %d times, want 2", count.Load())
	}
}

func TestTask_FiresExactlyOnce(t *testing.T) {
	var count atomic.Int32
	task := NewTask("lights.on", Daily(19, 42), func(context.Context) {
		count.Add(1)
	})

	ctx := context.Background()
	start := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	// Walk a full day of minutes; the pattern matches only 19:42 and the
	// task must fire on it once.
	fired := 0
	for i := 0; i < 24*60; i++ {
		if task.Dispatch(ctx, start.Add(time.Duration(i)*time.Minute)) {
			fired++
		}
	}

	if fired != 1 {
		t.Errorf("Dispatch() returned true %d times, want 1", fired)
	}
	if count.Load() != 1 {
		t.Errorf("command ran %d times, want 1", count.Load())
	}
	if !task.Fired() {
		t.Error("Fired() = false after dispatch")
	}
}

func TestTask_ConcurrentDispatchRunsOnce(t *testing.T) {
	var count atomic.Int32
	task := NewTask("lights.on", Daily(19, 42), func(context.Context) {
		count.Add(1)
	})

	at := time.Date(2026, 8, 24, 19, 42, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task.Dispatch(context.Background(), at)
		}()
	}
	wg.Wait()

	if count.Load() != 1 {
		t.Errorf("command ran %d times under concurrent dispatch, want 1", count.Load())
	}
}

func TestTask_FiredSetBeforeCommandRuns(t *testing.T) {
	task := NewTask("lights.show", Daily(20, 0), nil)
	task.fn = func(context.Context) {
		if !task.Fired() {
			t.Error("Fired() = false while command is running")
		}
	}

	at := time.Date(2026, 8, 24, 20, 0, 0, 0, time.UTC)
	if !task.Dispatch(context.Background(), at) {
		t.Fatal("expected dispatch")
	}
}

// Entry identity is name plus pattern only. Two entries whose commands
// capture different arguments still compare equal.
func TestEqual_IgnoresCommand(t *testing.T) {
	a := NewEvent("lights.on", Daily(18, 0), func(context.Context) {})
	b := NewEvent("lights.on", Daily(18, 0), func(context.Context) { panic("never run") })

	if !Equal(a, b) {
		t.Error("entries with same name and pattern should be equal")
	}

	c := NewEvent("lights.off", Daily(18, 0), func(context.Context) {})
	if Equal(a, c) {
		t.Error("entries with different names should not be equal")
	}

	d := NewEvent("lights.on", Daily(18, 30), func(context.Context) {})
	if Equal(a, d) {
		t.Error("entries with different patterns should not be equal")
	}
}

func TestEqual_EventAndTaskWithSameIdentity(t *testing.T) {
	event := NewEvent("lights.on", Daily(18, 0), func(context.Context) {})
	task := NewTask("lights.on", Daily(18, 0), func(context.Context) {})

	if !Equal(event, task) {
		t.Error("kind does not participate in identity")
	}
}
