package schedule

import (
	"context"
	"testing"
	"time"
)

func noop(context.Context) {}

func TestRegistry_AppendPreservesOrder(t *testing.T) {
	r := NewRegistry()

	r.Append(NewEvent("lights.off", Daily(22, 35), noop))
	r.Append(NewEvent("lights.off", Daily(0, 0), noop))
	r.Append(NewEvent("lights.on", Daily(18, 0), noop))

	snapshot := r.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("Len() = %d, want 3", len(snapshot))
	}

	wantPatterns := []string{"{35} {22} {*} {*} {*}", "{0} {0} {*} {*} {*}", "{0} {18} {*} {*} {*}"}
	for i, want := range wantPatterns {
		if got := snapshot[i].Pattern().String(); got != want {
			t.Errorf("entry %d pattern = %q, want %q", i, got, want)
		}
	}
}

func TestRegistry_AppendDuplicateIsNoOp(t *testing.T) {
	r := NewRegistry()

	if !r.Append(NewEvent("lights.off", Daily(22, 35), noop)) {
		t.Fatal("first append should succeed")
	}
	// Same identity, different command.
	if r.Append(NewEvent("lights.off", Daily(22, 35), func(context.Context) { panic("x") })) {
		t.Error("duplicate append should be a no-op")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestRegistry_RemoveFirstMatchOnly(t *testing.T) {
	r := NewRegistry()

	r.Append(NewEvent("lights.off", Daily(22, 35), noop))
	r.Append(NewEvent("lights.on", Daily(18, 0), noop))

	if !r.Remove(NewEvent("lights.off", Daily(22, 35), noop)) {
		t.Error("remove of present entry should succeed")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	// Removing again is a no-op.
	if r.Remove(NewEvent("lights.off", Daily(22, 35), noop)) {
		t.Error("remove of absent entry should be a no-op")
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d after no-op remove, want 1", r.Len())
	}
}

func TestRegistry_SnapshotIsIsolated(t *testing.T) {
	r := NewRegistry()
	r.Append(NewEvent("lights.off", Daily(22, 35), noop))

	snapshot := r.Snapshot()
	r.Append(NewEvent("lights.on", Daily(18, 0), noop))

	if len(snapshot) != 1 {
		t.Errorf("snapshot length = %d after later append, want 1", len(snapshot))
	}
}

func TestRegistry_SweepRemovesOnlyFiredTasks(t *testing.T) {
	r := NewRegistry()

	fired := NewTask("lights.on", Daily(19, 42), noop)
	pending := NewTask("lights.on", Daily(20, 15), noop)
	event := NewEvent("lights.off", Daily(22, 35), noop)

	r.Append(fired)
	r.Append(pending)
	r.Append(event)

	// Fire the first task.
	at := time.Date(2026, 8, 24, 19, 42, 0, 0, time.UTC)
	if !fired.Dispatch(context.Background(), at) {
		t.Fatal("expected task to fire")
	}

	if removed := r.Sweep(); removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d after sweep, want 2", r.Len())
	}

	// Events are never swept, pending tasks stay.
	if removed := r.Sweep(); removed != 0 {
		t.Errorf("second Sweep() = %d, want 0", removed)
	}
}

func TestRegistry_Dump(t *testing.T) {
	r := NewRegistry()
	r.Append(NewEvent("lights.off", Daily(22, 35), noop))

	task := NewTask("lights.on", Daily(19, 42), noop)
	r.Append(task)
	task.Dispatch(context.Background(), time.Date(2026, 8, 24, 19, 42, 0, 0, time.UTC))

	dump := r.Dump()
	if len(dump) != 2 {
		t.Fatalf("Dump() length = %d, want 2", len(dump))
	}

	if dump[0].Kind != "event" || dump[0].Name != "lights.off" || dump[0].Fired {
		t.Errorf("unexpected event info: %+v", dump[0])
	}
	if dump[1].Kind != "task" || !dump[1].Fired {
		t.Errorf("unexpected task info: %+v", dump[1])
	}
}
