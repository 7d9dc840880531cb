package schedule

import (
	"context"
	"sync/atomic"
	"time"
)

// Func is the command invoked when an entry's pattern matches.
//
// Funcs run on their own goroutine and receive the scheduler's context;
// long-running commands should honour cancellation.
type Func func(ctx context.Context)

// Entry is a named, schedulable unit of work.
//
// Identity is name plus pattern: two entries with the same name and an
// equal pattern are considered the same entry regardless of what their
// commands capture. Callers that need two otherwise-identical entries
// must give them distinct names.
type Entry interface {
	// Name returns the command tag, e.g. "lights.off".
	Name() string

	// Pattern returns the time pattern the entry fires on.
	Pattern() Pattern

	// Dispatch invokes the entry's command if it should run at t.
	// It returns true if the command was invoked.
	Dispatch(ctx context.Context, t time.Time) bool
}

// Equal reports whether two entries have the same identity.
// Only name and pattern participate; the commands themselves are never
// compared.
func Equal(a, b Entry) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name() == b.Name() && a.Pattern().Equal(b.Pattern())
}

// Event is a recurring entry. It fires every time its pattern matches.
type Event struct {
	name    string
	pattern Pattern
	fn      Func
}

// NewEvent creates a recurring entry with the given command tag, pattern
// and command.
func NewEvent(name string, pattern Pattern, fn Func) *Event {
	return &Event{
		name:    name,
		pattern: pattern,
		fn:      fn,
	}
}

// Name returns the command tag.
func (e *Event) Name() string { return e.name }

// Pattern returns the time pattern.
func (e *Event) Pattern() Pattern { return e.pattern }

// Dispatch runs the command if the pattern matches t.
func (e *Event) Dispatch(ctx context.Context, t time.Time) bool {
	if !e.pattern.Matches(t) {
		return false
	}
	e.fn(ctx)
	return true
}

// Task is a one-shot entry. It fires at most once, after which it
// becomes inert and is eligible for removal by the registry sweep.
type Task struct {
	name    string
	pattern Pattern
	fn      Func
	fired   atomic.Bool
}

// NewTask creates a one-shot entry with the given command tag, pattern
// and command.
func NewTask(name string, pattern Pattern, fn Func) *Task {
	return &Task{
		name:    name,
		pattern: pattern,
		fn:      fn,
	}
}

// Name returns the command tag.
func (t *Task) Name() string { return t.name }

// Pattern returns the time pattern.
func (t *Task) Pattern() Pattern { return t.pattern }

// Fired reports whether the task has already run.
func (t *Task) Fired() bool { return t.fired.Load() }

// Dispatch runs the command if the pattern matches at and the task has
// not fired before. The fired flag is set before the command is invoked,
// so even a panicking command never runs twice.
func (t *Task) Dispatch(ctx context.Context, at time.Time) bool {
	if !t.pattern.Matches(at) {
		return false
	}
	if !t.fired.CompareAndSwap(false, true) {
		return false
	}
	t.fn(ctx)
	return true
}
