package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/lumen-home/lumen-core/internal/infrastructure/config"
	"github.com/lumen-home/lumen-core/internal/lights"
	"github.com/lumen-home/lumen-core/internal/schedule"
)

// Command tags for schedule entries. The tag plus the pattern is the
// entry's identity in the registry.
const (
	ActionOn     = "lights.on"
	ActionOff    = "lights.off"
	ActionShow   = "lights.show"
	ActionRandom = "lights.random"
)

// Presence-simulation parameters for the lights.random action.
const (
	randomToggleCount = 25
	randomToggleDelay = 150 * time.Millisecond
)

// Controller is the subset of the lights controller the automation
// rules need.
type Controller interface {
	On(ctx context.Context, source string, channels ...string) error
	Off(ctx context.Context, source string, channels ...string) error
	Random(ctx context.Context, source string, count int, delay time.Duration) error
	Channels() []string
}

// Logger is the narrow logging interface the automation package needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Window is a local-time window bounded by whole hours. A window whose
// start is after its end spans midnight; an equal start and end is empty.
type Window struct {
	StartHour int
	EndHour   int
}

// Contains reports whether t's local hour falls inside the window.
func (w Window) Contains(t time.Time) bool {
	hour := t.Hour()
	switch {
	case w.StartHour < w.EndHour:
		return hour >= w.StartHour && hour < w.EndHour
	case w.StartHour > w.EndHour:
		return hour >= w.StartHour || hour < w.EndHour
	default:
		return false
	}
}

// Builder turns configured rules into schedule entries.
type Builder struct {
	controller Controller
	logger     Logger
	window     Window
	loc        *time.Location

	// now is replaceable in tests. The random guard always consults the
	// actual current time, never the minute the entry was scheduled for.
	now func() time.Time
}

// NewBuilder creates a rule builder.
//
// Parameters:
//   - controller: The lights controller commands act on
//   - window: Local-time window for the lights.random action
//   - loc: The site's timezone
func NewBuilder(controller Controller, window Window, loc *time.Location) *Builder {
	if loc == nil {
		loc = time.UTC
	}
	return &Builder{
		controller: controller,
		logger:     noopLogger{},
		window:     window,
		loc:        loc,
		now:        time.Now,
	}
}

// SetLogger sets the logger for rule diagnostics.
func (b *Builder) SetLogger(logger Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// Build converts configured rules into registry entries, in order.
//
// Returns:
//   - []schedule.Entry: One recurring entry per rule
//   - error: Wrapped ErrUnknownAction if a rule names an action that
//     does not exist
func (b *Builder) Build(rules []config.RuleConfig) ([]schedule.Entry, error) {
	entries := make([]schedule.Entry, 0, len(rules))
	for _, rule := range rules {
		entry, err := b.build(rule)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (b *Builder) build(rule config.RuleConfig) (schedule.Entry, error) {
	fn, err := b.command(rule)
	if err != nil {
		return nil, err
	}

	name := rule.Name
	if name == "" {
		name = rule.Action
	}

	pattern := schedule.Pattern{
		Minute:  fieldFrom(rule.Minute),
		Hour:    fieldFrom(rule.Hour),
		Day:     fieldFrom(rule.Day),
		Month:   fieldFrom(rule.Month),
		Weekday: fieldFrom(rule.Weekday),
	}

	return schedule.NewEvent(name, pattern, fn), nil
}

// command binds a rule's action tag to the controller call it performs.
func (b *Builder) command(rule config.RuleConfig) (schedule.Func, error) {
	channels := rule.Channels

	switch rule.Action {
	case ActionOn:
		return func(ctx context.Context) {
			if err := b.controller.On(ctx, lights.SourceSchedule, channels...); err != nil {
				b.logger.Error("rule failed", "action", ActionOn, "error", err)
			}
		}, nil

	case ActionOff:
		return func(ctx context.Context) {
			if err := b.controller.Off(ctx, lights.SourceSchedule, channels...); err != nil {
				b.logger.Error("rule failed", "action", ActionOff, "error", err)
			}
		}, nil

	case ActionShow:
		return func(ctx context.Context) {
			if err := RunShow(ctx, b.controller, channels...); err != nil {
				b.logger.Error("rule failed", "action", ActionShow, "error", err)
			}
		}, nil

	case ActionRandom:
		return func(ctx context.Context) {
			// Guard against dispatch delays: the window is checked against
			// the actual clock at run time, not the scheduled minute.
			now := b.now().In(b.loc)
			if !b.window.Contains(now) {
				b.logger.Debug("random action outside window",
					"hour", now.Hour(),
					"window_start", b.window.StartHour,
					"window_end", b.window.EndHour,
				)
				return
			}
			if err := b.controller.Random(ctx, lights.SourceRandom, randomToggleCount, randomToggleDelay); err != nil {
				b.logger.Error("rule failed", "action", ActionRandom, "error", err)
			}
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, rule.Action)
	}
}

// fieldFrom converts a YAML field spec into a schedule field.
func fieldFrom(spec config.FieldSpec) schedule.Field {
	if spec.IsWildcard() {
		return schedule.Any()
	}
	return schedule.On(spec.Values...)
}
