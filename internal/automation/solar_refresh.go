package automation

import (
	"context"
	"time"

	"github.com/lumen-home/lumen-core/internal/lights"
	"github.com/lumen-home/lumen-core/internal/schedule"
	"github.com/lumen-home/lumen-core/internal/solar"
)

// Command tags for the solar machinery.
const (
	// ActionSolarRefresh re-derives the sunset one-shot.
	ActionSolarRefresh = "solar.refresh"

	// sunsetEntryName tags the one-shot that switches lights on at sunset.
	// Distinct from ActionOn so it never collides with configured rules.
	sunsetEntryName = "lights.on.sunset"
)

// SolarProvider yields today's solar times. Satisfied by *solar.Provider.
type SolarProvider interface {
	Today(ctx context.Context) (solar.Snapshot, error)
}

// SolarRecorder receives successfully fetched solar times, for telemetry.
type SolarRecorder interface {
	SolarTimes(date string, sunrise, sunset time.Time)
}

// SolarRefresh keeps a one-shot "lights on at sunset" entry registered.
//
// Sunset drifts daily, so the entry cannot be a fixed rule. Instead a
// recurring refresh runs a few times a day: it fetches today's sunset
// and registers a one-shot task for that minute. Re-registering the
// same sunset is a registry-level no-op, and fired tasks are swept by
// the scheduler, so the refresh is safe to run repeatedly.
//
// A failed lookup is recoverable: it is logged and skipped, and the
// next refresh hour retries.
type SolarRefresh struct {
	provider   SolarProvider
	registry   *schedule.Registry
	controller Controller
	channels   []string
	logger     Logger
	recorder   SolarRecorder
	loc        *time.Location

	// now is replaceable in tests.
	now func() time.Time
}

// NewSolarRefresh creates the sunset refresh machinery.
//
// Parameters:
//   - provider: Solar times source
//   - registry: Registry the sunset one-shot is registered into
//   - controller: Lights controller the one-shot switches
//   - channels: Channels switched on at sunset (empty means all)
//   - loc: The site's timezone
func NewSolarRefresh(provider SolarProvider, registry *schedule.Registry, controller Controller, channels []string, loc *time.Location) *SolarRefresh {
	if loc == nil {
		loc = time.UTC
	}
	return &SolarRefresh{
		provider:   provider,
		registry:   registry,
		controller: controller,
		channels:   channels,
		logger:     noopLogger{},
		loc:        loc,
		now:        time.Now,
	}
}

// SetLogger sets the logger for refresh diagnostics.
func (s *SolarRefresh) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetRecorder sets an optional telemetry sink for fetched solar times.
func (s *SolarRefresh) SetRecorder(recorder SolarRecorder) {
	s.recorder = recorder
}

// Entry returns the recurring refresh entry, firing at minute 0 of the
// given local hours.
func (s *SolarRefresh) Entry(hours []int) schedule.Entry {
	pattern := schedule.Pattern{
		Minute: schedule.On(0),
		Hour:   schedule.On(hours...),
	}
	return schedule.NewEvent(ActionSolarRefresh, pattern, func(ctx context.Context) {
		s.Refresh(ctx)
	})
}

// Refresh fetches today's sunset and registers the one-shot for it.
// Called by the recurring entry and once at startup.
func (s *SolarRefresh) Refresh(ctx context.Context) {
	snap, err := s.provider.Today(ctx)
	if err != nil {
		s.logger.Warn("sunset lookup failed, retrying at next refresh", "error", err)
		return
	}

	if s.recorder != nil {
		s.recorder.SolarTimes(snap.Date, snap.Sunrise, snap.Sunset)
	}

	sunset := snap.Sunset.In(s.loc)

	// Past sunset there is nothing left to schedule today; registering
	// would fire at today's sunset minute tomorrow, on stale times.
	now := s.now().In(s.loc)
	if !now.Before(sunset.Truncate(time.Minute)) {
		s.logger.Debug("sunset already passed, skipping registration",
			"sunset", sunset.Format("15:04"),
		)
		return
	}

	channels := s.channels
	task := schedule.NewTask(
		sunsetEntryName,
		schedule.Daily(sunset.Hour(), sunset.Minute()),
		func(ctx context.Context) {
			if err := s.controller.On(ctx, lights.SourceSchedule, channels...); err != nil {
				s.logger.Error("sunset switch-on failed", "error", err)
			}
		},
	)

	if s.registry.Append(task) {
		s.logger.Info("sunset one-shot registered",
			"date", snap.Date,
			"sunset", sunset.Format("15:04"),
		)
	}
}
