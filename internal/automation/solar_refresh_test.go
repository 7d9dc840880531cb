package automation

import (
	"context"
	"testing"
	"time"

	"github.com/lumen-home/lumen-core/internal/schedule"
	"github.com/lumen-home/lumen-core/internal/solar"
)

// stubProvider yields a fixed snapshot or error.
type stubProvider struct {
	snap  solar.Snapshot
	err   error
	calls int
}

func (s *stubProvider) Today(ctx context.Context) (solar.Snapshot, error) {
	s.calls++
	if s.err != nil {
		return solar.Snapshot{}, s.err
	}
	return s.snap, nil
}

func newRefresh(t *testing.T, provider SolarProvider) (*SolarRefresh, *schedule.Registry) {
	t.Helper()
	registry := schedule.NewRegistry()
	sr := NewSolarRefresh(provider, registry, &fakeController{}, nil, time.UTC)
	sr.now = func() time.Time {
		return time.Date(2026, 8, 26, 14, 0, 0, 0, time.UTC)
	}
	return sr, registry
}

func TestSolarRefresh_RegistersSunsetOneShot(t *testing.T) {
	provider := &stubProvider{
		snap: solar.Snapshot{
			Date:   "2026-08-26",
			Sunset: time.Date(2026, 8, 26, 19, 42, 11, 0, time.UTC),
		},
	}
	sr, registry := newRefresh(t, provider)

	sr.Refresh(context.Background())

	dump := registry.Dump()
	if len(dump) != 1 {
		t.Fatalf("registry has %d entries, want 1", len(dump))
	}
	if dump[0].Name != sunsetEntryName || dump[0].Kind != "task" {
		t.Errorf("unexpected entry: %+v", dump[0])
	}
	if dump[0].Pattern != "{42} {19} {*} {*} {*}" {
		t.Errorf("pattern = %q", dump[0].Pattern)
	}
}

func TestSolarRefresh_RepeatIsNoOp(t *testing.T) {
	provider := &stubProvider{
		snap: solar.Snapshot{
			Date:   "2026-08-26",
			Sunset: time.Date(2026, 8, 26, 19, 42, 0, 0, time.UTC),
		},
	}
	sr, registry := newRefresh(t, provider)

	sr.Refresh(context.Background())
	sr.Refresh(context.Background())

	if registry.Len() != 1 {
		t.Errorf("registry has %d entries after repeat refresh, want 1", registry.Len())
	}
}

func TestSolarRefresh_LookupFailureRegistersNothing(t *testing.T) {
	provider := &stubProvider{err: solar.ErrLookup}
	sr, registry := newRefresh(t, provider)

	sr.Refresh(context.Background())

	if registry.Len() != 0 {
		t.Errorf("registry has %d entries after failed lookup, want 0", registry.Len())
	}

	// Recovery: a later refresh with a working provider registers.
	provider.err = nil
	provider.snap = solar.Snapshot{
		Date:   "2026-08-26",
		Sunset: time.Date(2026, 8, 26, 19, 42, 0, 0, time.UTC),
	}
	sr.Refresh(context.Background())
	if registry.Len() != 1 {
		t.Errorf("registry has %d entries after recovery, want 1", registry.Len())
	}
}

// recordingSolarSink captures SolarTimes calls.
type recordingSolarSink struct {
	calls   int
	date    string
	sunrise time.Time
	sunset  time.Time
}

func (r *recordingSolarSink) SolarTimes(date string, sunrise, sunset time.Time) {
	r.calls++
	r.date = date
	r.sunrise = sunrise
	r.sunset = sunset
}

func TestSolarRefresh_RecordsFetchedTimes(t *testing.T) {
	sunrise := time.Date(2026, 8, 26, 6, 5, 0, 0, time.UTC)
	sunset := time.Date(2026, 8, 26, 19, 42, 0, 0, time.UTC)
	provider := &stubProvider{
		snap: solar.Snapshot{
			Date:    "2026-08-26",
			Sunrise: sunrise,
			Sunset:  sunset,
		},
	}
	sr, _ := newRefresh(t, provider)

	sink := &recordingSolarSink{}
	sr.SetRecorder(sink)

	sr.Refresh(context.Background())

	if sink.calls != 1 {
		t.Fatalf("recorder called %d times, want 1", sink.calls)
	}
	if sink.date != "2026-08-26" {
		t.Errorf("date = %q, want %q", sink.date, "2026-08-26")
	}
	if !sink.sunrise.Equal(sunrise) || !sink.sunset.Equal(sunset) {
		t.Errorf("recorded times = %v/%v, want %v/%v",
			sink.sunrise, sink.sunset, sunrise, sunset)
	}
}

func TestSolarRefresh_NoRecordOnLookupFailure(t *testing.T) {
	provider := &stubProvider{err: solar.ErrLookup}
	sr, _ := newRefresh(t, provider)

	sink := &recordingSolarSink{}
	sr.SetRecorder(sink)

	sr.Refresh(context.Background())

	if sink.calls != 0 {
		t.Errorf("recorder called %d times after failed lookup, want 0", sink.calls)
	}
}

func TestSolarRefresh_SkipsPastSunset(t *testing.T) {
	provider := &stubProvider{
		snap: solar.Snapshot{
			Date:   "2026-08-26",
			Sunset: time.Date(2026, 8, 26, 19, 42, 0, 0, time.UTC),
		},
	}
	sr, registry := newRefresh(t, provider)
	sr.now = func() time.Time {
		return time.Date(2026, 8, 26, 20, 0, 0, 0, time.UTC)
	}

	sr.Refresh(context.Background())

	if registry.Len() != 0 {
		t.Errorf("registry has %d entries for past sunset, want 0", registry.Len())
	}
}

func TestSolarRefresh_Entry(t *testing.T) {
	provider := &stubProvider{
		snap: solar.Snapshot{
			Date:   "2026-08-26",
			Sunset: time.Date(2026, 8, 26, 19, 42, 0, 0, time.UTC),
		},
	}
	sr, registry := newRefresh(t, provider)

	entry := sr.Entry([]int{2, 8, 14, 20})
	if entry.Name() != ActionSolarRefresh {
		t.Errorf("Name() = %q, want %q", entry.Name(), ActionSolarRefresh)
	}

	// Fires at minute 0 of a refresh hour.
	at := time.Date(2026, 8, 26, 14, 0, 0, 0, time.UTC)
	if !entry.Dispatch(context.Background(), at) {
		t.Fatal("expected dispatch at 14:00")
	}
	if entry.Dispatch(context.Background(), at.Add(time.Minute)) {
		t.Error("unexpected dispatch at 14:01")
	}

	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
	if registry.Len() != 1 {
		t.Errorf("registry has %d entries, want 1", registry.Len())
	}
}
