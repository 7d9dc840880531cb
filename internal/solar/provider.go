package solar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is the public sunrise-sunset API endpoint.
	DefaultBaseURL = "https://api.sunrise-sunset.org/json"

	// requestTimeout bounds a single lookup request.
	requestTimeout = 10 * time.Second

	// dateFormat is the wire format for cache keys and the API date parameter.
	dateFormat = "2006-01-02"
)

// Config contains solar provider settings.
type Config struct {
	// BaseURL is the lookup endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// Latitude and Longitude identify the site.
	Latitude  float64
	Longitude float64

	// Location is the site's timezone; fetched times are converted into it.
	Location *time.Location
}

// Snapshot holds the solar times for one date, in the site's timezone.
type Snapshot struct {
	Date    string
	Sunrise time.Time
	Sunset  time.Time

	// DayLength is the service's day_length value passed through
	// unmodified; the engine never interprets it.
	DayLength string
}

// Provider fetches and caches sunrise/sunset times per date.
//
// At most one fetch per date ever happens: the provider holds its lock
// across the network call, so concurrent callers for the same date
// block and then share the cached result. Failed lookups cache nothing;
// the next call retries.
//
// The cache is bounded to the current and previous day. Entries for
// older dates are evicted whenever a new date is cached, so a
// long-running process never accumulates per-date snapshots.
type Provider struct {
	baseURL string
	lat     float64
	lon     float64
	loc     *time.Location
	client  *http.Client

	mu    sync.Mutex
	cache map[string]Snapshot

	// now is replaceable in tests.
	now func() time.Time
}

// NewProvider creates a provider for the given site.
func NewProvider(cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Provider{
		baseURL: baseURL,
		lat:     cfg.Latitude,
		lon:     cfg.Longitude,
		loc:     loc,
		client:  &http.Client{Timeout: requestTimeout},
		cache:   make(map[string]Snapshot),
		now:     time.Now,
	}
}

// Today returns the solar times for the current date at the site.
// The result is cached; only the first call per date hits the network.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - Snapshot: Solar times in the site's timezone
//   - error: Wrapped ErrLookup if the fetch fails; nothing is cached
func (p *Provider) Today(ctx context.Context) (Snapshot, error) {
	return p.For(ctx, p.now().In(p.loc).Format(dateFormat))
}

// For returns the solar times for the given date (YYYY-MM-DD).
func (p *Provider) For(ctx context.Context, date string) (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if snap, ok := p.cache[date]; ok {
		return snap, nil
	}

	snap, err := p.fetch(ctx, date)
	if err != nil {
		return Snapshot{}, err
	}

	p.cache[date] = snap
	p.evictLocked()
	return snap, nil
}

// CacheSize returns the number of cached dates.
func (p *Provider) CacheSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cache)
}

// evictLocked drops every cached date except today and yesterday.
// Yesterday is kept so commands still running across midnight see
// consistent times. Caller must hold p.mu.
func (p *Provider) evictLocked() {
	now := p.now().In(p.loc)
	today := now.Format(dateFormat)
	yesterday := now.AddDate(0, 0, -1).Format(dateFormat)
	for date := range p.cache {
		if date != today && date != yesterday {
			delete(p.cache, date)
		}
	}
}

// fetch performs the network lookup for one date.
func (p *Provider) fetch(ctx context.Context, date string) (Snapshot, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(p.lat, 'f', -1, 64))
	query.Set("lng", strconv.FormatFloat(p.lon, 'f', -1, 64))
	query.Set("formatted", "0")
	query.Set("date", date)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: building request: %w", ErrLookup, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrLookup, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Snapshot{}, fmt.Errorf("%w: unexpected status %d", ErrLookup, resp.StatusCode)
	}

	var body struct {
		Status  string `json:"status"`
		Results struct {
			Sunrise   string          `json:"sunrise"`
			Sunset    string          `json:"sunset"`
			DayLength json.RawMessage `json:"day_length"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decoding response: %w", ErrLookup, err)
	}
	if body.Status != "OK" {
		return Snapshot{}, fmt.Errorf("%w: api status %q", ErrLookup, body.Status)
	}

	sunrise, err := time.Parse(time.RFC3339, body.Results.Sunrise)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: parsing sunrise: %w", ErrLookup, err)
	}
	sunset, err := time.Parse(time.RFC3339, body.Results.Sunset)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: parsing sunset: %w", ErrLookup, err)
	}

	return Snapshot{
		Date:      date,
		Sunrise:   sunrise.In(p.loc),
		Sunset:    sunset.In(p.loc),
		DayLength: strings.Trim(string(body.Results.DayLength), `"`),
	}, nil
}
