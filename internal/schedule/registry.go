package schedule

import "sync"

// Logger is the narrow logging interface the schedule package needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is set.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// EntryInfo is a point-in-time description of a registered entry,
// used for the registry dump exposed over the API and on SIGHUP.
type EntryInfo struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
	Kind    string `json:"kind"`
	Fired   bool   `json:"fired"`
}

// Registry holds the set of registered entries in insertion order.
//
// Appending an entry that is already present (same name and equal
// pattern) is a no-op, as is removing one that is absent. Both cases
// are logged at debug level rather than treated as errors, so callers
// can register rules idempotently at startup.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	logger  Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for duplicate/missing diagnostics.
func (r *Registry) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if logger != nil {
		r.logger = logger
	}
}

// Append registers an entry, preserving insertion order.
// A duplicate of an existing entry is ignored and logged at debug level.
// Returns true if the entry was added.
func (r *Registry) Append(entry Entry) bool {
	if entry == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.entries {
		if Equal(existing, entry) {
			r.logger.Debug("registry: duplicate entry ignored",
				"name", entry.Name(),
				"pattern", entry.Pattern().String(),
			)
			return false
		}
	}

	r.entries = append(r.entries, entry)
	return true
}

// Remove unregisters the first entry with the same identity.
// Removing an absent entry is a no-op logged at debug level.
// Returns true if an entry was removed.
func (r *Registry) Remove(entry Entry) bool {
	if entry == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.entries {
		if Equal(existing, entry) {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}

	r.logger.Debug("registry: entry not found for removal",
		"name", entry.Name(),
		"pattern", entry.Pattern().String(),
	)
	return false
}

// Snapshot returns a copy of the current entries in insertion order.
// The scheduler evaluates against snapshots so concurrent mutation
// never affects an in-flight tick.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep removes one-shot entries that have already fired and returns
// how many were removed. Recurring entries are never swept.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.entries[:0]
	removed := 0
	for _, entry := range r.entries {
		if task, ok := entry.(*Task); ok && task.Fired() {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	// Clear trailing slots so swept entries can be collected.
	for i := len(kept); i < len(r.entries); i++ {
		r.entries[i] = nil
	}
	r.entries = kept
	return removed
}

// Dump returns a description of every registered entry, in order.
func (r *Registry) Dump() []EntryInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]EntryInfo, 0, len(r.entries))
	for _, entry := range r.entries {
		info := EntryInfo{
			Name:    entry.Name(),
			Pattern: entry.Pattern().String(),
			Kind:    "event",
		}
		if task, ok := entry.(*Task); ok {
			info.Kind = "task"
			info.Fired = task.Fired()
		}
		out = append(out, info)
	}
	return out
}
