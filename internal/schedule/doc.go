// Package schedule implements the cron-style scheduling core of Lumen.
//
// # Model
//
// A Pattern is five Fields (minute, hour, day, month, weekday); each
// field is a wildcard or a finite set of values. An Entry pairs a
// command tag and a Pattern with the command to run. Event entries fire
// every time their pattern matches; Task entries fire at most once.
//
// Entries live in a Registry in insertion order. The Scheduler wakes
// just past each minute boundary, snapshots the registry, and
// dispatches every matching entry on its own goroutine. A separate,
// coarser sweep removes one-shot entries that have fired.
//
// # Identity
//
// Entry identity is the command tag plus the pattern. The command
// itself never participates: two entries created with the same tag and
// pattern but different captured arguments are considered duplicates,
// and the second Append is a no-op. Give such entries distinct tags.
//
// # Concurrency
//
// Dispatches are fire-and-forget. A command that blocks past its minute
// overlaps the next tick rather than delaying it; if the same entry
// matches again while a previous run is still writing shared state, the
// last write wins. Commands receive the scheduler's context and should
// honour cancellation, but the scheduler does not wait for them on
// shutdown.
package schedule
