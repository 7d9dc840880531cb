// Package solar fetches sunrise and sunset times for the configured
// site from the sunrise-sunset.org API.
//
// Results are cached per date so the upstream service is hit at most
// once per day; the cache is bounded to the current and previous day.
// Lookup failures are recoverable: they cache nothing and surface as
// ErrLookup, and the next caller retries.
package solar
