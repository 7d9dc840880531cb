// Package influxdb provides time-series telemetry for Lumen Core.
//
// It wraps the official InfluxDB v2 Go client with non-blocking batched
// writes, connection health checks, and graceful shutdown.
//
// # Measurements
//
//	channel_state   Relay transitions, tagged by channel and source
//	dispatch        Schedule entries firing, tagged by entry name
//	solar_times     Fetched sunrise/sunset per date
//
// Telemetry is strictly best-effort: when InfluxDB is disabled in config
// or unreachable, writes are silently dropped and the controller keeps
// running.
package influxdb
