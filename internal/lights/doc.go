// Package lights switches the relay channels behind the house lighting.
//
// The Controller publishes commands to lumen/command/gpio/{channel} and
// tracks the actuator's state reports from lumen/state/gpio/+. Commands
// are paced a few milliseconds apart so bursts (all-off at midnight,
// the light show) don't flood the actuator.
//
// Switch commands are recorded to SQLite for history queries, and
// telemetry hooks report transitions to InfluxDB. Both are best-effort:
// a failing recorder never blocks a switch.
package lights
