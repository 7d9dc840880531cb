package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteChannelState records a channel switching to on or off.
//
// This is the primary telemetry method for the lighting controller.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - channel: The relay channel name (e.g., "porch")
//   - on: Whether the channel was switched on
//   - source: What caused the switch (e.g., "schedule", "api", "show")
//
// Example:
//
//	client.WriteChannelState("porch", true, "schedule")
func (c *Client) WriteChannelState(channel string, on bool, source string) {
	if !c.IsConnected() {
		return
	}

	state := 0
	if on {
		state = 1
	}

	point := write.NewPoint(
		"channel_state",
		map[string]string{
			"channel": channel,
			"source":  source,
		},
		map[string]interface{}{
			"state": state,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDispatch records a schedule entry firing.
//
// Parameters:
//   - entry: The entry name (e.g., "lights.off")
//   - pattern: The entry's time pattern string
//   - firedAt: The minute boundary the entry fired on
func (c *Client) WriteDispatch(entry string, pattern string, firedAt time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"dispatch",
		map[string]string{
			"entry": entry,
		},
		map[string]interface{}{
			"pattern":  pattern,
			"fired_at": firedAt.Format(time.RFC3339),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSolarTimes records the solar times fetched for a date.
//
// Parameters:
//   - date: The date the times apply to (YYYY-MM-DD)
//   - sunrise, sunset: Local sunrise and sunset times
func (c *Client) WriteSolarTimes(date string, sunrise, sunset time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"solar_times",
		map[string]string{
			"date": date,
		},
		map[string]interface{}{
			"sunrise": sunrise.Format(time.RFC3339),
			"sunset":  sunset.Format(time.RFC3339),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
