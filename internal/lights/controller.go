package lights

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lumen-home/lumen-core/internal/infrastructure/mqtt"
)

// State is the reported condition of a relay channel.
type State string

// Channel states.
const (
	StateOn      State = "on"
	StateOff     State = "off"
	StateUnknown State = "unknown"
)

// Switching sources, recorded with every command for history and telemetry.
const (
	SourceSchedule = "schedule"
	SourceAPI      = "api"
	SourceShow     = "show"
	SourceRandom   = "random"
	SourceStartup  = "startup"
)

// defaultPace is the gap between consecutive channel commands, so a
// burst of relay switching doesn't slam the actuator's command queue.
const defaultPace = 10 * time.Millisecond

// Publisher sends command payloads to the actuator. Satisfied by
// *mqtt.Client.
type Publisher interface {
	PublishCommand(topic string, payload []byte) error
}

// HistoryRecorder persists switch commands. Satisfied by
// *SQLiteHistoryRepository.
type HistoryRecorder interface {
	RecordSwitch(ctx context.Context, channel, state, source string) error
}

// MetricsRecorder receives switching telemetry. Satisfied by the
// influxdb adapter in main.
type MetricsRecorder interface {
	ChannelSwitched(channel string, on bool, source string)
}

// Logger is the narrow logging interface the lights package needs.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// command is the JSON payload published to lumen/command/gpio/{channel}.
type command struct {
	ID     string `json:"id"`
	State  State  `json:"state"`
	Source string `json:"source"`
	TS     string `json:"ts"`
}

// stateReport is the JSON payload the actuator publishes on
// lumen/state/gpio/{channel}.
type stateReport struct {
	State State `json:"state"`
}

// Controller switches the configured relay channels over MQTT and
// tracks their last reported state.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Scheduled commands,
//     API calls and MQTT state reports all arrive on different
//     goroutines.
type Controller struct {
	publisher Publisher
	channels  []string
	known     map[string]struct{}
	pace      time.Duration
	logger    Logger

	history HistoryRecorder
	metrics MetricsRecorder

	// onState, if set, is called after each state report is applied.
	onState func(channel string, state State)

	mu     sync.RWMutex
	states map[string]State
}

// NewController creates a controller for the given channels.
//
// Parameters:
//   - publisher: Command transport (typically *mqtt.Client)
//   - channels: The configured relay channels, in display order
func NewController(publisher Publisher, channels []string) *Controller {
	known := make(map[string]struct{}, len(channels))
	states := make(map[string]State, len(channels))
	for _, ch := range channels {
		known[ch] = struct{}{}
		states[ch] = StateUnknown
	}
	return &Controller{
		publisher: publisher,
		channels:  append([]string(nil), channels...),
		known:     known,
		pace:      defaultPace,
		logger:    noopLogger{},
		states:    states,
	}
}

// SetLogger sets the logger for command diagnostics.
func (c *Controller) SetLogger(logger Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// SetHistory sets the switch-history recorder. Recording failures are
// logged, never propagated; persistence is best-effort.
func (c *Controller) SetHistory(history HistoryRecorder) {
	c.history = history
}

// SetMetrics sets the telemetry recorder.
func (c *Controller) SetMetrics(metrics MetricsRecorder) {
	c.metrics = metrics
}

// SetOnState sets a callback invoked after each applied state report.
func (c *Controller) SetOnState(fn func(channel string, state State)) {
	c.onState = fn
}

// SetPace overrides the gap between consecutive commands.
func (c *Controller) SetPace(pace time.Duration) {
	if pace >= 0 {
		c.pace = pace
	}
}

// Channels returns the configured channels in display order.
func (c *Controller) Channels() []string {
	return append([]string(nil), c.channels...)
}

// On switches channels on. With no channels given, all configured
// channels are switched. Unknown channel names are skipped with a
// warning. The first publish error is returned after all channels have
// been attempted.
func (c *Controller) On(ctx context.Context, source string, channels ...string) error {
	return c.switchTo(ctx, StateOn, source, channels)
}

// Off switches channels off. Semantics match On.
func (c *Controller) Off(ctx context.Context, source string, channels ...string) error {
	return c.switchTo(ctx, StateOff, source, channels)
}

func (c *Controller) switchTo(ctx context.Context, state State, source string, channels []string) error {
	targets := c.resolve(channels)
	if len(targets) == 0 {
		return ErrNoChannels
	}

	var firstErr error
	for i, channel := range targets {
		if i > 0 && c.pace > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.pace):
			}
		}

		if err := c.publish(ctx, channel, state, source); err != nil {
			c.logger.Error("channel command failed",
				"channel", channel,
				"state", string(state),
				"error", err,
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// publish sends one command and records it.
func (c *Controller) publish(ctx context.Context, channel string, state State, source string) error {
	payload, err := json.Marshal(command{
		ID:     uuid.New().String(),
		State:  state,
		Source: source,
		TS:     time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encoding command: %w", err)
	}

	topic := mqtt.Topics{}.ChannelCommand(channel)
	if err := c.publisher.PublishCommand(topic, payload); err != nil {
		return fmt.Errorf("publishing command: %w", err)
	}

	c.logger.Debug("channel command published",
		"channel", channel,
		"state", string(state),
		"source", source,
	)

	if c.history != nil {
		if err := c.history.RecordSwitch(ctx, channel, string(state), source); err != nil {
			c.logger.Warn("failed to record switch history",
				"channel", channel,
				"error", err,
			)
		}
	}
	if c.metrics != nil {
		c.metrics.ChannelSwitched(channel, state == StateOn, source)
	}
	return nil
}

// resolve maps requested channels to known ones, skipping unknown names.
// An empty request means every configured channel.
func (c *Controller) resolve(channels []string) []string {
	if len(channels) == 0 {
		return c.channels
	}
	out := make([]string, 0, len(channels))
	for _, ch := range channels {
		if _, ok := c.known[ch]; !ok {
			c.logger.Warn("unknown channel skipped", "channel", ch)
			continue
		}
		out = append(out, ch)
	}
	return out
}

// Status returns the last reported state of the requested channels.
// With no channels given, all configured channels are reported.
// Channels that have never reported are StateUnknown.
func (c *Controller) Status(channels ...string) map[string]State {
	targets := c.resolve(channels)

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]State, len(targets))
	for _, ch := range targets {
		state, ok := c.states[ch]
		if !ok {
			state = StateUnknown
		}
		out[ch] = state
	}
	return out
}

// Random toggles random channels count times with the given delay
// between toggles. Used for the presence-simulation schedule rule and
// as the middle act of the light show.
//
// The context is checked between toggles; cancellation stops the run
// early with ctx.Err().
func (c *Controller) Random(ctx context.Context, source string, count int, delay time.Duration) error {
	if len(c.channels) == 0 {
		return ErrNoChannels
	}

	for i := 0; i < count; i++ {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		channel := c.channels[rand.Intn(len(c.channels))]
		state := StateOff
		if rand.Intn(2) == 1 {
			state = StateOn
		}
		if err := c.publish(ctx, channel, state, source); err != nil {
			c.logger.Error("random toggle failed", "channel", channel, "error", err)
		}
	}
	return nil
}

// HandleState is the MQTT message handler for lumen/state/gpio/+.
// It accepts either a JSON body {"state":"on"} or a bare "on"/"off"
// payload, and ignores reports for unconfigured channels.
func (c *Controller) HandleState(topic string, payload []byte) error {
	channel, ok := mqtt.ChannelFromStateTopic(topic)
	if !ok {
		return fmt.Errorf("unrecognised state topic %q", topic)
	}
	if _, known := c.known[channel]; !known {
		c.logger.Debug("state report for unconfigured channel", "channel", channel)
		return nil
	}

	state := parseStatePayload(payload)
	if state == StateUnknown {
		return fmt.Errorf("unrecognised state payload on %q: %s", topic, payload)
	}

	c.mu.Lock()
	c.states[channel] = state
	c.mu.Unlock()

	if c.onState != nil {
		c.onState(channel, state)
	}
	return nil
}

func parseStatePayload(payload []byte) State {
	var report stateReport
	if err := json.Unmarshal(payload, &report); err == nil {
		if report.State == StateOn || report.State == StateOff {
			return report.State
		}
	}
	switch string(payload) {
	case "on":
		return StateOn
	case "off":
		return StateOff
	}
	return StateUnknown
}
