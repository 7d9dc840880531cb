package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for the Lumen MQTT hierarchy.
//
// All channel topics use the flat scheme: lumen/{category}/gpio/{channel}
// This matches what the GPIO actuator daemon publishes and subscribes to.
const (
	// TopicPrefix is the base for all Lumen topics.
	TopicPrefix = "lumen"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "lumen/system"

	// gpioProtocol is the transport segment for relay channels.
	gpioProtocol = "gpio"
)

// Topics provides builders for Lumen MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	cmdTopic := topics.ChannelCommand("porch")
//	// Returns: "lumen/command/gpio/porch"
type Topics struct{}

// ChannelCommand returns the topic for switching commands to a channel.
//
// Example: lumen/command/gpio/porch
func (Topics) ChannelCommand(channel string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, gpioProtocol, channel)
}

// ChannelState returns the topic the actuator reports channel state on.
//
// Example: lumen/state/gpio/porch
func (Topics) ChannelState(channel string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, gpioProtocol, channel)
}

// AllChannelStates returns the wildcard subscription for every channel state.
//
// Example: lumen/state/gpio/+
func (Topics) AllChannelStates() string {
	return fmt.Sprintf("%s/state/%s/+", TopicPrefix, gpioProtocol)
}

// SystemStatus returns the topic for controller online/offline status.
// Used for both graceful status updates and the LWT.
//
// Example: lumen/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// ChannelFromStateTopic extracts the channel name from a state topic.
//
// Returns the channel and true on success, or "" and false if the topic
// does not match the lumen/state/gpio/{channel} scheme.
func ChannelFromStateTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 {
		return "", false
	}
	if parts[0] != TopicPrefix || parts[1] != "state" || parts[2] != gpioProtocol {
		return "", false
	}
	if parts[3] == "" {
		return "", false
	}
	return parts[3], true
}
