package lights

import "errors"

// Sentinel errors for lighting operations.
var (
	// ErrNoChannels is returned when a command resolves to zero channels,
	// either because none are configured or every requested name was unknown.
	ErrNoChannels = errors.New("lights: no channels to switch")
)
