package automation

import "errors"

// ErrUnknownAction is returned when a configured rule names an action
// tag that does not exist. This is a configuration fault and fatal at
// startup.
var ErrUnknownAction = errors.New("automation: unknown action")
