// Package automation binds configured rules to lighting commands.
//
// A rule pairs a cron-style pattern with an action tag: lights.on,
// lights.off, lights.show, or lights.random. The Builder turns the
// rules from config.yaml into schedule entries at startup.
//
// The lights.random action simulates presence by toggling random
// channels. It is guarded by a configured local-time window, checked
// against the actual clock when the command runs rather than the
// minute it was scheduled for, so delayed dispatches never toggle
// lights at 4am.
//
// SolarRefresh maintains the "lights on at sunset" one-shot, re-derived
// a few times a day because sunset drifts.
package automation
