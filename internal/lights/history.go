package lights

import "time"

// SwitchRecord is one persisted switch command.
type SwitchRecord struct {
	ID        int64     `json:"id"`
	Channel   string    `json:"channel"`
	State     string    `json:"state"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}
