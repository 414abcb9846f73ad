package models

import "time"

// Device is a controllable switch exposed by the backend.
type Device struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	State bool   `json:"state"`
}

// Event sources feeding device state.
const (
	SourcePoll   = "poll"
	SourcePush   = "push"
	SourceMQTT   = "mqtt"
	SourceToggle = "toggle"
	SourceCache  = "cache"
)

// SwitchEvent is a sparse state change: only the new state of one device.
type SwitchEvent struct {
	ID         int       `json:"id"`
	NewState   bool      `json:"new_state"`
	Source     string    `json:"-"`
	ReceivedAt time.Time `json:"-"`
}

// Device event journal types.
const (
	EventStateChanged = "STATE_CHANGED"
	EventToggle       = "TOGGLE"
	EventPollFailed   = "POLL_FAILED"
)

// DeviceEvent is a single journal entry of device activity.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"` // STATE_CHANGED | TOGGLE | POLL_FAILED
	DeviceID    int       `json:"device_id,omitempty"`
	State       *bool     `json:"state,omitempty"`
	Source      string    `json:"source,omitempty"`
	Description string    `json:"description"`
}
