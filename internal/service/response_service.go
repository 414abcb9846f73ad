package service

import "time"

// LogFilter supports history filtering by time range, type and device.
type LogFilter struct {
	From     time.Time // inclusive; zero means no lower bound
	To       time.Time // inclusive; zero means no upper bound
	Type     string    // "", "STATE_CHANGED", "TOGGLE", "POLL_FAILED"
	DeviceID int       // 0 means all devices
	Limit    int       // 0 means no limit
}

// HealthReport is the /health payload.
type HealthReport struct {
	Status         string    `json:"status"`
	Upstream       string    `json:"upstream"`
	UpstreamError  string    `json:"upstream_error,omitempty"`
	DashboardState string    `json:"dashboard_state"`
	Clients        int       `json:"clients"`
	MemUsedPercent float64   `json:"mem_used_percent"`
	CPUPercent     float64   `json:"cpu_percent"`
	CheckedAt      time.Time `json:"checked_at"`
}
