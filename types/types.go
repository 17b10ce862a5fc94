package types

// ------------------------
// Service state (retained)
// ------------------------

// Level values published on <service>/state.
const (
	LevelIdle    = "idle"
	LevelRunning = "running"
	LevelStopped = "stopped"
	LevelFailed  = "failed"
)

type ServiceState struct {
	Level  string `json:"level"`            // one of the Level* constants
	Status string `json:"status,omitempty"` // short machine-readable code
	TSms   int64  `json:"ts_ms"`
}

// ------------------------
// Heartbeat
// ------------------------

type HeartbeatValue struct {
	UptimeMs int64  `json:"uptime_ms"`
	Beats    uint32 `json:"beats"`
	TSms     int64  `json:"ts_ms"`
}
