package observability

import (
	"sync"
	"time"
)

type Role string

const (
	RoleIdle      Role = "IDLE"
	RoleUpdating  Role = "UPDATING"
	RoleNotifying Role = "NOTIFYING"
)

type SystemStatus struct {
	mu            sync.RWMutex
	CurrentRole   Role
	ActiveTask    string
	LastHeartbeat time.Time
	Succeeded     int
	Failed        int
}

// Snapshot is a copy of the status safe to hand out.
type Snapshot struct {
	Role          Role      `json:"role"`
	ActiveTask    string    `json:"active_task,omitempty"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	Uptime        string    `json:"uptime"`
	Succeeded     int       `json:"updates_succeeded"`
	Failed        int       `json:"updates_failed"`
}

var globalStatus = &SystemStatus{
	CurrentRole:   RoleIdle,
	LastHeartbeat: time.Now(),
}

// SetStatus updates the global system status.
func SetStatus(role Role, task string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.CurrentRole = role
	globalStatus.ActiveTask = task
}

// GetStatus retrieves a copy of the global system status.
func GetStatus() (Role, string, time.Time) {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return globalStatus.CurrentRole, globalStatus.ActiveTask, globalStatus.LastHeartbeat
}

func GetSnapshot() Snapshot {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return Snapshot{
		Role:          globalStatus.CurrentRole,
		ActiveTask:    globalStatus.ActiveTask,
		LastHeartbeat: globalStatus.LastHeartbeat,
		Uptime:        time.Since(startTime).Round(time.Second).String(),
		Succeeded:     globalStatus.Succeeded,
		Failed:        globalStatus.Failed,
	}
}

// Heartbeat updates the last heartbeat time.
func Heartbeat() {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.LastHeartbeat = time.Now()
}

// RecordUpdate counts a finished workbook update.
func RecordUpdate(success bool) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	if success {
		globalStatus.Succeeded++
	} else {
		globalStatus.Failed++
	}
}
