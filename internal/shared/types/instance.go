package types

import "time"

// State represents instance lifecycle states.
type State string

const (
	StateLaunching  State = "launching"
	StateRunning    State = "running"
	StateActive     State = "active"
	StateInactive   State = "inactive"
	StateTerminated State = "terminated"
	StateFailed     State = "failed"
)

// IsRunning reports whether the state is Running or one of its
// Active/Inactive sub-states.
func (s State) IsRunning() bool {
	return s == StateRunning || s == StateActive || s == StateInactive
}

// IsTerminal reports whether the instance can never transition again.
func (s State) IsTerminal() bool {
	return s == StateTerminated || s == StateFailed
}

// Handle is the platform-opaque reference to whatever the launch mechanism
// produced: an OS process, an in-process window, or a subsystem-side id.
// Exactly one field is meaningful per category; the coordinator never
// interprets it.
type Handle struct {
	PID    int32  `json:"pid,omitempty"`
	Window string `json:"window,omitempty"`
}

// ApplicationInstance is one running occurrence of a descriptor.
// Created by a launcher at successful launch; mutated only by the
// coordinator in response to launcher events.
type ApplicationInstance struct {
	ID          string                `json:"id"` // <category>_<appID>_<random>
	Descriptor  ApplicationDescriptor `json:"descriptor"`
	Handle      Handle                `json:"handle"`
	State       State                 `json:"state"`
	IsActive    bool                  `json:"is_active"`
	LaunchedBy  string                `json:"launched_by"`
	StartedAt   time.Time             `json:"started_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	ActivatedAt time.Time             `json:"activated_at,omitempty"`
	LaunchTime  time.Duration         `json:"launch_time_ns"` // wall-clock launch duration
}

// Snapshot returns a value copy safe to hand to observers.
func (i *ApplicationInstance) Snapshot() ApplicationInstance {
	return *i
}

// Stats summarizes the instance registry for health and badge surfaces.
type Stats struct {
	TotalInstances int            `json:"total_instances"`
	ActiveInstance string         `json:"active_instance,omitempty"`
	ByCategory     map[string]int `json:"by_category"`
}
