package types

import "time"

// EventKind names a coordinator-wide lifecycle event.
type EventKind string

const (
	EventInstanceStarted      EventKind = "instance.started"
	EventInstanceStopped      EventKind = "instance.stopped"
	EventInstanceStateChanged EventKind = "instance.state_changed"
	EventInstanceActivated    EventKind = "instance.activated"
)

// Event is the payload delivered to lifecycle observers. Instance is always
// a snapshot, never a live registry entry.
type Event struct {
	ID        string              `json:"id"`
	Kind      EventKind           `json:"kind"`
	Instance  ApplicationInstance `json:"instance"`
	Timestamp time.Time           `json:"timestamp"`
}
