// Package coordinator orchestrates launch, switch, and terminate operations
// across every registered launcher, and owns the instance registry.
//
// The coordinator is the only component allowed to mutate the registry, and
// the single fan-in/fan-out point for lifecycle events: it subscribes once to
// every launcher's local events, filters out insignificant state ticks, and
// republishes the rest as coordinator-wide events for observers (the
// switcher, status badges, the WebSocket stream).
//
// Concurrency model: registry mutations are serialized behind one mutex;
// launches of the same descriptor are additionally serialized through a
// per-descriptor lock, so the find-existing check and the register step act
// as one unit and concurrent first launches cannot produce two instances.
package coordinator
