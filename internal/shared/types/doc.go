// Package types defines the shared data model for the launcher core.
//
// The two central types are ApplicationDescriptor (the static definition of
// something launchable, owned by configuration and read-only here) and
// ApplicationInstance (one running occurrence, tracked by a unique id).
// Instances move through a small state machine:
//
//	Launching -> Running -> {Active, Inactive} -> Terminated
//	Launching -> Failed
//
// Active and Inactive are sub-states of Running; a terminated instance never
// transitions again. Every event payload carries a snapshot copy of the
// instance, never a live reference.
package types
