// Package launcher defines the capability contract shared by every launch
// mechanism, and the registry that selects one for a descriptor.
//
// Heterogeneous mechanisms (spawning an OS process, creating an in-process
// editor session, opening a URL) cannot share an implementation, but callers
// need one mental model: a Launcher owns one category of "how to run a thing"
// and its own instance map. Selection is a runtime predicate plus a priority
// sort, not a hierarchy.
//
// Key Components:
//   - Launcher: the capability interface implemented per category
//   - Registry: priority-ordered launcher selection
//   - Emitter: launcher-local lifecycle events (snapshot payloads)
//   - Matches: the shared CanLaunch heuristic
package launcher
