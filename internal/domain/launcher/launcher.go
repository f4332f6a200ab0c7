package launcher

import (
	"context"
	"regexp"
	"strings"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

// Capability describes what a launcher claims and how strongly.
// Higher priority wins when multiple launchers claim the same descriptor.
type Capability struct {
	Category types.Category `json:"category"`
	Priority int            `json:"priority"`
}

// Launcher is the capability contract one launch mechanism implements.
//
// Each launcher owns a private map of instance id to mechanism-specific
// handle; no other component reaches into it. Concurrent Launch calls for
// different descriptors must be safe; deduplicating concurrent launches of
// the same descriptor is the coordinator's job, not the launcher's.
type Launcher interface {
	// Capability returns the launcher's category and priority.
	Capability() Capability

	// CanLaunch is a pure, deterministic predicate. Category match first,
	// then target pattern heuristics, then descriptor-name keywords.
	CanLaunch(d types.ApplicationDescriptor) bool

	// Launch starts a new instance. Returns ErrUnsupportedDescriptor if
	// CanLaunch is false, or a *types.LaunchMechanismError if the underlying
	// mechanism fails. On success the instance is registered in the
	// launcher's own map and returned with its wall-clock launch duration.
	Launch(ctx context.Context, d types.ApplicationDescriptor, launchedBy string) (*types.ApplicationInstance, error)

	// SwitchTo restores and brings the instance to front. Returns false, not
	// an error, if the id is unknown or the handle is gone; a stale entry is
	// self-evicted before returning.
	SwitchTo(ctx context.Context, instanceID string) bool

	// Terminate shuts the instance down. force=false allows a graceful,
	// possibly-cancelable path; force=true skips all such checks. Evicts the
	// entry on success.
	Terminate(ctx context.Context, instanceID string, force bool) bool

	// FindExisting returns a non-terminated instance of the descriptor, or
	// nil. Used by the coordinator for launch deduplication.
	FindExisting(ctx context.Context, d types.ApplicationDescriptor) *types.ApplicationInstance

	// ActiveInstances returns snapshots of live instances, lazily pruning
	// entries whose underlying handle has become invalid.
	ActiveInstances(ctx context.Context) []types.ApplicationInstance

	// Cleanup forcibly tears an instance down at shutdown. Idempotent,
	// never panics.
	Cleanup(ctx context.Context, inst types.ApplicationInstance)

	// Events exposes the launcher-local event stream.
	Events() *Emitter
}

// Target pattern heuristics, one set per category. CanLaunch must stay pure,
// so folder detection looks at the path shape only, never the filesystem.
var (
	processExtensions = []string{".exe", ".bat", ".cmd", ".sh", ".bin", ".appimage"}
	editorExtensions  = []string{".txt", ".md", ".rtf", ".log", ".csv", ".json", ".xml"}
	androidPackage    = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

	nameKeywords = map[types.Category][]string{
		types.CategoryProcess: {"terminal", "console", "tool"},
		types.CategoryEditor:  {"editor", "notes", "document"},
		types.CategoryWeb:     {"web", "portal", "site", "intranet"},
		types.CategoryFolder:  {"folder", "directory", "share"},
		types.CategoryAndroid: {"android", "apk", "mobile"},
	}
)

// Matches implements the shared matching policy: category match first, then
// launch-target patterns, then descriptor-name keywords as a last fallback.
func Matches(category types.Category, d types.ApplicationDescriptor) bool {
	if d.Category == category {
		return true
	}
	if matchesTarget(category, d.Target) {
		return true
	}
	return matchesName(category, d.Name)
}

func matchesTarget(category types.Category, target string) bool {
	t := strings.ToLower(strings.TrimSpace(target))
	if t == "" {
		return false
	}

	switch category {
	case types.CategoryProcess:
		for _, ext := range processExtensions {
			if strings.HasSuffix(t, ext) {
				return true
			}
		}
	case types.CategoryEditor:
		for _, ext := range editorExtensions {
			if strings.HasSuffix(t, ext) {
				return true
			}
		}
	case types.CategoryWeb:
		return strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://") || strings.HasPrefix(t, "www.")
	case types.CategoryFolder:
		return strings.HasSuffix(t, "/") || strings.HasSuffix(t, `\`)
	case types.CategoryAndroid:
		return androidPackage.MatchString(t)
	}
	return false
}

func matchesName(category types.Category, name string) bool {
	n := strings.ToLower(name)
	for _, kw := range nameKeywords[category] {
		if strings.Contains(n, kw) {
			return true
		}
	}
	return false
}
