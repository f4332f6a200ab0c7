package launcher

import (
	"sort"
	"sync"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

// Registry orders launchers by declared priority and selects the right one
// for a descriptor. Selection is evaluated fresh on every call: CanLaunch is
// cheap and descriptors can change between calls, so nothing is cached.
type Registry struct {
	mu        sync.RWMutex
	launchers []Launcher // in registration order
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a launcher. Registration order is the deterministic
// tie-break when priorities collide.
func (r *Registry) Register(l Launcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.launchers = append(r.launchers, l)
}

// Select returns the highest-priority launcher claiming the descriptor, or
// ErrUnsupportedDescriptor when none does.
func (r *Registry) Select(d types.ApplicationDescriptor) (Launcher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var claimants []Launcher
	for _, l := range r.launchers {
		if l.CanLaunch(d) {
			claimants = append(claimants, l)
		}
	}
	if len(claimants) == 0 {
		return nil, types.ErrUnsupportedDescriptor
	}

	// Stable sort keeps registration order among equal priorities.
	sort.SliceStable(claimants, func(i, j int) bool {
		return claimants[i].Capability().Priority > claimants[j].Capability().Priority
	})
	return claimants[0], nil
}

// ByCategory returns the first launcher registered for the category, or nil.
func (r *Registry) ByCategory(c types.Category) Launcher {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.launchers {
		if l.Capability().Category == c {
			return l
		}
	}
	return nil
}

// All returns the launchers in registration order.
func (r *Registry) All() []Launcher {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Launcher, len(r.launchers))
	copy(out, r.launchers)
	return out
}
