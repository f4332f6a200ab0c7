// Package track holds the per-launcher instance table. Each launcher owns
// one table; nothing outside the launcher reaches into it.
package track

import (
	"sync"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

// Table is a concurrency-safe map of instance id to instance. Reads hand
// out value snapshots; the stored instance mutates only through Update.
type Table struct {
	mu   sync.RWMutex
	byID map[string]*types.ApplicationInstance
}

// New creates an empty table.
func New() *Table {
	return &Table{byID: make(map[string]*types.ApplicationInstance)}
}

// Put stores the instance under its id.
func (t *Table) Put(inst *types.ApplicationInstance) {
	t.mu.Lock()
	t.byID[inst.ID] = inst
	t.mu.Unlock()
}

// Get returns a snapshot of the instance.
func (t *Table) Get(id string) (types.ApplicationInstance, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	inst, ok := t.byID[id]
	if !ok {
		return types.ApplicationInstance{}, false
	}
	return inst.Snapshot(), true
}

// Delete removes the instance, reporting whether it was present.
func (t *Table) Delete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.byID[id]
	delete(t.byID, id)
	return ok
}

// Update applies fn to the stored instance under the write lock.
func (t *Table) Update(id string, fn func(*types.ApplicationInstance)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	inst, ok := t.byID[id]
	if !ok {
		return false
	}
	fn(inst)
	return true
}

// FindByDescriptor returns a snapshot of a non-terminated instance of the
// descriptor, or false.
func (t *Table) FindByDescriptor(descriptorID string) (types.ApplicationInstance, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, inst := range t.byID {
		if inst.Descriptor.ID == descriptorID && !inst.State.IsTerminal() {
			return inst.Snapshot(), true
		}
	}
	return types.ApplicationInstance{}, false
}

// Snapshots returns value copies of every stored instance.
func (t *Table) Snapshots() []types.ApplicationInstance {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.ApplicationInstance, 0, len(t.byID))
	for _, inst := range t.byID {
		out = append(out, inst.Snapshot())
	}
	return out
}

// Len returns the number of stored instances.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}
