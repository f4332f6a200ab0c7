// Package testutil provides shared fixtures for lifecycle tests: a
// scriptable launcher, descriptor factories, and event collection helpers.
package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/coordinator"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/launcher"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/id"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

// FakeLauncher is a scriptable in-memory launcher. All behavior knobs are
// safe to flip mid-test.
type FakeLauncher struct {
	Cap    launcher.Capability
	Emit   *launcher.Emitter
	Greedy bool // claim every descriptor regardless of category

	mu          sync.Mutex
	instances   map[string]*types.ApplicationInstance
	FailLaunch  bool
	StaleSwitch bool
	LaunchDelay time.Duration
}

// NewFakeLauncher creates a fake for the category at priority 10.
func NewFakeLauncher(c types.Category) *FakeLauncher {
	return &FakeLauncher{
		Cap:       launcher.Capability{Category: c, Priority: 10},
		Emit:      launcher.NewEmitter(),
		instances: make(map[string]*types.ApplicationInstance),
	}
}

func (f *FakeLauncher) Capability() launcher.Capability { return f.Cap }

func (f *FakeLauncher) CanLaunch(d types.ApplicationDescriptor) bool {
	return f.Greedy || launcher.Matches(f.Cap.Category, d)
}

func (f *FakeLauncher) Launch(ctx context.Context, d types.ApplicationDescriptor, launchedBy string) (*types.ApplicationInstance, error) {
	if f.LaunchDelay > 0 {
		time.Sleep(f.LaunchDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailLaunch {
		return nil, &types.LaunchMechanismError{Descriptor: d.Name, Err: errors.New("mechanism refused")}
	}

	now := time.Now()
	inst := &types.ApplicationInstance{
		ID:         id.NewInstanceID(f.Cap.Category, d.ID),
		Descriptor: d,
		State:      types.StateRunning,
		LaunchedBy: launchedBy,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	f.instances[inst.ID] = inst
	snap := inst.Snapshot()
	return &snap, nil
}

func (f *FakeLauncher) SwitchTo(ctx context.Context, instanceID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.instances[instanceID]; !ok {
		return false
	}
	if f.StaleSwitch {
		delete(f.instances, instanceID)
		return false
	}
	return true
}

func (f *FakeLauncher) Terminate(ctx context.Context, instanceID string, force bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.instances[instanceID]
	delete(f.instances, instanceID)
	return ok
}

func (f *FakeLauncher) FindExisting(ctx context.Context, d types.ApplicationDescriptor) *types.ApplicationInstance {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inst := range f.instances {
		if inst.Descriptor.ID == d.ID && !inst.State.IsTerminal() {
			snap := inst.Snapshot()
			return &snap
		}
	}
	return nil
}

func (f *FakeLauncher) ActiveInstances(ctx context.Context) []types.ApplicationInstance {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.ApplicationInstance, 0, len(f.instances))
	for _, inst := range f.instances {
		out = append(out, inst.Snapshot())
	}
	return out
}

func (f *FakeLauncher) Cleanup(ctx context.Context, inst types.ApplicationInstance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.instances, inst.ID)
}

func (f *FakeLauncher) Events() *launcher.Emitter { return f.Emit }

// Kill simulates the mechanism losing the instance without a close event,
// the situation the liveness sweep exists for.
func (f *FakeLauncher) Kill(instanceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.instances, instanceID)
}

// CloseInstance simulates the user quitting: the mechanism drops the entry
// and announces the close.
func (f *FakeLauncher) CloseInstance(instanceID string) {
	f.mu.Lock()
	inst, ok := f.instances[instanceID]
	var snap types.ApplicationInstance
	if ok {
		snap = inst.Snapshot()
		delete(f.instances, instanceID)
	}
	f.mu.Unlock()

	if ok {
		snap.State = types.StateTerminated
		f.Emit.Emit(launcher.LocalClosed, snap)
	}
}

// Descriptor creates a category-consistent descriptor.
func Descriptor(appID string, c types.Category) types.ApplicationDescriptor {
	d := types.ApplicationDescriptor{ID: appID, Name: appID, Category: c}
	switch c {
	case types.CategoryWeb:
		d.Target = "https://intranet.local/" + appID
	case types.CategoryFolder:
		d.Target = "/srv/shares/" + appID + "/"
	case types.CategoryAndroid:
		d.Target = "com.corp." + appID
	case types.CategoryEditor:
		d.Target = "/srv/docs/" + appID + ".txt"
	default:
		d.Target = "/usr/bin/" + appID
	}
	return d
}

// User returns a standard-role user.
func User(name string) coordinator.User {
	return coordinator.User{Username: name, Role: types.RoleStandard}
}

// NewCoordinator builds a coordinator over the given fakes with a debug
// logger.
func NewCoordinator(t *testing.T, fakes ...*FakeLauncher) *coordinator.Coordinator {
	t.Helper()
	reg := launcher.NewRegistry()
	for _, f := range fakes {
		reg.Register(f)
	}
	return coordinator.New(reg, logging.NewDevelopment())
}

// DrainEvents returns every event currently buffered on the subscription.
func DrainEvents(sub *coordinator.Subscription) []types.Event {
	var out []types.Event
	for {
		select {
		case ev := <-sub.C:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// CountKind counts events of one kind.
func CountKind(events []types.Event, kind types.EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
