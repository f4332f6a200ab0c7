package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/launcher"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/resilience"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/id"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

// stubLauncher simulates a mechanism without touching the OS.
type stubLauncher struct {
	cap    launcher.Capability
	events *launcher.Emitter

	mu          sync.Mutex
	instances   map[string]*types.ApplicationInstance
	failLaunch  bool
	staleSwitch bool // pretend every handle is gone
	vanish      bool // instance exits before Launch returns
	launchDelay time.Duration
	switchCalls int
}

func newStub(c types.Category) *stubLauncher {
	return &stubLauncher{
		cap:       launcher.Capability{Category: c, Priority: 10},
		events:    launcher.NewEmitter(),
		instances: make(map[string]*types.ApplicationInstance),
	}
}

func (s *stubLauncher) Capability() launcher.Capability { return s.cap }

func (s *stubLauncher) CanLaunch(d types.ApplicationDescriptor) bool {
	return launcher.Matches(s.cap.Category, d)
}

func (s *stubLauncher) Launch(ctx context.Context, d types.ApplicationDescriptor, launchedBy string) (*types.ApplicationInstance, error) {
	if s.launchDelay > 0 {
		time.Sleep(s.launchDelay)
	}
	if s.failLaunch {
		return nil, &types.LaunchMechanismError{Descriptor: d.Name, Err: errors.New("spawn refused")}
	}

	now := time.Now()
	inst := &types.ApplicationInstance{
		ID:         id.NewInstanceID(s.cap.Category, d.ID),
		Descriptor: d,
		State:      types.StateRunning,
		LaunchedBy: launchedBy,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	if !s.vanish {
		s.mu.Lock()
		s.instances[inst.ID] = inst
		s.mu.Unlock()
	}

	snap := inst.Snapshot()
	return &snap, nil
}

func (s *stubLauncher) SwitchTo(ctx context.Context, instanceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switchCalls++

	if _, ok := s.instances[instanceID]; !ok {
		return false
	}
	if s.staleSwitch {
		delete(s.instances, instanceID) // self-evict the stale entry
		return false
	}
	return true
}

func (s *stubLauncher) Terminate(ctx context.Context, instanceID string, force bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.instances[instanceID]
	delete(s.instances, instanceID)
	return ok
}

func (s *stubLauncher) FindExisting(ctx context.Context, d types.ApplicationDescriptor) *types.ApplicationInstance {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inst := range s.instances {
		if inst.Descriptor.ID == d.ID && !inst.State.IsTerminal() {
			snap := inst.Snapshot()
			return &snap
		}
	}
	return nil
}

func (s *stubLauncher) ActiveInstances(ctx context.Context) []types.ApplicationInstance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ApplicationInstance, 0, len(s.instances))
	for _, inst := range s.instances {
		out = append(out, inst.Snapshot())
	}
	return out
}

func (s *stubLauncher) Cleanup(ctx context.Context, inst types.ApplicationInstance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.instances, inst.ID)
}

func (s *stubLauncher) Events() *launcher.Emitter { return s.events }

func descriptor(appID string, c types.Category) types.ApplicationDescriptor {
	return types.ApplicationDescriptor{ID: appID, Name: appID, Category: c, Target: "/usr/bin/" + appID}
}

var alice = User{Username: "alice", Role: types.RoleStandard}

func setup(t *testing.T, stubs ...*stubLauncher) *Coordinator {
	t.Helper()
	reg := launcher.NewRegistry()
	for _, s := range stubs {
		reg.Register(s)
	}
	return New(reg, logging.NewDevelopment())
}

func drain(sub *Subscription) []types.Event {
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

func TestLaunchRegistersInstance(t *testing.T) {
	stub := newStub(types.CategoryProcess)
	c := setup(t, stub)
	sub := c.Subscribe(8)
	defer sub.Close()

	inst, err := c.Launch(context.Background(), descriptor("calc", types.CategoryProcess), alice)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Count())
	assert.Equal(t, types.StateRunning, inst.State)
	assert.Equal(t, "alice", inst.LaunchedBy)

	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventInstanceStarted, events[0].Kind)
	assert.Equal(t, inst.ID, events[0].Instance.ID)
}

func TestLaunchDedupSwitchesInstead(t *testing.T) {
	stub := newStub(types.CategoryProcess)
	c := setup(t, stub)

	first, err := c.Launch(context.Background(), descriptor("calc", types.CategoryProcess), alice)
	require.NoError(t, err)

	second, err := c.Launch(context.Background(), descriptor("calc", types.CategoryProcess), alice)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Count())
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, stub.switchCalls)
}

func TestConcurrentFirstLaunchProducesOneInstance(t *testing.T) {
	stub := newStub(types.CategoryProcess)
	stub.launchDelay = 20 * time.Millisecond
	c := setup(t, stub)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Launch(context.Background(), descriptor("calc", types.CategoryProcess), alice)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, c.Count(), "per-descriptor serialization must close the first-launch race")
}

func TestInstantExitDoesNotLingerInRegistry(t *testing.T) {
	stub := newStub(types.CategoryProcess)
	stub.vanish = true
	c := setup(t, stub)
	sub := c.Subscribe(8)
	defer sub.Close()

	// The spawn succeeds but the process is gone before Launch returns, so
	// its close event raced ahead of the registry insert.
	inst, err := c.Launch(context.Background(), descriptor("true", types.CategoryProcess), alice)
	require.NoError(t, err)
	require.NotNil(t, inst)

	assert.Equal(t, 0, c.Count(), "a ghost entry must not wait for the sweep")

	events := drain(sub)
	require.Len(t, events, 2)
	assert.Equal(t, types.EventInstanceStarted, events[0].Kind)
	assert.Equal(t, types.EventInstanceStopped, events[1].Kind)
	assert.Equal(t, inst.ID, events[1].Instance.ID)
}

func TestTerminateRemovesAndEmitsOnce(t *testing.T) {
	stub := newStub(types.CategoryProcess)
	c := setup(t, stub)

	inst, err := c.Launch(context.Background(), descriptor("calc", types.CategoryProcess), alice)
	require.NoError(t, err)

	sub := c.Subscribe(8)
	defer sub.Close()

	require.True(t, c.Terminate(context.Background(), inst.ID, false))
	assert.Equal(t, 0, c.Count())

	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventInstanceStopped, events[0].Kind)

	// Second terminate: already gone, no event, registry intact.
	assert.False(t, c.Terminate(context.Background(), inst.ID, true))
	assert.Empty(t, drain(sub))
}

func TestTerminateUnknownInstance(t *testing.T) {
	c := setup(t, newStub(types.CategoryProcess))

	assert.False(t, c.Terminate(context.Background(), "native-process_ghost_01XYZ", false))
	assert.Equal(t, 0, c.Count())
}

func TestSwitchFailurePrunesEntry(t *testing.T) {
	stub := newStub(types.CategoryProcess)
	c := setup(t, stub)

	inst, err := c.Launch(context.Background(), descriptor("calc", types.CategoryProcess), alice)
	require.NoError(t, err)
	stub.staleSwitch = true

	sub := c.Subscribe(8)
	defer sub.Close()

	assert.False(t, c.SwitchTo(context.Background(), inst.ID))
	assert.Equal(t, 0, c.Count(), "a dead entry must never be offered twice")

	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventInstanceStopped, events[0].Kind)
}

func TestSwitchActivates(t *testing.T) {
	stub := newStub(types.CategoryProcess)
	c := setup(t, stub)

	a, _ := c.Launch(context.Background(), descriptor("calc", types.CategoryProcess), alice)
	b, _ := c.Launch(context.Background(), descriptor("mail", types.CategoryProcess), alice)

	require.True(t, c.SwitchTo(context.Background(), a.ID))

	got, ok := c.Get(a.ID)
	require.True(t, ok)
	assert.True(t, got.IsActive)
	assert.Equal(t, types.StateActive, got.State)

	// Same-category sibling is demoted, not terminated.
	other, ok := c.Get(b.ID)
	require.True(t, ok)
	assert.False(t, other.IsActive)
	assert.Equal(t, 2, c.Count(), "switching is not terminating")
}

func TestInstancesMRUOrder(t *testing.T) {
	stub := newStub(types.CategoryProcess)
	c := setup(t, stub)

	a, _ := c.Launch(context.Background(), descriptor("calc", types.CategoryProcess), alice)
	b, _ := c.Launch(context.Background(), descriptor("mail", types.CategoryProcess), alice)

	require.True(t, c.SwitchTo(context.Background(), a.ID))

	ordered := c.Instances()
	require.Len(t, ordered, 2)
	assert.Equal(t, a.ID, ordered[0].ID)
	assert.Equal(t, b.ID, ordered[1].ID)
}

func TestRoleGate(t *testing.T) {
	c := setup(t, newStub(types.CategoryProcess))

	d := descriptor("admin-console", types.CategoryProcess)
	d.MinimumRole = types.RoleAdmin

	_, err := c.Launch(context.Background(), d, alice)
	assert.ErrorIs(t, err, types.ErrRoleDenied)
	assert.Equal(t, 0, c.Count())
}

func TestLaunchUnsupportedDescriptor(t *testing.T) {
	c := setup(t, newStub(types.CategoryProcess))

	_, err := c.Launch(context.Background(), types.ApplicationDescriptor{
		ID: "apk", Name: "apk", Category: types.CategoryAndroid, Target: "!!",
	}, alice)
	assert.ErrorIs(t, err, types.ErrUnsupportedDescriptor)
}

func TestLaunchFailureIsTyped(t *testing.T) {
	stub := newStub(types.CategoryProcess)
	stub.failLaunch = true
	c := setup(t, stub)

	_, err := c.Launch(context.Background(), descriptor("calc", types.CategoryProcess), alice)

	var mechErr *types.LaunchMechanismError
	require.ErrorAs(t, err, &mechErr)
	assert.Equal(t, "calc", mechErr.Descriptor)
	assert.Equal(t, 0, c.Count())
}

func TestBreakerTripsOnRepeatedFailures(t *testing.T) {
	stub := newStub(types.CategoryProcess)
	stub.failLaunch = true
	c := setup(t, stub)

	for i := 0; i < 5; i++ {
		_, err := c.Launch(context.Background(), descriptor("calc", types.CategoryProcess), alice)
		require.Error(t, err)
	}

	_, err := c.Launch(context.Background(), descriptor("calc", types.CategoryProcess), alice)
	assert.ErrorIs(t, err, resilience.ErrBreakerOpen)
}

func TestRepublishClosedEvent(t *testing.T) {
	stub := newStub(types.CategoryProcess)
	c := setup(t, stub)

	inst, err := c.Launch(context.Background(), descriptor("calc", types.CategoryProcess), alice)
	require.NoError(t, err)

	sub := c.Subscribe(8)
	defer sub.Close()

	// The mechanism reports the process exited on its own.
	snap, _ := c.Get(inst.ID)
	stub.events.Emit(launcher.LocalClosed, snap)

	assert.Equal(t, 0, c.Count())
	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventInstanceStopped, events[0].Kind)

	// Replayed close for a terminated id is ignored.
	stub.events.Emit(launcher.LocalClosed, snap)
	assert.Empty(t, drain(sub))
}

func TestReconcilePrunesDeadEntries(t *testing.T) {
	stub := newStub(types.CategoryProcess)
	c := setup(t, stub)

	a, _ := c.Launch(context.Background(), descriptor("calc", types.CategoryProcess), alice)
	b, _ := c.Launch(context.Background(), descriptor("mail", types.CategoryProcess), alice)

	// The mechanism lost "calc" without reporting a close.
	stub.mu.Lock()
	delete(stub.instances, a.ID)
	stub.mu.Unlock()

	sub := c.Subscribe(8)
	defer sub.Close()

	require.NoError(t, c.Reconcile(context.Background()))

	assert.Equal(t, 1, c.Count())
	_, ok := c.Get(a.ID)
	assert.False(t, ok)
	_, ok = c.Get(b.ID)
	assert.True(t, ok)

	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventInstanceStopped, events[0].Kind)
	assert.Equal(t, a.ID, events[0].Instance.ID)

	// A second sweep finds nothing to do.
	require.NoError(t, c.Reconcile(context.Background()))
	assert.Empty(t, drain(sub))
}

func TestSignificanceFilter(t *testing.T) {
	stub := newStub(types.CategoryProcess)
	c := setup(t, stub)

	inst, err := c.Launch(context.Background(), descriptor("calc", types.CategoryProcess), alice)
	require.NoError(t, err)

	sub := c.Subscribe(8)
	defer sub.Close()

	snap, _ := c.Get(inst.ID)

	// Transient tick: not forwarded.
	snap.State = types.StateRunning
	stub.events.Emit(launcher.LocalStateChanged, snap)
	assert.Empty(t, drain(sub))

	// Minimize: forwarded.
	snap.State = types.StateInactive
	stub.events.Emit(launcher.LocalStateChanged, snap)
	events := drain(sub)
	require.Len(t, events, 1)
	assert.Equal(t, types.EventInstanceStateChanged, events[0].Kind)
}
