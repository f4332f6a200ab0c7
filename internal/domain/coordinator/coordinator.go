package coordinator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/launcher"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/monitoring"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/resilience"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/id"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

// User identifies who is launching; the role feeds the descriptor's
// minimum-role gate.
type User struct {
	Username string     `json:"username"`
	Role     types.Role `json:"role"`
}

// Coordinator is the sole owner and mutator of the instance registry.
type Coordinator struct {
	mu        sync.RWMutex
	instances map[string]*types.ApplicationInstance // protected by mu

	registry *launcher.Registry
	bus      *bus
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	// breakers guard each launch mechanism so a broken one fails fast.
	breakers map[types.Category]*resilience.Breaker

	// launchLocks serializes launches per descriptor id, making the
	// find-existing check and the register step one unit.
	launchMu    sync.Mutex
	launchLocks map[string]*sync.Mutex
}

// New creates a coordinator over the given launcher registry and subscribes
// to every registered launcher's events.
func New(registry *launcher.Registry, logger *logging.Logger) *Coordinator {
	c := &Coordinator{
		instances:   make(map[string]*types.ApplicationInstance),
		registry:    registry,
		bus:         newBus(),
		logger:      logger.Named("coordinator"),
		breakers:    make(map[types.Category]*resilience.Breaker),
		launchLocks: make(map[string]*sync.Mutex),
	}

	for _, l := range registry.All() {
		c.attach(l)
	}
	return c
}

// WithMetrics adds metrics tracking.
func (c *Coordinator) WithMetrics(m *monitoring.Metrics) *Coordinator {
	c.metrics = m
	return c
}

// attach subscribes once to a launcher's four local events and republishes
// the significant ones coordinator-wide.
func (c *Coordinator) attach(l launcher.Launcher) {
	category := l.Capability().Category
	c.breakers[category] = resilience.New(string(category), resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			c.logger.Warn("launch breaker state change",
				zap.String("mechanism", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	l.Events().Subscribe(func(ev launcher.LocalEvent) {
		switch ev.Kind {
		case launcher.LocalActivated:
			c.applyState(ev.Instance.ID, types.StateActive, true)
			c.publish(types.EventInstanceActivated, ev.Instance.ID, ev.Instance)
		case launcher.LocalDeactivated:
			c.applyState(ev.Instance.ID, types.StateInactive, false)
			c.publish(types.EventInstanceStateChanged, ev.Instance.ID, ev.Instance)
		case launcher.LocalClosed:
			if c.remove(ev.Instance.ID) {
				c.publish(types.EventInstanceStopped, ev.Instance.ID, ev.Instance)
			}
		case launcher.LocalStateChanged:
			c.applyState(ev.Instance.ID, ev.Instance.State, ev.Instance.IsActive)
			if significant(ev.Instance.State) {
				c.publish(types.EventInstanceStateChanged, ev.Instance.ID, ev.Instance)
			}
		}
	})
}

// significant filters the state transitions observers actually repaint on:
// activation, minimize/restore, and termination. Transient launch ticks are
// dropped.
func significant(s types.State) bool {
	switch s {
	case types.StateActive, types.StateInactive, types.StateTerminated, types.StateFailed:
		return true
	}
	return false
}

// Launch starts the descriptor, or switches to it when a non-terminated
// instance already exists. Returns a typed error, never panics.
func (c *Coordinator) Launch(ctx context.Context, d types.ApplicationDescriptor, user User) (*types.ApplicationInstance, error) {
	if !user.Role.AtLeast(d.MinimumRole) {
		return nil, types.ErrRoleDenied
	}

	l, err := c.registry.Select(d)
	if err != nil {
		c.recordLaunch(d.Category, "unsupported", 0)
		return nil, err
	}
	category := l.Capability().Category

	// Serialize launches of the same descriptor: the dedup check and the
	// register step below act as one unit.
	lock := c.descriptorLock(d.ID)
	lock.Lock()
	defer lock.Unlock()

	if existing := l.FindExisting(ctx, d); existing != nil && !existing.State.IsTerminal() {
		c.logger.Info("descriptor already running, switching instead",
			zap.String("descriptor", d.ID),
			zap.String("instance", existing.ID),
		)
		c.SwitchTo(ctx, existing.ID)
		c.recordLaunch(category, "deduped", 0)
		if snap, ok := c.Get(existing.ID); ok {
			return &snap, nil
		}
		snap := existing.Snapshot()
		return &snap, nil
	}

	var inst *types.ApplicationInstance
	err = c.breakers[category].Execute(func() error {
		var launchErr error
		inst, launchErr = l.Launch(ctx, d, user.Username)
		return launchErr
	})
	if err != nil {
		c.recordLaunch(category, "error", 0)
		c.logger.Error("launch failed",
			zap.String("descriptor", d.ID),
			zap.Error(err),
		)
		if _, ok := err.(*types.LaunchMechanismError); !ok && err != types.ErrUnsupportedDescriptor {
			err = &types.LaunchMechanismError{Descriptor: d.Name, Err: err}
		}
		return nil, err
	}

	entry := inst.Snapshot()
	c.mu.Lock()
	c.instances[entry.ID] = &entry
	c.mu.Unlock()

	c.recordLaunch(category, "ok", entry.LaunchTime)
	c.publish(types.EventInstanceStarted, entry.ID, entry)

	// A short-lived instance can exit before its entry lands in the
	// registry, in which case the mechanism's close event found nothing to
	// remove. Re-check liveness once so the ghost does not linger until the
	// next sweep.
	if live, liveErr := liveSet(ctx, l); liveErr == nil {
		if _, alive := live[entry.ID]; !alive {
			if gone, present := c.Get(entry.ID); present && c.remove(entry.ID) {
				gone.State = types.StateTerminated
				c.publish(types.EventInstanceStopped, entry.ID, gone)
			}
		}
	}

	snap := entry.Snapshot()
	return &snap, nil
}

// SwitchTo restores and activates the instance. A failed switch means the
// entry is dead: it is pruned and InstanceStopped is emitted, so the
// switcher never offers the same dead entry twice.
func (c *Coordinator) SwitchTo(ctx context.Context, instanceID string) bool {
	ok := false
	if l := c.ownerOf(instanceID); l != nil {
		ok = safely(func() bool { return l.SwitchTo(ctx, instanceID) })
	}
	if c.metrics != nil {
		c.metrics.RecordSwitch(ok)
	}

	if !ok {
		if snap, present := c.Get(instanceID); present {
			c.remove(instanceID)
			snap.State = types.StateTerminated
			c.publish(types.EventInstanceStopped, instanceID, snap)
		}
		return false
	}

	c.applyState(instanceID, types.StateActive, true)
	if snap, present := c.Get(instanceID); present {
		c.publish(types.EventInstanceActivated, instanceID, snap)
	}
	return true
}

// Terminate shuts the instance down and removes it from the registry
// unconditionally: if the launcher-side shutdown "failed" there is nothing
// further to usefully retry. Unknown ids return false and leave the
// registry untouched.
func (c *Coordinator) Terminate(ctx context.Context, instanceID string, force bool) bool {
	snap, present := c.Get(instanceID)
	if !present {
		return false
	}
	if c.metrics != nil {
		c.metrics.RecordTerminate(force)
	}

	if l := c.ownerOf(instanceID); l != nil {
		safely(func() bool { return l.Terminate(ctx, instanceID, force) })
	}

	c.remove(instanceID)
	snap.State = types.StateTerminated
	c.publish(types.EventInstanceStopped, instanceID, snap)
	return true
}

// Get returns a snapshot of the instance, if registered.
func (c *Coordinator) Get(instanceID string) (types.ApplicationInstance, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	inst, ok := c.instances[instanceID]
	if !ok {
		return types.ApplicationInstance{}, false
	}
	return inst.Snapshot(), true
}

// Count returns the number of non-terminated registry entries.
func (c *Coordinator) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.instances)
}

// Instances returns snapshots ordered most-recently-activated first.
func (c *Coordinator) Instances() []types.ApplicationInstance {
	c.mu.RLock()
	out := make([]types.ApplicationInstance, 0, len(c.instances))
	for _, inst := range c.instances {
		out = append(out, inst.Snapshot())
	}
	c.mu.RUnlock()

	sortMRU(out)
	return out
}

// Stats summarizes the registry.
func (c *Coordinator) Stats() types.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := types.Stats{
		TotalInstances: len(c.instances),
		ByCategory:     make(map[string]int),
	}
	for _, inst := range c.instances {
		stats.ByCategory[string(inst.Descriptor.Category)]++
		if inst.IsActive {
			stats.ActiveInstance = inst.ID
		}
	}
	return stats
}

// Subscribe attaches an observer to the coordinator event stream.
func (c *Coordinator) Subscribe(buffer int) *Subscription {
	return c.bus.subscribe(buffer)
}

// Shutdown force-cleans every live instance. Idempotent.
func (c *Coordinator) Shutdown(ctx context.Context) {
	for _, l := range c.registry.All() {
		for _, inst := range l.ActiveInstances(ctx) {
			l.Cleanup(ctx, inst)
		}
	}

	c.mu.Lock()
	c.instances = make(map[string]*types.ApplicationInstance)
	c.mu.Unlock()
	c.setGauge()
}

// Reconcile is the periodic liveness sweep: registry entries whose launcher
// no longer reports them are pruned and announced as stopped. A launcher
// that panics mid-sweep counts as a probe failure; the remaining launchers
// are still swept.
func (c *Coordinator) Reconcile(ctx context.Context) error {
	var firstErr error
	for _, l := range c.registry.All() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		category := l.Capability().Category
		live, err := liveSet(ctx, l)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		c.mu.RLock()
		var stale []string
		for instanceID := range c.instances {
			owner, ok := id.CategoryOf(instanceID)
			if !ok || owner != category {
				continue
			}
			if _, alive := live[instanceID]; !alive {
				stale = append(stale, instanceID)
			}
		}
		c.mu.RUnlock()

		for _, instanceID := range stale {
			snap, present := c.Get(instanceID)
			if !present || !c.remove(instanceID) {
				continue
			}
			c.logger.Info("liveness sweep pruned dead instance",
				zap.String("instance", instanceID))
			snap.State = types.StateTerminated
			c.publish(types.EventInstanceStopped, instanceID, snap)
		}
	}
	return firstErr
}

func liveSet(ctx context.Context, l launcher.Launcher) (live map[string]struct{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("launcher %s panicked during sweep: %v", l.Capability().Category, r)
		}
	}()

	live = make(map[string]struct{})
	for _, inst := range l.ActiveInstances(ctx) {
		live[inst.ID] = struct{}{}
	}
	return live, nil
}

// ownerOf resolves the launcher owning an instance id via its category
// prefix.
func (c *Coordinator) ownerOf(instanceID string) launcher.Launcher {
	category, ok := id.CategoryOf(instanceID)
	if !ok {
		return nil
	}
	return c.registry.ByCategory(category)
}

// applyState mutates a registered instance. Events referencing terminated or
// unknown ids are ignored: an instance transitions to Terminated at most
// once, and never back out.
func (c *Coordinator) applyState(instanceID string, state types.State, active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst, ok := c.instances[instanceID]
	if !ok || inst.State.IsTerminal() {
		return
	}

	now := time.Now()
	inst.State = state
	inst.IsActive = active
	inst.UpdatedAt = now
	if active {
		inst.ActivatedAt = now
		// Activation is per-category focus, not a global lock: demote only
		// siblings in the same launcher-category MRU chain.
		for _, other := range c.instances {
			if other.ID != instanceID && other.IsActive &&
				other.Descriptor.Category == inst.Descriptor.Category {
				other.IsActive = false
				other.State = types.StateInactive
				other.UpdatedAt = now
			}
		}
	}
}

func (c *Coordinator) remove(instanceID string) bool {
	c.mu.Lock()
	_, ok := c.instances[instanceID]
	delete(c.instances, instanceID)
	c.mu.Unlock()

	if ok {
		c.setGauge()
	}
	return ok
}

func (c *Coordinator) publish(kind types.EventKind, instanceID string, snapshot types.ApplicationInstance) {
	c.bus.publish(kind, snapshot)
	if c.metrics != nil {
		c.metrics.RecordEvent(string(kind))
	}
	if kind == types.EventInstanceStarted {
		c.setGauge()
	}
}

func (c *Coordinator) descriptorLock(descriptorID string) *sync.Mutex {
	c.launchMu.Lock()
	defer c.launchMu.Unlock()

	lock, ok := c.launchLocks[descriptorID]
	if !ok {
		lock = &sync.Mutex{}
		c.launchLocks[descriptorID] = lock
	}
	return lock
}

func (c *Coordinator) recordLaunch(category types.Category, status string, duration time.Duration) {
	if c.metrics != nil {
		c.metrics.RecordLaunch(string(category), status, duration)
	}
}

func (c *Coordinator) setGauge() {
	if c.metrics != nil {
		c.metrics.InstancesActive.Set(float64(c.Count()))
	}
}

func sortMRU(instances []types.ApplicationInstance) {
	// Most-recently-activated first; never-activated entries fall back to
	// start time.
	sort.SliceStable(instances, func(i, j int) bool {
		at, bt := instances[i].ActivatedAt, instances[j].ActivatedAt
		if at.IsZero() {
			at = instances[i].StartedAt
		}
		if bt.IsZero() {
			bt = instances[j].StartedAt
		}
		return at.After(bt)
	})
}

// safely runs a launcher call and treats a panic as "instance unknown".
func safely(fn func() bool) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return fn()
}
