// Package process launches native executables as detached OS processes and
// tracks them by pid.
package process

import (
	"context"
	"os/exec"
	"sync"
	"syscall"
	"time"

	gops "github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/launcher"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/launchers/track"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/id"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

const priority = 10

// Launcher starts native executables in their own session so the shell's
// death never takes them down, and reaps them on exit.
type Launcher struct {
	logger *logging.Logger
	events *launcher.Emitter
	table  *track.Table

	mu   sync.Mutex
	cmds map[string]*exec.Cmd

	// alive is injectable for tests; defaults to a gopsutil check.
	alive func(pid int32) bool
}

// New creates the native process launcher.
func New(logger *logging.Logger) *Launcher {
	return &Launcher{
		logger: logger.Named("launcher.process"),
		events: launcher.NewEmitter(),
		table:  track.New(),
		cmds:   make(map[string]*exec.Cmd),
		alive:  pidAlive,
	}
}

func (l *Launcher) Capability() launcher.Capability {
	return launcher.Capability{Category: types.CategoryProcess, Priority: priority}
}

func (l *Launcher) CanLaunch(d types.ApplicationDescriptor) bool {
	return launcher.Matches(types.CategoryProcess, d)
}

func (l *Launcher) Launch(ctx context.Context, d types.ApplicationDescriptor, launchedBy string) (*types.ApplicationInstance, error) {
	if !l.CanLaunch(d) {
		return nil, types.ErrUnsupportedDescriptor
	}

	start := time.Now()
	cmd := exec.Command(d.Target, d.Args()...)
	// Own session: the process survives us and signals hit the whole group.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return nil, &types.LaunchMechanismError{Descriptor: d.Name, Err: err}
	}

	now := time.Now()
	inst := &types.ApplicationInstance{
		ID:         id.NewInstanceID(types.CategoryProcess, d.ID),
		Descriptor: d,
		Handle:     types.Handle{PID: int32(cmd.Process.Pid)},
		State:      types.StateRunning,
		LaunchedBy: launchedBy,
		StartedAt:  now,
		UpdatedAt:  now,
		LaunchTime: time.Since(start),
	}

	l.table.Put(inst)
	l.mu.Lock()
	l.cmds[inst.ID] = cmd
	l.mu.Unlock()

	go l.reap(inst.ID, cmd)

	l.logger.Info("process started",
		zap.String("instance", inst.ID),
		zap.Int32("pid", inst.Handle.PID),
	)
	snap := inst.Snapshot()
	return &snap, nil
}

// reap waits for the process and announces the close, unless the entry was
// already evicted by an explicit terminate.
func (l *Launcher) reap(instanceID string, cmd *exec.Cmd) {
	err := cmd.Wait()

	l.mu.Lock()
	delete(l.cmds, instanceID)
	l.mu.Unlock()

	snap, tracked := l.table.Get(instanceID)
	if !tracked {
		return
	}
	l.table.Delete(instanceID)

	l.logger.Info("process exited",
		zap.String("instance", instanceID),
		zap.Error(err),
	)
	snap.State = types.StateTerminated
	l.events.Emit(launcher.LocalClosed, snap)
}

func (l *Launcher) SwitchTo(ctx context.Context, instanceID string) bool {
	snap, ok := l.table.Get(instanceID)
	if !ok {
		return false
	}
	if !l.alive(snap.Handle.PID) {
		l.evict(instanceID)
		return false
	}
	return true
}

func (l *Launcher) Terminate(ctx context.Context, instanceID string, force bool) bool {
	snap, ok := l.table.Get(instanceID)
	if !ok {
		return false
	}

	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}
	// Negative pid: signal the whole session group.
	if err := syscall.Kill(-int(snap.Handle.PID), sig); err != nil {
		l.logger.Debug("signal failed, process likely gone",
			zap.String("instance", instanceID),
			zap.Error(err),
		)
	}

	l.evict(instanceID)
	return true
}

func (l *Launcher) FindExisting(ctx context.Context, d types.ApplicationDescriptor) *types.ApplicationInstance {
	if snap, ok := l.table.FindByDescriptor(d.ID); ok {
		return &snap
	}
	return nil
}

func (l *Launcher) ActiveInstances(ctx context.Context) []types.ApplicationInstance {
	out := make([]types.ApplicationInstance, 0, l.table.Len())
	for _, snap := range l.table.Snapshots() {
		if !l.alive(snap.Handle.PID) {
			l.evict(snap.ID)
			continue
		}
		out = append(out, snap)
	}
	return out
}

func (l *Launcher) Cleanup(ctx context.Context, inst types.ApplicationInstance) {
	if inst.Handle.PID > 0 {
		_ = syscall.Kill(-int(inst.Handle.PID), syscall.SIGKILL)
	}
	l.evict(inst.ID)
}

func (l *Launcher) Events() *launcher.Emitter { return l.events }

// evict drops the entry without emitting: the caller, or the reap
// goroutine's tracked check, decides what the outside world hears.
func (l *Launcher) evict(instanceID string) {
	l.table.Delete(instanceID)
	l.mu.Lock()
	delete(l.cmds, instanceID)
	l.mu.Unlock()
}

func pidAlive(pid int32) bool {
	p, err := gops.NewProcess(pid)
	if err != nil {
		return false
	}
	running, err := p.IsRunning()
	return err == nil && running
}
