// Package android launches applications inside the Android subsystem
// through a debug-bridge style command.
package android

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/launcher"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/launchers/track"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/id"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

const (
	priority      = 10
	bridgeTimeout = 10 * time.Second
)

// Bridge talks to the Android subsystem. The production implementation
// shells out to adb; tests substitute their own.
type Bridge interface {
	Start(ctx context.Context, pkg string) error
	Focus(ctx context.Context, pkg string) error
	Stop(ctx context.Context, pkg string) error
	Running(ctx context.Context, pkg string) bool
}

// Launcher manages Android subsystem applications by package name. The
// subsystem allows one foreground activity per package, so the package name
// doubles as the mechanism handle.
type Launcher struct {
	logger *logging.Logger
	events *launcher.Emitter
	table  *track.Table
	bridge Bridge
}

// New creates the Android launcher over the given bridge.
func New(bridge Bridge, logger *logging.Logger) *Launcher {
	return &Launcher{
		logger: logger.Named("launcher.android"),
		events: launcher.NewEmitter(),
		table:  track.New(),
		bridge: bridge,
	}
}

func (l *Launcher) Capability() launcher.Capability {
	return launcher.Capability{Category: types.CategoryAndroid, Priority: priority}
}

func (l *Launcher) CanLaunch(d types.ApplicationDescriptor) bool {
	return launcher.Matches(types.CategoryAndroid, d)
}

func (l *Launcher) Launch(ctx context.Context, d types.ApplicationDescriptor, launchedBy string) (*types.ApplicationInstance, error) {
	if !l.CanLaunch(d) {
		return nil, types.ErrUnsupportedDescriptor
	}

	start := time.Now()
	if err := l.bridge.Start(ctx, d.Target); err != nil {
		return nil, &types.LaunchMechanismError{Descriptor: d.Name, Err: err}
	}

	now := time.Now()
	inst := &types.ApplicationInstance{
		ID:         id.NewInstanceID(types.CategoryAndroid, d.ID),
		Descriptor: d,
		Handle:     types.Handle{Window: d.Target},
		State:      types.StateRunning,
		LaunchedBy: launchedBy,
		StartedAt:  now,
		UpdatedAt:  now,
		LaunchTime: time.Since(start),
	}
	l.table.Put(inst)

	l.logger.Info("android application started",
		zap.String("instance", inst.ID),
		zap.String("package", d.Target),
	)
	snap := inst.Snapshot()
	return &snap, nil
}

func (l *Launcher) SwitchTo(ctx context.Context, instanceID string) bool {
	snap, ok := l.table.Get(instanceID)
	if !ok {
		return false
	}
	pkg := snap.Handle.Window
	if !l.bridge.Running(ctx, pkg) {
		l.table.Delete(instanceID)
		return false
	}
	if err := l.bridge.Focus(ctx, pkg); err != nil {
		l.logger.Warn("subsystem refused to foreground package",
			zap.String("package", pkg),
			zap.Error(err),
		)
		l.table.Delete(instanceID)
		return false
	}
	return true
}

func (l *Launcher) Terminate(ctx context.Context, instanceID string, force bool) bool {
	snap, ok := l.table.Get(instanceID)
	if !ok {
		return false
	}
	// force-stop is the only stop the subsystem offers; force changes
	// nothing here.
	if err := l.bridge.Stop(ctx, snap.Handle.Window); err != nil {
		l.logger.Debug("stop failed, package likely gone",
			zap.String("package", snap.Handle.Window),
			zap.Error(err),
		)
	}
	l.table.Delete(instanceID)
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
		if !l.bridge.Running(ctx, snap.Handle.Window) {
			l.table.Delete(snap.ID)
			continue
		}
		out = append(out, snap)
	}
	return out
}

func (l *Launcher) Cleanup(ctx context.Context, inst types.ApplicationInstance) {
	_ = l.bridge.Stop(ctx, inst.Handle.Window)
	l.table.Delete(inst.ID)
}

func (l *Launcher) Events() *launcher.Emitter { return l.events }

// ExecBridge shells out to an adb-compatible binary.
type ExecBridge struct {
	Cmd string
}

func (b *ExecBridge) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, bridgeTimeout)
	defer cancel()
	return exec.CommandContext(ctx, b.Cmd, args...).CombinedOutput()
}

func (b *ExecBridge) Start(ctx context.Context, pkg string) error {
	out, err := b.run(ctx, "shell", "monkey", "-p", pkg,
		"-c", "android.intent.category.LAUNCHER", "1")
	if err != nil {
		return fmt.Errorf("start %s: %w: %s", pkg, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (b *ExecBridge) Focus(ctx context.Context, pkg string) error {
	// Re-launching the LAUNCHER intent brings a running activity forward.
	return b.Start(ctx, pkg)
}

func (b *ExecBridge) Stop(ctx context.Context, pkg string) error {
	out, err := b.run(ctx, "shell", "am", "force-stop", pkg)
	if err != nil {
		return fmt.Errorf("stop %s: %w: %s", pkg, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (b *ExecBridge) Running(ctx context.Context, pkg string) bool {
	out, err := b.run(ctx, "shell", "pidof", pkg)
	return err == nil && len(strings.TrimSpace(string(out))) > 0
}
