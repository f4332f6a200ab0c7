// Package folder opens network shares and directories in the system file
// manager.
package folder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/launcher"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/launchers/track"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/id"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

const priority = 10

// Opener hands a path to the file manager.
type Opener func(ctx context.Context, path string) error

// Launcher opens directories in the file manager. Like browser tabs, file
// manager windows are not individually killable; terminate only drops the
// tracking entry.
type Launcher struct {
	logger *logging.Logger
	events *launcher.Emitter
	table  *track.Table
	open   Opener

	// stat is injectable for tests; defaults to os.Stat.
	stat func(path string) (os.FileInfo, error)
}

// New creates the folder launcher. managerCmd is the file manager binary,
// e.g. "xdg-open".
func New(managerCmd string, logger *logging.Logger) *Launcher {
	return &Launcher{
		logger: logger.Named("launcher.folder"),
		events: launcher.NewEmitter(),
		table:  track.New(),
		open:   execOpener(managerCmd),
		stat:   os.Stat,
	}
}

func (l *Launcher) Capability() launcher.Capability {
	return launcher.Capability{Category: types.CategoryFolder, Priority: priority}
}

func (l *Launcher) CanLaunch(d types.ApplicationDescriptor) bool {
	return launcher.Matches(types.CategoryFolder, d)
}

func (l *Launcher) Launch(ctx context.Context, d types.ApplicationDescriptor, launchedBy string) (*types.ApplicationInstance, error) {
	if !l.CanLaunch(d) {
		return nil, types.ErrUnsupportedDescriptor
	}

	start := time.Now()
	path := strings.TrimRight(d.Target, `/\`)
	if path == "" {
		path = "/"
	}
	info, err := l.stat(path)
	if err != nil {
		return nil, &types.LaunchMechanismError{Descriptor: d.Name, Err: err}
	}
	if !info.IsDir() {
		return nil, &types.LaunchMechanismError{
			Descriptor: d.Name,
			Err:        fmt.Errorf("%s is not a directory", path),
		}
	}

	if err := l.open(ctx, path); err != nil {
		return nil, &types.LaunchMechanismError{Descriptor: d.Name, Err: err}
	}

	now := time.Now()
	inst := &types.ApplicationInstance{
		ID:         id.NewInstanceID(types.CategoryFolder, d.ID),
		Descriptor: d,
		Handle:     types.Handle{Window: path},
		State:      types.StateRunning,
		LaunchedBy: launchedBy,
		StartedAt:  now,
		UpdatedAt:  now,
		LaunchTime: time.Since(start),
	}
	l.table.Put(inst)

	l.logger.Info("folder opened",
		zap.String("instance", inst.ID),
		zap.String("path", path),
	)
	snap := inst.Snapshot()
	return &snap, nil
}

func (l *Launcher) SwitchTo(ctx context.Context, instanceID string) bool {
	snap, ok := l.table.Get(instanceID)
	if !ok {
		return false
	}
	// The folder may have been unshared or unmounted since the launch.
	if _, err := l.stat(snap.Handle.Window); err != nil {
		l.table.Delete(instanceID)
		return false
	}
	if err := l.open(ctx, snap.Handle.Window); err != nil {
		l.table.Delete(instanceID)
		return false
	}
	return true
}

func (l *Launcher) Terminate(ctx context.Context, instanceID string, force bool) bool {
	return l.table.Delete(instanceID)
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
		if _, err := l.stat(snap.Handle.Window); err != nil {
			l.table.Delete(snap.ID)
			continue
		}
		out = append(out, snap)
	}
	return out
}

func (l *Launcher) Cleanup(ctx context.Context, inst types.ApplicationInstance) {
	l.table.Delete(inst.ID)
}

func (l *Launcher) Events() *launcher.Emitter { return l.events }

func execOpener(managerCmd string) Opener {
	return func(ctx context.Context, path string) error {
		cmd := exec.Command(managerCmd, path)
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
		if err := cmd.Start(); err != nil {
			return err
		}
		go func() { _ = cmd.Wait() }()
		return nil
	}
}
