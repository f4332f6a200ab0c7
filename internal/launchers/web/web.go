// Package web opens URLs in the system browser, probing the target first so
// an unreachable intranet page fails the launch instead of leaving the user
// staring at a browser error.
package web

import (
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/launcher"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/launchers/track"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/id"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

const (
	priority     = 10
	probeTimeout = 3 * time.Second
)

// Opener hands a URL to the browser and returns the spawned pid, zero when
// the browser was already running and just got a new tab.
type Opener func(ctx context.Context, url string) (int32, error)

// Launcher opens web applications through the system browser. Tabs of an
// already-running browser cannot be tracked by pid, so liveness is the
// registry entry itself; a switch re-hands the URL to the browser, which
// focuses the existing tab.
type Launcher struct {
	logger *logging.Logger
	events *launcher.Emitter
	table  *track.Table
	client *resty.Client
	open   Opener
}

// New creates the web launcher. browserCmd is the opener binary, e.g.
// "xdg-open" or a specific browser.
func New(browserCmd string, logger *logging.Logger) *Launcher {
	return &Launcher{
		logger: logger.Named("launcher.web"),
		events: launcher.NewEmitter(),
		table:  track.New(),
		client: resty.New().
			SetTimeout(probeTimeout).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)),
		open: execOpener(browserCmd),
	}
}

func (l *Launcher) Capability() launcher.Capability {
	return launcher.Capability{Category: types.CategoryWeb, Priority: priority}
}

func (l *Launcher) CanLaunch(d types.ApplicationDescriptor) bool {
	return launcher.Matches(types.CategoryWeb, d)
}

func (l *Launcher) Launch(ctx context.Context, d types.ApplicationDescriptor, launchedBy string) (*types.ApplicationInstance, error) {
	if !l.CanLaunch(d) {
		return nil, types.ErrUnsupportedDescriptor
	}

	start := time.Now()
	if err := l.probe(ctx, d.Target); err != nil {
		return nil, &types.LaunchMechanismError{Descriptor: d.Name, Err: err}
	}

	pid, err := l.open(ctx, d.Target)
	if err != nil {
		return nil, &types.LaunchMechanismError{Descriptor: d.Name, Err: err}
	}

	now := time.Now()
	inst := &types.ApplicationInstance{
		ID:         id.NewInstanceID(types.CategoryWeb, d.ID),
		Descriptor: d,
		Handle:     types.Handle{PID: pid, Window: d.Target},
		State:      types.StateRunning,
		LaunchedBy: launchedBy,
		StartedAt:  now,
		UpdatedAt:  now,
		LaunchTime: time.Since(start),
	}
	l.table.Put(inst)

	l.logger.Info("web application opened",
		zap.String("instance", inst.ID),
		zap.String("url", d.Target),
	)
	snap := inst.Snapshot()
	return &snap, nil
}

// probe checks that the target answers at all. Any HTTP response counts as
// reachable; only transport-level failure blocks the launch.
func (l *Launcher) probe(ctx context.Context, url string) error {
	_, err := l.client.R().SetContext(ctx).Head(url)
	if err != nil {
		return fmt.Errorf("target unreachable: %w", err)
	}
	return nil
}

func (l *Launcher) SwitchTo(ctx context.Context, instanceID string) bool {
	snap, ok := l.table.Get(instanceID)
	if !ok {
		return false
	}
	// Re-opening the URL focuses the existing browser tab.
	if _, err := l.open(ctx, snap.Handle.Window); err != nil {
		l.logger.Warn("browser refused to focus tab",
			zap.String("instance", instanceID),
			zap.Error(err),
		)
		l.table.Delete(instanceID)
		return false
	}
	return true
}

// Terminate drops the tracking entry. The browser is shared with the user's
// other tabs; the shell never kills it.
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
	return l.table.Snapshots()
}

func (l *Launcher) Cleanup(ctx context.Context, inst types.ApplicationInstance) {
	l.table.Delete(inst.ID)
}

func (l *Launcher) Events() *launcher.Emitter { return l.events }

func execOpener(browserCmd string) Opener {
	return func(ctx context.Context, url string) (int32, error) {
		cmd := exec.Command(browserCmd, url)
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
		if err := cmd.Start(); err != nil {
			return 0, err
		}
		pid := int32(cmd.Process.Pid)
		// Openers like xdg-open exit as soon as the browser takes over.
		go func() { _ = cmd.Wait() }()
		return pid, nil
	}
}
