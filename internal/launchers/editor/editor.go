// Package editor hosts document editing sessions inside the shell: the
// configured editor runs on a pty the shell owns, so the session can be
// embedded, resized, and torn down like any other instance.
package editor

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/launcher"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/launchers/track"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/id"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

// Editor documents outrank the generic process launcher for editor files.
const priority = 20

type session struct {
	cmd *exec.Cmd
	tty *os.File
}

// Launcher runs one editor process per document on a dedicated pty.
type Launcher struct {
	editorCmd string
	logger    *logging.Logger
	events    *launcher.Emitter
	table     *track.Table

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates the embedded editor launcher. editorCmd is the editor binary,
// e.g. "nano".
func New(editorCmd string, logger *logging.Logger) *Launcher {
	return &Launcher{
		editorCmd: editorCmd,
		logger:    logger.Named("launcher.editor"),
		events:    launcher.NewEmitter(),
		table:     track.New(),
		sessions:  make(map[string]*session),
	}
}

func (l *Launcher) Capability() launcher.Capability {
	return launcher.Capability{Category: types.CategoryEditor, Priority: priority}
}

func (l *Launcher) CanLaunch(d types.ApplicationDescriptor) bool {
	return launcher.Matches(types.CategoryEditor, d)
}

func (l *Launcher) Launch(ctx context.Context, d types.ApplicationDescriptor, launchedBy string) (*types.ApplicationInstance, error) {
	if !l.CanLaunch(d) {
		return nil, types.ErrUnsupportedDescriptor
	}

	start := time.Now()
	args := append(d.Args(), d.Target)
	cmd := exec.Command(l.editorCmd, args...)

	tty, err := pty.Start(cmd)
	if err != nil {
		return nil, &types.LaunchMechanismError{Descriptor: d.Name, Err: err}
	}

	now := time.Now()
	inst := &types.ApplicationInstance{
		ID:         id.NewInstanceID(types.CategoryEditor, d.ID),
		Descriptor: d,
		Handle:     types.Handle{PID: int32(cmd.Process.Pid), Window: tty.Name()},
		State:      types.StateRunning,
		LaunchedBy: launchedBy,
		StartedAt:  now,
		UpdatedAt:  now,
		LaunchTime: time.Since(start),
	}

	l.table.Put(inst)
	l.mu.Lock()
	l.sessions[inst.ID] = &session{cmd: cmd, tty: tty}
	l.mu.Unlock()

	go l.reap(inst.ID, cmd)

	l.logger.Info("editor session opened",
		zap.String("instance", inst.ID),
		zap.String("document", d.Target),
		zap.String("tty", tty.Name()),
	)
	snap := inst.Snapshot()
	return &snap, nil
}

func (l *Launcher) reap(instanceID string, cmd *exec.Cmd) {
	err := cmd.Wait()

	l.mu.Lock()
	if s, ok := l.sessions[instanceID]; ok {
		s.tty.Close()
	}
	delete(l.sessions, instanceID)
	l.mu.Unlock()

	snap, tracked := l.table.Get(instanceID)
	if !tracked {
		return
	}
	l.table.Delete(instanceID)

	l.logger.Info("editor session closed",
		zap.String("instance", instanceID),
		zap.Error(err),
	)
	snap.State = types.StateTerminated
	l.events.Emit(launcher.LocalClosed, snap)
}

func (l *Launcher) SwitchTo(ctx context.Context, instanceID string) bool {
	l.mu.Lock()
	_, live := l.sessions[instanceID]
	l.mu.Unlock()

	if !live {
		l.table.Delete(instanceID)
		return false
	}
	return true
}

func (l *Launcher) Terminate(ctx context.Context, instanceID string, force bool) bool {
	l.mu.Lock()
	s, ok := l.sessions[instanceID]
	l.mu.Unlock()
	if !ok {
		return l.table.Delete(instanceID)
	}

	sig := syscall.SIGTERM
	if force {
		sig = syscall.SIGKILL
	}
	_ = s.cmd.Process.Signal(sig)

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
		l.mu.Lock()
		_, live := l.sessions[snap.ID]
		l.mu.Unlock()
		if !live {
			l.table.Delete(snap.ID)
			continue
		}
		out = append(out, snap)
	}
	return out
}

func (l *Launcher) Cleanup(ctx context.Context, inst types.ApplicationInstance) {
	l.mu.Lock()
	s, ok := l.sessions[inst.ID]
	delete(l.sessions, inst.ID)
	l.mu.Unlock()

	if ok {
		_ = s.cmd.Process.Kill()
		s.tty.Close()
	}
	l.table.Delete(inst.ID)
}

func (l *Launcher) Events() *launcher.Emitter { return l.events }

// Resize adjusts the session's pty to the embedding pane's dimensions.
func (l *Launcher) Resize(instanceID string, rows, cols uint16) error {
	l.mu.Lock()
	s, ok := l.sessions[instanceID]
	l.mu.Unlock()
	if !ok {
		return types.ErrInstanceNotFound
	}
	return pty.Setsize(s.tty, &pty.Winsize{Rows: rows, Cols: cols})
}
