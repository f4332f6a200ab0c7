package process

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/launcher"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

func sleeper() types.ApplicationDescriptor {
	return types.ApplicationDescriptor{
		ID: "sleeper", Name: "Sleeper", Category: types.CategoryProcess,
		Target: "/bin/sleep", Arguments: "60",
	}
}

func TestLaunchTracksPid(t *testing.T) {
	l := New(logging.NewDevelopment())

	inst, err := l.Launch(context.Background(), sleeper(), "alice")
	require.NoError(t, err)
	defer l.Cleanup(context.Background(), *inst)

	assert.Greater(t, inst.Handle.PID, int32(0))
	assert.Equal(t, types.StateRunning, inst.State)
	assert.Greater(t, inst.LaunchTime, time.Duration(0))

	found := l.FindExisting(context.Background(), sleeper())
	require.NotNil(t, found)
	assert.Equal(t, inst.ID, found.ID)
}

func TestLaunchRejectsUnsupported(t *testing.T) {
	l := New(logging.NewDevelopment())

	_, err := l.Launch(context.Background(), types.ApplicationDescriptor{
		ID: "portal", Name: "portal", Category: types.CategoryWeb, Target: "https://x",
	}, "alice")
	assert.ErrorIs(t, err, types.ErrUnsupportedDescriptor)
}

func TestLaunchFailureIsMechanismError(t *testing.T) {
	l := New(logging.NewDevelopment())

	_, err := l.Launch(context.Background(), types.ApplicationDescriptor{
		ID: "ghost", Name: "Ghost", Category: types.CategoryProcess,
		Target: "/nonexistent/binary.bin",
	}, "alice")

	var mechErr *types.LaunchMechanismError
	require.ErrorAs(t, err, &mechErr)
	assert.Equal(t, 0, l.table.Len())
}

func TestExitEmitsClosed(t *testing.T) {
	l := New(logging.NewDevelopment())
	closed := make(chan types.ApplicationInstance, 1)
	l.Events().Subscribe(func(ev launcher.LocalEvent) {
		if ev.Kind == launcher.LocalClosed {
			closed <- ev.Instance
		}
	})

	inst, err := l.Launch(context.Background(), types.ApplicationDescriptor{
		ID: "true", Name: "True", Category: types.CategoryProcess, Target: "/bin/true",
	}, "alice")
	require.NoError(t, err)

	select {
	case got := <-closed:
		assert.Equal(t, inst.ID, got.ID)
		assert.Equal(t, types.StateTerminated, got.State)
	case <-time.After(5 * time.Second):
		t.Fatal("no close event after process exit")
	}
	assert.Equal(t, 0, l.table.Len())
}

func TestTerminateEvictsWithoutCloseEvent(t *testing.T) {
	l := New(logging.NewDevelopment())
	var closes atomic.Int32
	l.Events().Subscribe(func(ev launcher.LocalEvent) {
		if ev.Kind == launcher.LocalClosed {
			closes.Add(1)
		}
	})

	inst, err := l.Launch(context.Background(), sleeper(), "alice")
	require.NoError(t, err)

	assert.True(t, l.Terminate(context.Background(), inst.ID, true))
	assert.Equal(t, 0, l.table.Len())

	// The reap goroutine sees the entry already gone and stays quiet.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), closes.Load())

	assert.False(t, l.Terminate(context.Background(), inst.ID, true))
}

func TestSwitchToDeadPidSelfEvicts(t *testing.T) {
	l := New(logging.NewDevelopment())
	inst, err := l.Launch(context.Background(), sleeper(), "alice")
	require.NoError(t, err)
	defer l.Cleanup(context.Background(), *inst)

	assert.True(t, l.SwitchTo(context.Background(), inst.ID))

	l.alive = func(pid int32) bool { return false }
	assert.False(t, l.SwitchTo(context.Background(), inst.ID))
	assert.Equal(t, 0, l.table.Len(), "stale entry must be self-evicted")
}

func TestActiveInstancesPrunesDead(t *testing.T) {
	l := New(logging.NewDevelopment())
	a, err := l.Launch(context.Background(), sleeper(), "alice")
	require.NoError(t, err)
	defer l.Cleanup(context.Background(), *a)

	require.Len(t, l.ActiveInstances(context.Background()), 1)

	l.alive = func(pid int32) bool { return false }
	assert.Empty(t, l.ActiveInstances(context.Background()))
	assert.Equal(t, 0, l.table.Len())
}

func TestSwitchToUnknown(t *testing.T) {
	l := New(logging.NewDevelopment())
	assert.False(t, l.SwitchTo(context.Background(), "native-process_x_01"))
}
