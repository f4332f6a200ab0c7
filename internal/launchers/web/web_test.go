package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

type fakeOpener struct {
	urls []string
	fail bool
}

func (f *fakeOpener) open(ctx context.Context, url string) (int32, error) {
	if f.fail {
		return 0, context.DeadlineExceeded
	}
	f.urls = append(f.urls, url)
	return 4321, nil
}

func newTestLauncher(opener *fakeOpener) *Launcher {
	l := New("xdg-open", logging.NewDevelopment())
	l.open = opener.open
	return l
}

func portal(url string) types.ApplicationDescriptor {
	return types.ApplicationDescriptor{
		ID: "portal", Name: "Corporate Portal", Category: types.CategoryWeb, Target: url,
	}
}

func TestLaunchProbesThenOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	opener := &fakeOpener{}
	l := newTestLauncher(opener)

	inst, err := l.Launch(context.Background(), portal(srv.URL), "alice")
	require.NoError(t, err)

	assert.Equal(t, []string{srv.URL}, opener.urls)
	assert.Equal(t, int32(4321), inst.Handle.PID)
	assert.Equal(t, srv.URL, inst.Handle.Window)
}

func TestLaunchAcceptsErrorStatus(t *testing.T) {
	// A 503 from the portal is still "reachable": the browser can render it.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	opener := &fakeOpener{}
	l := newTestLauncher(opener)

	_, err := l.Launch(context.Background(), portal(srv.URL), "alice")
	assert.NoError(t, err)
}

func TestLaunchFailsWhenUnreachable(t *testing.T) {
	opener := &fakeOpener{}
	l := newTestLauncher(opener)

	_, err := l.Launch(context.Background(), portal("http://127.0.0.1:1"), "alice")

	var mechErr *types.LaunchMechanismError
	require.ErrorAs(t, err, &mechErr)
	assert.Empty(t, opener.urls, "browser must not open an unreachable target")
	assert.Equal(t, 0, l.table.Len())
}

func TestSwitchToRefocusesTab(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	opener := &fakeOpener{}
	l := newTestLauncher(opener)

	inst, err := l.Launch(context.Background(), portal(srv.URL), "alice")
	require.NoError(t, err)

	require.True(t, l.SwitchTo(context.Background(), inst.ID))
	assert.Len(t, opener.urls, 2, "switch re-hands the URL to the browser")
}

func TestSwitchFailureEvicts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	opener := &fakeOpener{}
	l := newTestLauncher(opener)

	inst, err := l.Launch(context.Background(), portal(srv.URL), "alice")
	require.NoError(t, err)

	opener.fail = true
	assert.False(t, l.SwitchTo(context.Background(), inst.ID))
	assert.Equal(t, 0, l.table.Len())
}

func TestTerminateNeverKillsBrowser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	opener := &fakeOpener{}
	l := newTestLauncher(opener)

	inst, err := l.Launch(context.Background(), portal(srv.URL), "alice")
	require.NoError(t, err)

	assert.True(t, l.Terminate(context.Background(), inst.ID, true))
	assert.False(t, l.Terminate(context.Background(), inst.ID, true))
}
