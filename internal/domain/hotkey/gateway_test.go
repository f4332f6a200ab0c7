package hotkey

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

type fakeRegistrar struct {
	failIDs      map[int]bool
	registered   []int
	unregistered []int
}

func (f *fakeRegistrar) Register(b Binding) error {
	if f.failIDs[b.ID] {
		return errors.New("chord already grabbed")
	}
	f.registered = append(f.registered, b.ID)
	return nil
}

func (f *fakeRegistrar) Unregister(id int) error {
	f.unregistered = append(f.unregistered, id)
	return nil
}

func TestInitKioskGrabsSystemChordsOnly(t *testing.T) {
	reg := &fakeRegistrar{}
	g := New(reg, logging.NewDevelopment())

	require.NoError(t, g.Init(ModeKiosk))
	assert.Len(t, reg.registered, 2)
	assert.Contains(t, reg.registered, bindAltTab)
	assert.Contains(t, reg.registered, bindShiftAltTab)
	assert.NotContains(t, reg.registered, bindCtrlAltTab)
	assert.NotContains(t, reg.registered, bindCtrlShiftAltTab)
}

func TestInitNormalLeavesSystemChordsAlone(t *testing.T) {
	reg := &fakeRegistrar{}
	g := New(reg, logging.NewDevelopment())

	require.NoError(t, g.Init(ModeNormal))
	assert.Len(t, reg.registered, 2)
	assert.NotContains(t, reg.registered, bindAltTab)
	assert.NotContains(t, reg.registered, bindShiftAltTab)
}

func TestPartialGrabFailureIsNotFatal(t *testing.T) {
	reg := &fakeRegistrar{failIDs: map[int]bool{bindAltTab: true}}
	g := New(reg, logging.NewDevelopment())

	require.NoError(t, g.Init(ModeKiosk), "one failed chord must not abort the rest")
	assert.Len(t, g.Active(), 1)

	// The surviving chords still dispatch.
	var got []Command
	g.Subscribe(func(c Command) { got = append(got, c) })
	g.Dispatch(bindShiftAltTab)
	assert.Equal(t, []Command{CommandAdvanceReverse}, got)

	// The failed chord stays silent.
	g.Dispatch(bindAltTab)
	assert.Len(t, got, 1)
}

func TestInitFailsOnlyWhenNothingGrabbed(t *testing.T) {
	reg := &fakeRegistrar{failIDs: map[int]bool{
		bindCtrlAltTab: true, bindCtrlShiftAltTab: true,
	}}
	g := New(reg, logging.NewDevelopment())

	err := g.Init(ModeNormal)
	require.Error(t, err)

	var regErr *types.HotkeyRegistrationError
	assert.ErrorAs(t, err, &regErr)
}

func TestDispatchSemanticCommands(t *testing.T) {
	reg := &fakeRegistrar{}
	g := New(reg, logging.NewDevelopment())
	require.NoError(t, g.Init(ModeKiosk))

	var got []Command
	g.Subscribe(func(c Command) { got = append(got, c) })

	g.Dispatch(bindAltTab)
	g.Dispatch(bindAltTab)
	g.Dispatch(bindShiftAltTab)

	assert.Equal(t, []Command{CommandAdvance, CommandAdvance, CommandAdvanceReverse}, got)
}

func TestTeardownReleasesEverythingOnce(t *testing.T) {
	reg := &fakeRegistrar{failIDs: map[int]bool{bindAltTab: true}}
	g := New(reg, logging.NewDevelopment())
	require.NoError(t, g.Init(ModeKiosk))

	g.Teardown()

	// Every known chord id is released, including the one that never
	// grabbed: a stale grab from a previous crashed run gets cleared too.
	assert.Len(t, reg.unregistered, 4)
	assert.Contains(t, reg.unregistered, bindAltTab)
	assert.Empty(t, g.Active())

	// Second teardown is a no-op.
	g.Teardown()
	assert.Len(t, reg.unregistered, 4)

	// A torn-down gateway drops signals.
	var got []Command
	g.Subscribe(func(c Command) { got = append(got, c) })
	g.Dispatch(bindShiftAltTab)
	assert.Empty(t, got)
}

func TestTeardownNormalModeClearsStaleGrabs(t *testing.T) {
	reg := &fakeRegistrar{}
	g := New(reg, logging.NewDevelopment())
	require.NoError(t, g.Init(ModeNormal))

	g.Teardown()

	// All four known ids are released even though normal mode grabbed two:
	// a previous kiosk run may have died holding the system chords.
	assert.Len(t, reg.unregistered, 4)
}

func TestUnknownModeFallsBackToNormal(t *testing.T) {
	reg := &fakeRegistrar{}
	g := New(reg, logging.NewDevelopment())

	require.NoError(t, g.Init(Mode("weird")))
	assert.Len(t, reg.registered, 2)
}
