package hotkey

import "strings"

// Binding ids are stable across runs so a crashed process can be cleaned up
// by id alone.
const (
	bindAltTab = iota + 1
	bindShiftAltTab
	bindCtrlAltTab
	bindCtrlShiftAltTab
)

var (
	kioskBindings = []Binding{
		{ID: bindAltTab, Modifiers: []string{"alt"}, Key: "tab", Command: CommandAdvance},
		{ID: bindShiftAltTab, Modifiers: []string{"shift", "alt"}, Key: "tab", Command: CommandAdvanceReverse},
	}
	normalBindings = []Binding{
		{ID: bindCtrlAltTab, Modifiers: []string{"ctrl", "alt"}, Key: "tab", Command: CommandAdvance},
		{ID: bindCtrlShiftAltTab, Modifiers: []string{"ctrl", "shift", "alt"}, Key: "tab", Command: CommandAdvanceReverse},
	}
)

// bindingsFor returns the chord set a mode grabs: the bare system chords in
// kiosk mode, the Ctrl variants otherwise. A mode holds at most two ids.
func bindingsFor(mode Mode) []Binding {
	if mode == ModeKiosk {
		return kioskBindings
	}
	return normalBindings
}

// allBindings is every chord id the gateway could ever hold, across both
// modes. Teardown releases all of them.
func allBindings() []Binding {
	all := make([]Binding, 0, len(kioskBindings)+len(normalBindings))
	all = append(all, kioskBindings...)
	return append(all, normalBindings...)
}

// String renders the chord in config notation, e.g. "ctrl+alt+tab".
func (b Binding) String() string {
	if len(b.Modifiers) == 0 {
		return b.Key
	}
	return strings.Join(b.Modifiers, "+") + "+" + b.Key
}
