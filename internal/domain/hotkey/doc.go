// Package hotkey owns global chord registration and translates raw key
// signals into semantic switching commands.
//
// Key Components:
//   - Gateway: registers chords, dispatches Command values to subscribers
//   - Registrar: the platform hook that grabs and releases chords
//   - Mode: kiosk grabs the bare system chords, normal only the Ctrl variants
//
// Chord grabs are independent: a chord held by another process is logged and
// skipped while the rest keep working.
package hotkey
