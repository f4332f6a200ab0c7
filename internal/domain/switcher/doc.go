// Package switcher implements Alt-Tab style cycling over running instances.
//
// Key Components:
//   - Switcher: circular MRU cursor over a registry snapshot
//   - Directory: the coordinator surface the switcher consumes
//   - Overlay: pluggable presentation of the candidate list
//
// The overlay opens on the first advance, hides before every commit, and is
// never shown when the registry is empty.
package switcher
