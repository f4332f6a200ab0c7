package switcher

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

// Directory is the slice of the coordinator the switcher needs: an MRU
// ordered snapshot and the ability to switch.
type Directory interface {
	Instances() []types.ApplicationInstance
	SwitchTo(ctx context.Context, instanceID string) bool
}

// Overlay renders the switching UI. Implementations must not call back into
// the Switcher from within these methods.
type Overlay interface {
	// Show presents the candidate list with the cursor on selected.
	Show(instances []types.ApplicationInstance, selected int)
	// Move repositions the cursor within the list shown last.
	Move(selected int)
	// Hide dismisses the overlay.
	Hide()
}

// Switcher drives Alt-Tab style cycling over the instance registry.
//
// The candidate list is a snapshot taken when the overlay opens: instances
// launched mid-cycle appear on the next open, not in the current one. The
// cursor is circular in both directions.
type Switcher struct {
	mu      sync.Mutex
	dir     Directory
	overlay Overlay
	logger  *logging.Logger

	items   []types.ApplicationInstance
	cursor  int
	visible bool
}

// New creates a switcher over the directory. overlay may be nil for headless
// operation.
func New(dir Directory, overlay Overlay, logger *logging.Logger) *Switcher {
	return &Switcher{dir: dir, overlay: overlay, logger: logger.Named("switcher")}
}

// SelectNext advances the cursor one step forward, opening the overlay on
// the first advance. Returns false, declining to show anything, when the
// registry is empty.
func (s *Switcher) SelectNext(ctx context.Context) bool {
	return s.advance(ctx, 1)
}

// SelectPrevious advances the cursor one step backward.
func (s *Switcher) SelectPrevious(ctx context.Context) bool {
	return s.advance(ctx, -1)
}

func (s *Switcher) advance(ctx context.Context, step int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.visible {
		items := s.dir.Instances()
		if len(items) == 0 {
			return false
		}
		s.items = items
		s.visible = true
		// The MRU head is what the user is already on; the first advance
		// lands on the step past it.
		s.cursor = mod(step, len(items))
		if s.overlay != nil {
			s.overlay.Show(s.items, s.cursor)
		}
		return true
	}

	s.cursor = mod(s.cursor+step, len(s.items))
	if s.overlay != nil {
		s.overlay.Move(s.cursor)
	}
	return true
}

// Commit hides the overlay and switches to the selected instance. The hide
// happens before the switch so a slow or failing switch never leaves the
// overlay on screen. Returns false when the overlay is not open or the
// switch fails.
func (s *Switcher) Commit(ctx context.Context) bool {
	s.mu.Lock()
	if !s.visible {
		s.mu.Unlock()
		return false
	}
	target := s.items[s.cursor].ID
	s.hideLocked()
	s.mu.Unlock()

	if !s.dir.SwitchTo(ctx, target) {
		s.logger.Warn("selected instance vanished before switch", zap.String("instance", target))
		return false
	}
	return true
}

// Cancel dismisses the overlay without switching.
func (s *Switcher) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visible {
		s.hideLocked()
	}
}

// Refresh re-snapshots the candidate list while the overlay is open. The
// overlay is force-hidden when the registry drains to zero mid-cycle, and
// the cursor is clamped when the list shrinks.
func (s *Switcher) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.visible {
		return
	}

	items := s.dir.Instances()
	if len(items) == 0 {
		s.hideLocked()
		return
	}

	s.items = items
	if s.cursor >= len(items) {
		s.cursor = len(items) - 1
	}
	if s.overlay != nil {
		s.overlay.Show(s.items, s.cursor)
	}
}

// Visible reports whether the overlay is open.
func (s *Switcher) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}

// Selected returns the instance under the cursor, if the overlay is open.
func (s *Switcher) Selected() (types.ApplicationInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.visible {
		return types.ApplicationInstance{}, false
	}
	return s.items[s.cursor], true
}

// Watch refreshes the open overlay whenever the registry membership
// changes. Only Started and Stopped trigger a refresh: activation and
// minimize transitions reorder the MRU, and re-snapshotting on those would
// move entries out from under the cursor mid-cycle. Blocks until ctx is
// canceled or events closes; run it on its own goroutine.
func (s *Switcher) Watch(ctx context.Context, events <-chan types.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case types.EventInstanceStarted, types.EventInstanceStopped:
				s.Refresh()
			}
		}
	}
}

func (s *Switcher) hideLocked() {
	s.visible = false
	s.items = nil
	s.cursor = 0
	if s.overlay != nil {
		s.overlay.Hide()
	}
}

// mod is the non-negative remainder, so backward steps wrap correctly.
func mod(i, n int) int {
	return ((i % n) + n) % n
}
