package coordinator

import (
	"sync"
	"time"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/id"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

// Subscription is one observer's view of the coordinator event stream.
type Subscription struct {
	C      <-chan types.Event
	ch     chan types.Event
	cancel func()
	once   sync.Once
}

// Close detaches the subscription. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// bus fans coordinator-wide events out to subscriber channels. Sends are
// non-blocking: an observer that falls behind loses events rather than
// stalling lifecycle operations, and repaints from the next snapshot.
type bus struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newBus() *bus {
	return &bus{subs: make(map[*Subscription]struct{})}
}

func (b *bus) subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan types.Event, buffer)
	sub := &Subscription{C: ch, ch: ch}
	sub.cancel = func() {
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *bus) publish(kind types.EventKind, snapshot types.ApplicationInstance) types.Event {
	ev := types.Event{
		ID:        string(id.NewEventID()),
		Kind:      kind,
		Instance:  snapshot,
		Timestamp: time.Now(),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		select {
		case sub.ch <- ev:
		default: // observer lagging, drop
		}
	}
	return ev
}
