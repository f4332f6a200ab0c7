package launcher

import (
	"sync"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

// LocalKind names a launcher-local event.
type LocalKind string

const (
	LocalActivated    LocalKind = "activated"
	LocalDeactivated  LocalKind = "deactivated"
	LocalClosed       LocalKind = "closed"
	LocalStateChanged LocalKind = "state_changed"
)

// LocalEvent carries a snapshot of the affected instance, never a live
// reference.
type LocalEvent struct {
	Kind     LocalKind
	Instance types.ApplicationInstance
}

// Handler receives launcher-local events. Handlers must return quickly;
// slow observers buffer on their own side.
type Handler func(LocalEvent)

// Emitter fans launcher-local events out to subscribers. The coordinator
// subscribes once per launcher at startup.
type Emitter struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Subscribe registers a handler for all event kinds.
func (e *Emitter) Subscribe(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

// Emit delivers the event to every subscriber.
func (e *Emitter) Emit(kind LocalKind, snapshot types.ApplicationInstance) {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	ev := LocalEvent{Kind: kind, Instance: snapshot}
	for _, h := range handlers {
		h(ev)
	}
}
