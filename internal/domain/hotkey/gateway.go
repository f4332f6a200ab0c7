package hotkey

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/monitoring"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

// Mode selects which chords the gateway grabs.
type Mode string

const (
	// ModeKiosk captures the system switching chords outright: the shell is
	// the only switcher the user gets.
	ModeKiosk Mode = "kiosk"
	// ModeNormal leaves the system chords alone and listens on the Ctrl
	// variants only.
	ModeNormal Mode = "normal"
)

// Valid reports whether the mode is one the gateway knows.
func (m Mode) Valid() bool {
	return m == ModeKiosk || m == ModeNormal
}

// Command is the semantic signal the gateway emits. Consumers never see key
// chords, only intent.
type Command string

const (
	CommandAdvance        Command = "advance"
	CommandAdvanceReverse Command = "advance-reverse"
)

// Binding is one registrable chord.
type Binding struct {
	ID        int
	Modifiers []string
	Key       string
	Command   Command
}

// Registrar is the platform hook that actually grabs and releases chords.
type Registrar interface {
	Register(b Binding) error
	Unregister(id int) error
}

// Handler receives semantic commands.
type Handler func(Command)

// Gateway owns the global chord registrations and translates raw signals
// into semantic commands.
//
// Each binding registers independently: one chord failing to grab (another
// process may hold it) is logged and skipped, the rest still work.
type Gateway struct {
	registrar Registrar
	logger    *logging.Logger
	metrics   *monitoring.Metrics

	mu       sync.Mutex
	mode     Mode
	active   map[int]Binding
	handlers []Handler
	torn     bool
}

// New creates a gateway over the platform registrar.
func New(registrar Registrar, logger *logging.Logger) *Gateway {
	return &Gateway{
		registrar: registrar,
		logger:    logger.Named("hotkey"),
		active:    make(map[int]Binding),
	}
}

// WithMetrics adds metrics tracking.
func (g *Gateway) WithMetrics(m *monitoring.Metrics) *Gateway {
	g.metrics = m
	return g
}

// Subscribe adds a command handler. Handlers run on the dispatching
// goroutine and must return quickly.
func (g *Gateway) Subscribe(h Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers = append(g.handlers, h)
}

// Init registers every binding of the mode. A binding that fails to grab is
// logged and skipped, never fatal; Init returns an error only when not a
// single chord could be registered.
func (g *Gateway) Init(mode Mode) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !mode.Valid() {
		mode = ModeNormal
	}
	g.mode = mode
	g.torn = false

	var failures []error
	for _, b := range bindingsFor(mode) {
		if err := g.registrar.Register(b); err != nil {
			regErr := &types.HotkeyRegistrationError{Binding: b.String(), Err: err}
			g.logger.Warn("chord grab failed, continuing without it",
				zap.String("binding", b.String()),
				zap.Error(err),
			)
			failures = append(failures, regErr)
			continue
		}
		g.active[b.ID] = b
	}

	g.logger.Info("hotkey gateway ready",
		zap.String("mode", string(mode)),
		zap.Int("bindings", len(g.active)),
	)
	if g.metrics != nil {
		g.metrics.HotkeyBindingsActive.Set(float64(len(g.active)))
	}

	if len(g.active) == 0 && len(failures) > 0 {
		return errors.Join(failures...)
	}
	return nil
}

// Dispatch translates a raw binding signal into its semantic command and
// fans it out. Signals for ids that never registered are dropped.
func (g *Gateway) Dispatch(bindingID int) {
	g.mu.Lock()
	b, ok := g.active[bindingID]
	handlers := make([]Handler, len(g.handlers))
	copy(handlers, g.handlers)
	g.mu.Unlock()

	if !ok {
		return
	}
	if g.metrics != nil {
		g.metrics.RecordHotkeySignal(string(b.Command))
	}
	for _, h := range handlers {
		h(b.Command)
	}
}

// Teardown releases every known chord id, not just the configured mode's
// and not just the ones that grabbed, so a half-grabbed state or a stale
// grab from a previous run never leaks past shutdown. Safe to call more
// than once.
func (g *Gateway) Teardown() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.torn {
		return
	}
	g.torn = true

	for _, b := range allBindings() {
		if err := g.registrar.Unregister(b.ID); err != nil {
			g.logger.Debug("chord release failed",
				zap.String("binding", b.String()),
				zap.Error(err),
			)
		}
		delete(g.active, b.ID)
	}
	if g.metrics != nil {
		g.metrics.HotkeyBindingsActive.Set(0)
	}
	g.logger.Info("hotkey gateway torn down")
}

// Active returns the ids of the chords currently held.
func (g *Gateway) Active() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]int, 0, len(g.active))
	for id := range g.active {
		out = append(out, id)
	}
	return out
}
