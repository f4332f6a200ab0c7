// Package id provides centralized id generation for the launcher core.
//
// Instance ids follow the format <category>_<appID>_<random> so that logs and
// switcher entries are readable without a lookup. The random segment is a
// ULID: lexicographically sortable, collision-free across launchers.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

// EventID identifies a published lifecycle event.
type EventID string

const eventPrefix = "evt"

// Generator generates ULIDs from a guarded entropy source.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader)
	})
	return defaultGenerator
}

// NewGenerator creates a generator with the given entropy source.
// Tests can pass a deterministic reader.
func NewGenerator(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID string.
func (g *Generator) Generate() string {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// NewInstanceID builds an instance id for one running occurrence of appID.
func NewInstanceID(category types.Category, appID string) string {
	return fmt.Sprintf("%s_%s_%s", category, appID, Default().Generate())
}

// NewEventID generates an id for a lifecycle event.
func NewEventID() EventID {
	return EventID(fmt.Sprintf("%s_%s", eventPrefix, Default().Generate()))
}

// CategoryOf extracts the category segment from an instance id.
// Returns false if the id does not follow the instance id format.
func CategoryOf(instanceID string) (types.Category, bool) {
	head, rest, ok := strings.Cut(instanceID, "_")
	if !ok || rest == "" {
		return "", false
	}
	c := types.Category(head)
	return c, c.Valid()
}
