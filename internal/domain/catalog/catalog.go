// Package catalog loads and serves the application descriptors the launcher
// offers. The catalog is the single source of descriptors: nothing else in
// the system invents one.
package catalog

import (
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/shared/types"
)

// file is the on-disk shape of the catalog.
type file struct {
	Applications []types.ApplicationDescriptor `yaml:"applications"`
}

// Catalog holds the loaded descriptors, preserving file order.
type Catalog struct {
	mu     sync.RWMutex
	path   string
	logger *logging.Logger
	byID   map[string]types.ApplicationDescriptor
	order  []string
}

// Load reads and validates the catalog at path.
func Load(path string, logger *logging.Logger) (*Catalog, error) {
	c := &Catalog{path: path, logger: logger.Named("catalog")}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog file, replacing the loaded set atomically.
// On any error the previous set stays in place.
func (c *Catalog) Reload() error {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}

	byID := make(map[string]types.ApplicationDescriptor, len(f.Applications))
	order := make([]string, 0, len(f.Applications))
	for i, d := range f.Applications {
		if err := validate(d); err != nil {
			return fmt.Errorf("catalog entry %d (%q): %w", i, d.ID, err)
		}
		if _, dup := byID[d.ID]; dup {
			return fmt.Errorf("catalog entry %d: duplicate id %q", i, d.ID)
		}
		if d.MinimumRole == "" {
			d.MinimumRole = types.RoleStandard
		}
		byID[d.ID] = d
		order = append(order, d.ID)
	}

	c.mu.Lock()
	c.byID = byID
	c.order = order
	c.mu.Unlock()

	c.logger.Info("catalog loaded",
		zap.String("path", c.path),
		zap.Int("applications", len(order)),
	)
	return nil
}

// Get returns the descriptor with the given id.
func (c *Catalog) Get(id string) (types.ApplicationDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byID[id]
	return d, ok
}

// All returns the descriptors in file order.
func (c *Catalog) All() []types.ApplicationDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.ApplicationDescriptor, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// VisibleTo returns the descriptors the role is allowed to launch, in file
// order.
func (c *Catalog) VisibleTo(role types.Role) []types.ApplicationDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.ApplicationDescriptor, 0, len(c.order))
	for _, id := range c.order {
		if d := c.byID[id]; role.AtLeast(d.MinimumRole) {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of loaded descriptors.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

func validate(d types.ApplicationDescriptor) error {
	switch {
	case d.ID == "":
		return fmt.Errorf("missing id")
	case d.Name == "":
		return fmt.Errorf("missing name")
	case !d.Category.Valid():
		return fmt.Errorf("unknown category %q", d.Category)
	case d.Target == "":
		return fmt.Errorf("missing target")
	}
	if d.MinimumRole != "" {
		switch d.MinimumRole {
		case types.RoleStandard, types.RolePower, types.RoleAdmin:
		default:
			return fmt.Errorf("unknown minimum_role %q", d.MinimumRole)
		}
	}
	return nil
}
