package types

import "strings"

// Category identifies the launch mechanism an application requires.
type Category string

const (
	CategoryProcess Category = "native-process"
	CategoryEditor  Category = "embedded-editor"
	CategoryWeb     Category = "web"
	CategoryFolder  Category = "folder"
	CategoryAndroid Category = "android"
)

// Valid reports whether the category names a known launch mechanism.
func (c Category) Valid() bool {
	switch c {
	case CategoryProcess, CategoryEditor, CategoryWeb, CategoryFolder, CategoryAndroid:
		return true
	}
	return false
}

// Role is the minimum user role required to launch a descriptor.
type Role string

const (
	RoleStandard Role = "standard"
	RolePower    Role = "power"
	RoleAdmin    Role = "admin"
)

var roleRank = map[Role]int{
	RoleStandard: 0,
	RolePower:    1,
	RoleAdmin:    2,
}

// AtLeast reports whether r satisfies the required minimum role.
// Unknown roles rank below standard.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// ApplicationDescriptor is the immutable definition of a launchable thing.
// Owned by configuration; the core only reads it.
type ApplicationDescriptor struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Category    Category `json:"category" yaml:"category"`
	Target      string   `json:"target" yaml:"target"` // path, URL, or package name
	Arguments   string   `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	MinimumRole Role     `json:"minimum_role,omitempty" yaml:"minimum_role,omitempty"`
}

// Args splits the argument string into exec-style fields.
func (d ApplicationDescriptor) Args() []string {
	if strings.TrimSpace(d.Arguments) == "" {
		return nil
	}
	return strings.Fields(d.Arguments)
}
