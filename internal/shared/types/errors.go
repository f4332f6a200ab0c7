package types

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedDescriptor means no registered launcher claims the descriptor.
	ErrUnsupportedDescriptor = errors.New("no launcher supports descriptor")

	// ErrInstanceNotFound means a switch or terminate referenced an unknown
	// or stale instance id.
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrRoleDenied means the launching user does not satisfy the
	// descriptor's minimum-role gate.
	ErrRoleDenied = errors.New("user role below descriptor minimum")
)

// LaunchMechanismError wraps a mechanism-specific failure during launch.
type LaunchMechanismError struct {
	Descriptor string
	Err        error
}

func (e *LaunchMechanismError) Error() string {
	return fmt.Sprintf("launch of %q failed: %v", e.Descriptor, e.Err)
}

func (e *LaunchMechanismError) Unwrap() error { return e.Err }

// HotkeyRegistrationError reports a single binding that could not be
// registered. Non-fatal: the gateway continues with whichever bindings
// succeeded.
type HotkeyRegistrationError struct {
	Binding string
	Err     error
}

func (e *HotkeyRegistrationError) Error() string {
	return fmt.Sprintf("hotkey binding %q not registered: %v", e.Binding, e.Err)
}

func (e *HotkeyRegistrationError) Unwrap() error { return e.Err }
