package hotkey

// NopRegistrar accepts every grab and release. Used on headless deployments
// and in environments where a platform hook is not compiled in; the
// switcher stays drivable through its API surface.
type NopRegistrar struct{}

func (NopRegistrar) Register(Binding) error { return nil }
func (NopRegistrar) Unregister(int) error   { return nil }
