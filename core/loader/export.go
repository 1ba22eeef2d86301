package loader

import "extensions.GO/sdk"

// Export is the decoded shape of a loaded module, fixed at load time.
// It is one of Hook, Named or Scoped.
type Export interface {
	export()
}

// Hook is a hook extension's registration function.
type Hook struct {
	Register sdk.HookFunc
}

// Named is an endpoint mounted under the extension's own name.
type Named struct {
	Register sdk.EndpointFunc
}

// Scoped is an endpoint mounted under an explicit ID.
type Scoped struct {
	ID       string
	Register sdk.EndpointFunc
}

func (Hook) export()   {}
func (Named) export()  {}
func (Scoped) export() {}

// Factory builds a fresh export for a compiled-in module. It is called on every load,
// so a reload gets new state.
type Factory func() Export
