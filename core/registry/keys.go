package registry

// Keys for GlobalRegistry.
const (
	// Compiled-in extension modules, registered from init() and locked once the first manager starts.
	KeyRegistryNative = "registry:native"
	// Extra CLI commands contributed by compiled-in packages.
	KeyRegistryCmd = "registry:cmd"
)
