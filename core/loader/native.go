package loader

import (
	"sort"

	"extensions.GO/core/registry"
)

// RegisterNative adds a compiled-in module reachable through the "native:<id>" entrypoint.
// Call from init(). Panics on duplicates or once natives are locked.
func RegisterNative(id string, f Factory) {
	ok := registry.GlobalRegistry.Update(registry.KeyRegistryNative, func(cur any) any {
		natives := copyNatives(cur)
		if _, dup := natives[id]; dup {
			panic("loader: duplicate native module " + id)
		}
		natives[id] = f
		return natives
	})
	if !ok {
		panic("loader: natives locked (register only during init)")
	}
}

// UnregisterNative removes a compiled-in module (for tests).
func UnregisterNative(id string) {
	registry.GlobalRegistry.UnlockForTesting(registry.KeyRegistryNative)
	registry.GlobalRegistry.Update(registry.KeyRegistryNative, func(cur any) any {
		natives := copyNatives(cur)
		delete(natives, id)
		return natives
	})
}

// LockNatives freezes the native catalog. Called once startup is past init.
func LockNatives() {
	registry.GlobalRegistry.Lock(registry.KeyRegistryNative)
}

// NativeIDs lists the registered compiled-in modules.
func NativeIDs() []string {
	natives := copyNatives(nil)
	if v, ok := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryNative); ok {
		natives = v.(map[string]Factory)
	}
	ids := make([]string, 0, len(natives))
	for id := range natives {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func nativeFactory(id string) (Factory, bool) {
	v, ok := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryNative)
	if !ok || v == nil {
		return nil, false
	}
	f, ok := v.(map[string]Factory)[id]
	return f, ok
}

func copyNatives(cur any) map[string]Factory {
	out := make(map[string]Factory)
	if m, ok := cur.(map[string]Factory); ok {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
