// Package registry is a process-wide key/value store for init-time registrations.
// A key can be locked to make it immutable once the process is past init.
package registry

import "sync"

// Registry holds values and per-key locks.
type Registry struct {
	mu     sync.RWMutex
	values map[string]any
	locked map[string]bool
}

// GlobalRegistry is the shared instance used by init-time registration helpers.
var GlobalRegistry = New()

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		values: make(map[string]any),
		locked: make(map[string]bool),
	}
}

// SetGlobal stores v under key. Returns false if key is locked.
func (r *Registry) SetGlobal(key string, v any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked[key] {
		return false
	}
	r.values[key] = v
	return true
}

// GetGlobal returns the value stored under key.
func (r *Registry) GetGlobal(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

// Update applies fn to the current value under key while holding the write lock.
// Returns false without calling fn if key is locked.
func (r *Registry) Update(key string, fn func(current any) any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locked[key] {
		return false
	}
	r.values[key] = fn(r.values[key])
	return true
}

// Lock makes key immutable.
func (r *Registry) Lock(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked[key] = true
}

// IsLocked reports whether key is locked.
func (r *Registry) IsLocked(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.locked[key]
}

// UnlockForTesting lifts the lock on key.
func (r *Registry) UnlockForTesting(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locked, key)
}
