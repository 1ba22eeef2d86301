// Package loader keeps loaded extension modules, keyed by resolved entrypoint path.
//
// Modules come from two places: compiled-in factories registered with RegisterNative
// (entrypoint "native:<id>") and Go source files interpreted at load time. Load caches
// the result; Unload drops it so the next Load sees the current code on disk.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/traefik/yaegi/interp"
	"go.uber.org/zap"

	"extensions.GO/core/cache"
	"extensions.GO/extension"
)

// ErrNotFound is returned when no module exists at a path.
var ErrNotFound = errors.New("module not found")

const (
	tagNative = "native"
	tagSource = "source"
)

// Module is one loaded entrypoint.
type Module struct {
	Path     string
	Export   Export
	LoadedAt time.Time

	interpreter *interp.Interpreter
}

// Native reports whether the module is compiled in.
func (m *Module) Native() bool {
	return m.interpreter == nil
}

// Option configures a Registry.
type Option func(*Registry)

// WithGoPath sets the GOPATH interpreters resolve non-sdk imports from.
func WithGoPath(path string) Option {
	return func(r *Registry) {
		r.goPath = path
	}
}

// Registry caches modules by path.
type Registry struct {
	mu     sync.Mutex
	cache  *cache.Cache
	goPath string
	log    *zap.Logger
	loads  int
}

// New returns an empty registry.
func New(logger *zap.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		cache: cache.NewCache(),
		log:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load returns the cached module at path or loads it.
func (r *Registry) Load(path string) (*Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.cache.Get(path); ok {
		return v.(*Module), nil
	}

	var (
		mod *Module
		tag string
		err error
	)
	if id, ok := strings.CutPrefix(path, extension.NativePrefix); ok {
		mod, err = r.loadNative(path, id)
		tag = tagNative
	} else {
		mod, err = r.loadSource(path)
		tag = tagSource
	}
	if err != nil {
		return nil, err
	}

	r.loads++
	r.cache.Set(path, mod, 0, []string{tag})
	r.log.Debug("module loaded", zap.String("path", path), zap.Bool("native", mod.Native()))
	return mod, nil
}

func (r *Registry) loadNative(path, id string) (mod *Module, err error) {
	factory, ok := nativeFactory(id)
	if !ok {
		return nil, fmt.Errorf("%w: native module %q", ErrNotFound, id)
	}
	defer func() {
		if rec := recover(); rec != nil {
			mod, err = nil, fmt.Errorf("panic in native module %q: %v", id, rec)
		}
	}()
	exp := factory()
	if exp == nil {
		return nil, fmt.Errorf("%w: native module %q", ErrNoExport, id)
	}
	return &Module{Path: path, Export: exp, LoadedAt: time.Now()}, nil
}

func (r *Registry) loadSource(path string) (*Module, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	i, exp, err := evalSource(r.goPath, path, src)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &Module{Path: path, Export: exp, LoadedAt: time.Now(), interpreter: i}, nil
}

// Unload evicts the module at path. Returns whether it was loaded.
func (r *Registry) Unload(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Delete(path)
}

// UnloadAll evicts every module and returns the evicted paths.
func (r *Registry) UnloadAll() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := r.cache.DeleteByTag(tagNative)
	return append(evicted, r.cache.DeleteByTag(tagSource)...)
}

// Loaded lists cached module paths, sorted.
func (r *Registry) Loaded() []string {
	return r.cache.Keys()
}

// Loads counts cache misses that produced a module.
func (r *Registry) Loads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads
}
