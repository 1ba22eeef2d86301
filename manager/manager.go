// Package manager owns the extension lifecycle: discovery, hook and endpoint registration,
// app bundles, and teardown before every reload.
package manager

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"extensions.GO/api"
	"extensions.GO/bundle"
	"extensions.GO/config"
	"extensions.GO/core/event"
	"extensions.GO/core/loader"
	"extensions.GO/core/messenger"
	"extensions.GO/cron"
	"extensions.GO/extension"
	"extensions.GO/sdk"
	"extensions.GO/service"
	"extensions.GO/service/installer"
)

// ReloadChannel carries reload signals between instances.
const ReloadChannel = "extensions.reload"

// State is the lifecycle state of a Manager.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateActive
	StateReloading
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateActive:
		return "active"
	case StateReloading:
		return "reloading"
	default:
		return "uninitialized"
	}
}

// Options are the per-initialize settings. Reload reuses the last ones given.
type Options struct {
	// Schedule gates whether scheduled hooks run when they fire. Tasks stay registered either way.
	Schedule bool
}

// Installer fetches a package into the extensions folder.
type Installer interface {
	Install(ctx context.Context, name string) error
}

// BundleGenerator compiles the app extension bundles.
type BundleGenerator interface {
	Generate(ctx context.Context, store *extension.Store) (map[extension.Type]string, error)
}

// Deps are the collaborators a Manager works with. Nil fields get defaults built from the config.
type Deps struct {
	Discoverer   extension.Discoverer
	Loader       *loader.Registry
	Scheduler    *cron.Scheduler
	Bus          *event.Emitter
	Router       *api.Router
	Bundler      BundleGenerator
	Installer    Installer
	Messenger    messenger.Messenger
	Capabilities *sdk.Capabilities
	Logger       *zap.Logger
}

// Manager is safe for concurrent use. Lifecycle operations are serialised; reads of the
// current generation never wait on them.
type Manager struct {
	cfg *config.Config
	id  string
	log *zap.Logger

	discoverer extension.Discoverer
	loader     *loader.Registry
	scheduler  *cron.Scheduler
	bus        *event.Emitter
	router     *api.Router
	bundler    BundleGenerator
	installer  Installer
	messenger  messenger.Messenger
	caps       sdk.Capabilities

	// mu serialises Initialize, Reload and Shutdown.
	mu          sync.Mutex
	state       atomic.Int32
	options     Options
	schedule    atomic.Bool
	hooks       []registeredHook
	endpoints   []registeredEndpoint
	unsubscribe func()

	// dataMu guards the current generation's descriptors and bundles.
	dataMu  sync.RWMutex
	store   *extension.Store
	bundles map[extension.Type]string
}

// New builds a manager. Nothing is discovered until Initialize.
func New(cfg *config.Config, deps Deps) *Manager {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		cfg:        cfg,
		id:         uuid.NewString(),
		log:        log,
		discoverer: deps.Discoverer,
		loader:     deps.Loader,
		scheduler:  deps.Scheduler,
		bus:        deps.Bus,
		router:     deps.Router,
		bundler:    deps.Bundler,
		installer:  deps.Installer,
		messenger:  deps.Messenger,
		store:      extension.NewStore(nil),
	}
	if m.discoverer == nil {
		m.discoverer = extension.NewFS(log)
	}
	if m.loader == nil {
		m.loader = loader.New(log)
	}
	if m.scheduler == nil {
		m.scheduler = cron.New(log)
	}
	if m.bus == nil {
		m.bus = event.NewEmitter(log)
	}
	if m.router == nil {
		m.router = api.NewRouter()
	}
	if m.bundler == nil {
		m.bundler = bundle.NewGenerator(cfg.AppAssetsPath, cfg.PublicURL, log)
	}
	if m.installer == nil {
		m.installer = installer.New(cfg.RegistryURL, cfg.ExtensionsPath, nil, log)
	}
	if m.messenger == nil {
		m.messenger = messenger.NewLocal()
	}
	if deps.Capabilities != nil {
		m.caps = *deps.Capabilities
	} else {
		m.caps = service.NewCapabilities(nil, m.bus, config.Env(), log)
	}
	return m
}

// Initialize discovers extensions and registers them. It is a no-op when already active,
// though opts still replace the stored options. Discovery failures are logged and leave
// zero extensions. A bundle failure is returned, with hooks and endpoints left registered.
func (m *Manager) Initialize(ctx context.Context, opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribe(ctx)
	return m.initialize(ctx, opts)
}

func (m *Manager) initialize(ctx context.Context, opts Options) error {
	m.options = opts
	m.schedule.Store(opts.Schedule)
	if State(m.state.Load()) == StateActive {
		return nil
	}
	m.state.Store(int32(StateInitializing))

	types := extension.EnabledTypes(m.cfg.ServeApp)
	exts, err := extension.Discover(m.discoverer, m.cfg.ExtensionsPath, types, m.log)
	if err != nil {
		m.log.Warn("couldn't load extensions", zap.String("path", m.cfg.ExtensionsPath), zap.Error(err))
		exts = nil
	}
	store := extension.NewStore(exts)
	m.dataMu.Lock()
	m.store = store
	m.dataMu.Unlock()

	m.registerHooks(store)
	m.registerEndpoints(store)
	m.scheduler.Start()
	m.state.Store(int32(StateActive))

	m.log.Info("extensions initialized",
		zap.Int("extensions", store.Len()),
		zap.Int("hooks", len(m.hooks)),
		zap.Int("endpoints", len(m.endpoints)),
	)

	if !m.cfg.ServeApp {
		return nil
	}
	bundles, err := m.bundler.Generate(ctx, store)
	if err != nil {
		return fmt.Errorf("generate app extension bundles: %w", err)
	}
	m.dataMu.Lock()
	m.bundles = bundles
	m.dataMu.Unlock()
	return nil
}

// Reload tears down the current generation and initializes again with the stored options.
// It is a no-op unless active.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if State(m.state.Load()) != StateActive {
		return nil
	}
	m.state.Store(int32(StateReloading))
	m.teardown()
	m.state.Store(int32(StateUninitialized))
	return m.initialize(ctx, m.options)
}

// teardown destroys cron tasks, unsubscribes events, clears the router and evicts the
// module behind every registration. Caller holds mu.
func (m *Manager) teardown() {
	for _, h := range m.hooks {
		switch h.kind {
		case hookCron:
			h.task.Destroy()
		case hookEvent:
			m.bus.Off(h.sub)
		}
		m.loader.Unload(h.path)
	}
	m.hooks = nil

	m.router.Reset()
	for _, ep := range m.endpoints {
		m.loader.Unload(ep.path)
	}
	m.endpoints = nil

	m.dataMu.Lock()
	m.bundles = nil
	m.dataMu.Unlock()
}

// Install validates name, installs it and reloads. An invalid name has no side effects.
func (m *Manager) Install(ctx context.Context, name string) bool {
	if err := extension.ValidateName(name); err != nil {
		m.log.Warn("refusing to install extension", zap.String("extension", name), zap.Error(err))
		return false
	}
	if err := m.installer.Install(ctx, name); err != nil {
		m.log.Error("couldn't install extension", zap.String("extension", name), zap.Error(err))
		return false
	}
	if err := m.Reload(ctx); err != nil {
		m.log.Error("reload after install failed", zap.String("extension", name), zap.Error(err))
	}
	m.broadcast(ctx, name)
	return true
}

func (m *Manager) broadcast(ctx context.Context, name string) {
	msg := messenger.Message{"origin": m.id, "extension": name}
	if err := m.messenger.Publish(ctx, ReloadChannel, msg); err != nil {
		m.log.Warn("couldn't broadcast reload", zap.Error(err))
	}
}

// subscribe listens for reload signals from other instances. Caller holds mu.
func (m *Manager) subscribe(ctx context.Context) {
	if m.unsubscribe != nil {
		return
	}
	unsub, err := m.messenger.Subscribe(ctx, ReloadChannel, func(msg messenger.Message) {
		if msg["origin"] == m.id {
			return
		}
		m.log.Info("reload requested by another instance", zap.String("origin", msg["origin"]), zap.String("extension", msg["extension"]))
		if err := m.Reload(context.Background()); err != nil {
			m.log.Error("reload failed", zap.Error(err))
		}
	})
	if err != nil {
		m.log.Warn("couldn't subscribe to reload signals", zap.Error(err))
		return
	}
	m.unsubscribe = unsub
}

// Shutdown tears everything down and stops the scheduler, waiting for running jobs
// until ctx is done.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.teardown()
	m.state.Store(int32(StateUninitialized))
	m.mu.Unlock()

	select {
	case <-m.scheduler.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetSchedule turns scheduled hook execution on or off without a reload.
func (m *Manager) SetSchedule(enabled bool) {
	m.schedule.Store(enabled)
}

// Schedule reports whether scheduled hooks currently run.
func (m *Manager) Schedule() bool {
	return m.schedule.Load()
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

// ID identifies this instance on the reload channel.
func (m *Manager) ID() string {
	return m.id
}

// Extensions returns the current generation's descriptors.
func (m *Manager) Extensions() []extension.Extension {
	m.dataMu.RLock()
	defer m.dataMu.RUnlock()
	return m.store.All()
}

// ListExtensions returns sorted extension names, limited to t unless t is empty.
func (m *Manager) ListExtensions(t extension.Type) []string {
	m.dataMu.RLock()
	defer m.dataMu.RUnlock()
	return m.store.Names(t)
}

// Bundle returns the compiled bundle for an app type.
func (m *Manager) Bundle(t extension.Type) (string, bool) {
	m.dataMu.RLock()
	defer m.dataMu.RUnlock()
	code, ok := m.bundles[t]
	return code, ok
}

// Router is the shared router endpoint extensions are mounted on.
func (m *Manager) Router() http.Handler {
	return m.router
}

// Bus is the shared event bus hooks subscribe to.
func (m *Manager) Bus() *event.Emitter {
	return m.bus
}

// HookCount is the number of live hook bindings.
func (m *Manager) HookCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hooks)
}

// EndpointCount is the number of mounted endpoint extensions.
func (m *Manager) EndpointCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.endpoints)
}
