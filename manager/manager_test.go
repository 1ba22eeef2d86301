package manager

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"extensions.GO/config"
	"extensions.GO/core/event"
	"extensions.GO/core/loader"
	"extensions.GO/core/messenger"
	"extensions.GO/cron"
	"extensions.GO/extension"
	"extensions.GO/sdk"
)

type fakeDiscoverer struct {
	mu    sync.Mutex
	exts  []extension.Extension
	err   error
	calls int
}

func (d *fakeDiscoverer) EnsureDirs(string, []extension.Type) error {
	return d.err
}

func (d *fakeDiscoverer) PackageExtensions(string, []extension.Type) ([]extension.Extension, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return nil, nil
}

func (d *fakeDiscoverer) LocalExtensions(_ string, types []extension.Type) ([]extension.Extension, error) {
	var out []extension.Extension
	for _, e := range d.exts {
		for _, t := range types {
			if e.Type == t {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (d *fakeDiscoverer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type fakeInstaller struct {
	calls int
	err   error
}

func (f *fakeInstaller) Install(context.Context, string) error {
	f.calls++
	return f.err
}

type fakeBundler struct {
	calls int
	err   error
}

func (f *fakeBundler) Generate(_ context.Context, store *extension.Store) (map[extension.Type]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return map[extension.Type]string{extension.TypePanel: "export default " + strings.Join(store.Names(extension.TypePanel), ",")}, nil
}

type harness struct {
	m         *Manager
	disc      *fakeDiscoverer
	scheduler *cron.Scheduler
	bus       *event.Emitter
	loader    *loader.Registry
	logs      *observer.ObservedLogs
}

func newHarness(t *testing.T, exts []extension.Extension, mutate func(*config.Config, *Deps)) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	h := &harness{
		disc:      &fakeDiscoverer{exts: exts},
		scheduler: cron.New(log),
		bus:       event.NewEmitter(log),
		loader:    loader.New(log),
		logs:      logs,
	}
	cfg := &config.Config{ExtensionsPath: t.TempDir(), PublicURL: "http://localhost:8080"}
	deps := Deps{
		Discoverer: h.disc,
		Loader:     h.loader,
		Scheduler:  h.scheduler,
		Bus:        h.bus,
		Installer:  &fakeInstaller{},
		Logger:     log,
	}
	if mutate != nil {
		mutate(cfg, &deps)
	}
	h.m = New(cfg, deps)
	t.Cleanup(func() { _ = h.m.Shutdown(context.Background()) })
	return h
}

// native registers f under a test-unique id and returns its entrypoint.
func native(t *testing.T, suffix string, f loader.Factory) string {
	t.Helper()
	id := strings.ToLower(t.Name()) + "-" + suffix
	loader.RegisterNative(id, f)
	t.Cleanup(func() { loader.UnregisterNative(id) })
	return extension.NativePrefix + id
}

func ext(name string, typ extension.Type, entry string) extension.Extension {
	return extension.Extension{Name: name, Type: typ, Path: "/virtual/" + name, Entrypoint: entry}
}

func hookOf(bindings ...sdk.Binding) loader.Factory {
	return func() loader.Export {
		return loader.Hook{Register: func(sdk.Capabilities) ([]sdk.Binding, error) { return bindings, nil }}
	}
}

func namedOf(register sdk.EndpointFunc) loader.Factory {
	return func() loader.Export { return loader.Named{Register: register} }
}

func noopEvent(context.Context, map[string]any) error { return nil }
func noopCron(context.Context) error                  { return nil }

func hello(body string) sdk.EndpointFunc {
	return func(r sdk.Router, _ sdk.Capabilities) error {
		r.GET("/hello", func(c echo.Context) error { return c.String(http.StatusOK, body) })
		return nil
	}
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestInitialize_ListsDiscoveredExtensions(t *testing.T) {
	exts := []extension.Extension{
		ext("audit", extension.TypeHook, native(t, "audit", hookOf(sdk.On("items.create", noopEvent)))),
		ext("greet", extension.TypeEndpoint, native(t, "greet", namedOf(hello("hi")))),
		ext("notify", extension.TypeHook, native(t, "notify", hookOf())),
	}
	h := newHarness(t, exts, nil)

	require.NoError(t, h.m.Initialize(context.Background(), Options{Schedule: true}))

	assert.Equal(t, StateActive, h.m.State())
	assert.Equal(t, []string{"audit", "greet", "notify"}, h.m.ListExtensions(""))
	assert.Equal(t, []string{"audit", "notify"}, h.m.ListExtensions(extension.TypeHook))
	assert.Equal(t, []string{"greet"}, h.m.ListExtensions(extension.TypeEndpoint))
	assert.Empty(t, h.m.ListExtensions(extension.TypePanel))
	assert.Len(t, h.m.Extensions(), 3)
}

func TestInitialize_SecondCallIsNoop(t *testing.T) {
	exts := []extension.Extension{
		ext("audit", extension.TypeHook, native(t, "audit", hookOf(
			sdk.Schedule("@every 1h", noopCron),
			sdk.On("items.create", noopEvent),
		))),
		ext("greet", extension.TypeEndpoint, native(t, "greet", namedOf(hello("hi")))),
	}
	h := newHarness(t, exts, nil)
	ctx := context.Background()

	require.NoError(t, h.m.Initialize(ctx, Options{Schedule: true}))
	require.NoError(t, h.m.Initialize(ctx, Options{Schedule: true}))

	assert.Equal(t, 2, h.m.HookCount())
	assert.Equal(t, 1, h.m.EndpointCount())
	assert.Equal(t, 1, h.scheduler.Len())
	assert.Equal(t, 1, h.bus.Count("items.create"))
	assert.Equal(t, 2, h.loader.Loads())
	assert.Equal(t, 1, h.disc.Calls())
}

func TestReload_LeavesNoStaleRegistrations(t *testing.T) {
	var loads, fired atomic.Int32
	hook := func() loader.Export {
		loads.Add(1)
		return loader.Hook{Register: func(sdk.Capabilities) ([]sdk.Binding, error) {
			return []sdk.Binding{
				sdk.Schedule("@every 1h", noopCron),
				sdk.On("order.paid", func(context.Context, map[string]any) error { fired.Add(1); return nil }),
			}, nil
		}}
	}
	exts := []extension.Extension{
		ext("audit", extension.TypeHook, native(t, "audit", hook)),
		ext("greet", extension.TypeEndpoint, native(t, "greet", namedOf(hello("hi")))),
	}
	h := newHarness(t, exts, nil)
	ctx := context.Background()
	require.NoError(t, h.m.Initialize(ctx, Options{Schedule: true}))

	for i := 0; i < 3; i++ {
		require.NoError(t, h.m.Reload(ctx))
	}

	assert.Equal(t, StateActive, h.m.State())
	assert.Equal(t, 1, h.scheduler.Len())
	assert.Equal(t, 1, h.scheduler.Entries())
	assert.Equal(t, 1, h.bus.Len())
	assert.Equal(t, 2, h.m.HookCount())
	assert.Equal(t, 1, h.m.EndpointCount())
	assert.Equal(t, int32(4), loads.Load(), "every reload loads the module again")

	h.bus.Emit(ctx, "order.paid", nil)
	assert.Equal(t, int32(1), fired.Load())

	assert.Equal(t, http.StatusOK, get(h.m.Router(), "/greet/hello").Code)
}

func TestReload_NoopWhenUninitialized(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.m.Reload(context.Background()))
	assert.Equal(t, StateUninitialized, h.m.State())
	assert.Equal(t, 0, h.disc.Calls())
}

func TestHooks_InvalidCronIsSkipped(t *testing.T) {
	exts := []extension.Extension{
		ext("bad", extension.TypeHook, native(t, "bad", hookOf(
			sdk.Schedule("not-a-schedule", noopCron),
			sdk.On("ping", noopEvent),
		))),
		ext("good", extension.TypeHook, native(t, "good", hookOf(sdk.Schedule("@daily", noopCron)))),
	}
	h := newHarness(t, exts, nil)
	require.NoError(t, h.m.Initialize(context.Background(), Options{Schedule: true}))

	assert.Equal(t, 2, h.m.HookCount())
	assert.Equal(t, 1, h.scheduler.Len())
	assert.Equal(t, 1, h.bus.Count("ping"))

	warned := h.logs.FilterMessage("couldn't register cron hook, invalid cron expression")
	require.Equal(t, 1, warned.Len())
	assert.Equal(t, "bad", warned.All()[0].ContextMap()["extension"])
}

func TestHooks_FailingExtensionIsIsolated(t *testing.T) {
	exts := []extension.Extension{
		ext("throws", extension.TypeHook, native(t, "throws", func() loader.Export {
			return loader.Hook{Register: func(sdk.Capabilities) ([]sdk.Binding, error) { return nil, errors.New("boom") }}
		})),
		ext("panics", extension.TypeHook, native(t, "panics", func() loader.Export {
			return loader.Hook{Register: func(sdk.Capabilities) ([]sdk.Binding, error) { panic("kaboom") }}
		})),
		ext("missing", extension.TypeHook, extension.NativePrefix+"no-such-module"),
		ext("wrong", extension.TypeHook, native(t, "wrong", namedOf(hello("x")))),
		ext("fine", extension.TypeHook, native(t, "fine", hookOf(sdk.On("ping", noopEvent)))),
	}
	h := newHarness(t, exts, nil)
	require.NoError(t, h.m.Initialize(context.Background(), Options{Schedule: true}))

	assert.Equal(t, 1, h.m.HookCount())
	assert.Equal(t, 1, h.bus.Count("ping"))
	assert.Equal(t, 4, h.logs.FilterMessage("couldn't register hook").Len())
}

func TestEndpoints_FailingExtensionDoesNotBlockOthers(t *testing.T) {
	exts := []extension.Extension{
		ext("broken", extension.TypeEndpoint, native(t, "broken", namedOf(func(sdk.Router, sdk.Capabilities) error {
			return errors.New("boom")
		}))),
		ext("panicky", extension.TypeEndpoint, native(t, "panicky", namedOf(func(sdk.Router, sdk.Capabilities) error {
			panic("kaboom")
		}))),
		ext("good", extension.TypeEndpoint, native(t, "good", namedOf(hello("hi")))),
		ext("scoped-ext", extension.TypeEndpoint, native(t, "scoped", func() loader.Export {
			return loader.Scoped{ID: "greetings", Register: hello("scoped")}
		})),
	}
	h := newHarness(t, exts, nil)
	require.NoError(t, h.m.Initialize(context.Background(), Options{Schedule: true}))

	assert.Equal(t, 2, h.m.EndpointCount())
	assert.Equal(t, 2, h.logs.FilterMessage("couldn't register endpoint").Len())

	rec := get(h.m.Router(), "/good/hello")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi", rec.Body.String())

	rec = get(h.m.Router(), "/greetings/hello")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "scoped", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, get(h.m.Router(), "/scoped-ext/hello").Code)
}

func TestEndpoints_ReceiveCapabilities(t *testing.T) {
	var got sdk.Capabilities
	exts := []extension.Extension{
		ext("caps", extension.TypeEndpoint, native(t, "caps", namedOf(func(_ sdk.Router, caps sdk.Capabilities) error {
			got = caps
			return nil
		}))),
	}
	h := newHarness(t, exts, func(_ *config.Config, d *Deps) {
		d.Capabilities = &sdk.Capabilities{
			Env:        map[string]string{"APP_NAME": "test"},
			Exceptions: sdk.DefaultExceptions(),
			Logger:     zap.NewNop(),
		}
	})
	require.NoError(t, h.m.Initialize(context.Background(), Options{}))

	assert.Equal(t, "test", got.Env["APP_NAME"])
	assert.NotNil(t, got.Exceptions.NotFound)
	assert.NotNil(t, got.Logger)
}

func TestInstall_InvalidNameHasNoSideEffects(t *testing.T) {
	inst := &fakeInstaller{}
	h := newHarness(t, nil, func(_ *config.Config, d *Deps) { d.Installer = inst })
	ctx := context.Background()
	require.NoError(t, h.m.Initialize(ctx, Options{}))

	assert.False(t, h.m.Install(ctx, "bad name!"))
	assert.Equal(t, 0, inst.calls)
	assert.Equal(t, 1, h.disc.Calls())
}

func TestInstall_SuccessReloadsOnce(t *testing.T) {
	inst := &fakeInstaller{}
	bus := messenger.NewLocal()
	h := newHarness(t, nil, func(_ *config.Config, d *Deps) {
		d.Installer = inst
		d.Messenger = bus
	})
	ctx := context.Background()
	require.NoError(t, h.m.Initialize(ctx, Options{}))

	var signals []messenger.Message
	unsub, err := bus.Subscribe(ctx, ReloadChannel, func(m messenger.Message) { signals = append(signals, m) })
	require.NoError(t, err)
	defer unsub()

	assert.True(t, h.m.Install(ctx, "valid-name"))
	assert.Equal(t, 1, inst.calls)
	assert.Equal(t, 2, h.disc.Calls())
	require.Len(t, signals, 1)
	assert.Equal(t, "valid-name", signals[0]["extension"])
	assert.Equal(t, h.m.ID(), signals[0]["origin"])
}

func TestInstall_InstallerFailure(t *testing.T) {
	inst := &fakeInstaller{err: errors.New("registry down")}
	h := newHarness(t, nil, func(_ *config.Config, d *Deps) { d.Installer = inst })
	ctx := context.Background()
	require.NoError(t, h.m.Initialize(ctx, Options{}))

	assert.False(t, h.m.Install(ctx, "valid-name"))
	assert.Equal(t, 1, inst.calls)
	assert.Equal(t, 1, h.disc.Calls())
}

func TestReloadSignalFromAnotherInstance(t *testing.T) {
	shared := messenger.NewLocal()
	a := newHarness(t, nil, func(_ *config.Config, d *Deps) { d.Messenger = shared })
	b := newHarness(t, nil, func(_ *config.Config, d *Deps) { d.Messenger = shared })
	ctx := context.Background()
	require.NoError(t, a.m.Initialize(ctx, Options{}))
	require.NoError(t, b.m.Initialize(ctx, Options{}))

	require.True(t, a.m.Install(ctx, "shared-pkg"))

	assert.Equal(t, 2, a.disc.Calls(), "own signal is ignored")
	assert.Equal(t, 2, b.disc.Calls())
}

func TestScheduleFlagCheckedAtFireTime(t *testing.T) {
	h := newHarness(t, nil, nil)
	require.NoError(t, h.m.Initialize(context.Background(), Options{Schedule: false}))

	calls := 0
	job := h.m.cronJob("nightly", "@daily", func(context.Context) error { calls++; return nil })

	job()
	assert.Equal(t, 0, calls)

	h.m.SetSchedule(true)
	job()
	assert.Equal(t, 1, calls)

	h.m.SetSchedule(false)
	job()
	assert.Equal(t, 1, calls)
}

func TestScheduleDisabledKeepsTaskAndResumes(t *testing.T) {
	fired := make(chan struct{}, 10)
	exts := []extension.Extension{
		ext("ticker", extension.TypeHook, native(t, "ticker", hookOf(
			sdk.Schedule("* * * * * *", func(context.Context) error { fired <- struct{}{}; return nil }),
		))),
	}
	h := newHarness(t, exts, nil)
	require.NoError(t, h.m.Initialize(context.Background(), Options{Schedule: false}))
	assert.Equal(t, 1, h.scheduler.Len())

	select {
	case <-fired:
		t.Fatal("handler ran while schedules were disabled")
	case <-time.After(1500 * time.Millisecond):
	}
	assert.Equal(t, 1, h.scheduler.Len())

	h.m.SetSchedule(true)
	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("handler did not run after schedules were re-enabled")
	}
}

func TestCronHandlerFailuresAreLogged(t *testing.T) {
	h := newHarness(t, nil, nil)
	h.m.SetSchedule(true)

	assert.NotPanics(t, h.m.cronJob("p", "@daily", func(context.Context) error { panic("boom") }))
	assert.NotPanics(t, h.m.cronJob("e", "@daily", func(context.Context) error { return errors.New("nope") }))

	assert.Equal(t, 1, h.logs.FilterMessage("scheduled hook panicked").Len())
	assert.Equal(t, 1, h.logs.FilterMessage("scheduled hook failed").Len())
}

func TestInitialize_StoresOptionsEvenWhenActive(t *testing.T) {
	h := newHarness(t, nil, nil)
	ctx := context.Background()
	require.NoError(t, h.m.Initialize(ctx, Options{Schedule: true}))
	require.NoError(t, h.m.Initialize(ctx, Options{Schedule: false}))
	assert.False(t, h.m.Schedule())

	require.NoError(t, h.m.Reload(ctx))
	assert.False(t, h.m.Schedule())
}

func TestInitialize_DiscoveryFailureMeansNoExtensions(t *testing.T) {
	h := newHarness(t, []extension.Extension{ext("x", extension.TypeHook, "native:x")}, nil)
	h.disc.err = errors.New("permission denied")

	require.NoError(t, h.m.Initialize(context.Background(), Options{}))
	assert.Equal(t, StateActive, h.m.State())
	assert.Empty(t, h.m.ListExtensions(""))
	assert.Equal(t, 1, h.logs.FilterMessage("couldn't load extensions").Len())
}

func TestBundles_GeneratedInAppMode(t *testing.T) {
	gen := &fakeBundler{}
	exts := []extension.Extension{
		ext("map", extension.TypePanel, "index.js"),
		ext("audit", extension.TypeHook, native(t, "audit", hookOf(sdk.On("ping", noopEvent)))),
	}
	h := newHarness(t, exts, func(cfg *config.Config, d *Deps) {
		cfg.ServeApp = true
		d.Bundler = gen
	})
	ctx := context.Background()
	require.NoError(t, h.m.Initialize(ctx, Options{}))

	code, ok := h.m.Bundle(extension.TypePanel)
	require.True(t, ok)
	assert.Equal(t, "export default map", code)
	assert.Equal(t, []string{"map"}, h.m.ListExtensions(extension.TypePanel))

	require.NoError(t, h.m.Reload(ctx))
	assert.Equal(t, 2, gen.calls)
}

func TestBundles_SkippedWithoutAppMode(t *testing.T) {
	gen := &fakeBundler{}
	h := newHarness(t, []extension.Extension{ext("map", extension.TypePanel, "index.js")}, func(_ *config.Config, d *Deps) {
		d.Bundler = gen
	})
	require.NoError(t, h.m.Initialize(context.Background(), Options{}))

	assert.Equal(t, 0, gen.calls)
	assert.Empty(t, h.m.ListExtensions(extension.TypePanel))
	_, ok := h.m.Bundle(extension.TypePanel)
	assert.False(t, ok)
}

func TestBundles_FailureRejectsInitializeButKeepsRegistrations(t *testing.T) {
	gen := &fakeBundler{err: errors.New("syntax error")}
	exts := []extension.Extension{
		ext("audit", extension.TypeHook, native(t, "audit", hookOf(sdk.On("ping", noopEvent)))),
	}
	h := newHarness(t, exts, func(cfg *config.Config, d *Deps) {
		cfg.ServeApp = true
		d.Bundler = gen
	})
	ctx := context.Background()

	err := h.m.Initialize(ctx, Options{})
	require.Error(t, err)
	assert.Equal(t, 1, h.m.HookCount())
	assert.Equal(t, StateActive, h.m.State())
	_, ok := h.m.Bundle(extension.TypePanel)
	assert.False(t, ok)

	require.Error(t, h.m.Reload(ctx))
	assert.Equal(t, 1, h.bus.Count("ping"))
}

func TestShutdown_TearsDownEverything(t *testing.T) {
	exts := []extension.Extension{
		ext("audit", extension.TypeHook, native(t, "audit", hookOf(
			sdk.Schedule("@hourly", noopCron),
			sdk.On("ping", noopEvent),
		))),
		ext("greet", extension.TypeEndpoint, native(t, "greet", namedOf(hello("hi")))),
	}
	h := newHarness(t, exts, nil)
	require.NoError(t, h.m.Initialize(context.Background(), Options{Schedule: true}))

	require.NoError(t, h.m.Shutdown(context.Background()))

	assert.Equal(t, StateUninitialized, h.m.State())
	assert.Equal(t, 0, h.m.HookCount())
	assert.Equal(t, 0, h.scheduler.Len())
	assert.Equal(t, 0, h.bus.Len())
	assert.Empty(t, h.loader.Loaded())
	assert.Equal(t, http.StatusNotFound, get(h.m.Router(), "/greet/hello").Code)
}

func TestInitialize_DiscoversFromDisk(t *testing.T) {
	entry := native(t, "disk", hookOf(sdk.On("ping", noopEvent)))
	core, logs := observer.New(zapcore.WarnLevel)
	root := t.TempDir()
	dir := filepath.Join(root, "hooks", "audit")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, extension.ManifestFile), []byte("entrypoint: "+entry+"\n"), 0o644))

	m := New(&config.Config{ExtensionsPath: root}, Deps{Logger: zap.New(core), Installer: &fakeInstaller{}})
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	require.NoError(t, m.Initialize(context.Background(), Options{}))

	assert.Equal(t, []string{"audit"}, m.ListExtensions(extension.TypeHook))
	assert.Equal(t, 1, m.HookCount())
	assert.Equal(t, 1, m.Bus().Count("ping"))
	assert.Zero(t, logs.Len())
	assert.DirExists(t, filepath.Join(root, "endpoints"))
	assert.DirExists(t, filepath.Join(root, extension.PackagesDir))
}

func TestRunScheduled(t *testing.T) {
	calls := 0
	exts := []extension.Extension{
		ext("nightly", extension.TypeHook, native(t, "nightly", hookOf(
			sdk.Schedule("@daily", func(context.Context) error { calls++; return nil }),
			sdk.Schedule("@weekly", func(context.Context) error { panic("boom") }),
			sdk.On("ping", noopEvent),
		))),
	}
	h := newHarness(t, exts, nil)
	ctx := context.Background()
	require.NoError(t, h.m.Initialize(ctx, Options{Schedule: false}))

	n, err := h.m.RunScheduled(ctx, "nightly")
	assert.Equal(t, 2, n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, 1, calls)

	_, err = h.m.RunScheduled(ctx, "unknown")
	assert.Error(t, err)
}

func TestReload_ServesRequestsThroughout(t *testing.T) {
	exts := []extension.Extension{
		ext("greet", extension.TypeEndpoint, native(t, "greet", namedOf(hello("hi")))),
	}
	h := newHarness(t, exts, nil)
	ctx := context.Background()
	require.NoError(t, h.m.Initialize(ctx, Options{}))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	var served atomic.Int32
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				switch rec := get(h.m.Router(), "/greet/hello"); rec.Code {
				case http.StatusOK:
					served.Add(1)
				case http.StatusNotFound:
				default:
					t.Errorf("status = %d during reload", rec.Code)
					return
				}
			}
		}()
	}
	for i := 0; i < 200; i++ {
		require.NoError(t, h.m.Reload(ctx))
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, http.StatusOK, get(h.m.Router(), "/greet/hello").Code)
	assert.Equal(t, 1, h.m.EndpointCount())
}

func TestRegistration_CachesOnlyLiveModules(t *testing.T) {
	good := native(t, "good", namedOf(hello("hi")))
	audit := native(t, "audit", hookOf(sdk.On("ping", noopEvent)))
	exts := []extension.Extension{
		ext("good", extension.TypeEndpoint, good),
		ext("broken", extension.TypeEndpoint, native(t, "broken", namedOf(func(r sdk.Router, _ sdk.Capabilities) error {
			r.GET("/half", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
			return errors.New("boom")
		}))),
		ext("audit", extension.TypeHook, audit),
		ext("empty", extension.TypeHook, native(t, "empty", hookOf())),
		ext("wrong", extension.TypeHook, native(t, "wrong", namedOf(hello("x")))),
	}
	h := newHarness(t, exts, nil)
	ctx := context.Background()
	require.NoError(t, h.m.Initialize(ctx, Options{}))

	assert.ElementsMatch(t, []string{good, audit}, h.loader.Loaded())
	assert.Equal(t, []string{"good"}, h.m.router.Mounts())

	require.NoError(t, h.m.Reload(ctx))
	assert.ElementsMatch(t, []string{good, audit}, h.loader.Loaded())

	require.NoError(t, h.m.Shutdown(ctx))
	assert.Empty(t, h.loader.Loaded())
	assert.Empty(t, h.m.router.Mounts())
}
