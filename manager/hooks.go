package manager

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"extensions.GO/core/event"
	"extensions.GO/core/loader"
	"extensions.GO/cron"
	"extensions.GO/extension"
	"extensions.GO/sdk"
)

type hookKind int

const (
	hookCron hookKind = iota
	hookEvent
)

// registeredHook is one live binding. Cron bindings own their task; event bindings keep
// the subscription handle needed to remove exactly that handler. path is the module
// teardown evicts.
type registeredHook struct {
	kind      hookKind
	extension string
	path      string
	task      *cron.Task
	handler   sdk.CronHandler
	sub       event.Subscription
}

func (m *Manager) registerHooks(store *extension.Store) {
	for _, ext := range store.ByType(extension.TypeHook) {
		if err := m.registerHook(ext); err != nil {
			m.log.Warn("couldn't register hook", zap.String("extension", ext.Name), zap.Error(err))
		}
	}
}

// registerHook keeps the loaded module cached only while one of its bindings is live.
func (m *Manager) registerHook(ext extension.Extension) error {
	path := ext.EntrypointPath()
	mod, err := m.loader.Load(path)
	if err != nil {
		return err
	}
	live := len(m.hooks)
	defer func() {
		if len(m.hooks) == live {
			m.loader.Unload(path)
		}
	}()

	hook, ok := mod.Export.(loader.Hook)
	if !ok || hook.Register == nil {
		return fmt.Errorf("%s does not export a hook", path)
	}
	bindings, err := callHook(hook.Register, m.capabilitiesFor(ext))
	if err != nil {
		return err
	}

	for _, b := range bindings {
		switch b := b.(type) {
		case sdk.Scheduled:
			if b.Handler == nil {
				m.log.Warn("scheduled hook without handler", zap.String("extension", ext.Name), zap.String("cron", b.Expr))
				continue
			}
			if err := cron.Validate(b.Expr); err != nil {
				m.log.Warn("couldn't register cron hook, invalid cron expression",
					zap.String("extension", ext.Name), zap.String("cron", b.Expr), zap.Error(err))
				continue
			}
			task, err := m.scheduler.Schedule(b.Expr, m.cronJob(ext.Name, b.Expr, b.Handler))
			if err != nil {
				m.log.Warn("couldn't schedule cron hook", zap.String("extension", ext.Name), zap.Error(err))
				continue
			}
			m.hooks = append(m.hooks, registeredHook{kind: hookCron, extension: ext.Name, path: path, task: task, handler: b.Handler})
		case sdk.OnEvent:
			if b.Handler == nil || b.Event == "" {
				m.log.Warn("event hook without event or handler", zap.String("extension", ext.Name))
				continue
			}
			sub := m.bus.On(b.Event, event.Handler(b.Handler))
			m.hooks = append(m.hooks, registeredHook{kind: hookEvent, extension: ext.Name, path: path, sub: sub})
		default:
			m.log.Warn("ignoring unknown hook binding", zap.String("extension", ext.Name), zap.String("binding", fmt.Sprintf("%T", b)))
		}
	}
	return nil
}

// cronJob wraps a scheduled handler: it checks the schedule flag at fire time and keeps
// handler failures away from the scheduler.
func (m *Manager) cronJob(name, expr string, h sdk.CronHandler) func() {
	return func() {
		if !m.schedule.Load() {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				m.log.Error("scheduled hook panicked", zap.String("extension", name), zap.String("cron", expr), zap.Any("panic", r))
			}
		}()
		if err := h(context.Background()); err != nil {
			m.log.Warn("scheduled hook failed", zap.String("extension", name), zap.String("cron", expr), zap.Error(err))
		}
	}
}

func callHook(register sdk.HookFunc, caps sdk.Capabilities) (bindings []sdk.Binding, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("register panicked: %v", r)
		}
	}()
	return register(caps)
}

func (m *Manager) capabilitiesFor(ext extension.Extension) sdk.Capabilities {
	caps := m.caps
	if caps.Logger != nil {
		caps.Logger = caps.Logger.With(zap.String("extension", ext.Name))
	}
	return caps
}

// RunScheduled runs every scheduled handler of one hook extension now, ignoring the
// schedule flag. It returns how many handlers ran.
func (m *Manager) RunScheduled(ctx context.Context, name string) (int, error) {
	m.mu.Lock()
	var handlers []sdk.CronHandler
	for _, h := range m.hooks {
		if h.kind == hookCron && h.extension == name {
			handlers = append(handlers, h.handler)
		}
	}
	m.mu.Unlock()
	if len(handlers) == 0 {
		return 0, fmt.Errorf("no scheduled hooks registered by %q", name)
	}

	var errs []error
	for _, h := range handlers {
		if err := runCron(ctx, h); err != nil {
			errs = append(errs, err)
		}
	}
	return len(handlers), errors.Join(errs...)
}

func runCron(ctx context.Context, h sdk.CronHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx)
}
