package sdk

import "context"

// CronHandler runs on a schedule.
type CronHandler func(ctx context.Context) error

// EventHandler runs synchronously when its event is emitted.
type EventHandler func(ctx context.Context, payload map[string]any) error

// Binding is one entry returned by a hook's Register. It is either Scheduled or OnEvent.
type Binding interface {
	binding()
}

// Scheduled binds Handler to a cron expression.
type Scheduled struct {
	Expr    string
	Handler CronHandler
}

// OnEvent binds Handler to a named event on the shared bus.
type OnEvent struct {
	Event   string
	Handler EventHandler
}

func (Scheduled) binding() {}
func (OnEvent) binding()   {}

// Schedule is shorthand for a Scheduled binding.
func Schedule(expr string, h CronHandler) Binding {
	return Scheduled{Expr: expr, Handler: h}
}

// On is shorthand for an OnEvent binding.
func On(event string, h EventHandler) Binding {
	return OnEvent{Event: event, Handler: h}
}
