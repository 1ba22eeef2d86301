// Package event is the shared in-process event bus. Emit runs handlers synchronously
// in subscription order on the caller's goroutine.
package event

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload map[string]any) error

// Subscription identifies one On call. Off with it removes exactly that handler.
type Subscription struct {
	id    uint64
	Event string
}

type entry struct {
	id      uint64
	handler Handler
}

// Emitter is safe for concurrent use.
type Emitter struct {
	mu       sync.RWMutex
	next     uint64
	handlers map[string][]entry
	log      *zap.Logger
}

// NewEmitter returns an emitter with no subscribers.
func NewEmitter(logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{
		handlers: make(map[string][]entry),
		log:      logger,
	}
}

// On subscribes h to event.
func (e *Emitter) On(event string, h Handler) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next++
	e.handlers[event] = append(e.handlers[event], entry{id: e.next, handler: h})
	return Subscription{id: e.next, Event: event}
}

// Off removes the handler behind sub. Handlers already running for an in-flight Emit finish.
func (e *Emitter) Off(sub Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	list := e.handlers[sub.Event]
	for i, en := range list {
		if en.id != sub.id {
			continue
		}
		rest := make([]entry, 0, len(list)-1)
		rest = append(rest, list[:i]...)
		rest = append(rest, list[i+1:]...)
		if len(rest) == 0 {
			delete(e.handlers, sub.Event)
		} else {
			e.handlers[sub.Event] = rest
		}
		return true
	}
	return false
}

// Emit calls every handler subscribed to event and returns how many ran without error.
// Handler errors and panics are logged and do not stop the remaining handlers.
func (e *Emitter) Emit(ctx context.Context, event string, payload map[string]any) int {
	e.mu.RLock()
	list := e.handlers[event]
	e.mu.RUnlock()

	ok := 0
	for _, en := range list {
		if err := e.call(ctx, en.handler, payload); err != nil {
			e.log.Error("event handler failed", zap.String("event", event), zap.Error(err))
			continue
		}
		ok++
	}
	return ok
}

func (e *Emitter) call(ctx context.Context, h Handler, payload map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, payload)
}

// Count returns the number of handlers subscribed to event.
func (e *Emitter) Count(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers[event])
}

// Len returns the number of subscriptions across all events.
func (e *Emitter) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := 0
	for _, list := range e.handlers {
		n += len(list)
	}
	return n
}
