// Package messenger carries small control messages between instances sharing the same
// extensions folder.
package messenger

import (
	"context"
	"sync"
)

// Message is a flat string map, serialised as JSON on the wire.
type Message map[string]string

// Messenger publishes and subscribes to named channels.
type Messenger interface {
	Publish(ctx context.Context, channel string, msg Message) error
	Subscribe(ctx context.Context, channel string, fn func(Message)) (unsubscribe func(), err error)
	Close() error
}

// Local delivers messages within the process. Used when Redis is not configured.
type Local struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]func(Message)
}

// NewLocal returns an in-process messenger.
func NewLocal() *Local {
	return &Local{subs: make(map[string]map[int]func(Message))}
}

// Publish calls every subscriber of channel synchronously.
func (l *Local) Publish(_ context.Context, channel string, msg Message) error {
	l.mu.RLock()
	fns := make([]func(Message), 0, len(l.subs[channel]))
	for _, fn := range l.subs[channel] {
		fns = append(fns, fn)
	}
	l.mu.RUnlock()
	for _, fn := range fns {
		fn(msg)
	}
	return nil
}

// Subscribe registers fn on channel.
func (l *Local) Subscribe(_ context.Context, channel string, fn func(Message)) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	id := l.next
	if l.subs[channel] == nil {
		l.subs[channel] = make(map[int]func(Message))
	}
	l.subs[channel][id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs[channel], id)
	}, nil
}

// Close drops all subscribers.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = make(map[string]map[int]func(Message))
	return nil
}
