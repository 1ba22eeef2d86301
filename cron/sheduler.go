// Package cron schedules functions on cron expressions.
package cron

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Accepted syntax: standard five fields, an optional leading seconds field, and
// descriptors such as @hourly or @every 5m.
var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate reports whether expr is a valid schedule.
func Validate(expr string) error {
	_, err := parser.Parse(expr)
	return err
}

// Scheduler runs tasks on one shared cron instance.
type Scheduler struct {
	c     *cron.Cron
	tasks *taskSet

	mu      sync.Mutex
	running bool
}

// New creates a stopped scheduler. Panics in jobs are recovered and logged through logger.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := zapLogger{logger.Named("cron")}
	return &Scheduler{
		c: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l)),
		),
		tasks: newTaskSet(),
	}
}

// Schedule validates expr and adds fn. The returned task owns the entry.
func (s *Scheduler) Schedule(expr string, fn func()) (*Task, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	id := s.c.Schedule(sched, cron.FuncJob(fn))
	t := &Task{Expr: expr, id: id, s: s}
	s.tasks.add(t)
	return t, nil
}

// Start begins firing tasks. Calling it twice is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.c.Start()
	s.running = true
}

// Stop halts the scheduler. The returned context is done when running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	return s.c.Stop()
}

// Len is the number of live tasks.
func (s *Scheduler) Len() int {
	return s.tasks.len()
}

// Entries is the number of entries held by the underlying cron instance.
func (s *Scheduler) Entries() int {
	return len(s.c.Entries())
}

func (s *Scheduler) remove(t *Task) {
	s.c.Remove(t.id)
	s.tasks.remove(t)
}

// zapLogger adapts zap onto cron.Logger.
type zapLogger struct {
	l *zap.Logger
}

func (z zapLogger) Info(msg string, keysAndValues ...interface{}) {
	z.l.Sugar().Debugw(msg, keysAndValues...)
}

func (z zapLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	z.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
