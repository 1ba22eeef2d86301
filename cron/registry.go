package cron

import (
	"sync"

	"github.com/robfig/cron/v3"
)

// Task is one scheduled entry. Destroy removes it; a function already running is not interrupted.
type Task struct {
	Expr string

	id   cron.EntryID
	s    *Scheduler
	once sync.Once
}

// Destroy unschedules the task. Safe to call more than once.
func (t *Task) Destroy() {
	t.once.Do(func() {
		t.s.remove(t)
	})
}

type taskSet struct {
	mu    sync.Mutex
	tasks map[*Task]struct{}
}

func newTaskSet() *taskSet {
	return &taskSet{tasks: make(map[*Task]struct{})}
}

func (ts *taskSet) add(t *Task) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.tasks[t] = struct{}{}
}

func (ts *taskSet) remove(t *Task) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	delete(ts.tasks, t)
}

func (ts *taskSet) len() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.tasks)
}
