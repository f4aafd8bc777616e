// Package scheduler runs maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fadedpez/gamblinghall/internal/logging"
)

// Task represents a scheduled task
type Task struct {
	Name string
	Spec string // cron expression or descriptor such as @daily
	Fn   func(context.Context) error

	entry cron.EntryID
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron    *cron.Cron
	tasks   map[string]*Task
	running bool
	mutex   sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *logging.Logger
}

// NewScheduler creates a new scheduler. A task still running when its next
// tick arrives skips that tick.
func NewScheduler(logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron:   cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		tasks:  make(map[string]*Task),
		ctx:    context.Background(),
		logger: logger,
	}
}

// AddTask adds a task to the scheduler
func (s *Scheduler) AddTask(name, spec string, fn func(context.Context) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.tasks[name]; exists {
		return fmt.Errorf("task %s already scheduled", name)
	}

	task := &Task{Name: name, Spec: spec, Fn: fn}
	id, err := s.cron.AddFunc(spec, func() { s.run(task) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for task %s: %w", spec, name, err)
	}
	task.entry = id
	s.tasks[name] = task
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.running {
		return
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.cron.Start()

	s.logger.Info("scheduler started with %d tasks", len(s.tasks))
}

// Stop stops the scheduler and waits for running tasks to finish
func (s *Scheduler) Stop() {
	s.mutex.Lock()
	if !s.running {
		s.mutex.Unlock()
		return
	}
	s.cancel()
	s.running = false
	s.mutex.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow runs a task immediately, outside its schedule
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mutex.Lock()
	task, ok := s.tasks[name]
	s.mutex.Unlock()
	if !ok {
		return fmt.Errorf("no task named %s", name)
	}
	return task.Fn(ctx)
}

// Next returns when a task is next due. It is zero before Start.
func (s *Scheduler) Next(name string) time.Time {
	s.mutex.Lock()
	task, ok := s.tasks[name]
	s.mutex.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(task.entry).Next
}

func (s *Scheduler) run(task *Task) {
	s.mutex.Lock()
	ctx := s.ctx
	s.mutex.Unlock()

	s.logger.Debug("running scheduled task %s", task.Name)
	if err := task.Fn(ctx); err != nil {
		s.logger.Error("error running task %s: %v", task.Name, err)
	}
}

// cronLogger adapts the service logger to cron's logger interface
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.With(keysAndValues...).Debug("cron: %s", msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.With(keysAndValues...).Error("cron: %s: %v", msg, err)
}
