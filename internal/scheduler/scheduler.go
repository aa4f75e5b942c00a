// v0
// internal/scheduler/scheduler.go
// Package scheduler runs the dashboard's periodic tasks. Each task keeps its
// own ticker; a failing or panicking run never cancels later runs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Task is a named periodic job.
type Task struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context)
}

// PanicHandler is told about a recovered panic.
type PanicHandler func(task string, recovered any)

var ErrUnknownTask = errors.New("unknown task")

type Scheduler struct {
	log     *slog.Logger
	onPanic PanicHandler

	mu      sync.Mutex
	tasks   []Task
	index   map[string]int
	pending map[string]time.Duration
	runs    map[string]int
	running bool
}

func New(log *slog.Logger, onPanic PanicHandler) *Scheduler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{
		log:     log.With(slog.String("component", "scheduler")),
		onPanic: onPanic,
		index:   make(map[string]int),
		pending: make(map[string]time.Duration),
		runs:    make(map[string]int),
	}
}

// Add registers t. Tasks cannot be added once Run has started.
func (s *Scheduler) Add(t Task) error {
	if t.Name == "" || t.Run == nil {
		return errors.New("task needs a name and a run func")
	}
	if t.Every <= 0 {
		return fmt.Errorf("task %s: interval must be > 0", t.Name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("task %s: scheduler already running", t.Name)
	}
	if _, dup := s.index[t.Name]; dup {
		return fmt.Errorf("task %s already registered", t.Name)
	}
	s.index[t.Name] = len(s.tasks)
	s.tasks = append(s.tasks, t)
	return nil
}

// Names lists tasks in registration order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Name
	}
	return out
}

// Runs returns how many times name has fired.
func (s *Scheduler) Runs(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[name]
}

// Run starts one ticker per task and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context must not be nil")
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	s.running = true
	tasks := append([]Task(nil), s.tasks...)
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			s.loop(ctx, t)
		}(t)
	}
	s.log.Info("scheduler_started", slog.Int("tasks", len(tasks)))
	<-ctx.Done()
	wg.Wait()

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.log.Info("scheduler_stopped")
	return nil
}

func (s *Scheduler) loop(ctx context.Context, t Task) {
	ticker := time.NewTicker(t.Every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.invoke(ctx, t)
		}
	}
}

// Tick fires name once, synchronously.
func (s *Scheduler) Tick(ctx context.Context, name string) error {
	s.mu.Lock()
	i, ok := s.index[name]
	var t Task
	if ok {
		t = s.tasks[i]
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	s.invoke(ctx, t)
	return nil
}

// Advance moves a virtual clock forward by d and fires every task whose
// interval elapsed, as many times as it elapsed. It does not touch the real
// tickers started by Run.
func (s *Scheduler) Advance(ctx context.Context, d time.Duration) {
	s.mu.Lock()
	var due []Task
	for _, t := range s.tasks {
		acc := s.pending[t.Name] + d
		for acc >= t.Every {
			due = append(due, t)
			acc -= t.Every
		}
		s.pending[t.Name] = acc
	}
	s.mu.Unlock()
	for _, t := range due {
		s.invoke(ctx, t)
	}
}

func (s *Scheduler) invoke(ctx context.Context, t Task) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("task_panic", slog.String("task", t.Name), slog.Any("panic", r))
			if s.onPanic != nil {
				s.onPanic(t.Name, r)
			}
		}
	}()
	s.mu.Lock()
	s.runs[t.Name]++
	s.mu.Unlock()
	t.Run(ctx)
}
