// Package schedule runs recurring background tasks on fixed intervals.
// Hoffee registers a single task here: the periodic catalog refresh, which
// must tick independently of user-initiated store mutations.
//
//	schedule.Every(2 * time.Minute).Name("menu-refresh").WithoutOverlapping().Run(refresh)
//	schedule.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hoffee-app/hoffee/pkg/logger"
)

// Task is the function signature for a scheduled task.
type Task func()

type entry struct {
	id        string
	interval  time.Duration
	task      Task
	lastRun   time.Time
	running   bool
	noOverlap bool
	mu        sync.Mutex
}

// Schedule is a fluent builder for a single entry before it is registered.
type Schedule struct {
	e *entry
}

var (
	regMu   sync.Mutex
	entries []*entry
)

// Every starts a builder for a task firing on the given interval.
func Every(interval time.Duration) *Schedule {
	return &Schedule{e: &entry{interval: interval}}
}

// WithoutOverlapping prevents a new run if the previous one is still executing.
func (s *Schedule) WithoutOverlapping() *Schedule {
	s.e.noOverlap = true
	return s
}

// Name gives the entry a human-readable identifier for logging.
func (s *Schedule) Name(id string) *Schedule {
	s.e.id = id
	return s
}

// Run registers the task. Call Start() to begin dispatching.
func (s *Schedule) Run(fn Task) {
	s.e.task = fn
	if s.e.id == "" {
		s.e.id = fmt.Sprintf("task-%d", len(entries)+1)
	}
	regMu.Lock()
	entries = append(entries, s.e)
	regMu.Unlock()
}

// Reset drops all registered entries (tests).
func Reset() {
	regMu.Lock()
	entries = nil
	regMu.Unlock()
}

// Start begins the scheduler loop in the background. It ticks every second
// and dispatches due tasks; each task runs in its own goroutine so a slow
// refresh can never block the ticker or the store.
func Start(ctx context.Context) {
	go run(ctx)
	logger.Info("schedule: scheduler started")
}

func run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("schedule: scheduler stopped")
			return
		case now := <-ticker.C:
			regMu.Lock()
			current := make([]*entry, len(entries))
			copy(current, entries)
			regMu.Unlock()

			for _, e := range current {
				if isDue(e, now) {
					dispatch(e)
				}
			}
		}
	}
}

func isDue(e *entry, now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastRun.IsZero() {
		return true // first run
	}
	return now.Sub(e.lastRun) >= e.interval
}

func dispatch(e *entry) {
	e.mu.Lock()
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping task", "id", e.id)
		return
	}
	e.running = true
	e.lastRun = time.Now()
	e.mu.Unlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", e.id, "panic", r)
			}
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
		}()

		e.task()
	}()
}
