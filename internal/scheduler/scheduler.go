// Package scheduler runs periodic verification loops, one cancellable
// task per session, in a supervised registry.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/baitwatch/baitwatch/internal/logger"
	"github.com/baitwatch/baitwatch/internal/models"
)

// Verifier is the verification entry point driven by the scheduler.
type Verifier interface {
	Verify(ctx context.Context, sessionID, productID string) *models.DetectionResult
}

type task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler owns every periodic verification task. At most one loop runs
// per session; starting a session that is already running replaces its
// loop. All loops are released by StopAll on shutdown.
type Scheduler struct {
	verifier Verifier

	mu    sync.Mutex
	tasks map[string]*task
}

// New creates a Scheduler driving the given verifier.
func New(verifier Verifier) *Scheduler {
	return &Scheduler{
		verifier: verifier,
		tasks:    make(map[string]*task),
	}
}

// Start launches the periodic verification loop for a session: every
// productID is verified, then the loop sleeps interval, until the session
// is stopped. An already-running loop for the session is cancelled first.
func (s *Scheduler) Start(sessionID string, productIDs []string, interval time.Duration) {
	s.Stop(sessionID)

	ctx, cancel := context.WithCancel(context.Background())
	t := &task{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.tasks[sessionID] = t
	s.mu.Unlock()

	go s.run(ctx, t, sessionID, productIDs, interval)
	logger.Info("periodic verification started: session %s, %d products, interval %v",
		sessionID, len(productIDs), interval)
}

func (s *Scheduler) run(ctx context.Context, t *task, sessionID string, productIDs []string, interval time.Duration) {
	defer close(t.done)
	for {
		for _, productID := range productIDs {
			if ctx.Err() != nil {
				logger.Info("periodic verification cancelled: session %s", sessionID)
				return
			}
			s.verifier.Verify(ctx, sessionID, productID)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("periodic verification cancelled: session %s", sessionID)
			return
		case <-timer.C:
		}
	}
}

// Stop cancels the session's loop and waits for it to exit. Stopping a
// session with no running loop is a no-op.
func (s *Scheduler) Stop(sessionID string) {
	s.mu.Lock()
	t, ok := s.tasks[sessionID]
	if ok {
		delete(s.tasks, sessionID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	t.cancel()
	<-t.done
	logger.Info("periodic verification stopped: session %s", sessionID)
}

// StopAll cancels every running loop and waits for all of them to exit.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = make(map[string]*task)
	s.mu.Unlock()

	for _, t := range tasks {
		t.cancel()
	}
	for _, t := range tasks {
		<-t.done
	}
	if len(tasks) > 0 {
		logger.Info("stopped %d periodic verification loops", len(tasks))
	}
}

// Running reports whether the session currently has an active loop.
func (s *Scheduler) Running(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[sessionID]
	return ok
}
