// Package actuate contains the actuator implementations that carry
// finalized action records out of the kitchen core: an in-process
// simulator and a websocket gateway for physical robot bridges. Both
// satisfy the kitchen Actuator contract and are safe to retry at least
// once per action.
package actuate

import (
	"context"
	"errors"
	"sync"
	"time"

	"brigade/internal/kitchen"
)

// Simulator is an in-process actuator for demos and tests. It can delay
// each action to mimic robot motion and fail scripted actions to
// exercise the retry path.
type Simulator struct {
	mu       sync.Mutex
	latency  time.Duration
	failures map[string]int
	failWith error
	count    int
}

// NewSimulator creates a simulator with the given per-action latency
func NewSimulator(latency time.Duration) *Simulator {
	return &Simulator{
		latency:  latency,
		failures: make(map[string]int),
	}
}

// FailNext makes the next n actions for the given task id fail
func (s *Simulator) FailNext(taskID string, n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[taskID] = n
	s.failWith = err
}

// Performed reports how many actions the simulator has received
func (s *Simulator) Performed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Perform implements the kitchen Actuator contract
func (s *Simulator) Perform(ctx context.Context, record kitchen.ActionRecord) error {
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++

	taskID, _ := record.Details["task_id"].(string)
	if s.failures[taskID] > 0 {
		s.failures[taskID]--
		if s.failWith != nil {
			return s.failWith
		}
		return errors.New("simulated actuation failure")
	}
	return nil
}
