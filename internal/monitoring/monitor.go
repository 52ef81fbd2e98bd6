package monitoring

import (
	"sync"
	"time"

	"brigade/internal/kitchen"
)

// Monitor keeps a lightweight in-memory view of the kitchen's recent
// activity for status endpoints. Durable history lives in the run
// database; this is the live counter board.
type Monitor struct {
	metrics      map[string]interface{}
	metricsMutex sync.RWMutex
	startTime    time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:   make(map[string]interface{}),
		startTime: time.Now(),
	}
}

// RecordMetric records a metric value
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// GetMetric returns a specific metric value
func (m *Monitor) GetMetric(name string) (interface{}, bool) {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()
	value, exists := m.metrics[name]
	return value, exists
}

// GetMetrics returns a copy of all current metrics plus uptime
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	metrics := make(map[string]interface{}, len(m.metrics)+1)
	for k, v := range m.metrics {
		metrics[k] = v
	}
	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()
	return metrics
}

// Reset clears all metrics
func (m *Monitor) Reset() {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics = make(map[string]interface{})
}

// RecordRunSummary records the headline numbers of a finished run and
// bumps the rolling totals
func (m *Monitor) RecordRunSummary(runID string, result *kitchen.RunResult) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()

	m.metrics["last_run_id"] = runID
	m.metrics["last_run_status"] = string(result.Status)
	m.metrics["last_run_steps"] = result.Steps
	m.metrics["last_run_completed_tasks"] = result.Completed
	m.metrics["last_run_finished"] = time.Now().Format(time.RFC3339)

	m.metrics["runs_total"] = m.counter("runs_total") + 1
	m.metrics["runs_"+string(result.Status)] = m.counter("runs_"+string(result.Status)) + 1
	m.metrics["tasks_completed_total"] = m.counter("tasks_completed_total") + result.Completed
}

// counter reads an int metric, defaulting to zero. Callers hold the lock.
func (m *Monitor) counter(name string) int {
	if value, ok := m.metrics[name].(int); ok {
		return value
	}
	return 0
}
