package monitoring

import (
	"testing"

	"brigade/internal/kitchen"
)

func TestMonitor_GetMetrics(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("test_metric", 42)

	metrics := m.GetMetrics()

	value, exists := metrics["test_metric"]
	if !exists {
		t.Fatalf("Expected 'test_metric' to be present in metrics, but it was not")
	}
	if value != 42 {
		t.Errorf("Expected 'test_metric' to be 42, but got %v", value)
	}

	if _, exists = metrics["uptime_seconds"]; !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}

func TestMonitor_RecordRunSummary(t *testing.T) {
	m := NewMonitor()

	m.RecordRunSummary("run-1", &kitchen.RunResult{
		Status:     kitchen.StatusCompleted,
		Steps:      6,
		Completed:  7,
		TotalTasks: 7,
	})
	m.RecordRunSummary("run-2", &kitchen.RunResult{
		Status:     kitchen.StatusStepBudgetExhausted,
		Steps:      50,
		Completed:  3,
		TotalTasks: 7,
	})

	metrics := m.GetMetrics()

	if metrics["last_run_id"] != "run-2" {
		t.Errorf("Expected 'last_run_id' to be run-2, but got %v", metrics["last_run_id"])
	}
	if metrics["last_run_status"] != "step_budget_exhausted" {
		t.Errorf("Expected 'last_run_status' to be step_budget_exhausted, but got %v", metrics["last_run_status"])
	}
	if metrics["runs_total"] != 2 {
		t.Errorf("Expected 'runs_total' to be 2, but got %v", metrics["runs_total"])
	}
	if metrics["runs_completed"] != 1 {
		t.Errorf("Expected 'runs_completed' to be 1, but got %v", metrics["runs_completed"])
	}
	if metrics["tasks_completed_total"] != 10 {
		t.Errorf("Expected 'tasks_completed_total' to be 10, but got %v", metrics["tasks_completed_total"])
	}

	if _, exists := metrics["last_run_finished"]; !exists {
		t.Errorf("Expected 'last_run_finished' to be present in metrics, but it was not")
	}
}

func TestMonitor_Reset(t *testing.T) {
	m := NewMonitor()
	m.RecordMetric("test_metric", 42)

	m.Reset()

	metrics := m.GetMetrics()

	if _, exists := metrics["test_metric"]; exists {
		t.Errorf("Expected 'test_metric' to be removed after Reset(), but it was present")
	}
	if _, exists := metrics["uptime_seconds"]; !exists {
		t.Errorf("Expected 'uptime_seconds' to be present in metrics, but it was not")
	}
}
