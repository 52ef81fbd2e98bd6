package evaluation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brigade/internal/kitchen"
)

func TestBuiltInScenarios(t *testing.T) {
	evaluator := NewEvaluator()

	for _, id := range []string{"busy_night", "slow_night", "short_staffed", "deadline_rush"} {
		assert.True(t, evaluator.HasScenario(id), id)
	}
	assert.False(t, evaluator.HasScenario("non_existent_scenario"))

	scenarios := evaluator.Scenarios()
	require.Len(t, scenarios, 4)
	assert.Equal(t, "busy_night", scenarios[0].ID, "scenarios sorted by id")
}

func TestEvaluateUnknownScenario(t *testing.T) {
	_, err := NewEvaluator().Evaluate(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scenario")
}

func TestEvaluateBusyNight(t *testing.T) {
	result, err := NewEvaluator().Evaluate(context.Background(), "busy_night")
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 3)
	for _, outcome := range result.Outcomes {
		assert.Equal(t, kitchen.StatusCompleted, outcome.Status, outcome.Order)
		assert.Equal(t, outcome.TotalTasks, outcome.Completed, outcome.Order)
	}
	assert.Equal(t, 1.0, result.Metrics["task_completion"])
	assert.Equal(t, 1.0, result.Metrics["run_completion"])
	assert.Greater(t, result.Metrics["mean_steps"], 0.0)
}

func TestEvaluateDeadlineRushExhaustsBudget(t *testing.T) {
	result, err := NewEvaluator().Evaluate(context.Background(), "deadline_rush")
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, kitchen.StatusStepBudgetExhausted, result.Outcomes[0].Status)
	assert.Equal(t, 4, result.Outcomes[0].Steps)
	assert.Less(t, result.Metrics["task_completion"], 1.0)
	assert.Equal(t, 0.0, result.Metrics["run_completion"])
}

func TestEvaluateIsDeterministic(t *testing.T) {
	evaluator := NewEvaluator()

	first, err := evaluator.Evaluate(context.Background(), "short_staffed")
	require.NoError(t, err)
	second, err := evaluator.Evaluate(context.Background(), "short_staffed")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSlowNightHasIdleChefs(t *testing.T) {
	result, err := NewEvaluator().Evaluate(context.Background(), "slow_night")
	require.NoError(t, err)
	assert.Greater(t, result.Metrics["wait_share"], 0.0, "a three-chef brigade on one dish leaves someone waiting")
}

func TestMetricsCollectorObserveRun(t *testing.T) {
	mc := NewMetricsCollector()

	log := kitchen.NewActionLog([]string{"chef_1"})
	log.Append(
		kitchen.ActionRecord{Step: 0, AgentID: "chef_1", ActionType: "cook", Success: true},
		kitchen.ActionRecord{Step: 1, AgentID: "chef_1", ActionType: "cook", Success: false},
	)
	mc.ObserveRun(&kitchen.RunResult{
		Status:     kitchen.StatusCompleted,
		Steps:      2,
		Completed:  1,
		TotalTasks: 1,
		Log:        log,
	}, 50*time.Millisecond)
	mc.ObserveRun(&kitchen.RunResult{Status: kitchen.StatusFailed}, time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(mc.runsTotal.WithLabelValues("completed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(mc.runsTotal.WithLabelValues("failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(mc.tasksCompleted))
	assert.Equal(t, float64(1), testutil.ToFloat64(mc.actuationFailures))

	expected := strings.NewReader(`
# HELP kitchen_tasks_completed_total Tasks completed across all runs
# TYPE kitchen_tasks_completed_total counter
kitchen_tasks_completed_total 1
`)
	assert.NoError(t, testutil.GatherAndCompare(mc.Registry(), expected, "kitchen_tasks_completed_total"))
}
