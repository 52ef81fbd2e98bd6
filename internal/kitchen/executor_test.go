package kitchen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedActuator fails a fixed number of times per task id, then succeeds
type scriptedActuator struct {
	failures  map[string]int
	performed []ActionRecord
	err       error
}

func (a *scriptedActuator) Perform(ctx context.Context, record ActionRecord) error {
	a.performed = append(a.performed, record)
	taskID, _ := record.Details["task_id"].(string)
	if a.failures[taskID] > 0 {
		a.failures[taskID]--
		if a.err != nil {
			return a.err
		}
		return errors.New("robot refused the command")
	}
	return nil
}

func runSteps(t *testing.T, state *KitchenState, executor *StepExecutor, steps int) []ActionRecord {
	t.Helper()
	var all []ActionRecord
	for i := 0; i < steps; i++ {
		state.RecomputeAvailableTasks()
		assignment, err := GreedyAllocator{}.Allocate(state)
		require.NoError(t, err)
		records, err := executor.ExecuteStep(context.Background(), state, assignment)
		require.NoError(t, err)
		all = append(all, records...)
		state.AdvanceStep()
	}
	return all
}

func TestExecuteSingleTaskToCompletion(t *testing.T) {
	// Scenario A: one agent, one dependency-free task at its own position.
	task := taskAt("cut-1", KindSlice, 2, 2)
	task.EstimatedDuration = 3
	state := NewKitchenState(
		[]AgentRecord{{ID: "chef_1", Position: Position{X: 2, Y: 2}}},
		[]TaskDescriptor{task},
	)
	executor := NewStepExecutor(nil, 0)

	records := runSteps(t, state, executor, 3)

	require.Len(t, records, 3)
	for _, record := range records {
		assert.Equal(t, "slice", record.ActionType)
		assert.True(t, record.Success)
	}
	assert.Equal(t, true, records[2].Details["completed"])
	assert.True(t, state.AllComplete(), "task completes in estimated duration steps")
}

func TestExecuteEmitsWaitRecordsForIdleAgents(t *testing.T) {
	state := NewKitchenState(
		[]AgentRecord{
			{ID: "chef_1", Position: Position{X: 0, Y: 0}},
			{ID: "chef_2", Position: Position{X: 0, Y: 0}},
		},
		[]TaskDescriptor{taskAt("only", KindPick, 0, 0)},
	)
	executor := NewStepExecutor(nil, 0)

	records := runSteps(t, state, executor, 1)

	require.Len(t, records, 2, "one record per agent per step, idle agents included")
	assert.Equal(t, "pick", records[0].ActionType)
	assert.Equal(t, ActionWait, records[1].ActionType)
	assert.True(t, records[1].Success)
}

func TestExecuteActuationFailureRollsBack(t *testing.T) {
	actuator := &scriptedActuator{failures: map[string]int{"cut-1": 1}}
	state := NewKitchenState(
		[]AgentRecord{{ID: "chef_1", Position: Position{X: 1, Y: 5}}},
		[]TaskDescriptor{prepTask("cut-1")},
	)
	executor := NewStepExecutor(actuator, time.Second)

	first := runSteps(t, state, executor, 1)
	require.Len(t, first, 1)
	assert.False(t, first[0].Success)
	assert.Equal(t, "robot refused the command", first[0].Details["error"])
	assert.Equal(t, StatusPending, state.Tasks["cut-1"].Status, "failed task reverts to pending")
	assert.Equal(t, 0, executor.Progress("cut-1"), "progress resets on failure")

	// The task is retried and completes on a later step.
	second := runSteps(t, state, executor, 1)
	require.Len(t, second, 1)
	assert.True(t, second[0].Success)
	assert.True(t, state.AllComplete())

	// Scenario D: two records reference the same task id, one failed, one successful.
	assert.Equal(t, first[0].Details["task_id"], second[0].Details["task_id"])
}

func TestExecuteActuationTimeout(t *testing.T) {
	actuator := &scriptedActuator{
		failures: map[string]int{"cut-1": 1},
		err:      context.DeadlineExceeded,
	}
	state := NewKitchenState(
		[]AgentRecord{{ID: "chef_1", Position: Position{X: 1, Y: 5}}},
		[]TaskDescriptor{prepTask("cut-1")},
	)
	executor := NewStepExecutor(actuator, 10*time.Millisecond)

	records := runSteps(t, state, executor, 1)
	require.Len(t, records, 1)
	assert.False(t, records[0].Success)
	assert.Equal(t, "timeout", records[0].Details["error"])
	assert.Equal(t, StatusPending, state.Tasks["cut-1"].Status)
}

func TestExecuteConflictingAssignmentHaltsStep(t *testing.T) {
	state := NewKitchenState(
		[]AgentRecord{{ID: "chef_1", Position: Position{X: 0, Y: 0}}},
		[]TaskDescriptor{taskAt("a", KindPick, 0, 0)},
	)
	executor := NewStepExecutor(nil, 0)

	_, err := executor.ExecuteStep(context.Background(), state, Assignment{"chef_1": "missing"})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestExecuteActuatorSeesFinalizedRecord(t *testing.T) {
	actuator := &scriptedActuator{failures: map[string]int{}}
	state := NewKitchenState(
		[]AgentRecord{{ID: "chef_1", Position: Position{X: 1, Y: 5}}},
		[]TaskDescriptor{prepTask("cut-1")},
	)
	executor := NewStepExecutor(actuator, time.Second)

	runSteps(t, state, executor, 1)

	require.Len(t, actuator.performed, 1)
	assert.Equal(t, "chef_1", actuator.performed[0].AgentID)
	assert.Equal(t, "slice", actuator.performed[0].ActionType)
	assert.Equal(t, Position{X: 1, Y: 5}, actuator.performed[0].Position)
}
