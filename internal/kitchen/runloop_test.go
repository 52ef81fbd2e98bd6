package kitchen

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunLoop(state *KitchenState, actuator Actuator) *RunLoop {
	return &RunLoop{
		State:     state,
		Allocator: GreedyAllocator{},
		Executor:  NewStepExecutor(actuator, time.Second),
	}
}

func TestRunCompletesSimpleOrder(t *testing.T) {
	task := taskAt("cut-1", KindSlice, 2, 2)
	task.EstimatedDuration = 2
	state := NewKitchenState(
		[]AgentRecord{{ID: "chef_1", Position: Position{X: 2, Y: 2}}},
		[]TaskDescriptor{task},
	)

	result := newRunLoop(state, nil).Run(context.Background())

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, 2, result.Steps)
	assert.Equal(t, 1, result.Completed)
	assert.Empty(t, result.Diagnostics)
}

func TestRunDependencyGating(t *testing.T) {
	// Scenario C: task B depends on task A, A takes 2 steps.
	posA := Position{X: 0, Y: 0}
	posB := Position{X: 0, Y: 1}
	state := NewKitchenState(
		[]AgentRecord{{ID: "chef_1", Position: posA}},
		[]TaskDescriptor{
			{ID: "task-a", Kind: KindSlice, Target: "tomato", RequiredPosition: &posA, EstimatedDuration: 2},
			{ID: "task-b", Kind: KindCook, Target: "tomato", RequiredPosition: &posB, EstimatedDuration: 1, DependsOn: []string{"task-a"}},
		},
	)

	result := newRunLoop(state, nil).Run(context.Background())
	require.Equal(t, StatusCompleted, result.Status)

	// task-a completes on step 1, so task-b first becomes available at the
	// step 2 recomputation and the agent starts it exactly then.
	records := result.Log["chef_1"]
	require.Len(t, records, 3)
	assert.Equal(t, "task-a", records[0].Details["task_id"])
	assert.Equal(t, "task-a", records[1].Details["task_id"])
	assert.Equal(t, "task-b", records[2].Details["task_id"])
	assert.Equal(t, 3, result.Steps)
}

func TestRunLogHasOneRecordPerAgentPerStep(t *testing.T) {
	state := NewKitchenState(
		[]AgentRecord{
			{ID: "chef_1", Position: Position{X: 0, Y: 0}},
			{ID: "chef_2", Position: Position{X: 5, Y: 5}},
		},
		[]TaskDescriptor{
			taskAt("a", KindPick, 0, 0),
			taskAt("b", KindPick, 5, 5),
			taskAt("c", KindCook, 2, 2),
		},
	)

	result := newRunLoop(state, nil).Run(context.Background())
	require.Equal(t, StatusCompleted, result.Status)

	for agentID, records := range result.Log {
		require.Len(t, records, result.Steps, "agent %s", agentID)
		for i, record := range records {
			assert.Equal(t, i, record.Step, "no gaps, no duplicates")
			assert.Equal(t, agentID, record.AgentID)
		}
	}
}

func TestRunNoTaskAssignedToTwoAgents(t *testing.T) {
	state := NewKitchenState(
		[]AgentRecord{
			{ID: "chef_1", Position: Position{X: 1, Y: 5}},
			{ID: "chef_2", Position: Position{X: 1, Y: 5}},
			{ID: "chef_3", Position: Position{X: 8, Y: 5}},
		},
		[]TaskDescriptor{
			taskAt("a", KindPick, 1, 5),
			taskAt("b", KindPick, 1, 5),
			taskAt("c", KindPick, 8, 5),
			taskAt("d", KindCook, 4, 4),
		},
	)

	loop := newRunLoop(state, nil)
	loop.OnStep = func(step int, records []ActionRecord) {
		taken := make(map[string]string)
		for _, record := range records {
			taskID, ok := record.Details["task_id"].(string)
			if !ok {
				continue
			}
			if holder, dup := taken[taskID]; dup {
				t.Fatalf("step %d: task %s worked by both %s and %s", step, taskID, holder, record.AgentID)
			}
			taken[taskID] = record.AgentID
		}
	}

	result := loop.Run(context.Background())
	assert.Equal(t, StatusCompleted, result.Status)
}

func TestRunRetriesAfterActuationFailure(t *testing.T) {
	// Scenario D end to end.
	actuator := &scriptedActuator{failures: map[string]int{"cut-1": 1}}
	state := NewKitchenState(
		[]AgentRecord{{ID: "chef_1", Position: Position{X: 1, Y: 5}}},
		[]TaskDescriptor{prepTask("cut-1")},
	)

	result := newRunLoop(state, actuator).Run(context.Background())

	require.Equal(t, StatusCompleted, result.Status)
	records := result.Log["chef_1"]

	var failed, succeeded int
	for _, record := range records {
		if record.Details["task_id"] == "cut-1" {
			if record.Success {
				succeeded++
			} else {
				failed++
			}
		}
	}
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, succeeded)
}

func TestRunStepBudgetExhaustedOnCycle(t *testing.T) {
	// Scenario E: mutual dependency cycle is unsatisfiable.
	state := NewKitchenState(
		[]AgentRecord{{ID: "chef_1", Position: Position{X: 0, Y: 0}}},
		[]TaskDescriptor{
			{ID: "a", Kind: KindCook, Target: "x", EstimatedDuration: 1, DependsOn: []string{"b"}},
			{ID: "b", Kind: KindCook, Target: "x", EstimatedDuration: 1, DependsOn: []string{"a"}},
		},
	)
	loop := newRunLoop(state, nil)
	loop.StepBudget = 10

	result := loop.Run(context.Background())

	assert.Equal(t, StatusStepBudgetExhausted, result.Status)
	assert.Equal(t, 10, result.Steps)

	require.NotEmpty(t, result.Diagnostics)
	assert.Equal(t, DiagMalformedTaskGraph, result.Diagnostics[0].Kind)
}

func TestRunCancellationStopsBetweenSteps(t *testing.T) {
	state := NewKitchenState(
		[]AgentRecord{{ID: "chef_1", Position: Position{X: 0, Y: 0}}},
		[]TaskDescriptor{
			{ID: "slow", Kind: KindCook, Target: "stew", EstimatedDuration: 40},
		},
	)
	ctx, cancel := context.WithCancel(context.Background())

	loop := newRunLoop(state, nil)
	loop.OnStep = func(step int, records []ActionRecord) {
		if step == 2 {
			cancel()
		}
	}

	result := loop.Run(ctx)

	assert.Equal(t, StatusCancelled, result.Status)
	assert.Equal(t, 3, result.Steps, "run stops after the step in flight")
	require.Len(t, result.Log["chef_1"], 3)
}

func TestRunContractViolationIsTerminal(t *testing.T) {
	state := NewKitchenState(
		[]AgentRecord{{ID: "chef_1", Position: Position{X: 0, Y: 0}}},
		[]TaskDescriptor{taskAt("a", KindPick, 0, 0)},
	)
	loop := newRunLoop(state, nil)
	loop.Allocator = badAllocator{}

	result := loop.Run(context.Background())

	assert.Equal(t, StatusFailed, result.Status)
	require.NotEmpty(t, result.Diagnostics)
	assert.Equal(t, DiagContractViolation, result.Diagnostics[0].Kind)
}

// badAllocator hands out task ids that do not exist
type badAllocator struct{}

func (badAllocator) Allocate(state *KitchenState) (Assignment, error) {
	return Assignment{"chef_1": "no-such-task"}, nil
}
