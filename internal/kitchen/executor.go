package kitchen

import (
	"context"
	"errors"
	"time"
)

// Actuator performs the physical or simulated effect of a finalized
// action. A nil error means success; any error (including deadline
// expiry) is treated as a recoverable actuation failure, never as a fatal
// fault for the run.
type Actuator interface {
	Perform(ctx context.Context, record ActionRecord) error
}

// StepExecutor turns an allocation into state mutation and action records
// for one step. It owns the per-task progress counters; the kitchen state
// itself carries no timers.
type StepExecutor struct {
	actuator Actuator
	timeout  time.Duration
	progress map[string]int
}

// DefaultActuationTimeout bounds the synchronous actuator call per action
const DefaultActuationTimeout = 5 * time.Second

// NewStepExecutor creates an executor. The actuator may be nil, in which
// case every completed action succeeds without an external call.
func NewStepExecutor(actuator Actuator, timeout time.Duration) *StepExecutor {
	if timeout <= 0 {
		timeout = DefaultActuationTimeout
	}
	return &StepExecutor{
		actuator: actuator,
		timeout:  timeout,
		progress: make(map[string]int),
	}
}

// ExecuteStep applies the assignment, advances in-progress work by one
// unit, and emits exactly one action record per agent. Assignment and
// completion errors are contract violations and halt the step; actuation
// failures roll the task back to pending and are recorded in the step's
// action record instead.
func (e *StepExecutor) ExecuteStep(ctx context.Context, state *KitchenState, assignment Assignment) ([]ActionRecord, error) {
	records := make([]ActionRecord, 0, len(state.Agents))
	for _, agent := range state.AgentsInOrder() {
		if taskID, ok := assignment[agent.ID]; ok {
			if err := state.AssignTask(agent.ID, taskID); err != nil {
				return nil, err
			}
		}

		record, err := e.stepAgent(ctx, state, agent)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// stepAgent advances one agent by one step and produces its record
func (e *StepExecutor) stepAgent(ctx context.Context, state *KitchenState, agent *AgentRecord) (ActionRecord, error) {
	if agent.CurrentTask == "" {
		return ActionRecord{
			Step:       state.Step,
			AgentID:    agent.ID,
			ActionType: ActionWait,
			Position:   agent.Position,
			Success:    true,
		}, nil
	}

	task := state.Tasks[agent.CurrentTask]
	if task.Status == StatusAssigned {
		task.Status = StatusInProgress
	}
	e.progress[task.ID]++

	record := ActionRecord{
		Step:       state.Step,
		AgentID:    agent.ID,
		ActionType: string(task.Kind),
		Target:     task.Target,
		Position:   agent.Position,
		Success:    true,
		Details: map[string]interface{}{
			"task_id":  task.ID,
			"progress": e.progress[task.ID],
			"duration": task.EstimatedDuration,
		},
	}

	if e.progress[task.ID] < task.EstimatedDuration {
		return record, nil
	}

	// Duration elapsed: actuate, then complete or roll back.
	if cause, failed := e.actuate(ctx, record); failed {
		if err := state.FailTask(agent.ID); err != nil {
			return ActionRecord{}, err
		}
		delete(e.progress, task.ID)
		record.Success = false
		record.Details["error"] = cause
		return record, nil
	}

	if err := state.CompleteTask(agent.ID); err != nil {
		return ActionRecord{}, err
	}
	delete(e.progress, task.ID)
	record.Details["completed"] = true
	return record, nil
}

// actuate runs the external actuator with a bounded timeout and maps the
// outcome onto the recoverable failure vocabulary
func (e *StepExecutor) actuate(ctx context.Context, record ActionRecord) (cause string, failed bool) {
	if e.actuator == nil {
		return "", false
	}
	actuateCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	err := e.actuator.Perform(actuateCtx, record)
	if err == nil {
		return "", false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout", true
	}
	return err.Error(), true
}

// Progress exposes the current progress counter for a task id
func (e *StepExecutor) Progress(taskID string) int {
	return e.progress[taskID]
}
