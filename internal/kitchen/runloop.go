package kitchen

import (
	"context"
	"log"
)

// RunStatus is the lifecycle state of a run
type RunStatus string

const (
	StatusRunning             RunStatus = "running"
	StatusCompleted           RunStatus = "completed"
	StatusStepBudgetExhausted RunStatus = "step_budget_exhausted"
	// StatusFailed is reached when a contract violation (conflict or
	// state error) surfaces from inside the allocator/executor boundary.
	StatusFailed RunStatus = "failed"
	// StatusCancelled is reached when the caller cancels the context;
	// the run stops after the step in flight, never mid-step.
	StatusCancelled RunStatus = "cancelled"
)

// Diagnostic is one warning or error attached to a run result
type Diagnostic struct {
	Step    int    `json:"step"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Diagnostic kinds
const (
	DiagMalformedTaskGraph = "malformed_task_graph"
	DiagContractViolation  = "contract_violation"
	DiagCancelled          = "cancelled"
)

// RunResult aggregates everything a finished run produced
type RunResult struct {
	Status      RunStatus    `json:"status"`
	Steps       int          `json:"steps"`
	Completed   int          `json:"completed_tasks"`
	TotalTasks  int          `json:"total_tasks"`
	Log         ActionLog    `json:"log"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// DefaultStepBudget caps a run when the task graph never completes
const DefaultStepBudget = 50

// DefaultStallWindow is how many consecutive zero-progress steps mark the
// task graph as malformed
const DefaultStallWindow = 5

// RunLoop drives repeated steps until all tasks complete or the step
// budget is exhausted
type RunLoop struct {
	State       *KitchenState
	Allocator   Allocator
	Executor    *StepExecutor
	StepBudget  int
	StallWindow int
	// OnStep, when set, observes each step's records after they are
	// committed. Used for live streaming and metrics.
	OnStep func(step int, records []ActionRecord)
}

// Run iterates recompute, allocate, execute, advance until a terminal
// state is reached. Faults never escape this boundary; they resolve to a
// terminal status with an attached diagnostic.
func (r *RunLoop) Run(ctx context.Context) *RunResult {
	if r.StepBudget <= 0 {
		r.StepBudget = DefaultStepBudget
	}
	if r.StallWindow <= 0 {
		r.StallWindow = DefaultStallWindow
	}

	result := &RunResult{
		Status:     StatusRunning,
		TotalTasks: len(r.State.Tasks),
		Log:        NewActionLog(agentIDs(r.State)),
	}

	stalled := 0
	graphReported := false

	for r.State.Step < r.StepBudget {
		if ctx.Err() != nil {
			result.Status = StatusCancelled
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Step: r.State.Step, Kind: DiagCancelled, Message: "run stopped by caller",
			})
			break
		}

		r.State.RecomputeAvailableTasks()

		if !graphReported {
			if stalled = r.trackStall(stalled); stalled >= r.StallWindow {
				diag := &MalformedTaskGraph{Step: r.State.Step, Pending: r.State.PendingTasks()}
				log.Printf("warning: %v", diag)
				result.Diagnostics = append(result.Diagnostics, Diagnostic{
					Step: r.State.Step, Kind: DiagMalformedTaskGraph, Message: diag.Error(),
				})
				graphReported = true
			}
		}

		assignment, err := r.Allocator.Allocate(r.State)
		if err != nil {
			return r.fail(result, err)
		}

		records, err := r.Executor.ExecuteStep(ctx, r.State, assignment)
		if err != nil {
			return r.fail(result, err)
		}
		result.Log.Append(records...)
		if r.OnStep != nil {
			r.OnStep(r.State.Step, records)
		}

		r.State.AdvanceStep()

		if r.State.AllComplete() {
			result.Status = StatusCompleted
			break
		}
	}

	if result.Status == StatusRunning {
		result.Status = StatusStepBudgetExhausted
	}
	result.Steps = r.State.Step
	result.Completed = r.State.CompletedTasks()
	return result
}

// trackStall counts consecutive steps in which nothing can make progress:
// incomplete tasks remain but none are available and none are in flight
func (r *RunLoop) trackStall(stalled int) int {
	if r.State.AllComplete() {
		return 0
	}
	if len(r.State.AvailableTasks) == 0 && r.State.InFlightTasks() == 0 {
		return stalled + 1
	}
	return 0
}

// fail converts a contract violation into a terminal failed result
func (r *RunLoop) fail(result *RunResult, err error) *RunResult {
	log.Printf("run halted at step %d: %v", r.State.Step, err)
	result.Status = StatusFailed
	result.Steps = r.State.Step
	result.Completed = r.State.CompletedTasks()
	result.Diagnostics = append(result.Diagnostics, Diagnostic{
		Step: r.State.Step, Kind: DiagContractViolation, Message: err.Error(),
	})
	return result
}

func agentIDs(state *KitchenState) []string {
	ids := make([]string, 0, len(state.Agents))
	for _, a := range state.AgentsInOrder() {
		ids = append(ids, a.ID)
	}
	return ids
}
