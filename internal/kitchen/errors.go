package kitchen

import "fmt"

// ConflictError reports an assignment attempted on an unavailable task or
// agent. Inside the allocator/executor boundary this is always a contract
// violation, never an expected condition.
type ConflictError struct {
	AgentID string
	TaskID  string
	Reason  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict assigning task %s to agent %s: %s", e.TaskID, e.AgentID, e.Reason)
}

// StateError reports a state transition that the kitchen state cannot
// satisfy, such as completing a task for an agent that holds none.
type StateError struct {
	AgentID string
	Reason  string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("invalid state transition for agent %s: %s", e.AgentID, e.Reason)
}

// ActuationFailure reports that the external actuator rejected or timed
// out on an action. It is the only recoverable failure: the task reverts
// to pending and is retried in a later step.
type ActuationFailure struct {
	AgentID string
	TaskID  string
	Cause   string
}

func (e *ActuationFailure) Error() string {
	return fmt.Sprintf("actuation failed for task %s (agent %s): %s", e.TaskID, e.AgentID, e.Cause)
}

// MalformedTaskGraph reports an unsatisfiable dependency graph, detected
// by persistent zero progress across a detection window.
type MalformedTaskGraph struct {
	Step    int
	Pending []string
}

func (e *MalformedTaskGraph) Error() string {
	return fmt.Sprintf("task graph made no progress by step %d; unsatisfiable dependencies among %v", e.Step, e.Pending)
}
