package kitchen

import (
	"fmt"
	"sort"
	"strings"
)

// KitchenState is the single mutable source of truth for one order's run.
// It has exactly one writer context (the run loop driving allocator and
// executor); no locking is needed because all agents are evaluated in one
// sequential pass per step.
type KitchenState struct {
	Step           int
	Agents         map[string]*AgentRecord
	Tasks          map[string]*TaskDescriptor
	AvailableTasks []string
	ToolOccupancy  map[string]string
}

// NewKitchenState builds a fresh state from an agent roster and the task
// descriptors produced by the order decomposer. The available task view is
// computed immediately so the first step sees a consistent pool.
func NewKitchenState(roster []AgentRecord, tasks []TaskDescriptor) *KitchenState {
	s := &KitchenState{
		Agents:        make(map[string]*AgentRecord, len(roster)),
		Tasks:         make(map[string]*TaskDescriptor, len(tasks)),
		ToolOccupancy: make(map[string]string),
	}
	for i := range roster {
		a := roster[i]
		if a.Availability == "" {
			a.Availability = AvailabilityIdle
		}
		s.Agents[a.ID] = &a
	}
	for i := range tasks {
		t := tasks[i]
		if t.Status == "" {
			t.Status = StatusPending
		}
		if t.EstimatedDuration <= 0 {
			t.EstimatedDuration = 1
		}
		s.Tasks[t.ID] = &t
	}
	s.RecomputeAvailableTasks()
	return s
}

// AgentsInOrder returns the agents sorted by id. The stable ordering is
// what makes per-step allocation deterministic.
func (s *KitchenState) AgentsInOrder() []*AgentRecord {
	agents := make([]*AgentRecord, 0, len(s.Agents))
	for _, a := range s.Agents {
		agents = append(agents, a)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
	return agents
}

// RecomputeAvailableTasks rebuilds the derived view of assignable tasks:
// pending tasks whose dependencies are all complete, excluding anything an
// agent currently holds. The result is sorted by task id.
func (s *KitchenState) RecomputeAvailableTasks() {
	held := make(map[string]bool, len(s.Agents))
	for _, a := range s.Agents {
		if a.CurrentTask != "" {
			held[a.CurrentTask] = true
		}
	}

	available := make([]string, 0, len(s.Tasks))
	for id, t := range s.Tasks {
		if t.Status != StatusPending || held[id] {
			continue
		}
		if s.dependenciesMet(t) {
			available = append(available, id)
		}
	}
	sort.Strings(available)
	s.AvailableTasks = available
}

func (s *KitchenState) dependenciesMet(t *TaskDescriptor) bool {
	for _, dep := range t.DependsOn {
		d, ok := s.Tasks[dep]
		if !ok || d.Status != StatusComplete {
			return false
		}
	}
	return true
}

// IsAvailable reports whether the task id is in the current available view
func (s *KitchenState) IsAvailable(taskID string) bool {
	for _, id := range s.AvailableTasks {
		if id == taskID {
			return true
		}
	}
	return false
}

// AssignTask marks an available task as assigned to an idle agent. The
// task leaves the available view immediately so no other agent can observe
// it until it is released. The agent moves to the task's required position
// and occupies the task's tool, if any.
func (s *KitchenState) AssignTask(agentID, taskID string) error {
	agent, ok := s.Agents[agentID]
	if !ok {
		return &ConflictError{AgentID: agentID, TaskID: taskID, Reason: "unknown agent"}
	}
	task, ok := s.Tasks[taskID]
	if !ok {
		return &ConflictError{AgentID: agentID, TaskID: taskID, Reason: "unknown task"}
	}
	if agent.Availability != AvailabilityIdle {
		return &ConflictError{AgentID: agentID, TaskID: taskID, Reason: "agent is not idle"}
	}
	if !s.IsAvailable(taskID) {
		return &ConflictError{AgentID: agentID, TaskID: taskID, Reason: "task is not available"}
	}
	if task.Tool != "" {
		if holder, busy := s.ToolOccupancy[task.Tool]; busy && holder != agentID {
			return &ConflictError{AgentID: agentID, TaskID: taskID, Reason: fmt.Sprintf("tool %s held by %s", task.Tool, holder)}
		}
		s.ToolOccupancy[task.Tool] = agentID
	}

	task.Status = StatusAssigned
	agent.CurrentTask = taskID
	agent.Availability = AvailabilityBusy
	if task.RequiredPosition != nil {
		agent.Position = *task.RequiredPosition
	}
	s.removeAvailable(taskID)
	return nil
}

func (s *KitchenState) removeAvailable(taskID string) {
	for i, id := range s.AvailableTasks {
		if id == taskID {
			s.AvailableTasks = append(s.AvailableTasks[:i], s.AvailableTasks[i+1:]...)
			return
		}
	}
}

// CompleteTask marks the agent's current task as complete, releases any
// tool it held and returns the agent to the idle pool.
func (s *KitchenState) CompleteTask(agentID string) error {
	agent, task, err := s.currentTaskOf(agentID)
	if err != nil {
		return err
	}
	task.Status = StatusComplete
	s.releaseAgent(agent)
	return nil
}

// FailTask rolls the agent's current task back to pending so it re-enters
// the available pool at the next recomputation. Used when actuation fails;
// no step is silently lost.
func (s *KitchenState) FailTask(agentID string) error {
	agent, task, err := s.currentTaskOf(agentID)
	if err != nil {
		return err
	}
	task.Status = StatusPending
	s.releaseAgent(agent)
	return nil
}

func (s *KitchenState) currentTaskOf(agentID string) (*AgentRecord, *TaskDescriptor, error) {
	agent, ok := s.Agents[agentID]
	if !ok {
		return nil, nil, &StateError{AgentID: agentID, Reason: "unknown agent"}
	}
	if agent.CurrentTask == "" {
		return nil, nil, &StateError{AgentID: agentID, Reason: "agent has no current task"}
	}
	task, ok := s.Tasks[agent.CurrentTask]
	if !ok {
		return nil, nil, &StateError{AgentID: agentID, Reason: fmt.Sprintf("current task %s not found", agent.CurrentTask)}
	}
	return agent, task, nil
}

func (s *KitchenState) releaseAgent(agent *AgentRecord) {
	for tool, holder := range s.ToolOccupancy {
		if holder == agent.ID {
			delete(s.ToolOccupancy, tool)
		}
	}
	agent.CurrentTask = ""
	agent.Availability = AvailabilityIdle
}

// AdvanceStep increments the step counter. Task timers are tracked by the
// step executor, not here.
func (s *KitchenState) AdvanceStep() {
	s.Step++
}

// AllComplete reports whether every task has reached the complete status
func (s *KitchenState) AllComplete() bool {
	for _, t := range s.Tasks {
		if t.Status != StatusComplete {
			return false
		}
	}
	return true
}

// PendingTasks returns the ids of tasks that have not completed, sorted
func (s *KitchenState) PendingTasks() []string {
	pending := make([]string, 0)
	for id, t := range s.Tasks {
		if t.Status != StatusComplete {
			pending = append(pending, id)
		}
	}
	sort.Strings(pending)
	return pending
}

// InFlightTasks reports how many tasks are assigned or in progress
func (s *KitchenState) InFlightTasks() int {
	n := 0
	for _, t := range s.Tasks {
		if t.Status == StatusAssigned || t.Status == StatusInProgress {
			n++
		}
	}
	return n
}

// CompletedTasks reports how many tasks have completed
func (s *KitchenState) CompletedTasks() int {
	n := 0
	for _, t := range s.Tasks {
		if t.Status == StatusComplete {
			n++
		}
	}
	return n
}

// Summary renders a compact human-readable view of the kitchen, used for
// operator logs and as context for model-backed allocation.
func (s *KitchenState) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "step %d\n", s.Step)
	b.WriteString("agents:\n")
	for _, a := range s.AgentsInOrder() {
		fmt.Fprintf(&b, "  %s at (%d,%d) %s", a.ID, a.Position.X, a.Position.Y, a.Availability)
		if a.CurrentTask != "" {
			fmt.Fprintf(&b, " on %s", a.CurrentTask)
		}
		b.WriteString("\n")
	}
	b.WriteString("available tasks:\n")
	for _, id := range s.AvailableTasks {
		t := s.Tasks[id]
		fmt.Fprintf(&b, "  %s %s %s", id, t.Kind, t.Target)
		if t.RequiredPosition != nil {
			fmt.Fprintf(&b, " at (%d,%d)", t.RequiredPosition.X, t.RequiredPosition.Y)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "progress: %d/%d tasks complete\n", s.CompletedTasks(), len(s.Tasks))
	return b.String()
}
