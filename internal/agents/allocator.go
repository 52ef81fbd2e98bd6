package agents

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"brigade/internal/kitchen"

	"github.com/tmc/langchaingo/llms"
)

// LLMAllocator lets a language model negotiate the per-step task split,
// wrapped behind the same allocator contract as the deterministic scorer
// so the two are interchangeable. The model's answer is validated against
// every assignment invariant; anything invalid discards the whole answer
// in favour of the deterministic fallback, so model quality can never
// break the uniqueness or dependency guarantees.
type LLMAllocator struct {
	model    llms.LLM
	fallback kitchen.Allocator
	timeout  time.Duration
}

// DefaultAllocationTimeout bounds the model call per step
const DefaultAllocationTimeout = 15 * time.Second

// NewLLMAllocator wraps a model with the deterministic greedy fallback
func NewLLMAllocator(model llms.LLM) *LLMAllocator {
	return &LLMAllocator{
		model:    model,
		fallback: kitchen.GreedyAllocator{},
		timeout:  DefaultAllocationTimeout,
	}
}

const allocatePromptTemplate = `You coordinate the chefs of a small robot kitchen.
Current kitchen state:

%s

Assign at most one available task to each idle chef. Prefer short travel
distances and do not assign two chefs the same task.

Answer with one line per assignment, nothing else, in the form:
agent_id -> task_id`

// Allocate implements the kitchen Allocator contract
func (a *LLMAllocator) Allocate(state *kitchen.KitchenState) (kitchen.Assignment, error) {
	if len(state.AvailableTasks) == 0 {
		return kitchen.Assignment{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	response, err := a.model.Call(ctx, fmt.Sprintf(allocatePromptTemplate, state.Summary()))
	if err != nil {
		log.Printf("allocation model call failed at step %d, using deterministic allocator: %v", state.Step, err)
		return a.fallback.Allocate(state)
	}

	assignment, err := a.parse(state, response)
	if err != nil {
		log.Printf("allocation response rejected at step %d, using deterministic allocator: %v", state.Step, err)
		return a.fallback.Allocate(state)
	}
	if len(assignment) == 0 && hasIdleAgent(state) {
		// A model that declines to assign anything must not stall the
		// run while work is available.
		return a.fallback.Allocate(state)
	}
	return assignment, nil
}

func hasIdleAgent(state *kitchen.KitchenState) bool {
	for _, agent := range state.Agents {
		if agent.Availability == kitchen.AvailabilityIdle {
			return true
		}
	}
	return false
}

// parse reads and validates the model's pairing lines. The whole answer
// is rejected on the first violated invariant.
func (a *LLMAllocator) parse(state *kitchen.KitchenState, response string) (kitchen.Assignment, error) {
	assignment := make(kitchen.Assignment)
	takenTasks := make(map[string]string)
	claimedTools := make(map[string]string)

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "->", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("unparseable line %q", line)
		}
		agentID := strings.TrimSpace(parts[0])
		taskID := strings.TrimSpace(parts[1])

		agent, ok := state.Agents[agentID]
		if !ok {
			return nil, fmt.Errorf("unknown agent %q", agentID)
		}
		if agent.Availability != kitchen.AvailabilityIdle {
			return nil, fmt.Errorf("agent %s is not idle", agentID)
		}
		if _, dup := assignment[agentID]; dup {
			return nil, fmt.Errorf("agent %s assigned twice", agentID)
		}
		if holder, dup := takenTasks[taskID]; dup {
			return nil, fmt.Errorf("task %s assigned to both %s and %s", taskID, holder, agentID)
		}
		if !state.IsAvailable(taskID) {
			return nil, fmt.Errorf("task %s is not available", taskID)
		}

		task := state.Tasks[taskID]
		if !agent.Eligible(task.Kind) {
			return nil, fmt.Errorf("agent %s is not eligible for %s task %s", agentID, task.Kind, taskID)
		}
		if task.Tool != "" {
			if holder, busy := state.ToolOccupancy[task.Tool]; busy && holder != agentID {
				return nil, fmt.Errorf("tool %s already held by %s", task.Tool, holder)
			}
			if holder, busy := claimedTools[task.Tool]; busy && holder != agentID {
				return nil, fmt.Errorf("tool %s claimed twice in one step", task.Tool)
			}
			claimedTools[task.Tool] = agentID
		}

		assignment[agentID] = taskID
		takenTasks[taskID] = agentID
	}
	return assignment, nil
}
