package kitchen

import "sort"

// Assignment maps agent ids to the task id selected for them this step.
// Agents with no eligible task are absent from the map.
type Assignment map[string]string

// Allocator produces a conflict-free assignment of at most one task per
// agent for the current step. Implementations must not mutate the state;
// the caller applies the assignment through AssignTask.
type Allocator interface {
	Allocate(state *KitchenState) (Assignment, error)
}

// GreedyAllocator assigns tasks by a deterministic scoring rule: one
// sequential pass over the agents in id order, each agent taking the
// nearest eligible task, ties broken by task id ascending. A task selected
// for one agent is removed from the working pool before the next agent is
// considered, so no two agents ever receive the same task in one step.
type GreedyAllocator struct{}

// Allocate implements the Allocator interface
func (GreedyAllocator) Allocate(state *KitchenState) (Assignment, error) {
	pool := make([]string, len(state.AvailableTasks))
	copy(pool, state.AvailableTasks)

	// Tools claimed earlier in this same pass block later agents too.
	claimedTools := make(map[string]string)

	assignment := make(Assignment)
	for _, agent := range state.AgentsInOrder() {
		if agent.Availability != AvailabilityIdle {
			continue
		}
		taskID, ok := pickTask(state, agent, pool, claimedTools)
		if !ok {
			continue
		}
		assignment[agent.ID] = taskID
		pool = removeID(pool, taskID)
		if tool := state.Tasks[taskID].Tool; tool != "" {
			claimedTools[tool] = agent.ID
		}
	}
	return assignment, nil
}

// pickTask scores every task remaining in the pool for one agent and
// returns the lowest-scoring eligible one. Tasks without a required
// position score zero distance and are always reachable.
func pickTask(state *KitchenState, agent *AgentRecord, pool []string, claimedTools map[string]string) (string, bool) {
	type candidate struct {
		id    string
		score int
	}
	candidates := make([]candidate, 0, len(pool))
	for _, id := range pool {
		task := state.Tasks[id]
		if !agent.Eligible(task.Kind) {
			continue
		}
		if task.Tool != "" {
			if holder, busy := state.ToolOccupancy[task.Tool]; busy && holder != agent.ID {
				continue
			}
			if holder, busy := claimedTools[task.Tool]; busy && holder != agent.ID {
				continue
			}
		}
		score := 0
		if task.RequiredPosition != nil {
			score = agent.Position.DistanceTo(*task.RequiredPosition)
		}
		candidates = append(candidates, candidate{id: id, score: score})
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score < candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})
	return candidates[0].id, true
}

func removeID(pool []string, id string) []string {
	for i, v := range pool {
		if v == id {
			return append(pool[:i], pool[i+1:]...)
		}
	}
	return pool
}
