// Package evaluation benchmarks the deterministic kitchen pipeline over
// reproducible scenarios and exports run metrics.
package evaluation

import (
	"context"
	"fmt"
	"sort"

	"brigade/internal/agents"
	"brigade/internal/decompose"
	"brigade/internal/kitchen"
)

// Scenario is a reproducible benchmark: a fixed set of orders run through
// the deterministic decomposer and allocator with a fixed brigade size.
type Scenario struct {
	ID          string
	Name        string
	Description string
	Orders      []string
	Chefs       int
	StepBudget  int
}

// Outcome is the result of one order within a scenario
type Outcome struct {
	Order      string             `json:"order"`
	Status     kitchen.RunStatus  `json:"status"`
	Steps      int                `json:"steps"`
	Completed  int                `json:"completed_tasks"`
	TotalTasks int                `json:"total_tasks"`
	WaitShare  float64            `json:"wait_share"`
}

// Result aggregates a full scenario evaluation
type Result struct {
	Scenario string             `json:"scenario"`
	Outcomes []Outcome          `json:"outcomes"`
	Metrics  map[string]float64 `json:"metrics"`
}

// Evaluator runs benchmark scenarios against the kitchen core. All runs
// use the deterministic pipeline so repeated evaluations give identical
// results.
type Evaluator struct {
	scenarios map[string]*Scenario
	layout    decompose.Layout
}

// NewEvaluator creates an evaluator with the built-in scenarios
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		scenarios: make(map[string]*Scenario),
		layout:    decompose.DefaultLayout(),
	}
	e.loadScenarios()
	return e
}

func (e *Evaluator) loadScenarios() {
	e.scenarios["busy_night"] = &Scenario{
		ID:          "busy_night",
		Name:        "Busy Night",
		Description: "Three orders back to back with a two-chef brigade.",
		Orders:      []string{"tomato and egg stir fry", "chicken rice bowl", "egg fried rice"},
		Chefs:       2,
	}
	e.scenarios["slow_night"] = &Scenario{
		ID:          "slow_night",
		Name:        "Slow Night",
		Description: "A single order with a full brigade, most chefs idle.",
		Orders:      []string{"tomato and egg stir fry"},
		Chefs:       3,
	}
	e.scenarios["short_staffed"] = &Scenario{
		ID:          "short_staffed",
		Name:        "Short Staffed",
		Description: "Two orders with a single chef doing everything.",
		Orders:      []string{"tomato and egg stir fry", "beef and rice"},
		Chefs:       1,
	}
	e.scenarios["deadline_rush"] = &Scenario{
		ID:          "deadline_rush",
		Name:        "Deadline Rush",
		Description: "A tight step budget that a lone chef cannot meet.",
		Orders:      []string{"tomato and egg stir fry"},
		Chefs:       1,
		StepBudget:  4,
	}
}

// HasScenario checks if a scenario exists
func (e *Evaluator) HasScenario(id string) bool {
	_, exists := e.scenarios[id]
	return exists
}

// Scenarios returns all built-in scenarios, sorted by id
func (e *Evaluator) Scenarios() []*Scenario {
	scenarios := make([]*Scenario, 0, len(e.scenarios))
	for _, s := range e.scenarios {
		scenarios = append(scenarios, s)
	}
	sort.Slice(scenarios, func(i, j int) bool { return scenarios[i].ID < scenarios[j].ID })
	return scenarios
}

// Evaluate runs every order of a scenario and aggregates the metrics
func (e *Evaluator) Evaluate(ctx context.Context, scenarioID string) (*Result, error) {
	scenario, ok := e.scenarios[scenarioID]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", scenarioID)
	}

	result := &Result{Scenario: scenario.ID}
	for _, order := range scenario.Orders {
		outcome, err := e.runOrder(ctx, scenario, order)
		if err != nil {
			return nil, fmt.Errorf("scenario %s, order %q: %w", scenario.ID, order, err)
		}
		result.Outcomes = append(result.Outcomes, *outcome)
	}
	result.Metrics = aggregate(result.Outcomes)
	return result, nil
}

// runOrder drives one order through decompose, allocate, execute
func (e *Evaluator) runOrder(ctx context.Context, scenario *Scenario, order string) (*Outcome, error) {
	tasks, err := decompose.NewRecipeBook(e.layout).Decompose(ctx, order)
	if err != nil {
		return nil, err
	}

	homes := []kitchen.Position{
		e.layout.Stove.Position,
		e.layout.Prep.Position,
		e.layout.Storage.Position,
	}
	brigade := agents.NewBrigade(nil, scenario.Chefs, homes)

	loop := &kitchen.RunLoop{
		State:      kitchen.NewKitchenState(brigade.Roster(), tasks),
		Allocator:  kitchen.GreedyAllocator{},
		Executor:   kitchen.NewStepExecutor(nil, 0),
		StepBudget: scenario.StepBudget,
	}
	run := loop.Run(ctx)

	return &Outcome{
		Order:      order,
		Status:     run.Status,
		Steps:      run.Steps,
		Completed:  run.Completed,
		TotalTasks: run.TotalTasks,
		WaitShare:  waitShare(run.Log),
	}, nil
}

// waitShare is the fraction of recorded agent-steps spent idle
func waitShare(log kitchen.ActionLog) float64 {
	total, waits := 0, 0
	for _, records := range log {
		for _, record := range records {
			total++
			if record.ActionType == kitchen.ActionWait {
				waits++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(waits) / float64(total)
}

func aggregate(outcomes []Outcome) map[string]float64 {
	var completed, total, steps, waits float64
	var finished int
	for _, o := range outcomes {
		completed += float64(o.Completed)
		total += float64(o.TotalTasks)
		steps += float64(o.Steps)
		waits += o.WaitShare
		if o.Status == kitchen.StatusCompleted {
			finished++
		}
	}
	n := float64(len(outcomes))
	metrics := map[string]float64{
		"task_completion": 0,
		"run_completion":  0,
		"mean_steps":      0,
		"wait_share":      0,
	}
	if total > 0 {
		metrics["task_completion"] = completed / total
	}
	if n > 0 {
		metrics["run_completion"] = float64(finished) / n
		metrics["mean_steps"] = steps / n
		metrics["wait_share"] = waits / n
	}
	return metrics
}
