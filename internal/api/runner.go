package api

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"brigade/internal/database"
	"brigade/internal/decompose"
	"brigade/internal/evaluation"
	"brigade/internal/kitchen"
	"brigade/internal/models"
	"brigade/internal/monitoring"
)

// OrderRunner wires one order through the full pipeline: decompose the
// order into tasks, drive the run loop to a terminal state, persist the
// result, and fan out per-step events.
type OrderRunner struct {
	Decomposer       decompose.Decomposer
	Allocator        kitchen.Allocator
	Actuator         kitchen.Actuator
	Roster           []kitchen.AgentRecord
	StepBudget       int
	StallWindow      int
	ActuationTimeout time.Duration

	Store   *database.Store
	Monitor *monitoring.Monitor
	Metrics *evaluation.MetricsCollector
	// OnStep receives each step's committed records, for live streaming
	OnStep func(runID string, step int, records []kitchen.ActionRecord)
}

// RunSummary is what one finished order run hands back to callers
type RunSummary struct {
	RunID    string             `json:"run_id"`
	Order    string             `json:"order"`
	Dish     string             `json:"dish"`
	Result   *kitchen.RunResult `json:"result"`
	Started  time.Time          `json:"started"`
	Finished time.Time          `json:"finished"`
}

// Run executes one order end to end. Persistence errors are logged, not
// fatal; the run result is already final when they can occur.
func (r *OrderRunner) Run(ctx context.Context, orderText string) (*RunSummary, error) {
	tasks, err := r.Decomposer.Decompose(ctx, orderText)
	if err != nil {
		return nil, fmt.Errorf("decompose order: %w", err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("order %q produced no tasks", orderText)
	}

	runID := uuid.New().String()
	started := time.Now()

	loop := &kitchen.RunLoop{
		State:       kitchen.NewKitchenState(r.Roster, tasks),
		Allocator:   r.Allocator,
		Executor:    kitchen.NewStepExecutor(r.Actuator, r.ActuationTimeout),
		StepBudget:  r.StepBudget,
		StallWindow: r.StallWindow,
	}
	if r.OnStep != nil {
		loop.OnStep = func(step int, records []kitchen.ActionRecord) {
			r.OnStep(runID, step, records)
		}
	}

	result := loop.Run(ctx)
	finished := time.Now()

	summary := &RunSummary{
		RunID:    runID,
		Order:    orderText,
		Dish:     tasks[0].DishID,
		Result:   result,
		Started:  started,
		Finished: finished,
	}

	if r.Monitor != nil {
		r.Monitor.RecordRunSummary(runID, result)
	}
	if r.Metrics != nil {
		r.Metrics.ObserveRun(result, finished.Sub(started))
	}
	if r.Store != nil {
		run, err := models.NewRun(runID, orderText, summary.Dish, result, started, finished)
		if err != nil {
			log.Printf("run %s: flatten result: %v", runID, err)
		} else if err := r.Store.SaveRun(run, result.Log); err != nil {
			log.Printf("run %s: persist: %v", runID, err)
		}
	}
	return summary, nil
}
