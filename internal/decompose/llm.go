package decompose

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"brigade/internal/kitchen"

	"github.com/tmc/langchaingo/llms"
)

// LLMDecomposer asks a language model to break an order into tasks. Any
// malformed or invalid answer falls back to the deterministic recipe
// book, so a flaky model can never stall an order.
type LLMDecomposer struct {
	model    llms.LLM
	layout   Layout
	fallback Decomposer
}

// NewLLMDecomposer wraps a model; the recipe book bound to the same
// layout is the fallback
func NewLLMDecomposer(model llms.LLM, layout Layout) *LLMDecomposer {
	return &LLMDecomposer{
		model:    model,
		layout:   layout,
		fallback: NewRecipeBook(layout),
	}
}

// taskSpec is the JSON shape the model is asked to produce
type taskSpec struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Target    string   `json:"target"`
	Station   string   `json:"station"`
	Duration  int      `json:"duration"`
	DependsOn []string `json:"depends_on"`
}

const decomposePromptTemplate = `You are the order manager of a small robot kitchen.
Break the order %q into cooking tasks.

Rules:
- kind must be one of: pick, slice, cook, serve
- target must be one of: vegetables, meat, eggs, rice, seasonings, or the dish name for cook/serve
- station must be one of: storage, prep, stove, delivery
- depends_on lists names of earlier tasks that must finish first
- keep it short: fetch ingredients in parallel, prep, cook, serve

Answer with a JSON array only, no prose. Example element:
{"name":"pick_vegetables","kind":"pick","target":"vegetables","station":"storage","duration":1,"depends_on":[]}`

// Decompose implements the Decomposer interface
func (d *LLMDecomposer) Decompose(ctx context.Context, orderText string) ([]kitchen.TaskDescriptor, error) {
	if orderText == "" {
		return nil, fmt.Errorf("empty order")
	}

	response, err := d.model.Call(ctx, fmt.Sprintf(decomposePromptTemplate, orderText))
	if err != nil {
		log.Printf("order decomposition model call failed, using recipe book: %v", err)
		return d.fallback.Decompose(ctx, orderText)
	}

	tasks, err := d.parse(orderText, response)
	if err != nil {
		log.Printf("order decomposition response rejected, using recipe book: %v", err)
		return d.fallback.Decompose(ctx, orderText)
	}
	return tasks, nil
}

// parse extracts and validates the model's task list
func (d *LLMDecomposer) parse(orderText, response string) ([]kitchen.TaskDescriptor, error) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var specs []taskSpec
	if err := json.Unmarshal([]byte(response[start:end+1]), &specs); err != nil {
		return nil, fmt.Errorf("decode task list: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("empty task list")
	}

	dish := slug(orderText)
	names := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("task without a name")
		}
		if names[spec.Name] {
			return nil, fmt.Errorf("duplicate task name %q", spec.Name)
		}
		names[spec.Name] = true
	}

	tasks := make([]kitchen.TaskDescriptor, 0, len(specs))
	for _, spec := range specs {
		kind := kitchen.Kind(strings.ToLower(spec.Kind))
		switch kind {
		case kitchen.KindPick, kitchen.KindSlice, kitchen.KindCook, kitchen.KindServe:
		default:
			return nil, fmt.Errorf("task %q has unknown kind %q", spec.Name, spec.Kind)
		}

		station, ok := d.layout.StationByName(spec.Station)
		if !ok {
			return nil, fmt.Errorf("task %q names unknown station %q", spec.Name, spec.Station)
		}

		target := spec.Target
		if category, ok := MapIngredient(target); ok {
			target = category
		} else if kind == kitchen.KindPick || kind == kitchen.KindSlice {
			// Unmappable ingredients are dropped rather than invented.
			continue
		}
		if target == "" {
			target = orderText
		}

		deps := make([]string, 0, len(spec.DependsOn))
		for _, dep := range spec.DependsOn {
			if !names[dep] {
				return nil, fmt.Errorf("task %q depends on unknown task %q", spec.Name, dep)
			}
			deps = append(deps, taskID(dish, dep))
		}

		duration := spec.Duration
		if duration <= 0 {
			duration = 1
		}

		pos := station.Position
		tasks = append(tasks, kitchen.TaskDescriptor{
			ID:                taskID(dish, spec.Name),
			Kind:              kind,
			Target:            target,
			DishID:            dish,
			Tool:              station.Tool,
			RequiredPosition:  &pos,
			EstimatedDuration: duration,
			DependsOn:         deps,
			Status:            kitchen.StatusPending,
		})
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no executable tasks after ingredient mapping")
	}

	// Dropped tasks may leave dangling dependencies; reject those so the
	// run loop never starts from a graph we know is broken.
	kept := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		kept[task.ID] = true
	}
	for _, task := range tasks {
		for _, dep := range task.DependsOn {
			if !kept[dep] {
				return nil, fmt.Errorf("task %s depends on dropped task %s", task.ID, dep)
			}
		}
	}
	return tasks, nil
}
