package decompose

import (
	"context"
	"fmt"

	"brigade/internal/kitchen"
)

// stepSpec is one step of a recipe template before it is bound to a dish
// id and the kitchen layout
type stepSpec struct {
	name     string
	kind     kitchen.Kind
	target   string // empty means "the dish itself"
	station  string
	duration int
	deps     []string
}

// The tomato-and-egg template follows the demo dish the system grew up
// on: fetch, cut, beat, fry, combine, plate.
var tomatoEggSteps = []stepSpec{
	{name: "pick_vegetables", kind: kitchen.KindPick, target: CategoryVegetables, station: "storage", duration: 1},
	{name: "pick_eggs", kind: kitchen.KindPick, target: CategoryEggs, station: "storage", duration: 1},
	{name: "cut_tomato", kind: kitchen.KindSlice, target: CategoryVegetables, station: "prep", duration: 2, deps: []string{"pick_vegetables"}},
	{name: "beat_eggs", kind: kitchen.KindSlice, target: CategoryEggs, station: "prep", duration: 1, deps: []string{"pick_eggs"}},
	{name: "cook_eggs", kind: kitchen.KindCook, station: "stove", duration: 2, deps: []string{"beat_eggs"}},
	{name: "add_tomato", kind: kitchen.KindCook, station: "stove", duration: 1, deps: []string{"cook_eggs", "cut_tomato"}},
	{name: "plate", kind: kitchen.KindServe, station: "delivery", duration: 1, deps: []string{"add_tomato"}},
}

var recipeTemplates = map[string][]stepSpec{
	"tomato and egg stir fry": tomatoEggSteps,
	"tomato egg stir fry":     tomatoEggSteps,
	"tomato egg":              tomatoEggSteps,
}

// RecipeBook is the deterministic order decomposer: known dishes expand
// through fixed templates, unknown dishes through a generic
// pick/slice/cook/serve pipeline over the ingredients named in the order.
type RecipeBook struct {
	layout Layout
}

// NewRecipeBook creates a recipe book bound to a kitchen layout
func NewRecipeBook(layout Layout) *RecipeBook {
	return &RecipeBook{layout: layout}
}

// Decompose implements the Decomposer interface
func (b *RecipeBook) Decompose(ctx context.Context, orderText string) ([]kitchen.TaskDescriptor, error) {
	if orderText == "" {
		return nil, fmt.Errorf("empty order")
	}
	dish := slug(orderText)

	if steps, ok := recipeTemplates[normalize(orderText)]; ok {
		return b.bind(dish, orderText, steps), nil
	}
	return b.bind(dish, orderText, genericSteps(orderText)), nil
}

// bind turns template steps into task descriptors with dish-scoped ids
// and positions resolved against the layout
func (b *RecipeBook) bind(dish, orderText string, steps []stepSpec) []kitchen.TaskDescriptor {
	tasks := make([]kitchen.TaskDescriptor, 0, len(steps))
	for _, step := range steps {
		station, ok := b.layout.StationByName(step.station)
		if !ok {
			station = b.layout.Storage
		}
		target := step.target
		if target == "" {
			target = orderText
		}
		deps := make([]string, 0, len(step.deps))
		for _, dep := range step.deps {
			deps = append(deps, taskID(dish, dep))
		}
		pos := station.Position
		tasks = append(tasks, kitchen.TaskDescriptor{
			ID:                taskID(dish, step.name),
			Kind:              step.kind,
			Target:            target,
			DishID:            dish,
			Tool:              station.Tool,
			RequiredPosition:  &pos,
			EstimatedDuration: step.duration,
			DependsOn:         deps,
			Status:            kitchen.StatusPending,
		})
	}
	return tasks
}

// genericSteps builds the fallback pipeline for dishes without a
// template: parallel picks for each mappable ingredient, one prep pass,
// cook, serve.
func genericSteps(orderText string) []stepSpec {
	categories := categoriesIn(orderText)
	if len(categories) == 0 {
		categories = []string{CategoryVegetables, CategorySeasonings}
	}

	steps := make([]stepSpec, 0, len(categories)+3)
	pickNames := make([]string, 0, len(categories))
	for _, category := range categories {
		name := "pick_" + category
		pickNames = append(pickNames, name)
		steps = append(steps, stepSpec{
			name: name, kind: kitchen.KindPick, target: category, station: "storage", duration: 1,
		})
	}
	steps = append(steps,
		stepSpec{name: "prep_ingredients", kind: kitchen.KindSlice, target: categories[0], station: "prep", duration: 2, deps: pickNames},
		stepSpec{name: "cook_dish", kind: kitchen.KindCook, station: "stove", duration: 3, deps: []string{"prep_ingredients"}},
		stepSpec{name: "serve_dish", kind: kitchen.KindServe, station: "delivery", duration: 1, deps: []string{"cook_dish"}},
	)
	return steps
}

func taskID(dish, step string) string {
	return dish + "." + step
}

func normalize(orderText string) string {
	return slugToSpaces(slug(orderText))
}

func slugToSpaces(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '_' {
			out = append(out, ' ')
		} else {
			out = append(out, r)
		}
	}
	return string(out)
}
