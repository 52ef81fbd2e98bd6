package decompose

import (
	"context"
	"strings"

	"brigade/internal/kitchen"
)

// Decomposer turns a free-text order into the task descriptors that seed
// a kitchen run. Implementations must return a finite task list; cyclic
// dependency graphs are malformed input that the run loop detects, not
// something the decomposer is required to reject.
type Decomposer interface {
	Decompose(ctx context.Context, orderText string) ([]kitchen.TaskDescriptor, error)
}

// Station is a fixed working area in the kitchen with an optional
// exclusive tool
type Station struct {
	Name     string           `yaml:"name" json:"name"`
	Position kitchen.Position `yaml:"position" json:"position"`
	Tool     string           `yaml:"tool,omitempty" json:"tool,omitempty"`
}

// Layout describes where the kitchen's stations sit on the grid
type Layout struct {
	Storage  Station `yaml:"storage" json:"storage"`
	Prep     Station `yaml:"prep" json:"prep"`
	Stove    Station `yaml:"stove" json:"stove"`
	Delivery Station `yaml:"delivery" json:"delivery"`
}

// DefaultLayout mirrors the demo kitchen grid: storage, a cutting board
// at the prep table, a single stove, and the plating station.
func DefaultLayout() Layout {
	return Layout{
		Storage:  Station{Name: "storage", Position: kitchen.Position{X: 8, Y: 5}},
		Prep:     Station{Name: "prep", Position: kitchen.Position{X: 1, Y: 5}, Tool: "cutting_board"},
		Stove:    Station{Name: "stove", Position: kitchen.Position{X: 1, Y: 1}, Tool: "stove"},
		Delivery: Station{Name: "delivery", Position: kitchen.Position{X: 3, Y: 3}, Tool: "plate_station"},
	}
}

// StationByName resolves a station name, defaulting to storage
func (l Layout) StationByName(name string) (Station, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "storage":
		return l.Storage, true
	case "prep":
		return l.Prep, true
	case "stove":
		return l.Stove, true
	case "delivery":
		return l.Delivery, true
	}
	return Station{}, false
}

// Ingredient categories available in the kitchen. Concrete ingredients
// are mapped onto these five; anything unmappable is dropped.
const (
	CategoryVegetables = "vegetables"
	CategoryMeat       = "meat"
	CategoryEggs       = "eggs"
	CategoryRice       = "rice"
	CategorySeasonings = "seasonings"
)

var categoryKeywords = map[string]string{
	"tomato":   CategoryVegetables,
	"broccoli": CategoryVegetables,
	"garlic":   CategoryVegetables,
	"pepper":   CategoryVegetables,
	"onion":    CategoryVegetables,
	"lettuce":  CategoryVegetables,
	"chicken":  CategoryMeat,
	"pork":     CategoryMeat,
	"beef":     CategoryMeat,
	"egg":      CategoryEggs,
	"eggs":     CategoryEggs,
	"rice":     CategoryRice,
	"salt":     CategorySeasonings,
	"soy":      CategorySeasonings,
	"oil":      CategorySeasonings,
	"sugar":    CategorySeasonings,
}

// MapIngredient maps a concrete ingredient word onto one of the five base
// categories. The boolean is false when no mapping exists.
func MapIngredient(name string) (string, bool) {
	word := strings.ToLower(strings.TrimSpace(name))
	switch word {
	case CategoryVegetables, CategoryMeat, CategoryEggs, CategoryRice, CategorySeasonings:
		return word, true
	}
	if category, ok := categoryKeywords[word]; ok {
		return category, true
	}
	return "", false
}

// categoriesIn scans the order text for mappable ingredient words,
// preserving first-seen order
func categoriesIn(orderText string) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, word := range strings.Fields(strings.ToLower(orderText)) {
		category, ok := MapIngredient(strings.Trim(word, ",."))
		if ok && !seen[category] {
			seen[category] = true
			categories = append(categories, category)
		}
	}
	return categories
}

// slug builds a stable task id prefix from the order text
func slug(orderText string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ':
			return '_'
		}
		return -1
	}, strings.TrimSpace(orderText))
	if cleaned == "" {
		return "dish"
	}
	return cleaned
}
