package agents

import (
	"fmt"

	"brigade/internal/kitchen"

	"github.com/tmc/langchaingo/llms"
)

// Chef represents one cooking worker. A chef with an empty specialization
// is a universal chef that takes on any task kind.
type Chef struct {
	*BaseAgent
	ID             string
	Home           kitchen.Position
	Specialization kitchen.Kind
}

// NewChef creates a chef agent starting at its home position
func NewChef(model llms.LLM, id string, home kitchen.Position, specialization kitchen.Kind) *Chef {
	return &Chef{
		BaseAgent:      NewBaseAgent(RoleChef, model),
		ID:             id,
		Home:           home,
		Specialization: specialization,
	}
}

// Record builds the kitchen-state record this chef starts a run with
func (c *Chef) Record() kitchen.AgentRecord {
	return kitchen.AgentRecord{
		ID:             c.ID,
		Position:       c.Home,
		Availability:   kitchen.AvailabilityIdle,
		Specialization: c.Specialization,
	}
}

// Brigade is the ordered team of chefs for one kitchen
type Brigade []*Chef

// NewBrigade creates n universal chefs named chef_1..chef_n spread over
// the given home positions (cycled when there are more chefs than homes)
func NewBrigade(model llms.LLM, n int, homes []kitchen.Position) Brigade {
	if n <= 0 {
		n = 1
	}
	if len(homes) == 0 {
		homes = []kitchen.Position{{X: 1, Y: 1}}
	}
	brigade := make(Brigade, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("chef_%d", i+1)
		brigade = append(brigade, NewChef(model, id, homes[i%len(homes)], ""))
	}
	return brigade
}

// Roster returns the initial agent records for a run, in brigade order
func (b Brigade) Roster() []kitchen.AgentRecord {
	roster := make([]kitchen.AgentRecord, 0, len(b))
	for _, chef := range b {
		roster = append(roster, chef.Record())
	}
	return roster
}
