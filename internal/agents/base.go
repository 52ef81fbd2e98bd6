package agents

import (
	"time"

	"github.com/tmc/langchaingo/llms"
)

// AgentRole represents the role of an agent in the kitchen
type AgentRole string

const (
	RoleOrderManager AgentRole = "order_manager"
	RoleChef         AgentRole = "chef"
)

// Agent is the base interface for all kitchen agents
type Agent interface {
	GetRole() AgentRole
	GetModel() llms.LLM
	Observe(event Event)
	History() []Event
}

// Event is a single observation in an agent's short-term memory
type Event struct {
	Timestamp time.Time
	Type      string
	Content   string
}

// shortTermLimit caps how many events an agent remembers
const shortTermLimit = 50

// BaseAgent provides common functionality for all agents. The model may
// be nil, in which case the agent operates purely deterministically.
type BaseAgent struct {
	role      AgentRole
	model     llms.LLM
	shortTerm []Event
}

// NewBaseAgent creates a new base agent with the specified role and model
func NewBaseAgent(role AgentRole, model llms.LLM) *BaseAgent {
	return &BaseAgent{
		role:      role,
		model:     model,
		shortTerm: make([]Event, 0, shortTermLimit),
	}
}

// GetRole returns the agent's role
func (a *BaseAgent) GetRole() AgentRole {
	return a.role
}

// GetModel returns the agent's LLM model
func (a *BaseAgent) GetModel() llms.LLM {
	return a.model
}

// Observe appends an event, evicting the oldest past the memory limit
func (a *BaseAgent) Observe(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	a.shortTerm = append(a.shortTerm, event)
	if len(a.shortTerm) > shortTermLimit {
		a.shortTerm = a.shortTerm[len(a.shortTerm)-shortTermLimit:]
	}
}

// History returns the agent's remembered events, oldest first
func (a *BaseAgent) History() []Event {
	return a.shortTerm
}
