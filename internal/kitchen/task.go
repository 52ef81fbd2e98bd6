package kitchen

// Kind identifies the type of cooking work a task represents
type Kind string

const (
	KindPick  Kind = "pick"
	KindSlice Kind = "slice"
	KindCook  Kind = "cook"
	KindServe Kind = "serve"
)

// ActionWait is the action type recorded for agents that spent a step idle.
// It is not a valid task kind; it only appears in action records.
const ActionWait = "wait"

// Status represents the lifecycle state of a task
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	TaskStatusFailed Status = "failed"
)

// Position is a coordinate in the kitchen grid
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DistanceTo returns the Manhattan distance between two positions
func (p Position) DistanceTo(q Position) int {
	return abs(p.X-q.X) + abs(p.Y-q.Y)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// TaskDescriptor identifies one unit of cooking work
type TaskDescriptor struct {
	ID                string    `json:"id"`
	Kind              Kind      `json:"kind"`
	Target            string    `json:"target"`
	DishID            string    `json:"dish_id,omitempty"`
	Tool              string    `json:"tool,omitempty"`
	RequiredPosition  *Position `json:"required_position,omitempty"`
	EstimatedDuration int       `json:"estimated_duration"`
	DependsOn         []string  `json:"depends_on,omitempty"`
	Status            Status    `json:"status"`
}

// Availability represents whether an agent can accept work
type Availability string

const (
	AvailabilityIdle Availability = "idle"
	AvailabilityBusy Availability = "busy"
)

// AgentRecord is one cooperating worker in the kitchen.
// An empty Specialization means the agent is a generalist and
// is eligible for tasks of any kind.
type AgentRecord struct {
	ID             string       `json:"id"`
	Position       Position     `json:"position"`
	Availability   Availability `json:"availability"`
	CurrentTask    string       `json:"current_task,omitempty"`
	Specialization Kind         `json:"specialization,omitempty"`
}

// Eligible reports whether this agent may take on a task of the given kind
func (a *AgentRecord) Eligible(kind Kind) bool {
	return a.Specialization == "" || a.Specialization == kind
}
