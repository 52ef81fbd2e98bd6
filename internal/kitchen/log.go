package kitchen

import (
	"encoding/json"
	"io"
)

// ActionRecord is an immutable log entry describing one agent's outcome
// for one step. Exactly one record is produced per agent per step, idle
// steps included, so every agent's sequence replays without gaps.
type ActionRecord struct {
	Step       int                    `json:"step"`
	AgentID    string                 `json:"agentId"`
	ActionType string                 `json:"actionType"`
	Target     string                 `json:"target"`
	Position   Position               `json:"position"`
	Success    bool                   `json:"success"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// ActionLog maps agent ids to their ordered action record sequences
type ActionLog map[string][]ActionRecord

// NewActionLog prepares an empty per-agent log for the given roster
func NewActionLog(agentIDs []string) ActionLog {
	log := make(ActionLog, len(agentIDs))
	for _, id := range agentIDs {
		log[id] = []ActionRecord{}
	}
	return log
}

// Append adds records to their agents' sequences
func (l ActionLog) Append(records ...ActionRecord) {
	for _, r := range records {
		l[r.AgentID] = append(l[r.AgentID], r)
	}
}

// Steps returns the number of recorded steps, which is identical across
// agents by construction
func (l ActionLog) Steps() int {
	for _, records := range l {
		return len(records)
	}
	return 0
}

// WriteJSON serializes the log with the fixed record schema
func (l ActionLog) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(l)
}

// ReadActionLog parses a log previously written by WriteJSON
func ReadActionLog(r io.Reader) (ActionLog, error) {
	var log ActionLog
	if err := json.NewDecoder(r).Decode(&log); err != nil {
		return nil, err
	}
	return log, nil
}
