// Package models defines the persisted records for finished kitchen
// runs and their action logs.
package models

import (
	"encoding/json"
	"time"

	"github.com/jinzhu/gorm"

	"brigade/internal/kitchen"
)

// Run is the persisted summary of one kitchen run
type Run struct {
	gorm.Model
	RunID       string `gorm:"unique_index"`
	OrderText   string
	Dish        string
	Status      string
	Steps       int
	Completed   int
	TotalTasks  int
	Diagnostics string `gorm:"type:text"`
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewRun flattens a run result into its persisted form
func NewRun(runID, orderText, dish string, result *kitchen.RunResult, started, finished time.Time) (*Run, error) {
	diagnostics, err := json.Marshal(result.Diagnostics)
	if err != nil {
		return nil, err
	}
	return &Run{
		RunID:       runID,
		OrderText:   orderText,
		Dish:        dish,
		Status:      string(result.Status),
		Steps:       result.Steps,
		Completed:   result.Completed,
		TotalTasks:  result.TotalTasks,
		Diagnostics: string(diagnostics),
		StartedAt:   started,
		FinishedAt:  finished,
	}, nil
}

// ParseDiagnostics restores the diagnostics recorded with the run
func (r *Run) ParseDiagnostics() ([]kitchen.Diagnostic, error) {
	var diagnostics []kitchen.Diagnostic
	if r.Diagnostics == "" {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(r.Diagnostics), &diagnostics); err != nil {
		return nil, err
	}
	return diagnostics, nil
}

// ActionLogEntry is one flattened action record of a run
type ActionLogEntry struct {
	gorm.Model
	RunID      string `gorm:"index"`
	Step       int
	AgentID    string
	ActionType string
	Target     string
	PosX       int
	PosY       int
	Success    bool
	Details    string `gorm:"type:text"`
}

// NewActionLogEntry flattens an action record for persistence
func NewActionLogEntry(runID string, record kitchen.ActionRecord) (*ActionLogEntry, error) {
	details, err := json.Marshal(record.Details)
	if err != nil {
		return nil, err
	}
	return &ActionLogEntry{
		RunID:      runID,
		Step:       record.Step,
		AgentID:    record.AgentID,
		ActionType: record.ActionType,
		Target:     record.Target,
		PosX:       record.Position.X,
		PosY:       record.Position.Y,
		Success:    record.Success,
		Details:    string(details),
	}, nil
}

// Record restores the action record this entry was flattened from
func (e *ActionLogEntry) Record() (kitchen.ActionRecord, error) {
	record := kitchen.ActionRecord{
		Step:       e.Step,
		AgentID:    e.AgentID,
		ActionType: e.ActionType,
		Target:     e.Target,
		Position:   kitchen.Position{X: e.PosX, Y: e.PosY},
		Success:    e.Success,
	}
	if e.Details != "" && e.Details != "null" {
		if err := json.Unmarshal([]byte(e.Details), &record.Details); err != nil {
			return kitchen.ActionRecord{}, err
		}
	}
	return record, nil
}
