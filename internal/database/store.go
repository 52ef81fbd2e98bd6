package database

import (
	"fmt"
	"sort"

	"github.com/jinzhu/gorm"

	"brigade/internal/kitchen"
	"brigade/internal/models"
)

// SaveRun stores a run summary together with its full action log in one
// transaction
func (s *Store) SaveRun(run *models.Run, log kitchen.ActionLog) error {
	tx := s.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	if err := tx.Create(run).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("save run %s: %w", run.RunID, err)
	}

	agentIDs := make([]string, 0, len(log))
	for id := range log {
		agentIDs = append(agentIDs, id)
	}
	sort.Strings(agentIDs)

	for _, agentID := range agentIDs {
		for _, record := range log[agentID] {
			entry, err := models.NewActionLogEntry(run.RunID, record)
			if err != nil {
				tx.Rollback()
				return fmt.Errorf("flatten action record for %s: %w", agentID, err)
			}
			if err := tx.Create(entry).Error; err != nil {
				tx.Rollback()
				return fmt.Errorf("save action record for %s: %w", agentID, err)
			}
		}
	}
	return tx.Commit().Error
}

// GetRun loads one run summary by its run id
func (s *Store) GetRun(runID string) (*models.Run, error) {
	var run models.Run
	if err := s.db.Where("run_id = ?", runID).First(&run).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first
func (s *Store) ListRuns(limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.Run
	err := s.db.Order("created_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}

// GetActionLog rebuilds the per-agent action log of a run
func (s *Store) GetActionLog(runID string) (kitchen.ActionLog, error) {
	var entries []models.ActionLogEntry
	err := s.db.Where("run_id = ?", runID).Order("step asc, agent_id asc").Find(&entries).Error
	if err != nil {
		return nil, err
	}

	log := make(kitchen.ActionLog)
	for i := range entries {
		record, err := entries[i].Record()
		if err != nil {
			return nil, fmt.Errorf("restore action record: %w", err)
		}
		log.Append(record)
	}
	return log, nil
}
