package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brigade/internal/kitchen"
	"brigade/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleResult() *kitchen.RunResult {
	return &kitchen.RunResult{
		Status:     kitchen.StatusCompleted,
		Steps:      4,
		Completed:  3,
		TotalTasks: 3,
		Diagnostics: []kitchen.Diagnostic{
			{Step: 2, Kind: kitchen.DiagMalformedTaskGraph, Message: "no progress"},
		},
	}
}

func sampleLog() kitchen.ActionLog {
	log := kitchen.NewActionLog([]string{"chef_1", "chef_2"})
	log.Append(
		kitchen.ActionRecord{Step: 0, AgentID: "chef_1", ActionType: "slice", Target: "tomato",
			Position: kitchen.Position{X: 1, Y: 5}, Success: true,
			Details: map[string]interface{}{"task_id": "dish.cut_tomato", "progress": float64(1)}},
		kitchen.ActionRecord{Step: 0, AgentID: "chef_2", ActionType: kitchen.ActionWait, Success: true},
		kitchen.ActionRecord{Step: 1, AgentID: "chef_1", ActionType: "cook", Target: "eggs",
			Position: kitchen.Position{X: 1, Y: 1}, Success: false,
			Details: map[string]interface{}{"error": "timeout"}},
		kitchen.ActionRecord{Step: 1, AgentID: "chef_2", ActionType: kitchen.ActionWait, Success: true},
	)
	return log
}

func TestSaveAndGetRun(t *testing.T) {
	store := openTestStore(t)

	started := time.Now().Add(-time.Minute)
	run, err := models.NewRun("run-1", "tomato and egg stir fry", "tomato_and_egg_stir_fry", sampleResult(), started, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(run, sampleLog()))

	loaded, err := store.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, "tomato and egg stir fry", loaded.OrderText)
	assert.Equal(t, string(kitchen.StatusCompleted), loaded.Status)
	assert.Equal(t, 4, loaded.Steps)
	assert.Equal(t, 3, loaded.Completed)

	diagnostics, err := loaded.ParseDiagnostics()
	require.NoError(t, err)
	require.Len(t, diagnostics, 1)
	assert.Equal(t, kitchen.DiagMalformedTaskGraph, diagnostics[0].Kind)
}

func TestGetRunNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.GetRun("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestActionLogRoundTrip(t *testing.T) {
	store := openTestStore(t)

	run, err := models.NewRun("run-2", "rice", "rice", sampleResult(), time.Now(), time.Now())
	require.NoError(t, err)
	log := sampleLog()
	require.NoError(t, store.SaveRun(run, log))

	restored, err := store.GetActionLog("run-2")
	require.NoError(t, err)
	require.Len(t, restored, 2)
	assert.Equal(t, log["chef_1"], restored["chef_1"])
	assert.Equal(t, log["chef_2"][0].ActionType, restored["chef_2"][0].ActionType)
	assert.False(t, restored["chef_1"][1].Success)
	assert.Equal(t, "timeout", restored["chef_1"][1].Details["error"])
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openTestStore(t)

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		run, err := models.NewRun(id, "rice", "rice", sampleResult(), time.Now(), time.Now())
		require.NoError(t, err)
		require.NoError(t, store.SaveRun(run, kitchen.ActionLog{}))
	}

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	all, err := store.ListRuns(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDuplicateRunIDRejected(t *testing.T) {
	store := openTestStore(t)

	run, err := models.NewRun("run-dup", "rice", "rice", sampleResult(), time.Now(), time.Now())
	require.NoError(t, err)
	require.NoError(t, store.SaveRun(run, kitchen.ActionLog{}))

	again, err := models.NewRun("run-dup", "rice", "rice", sampleResult(), time.Now(), time.Now())
	require.NoError(t, err)
	assert.Error(t, store.SaveRun(again, kitchen.ActionLog{}))
}
