package actuate

import (
	"context"
	"errors"
	"testing"
	"time"

	"brigade/internal/kitchen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(taskID string) kitchen.ActionRecord {
	return kitchen.ActionRecord{
		Step:       0,
		AgentID:    "chef_1",
		ActionType: string(kitchen.KindCook),
		Target:     "eggs",
		Success:    true,
		Details:    map[string]interface{}{"task_id": taskID},
	}
}

func TestSimulatorScriptedFailures(t *testing.T) {
	sim := NewSimulator(0)
	sim.FailNext("cook-1", 2, nil)

	err := sim.Perform(context.Background(), record("cook-1"))
	require.Error(t, err)
	err = sim.Perform(context.Background(), record("cook-1"))
	require.Error(t, err)

	require.NoError(t, sim.Perform(context.Background(), record("cook-1")))
	assert.Equal(t, 3, sim.Performed())
}

func TestSimulatorFailsWithGivenError(t *testing.T) {
	boom := errors.New("gripper jam")
	sim := NewSimulator(0)
	sim.FailNext("cut-1", 1, boom)

	err := sim.Perform(context.Background(), record("cut-1"))
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, sim.Perform(context.Background(), record("other")))
}

func TestSimulatorHonorsContextDuringLatency(t *testing.T) {
	sim := NewSimulator(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := sim.Perform(ctx, record("cook-1"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, sim.Performed(), "a cancelled action never counts as performed")
}
