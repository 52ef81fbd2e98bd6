package kitchen

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionLogRoundTrip(t *testing.T) {
	state := NewKitchenState(
		[]AgentRecord{
			{ID: "chef_1", Position: Position{X: 1, Y: 5}},
			{ID: "chef_2", Position: Position{X: 8, Y: 5}},
		},
		[]TaskDescriptor{
			prepTask("cut-1"),
			taskAt("pick-1", KindPick, 8, 5),
		},
	)
	result := newRunLoop(state, nil).Run(context.Background())
	require.Equal(t, StatusCompleted, result.Status)

	var buf bytes.Buffer
	require.NoError(t, result.Log.WriteJSON(&buf))

	parsed, err := ReadActionLog(&buf)
	require.NoError(t, err)

	// Compare through a normalizing re-marshal: details values decode as
	// generic JSON numbers, which is what the export contract promises.
	want, err := json.Marshal(result.Log)
	require.NoError(t, err)
	got, err := json.Marshal(parsed)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))

	assert.Equal(t, result.Log.Steps(), parsed.Steps())
	for agentID := range result.Log {
		require.Contains(t, parsed, agentID)
		for i, record := range parsed[agentID] {
			assert.Equal(t, result.Log[agentID][i].Step, record.Step)
			assert.Equal(t, result.Log[agentID][i].ActionType, record.ActionType)
			assert.Equal(t, result.Log[agentID][i].Position, record.Position)
			assert.Equal(t, result.Log[agentID][i].Success, record.Success)
		}
	}
}

func TestActionRecordFieldNames(t *testing.T) {
	record := ActionRecord{
		Step:       3,
		AgentID:    "chef_1",
		ActionType: "cook",
		Target:     "fried rice",
		Position:   Position{X: 1, Y: 1},
		Success:    true,
		Details:    map[string]interface{}{"task_id": "cook-1"},
	}
	data, err := json.Marshal(record)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, name := range []string{"step", "agentId", "actionType", "target", "position", "success", "details"} {
		assert.Contains(t, fields, name)
	}
}
