package task

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "PENDING", StatePending.String())
	assert.Equal(t, "PROGRESS", StateProgress.String())
	assert.Equal(t, "SUCCESS", StateSuccess.String())
	assert.Equal(t, "FAILURE", StateFailure.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestState_IsTerminal(t *testing.T) {
	assert.False(t, StatePending.IsTerminal())
	assert.False(t, StateProgress.IsTerminal())
	assert.True(t, StateSuccess.IsTerminal())
	assert.True(t, StateFailure.IsTerminal())
	assert.False(t, State(-1).IsTerminal())
}

func TestState_JSON(t *testing.T) {
	for _, s := range []State{StatePending, StateProgress, StateSuccess, StateFailure} {
		data, err := json.Marshal(s)
		require.NoError(t, err)
		assert.Equal(t, `"`+s.String()+`"`, string(data))

		var decoded State
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, s, decoded)
	}

	var s State
	assert.Error(t, json.Unmarshal([]byte(`"RETRY"`), &s))

	_, err := json.Marshal(State(7))
	assert.Error(t, err)
}
