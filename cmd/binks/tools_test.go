package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallCmdRejectsInvalidJSONArgs(t *testing.T) {
	c := &CallCmd{Tool: "anything", Args: "{not json"}

	err := c.Run(&CommandContext{})

	ec, ok := asExitCodeError(err)
	require.True(t, ok)
	assert.Equal(t, 2, ec.code)
}

func TestCallArgsJSONRoundTrip(t *testing.T) {
	var args map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"path":"/tmp","recursive":true}`), &args))
	assert.Equal(t, "/tmp", args["path"])
	assert.Equal(t, true, args["recursive"])
}

