package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) map[string]interface{} {
	t.Helper()

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	return got
}

func TestCategorizeCommand(t *testing.T) {
	got := runCLI(t, "categorize", "--name", "Women's Leather Handbag", "--mode", "word")
	assert.Equal(t, "women", got["primary"])
	assert.Equal(t, "accessories", got["secondary"])
	assert.Equal(t, "word", got["mode"])

	got = runCLI(t, "categorize", "--name", "Plain Cotton Throw", "--mode", "word")
	assert.Equal(t, "unisex", got["primary"])
	assert.Nil(t, got["secondary"])
	assert.Equal(t, map[string]interface{}{"primary": "low", "secondary": "low"}, got["confidence"])
}

func TestCategorizeCommandRejectsUnknownMode(t *testing.T) {
	rootCmd.SetArgs([]string{"categorize", "--name", "x", "--mode", "fuzzy"})
	assert.Error(t, rootCmd.Execute())
}
