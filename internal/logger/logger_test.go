package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithConfigPrefixesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig("Navigator", Config{IsProduction: true, AppEnv: "production", Out: &buf})

	l.LogInfof("Processing %s...", "https://example.com")

	out := buf.String()
	assert.Contains(t, out, "[Navigator] Processing https://example.com...")
	assert.Equal(t, "Navigator", l.Component())
}

func TestLevelFollowsEnv(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithConfig("Run", Config{IsProduction: true, AppEnv: "production", Out: &buf})

	l.LogDebugf("hidden")
	require.Empty(t, buf.String())

	l.LogWarnf("shown")
	assert.Contains(t, buf.String(), "shown")
}
