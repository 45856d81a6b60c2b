package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	log, err := New(" DEBUG ")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	log, err = New("chatty")
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	log, err := New("warn")
	require.NoError(t, err)
	assert.Same(t, log, OrNop(log))
}
