package recovery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// TestCall_NoPanic tests that Call doesn't interfere when there's no panic
func TestCall_NoPanic(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()

	ran := false
	err := Call("no-panic", func() { ran = true }, logger)

	assert.NoError(t, err)
	assert.True(t, ran)
}

// TestCall_StringPanic tests recovery from string panic
func TestCall_StringPanic(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core).Sugar()

	err := Call("string-panic", func() { panic("test panic message") }, logger)
	require.Error(t, err)

	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "string-panic", panicErr.Name)
	assert.Equal(t, "test panic message", panicErr.Value)
	assert.Contains(t, panicErr.Stack, "goroutine")
	assert.Nil(t, panicErr.Unwrap(), "non-error panic values have nothing to unwrap")

	entries := logs.All()
	require.Len(t, entries, 1, "Should have logged exactly one entry")
	fields := entries[0].ContextMap()
	assert.Equal(t, "string-panic", fields["name"])
	assert.Contains(t, fields, "stack")
}

// TestCall_ErrorPanic tests that error panic values stay reachable through errors.Is
func TestCall_ErrorPanic(t *testing.T) {
	err := Call("error-panic", func() { panic(assert.AnError) }, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "panic in error-panic")
}
