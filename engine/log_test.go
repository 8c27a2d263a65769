package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiscardLoggerDoesNotPanic(t *testing.T) {
	lg := Discard()
	assert.NotPanics(t, func() {
		lg.Info("hello %d", 1)
		lg.Success("ok")
		lg.Warn("uh oh")
		lg.Wire("wire trace") // verbose is false: should be a no-op, not a panic
	})
}

func TestNewLoggerVerboseGatesWire(t *testing.T) {
	quiet := NewLogger(false)
	verbose := NewLogger(true)
	assert.NotNil(t, quiet)
	assert.NotNil(t, verbose)
	assert.False(t, quiet.verbose)
	assert.True(t, verbose.verbose)
}
