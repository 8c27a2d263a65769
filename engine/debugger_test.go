package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameTopKey(t *testing.T) {
	assert.Equal(t, "#0  foo () at a.c", frameTopKey("#0  foo () at a.c:12"))
	assert.Equal(t, "#0  foo ()", frameTopKey("#0  foo ()"))
}

func TestParseFrameLocation(t *testing.T) {
	file, line, err := parseFrameLocation("#0  main () at main.c:42")
	require.NoError(t, err)
	assert.Equal(t, "main.c", file)
	assert.Equal(t, 42, line)
}

func TestParseFrameLocationNestedAt(t *testing.T) {
	// "at" appearing in a path component must not confuse the last-" at "
	// split rule.
	file, line, err := parseFrameLocation("#1  run_at_startup () at /src/at_init.c:7")
	require.NoError(t, err)
	assert.Equal(t, "/src/at_init.c", file)
	assert.Equal(t, 7, line)
}

func TestParseFrameLocationMissingLocation(t *testing.T) {
	_, _, err := parseFrameLocation("#0  0x00007ffff7a00000 in ?? ()")
	assert.ErrorIs(t, err, ErrFrameParse)
}

func TestParseFrameLocationMissingColon(t *testing.T) {
	_, _, err := parseFrameLocation("#0  foo () at nowhere")
	assert.ErrorIs(t, err, ErrFrameParse)
}
