package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPidLineRegexp(t *testing.T) {
	m := pidLineRE.FindStringSubmatch("process 12345")
	assert.Equal(t, []string{"process 12345", "12345"}, m)

	m = pidLineRE.FindStringSubmatch("Using the running image of child Process 987.")
	assert.Equal(t, "987", m[1])

	assert.Nil(t, pidLineRE.FindStringSubmatch("no pid information here"))
}

func TestFrameAddrRegexp(t *testing.T) {
	m := frameAddrRE.FindStringSubmatch("Stack level 0, frame at 0x7fffffffe350:")
	assert.Equal(t, "0x7fffffffe350", m[1])

	assert.Nil(t, frameAddrRE.FindStringSubmatch("no frame information"))
}
