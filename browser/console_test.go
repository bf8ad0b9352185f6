package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleBufferPreservesOrder(t *testing.T) {
	c := newConsoleBuffer()
	c.append(levelLog, "first")
	c.append(levelErr, "second")
	c.append(levelWarn, "third")

	assert.Equal(t, []string{
		"LOG: first",
		"ERR: second",
		"WARN: third",
	}, c.Lines())
}

func TestConsoleBufferEmpty(t *testing.T) {
	c := newConsoleBuffer()
	assert.Empty(t, c.Lines())
}
