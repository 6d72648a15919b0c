package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMicGate_StartsLocked(t *testing.T) {
	g := newMicGate()
	assert.True(t, g.Locked())
}

func TestMicGate_AdmitCounts(t *testing.T) {
	g := newMicGate()

	assert.False(t, g.Admit())
	assert.False(t, g.Admit())

	g.Open()
	assert.True(t, g.Admit())

	g.Lock()
	assert.False(t, g.Admit())

	forwarded, dropped := g.Counts()
	assert.Equal(t, int64(1), forwarded)
	assert.Equal(t, int64(3), dropped)
}
