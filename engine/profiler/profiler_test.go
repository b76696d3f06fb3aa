package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := newFakeClock()
	p := NewProfiler(time.Second, nil)
	p.now = clock.now
	p.lastTime = clock.now()

	for i := 0; i < 59; i++ {
		clock.advance(10 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	clock.advance(410 * time.Millisecond)
	assert.True(t, p.Tick())
	assert.InDelta(t, 60.0, p.Last().FPS, 1e-9)
}
