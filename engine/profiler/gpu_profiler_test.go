package profiler

import (
	"bytes"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1000, 0)} }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func frame(p GPUProfiler, names ...string) {
	p.BeginFrame()
	for _, n := range names {
		p.Timestamp(n)
	}
	p.EndFrame()
}

func TestFirstCollectWaitsForLatency(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	p := NewGPUProfiler(rec, WithLatency(3))

	frame(p, "Shadow")
	assert.False(t, p.WaitForDataAndUpdate())
	frame(p, "Shadow")
	assert.False(t, p.WaitForDataAndUpdate())
	frame(p, "Shadow")
	assert.True(t, p.WaitForDataAndUpdate())
}

func TestDeltasAreRelativeToPreviousMarker(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	clock := newFakeClock()
	p := NewGPUProfiler(rec, WithClock(clock.now))

	frame(p, "Shadow", "Geometry")
	assert.False(t, p.WaitForDataAndUpdate())
	frame(p, "Shadow", "Geometry")
	require.True(t, p.WaitForDataAndUpdate())

	samples := p.Samples()
	require.Len(t, samples, 3)
	assert.Equal(t, BeginMarker, samples[0].Name)
	assert.Equal(t, "Shadow", samples[1].Name)
	assert.Equal(t, "Geometry", samples[2].Name)
	assert.InDelta(t, 0.0, samples[0].Delta, 1e-12)
	assert.InDelta(t, 0.001, samples[1].Delta, 1e-12)
	assert.InDelta(t, 0.001, samples[2].Delta, 1e-12)
}

func TestAveragesRefreshOnInterval(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	clock := newFakeClock()
	p := NewGPUProfiler(rec, WithClock(clock.now), WithAverageInterval(500*time.Millisecond))

	frame(p, "Lighting")
	p.WaitForDataAndUpdate()
	for i := 0; i < 3; i++ {
		frame(p, "Lighting")
		require.True(t, p.WaitForDataAndUpdate())
	}
	assert.Zero(t, p.Samples()[1].Average)

	clock.advance(600 * time.Millisecond)
	frame(p, "Lighting")
	require.True(t, p.WaitForDataAndUpdate())
	assert.InDelta(t, 0.001, p.Samples()[1].Average, 1e-9)
}

func TestMarkerFirstSeenLaterFollowsWriteOrder(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	p := NewGPUProfiler(rec)

	frame(p, "Lighting", "Tonemapping")
	assert.False(t, p.WaitForDataAndUpdate())
	frame(p, "Lighting", "Skybox", "Tonemapping")
	require.True(t, p.WaitForDataAndUpdate())
	frame(p, "Lighting", "Skybox", "Tonemapping")
	require.True(t, p.WaitForDataAndUpdate())

	samples := p.Samples()
	require.Len(t, samples, 4)
	assert.Equal(t, "Skybox", samples[3].Name)
	for _, s := range samples[1:] {
		assert.InDelta(t, 0.001, s.Delta, 1e-12, s.Name)
	}
}

func TestLatencyBelowTwoIsRaised(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	p := NewGPUProfiler(rec, WithLatency(1))

	frame(p, "Shadow")
	assert.False(t, p.WaitForDataAndUpdate(), "the slot just written is not collected")
	frame(p, "Shadow")
	assert.True(t, p.WaitForDataAndUpdate())
}

func TestEachValidFrameUpdatesOnce(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	p := NewGPUProfiler(rec)

	updates := 0
	for i := 0; i < 10; i++ {
		frame(p, "PostProcess")
		if p.WaitForDataAndUpdate() {
			updates++
		}
	}
	assert.Equal(t, 9, updates)
}

func TestDisjointFrameLeavesAveragesUnchanged(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	clock := newFakeClock()
	p := NewGPUProfiler(rec, WithClock(clock.now))

	frame(p, "Geometry")
	p.WaitForDataAndUpdate()
	clock.advance(time.Second)
	frame(p, "Geometry")
	require.True(t, p.WaitForDataAndUpdate())

	rec.TickStep = 9000
	rec.Disjoint = true
	frame(p, "Geometry")
	rec.Disjoint = false
	require.True(t, p.WaitForDataAndUpdate())
	before := p.Samples()

	clock.advance(time.Second)
	frame(p, "Geometry")
	assert.False(t, p.WaitForDataAndUpdate())
	after := p.Samples()
	for i := range before {
		assert.InDelta(t, before[i].Average, after[i].Average, 1e-12)
		assert.InDelta(t, before[i].Delta, after[i].Delta, 1e-12)
	}
}

func TestUnreadyDataIsDiscardedAfterBoundedWait(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	rec.PendingReads = 50
	p := NewGPUProfiler(rec, WithMaxSpins(3))

	frame(p, "Shadow")
	p.WaitForDataAndUpdate()
	frame(p, "Shadow")
	assert.False(t, p.WaitForDataAndUpdate())
	assert.Zero(t, p.Samples()[1].Delta)
}

func TestSampleAddedMidRingIsSkippedUntilWritten(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	p := NewGPUProfiler(rec)

	frame(p, "Shadow")
	p.WaitForDataAndUpdate()
	frame(p, "Shadow", "Skybox")
	require.True(t, p.WaitForDataAndUpdate())
	assert.Len(t, p.Samples(), 3)
	assert.Zero(t, p.Samples()[2].Delta)

	frame(p, "Shadow", "Skybox")
	require.True(t, p.WaitForDataAndUpdate())
	assert.InDelta(t, 0.001, p.Samples()[2].Delta, 1e-12)
}

func TestProfilerDisablesWithoutTimestampSupport(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	rec.TimestampsUnsupported = true
	p := NewGPUProfiler(rec)

	assert.False(t, p.Enabled())
	frame(p, "Shadow")
	assert.False(t, p.WaitForDataAndUpdate())
	assert.Empty(t, p.Samples())
	assert.Empty(t, rec.CallsOf(renderertest.OpTimestamp))
}

func TestWriteReportSkipsBeginAndTotals(t *testing.T) {
	var buf bytes.Buffer
	err := WriteReport(&buf, []Sample{
		{Name: BeginMarker},
		{Name: "Shadow", Average: 0.001},
		{Name: "Lighting", Average: 0.0025},
	}, termenv.WithProfile(termenv.Ascii))
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, BeginMarker)
	assert.Contains(t, out, "Shadow")
	assert.Contains(t, out, "1.000 ms")
	assert.Contains(t, out, "3.500 ms")
}
