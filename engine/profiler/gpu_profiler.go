package profiler

import (
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// BeginMarker is the name of the timestamp written by every BeginFrame.
const BeginMarker = "Begin"

// MinLatency is the smallest ring size. A slot is collected during the frame
// after the one that wrote it, once its command buffer has been submitted.
const MinLatency = 2

// Sample is a snapshot of one named timestamp.
type Sample struct {
	// Name is the marker name.
	Name string
	// Delta is the last measured time since the previous marker, in seconds.
	Delta float64
	// Average is the mean Delta over the last completed averaging interval, in seconds.
	Average float64
}

type timestampSample struct {
	name    string
	queries []renderer.Query
	written []bool
	dt      float64
	average float64
	total   float64
}

// gpuProfiler is the implementation of the GPUProfiler interface.
type gpuProfiler struct {
	mu *sync.Mutex
	r  renderer.Renderer

	latency  int
	maxSpins int
	interval time.Duration
	now      func() time.Time

	enabled   bool
	disjoint  []renderer.Query
	frameOpen []bool
	write     int
	collect   int

	// order holds, per ring slot, the sample indices in the order they were written.
	order [][]int

	samples []*timestampSample
	indices map[string]int

	frameCountAvg int
	beginAvg      time.Time
}

// GPUProfiler measures GPU execution time between named markers without stalling the
// GPU. Query results are read back with a latency of N-1 frames through a ring of N
// disjoint query sets.
type GPUProfiler interface {
	// BeginFrame opens the current ring slot's disjoint interval and writes the Begin marker.
	BeginFrame()

	// Timestamp writes a named marker into the current ring slot, allocating the sample
	// on first use.
	//
	// Parameters:
	//   - name: the marker name
	Timestamp(name string)

	// EndFrame closes the current disjoint interval and advances the write slot.
	EndFrame()

	// WaitForDataAndUpdate reads back the oldest in-flight ring slot, waiting for it for at
	// most the configured number of polls. Disjoint or unavailable data is discarded
	// without touching any average.
	//
	// Returns:
	//   - bool: true if the sample deltas were updated
	WaitForDataAndUpdate() bool

	// Samples returns every sample in insertion order.
	//
	// Returns:
	//   - []Sample: the sample snapshots
	Samples() []Sample

	// Enabled reports whether the renderer supports timestamp queries.
	//
	// Returns:
	//   - bool: false if profiling is disabled
	Enabled() bool

	// Release frees every query.
	Release()
}

var _ GPUProfiler = &gpuProfiler{}

// NewGPUProfiler creates a GPUProfiler. When the renderer cannot create timestamp
// queries the profiler logs once and every method becomes a no-op.
//
// Parameters:
//   - r: the renderer queries are recorded through
//   - options: functional options for latency, polling and averaging
//
// Returns:
//   - GPUProfiler: the profiler
func NewGPUProfiler(r renderer.Renderer, options ...GPUProfilerBuilderOption) GPUProfiler {
	p := &gpuProfiler{
		mu:       &sync.Mutex{},
		r:        r,
		latency:  2,
		maxSpins: 10000,
		interval: 500 * time.Millisecond,
		now:      time.Now,
		indices:  make(map[string]int),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.latency < MinLatency {
		p.latency = MinLatency
	}
	p.collect = -(p.latency - 1)
	p.beginAvg = p.now()

	p.enabled = true
	p.disjoint = make([]renderer.Query, p.latency)
	p.frameOpen = make([]bool, p.latency)
	p.order = make([][]int, p.latency)
	for i := range p.disjoint {
		q, err := r.CreateDisjointQuery()
		if err != nil {
			log.Printf("[Profiler] GPU timing disabled: %v", err)
			p.releaseQueries()
			p.enabled = false
			break
		}
		p.disjoint[i] = q
	}
	return p
}

func (p *gpuProfiler) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

func (p *gpuProfiler) BeginFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	p.r.BeginDisjoint(p.disjoint[p.write])
	p.frameOpen[p.write] = true
	p.timestamp(BeginMarker)
}

func (p *gpuProfiler) Timestamp(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	p.timestamp(name)
}

func (p *gpuProfiler) timestamp(name string) {
	idx, ok := p.indices[name]
	if !ok {
		s := &timestampSample{
			name:    name,
			queries: make([]renderer.Query, p.latency),
			written: make([]bool, p.latency),
		}
		for i := range s.queries {
			q, err := p.r.CreateTimestampQuery()
			if err != nil {
				log.Printf("[Profiler] ERROR: create timestamp %q: %v", name, err)
				for _, made := range s.queries[:i] {
					made.Release()
				}
				return
			}
			s.queries[i] = q
		}
		p.samples = append(p.samples, s)
		idx = len(p.samples) - 1
		p.indices[name] = idx
	}
	s := p.samples[idx]
	p.r.WriteTimestamp(s.queries[p.write])
	order := p.order[p.write]
	if s.written[p.write] {
		// A rewritten marker moves to its latest position.
		for i, v := range order {
			if v == idx {
				order = append(order[:i], order[i+1:]...)
				break
			}
		}
	}
	p.order[p.write] = append(order, idx)
	s.written[p.write] = true
}

func (p *gpuProfiler) EndFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	p.r.EndDisjoint(p.disjoint[p.write])
	p.write = (p.write + 1) % p.latency
}

func (p *gpuProfiler) WaitForDataAndUpdate() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return false
	}
	if p.collect < 0 {
		// Not enough frames in flight yet.
		p.collect++
		return false
	}

	slot := p.collect
	p.collect = (p.collect + 1) % p.latency
	if !p.frameOpen[slot] {
		p.clearWritten(slot)
		return false
	}
	p.frameOpen[slot] = false

	var data renderer.DisjointData
	ready := false
	for spin := 0; spin < p.maxSpins; spin++ {
		if data, ready = p.r.DisjointData(p.disjoint[slot]); ready {
			break
		}
		runtime.Gosched()
	}
	if !ready {
		log.Printf("[Profiler] timestamp data not ready after %d polls", p.maxSpins)
		p.clearWritten(slot)
		return false
	}
	if data.Disjoint || data.Frequency == 0 {
		p.clearWritten(slot)
		return false
	}

	// Read everything first so a missing value discards the whole interval.
	order := p.order[slot]
	values := make([]uint64, len(order))
	for i, idx := range order {
		s := p.samples[idx]
		v, ok := p.r.TimestampData(s.queries[slot])
		if !ok {
			log.Printf("[Profiler] timestamp %q not available", s.name)
			p.clearWritten(slot)
			return false
		}
		values[i] = v
	}

	// Deltas follow write order, which is GPU order.
	freq := float64(data.Frequency)
	var prev uint64
	for i, idx := range order {
		s := p.samples[idx]
		ts := values[i]
		if i == 0 {
			prev = ts
		}
		s.dt = float64(ts-prev) / freq
		prev = ts
		s.total += s.dt
	}
	p.clearWritten(slot)

	p.frameCountAvg++
	if now := p.now(); now.Sub(p.beginAvg) > p.interval {
		for _, s := range p.samples {
			s.average = s.total / float64(p.frameCountAvg)
			s.total = 0
		}
		p.frameCountAvg = 0
		p.beginAvg = now
	}
	return true
}

func (p *gpuProfiler) clearWritten(slot int) {
	for _, s := range p.samples {
		s.written[slot] = false
	}
	p.order[slot] = p.order[slot][:0]
}

func (p *gpuProfiler) Samples() []Sample {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Sample, len(p.samples))
	for i, s := range p.samples {
		out[i] = Sample{Name: s.name, Delta: s.dt, Average: s.average}
	}
	return out
}

func (p *gpuProfiler) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseQueries()
	p.enabled = false
}

func (p *gpuProfiler) releaseQueries() {
	for i := len(p.samples) - 1; i >= 0; i-- {
		for _, q := range p.samples[i].queries {
			q.Release()
		}
	}
	for i := len(p.disjoint) - 1; i >= 0; i-- {
		if p.disjoint[i] != nil {
			p.disjoint[i].Release()
			p.disjoint[i] = nil
		}
	}
	p.samples = nil
	p.indices = make(map[string]int)
	for i := range p.order {
		p.order[i] = nil
	}
}
