package profiler

import (
	"log"
	"runtime"
	"time"
)

// FrameStats is one CPU-side frame statistics report.
type FrameStats struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	LastPauseUs uint64
	SysMB       float64
}

// Profiler tracks frame rate and memory statistics of the render loop and logs them
// at a fixed interval, together with the GPU marker averages when a GPUProfiler is attached.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	now            func() time.Time
	memStats       runtime.MemStats
	lastTotalAlloc uint64
	gpu            GPUProfiler
	last           FrameStats
}

// NewProfiler creates a Profiler that reports every interval.
//
// Parameters:
//   - interval: the reporting interval; zero selects one second
//   - gpu: an optional GPU profiler whose frame time is included in the report
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration, gpu GPUProfiler) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
		now:            time.Now,
		gpu:            gpu,
	}
}

// Tick should be called once per rendered frame.
//
// Returns:
//   - bool: true if stats were logged this tick
func (p *Profiler) Tick() bool {
	p.frameCount++
	current := p.now()
	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	stats := FrameStats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
	}
	if stats.GCCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		stats.LastPauseUs = p.memStats.PauseNs[(stats.GCCount-1)%256] / 1000
	}

	var gpuMs float64
	if p.gpu != nil {
		for _, s := range p.gpu.Samples() {
			if s.Name != BeginMarker {
				gpuMs += s.Average * 1000
			}
		}
	}

	log.Printf("[Profiler] FPS: %.2f | GPU: %.2f ms | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs) | Sys: %.2f MB",
		stats.FPS, gpuMs, stats.HeapMB, stats.AllocRateMB, stats.GCCount, stats.LastPauseUs, stats.SysMB)

	p.last = stats
	p.frameCount = 0
	p.lastTime = current
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recently logged stats.
//
// Returns:
//   - FrameStats: the stats of the last report
func (p *Profiler) Last() FrameStats { return p.last }
