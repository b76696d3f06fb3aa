package profiler

import "time"

// GPUProfilerBuilderOption is a functional option applied to a GPUProfiler during construction.
type GPUProfilerBuilderOption func(*gpuProfiler)

// WithLatency sets the number of in-flight query sets. Results are read back
// latency-1 frames after they were written. Values below MinLatency are
// treated as MinLatency.
//
// Parameters:
//   - frames: the ring size
//
// Returns:
//   - GPUProfilerBuilderOption: a function that applies the latency option
func WithLatency(frames int) GPUProfilerBuilderOption {
	return func(p *gpuProfiler) {
		p.latency = frames
	}
}

// WithMaxSpins bounds how many times WaitForDataAndUpdate polls for a ring slot.
//
// Parameters:
//   - spins: the maximum number of polls
//
// Returns:
//   - GPUProfilerBuilderOption: a function that applies the spin bound
func WithMaxSpins(spins int) GPUProfilerBuilderOption {
	return func(p *gpuProfiler) {
		p.maxSpins = max(spins, 1)
	}
}

// WithAverageInterval sets the wall-clock interval between average refreshes.
//
// Parameters:
//   - d: the interval
//
// Returns:
//   - GPUProfilerBuilderOption: a function that applies the interval
func WithAverageInterval(d time.Duration) GPUProfilerBuilderOption {
	return func(p *gpuProfiler) {
		p.interval = d
	}
}

// WithClock replaces the wall clock used for the averaging interval.
//
// Parameters:
//   - now: returns the current time
//
// Returns:
//   - GPUProfilerBuilderOption: a function that applies the clock
func WithClock(now func() time.Time) GPUProfilerBuilderOption {
	return func(p *gpuProfiler) {
		if now != nil {
			p.now = now
		}
	}
}
