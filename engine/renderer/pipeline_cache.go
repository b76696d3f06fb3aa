package renderer

import (
	"fmt"
	"strings"
	"sync"
)

// PipelineKey identifies a fully specified render pipeline: a program combined
// with the fixed-function state, the formats of the bound targets, and the
// shape of the bound resource slots. Two draws that produce equal keys can share one pipeline.
type PipelineKey struct {
	// ProgramID is the backend's unique identifier of the bound program.
	ProgramID uint64

	Blend  BlendState
	Depth  DepthState
	Raster RasterState

	// ColorFormats holds the formats of the first ColorCount color targets.
	ColorFormats [MaxColorTargets]TextureFormat
	ColorCount   int

	// DepthFormat is meaningful only when HasDepth is set.
	DepthFormat TextureFormat
	HasDepth    bool

	// UniformMask has bit i set when uniform slot i is bound.
	UniformMask uint32
	// TextureMask has bit i set when texture slot i is bound.
	TextureMask uint32
	// DepthTextureMask has bit i set when texture slot i holds a depth texture.
	DepthTextureMask uint32
	// UnfilterableMask has bit i set when texture slot i holds an unfilterable float texture.
	UnfilterableMask uint32
	// CubeMask has bit i set when texture slot i holds a cube texture.
	CubeMask uint32
}

// String renders the key for pipeline labels and logs.
func (k PipelineKey) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "prog=%d", k.ProgramID)
	for i := 0; i < k.ColorCount; i++ {
		fmt.Fprintf(&sb, " c%d=%s", i, k.ColorFormats[i])
	}
	if k.HasDepth {
		fmt.Fprintf(&sb, " d=%s", k.DepthFormat)
	}
	fmt.Fprintf(&sb, " u=%04b t=%016b", k.UniformMask, k.TextureMask)
	return sb.String()
}

// pipelineCache is the implementation of the PipelineCache interface.
type pipelineCache[T any] struct {
	mu      *sync.Mutex
	entries map[PipelineKey]T
	release func(T)
}

// PipelineCache stores backend pipelines by PipelineKey so that each unique
// combination of program, state and target layout is compiled exactly once.
type PipelineCache[T any] interface {
	// Get returns the cached value for k.
	//
	// Parameters:
	//   - k: the pipeline key
	//
	// Returns:
	//   - T: the cached value
	//   - bool: true if k was present
	Get(k PipelineKey) (T, bool)

	// GetOrCreate returns the cached value for k, calling create and caching its
	// result on a miss. A failed create is not cached.
	//
	// Parameters:
	//   - k: the pipeline key
	//   - create: builds the value for k
	//
	// Returns:
	//   - T: the cached or newly created value
	//   - error: the error returned by create
	GetOrCreate(k PipelineKey, create func(PipelineKey) (T, error)) (T, error)

	// InvalidateProgram releases and removes every entry built from the given program.
	//
	// Parameters:
	//   - programID: the program identifier
	//
	// Returns:
	//   - int: the number of entries removed
	InvalidateProgram(programID uint64) int

	// Len returns the number of cached entries.
	//
	// Returns:
	//   - int: the entry count
	Len() int

	// Clear releases and removes every entry.
	Clear()
}

var _ PipelineCache[int] = &pipelineCache[int]{}

// NewPipelineCache creates an empty PipelineCache.
//
// Parameters:
//   - release: called for every entry removed by InvalidateProgram or Clear; may be nil
//
// Returns:
//   - PipelineCache[T]: the cache
func NewPipelineCache[T any](release func(T)) PipelineCache[T] {
	return &pipelineCache[T]{
		mu:      &sync.Mutex{},
		entries: make(map[PipelineKey]T),
		release: release,
	}
}

func (c *pipelineCache[T]) Get(k PipelineKey) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[k]
	return v, ok
}

func (c *pipelineCache[T]) GetOrCreate(k PipelineKey, create func(PipelineKey) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries[k]; ok {
		return v, nil
	}
	v, err := create(k)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("pipeline: create %s: %w", k, err)
	}
	c.entries[k] = v
	return v, nil
}

func (c *pipelineCache[T]) InvalidateProgram(programID uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, v := range c.entries {
		if k.ProgramID != programID {
			continue
		}
		if c.release != nil {
			c.release(v)
		}
		delete(c.entries, k)
		n++
	}
	return n
}

func (c *pipelineCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *pipelineCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range c.entries {
		if c.release != nil {
			c.release(v)
		}
		delete(c.entries, k)
	}
}
