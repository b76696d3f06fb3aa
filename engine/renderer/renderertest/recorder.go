// Package renderertest provides a recording renderer.Renderer for CPU-only tests
// of frame components. Every state change and draw is appended to a call log that
// tests can inspect.
package renderertest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// Op names a recorded Renderer call.
type Op string

const (
	OpSetTargets    Op = "SetRenderTargets"
	OpUnsetTargets  Op = "UnsetRenderTargets"
	OpClearColor    Op = "ClearColor"
	OpClearDepth    Op = "ClearDepth"
	OpSetProgram    Op = "SetProgram"
	OpBindTexture   Op = "BindTexture"
	OpUnbindTexture Op = "UnbindTexture"
	OpBindUniform   Op = "BindUniform"
	OpBindSampler   Op = "BindSampler"
	OpWriteBuffer   Op = "WriteBuffer"
	OpDraw          Op = "Draw"
	OpDrawIndexed   Op = "DrawIndexed"
	OpBeginEvent    Op = "BeginEvent"
	OpEndEvent      Op = "EndEvent"
	OpTimestamp     Op = "WriteTimestamp"
	OpBeginDisjoint Op = "BeginDisjoint"
	OpEndDisjoint   Op = "EndDisjoint"
	OpBeginFrame    Op = "BeginFrame"
	OpEndFrame      Op = "EndFrame"
	OpPresent       Op = "Present"
)

// Call is one recorded Renderer call. Draw calls carry a snapshot of the bound state.
type Call struct {
	Op   Op
	Name string
	Slot int

	// Count is the vertex or index count of a draw.
	Count int

	// Snapshot of the bound state at draw time.
	Program  string
	Targets  []string
	Depth    string
	Textures map[int]string
	Blend    renderer.BlendState
	DepthSt  renderer.DepthState
	Raster   renderer.RasterState
}

// Texture is the recorded texture handle.
type Texture struct {
	ID       int
	label    string
	width    int
	height   int
	format   renderer.TextureFormat
	cube     bool
	released bool
}

func (t *Texture) Label() string                  { return t.label }
func (t *Texture) Width() int                     { return t.width }
func (t *Texture) Height() int                    { return t.height }
func (t *Texture) Format() renderer.TextureFormat { return t.format }
func (t *Texture) Release()                       { t.released = true }

// Released reports whether Release has been called.
func (t *Texture) Released() bool { return t.released }

// Cube reports whether the texture was created as a cube texture.
func (t *Texture) Cube() bool { return t.cube }

// Buffer is the recorded buffer handle.
type Buffer struct {
	label    string
	size     int
	Data     []byte
	Writes   int
	released bool
}

func (b *Buffer) Label() string { return b.label }
func (b *Buffer) Size() int     { return b.size }
func (b *Buffer) Release()      { b.released = true }

// Released reports whether Release has been called.
func (b *Buffer) Released() bool { return b.released }

// Sampler is the recorded sampler handle.
type Sampler struct {
	Desc     renderer.SamplerDescriptor
	released bool
}

func (s *Sampler) Release() { s.released = true }

// Program is the recorded program handle.
type Program struct {
	Desc     renderer.ProgramDescriptor
	released bool
}

func (p *Program) Label() string { return p.Desc.Label }
func (p *Program) Release()      { p.released = true }

// Released reports whether Release has been called.
func (p *Program) Released() bool { return p.released }

// Query is the recorded query handle.
type Query struct {
	disjoint bool
	value    uint64
	written  bool
	flag     bool
	released bool
}

func (q *Query) Release() { q.released = true }

// Recorder is a renderer.Renderer that records calls instead of talking to a GPU.
type Recorder struct {
	mu *sync.Mutex

	width, height int
	backBuffer    *Texture

	calls    []Call
	textures []*Texture
	buffers  []*Buffer
	programs []*Program
	nextID   int

	program  string
	targets  []string
	depth    string
	bound    map[int]string
	blend    renderer.BlendState
	depthSt  renderer.DepthState
	raster   renderer.RasterState
	inFrame  bool
	released bool

	// ProgramError, when set, is returned by CreateProgram for matching descriptors.
	ProgramError func(desc renderer.ProgramDescriptor) error

	// TimestampSource produces the value recorded by each WriteTimestamp.
	// It defaults to a counter that advances by TickStep.
	TimestampSource func() uint64
	// TickStep is the default timestamp increment per WriteTimestamp.
	TickStep uint64
	// Frequency is reported by DisjointData.
	Frequency uint64
	// Disjoint is captured by EndDisjoint and reported by DisjointData.
	Disjoint bool
	// QueriesReady controls whether query results are reported as available.
	QueriesReady bool
	// PendingReads is the number of not-ready polls before a query turns ready.
	PendingReads int
	// TimestampsUnsupported makes query creation fail.
	TimestampsUnsupported bool

	clock   uint64
	pending map[*Query]int
}

var _ renderer.Renderer = &Recorder{}

// NewRecorder creates a Recorder for a width x height surface.
//
// Parameters:
//   - width, height: the surface size
//
// Returns:
//   - *Recorder: the recorder
func NewRecorder(width, height int) *Recorder {
	r := &Recorder{
		mu:           &sync.Mutex{},
		width:        width,
		height:       height,
		bound:        make(map[int]string),
		TickStep:     1000,
		Frequency:    1_000_000,
		QueriesReady: true,
		pending:      make(map[*Query]int),
	}
	r.backBuffer = &Texture{ID: -1, label: "BackBuffer", width: width, height: height, format: renderer.FormatSurface}
	return r
}

func (r *Recorder) record(c Call) {
	r.calls = append(r.calls, c)
}

func (r *Recorder) snapshot(op Op, count int) Call {
	tex := make(map[int]string, len(r.bound))
	for k, v := range r.bound {
		tex[k] = v
	}
	return Call{
		Op:       op,
		Count:    count,
		Program:  r.program,
		Targets:  append([]string(nil), r.targets...),
		Depth:    r.depth,
		Textures: tex,
		Blend:    r.blend,
		DepthSt:  r.depthSt,
		Raster:   r.raster,
	}
}

func (r *Recorder) Width() int  { return r.width }
func (r *Recorder) Height() int { return r.height }

func (r *Recorder) Resize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
	r.backBuffer.width, r.backBuffer.height = width, height
}

func (r *Recorder) BackBuffer() renderer.Texture { return r.backBuffer }

func (r *Recorder) CreateTexture(desc renderer.TextureDescriptor) (renderer.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("renderertest: invalid texture size %dx%d for %s", desc.Width, desc.Height, desc.Label)
	}
	t := &Texture{ID: r.nextID, label: desc.Label, width: desc.Width, height: desc.Height, format: desc.Format, cube: desc.Cube}
	r.nextID++
	r.textures = append(r.textures, t)
	return t, nil
}

func (r *Recorder) CreateBuffer(desc renderer.BufferDescriptor) (renderer.Buffer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	size := desc.Size
	if size == 0 {
		size = len(desc.Data)
	}
	b := &Buffer{label: desc.Label, size: size, Data: append([]byte(nil), desc.Data...)}
	r.buffers = append(r.buffers, b)
	return b, nil
}

func (r *Recorder) WriteBuffer(buf renderer.Buffer, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := buf.(*Buffer); ok {
		b.Data = append(b.Data[:0], data...)
		b.Writes++
	}
	r.record(Call{Op: OpWriteBuffer, Name: buf.Label(), Count: len(data)})
}

func (r *Recorder) CreateSampler(desc renderer.SamplerDescriptor) (renderer.Sampler, error) {
	return &Sampler{Desc: desc}, nil
}

func (r *Recorder) CreateProgram(desc renderer.ProgramDescriptor) (renderer.Program, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ProgramError != nil {
		if err := r.ProgramError(desc); err != nil {
			return nil, err
		}
	}
	p := &Program{Desc: desc}
	r.programs = append(r.programs, p)
	return p, nil
}

func (r *Recorder) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFrame = true
	r.record(Call{Op: OpBeginFrame})
	return nil
}

func (r *Recorder) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFrame = false
	r.record(Call{Op: OpEndFrame})
}

func (r *Recorder) Present() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpPresent})
}

func (r *Recorder) SetRenderTargets(depth renderer.Texture, colors ...renderer.Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = r.targets[:0]
	for _, c := range colors {
		r.targets = append(r.targets, c.Label())
	}
	r.depth = ""
	if depth != nil {
		r.depth = depth.Label()
	}
	r.record(Call{Op: OpSetTargets, Targets: append([]string(nil), r.targets...), Depth: r.depth})
}

func (r *Recorder) UnsetRenderTargets() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets = r.targets[:0]
	r.depth = ""
	r.record(Call{Op: OpUnsetTargets})
}

func (r *Recorder) ClearColor(t renderer.Texture, color [4]float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpClearColor, Name: t.Label()})
}

func (r *Recorder) ClearDepth(t renderer.Texture, depth float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpClearDepth, Name: t.Label()})
}

func (r *Recorder) SetProgram(p renderer.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.program = ""
	if p != nil {
		r.program = p.Label()
	}
	r.record(Call{Op: OpSetProgram, Name: r.program})
}

func (r *Recorder) SetBlendState(s renderer.BlendState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blend = s
}

func (r *Recorder) SetDepthState(s renderer.DepthState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.depthSt = s
}

func (r *Recorder) SetRasterState(s renderer.RasterState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.raster = s
}

func (r *Recorder) BindSampler(slot int, s renderer.Sampler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpBindSampler, Slot: slot})
}

func (r *Recorder) BindUniform(slot int, b renderer.Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := ""
	if b != nil {
		name = b.Label()
	}
	r.record(Call{Op: OpBindUniform, Slot: slot, Name: name})
}

func (r *Recorder) BindTexture(slot int, t renderer.Texture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bound[slot] = t.Label()
	r.record(Call{Op: OpBindTexture, Slot: slot, Name: t.Label()})
}

func (r *Recorder) UnbindTexture(slot int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bound, slot)
	r.record(Call{Op: OpUnbindTexture, Slot: slot})
}

func (r *Recorder) Draw(vertexCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(r.snapshot(OpDraw, vertexCount))
}

func (r *Recorder) DrawIndexed(vertices, indices renderer.Buffer, indexCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.snapshot(OpDrawIndexed, indexCount)
	c.Name = vertices.Label()
	r.record(c)
}

func (r *Recorder) BeginEvent(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpBeginEvent, Name: name})
}

func (r *Recorder) EndEvent() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record(Call{Op: OpEndEvent})
}

func (r *Recorder) CreateTimestampQuery() (renderer.Query, error) {
	if r.TimestampsUnsupported {
		return nil, renderer.ErrTimestampsUnsupported
	}
	return &Query{}, nil
}

func (r *Recorder) CreateDisjointQuery() (renderer.Query, error) {
	if r.TimestampsUnsupported {
		return nil, renderer.ErrTimestampsUnsupported
	}
	return &Query{disjoint: true}, nil
}

func (r *Recorder) BeginDisjoint(q renderer.Query) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rq := q.(*Query)
	rq.written = false
	r.record(Call{Op: OpBeginDisjoint})
}

func (r *Recorder) EndDisjoint(q renderer.Query) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rq := q.(*Query)
	rq.written = true
	rq.flag = r.Disjoint
	r.pending[rq] = r.PendingReads
	r.record(Call{Op: OpEndDisjoint})
}

func (r *Recorder) WriteTimestamp(q renderer.Query) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rq := q.(*Query)
	if r.TimestampSource != nil {
		rq.value = r.TimestampSource()
	} else {
		r.clock += r.TickStep
		rq.value = r.clock
	}
	rq.written = true
	r.record(Call{Op: OpTimestamp})
}

func (r *Recorder) TimestampData(q renderer.Query) (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rq := q.(*Query)
	if !r.QueriesReady || !rq.written {
		return 0, false
	}
	return rq.value, true
}

func (r *Recorder) DisjointData(q renderer.Query) (renderer.DisjointData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rq := q.(*Query)
	if !r.QueriesReady || !rq.written {
		return renderer.DisjointData{}, false
	}
	if n := r.pending[rq]; n > 0 {
		r.pending[rq] = n - 1
		return renderer.DisjointData{}, false
	}
	return renderer.DisjointData{Frequency: r.Frequency, Disjoint: rq.flag}, true
}

func (r *Recorder) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = true
}

// Calls returns a copy of the call log.
//
// Returns:
//   - []Call: every recorded call in order
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsOf returns the recorded calls with the given op.
//
// Parameters:
//   - op: the op to filter by
//
// Returns:
//   - []Call: the matching calls in order
func (r *Recorder) CallsOf(op Op) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears the call log. Created resources are kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Textures returns every texture created so far, including released ones.
//
// Returns:
//   - []*Texture: the created textures in creation order
func (r *Recorder) Textures() []*Texture {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Texture(nil), r.textures...)
}

// LiveTextures returns the created textures that have not been released.
//
// Returns:
//   - []*Texture: the live textures in creation order
func (r *Recorder) LiveTextures() []*Texture {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Texture
	for _, t := range r.textures {
		if !t.released {
			out = append(out, t)
		}
	}
	return out
}

// Programs returns every program created so far.
//
// Returns:
//   - []*Program: the created programs in creation order
func (r *Recorder) Programs() []*Program {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Program(nil), r.programs...)
}

// Buffers returns every buffer created so far.
//
// Returns:
//   - []*Buffer: the created buffers in creation order
func (r *Recorder) Buffers() []*Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Buffer(nil), r.buffers...)
}
