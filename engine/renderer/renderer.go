package renderer

// MaxTextureSlots is the number of pixel-stage texture slots a draw may bind.
const MaxTextureSlots = 16

// MaxUniformSlots is the number of uniform buffer slots a draw may bind.
const MaxUniformSlots = 4

// MaxSamplerSlots is the number of sampler slots a draw may bind.
const MaxSamplerSlots = 4

// MaxColorTargets is the maximum number of simultaneously bound color targets.
const MaxColorTargets = 4

// Texture is a GPU texture handle owned by the Renderer that created it.
// A texture may be bound as a render target, as a sampled resource, or both
// depending on the usage it was created with.
type Texture interface {
	// Label returns the debug label supplied at creation.
	//
	// Returns:
	//   - string: the texture label
	Label() string

	// Width returns the width of mip level 0 in texels.
	//
	// Returns:
	//   - int: the width
	Width() int

	// Height returns the height of mip level 0 in texels.
	//
	// Returns:
	//   - int: the height
	Height() int

	// Format returns the pixel format.
	//
	// Returns:
	//   - TextureFormat: the format
	Format() TextureFormat

	// Release frees the GPU memory. Releasing twice is a no-op.
	Release()
}

// Buffer is a GPU buffer handle (uniform, vertex or index data).
type Buffer interface {
	// Label returns the debug label supplied at creation.
	//
	// Returns:
	//   - string: the buffer label
	Label() string

	// Size returns the buffer size in bytes.
	//
	// Returns:
	//   - int: the size
	Size() int

	// Release frees the GPU memory. Releasing twice is a no-op.
	Release()
}

// Sampler is a GPU sampler handle.
type Sampler interface {
	// Release frees the sampler. Releasing twice is a no-op.
	Release()
}

// Program is a compiled vertex + pixel shader pair ready to be bound.
type Program interface {
	// Label returns the debug label supplied at creation.
	//
	// Returns:
	//   - string: the program label
	Label() string

	// Release frees the shader modules and every pipeline built from them.
	Release()
}

// Query is a GPU query object: either a single timestamp or a disjoint
// interval that brackets a frame's timestamps.
type Query interface {
	// Release frees the query resources.
	Release()
}

// DisjointData is the result of a disjoint interval query.
type DisjointData struct {
	// Frequency is the number of timestamp ticks per second.
	Frequency uint64
	// Disjoint reports that timestamps in the interval are not trustworthy.
	Disjoint bool
}

// Renderer is the low-level GPU façade every frame component records through.
//
// It is an immediate-mode API: callers set render targets, a program, fixed-function
// state and resource slots, then issue draws. The implementation is responsible for
// translating that state into backend objects (render passes, pipelines, bind groups).
// A Renderer is injected into each component at construction; nothing in the engine
// reaches for a process-wide device.
//
// All methods must be called from the single submission goroutine.
type Renderer interface {
	// Width returns the current presentation surface width in pixels.
	//
	// Returns:
	//   - int: the width
	Width() int

	// Height returns the current presentation surface height in pixels.
	//
	// Returns:
	//   - int: the height
	Height() int

	// Resize reconfigures the presentation surface.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	Resize(width, height int)

	// BackBuffer returns the presentation surface as a bindable, clearable render target.
	// The handle is stable across frames; the backing image changes every BeginFrame.
	//
	// Returns:
	//   - Texture: the presentation target
	BackBuffer() Texture

	// CreateTexture allocates a texture, optionally uploading initial data.
	//
	// Parameters:
	//   - desc: the texture description
	//
	// Returns:
	//   - Texture: the created texture
	//   - error: an error if allocation failed
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// CreateBuffer allocates a buffer of the given size, optionally uploading data.
	//
	// Parameters:
	//   - desc: the buffer description
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: an error if allocation failed
	CreateBuffer(desc BufferDescriptor) (Buffer, error)

	// WriteBuffer queues a write of data at offset 0 of buf.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - data: the bytes to write (must not exceed the buffer size)
	WriteBuffer(buf Buffer, data []byte)

	// CreateSampler creates a sampler.
	//
	// Parameters:
	//   - desc: the sampler description
	//
	// Returns:
	//   - Sampler: the created sampler
	//   - error: an error if creation failed
	CreateSampler(desc SamplerDescriptor) (Sampler, error)

	// CreateProgram compiles a vertex + pixel shader pair.
	//
	// Parameters:
	//   - desc: the program sources and entry points
	//
	// Returns:
	//   - Program: the compiled program
	//   - error: the compiler diagnostic if compilation failed
	CreateProgram(desc ProgramDescriptor) (Program, error)

	// BeginFrame acquires the next presentation image and opens a command stream.
	//
	// Returns:
	//   - error: an error if the surface image could not be acquired
	BeginFrame() error

	// EndFrame closes the command stream and submits it to the GPU queue.
	EndFrame()

	// Present presents the image acquired by BeginFrame.
	Present()

	// SetRenderTargets binds up to MaxColorTargets color targets and an optional depth target.
	//
	// Parameters:
	//   - depth: the depth target, or nil
	//   - colors: the color targets in attachment order
	SetRenderTargets(depth Texture, colors ...Texture)

	// UnsetRenderTargets unbinds every color and depth target.
	UnsetRenderTargets()

	// ClearColor clears a color texture to the given value.
	//
	// Parameters:
	//   - t: the texture to clear
	//   - color: the RGBA clear value
	ClearColor(t Texture, color [4]float32)

	// ClearDepth clears a depth texture to the given value.
	//
	// Parameters:
	//   - t: the texture to clear
	//   - depth: the depth clear value
	ClearDepth(t Texture, depth float32)

	// SetProgram binds the program used by subsequent draws.
	//
	// Parameters:
	//   - p: the program
	SetProgram(p Program)

	// SetBlendState sets the blend state used by subsequent draws.
	//
	// Parameters:
	//   - s: the blend state
	SetBlendState(s BlendState)

	// SetDepthState sets the depth state used by subsequent draws.
	//
	// Parameters:
	//   - s: the depth state
	SetDepthState(s DepthState)

	// SetRasterState sets the rasterizer state used by subsequent draws.
	//
	// Parameters:
	//   - s: the rasterizer state
	SetRasterState(s RasterState)

	// BindSampler binds a sampler to a sampler slot.
	//
	// Parameters:
	//   - slot: the sampler slot, in [0, MaxSamplerSlots)
	//   - s: the sampler
	BindSampler(slot int, s Sampler)

	// BindUniform binds a uniform buffer to a uniform slot.
	//
	// Parameters:
	//   - slot: the uniform slot, in [0, MaxUniformSlots)
	//   - b: the buffer, or nil to unbind
	BindUniform(slot int, b Buffer)

	// BindTexture binds a texture as a read-only resource.
	//
	// Parameters:
	//   - slot: the texture slot, in [0, MaxTextureSlots)
	//   - t: the texture
	BindTexture(slot int, t Texture)

	// UnbindTexture clears a texture slot.
	//
	// Parameters:
	//   - slot: the texture slot
	UnbindTexture(slot int)

	// Draw issues a non-indexed draw with no vertex buffers bound.
	//
	// Parameters:
	//   - vertexCount: the number of vertices to generate
	Draw(vertexCount int)

	// DrawIndexed issues an indexed draw from the given vertex and index buffers.
	//
	// Parameters:
	//   - vertices: the vertex buffer
	//   - indices: the uint32 index buffer
	//   - indexCount: the number of indices to draw
	DrawIndexed(vertices, indices Buffer, indexCount int)

	// BeginEvent opens a named debug group for external GPU tooling.
	//
	// Parameters:
	//   - name: the group name
	BeginEvent(name string)

	// EndEvent closes the innermost debug group.
	EndEvent()

	// CreateTimestampQuery creates a single-timestamp query.
	//
	// Returns:
	//   - Query: the query
	//   - error: an error if timestamp queries are unsupported
	CreateTimestampQuery() (Query, error)

	// CreateDisjointQuery creates an interval query that brackets timestamps.
	//
	// Returns:
	//   - Query: the query
	//   - error: an error if timestamp queries are unsupported
	CreateDisjointQuery() (Query, error)

	// BeginDisjoint opens the interval of q.
	//
	// Parameters:
	//   - q: a query from CreateDisjointQuery
	BeginDisjoint(q Query)

	// EndDisjoint closes the interval of q and schedules its readback.
	//
	// Parameters:
	//   - q: a query from CreateDisjointQuery
	EndDisjoint(q Query)

	// WriteTimestamp records the GPU time into q at this point in the command stream.
	//
	// Parameters:
	//   - q: a query from CreateTimestampQuery
	WriteTimestamp(q Query)

	// TimestampData returns the recorded timestamp of q without blocking.
	//
	// Parameters:
	//   - q: a query from CreateTimestampQuery
	//
	// Returns:
	//   - uint64: the timestamp in ticks
	//   - bool: false if the result is not available yet
	TimestampData(q Query) (uint64, bool)

	// DisjointData returns the disjoint result of q without blocking.
	//
	// Parameters:
	//   - q: a query from CreateDisjointQuery
	//
	// Returns:
	//   - DisjointData: the frequency and validity of the interval
	//   - bool: false if the result is not available yet
	DisjointData(q Query) (DisjointData, bool)

	// Release frees every device-level object. The Renderer is unusable afterwards.
	Release()
}
