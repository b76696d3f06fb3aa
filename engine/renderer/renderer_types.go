package renderer

// TextureFormat identifies the pixel format of a texture.
type TextureFormat int

const (
	// FormatRGBA8Unorm is 8-bit normalized RGBA.
	FormatRGBA8Unorm TextureFormat = iota
	// FormatRGBA8UnormSrgb is 8-bit normalized RGBA with sRGB encoding.
	FormatRGBA8UnormSrgb
	// FormatRGBA16Float is 16-bit floating point RGBA. Filterable.
	FormatRGBA16Float
	// FormatRGBA32Float is 32-bit floating point RGBA. Not filterable.
	FormatRGBA32Float
	// FormatR16Float is a single 16-bit floating point channel.
	FormatR16Float
	// FormatR32Float is a single 32-bit floating point channel. Not filterable.
	FormatR32Float
	// FormatDepth32Float is a 32-bit floating point depth format.
	FormatDepth32Float
	// FormatSurface is the presentation surface's preferred format.
	FormatSurface
)

// String returns the format name.
func (f TextureFormat) String() string {
	switch f {
	case FormatRGBA8Unorm:
		return "RGBA8Unorm"
	case FormatRGBA8UnormSrgb:
		return "RGBA8UnormSrgb"
	case FormatRGBA16Float:
		return "RGBA16Float"
	case FormatRGBA32Float:
		return "RGBA32Float"
	case FormatR16Float:
		return "R16Float"
	case FormatR32Float:
		return "R32Float"
	case FormatDepth32Float:
		return "Depth32Float"
	case FormatSurface:
		return "Surface"
	}
	return "Unknown"
}

// IsDepth reports whether the format is a depth format.
func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth32Float
}

// IsFilterable reports whether the format may be sampled with a filtering sampler.
func (f TextureFormat) IsFilterable() bool {
	switch f {
	case FormatRGBA32Float, FormatR32Float, FormatDepth32Float:
		return false
	}
	return true
}

// BytesPerPixel returns the texel size in bytes.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA16Float:
		return 8
	case FormatRGBA32Float:
		return 16
	case FormatR16Float:
		return 2
	}
	return 4
}

// TextureUsage is a bit set describing how a texture will be used.
type TextureUsage uint32

const (
	// TextureUsageSampled allows binding the texture as a shader resource.
	TextureUsageSampled TextureUsage = 1 << iota
	// TextureUsageRenderTarget allows binding the texture as a render target.
	TextureUsageRenderTarget
	// TextureUsageCopyDst allows uploading data into the texture.
	TextureUsageCopyDst
)

// TextureDescriptor describes a texture to create.
type TextureDescriptor struct {
	// Label is the debug label.
	Label string
	// Width and Height are the dimensions of mip level 0.
	Width, Height int
	// Format is the pixel format.
	Format TextureFormat
	// Usage is the set of intended usages.
	Usage TextureUsage
	// MipLevels is the number of mip levels; 0 is treated as 1.
	MipLevels int
	// Cube creates a six-layer cube texture when set.
	Cube bool
	// Data, when non-nil, is uploaded to mip level 0 (layer 0 for cube textures).
	Data []byte
}

// BufferUsage identifies what a buffer is bound as.
type BufferUsage int

const (
	// BufferUsageUniform is a uniform (constant) buffer.
	BufferUsageUniform BufferUsage = iota
	// BufferUsageVertex is a vertex buffer.
	BufferUsageVertex
	// BufferUsageIndex is a uint32 index buffer.
	BufferUsageIndex
)

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	// Label is the debug label.
	Label string
	// Usage is the buffer binding kind.
	Usage BufferUsage
	// Size is the buffer size in bytes. When zero, len(Data) is used.
	Size int
	// Data, when non-nil, is uploaded at creation.
	Data []byte
}

// SamplerFilter selects texel filtering.
type SamplerFilter int

const (
	// FilterLinear interpolates between texels and mip levels.
	FilterLinear SamplerFilter = iota
	// FilterPoint selects the nearest texel.
	FilterPoint
)

// SamplerAddress selects the texture coordinate wrapping mode.
type SamplerAddress int

const (
	// AddressClamp clamps coordinates to the edge texel.
	AddressClamp SamplerAddress = iota
	// AddressWrap repeats the texture.
	AddressWrap
)

// SamplerDescriptor describes a sampler to create.
type SamplerDescriptor struct {
	Label   string
	Filter  SamplerFilter
	Address SamplerAddress
}

// VertexLayout selects the vertex input layout of a program.
type VertexLayout int

const (
	// VertexLayoutNone generates vertices procedurally (full-screen triangle).
	VertexLayoutNone VertexLayout = iota
	// VertexLayoutMesh reads the engine's interleaved mesh vertex format.
	VertexLayoutMesh
)

// ProgramDescriptor describes a program to compile.
type ProgramDescriptor struct {
	// Label is the debug label.
	Label string
	// VertexSource and PixelSource are WGSL sources.
	VertexSource, PixelSource string
	// VertexEntry and PixelEntry default to "vs_main" and "fs_main".
	VertexEntry, PixelEntry string
	// Layout is the vertex input layout.
	Layout VertexLayout
}

// BlendFactor is a blend equation operand.
type BlendFactor int

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
)

// BlendState describes color blending for every bound color target.
type BlendState struct {
	Enabled  bool
	SrcColor BlendFactor
	DstColor BlendFactor
	SrcAlpha BlendFactor
	DstAlpha BlendFactor
}

// CompareFunction is a depth comparison.
type CompareFunction int

const (
	CompareLess CompareFunction = iota
	CompareLessEqual
	CompareAlways
)

// DepthState describes depth testing.
type DepthState struct {
	TestEnabled  bool
	WriteEnabled bool
	Compare      CompareFunction
}

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullNone CullMode = iota
	CullBack
	CullFront
)

// RasterState describes rasterization.
type RasterState struct {
	Cull      CullMode
	Wireframe bool
}
