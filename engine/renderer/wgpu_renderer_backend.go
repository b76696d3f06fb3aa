package renderer

import (
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/naga"
)

// meshVertexStride is the byte size of one interleaved mesh vertex:
// position vec3, normal vec3, tangent vec4, uv vec2.
const meshVertexStride = 48

// ErrTimestampsUnsupported is returned by query creation when the device was created
// without the timestamp-query feature.
var ErrTimestampsUnsupported = errors.New("renderer: timestamp queries unsupported")

// wgpuTexture is the WGPU implementation of Texture.
type wgpuTexture struct {
	label         string
	width, height int
	format        TextureFormat
	cube          bool
	texture       *wgpu.Texture
	view          *wgpu.TextureView
	released      bool
}

var _ Texture = &wgpuTexture{}

func (t *wgpuTexture) Label() string         { return t.label }
func (t *wgpuTexture) Width() int            { return t.width }
func (t *wgpuTexture) Height() int           { return t.height }
func (t *wgpuTexture) Format() TextureFormat { return t.format }

func (t *wgpuTexture) Release() {
	if t.released || t.texture == nil {
		return
	}
	t.released = true
	t.view.Release()
	t.texture.Release()
}

// wgpuBuffer is the WGPU implementation of Buffer.
type wgpuBuffer struct {
	label    string
	size     int
	buffer   *wgpu.Buffer
	released bool
}

var _ Buffer = &wgpuBuffer{}

func (b *wgpuBuffer) Label() string { return b.label }
func (b *wgpuBuffer) Size() int     { return b.size }

func (b *wgpuBuffer) Release() {
	if b.released {
		return
	}
	b.released = true
	b.buffer.Release()
}

// wgpuSampler is the WGPU implementation of Sampler.
type wgpuSampler struct {
	sampler  *wgpu.Sampler
	released bool
}

var _ Sampler = &wgpuSampler{}

func (s *wgpuSampler) Release() {
	if s.released {
		return
	}
	s.released = true
	s.sampler.Release()
}

// wgpuProgram is the WGPU implementation of Program.
type wgpuProgram struct {
	id       uint64
	label    string
	vs, fs   *wgpu.ShaderModule
	vsEntry  string
	fsEntry  string
	layout   VertexLayout
	backend  *wgpuRendererBackendImpl
	released bool
}

var _ Program = &wgpuProgram{}

func (p *wgpuProgram) Label() string { return p.label }

func (p *wgpuProgram) Release() {
	if p.released {
		return
	}
	p.released = true
	p.backend.releaseProgram(p)
}

// builtPipeline bundles a render pipeline with the layouts it was created from.
type builtPipeline struct {
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
	groups   [3]*wgpu.BindGroupLayout
}

func (bp *builtPipeline) release() {
	bp.pipeline.Release()
	bp.layout.Release()
	for _, g := range bp.groups {
		g.Release()
	}
}

// wgpuRendererBackendImpl is the WGPU implementation of Renderer.
//
// Draw calls are recorded into a single command encoder per frame. Render passes are
// opened lazily on the first draw after a target change and closed whenever an
// encoder-level command (clear, copy, timestamp, debug group) must be recorded.
type wgpuRendererBackendImpl struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	width, height int
	timestamps    bool

	backBuffer   *wgpuTexture
	frameSurface *wgpu.Texture
	encoder      *wgpu.CommandEncoder
	pass         *wgpu.RenderPassEncoder
	garbage      []func()

	colors  []*wgpuTexture
	depth   *wgpuTexture
	program *wgpuProgram
	blend   BlendState
	depthSt DepthState
	raster  RasterState

	uniforms [MaxUniformSlots]*wgpuBuffer
	textures [MaxTextureSlots]*wgpuTexture
	samplers [MaxSamplerSlots]*wgpuSampler

	programs      map[uint64]*wgpuProgram
	nextProgramID uint64
	pipelines     PipelineCache[*builtPipeline]
	warnedWire    bool

	queries *wgpuQueryState
}

var _ Renderer = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surface Surface, cfg *rendererConfig) Renderer {
	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
		programs:    make(map[uint64]*wgpuProgram),
		pipelines:   NewPipelineCache(func(bp *builtPipeline) { bp.release() }),
		queries:     newWGPUQueryState(),
	}
	if cfg.presentMode == PresentModeUncapped {
		b.presentMode = wgpu.PresentModeImmediate
	}
	b.surface = b.instance.CreateSurface(surface.SurfaceDescriptor())

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		panic(err)
	}
	b.adapter = a

	var features []wgpu.FeatureName
	if cfg.timestamps {
		if a.HasFeature(wgpu.FeatureNameTimestampQuery) {
			features = append(features, wgpu.FeatureNameTimestampQuery)
			b.timestamps = true
		} else {
			log.Printf("[Renderer] adapter does not support timestamp queries")
		}
	}

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "Main Device",
		RequiredFeatures: features,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		panic(err)
	}
	b.device = d
	b.queue = d.GetQueue()

	b.backBuffer = &wgpuTexture{label: "BackBuffer", format: FormatSurface}
	b.configureSurface(surface.Width(), surface.Height())
	return b
}

func (b *wgpuRendererBackendImpl) configureSurface(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.width, b.height = width, height
	b.backBuffer.width, b.backBuffer.height = width, height
}

func (b *wgpuRendererBackendImpl) Width() int  { return b.width }
func (b *wgpuRendererBackendImpl) Height() int { return b.height }

func (b *wgpuRendererBackendImpl) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configureSurface(width, height)
}

func (b *wgpuRendererBackendImpl) BackBuffer() Texture { return b.backBuffer }

func (b *wgpuRendererBackendImpl) wgpuFormat(f TextureFormat) wgpu.TextureFormat {
	switch f {
	case FormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case FormatRGBA8UnormSrgb:
		return wgpu.TextureFormatRGBA8UnormSrgb
	case FormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case FormatRGBA32Float:
		return wgpu.TextureFormatRGBA32Float
	case FormatR16Float:
		return wgpu.TextureFormatR16Float
	case FormatR32Float:
		return wgpu.TextureFormatR32Float
	case FormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	}
	return b.surfaceFormat
}

func (b *wgpuRendererBackendImpl) CreateTexture(desc TextureDescriptor) (Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("renderer: texture %s has invalid size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	var usage wgpu.TextureUsage
	if desc.Usage&TextureUsageSampled != 0 {
		usage |= wgpu.TextureUsageTextureBinding
	}
	if desc.Usage&TextureUsageRenderTarget != 0 {
		usage |= wgpu.TextureUsageRenderAttachment
	}
	if desc.Usage&TextureUsageCopyDst != 0 || desc.Data != nil {
		usage |= wgpu.TextureUsageCopyDst
	}
	mips := uint32(max(desc.MipLevels, 1))
	layers := uint32(1)
	if desc.Cube {
		layers = 6
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: layers,
		},
		MipLevelCount: mips,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        b.wgpuFormat(desc.Format),
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: create texture %s: %w", desc.Label, err)
	}

	if desc.Data != nil {
		bpp := uint32(desc.Format.BytesPerPixel())
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			desc.Data,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  uint32(desc.Width) * bpp,
				RowsPerImage: uint32(desc.Height),
			},
			&wgpu.Extent3D{
				Width:              uint32(desc.Width),
				Height:             uint32(desc.Height),
				DepthOrArrayLayers: 1,
			},
		)
	}

	var viewDesc *wgpu.TextureViewDescriptor
	if desc.Cube {
		viewDesc = &wgpu.TextureViewDescriptor{
			Label:           desc.Label + " Cube View",
			Format:          b.wgpuFormat(desc.Format),
			Dimension:       wgpu.TextureViewDimensionCube,
			BaseMipLevel:    0,
			MipLevelCount:   mips,
			BaseArrayLayer:  0,
			ArrayLayerCount: 6,
			Aspect:          wgpu.TextureAspectAll,
		}
	}
	view, err := tex.CreateView(viewDesc)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("renderer: create view %s: %w", desc.Label, err)
	}

	return &wgpuTexture{
		label:   desc.Label,
		width:   desc.Width,
		height:  desc.Height,
		format:  desc.Format,
		cube:    desc.Cube,
		texture: tex,
		view:    view,
	}, nil
}

func (b *wgpuRendererBackendImpl) CreateBuffer(desc BufferDescriptor) (Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := desc.Size
	if size == 0 {
		size = len(desc.Data)
	}
	size = align4(size)
	if size == 0 {
		return nil, fmt.Errorf("renderer: buffer %s has zero size", desc.Label)
	}

	usage := wgpu.BufferUsageCopyDst
	switch desc.Usage {
	case BufferUsageUniform:
		usage |= wgpu.BufferUsageUniform
	case BufferUsageVertex:
		usage |= wgpu.BufferUsageVertex
	case BufferUsageIndex:
		usage |= wgpu.BufferUsageIndex
	}

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             uint64(size),
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: create buffer %s: %w", desc.Label, err)
	}
	if len(desc.Data) > 0 {
		b.queue.WriteBuffer(buf, 0, pad4(desc.Data))
	}
	return &wgpuBuffer{label: desc.Label, size: size, buffer: buf}, nil
}

func (b *wgpuRendererBackendImpl) WriteBuffer(buf Buffer, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wb, ok := buf.(*wgpuBuffer)
	if !ok || wb.released || len(data) == 0 {
		return
	}
	data = pad4(data)

	// Inside a frame the write is recorded as a copy so it lands in command order,
	// after every draw that read the previous contents.
	if b.encoder == nil {
		b.queue.WriteBuffer(wb.buffer, 0, data)
		return
	}
	staging, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    wb.label + " Staging",
		Contents: data,
		Usage:    wgpu.BufferUsageCopySrc,
	})
	if err != nil {
		log.Printf("[Renderer] staging write for %s failed: %v", wb.label, err)
		return
	}
	b.endPass()
	b.encoder.CopyBufferToBuffer(staging, 0, wb.buffer, 0, uint64(len(data)))
	b.garbage = append(b.garbage, staging.Release)
}

func (b *wgpuRendererBackendImpl) CreateSampler(desc SamplerDescriptor) (Sampler, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	address := wgpu.AddressModeClampToEdge
	if desc.Address == AddressWrap {
		address = wgpu.AddressModeRepeat
	}
	filter, mip := wgpu.FilterModeLinear, wgpu.MipmapFilterModeLinear
	if desc.Filter == FilterPoint {
		filter, mip = wgpu.FilterModeNearest, wgpu.MipmapFilterModeNearest
	}

	s, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  address,
		AddressModeV:  address,
		AddressModeW:  address,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapFilter:  mip,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: create sampler %s: %w", desc.Label, err)
	}
	return &wgpuSampler{sampler: s}, nil
}

func (b *wgpuRendererBackendImpl) CreateProgram(desc ProgramDescriptor) (Program, error) {
	for _, src := range []string{desc.VertexSource, desc.PixelSource} {
		if _, err := naga.Compile(src); err != nil {
			return nil, fmt.Errorf("renderer: program %s: %w", desc.Label, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label + " VS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.VertexSource},
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: program %s vertex module: %w", desc.Label, err)
	}
	fs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          desc.Label + " PS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: desc.PixelSource},
	})
	if err != nil {
		vs.Release()
		return nil, fmt.Errorf("renderer: program %s pixel module: %w", desc.Label, err)
	}

	b.nextProgramID++
	p := &wgpuProgram{
		id:      b.nextProgramID,
		label:   desc.Label,
		vs:      vs,
		fs:      fs,
		vsEntry: orDefault(desc.VertexEntry, "vs_main"),
		fsEntry: orDefault(desc.PixelEntry, "fs_main"),
		layout:  desc.Layout,
		backend: b,
	}
	b.programs[p.id] = p
	return p, nil
}

func (b *wgpuRendererBackendImpl) releaseProgram(p *wgpuProgram) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pipelines.InvalidateProgram(p.id)
	delete(b.programs, p.id)
	if b.program == p {
		b.program = nil
	}
	p.vs.Release()
	p.fs.Release()
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.frameSurface = surfaceTexture
	b.backBuffer.view = view
	b.encoder = encoder
	return nil
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.encoder == nil {
		return
	}
	b.endPass()

	commandBuffer, err := b.encoder.Finish(nil)
	b.encoder.Release()
	b.encoder = nil
	if err != nil {
		log.Printf("[Renderer] finish command encoder: %v", err)
		b.collectGarbage()
		return
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.collectGarbage()
	b.queries.mapSubmitted()
}

func (b *wgpuRendererBackendImpl) collectGarbage() {
	for _, release := range b.garbage {
		release()
	}
	b.garbage = b.garbage[:0]
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.surface.Present()
	if b.backBuffer.view != nil {
		b.backBuffer.view.Release()
		b.backBuffer.view = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackendImpl) SetRenderTargets(depth Texture, colors ...Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.endPass()
	b.colors = b.colors[:0]
	for i, c := range colors {
		if i >= MaxColorTargets {
			log.Printf("[Renderer] ignoring color target %d (%s): at most %d are supported", i, c.Label(), MaxColorTargets)
			break
		}
		if wt, ok := c.(*wgpuTexture); ok {
			b.colors = append(b.colors, wt)
		}
	}
	b.depth = nil
	if wt, ok := depth.(*wgpuTexture); ok && wt != nil {
		b.depth = wt
	}
}

func (b *wgpuRendererBackendImpl) UnsetRenderTargets() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endPass()
	b.colors = b.colors[:0]
	b.depth = nil
}

func (b *wgpuRendererBackendImpl) ClearColor(t Texture, color [4]float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wt, ok := t.(*wgpuTexture)
	if !ok || b.encoder == nil || wt.view == nil {
		return
	}
	b.endPass()
	pass := b.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Clear " + wt.label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    wt.view,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
			ClearValue: wgpu.Color{
				R: float64(color[0]), G: float64(color[1]), B: float64(color[2]), A: float64(color[3]),
			},
		}},
	})
	pass.End()
	pass.Release()
}

func (b *wgpuRendererBackendImpl) ClearDepth(t Texture, depth float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wt, ok := t.(*wgpuTexture)
	if !ok || b.encoder == nil {
		return
	}
	b.endPass()
	pass := b.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "Clear " + wt.label,
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            wt.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: depth,
		},
	})
	pass.End()
	pass.Release()
}

func (b *wgpuRendererBackendImpl) SetProgram(p Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	wp, _ := p.(*wgpuProgram)
	b.program = wp
}

func (b *wgpuRendererBackendImpl) SetBlendState(s BlendState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blend = s
}

func (b *wgpuRendererBackendImpl) SetDepthState(s DepthState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.depthSt = s
}

func (b *wgpuRendererBackendImpl) SetRasterState(s RasterState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.Wireframe && !b.warnedWire {
		log.Printf("[Renderer] wireframe rasterization is not available on this backend; drawing filled")
		b.warnedWire = true
	}
	b.raster = s
}

func (b *wgpuRendererBackendImpl) BindSampler(slot int, s Sampler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if slot < 0 || slot >= MaxSamplerSlots {
		return
	}
	ws, _ := s.(*wgpuSampler)
	b.samplers[slot] = ws
}

func (b *wgpuRendererBackendImpl) BindUniform(slot int, buf Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if slot < 0 || slot >= MaxUniformSlots {
		return
	}
	wb, _ := buf.(*wgpuBuffer)
	b.uniforms[slot] = wb
}

func (b *wgpuRendererBackendImpl) BindTexture(slot int, t Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if slot < 0 || slot >= MaxTextureSlots {
		return
	}
	wt, _ := t.(*wgpuTexture)
	b.textures[slot] = wt
}

func (b *wgpuRendererBackendImpl) UnbindTexture(slot int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if slot < 0 || slot >= MaxTextureSlots {
		return
	}
	b.textures[slot] = nil
}

func (b *wgpuRendererBackendImpl) Draw(vertexCount int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.prepareDraw(VertexLayoutNone) {
		return
	}
	b.pass.Draw(uint32(vertexCount), 1, 0, 0)
}

func (b *wgpuRendererBackendImpl) DrawIndexed(vertices, indices Buffer, indexCount int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	vb, ok1 := vertices.(*wgpuBuffer)
	ib, ok2 := indices.(*wgpuBuffer)
	if !ok1 || !ok2 {
		return
	}
	if !b.prepareDraw(VertexLayoutMesh) {
		return
	}
	b.pass.SetVertexBuffer(0, vb.buffer, 0, wgpu.WholeSize)
	b.pass.SetIndexBuffer(ib.buffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	b.pass.DrawIndexed(uint32(indexCount), 1, 0, 0, 0)
}

// prepareDraw opens a pass if needed and binds the pipeline and bind groups for the
// current state. It reports false when the draw must be skipped.
func (b *wgpuRendererBackendImpl) prepareDraw(layout VertexLayout) bool {
	if b.encoder == nil {
		return false
	}
	if b.program == nil {
		log.Printf("[Renderer] draw skipped: no program bound")
		return false
	}
	if b.program.layout != layout {
		log.Printf("[Renderer] draw skipped: program %s vertex layout does not match the draw", b.program.label)
		return false
	}
	if len(b.colors) == 0 && b.depth == nil {
		log.Printf("[Renderer] draw skipped: no render targets bound")
		return false
	}

	key := b.pipelineKey()
	bp, err := b.pipelines.GetOrCreate(key, b.createPipeline)
	if err != nil {
		log.Printf("[Renderer] %v", err)
		return false
	}
	groups, err := b.createBindGroups(bp)
	if err != nil {
		log.Printf("[Renderer] bind groups for %s: %v", b.program.label, err)
		return false
	}

	b.ensurePass()
	b.pass.SetPipeline(bp.pipeline)
	for i, g := range groups {
		b.pass.SetBindGroup(uint32(i), g, nil)
	}
	return true
}

func (b *wgpuRendererBackendImpl) pipelineKey() PipelineKey {
	k := PipelineKey{
		ProgramID:  b.program.id,
		Blend:      b.blend,
		Raster:     b.raster,
		ColorCount: len(b.colors),
	}
	k.Raster.Wireframe = false
	for i, c := range b.colors {
		k.ColorFormats[i] = c.format
	}
	if b.depth != nil {
		k.HasDepth = true
		k.DepthFormat = b.depth.format
		k.Depth = b.depthSt
	}
	for i, u := range b.uniforms {
		if u != nil {
			k.UniformMask |= 1 << i
		}
	}
	for i, t := range b.textures {
		if t == nil {
			continue
		}
		k.TextureMask |= 1 << i
		if t.format.IsDepth() {
			k.DepthTextureMask |= 1 << i
		} else if !t.format.IsFilterable() {
			k.UnfilterableMask |= 1 << i
		}
		if t.cube {
			k.CubeMask |= 1 << i
		}
	}
	return k
}

func (b *wgpuRendererBackendImpl) createPipeline(k PipelineKey) (*builtPipeline, error) {
	p, ok := b.programs[k.ProgramID]
	if !ok {
		return nil, fmt.Errorf("unknown program %d", k.ProgramID)
	}
	label := p.label

	var uniformEntries, textureEntries, samplerEntries []wgpu.BindGroupLayoutEntry
	visibility := wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
	for i := 0; i < MaxUniformSlots; i++ {
		if k.UniformMask&(1<<i) == 0 {
			continue
		}
		uniformEntries = append(uniformEntries, wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: visibility,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
		})
	}
	for i := 0; i < MaxTextureSlots; i++ {
		bit := uint32(1) << i
		if k.TextureMask&bit == 0 {
			continue
		}
		sampleType := wgpu.TextureSampleTypeFloat
		switch {
		case k.DepthTextureMask&bit != 0:
			sampleType = wgpu.TextureSampleTypeDepth
		case k.UnfilterableMask&bit != 0:
			sampleType = wgpu.TextureSampleTypeUnfilterableFloat
		}
		dim := wgpu.TextureViewDimension2D
		if k.CubeMask&bit != 0 {
			dim = wgpu.TextureViewDimensionCube
		}
		textureEntries = append(textureEntries, wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: wgpu.ShaderStageFragment,
			Texture:    wgpu.TextureBindingLayout{SampleType: sampleType, ViewDimension: dim},
		})
	}
	for i := 0; i < MaxSamplerSlots; i++ {
		samplerEntries = append(samplerEntries, wgpu.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: wgpu.ShaderStageFragment,
			Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
		})
	}

	bp := &builtPipeline{}
	for g, entries := range [][]wgpu.BindGroupLayoutEntry{uniformEntries, textureEntries, samplerEntries} {
		layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", label, g),
			Entries: entries,
		})
		if err != nil {
			return nil, fmt.Errorf("bind group layout %d: %w", g, err)
		}
		bp.groups[g] = layout
	}
	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: bp.groups[:],
	})
	if err != nil {
		return nil, err
	}
	bp.layout = layout

	var buffers []wgpu.VertexBufferLayout
	if p.layout == VertexLayoutMesh {
		buffers = []wgpu.VertexBufferLayout{{
			ArrayStride: meshVertexStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
				{Format: wgpu.VertexFormatFloat32x4, Offset: 24, ShaderLocation: 2},
				{Format: wgpu.VertexFormatFloat32x2, Offset: 40, ShaderLocation: 3},
			},
		}}
	}

	targets := make([]wgpu.ColorTargetState, 0, k.ColorCount)
	for i := 0; i < k.ColorCount; i++ {
		state := wgpu.ColorTargetState{
			Format:    b.wgpuFormat(k.ColorFormats[i]),
			WriteMask: wgpu.ColorWriteMaskAll,
		}
		if k.Blend.Enabled && k.ColorFormats[i].IsFilterable() {
			state.Blend = &wgpu.BlendState{
				Color: wgpu.BlendComponent{
					SrcFactor: blendFactor(k.Blend.SrcColor),
					DstFactor: blendFactor(k.Blend.DstColor),
					Operation: wgpu.BlendOperationAdd,
				},
				Alpha: wgpu.BlendComponent{
					SrcFactor: blendFactor(k.Blend.SrcAlpha),
					DstFactor: blendFactor(k.Blend.DstAlpha),
					Operation: wgpu.BlendOperationAdd,
				},
			}
		}
		targets = append(targets, state)
	}

	var depthStencil *wgpu.DepthStencilState
	if k.HasDepth {
		compare := wgpu.CompareFunctionAlways
		if k.Depth.TestEnabled {
			compare = compareFunction(k.Depth.Compare)
		}
		depthStencil = &wgpu.DepthStencilState{
			Format:            b.wgpuFormat(k.DepthFormat),
			DepthWriteEnabled: k.Depth.WriteEnabled,
			DepthCompare:      compare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	cull := wgpu.CullModeNone
	switch k.Raster.Cull {
	case CullBack:
		cull = wgpu.CullModeBack
	case CullFront:
		cull = wgpu.CullModeFront
	}

	rp, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     p.vs,
			EntryPoint: p.vsEntry,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     p.fs,
			EntryPoint: p.fsEntry,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  cull,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: depthStencil,
	})
	if err != nil {
		return nil, err
	}
	bp.pipeline = rp
	return bp, nil
}

func (b *wgpuRendererBackendImpl) createBindGroups(bp *builtPipeline) ([3]*wgpu.BindGroup, error) {
	var groups [3]*wgpu.BindGroup

	var uniformEntries, textureEntries, samplerEntries []wgpu.BindGroupEntry
	for i, u := range b.uniforms {
		if u == nil {
			continue
		}
		uniformEntries = append(uniformEntries, wgpu.BindGroupEntry{
			Binding: uint32(i),
			Buffer:  u.buffer,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}
	for i, t := range b.textures {
		if t == nil {
			continue
		}
		if t.view == nil {
			return groups, fmt.Errorf("texture slot %d (%s) has no view", i, t.label)
		}
		textureEntries = append(textureEntries, wgpu.BindGroupEntry{
			Binding:     uint32(i),
			TextureView: t.view,
		})
	}
	for i, s := range b.samplers {
		if s == nil {
			return groups, fmt.Errorf("sampler slot %d is not bound", i)
		}
		samplerEntries = append(samplerEntries, wgpu.BindGroupEntry{
			Binding: uint32(i),
			Sampler: s.sampler,
		})
	}

	for g, entries := range [][]wgpu.BindGroupEntry{uniformEntries, textureEntries, samplerEntries} {
		bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   fmt.Sprintf("%s bind group %d", b.program.label, g),
			Layout:  bp.groups[g],
			Entries: entries,
		})
		if err != nil {
			return groups, err
		}
		groups[g] = bg
		b.garbage = append(b.garbage, bg.Release)
	}
	return groups, nil
}

func (b *wgpuRendererBackendImpl) ensurePass() {
	if b.pass != nil {
		return
	}
	desc := &wgpu.RenderPassDescriptor{}
	for _, c := range b.colors {
		desc.ColorAttachments = append(desc.ColorAttachments, wgpu.RenderPassColorAttachment{
			View:    c.view,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		})
	}
	if b.depth != nil {
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:         b.depth.view,
			DepthLoadOp:  wgpu.LoadOpLoad,
			DepthStoreOp: wgpu.StoreOpStore,
		}
	}
	b.pass = b.encoder.BeginRenderPass(desc)
}

func (b *wgpuRendererBackendImpl) endPass() {
	if b.pass == nil {
		return
	}
	b.pass.End()
	b.pass.Release()
	b.pass = nil
}

func (b *wgpuRendererBackendImpl) BeginEvent(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.encoder == nil {
		return
	}
	b.endPass()
	b.encoder.PushDebugGroup(name)
}

func (b *wgpuRendererBackendImpl) EndEvent() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.encoder == nil {
		return
	}
	b.endPass()
	b.encoder.PopDebugGroup()
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.queries.release()
	b.pipelines.Clear()
	for id, p := range b.programs {
		p.released = true
		p.vs.Release()
		p.fs.Release()
		delete(b.programs, id)
	}
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}

func blendFactor(f BlendFactor) wgpu.BlendFactor {
	switch f {
	case BlendFactorZero:
		return wgpu.BlendFactorZero
	case BlendFactorSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case BlendFactorOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	}
	return wgpu.BlendFactorOne
}

func compareFunction(c CompareFunction) wgpu.CompareFunction {
	switch c {
	case CompareLessEqual:
		return wgpu.CompareFunctionLessEqual
	case CompareAlways:
		return wgpu.CompareFunctionAlways
	}
	return wgpu.CompareFunctionLess
}

func align4(n int) int {
	return (n + 3) &^ 3
}

func pad4(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	out := make([]byte, align4(len(data)))
	copy(out, data)
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
