package resource

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// GBuffer slot indices. The order is both the render-target order and the read slot order.
const (
	GBufferAlbedo = iota
	GBufferNormal
	GBufferMaterial
	GBufferEmissive

	// GBufferSlots is the fixed number of GBuffer targets.
	GBufferSlots
)

// GBufferDepthSlot is the texture slot the depth buffer is read from alongside the GBuffer.
const GBufferDepthSlot = GBufferSlots

var gbufferDescs = [GBufferSlots]Desc{
	{Name: "GBuffer.Albedo", Format: renderer.FormatRGBA8Unorm},
	{Name: "GBuffer.Normal", Format: renderer.FormatRGBA16Float},
	{Name: "GBuffer.Material", Format: renderer.FormatRGBA8Unorm},
	{Name: "GBuffer.Emissive", Format: renderer.FormatR32Float},
}

// GBuffer is the fixed set of full-resolution targets written by the geometry pass
// and read by the lighting pass.
type GBuffer struct {
	slots [GBufferSlots]*Resource
}

// NewGBuffer registers the four GBuffer resources in reg.
//
// Parameters:
//   - reg: the registry that owns the resources
//
// Returns:
//   - *GBuffer: the GBuffer
//   - error: an error if a resource could not be registered
func NewGBuffer(reg Registry) (*GBuffer, error) {
	g := &GBuffer{}
	for i, d := range gbufferDescs {
		d.Policy = SizeFull
		res, err := reg.Register(d)
		if err != nil {
			return nil, fmt.Errorf("resource: gbuffer slot %d: %w", i, err)
		}
		g.slots[i] = res
	}
	return g, nil
}

// Slot returns the resource at slot i.
//
// Parameters:
//   - i: the slot index, in [0, GBufferSlots)
//
// Returns:
//   - *Resource: the resource
func (g *GBuffer) Slot(i int) *Resource { return g.slots[i] }

// Textures returns the current textures in slot order.
//
// Returns:
//   - []renderer.Texture: the GBuffer textures
func (g *GBuffer) Textures() []renderer.Texture {
	out := make([]renderer.Texture, GBufferSlots)
	for i, s := range g.slots {
		out[i] = s.Texture()
	}
	return out
}

// BindTargets binds every GBuffer texture as a render target together with depth.
//
// Parameters:
//   - r: the renderer
//   - depth: the depth target
func (g *GBuffer) BindTargets(r renderer.Renderer, depth renderer.Texture) {
	r.SetRenderTargets(depth, g.Textures()...)
}

// BindResources binds every GBuffer texture for reading on slots 0..3 and depth on
// GBufferDepthSlot.
//
// Parameters:
//   - r: the renderer
//   - depth: the depth texture
func (g *GBuffer) BindResources(r renderer.Renderer, depth renderer.Texture) {
	for i, s := range g.slots {
		r.BindTexture(i, s.Texture())
	}
	r.BindTexture(GBufferDepthSlot, depth)
}

// UnbindResources clears the slots set by BindResources.
//
// Parameters:
//   - r: the renderer
func (g *GBuffer) UnbindResources(r renderer.Renderer) {
	for i := 0; i <= GBufferDepthSlot; i++ {
		r.UnbindTexture(i)
	}
}
