package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// Surface is the presentation surface a Renderer draws into, typically a window.
type Surface interface {
	// SurfaceDescriptor returns the platform surface descriptor.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil if the surface is not ready
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Width returns the surface width in pixels.
	//
	// Returns:
	//   - int: the width
	Width() int

	// Height returns the surface height in pixels.
	//
	// Returns:
	//   - int: the height
	Height() int
}

// NewRenderer creates a Renderer for the given backend that presents into surface.
// GPU initialization failures are fatal and panic.
//
// Parameters:
//   - backendType: the backend implementation
//   - surface: the presentation surface
//   - options: functional options for renderer configuration
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(backendType RendererBackendType, surface Surface, options ...RendererBuilderOption) Renderer {
	cfg := &rendererConfig{
		presentMode: PresentModeVSync,
	}
	for _, opt := range options {
		opt(cfg)
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		return newWGPURendererBackend(surface, cfg)
	}
}
