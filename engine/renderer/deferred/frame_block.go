package deferred

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// Uniform slots shared by the geometry and lighting programs.
const (
	FrameSlot  = 0
	ObjectSlot = 1
	LightSlot  = 2
)

// FrameBlock is the per-frame camera uniform shared by the geometry, lighting and
// skybox programs. The geometry pass refreshes it; later passes only bind it.
type FrameBlock struct {
	buf  renderer.Buffer
	last camera.GPUCamera
}

// NewFrameBlock allocates the camera uniform buffer.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - *FrameBlock: the block
//   - error: an error if the buffer could not be created
func NewFrameBlock(r renderer.Renderer) (*FrameBlock, error) {
	var g camera.GPUCamera
	buf, err := r.CreateBuffer(renderer.BufferDescriptor{Label: "Frame.Camera", Usage: renderer.BufferUsageUniform, Size: g.Size()})
	if err != nil {
		return nil, fmt.Errorf("deferred: failed to create frame block: %w", err)
	}
	return &FrameBlock{buf: buf}, nil
}

// Update rewrites the block from cam.
//
// Parameters:
//   - r: the renderer
//   - cam: the camera
//   - time: the frame time in seconds
//   - width, height: the viewport size
func (f *FrameBlock) Update(r renderer.Renderer, cam camera.Camera, time float32, width, height int) {
	f.last = camera.NewGPUCamera(cam, time, width, height)
	r.WriteBuffer(f.buf, f.last.Marshal())
}

// Bind binds the block on FrameSlot.
//
// Parameters:
//   - r: the renderer
func (f *FrameBlock) Bind(r renderer.Renderer) {
	r.BindUniform(FrameSlot, f.buf)
}

// Last returns the most recently written contents.
func (f *FrameBlock) Last() camera.GPUCamera { return f.last }

// Buffer returns the uniform buffer.
func (f *FrameBlock) Buffer() renderer.Buffer { return f.buf }

// Release frees the uniform buffer.
func (f *FrameBlock) Release() {
	if f.buf != nil {
		f.buf.Release()
		f.buf = nil
	}
}
