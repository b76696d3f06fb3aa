package resource

import "github.com/Carmen-Shannon/oxy-deferred/engine/renderer"

// SizePolicy selects how a resource's dimensions follow the viewport.
type SizePolicy int

const (
	// SizeFull matches the viewport.
	SizeFull SizePolicy = iota
	// SizeHalf is half the viewport in each dimension.
	SizeHalf
	// SizeQuarter is a quarter of the viewport in each dimension.
	SizeQuarter
	// SizeFixed keeps the descriptor's Width and Height regardless of the viewport.
	SizeFixed
)

// String returns the policy name.
func (p SizePolicy) String() string {
	switch p {
	case SizeFull:
		return "full"
	case SizeHalf:
		return "half"
	case SizeQuarter:
		return "quarter"
	case SizeFixed:
		return "fixed"
	}
	return "unknown"
}

// Dimensions returns the size of a resource with this policy for the given viewport.
// Scaled sizes never drop below one texel.
//
// Parameters:
//   - viewportW, viewportH: the viewport size
//   - fixedW, fixedH: the size used by SizeFixed
//
// Returns:
//   - int: the width
//   - int: the height
func (p SizePolicy) Dimensions(viewportW, viewportH, fixedW, fixedH int) (int, int) {
	switch p {
	case SizeHalf:
		return max(viewportW/2, 1), max(viewportH/2, 1)
	case SizeQuarter:
		return max(viewportW/4, 1), max(viewportH/4, 1)
	case SizeFixed:
		return max(fixedW, 1), max(fixedH, 1)
	}
	return max(viewportW, 1), max(viewportH, 1)
}

// Desc describes an intermediate resource.
type Desc struct {
	// Name uniquely identifies the resource in its registry.
	Name string
	// Policy selects the size policy.
	Policy SizePolicy
	// Width and Height are used by SizeFixed.
	Width, Height int
	// Format is the pixel format.
	Format renderer.TextureFormat
	// Persistent marks a history resource whose content carries across frames.
	// Persistent resources are not cleared at frame start.
	Persistent bool
}

// Binding is anything a pass can read from or render into: a Resource, a view of a
// PingPong pair, or an external texture such as the presentation target.
type Binding interface {
	// Name returns the binding's resource name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Texture returns the texture currently backing the binding.
	//
	// Returns:
	//   - renderer.Texture: the texture
	Texture() renderer.Texture

	// Persistent reports whether the binding carries content from earlier frames.
	//
	// Returns:
	//   - bool: true for history resources
	Persistent() bool
}

// Resource is a named, registry-owned texture. The handle is stable across resizes;
// the backing texture is replaced.
type Resource struct {
	desc    Desc
	texture renderer.Texture
}

var _ Binding = &Resource{}

func (r *Resource) Name() string              { return r.desc.Name }
func (r *Resource) Texture() renderer.Texture { return r.texture }
func (r *Resource) Persistent() bool          { return r.desc.Persistent }

// Desc returns the resource descriptor.
func (r *Resource) Desc() Desc { return r.desc }

// Width returns the current width in texels.
func (r *Resource) Width() int { return r.texture.Width() }

// Height returns the current height in texels.
func (r *Resource) Height() int { return r.texture.Height() }

// External wraps a texture the registry does not own, such as a shadow map or the
// presentation target, as a Binding.
type External struct {
	name    string
	texture renderer.Texture
}

var _ Binding = &External{}

// NewExternal creates an External binding.
//
// Parameters:
//   - name: the binding name
//   - t: the texture
//
// Returns:
//   - *External: the binding
func NewExternal(name string, t renderer.Texture) *External {
	return &External{name: name, texture: t}
}

func (e *External) Name() string              { return e.name }
func (e *External) Texture() renderer.Texture { return e.texture }
func (e *External) Persistent() bool          { return false }

// Set replaces the wrapped texture.
func (e *External) Set(t renderer.Texture) { e.texture = t }

// PingPong is a pair of resources that swap roles every frame. Front is written this
// frame; Back holds what Front held last frame.
type PingPong struct {
	a, b  *Resource
	flip  bool
	front *pingPongView
	back  *pingPongView
}

type pingPongView struct {
	pair  *PingPong
	front bool
}

func (v *pingPongView) Name() string {
	if v.front {
		return v.pair.a.desc.Name + ".front"
	}
	return v.pair.a.desc.Name + ".back"
}

func (v *pingPongView) Texture() renderer.Texture {
	return v.pair.current(v.front).texture
}

// Persistent is true for the back view: it is read before this frame writes anything.
func (v *pingPongView) Persistent() bool { return !v.front }

func newPingPong(a, b *Resource) *PingPong {
	p := &PingPong{a: a, b: b}
	p.front = &pingPongView{pair: p, front: true}
	p.back = &pingPongView{pair: p, front: false}
	return p
}

func (p *PingPong) current(front bool) *Resource {
	if front != p.flip {
		return p.a
	}
	return p.b
}

// Front returns the view written this frame.
func (p *PingPong) Front() Binding { return p.front }

// Back returns the view holding last frame's content.
func (p *PingPong) Back() Binding { return p.back }

// Swap exchanges the roles of the two resources.
func (p *PingPong) Swap() { p.flip = !p.flip }
