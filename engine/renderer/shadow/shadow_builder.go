package shadow

// PassBuilderOption is a functional option applied to a Pass during construction.
type PassBuilderOption func(*pass)

// WithResolution sets the shadow map size of lights initialized afterwards.
//
// Parameters:
//   - texels: the width and height in texels
//
// Returns:
//   - PassBuilderOption: a function that applies the option
func WithResolution(texels int) PassBuilderOption {
	return func(p *pass) {
		if texels > 0 {
			p.frustum.Resolution = texels
		}
	}
}

// WithExtent sets the orthographic half-extent of the shadow volume.
//
// Parameters:
//   - extent: the half-size in world units
//
// Returns:
//   - PassBuilderOption: a function that applies the option
func WithExtent(extent float32) PassBuilderOption {
	return func(p *pass) {
		p.frustum.Extent = extent
	}
}

// WithOffset sets how far ahead of the camera the shadow volume is centered.
//
// Parameters:
//   - offset: the distance in world units
//
// Returns:
//   - PassBuilderOption: a function that applies the option
func WithOffset(offset float32) PassBuilderOption {
	return func(p *pass) {
		p.frustum.Offset = offset
	}
}

// WithDepthRange sets the light-space depth range around the volume center.
//
// Parameters:
//   - near: the near plane
//   - far: the far plane
//
// Returns:
//   - PassBuilderOption: a function that applies the option
func WithDepthRange(near, far float32) PassBuilderOption {
	return func(p *pass) {
		p.frustum.Near = near
		p.frustum.Far = far
	}
}

// WithWorkers sets the number of pool workers used for per-light matrix and
// per-object block preparation.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - PassBuilderOption: a function that applies the option
func WithWorkers(n int) PassBuilderOption {
	return func(p *pass) {
		p.workers = max(n, 1)
	}
}
