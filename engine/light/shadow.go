package light

// DefaultShadowResolution is the width and height in texels of a directional
// light's shadow map.
const DefaultShadowResolution = 4096

// DefaultShadowExtent is the orthographic half-extent (in world units) of the
// directional shadow frustum, which is 50 units across.
const DefaultShadowExtent float32 = 25.0

// DefaultShadowOffset is how far ahead of the camera, along the camera's forward
// vector flattened onto the ground plane, the shadow frustum is centered.
const DefaultShadowOffset float32 = 25.0

// DefaultShadowNear and DefaultShadowFar bound the light-space depth range.
const (
	DefaultShadowNear float32 = -50.0
	DefaultShadowFar  float32 = 50.0
)

// DefaultShadowBias is the constant depth bias applied to shadow comparisons
// to reduce shadow acne artifacts.
const DefaultShadowBias float32 = 0.001
