package light

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// DirectionalLight is a light with no position, such as the sun. Each shadow-casting
// directional light owns a shadow map that the shadow pass initializes at scene load.
type DirectionalLight interface {
	// Direction returns the normalized direction the light travels in.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// CastsShadows reports whether the shadow pass renders a depth map for this light.
	//
	// Returns:
	//   - bool: true if the light casts shadows
	CastsShadows() bool

	// SetDirection sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - x, y, z: direction components (will be normalized)
	SetDirection(x, y, z float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - r, g, b: color components
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetCastsShadows toggles shadow rendering for this light.
	//
	// Parameters:
	//   - castsShadows: true to enable shadow casting
	SetCastsShadows(castsShadows bool)
}

// PointLight emits in all directions from a position and stops contributing at Radius.
// The lighting pass draws it as a sphere volume scaled to the radius.
type PointLight interface {
	// Position returns the world-space position of the light.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Radius returns the attenuation cutoff distance.
	//
	// Returns:
	//   - float32: the light radius
	Radius() float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - x, y, z: position components
	SetPosition(x, y, z float32)

	// SetRadius sets the attenuation cutoff distance. Negative values are stored as zero.
	//
	// Parameters:
	//   - radius: the light radius
	SetRadius(radius float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - r, g, b: color components
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)
}

// EnvironmentLight is the image-based ambient term. Its maps are produced offline
// and may each be nil, in which case the ambient draw falls back to a flat color.
type EnvironmentLight interface {
	// Irradiance returns the diffuse irradiance cube map, or nil.
	Irradiance() renderer.Texture

	// Prefiltered returns the specular prefiltered cube map, or nil.
	Prefiltered() renderer.Texture

	// BRDF returns the split-sum BRDF lookup texture, or nil.
	BRDF() renderer.Texture

	// Color returns the flat ambient color used when no irradiance map is set.
	Color() [3]float32

	// Intensity returns the ambient intensity multiplier.
	Intensity() float32

	// SetIntensity sets the ambient intensity multiplier.
	SetIntensity(intensity float32)
}

type directionalLight struct {
	direction    [3]float32
	color        [3]float32
	intensity    float32
	castsShadows bool
}

type pointLight struct {
	position  [3]float32
	radius    float32
	color     [3]float32
	intensity float32
}

type environmentLight struct {
	irradiance  renderer.Texture
	prefiltered renderer.Texture
	brdf        renderer.Texture
	color       [3]float32
	intensity   float32
}

var (
	_ DirectionalLight = &directionalLight{}
	_ PointLight       = &pointLight{}
	_ EnvironmentLight = &environmentLight{}
)

// NewDirectionalLight creates a white, shadow-casting light pointing straight down.
//
// Parameters:
//   - opts: variadic list of DirectionalLightBuilderOption functions to configure the light
//
// Returns:
//   - DirectionalLight: a new DirectionalLight instance
func NewDirectionalLight(opts ...DirectionalLightBuilderOption) DirectionalLight {
	l := &directionalLight{
		direction:    [3]float32{0, -1, 0},
		color:        [3]float32{1, 1, 1},
		intensity:    1,
		castsShadows: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewPointLight creates a white point light of radius 10 at the origin.
//
// Parameters:
//   - opts: variadic list of PointLightBuilderOption functions to configure the light
//
// Returns:
//   - PointLight: a new PointLight instance
func NewPointLight(opts ...PointLightBuilderOption) PointLight {
	l := &pointLight{
		radius:    10,
		color:     [3]float32{1, 1, 1},
		intensity: 1,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewEnvironmentLight creates an ambient light with a dim grey fallback color.
//
// Parameters:
//   - opts: variadic list of EnvironmentLightBuilderOption functions to configure the light
//
// Returns:
//   - EnvironmentLight: a new EnvironmentLight instance
func NewEnvironmentLight(opts ...EnvironmentLightBuilderOption) EnvironmentLight {
	l := &environmentLight{
		color:     [3]float32{0.03, 0.03, 0.03},
		intensity: 1,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *directionalLight) Direction() [3]float32 { return l.direction }
func (l *directionalLight) Color() [3]float32     { return l.color }
func (l *directionalLight) Intensity() float32    { return l.intensity }
func (l *directionalLight) CastsShadows() bool    { return l.castsShadows }

func (l *directionalLight) SetDirection(x, y, z float32) {
	l.direction = common.Normalize3([3]float32{x, y, z})
}

func (l *directionalLight) SetColor(r, g, b float32) {
	l.color = [3]float32{r, g, b}
}

func (l *directionalLight) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *directionalLight) SetCastsShadows(castsShadows bool) {
	l.castsShadows = castsShadows
}

func (l *pointLight) Position() [3]float32 { return l.position }
func (l *pointLight) Radius() float32      { return l.radius }
func (l *pointLight) Color() [3]float32    { return l.color }
func (l *pointLight) Intensity() float32   { return l.intensity }

func (l *pointLight) SetPosition(x, y, z float32) {
	l.position = [3]float32{x, y, z}
}

func (l *pointLight) SetRadius(radius float32) {
	l.radius = max(radius, 0)
}

func (l *pointLight) SetColor(r, g, b float32) {
	l.color = [3]float32{r, g, b}
}

func (l *pointLight) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *environmentLight) Irradiance() renderer.Texture  { return l.irradiance }
func (l *environmentLight) Prefiltered() renderer.Texture { return l.prefiltered }
func (l *environmentLight) BRDF() renderer.Texture        { return l.brdf }
func (l *environmentLight) Color() [3]float32             { return l.color }
func (l *environmentLight) Intensity() float32            { return l.intensity }

func (l *environmentLight) SetIntensity(intensity float32) {
	l.intensity = intensity
}
