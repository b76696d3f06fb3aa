package light

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// DirectionalLightBuilderOption configures a DirectionalLight during construction.
type DirectionalLightBuilderOption func(*directionalLight)

// PointLightBuilderOption configures a PointLight during construction.
type PointLightBuilderOption func(*pointLight)

// EnvironmentLightBuilderOption configures an EnvironmentLight during construction.
type EnvironmentLightBuilderOption func(*environmentLight)

// WithDirection sets the direction of a directional light. The direction is
// normalized before storing.
//
// Parameters:
//   - x: the x direction component
//   - y: the y direction component
//   - z: the z direction component
//
// Returns:
//   - DirectionalLightBuilderOption: a function that applies the direction option
func WithDirection(x, y, z float32) DirectionalLightBuilderOption {
	return func(l *directionalLight) {
		l.direction = common.Normalize3([3]float32{x, y, z})
	}
}

// WithDirectionalColor sets the RGB color of a directional light.
//
// Parameters:
//   - r, g, b: color components
//
// Returns:
//   - DirectionalLightBuilderOption: a function that applies the color option
func WithDirectionalColor(r, g, b float32) DirectionalLightBuilderOption {
	return func(l *directionalLight) {
		l.color = [3]float32{r, g, b}
	}
}

// WithDirectionalIntensity sets the intensity multiplier of a directional light.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - DirectionalLightBuilderOption: a function that applies the intensity option
func WithDirectionalIntensity(intensity float32) DirectionalLightBuilderOption {
	return func(l *directionalLight) {
		l.intensity = intensity
	}
}

// WithCastsShadows sets whether the directional light renders a shadow map.
//
// Parameters:
//   - castsShadows: true to enable shadow casting
//
// Returns:
//   - DirectionalLightBuilderOption: a function that applies the shadow casting option
func WithCastsShadows(castsShadows bool) DirectionalLightBuilderOption {
	return func(l *directionalLight) {
		l.castsShadows = castsShadows
	}
}

// WithPosition sets the world-space position of a point light.
//
// Parameters:
//   - x, y, z: the position components
//
// Returns:
//   - PointLightBuilderOption: a function that applies the position option
func WithPosition(x, y, z float32) PointLightBuilderOption {
	return func(l *pointLight) {
		l.position = [3]float32{x, y, z}
	}
}

// WithRadius sets the cutoff radius of a point light.
//
// Parameters:
//   - radius: the light radius
//
// Returns:
//   - PointLightBuilderOption: a function that applies the radius option
func WithRadius(radius float32) PointLightBuilderOption {
	return func(l *pointLight) {
		l.radius = max(radius, 0)
	}
}

// WithPointColor sets the RGB color of a point light.
//
// Parameters:
//   - r, g, b: color components
//
// Returns:
//   - PointLightBuilderOption: a function that applies the color option
func WithPointColor(r, g, b float32) PointLightBuilderOption {
	return func(l *pointLight) {
		l.color = [3]float32{r, g, b}
	}
}

// WithPointIntensity sets the intensity multiplier of a point light.
//
// Parameters:
//   - intensity: the intensity value
//
// Returns:
//   - PointLightBuilderOption: a function that applies the intensity option
func WithPointIntensity(intensity float32) PointLightBuilderOption {
	return func(l *pointLight) {
		l.intensity = intensity
	}
}

// WithEnvironmentMaps sets the image-based lighting maps. Any of them may be nil.
//
// Parameters:
//   - irradiance: the diffuse irradiance cube map
//   - prefiltered: the specular prefiltered cube map
//   - brdf: the BRDF lookup texture
//
// Returns:
//   - EnvironmentLightBuilderOption: a function that applies the maps
func WithEnvironmentMaps(irradiance, prefiltered, brdf renderer.Texture) EnvironmentLightBuilderOption {
	return func(l *environmentLight) {
		l.irradiance = irradiance
		l.prefiltered = prefiltered
		l.brdf = brdf
	}
}

// WithAmbientColor sets the flat ambient color.
func WithAmbientColor(r, g, b float32) EnvironmentLightBuilderOption {
	return func(l *environmentLight) {
		l.color = [3]float32{r, g, b}
	}
}

// WithAmbientIntensity sets the ambient intensity multiplier.
func WithAmbientIntensity(intensity float32) EnvironmentLightBuilderOption {
	return func(l *environmentLight) {
		l.intensity = intensity
	}
}
