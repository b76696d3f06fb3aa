package scene

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is submitted each tick. Scenes start active.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithModels adds initial models to the scene. Nil models are skipped.
//
// Parameters:
//   - models: the models to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithModels(models ...model.Model) SceneBuilderOption {
	return func(s *scene) {
		for _, m := range models {
			if m != nil {
				s.models = append(s.models, m)
			}
		}
	}
}

// WithPointLights adds initial point lights.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPointLights(lights ...light.PointLight) SceneBuilderOption {
	return func(s *scene) {
		for _, l := range lights {
			if l != nil {
				s.points = append(s.points, l)
			}
		}
	}
}

// WithDirectionalLights adds initial directional lights. Their shadow resources
// are created by Load.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDirectionalLights(lights ...light.DirectionalLight) SceneBuilderOption {
	return func(s *scene) {
		for _, l := range lights {
			if l != nil {
				s.directional = append(s.directional, l)
			}
		}
	}
}

// WithEnvironmentLight sets the image-based ambient light.
//
// Parameters:
//   - l: the environment light
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithEnvironmentLight(l light.EnvironmentLight) SceneBuilderOption {
	return func(s *scene) {
		s.environment = l
	}
}

// WithSkybox sets the cube map drawn behind the scene. It is handed to the
// target on Load.
//
// Parameters:
//   - cube: a cube texture
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSkybox(cube renderer.Texture) SceneBuilderOption {
	return func(s *scene) {
		s.sky = cube
	}
}
