package model

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithPosition is an option builder that sets the world-space position.
//
// Parameters:
//   - x, y, z: the position
//
// Returns:
//   - ModelBuilderOption: a function that applies the position option to a model
func WithPosition(x, y, z float32) ModelBuilderOption {
	return func(m *model) {
		m.position = [3]float32{x, y, z}
	}
}

// WithRotation is an option builder that sets the Euler rotation in radians.
//
// Parameters:
//   - x, y, z: rotation around each axis
//
// Returns:
//   - ModelBuilderOption: a function that applies the rotation option to a model
func WithRotation(x, y, z float32) ModelBuilderOption {
	return func(m *model) {
		m.rotation = [3]float32{x, y, z}
	}
}

// WithScale is an option builder that sets the per-axis scale.
//
// Parameters:
//   - x, y, z: the scale factors
//
// Returns:
//   - ModelBuilderOption: a function that applies the scale option to a model
func WithScale(x, y, z float32) ModelBuilderOption {
	return func(m *model) {
		m.scale = [3]float32{x, y, z}
	}
}

// WithMaterial is an option builder that sets the surface factors.
//
// Parameters:
//   - mat: the material
//
// Returns:
//   - ModelBuilderOption: a function that applies the material option to a model
func WithMaterial(mat material.Material) ModelBuilderOption {
	return func(m *model) {
		m.material = mat
	}
}

// WithMeshes is an option builder that sets the uploaded meshes.
//
// Parameters:
//   - meshes: the meshes in draw order
//
// Returns:
//   - ModelBuilderOption: a function that applies the meshes option to a model
func WithMeshes(meshes ...*Mesh) ModelBuilderOption {
	return func(m *model) {
		m.meshes = append(m.meshes, meshes...)
	}
}
