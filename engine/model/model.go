package model

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
)

// model is the implementation of the Model interface.
type model struct {
	mu *sync.Mutex

	name     string
	position [3]float32
	rotation [3]float32
	scale    [3]float32

	transform [16]float32
	dirty     bool

	material material.Material
	meshes   []*Mesh
}

// Model is a placed, drawable object: a world transform, one set of material
// factors, and any number of uploaded meshes. The scene owns models; the frame
// passes only borrow them between Submit and Render.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Position returns the world-space translation, which is also the sort key of
	// the back-to-front geometry ordering.
	//
	// Returns:
	//   - [3]float32: the position
	Position() [3]float32

	// SetPosition moves the model.
	//
	// Parameters:
	//   - x, y, z: the new position
	SetPosition(x, y, z float32)

	// Rotation returns the Euler rotation in radians.
	//
	// Returns:
	//   - [3]float32: rotation around X, Y and Z
	Rotation() [3]float32

	// SetRotation replaces the Euler rotation.
	//
	// Parameters:
	//   - x, y, z: rotation in radians
	SetRotation(x, y, z float32)

	// Scale returns the per-axis scale.
	//
	// Returns:
	//   - [3]float32: the scale
	Scale() [3]float32

	// SetScale replaces the per-axis scale.
	//
	// Parameters:
	//   - x, y, z: the scale factors
	SetScale(x, y, z float32)

	// Transform returns the model-to-world matrix (column-major), rebuilt lazily
	// after a position, rotation or scale change.
	//
	// Returns:
	//   - [16]float32: the world transform
	Transform() [16]float32

	// Material returns the surface factors, or nil.
	//
	// Returns:
	//   - material.Material: the material
	Material() material.Material

	// SetMaterial replaces the surface factors.
	//
	// Parameters:
	//   - m: the material
	SetMaterial(m material.Material)

	// Meshes returns the uploaded meshes in draw order.
	//
	// Returns:
	//   - []*Mesh: the meshes
	Meshes() []*Mesh

	// AddMesh appends an uploaded mesh.
	//
	// Parameters:
	//   - mesh: the mesh to append
	AddMesh(mesh *Mesh)

	// Release frees the GPU resources of every mesh.
	Release()
}

var _ Model = &model{}

// NewModel creates a new Model instance with the specified options applied.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: a new instance of Model configured with the provided options
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{
		mu:       &sync.Mutex{},
		scale:    [3]float32{1, 1, 1},
		material: material.NewMaterial(),
		dirty:    true,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Position() [3]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *model) SetPosition(x, y, z float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.position = [3]float32{x, y, z}
	m.dirty = true
}

func (m *model) Rotation() [3]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotation
}

func (m *model) SetRotation(x, y, z float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotation = [3]float32{x, y, z}
	m.dirty = true
}

func (m *model) Scale() [3]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scale
}

func (m *model) SetScale(x, y, z float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scale = [3]float32{x, y, z}
	m.dirty = true
}

func (m *model) Transform() [16]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dirty {
		common.BuildModelMatrix(m.transform[:], m.position, m.rotation, m.scale)
		m.dirty = false
	}
	return m.transform
}

func (m *model) Material() material.Material {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.material
}

func (m *model) SetMaterial(mat material.Material) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.material = mat
}

func (m *model) Meshes() []*Mesh {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meshes
}

func (m *model) AddMesh(mesh *Mesh) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meshes = append(m.meshes, mesh)
}

func (m *model) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.meshes) - 1; i >= 0; i-- {
		m.meshes[i].Release()
	}
	m.meshes = nil
}
