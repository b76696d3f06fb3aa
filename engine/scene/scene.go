package scene

import (
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// Target receives the contents of a scene. frame.Frame satisfies it.
type Target interface {
	// Submit queues a model or a light for the next rendered frame.
	Submit(v any)

	// InitLight creates the shadow resources of a directional light.
	InitLight(l light.DirectionalLight) error

	// ReleaseLight frees the shadow resources of a directional light.
	ReleaseLight(l light.DirectionalLight)
}

// skyTarget is implemented by targets that draw a cube-mapped sky.
type skyTarget interface {
	SetSkyboxTexture(t renderer.Texture)
}

// Scene groups the camera, models and lights that are rendered together.
// Objects are owned by the scene; a Target only borrows them for a frame.
type Scene interface {
	// Name returns the scene name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Active reports whether the scene is submitted each tick.
	//
	// Returns:
	//   - bool: true if active
	Active() bool

	// SetActive enables or disables submission.
	//
	// Parameters:
	//   - active: the new state
	SetActive(active bool)

	// Camera returns the camera viewing the scene.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// AddModel adds a model.
	//
	// Parameters:
	//   - m: the model; nil is ignored
	AddModel(m model.Model)

	// RemoveModel removes a model without releasing it.
	//
	// Parameters:
	//   - m: the model
	RemoveModel(m model.Model)

	// Models returns a copy of the model list in insertion order.
	//
	// Returns:
	//   - []model.Model: the models
	Models() []model.Model

	// AddPointLight adds a point light.
	//
	// Parameters:
	//   - l: the light; nil is ignored
	AddPointLight(l light.PointLight)

	// AddDirectionalLight adds a directional light. When the scene is loaded the
	// light's shadow resources are created immediately.
	//
	// Parameters:
	//   - l: the light; nil is ignored
	//
	// Returns:
	//   - error: the error of the target's InitLight
	AddDirectionalLight(l light.DirectionalLight) error

	// RemoveDirectionalLight removes a directional light and releases its shadow
	// resources when the scene is loaded.
	//
	// Parameters:
	//   - l: the light
	RemoveDirectionalLight(l light.DirectionalLight)

	// SetEnvironmentLight replaces the environment light.
	//
	// Parameters:
	//   - l: the light, or nil to clear it
	SetEnvironmentLight(l light.EnvironmentLight)

	// Load binds the scene to a target and creates the shadow resources of every
	// directional light. Loading into another target unloads the previous one.
	//
	// Parameters:
	//   - target: the target
	//
	// Returns:
	//   - error: the first InitLight failure
	Load(target Target) error

	// Unload releases the shadow resources created by Load.
	Unload()

	// Update advances the camera from its controller.
	//
	// Parameters:
	//   - dt: the elapsed time in seconds
	Update(dt float32)

	// Submit queues every object of the scene on the loaded target.
	// An inactive or unloaded scene submits nothing.
	Submit()

	// Release unloads the scene and releases the GPU meshes of its models.
	Release()
}

type scene struct {
	mu *sync.RWMutex

	name   string
	active bool
	cam    camera.Camera
	sky    renderer.Texture

	models      []model.Model
	points      []light.PointLight
	directional []light.DirectionalLight
	environment light.EnvironmentLight

	target Target
}

var _ Scene = &scene{}

// NewScene creates a Scene viewed by cam.
//
// Parameters:
//   - name: the scene name; empty selects "Scene"
//   - cam: the camera (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}
	s := &scene{
		mu:     &sync.RWMutex{},
		name:   common.Coalesce(name, "Scene"),
		active: true,
		cam:    cam,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) AddModel(m model.Model) {
	if m == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models = append(s.models, m)
}

func (s *scene) RemoveModel(m model.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.models {
		if existing == m {
			s.models = append(s.models[:i], s.models[i+1:]...)
			return
		}
	}
}

func (s *scene) Models() []model.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Model(nil), s.models...)
}

func (s *scene) AddPointLight(l light.PointLight) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, l)
}

func (s *scene) AddDirectionalLight(l light.DirectionalLight) error {
	if l == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target != nil {
		if err := s.target.InitLight(l); err != nil {
			return fmt.Errorf("scene %s: init light: %w", s.name, err)
		}
	}
	s.directional = append(s.directional, l)
	return nil
}

func (s *scene) RemoveDirectionalLight(l light.DirectionalLight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.directional {
		if existing != l {
			continue
		}
		if s.target != nil {
			s.target.ReleaseLight(l)
		}
		s.directional = append(s.directional[:i], s.directional[i+1:]...)
		return
	}
}

func (s *scene) SetEnvironmentLight(l light.EnvironmentLight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.environment = l
}

func (s *scene) Load(target Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == target {
		return nil
	}
	s.unload()
	if target == nil {
		return nil
	}

	for i, l := range s.directional {
		if err := target.InitLight(l); err != nil {
			for _, done := range s.directional[:i] {
				target.ReleaseLight(done)
			}
			return fmt.Errorf("scene %s: init light %d: %w", s.name, i, err)
		}
	}
	if st, ok := target.(skyTarget); ok && s.sky != nil {
		st.SetSkyboxTexture(s.sky)
	}
	s.target = target
	log.Printf("[Scene] Loaded %s: %d models, %d point lights, %d directional lights",
		s.name, len(s.models), len(s.points), len(s.directional))
	return nil
}

func (s *scene) Unload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unload()
}

// unload must be called with the lock held.
func (s *scene) unload() {
	if s.target == nil {
		return
	}
	for _, l := range s.directional {
		s.target.ReleaseLight(l)
	}
	if st, ok := s.target.(skyTarget); ok && s.sky != nil {
		st.SetSkyboxTexture(nil)
	}
	s.target = nil
}

func (s *scene) Update(dt float32) {
	s.Camera().Update()
}

func (s *scene) Submit() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.active || s.target == nil {
		return
	}
	for _, m := range s.models {
		s.target.Submit(m)
	}
	for _, l := range s.directional {
		s.target.Submit(l)
	}
	for _, l := range s.points {
		s.target.Submit(l)
	}
	if s.environment != nil {
		s.target.Submit(s.environment)
	}
}

func (s *scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unload()
	for _, m := range s.models {
		m.Release()
	}
	s.models = nil
}
