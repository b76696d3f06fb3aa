package scene

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	submitted []any
	live      map[light.DirectionalLight]bool
	failOn    light.DirectionalLight
	sky       renderer.Texture
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{live: make(map[light.DirectionalLight]bool)}
}

func (f *fakeTarget) Submit(v any) { f.submitted = append(f.submitted, v) }

func (f *fakeTarget) InitLight(l light.DirectionalLight) error {
	if l == f.failOn {
		return errors.New("out of memory")
	}
	f.live[l] = true
	return nil
}

func (f *fakeTarget) ReleaseLight(l light.DirectionalLight) { delete(f.live, l) }

func (f *fakeTarget) SetSkyboxTexture(t renderer.Texture) { f.sky = t }

func TestLoadInitsEveryDirectionalLight(t *testing.T) {
	sun, moon := light.NewDirectionalLight(), light.NewDirectionalLight()
	s := NewScene("", camera.NewCamera(), WithDirectionalLights(sun, moon))
	assert.Equal(t, "Scene", s.Name())

	target := newFakeTarget()
	require.NoError(t, s.Load(target))
	assert.True(t, target.live[sun])
	assert.True(t, target.live[moon])

	extra := light.NewDirectionalLight()
	require.NoError(t, s.AddDirectionalLight(extra))
	assert.True(t, target.live[extra])

	s.RemoveDirectionalLight(moon)
	assert.False(t, target.live[moon])

	s.Unload()
	assert.Empty(t, target.live)
}

func TestLoadRollsBackOnFailure(t *testing.T) {
	sun, bad := light.NewDirectionalLight(), light.NewDirectionalLight()
	s := NewScene("Outdoor", camera.NewCamera(), WithDirectionalLights(sun, bad))

	target := newFakeTarget()
	target.failOn = bad
	err := s.Load(target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Outdoor")
	assert.Empty(t, target.live)

	s.Submit()
	assert.Empty(t, target.submitted, "a failed load leaves the scene unbound")
}

func TestSubmitQueuesEverythingInOrder(t *testing.T) {
	m := model.NewModel(model.WithName("Crate"))
	sun := light.NewDirectionalLight()
	lamp := light.NewPointLight(light.WithRadius(3))
	env := light.NewEnvironmentLight()
	s := NewScene("Room", camera.NewCamera(),
		WithModels(m, nil),
		WithDirectionalLights(sun),
		WithPointLights(lamp),
		WithEnvironmentLight(env),
	)

	s.Submit()
	target := newFakeTarget()
	assert.Empty(t, target.submitted)

	require.NoError(t, s.Load(target))
	s.Submit()
	assert.Equal(t, []any{m, sun, lamp, env}, target.submitted)

	target.submitted = nil
	s.SetActive(false)
	s.Submit()
	assert.Empty(t, target.submitted)
}

func TestSkyboxFollowsLoad(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	cube, err := rec.CreateTexture(renderer.TextureDescriptor{Label: "Sky", Width: 4, Height: 4, Cube: true})
	require.NoError(t, err)

	s := NewScene("Sky", camera.NewCamera(), WithSkybox(cube))
	target := newFakeTarget()
	require.NoError(t, s.Load(target))
	assert.Equal(t, cube, target.sky)

	s.Unload()
	assert.Nil(t, target.sky)
}

func TestReleaseFreesModelMeshes(t *testing.T) {
	rec := renderertest.NewRecorder(8, 8)
	mesh, err := model.Upload(rec, model.Cube([4]float32{1, 1, 1, 1}))
	require.NoError(t, err)
	s := NewScene("Release", camera.NewCamera(), WithModels(model.NewModel(model.WithMeshes(mesh))))

	s.Release()
	assert.Empty(t, s.Models())
	for _, b := range rec.Buffers() {
		assert.True(t, b.Released(), b.Label())
	}
}

func TestUpdateFollowsController(t *testing.T) {
	ctrl := camera.NewOrbitController(camera.WithOrbit(5, 0, 0))
	cam := camera.NewCamera(camera.WithController(ctrl))
	s := NewScene("Orbit", cam)

	ctrl.Zoom(1)
	before := cam.Position()
	s.Update(1.0 / 60)
	assert.NotEqual(t, before, cam.Position())
}
