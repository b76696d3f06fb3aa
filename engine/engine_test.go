package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	mu       *sync.Mutex
	onResize func(width, height int)
	closing  chan struct{}
	once     sync.Once
	closed   int
	started  chan struct{}
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		mu:      &sync.Mutex{},
		closing: make(chan struct{}),
		started: make(chan struct{}),
	}
}

func (h *fakeHost) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (h *fakeHost) Width() int                                 { return 64 }
func (h *fakeHost) Height() int                                { return 32 }

func (h *fakeHost) SetResizeCallback(callback func(width, height int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onResize = callback
}

func (h *fakeHost) ProcessMessages() {
	close(h.started)
	<-h.closing
}

func (h *fakeHost) RequestClose() { h.once.Do(func() { close(h.closing) }) }

func (h *fakeHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
	return nil
}

func (h *fakeHost) resize(width, height int) {
	h.mu.Lock()
	cb := h.onResize
	h.mu.Unlock()
	cb(width, height)
}

func testConfig() config.Frame {
	cfg := config.Default()
	cfg.Width, cfg.Height = 64, 32
	cfg.Shadow.Resolution = 64
	cfg.Workers = 2
	return cfg
}

func newTestEngine(t *testing.T, host *fakeHost, rec *renderertest.Recorder, options ...EngineBuilderOption) Engine {
	t.Helper()
	options = append([]EngineBuilderOption{
		WithRenderer(rec),
		WithConfig(testConfig()),
		WithFrameOptions(frame.WithLibraryOptions(shader.WithValidator(nil))),
		WithTickRate(500),
	}, options...)
	return NewEngine(host, options...)
}

func testScene(t *testing.T, rec *renderertest.Recorder) scene.Scene {
	t.Helper()
	mesh, err := model.Upload(rec, model.Cube([4]float32{1, 1, 1, 1}))
	require.NoError(t, err)
	return scene.NewScene("Test", camera.NewCamera(),
		scene.WithModels(model.NewModel(model.WithMeshes(mesh))),
		scene.WithDirectionalLights(light.NewDirectionalLight(light.WithCastsShadows(true))),
	)
}

func countDraws(rec *renderertest.Recorder, program string) int {
	n := 0
	for _, c := range rec.CallsOf(renderertest.OpDrawIndexed) {
		if c.Program == program {
			n++
		}
	}
	return n
}

func TestRunRendersEachSubmissionOnce(t *testing.T) {
	rec := renderertest.NewRecorder(64, 32)
	host := newFakeHost()
	e := newTestEngine(t, host, rec, WithScene(0, testScene(t, rec)))

	var mu sync.Mutex
	frames := 0
	e.SetRenderCallback(func(float32) {
		mu.Lock()
		defer mu.Unlock()
		frames++
		if frames == 3 {
			e.Quit()
		}
	})

	done := make(chan error)
	go func() { done <- e.Run() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("engine did not stop")
	}

	presents := len(rec.CallsOf(renderertest.OpPresent))
	assert.GreaterOrEqual(t, presents, 3)
	assert.Equal(t, presents, countDraws(rec, frame.ProgramGeometry))
	assert.Equal(t, presents, countDraws(rec, frame.ProgramShadow))
	assert.Equal(t, 1, host.closed)
}

func TestResizeReachesFrame(t *testing.T) {
	rec := renderertest.NewRecorder(64, 32)
	host := newFakeHost()
	s := testScene(t, rec)
	e := newTestEngine(t, host, rec, WithScene(0, s))

	done := make(chan error)
	go func() { done <- e.Run() }()
	<-host.started

	host.resize(0, 10)
	host.resize(100, 50)
	assert.Eventually(t, func() bool {
		w, h := e.Frame().Size()
		return w == 100 && h == 50 && s.Camera().Aspect() == 2
	}, 5*time.Second, 5*time.Millisecond)

	e.Quit()
	require.NoError(t, <-done)
}

func TestTickCallbackRunsWithoutScenes(t *testing.T) {
	rec := renderertest.NewRecorder(64, 32)
	host := newFakeHost()
	e := newTestEngine(t, host, rec)

	ticks := make(chan float32, 8)
	e.SetTickCallback(func(dt float32) {
		select {
		case ticks <- dt:
		default:
			e.Quit()
		}
	})
	require.NoError(t, e.Run())
	assert.NotEmpty(t, ticks)
	assert.Empty(t, rec.CallsOf(renderertest.OpPresent), "nothing to render without an active scene")
}

func TestSceneLifecycleFollowsEngine(t *testing.T) {
	rec := renderertest.NewRecorder(64, 32)
	host := newFakeHost()
	e := newTestEngine(t, host, rec)

	done := make(chan error)
	go func() { done <- e.Run() }()
	<-host.started

	s := testScene(t, rec)
	require.NoError(t, e.AddScene(1, s))
	assert.Equal(t, s, e.Scene(1))
	assert.Eventually(t, func() bool {
		return countDraws(rec, frame.ProgramGeometry) > 0
	}, 5*time.Second, 5*time.Millisecond)

	e.RemoveScene(1)
	assert.Nil(t, e.Scene(1))

	e.Quit()
	require.NoError(t, <-done)
	assert.Empty(t, rec.LiveTextures())
}
