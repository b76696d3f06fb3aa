package engine

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/config"
	"github.com/Carmen-Shannon/oxy-deferred/engine/frame"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
)

// Host is the window the engine runs in. window.Window satisfies it.
type Host interface {
	renderer.Surface

	// SetResizeCallback sets the function called when the framebuffer size changes.
	SetResizeCallback(callback func(width, height int))

	// ProcessMessages runs the message loop until the host closes.
	ProcessMessages()

	// RequestClose makes ProcessMessages return. It may be called from any goroutine.
	RequestClose()

	// Close destroys the host.
	Close() error
}

// engine implements the Engine interface.
// Coordinates the tick, render and window loops.
type engine struct {
	mu *sync.Mutex

	cfg       config.Frame
	host      Host
	r         renderer.Renderer
	ownsR     bool
	frameOpts []frame.FrameBuilderOption
	frame     frame.Frame

	profilingEnabled bool
	profiler         *profiler.Profiler
	gpu              profiler.GPUProfiler

	tickRate         time.Duration
	tickRateChannel  chan time.Duration
	renderFrameLimit time.Duration
	tickCallback     func(dt float32)
	renderCallback   func(dt float32)

	scenes map[int]scene.Scene

	// pending is set from a tick's submission until the frame consuming it was
	// presented; submitted wakes the render goroutine.
	pending   bool
	submitted chan struct{}
	resized   chan [2]int

	running     bool
	wg          sync.WaitGroup
	quitChannel chan struct{}
	quitOnce    sync.Once
	start       time.Time
}

// Engine is the main entry point. It owns the frame orchestrator and drives it from
// a fixed-rate tick goroutine and a render goroutine while the host's message loop
// runs on the calling goroutine.
type Engine interface {
	// Frame returns the frame orchestrator. It is initialized by Run.
	//
	// Returns:
	//   - frame.Frame: the frame
	Frame() frame.Frame

	// Renderer returns the renderer. Resources for the scenes are created with it
	// before Run.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// SetTickRate sets the tick rate in ticks per second.
	// It takes effect immediately when the engine is running.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each tick before the scenes
	// are updated and submitted.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(dt float32))

	// SetRenderCallback registers the function called after each presented frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(dt float32))

	// SetRenderFrameLimit caps the render rate. Zero uncaps it.
	//
	// Parameters:
	//   - fps: maximum frames per second
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at a key. Scenes are submitted in ascending key
	// order and the first active scene provides the camera. A scene added while
	// running is loaded immediately.
	//
	// Parameters:
	//   - key: the ordering key
	//   - s: the scene
	//
	// Returns:
	//   - error: the scene's Load error
	AddScene(key int, s scene.Scene) error

	// RemoveScene unloads and removes the scene at key.
	//
	// Parameters:
	//   - key: the ordering key
	RemoveScene(key int)

	// Scene returns the scene at key, or nil.
	//
	// Parameters:
	//   - key: the ordering key
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene(key int) scene.Scene

	// Run initializes the frame, loads the scenes, starts the tick and render
	// goroutines and runs the host's message loop. It returns once the host
	// closes or Quit is called, after the registered scenes, the frame and an
	// owned renderer have been released.
	//
	// Returns:
	//   - error: a scene load failure
	Run() error

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times.
	Quit()
}

// NewEngine creates an Engine presenting into host. Unless WithRenderer is given, a
// wgpu renderer is created for host and released when Run returns.
//
// Parameters:
//   - host: the window (must not be nil)
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(host Host, options ...EngineBuilderOption) Engine {
	if host == nil {
		panic("engine: NewEngine requires a non-nil Host")
	}
	e := &engine{
		mu:              &sync.Mutex{},
		cfg:             config.Default(),
		host:            host,
		tickRate:        time.Second / 60,
		tickRateChannel: make(chan time.Duration, 1),
		scenes:          make(map[int]scene.Scene),
		submitted:       make(chan struct{}, 1),
		resized:         make(chan [2]int, 1),
		quitChannel:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.r == nil {
		e.r = renderer.NewRenderer(renderer.BackendTypeWGPU, host,
			renderer.WithTimestampQueries(e.profilingEnabled))
		e.ownsR = true
	}
	return e
}

func (e *engine) Frame() frame.Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frame
}

func (e *engine) Renderer() renderer.Renderer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.r
}

func (e *engine) Run() error {
	if err := e.init(); err != nil {
		e.shutdown()
		return err
	}

	e.host.SetResizeCallback(e.queueResize)

	e.wg.Add(3)
	go e.handleTick()
	go e.handleRender()
	go func() {
		defer e.wg.Done()
		<-e.quitChannel
		e.host.RequestClose()
	}()

	e.host.ProcessMessages()
	e.signalQuit()
	e.wg.Wait()
	e.shutdown()
	if err := e.host.Close(); err != nil {
		log.Printf("[Engine] WARN: closing host: %v", err)
	}
	return nil
}

// init builds the frame and loads the registered scenes.
func (e *engine) init() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	opts := []frame.FrameBuilderOption{frame.WithConfig(e.cfg)}
	if e.profilingEnabled {
		e.gpu = profiler.NewGPUProfiler(e.r,
			profiler.WithLatency(e.cfg.Profiler.Latency),
			profiler.WithAverageInterval(e.cfg.Profiler.AverageInterval()),
		)
		e.profiler = profiler.NewProfiler(time.Second, e.gpu)
		opts = append(opts, frame.WithGPUProfiler(e.gpu))
	}
	e.frame = frame.NewFrame(e.r, append(opts, e.frameOpts...)...)
	e.frame.Init()

	for _, k := range e.sortedKeys() {
		if err := e.scenes[k].Load(e.frame); err != nil {
			return fmt.Errorf("engine: load scene %d: %w", k, err)
		}
	}
	e.running = true
	e.start = time.Now()
	log.Printf("[Engine] Running %d scenes at %v per tick", len(e.scenes), e.tickRate)
	return nil
}

func (e *engine) shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
	for _, k := range e.sortedKeys() {
		e.scenes[k].Release()
	}
	if e.frame != nil {
		e.frame.Shutdown()
	}
	if e.gpu != nil {
		e.gpu.Release()
		e.gpu = nil
	}
	if e.ownsR && e.r != nil {
		e.r.Release()
	}
}

// Quit signals all engine goroutines to stop.
func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// sortedKeys must be called with the lock held.
func (e *engine) sortedKeys() []int {
	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// activeScenes returns the active scenes in key order.
func (e *engine) activeScenes() []scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	var active []scene.Scene
	for _, k := range e.sortedKeys() {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	return active
}

// handleTick runs the fixed-rate tick loop. Each tick updates the scenes and,
// when the previous submission has been rendered, submits them to the frame.
func (e *engine) handleTick() {
	defer e.wg.Done()

	e.mu.Lock()
	rate := e.tickRate
	e.mu.Unlock()
	ticker := time.NewTicker(rate)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
		case now := <-ticker.C:
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			e.tick(dt)
		}
	}
}

func (e *engine) tick(dt float32) {
	e.mu.Lock()
	cb := e.tickCallback
	e.mu.Unlock()
	if cb != nil {
		cb(dt)
	}

	active := e.activeScenes()
	if len(active) == 0 {
		return
	}
	for _, s := range active {
		s.Update(dt)
	}

	e.mu.Lock()
	busy := e.pending
	e.mu.Unlock()
	if busy {
		return
	}
	for _, s := range active {
		s.Submit()
	}
	e.mu.Lock()
	e.pending = true
	e.mu.Unlock()
	e.signalSubmitted()
}

func (e *engine) signalSubmitted() {
	select {
	case e.submitted <- struct{}{}:
	default:
	}
}

// handleRender renders one frame per tick submission. A panic inside the frame
// stops the engine instead of crashing the process.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Engine] ERROR: render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		case size := <-e.resized:
			e.applyResize(size[0], size[1])
		case <-e.submitted:
			now := time.Now()
			if !e.render() {
				// The submissions stay queued; retry after one tick.
				e.mu.Lock()
				wait := e.tickRate
				e.mu.Unlock()
				time.Sleep(wait)
				e.signalSubmitted()
				continue
			}
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			e.mu.Lock()
			e.pending = false
			cb, limit, prof, gpu, report := e.renderCallback, e.renderFrameLimit, e.profiler, e.gpu, e.cfg.Profiler.Report
			e.mu.Unlock()
			if cb != nil {
				cb(dt)
			}
			if prof != nil && prof.Tick() && report && gpu != nil {
				if err := profiler.WriteReport(os.Stdout, gpu.Samples()); err != nil {
					log.Printf("[Engine] WARN: profiler report: %v", err)
				}
			}
			if limit > 0 {
				if remaining := limit - time.Since(now); remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

func (e *engine) render() bool {
	e.mu.Lock()
	r, f, start := e.r, e.frame, e.start
	e.mu.Unlock()

	cam := e.activeCamera()
	if err := r.BeginFrame(); err != nil {
		log.Printf("[Engine] WARN: skipping frame: %v", err)
		return false
	}
	f.Render(float32(time.Since(start).Seconds()), cam, nil)
	r.EndFrame()
	r.Present()
	return true
}

// activeCamera returns the camera of the first active scene.
func (e *engine) activeCamera() camera.Camera {
	active := e.activeScenes()
	if len(active) == 0 {
		return nil
	}
	return active[0].Camera()
}

// queueResize keeps only the latest size. It runs on the host's goroutine.
func (e *engine) queueResize(width, height int) {
	size := [2]int{width, height}
	for {
		select {
		case e.resized <- size:
			return
		default:
			select {
			case <-e.resized:
			default:
			}
		}
	}
}

func (e *engine) applyResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.mu.Lock()
	r, f := e.r, e.frame
	e.mu.Unlock()

	r.Resize(width, height)
	f.ResizeTextures(width, height)
	for _, s := range e.activeScenes() {
		s.Camera().SetAspect(float32(width) / float32(height))
	}
}

func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	e.tickRate = newRate
	running := e.running
	e.mu.Unlock()
	if !running {
		return
	}
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(dt float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(dt float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) error {
	if s == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.scenes[key]; ok && old != s && e.running {
		old.Unload()
	}
	e.scenes[key] = s
	if e.running {
		return s.Load(e.frame)
	}
	return nil
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.scenes[key]; ok {
		s.Unload()
		delete(e.scenes, key)
	}
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scenes[key]
}
