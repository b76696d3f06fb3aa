package window

import (
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// MouseButton identifies a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// Window is a native window that a renderer presents into. Input is delivered
// through callbacks invoked on the goroutine running ProcessMessages.
type Window interface {
	renderer.Surface

	// SetResizeCallback sets the function called when the framebuffer size changes.
	// Zero sizes, reported while the window is minimized, are not forwarded.
	//
	// Parameters:
	//   - callback: function receiving the new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyCallback sets the function called on key presses, repeats and releases.
	//
	// Parameters:
	//   - callback: function receiving the key and whether it is held
	SetKeyCallback(callback func(key common.Key, pressed bool))

	// SetScrollCallback sets the callback for mouse wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical delta (positive = away from the user)
	SetScrollCallback(callback func(delta float32))

	// SetDragCallback sets the callback for cursor movement while a mouse button is held.
	//
	// Parameters:
	//   - callback: function receiving the held button and the cursor delta in pixels
	SetDragCallback(callback func(button MouseButton, dx, dy float32))

	// SetUpdateCallback sets the function called once per message loop iteration.
	//
	// Parameters:
	//   - callback: function to call, or nil
	SetUpdateCallback(callback func())

	// KeyDown reports whether a key is currently held.
	//
	// Parameters:
	//   - key: the key
	//
	// Returns:
	//   - bool: true while the key is held
	KeyDown(key common.Key) bool

	// IsRunning reports whether the window is open.
	//
	// Returns:
	//   - bool: false once the window was closed
	IsRunning() bool

	// ProcessMessages runs the message loop on the calling goroutine until the
	// window closes. It must be called from the goroutine that created the window.
	ProcessMessages()

	// RequestClose flags the window for closing; ProcessMessages returns on its
	// next iteration. Safe to call from any goroutine.
	RequestClose()

	// Close destroys the window.
	//
	// Returns:
	//   - error: error if the window was never opened
	Close() error
}

// platform is the native side of a window.
type platform interface {
	descriptor() *wgpu.SurfaceDescriptor
	poll()
	shouldClose() bool
	requestClose()
	destroy() error
}

type window struct {
	mu *sync.Mutex

	title         string
	width         int
	height        int
	minWidth      int
	minHeight     int
	maxWidth      int
	maxHeight     int
	closeOnEscape bool

	native platform

	held    map[common.Key]bool
	buttons map[MouseButton]bool
	cursor  [2]float64
	tracked bool

	onResize func(width, height int)
	onKey    func(key common.Key, pressed bool)
	onScroll func(delta float32)
	onDrag   func(button MouseButton, dx, dy float32)
	onUpdate func()
}

var _ Window = &window{}

// NewWindow opens a native window. GPU surfaces are created from it by the renderer.
// Failure to open the window is fatal and panics.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := newWindow(options...)
	native, err := openGLFW(w)
	if err != nil {
		panic("window: failed to open: " + err.Error())
	}
	w.native = native
	return w
}

// newWindow applies options without opening a native window.
func newWindow(options ...WindowBuilderOption) *window {
	w := &window{
		mu:            &sync.Mutex{},
		title:         "oxy",
		width:         1280,
		height:        720,
		minWidth:      320,
		minHeight:     200,
		closeOnEscape: true,
		held:          make(map[common.Key]bool),
		buttons:       make(map[MouseButton]bool),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *window) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.native == nil {
		return nil
	}
	return w.native.descriptor()
}

func (w *window) Width() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width
}

func (w *window) Height() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.height
}

func (w *window) SetResizeCallback(callback func(width, height int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onResize = callback
}

func (w *window) SetKeyCallback(callback func(key common.Key, pressed bool)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onKey = callback
}

func (w *window) SetScrollCallback(callback func(delta float32)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onScroll = callback
}

func (w *window) SetDragCallback(callback func(button MouseButton, dx, dy float32)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onDrag = callback
}

func (w *window) SetUpdateCallback(callback func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onUpdate = callback
}

func (w *window) KeyDown(key common.Key) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.held[key]
}

func (w *window) IsRunning() bool {
	return w.native != nil && !w.native.shouldClose()
}

func (w *window) ProcessMessages() {
	for w.IsRunning() {
		w.native.poll()
		w.mu.Lock()
		update := w.onUpdate
		w.mu.Unlock()
		if update != nil {
			update()
		}
		runtime.Gosched()
	}
}

func (w *window) RequestClose() {
	w.mu.Lock()
	native := w.native
	w.mu.Unlock()
	if native != nil {
		native.requestClose()
	}
}

func (w *window) Close() error {
	w.mu.Lock()
	native := w.native
	w.native = nil
	w.mu.Unlock()
	if native == nil {
		return errNotOpen
	}
	return native.destroy()
}
