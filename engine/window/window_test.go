package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

type fakePlatform struct {
	closing   bool
	polls     int
	destroyed bool
}

func (p *fakePlatform) descriptor() *wgpu.SurfaceDescriptor { return &wgpu.SurfaceDescriptor{} }

func (p *fakePlatform) poll() {
	p.polls++
	if p.polls == 3 {
		p.closing = true
	}
}

func (p *fakePlatform) shouldClose() bool { return p.closing }
func (p *fakePlatform) requestClose()     { p.closing = true }

func (p *fakePlatform) destroy() error {
	p.destroyed = true
	return nil
}

func TestKeyStateTracksPressAndRelease(t *testing.T) {
	w := newWindow()
	var events []bool
	w.SetKeyCallback(func(key common.Key, pressed bool) {
		assert.Equal(t, common.KeyW, key)
		assert.Equal(t, pressed, w.KeyDown(key), "state is updated before the callback")
		events = append(events, pressed)
	})

	w.handleKey(common.KeyW, true)
	assert.True(t, w.KeyDown(common.KeyW))
	w.handleKey(common.KeyW, false)
	assert.False(t, w.KeyDown(common.KeyW))
	assert.Equal(t, []bool{true, false}, events)
}

func TestEscapeRequestsClose(t *testing.T) {
	w := newWindow()
	p := &fakePlatform{}
	w.native = p
	called := false
	w.SetKeyCallback(func(common.Key, bool) { called = true })

	w.handleKey(common.KeyEscape, true)
	assert.True(t, p.closing)
	assert.False(t, called)
	assert.False(t, w.IsRunning())

	p.closing = false
	w2 := newWindow(WithCloseOnEscape(false))
	w2.native = p
	w2.handleKey(common.KeyEscape, true)
	assert.False(t, p.closing)
}

func TestDragReportsDeltasOfHeldButtons(t *testing.T) {
	w := newWindow()
	type drag struct {
		b      MouseButton
		dx, dy float32
	}
	var drags []drag
	w.SetDragCallback(func(b MouseButton, dx, dy float32) { drags = append(drags, drag{b, dx, dy}) })

	w.handleCursor(100, 100)
	w.handleCursor(110, 100)
	assert.Empty(t, drags, "no button held")

	w.handleButton(MouseMiddle, true)
	w.handleCursor(115, 90)
	w.handleButton(MouseMiddle, false)
	w.handleCursor(0, 0)
	assert.Equal(t, []drag{{MouseMiddle, 5, -10}}, drags)

	w.handleButton(MouseLeft, true)
	w.handleCursorLeave()
	w.handleCursor(500, 500)
	assert.Len(t, drags, 1, "re-entering only seeds the cursor")
}

func TestResizeSkipsZeroAndUnchangedSizes(t *testing.T) {
	w := newWindow(WithSize(800, 600))
	var sizes [][2]int
	w.SetResizeCallback(func(width, height int) { sizes = append(sizes, [2]int{width, height}) })

	w.handleResize(0, 0)
	w.handleResize(800, 600)
	w.handleResize(1024, 768)
	assert.Equal(t, [][2]int{{1024, 768}}, sizes)
	assert.Equal(t, 1024, w.Width())
	assert.Equal(t, 768, w.Height())
}

func TestProcessMessagesRunsUntilClosed(t *testing.T) {
	w := newWindow()
	p := &fakePlatform{}
	w.native = p
	updates := 0
	w.SetUpdateCallback(func() { updates++ })

	assert.NotNil(t, w.SurfaceDescriptor())
	w.ProcessMessages()
	assert.Equal(t, 3, p.polls)
	assert.Equal(t, 3, updates)

	assert.NoError(t, w.Close())
	assert.True(t, p.destroyed)
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())
}
