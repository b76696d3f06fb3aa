package window

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

var errNotOpen = errors.New("window: not open")

// The handlers below translate native events into callbacks. They never hold the
// lock while a callback runs, so callbacks may query the window.

func (w *window) handleKey(key common.Key, pressed bool) {
	w.mu.Lock()
	if pressed {
		w.held[key] = true
	} else {
		delete(w.held, key)
	}
	escape := key == common.KeyEscape && pressed && w.closeOnEscape
	cb := w.onKey
	native := w.native
	w.mu.Unlock()

	if escape && native != nil {
		native.requestClose()
		return
	}
	if cb != nil {
		cb(key, pressed)
	}
}

func (w *window) handleScroll(dy float64) {
	w.mu.Lock()
	cb := w.onScroll
	w.mu.Unlock()
	if cb != nil && dy != 0 {
		cb(float32(dy))
	}
}

func (w *window) handleButton(button MouseButton, pressed bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if pressed {
		w.buttons[button] = true
	} else {
		delete(w.buttons, button)
	}
}

// handleCursor reports one drag per held button. The first position after the
// window gains the cursor only seeds the tracking.
func (w *window) handleCursor(x, y float64) {
	w.mu.Lock()
	dx, dy := float32(x-w.cursor[0]), float32(y-w.cursor[1])
	first := !w.tracked
	w.cursor = [2]float64{x, y}
	w.tracked = true
	var held []MouseButton
	for _, b := range []MouseButton{MouseLeft, MouseRight, MouseMiddle} {
		if w.buttons[b] {
			held = append(held, b)
		}
	}
	cb := w.onDrag
	w.mu.Unlock()

	if first || cb == nil || (dx == 0 && dy == 0) {
		return
	}
	for _, b := range held {
		cb(b, dx, dy)
	}
}

func (w *window) handleCursorLeave() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tracked = false
}

func (w *window) handleResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	w.mu.Lock()
	changed := width != w.width || height != w.height
	w.width, w.height = width, height
	cb := w.onResize
	w.mu.Unlock()
	if changed && cb != nil {
		cb(width, height)
	}
}
