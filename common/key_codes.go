package common

// Key is a keyboard key code. Printable keys use their upper-case ASCII value and
// the rest use GLFW key codes, so GLFW keys convert without a lookup.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type Key uint32

const (
	KeySpace Key = 32

	Key1 Key = 49
	Key2 Key = 50
	Key3 Key = 51
	Key4 Key = 52
	Key5 Key = 53

	KeyA Key = 65
	KeyD Key = 68
	KeyE Key = 69
	KeyQ Key = 81
	KeyR Key = 82
	KeyS Key = 83
	KeyW Key = 87

	KeyEscape    Key = 256
	KeyEnter     Key = 257
	KeyTab       Key = 258
	KeyBackspace Key = 259
	KeyRight     Key = 262
	KeyLeft      Key = 263
	KeyDown      Key = 264
	KeyUp        Key = 265
	KeyF5        Key = 294

	KeyLeftShift  Key = 340
	KeyRightShift Key = 344
)

// Printable reports whether the key maps to an ASCII character.
//
// Returns:
//   - bool: true for printable keys
func (k Key) Printable() bool {
	return k >= KeySpace && k < 127
}
