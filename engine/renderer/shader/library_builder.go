package shader

// LibraryBuilderOption is a functional option applied to a Library during construction.
type LibraryBuilderOption func(*library)

// WithFullscreenVertex replaces the vertex source of pixel-only programs.
//
// Parameters:
//   - name: the library-relative path
//
// Returns:
//   - LibraryBuilderOption: a function that applies the option
func WithFullscreenVertex(name string) LibraryBuilderOption {
	return func(l *library) {
		l.fullscreen = name
	}
}

// WithValidator replaces the WGSL validation step. Passing nil disables validation.
//
// Parameters:
//   - validate: returns the diagnostic of an invalid source
//
// Returns:
//   - LibraryBuilderOption: a function that applies the option
func WithValidator(validate func(src string) error) LibraryBuilderOption {
	return func(l *library) {
		if validate == nil {
			validate = func(string) error { return nil }
		}
		l.validate = validate
	}
}
