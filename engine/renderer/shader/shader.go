package shader

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// StageType is a bitmask of the pipeline stages a Program provides.
type StageType uint32

const (
	// StageVertex marks a program with a vertex stage.
	StageVertex StageType = 1 << iota
	// StagePixel marks a program with a pixel (fragment) stage.
	StagePixel
)

// String returns a short name of the mask, such as "Vertex|Pixel".
func (s StageType) String() string {
	switch s {
	case StageVertex:
		return "Vertex"
	case StagePixel:
		return "Pixel"
	case StageVertex | StagePixel:
		return "Vertex|Pixel"
	}
	return "None"
}

// Default entry points used when a ProgramDesc leaves them empty.
const (
	DefaultVertexEntry = "vs_main"
	DefaultPixelEntry  = "fs_main"
)

// ProgramDesc names the sources of a Program. Paths are relative to the Library's
// file system. A pixel-only program uses the library's full-screen vertex source.
type ProgramDesc struct {
	// Label identifies the program in logs, profiles and the library.
	Label string

	// Stages selects which of VertexPath and PixelPath are used.
	Stages StageType

	// VertexPath is the WGSL file of the vertex stage.
	VertexPath string

	// PixelPath is the WGSL file of the pixel stage.
	PixelPath string

	// VertexEntry and PixelEntry name the entry points. Empty selects the defaults.
	VertexEntry string
	PixelEntry  string

	// Layout is the vertex input layout of the vertex stage.
	Layout renderer.VertexLayout
}

// Program is a compiled shader program owned by a Library. The compiled handle is
// swapped in place when a source changes and recompiles successfully, so passes
// can hold a *Program for the lifetime of the library.
type Program struct {
	desc ProgramDesc

	mu      *sync.Mutex
	current renderer.Program

	// deps lists every file the program was built from, includes too.
	deps map[string]struct{}
}

// Label returns the program label.
func (p *Program) Label() string { return p.desc.Label }

// Desc returns the source description.
func (p *Program) Desc() ProgramDesc { return p.desc }

// Stages returns the stage mask.
func (p *Program) Stages() StageType { return p.desc.Stages }

// Has reports whether every stage in s is present.
//
// Parameters:
//   - s: the stages to test
//
// Returns:
//   - bool: true if p provides all of s
func (p *Program) Has(s StageType) bool { return p.desc.Stages&s == s }

// Handle returns the compiled program to bind. It stays valid until the library
// replaces it after a successful reload.
//
// Returns:
//   - renderer.Program: the compiled program
func (p *Program) Handle() renderer.Program {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// swap replaces the compiled handle and returns the previous one.
func (p *Program) swap(h renderer.Program, deps map[string]struct{}) renderer.Program {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.current
	p.current = h
	p.deps = deps
	return prev
}

// DependsOn reports whether path is one of the files the program was built from.
//
// Parameters:
//   - path: a library-relative path
//
// Returns:
//   - bool: true if a change of path affects the program
func (p *Program) DependsOn(path string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.deps[path]
	return ok
}
