package shader

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/gogpu/naga"
)

// DefaultFullscreenVertex is the vertex source used by pixel-only programs. Its
// vs_main emits one triangle covering the viewport from the vertex index alone.
const DefaultFullscreenVertex = "fullscreen.wgsl"

type library struct {
	mu *sync.Mutex

	r          renderer.Renderer
	fsys       fs.FS
	fullscreen string
	validate   func(src string) error

	programs map[string]*Program
	order    []string
}

// Library loads, compiles and owns shader programs, and recompiles them in place
// when their sources change. A failed recompile logs the compiler diagnostic and
// keeps the previous program bound.
type Library interface {
	// Load compiles a new program. Loading a label twice returns the existing program.
	//
	// Parameters:
	//   - desc: the program sources
	//
	// Returns:
	//   - *Program: the compiled program
	//   - error: an error if a source cannot be read, fails validation, or fails creation
	Load(desc ProgramDesc) (*Program, error)

	// MustLoad is Load for built-in programs. It panics on error.
	//
	// Parameters:
	//   - desc: the program sources
	//
	// Returns:
	//   - *Program: the compiled program
	MustLoad(desc ProgramDesc) *Program

	// Get returns the program with the given label.
	//
	// Parameters:
	//   - label: the program label
	//
	// Returns:
	//   - *Program: the program
	//   - bool: false if no program has that label
	Get(label string) (*Program, bool)

	// Reload recompiles every program that depends on the file at name.
	//
	// Parameters:
	//   - name: the library-relative path of the changed file
	//
	// Returns:
	//   - int: the number of programs that were swapped to a new compile
	//   - error: the joined compile errors; affected programs keep their previous handle
	Reload(name string) (int, error)

	// Programs returns every program in load order.
	//
	// Returns:
	//   - []*Program: the programs
	Programs() []*Program

	// Release frees every compiled program in reverse load order.
	Release()
}

var _ Library = &library{}

// NewLibrary creates a Library reading WGSL from fsys.
//
// Parameters:
//   - r: the renderer that creates the compiled programs
//   - fsys: the shader file system, such as os.DirFS(root) or an embed.FS
//   - options: functional options
//
// Returns:
//   - Library: the library
func NewLibrary(r renderer.Renderer, fsys fs.FS, options ...LibraryBuilderOption) Library {
	l := &library{
		mu:         &sync.Mutex{},
		r:          r,
		fsys:       fsys,
		fullscreen: DefaultFullscreenVertex,
		validate:   nagaValidate,
		programs:   make(map[string]*Program),
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// nagaValidate compiles src with naga and discards the output.
func nagaValidate(src string) error {
	_, err := naga.Compile(src)
	return err
}

func (l *library) Load(desc ProgramDesc) (*Program, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.programs[desc.Label]; ok {
		return p, nil
	}
	if desc.Stages&StagePixel == 0 {
		return nil, fmt.Errorf("shader: program %q has no pixel stage", desc.Label)
	}
	if desc.VertexEntry == "" {
		desc.VertexEntry = DefaultVertexEntry
	}
	if desc.PixelEntry == "" {
		desc.PixelEntry = DefaultPixelEntry
	}

	p := &Program{desc: desc, mu: &sync.Mutex{}}
	handle, deps, err := l.compile(desc)
	if err != nil {
		return nil, err
	}
	p.swap(handle, deps)
	l.programs[desc.Label] = p
	l.order = append(l.order, desc.Label)
	return p, nil
}

func (l *library) MustLoad(desc ProgramDesc) *Program {
	p, err := l.Load(desc)
	if err != nil {
		panic(fmt.Sprintf("shader: failed to load %s: %v", desc.Label, err))
	}
	return p
}

// compile expands, validates and creates a program. Caller must hold the mutex.
func (l *library) compile(desc ProgramDesc) (renderer.Program, map[string]struct{}, error) {
	vertexPath := desc.VertexPath
	if desc.Stages&StageVertex == 0 {
		vertexPath = l.fullscreen
	}

	deps := make(map[string]struct{})
	sources := make([]string, 0, 2)
	for _, name := range []string{vertexPath, desc.PixelPath} {
		pp := NewPreProcessor(l.fsys)
		src, err := pp.Process(name)
		if err != nil {
			return nil, nil, fmt.Errorf("shader: %s: %w", desc.Label, err)
		}
		if err := l.validate(src); err != nil {
			return nil, nil, fmt.Errorf("shader: %s: compile %s: %w", desc.Label, name, err)
		}
		for _, d := range pp.Dependencies() {
			deps[d] = struct{}{}
		}
		sources = append(sources, src)
	}

	handle, err := l.r.CreateProgram(renderer.ProgramDescriptor{
		Label:        desc.Label,
		VertexSource: sources[0],
		PixelSource:  sources[1],
		VertexEntry:  desc.VertexEntry,
		PixelEntry:   desc.PixelEntry,
		Layout:       desc.Layout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("shader: %s: create program: %w", desc.Label, err)
	}
	return handle, deps, nil
}

func (l *library) Get(label string) (*Program, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.programs[label]
	return p, ok
}

func (l *library) Reload(name string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	name = path.Clean(name)
	swapped := 0
	var errs []error
	for _, label := range l.order {
		p := l.programs[label]
		if !p.DependsOn(name) {
			continue
		}
		handle, deps, err := l.compile(p.desc)
		if err != nil {
			log.Printf("[Shader] ERROR: %v; keeping previous program", err)
			errs = append(errs, err)
			continue
		}
		if prev := p.swap(handle, deps); prev != nil {
			prev.Release()
		}
		swapped++
		log.Printf("[Shader] reloaded %s", label)
	}
	return swapped, errors.Join(errs...)
}

func (l *library) Programs() []*Program {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*Program, 0, len(l.order))
	for _, label := range l.order {
		out = append(out, l.programs[label])
	}
	return out
}

func (l *library) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := len(l.order) - 1; i >= 0; i-- {
		if prev := l.programs[l.order[i]].swap(nil, nil); prev != nil {
			prev.Release()
		}
	}
	l.programs = make(map[string]*Program)
	l.order = nil
}
