package resource

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// registry is the implementation of the Registry interface.
type registry struct {
	mu            *sync.Mutex
	r             renderer.Renderer
	width, height int
	resources     []*Resource
	byName        map[string]*Resource
	pairs         []*PingPong
	clearColor    [4]float32
}

// Registry owns the sized intermediate resources of a frame and rebuilds them when
// the viewport changes. Resources are created in registration order and released in
// reverse order.
type Registry interface {
	// Register creates a resource at the registry's current viewport size.
	//
	// Parameters:
	//   - desc: the resource description; Name must be unique
	//
	// Returns:
	//   - *Resource: the resource
	//   - error: an error if the name is taken or the texture could not be created
	Register(desc Desc) (*Resource, error)

	// RegisterPingPong creates a pair of resources named desc.Name+".a" and desc.Name+".b"
	// and returns them as a PingPong. Both are persistent.
	//
	// Parameters:
	//   - desc: the description shared by both resources
	//
	// Returns:
	//   - *PingPong: the pair
	//   - error: an error if a name is taken or a texture could not be created
	RegisterPingPong(desc Desc) (*PingPong, error)

	// Get returns the named resource.
	//
	// Parameters:
	//   - name: the resource name
	//
	// Returns:
	//   - *Resource: the resource
	//   - bool: false if no resource has that name
	Get(name string) (*Resource, bool)

	// Resources returns every resource in creation order.
	//
	// Returns:
	//   - []*Resource: the resources
	Resources() []*Resource

	// Resize releases every texture and recreates it for the new viewport, in creation order.
	// A zero dimension is a no-op.
	//
	// Parameters:
	//   - width, height: the new viewport size
	//
	// Returns:
	//   - error: an error if a texture could not be recreated
	Resize(width, height int) error

	// ClearTransient clears every non-persistent resource: color targets to the clear
	// color and depth targets to 1.
	ClearTransient()

	// SwapPingPongs swaps every registered PingPong pair.
	SwapPingPongs()

	// Size returns the current viewport size.
	//
	// Returns:
	//   - int: the width
	//   - int: the height
	Size() (int, int)

	// Release releases every texture in reverse creation order and forgets every resource.
	Release()
}

var _ Registry = &registry{}

// NewRegistry creates an empty Registry for the given viewport.
//
// Parameters:
//   - r: the renderer resources are created with
//   - width, height: the initial viewport size
//   - options: functional options
//
// Returns:
//   - Registry: the registry
func NewRegistry(r renderer.Renderer, width, height int, options ...RegistryBuilderOption) Registry {
	reg := &registry{
		mu:     &sync.Mutex{},
		r:      r,
		width:  width,
		height: height,
		byName: make(map[string]*Resource),
	}
	for _, opt := range options {
		opt(reg)
	}
	return reg
}

func (g *registry) create(desc Desc) (renderer.Texture, error) {
	w, h := desc.Policy.Dimensions(g.width, g.height, desc.Width, desc.Height)
	return g.r.CreateTexture(renderer.TextureDescriptor{
		Label:  desc.Name,
		Width:  w,
		Height: h,
		Format: desc.Format,
		Usage:  renderer.TextureUsageSampled | renderer.TextureUsageRenderTarget,
	})
}

func (g *registry) register(desc Desc) (*Resource, error) {
	if desc.Name == "" {
		return nil, fmt.Errorf("resource: empty name")
	}
	if _, exists := g.byName[desc.Name]; exists {
		return nil, fmt.Errorf("resource: %q already registered", desc.Name)
	}
	tex, err := g.create(desc)
	if err != nil {
		return nil, fmt.Errorf("resource: create %q: %w", desc.Name, err)
	}
	res := &Resource{desc: desc, texture: tex}
	g.resources = append(g.resources, res)
	g.byName[desc.Name] = res
	return res, nil
}

func (g *registry) Register(desc Desc) (*Resource, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.register(desc)
}

func (g *registry) RegisterPingPong(desc Desc) (*PingPong, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	base := desc.Name
	desc.Persistent = true
	desc.Name = base + ".a"
	a, err := g.register(desc)
	if err != nil {
		return nil, err
	}
	desc.Name = base + ".b"
	b, err := g.register(desc)
	if err != nil {
		return nil, err
	}
	p := newPingPong(a, b)
	g.pairs = append(g.pairs, p)
	return p, nil
}

func (g *registry) Get(name string) (*Resource, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, ok := g.byName[name]
	return res, ok
}

func (g *registry) Resources() []*Resource {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Resource(nil), g.resources...)
}

func (g *registry) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	for i := len(g.resources) - 1; i >= 0; i-- {
		g.resources[i].texture.Release()
	}
	g.width, g.height = width, height
	for _, res := range g.resources {
		tex, err := g.create(res.desc)
		if err != nil {
			return fmt.Errorf("resource: recreate %q at %dx%d: %w", res.desc.Name, width, height, err)
		}
		res.texture = tex
	}
	return nil
}

func (g *registry) ClearTransient() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, res := range g.resources {
		if res.desc.Persistent {
			continue
		}
		if res.desc.Format.IsDepth() {
			g.r.ClearDepth(res.texture, 1)
		} else {
			g.r.ClearColor(res.texture, g.clearColor)
		}
	}
}

func (g *registry) SwapPingPongs() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.pairs {
		p.Swap()
	}
}

func (g *registry) Size() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.width, g.height
}

func (g *registry) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.resources) - 1; i >= 0; i-- {
		g.resources[i].texture.Release()
	}
	g.resources = nil
	g.pairs = nil
	g.byName = make(map[string]*Resource)
}
