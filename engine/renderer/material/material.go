package material

// Unset marks a material factor that should be read from the mesh texture instead.
const Unset float32 = -1

// material is the implementation of the Material interface.
type material struct {
	name      string
	albedo    [4]float32
	metallic  float32
	roughness float32
	ao        float32
	emissive  float32
}

// Material holds the constant surface factors written into the per-object block of
// the geometry pass. A factor equal to Unset (and an albedo alpha equal to Unset)
// tells the geometry shader to sample the matching mesh texture instead.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Albedo retrieves the RGBA base color. An alpha of Unset selects the albedo texture.
	//
	// Returns:
	//   - [4]float32: the base color
	Albedo() [4]float32

	// Metallic retrieves the metallic factor, or Unset.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor, or Unset.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// AO retrieves the ambient occlusion factor, or Unset.
	//
	// Returns:
	//   - float32: the ambient occlusion factor
	AO() float32

	// Emissive retrieves the emissive strength, or Unset.
	//
	// Returns:
	//   - float32: the emissive strength
	Emissive() float32

	// SetAlbedo replaces the base color.
	//
	// Parameters:
	//   - rgba: the base color
	SetAlbedo(rgba [4]float32)

	// SetMetallic replaces the metallic factor.
	//
	// Parameters:
	//   - v: the metallic factor, or Unset
	SetMetallic(v float32)

	// SetRoughness replaces the roughness factor.
	//
	// Parameters:
	//   - v: the roughness factor, or Unset
	SetRoughness(v float32)

	// SetEmissive replaces the emissive strength.
	//
	// Parameters:
	//   - v: the emissive strength, or Unset
	SetEmissive(v float32)
}

var _ Material = &material{}

// NewMaterial creates a Material whose factors are all Unset, so every channel
// comes from the mesh textures (or their neutral fallbacks).
//
// Parameters:
//   - options: a variadic list of MaterialBuilderOption functions
//
// Returns:
//   - Material: the configured material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		albedo:    [4]float32{1, 1, 1, Unset},
		metallic:  Unset,
		roughness: Unset,
		ao:        Unset,
		emissive:  Unset,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string       { return m.name }
func (m *material) Albedo() [4]float32 { return m.albedo }
func (m *material) Metallic() float32  { return m.metallic }
func (m *material) Roughness() float32 { return m.roughness }
func (m *material) AO() float32        { return m.ao }
func (m *material) Emissive() float32  { return m.emissive }

func (m *material) SetAlbedo(rgba [4]float32) { m.albedo = rgba }
func (m *material) SetMetallic(v float32)     { m.metallic = v }
func (m *material) SetRoughness(v float32)    { m.roughness = v }
func (m *material) SetEmissive(v float32)     { m.emissive = v }
