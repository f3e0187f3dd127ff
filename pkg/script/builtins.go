package script

import (
	"fmt"

	"github.com/chazu/fegraphics/pkg/appearance"
	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chazu/fegraphics/pkg/graphics"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types
// ---------------------------------------------------------------------------

// sexpVec3 is the value of (vec3 x y z).
type sexpVec3 struct {
	v [3]float64
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.v[0], v.v[1], v.v[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpGraphics is returned by the graphics builtins.
type sexpGraphics struct {
	g *graphics.Graphics
}

func (s *sexpGraphics) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %s)", s.g.Type(), s.g.Label())
}
func (s *sexpGraphics) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builder is the state shared by the builtins of one evaluation.
type builder struct {
	module   Module
	registry *appearance.Registry
	list     *graphics.List
}

type builtin func(a *args) (zygo.Sexp, error)

// registerBuiltins installs the graphics builtins into env. They append to
// b.list in call order. Source must have been through preprocessSource.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	add := func(name string, fn builtin) {
		env.AddFunction(name, func(env *zygo.Zlisp, _ string, in []zygo.Sexp) (zygo.Sexp, error) {
			a := parseArgs(in)
			out, err := fn(a)
			if err == nil {
				err = a.unknown()
			}
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return out, nil
		})
	}

	add("points", b.graphics(graphics.TypePoints))
	add("lines", b.graphics(graphics.TypeLines))
	add("surfaces", b.graphics(graphics.TypeSurfaces))
	add("contours", b.graphics(graphics.TypeContours))
	add("streamlines", b.graphics(graphics.TypeStreamlines))

	add("vec3", vec3)
	add("material", b.material)
	add("spectrum", b.spectrum)
	add("tessellation", b.tessellation)
	add("glyph", b.glyph)
}

// (vec3 1 2 3)
func vec3(a *args) (zygo.Sexp, error) {
	if len(a.positional) != 3 {
		return nil, fmt.Errorf("needs exactly 3 numbers, got %d", len(a.positional))
	}
	v := &sexpVec3{}
	for i, s := range a.positional {
		f, err := toFloat64(s)
		if err != nil {
			return nil, err
		}
		v.v[i] = f
	}
	return v, nil
}

// (material "gold" :diffuse (vec3 1 0.8 0) :alpha 0.5 :shininess 0.6)
func (b *builder) material(a *args) (zygo.Sexp, error) {
	name, err := requireName(a)
	if err != nil {
		return nil, err
	}
	m := appearance.NewMaterial(name)
	colours := []struct {
		kw  string
		dst *[3]float64
	}{
		{"ambient", &m.Ambient},
		{"diffuse", &m.Diffuse},
		{"emission", &m.Emission},
		{"specular", &m.Specular},
	}
	for _, c := range colours {
		v, ok := a.take(c.kw)
		if !ok {
			continue
		}
		rgb, err := toFloats(v)
		if err != nil || len(rgb) != 3 {
			return nil, fmt.Errorf(":%s: expected 3 components", c.kw)
		}
		copy(c.dst[:], rgb)
	}
	for kw, dst := range map[string]*float64{"alpha": &m.Alpha, "shininess": &m.Shininess} {
		if v, ok := a.take(kw); ok {
			f, err := toFloat64(v)
			if err != nil {
				return nil, fmt.Errorf(":%s: %w", kw, err)
			}
			if f < 0 || f > 1 {
				return nil, fmt.Errorf(":%s: %g outside [0, 1]", kw, f)
			}
			*dst = f
		}
	}
	b.registry.AddMaterial(m)
	return &zygo.SexpStr{S: name}, nil
}

// (spectrum "heat" :range (list 0 100) :colour-map "rainbow")
func (b *builder) spectrum(a *args) (zygo.Sexp, error) {
	name, err := requireName(a)
	if err != nil {
		return nil, err
	}
	s := appearance.NewSpectrum(name)
	if v, ok := a.take("range"); ok {
		r, err := toFloats(v)
		if err != nil || len(r) != 2 {
			return nil, fmt.Errorf(":range: expected minimum and maximum")
		}
		if err := s.SetRange(r[0], r[1]); err != nil {
			return nil, err
		}
	}
	if v, ok := a.take("colour_map"); ok {
		if s.ColorMap, err = toString(v); err != nil {
			return nil, fmt.Errorf(":colour-map: %w", err)
		}
	}
	b.registry.AddSpectrum(s)
	return &zygo.SexpStr{S: name}, nil
}

// (tessellation "fine" :divisions (list 4 4) :refinement 2 :circle 16)
func (b *builder) tessellation(a *args) (zygo.Sexp, error) {
	name, err := requireName(a)
	if err != nil {
		return nil, err
	}
	t := appearance.NewTessellation(name)
	if v, ok := a.take("divisions"); ok {
		d, err := toInts(v)
		if err != nil {
			return nil, fmt.Errorf(":divisions: %w", err)
		}
		if err := t.SetMinimumDivisions(d); err != nil {
			return nil, err
		}
	}
	if v, ok := a.take("refinement"); ok {
		r, err := toInts(v)
		if err != nil {
			return nil, fmt.Errorf(":refinement: %w", err)
		}
		if err := t.SetRefinementFactors(r); err != nil {
			return nil, err
		}
	}
	if v, ok := a.take("circle"); ok {
		n, err := toInt(v)
		if err != nil {
			return nil, fmt.Errorf(":circle: %w", err)
		}
		if err := t.SetCircleDivisions(n); err != nil {
			return nil, err
		}
	}
	b.registry.AddTessellation(t)
	return &zygo.SexpStr{S: name}, nil
}

// (glyph "ball" :shape :sphere)
func (b *builder) glyph(a *args) (zygo.Sexp, error) {
	name, err := requireName(a)
	if err != nil {
		return nil, err
	}
	shape := appearance.GlyphPoint
	if v, ok := a.take("shape"); ok {
		s, err := toEnumName(v)
		if err != nil {
			return nil, fmt.Errorf(":shape: %w", err)
		}
		if shape, err = appearance.ParseGlyphShape(s); err != nil {
			return nil, fmt.Errorf(":shape: %w", err)
		}
	}
	b.registry.AddGlyph(appearance.NewGlyph(name, shape))
	return &zygo.SexpStr{S: name}, nil
}

func requireName(a *args) (string, error) {
	name, err := a.name()
	if err != nil {
		return "", fmt.Errorf("name: %w", err)
	}
	if name == "" {
		return "", fmt.Errorf("needs a name")
	}
	return name, nil
}

// graphics returns the builtin creating a graphics of type t, e.g.
//
//	(surfaces "skin" :coordinate "coordinates" :material "gold" :exterior true)
func (b *builder) graphics(t graphics.Type) builtin {
	return func(a *args) (zygo.Sexp, error) {
		g, err := b.list.Create(t)
		if err != nil {
			return nil, err
		}
		name, err := a.name()
		if err != nil {
			return nil, fmt.Errorf("name: %w", err)
		}
		g.SetName(name)
		for _, opt := range optionsFor(g) {
			v, ok := a.take(opt.kw)
			if !ok {
				continue
			}
			if err := opt.apply(b, g, v); err != nil {
				return nil, fmt.Errorf(":%s: %w", kebab(opt.kw), err)
			}
		}
		if err := a.unknown(); err != nil {
			return nil, err
		}
		if err := b.list.Add(g, 0); err != nil {
			return nil, err
		}
		return &sexpGraphics{g: g}, nil
	}
}

// field resolves a field by name.
func (b *builder) field(v zygo.Sexp) (field.Field, error) {
	name, err := toString(v)
	if err != nil {
		return nil, err
	}
	f := b.module.FindField(name)
	if f == nil {
		return nil, fmt.Errorf("no field named %q", name)
	}
	return f, nil
}

func kebab(kw string) string {
	out := []byte(kw)
	for i, c := range out {
		if c == '_' {
			out[i] = '-'
		}
	}
	return string(out)
}

// ---------------------------------------------------------------------------
// Graphics options
// ---------------------------------------------------------------------------

// option applies one keyword argument to a graphics. Keywords are stored in
// their preprocessed form: :select-mode arrives as select_mode.
type option struct {
	kw    string
	apply func(b *builder, g *graphics.Graphics, v zygo.Sexp) error
}

func optionsFor(g *graphics.Graphics) []option {
	opts := append([]option(nil), commonOptions...)
	if _, err := g.PointAttributes(); err == nil {
		opts = append(opts, pointOptions...)
	}
	if _, err := g.LineAttributes(); err == nil {
		opts = append(opts, lineOptions...)
	}
	if _, err := g.SamplingAttributes(); err == nil {
		opts = append(opts, samplingOptions...)
	}
	if _, err := g.Contours(); err == nil {
		opts = append(opts, contourOptions...)
	}
	if _, err := g.Streamlines(); err == nil {
		opts = append(opts, streamlineOptions...)
	}
	return opts
}

// fieldOption sets a field-valued attribute through set.
func fieldOption(kw string, set func(g *graphics.Graphics, f field.Field) error) option {
	return option{kw, func(b *builder, g *graphics.Graphics, v zygo.Sexp) error {
		f, err := b.field(v)
		if err != nil {
			return err
		}
		return set(g, f)
	}}
}

func boolOption(kw string, set func(g *graphics.Graphics, v bool)) option {
	return option{kw, func(_ *builder, g *graphics.Graphics, v zygo.Sexp) error {
		on, err := toBool(v)
		if err != nil {
			return err
		}
		set(g, on)
		return nil
	}}
}

func numberOption(kw string, set func(g *graphics.Graphics, f float64) error) option {
	return option{kw, func(_ *builder, g *graphics.Graphics, v zygo.Sexp) error {
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		return set(g, f)
	}}
}

func floatsOption(kw string, set func(g *graphics.Graphics, f []float64) error) option {
	return option{kw, func(_ *builder, g *graphics.Graphics, v zygo.Sexp) error {
		f, err := toFloats(v)
		if err != nil {
			return err
		}
		return set(g, f)
	}}
}

// enumOption parses a keyword with parse and applies it with set.
func enumOption[T any](kw string, parse func(string) (T, error), set func(g *graphics.Graphics, v T) error) option {
	return option{kw, func(_ *builder, g *graphics.Graphics, v zygo.Sexp) error {
		name, err := toEnumName(v)
		if err != nil {
			return err
		}
		e, err := parse(name)
		if err != nil {
			return err
		}
		return set(g, e)
	}}
}

// resourceOption looks a registry entry up by name.
func resourceOption[T any](kw string, find func(r *appearance.Registry, name string) (T, error), set func(g *graphics.Graphics, v T)) option {
	return option{kw, func(b *builder, g *graphics.Graphics, v zygo.Sexp) error {
		name, err := toString(v)
		if err != nil {
			return err
		}
		r, err := find(b.registry, name)
		if err != nil {
			return err
		}
		set(g, r)
		return nil
	}}
}

var commonOptions = []option{
	// Domain first: face and exterior settings depend on it.
	enumOption("domain", field.ParseDomainType, (*graphics.Graphics).SetDomain),
	fieldOption("coordinate", (*graphics.Graphics).SetCoordinateField),
	fieldOption("data", (*graphics.Graphics).SetDataField),
	fieldOption("subgroup", (*graphics.Graphics).SetSubgroupField),
	fieldOption("texture_coordinate", (*graphics.Graphics).SetTextureCoordinateField),
	fieldOption("tessellation_field", (*graphics.Graphics).SetTessellationField),
	boolOption("exterior", (*graphics.Graphics).SetExterior),
	enumOption("face", field.ParseFaceType, (*graphics.Graphics).SetFaceType),
	boolOption("visible", (*graphics.Graphics).SetVisible),
	enumOption("select_mode", graphics.ParseSelectMode, (*graphics.Graphics).SetSelectMode),
	enumOption("coordinate_system", graphics.ParseRenderCoordinateSystem, (*graphics.Graphics).SetRenderCoordinateSystem),
	numberOption("line_width", (*graphics.Graphics).SetLineWidth),
	numberOption("point_size", (*graphics.Graphics).SetPointSize),
	{"wireframe", func(_ *builder, g *graphics.Graphics, v zygo.Sexp) error {
		on, err := toBool(v)
		if err != nil {
			return err
		}
		if on {
			return g.SetPolygonMode(gobject.PolygonWireframe)
		}
		return g.SetPolygonMode(gobject.PolygonShaded)
	}},
	resourceOption("tessellation", (*appearance.Registry).Tessellation, (*graphics.Graphics).SetTessellation),
	resourceOption("material", (*appearance.Registry).Material, (*graphics.Graphics).SetMaterial),
	resourceOption("secondary_material", (*appearance.Registry).Material, (*graphics.Graphics).SetSecondaryMaterial),
	resourceOption("selected_material", (*appearance.Registry).Material, (*graphics.Graphics).SetSelectedMaterial),
	resourceOption("spectrum", (*appearance.Registry).Spectrum, (*graphics.Graphics).SetSpectrum),
	resourceOption("font", (*appearance.Registry).Font, (*graphics.Graphics).SetFont),
}

func points(g *graphics.Graphics) graphics.PointAttributes {
	pa, _ := g.PointAttributes()
	return pa
}

var pointOptions = []option{
	resourceOption("glyph", (*appearance.Registry).Glyph, func(g *graphics.Graphics, gl *appearance.Glyph) {
		points(g).SetGlyph(gl)
	}),
	enumOption("repeat", gobject.ParseGlyphRepeatMode, func(g *graphics.Graphics, m gobject.GlyphRepeatMode) error {
		return points(g).SetRepeatMode(m)
	}),
	floatsOption("glyph_size", func(g *graphics.Graphics, v []float64) error { return points(g).SetBaseSize(v) }),
	floatsOption("glyph_offset", func(g *graphics.Graphics, v []float64) error { return points(g).SetOffset(v) }),
	floatsOption("glyph_scale", func(g *graphics.Graphics, v []float64) error { return points(g).SetScaleFactors(v) }),
	floatsOption("label_offset", func(g *graphics.Graphics, v []float64) error { return points(g).SetLabelOffset(v) }),
	fieldOption("orientation", func(g *graphics.Graphics, f field.Field) error {
		return points(g).SetOrientationScaleField(f)
	}),
	fieldOption("signed_scale", func(g *graphics.Graphics, f field.Field) error {
		return points(g).SetSignedScaleField(f)
	}),
	fieldOption("label", func(g *graphics.Graphics, f field.Field) error { return points(g).SetLabelField(f) }),
	fieldOption("label_density", func(g *graphics.Graphics, f field.Field) error {
		return points(g).SetLabelDensityField(f)
	}),
}

func lines(g *graphics.Graphics) graphics.LineAttributes {
	la, _ := g.LineAttributes()
	return la
}

var lineOptions = []option{
	enumOption("shape", graphics.ParseLineShape, func(g *graphics.Graphics, s graphics.LineShape) error {
		return lines(g).SetShape(s)
	}),
	floatsOption("line_size", func(g *graphics.Graphics, v []float64) error { return lines(g).SetBaseSize(v) }),
	floatsOption("line_scale", func(g *graphics.Graphics, v []float64) error { return lines(g).SetScaleFactors(v) }),
	fieldOption("line_orientation", func(g *graphics.Graphics, f field.Field) error {
		return lines(g).SetOrientationScaleField(f)
	}),
}

func sampling(g *graphics.Graphics) graphics.SamplingAttributes {
	sa, _ := g.SamplingAttributes()
	return sa
}

var samplingOptions = []option{
	enumOption("sampling", graphics.ParseSamplingMode, func(g *graphics.Graphics, m graphics.SamplingMode) error {
		return sampling(g).SetMode(m)
	}),
	floatsOption("location", func(g *graphics.Graphics, v []float64) error { return sampling(g).SetLocation(v) }),
	fieldOption("density", func(g *graphics.Graphics, f field.Field) error { return sampling(g).SetDensityField(f) }),
}

func contours(g *graphics.Graphics) graphics.Contours {
	c, _ := g.Contours()
	return c
}

var contourOptions = []option{
	fieldOption("isoscalar", func(g *graphics.Graphics, f field.Field) error {
		return contours(g).SetIsoscalarField(f)
	}),
	floatsOption("isovalues", func(g *graphics.Graphics, v []float64) error {
		return contours(g).SetListIsovalues(v)
	}),
	{"range", func(_ *builder, g *graphics.Graphics, v zygo.Sexp) error {
		items, err := toSlice(v)
		if err != nil || len(items) != 3 {
			return fmt.Errorf("expected (list count first last)")
		}
		n, err := toInt(items[0])
		if err != nil {
			return fmt.Errorf("count: %w", err)
		}
		first, err := toFloat64(items[1])
		if err != nil {
			return fmt.Errorf("first: %w", err)
		}
		last, err := toFloat64(items[2])
		if err != nil {
			return fmt.Errorf("last: %w", err)
		}
		return contours(g).SetRangeIsovalues(n, first, last)
	}},
	numberOption("decimation", func(g *graphics.Graphics, t float64) error {
		return contours(g).SetDecimationThreshold(t)
	}),
}

func streams(g *graphics.Graphics) graphics.Streamlines {
	s, _ := g.Streamlines()
	return s
}

var streamlineOptions = []option{
	fieldOption("vector", func(g *graphics.Graphics, f field.Field) error {
		return streams(g).SetStreamVectorField(f)
	}),
	numberOption("length", func(g *graphics.Graphics, l float64) error { return streams(g).SetTrackLength(l) }),
	enumOption("direction", graphics.ParseTrackDirection, func(g *graphics.Graphics, d graphics.TrackDirection) error {
		return streams(g).SetTrackDirection(d)
	}),
	enumOption("colour_data", graphics.ParseColourData, func(g *graphics.Graphics, c graphics.ColourData) error {
		return streams(g).SetColourData(c)
	}),
	{"seed_element", func(b *builder, g *graphics.Graphics, v zygo.Sexp) error {
		id, err := toInt(v)
		if err != nil {
			return err
		}
		dim := g.DomainDimension(b.module.HighestDimension())
		mesh := b.module.FindMeshByDimension(dim)
		if mesh == nil {
			return fmt.Errorf("no %dD mesh", dim)
		}
		e := mesh.FindElementByIdentifier(id)
		if e == nil {
			return fmt.Errorf("no %dD element %d", dim, id)
		}
		streams(g).SetSeedElement(e)
		return nil
	}},
	{"seed_nodeset", func(b *builder, g *graphics.Graphics, v zygo.Sexp) error {
		name, err := toEnumName(v)
		if err != nil {
			return err
		}
		d, err := field.ParseDomainType(name)
		if err != nil {
			return err
		}
		ns := b.module.FindNodeset(d)
		if ns == nil {
			return fmt.Errorf("%s is not a nodeset", d)
		}
		streams(g).SetSeedNodeset(ns)
		return nil
	}},
	fieldOption("seed_location", func(g *graphics.Graphics, f field.Field) error {
		return streams(g).SetSeedMeshLocationField(f)
	}),
}
