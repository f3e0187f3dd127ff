package build

import (
	"fmt"

	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/golang/geo/r3"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const defaultCircleDivisions = 12

// context is the state of one build step of one graphics.
type context struct {
	b     *Builder
	g     *graphics.Graphics
	obj   *gobject.Object
	cache field.Cache

	coords    field.Field
	dim       int
	master    field.Mesh
	mesh      field.Mesh
	grouped   bool
	selection field.Field

	divisions       []int
	circleDivisions int

	// skip marks a graphics missing an optional input; it builds empty.
	skip bool
}

func (b *Builder) prepare(g *graphics.Graphics) (*context, error) {
	c := &context{
		b:         b,
		g:         g,
		coords:    g.CoordinateField(),
		cache:     b.module.NewCache(),
		selection: b.module.SelectionGroup(),
	}
	if c.coords == nil && g.Domain() != field.DomainPoint {
		return nil, fmt.Errorf("build: %s %s: %w", g.Type(), g.Label(), ErrMissingCoordinateField)
	}
	c.cache.SetTime(b.time)
	c.dim = g.DomainDimension(b.module.HighestDimension())
	if !g.Domain().IsNodeset() && g.Domain() != field.DomainPoint {
		if err := c.checkDimension(); err != nil {
			return nil, fmt.Errorf("build: %s %s: %w", g.Type(), g.Label(), err)
		}
		c.master = b.module.FindMeshByDimension(c.dim)
		c.mesh = c.master
		if sg := g.SubgroupField(); sg != nil && c.master != nil {
			if gm := b.module.ElementGroupMesh(sg, c.master); gm != nil {
				c.mesh, c.grouped = gm, true
			}
		}
		if c.mesh == nil {
			c.skip = true
		}
	}

	nonLinear := field.IsNonLinear(c.coords) || field.IsNonLinear(g.TessellationField())
	c.circleDivisions = defaultCircleDivisions
	if t := g.Tessellation(); t != nil {
		c.divisions = t.Divisions(max(c.dim, 1), nonLinear)
		c.circleDivisions = t.CircleDivisions()
	} else {
		c.divisions = lo.Times(max(c.dim, 1), func(int) int { return 1 })
	}

	c.skip = c.skip || c.missingInput()
	g.SetTimeDependent(lo.SomeBy(g.Fields(), field.IsTimeDependent))

	c.obj = g.EnsureObject(objectKind(g, c.dim))
	if len(c.obj.Primitives) == 0 {
		c.obj.DataComponents = dataComponents(g)
		g.ApplyAppearance(c.obj)
	}
	return c, nil
}

// checkDimension rejects contours on a highest dimension that turns out to
// be 1D.
func (c *context) checkDimension() error {
	if c.g.Type() == graphics.TypeContours && c.dim == 1 {
		return fmt.Errorf("contours on 1D elements: %w", ErrBuildFailed)
	}
	return nil
}

// missingInput reports an absent type-specific field. Such graphics build
// an empty object rather than fail.
func (c *context) missingInput() bool {
	var reason string
	switch c.g.Type() {
	case graphics.TypeContours:
		ct, _ := c.g.Contours()
		switch {
		case ct.IsoscalarField() == nil:
			reason = "no isoscalar field"
		case ct.NumberOfIsovalues() == 0:
			reason = "no isovalues"
		}
	case graphics.TypeStreamlines:
		if s, _ := c.g.Streamlines(); s.StreamVectorField() == nil {
			reason = "no stream vector field"
		}
	}
	if reason == "" {
		return false
	}
	c.b.log.Debug("building empty graphics", zap.String("graphics", c.g.Label()), zap.String("reason", reason))
	return true
}

// includeElement applies the face, subgroup and selection filters.
func (c *context) includeElement(e field.Element) bool {
	if c.dim < c.b.module.HighestDimension() {
		if c.g.Exterior() && !e.IsExterior() {
			return false
		}
		if ft := c.g.FaceType(); ft != field.FaceAll && !e.IsOnFace(ft) {
			return false
		}
	}
	at := func(f field.Field) bool {
		if err := c.cache.SetElement(e, centre(e.Dimension())); err != nil {
			return false
		}
		return field.EvaluateBool(c.cache, f)
	}
	if sg := c.g.SubgroupField(); sg != nil && !c.grouped && !at(sg) {
		return false
	}
	return c.selectModeAllows(at)
}

// includeNode is includeElement for nodes.
func (c *context) includeNode(n field.Node) bool {
	at := func(f field.Field) bool {
		if err := c.cache.SetNode(n); err != nil {
			return false
		}
		return field.EvaluateBool(c.cache, f)
	}
	if sg := c.g.SubgroupField(); sg != nil && !at(sg) {
		return false
	}
	return c.selectModeAllows(at)
}

func (c *context) selectModeAllows(selected func(field.Field) bool) bool {
	switch c.g.SelectMode() {
	case graphics.SelectDrawSelected:
		return c.selection != nil && selected(c.selection)
	case graphics.SelectDrawUnselected:
		return c.selection == nil || !selected(c.selection)
	}
	return true
}

func centre(dim int) []float64 {
	return lo.Times(dim, func(int) float64 { return 0.5 })
}

// position evaluates the coordinate field at the cache location.
func (c *context) position() (r3.Vector, error) {
	if c.coords == nil {
		return r3.Vector{}, nil
	}
	v, err := c.cache.Evaluate(c.coords)
	if err != nil {
		return r3.Vector{}, err
	}
	return toRC(v, c.coords.CoordinateSystem()), nil
}

// values evaluates f at the cache location; undefined values are zero.
func (c *context) values(f field.Field) []float64 {
	if f == nil {
		return nil
	}
	v, err := c.cache.Evaluate(f)
	if err != nil || len(v) != f.NumberOfComponents() {
		return make([]float64, f.NumberOfComponents())
	}
	return v
}

// vertexAt evaluates position, data and texture coordinates at xi in e.
func (c *context) vertexAt(e field.Element, xi []float64) (gobject.Vertex, error) {
	if err := c.cache.SetElement(e, xi); err != nil {
		return gobject.Vertex{}, err
	}
	return c.vertex()
}

// vertex evaluates a vertex at the current cache location.
func (c *context) vertex() (gobject.Vertex, error) {
	p, err := c.position()
	if err != nil {
		return gobject.Vertex{}, err
	}
	return gobject.Vertex{
		Position:          vec3(p),
		TextureCoordinate: pad3(c.values(c.g.TextureCoordinateField())),
		Data:              c.values(c.g.DataField()),
	}, nil
}

func (c *context) hasTexture() bool { return c.g.TextureCoordinateField() != nil }

// SelectedNames returns the names in g's object that are selected in
// module, for highlighting under select mode on.
func (b *Builder) SelectedNames(g *graphics.Graphics) []int {
	obj := g.Object()
	sel := b.module.SelectionGroup()
	if obj == nil || sel == nil || g.SelectMode() != graphics.SelectOn {
		return nil
	}
	cache := b.module.NewCache()
	cache.SetTime(b.time)
	var locate func(id int) error
	switch d := g.Domain(); {
	case d.IsNodeset():
		ns := b.module.FindNodeset(d)
		if ns == nil {
			return nil
		}
		locate = func(id int) error {
			n := ns.FindNodeByIdentifier(id)
			if n == nil {
				return field.ErrNotDefined
			}
			return cache.SetNode(n)
		}
	case d == field.DomainPoint || g.Type() == graphics.TypeStreamlines:
		return nil
	default:
		dim := g.DomainDimension(b.module.HighestDimension())
		m := b.module.FindMeshByDimension(dim)
		if m == nil {
			return nil
		}
		locate = func(id int) error {
			e := m.FindElementByIdentifier(id)
			if e == nil {
				return field.ErrNotDefined
			}
			return cache.SetElement(e, centre(dim))
		}
	}
	return lo.Filter(obj.Names(), func(id int, _ int) bool {
		return locate(id) == nil && field.EvaluateBool(cache, sel)
	})
}
