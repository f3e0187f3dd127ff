// Package graphics defines the graphics specification: one rule turning
// field data over a domain into points, lines, surfaces, contours or
// streamlines. A Graphics is a tagged variant, a shared base record plus a
// type-specific payload. Every setter validates its input and raises the
// change it implies to the owning list.
package graphics

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/chazu/fegraphics/pkg/appearance"
	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
)

// payload is the type-specific part of a Graphics.
type payload interface {
	graphicsType() Type
	clone() payload
}

type pointsPayload struct {
	point    pointData
	sampling samplingData
}

type linesPayload struct {
	line lineData
}

type surfacesPayload struct{}

type contoursPayload struct {
	contours contourData
}

type streamlinesPayload struct {
	line     lineData
	sampling samplingData
	stream   streamData
}

func (*pointsPayload) graphicsType() Type      { return TypePoints }
func (*linesPayload) graphicsType() Type       { return TypeLines }
func (*surfacesPayload) graphicsType() Type    { return TypeSurfaces }
func (*contoursPayload) graphicsType() Type    { return TypeContours }
func (*streamlinesPayload) graphicsType() Type { return TypeStreamlines }

func (p *pointsPayload) clone() payload   { c := *p; return &c }
func (p *linesPayload) clone() payload    { c := *p; return &c }
func (p *surfacesPayload) clone() payload { return &surfacesPayload{} }
func (p *contoursPayload) clone() payload {
	c := *p
	c.contours.isovalues = append([]float64(nil), p.contours.isovalues...)
	return &c
}
func (p *streamlinesPayload) clone() payload { c := *p; return &c }

// Listener receives every change raised by a graphics.
type Listener func(g *Graphics, change Change)

// Graphics is one visualisation rule together with its build state.
type Graphics struct {
	typ      Type
	name     string
	position int

	domain                 field.DomainType
	coordinateField        field.Field
	subgroupField          field.Field
	dataField              field.Field
	textureCoordinateField field.Field
	tessellationField      field.Field
	exterior               bool
	faceType               field.FaceType
	tessellation           *appearance.Tessellation

	visible           bool
	selectMode        SelectMode
	material          *appearance.Material
	secondaryMaterial *appearance.Material
	selectedMaterial  *appearance.Material
	spectrum          *appearance.Spectrum
	font              *appearance.Font
	polygonMode       gobject.PolygonMode
	lineWidth         float64
	pointSize         float64
	coordinateSystem  RenderCoordinateSystem

	payload payload

	arena                   *gobject.Arena
	object                  gobject.Handle
	graphicsChanged         bool
	selectedGraphicsChanged bool
	timeDependent           bool
	resumeIndex             int
	pending                 Change
	listener                Listener
	owner                   *List
}

// New returns a graphics of type t with default attributes, whose objects
// will be owned by arena.
func New(t Type, arena *gobject.Arena) (*Graphics, error) {
	g := &Graphics{
		typ:             t,
		domain:          field.DomainMeshHighestDimension,
		faceType:        field.FaceAll,
		visible:         true,
		selectMode:      SelectOn,
		lineWidth:       1,
		pointSize:       1,
		arena:           arena,
		graphicsChanged: true,
	}
	switch t {
	case TypePoints:
		g.domain = field.DomainPoint
		g.payload = &pointsPayload{
			point:    pointData{scaleFactors: [3]float64{1, 1, 1}},
			sampling: samplingData{mode: SampleCellCentres},
		}
	case TypeLines:
		g.domain = field.DomainMesh1D
		g.payload = &linesPayload{line: defaultLine()}
	case TypeSurfaces:
		g.domain = field.DomainMesh2D
		g.payload = &surfacesPayload{}
	case TypeContours:
		g.payload = &contoursPayload{}
	case TypeStreamlines:
		g.payload = &streamlinesPayload{
			line:     defaultLine(),
			sampling: samplingData{mode: SampleCellCentres},
			stream:   streamData{direction: TrackForward, length: 1, colourData: ColourDataField},
		}
	default:
		return nil, fmt.Errorf("graphics: type %s: %w", t, ErrInvalidArgument)
	}
	if arena == nil {
		return nil, fmt.Errorf("graphics: nil arena: %w", ErrInvalidArgument)
	}
	return g, nil
}

func defaultLine() lineData {
	return lineData{shape: ShapeLine, scaleFactors: [2]float64{1, 1}}
}

// SetListener installs the function notified of every change.
func (g *Graphics) SetListener(l Listener) { g.listener = l }

// changed records a change and applies its immediate effects.
func (g *Graphics) changed(c Change) {
	if c == ChangeNone {
		return
	}
	switch c {
	case ChangeRecompile, ChangeSelection:
		g.selectedGraphicsChanged = true
	case ChangePartialRebuild:
		g.graphicsChanged = true
	case ChangeFullRebuild:
		g.graphicsChanged = true
		g.ReleaseObject()
	}
	g.resumeIndex = 0
	if c > g.pending {
		g.pending = c
	}
	if g.listener != nil {
		g.listener(g, c)
	}
}

// RaiseChange lets a classifier push an externally detected change through
// the same path as setter changes.
func (g *Graphics) RaiseChange(c Change) { g.changed(c) }

// PendingChange is the largest change raised since the last TakeChange.
func (g *Graphics) PendingChange() Change { return g.pending }

// TakeChange returns and clears the pending change.
func (g *Graphics) TakeChange() Change {
	c := g.pending
	g.pending = ChangeNone
	return c
}

func (g *Graphics) Type() Type    { return g.typ }
func (g *Graphics) Name() string  { return g.name }
func (g *Graphics) Position() int { return g.position }

// SetName renames the graphics. Names only label the object; no rebuild.
func (g *Graphics) SetName(name string) {
	g.name = name
	if obj := g.Object(); obj != nil {
		obj.Name = g.ObjectName()
	}
}

// ObjectName is the name given to built objects: position then name or type.
func (g *Graphics) ObjectName() string {
	label := g.name
	if label == "" {
		label = g.typ.String()
	}
	return strconv.Itoa(g.position) + "_" + label
}

// Label is the name used in messages, falling back to the position.
func (g *Graphics) Label() string {
	if g.name != "" {
		return g.name
	}
	return strconv.Itoa(g.position)
}

// Summary is a one line description for listings.
func (g *Graphics) Summary() string {
	s := fmt.Sprintf("%d %s %s", g.position, g.typ, g.domain)
	if g.name != "" {
		s += " " + strconv.Quote(g.name)
	}
	if g.coordinateField != nil {
		s += " coordinate " + g.coordinateField.Name()
	}
	if g.subgroupField != nil {
		s += " subgroup " + g.subgroupField.Name()
	}
	if !g.visible {
		s += " invisible"
	}
	return s
}

func (g *Graphics) Domain() field.DomainType              { return g.domain }
func (g *Graphics) CoordinateField() field.Field          { return g.coordinateField }
func (g *Graphics) SubgroupField() field.Field            { return g.subgroupField }
func (g *Graphics) DataField() field.Field                { return g.dataField }
func (g *Graphics) TextureCoordinateField() field.Field   { return g.textureCoordinateField }
func (g *Graphics) TessellationField() field.Field        { return g.tessellationField }
func (g *Graphics) Exterior() bool                        { return g.exterior }
func (g *Graphics) FaceType() field.FaceType              { return g.faceType }
func (g *Graphics) Tessellation() *appearance.Tessellation { return g.tessellation }
func (g *Graphics) Visible() bool                         { return g.visible }
func (g *Graphics) SelectMode() SelectMode                { return g.selectMode }
func (g *Graphics) Material() *appearance.Material        { return g.material }
func (g *Graphics) SecondaryMaterial() *appearance.Material {
	return g.secondaryMaterial
}
func (g *Graphics) SelectedMaterial() *appearance.Material         { return g.selectedMaterial }
func (g *Graphics) Spectrum() *appearance.Spectrum                 { return g.spectrum }
func (g *Graphics) Font() *appearance.Font                         { return g.font }
func (g *Graphics) PolygonMode() gobject.PolygonMode               { return g.polygonMode }
func (g *Graphics) LineWidth() float64                             { return g.lineWidth }
func (g *Graphics) PointSize() float64                             { return g.pointSize }
func (g *Graphics) RenderCoordinateSystem() RenderCoordinateSystem { return g.coordinateSystem }

// DomainDimension resolves the domain against the highest mesh dimension.
func (g *Graphics) DomainDimension(highest int) int {
	return g.domain.Dimension(highest)
}

// ---------------------------------------------------------------------------
// Field setters
// ---------------------------------------------------------------------------

// setField assigns *dst after checking f with valid; nil always clears.
func (g *Graphics) setField(dst *field.Field, f field.Field, valid func(field.Field) bool, what string, c Change) error {
	if f != nil && !valid(f) {
		return fmt.Errorf("graphics: %s %q: %w", what, f.Name(), ErrInvalidArgument)
	}
	if *dst == f {
		return nil
	}
	*dst = f
	g.changed(c)
	return nil
}

func anyReal(f field.Field) bool { return f.ValueType() == field.ValueTypeReal }
func anyField(field.Field) bool  { return true }

func upTo(n int) func(field.Field) bool {
	return func(f field.Field) bool { return field.HasUpToComponents(f, n) }
}

// SetCoordinateField sets the field giving positions; real, 1-3 components.
func (g *Graphics) SetCoordinateField(f field.Field) error {
	return g.setField(&g.coordinateField, f, upTo(3), "coordinate field", ChangeFullRebuild)
}

// SetSubgroupField restricts the domain to where a scalar field is true.
func (g *Graphics) SetSubgroupField(f field.Field) error {
	return g.setField(&g.subgroupField, f, field.IsScalar, "subgroup field", ChangeFullRebuild)
}

// SetDataField sets the field stored per vertex for spectrum colouring.
func (g *Graphics) SetDataField(f field.Field) error {
	return g.setField(&g.dataField, f, anyReal, "data field", ChangeFullRebuild)
}

// SetTextureCoordinateField sets texture coordinates; real, 1-3 components.
func (g *Graphics) SetTextureCoordinateField(f field.Field) error {
	return g.setField(&g.textureCoordinateField, f, upTo(3), "texture coordinate field", ChangeFullRebuild)
}

// SetTessellationField sets the field whose non-linearity decides refinement.
func (g *Graphics) SetTessellationField(f field.Field) error {
	return g.setField(&g.tessellationField, f, anyReal, "tessellation field", ChangeFullRebuild)
}

// ---------------------------------------------------------------------------
// Domain setters
// ---------------------------------------------------------------------------

// SetDomain changes what is iterated over. Lines are fixed to 1D elements
// and surfaces to 2D elements. Contours need at least 2D elements and
// streamlines need elements.
func (g *Graphics) SetDomain(d field.DomainType) error {
	switch {
	case d <= field.DomainInvalid || d > field.DomainMeshHighestDimension:
		return fmt.Errorf("graphics: domain %s: %w", d, ErrInvalidArgument)
	case g.typ == TypeLines && d != field.DomainMesh1D,
		g.typ == TypeSurfaces && d != field.DomainMesh2D:
		return fmt.Errorf("graphics: %s on domain %s: %w", g.typ, d, ErrInvalidArgument)
	case g.typ == TypeContours && (d == field.DomainPoint || d.IsNodeset() || d == field.DomainMesh1D):
		return fmt.Errorf("graphics: contours on domain %s: %w", d, ErrInvalidArgument)
	case g.typ == TypeStreamlines && (d == field.DomainPoint || d.IsNodeset()):
		return fmt.Errorf("graphics: streamlines on domain %s: %w", d, ErrInvalidArgument)
	case g.typ != TypePoints && d == field.DomainPoint:
		return fmt.Errorf("graphics: %s on domain %s: %w", g.typ, d, ErrInvalidArgument)
	}
	if d == g.domain {
		return nil
	}
	g.domain = d
	g.changed(ChangeFullRebuild)
	return nil
}

// SetExterior restricts 1D and 2D elements to those on the mesh boundary.
func (g *Graphics) SetExterior(exterior bool) {
	if exterior == g.exterior {
		return
	}
	g.exterior = exterior
	g.changed(ChangeFullRebuild)
}

// SetFaceType restricts 1D and 2D elements to a face of their parents.
func (g *Graphics) SetFaceType(f field.FaceType) error {
	if f <= field.FaceInvalid || f > field.FaceXi3_1 {
		return fmt.Errorf("graphics: face type %d: %w", int(f), ErrInvalidArgument)
	}
	if f == g.faceType {
		return nil
	}
	g.faceType = f
	g.changed(ChangeFullRebuild)
	return nil
}

// SetTessellation sets the discretisation; nil uses one division.
func (g *Graphics) SetTessellation(t *appearance.Tessellation) {
	if t == g.tessellation {
		return
	}
	g.tessellation = t
	g.changed(ChangeFullRebuild)
}

// ---------------------------------------------------------------------------
// Appearance setters
// ---------------------------------------------------------------------------

// SetVisible toggles drawing without touching the object.
func (g *Graphics) SetVisible(v bool) {
	if v == g.visible {
		return
	}
	g.visible = v
	g.changed(ChangeRedraw)
}

// SetSelectMode changes how selection is drawn. Under the draw-selected
// modes selection decides membership, so any change rebuilds.
func (g *Graphics) SetSelectMode(m SelectMode) error {
	if m < SelectOn || m > SelectDrawUnselected {
		return fmt.Errorf("graphics: select mode %d: %w", int(m), ErrInvalidArgument)
	}
	if m == g.selectMode {
		return nil
	}
	g.selectMode = m
	g.changed(ChangeFullRebuild)
	return nil
}

func (g *Graphics) SetMaterial(m *appearance.Material) {
	if m == g.material {
		return
	}
	g.material = m
	g.changed(ChangeRecompile)
}

func (g *Graphics) SetSecondaryMaterial(m *appearance.Material) {
	if m == g.secondaryMaterial {
		return
	}
	g.secondaryMaterial = m
	g.changed(ChangeRecompile)
}

// SetSelectedMaterial sets the highlight material. While select mode is on
// it changes how the selection looks.
func (g *Graphics) SetSelectedMaterial(m *appearance.Material) {
	if m == g.selectedMaterial {
		return
	}
	g.selectedMaterial = m
	if g.selectMode == SelectOn {
		g.changed(ChangeSelection)
	} else {
		g.changed(ChangeRecompile)
	}
}

func (g *Graphics) SetSpectrum(s *appearance.Spectrum) {
	if s == g.spectrum {
		return
	}
	g.spectrum = s
	g.changed(ChangeRecompile)
}

func (g *Graphics) SetFont(f *appearance.Font) {
	if f == g.font {
		return
	}
	g.font = f
	g.changed(ChangeRecompile)
}

func (g *Graphics) SetPolygonMode(m gobject.PolygonMode) error {
	if m != gobject.PolygonShaded && m != gobject.PolygonWireframe {
		return fmt.Errorf("graphics: polygon mode %d: %w", int(m), ErrInvalidArgument)
	}
	if m == g.polygonMode {
		return nil
	}
	g.polygonMode = m
	g.changed(ChangeRecompile)
	return nil
}

// SetLineWidth sets the rendered line width in pixels; must be positive.
func (g *Graphics) SetLineWidth(w float64) error {
	if !(w > 0) {
		return fmt.Errorf("graphics: line width %g: %w", w, ErrInvalidArgument)
	}
	if w == g.lineWidth {
		return nil
	}
	g.lineWidth = w
	g.changed(ChangeRedraw)
	return nil
}

// SetPointSize sets the rendered point size in pixels; must be positive.
func (g *Graphics) SetPointSize(s float64) error {
	if !(s > 0) {
		return fmt.Errorf("graphics: point size %g: %w", s, ErrInvalidArgument)
	}
	if s == g.pointSize {
		return nil
	}
	g.pointSize = s
	g.changed(ChangeRedraw)
	return nil
}

func (g *Graphics) SetRenderCoordinateSystem(c RenderCoordinateSystem) error {
	if c < CoordinateSystemLocal || c > CoordinateSystemWindowPixelBottomLeft {
		return fmt.Errorf("graphics: coordinate system %d: %w", int(c), ErrInvalidArgument)
	}
	if c == g.coordinateSystem {
		return nil
	}
	g.coordinateSystem = c
	g.changed(ChangeRecompile)
	return nil
}

// ---------------------------------------------------------------------------
// Build state
// ---------------------------------------------------------------------------

// Object returns the built object, or nil.
func (g *Graphics) Object() *gobject.Object { return g.arena.Get(g.object) }

// Arena returns the arena owning this graphics' objects.
func (g *Graphics) Arena() *gobject.Arena { return g.arena }

// EnsureObject returns the object, creating an empty one of kind if needed.
func (g *Graphics) EnsureObject(kind gobject.Kind) *gobject.Object {
	if obj := g.Object(); obj != nil {
		return obj
	}
	g.object = g.arena.New(g.ObjectName(), kind)
	return g.arena.Get(g.object)
}

// ReleaseObject discards the built object and any incremental progress.
func (g *Graphics) ReleaseObject() {
	g.arena.Release(g.object)
	g.object = gobject.Handle{}
	g.resumeIndex = 0
}

// HasObject reports whether built geometry exists.
func (g *Graphics) HasObject() bool { return g.Object() != nil }

// TransferObjectFrom moves src's object to g. g must not own one.
func (g *Graphics) TransferObjectFrom(src *Graphics) error {
	if g.HasObject() {
		return fmt.Errorf("graphics: %s already owns an object: %w", g.Label(), ErrInvalidArgument)
	}
	if src.arena != g.arena {
		return fmt.Errorf("graphics: object owned by another arena: %w", ErrInvalidArgument)
	}
	g.object, src.object = src.object, gobject.Handle{}
	g.graphicsChanged = src.graphicsChanged
	g.resumeIndex = src.resumeIndex
	src.graphicsChanged = true
	src.resumeIndex = 0
	g.selectedGraphicsChanged = true
	if obj := g.Object(); obj != nil {
		obj.Name = g.ObjectName()
	}
	return nil
}

// GraphicsChanged reports whether geometry must be (re)generated.
func (g *Graphics) GraphicsChanged() bool { return g.graphicsChanged }

// SelectedGraphicsChanged reports whether appearance or selection must be
// re-applied to the object.
func (g *Graphics) SelectedGraphicsChanged() bool { return g.selectedGraphicsChanged }

// ResumeIndex is the iteration index an interrupted build continues from.
func (g *Graphics) ResumeIndex() int { return g.resumeIndex }

// SetResumeIndex records incremental build progress.
func (g *Graphics) SetResumeIndex(i int) { g.resumeIndex = i }

// MarkBuilt clears the geometry dirty flag after a completed build.
func (g *Graphics) MarkBuilt() {
	g.graphicsChanged = false
	g.resumeIndex = 0
}

// MarkAppearanceApplied clears the appearance dirty flag.
func (g *Graphics) MarkAppearanceApplied() { g.selectedGraphicsChanged = false }

// TimeDependent reports whether any field used to build depends on time.
func (g *Graphics) TimeDependent() bool { return g.timeDependent }

// SetTimeDependent is recorded by the builder.
func (g *Graphics) SetTimeDependent(v bool) { g.timeDependent = v }

// Fields returns every distinct field the graphics reads when building,
// omitting unset ones. Change classification looks these up in events.
func (g *Graphics) Fields() []field.Field {
	fs := []field.Field{
		g.coordinateField,
		g.subgroupField,
		g.dataField,
		g.textureCoordinateField,
		g.tessellationField,
	}
	switch p := g.payload.(type) {
	case *pointsPayload:
		fs = append(fs,
			p.point.orientationScaleField,
			p.point.signedScaleField,
			p.point.labelField,
			p.point.labelDensityField,
			p.sampling.densityField)
	case *linesPayload:
		fs = append(fs, p.line.orientationScaleField)
	case *contoursPayload:
		fs = append(fs, p.contours.isoscalarField)
	case *streamlinesPayload:
		fs = append(fs,
			p.line.orientationScaleField,
			p.sampling.densityField,
			p.stream.streamVectorField,
			p.stream.seedMeshLocationField)
	}
	out := make([]field.Field, 0, len(fs))
	for _, f := range fs {
		if f != nil && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
