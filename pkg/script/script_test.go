package script

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/fegraphics/pkg/appearance"
	"github.com/chazu/fegraphics/pkg/femesh"
	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chazu/fegraphics/pkg/graphics"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) (*Engine, *femesh.Region, *appearance.Registry) {
	t.Helper()
	r, err := femesh.NewRegion("test")
	require.NoError(t, err)
	t.Cleanup(r.Close)
	coords, err := r.Grid(2, 2)
	require.NoError(t, err)
	_, err = r.NewComponentField("x", coords, 0)
	require.NoError(t, err)
	_, err = r.NewConstantField("flow", 1, 0)
	require.NoError(t, err)
	reg := appearance.NewRegistry()
	return NewEngine(r, gobject.NewArena(), reg), r, reg
}

// evaluate runs source and fails the test on any error.
func evaluate(t *testing.T, e *Engine, source string) *graphics.List {
	t.Helper()
	list, evalErrs, err := e.Evaluate(source)
	require.NoError(t, err)
	require.Empty(t, evalErrs)
	require.NotNil(t, list)
	return list
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"keyword", `(surfaces :coordinate "c")`, `(surfaces "__kw_coordinate" "c")`},
		{"kebab keyword kept", `:select-mode :draw-selected`, `"__kw_select-mode" "__kw_draw-selected"`},
		{"keyword in string", `"a :b c"`, `"a :b c"`},
		{"escaped quote", `"say \":x\"" :y`, `"say \":x\"" "__kw_y"`},
		{"assignment", `(def x := 10)`, `(def x := 10)`},
		{"kebab identifier", `(make-thing 1)`, `(make_thing 1)`},
		{"minus", `(- 10 5)`, `(- 10 5)`},
		{"exponent", `1e-5`, `1e-5`},
		{"comment", `;; note :x`, `// note :x`},
		{"face keyword", `:xi1-0`, `"__kw_xi1-0"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, preprocessSource(tt.input))
		})
	}
}

func TestParseArgs(t *testing.T) {
	a := parseArgs([]zygo.Sexp{
		&zygo.SexpStr{S: "skin"},
		&zygo.SexpStr{S: "__kw_select-mode"}, &zygo.SexpStr{S: "__kw_on"},
		&zygo.SexpStr{S: "__kw_line_width"}, &zygo.SexpInt{Val: 2},
		&zygo.SexpStr{S: "__kw_dangling"},
	})
	name, err := a.name()
	require.NoError(t, err)
	assert.Equal(t, "skin", name)

	v, ok := a.take("select_mode")
	require.True(t, ok)
	mode, err := toEnumName(v)
	require.NoError(t, err)
	assert.Equal(t, "on", mode)

	_, ok = a.take("line_width")
	require.True(t, ok)
	assert.EqualError(t, a.unknown(), "unknown keyword :dangling")
	assert.NoError(t, parseArgs(nil).unknown())
}

func TestToFloats(t *testing.T) {
	f, err := toFloats(&sexpVec3{v: [3]float64{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, f)

	f, err = toFloats(&zygo.SexpInt{Val: 4})
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, f)

	f, err = toFloats(&zygo.SexpArray{Val: []zygo.Sexp{&zygo.SexpFloat{Val: 0.5}, &zygo.SexpInt{Val: 1}}})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1}, f)

	_, err = toFloats(&zygo.SexpStr{S: "x"})
	assert.Error(t, err)
	_, err = toString(&zygo.SexpStr{S: "__kw_x"})
	assert.ErrorContains(t, err, ":x")
}

func TestGraphicsName(t *testing.T) {
	e, _, _ := newEngine(t)
	list := evaluate(t, e, `(surfaces "skin" :coordinate "coordinates")`)
	require.Equal(t, 1, list.Len())
	assert.Equal(t, "skin", list.FindByPosition(1).Name())
}

func TestEvaluateEmpty(t *testing.T) {
	e, _, _ := newEngine(t)
	for _, src := range []string{"", "  \n\t "} {
		list := evaluate(t, e, src)
		assert.Zero(t, list.Len())
	}
}

func TestEvaluateBuildsListInOrder(t *testing.T) {
	e, r, reg := newEngine(t)
	src := `
; materials and resources first
(material "gold" :diffuse (vec3 1 0.8 0) :alpha 0.5)
(spectrum "heat" :range (list 0 1))
(tessellation "fine" :divisions (list 4) :circle 8)
(glyph "ball" :shape :sphere)

(surfaces "skin"
  :coordinate "coordinates"
  :material "gold"
  :data "x"
  :spectrum "heat"
  :tessellation "fine"
  :exterior true
  :select-mode :draw-selected)
(lines :coordinate "coordinates" :shape :circle-extrusion :line-size 0.1)
(points :domain :nodes :coordinate "coordinates" :glyph "ball" :glyph-size (vec3 0.1 0.1 0.1))
(def n 3)
(contours :coordinate "coordinates" :isoscalar "x" :range (list n 0.25 0.75))
(streamlines :coordinate "coordinates" :vector "flow" :length 2 :direction :reverse
  :colour-data :travel-time :seed-element 1 :location (list 0.5 0.5))
`
	list := evaluate(t, e, src)
	require.Equal(t, 5, list.Len())
	types := make([]graphics.Type, 0, list.Len())
	for _, g := range list.Graphics() {
		types = append(types, g.Type())
	}
	assert.Equal(t, []graphics.Type{
		graphics.TypeSurfaces, graphics.TypeLines, graphics.TypePoints,
		graphics.TypeContours, graphics.TypeStreamlines,
	}, types)

	gold, err := reg.Material("gold")
	require.NoError(t, err)
	assert.Equal(t, [3]float64{1, 0.8, 0}, gold.Diffuse)
	assert.Equal(t, 0.5, gold.Alpha)

	skin := list.FindByName("skin")
	require.NotNil(t, skin)
	assert.Same(t, gold, skin.Material())
	assert.Same(t, r.FindField("x"), skin.DataField())
	assert.Equal(t, "heat", skin.Spectrum().Name())
	assert.Equal(t, "fine", skin.Tessellation().Name())
	assert.Equal(t, 8, skin.Tessellation().CircleDivisions())
	assert.True(t, skin.Exterior())
	assert.Equal(t, graphics.SelectDrawSelected, skin.SelectMode())

	la, err := list.FindByPosition(2).LineAttributes()
	require.NoError(t, err)
	assert.Equal(t, graphics.ShapeCircleExtrusion, la.Shape())
	assert.Equal(t, [2]float64{0.1, 0.1}, la.BaseSize())

	pts := list.FindByPosition(3)
	assert.Equal(t, field.DomainNodes, pts.Domain())
	pa, err := pts.PointAttributes()
	require.NoError(t, err)
	assert.Equal(t, "ball", pa.Glyph().Name())
	assert.Equal(t, [3]float64{0.1, 0.1, 0.1}, pa.BaseSize())

	c, err := list.FindByPosition(4).Contours()
	require.NoError(t, err)
	assert.Equal(t, 3, c.NumberOfIsovalues())
	assert.InDeltaSlice(t, []float64{0.25, 0.5, 0.75}, c.Isovalues(), 1e-12)

	s, err := list.FindByPosition(5).Streamlines()
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.TrackLength())
	assert.Equal(t, graphics.TrackReverse, s.TrackDirection())
	assert.Equal(t, graphics.ColourDataTravelTime, s.ColourData())
	require.NotNil(t, s.SeedElement())
	assert.Equal(t, 1, s.SeedElement().Identifier())
	sa, err := list.FindByPosition(5).SamplingAttributes()
	require.NoError(t, err)
	assert.Equal(t, [3]float64{0.5, 0.5, 0.5}, sa.Location())
}

func TestEvaluateSeedNodeset(t *testing.T) {
	e, r, _ := newEngine(t)
	_, err := r.NewMeshLocationField("seeds")
	require.NoError(t, err)

	list := evaluate(t, e, `(streamlines :coordinate "coordinates" :vector "flow"
  :seed-nodeset :datapoints :seed-location "seeds")`)
	s, err := list.FindByPosition(1).Streamlines()
	require.NoError(t, err)
	assert.Equal(t, field.DomainDatapoints, s.SeedNodeset().DomainType())
	assert.Same(t, r.FindField("seeds"), s.SeedMeshLocationField())
}

func TestEvaluateScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown keyword", `(surfaces :coordinate "coordinates" :colour "red")`, ":colour"},
		{"unknown field", `(surfaces :coordinate "nowhere")`, `no field named "nowhere"`},
		{"unknown material", `(surfaces :material "unobtainium")`, "unobtainium"},
		{"wrong type for option", `(surfaces :isoscalar "x")`, ":isoscalar"},
		{"bad enum", `(lines :shape :hexagon)`, "hexagon"},
		{"bad domain", `(contours :domain :nodes)`, "nodes"},
		{"missing element", `(streamlines :seed-element 99)`, "element 99"},
		{"vec3 arity", `(vec3 1 2)`, "exactly 3"},
		{"unnamed material", `(material :alpha 1)`, "needs a name"},
		{"alpha range", `(material "m" :alpha 2)`, "outside"},
		{"undefined symbol", `(undefined-builtin 1)`, "undefined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _ := newEngine(t)
			list, evalErrs, err := e.Evaluate(tt.src)
			require.NoError(t, err)
			assert.Nil(t, list)
			require.NotEmpty(t, evalErrs)
			assert.Contains(t, evalErrs[0].Error(), tt.want)
		})
	}
}

func TestEvaluateSyntaxError(t *testing.T) {
	e, _, _ := newEngine(t)
	list, evalErrs, err := e.Evaluate("(surfaces :coordinate")
	require.NoError(t, err)
	assert.Nil(t, list)
	assert.NotEmpty(t, evalErrs)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e, _, _ := newEngine(t)
	src := `(surfaces :coordinate "coordinates") (lines :coordinate "coordinates")`
	a := evaluate(t, e, src)
	b := evaluate(t, e, src)
	require.Equal(t, a.Len(), b.Len())
	for i := 1; i <= a.Len(); i++ {
		assert.True(t, graphics.SameNonTrivial(a.FindByPosition(i), b.FindByPosition(i)))
	}
}

func TestEvalError(t *testing.T) {
	var err error = EvalError{Line: 3, Message: "boom"}
	assert.Equal(t, "line 3: boom", err.Error())
	assert.Equal(t, "boom", EvalError{Message: "boom"}.Error())
}

func TestParseZygomysError(t *testing.T) {
	tests := []struct {
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"Error on line 5: unexpected token\n", 5, "unexpected token"},
		{"some generic error", 0, "some generic error"},
		{"error on line 12: missing paren", 12, "missing paren"},
		{"line 2: surfaces: unknown keyword :x", 2, "surfaces: unknown keyword :x"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			errs := parseZygomysError(errors.New(tt.msg))
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantLine, errs[0].Line)
			assert.Contains(t, errs[0].Message, tt.wantMsg)
		})
	}
}

func TestWaitWithTimeout(t *testing.T) {
	var mu sync.Mutex
	gen := uint64(1)

	res := waitWithTimeout(make(chan evalResult), 10*time.Millisecond, 1, &mu, &gen)
	assert.ErrorIs(t, res.err, ErrTimeout)
	assert.True(t, strings.Contains(res.err.Error(), "10ms"))

	ch := make(chan evalResult, 1)
	ch <- evalResult{}
	gen = 2
	res = waitWithTimeout(ch, time.Second, 1, &mu, &gen)
	assert.ErrorIs(t, res.err, ErrSuperseded)
}
