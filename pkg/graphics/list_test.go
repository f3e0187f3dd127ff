package graphics

import (
	"testing"

	"github.com/chazu/fegraphics/pkg/appearance"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newList(t *testing.T, types ...Type) *List {
	t.Helper()
	l := NewList(gobject.NewArena(), appearance.NewRegistry())
	for _, typ := range types {
		g, err := l.Create(typ)
		require.NoError(t, err)
		require.NoError(t, l.Add(g, 0))
	}
	return l
}

func assertContiguous(t *testing.T, l *List) {
	t.Helper()
	for i, g := range l.Graphics() {
		assert.Equal(t, i+1, g.Position(), "graphics %d", i)
	}
}

func TestListAddPositions(t *testing.T) {
	l := newList(t, TypeLines, TypeSurfaces)
	lines := l.FindByPosition(1)
	surfaces := l.FindByPosition(2)

	pts, err := l.Create(TypePoints)
	require.NoError(t, err)
	require.NoError(t, l.Add(pts, 2))

	assert.Same(t, lines, l.FindByPosition(1))
	assert.Same(t, pts, l.FindByPosition(2))
	assert.Same(t, surfaces, l.FindByPosition(3))
	assertContiguous(t, l)

	extra, _ := l.Create(TypeContours)
	require.NoError(t, l.Add(extra, 99))
	assert.Same(t, extra, l.FindByPosition(4), "out of range appends")
	assert.Nil(t, l.FindByPosition(5))
	assert.Nil(t, l.FindByPosition(0))

	require.ErrorIs(t, l.Add(extra, 1), ErrInvalidArgument, "already a member")
	require.ErrorIs(t, l.Add(nil, 1), ErrInvalidArgument)
}

func TestListAddThenRemoveKeepsPositionsContiguous(t *testing.T) {
	l := newList(t, TypeLines, TypeSurfaces, TypePoints)
	y := l.FindByPosition(1)
	x, _ := l.Create(TypeContours)

	require.NoError(t, l.Add(x, 2))
	require.NoError(t, l.Remove(y))

	require.Equal(t, 3, l.Len())
	assertContiguous(t, l)
	assert.Same(t, x, l.FindByPosition(1))
	assert.Equal(t, 0, y.Position())
	require.ErrorIs(t, l.Remove(y), ErrInvalidArgument)
}

func TestListRejectsNil(t *testing.T) {
	l := newList(t, TypeLines)
	require.ErrorIs(t, l.Add(nil, 1), ErrInvalidArgument)
	require.ErrorIs(t, l.Remove(nil), ErrInvalidArgument)
	assert.Equal(t, 1, l.Len())
}

func TestListRemoveReleasesObject(t *testing.T) {
	l := newList(t, TypeSurfaces)
	g := l.FindByPosition(1)
	g.EnsureObject(gobject.KindSurface)
	require.Equal(t, 1, l.Arena().Live())

	require.NoError(t, l.Remove(g))
	assert.Equal(t, 0, l.Arena().Live())
}

func TestListFindByName(t *testing.T) {
	l := newList(t, TypeLines, TypeSurfaces)
	l.FindByPosition(2).SetName("skin")

	assert.Same(t, l.FindByPosition(2), l.FindByName("skin"))
	assert.Same(t, l.FindByPosition(1), l.FindByName("1"), "unnamed falls back to position")
	assert.Nil(t, l.FindByName("2"), "named graphics do not match their position")
	assert.Nil(t, l.FindByName("missing"))
}

func TestListCreateAppliesDefaults(t *testing.T) {
	reg := appearance.NewRegistry()
	l := NewList(gobject.NewArena(), reg)
	g, err := l.Create(TypeSurfaces)
	require.NoError(t, err)
	assert.Same(t, reg.DefaultMaterial(), g.Material())
	assert.Same(t, reg.DefaultSelectedMaterial(), g.SelectedMaterial())
	assert.Same(t, reg.DefaultTessellation(), g.Tessellation())

	p, err := l.Create(TypePoints)
	require.NoError(t, err)
	assert.Same(t, reg.DefaultPointsTessellation(), p.Tessellation())
}

func TestListNotifiesListener(t *testing.T) {
	l := newList(t, TypeSurfaces)
	var seen []Change
	l.SetListener(func(_ *Graphics, c Change) { seen = append(seen, c) })

	g := l.FindByPosition(1)
	g.SetVisible(false)
	g.SetExterior(true)
	assert.Equal(t, []Change{ChangeRedraw, ChangeFullRebuild}, seen)
}

func TestObjectNamesFollowPosition(t *testing.T) {
	l := newList(t, TypeLines, TypeSurfaces)
	g := l.FindByPosition(2)
	g.SetName("skin")
	obj := g.EnsureObject(gobject.KindSurface)
	assert.Equal(t, "2_skin", obj.Name)

	require.NoError(t, l.Remove(l.FindByPosition(1)))
	assert.Equal(t, "1_skin", obj.Name)
}

func TestValidate(t *testing.T) {
	l := newList(t, TypeSurfaces, TypeContours, TypeStreamlines, TypePoints)
	l.FindByPosition(1).SetName("a")
	l.FindByPosition(2).SetName("a")

	errs := Validate(l)
	require.True(t, HasErrors(errs))

	messages := make(map[int][]string)
	for _, e := range errs {
		messages[e.Position] = append(messages[e.Position], e.Message)
	}
	assert.Contains(t, messages[1], "surfaces on mesh2d has no coordinate field")
	assert.Contains(t, messages[2], "contours have no isoscalar field")
	assert.Contains(t, messages[2], `name "a" already used by graphics 1`)
	assert.Contains(t, messages[3], "streamlines have no stream vector field")
	assert.Empty(t, messages[4], "points on the point domain need nothing")
}
