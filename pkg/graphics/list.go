package graphics

import (
	"fmt"
	"strconv"

	"github.com/chazu/fegraphics/pkg/appearance"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/samber/lo"
)

// List is the ordered set of graphics making up the visualisation of one
// region. Positions are always 1..N in list order; draw and pick order
// follow it.
type List struct {
	items    []*Graphics
	arena    *gobject.Arena
	registry *appearance.Registry
	listener Listener
}

// NewList returns an empty list whose graphics share arena. registry
// supplies default appearance for Create and may be nil.
func NewList(arena *gobject.Arena, registry *appearance.Registry) *List {
	return &List{arena: arena, registry: registry}
}

// Arena returns the arena shared by the list's graphics.
func (l *List) Arena() *gobject.Arena { return l.arena }

// Registry returns the appearance registry, or nil.
func (l *List) Registry() *appearance.Registry { return l.registry }

// SetListener installs the function told of every change to any member.
func (l *List) SetListener(fn Listener) { l.listener = fn }

// Create returns a new graphics of type t with the registry's default
// material, selected material, font and tessellation. It is not added.
func (l *List) Create(t Type) (*Graphics, error) {
	g, err := New(t, l.arena)
	if err != nil {
		return nil, err
	}
	if r := l.registry; r != nil {
		g.material = r.DefaultMaterial()
		g.selectedMaterial = r.DefaultSelectedMaterial()
		g.font = r.DefaultFont()
		if t == TypePoints {
			g.tessellation = r.DefaultPointsTessellation()
		} else {
			g.tessellation = r.DefaultTessellation()
		}
	}
	return g, nil
}

// Len returns the number of graphics.
func (l *List) Len() int { return len(l.items) }

// Graphics returns the graphics in position order.
func (l *List) Graphics() []*Graphics {
	return append([]*Graphics(nil), l.items...)
}

// Add inserts g at position, shifting the graphics there and after it down
// by one. A position outside 1..N appends.
func (l *List) Add(g *Graphics, position int) error {
	if g == nil {
		return fmt.Errorf("graphics: add nil: %w", ErrInvalidArgument)
	}
	if g.arena != l.arena {
		return fmt.Errorf("graphics: add %s: different arena: %w", g.Label(), ErrInvalidArgument)
	}
	if g.owner != nil {
		return fmt.Errorf("graphics: add %s: already in a list: %w", g.Label(), ErrInvalidArgument)
	}
	idx := position - 1
	if position < 1 || position > len(l.items) {
		idx = len(l.items)
	}
	l.items = append(l.items, nil)
	copy(l.items[idx+1:], l.items[idx:])
	l.items[idx] = g
	g.owner = l
	g.SetListener(l.notify)
	l.renumber()
	l.notify(g, ChangeFullRebuild)
	return nil
}

// Remove deletes g, moving every later graphics up by one and releasing
// g's object.
func (l *List) Remove(g *Graphics) error {
	if g == nil {
		return fmt.Errorf("graphics: remove nil: %w", ErrInvalidArgument)
	}
	idx := lo.IndexOf(l.items, g)
	if idx < 0 {
		return fmt.Errorf("graphics: remove %s: not in list: %w", g.Label(), ErrInvalidArgument)
	}
	l.items = append(l.items[:idx], l.items[idx+1:]...)
	g.owner = nil
	g.SetListener(nil)
	g.ReleaseObject()
	g.position = 0
	l.renumber()
	if l.listener != nil {
		l.listener(g, ChangeRedraw)
	}
	return nil
}

// FindByPosition returns the graphics at 1-based position, or nil.
func (l *List) FindByPosition(position int) *Graphics {
	if position < 1 || position > len(l.items) {
		return nil
	}
	return l.items[position-1]
}

// FindByName returns the first graphics called name. Unnamed graphics match
// the decimal form of their position.
func (l *List) FindByName(name string) *Graphics {
	g, ok := lo.Find(l.items, func(g *Graphics) bool {
		if g.name != "" {
			return g.name == name
		}
		return strconv.Itoa(g.position) == name
	})
	if !ok {
		return nil
	}
	return g
}

// Copy returns a list of detached copies sharing the arena, for editing
// before Commit.
func (l *List) Copy() *List {
	c := NewList(l.arena, l.registry)
	c.items = lo.Map(l.items, func(g *Graphics, _ int) *Graphics { return g.Copy() })
	return c
}

// Commit replaces the contents of l with the graphics of edited. Each new
// graphics takes over the object of an equivalent old one where possible,
// so pure appearance edits do not rebuild. Unclaimed old objects are
// released. edited is left empty.
func (l *List) Commit(edited *List) (reused int, err error) {
	if edited.arena != l.arena {
		return 0, fmt.Errorf("graphics: commit: different arena: %w", ErrInvalidArgument)
	}
	old := l.items
	for _, g := range edited.items {
		ok, err := ReuseObject(g, old)
		if err != nil {
			return reused, err
		}
		if ok {
			reused++
		}
	}
	for _, g := range old {
		g.owner = nil
		g.SetListener(nil)
		g.ReleaseObject()
	}
	l.items = edited.items
	edited.items = nil
	for _, g := range l.items {
		g.owner = l
		g.SetListener(l.notify)
	}
	l.renumber()
	for _, g := range l.items {
		if g.HasObject() {
			l.notify(g, ChangeRecompile)
		} else {
			l.notify(g, ChangeFullRebuild)
		}
	}
	return reused, nil
}

func (l *List) notify(g *Graphics, c Change) {
	if l.listener != nil {
		l.listener(g, c)
	}
}

// renumber restores positions 1..N and the object names derived from them.
func (l *List) renumber() {
	for i, g := range l.items {
		if g.position == i+1 {
			continue
		}
		g.position = i + 1
		if obj := g.Object(); obj != nil {
			obj.Name = g.ObjectName()
		}
	}
}
