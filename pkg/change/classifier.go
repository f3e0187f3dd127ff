// Package change decides how much of a built graphics must be redone when
// the field module reports a change. Classification is pure; Apply carries
// the decision out on the graphics.
package change

import (
	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/chazu/fegraphics/pkg/logging"
	"go.uber.org/zap"
)

// Result is the outcome of classifying one event for one graphics.
type Result struct {
	Change graphics.Change
	// Identifiers lists the elements whose primitives must be replaced when
	// Change is ChangePartialRebuild.
	Identifiers []int
	// Reason is a short description of the deciding rule, for logs.
	Reason string
}

func none(reason string) Result { return Result{Change: graphics.ChangeNone, Reason: reason} }
func full(reason string) Result { return Result{Change: graphics.ChangeFullRebuild, Reason: reason} }

// larger returns the larger of a and b; a partial result keeps its identifiers.
func larger(a, b Result) Result {
	if b.Change > a.Change {
		return b
	}
	return a
}

// Classifier maps field module events to graphics changes for one region.
type Classifier struct {
	module field.Module
	log    *zap.Logger
}

// NewClassifier returns a classifier for graphics built from module.
func NewClassifier(module field.Module) *Classifier {
	return &Classifier{module: module, log: logging.L().Named("change")}
}

// Classify returns the change ev implies for g. It does not modify g or ev.
// A graphics with no built object is already due for a full build, so
// nothing is reported for it.
func (c *Classifier) Classify(g *graphics.Graphics, ev *field.Event) Result {
	if ev == nil {
		return none("no event")
	}
	if !g.HasObject() {
		return none("not built")
	}
	res := larger(c.classifyFields(g, ev), c.classifySelection(g, ev))
	if res.Change != graphics.ChangeNone {
		c.log.Debug("classified change",
			zap.String("graphics", g.Label()),
			zap.Stringer("change", res.Change),
			zap.String("reason", res.Reason),
			zap.Int("identifiers", len(res.Identifiers)))
	}
	return res
}

func (c *Classifier) classifyFields(g *graphics.Graphics, ev *field.Event) Result {
	var flags field.ChangeFlags
	for _, f := range g.Fields() {
		flags |= ev.FieldChange(f)
	}
	if flags.Has(field.ChangeDefinition | field.ChangeFullResult) {
		return full("field definition or full result")
	}
	switch d := g.Domain(); {
	case d == field.DomainPoint:
		if flags != field.ChangeNone {
			return full("point domain field change")
		}
		return none("point domain unchanged")
	case d.IsNodeset():
		if flags.Has(field.ChangeResult) {
			return full("nodeset field result")
		}
		if ev.FindNodeLog(d).Summary().Has(field.ChangeIdentifier | field.ChangeAdd | field.ChangeRemove) {
			return full("nodes added, removed or renumbered")
		}
		return none("nodeset unchanged")
	}
	return c.classifyElements(g, ev, flags)
}

func (c *Classifier) classifyElements(g *graphics.Graphics, ev *field.Event, flags field.ChangeFlags) Result {
	dim := g.DomainDimension(c.module.HighestDimension())
	if ev.FindElementLog(dim).Summary().Has(field.ChangeIdentifier | field.ChangeAdd) {
		return full("elements added or renumbered")
	}
	meshChanged := false
	for d := dim; d <= 3; d++ {
		if !ev.FindElementLog(d).IsEmpty() {
			meshChanged = true
			break
		}
	}
	if !flags.Has(field.ChangePartialResult) && !meshChanged {
		return none("no element change")
	}
	if g.Type() == graphics.TypeStreamlines {
		return full("streamlines cross elements")
	}
	log := ev.Propagated(c.module, dim)
	if log.IsAllChange() {
		return full("all elements changed")
	}
	n := log.Count()
	if n == 0 {
		return none("no element of this dimension changed")
	}
	if mesh := c.module.FindMeshByDimension(dim); mesh == nil || 2*n > mesh.Size() {
		return full("most elements changed")
	}
	return Result{
		Change:      graphics.ChangePartialRebuild,
		Identifiers: log.Identifiers(field.ChangeNone),
		Reason:      "some elements changed",
	}
}

func (c *Classifier) classifySelection(g *graphics.Graphics, ev *field.Event) Result {
	if !ev.SelectionChanged() {
		return none("selection unchanged")
	}
	if sel := c.module.SelectionGroup(); sel != nil && g.SubgroupField() == sel {
		return full("subgroup is the selection")
	}
	switch g.SelectMode() {
	case graphics.SelectOn:
		return Result{Change: graphics.ChangeSelection, Reason: "selection highlighted"}
	case graphics.SelectDrawSelected, graphics.SelectDrawUnselected:
		return full("selection decides membership")
	}
	return none("selection ignored")
}

// Apply carries r out on g: a partial rebuild drops the primitives of the
// changed elements from the object, then the change is raised through g.
// It returns the number of primitives dropped.
func Apply(g *graphics.Graphics, r Result) int {
	dropped := 0
	if r.Change == graphics.ChangePartialRebuild {
		if obj := g.Object(); obj != nil {
			dropped = obj.InvalidateNames(r.Identifiers)
		}
	}
	g.RaiseChange(r.Change)
	return dropped
}
