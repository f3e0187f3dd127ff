package field

import (
	"sort"

	"github.com/samber/lo"
)

// ChangeFlags is a bitmask describing how a field or labelled object changed.
type ChangeFlags int

const (
	ChangeNone          ChangeFlags = 0
	ChangeAdd           ChangeFlags = 1 << 0
	ChangeRemove        ChangeFlags = 1 << 1
	ChangeIdentifier    ChangeFlags = 1 << 2
	ChangeDefinition    ChangeFlags = 1 << 3
	ChangeFullResult    ChangeFlags = 1 << 4
	ChangePartialResult ChangeFlags = 1 << 5
	ChangeResult                    = ChangeFullResult | ChangePartialResult
)

// Has reports whether any bit of mask is set.
func (f ChangeFlags) Has(mask ChangeFlags) bool {
	return f&mask != 0
}

// ChangeLog records which labelled objects (elements of one dimension, or
// nodes of one nodeset) changed and how.
type ChangeLog struct {
	summary ChangeFlags
	all     bool
	changes map[int]ChangeFlags
}

// NewChangeLog returns an empty log.
func NewChangeLog() *ChangeLog {
	return &ChangeLog{changes: make(map[int]ChangeFlags)}
}

// Record notes a change to the object with the given identifier.
func (l *ChangeLog) Record(id int, flags ChangeFlags) {
	l.changes[id] |= flags
	l.summary |= flags
}

// RecordAll marks every object as changed.
func (l *ChangeLog) RecordAll(flags ChangeFlags) {
	l.all = true
	l.summary |= flags
}

// Summary is the union of all recorded flags.
func (l *ChangeLog) Summary() ChangeFlags {
	if l == nil {
		return ChangeNone
	}
	return l.summary
}

// IsAllChange reports whether every object is considered changed.
func (l *ChangeLog) IsAllChange() bool {
	return l != nil && l.all
}

// Count is the number of individually recorded objects.
func (l *ChangeLog) Count() int {
	if l == nil {
		return 0
	}
	return len(l.changes)
}

// Flags returns the recorded flags for one identifier.
func (l *ChangeLog) Flags(id int) ChangeFlags {
	if l == nil {
		return ChangeNone
	}
	return l.changes[id]
}

// Identifiers returns the sorted identifiers whose flags intersect mask.
// A zero mask matches every recorded identifier.
func (l *ChangeLog) Identifiers(mask ChangeFlags) []int {
	if l == nil {
		return nil
	}
	ids := lo.FilterMap(lo.Entries(l.changes), func(e lo.Entry[int, ChangeFlags], _ int) (int, bool) {
		return e.Key, mask == ChangeNone || e.Value.Has(mask)
	})
	sort.Ints(ids)
	return ids
}

// Merge folds o into l.
func (l *ChangeLog) Merge(o *ChangeLog) {
	if o == nil {
		return
	}
	for id, f := range o.changes {
		l.Record(id, f)
	}
	if o.all {
		l.RecordAll(o.summary)
	}
	l.summary |= o.summary
}

// IsEmpty reports whether nothing was recorded.
func (l *ChangeLog) IsEmpty() bool {
	return l == nil || (!l.all && len(l.changes) == 0 && l.summary == ChangeNone)
}

// Event is the set of changes a field module reports at the end of a change
// cache: per-field flags, per-dimension element logs, per-domain node logs
// and whether the selection changed.
type Event struct {
	fields    map[Field]ChangeFlags
	elements  map[int]*ChangeLog
	nodes     map[DomainType]*ChangeLog
	selection bool
}

// NewEvent returns an event with no changes.
func NewEvent() *Event {
	return &Event{
		fields:   make(map[Field]ChangeFlags),
		elements: make(map[int]*ChangeLog),
		nodes:    make(map[DomainType]*ChangeLog),
	}
}

// SetFieldChange records flags for f.
func (ev *Event) SetFieldChange(f Field, flags ChangeFlags) {
	ev.fields[f] |= flags
}

// FieldChange returns the flags recorded for f. A nil event or field has no
// change.
func (ev *Event) FieldChange(f Field) ChangeFlags {
	if ev == nil || f == nil {
		return ChangeNone
	}
	return ev.fields[f]
}

// ElementLog returns the log for elements of the given dimension, creating
// it if needed.
func (ev *Event) ElementLog(dimension int) *ChangeLog {
	l, ok := ev.elements[dimension]
	if !ok {
		l = NewChangeLog()
		ev.elements[dimension] = l
	}
	return l
}

// NodeLog returns the log for the nodeset of the given domain, creating it
// if needed.
func (ev *Event) NodeLog(domain DomainType) *ChangeLog {
	l, ok := ev.nodes[domain]
	if !ok {
		l = NewChangeLog()
		ev.nodes[domain] = l
	}
	return l
}

// SetSelectionChanged flags a change of selection membership.
func (ev *Event) SetSelectionChanged() {
	ev.selection = true
}

// SelectionChanged reports whether the selection changed.
func (ev *Event) SelectionChanged() bool {
	return ev != nil && ev.selection
}

// HasFieldOrMeshChanges reports whether anything other than the selection
// changed.
func (ev *Event) HasFieldOrMeshChanges() bool {
	if ev == nil {
		return false
	}
	for _, f := range ev.fields {
		if f != ChangeNone {
			return true
		}
	}
	for _, l := range ev.elements {
		if !l.IsEmpty() {
			return true
		}
	}
	for _, l := range ev.nodes {
		if !l.IsEmpty() {
			return true
		}
	}
	return false
}

// PropagateToDimension marks elements of the given dimension as changed
// when any of their nodes changed or when a higher dimensional element they
// are a face of changed. Field values on faces are inherited from parents,
// so those faces must be regenerated too.
func (ev *Event) PropagateToDimension(topo Topology, dimension int) {
	log := ev.ElementLog(dimension)
	if nodes, ok := ev.nodes[DomainNodes]; ok {
		if nodes.IsAllChange() {
			log.RecordAll(ChangePartialResult)
		} else if ids := nodes.Identifiers(ChangeNone); len(ids) > 0 {
			for _, id := range topo.ElementsUsingNodes(dimension, ids) {
				log.Record(id, ChangePartialResult)
			}
		}
	}
	for parentDim := dimension + 1; parentDim <= 3; parentDim++ {
		parents, ok := ev.elements[parentDim]
		if !ok || parents.IsEmpty() {
			continue
		}
		if parents.IsAllChange() {
			log.RecordAll(ChangePartialResult)
			continue
		}
		ids := parents.Identifiers(ChangeNone)
		for _, id := range topo.FacesOf(dimension, parentDim, ids) {
			log.Record(id, ChangePartialResult)
		}
	}
}

// FindElementLog returns the log for elements of the given dimension, or nil
// if none was recorded.
func (ev *Event) FindElementLog(dimension int) *ChangeLog {
	if ev == nil {
		return nil
	}
	return ev.elements[dimension]
}

// FindNodeLog returns the log for the given nodeset domain, or nil.
func (ev *Event) FindNodeLog(domain DomainType) *ChangeLog {
	if ev == nil {
		return nil
	}
	return ev.nodes[domain]
}

// Propagated is PropagateToDimension without side effects: it returns a new
// log holding the recorded changes at dimension plus those inherited from
// nodes and parent elements, leaving ev untouched.
func (ev *Event) Propagated(topo Topology, dimension int) *ChangeLog {
	out := NewChangeLog()
	if ev == nil {
		return out
	}
	out.Merge(ev.elements[dimension])
	scratch := &Event{
		fields:   ev.fields,
		elements: make(map[int]*ChangeLog, len(ev.elements)),
		nodes:    ev.nodes,
	}
	for d, l := range ev.elements {
		if d != dimension {
			scratch.elements[d] = l
		}
	}
	scratch.elements[dimension] = out
	scratch.PropagateToDimension(topo, dimension)
	return out
}
