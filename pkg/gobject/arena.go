package gobject

// Handle refers to an object owned by an Arena. The zero Handle refers to
// nothing. Handles to released objects stay invalid after the slot is
// reused.
type Handle struct {
	slot       uint32 // index+1
	generation uint32
}

// IsZero reports whether h refers to nothing.
func (h Handle) IsZero() bool { return h.slot == 0 }

type arenaSlot struct {
	object     *Object
	generation uint32
}

// Arena owns graphics objects. Transferring an object between graphics is a
// handle reassignment; nothing is copied. An Arena is not safe for
// concurrent use.
type Arena struct {
	slots []arenaSlot
	free  []uint32
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// New creates an object and returns its handle.
func (a *Arena) New(name string, kind Kind) Handle {
	obj := New(name, kind)
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[idx].object = obj
		return Handle{slot: idx + 1, generation: a.slots[idx].generation}
	}
	a.slots = append(a.slots, arenaSlot{object: obj})
	return Handle{slot: uint32(len(a.slots))}
}

// Get returns the object for h, or nil if h is zero or released.
func (a *Arena) Get(h Handle) *Object {
	if h.IsZero() || int(h.slot) > len(a.slots) {
		return nil
	}
	s := a.slots[h.slot-1]
	if s.generation != h.generation {
		return nil
	}
	return s.object
}

// Release frees the object behind h. Releasing a stale or zero handle is a
// no-op.
func (a *Arena) Release(h Handle) {
	if a.Get(h) == nil {
		return
	}
	idx := h.slot - 1
	a.slots[idx].object = nil
	a.slots[idx].generation++
	a.free = append(a.free, idx)
}

// Live returns the number of objects currently owned.
func (a *Arena) Live() int {
	return len(a.slots) - len(a.free)
}
