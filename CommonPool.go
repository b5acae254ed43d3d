package kbox2d

import (
	"fmt"
	"log"
)

///////////////////////////////////////////////////////////////////////////////
// Scratch stacks
///////////////////////////////////////////////////////////////////////////////

// scratchStack hands out zeroed temporaries from a fixed array. Values popped
// beyond capacity come from the heap and are tracked by overflow so the
// matching push stays balanced.
type scratchStack[T any] struct {
	name     string
	items    []T
	top      int
	overflow int
	warned   bool
}

func newScratchStack[T any](name string, capacity int) scratchStack[T] {
	return scratchStack[T]{name: name, items: make([]T, capacity)}
}

func (s *scratchStack[T]) pop(p *WorldPool) *T {
	if s.top >= len(s.items) {
		p.imbalance(&s.warned, "%s stack overflow (capacity %d)", s.name, len(s.items))
		s.overflow++
		return new(T)
	}

	var zero T
	v := &s.items[s.top]
	*v = zero
	s.top++
	return v
}

func (s *scratchStack[T]) push(p *WorldPool, n int) {
	if s.overflow > 0 {
		k := n
		if k > s.overflow {
			k = s.overflow
		}
		s.overflow -= k
		n -= k
	}

	if n > s.top {
		p.imbalance(&s.warned, "%s stack underflow (push %d, depth %d)", s.name, n, s.top)
		s.top = 0
		return
	}
	s.top -= n
}

func (s *scratchStack[T]) depth() int {
	return s.top + s.overflow
}

///////////////////////////////////////////////////////////////////////////////
// Contact free lists
///////////////////////////////////////////////////////////////////////////////

/// ContactHandle names a pooled contact. A handle goes stale as soon as the
/// contact is destroyed; resolving a stale handle yields nil.
type ContactHandle struct {
	Kind       ContactKind
	Index      int32
	Generation uint32
}

type contactSlot struct {
	contact    *Contact
	generation uint32
	live       bool
}

type contactFreeList struct {
	slots []contactSlot
	free  []int32
	live  int
}

///////////////////////////////////////////////////////////////////////////////
// WorldPool
///////////////////////////////////////////////////////////////////////////////

/// WorldPool owns the reusable scratch values and contact objects of one
/// World. It is not safe for concurrent use and is never shared.
type WorldPool struct {
	vec2s     scratchStack[Vec2]
	vec3s     scratchStack[Vec3]
	mat22s    scratchStack[Mat22]
	mat33s    scratchStack[Mat33]
	aabbs     scratchStack[AABB]
	rots      scratchStack[Rot]
	xfs       scratchStack[Transform]
	clips     scratchStack[[2]ClipVertex]
	simplices scratchStack[simplex]

	contacts [contactKindCount]contactFreeList

	logger *log.Logger
}

/// NewWorldPool creates a pool holding capacity scratch values per type.
func NewWorldPool(capacity int, logger *log.Logger) *WorldPool {
	if capacity <= 0 {
		capacity = DefaultPoolCapacity
	}

	return &WorldPool{
		vec2s:     newScratchStack[Vec2]("vec2", capacity),
		vec3s:     newScratchStack[Vec3]("vec3", capacity),
		mat22s:    newScratchStack[Mat22]("mat22", capacity),
		mat33s:    newScratchStack[Mat33]("mat33", capacity),
		aabbs:     newScratchStack[AABB]("aabb", capacity),
		rots:      newScratchStack[Rot]("rot", capacity),
		xfs:       newScratchStack[Transform]("transform", capacity),
		clips:     newScratchStack[[2]ClipVertex]("clippair", capacity),
		simplices: newScratchStack[simplex]("simplex", capacity),
		logger:    logger,
	}
}

func (p *WorldPool) imbalance(warned *bool, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if debugBuild {
		panic("kbox2d: pool imbalance: " + msg)
	}
	if !*warned && p.logger != nil {
		p.logger.Printf("pool imbalance: %s", msg)
	}
	*warned = true
}

/// Depth returns the number of scratch values currently popped. It is zero
/// between steps.
func (p *WorldPool) Depth() int {
	return p.vec2s.depth() + p.vec3s.depth() + p.mat22s.depth() + p.mat33s.depth() +
		p.aabbs.depth() + p.rots.depth() + p.xfs.depth() + p.clips.depth() + p.simplices.depth()
}

func (p *WorldPool) popVec2() *Vec2       { return p.vec2s.pop(p) }
func (p *WorldPool) pushVec2(n int)       { p.vec2s.push(p, n) }
func (p *WorldPool) popVec3() *Vec3       { return p.vec3s.pop(p) }
func (p *WorldPool) pushVec3(n int)       { p.vec3s.push(p, n) }
func (p *WorldPool) popMat22() *Mat22     { return p.mat22s.pop(p) }
func (p *WorldPool) pushMat22(n int)      { p.mat22s.push(p, n) }
func (p *WorldPool) popMat33() *Mat33     { return p.mat33s.pop(p) }
func (p *WorldPool) pushMat33(n int)      { p.mat33s.push(p, n) }
func (p *WorldPool) popAABB() *AABB       { return p.aabbs.pop(p) }
func (p *WorldPool) pushAABB(n int)       { p.aabbs.push(p, n) }
func (p *WorldPool) popRot() *Rot         { return p.rots.pop(p) }
func (p *WorldPool) pushRot(n int)        { p.rots.push(p, n) }
func (p *WorldPool) popSimplex() *simplex { return p.simplices.pop(p) }
func (p *WorldPool) pushSimplex(n int)    { p.simplices.push(p, n) }

func (p *WorldPool) popTransform() *Transform { return p.xfs.pop(p) }
func (p *WorldPool) pushTransform(n int)      { p.xfs.push(p, n) }

// popClipPair returns a zeroed pair of clip vertices, the unit the
// segment clipper works on.
func (p *WorldPool) popClipPair() *[2]ClipVertex { return p.clips.pop(p) }
func (p *WorldPool) pushClipPair(n int)          { p.clips.push(p, n) }

func (p *WorldPool) allocContact(kind ContactKind) *Contact {
	l := &p.contacts[kind]

	var index int32
	if n := len(l.free); n > 0 {
		index = l.free[n-1]
		l.free = l.free[:n-1]
	} else {
		index = int32(len(l.slots))
		l.slots = append(l.slots, contactSlot{contact: &Contact{}})
	}

	slot := &l.slots[index]
	slot.live = true
	l.live++

	c := slot.contact
	*c = Contact{}
	c.handle = ContactHandle{Kind: kind, Index: index, Generation: slot.generation}
	return c
}

func (p *WorldPool) freeContact(c *Contact) {
	h := c.handle
	l := &p.contacts[h.Kind]
	assert(int(h.Index) < len(l.slots), "contact handle out of range")

	slot := &l.slots[h.Index]
	assert(slot.live && slot.generation == h.Generation, "contact freed twice")

	slot.live = false
	slot.generation++
	l.free = append(l.free, h.Index)
	l.live--
}

func (p *WorldPool) resolveContact(h ContactHandle) *Contact {
	if h.Kind >= contactKindCount {
		return nil
	}
	l := &p.contacts[h.Kind]
	if h.Index < 0 || int(h.Index) >= len(l.slots) {
		return nil
	}
	slot := &l.slots[h.Index]
	if !slot.live || slot.generation != h.Generation {
		return nil
	}
	return slot.contact
}

/// ContactStats reports live and recycled contact objects for one pair kind.
func (p *WorldPool) ContactStats(kind ContactKind) (live, free int) {
	l := &p.contacts[kind]
	return l.live, len(l.free)
}
