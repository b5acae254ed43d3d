package kbox2d

import (
	"bytes"
	"log"
	"strings"
	"testing"
)

func TestPoolPopPushBalance(t *testing.T) {
	pool := NewWorldPool(4, nil)

	a := pool.popVec2()
	b := pool.popVec2()
	m := pool.popMat33()
	a.Set(1.0, 2.0)
	b.Set(3.0, 4.0)
	m.Set(0, 0, 5.0)

	if d := pool.Depth(); d != 3 {
		t.Fatalf("depth after 3 pops = %d", d)
	}

	pool.pushMat33(1)
	pool.pushVec2(2)

	if d := pool.Depth(); d != 0 {
		t.Fatalf("depth after balanced pushes = %d", d)
	}

	// Popped values are zeroed.
	if v := pool.popVec2(); *v != (Vec2{}) {
		t.Fatalf("reused vec2 not zeroed: %v", *v)
	}
	pool.pushVec2(1)
}

func TestPoolOverflowAndUnderflowClamp(t *testing.T) {
	if debugBuild {
		t.Skip("imbalance panics in debug builds")
	}

	var buf bytes.Buffer
	pool := NewWorldPool(2, log.New(&buf, "", 0))

	for i := 0; i < 5; i++ {
		r := pool.popRot()
		r.SetIdentity()
	}
	if d := pool.Depth(); d != 5 {
		t.Fatalf("depth with overflow = %d, want 5", d)
	}

	pool.pushRot(5)
	if d := pool.Depth(); d != 0 {
		t.Fatalf("depth after overflow release = %d", d)
	}

	pool.pushAABB(3)
	if d := pool.Depth(); d != 0 {
		t.Fatalf("depth after underflow = %d", d)
	}

	out := buf.String()
	if !strings.Contains(out, "rot stack overflow") || !strings.Contains(out, "aabb stack underflow") {
		t.Fatalf("missing imbalance log lines:\n%s", out)
	}

	// Each stack warns once.
	pool.popRot()
	pool.popRot()
	pool.popRot()
	pool.pushRot(3)
	if n := strings.Count(buf.String(), "rot stack overflow"); n != 1 {
		t.Fatalf("rot overflow logged %d times", n)
	}
}

func TestPoolContactHandles(t *testing.T) {
	pool := NewWorldPool(0, nil)

	c1 := pool.allocContact(PolygonContactKind)
	h1 := c1.Handle()
	if got := pool.resolveContact(h1); got != c1 {
		t.Fatalf("resolve live handle = %p, want %p", got, c1)
	}

	pool.freeContact(c1)
	if got := pool.resolveContact(h1); got != nil {
		t.Fatalf("stale handle resolved to %p", got)
	}

	live, free := pool.ContactStats(PolygonContactKind)
	if live != 0 || free != 1 {
		t.Fatalf("stats after free = %d live %d free", live, free)
	}

	// The slot is recycled with a new generation.
	c2 := pool.allocContact(PolygonContactKind)
	h2 := c2.Handle()
	if h2.Index != h1.Index || h2.Generation == h1.Generation {
		t.Fatalf("recycled handle %+v, previous %+v", h2, h1)
	}
	if pool.resolveContact(h1) != nil {
		t.Fatalf("old generation resolves after recycling")
	}

	// Kinds keep separate lists.
	c3 := pool.allocContact(CircleContactKind)
	if c3.Handle().Index != 0 {
		t.Fatalf("first circle contact index = %d", c3.Handle().Index)
	}

	if pool.resolveContact(ContactHandle{Kind: contactKindCount}) != nil {
		t.Fatalf("out of range kind resolved")
	}
}
