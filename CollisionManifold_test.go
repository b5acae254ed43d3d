package kbox2d

import (
	"math"
	"math/rand"
	"sort"
	"testing"
)

// randomPolygon places vertices on a circle at increasing angles, which
// gives a convex counter-clockwise outline.
func randomPolygon(rng *rand.Rand) *PolygonShape {
	for {
		n := 3 + rng.Intn(MaxPolygonVertices-2)
		angles := make([]float64, n)
		for i := range angles {
			angles[i] = rng.Float64() * 2.0 * Pi
		}
		sort.Float64s(angles)

		radius := 0.3 + 0.7*rng.Float64()
		center := MakeVec2(rng.Float64()*0.4-0.2, rng.Float64()*0.4-0.2)
		vs := make([]Vec2, n)
		for i, a := range angles {
			vs[i] = center.Add(MakeVec2(math.Cos(a), math.Sin(a)).Mul(radius))
		}
		poly := newPolygonShape()
		if poly.Set(vs) == nil {
			return poly
		}
	}
}

func randomTransform(rng *rand.Rand) Transform {
	return MakeTransform(MakeVec2(rng.Float64()*3.0-1.5, rng.Float64()*3.0-1.5), rng.Float64()*2.0*Pi)
}

func checkManifold(t *testing.T, pair string, i int, m *Manifold) {
	t.Helper()
	if m.PointCount < 0 || m.PointCount > MaxManifoldPoints {
		t.Fatalf("%s #%d: %d manifold points", pair, i, m.PointCount)
	}
	for p := 0; p < m.PointCount; p++ {
		if !m.Points[p].LocalPoint.IsValid() {
			t.Fatalf("%s #%d: point %d not finite", pair, i, p)
		}
	}
}

func TestManifoldPointBound(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pool := NewWorldPool(DefaultPoolCapacity, nil)

	for i := 0; i < 2000; i++ {
		polyA := randomPolygon(rng)
		polyB := randomPolygon(rng)
		circle := &CircleShape{P: MakeVec2(rng.Float64()-0.5, rng.Float64()-0.5), radius: 0.1 + rng.Float64()}
		edge := &EdgeShape{}
		edge.SetTwoSided(MakeVec2(-2.0, rng.Float64()-0.5), MakeVec2(2.0, rng.Float64()-0.5))
		xfA := randomTransform(rng)
		xfB := randomTransform(rng)

		var m Manifold
		CollidePolygons(pool, &m, polyA, xfA, polyB, xfB)
		checkManifold(t, "polygons", i, &m)

		m = Manifold{}
		CollidePolygonAndCircle(&m, polyA, xfA, circle, xfB)
		checkManifold(t, "polygon-circle", i, &m)

		m = Manifold{}
		CollideCircles(&m, circle, xfA, circle, xfB)
		checkManifold(t, "circles", i, &m)

		m = Manifold{}
		CollideEdgeAndCircle(&m, edge, xfA, circle, xfB)
		checkManifold(t, "edge-circle", i, &m)

		m = Manifold{}
		CollideEdgeAndPolygon(pool, &m, edge, xfA, polyB, xfB)
		checkManifold(t, "edge-polygon", i, &m)

		oneSided := &EdgeShape{}
		oneSided.SetOneSided(MakeVec2(-3.0, 0.5), edge.Vertex1, edge.Vertex2, MakeVec2(3.0, 0.5))

		m = Manifold{}
		CollideEdgeAndCircle(&m, oneSided, xfA, circle, xfB)
		checkManifold(t, "one-sided edge-circle", i, &m)

		m = Manifold{}
		CollideEdgeAndPolygon(pool, &m, oneSided, xfA, polyB, xfB)
		checkManifold(t, "one-sided edge-polygon", i, &m)

		// Every child edge of a chain carries ghost vertices from its
		// neighbors.
		chain := &ChainShape{}
		vertices := []Vec2{
			MakeVec2(-3.0, rng.Float64()-0.5),
			MakeVec2(-1.0, rng.Float64()-0.5),
			MakeVec2(1.0, rng.Float64()-0.5),
			MakeVec2(3.0, rng.Float64()-0.5),
		}
		if err := chain.CreateChain(vertices, MakeVec2(-4.0, 0.0), MakeVec2(4.0, 0.0)); err != nil {
			t.Fatalf("#%d: chain: %v", i, err)
		}
		for c := 0; c < chain.ChildCount(); c++ {
			var child EdgeShape
			chain.ChildEdge(&child, c)
			if !child.OneSided {
				t.Fatalf("#%d: chain child %d is two-sided", i, c)
			}

			m = Manifold{}
			CollideEdgeAndCircle(&m, &child, xfA, circle, xfB)
			checkManifold(t, "chain-circle", i, &m)

			m = Manifold{}
			CollideEdgeAndPolygon(pool, &m, &child, xfA, polyB, xfB)
			checkManifold(t, "chain-polygon", i, &m)
		}

		if d := pool.Depth(); d != 0 {
			t.Fatalf("#%d: pool depth %d after narrow phase", i, d)
		}
	}
}

func TestCollidePolygonsBoxOnBox(t *testing.T) {
	pool := NewWorldPool(DefaultPoolCapacity, nil)
	box := newPolygonShape()
	box.SetAsBox(1.0, 1.0)

	var m Manifold
	CollidePolygons(pool, &m, box, MakeTransform(Vec2{}, 0.0), box, MakeTransform(MakeVec2(0.5, 1.99), 0.0))
	if m.PointCount != 2 {
		t.Fatalf("stacked boxes: %d points, want 2", m.PointCount)
	}

	var wm WorldManifold
	wm.Initialize(&m, MakeTransform(Vec2{}, 0.0), box.radius, MakeTransform(MakeVec2(0.5, 1.99), 0.0), box.radius)
	if math.Abs(wm.Normal.Y-1.0) > 1e-9 {
		t.Fatalf("normal = %v, want up", wm.Normal)
	}

	// Separated by more than the skin.
	m = Manifold{}
	CollidePolygons(pool, &m, box, MakeTransform(Vec2{}, 0.0), box, MakeTransform(MakeVec2(0.0, 2.5), 0.0))
	if m.PointCount != 0 {
		t.Fatalf("separated boxes: %d points", m.PointCount)
	}
}

func TestManifoldDropsInvalidPoints(t *testing.T) {
	var m Manifold
	m.PointCount = 2
	m.LocalNormal = MakeVec2(0, 1)
	m.Points[0].LocalPoint = MakeVec2(math.NaN(), 0)
	m.Points[1].LocalPoint = MakeVec2(1, 0)
	m.Points[1].ID.IndexA = 1

	if dropped := m.dropInvalidPoints(); dropped != 1 {
		t.Fatalf("dropped %d points, want 1", dropped)
	}
	if m.PointCount != 1 || m.Points[0].ID.IndexA != 1 {
		t.Fatalf("remaining manifold %+v", m)
	}

	m.LocalNormal = MakeVec2(math.Inf(1), 0)
	m.dropInvalidPoints()
	if m.PointCount != 0 {
		t.Fatalf("broken normal kept %d points", m.PointCount)
	}
}

func TestDistanceAndTimeOfImpact(t *testing.T) {
	pool := NewWorldPool(DefaultPoolCapacity, nil)
	box := newPolygonShape()
	box.SetAsBox(0.5, 0.5)
	circle := &CircleShape{radius: 0.5}

	var input DistanceInput
	input.ProxyA.Set(box, 0)
	input.ProxyB.Set(circle, 0)
	input.TransformA = MakeTransform(Vec2{}, 0.0)
	input.TransformB = MakeTransform(MakeVec2(3.0, 0.0), 0.0)
	input.UseRadii = true

	var cache SimplexCache
	var output DistanceOutput
	Distance(pool, &output, &cache, &input)

	want := 3.0 - 0.5 - 0.5 - PolygonRadius
	if math.Abs(output.Distance-want) > 1e-9 {
		t.Fatalf("distance = %v, want %v", output.Distance, want)
	}

	// Overlapping shapes report zero, never negative.
	input.TransformB = MakeTransform(MakeVec2(0.2, 0.0), 0.0)
	cache = SimplexCache{}
	Distance(pool, &output, &cache, &input)
	if output.Distance != 0.0 {
		t.Fatalf("overlap distance = %v", output.Distance)
	}

	// A circle sweeping across the box hits it part way.
	var toi TOIInput
	toi.ProxyA.Set(box, 0)
	toi.ProxyB.Set(circle, 0)
	toi.SweepA = Sweep{C0: Vec2{}, C: Vec2{}}
	toi.SweepB = Sweep{C0: MakeVec2(-10.0, 0.0), C: MakeVec2(10.0, 0.0)}
	toi.TMax = 1.0

	var out TOIOutput
	TimeOfImpact(pool, &out, &toi)
	if out.State != TOITouching {
		t.Fatalf("toi state = %v", out.State)
	}
	if out.T <= 0.4 || out.T >= 0.5 {
		t.Fatalf("toi t = %v, want just before contact at 0.45", out.T)
	}

	// Moving away never touches.
	toi.SweepB = Sweep{C0: MakeVec2(3.0, 0.0), C: MakeVec2(6.0, 0.0)}
	TimeOfImpact(pool, &out, &toi)
	if out.State != TOISeparated {
		t.Fatalf("receding toi state = %v", out.State)
	}

	if d := pool.Depth(); d != 0 {
		t.Fatalf("pool depth %d after distance queries", d)
	}
}
