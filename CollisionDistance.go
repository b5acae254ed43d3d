package kbox2d

/// A distance proxy is used by the GJK algorithm.
/// It encapsulates any shape as a point cloud plus a skin radius.
type DistanceProxy struct {
	Vertices [MaxPolygonVertices]Vec2
	Count    int
	Radius   float64
}

/// Set initializes the proxy using the given shape. The shape
/// must remain in scope while the proxy is in use.
func (proxy *DistanceProxy) Set(shape Shape, index int) {
	switch shape.Kind() {
	case CircleShapeKind:
		circle := shape.(*CircleShape)
		proxy.Vertices[0] = circle.P
		proxy.Count = 1
		proxy.Radius = circle.radius

	case PolygonShapeKind:
		polygon := shape.(*PolygonShape)
		proxy.Vertices = polygon.Vertices
		proxy.Count = polygon.Count
		proxy.Radius = polygon.radius

	case ChainShapeKind:
		chain := shape.(*ChainShape)
		assert(0 <= index && index < len(chain.Vertices)-1, "chain child index out of range")

		proxy.Vertices[0] = chain.Vertices[index]
		proxy.Vertices[1] = chain.Vertices[index+1]
		proxy.Count = 2
		proxy.Radius = chain.radius

	case EdgeShapeKind:
		edge := shape.(*EdgeShape)
		proxy.Vertices[0] = edge.Vertex1
		proxy.Vertices[1] = edge.Vertex2
		proxy.Count = 2
		proxy.Radius = edge.radius

	default:
		assert(false, "unknown shape kind")
	}
}

/// Support returns the index of the supporting vertex in the given direction.
func (proxy *DistanceProxy) Support(d Vec2) int {
	bestIndex := 0
	bestValue := proxy.Vertices[0].Dot(d)
	for i := 1; i < proxy.Count; i++ {
		value := proxy.Vertices[i].Dot(d)
		if value > bestValue {
			bestIndex = i
			bestValue = value
		}
	}

	return bestIndex
}

/// SupportVertex returns the supporting vertex in the given direction.
func (proxy *DistanceProxy) SupportVertex(d Vec2) Vec2 {
	return proxy.Vertices[proxy.Support(d)]
}

func (proxy *DistanceProxy) Vertex(index int) Vec2 {
	assert(0 <= index && index < proxy.Count, "proxy vertex index out of range")
	return proxy.Vertices[index]
}

/// Used to warm start Distance.
/// Set count to zero on first call.
type SimplexCache struct {
	Metric float64 ///< length or area
	Count  int
	IndexA [3]int ///< vertices on shape A
	IndexB [3]int ///< vertices on shape B
}

/// Input for Distance. With UseRadii the proxies' skin radii are applied
/// to the result.
type DistanceInput struct {
	ProxyA     DistanceProxy
	ProxyB     DistanceProxy
	TransformA Transform
	TransformB Transform
	UseRadii   bool
}

/// Output for Distance.
type DistanceOutput struct {
	PointA     Vec2 ///< closest point on shapeA
	PointB     Vec2 ///< closest point on shapeB
	Distance   float64
	Iterations int ///< number of GJK iterations used
}

///////////////////////////////////////////////////////////////////////////////
// Simplex
///////////////////////////////////////////////////////////////////////////////

type simplexVertex struct {
	wA     Vec2    // support point in proxyA
	wB     Vec2    // support point in proxyB
	w      Vec2    // wB - wA
	a      float64 // barycentric coordinate for closest point
	indexA int     // wA index
	indexB int     // wB index
}

type simplex struct {
	vs    [3]simplexVertex
	count int
}

func (s *simplex) readCache(cache *SimplexCache, proxyA *DistanceProxy, transformA Transform, proxyB *DistanceProxy, transformB Transform) {
	assert(cache.Count <= 3, "simplex cache holds at most 3 vertices")

	// Copy data from cache.
	s.count = cache.Count
	for i := 0; i < s.count; i++ {
		v := &s.vs[i]
		v.indexA = cache.IndexA[i]
		v.indexB = cache.IndexB[i]
		v.wA = TransformMulVec(transformA, proxyA.Vertex(v.indexA))
		v.wB = TransformMulVec(transformB, proxyB.Vertex(v.indexB))
		v.w = v.wB.Sub(v.wA)
		v.a = 0.0
	}

	// Compute the new simplex metric, if it is substantially different than
	// old metric then flush the simplex.
	if s.count > 1 {
		metric1 := cache.Metric
		metric2 := s.metric()
		if metric2 < 0.5*metric1 || 2.0*metric1 < metric2 || metric2 < Epsilon {
			// Reset the simplex.
			s.count = 0
		}
	}

	// If the cache is empty or invalid ...
	if s.count == 0 {
		v := &s.vs[0]
		v.indexA = 0
		v.indexB = 0
		v.wA = TransformMulVec(transformA, proxyA.Vertex(0))
		v.wB = TransformMulVec(transformB, proxyB.Vertex(0))
		v.w = v.wB.Sub(v.wA)
		v.a = 1.0
		s.count = 1
	}
}

func (s *simplex) writeCache(cache *SimplexCache) {
	cache.Metric = s.metric()
	cache.Count = s.count
	for i := 0; i < s.count; i++ {
		cache.IndexA[i] = s.vs[i].indexA
		cache.IndexB[i] = s.vs[i].indexB
	}
}

func (s *simplex) searchDirection() Vec2 {
	switch s.count {
	case 1:
		return s.vs[0].w.Neg()

	case 2:
		e12 := s.vs[1].w.Sub(s.vs[0].w)
		sgn := e12.Cross(s.vs[0].w.Neg())
		if sgn > 0.0 {
			// Origin is left of e12.
			return CrossSV(1.0, e12)
		}
		// Origin is right of e12.
		return CrossVS(e12, 1.0)
	}

	assert(false, "bad simplex count")
	return Vec2{}
}

func (s *simplex) witnessPoints() (pA, pB Vec2) {
	switch s.count {
	case 1:
		return s.vs[0].wA, s.vs[0].wB

	case 2:
		pA = s.vs[0].wA.Mul(s.vs[0].a).Add(s.vs[1].wA.Mul(s.vs[1].a))
		pB = s.vs[0].wB.Mul(s.vs[0].a).Add(s.vs[1].wB.Mul(s.vs[1].a))
		return pA, pB

	case 3:
		pA = s.vs[0].wA.Mul(s.vs[0].a).
			Add(s.vs[1].wA.Mul(s.vs[1].a)).
			Add(s.vs[2].wA.Mul(s.vs[2].a))
		return pA, pA
	}

	assert(false, "bad simplex count")
	return Vec2{}, Vec2{}
}

func (s *simplex) metric() float64 {
	switch s.count {
	case 1:
		return 0.0
	case 2:
		return Vec2Distance(s.vs[0].w, s.vs[1].w)
	case 3:
		return s.vs[1].w.Sub(s.vs[0].w).Cross(s.vs[2].w.Sub(s.vs[0].w))
	}

	assert(false, "bad simplex count")
	return 0.0
}

// Solve a line segment using barycentric coordinates.
//
// p = a1 * w1 + a2 * w2
// a1 + a2 = 1
//
// The vector from the origin to the closest point on the line is
// perpendicular to the line.
// e12 = w2 - w1
// dot(p, e) = 0
// a1 * dot(w1, e) + a2 * dot(w2, e) = 0
//
// 2-by-2 linear system
// [1      1     ][a1] = [1]
// [w1.e12 w2.e12][a2] = [0]
//
// Define
// d12_1 =  dot(w2, e12)
// d12_2 = -dot(w1, e12)
// d12 = d12_1 + d12_2
//
// Solution
// a1 = d12_1 / d12
// a2 = d12_2 / d12
func (s *simplex) solve2() {
	w1 := s.vs[0].w
	w2 := s.vs[1].w
	e12 := w2.Sub(w1)

	// w1 region
	d12_2 := -w1.Dot(e12)
	if d12_2 <= 0.0 {
		// a2 <= 0, so we clamp it to 0
		s.vs[0].a = 1.0
		s.count = 1
		return
	}

	// w2 region
	d12_1 := w2.Dot(e12)
	if d12_1 <= 0.0 {
		// a1 <= 0, so we clamp it to 0
		s.vs[1].a = 1.0
		s.count = 1
		s.vs[0] = s.vs[1]
		return
	}

	// Must be in e12 region.
	invD12 := 1.0 / (d12_1 + d12_2)
	s.vs[0].a = d12_1 * invD12
	s.vs[1].a = d12_2 * invD12
	s.count = 2
}

// Possible regions:
// - points[2]
// - edge points[0]-points[2]
// - edge points[1]-points[2]
// - inside the triangle
func (s *simplex) solve3() {
	w1 := s.vs[0].w
	w2 := s.vs[1].w
	w3 := s.vs[2].w

	// Edge12
	e12 := w2.Sub(w1)
	d12_1 := w2.Dot(e12)
	d12_2 := -w1.Dot(e12)

	// Edge13
	e13 := w3.Sub(w1)
	d13_1 := w3.Dot(e13)
	d13_2 := -w1.Dot(e13)

	// Edge23
	e23 := w3.Sub(w2)
	d23_1 := w3.Dot(e23)
	d23_2 := -w2.Dot(e23)

	// Triangle123
	n123 := e12.Cross(e13)

	d123_1 := n123 * w2.Cross(w3)
	d123_2 := n123 * w3.Cross(w1)
	d123_3 := n123 * w1.Cross(w2)

	switch {
	case d12_2 <= 0.0 && d13_2 <= 0.0:
		// w1 region
		s.vs[0].a = 1.0
		s.count = 1

	case d12_1 > 0.0 && d12_2 > 0.0 && d123_3 <= 0.0:
		// e12
		invD12 := 1.0 / (d12_1 + d12_2)
		s.vs[0].a = d12_1 * invD12
		s.vs[1].a = d12_2 * invD12
		s.count = 2

	case d13_1 > 0.0 && d13_2 > 0.0 && d123_2 <= 0.0:
		// e13
		invD13 := 1.0 / (d13_1 + d13_2)
		s.vs[0].a = d13_1 * invD13
		s.vs[2].a = d13_2 * invD13
		s.count = 2
		s.vs[1] = s.vs[2]

	case d12_1 <= 0.0 && d23_2 <= 0.0:
		// w2 region
		s.vs[1].a = 1.0
		s.count = 1
		s.vs[0] = s.vs[1]

	case d13_1 <= 0.0 && d23_1 <= 0.0:
		// w3 region
		s.vs[2].a = 1.0
		s.count = 1
		s.vs[0] = s.vs[2]

	case d23_1 > 0.0 && d23_2 > 0.0 && d123_1 <= 0.0:
		// e23
		invD23 := 1.0 / (d23_1 + d23_2)
		s.vs[1].a = d23_1 * invD23
		s.vs[2].a = d23_2 * invD23
		s.count = 2
		s.vs[0] = s.vs[2]

	default:
		// Must be in triangle123
		invD123 := 1.0 / (d123_1 + d123_2 + d123_3)
		s.vs[0].a = d123_1 * invD123
		s.vs[1].a = d123_2 * invD123
		s.vs[2].a = d123_3 * invD123
		s.count = 3
	}
}

///////////////////////////////////////////////////////////////////////////////
// GJK
///////////////////////////////////////////////////////////////////////////////

const gjkMaxIterations = 20

/// Distance computes the closest points between two shapes represented as
/// convex point clouds. On the first call set SimplexCache.Count to zero.
/// The simplex is taken from the world pool and returned before exit.
func Distance(pool *WorldPool, output *DistanceOutput, cache *SimplexCache, input *DistanceInput) {
	proxyA := &input.ProxyA
	proxyB := &input.ProxyB

	transformA := input.TransformA
	transformB := input.TransformB

	// Initialize the simplex.
	s := pool.popSimplex()
	defer pool.pushSimplex(1)

	s.readCache(cache, proxyA, transformA, proxyB, transformB)

	// These store the vertices of the last simplex so that we
	// can check for duplicates and prevent cycling.
	var saveA, saveB [3]int

	// Main iteration loop.
	iter := 0
	for iter < gjkMaxIterations {
		// Copy simplex so we can identify duplicates.
		saveCount := s.count
		for i := 0; i < saveCount; i++ {
			saveA[i] = s.vs[i].indexA
			saveB[i] = s.vs[i].indexB
		}

		switch s.count {
		case 1:
		case 2:
			s.solve2()
		case 3:
			s.solve3()
		default:
			assert(false, "bad simplex count")
		}

		// If we have 3 points, then the origin is in the corresponding triangle.
		if s.count == 3 {
			break
		}

		d := s.searchDirection()

		// Ensure the search direction is numerically fit.
		if d.LengthSquared() < Epsilon*Epsilon {
			// The origin is probably contained by a line segment
			// or triangle. Thus the shapes are overlapped.

			// We can't return zero here even though there may be overlap.
			// In case the simplex is a point, segment, or triangle it is difficult
			// to determine if the origin is contained in the CSO or very close to it.
			break
		}

		// Compute a tentative new simplex vertex using support points.
		vertex := &s.vs[s.count]
		vertex.indexA = proxyA.Support(RotMulTVec(transformA.Q, d.Neg()))
		vertex.wA = TransformMulVec(transformA, proxyA.Vertex(vertex.indexA))
		vertex.indexB = proxyB.Support(RotMulTVec(transformB.Q, d))
		vertex.wB = TransformMulVec(transformB, proxyB.Vertex(vertex.indexB))
		vertex.w = vertex.wB.Sub(vertex.wA)

		// Iteration count is equated to the number of support point calls.
		iter++

		// Check for duplicate support points. This is the main termination criteria.
		duplicate := false
		for i := 0; i < saveCount; i++ {
			if vertex.indexA == saveA[i] && vertex.indexB == saveB[i] {
				duplicate = true
				break
			}
		}

		// If we found a duplicate support point we must exit to avoid cycling.
		if duplicate {
			break
		}

		// New vertex is ok and needed.
		s.count++
	}

	// Prepare output.
	output.PointA, output.PointB = s.witnessPoints()
	output.Distance = Vec2Distance(output.PointA, output.PointB)
	output.Iterations = iter

	// Cache the simplex.
	s.writeCache(cache)

	// Apply radii if requested.
	if input.UseRadii {
		rA := proxyA.Radius
		rB := proxyB.Radius

		if output.Distance > rA+rB && output.Distance > Epsilon {
			// Shapes are still no overlapped.
			// Move the witness points to the outer surface.
			output.Distance -= rA + rB
			normal := output.PointB.Sub(output.PointA).Normalized()
			output.PointA = output.PointA.Add(normal.Mul(rA))
			output.PointB = output.PointB.Sub(normal.Mul(rB))
		} else {
			// Shapes are overlapped when radii are considered.
			// Move the witness points to the middle.
			p := output.PointA.Add(output.PointB).Mul(0.5)
			output.PointA = p
			output.PointB = p
			output.Distance = 0.0
		}
	}
}

/// TestOverlap reports whether two shape children overlap, radii included.
func TestOverlap(pool *WorldPool, shapeA Shape, indexA int, shapeB Shape, indexB int, xfA, xfB Transform) bool {
	var input DistanceInput
	input.ProxyA.Set(shapeA, indexA)
	input.ProxyB.Set(shapeB, indexB)
	input.TransformA = xfA
	input.TransformB = xfB
	input.UseRadii = true

	var cache SimplexCache
	var output DistanceOutput
	Distance(pool, &output, &cache, &input)

	return output.Distance < 10.0*Epsilon
}
