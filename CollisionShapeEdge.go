package kbox2d

/// A line segment. Edges are two-sided unless built with SetOneSided, in
/// which case they only collide on the right side looking from Vertex1 to
/// Vertex2, and the ghost vertices Vertex0 and Vertex3 smooth the transition
/// to neighbouring edges. Chain children are one-sided edges.
type EdgeShape struct {
	Vertex1, Vertex2 Vec2

	// Ghost vertices, used by one-sided edges.
	Vertex0, Vertex3 Vec2

	OneSided bool

	radius float64
}

/// NewEdgeShape builds a two-sided segment.
func NewEdgeShape(v1, v2 Vec2) (*EdgeShape, error) {
	edge := &EdgeShape{}
	edge.SetTwoSided(v1, v2)
	if err := edge.Validate(); err != nil {
		return nil, err
	}
	return edge, nil
}

/// SetOneSided sets the segment v1-v2 with ghost neighbours v0 and v3.
func (edge *EdgeShape) SetOneSided(v0, v1, v2, v3 Vec2) {
	edge.Vertex0 = v0
	edge.Vertex1 = v1
	edge.Vertex2 = v2
	edge.Vertex3 = v3
	edge.OneSided = true
	edge.radius = PolygonRadius
}

/// SetTwoSided sets an isolated segment that collides on both sides.
func (edge *EdgeShape) SetTwoSided(v1, v2 Vec2) {
	edge.Vertex1 = v1
	edge.Vertex2 = v2
	edge.OneSided = false
	edge.radius = PolygonRadius
}

func (edge *EdgeShape) Kind() ShapeKind { return EdgeShapeKind }
func (edge *EdgeShape) Radius() float64 { return edge.radius }
func (edge *EdgeShape) ChildCount() int { return 1 }

func (edge *EdgeShape) Clone() Shape {
	clone := *edge
	return &clone
}

func (edge *EdgeShape) Validate() error {
	if !edge.Vertex1.IsValid() || !edge.Vertex2.IsValid() {
		return invalidShape(EdgeShapeKind, "vertex is not finite")
	}
	if edge.OneSided && (!edge.Vertex0.IsValid() || !edge.Vertex3.IsValid()) {
		return invalidShape(EdgeShapeKind, "ghost vertex is not finite")
	}
	if Vec2DistanceSquared(edge.Vertex1, edge.Vertex2) <= LinearSlop*LinearSlop {
		return invalidShape(EdgeShapeKind, "endpoints %v and %v are degenerate", edge.Vertex1, edge.Vertex2)
	}
	return nil
}

func (edge *EdgeShape) TestPoint(xf Transform, p Vec2) bool {
	return false
}

/// RayCast intersects the ray p1 + t * d with the segment v1 + s * e.
/// One-sided edges ignore rays that start behind them.
func (edge *EdgeShape) RayCast(output *RayCastOutput, input RayCastInput, xf Transform, childIndex int) bool {
	// Put the ray into the edge's frame of reference.
	p1 := RotMulTVec(xf.Q, input.P1.Sub(xf.P))
	p2 := RotMulTVec(xf.Q, input.P2.Sub(xf.P))
	d := p2.Sub(p1)

	v1 := edge.Vertex1
	v2 := edge.Vertex2
	e := v2.Sub(v1)

	// Normal points to the right, looking from v1 at v2
	normal := Vec2{e.Y, -e.X}.Normalized()

	// q = p1 + t * d
	// dot(normal, q - v1) = 0
	// dot(normal, p1 - v1) + t * dot(normal, d) = 0
	numerator := normal.Dot(v1.Sub(p1))
	if edge.OneSided && numerator > 0.0 {
		return false
	}

	denominator := normal.Dot(d)
	if denominator == 0.0 {
		return false
	}

	t := numerator / denominator
	if t < 0.0 || input.MaxFraction < t {
		return false
	}

	q := p1.Add(d.Mul(t))

	// q = v1 + s * r
	// s = dot(q - v1, r) / dot(r, r)
	rr := e.Dot(e)
	if rr == 0.0 {
		return false
	}

	s := q.Sub(v1).Dot(e) / rr
	if s < 0.0 || 1.0 < s {
		return false
	}

	output.Fraction = t
	if numerator > 0.0 {
		output.Normal = RotMulVec(xf.Q, normal).Neg()
	} else {
		output.Normal = RotMulVec(xf.Q, normal)
	}
	return true
}

func (edge *EdgeShape) ComputeAABB(xf Transform, childIndex int) AABB {
	v1 := TransformMulVec(xf, edge.Vertex1)
	v2 := TransformMulVec(xf, edge.Vertex2)

	r := Vec2{edge.radius, edge.radius}
	return AABB{
		LowerBound: Vec2Min(v1, v2).Sub(r),
		UpperBound: Vec2Max(v1, v2).Add(r),
	}
}

func (edge *EdgeShape) ComputeMass(density float64) MassData {
	return MassData{
		Mass:   0.0,
		Center: edge.Vertex1.Add(edge.Vertex2).Mul(0.5),
		I:      0.0,
	}
}
