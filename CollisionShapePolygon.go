package kbox2d

/// A solid convex polygon. The interior is to the left of each edge
/// (counter-clockwise winding). At most MaxPolygonVertices vertices.
type PolygonShape struct {
	Centroid Vec2
	Vertices [MaxPolygonVertices]Vec2
	Normals  [MaxPolygonVertices]Vec2
	Count    int

	radius float64
}

func newPolygonShape() *PolygonShape {
	return &PolygonShape{radius: PolygonRadius}
}

/// NewBoxShape builds an axis aligned box centered on the body origin.
func NewBoxShape(hx, hy float64) (*PolygonShape, error) {
	poly := newPolygonShape()
	poly.SetAsBox(hx, hy)
	if err := poly.Validate(); err != nil {
		return nil, err
	}
	return poly, nil
}

/// NewPolygonShape builds a polygon from convex, counter-clockwise vertices.
func NewPolygonShape(vertices []Vec2) (*PolygonShape, error) {
	poly := newPolygonShape()
	if err := poly.Set(vertices); err != nil {
		return nil, err
	}
	return poly, nil
}

func (poly *PolygonShape) Kind() ShapeKind { return PolygonShapeKind }
func (poly *PolygonShape) Radius() float64 { return poly.radius }
func (poly *PolygonShape) ChildCount() int { return 1 }

func (poly *PolygonShape) Clone() Shape {
	clone := *poly
	return &clone
}

/// SetAsBox makes the polygon a box with half-widths hx and hy.
func (poly *PolygonShape) SetAsBox(hx, hy float64) {
	poly.radius = PolygonRadius
	poly.Count = 4
	poly.Vertices[0] = Vec2{-hx, -hy}
	poly.Vertices[1] = Vec2{hx, -hy}
	poly.Vertices[2] = Vec2{hx, hy}
	poly.Vertices[3] = Vec2{-hx, hy}
	poly.Normals[0] = Vec2{0.0, -1.0}
	poly.Normals[1] = Vec2{1.0, 0.0}
	poly.Normals[2] = Vec2{0.0, 1.0}
	poly.Normals[3] = Vec2{-1.0, 0.0}
	poly.Centroid.SetZero()
}

/// SetAsOrientedBox is SetAsBox placed at center (body frame) and rotated by angle.
func (poly *PolygonShape) SetAsOrientedBox(hx, hy float64, center Vec2, angle float64) {
	poly.SetAsBox(hx, hy)
	poly.Centroid = center

	xf := MakeTransform(center, angle)

	// Transform vertices and normals.
	for i := 0; i < poly.Count; i++ {
		poly.Vertices[i] = TransformMulVec(xf, poly.Vertices[i])
		poly.Normals[i] = RotMulVec(xf.Q, poly.Normals[i])
	}
}

func computeCentroid(vs []Vec2) (Vec2, float64) {
	c := Vec2{}
	area := 0.0

	// pRef is the reference point for forming triangles. It is placed inside
	// the polygon to reduce rounding error.
	pRef := Vec2{}
	for _, v := range vs {
		pRef = pRef.Add(v)
	}
	pRef = pRef.Mul(1.0 / float64(len(vs)))

	const inv3 = 1.0 / 3.0

	for i := range vs {
		p1 := pRef
		p2 := vs[i]
		p3 := vs[0]
		if i+1 < len(vs) {
			p3 = vs[i+1]
		}

		e1 := p2.Sub(p1)
		e2 := p3.Sub(p1)
		triangleArea := 0.5 * e1.Cross(e2)
		area += triangleArea

		// Area weighted centroid
		c = c.Add(p1.Add(p2).Add(p3).Mul(triangleArea * inv3))
	}

	if area <= Epsilon {
		return Vec2{}, area
	}
	return c.Mul(1.0 / area), area
}

/// Set makes the polygon from vertices given in counter-clockwise order.
/// Points closer than half the linear slop are welded. Fails with an
/// *InvalidShapeError when fewer than 3 distinct points remain, when the
/// outline is not convex or not counter-clockwise, or when a vertex is not a
/// corner of the convex hull. The input is never reordered.
func (poly *PolygonShape) Set(vertices []Vec2) error {
	if len(vertices) < 3 || len(vertices) > MaxPolygonVertices {
		return invalidShape(PolygonShapeKind, "%d vertices, want 3 to %d", len(vertices), MaxPolygonVertices)
	}

	// Perform welding and copy vertices into local buffer.
	var ps [MaxPolygonVertices]Vec2
	n := 0
	const weldTolerance = (0.5 * LinearSlop) * (0.5 * LinearSlop)
	for _, v := range vertices {
		if !v.IsValid() {
			return invalidShape(PolygonShapeKind, "vertex %v is not finite", v)
		}

		unique := true
		for j := 0; j < n; j++ {
			if Vec2DistanceSquared(v, ps[j]) < weldTolerance {
				unique = false
				break
			}
		}

		if unique {
			ps[n] = v
			n++
		}
	}

	if n < 3 {
		return invalidShape(PolygonShapeKind, "only %d distinct vertices after welding", n)
	}

	// Find the right most point on the hull
	i0 := 0
	x0 := ps[0].X
	for i := 1; i < n; i++ {
		x := ps[i].X
		if x > x0 || (x == x0 && ps[i].Y < ps[i0].Y) {
			i0 = i
			x0 = x
		}
	}

	var hull [MaxPolygonVertices]int
	m := 0
	ih := i0

	for {
		if m >= MaxPolygonVertices {
			return invalidShape(PolygonShapeKind, "hull does not close")
		}
		hull[m] = ih

		ie := 0
		for j := 1; j < n; j++ {
			if ie == ih {
				ie = j
				continue
			}

			r := ps[ie].Sub(ps[hull[m]])
			v := ps[j].Sub(ps[hull[m]])
			c := r.Cross(v)
			if c < 0.0 {
				ie = j
			}

			// Collinearity check
			if c == 0.0 && v.LengthSquared() > r.LengthSquared() {
				ie = j
			}
		}

		m++
		ih = ie

		if ie == i0 {
			break
		}
	}

	if m < 3 {
		return invalidShape(PolygonShapeKind, "vertices are collinear")
	}
	if m != n {
		return invalidShape(PolygonShapeKind, "%d of %d vertices are not hull corners", n-m, n)
	}

	var next PolygonShape
	next.radius = PolygonRadius
	next.Count = n
	copy(next.Vertices[:], ps[:n])

	// Compute normals. Ensure the edges have non-zero length.
	for i := 0; i < m; i++ {
		i2 := 0
		if i+1 < m {
			i2 = i + 1
		}
		edge := next.Vertices[i2].Sub(next.Vertices[i])
		if edge.LengthSquared() <= Epsilon*Epsilon {
			return invalidShape(PolygonShapeKind, "edge %d has zero length", i)
		}
		next.Normals[i] = CrossVS(edge, 1.0).Normalized()
	}

	if err := next.Validate(); err != nil {
		return err
	}
	next.Centroid, _ = computeCentroid(next.Vertices[:n])

	*poly = next
	return nil
}

/// Validate checks vertex count, counter-clockwise winding and convexity.
func (poly *PolygonShape) Validate() error {
	if poly.Count < 3 || poly.Count > MaxPolygonVertices {
		return invalidShape(PolygonShapeKind, "%d vertices, want 3 to %d", poly.Count, MaxPolygonVertices)
	}

	for i := 0; i < poly.Count; i++ {
		i1 := i
		i2 := 0
		if i < poly.Count-1 {
			i2 = i1 + 1
		}

		p := poly.Vertices[i1]
		if !p.IsValid() || !poly.Normals[i1].IsValid() {
			return invalidShape(PolygonShapeKind, "vertex %d is not finite", i1)
		}

		e := poly.Vertices[i2].Sub(p)
		if e.LengthSquared() <= Epsilon*Epsilon {
			return invalidShape(PolygonShapeKind, "edge %d has zero length", i1)
		}

		for j := 0; j < poly.Count; j++ {
			if j == i1 || j == i2 {
				continue
			}

			v := poly.Vertices[j].Sub(p)
			if e.Cross(v) < 0.0 {
				return invalidShape(PolygonShapeKind, "not convex or not counter-clockwise at vertex %d", i1)
			}
		}
	}

	if _, area := computeCentroid(poly.Vertices[:poly.Count]); area <= Epsilon {
		return invalidShape(PolygonShapeKind, "area %v is too small", area)
	}

	return nil
}

func (poly *PolygonShape) TestPoint(xf Transform, p Vec2) bool {
	pLocal := RotMulTVec(xf.Q, p.Sub(xf.P))

	for i := 0; i < poly.Count; i++ {
		if poly.Normals[i].Dot(pLocal.Sub(poly.Vertices[i])) > 0.0 {
			return false
		}
	}

	return true
}

func (poly *PolygonShape) RayCast(output *RayCastOutput, input RayCastInput, xf Transform, childIndex int) bool {
	// Put the ray into the polygon's frame of reference.
	p1 := RotMulTVec(xf.Q, input.P1.Sub(xf.P))
	p2 := RotMulTVec(xf.Q, input.P2.Sub(xf.P))
	d := p2.Sub(p1)

	lower := 0.0
	upper := input.MaxFraction

	index := -1

	for i := 0; i < poly.Count; i++ {
		// p = p1 + a * d
		// dot(normal, p - v) = 0
		// dot(normal, p1 - v) + a * dot(normal, d) = 0
		numerator := poly.Normals[i].Dot(poly.Vertices[i].Sub(p1))
		denominator := poly.Normals[i].Dot(d)

		if denominator == 0.0 {
			if numerator < 0.0 {
				return false
			}
		} else {
			// lower < numerator / denominator with denominator < 0 flips to
			// denominator * lower > numerator.
			if denominator < 0.0 && numerator < lower*denominator {
				// The segment enters this half-space.
				lower = numerator / denominator
				index = i
			} else if denominator > 0.0 && numerator < upper*denominator {
				// The segment exits this half-space.
				upper = numerator / denominator
			}
		}

		if upper < lower {
			return false
		}
	}

	if index >= 0 {
		output.Fraction = lower
		output.Normal = RotMulVec(xf.Q, poly.Normals[index])
		return true
	}

	return false
}

func (poly *PolygonShape) ComputeAABB(xf Transform, childIndex int) AABB {
	lower := TransformMulVec(xf, poly.Vertices[0])
	upper := lower

	for i := 1; i < poly.Count; i++ {
		v := TransformMulVec(xf, poly.Vertices[i])
		lower = Vec2Min(lower, v)
		upper = Vec2Max(upper, v)
	}

	r := Vec2{poly.radius, poly.radius}
	return AABB{LowerBound: lower.Sub(r), UpperBound: upper.Add(r)}
}

/// ComputeMass integrates over the triangle fan around a reference point s
/// inside the polygon:
///   mass = rho * int(dA)
///   centroid = (1/mass) * rho * int(p * dA)
///   I = rho * int((x*x + y*y) * dA)
/// Each triangle is integrated in (u,v) coordinates with Jacobian
/// D = cross(e1, e2).
func (poly *PolygonShape) ComputeMass(density float64) MassData {
	center := Vec2{}
	area := 0.0
	I := 0.0

	s := Vec2{}
	for i := 0; i < poly.Count; i++ {
		s = s.Add(poly.Vertices[i])
	}
	s = s.Mul(1.0 / float64(poly.Count))

	const inv3 = 1.0 / 3.0

	for i := 0; i < poly.Count; i++ {
		// Triangle vertices.
		e1 := poly.Vertices[i].Sub(s)
		e2 := poly.Vertices[0].Sub(s)
		if i+1 < poly.Count {
			e2 = poly.Vertices[i+1].Sub(s)
		}

		D := e1.Cross(e2)

		triangleArea := 0.5 * D
		area += triangleArea

		// Area weighted centroid
		center = center.Add(e1.Add(e2).Mul(triangleArea * inv3))

		intx2 := e1.X*e1.X + e2.X*e1.X + e2.X*e2.X
		inty2 := e1.Y*e1.Y + e2.Y*e1.Y + e2.Y*e2.Y

		I += (0.25 * inv3 * D) * (intx2 + inty2)
	}

	var massData MassData

	// Total mass
	massData.Mass = density * area

	// Center of mass
	center = center.Mul(1.0 / area)
	massData.Center = center.Add(s)

	// Inertia tensor relative to the local origin (point s), shifted to the
	// center of mass and then to the body origin.
	massData.I = density*I + massData.Mass*(massData.Center.Dot(massData.Center)-center.Dot(center))

	return massData
}
