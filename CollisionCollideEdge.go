package kbox2d

/// CollideEdgeAndCircle computes the manifold between an edge and a circle.
/// One-sided edges ignore circles behind them and use their ghost vertices to
/// hand vertex contacts over to the neighbouring edge.
func CollideEdgeAndCircle(manifold *Manifold, edgeA *EdgeShape, xfA Transform, circleB *CircleShape, xfB Transform) {
	manifold.PointCount = 0

	// Compute circle in frame of edge
	Q := TransformMulTVec(xfA, TransformMulVec(xfB, circleB.P))

	A := edgeA.Vertex1
	B := edgeA.Vertex2
	e := B.Sub(A)

	// Normal points to the right for a CCW winding
	n := Vec2{e.Y, -e.X}
	offset := n.Dot(Q.Sub(A))

	if edgeA.OneSided && offset < 0.0 {
		return
	}

	// Barycentric coordinates
	u := e.Dot(B.Sub(Q))
	v := e.Dot(Q.Sub(A))

	radius := edgeA.radius + circleB.radius

	id := ContactID{IndexB: 0, TypeB: FeatureVertex}

	// Region A
	if v <= 0.0 {
		P := A
		d := Q.Sub(P)
		if d.Dot(d) > radius*radius {
			return
		}

		// Is there an edge connected to A?
		if edgeA.OneSided {
			A1 := edgeA.Vertex0
			B1 := A
			e1 := B1.Sub(A1)
			u1 := e1.Dot(B1.Sub(Q))

			// Is the circle in Region AB of the previous edge?
			if u1 > 0.0 {
				return
			}
		}

		id.IndexA = 0
		id.TypeA = FeatureVertex
		setCircleManifold(manifold, P, circleB.P, id)
		return
	}

	// Region B
	if u <= 0.0 {
		P := B
		d := Q.Sub(P)
		if d.Dot(d) > radius*radius {
			return
		}

		// Is there an edge connected to B?
		if edgeA.OneSided {
			B2 := edgeA.Vertex3
			A2 := B
			e2 := B2.Sub(A2)
			v2 := e2.Dot(Q.Sub(A2))

			// Is the circle in Region AB of the next edge?
			if v2 > 0.0 {
				return
			}
		}

		id.IndexA = 1
		id.TypeA = FeatureVertex
		setCircleManifold(manifold, P, circleB.P, id)
		return
	}

	// Region AB
	den := e.Dot(e)
	assert(den > 0.0, "degenerate edge")
	P := A.Mul(u).Add(B.Mul(v)).Mul(1.0 / den)
	d := Q.Sub(P)
	if d.Dot(d) > radius*radius {
		return
	}

	if offset < 0.0 {
		n = n.Neg()
	}
	n.Normalize()

	id.IndexA = 0
	id.TypeA = FeatureFace
	manifold.PointCount = 1
	manifold.Type = ManifoldFaceA
	manifold.LocalNormal = n
	manifold.LocalPoint = A
	manifold.Points[0].ID = id
	manifold.Points[0].LocalPoint = circleB.P
}

func setCircleManifold(manifold *Manifold, localPoint, circleCenter Vec2, id ContactID) {
	manifold.PointCount = 1
	manifold.Type = ManifoldCircles
	manifold.LocalNormal.SetZero()
	manifold.LocalPoint = localPoint
	manifold.Points[0].ID = id
	manifold.Points[0].LocalPoint = circleCenter
}

///////////////////////////////////////////////////////////////////////////////
// Edge and polygon
///////////////////////////////////////////////////////////////////////////////

type epAxisType uint8

const (
	epAxisUnknown epAxisType = iota
	epAxisEdgeA
	epAxisEdgeB
)

// This structure is used to keep track of the best separating axis.
type epAxis struct {
	normal     Vec2
	kind       epAxisType
	index      int
	separation float64
}

// polygonB expressed in the frame of the edge.
type tempPolygon struct {
	vertices [MaxPolygonVertices]Vec2
	normals  [MaxPolygonVertices]Vec2
	count    int
}

// Reference face used for clipping
type referenceFace struct {
	i1, i2 int
	v1, v2 Vec2
	normal Vec2

	sideNormal1 Vec2
	sideOffset1 float64

	sideNormal2 Vec2
	sideOffset2 float64
}

func computeEdgeSeparation(polygonB *tempPolygon, v1, normal1 Vec2) epAxis {
	axis := epAxis{kind: epAxisEdgeA, index: -1, separation: -MaxFloat}

	axes := [2]Vec2{normal1, normal1.Neg()}

	// Find axis with least overlap (min-max problem)
	for j := 0; j < 2; j++ {
		sj := MaxFloat

		// Find deepest polygon vertex along axis j
		for i := 0; i < polygonB.count; i++ {
			si := axes[j].Dot(polygonB.vertices[i].Sub(v1))
			if si < sj {
				sj = si
			}
		}

		if sj > axis.separation {
			axis.index = j
			axis.separation = sj
			axis.normal = axes[j]
		}
	}

	return axis
}

func computePolygonSeparation(polygonB *tempPolygon, v1, v2 Vec2) epAxis {
	axis := epAxis{kind: epAxisUnknown, index: -1, separation: -MaxFloat}

	for i := 0; i < polygonB.count; i++ {
		n := polygonB.normals[i].Neg()

		s1 := n.Dot(polygonB.vertices[i].Sub(v1))
		s2 := n.Dot(polygonB.vertices[i].Sub(v2))
		s := s1
		if s2 < s {
			s = s2
		}

		if s > axis.separation {
			axis.kind = epAxisEdgeB
			axis.index = i
			axis.separation = s
			axis.normal = n
		}
	}

	return axis
}

const (
	epRelativeTol = 0.98
	epAbsoluteTol = 0.001
	epSinTol      = 0.1
)

/// CollideEdgeAndPolygon computes the manifold between an edge and a polygon.
/// The edge is treated as a polygon with two vertices; one-sided edges
/// consult their ghost vertices so that polygons slide smoothly across chain
/// joints.
func CollideEdgeAndPolygon(pool *WorldPool, manifold *Manifold, edgeA *EdgeShape, xfA Transform, polygonB *PolygonShape, xfB Transform) {
	manifold.PointCount = 0

	xf := TransformMulT(xfA, xfB)

	centroidB := TransformMulVec(xf, polygonB.Centroid)

	v1 := edgeA.Vertex1
	v2 := edgeA.Vertex2

	edge1 := v2.Sub(v1).Normalized()

	// Normal points to the right for a CCW winding
	normal1 := Vec2{edge1.Y, -edge1.X}
	offset1 := normal1.Dot(centroidB.Sub(v1))

	if edgeA.OneSided && offset1 < 0.0 {
		return
	}

	// Get polygonB in frameA
	var tempPolygonB tempPolygon
	tempPolygonB.count = polygonB.Count
	for i := 0; i < polygonB.Count; i++ {
		tempPolygonB.vertices[i] = TransformMulVec(xf, polygonB.Vertices[i])
		tempPolygonB.normals[i] = RotMulVec(xf.Q, polygonB.Normals[i])
	}

	radius := polygonB.radius + edgeA.radius

	edgeAxis := computeEdgeSeparation(&tempPolygonB, v1, normal1)
	if edgeAxis.separation > radius {
		return
	}

	polygonAxis := computePolygonSeparation(&tempPolygonB, v1, v2)
	if polygonAxis.separation > radius {
		return
	}

	// Use hysteresis for jitter reduction.
	primaryAxis := edgeAxis
	if polygonAxis.separation-radius > epRelativeTol*(edgeAxis.separation-radius)+epAbsoluteTol {
		primaryAxis = polygonAxis
	}

	if edgeA.OneSided {
		// Smooth collision
		// See https://box2d.org/posts/2020/06/ghost-collisions/

		edge0 := v1.Sub(edgeA.Vertex0).Normalized()
		normal0 := Vec2{edge0.Y, -edge0.X}
		convex1 := edge0.Cross(edge1) >= 0.0

		edge2 := edgeA.Vertex3.Sub(v2).Normalized()
		normal2 := Vec2{edge2.Y, -edge2.X}
		convex2 := edge1.Cross(edge2) >= 0.0

		side1 := primaryAxis.normal.Dot(edge1) <= 0.0

		// Check Gauss Map
		if side1 {
			if convex1 {
				if primaryAxis.normal.Cross(normal0) > epSinTol {
					// Skip region
					return
				}

				// Admit region
			} else {
				// Snap region
				primaryAxis = edgeAxis
			}
		} else {
			if convex2 {
				if normal2.Cross(primaryAxis.normal) > epSinTol {
					// Skip region
					return
				}

				// Admit region
			} else {
				// Snap region
				primaryAxis = edgeAxis
			}
		}
	}

	clipPoints := pool.popClipPair()
	clipPoints1 := pool.popClipPair()
	clipPoints2 := pool.popClipPair()
	defer pool.pushClipPair(3)

	var ref referenceFace
	if primaryAxis.kind == epAxisEdgeA {
		manifold.Type = ManifoldFaceA

		// Search for the polygon normal that is most anti-parallel to the edge normal.
		bestIndex := 0
		bestValue := primaryAxis.normal.Dot(tempPolygonB.normals[0])
		for i := 1; i < tempPolygonB.count; i++ {
			value := primaryAxis.normal.Dot(tempPolygonB.normals[i])
			if value < bestValue {
				bestValue = value
				bestIndex = i
			}
		}

		i1 := bestIndex
		i2 := 0
		if i1+1 < tempPolygonB.count {
			i2 = i1 + 1
		}

		clipPoints[0] = ClipVertex{
			V:  tempPolygonB.vertices[i1],
			ID: ContactID{IndexA: 0, IndexB: uint8(i1), TypeA: FeatureFace, TypeB: FeatureVertex},
		}
		clipPoints[1] = ClipVertex{
			V:  tempPolygonB.vertices[i2],
			ID: ContactID{IndexA: 0, IndexB: uint8(i2), TypeA: FeatureFace, TypeB: FeatureVertex},
		}

		ref.i1 = 0
		ref.i2 = 1
		ref.v1 = v1
		ref.v2 = v2
		ref.normal = primaryAxis.normal
		ref.sideNormal1 = edge1.Neg()
		ref.sideNormal2 = edge1
	} else {
		manifold.Type = ManifoldFaceB

		clipPoints[0] = ClipVertex{
			V:  v2,
			ID: ContactID{IndexA: 1, IndexB: uint8(primaryAxis.index), TypeA: FeatureVertex, TypeB: FeatureFace},
		}
		clipPoints[1] = ClipVertex{
			V:  v1,
			ID: ContactID{IndexA: 0, IndexB: uint8(primaryAxis.index), TypeA: FeatureVertex, TypeB: FeatureFace},
		}

		ref.i1 = primaryAxis.index
		ref.i2 = 0
		if ref.i1+1 < tempPolygonB.count {
			ref.i2 = ref.i1 + 1
		}
		ref.v1 = tempPolygonB.vertices[ref.i1]
		ref.v2 = tempPolygonB.vertices[ref.i2]
		ref.normal = tempPolygonB.normals[ref.i1]

		// CCW winding
		ref.sideNormal1 = Vec2{ref.normal.Y, -ref.normal.X}
		ref.sideNormal2 = ref.sideNormal1.Neg()
	}

	ref.sideOffset1 = ref.sideNormal1.Dot(ref.v1)
	ref.sideOffset2 = ref.sideNormal2.Dot(ref.v2)

	// Clip incident edge against reference face side planes
	if np := clipSegmentToLine(clipPoints1, clipPoints, ref.sideNormal1, ref.sideOffset1, ref.i1); np < MaxManifoldPoints {
		return
	}

	if np := clipSegmentToLine(clipPoints2, clipPoints1, ref.sideNormal2, ref.sideOffset2, ref.i2); np < MaxManifoldPoints {
		return
	}

	// Now clipPoints2 contains the clipped points.
	if primaryAxis.kind == epAxisEdgeA {
		manifold.LocalNormal = ref.normal
		manifold.LocalPoint = ref.v1
	} else {
		manifold.LocalNormal = polygonB.Normals[ref.i1]
		manifold.LocalPoint = polygonB.Vertices[ref.i1]
	}

	pointCount := 0
	for i := 0; i < MaxManifoldPoints; i++ {
		separation := ref.normal.Dot(clipPoints2[i].V.Sub(ref.v1))

		if separation <= radius {
			cp := &manifold.Points[pointCount]

			if primaryAxis.kind == epAxisEdgeA {
				cp.LocalPoint = TransformMulTVec(xf, clipPoints2[i].V)
				cp.ID = clipPoints2[i].ID
			} else {
				cp.LocalPoint = clipPoints2[i].V
				cp.ID = clipPoints2[i].ID.swapped()
			}

			pointCount++
		}
	}

	manifold.PointCount = pointCount
}
