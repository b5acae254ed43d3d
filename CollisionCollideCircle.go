package kbox2d

/// CollideCircles computes the collision manifold between two circles.
func CollideCircles(manifold *Manifold, circleA *CircleShape, xfA Transform, circleB *CircleShape, xfB Transform) {
	manifold.PointCount = 0

	pA := TransformMulVec(xfA, circleA.P)
	pB := TransformMulVec(xfB, circleB.P)

	d := pB.Sub(pA)
	distSqr := d.Dot(d)
	radius := circleA.radius + circleB.radius
	if distSqr > radius*radius {
		return
	}

	manifold.Type = ManifoldCircles
	manifold.LocalPoint = circleA.P
	manifold.LocalNormal.SetZero()
	manifold.PointCount = 1

	manifold.Points[0].LocalPoint = circleB.P
	manifold.Points[0].ID = ContactID{}
}

/// CollidePolygonAndCircle computes the collision manifold between a polygon
/// and a circle.
func CollidePolygonAndCircle(manifold *Manifold, polygonA *PolygonShape, xfA Transform, circleB *CircleShape, xfB Transform) {
	manifold.PointCount = 0

	// Compute circle position in the frame of the polygon.
	c := TransformMulVec(xfB, circleB.P)
	cLocal := TransformMulTVec(xfA, c)

	// Find the min separating edge.
	normalIndex := 0
	separation := -MaxFloat
	radius := polygonA.radius + circleB.radius
	vertexCount := polygonA.Count
	vertices := &polygonA.Vertices
	normals := &polygonA.Normals

	for i := 0; i < vertexCount; i++ {
		s := normals[i].Dot(cLocal.Sub(vertices[i]))

		if s > radius {
			// Early out.
			return
		}

		if s > separation {
			separation = s
			normalIndex = i
		}
	}

	// Vertices that subtend the incident face.
	vertIndex1 := normalIndex
	vertIndex2 := 0
	if vertIndex1+1 < vertexCount {
		vertIndex2 = vertIndex1 + 1
	}
	v1 := vertices[vertIndex1]
	v2 := vertices[vertIndex2]

	manifold.Type = ManifoldFaceA
	manifold.Points[0].LocalPoint = circleB.P
	manifold.Points[0].ID = ContactID{}

	// If the center is inside the polygon ...
	if separation < Epsilon {
		manifold.PointCount = 1
		manifold.LocalNormal = normals[normalIndex]
		manifold.LocalPoint = v1.Add(v2).Mul(0.5)
		return
	}

	// Compute barycentric coordinates
	u1 := cLocal.Sub(v1).Dot(v2.Sub(v1))
	u2 := cLocal.Sub(v2).Dot(v1.Sub(v2))

	switch {
	case u1 <= 0.0:
		if Vec2DistanceSquared(cLocal, v1) > radius*radius {
			return
		}
		manifold.PointCount = 1
		manifold.LocalNormal = cLocal.Sub(v1).Normalized()
		manifold.LocalPoint = v1

	case u2 <= 0.0:
		if Vec2DistanceSquared(cLocal, v2) > radius*radius {
			return
		}
		manifold.PointCount = 1
		manifold.LocalNormal = cLocal.Sub(v2).Normalized()
		manifold.LocalPoint = v2

	default:
		faceCenter := v1.Add(v2).Mul(0.5)
		s := cLocal.Sub(faceCenter).Dot(normals[vertIndex1])
		if s > radius {
			return
		}
		manifold.PointCount = 1
		manifold.LocalNormal = normals[vertIndex1]
		manifold.LocalPoint = faceCenter
	}
}
