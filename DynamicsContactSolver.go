package kbox2d

import "math"

type velocityConstraintPoint struct {
	rA             Vec2
	rB             Vec2
	normalImpulse  float64
	tangentImpulse float64
	normalMass     float64
	tangentMass    float64
	velocityBias   float64
}

type contactVelocityConstraint struct {
	points       [MaxManifoldPoints]velocityConstraintPoint
	normal       Vec2
	normalMass   Mat22
	K            Mat22
	indexA       int
	indexB       int
	invMassA     float64
	invMassB     float64
	invIA        float64
	invIB        float64
	friction     float64
	restitution  float64
	tangentSpeed float64
	pointCount   int
	contactIndex int
}

type contactPositionConstraint struct {
	localPoints  [MaxManifoldPoints]Vec2
	localNormal  Vec2
	localPoint   Vec2
	indexA       int
	indexB       int
	invMassA     float64
	invMassB     float64
	localCenterA Vec2
	localCenterB Vec2
	invIA        float64
	invIB        float64
	kind         ManifoldType
	radiusA      float64
	radiusB      float64
	pointCount   int
}

type contactSolverDef struct {
	step       TimeStep
	contacts   []*Contact
	positions  []Position
	velocities []Velocity
	pool       *WorldPool
}

// Ill conditioned two point manifolds are solved one point at a time.
const blockSolveMaxConditionNumber = 1000.0

type contactSolver struct {
	step                TimeStep
	positions           []Position
	velocities          []Velocity
	positionConstraints []contactPositionConstraint
	velocityConstraints []contactVelocityConstraint
	contacts            []*Contact
	pool                *WorldPool
	blockSolve          bool
}

// reset prepares the solver for the contacts of one island. The constraint
// slices are reused across islands and steps.
func (solver *contactSolver) reset(def *contactSolverDef) {
	solver.step = def.step
	solver.positions = def.positions
	solver.velocities = def.velocities
	solver.contacts = def.contacts
	solver.pool = def.pool
	solver.blockSolve = true

	count := len(def.contacts)
	if cap(solver.positionConstraints) < count {
		solver.positionConstraints = make([]contactPositionConstraint, count)
		solver.velocityConstraints = make([]contactVelocityConstraint, count)
	}
	solver.positionConstraints = solver.positionConstraints[:count]
	solver.velocityConstraints = solver.velocityConstraints[:count]

	// Initialize position independent portions of the constraints.
	for i, contact := range solver.contacts {
		fixtureA := contact.fixtureA
		fixtureB := contact.fixtureB
		radiusA := fixtureA.shape.Radius()
		radiusB := fixtureB.shape.Radius()
		bodyA := fixtureA.body
		bodyB := fixtureB.body
		manifold := &contact.manifold

		pointCount := manifold.PointCount
		assert(pointCount > 0, "solver contact without points")

		vc := &solver.velocityConstraints[i]
		*vc = contactVelocityConstraint{
			friction:     contact.friction,
			restitution:  contact.restitution,
			tangentSpeed: contact.tangentSpeed,
			indexA:       bodyA.islandIndex,
			indexB:       bodyB.islandIndex,
			invMassA:     bodyA.invMass,
			invMassB:     bodyB.invMass,
			invIA:        bodyA.invI,
			invIB:        bodyB.invI,
			contactIndex: i,
			pointCount:   pointCount,
		}

		pc := &solver.positionConstraints[i]
		*pc = contactPositionConstraint{
			indexA:       bodyA.islandIndex,
			indexB:       bodyB.islandIndex,
			invMassA:     bodyA.invMass,
			invMassB:     bodyB.invMass,
			localCenterA: bodyA.sweep.LocalCenter,
			localCenterB: bodyB.sweep.LocalCenter,
			invIA:        bodyA.invI,
			invIB:        bodyB.invI,
			localNormal:  manifold.LocalNormal,
			localPoint:   manifold.LocalPoint,
			pointCount:   pointCount,
			radiusA:      radiusA,
			radiusB:      radiusB,
			kind:         manifold.Type,
		}

		for j := 0; j < pointCount; j++ {
			cp := &manifold.Points[j]
			vcp := &vc.points[j]

			if solver.step.WarmStarting {
				vcp.normalImpulse = solver.step.DtRatio * cp.NormalImpulse
				vcp.tangentImpulse = solver.step.DtRatio * cp.TangentImpulse
			}

			pc.localPoints[j] = cp.LocalPoint
		}
	}
}

// initializeVelocityConstraints fills the position dependent portions of the
// velocity constraints.
func (solver *contactSolver) initializeVelocityConstraints() {
	pool := solver.pool
	xfA := pool.popTransform()
	xfB := pool.popTransform()
	defer pool.pushTransform(2)

	for i := range solver.velocityConstraints {
		vc := &solver.velocityConstraints[i]
		pc := &solver.positionConstraints[i]

		radiusA := pc.radiusA
		radiusB := pc.radiusB
		manifold := &solver.contacts[vc.contactIndex].manifold

		indexA := vc.indexA
		indexB := vc.indexB

		mA := vc.invMassA
		mB := vc.invMassB
		iA := vc.invIA
		iB := vc.invIB
		localCenterA := pc.localCenterA
		localCenterB := pc.localCenterB

		cA := solver.positions[indexA].C
		aA := solver.positions[indexA].A
		vA := solver.velocities[indexA].V
		wA := solver.velocities[indexA].W

		cB := solver.positions[indexB].C
		aB := solver.positions[indexB].A
		vB := solver.velocities[indexB].V
		wB := solver.velocities[indexB].W

		assert(manifold.PointCount > 0, "solver contact without points")

		xfA.Q.Set(aA)
		xfB.Q.Set(aB)
		xfA.P = cA.Sub(RotMulVec(xfA.Q, localCenterA))
		xfB.P = cB.Sub(RotMulVec(xfB.Q, localCenterB))

		var worldManifold WorldManifold
		worldManifold.Initialize(manifold, *xfA, radiusA, *xfB, radiusB)

		vc.normal = worldManifold.Normal
		tangent := CrossVS(vc.normal, 1.0)

		finite := true
		pointCount := vc.pointCount
		for j := 0; j < pointCount; j++ {
			vcp := &vc.points[j]

			vcp.rA = worldManifold.Points[j].Sub(cA)
			vcp.rB = worldManifold.Points[j].Sub(cB)

			rnA := vcp.rA.Cross(vc.normal)
			rnB := vcp.rB.Cross(vc.normal)

			kNormal := mA + mB + iA*rnA*rnA + iB*rnB*rnB
			vcp.normalMass = 0.0
			if kNormal > 0.0 {
				vcp.normalMass = 1.0 / kNormal
			}

			rtA := vcp.rA.Cross(tangent)
			rtB := vcp.rB.Cross(tangent)

			kTangent := mA + mB + iA*rtA*rtA + iB*rtB*rtB
			vcp.tangentMass = 0.0
			if kTangent > 0.0 {
				vcp.tangentMass = 1.0 / kTangent
			}

			// Setup a velocity bias for restitution.
			vcp.velocityBias = 0.0
			vRel := vc.normal.Dot(vB.Add(CrossSV(wB, vcp.rB)).Sub(vA).Sub(CrossSV(wA, vcp.rA)))
			if vRel < -VelocityThreshold {
				vcp.velocityBias = -vc.restitution * vRel
			}

			finite = finite && IsValid(kNormal) && IsValid(kTangent) && IsValid(vcp.velocityBias)
		}

		// A constraint with a non-finite effective mass sits out this step.
		if !finite {
			vc.pointCount = 0
			pc.pointCount = 0
			continue
		}

		// If we have two points, then prepare the block solver.
		if vc.pointCount == 2 && solver.blockSolve {
			vcp1 := &vc.points[0]
			vcp2 := &vc.points[1]

			rn1A := vcp1.rA.Cross(vc.normal)
			rn1B := vcp1.rB.Cross(vc.normal)
			rn2A := vcp2.rA.Cross(vc.normal)
			rn2B := vcp2.rB.Cross(vc.normal)

			k11 := mA + mB + iA*rn1A*rn1A + iB*rn1B*rn1B
			k22 := mA + mB + iA*rn2A*rn2A + iB*rn2B*rn2B
			k12 := mA + mB + iA*rn1A*rn2A + iB*rn1B*rn2B

			if k11*k11 < blockSolveMaxConditionNumber*(k11*k22-k12*k12) {
				// K is safe to invert.
				vc.K = MakeMat22FromScalars(k11, k12, k12, k22)
				vc.normalMass = vc.K.Inverse()
			} else {
				// The constraints are redundant, just use one.
				vc.pointCount = 1
			}
		}
	}
}

func (solver *contactSolver) warmStart() {
	// Warm start.
	for i := range solver.velocityConstraints {
		vc := &solver.velocityConstraints[i]

		indexA := vc.indexA
		indexB := vc.indexB
		mA := vc.invMassA
		iA := vc.invIA
		mB := vc.invMassB
		iB := vc.invIB
		pointCount := vc.pointCount

		vA := solver.velocities[indexA].V
		wA := solver.velocities[indexA].W
		vB := solver.velocities[indexB].V
		wB := solver.velocities[indexB].W

		normal := vc.normal
		tangent := CrossVS(normal, 1.0)

		for j := 0; j < pointCount; j++ {
			vcp := &vc.points[j]
			P := normal.Mul(vcp.normalImpulse).Add(tangent.Mul(vcp.tangentImpulse))
			wA -= iA * vcp.rA.Cross(P)
			vA = vA.Sub(P.Mul(mA))
			wB += iB * vcp.rB.Cross(P)
			vB = vB.Add(P.Mul(mB))
		}

		solver.velocities[indexA].V = vA
		solver.velocities[indexA].W = wA
		solver.velocities[indexB].V = vB
		solver.velocities[indexB].W = wB
	}
}

func (solver *contactSolver) solveVelocityConstraints() {
	for i := range solver.velocityConstraints {
		vc := &solver.velocityConstraints[i]

		indexA := vc.indexA
		indexB := vc.indexB
		mA := vc.invMassA
		iA := vc.invIA
		mB := vc.invMassB
		iB := vc.invIB
		pointCount := vc.pointCount

		vA := solver.velocities[indexA].V
		wA := solver.velocities[indexA].W
		vB := solver.velocities[indexB].V
		wB := solver.velocities[indexB].W

		normal := vc.normal
		tangent := CrossVS(normal, 1.0)
		friction := vc.friction

		if pointCount == 0 {
			continue
		}

		// Solve tangent constraints first because non-penetration is more
		// important than friction.
		for j := 0; j < pointCount; j++ {
			vcp := &vc.points[j]

			// Relative velocity at contact
			dv := vB.Add(CrossSV(wB, vcp.rB)).Sub(vA).Sub(CrossSV(wA, vcp.rA))

			// Compute tangent force
			vt := dv.Dot(tangent) - vc.tangentSpeed
			lambda := vcp.tangentMass * (-vt)

			// clamp the accumulated force
			maxFriction := friction * vcp.normalImpulse
			newImpulse := clampFloat(vcp.tangentImpulse+lambda, -maxFriction, maxFriction)
			lambda = newImpulse - vcp.tangentImpulse
			vcp.tangentImpulse = newImpulse

			// Apply contact impulse
			P := tangent.Mul(lambda)

			vA = vA.Sub(P.Mul(mA))
			wA -= iA * vcp.rA.Cross(P)

			vB = vB.Add(P.Mul(mB))
			wB += iB * vcp.rB.Cross(P)
		}

		// Solve normal constraints
		if pointCount == 1 || !solver.blockSolve {
			for j := 0; j < pointCount; j++ {
				vcp := &vc.points[j]

				// Relative velocity at contact
				dv := vB.Add(CrossSV(wB, vcp.rB)).Sub(vA).Sub(CrossSV(wA, vcp.rA))

				// Compute normal impulse
				vn := dv.Dot(normal)
				lambda := -vcp.normalMass * (vn - vcp.velocityBias)

				// clamp the accumulated impulse
				newImpulse := math.Max(vcp.normalImpulse+lambda, 0.0)
				lambda = newImpulse - vcp.normalImpulse
				vcp.normalImpulse = newImpulse

				// Apply contact impulse
				P := normal.Mul(lambda)
				vA = vA.Sub(P.Mul(mA))
				wA -= iA * vcp.rA.Cross(P)

				vB = vB.Add(P.Mul(mB))
				wB += iB * vcp.rB.Cross(P)
			}
		} else {
			vA, wA, vB, wB = solver.solveBlock(vc, vA, wA, vB, wB)
		}

		solver.velocities[indexA].V = vA
		solver.velocities[indexA].W = wA
		solver.velocities[indexB].V = vB
		solver.velocities[indexB].W = wB
	}
}

// solveBlock solves the two point normal constraint as a 2D linear
// complementary problem.
//
// vn = A * x + b, vn >= 0, x >= 0 and vn_i * x_i = 0 with i = 1..2
//
// A = J * W * JT and J = ( -n, -r1 x n, n, r2 x n )
// b = vn0 - velocityBias
//
// The system is solved using the "Total enumeration method" (s. Murty). The
// complementary constraint vn_i * x_i implies that we must have in any
// solution either vn_i = 0 or x_i = 0. So for the 2D contact problem the
// cases vn1 = 0 and vn2 = 0, x1 = 0 and x2 = 0, x1 = 0 and vn2 = 0,
// x2 = 0 and vn1 = 0 need to be tested. The first valid solution that
// satisfies the problem is chosen.
//
// In order to account of the accumulated impulse 'a' (because of the
// iterative nature of the solver which only requires that the accumulated
// impulse is clamped and not the incremental impulse) we change the impulse
// variable (x_i):
//
// x = a + d
//
// a := old total impulse
// x := new total impulse
// d := incremental impulse
//
// For the current iteration we extend the formula for the incremental
// impulse to compute the new total impulse:
//
// vn = A * d + b
//    = A * (x - a) + b
//    = A * x + b - A * a
//    = A * x + b'
// b' = b - A * a
func (solver *contactSolver) solveBlock(vc *contactVelocityConstraint, vA Vec2, wA float64, vB Vec2, wB float64) (Vec2, float64, Vec2, float64) {
	mA := vc.invMassA
	iA := vc.invIA
	mB := vc.invMassB
	iB := vc.invIB
	normal := vc.normal

	cp1 := &vc.points[0]
	cp2 := &vc.points[1]

	pool := solver.pool
	a := pool.popVec2()
	b := pool.popVec2()
	x := pool.popVec2()
	defer pool.pushVec2(3)

	*a = Vec2{cp1.normalImpulse, cp2.normalImpulse}
	assert(a.X >= 0.0 && a.Y >= 0.0, "negative accumulated impulse")

	// Relative velocity at contact
	dv1 := vB.Add(CrossSV(wB, cp1.rB)).Sub(vA).Sub(CrossSV(wA, cp1.rA))
	dv2 := vB.Add(CrossSV(wB, cp2.rB)).Sub(vA).Sub(CrossSV(wA, cp2.rA))

	// Compute normal velocity
	vn1 := dv1.Dot(normal)
	vn2 := dv2.Dot(normal)

	b.X = vn1 - cp1.velocityBias
	b.Y = vn2 - cp2.velocityBias

	// Compute b'
	*b = b.Sub(Mat22MulVec(vc.K, *a))

	apply := func() {
		// Resubstitute for the incremental impulse
		d := x.Sub(*a)

		// Apply incremental impulse
		P1 := normal.Mul(d.X)
		P2 := normal.Mul(d.Y)
		vA = vA.Sub(P1.Add(P2).Mul(mA))
		wA -= iA * (cp1.rA.Cross(P1) + cp2.rA.Cross(P2))

		vB = vB.Add(P1.Add(P2).Mul(mB))
		wB += iB * (cp1.rB.Cross(P1) + cp2.rB.Cross(P2))

		// Accumulate
		cp1.normalImpulse = x.X
		cp2.normalImpulse = x.Y
	}

	// Case 1: vn = 0
	//
	// 0 = A * x + b'
	//
	// Solve for x:
	//
	// x = - inv(A) * b'
	*x = Mat22MulVec(vc.normalMass, *b).Neg()
	if x.X >= 0.0 && x.Y >= 0.0 {
		apply()
		return vA, wA, vB, wB
	}

	// Case 2: vn1 = 0 and x2 = 0
	//
	//   0 = a11 * x1 + a12 * 0 + b1'
	// vn2 = a21 * x1 + a22 * 0 + b2'
	x.X = -cp1.normalMass * b.X
	x.Y = 0.0
	vn2 = vc.K.Ex.Y*x.X + b.Y
	if x.X >= 0.0 && vn2 >= 0.0 {
		apply()
		return vA, wA, vB, wB
	}

	// Case 3: vn2 = 0 and x1 = 0
	//
	// vn1 = a11 * 0 + a12 * x2 + b1'
	//   0 = a21 * 0 + a22 * x2 + b2'
	x.X = 0.0
	x.Y = -cp2.normalMass * b.Y
	vn1 = vc.K.Ey.X*x.Y + b.X
	if x.Y >= 0.0 && vn1 >= 0.0 {
		apply()
		return vA, wA, vB, wB
	}

	// Case 4: x1 = 0 and x2 = 0
	//
	// vn1 = b1
	// vn2 = b2
	x.SetZero()
	vn1 = b.X
	vn2 = b.Y
	if vn1 >= 0.0 && vn2 >= 0.0 {
		apply()
		return vA, wA, vB, wB
	}

	// No solution, give up. This is hit sometimes, but it doesn't seem to
	// matter.
	return vA, wA, vB, wB
}

func (solver *contactSolver) storeImpulses() {
	for i := range solver.velocityConstraints {
		vc := &solver.velocityConstraints[i]
		manifold := &solver.contacts[vc.contactIndex].manifold

		// A non-finite impulse would poison the next warm start.
		for j := 0; j < vc.pointCount; j++ {
			normal, tangent := vc.points[j].normalImpulse, vc.points[j].tangentImpulse
			if !IsValid(normal) || !IsValid(tangent) {
				normal, tangent = 0.0, 0.0
			}
			manifold.Points[j].NormalImpulse = normal
			manifold.Points[j].TangentImpulse = tangent
		}
	}
}

type positionSolverManifold struct {
	normal     Vec2
	point      Vec2
	separation float64
}

func (psm *positionSolverManifold) initialize(pc *contactPositionConstraint, xfA, xfB Transform, index int) {
	assert(pc.pointCount > 0, "position constraint without points")

	switch pc.kind {
	case ManifoldCircles:
		pointA := TransformMulVec(xfA, pc.localPoint)
		pointB := TransformMulVec(xfB, pc.localPoints[0])
		psm.normal = pointB.Sub(pointA)
		psm.normal.Normalize()
		psm.point = pointA.Add(pointB).Mul(0.5)
		psm.separation = pointB.Sub(pointA).Dot(psm.normal) - pc.radiusA - pc.radiusB

	case ManifoldFaceA:
		psm.normal = RotMulVec(xfA.Q, pc.localNormal)
		planePoint := TransformMulVec(xfA, pc.localPoint)

		clipPoint := TransformMulVec(xfB, pc.localPoints[index])
		psm.separation = clipPoint.Sub(planePoint).Dot(psm.normal) - pc.radiusA - pc.radiusB
		psm.point = clipPoint

	case ManifoldFaceB:
		psm.normal = RotMulVec(xfB.Q, pc.localNormal)
		planePoint := TransformMulVec(xfB, pc.localPoint)

		clipPoint := TransformMulVec(xfA, pc.localPoints[index])
		psm.separation = clipPoint.Sub(planePoint).Dot(psm.normal) - pc.radiusA - pc.radiusB
		psm.point = clipPoint

		// Ensure normal points from A to B
		psm.normal = psm.normal.Neg()
	}
}

// solvePositionConstraints is a sequential solver. It reports whether the
// island is within three linear slops of penetration.
func (solver *contactSolver) solvePositionConstraints() bool {
	return solver.solvePositions(-1, -1, Baumgarte, -3.0*LinearSlop)
}

// solveTOIPositionConstraints moves only the two TOI bodies; every other
// body is treated as static.
func (solver *contactSolver) solveTOIPositionConstraints(toiIndexA, toiIndexB int) bool {
	return solver.solvePositions(toiIndexA, toiIndexB, TOIBaumgarte, -1.5*LinearSlop)
}

func (solver *contactSolver) solvePositions(toiIndexA, toiIndexB int, baumgarte, tolerance float64) bool {
	pool := solver.pool
	xfA := pool.popTransform()
	xfB := pool.popTransform()
	defer pool.pushTransform(2)

	toi := toiIndexA >= 0
	minSeparation := 0.0

	for i := range solver.positionConstraints {
		pc := &solver.positionConstraints[i]

		indexA := pc.indexA
		indexB := pc.indexB
		localCenterA := pc.localCenterA
		localCenterB := pc.localCenterB
		pointCount := pc.pointCount

		mA, iA := pc.invMassA, pc.invIA
		mB, iB := pc.invMassB, pc.invIB
		if toi {
			mA, iA = 0.0, 0.0
			if indexA == toiIndexA || indexA == toiIndexB {
				mA, iA = pc.invMassA, pc.invIA
			}

			mB, iB = 0.0, 0.0
			if indexB == toiIndexA || indexB == toiIndexB {
				mB, iB = pc.invMassB, pc.invIB
			}
		}

		cA := solver.positions[indexA].C
		aA := solver.positions[indexA].A

		cB := solver.positions[indexB].C
		aB := solver.positions[indexB].A

		// Solve normal constraints
		for j := 0; j < pointCount; j++ {
			xfA.Q.Set(aA)
			xfB.Q.Set(aB)
			xfA.P = cA.Sub(RotMulVec(xfA.Q, localCenterA))
			xfB.P = cB.Sub(RotMulVec(xfB.Q, localCenterB))

			var psm positionSolverManifold
			psm.initialize(pc, *xfA, *xfB, j)
			normal := psm.normal

			point := psm.point
			separation := psm.separation

			rA := point.Sub(cA)
			rB := point.Sub(cB)

			// Track max constraint error.
			minSeparation = math.Min(minSeparation, separation)

			// Prevent large corrections and allow slop.
			C := clampFloat(baumgarte*(separation+LinearSlop), -MaxLinearCorrection, 0.0)

			// Compute the effective mass.
			rnA := rA.Cross(normal)
			rnB := rB.Cross(normal)
			K := mA + mB + iA*rnA*rnA + iB*rnB*rnB

			// Compute normal impulse
			impulse := 0.0
			if K > 0.0 {
				impulse = -C / K
			}

			P := normal.Mul(impulse)

			cA = cA.Sub(P.Mul(mA))
			aA -= iA * rA.Cross(P)

			cB = cB.Add(P.Mul(mB))
			aB += iB * rB.Cross(P)
		}

		solver.positions[indexA].C = cA
		solver.positions[indexA].A = aA

		solver.positions[indexB].C = cB
		solver.positions[indexB].A = aB
	}

	// We can't expect minSeparation >= -linearSlop because we don't push the
	// separation above -linearSlop.
	return minSeparation >= tolerance
}
