package kbox2d

import "math"

/// Weld joint definition. You need to specify local anchor points
/// where they are attached and the relative body angle. The position
/// of the anchor points is important for computing the reaction torque.
type WeldJointDef struct {
	JointDef

	/// The local anchor point relative to bodyA's origin.
	LocalAnchorA Vec2

	/// The local anchor point relative to bodyB's origin.
	LocalAnchorB Vec2

	/// The bodyB angle minus bodyA angle in the reference state (radians).
	ReferenceAngle float64

	/// The mass-spring-damper frequency in Hertz. Rotation only.
	/// Disable softness with a value of 0.
	FrequencyHz float64

	/// The damping ratio. 0 = no damping, 1 = critical damping.
	DampingRatio float64
}

func MakeWeldJointDef() WeldJointDef {
	return WeldJointDef{
		JointDef: JointDef{Type: WeldJoint},
	}
}

/// Initialize the bodies, anchors, and reference angle using a world
/// anchor point.
func (def *WeldJointDef) Initialize(bodyA, bodyB *Body, anchor Vec2) {
	def.BodyA = bodyA
	def.BodyB = bodyB
	def.LocalAnchorA = bodyA.LocalPoint(anchor)
	def.LocalAnchorB = bodyB.LocalPoint(anchor)
	def.ReferenceAngle = bodyB.Angle() - bodyA.Angle()
}

/// A weld joint essentially glues two bodies together. A weld joint may
/// distort somewhat because the island constraint solver is approximate.
type WeldJointImpl struct {
	joint

	frequencyHz  float64
	dampingRatio float64
	bias         float64

	// Solver shared
	localAnchorA   Vec2
	localAnchorB   Vec2
	referenceAngle float64
	gamma          float64
	impulse        Vec3

	// Solver temp
	jointBodyState
	rA   Vec2
	rB   Vec2
	mass Mat33
}

func newWeldJoint(def *WeldJointDef) *WeldJointImpl {
	def.Type = WeldJoint
	return &WeldJointImpl{
		joint:          makeJoint(&def.JointDef),
		localAnchorA:   def.LocalAnchorA,
		localAnchorB:   def.LocalAnchorB,
		referenceAngle: def.ReferenceAngle,
		frequencyHz:    def.FrequencyHz,
		dampingRatio:   def.DampingRatio,
	}
}

func (j *WeldJointImpl) LocalAnchorA() Vec2        { return j.localAnchorA }
func (j *WeldJointImpl) LocalAnchorB() Vec2        { return j.localAnchorB }
func (j *WeldJointImpl) ReferenceAngle() float64   { return j.referenceAngle }
func (j *WeldJointImpl) SetFrequency(hz float64)   { j.frequencyHz = hz }
func (j *WeldJointImpl) Frequency() float64        { return j.frequencyHz }
func (j *WeldJointImpl) SetDampingRatio(r float64) { j.dampingRatio = r }
func (j *WeldJointImpl) DampingRatio() float64     { return j.dampingRatio }
func (j *WeldJointImpl) AnchorA() Vec2             { return j.bodyA.WorldPoint(j.localAnchorA) }
func (j *WeldJointImpl) AnchorB() Vec2             { return j.bodyB.WorldPoint(j.localAnchorB) }

func (j *WeldJointImpl) ReactionForce(invDt float64) Vec2 {
	return Vec2{j.impulse[0], j.impulse[1]}.Mul(invDt)
}

func (j *WeldJointImpl) ReactionTorque(invDt float64) float64 {
	return invDt * j.impulse[2]
}

// Point-to-point constraint
// C = p2 - p1
// Cdot = v2 - v1
//      = v2 + cross(w2, r2) - v1 - cross(w1, r1)
// J = [-I -r1_skew I r2_skew ]
// Identity used:
// w k % (rx i + ry j) = w * (-ry i + rx j)

// Angle constraint
// C = angle2 - angle1 - referenceAngle
// Cdot = w2 - w1
// J = [0 0 -1 0 0 1]
// K = invI1 + invI2

func (j *WeldJointImpl) initVelocityConstraints(data *SolverData) {
	j.jointBodyState = j.bodyState()

	aA := data.Positions[j.indexA].A
	vA := data.Velocities[j.indexA].V
	wA := data.Velocities[j.indexA].W

	aB := data.Positions[j.indexB].A
	vB := data.Velocities[j.indexB].V
	wB := data.Velocities[j.indexB].W

	qA := data.Pool.popRot()
	qB := data.Pool.popRot()
	K := data.Pool.popMat33()
	defer data.Pool.pushRot(2)
	defer data.Pool.pushMat33(1)
	qA.Set(aA)
	qB.Set(aB)

	j.rA = RotMulVec(*qA, j.localAnchorA.Sub(j.localCenterA))
	j.rB = RotMulVec(*qB, j.localAnchorB.Sub(j.localCenterB))

	mA, mB := j.invMassA, j.invMassB
	iA, iB := j.invIA, j.invIB

	*K = j.pointAngleMass(j.rA, j.rB)

	j.gamma = 0.0
	j.bias = 0.0

	switch {
	case j.frequencyHz > 0.0:
		j.mass = Mat33Inverse22(*K)

		invM := iA + iB
		m := 0.0
		if invM > 0.0 {
			m = 1.0 / invM
		}

		C := aB - aA - j.referenceAngle

		// Frequency
		omega := 2.0 * Pi * j.frequencyHz

		// Damping coefficient
		d := 2.0 * m * j.dampingRatio * omega

		// Spring stiffness
		k := m * omega * omega

		// magic formulas
		h := data.Step.Dt
		j.gamma = h * (d + h*k)
		if j.gamma != 0.0 {
			j.gamma = 1.0 / j.gamma
		}
		j.bias = C * h * k * j.gamma

		invM += j.gamma
		if invM != 0.0 {
			j.mass.Set(2, 2, 1.0/invM)
		} else {
			j.mass.Set(2, 2, 0.0)
		}

	case K.At(2, 2) == 0.0:
		j.mass = Mat33Inverse22(*K)

	default:
		j.mass = Mat33SymInverse(*K)
	}

	if data.Step.WarmStarting {
		// Scale impulses to support a variable time step.
		j.impulse = j.impulse.Mul(data.Step.DtRatio)

		P := Vec2{j.impulse[0], j.impulse[1]}

		vA = vA.Sub(P.Mul(mA))
		wA -= iA * (j.rA.Cross(P) + j.impulse[2])

		vB = vB.Add(P.Mul(mB))
		wB += iB * (j.rB.Cross(P) + j.impulse[2])
	} else {
		j.impulse = Vec3{}
	}

	data.Velocities[j.indexA] = Velocity{V: vA, W: wA}
	data.Velocities[j.indexB] = Velocity{V: vB, W: wB}
}

func (j *WeldJointImpl) solveVelocityConstraints(data *SolverData) {
	vA := data.Velocities[j.indexA].V
	wA := data.Velocities[j.indexA].W
	vB := data.Velocities[j.indexB].V
	wB := data.Velocities[j.indexB].W

	mA, mB := j.invMassA, j.invMassB
	iA, iB := j.invIA, j.invIB

	if j.frequencyHz > 0.0 {
		Cdot2 := wB - wA

		impulse2 := -j.mass.At(2, 2) * (Cdot2 + j.bias + j.gamma*j.impulse[2])
		j.impulse[2] += impulse2

		wA -= iA * impulse2
		wB += iB * impulse2

		Cdot1 := vB.Add(CrossSV(wB, j.rB)).Sub(vA).Sub(CrossSV(wA, j.rA))

		impulse1 := Mat33MulVec2(j.mass, Cdot1).Neg()
		j.impulse[0] += impulse1.X
		j.impulse[1] += impulse1.Y

		vA = vA.Sub(impulse1.Mul(mA))
		wA -= iA * j.rA.Cross(impulse1)

		vB = vB.Add(impulse1.Mul(mB))
		wB += iB * j.rB.Cross(impulse1)
	} else {
		Cdot1 := vB.Add(CrossSV(wB, j.rB)).Sub(vA).Sub(CrossSV(wA, j.rA))
		Cdot2 := wB - wA

		impulse := j.mass.Mul3x1(Vec3{Cdot1.X, Cdot1.Y, Cdot2}).Mul(-1.0)
		j.impulse = j.impulse.Add(impulse)

		P := Vec2{impulse[0], impulse[1]}

		vA = vA.Sub(P.Mul(mA))
		wA -= iA * (j.rA.Cross(P) + impulse[2])

		vB = vB.Add(P.Mul(mB))
		wB += iB * (j.rB.Cross(P) + impulse[2])
	}

	data.Velocities[j.indexA] = Velocity{V: vA, W: wA}
	data.Velocities[j.indexB] = Velocity{V: vB, W: wB}
}

func (j *WeldJointImpl) solvePositionConstraints(data *SolverData) bool {
	cA := data.Positions[j.indexA].C
	aA := data.Positions[j.indexA].A
	cB := data.Positions[j.indexB].C
	aB := data.Positions[j.indexB].A

	qA := data.Pool.popRot()
	qB := data.Pool.popRot()
	K := data.Pool.popMat33()
	defer data.Pool.pushRot(2)
	defer data.Pool.pushMat33(1)
	qA.Set(aA)
	qB.Set(aB)

	mA, mB := j.invMassA, j.invMassB
	iA, iB := j.invIA, j.invIB

	rA := RotMulVec(*qA, j.localAnchorA.Sub(j.localCenterA))
	rB := RotMulVec(*qB, j.localAnchorB.Sub(j.localCenterB))

	*K = j.pointAngleMass(rA, rB)

	C1 := cB.Add(rB).Sub(cA).Sub(rA)
	positionError := C1.Length()
	angularError := 0.0

	var impulse Vec3
	if j.frequencyHz > 0.0 {
		P := Mat33Solve22(*K, C1).Neg()
		impulse = Vec3{P.X, P.Y, 0.0}
	} else {
		C2 := aB - aA - j.referenceAngle
		angularError = math.Abs(C2)

		if K.At(2, 2) > 0.0 {
			impulse = Mat33Solve33(*K, Vec3{C1.X, C1.Y, C2}).Mul(-1.0)
		} else {
			P := Mat33Solve22(*K, C1).Neg()
			impulse = Vec3{P.X, P.Y, 0.0}
		}
	}

	P := Vec2{impulse[0], impulse[1]}

	cA = cA.Sub(P.Mul(mA))
	aA -= iA * (rA.Cross(P) + impulse[2])

	cB = cB.Add(P.Mul(mB))
	aB += iB * (rB.Cross(P) + impulse[2])

	data.Positions[j.indexA] = Position{C: cA, A: aA}
	data.Positions[j.indexB] = Position{C: cB, A: aB}

	return positionError <= LinearSlop && angularError <= AngularSlop
}
