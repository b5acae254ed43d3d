package kbox2d

import "math"

/// Revolute joint definition. This requires defining an anchor point where the
/// bodies are joined. The definition uses local anchor points so that the
/// initial configuration can violate the constraint slightly. You also need to
/// specify the initial relative angle for joint limits. This helps when saving
/// and loading a game.
type RevoluteJointDef struct {
	JointDef

	/// The local anchor point relative to bodyA's origin.
	LocalAnchorA Vec2

	/// The local anchor point relative to bodyB's origin.
	LocalAnchorB Vec2

	/// The bodyB angle minus bodyA angle in the reference state (radians).
	ReferenceAngle float64

	/// A flag to enable joint limits.
	EnableLimit bool

	/// The lower angle for the joint limit (radians).
	LowerAngle float64

	/// The upper angle for the joint limit (radians).
	UpperAngle float64

	/// A flag to enable the joint motor.
	EnableMotor bool

	/// The desired motor speed. Usually in radians per second.
	MotorSpeed float64

	/// The maximum motor torque used to achieve the desired motor speed.
	/// Usually in N-m.
	MaxMotorTorque float64
}

func MakeRevoluteJointDef() RevoluteJointDef {
	return RevoluteJointDef{
		JointDef: JointDef{Type: RevoluteJoint},
	}
}

/// Initialize the bodies, anchors, and reference angle using a world
/// anchor point.
func (def *RevoluteJointDef) Initialize(bodyA, bodyB *Body, anchor Vec2) {
	def.BodyA = bodyA
	def.BodyB = bodyB
	def.LocalAnchorA = bodyA.LocalPoint(anchor)
	def.LocalAnchorB = bodyB.LocalPoint(anchor)
	def.ReferenceAngle = bodyB.Angle() - bodyA.Angle()
}

/// A revolute joint constrains two bodies to share a common point while they
/// are free to rotate about the point. The relative rotation about the shared
/// point is the joint angle. You can limit the relative rotation with
/// a joint limit that specifies a lower and upper angle. You can use a motor
/// to drive the relative rotation about the shared point. A maximum motor torque
/// is provided so that infinite forces are not generated.
type RevoluteJointImpl struct {
	joint

	// Solver shared
	localAnchorA   Vec2
	localAnchorB   Vec2
	impulse        Vec3
	motorImpulse   float64
	enableMotor    bool
	maxMotorTorque float64
	motorSpeed     float64
	enableLimit    bool
	referenceAngle float64
	lowerAngle     float64
	upperAngle     float64

	// Solver temp
	jointBodyState
	rA         Vec2
	rB         Vec2
	mass       Mat33 // effective mass for point-to-point constraint.
	motorMass  float64
	limitState limitState
}

func newRevoluteJoint(def *RevoluteJointDef) *RevoluteJointImpl {
	def.Type = RevoluteJoint
	return &RevoluteJointImpl{
		joint:          makeJoint(&def.JointDef),
		localAnchorA:   def.LocalAnchorA,
		localAnchorB:   def.LocalAnchorB,
		referenceAngle: def.ReferenceAngle,
		lowerAngle:     def.LowerAngle,
		upperAngle:     def.UpperAngle,
		maxMotorTorque: def.MaxMotorTorque,
		motorSpeed:     def.MotorSpeed,
		enableLimit:    def.EnableLimit,
		enableMotor:    def.EnableMotor,
	}
}

func (j *RevoluteJointImpl) LocalAnchorA() Vec2      { return j.localAnchorA }
func (j *RevoluteJointImpl) LocalAnchorB() Vec2      { return j.localAnchorB }
func (j *RevoluteJointImpl) ReferenceAngle() float64 { return j.referenceAngle }
func (j *RevoluteJointImpl) AnchorA() Vec2           { return j.bodyA.WorldPoint(j.localAnchorA) }
func (j *RevoluteJointImpl) AnchorB() Vec2           { return j.bodyB.WorldPoint(j.localAnchorB) }
func (j *RevoluteJointImpl) IsLimitEnabled() bool    { return j.enableLimit }
func (j *RevoluteJointImpl) LowerLimit() float64     { return j.lowerAngle }
func (j *RevoluteJointImpl) UpperLimit() float64     { return j.upperAngle }
func (j *RevoluteJointImpl) IsMotorEnabled() bool    { return j.enableMotor }
func (j *RevoluteJointImpl) MotorSpeed() float64     { return j.motorSpeed }
func (j *RevoluteJointImpl) MaxMotorTorque() float64 { return j.maxMotorTorque }

/// JointAngle is the current joint angle in radians.
func (j *RevoluteJointImpl) JointAngle() float64 {
	return j.bodyB.sweep.A - j.bodyA.sweep.A - j.referenceAngle
}

/// JointSpeed is the current joint angle speed in radians per second.
func (j *RevoluteJointImpl) JointSpeed() float64 {
	return j.bodyB.angularVelocity - j.bodyA.angularVelocity
}

func (j *RevoluteJointImpl) EnableLimit(flag bool) {
	if flag == j.enableLimit {
		return
	}
	j.bodyA.SetAwake(true)
	j.bodyB.SetAwake(true)
	j.enableLimit = flag
	j.impulse[2] = 0.0
}

/// SetLimits sets the joint limits in radians.
func (j *RevoluteJointImpl) SetLimits(lower, upper float64) {
	assert(lower <= upper, "revolute lower limit above upper limit")

	if lower != j.lowerAngle || upper != j.upperAngle {
		j.bodyA.SetAwake(true)
		j.bodyB.SetAwake(true)
		j.impulse[2] = 0.0
		j.lowerAngle = lower
		j.upperAngle = upper
	}
}

func (j *RevoluteJointImpl) EnableMotor(flag bool) {
	j.bodyA.SetAwake(true)
	j.bodyB.SetAwake(true)
	j.enableMotor = flag
}

func (j *RevoluteJointImpl) SetMotorSpeed(speed float64) {
	j.bodyA.SetAwake(true)
	j.bodyB.SetAwake(true)
	j.motorSpeed = speed
}

func (j *RevoluteJointImpl) SetMaxMotorTorque(torque float64) {
	j.bodyA.SetAwake(true)
	j.bodyB.SetAwake(true)
	j.maxMotorTorque = torque
}

/// MotorTorque is the current motor torque given the inverse time step.
func (j *RevoluteJointImpl) MotorTorque(invDt float64) float64 {
	return invDt * j.motorImpulse
}

func (j *RevoluteJointImpl) ReactionForce(invDt float64) Vec2 {
	return Vec2{j.impulse[0], j.impulse[1]}.Mul(invDt)
}

func (j *RevoluteJointImpl) ReactionTorque(invDt float64) float64 {
	return invDt * j.impulse[2]
}

// Point-to-point constraint
// C = p2 - p1
// Cdot = v2 - v1
//      = v2 + cross(w2, r2) - v1 - cross(w1, r1)
// J = [-I -r1_skew I r2_skew ]
// Identity used:
// w k % (rx i + ry j) = w * (-ry i + rx j)

// Motor constraint
// Cdot = w2 - w1
// J = [0 0 -1 0 0 1]
// K = invI1 + invI2

func (j *RevoluteJointImpl) initVelocityConstraints(data *SolverData) {
	j.jointBodyState = j.bodyState()

	aA := data.Positions[j.indexA].A
	vA := data.Velocities[j.indexA].V
	wA := data.Velocities[j.indexA].W

	aB := data.Positions[j.indexB].A
	vB := data.Velocities[j.indexB].V
	wB := data.Velocities[j.indexB].W

	qA := data.Pool.popRot()
	qB := data.Pool.popRot()
	defer data.Pool.pushRot(2)
	qA.Set(aA)
	qB.Set(aB)

	j.rA = RotMulVec(*qA, j.localAnchorA.Sub(j.localCenterA))
	j.rB = RotMulVec(*qB, j.localAnchorB.Sub(j.localCenterB))

	mA, mB := j.invMassA, j.invMassB
	iA, iB := j.invIA, j.invIB
	rA, rB := j.rA, j.rB

	fixedRotation := iA+iB == 0.0

	j.mass = j.pointAngleMass(rA, rB)

	j.motorMass = iA + iB
	if j.motorMass > 0.0 {
		j.motorMass = 1.0 / j.motorMass
	}

	if !j.enableMotor || fixedRotation {
		j.motorImpulse = 0.0
	}

	if j.enableLimit && !fixedRotation {
		jointAngle := aB - aA - j.referenceAngle
		switch {
		case math.Abs(j.upperAngle-j.lowerAngle) < 2.0*AngularSlop:
			j.limitState = equalLimits
		case jointAngle <= j.lowerAngle:
			if j.limitState != atLowerLimit {
				j.impulse[2] = 0.0
			}
			j.limitState = atLowerLimit
		case jointAngle >= j.upperAngle:
			if j.limitState != atUpperLimit {
				j.impulse[2] = 0.0
			}
			j.limitState = atUpperLimit
		default:
			j.limitState = inactiveLimit
			j.impulse[2] = 0.0
		}
	} else {
		j.limitState = inactiveLimit
	}

	if data.Step.WarmStarting {
		// Scale impulses to support a variable time step.
		j.impulse = j.impulse.Mul(data.Step.DtRatio)
		j.motorImpulse *= data.Step.DtRatio

		P := Vec2{j.impulse[0], j.impulse[1]}

		vA = vA.Sub(P.Mul(mA))
		wA -= iA * (rA.Cross(P) + j.motorImpulse + j.impulse[2])

		vB = vB.Add(P.Mul(mB))
		wB += iB * (rB.Cross(P) + j.motorImpulse + j.impulse[2])
	} else {
		j.impulse = Vec3{}
		j.motorImpulse = 0.0
	}

	data.Velocities[j.indexA] = Velocity{V: vA, W: wA}
	data.Velocities[j.indexB] = Velocity{V: vB, W: wB}
}

func (j *RevoluteJointImpl) solveVelocityConstraints(data *SolverData) {
	vA := data.Velocities[j.indexA].V
	wA := data.Velocities[j.indexA].W
	vB := data.Velocities[j.indexB].V
	wB := data.Velocities[j.indexB].W

	mA, mB := j.invMassA, j.invMassB
	iA, iB := j.invIA, j.invIB

	fixedRotation := iA+iB == 0.0

	// Solve motor constraint.
	if j.enableMotor && j.limitState != equalLimits && !fixedRotation {
		Cdot := wB - wA - j.motorSpeed
		impulse := -j.motorMass * Cdot
		oldImpulse := j.motorImpulse
		maxImpulse := data.Step.Dt * j.maxMotorTorque
		j.motorImpulse = clampFloat(j.motorImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = j.motorImpulse - oldImpulse

		wA -= iA * impulse
		wB += iB * impulse
	}

	// Solve limit constraint.
	if j.enableLimit && j.limitState != inactiveLimit && !fixedRotation {
		Cdot1 := vB.Add(CrossSV(wB, j.rB)).Sub(vA).Sub(CrossSV(wA, j.rA))
		Cdot2 := wB - wA
		impulse := Mat33Solve33(j.mass, Vec3{Cdot1.X, Cdot1.Y, Cdot2}).Mul(-1.0)

		switch j.limitState {
		case equalLimits:
			j.impulse = j.impulse.Add(impulse)

		case atLowerLimit:
			newImpulse := j.impulse[2] + impulse[2]
			if newImpulse < 0.0 {
				impulse = j.solveReduced(Cdot1)
			} else {
				j.impulse = j.impulse.Add(impulse)
			}

		case atUpperLimit:
			newImpulse := j.impulse[2] + impulse[2]
			if newImpulse > 0.0 {
				impulse = j.solveReduced(Cdot1)
			} else {
				j.impulse = j.impulse.Add(impulse)
			}
		}

		P := Vec2{impulse[0], impulse[1]}

		vA = vA.Sub(P.Mul(mA))
		wA -= iA * (j.rA.Cross(P) + impulse[2])

		vB = vB.Add(P.Mul(mB))
		wB += iB * (j.rB.Cross(P) + impulse[2])
	} else {
		// Solve point to point constraint
		Cdot := vB.Add(CrossSV(wB, j.rB)).Sub(vA).Sub(CrossSV(wA, j.rA))
		impulse := Mat33Solve22(j.mass, Cdot.Neg())

		j.impulse[0] += impulse.X
		j.impulse[1] += impulse.Y

		vA = vA.Sub(impulse.Mul(mA))
		wA -= iA * j.rA.Cross(impulse)

		vB = vB.Add(impulse.Mul(mB))
		wB += iB * j.rB.Cross(impulse)
	}

	data.Velocities[j.indexA] = Velocity{V: vA, W: wA}
	data.Velocities[j.indexB] = Velocity{V: vB, W: wB}
}

// solveReduced drops the limit row when the accumulated limit impulse would
// change sign and solves the point constraint alone. It returns the applied
// impulse.
func (j *RevoluteJointImpl) solveReduced(Cdot1 Vec2) Vec3 {
	rhs := Cdot1.Neg().Add(Vec2{j.mass.At(0, 2), j.mass.At(1, 2)}.Mul(j.impulse[2]))
	reduced := Mat33Solve22(j.mass, rhs)

	applied := Vec3{reduced.X, reduced.Y, -j.impulse[2]}
	j.impulse[0] += reduced.X
	j.impulse[1] += reduced.Y
	j.impulse[2] = 0.0
	return applied
}

func (j *RevoluteJointImpl) solvePositionConstraints(data *SolverData) bool {
	cA := data.Positions[j.indexA].C
	aA := data.Positions[j.indexA].A
	cB := data.Positions[j.indexB].C
	aB := data.Positions[j.indexB].A

	qA := data.Pool.popRot()
	qB := data.Pool.popRot()
	K := data.Pool.popMat22()
	defer data.Pool.pushRot(2)
	defer data.Pool.pushMat22(1)

	angularError := 0.0
	positionError := 0.0

	mA, mB := j.invMassA, j.invMassB
	iA, iB := j.invIA, j.invIB

	fixedRotation := iA+iB == 0.0

	// Solve angular limit constraint.
	if j.enableLimit && j.limitState != inactiveLimit && !fixedRotation {
		angle := aB - aA - j.referenceAngle
		limitImpulse := 0.0

		switch j.limitState {
		case equalLimits:
			// Prevent large angular corrections
			C := clampFloat(angle-j.lowerAngle, -MaxAngularCorrection, MaxAngularCorrection)
			limitImpulse = -j.motorMass * C
			angularError = math.Abs(C)

		case atLowerLimit:
			C := angle - j.lowerAngle
			angularError = -C

			// Prevent large angular corrections and allow some slop.
			C = clampFloat(C+AngularSlop, -MaxAngularCorrection, 0.0)
			limitImpulse = -j.motorMass * C

		case atUpperLimit:
			C := angle - j.upperAngle
			angularError = C

			// Prevent large angular corrections and allow some slop.
			C = clampFloat(C-AngularSlop, 0.0, MaxAngularCorrection)
			limitImpulse = -j.motorMass * C
		}

		aA -= iA * limitImpulse
		aB += iB * limitImpulse
	}

	// Solve point to point constraint.
	qA.Set(aA)
	qB.Set(aB)
	rA := RotMulVec(*qA, j.localAnchorA.Sub(j.localCenterA))
	rB := RotMulVec(*qB, j.localAnchorB.Sub(j.localCenterB))

	C := cB.Add(rB).Sub(cA).Sub(rA)
	positionError = C.Length()

	*K = j.pointMass(rA, rB)

	impulse := K.Solve(C).Neg()

	cA = cA.Sub(impulse.Mul(mA))
	aA -= iA * rA.Cross(impulse)

	cB = cB.Add(impulse.Mul(mB))
	aB += iB * rB.Cross(impulse)

	data.Positions[j.indexA] = Position{C: cA, A: aA}
	data.Positions[j.indexB] = Position{C: cB, A: aB}

	return positionError <= LinearSlop && angularError <= AngularSlop
}
