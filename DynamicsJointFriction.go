package kbox2d

/// Friction joint definition.
type FrictionJointDef struct {
	JointDef

	/// The local anchor point relative to bodyA's origin.
	LocalAnchorA Vec2

	/// The local anchor point relative to bodyB's origin.
	LocalAnchorB Vec2

	/// The maximum friction force in N.
	MaxForce float64

	/// The maximum friction torque in N-m.
	MaxTorque float64
}

func MakeFrictionJointDef() FrictionJointDef {
	return FrictionJointDef{
		JointDef: JointDef{Type: FrictionJoint},
	}
}

/// Initialize the bodies and anchors using a world anchor point.
func (def *FrictionJointDef) Initialize(bodyA, bodyB *Body, anchor Vec2) {
	def.BodyA = bodyA
	def.BodyB = bodyB
	def.LocalAnchorA = bodyA.LocalPoint(anchor)
	def.LocalAnchorB = bodyB.LocalPoint(anchor)
}

/// Friction joint. This is used for top-down friction.
/// It provides 2D translational friction and angular friction.
type FrictionJointImpl struct {
	joint

	localAnchorA Vec2
	localAnchorB Vec2

	// Solver shared
	linearImpulse  Vec2
	angularImpulse float64
	maxForce       float64
	maxTorque      float64

	// Solver temp
	jointBodyState
	rA          Vec2
	rB          Vec2
	linearMass  Mat22
	angularMass float64
}

func newFrictionJoint(def *FrictionJointDef) *FrictionJointImpl {
	def.Type = FrictionJoint
	return &FrictionJointImpl{
		joint:        makeJoint(&def.JointDef),
		localAnchorA: def.LocalAnchorA,
		localAnchorB: def.LocalAnchorB,
		maxForce:     def.MaxForce,
		maxTorque:    def.MaxTorque,
	}
}

func (j *FrictionJointImpl) LocalAnchorA() Vec2 { return j.localAnchorA }
func (j *FrictionJointImpl) LocalAnchorB() Vec2 { return j.localAnchorB }
func (j *FrictionJointImpl) AnchorA() Vec2      { return j.bodyA.WorldPoint(j.localAnchorA) }
func (j *FrictionJointImpl) AnchorB() Vec2      { return j.bodyB.WorldPoint(j.localAnchorB) }
func (j *FrictionJointImpl) MaxForce() float64  { return j.maxForce }
func (j *FrictionJointImpl) MaxTorque() float64 { return j.maxTorque }

func (j *FrictionJointImpl) ReactionForce(invDt float64) Vec2 {
	return j.linearImpulse.Mul(invDt)
}

func (j *FrictionJointImpl) ReactionTorque(invDt float64) float64 {
	return invDt * j.angularImpulse
}

func (j *FrictionJointImpl) SetMaxForce(force float64) {
	assert(IsValid(force) && force >= 0.0, "friction max force must be >= 0")
	j.maxForce = force
}

func (j *FrictionJointImpl) SetMaxTorque(torque float64) {
	assert(IsValid(torque) && torque >= 0.0, "friction max torque must be >= 0")
	j.maxTorque = torque
}

// Point-to-point constraint
// Cdot = v2 - v1
//      = v2 + cross(w2, r2) - v1 - cross(w1, r1)
// J = [-I -r1_skew I r2_skew ]

// Angle constraint
// Cdot = w2 - w1
// J = [0 0 -1 0 0 1]
// K = invI1 + invI2

func (j *FrictionJointImpl) initVelocityConstraints(data *SolverData) {
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

	// Compute the effective mass matrix.
	j.rA = RotMulVec(*qA, j.localAnchorA.Sub(j.localCenterA))
	j.rB = RotMulVec(*qB, j.localAnchorB.Sub(j.localCenterB))

	mA, mB := j.invMassA, j.invMassB
	iA, iB := j.invIA, j.invIB

	j.linearMass = j.pointMass(j.rA, j.rB).Inverse()

	j.angularMass = iA + iB
	if j.angularMass > 0.0 {
		j.angularMass = 1.0 / j.angularMass
	}

	if data.Step.WarmStarting {
		// Scale impulses to support a variable time step.
		j.linearImpulse = j.linearImpulse.Mul(data.Step.DtRatio)
		j.angularImpulse *= data.Step.DtRatio

		P := j.linearImpulse
		vA = vA.Sub(P.Mul(mA))
		wA -= iA * (j.rA.Cross(P) + j.angularImpulse)
		vB = vB.Add(P.Mul(mB))
		wB += iB * (j.rB.Cross(P) + j.angularImpulse)
	} else {
		j.linearImpulse.SetZero()
		j.angularImpulse = 0.0
	}

	data.Velocities[j.indexA] = Velocity{V: vA, W: wA}
	data.Velocities[j.indexB] = Velocity{V: vB, W: wB}
}

func (j *FrictionJointImpl) solveVelocityConstraints(data *SolverData) {
	vA := data.Velocities[j.indexA].V
	wA := data.Velocities[j.indexA].W
	vB := data.Velocities[j.indexB].V
	wB := data.Velocities[j.indexB].W

	mA, mB := j.invMassA, j.invMassB
	iA, iB := j.invIA, j.invIB

	h := data.Step.Dt

	// Solve angular friction
	{
		Cdot := wB - wA
		impulse := -j.angularMass * Cdot

		oldImpulse := j.angularImpulse
		maxImpulse := h * j.maxTorque
		j.angularImpulse = clampFloat(j.angularImpulse+impulse, -maxImpulse, maxImpulse)
		impulse = j.angularImpulse - oldImpulse

		wA -= iA * impulse
		wB += iB * impulse
	}

	// Solve linear friction
	{
		Cdot := vB.Add(CrossSV(wB, j.rB)).Sub(vA).Sub(CrossSV(wA, j.rA))

		impulse := Mat22MulVec(j.linearMass, Cdot).Neg()
		oldImpulse := j.linearImpulse
		j.linearImpulse = j.linearImpulse.Add(impulse)

		maxImpulse := h * j.maxForce
		if j.linearImpulse.LengthSquared() > maxImpulse*maxImpulse {
			j.linearImpulse = j.linearImpulse.Normalized().Mul(maxImpulse)
		}

		impulse = j.linearImpulse.Sub(oldImpulse)

		vA = vA.Sub(impulse.Mul(mA))
		wA -= iA * j.rA.Cross(impulse)

		vB = vB.Add(impulse.Mul(mB))
		wB += iB * j.rB.Cross(impulse)
	}

	data.Velocities[j.indexA] = Velocity{V: vA, W: wA}
	data.Velocities[j.indexB] = Velocity{V: vB, W: wB}
}

func (j *FrictionJointImpl) solvePositionConstraints(data *SolverData) bool {
	return true
}
