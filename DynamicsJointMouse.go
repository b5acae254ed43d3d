package kbox2d

/// Mouse joint definition. This requires a world target point,
/// tuning parameters, and the time step.
type MouseJointDef struct {
	JointDef

	/// The initial world target point. This is assumed
	/// to coincide with the body anchor initially.
	Target Vec2

	/// The maximum constraint force that can be exerted
	/// to move the candidate body. Usually you will express
	/// as some multiple of the weight (multiplier * mass * gravity).
	MaxForce float64

	/// The response speed.
	FrequencyHz float64

	/// The damping ratio. 0 = no damping, 1 = critical damping.
	DampingRatio float64
}

func MakeMouseJointDef() MouseJointDef {
	return MouseJointDef{
		JointDef:     JointDef{Type: MouseJoint},
		FrequencyHz:  5.0,
		DampingRatio: 0.7,
	}
}

/// A mouse joint is used to make a point on a body track a
/// specified world point. This a soft constraint with a maximum
/// force. This allows the constraint to stretch and without
/// applying huge forces. Body A is only a placeholder, usually
/// a static ground body.
type MouseJointImpl struct {
	joint

	localAnchorB Vec2
	targetA      Vec2
	frequencyHz  float64
	dampingRatio float64
	beta         float64

	// Solver shared
	impulse  Vec2
	maxForce float64
	gamma    float64

	// Solver temp
	jointBodyState
	rB   Vec2
	mass Mat22
	C    Vec2
}

// p = attached point, m = mouse point
// C = p - m
// Cdot = v
//      = v + cross(w, r)
// J = [I r_skew]
// Identity used:
// w k % (rx i + ry j) = w * (-ry i + rx j)

func newMouseJoint(def *MouseJointDef) *MouseJointImpl {
	assert(def.Target.IsValid(), "mouse target is not finite")
	assert(IsValid(def.MaxForce) && def.MaxForce >= 0.0, "mouse max force must be >= 0")
	assert(IsValid(def.FrequencyHz) && def.FrequencyHz >= 0.0, "mouse frequency must be >= 0")
	assert(IsValid(def.DampingRatio) && def.DampingRatio >= 0.0, "mouse damping ratio must be >= 0")

	def.Type = MouseJoint
	j := &MouseJointImpl{
		joint:        makeJoint(&def.JointDef),
		targetA:      def.Target,
		maxForce:     def.MaxForce,
		frequencyHz:  def.FrequencyHz,
		dampingRatio: def.DampingRatio,
	}
	j.localAnchorB = TransformMulTVec(j.bodyB.Transform(), j.targetA)
	return j
}

/// SetTarget moves the world target point and wakes body B.
func (j *MouseJointImpl) SetTarget(target Vec2) {
	if target != j.targetA {
		j.bodyB.SetAwake(true)
		j.targetA = target
	}
}

func (j *MouseJointImpl) Target() Vec2                     { return j.targetA }
func (j *MouseJointImpl) SetMaxForce(force float64)        { j.maxForce = force }
func (j *MouseJointImpl) MaxForce() float64                { return j.maxForce }
func (j *MouseJointImpl) SetFrequency(hz float64)          { j.frequencyHz = hz }
func (j *MouseJointImpl) Frequency() float64               { return j.frequencyHz }
func (j *MouseJointImpl) SetDampingRatio(ratio float64)    { j.dampingRatio = ratio }
func (j *MouseJointImpl) DampingRatio() float64            { return j.dampingRatio }
func (j *MouseJointImpl) AnchorA() Vec2                    { return j.targetA }
func (j *MouseJointImpl) AnchorB() Vec2                    { return j.bodyB.WorldPoint(j.localAnchorB) }
func (j *MouseJointImpl) ReactionForce(invDt float64) Vec2 { return j.impulse.Mul(invDt) }
func (j *MouseJointImpl) ReactionTorque(float64) float64   { return 0.0 }

/// ShiftOrigin moves the stored world target.
func (j *MouseJointImpl) ShiftOrigin(newOrigin Vec2) {
	j.targetA = j.targetA.Sub(newOrigin)
}

func (j *MouseJointImpl) initVelocityConstraints(data *SolverData) {
	j.jointBodyState = j.bodyState()

	cB := data.Positions[j.indexB].C
	aB := data.Positions[j.indexB].A
	vB := data.Velocities[j.indexB].V
	wB := data.Velocities[j.indexB].W

	qB := data.Pool.popRot()
	K := data.Pool.popMat22()
	defer data.Pool.pushRot(1)
	defer data.Pool.pushMat22(1)
	qB.Set(aB)

	mass := j.bodyB.Mass()

	// Frequency
	omega := 2.0 * Pi * j.frequencyHz

	// Damping coefficient
	d := 2.0 * mass * j.dampingRatio * omega

	// Spring stiffness
	k := mass * (omega * omega)

	// magic formulas
	// gamma has units of inverse mass.
	// beta has units of inverse time.
	h := data.Step.Dt
	assert(d+h*k > Epsilon, "mouse joint needs a positive frequency and mass")
	j.gamma = h * (d + h*k)
	if j.gamma != 0.0 {
		j.gamma = 1.0 / j.gamma
	}
	j.beta = h * k * j.gamma

	// Compute the effective mass matrix.
	j.rB = RotMulVec(*qB, j.localAnchorB.Sub(j.localCenterB))

	// K    = [(1/m1 + 1/m2) * eye(2) - skew(r1) * invI1 * skew(r1) - skew(r2) * invI2 * skew(r2)]
	//      = [1/m1+1/m2     0    ] + invI1 * [r1.y*r1.y -r1.x*r1.y] + invI2 * [r1.y*r1.y -r1.x*r1.y]
	//        [    0     1/m1+1/m2]           [-r1.x*r1.y r1.x*r1.x]           [-r1.x*r1.y r1.x*r1.x]
	K.Ex.X = j.invMassB + j.invIB*j.rB.Y*j.rB.Y + j.gamma
	K.Ex.Y = -j.invIB * j.rB.X * j.rB.Y
	K.Ey.X = K.Ex.Y
	K.Ey.Y = j.invMassB + j.invIB*j.rB.X*j.rB.X + j.gamma

	j.mass = K.Inverse()

	j.C = cB.Add(j.rB).Sub(j.targetA).Mul(j.beta)

	// Cheat with some damping
	wB *= 0.98

	if data.Step.WarmStarting {
		j.impulse = j.impulse.Mul(data.Step.DtRatio)
		vB = vB.Add(j.impulse.Mul(j.invMassB))
		wB += j.invIB * j.rB.Cross(j.impulse)
	} else {
		j.impulse.SetZero()
	}

	data.Velocities[j.indexB] = Velocity{V: vB, W: wB}
}

func (j *MouseJointImpl) solveVelocityConstraints(data *SolverData) {
	vB := data.Velocities[j.indexB].V
	wB := data.Velocities[j.indexB].W

	// Cdot = v + cross(w, r)
	Cdot := vB.Add(CrossSV(wB, j.rB))
	impulse := Mat22MulVec(j.mass, Cdot.Add(j.C).Add(j.impulse.Mul(j.gamma)).Neg())

	oldImpulse := j.impulse
	j.impulse = j.impulse.Add(impulse)
	maxImpulse := data.Step.Dt * j.maxForce
	if j.impulse.LengthSquared() > maxImpulse*maxImpulse {
		j.impulse = j.impulse.Mul(maxImpulse / j.impulse.Length())
	}
	impulse = j.impulse.Sub(oldImpulse)

	vB = vB.Add(impulse.Mul(j.invMassB))
	wB += j.invIB * j.rB.Cross(impulse)

	data.Velocities[j.indexB] = Velocity{V: vB, W: wB}
}

func (j *MouseJointImpl) solvePositionConstraints(data *SolverData) bool {
	return true
}
