package kbox2d

import "math"

/// Distance joint definition. This requires defining an anchor point on both
/// bodies and the non-zero length of the distance joint. The definition uses
/// local anchor points so that the initial configuration can violate the
/// constraint slightly.
type DistanceJointDef struct {
	JointDef

	/// The local anchor point relative to bodyA's origin.
	LocalAnchorA Vec2

	/// The local anchor point relative to bodyB's origin.
	LocalAnchorB Vec2

	/// The natural length between the anchor points. Do not use a zero or
	/// short length.
	Length float64

	/// The mass-spring-damper frequency in Hertz. A value of 0
	/// disables softness.
	FrequencyHz float64

	/// The damping ratio. 0 = no damping, 1 = critical damping.
	DampingRatio float64
}

func MakeDistanceJointDef() DistanceJointDef {
	return DistanceJointDef{
		JointDef: JointDef{Type: DistanceJoint},
		Length:   1.0,
	}
}

/// Initialize the bodies, anchors, and length using the world anchors.
func (def *DistanceJointDef) Initialize(bodyA, bodyB *Body, anchorA, anchorB Vec2) {
	def.BodyA = bodyA
	def.BodyB = bodyB
	def.LocalAnchorA = bodyA.LocalPoint(anchorA)
	def.LocalAnchorB = bodyB.LocalPoint(anchorB)
	def.Length = anchorB.Sub(anchorA).Length()
}

/// A distance joint constrains two points on two bodies to remain at a fixed
/// distance from each other. You can view this as a massless, rigid rod.
type DistanceJointImpl struct {
	joint

	frequencyHz  float64
	dampingRatio float64
	bias         float64

	// Solver shared
	localAnchorA Vec2
	localAnchorB Vec2
	gamma        float64
	impulse      float64
	length       float64

	// Solver temp
	jointBodyState
	u    Vec2
	rA   Vec2
	rB   Vec2
	mass float64
}

func newDistanceJoint(def *DistanceJointDef) *DistanceJointImpl {
	def.Type = DistanceJoint
	return &DistanceJointImpl{
		joint:        makeJoint(&def.JointDef),
		localAnchorA: def.LocalAnchorA,
		localAnchorB: def.LocalAnchorB,
		length:       def.Length,
		frequencyHz:  def.FrequencyHz,
		dampingRatio: def.DampingRatio,
	}
}

func (j *DistanceJointImpl) LocalAnchorA() Vec2 { return j.localAnchorA }
func (j *DistanceJointImpl) LocalAnchorB() Vec2 { return j.localAnchorB }

func (j *DistanceJointImpl) SetLength(length float64)       { j.length = length }
func (j *DistanceJointImpl) Length() float64                { return j.length }
func (j *DistanceJointImpl) SetFrequency(hz float64)        { j.frequencyHz = hz }
func (j *DistanceJointImpl) Frequency() float64             { return j.frequencyHz }
func (j *DistanceJointImpl) SetDampingRatio(r float64)      { j.dampingRatio = r }
func (j *DistanceJointImpl) DampingRatio() float64          { return j.dampingRatio }
func (j *DistanceJointImpl) AnchorA() Vec2                  { return j.bodyA.WorldPoint(j.localAnchorA) }
func (j *DistanceJointImpl) AnchorB() Vec2                  { return j.bodyB.WorldPoint(j.localAnchorB) }
func (j *DistanceJointImpl) ReactionTorque(float64) float64 { return 0.0 }

func (j *DistanceJointImpl) ReactionForce(invDt float64) Vec2 {
	return j.u.Mul(invDt * j.impulse)
}

// 1-D constrained system
// m (v2 - v1) = lambda
// v2 + (beta/h) * x1 + gamma * lambda = 0, gamma has units of inverse mass.
// x2 = x1 + h * v2

// 1-D mass-damper-spring system
// m (v2 - v1) + h * d * v2 + h * k *

// C = norm(p2 - p1) - L
// u = (p2 - p1) / norm(p2 - p1)
// Cdot = dot(u, v2 + cross(w2, r2) - v1 - cross(w1, r1))
// J = [-u -cross(r1, u) u cross(r2, u)]
// K = J * invM * JT
//   = invMass1 + invI1 * cross(r1, u)^2 + invMass2 + invI2 * cross(r2, u)^2

func (j *DistanceJointImpl) initVelocityConstraints(data *SolverData) {
	j.jointBodyState = j.bodyState()

	cA := data.Positions[j.indexA].C
	aA := data.Positions[j.indexA].A
	vA := data.Velocities[j.indexA].V
	wA := data.Velocities[j.indexA].W

	cB := data.Positions[j.indexB].C
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
	j.u = cB.Add(j.rB).Sub(cA).Sub(j.rA)

	// Handle singularity.
	length := j.u.Length()
	if length > LinearSlop {
		j.u = j.u.Mul(1.0 / length)
	} else {
		j.u.SetZero()
	}

	crAu := j.rA.Cross(j.u)
	crBu := j.rB.Cross(j.u)
	invMass := j.invMassA + j.invIA*crAu*crAu + j.invMassB + j.invIB*crBu*crBu

	// Compute the effective mass matrix.
	j.mass = 0.0
	if invMass != 0.0 {
		j.mass = 1.0 / invMass
	}

	j.gamma = 0.0
	j.bias = 0.0
	if j.frequencyHz > 0.0 {
		C := length - j.length

		// Frequency
		omega := 2.0 * Pi * j.frequencyHz

		// Damping coefficient
		d := 2.0 * j.mass * j.dampingRatio * omega

		// Spring stiffness
		k := j.mass * omega * omega

		// magic formulas
		h := data.Step.Dt
		j.gamma = h * (d + h*k)
		if j.gamma != 0.0 {
			j.gamma = 1.0 / j.gamma
		}
		j.bias = C * h * k * j.gamma

		invMass += j.gamma
		j.mass = 0.0
		if invMass != 0.0 {
			j.mass = 1.0 / invMass
		}
	}

	if data.Step.WarmStarting {
		// Scale the impulse to support a variable time step.
		j.impulse *= data.Step.DtRatio

		P := j.u.Mul(j.impulse)
		vA = vA.Sub(P.Mul(j.invMassA))
		wA -= j.invIA * j.rA.Cross(P)
		vB = vB.Add(P.Mul(j.invMassB))
		wB += j.invIB * j.rB.Cross(P)
	} else {
		j.impulse = 0.0
	}

	data.Velocities[j.indexA] = Velocity{V: vA, W: wA}
	data.Velocities[j.indexB] = Velocity{V: vB, W: wB}
}

func (j *DistanceJointImpl) solveVelocityConstraints(data *SolverData) {
	vA := data.Velocities[j.indexA].V
	wA := data.Velocities[j.indexA].W
	vB := data.Velocities[j.indexB].V
	wB := data.Velocities[j.indexB].W

	// Cdot = dot(u, v + cross(w, r))
	vpA := vA.Add(CrossSV(wA, j.rA))
	vpB := vB.Add(CrossSV(wB, j.rB))
	Cdot := j.u.Dot(vpB.Sub(vpA))

	impulse := -j.mass * (Cdot + j.bias + j.gamma*j.impulse)
	j.impulse += impulse

	P := j.u.Mul(impulse)
	vA = vA.Sub(P.Mul(j.invMassA))
	wA -= j.invIA * j.rA.Cross(P)
	vB = vB.Add(P.Mul(j.invMassB))
	wB += j.invIB * j.rB.Cross(P)

	data.Velocities[j.indexA] = Velocity{V: vA, W: wA}
	data.Velocities[j.indexB] = Velocity{V: vB, W: wB}
}

func (j *DistanceJointImpl) solvePositionConstraints(data *SolverData) bool {
	if j.frequencyHz > 0.0 {
		// There is no position correction for soft distance constraints.
		return true
	}

	cA := data.Positions[j.indexA].C
	aA := data.Positions[j.indexA].A
	cB := data.Positions[j.indexB].C
	aB := data.Positions[j.indexB].A

	qA := data.Pool.popRot()
	qB := data.Pool.popRot()
	defer data.Pool.pushRot(2)
	qA.Set(aA)
	qB.Set(aB)

	rA := RotMulVec(*qA, j.localAnchorA.Sub(j.localCenterA))
	rB := RotMulVec(*qB, j.localAnchorB.Sub(j.localCenterB))
	u := cB.Add(rB).Sub(cA).Sub(rA)

	length := u.Normalize()
	C := clampFloat(length-j.length, -MaxLinearCorrection, MaxLinearCorrection)

	impulse := -j.mass * C
	P := u.Mul(impulse)

	cA = cA.Sub(P.Mul(j.invMassA))
	aA -= j.invIA * rA.Cross(P)
	cB = cB.Add(P.Mul(j.invMassB))
	aB += j.invIB * rB.Cross(P)

	data.Positions[j.indexA] = Position{C: cA, A: aA}
	data.Positions[j.indexB] = Position{C: cB, A: aB}

	return math.Abs(C) < LinearSlop
}
