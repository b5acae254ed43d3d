package kbox2d

import "fmt"

type JointType uint8

const (
	UnknownJoint JointType = iota
	RevoluteJoint
	DistanceJoint
	MouseJoint
	WeldJoint
	FrictionJoint
)

func (t JointType) String() string {
	switch t {
	case RevoluteJoint:
		return "revolute"
	case DistanceJoint:
		return "distance"
	case MouseJoint:
		return "mouse"
	case WeldJoint:
		return "weld"
	case FrictionJoint:
		return "friction"
	}
	return fmt.Sprintf("JointType(%d)", uint8(t))
}

type limitState uint8

const (
	inactiveLimit limitState = iota
	atLowerLimit
	atUpperLimit
	equalLimits
)

/// A joint edge is used to connect bodies and joints together
/// in a joint graph where each body is a node and each joint
/// is an edge. A joint edge belongs to a doubly linked list
/// maintained in each attached body. Each joint has two joint
/// nodes, one for each attached body.
type JointEdge struct {
	Other *Body      ///< provides quick access to the other body attached.
	Joint Joint      ///< the joint
	Prev  *JointEdge ///< the previous joint edge in the body's joint list
	Next  *JointEdge ///< the next joint edge in the body's joint list
}

/// Joint definitions are used to construct joints.
type JointDef struct {
	/// The joint type is set automatically for concrete joint types.
	Type JointType

	/// Use this to attach application specific data to your joints.
	UserData interface{}

	/// The first attached body.
	BodyA *Body

	/// The second attached body.
	BodyB *Body

	/// Set this flag to true if the attached bodies should collide.
	CollideConnected bool
}

/// JointDefinition is implemented by every concrete joint definition
/// through the embedded JointDef.
type JointDefinition interface {
	jointDef() *JointDef
}

func (def *JointDef) jointDef() *JointDef { return def }

/// Joint is the interface of all joints. Joints connect two bodies and are
/// created with World.CreateJoint.
type Joint interface {
	Type() JointType
	BodyA() *Body
	BodyB() *Body

	/// AnchorA is the anchor point on bodyA in world coordinates.
	AnchorA() Vec2

	/// AnchorB is the anchor point on bodyB in world coordinates.
	AnchorB() Vec2

	/// ReactionForce on bodyB at the joint anchor in Newtons.
	ReactionForce(invDt float64) Vec2

	/// ReactionTorque on bodyB in N*m.
	ReactionTorque(invDt float64) float64

	/// Next returns the next joint in the world list.
	Next() Joint

	UserData() interface{}
	SetUserData(data interface{})

	/// CollideConnected reports whether the joined bodies may collide.
	CollideConnected() bool

	/// IsActive is true when both bodies are active.
	IsActive() bool

	/// ShiftOrigin shifts the world origin for joints that store world
	/// points.
	ShiftOrigin(newOrigin Vec2)

	base() *joint
	initVelocityConstraints(data *SolverData)
	solveVelocityConstraints(data *SolverData)
	solvePositionConstraints(data *SolverData) bool
}

// joint holds the state common to every joint; concrete joints embed it.
type joint struct {
	jointType JointType
	prev      Joint
	next      Joint
	edgeA     JointEdge
	edgeB     JointEdge
	bodyA     *Body
	bodyB     *Body

	islandFlag       bool
	collideConnected bool
	destroyed        bool

	userData interface{}
}

func makeJoint(def *JointDef) joint {
	assert(def.BodyA != nil && def.BodyB != nil, "joint needs two bodies")
	assert(def.BodyA != def.BodyB, "joint between a body and itself")

	return joint{
		jointType:        def.Type,
		bodyA:            def.BodyA,
		bodyB:            def.BodyB,
		collideConnected: def.CollideConnected,
		userData:         def.UserData,
	}
}

func (j *joint) base() *joint                 { return j }
func (j *joint) Type() JointType              { return j.jointType }
func (j *joint) BodyA() *Body                 { return j.bodyA }
func (j *joint) BodyB() *Body                 { return j.bodyB }
func (j *joint) Next() Joint                  { return j.next }
func (j *joint) UserData() interface{}        { return j.userData }
func (j *joint) SetUserData(data interface{}) { j.userData = data }
func (j *joint) CollideConnected() bool       { return j.collideConnected }
func (j *joint) ShiftOrigin(newOrigin Vec2)   {}

func (j *joint) IsActive() bool {
	return j.bodyA.IsActive() && j.bodyB.IsActive()
}

// newJoint is the joint factory.
func newJoint(def JointDefinition) Joint {
	switch d := def.(type) {
	case *DistanceJointDef:
		return newDistanceJoint(d)
	case *RevoluteJointDef:
		return newRevoluteJoint(d)
	case *WeldJointDef:
		return newWeldJoint(d)
	case *MouseJointDef:
		return newMouseJoint(d)
	case *FrictionJointDef:
		return newFrictionJoint(d)
	}

	panic(fmt.Sprintf("kbox2d: unsupported joint definition %T", def))
}

// jointBodyState gathers what every joint solver reads about its two bodies.
type jointBodyState struct {
	indexA, indexB             int
	localCenterA, localCenterB Vec2
	invMassA, invMassB         float64
	invIA, invIB               float64
}

func (j *joint) bodyState() jointBodyState {
	return jointBodyState{
		indexA:       j.bodyA.islandIndex,
		indexB:       j.bodyB.islandIndex,
		localCenterA: j.bodyA.sweep.LocalCenter,
		localCenterB: j.bodyB.sweep.LocalCenter,
		invMassA:     j.bodyA.invMass,
		invMassB:     j.bodyB.invMass,
		invIA:        j.bodyA.invI,
		invIB:        j.bodyB.invI,
	}
}

// pointAngleMass is the 3x3 mass matrix K of a point-to-point constraint
// combined with an angular constraint, with anchors rA and rB.
//
//	J = [-I -r1_skew I r2_skew]
//	    [ 0       -1 0       1]
func (s *jointBodyState) pointAngleMass(rA, rB Vec2) Mat33 {
	mA, mB := s.invMassA, s.invMassB
	iA, iB := s.invIA, s.invIB

	k11 := mA + mB + rA.Y*rA.Y*iA + rB.Y*rB.Y*iB
	k12 := -rA.Y*rA.X*iA - rB.Y*rB.X*iB
	k13 := -rA.Y*iA - rB.Y*iB
	k22 := mA + mB + rA.X*rA.X*iA + rB.X*rB.X*iB
	k23 := rA.X*iA + rB.X*iB
	k33 := iA + iB

	return MakeMat33(Vec3{k11, k12, k13}, Vec3{k12, k22, k23}, Vec3{k13, k23, k33})
}

// pointMass is the upper 2x2 block of pointAngleMass.
func (s *jointBodyState) pointMass(rA, rB Vec2) Mat22 {
	mA, mB := s.invMassA, s.invMassB
	iA, iB := s.invIA, s.invIB

	k12 := -iA*rA.X*rA.Y - iB*rB.X*rB.Y
	return MakeMat22FromScalars(
		mA+mB+iA*rA.Y*rA.Y+iB*rB.Y*rB.Y, k12,
		k12, mA+mB+iA*rA.X*rA.X+iB*rB.X*rB.X,
	)
}
