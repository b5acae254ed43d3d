package kbox2d

import "math"

const (
	MaxFloat = math.MaxFloat64
	// Epsilon is the float64 machine epsilon.
	Epsilon = 2.220446049250313e-16
	Pi      = math.Pi
	twoPi   = 2.0 * math.Pi
)

/// @file
/// Global tuning constants based on meters-kilograms-seconds (MKS) units.

// Collision

/// The maximum number of contact points between two convex shapes. Do
/// not change this value.
const MaxManifoldPoints = 2

/// The maximum number of vertices on a convex polygon.
const MaxPolygonVertices = 8

/// This is used to fatten AABBs in the dynamic tree. This allows proxies
/// to move by a small amount without triggering a tree adjustment.
/// This is in meters.
const AABBExtension = 0.1

/// This is used to fatten AABBs in the dynamic tree. This is used to predict
/// the future position based on the current displacement.
/// This is a dimensionless multiplier.
const AABBMultiplier = 2.0

/// A small length used as a collision and constraint tolerance. Usually it is
/// chosen to be numerically significant, but visually insignificant.
const LinearSlop = 0.005

/// A small angle used as a collision and constraint tolerance.
const AngularSlop = 2.0 / 180.0 * Pi

/// The radius of the polygon/edge shape skin. This should not be modified. Making
/// this smaller means polygons will have an insufficient buffer for continuous collision.
/// Making it larger may create artifacts for vertex collision.
const PolygonRadius = 2.0 * LinearSlop

/// Maximum number of sub-steps per contact in continuous physics simulation.
const MaxSubSteps = 8

// Dynamics

/// Maximum number of contacts to be handled to solve a TOI impact.
const MaxTOIContacts = 32

/// A velocity threshold for elastic collisions. Any collision with a relative linear
/// velocity below this threshold will be treated as inelastic.
const VelocityThreshold = 1.0

/// The maximum linear position correction used when solving constraints.
const MaxLinearCorrection = 0.2

/// The maximum angular position correction used when solving constraints.
const MaxAngularCorrection = 8.0 / 180.0 * Pi

/// The maximum linear translation of a body per step. This limit is very large and is used
/// to prevent numerical problems. You shouldn't need to adjust this.
const MaxTranslation = 2.0
const maxTranslationSquared = MaxTranslation * MaxTranslation

/// The maximum angular rotation of a body per step.
const MaxRotation = 0.5 * Pi
const maxRotationSquared = MaxRotation * MaxRotation

/// This scale factor controls how fast overlap is resolved. Ideally this would be 1 so
/// that overlap is removed in one time step. However using values close to 1 often lead
/// to overshoot.
const Baumgarte = 0.2
const TOIBaumgarte = 0.75

// Sleep

/// The time that a body must be still before it will go to sleep.
const TimeToSleep = 0.5

/// A body cannot sleep if its linear velocity is above this tolerance.
const LinearSleepTolerance = 0.01

/// A body cannot sleep if its angular velocity is above this tolerance.
const AngularSleepTolerance = 2.0 / 180.0 * Pi

// Pool

/// DefaultPoolCapacity is the number of scratch values of each kind a WorldPool holds.
const DefaultPoolCapacity = 64

/// MixFriction combines two fixture frictions with the geometric mean.
func MixFriction(friction1, friction2 float64) float64 {
	return math.Sqrt(friction1 * friction2)
}

/// MixRestitution keeps the bouncier of the two fixtures.
func MixRestitution(restitution1, restitution2 float64) float64 {
	if restitution1 > restitution2 {
		return restitution1
	}
	return restitution2
}

func assert(cond bool, msg string) {
	if !cond {
		panic("kbox2d: assertion failed: " + msg)
	}
}
