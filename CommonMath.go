package kbox2d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

///////////////////////////////////////////////////////////////////////////////
// Scalars
///////////////////////////////////////////////////////////////////////////////

/// IsValid reports whether x is neither NaN nor an infinity.
func IsValid(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func clampFloat(a, low, high float64) float64 {
	return math.Max(low, math.Min(a, high))
}

///////////////////////////////////////////////////////////////////////////////
// Vec2
///////////////////////////////////////////////////////////////////////////////

/// A 2D column vector.
type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func MakeVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v *Vec2) SetZero() {
	v.X = 0.0
	v.Y = 0.0
}

func (v *Vec2) Set(x, y float64) {
	v.X = x
	v.Y = y
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

/// Mul scales the vector by s.
func (v Vec2) Mul(s float64) Vec2 {
	return Vec2{s * v.X, s * v.Y}
}

func (v Vec2) Neg() Vec2 {
	return Vec2{-v.X, -v.Y}
}

func (v Vec2) Dot(o Vec2) float64 {
	return v.X*o.X + v.Y*o.Y
}

/// Cross returns the scalar z component of the 3D cross product.
func (v Vec2) Cross(o Vec2) float64 {
	return v.X*o.Y - v.Y*o.X
}

func (v Vec2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

/// LengthSquared avoids the square root; prefer it for comparisons.
func (v Vec2) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

/// Normalize turns v into a unit vector and returns its former length.
/// Vectors shorter than Epsilon are left untouched and 0 is returned.
func (v *Vec2) Normalize() float64 {
	length := v.Length()
	if length < Epsilon {
		return 0.0
	}

	inv := 1.0 / length
	v.X *= inv
	v.Y *= inv

	return length
}

/// Normalized returns a unit copy of v.
func (v Vec2) Normalized() Vec2 {
	v.Normalize()
	return v
}

func (v Vec2) IsValid() bool {
	return IsValid(v.X) && IsValid(v.Y)
}

/// Skew returns the vector such that dot(skew, other) == cross(v, other).
func (v Vec2) Skew() Vec2 {
	return Vec2{-v.Y, v.X}
}

/// CrossVS computes cross(v, s) for a vector and a scalar.
func CrossVS(v Vec2, s float64) Vec2 {
	return Vec2{s * v.Y, -s * v.X}
}

/// CrossSV computes cross(s, v) for a scalar and a vector.
func CrossSV(s float64, v Vec2) Vec2 {
	return Vec2{-s * v.Y, s * v.X}
}

func Vec2Distance(a, b Vec2) float64 {
	return a.Sub(b).Length()
}

func Vec2DistanceSquared(a, b Vec2) float64 {
	return a.Sub(b).LengthSquared()
}

func Vec2Abs(a Vec2) Vec2 {
	return Vec2{math.Abs(a.X), math.Abs(a.Y)}
}

func Vec2Min(a, b Vec2) Vec2 {
	return Vec2{math.Min(a.X, b.X), math.Min(a.Y, b.Y)}
}

func Vec2Max(a, b Vec2) Vec2 {
	return Vec2{math.Max(a.X, b.X), math.Max(a.Y, b.Y)}
}

///////////////////////////////////////////////////////////////////////////////
// Vec3 / Mat33 (backed by mgl64)
///////////////////////////////////////////////////////////////////////////////

/// Vec3 is used by the 3x3 joint solvers.
type Vec3 = mgl64.Vec3

/// Mat33 is column major: columns are ex, ey, ez.
type Mat33 = mgl64.Mat3

func MakeMat33(ex, ey, ez Vec3) Mat33 {
	return mgl64.Mat3FromCols(ex, ey, ez)
}

/// Mat33Solve33 solves A * x = b. Returns the zero vector for a singular A.
func Mat33Solve33(A Mat33, b Vec3) Vec3 {
	if A.Det() == 0.0 {
		return Vec3{}
	}
	return A.Inv().Mul3x1(b)
}

/// Mat33Solve22 solves the upper 2-by-2 block of A * x = b.
func Mat33Solve22(A Mat33, b Vec2) Vec2 {
	a11, a12 := A.At(0, 0), A.At(0, 1)
	a21, a22 := A.At(1, 0), A.At(1, 1)
	det := a11*a22 - a12*a21
	if det != 0.0 {
		det = 1.0 / det
	}
	return Vec2{det * (a22*b.X - a12*b.Y), det * (a11*b.Y - a21*b.X)}
}

/// Mat33Inverse22 inverts the upper 2-by-2 block; the rest is zeroed.
func Mat33Inverse22(A Mat33) Mat33 {
	a, b := A.At(0, 0), A.At(0, 1)
	c, d := A.At(1, 0), A.At(1, 1)
	det := a*d - b*c
	if det != 0.0 {
		det = 1.0 / det
	}

	var M Mat33
	M.Set(0, 0, det*d)
	M.Set(0, 1, -det*b)
	M.Set(1, 0, -det*c)
	M.Set(1, 1, det*a)
	return M
}

/// Mat33SymInverse returns the inverse of a symmetric A, or zero if singular.
func Mat33SymInverse(A Mat33) Mat33 {
	if A.Det() == 0.0 {
		return Mat33{}
	}
	return A.Inv()
}

/// Mat33MulVec2 multiplies the upper 2-by-2 block of A by v.
func Mat33MulVec2(A Mat33, v Vec2) Vec2 {
	return Vec2{
		A.At(0, 0)*v.X + A.At(0, 1)*v.Y,
		A.At(1, 0)*v.X + A.At(1, 1)*v.Y,
	}
}

///////////////////////////////////////////////////////////////////////////////
// Mat22
///////////////////////////////////////////////////////////////////////////////

/// A 2-by-2 matrix stored in column major order.
type Mat22 struct {
	Ex, Ey Vec2
}

func MakeMat22FromColumns(c1, c2 Vec2) Mat22 {
	return Mat22{Ex: c1, Ey: c2}
}

func MakeMat22FromScalars(a11, a12, a21, a22 float64) Mat22 {
	return Mat22{Ex: Vec2{a11, a21}, Ey: Vec2{a12, a22}}
}

func (m *Mat22) SetIdentity() {
	m.Ex = Vec2{1, 0}
	m.Ey = Vec2{0, 1}
}

func (m *Mat22) SetZero() {
	m.Ex.SetZero()
	m.Ey.SetZero()
}

func (m Mat22) Inverse() Mat22 {
	a, b, c, d := m.Ex.X, m.Ey.X, m.Ex.Y, m.Ey.Y
	det := a*d - b*c
	if det != 0.0 {
		det = 1.0 / det
	}
	return Mat22{
		Ex: Vec2{det * d, -det * c},
		Ey: Vec2{-det * b, det * a},
	}
}

/// Solve A * x = b where b is a column vector. This is more efficient
/// than computing the inverse in one-shot cases.
func (m Mat22) Solve(b Vec2) Vec2 {
	a11, a12, a21, a22 := m.Ex.X, m.Ey.X, m.Ex.Y, m.Ey.Y
	det := a11*a22 - a12*a21
	if det != 0.0 {
		det = 1.0 / det
	}
	return Vec2{det * (a22*b.X - a12*b.Y), det * (a11*b.Y - a21*b.X)}
}

func Mat22MulVec(A Mat22, v Vec2) Vec2 {
	return Vec2{A.Ex.X*v.X + A.Ey.X*v.Y, A.Ex.Y*v.X + A.Ey.Y*v.Y}
}

func Mat22MulTVec(A Mat22, v Vec2) Vec2 {
	return Vec2{v.Dot(A.Ex), v.Dot(A.Ey)}
}

func Mat22Add(A, B Mat22) Mat22 {
	return Mat22{Ex: A.Ex.Add(B.Ex), Ey: A.Ey.Add(B.Ey)}
}

///////////////////////////////////////////////////////////////////////////////
// Rot / Transform / Sweep
///////////////////////////////////////////////////////////////////////////////

/// Rotation as a sine/cosine pair.
type Rot struct {
	S, C float64
}

func MakeRot(angle float64) Rot {
	return Rot{S: math.Sin(angle), C: math.Cos(angle)}
}

func MakeRotIdentity() Rot {
	return Rot{S: 0.0, C: 1.0}
}

func (r *Rot) Set(angle float64) {
	r.S = math.Sin(angle)
	r.C = math.Cos(angle)
}

func (r *Rot) SetIdentity() {
	r.S = 0.0
	r.C = 1.0
}

func (r Rot) Angle() float64 {
	return math.Atan2(r.S, r.C)
}

func (r Rot) XAxis() Vec2 {
	return Vec2{r.C, r.S}
}

func (r Rot) YAxis() Vec2 {
	return Vec2{-r.S, r.C}
}

/// RotMul computes q * r.
func RotMul(q, r Rot) Rot {
	return Rot{
		S: q.S*r.C + q.C*r.S,
		C: q.C*r.C - q.S*r.S,
	}
}

/// RotMulT computes transpose(q) * r.
func RotMulT(q, r Rot) Rot {
	return Rot{
		S: q.C*r.S - q.S*r.C,
		C: q.C*r.C + q.S*r.S,
	}
}

func RotMulVec(q Rot, v Vec2) Vec2 {
	return Vec2{q.C*v.X - q.S*v.Y, q.S*v.X + q.C*v.Y}
}

func RotMulTVec(q Rot, v Vec2) Vec2 {
	return Vec2{q.C*v.X + q.S*v.Y, -q.S*v.X + q.C*v.Y}
}

/// A rigid frame: translation P and rotation Q.
type Transform struct {
	P Vec2
	Q Rot
}

func MakeTransformIdentity() Transform {
	return Transform{Q: MakeRotIdentity()}
}

func MakeTransform(position Vec2, angle float64) Transform {
	return Transform{P: position, Q: MakeRot(angle)}
}

func (t *Transform) SetIdentity() {
	t.P.SetZero()
	t.Q.SetIdentity()
}

func (t *Transform) Set(position Vec2, angle float64) {
	t.P = position
	t.Q.Set(angle)
}

func TransformMulVec(T Transform, v Vec2) Vec2 {
	return Vec2{
		(T.Q.C*v.X - T.Q.S*v.Y) + T.P.X,
		(T.Q.S*v.X + T.Q.C*v.Y) + T.P.Y,
	}
}

func TransformMulTVec(T Transform, v Vec2) Vec2 {
	px := v.X - T.P.X
	py := v.Y - T.P.Y
	return Vec2{T.Q.C*px + T.Q.S*py, -T.Q.S*px + T.Q.C*py}
}

/// TransformMul composes A and B: v2 = A.q.Rot(B.q.Rot(v1) + B.p) + A.p.
func TransformMul(A, B Transform) Transform {
	return Transform{
		Q: RotMul(A.Q, B.Q),
		P: RotMulVec(A.Q, B.P).Add(A.P),
	}
}

/// TransformMulT computes inverse(A) * B.
func TransformMulT(A, B Transform) Transform {
	return Transform{
		Q: RotMulT(A.Q, B.Q),
		P: RotMulTVec(A.Q, B.P.Sub(A.P)),
	}
}

/// Sweep describes the motion of a body over a time step for TOI.
/// The center of mass moves linearly and the angle rotates linearly.
type Sweep struct {
	LocalCenter Vec2    // local center of mass position
	C0, C       Vec2    // center world positions
	A0, A       float64 // world angles

	// Alpha0 is the fraction of the step in [0,1] at which C0 and A0 hold.
	Alpha0 float64
}

/// Transform interpolates the transform at fraction beta of the sweep.
func (s Sweep) Transform(xf *Transform, beta float64) {
	xf.P = s.C0.Mul(1.0 - beta).Add(s.C.Mul(beta))
	angle := (1.0-beta)*s.A0 + beta*s.A
	xf.Q.Set(angle)

	// Shift to origin
	xf.P = xf.P.Sub(RotMulVec(xf.Q, s.LocalCenter))
}

/// Advance moves the start of the sweep forward to alpha.
func (s *Sweep) Advance(alpha float64) {
	assert(s.Alpha0 < 1.0, "sweep alpha0 must be < 1")
	beta := (alpha - s.Alpha0) / (1.0 - s.Alpha0)
	s.C0 = s.C0.Add(s.C.Sub(s.C0).Mul(beta))
	s.A0 += beta * (s.A - s.A0)
	s.Alpha0 = alpha
}

/// Normalize wraps A0 into [0, 2pi) and shifts A by the same amount.
func (s *Sweep) Normalize() {
	d := twoPi * math.Floor(s.A0/twoPi)
	s.A0 -= d
	s.A -= d
}
