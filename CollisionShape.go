package kbox2d

import (
	"fmt"

	"github.com/pkg/errors"
)

/// MassData holds the mass properties computed for a shape.
type MassData struct {
	/// The mass of the shape, usually in kilograms.
	Mass float64

	/// The position of the shape's centroid relative to the shape's origin.
	Center Vec2

	/// The rotational inertia of the shape about the local origin.
	I float64
}

/// ShapeKind is the closed set of geometry variants. Narrow phase routines
/// are looked up by a pair of kinds.
type ShapeKind uint8

const (
	CircleShapeKind ShapeKind = iota
	EdgeShapeKind
	PolygonShapeKind
	ChainShapeKind
	shapeKindCount
)

func (k ShapeKind) String() string {
	switch k {
	case CircleShapeKind:
		return "circle"
	case EdgeShapeKind:
		return "edge"
	case PolygonShapeKind:
		return "polygon"
	case ChainShapeKind:
		return "chain"
	}
	return fmt.Sprintf("ShapeKind(%d)", uint8(k))
}

/// Shape is immutable collision geometry. Shapes are cloned into fixtures,
/// so a shape value may be reused to create several fixtures.
/// A shape may have several children (chains); every query names the child.
type Shape interface {
	Kind() ShapeKind

	/// Radius is the skin radius. Polygons and edges use PolygonRadius.
	Radius() float64

	/// ChildCount is the number of child primitives.
	ChildCount() int

	/// TestPoint reports containment of a world point. Only convex shapes
	/// have an inside.
	TestPoint(xf Transform, p Vec2) bool

	/// RayCast casts a ray against one child.
	RayCast(output *RayCastOutput, input RayCastInput, xf Transform, childIndex int) bool

	/// ComputeAABB bounds one child under the world transform xf.
	ComputeAABB(xf Transform, childIndex int) AABB

	/// ComputeMass uses the density in kg/m^2. Inertia is about the local origin.
	ComputeMass(density float64) MassData

	/// Validate reports an *InvalidShapeError for unusable geometry.
	Validate() error

	Clone() Shape
}

/// InvalidShapeError is returned when geometry is degenerate, non-convex or
/// otherwise unusable. It is returned by shape setters and by fixture creation.
type InvalidShapeError struct {
	Kind   ShapeKind
	Reason string
}

func (e *InvalidShapeError) Error() string {
	return fmt.Sprintf("kbox2d: invalid %s shape: %s", e.Kind, e.Reason)
}

func invalidShape(kind ShapeKind, format string, args ...interface{}) error {
	return errors.WithStack(&InvalidShapeError{Kind: kind, Reason: fmt.Sprintf(format, args...)})
}

/// IsInvalidShape reports whether err carries an *InvalidShapeError.
func IsInvalidShape(err error) bool {
	var target *InvalidShapeError
	return errors.As(err, &target)
}
