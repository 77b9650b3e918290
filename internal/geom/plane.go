// Package geom provides the oriented-plane value type and the
// stacking-direction math used by the layer scheduler.
package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/strataworks/stratum/internal/units"
)

// normalAlignmentEps bounds how far two unit normals may deviate from
// parallel (measured as 1 - dot) while still comparing equal.
const normalAlignmentEps = 1e-9

// parallelEps guards the ray/plane intersection against a direction lying in
// the plane.
const parallelEps = 1e-12

// Plane is an oriented plane defined by a point on the plane and a unit
// normal.
type Plane struct {
	Point  r3.Vec
	Normal r3.Vec
}

// NewPlane returns a plane through point with the given normal. The normal is
// normalized; a zero normal is replaced by +Z.
func NewPlane(point, normal r3.Vec) Plane {
	if r3.Norm(normal) == 0 {
		normal = r3.Vec{Z: 1}
	}
	return Plane{Point: point, Normal: r3.Unit(normal)}
}

// XYPlane returns the horizontal plane at height z with a +Z normal.
func XYPlane(z units.Distance) Plane {
	return Plane{Point: r3.Vec{Z: z.MM()}, Normal: r3.Vec{Z: 1}}
}

// ShiftAlongNormal returns a copy of the plane translated by d along its own
// normal.
func (p Plane) ShiftAlongNormal(d units.Distance) Plane {
	return Plane{
		Point:  r3.Add(p.Point, r3.Scale(d.MM(), p.Normal)),
		Normal: p.Normal,
	}
}

// Offset returns the signed distance from the origin to the plane along its
// normal.
func (p Plane) Offset() float64 {
	return r3.Dot(p.Normal, p.Point)
}

// DistanceAlong returns the signed distance from the origin to the plane
// measured along dir: the t for which t*dir lies on the plane. Returns +Inf
// when dir is parallel to the plane, so degenerate candidates sort last.
func (p Plane) DistanceAlong(dir r3.Vec) float64 {
	denom := r3.Dot(p.Normal, dir)
	if math.Abs(denom) < parallelEps {
		return math.Inf(1)
	}
	return p.Offset() / denom
}

// IsEqual reports whether the two planes coincide within tol. Normals must be
// parallel and same-directed; the offset difference along the shared normal
// must not exceed tol (inclusive, so tol 0 matches exactly coincident
// planes).
func (p Plane) IsEqual(other Plane, tol units.Distance) bool {
	if 1-r3.Dot(p.Normal, other.Normal) > normalAlignmentEps {
		return false
	}
	return math.Abs(p.Offset()-other.Offset()) <= tol.MM()
}

func (p Plane) String() string {
	return fmt.Sprintf("plane(point=(%.4g,%.4g,%.4g) normal=(%.4g,%.4g,%.4g))",
		p.Point.X, p.Point.Y, p.Point.Z, p.Normal.X, p.Normal.Y, p.Normal.Z)
}
