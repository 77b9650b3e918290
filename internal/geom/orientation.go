package geom

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/strataworks/stratum/internal/units"
)

// StackingVector returns the canonical build direction: +Z rotated by the
// quaternion built from pitch, yaw and roll. Composition applies roll about
// Z, then pitch about X, then yaw about Y, matching the Euler convention of
// the slicing front ends that produce the planes.
func StackingVector(pitch, yaw, roll units.Angle) r3.Vec {
	qRoll := r3.NewRotation(roll.Rad(), r3.Vec{Z: 1})
	qPitch := r3.NewRotation(pitch.Rad(), r3.Vec{X: 1})
	qYaw := r3.NewRotation(yaw.Rad(), r3.Vec{Y: 1})
	q := quat.Mul(quat.Number(qYaw), quat.Mul(quat.Number(qPitch), quat.Number(qRoll)))
	return r3.Rotation(q).Rotate(r3.Vec{Z: 1})
}
