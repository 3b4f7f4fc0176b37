// Package vmath holds the small set of vector helpers shared by the track
// geometry packages. All helpers take and return mgl64 values; nothing is
// mutated in place.
package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the length below which a vector is treated as zero.
const Epsilon = 1e-9

// ParallelEpsilon is the tolerance on |dot| - 1 below which two unit vectors
// are treated as parallel or anti-parallel.
const ParallelEpsilon = 1e-7

var (
	WorldUp      = mgl64.Vec3{0, 1, 0}
	WorldForward = mgl64.Vec3{0, 0, 1}
	WorldRight   = mgl64.Vec3{1, 0, 0}
)

// Normalize returns v scaled to unit length, or fallback when v is too short
// to have a direction.
func Normalize(v, fallback mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < Epsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return fallback
	}
	return v.Mul(1 / l)
}

// Reject removes the component of v along the unit vector axis.
func Reject(v, axis mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(axis.Mul(v.Dot(axis)))
}

// Horizontal projects v onto the world-horizontal plane and normalizes it.
// ok is false when v is (near) vertical.
func Horizontal(v mgl64.Vec3) (dir mgl64.Vec3, ok bool) {
	h := mgl64.Vec3{v[0], 0, v[2]}
	if h.Len() < 1e-6 {
		return mgl64.Vec3{}, false
	}
	return h.Normalize(), true
}

// UpFor returns a unit vector orthogonal to tangent, as close to world-up as
// possible. When the tangent is within a small angle of vertical, world
// forward (then world right) is projected instead.
func UpFor(tangent mgl64.Vec3) mgl64.Vec3 {
	for _, ref := range []mgl64.Vec3{WorldUp, WorldForward, WorldRight} {
		if math.Abs(tangent.Dot(ref)) > 1-1e-4 {
			continue
		}
		up := Reject(ref, tangent)
		if up.Len() > 1e-6 {
			return up.Normalize()
		}
	}
	return WorldUp
}

// Orthogonalize makes up orthogonal to the unit tangent. When the result
// collapses, the world-up projection is substituted.
func Orthogonalize(up, tangent mgl64.Vec3) mgl64.Vec3 {
	o := Reject(up, tangent)
	if o.Len() < 1e-6 {
		return UpFor(tangent)
	}
	return o.Normalize()
}

// MinimalRotation returns the rotation taking unit vector from onto unit
// vector to about their common normal. ok is false when the vectors are
// parallel or anti-parallel within ParallelEpsilon.
func MinimalRotation(from, to mgl64.Vec3) (q mgl64.Quat, ok bool) {
	d := mgl64.Clamp(from.Dot(to), -1, 1)
	if math.Abs(d) > 1-ParallelEpsilon {
		return mgl64.QuatIdent(), false
	}
	axis := from.Cross(to)
	if axis.Len() < Epsilon {
		return mgl64.QuatIdent(), false
	}
	return mgl64.QuatRotate(math.Acos(d), axis.Normalize()), true
}

// RotateAbout rotates v by angle radians about the unit axis.
func RotateAbout(v, axis mgl64.Vec3, angle float64) mgl64.Vec3 {
	if angle == 0 {
		return v
	}
	return mgl64.QuatRotate(angle, axis).Rotate(v)
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// LerpFloat linearly interpolates between a and b.
func LerpFloat(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Finite reports whether every component of v is a finite number.
func Finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// AngleBetween returns the angle in radians between two unit vectors.
func AngleBetween(a, b mgl64.Vec3) float64 {
	return math.Acos(mgl64.Clamp(a.Dot(b), -1, 1))
}

// Near reports whether a and b are within tol of each other.
func Near(a, b mgl64.Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}
