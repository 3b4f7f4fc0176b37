package curve

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/nizalia829/roller-coaster-builder/internal/vmath"
)

// Hermite is a cubic Hermite segment from P0 to P1 with end derivatives M0
// and M1, parameterized by s in [0,1].
type Hermite struct {
	P0, M0 mgl64.Vec3
	P1, M1 mgl64.Vec3
}

// Bridge builds a Hermite segment between two positions whose end
// derivatives follow the given directions, scaled by the chord length.
func Bridge(from, fromDir, to, toDir mgl64.Vec3) Hermite {
	chord := to.Sub(from).Len()
	fallback := vmath.Normalize(to.Sub(from), vmath.WorldForward)
	return Hermite{
		P0: from,
		M0: vmath.Normalize(fromDir, fallback).Mul(chord),
		P1: to,
		M1: vmath.Normalize(toDir, fallback).Mul(chord),
	}
}

// Point evaluates the segment at s.
func (h Hermite) Point(s float64) mgl64.Vec3 {
	s = mgl64.Clamp(s, 0, 1)
	s2, s3 := s*s, s*s*s
	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2
	return h.P0.Mul(h00).Add(h.M0.Mul(h10)).Add(h.P1.Mul(h01)).Add(h.M1.Mul(h11))
}

// Derivative returns dP/ds at s.
func (h Hermite) Derivative(s float64) mgl64.Vec3 {
	s = mgl64.Clamp(s, 0, 1)
	s2 := s * s
	d00 := 6*s2 - 6*s
	d10 := 3*s2 - 4*s + 1
	d01 := -6*s2 + 6*s
	d11 := 3*s2 - 2*s
	return h.P0.Mul(d00).Add(h.M0.Mul(d10)).Add(h.P1.Mul(d01)).Add(h.M1.Mul(d11))
}

// Tangent returns the unit direction of travel at s.
func (h Hermite) Tangent(s float64) mgl64.Vec3 {
	return vmath.Normalize(h.Derivative(s), vmath.Normalize(h.P1.Sub(h.P0), vmath.WorldForward))
}
