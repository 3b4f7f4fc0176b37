// Package curve builds smooth interpolating curves through control points.
package curve

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/nizalia829/roller-coaster-builder/internal/vmath"
)

// CatmullRom is a uniform Catmull-Rom spline (tension 0.5) through a fixed
// set of points, parameterized by t in [0,1]. The curve passes through every
// point. Open curves get reflected virtual endpoints so the first and last
// segments need no extra control points.
type CatmullRom struct {
	points []mgl64.Vec3
	closed bool
}

// NewCatmullRom builds a curve through points. It returns nil for fewer than
// two points. A closed flag on fewer than three points is ignored.
func NewCatmullRom(points []mgl64.Vec3, closed bool) *CatmullRom {
	if len(points) < 2 {
		return nil
	}
	pts := make([]mgl64.Vec3, len(points))
	copy(pts, points)
	return &CatmullRom{points: pts, closed: closed && len(points) >= 3}
}

// Closed reports whether the curve wraps back to its first point.
func (c *CatmullRom) Closed() bool { return c.closed }

// Segments returns the number of point-to-point spans.
func (c *CatmullRom) Segments() int {
	if c.closed {
		return len(c.points)
	}
	return len(c.points) - 1
}

// ParamAt returns the curve parameter at which the curve passes through
// control point i.
func (c *CatmullRom) ParamAt(i int) float64 {
	return float64(i) / float64(c.Segments())
}

// Point evaluates the curve position at t.
func (c *CatmullRom) Point(t float64) mgl64.Vec3 {
	i, s := c.locate(t)
	p0, p1, p2, p3 := c.span(i)
	s2, s3 := s*s, s*s*s

	a := p1.Mul(2)
	b := p2.Sub(p0).Mul(s)
	d := p0.Mul(2).Sub(p1.Mul(5)).Add(p2.Mul(4)).Sub(p3).Mul(s2)
	e := p1.Mul(3).Sub(p0).Sub(p2.Mul(3)).Add(p3).Mul(s3)
	return a.Add(b).Add(d).Add(e).Mul(0.5)
}

// Derivative returns dP/dt at t.
func (c *CatmullRom) Derivative(t float64) mgl64.Vec3 {
	i, s := c.locate(t)
	p0, p1, p2, p3 := c.span(i)

	b := p2.Sub(p0)
	d := p0.Mul(2).Sub(p1.Mul(5)).Add(p2.Mul(4)).Sub(p3).Mul(2 * s)
	e := p1.Mul(3).Sub(p0).Sub(p2.Mul(3)).Add(p3).Mul(3 * s * s)
	return b.Add(d).Add(e).Mul(0.5 * float64(c.Segments()))
}

// Tangent returns the unit direction of travel at t. Where the derivative
// vanishes (coincident points) the chord of the current span is used.
func (c *CatmullRom) Tangent(t float64) mgl64.Vec3 {
	d := c.Derivative(t)
	if d.Len() >= vmath.Epsilon {
		return d.Normalize()
	}
	i, _ := c.locate(t)
	_, p1, p2, _ := c.span(i)
	return vmath.Normalize(p2.Sub(p1), vmath.WorldForward)
}

func (c *CatmullRom) locate(t float64) (int, float64) {
	n := c.Segments()
	if c.closed {
		t -= math.Floor(t)
	} else {
		t = mgl64.Clamp(t, 0, 1)
	}
	f := t * float64(n)
	i := int(math.Floor(f))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i, f - float64(i)
}

func (c *CatmullRom) span(i int) (p0, p1, p2, p3 mgl64.Vec3) {
	return c.at(i - 1), c.at(i), c.at(i + 1), c.at(i + 2)
}

func (c *CatmullRom) at(i int) mgl64.Vec3 {
	n := len(c.points)
	if c.closed {
		return c.points[((i%n)+n)%n]
	}
	switch {
	case i < 0:
		return c.points[0].Mul(2).Sub(c.points[1])
	case i >= n:
		return c.points[n-1].Mul(2).Sub(c.points[n-2])
	}
	return c.points[i]
}
