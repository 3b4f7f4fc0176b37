package track

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/nizalia829/roller-coaster-builder/internal/curve"
	"github.com/nizalia829/roller-coaster-builder/internal/loop"
	"github.com/nizalia829/roller-coaster-builder/internal/vmath"
)

// Kind tags the geometry a section is evaluated with.
type Kind int

const (
	KindSpline Kind = iota
	KindTransition
	KindLoop
)

func (k Kind) String() string {
	switch k {
	case KindSpline:
		return "spline"
	case KindTransition:
		return "transition"
	case KindLoop:
		return "loop"
	}
	return "unknown"
}

// Shape is the closed-form geometry of one section over u in [0,1].
type Shape interface {
	At(u float64) (point, tangent mgl64.Vec3)
	Up(u float64, tangent mgl64.Vec3) mgl64.Vec3
}

// splineShape is the span [tStart,tEnd] of the shared Catmull-Rom curve.
type splineShape struct {
	curve        *curve.CatmullRom
	tStart, tEnd float64
}

func (s splineShape) At(u float64) (mgl64.Vec3, mgl64.Vec3) {
	t := vmath.LerpFloat(s.tStart, s.tEnd, u)
	return s.curve.Point(t), s.curve.Tangent(t)
}

func (s splineShape) Up(_ float64, tangent mgl64.Vec3) mgl64.Vec3 {
	return vmath.UpFor(tangent)
}

type hermiteShape struct {
	curve.Hermite
}

func (h hermiteShape) At(u float64) (mgl64.Vec3, mgl64.Vec3) {
	return h.Point(u), h.Tangent(u)
}

func (h hermiteShape) Up(_ float64, tangent mgl64.Vec3) mgl64.Vec3 {
	return vmath.UpFor(tangent)
}

type loopShape struct {
	loop.Loop
}

func (l loopShape) At(u float64) (mgl64.Vec3, mgl64.Vec3) {
	return l.Point(u), l.Tangent(u)
}

func (l loopShape) Up(u float64, tangent mgl64.Vec3) mgl64.Vec3 {
	return l.RiderUp(u, tangent)
}

// Section is one contiguous span of the ride path.
type Section struct {
	Kind          Kind
	Shape         Shape
	From, To      int // control point indices at either end; equal for loops
	Length        float64
	ProgressStart float64
	ProgressEnd   float64
	TiltStart     float64
	TiltEnd       float64

	// cumulative arc length at u = i/(len-1)
	arc []float64
}

// Contains reports whether progress falls in [ProgressStart, ProgressEnd).
func (s *Section) Contains(progress float64) bool {
	return progress >= s.ProgressStart && progress < s.ProgressEnd
}

// measure fills the arc-length table by summing chords over n uniform steps.
func (s *Section) measure(n int) {
	if n < 10 {
		n = 10
	}
	s.arc = make([]float64, n+1)
	prev, _ := s.Shape.At(0)
	for i := 1; i <= n; i++ {
		p, _ := s.Shape.At(float64(i) / float64(n))
		s.arc[i] = s.arc[i-1] + p.Sub(prev).Len()
		prev = p
	}
	s.Length = s.arc[n]
}

// param maps a fraction of the section's arc length to the shape parameter u.
func (s *Section) param(fraction float64) float64 {
	n := len(s.arc) - 1
	if n <= 0 || s.Length <= 0 {
		return mgl64.Clamp(fraction, 0, 1)
	}
	d := mgl64.Clamp(fraction, 0, 1) * s.Length
	i := sort.SearchFloat64s(s.arc, d)
	if i <= 0 {
		return 0
	}
	if i > n {
		return 1
	}
	span := s.arc[i] - s.arc[i-1]
	f := 0.0
	if span > 0 {
		f = (d - s.arc[i-1]) / span
	}
	return (float64(i-1) + f) / float64(n)
}
