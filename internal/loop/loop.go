// Package loop places analytic vertical loops on marked control points and
// reconnects them to the surrounding track.
//
// A loop starts at its control point, turns once about its lateral axis and
// leaves at Exit, which is the entry advanced by the loop pitch along
// Forward. The turn angle follows θ(u) = 2πu − sin(2πu), so the angular rate
// is zero at both ends and the loop meets the approach and departure
// direction tangentially.
package loop

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/nizalia829/roller-coaster-builder/internal/vmath"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// Loop is one analytic loop in world space.
type Loop struct {
	Entry   mgl64.Vec3
	Forward mgl64.Vec3 // horizontal unit direction of travel at entry
	Up      mgl64.Vec3
	Right   mgl64.Vec3 // Forward × Up
	Radius  float64
	Pitch   float64
	Lateral float64
}

// New builds a loop at entry heading along forward. Forward is flattened to
// the horizontal plane; a vertical or zero forward falls back to world
// forward.
func New(entry, forward mgl64.Vec3, spec core.LoopSpec) Loop {
	f, ok := vmath.Horizontal(forward)
	if !ok {
		f = vmath.WorldForward
	}
	up := vmath.WorldUp
	return Loop{
		Entry:   entry,
		Forward: f,
		Up:      up,
		Right:   f.Cross(up).Normalize(),
		Radius:  spec.Radius,
		Pitch:   spec.Pitch,
		Lateral: spec.Lateral,
	}
}

// Theta returns the eased turn angle at u.
func Theta(u float64) float64 {
	return 2*math.Pi*u - math.Sin(2*math.Pi*u)
}

func thetaRate(u float64) float64 {
	return 2 * math.Pi * (1 - math.Cos(2*math.Pi*u))
}

// Exit is where the loop hands back to the track.
func (l Loop) Exit() mgl64.Vec3 {
	return l.Entry.Add(l.Forward.Mul(l.Pitch))
}

// Point returns the loop position at u in [0,1].
func (l Loop) Point(u float64) mgl64.Vec3 {
	u = mgl64.Clamp(u, 0, 1)
	th := Theta(u)
	sin, cos := math.Sincos(th)
	return l.Entry.
		Add(l.Forward.Mul(l.Pitch*u + l.Radius*sin)).
		Add(l.Up.Mul(l.Radius * (1 - cos))).
		Add(l.Right.Mul(l.Lateral * sin))
}

// Derivative returns dP/du.
func (l Loop) Derivative(u float64) mgl64.Vec3 {
	u = mgl64.Clamp(u, 0, 1)
	th := Theta(u)
	rate := thetaRate(u)
	sin, cos := math.Sincos(th)
	return l.Forward.Mul(l.Pitch + l.Radius*cos*rate).
		Add(l.Up.Mul(l.Radius * sin * rate)).
		Add(l.Right.Mul(l.Lateral * cos * rate))
}

// Tangent returns the unit direction of travel at u. At the ends, and
// wherever the derivative vanishes, it is Forward.
func (l Loop) Tangent(u float64) mgl64.Vec3 {
	if u <= 0 || u >= 1 {
		return l.Forward
	}
	return vmath.Normalize(l.Derivative(u), l.Forward)
}

// RiderUp returns the rider's up vector at u: the entry up rotated by θ
// about the lateral axis, so it points into the loop and is inverted at the
// top. The result is made orthogonal to tangent.
func (l Loop) RiderUp(u float64, tangent mgl64.Vec3) mgl64.Vec3 {
	sin, cos := math.Sincos(Theta(mgl64.Clamp(u, 0, 1)))
	up := l.Up.Mul(cos).Sub(l.Forward.Mul(sin))
	return vmath.Orthogonalize(up, tangent)
}
