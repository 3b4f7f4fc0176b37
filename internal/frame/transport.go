// Package frame carries a continuous up vector along the track.
//
// Local per-sample up vectors flip where the tangent swings quickly or goes
// vertical. Transport instead rotates the previous up by the minimal rotation
// between consecutive tangents, so it must be fed samples in order of
// increasing progress.
package frame

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/nizalia829/roller-coaster-builder/internal/vmath"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// Transport is the running (tangent, up) state of parallel transport.
type Transport struct {
	tangent mgl64.Vec3
	up      mgl64.Vec3
	primed  bool
}

// Reset forgets the previous frame; the next call to Next seeds from the
// local up it is given.
func (t *Transport) Reset() {
	*t = Transport{}
}

// Primed reports whether a frame has been seeded.
func (t *Transport) Primed() bool { return t.primed }

// Up returns the last transported up vector.
func (t *Transport) Up() mgl64.Vec3 { return t.up }

// Next advances to a new unit tangent and returns the transported up.
// localUp is used only to seed the first frame.
func (t *Transport) Next(tangent, localUp mgl64.Vec3) mgl64.Vec3 {
	if !t.primed {
		t.tangent = tangent
		t.up = vmath.Orthogonalize(localUp, tangent)
		t.primed = true
		return t.up
	}
	up := t.up
	if q, ok := vmath.MinimalRotation(t.tangent, tangent); ok {
		up = q.Rotate(up)
	}
	t.up = vmath.Orthogonalize(up, tangent)
	t.tangent = tangent
	return t.up
}

// Banked returns the frame with up rolled about tangent by tilt degrees.
// Positive tilt rolls up towards right.
func Banked(tangent, up mgl64.Vec3, tilt float64) core.Frame {
	up = vmath.RotateAbout(up, tangent, mgl64.DegToRad(tilt))
	up = vmath.Orthogonalize(up, tangent)
	return core.Frame{
		Tangent: tangent,
		Up:      up,
		Right:   vmath.Normalize(tangent.Cross(up), vmath.WorldRight),
	}
}
