package loop

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/nizalia829/roller-coaster-builder/internal/curve"
	"github.com/nizalia829/roller-coaster-builder/internal/vmath"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// Place returns the loop for every loop-marked point, indexed like points;
// unmarked points get nil. The forward direction of a loop is the horizontal
// direction from its predecessor, or world forward when there is none.
// Downstream points are never moved: the track is reconnected with Approach
// and Depart instead.
func Place(points []core.ControlPoint, closed bool) []*Loop {
	n := len(points)
	closed = closed && n >= 3
	loops := make([]*Loop, n)
	for k, pt := range points {
		if pt.Loop == nil {
			continue
		}
		forward := vmath.WorldForward
		if pred, ok := predecessor(k, n, closed); ok {
			forward = pt.Position.Sub(points[pred].Position)
		}
		l := New(pt.Position, forward, *pt.Loop)
		loops[k] = &l
	}
	return loops
}

// Approach is the transition from a point on the track into the loop entry.
func (l Loop) Approach(from, fromDir mgl64.Vec3) curve.Hermite {
	return curve.Bridge(from, fromDir, l.Entry, l.Forward)
}

// Depart is the transition from the loop exit back to a point on the track.
func (l Loop) Depart(to, toDir mgl64.Vec3) curve.Hermite {
	return curve.Bridge(l.Exit(), l.Forward, to, toDir)
}

func predecessor(k, n int, closed bool) (int, bool) {
	if k > 0 {
		return k - 1, true
	}
	if closed {
		return n - 1, true
	}
	return 0, false
}
