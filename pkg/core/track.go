// pkg/core/track.go
package core

import "github.com/go-gl/mathgl/mgl64"

// PointID identifies a control point for the lifetime of its path.
type PointID uint64

// LoopSpec marks a control point as the entry of a vertical loop.
// Pitch is the net forward advance over one turn (0 for a pure vertical loop).
// Lateral is the corkscrew offset keeping the ascending and descending
// strands apart.
type LoopSpec struct {
	Radius  float64 `json:"radius"`  // metres
	Pitch   float64 `json:"pitch"`   // metres per turn
	Lateral float64 `json:"lateral"` // metres
}

// ControlPoint is a user-placed point on the ride path.
type ControlPoint struct {
	ID       PointID    `json:"id"`
	Position mgl64.Vec3 `json:"position"`
	Tilt     float64    `json:"tilt"` // bank angle, degrees
	Loop     *LoopSpec  `json:"loop,omitempty"`
}

// HasLoop reports whether the point carries a loop marker.
func (p ControlPoint) HasLoop() bool { return p.Loop != nil }

// Frame is an orthonormal reference frame at a point on the track.
type Frame struct {
	Tangent mgl64.Vec3
	Up      mgl64.Vec3
	Right   mgl64.Vec3
}

// Sample is the track geometry at a given progress value.
// Up and Right are the locally defined frame; they are not transported.
type Sample struct {
	Progress float64
	Point    mgl64.Vec3
	Tangent  mgl64.Vec3
	Up       mgl64.Vec3
	Right    mgl64.Vec3
	Tilt     float64 // interpolated bank, degrees
	Section  int     // index into the section table
}

// Frame returns the local frame carried by the sample.
func (s Sample) Frame() Frame {
	return Frame{Tangent: s.Tangent, Up: s.Up, Right: s.Right}
}
