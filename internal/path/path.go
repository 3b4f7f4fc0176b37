// Package path holds the ordered list of control points the user edits.
// It owns no derived geometry; the track package rebuilds from a snapshot
// returned by Points.
package path

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"

	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

var (
	// ErrUnknownPoint is returned when an edit names an id not on the path.
	ErrUnknownPoint = errors.New("unknown control point")
	// ErrLoopNeedsSuccessor is returned when a loop is requested on the last
	// point of an open path.
	ErrLoopNeedsSuccessor = errors.New("loop needs a following control point")
	// ErrInvalidLoop is returned for non-positive or non-finite loop parameters.
	ErrInvalidLoop = errors.New("invalid loop parameters")
	// ErrInvalidPosition is returned for non-finite coordinates.
	ErrInvalidPosition = errors.New("invalid position")
)

// Path is an ordered sequence of control points plus the closed flag.
// Ids are handed out by a counter local to the path.
type Path struct {
	points  []core.ControlPoint
	closed  bool
	nextID  core.PointID
	version uint64
}

// New creates an empty open path.
func New() *Path {
	return &Path{}
}

// Add appends a control point and returns its id.
func (p *Path) Add(pos mgl64.Vec3) (core.PointID, error) {
	if !finite(pos) {
		return 0, ErrInvalidPosition
	}
	pt := p.newPoint(pos)
	p.points = append(p.points, pt)
	p.touch()
	return pt.ID, nil
}

// Insert places a new control point directly after the point with id after.
func (p *Path) Insert(after core.PointID, pos mgl64.Vec3) (core.PointID, error) {
	if !finite(pos) {
		return 0, ErrInvalidPosition
	}
	i := p.Index(after)
	if i < 0 {
		return 0, fmt.Errorf("insert after %d: %w", after, ErrUnknownPoint)
	}
	pt := p.newPoint(pos)
	p.points = append(p.points[:i+1], append([]core.ControlPoint{pt}, p.points[i+1:]...)...)
	p.touch()
	return pt.ID, nil
}

// Move sets the position of a control point.
func (p *Path) Move(id core.PointID, pos mgl64.Vec3) error {
	if !finite(pos) {
		return ErrInvalidPosition
	}
	i := p.Index(id)
	if i < 0 {
		return fmt.Errorf("move %d: %w", id, ErrUnknownPoint)
	}
	p.points[i].Position = pos
	p.touch()
	return nil
}

// Delete removes a control point.
func (p *Path) Delete(id core.PointID) error {
	i := p.Index(id)
	if i < 0 {
		return fmt.Errorf("delete %d: %w", id, ErrUnknownPoint)
	}
	p.points = append(p.points[:i], p.points[i+1:]...)
	p.touch()
	return nil
}

// SetTilt sets the bank angle of a control point in degrees.
func (p *Path) SetTilt(id core.PointID, degrees float64) error {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return fmt.Errorf("tilt %d: non-finite angle", id)
	}
	i := p.Index(id)
	if i < 0 {
		return fmt.Errorf("tilt %d: %w", id, ErrUnknownPoint)
	}
	p.points[i].Tilt = degrees
	p.touch()
	return nil
}

// CreateLoop marks a control point as a loop entry. On an open path the last
// point is refused because the loop would have nothing to reconnect to.
func (p *Path) CreateLoop(id core.PointID, spec core.LoopSpec) error {
	if !(spec.Radius > 0) || math.IsInf(spec.Radius, 0) ||
		math.IsNaN(spec.Pitch) || math.IsInf(spec.Pitch, 0) || spec.Pitch < 0 ||
		math.IsNaN(spec.Lateral) || math.IsInf(spec.Lateral, 0) {
		return ErrInvalidLoop
	}
	i := p.Index(id)
	if i < 0 {
		return fmt.Errorf("loop %d: %w", id, ErrUnknownPoint)
	}
	if !p.closed && i == len(p.points)-1 {
		return fmt.Errorf("loop %d: %w", id, ErrLoopNeedsSuccessor)
	}
	s := spec
	p.points[i].Loop = &s
	p.touch()
	return nil
}

// RemoveLoop clears the loop marker of a control point.
func (p *Path) RemoveLoop(id core.PointID) error {
	i := p.Index(id)
	if i < 0 {
		return fmt.Errorf("unloop %d: %w", id, ErrUnknownPoint)
	}
	p.points[i].Loop = nil
	p.touch()
	return nil
}

// SetClosed toggles whether the path loops back to its first point.
func (p *Path) SetClosed(closed bool) {
	if p.closed == closed {
		return
	}
	p.closed = closed
	p.touch()
}

// Closed reports whether the path loops back to its start.
func (p *Path) Closed() bool { return p.closed }

// Len returns the number of control points.
func (p *Path) Len() int { return len(p.points) }

// Version increases on every successful edit.
func (p *Path) Version() uint64 { return p.version }

// Index returns the position of id in the path, or -1.
func (p *Path) Index(id core.PointID) int {
	_, i, ok := lo.FindIndexOf(p.points, func(pt core.ControlPoint) bool { return pt.ID == id })
	if !ok {
		return -1
	}
	return i
}

// Points returns a deep copy of the control points.
func (p *Path) Points() []core.ControlPoint {
	return lo.Map(p.points, func(pt core.ControlPoint, _ int) core.ControlPoint {
		if pt.Loop != nil {
			l := *pt.Loop
			pt.Loop = &l
		}
		return pt
	})
}

func (p *Path) newPoint(pos mgl64.Vec3) core.ControlPoint {
	p.nextID++
	return core.ControlPoint{ID: p.nextID, Position: pos}
}

func (p *Path) touch() { p.version++ }

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
