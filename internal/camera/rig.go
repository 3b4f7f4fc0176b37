// Package camera derives the rider camera from the ride sample and the
// transported frame. Every output is a first-order low-pass of its target,
// all with the same blend factor, updated once per tick.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/nizalia829/roller-coaster-builder/internal/vmath"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// Config holds the rig geometry and filter constants.
type Config struct {
	Height      float64 // metres above the rail along the transported up
	Smoothing   float64 // per-tick blend factor in (0,1]
	BaseFOV     float64 // degrees
	MaxExtraFOV float64 // degrees added on a vertical drop
	MaxPitch    float64 // degrees of look-down on a vertical drop
}

// DefaultConfig returns the rig used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Height:      1.2,
		Smoothing:   0.15,
		BaseFOV:     70,
		MaxExtraFOV: 25,
		MaxPitch:    20,
	}
}

// Rig is the filtered camera state for one ride.
type Rig struct {
	cfg    Config
	pose   core.CameraPose
	primed bool
}

// New creates a rig. Out-of-range smoothing falls back to the default.
func New(cfg Config) *Rig {
	if !(cfg.Smoothing > 0 && cfg.Smoothing <= 1) {
		cfg.Smoothing = DefaultConfig().Smoothing
	}
	return &Rig{cfg: cfg}
}

// Reset drops the filtered state; the next Update starts from its target.
func (r *Rig) Reset() {
	r.pose = core.CameraPose{}
	r.primed = false
}

// Pose returns the current filtered pose.
func (r *Rig) Pose() core.CameraPose { return r.pose }

// Update moves every filtered quantity one step toward the target derived
// from s and f. f.Up is expected to already carry the bank.
func (r *Rig) Update(s core.Sample, f core.Frame) core.CameraPose {
	slope := Descent(f.Tangent)

	targetPos := s.Point.Add(f.Up.Mul(r.cfg.Height))
	targetPitch := r.cfg.MaxPitch * slope
	targetFOV := r.cfg.BaseFOV + r.cfg.MaxExtraFOV*slope
	targetBank := s.Tilt

	if !r.primed {
		r.pose.Position = targetPos
		r.pose.Pitch = targetPitch
		r.pose.FOV = targetFOV
		r.pose.Bank = targetBank
		r.pose.Orientation = Orientation(f.Tangent, f.Up, targetPitch)
		r.primed = true
		return r.finish()
	}

	a := r.cfg.Smoothing
	r.pose.Position = vmath.Lerp(r.pose.Position, targetPos, a)
	r.pose.Pitch = vmath.LerpFloat(r.pose.Pitch, targetPitch, a)
	r.pose.FOV = vmath.LerpFloat(r.pose.FOV, targetFOV, a)
	r.pose.Bank = vmath.LerpFloat(r.pose.Bank, targetBank, a)

	target := Orientation(f.Tangent, f.Up, targetPitch)
	if r.pose.Orientation.Dot(target) < 0 {
		target = target.Scale(-1)
	}
	r.pose.Orientation = mgl64.QuatSlerp(r.pose.Orientation, target, a).Normalize()
	return r.finish()
}

func (r *Rig) finish() core.CameraPose {
	q := r.pose.Orientation
	r.pose.Forward = q.Rotate(mgl64.Vec3{0, 0, -1})
	r.pose.Up = q.Rotate(mgl64.Vec3{0, 1, 0})
	return r.pose
}

// Descent maps the downward slope of a unit tangent to [0,1]: 0 when level
// or climbing, 1 when falling vertically.
func Descent(tangent mgl64.Vec3) float64 {
	return mgl64.Clamp(-tangent.Y(), 0, 1)
}

// Orientation returns the camera rotation looking along tangent with the
// given up, pitched down by pitch degrees. The camera looks down its local
// -Z axis with +Y up.
func Orientation(tangent, up mgl64.Vec3, pitch float64) mgl64.Quat {
	forward := vmath.Normalize(tangent, vmath.WorldForward)
	right := forward.Cross(up)
	if right.Len() < 1e-6 {
		right = forward.Cross(vmath.UpFor(forward))
	}
	right = right.Normalize()
	up = right.Cross(forward).Normalize()

	if pitch != 0 {
		rad := mgl64.DegToRad(pitch)
		forward = vmath.RotateAbout(forward, right, -rad)
		up = vmath.RotateAbout(up, right, -rad)
	}

	m := mgl64.Mat3FromCols(right, up, forward.Mul(-1))
	q := mgl64.Mat4ToQuat(m.Mat4()).Normalize()
	if math.IsNaN(q.W) {
		return mgl64.QuatIdent()
	}
	return q
}
