// Package ride advances a vehicle along a built track one tick at a time.
//
// The integrator is a small state machine:
//
//	Idle → Climbing      start with chain lift
//	Idle → FreeRolling   start without chain lift
//	Climbing → FreeRolling once progress passes the first peak
//	FreeRolling → Idle   end of an open track
//	any → Stopped        the track has no length to travel
//
// On a closed track progress wraps; with chain lift on the next lap climbs
// again from the height at progress 0.
package ride

import (
	"math"

	"github.com/nizalia829/roller-coaster-builder/internal/frame"
	"github.com/nizalia829/roller-coaster-builder/internal/vmath"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// Config holds the speed model constants.
type Config struct {
	Gravity    float64 // m/s²
	ChainSpeed float64 // m/s while climbing
	MinSpeed   float64 // m/s floor while free rolling
	MaxStep    float64 // metres between frame transport updates
}

// DefaultConfig returns earth gravity and a gentle lift.
func DefaultConfig() Config {
	return Config{
		Gravity:    9.81,
		ChainSpeed: 4,
		MinSpeed:   2,
		MaxStep:    frame.DefaultMaxStep,
	}
}

// Track is what the integrator needs from a built track.
type Track interface {
	frame.Sampler
	Closed() bool
	FirstPeak() float64
}

// Result is the integrator state after a tick.
type Result struct {
	State    core.RideState
	Progress float64
	Speed    float64
	Height   float64
	Lap      int
	Wrapped  bool // progress wrapped past the end of a closed track this tick
	Ended    bool // the ride reached the end of an open track this tick
	Sample   core.Sample
	Frame    core.Frame
}

// Integrator is the running ride state. It is not safe for concurrent use.
type Integrator struct {
	cfg      Config
	track    Track
	follower *frame.Follower

	state      core.RideState
	progress   float64
	speed      float64
	maxHeight  float64
	multiplier float64
	chainLift  bool
	lap        int

	sample core.Sample
	frame  core.Frame
}

// New creates an idle integrator.
func New(cfg Config) *Integrator {
	if !(cfg.Gravity > 0) {
		cfg.Gravity = DefaultConfig().Gravity
	}
	return &Integrator{cfg: cfg, state: core.RideIdle, multiplier: 1}
}

// Start begins a ride at progress 0 on t. A track without length leaves the
// integrator Stopped.
func (r *Integrator) Start(t Track, chainLift bool, multiplier float64) Result {
	r.reset()
	r.track = t
	r.chainLift = chainLift
	r.SetMultiplier(multiplier)
	if t == nil || t.Length() <= vmath.Epsilon {
		r.state = core.RideStopped
		return r.result(false, false)
	}
	r.follower = frame.NewFollower(t, r.cfg.MaxStep)
	r.sample, r.frame = r.follower.Reset(0)
	r.maxHeight = r.sample.Point.Y()
	if chainLift {
		r.state = core.RideClimbing
	} else {
		r.state = core.RideFreeRolling
	}
	return r.result(false, false)
}

// Stop returns to Idle and drops all ride state.
func (r *Integrator) Stop() {
	r.reset()
}

func (r *Integrator) reset() {
	mult := r.multiplier
	*r = Integrator{cfg: r.cfg, state: core.RideIdle, multiplier: mult}
}

// SetMultiplier scales every speed. Negative or non-finite values are
// treated as 0 and 1 respectively.
func (r *Integrator) SetMultiplier(m float64) {
	switch {
	case math.IsNaN(m) || math.IsInf(m, 0):
		m = 1
	case m < 0:
		m = 0
	}
	r.multiplier = m
}

// SetChainLift toggles the lift. Turning it off while climbing releases the
// vehicle; turning it on takes effect from the next lap.
func (r *Integrator) SetChainLift(on bool) {
	r.chainLift = on
	if !on && r.state == core.RideClimbing {
		r.state = core.RideFreeRolling
	}
}

func (r *Integrator) State() core.RideState { return r.state }
func (r *Integrator) Progress() float64     { return r.progress }
func (r *Integrator) Speed() float64        { return r.speed }
func (r *Integrator) MaxHeight() float64    { return r.maxHeight }
func (r *Integrator) Lap() int              { return r.lap }
func (r *Integrator) Multiplier() float64   { return r.multiplier }
func (r *Integrator) ChainLift() bool       { return r.chainLift }

// Tick advances the ride by dt seconds. It does nothing unless the ride is
// running and dt is positive.
func (r *Integrator) Tick(dt float64) Result {
	if !r.state.Running() || !(dt > 0) || math.IsInf(dt, 0) {
		return r.result(false, false)
	}
	length := r.track.Length()
	if length <= vmath.Epsilon {
		r.state = core.RideStopped
		r.speed = 0
		return r.result(false, false)
	}

	h := r.sample.Point.Y()
	if h > r.maxHeight {
		r.maxHeight = h
	}
	r.speed = r.speedAt(h)

	next := r.progress + r.speed*dt/length
	wrapped := false
	if next >= 1 {
		if !r.track.Closed() {
			r.progress = 1
			r.state = core.RideIdle
			r.sample, r.frame = r.follower.AdvanceTo(1, false)
			return r.result(false, true)
		}
		next -= math.Floor(next)
		wrapped = true
		r.lap++
	}

	r.sample, r.frame = r.follower.AdvanceTo(next, wrapped)
	r.progress = next

	if wrapped && r.chainLift {
		r.state = core.RideClimbing
		r.maxHeight = r.track.Sample(0).Point.Y()
	}
	if r.state == core.RideClimbing && next >= r.track.FirstPeak() {
		r.state = core.RideFreeRolling
	}
	return r.result(wrapped, false)
}

func (r *Integrator) speedAt(h float64) float64 {
	if r.state == core.RideClimbing {
		return r.cfg.ChainSpeed * r.multiplier
	}
	v := math.Sqrt(2 * r.cfg.Gravity * math.Max(0, r.maxHeight-h))
	return math.Max(r.cfg.MinSpeed, v) * r.multiplier
}

func (r *Integrator) result(wrapped, ended bool) Result {
	return Result{
		State:    r.state,
		Progress: r.progress,
		Speed:    r.speed,
		Height:   r.sample.Point.Y(),
		Lap:      r.lap,
		Wrapped:  wrapped,
		Ended:    ended,
		Sample:   r.sample,
		Frame:    r.frame,
	}
}
