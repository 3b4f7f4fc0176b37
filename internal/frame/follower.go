package frame

import (
	"math"

	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// Sampler is the part of a built track the transport walks.
type Sampler interface {
	Sample(progress float64) core.Sample
	Length() float64
}

// DefaultMaxStep is the longest distance in metres between two transport
// updates when following a ride.
const DefaultMaxStep = 0.5

// Follower transports a frame along a track as progress advances. Large
// jumps are split into sub-steps no longer than MaxStep metres so fast rides
// do not skip over tight curvature.
type Follower struct {
	track     Sampler
	transport Transport
	progress  float64
	maxStep   float64
}

// NewFollower creates a follower for track.
func NewFollower(track Sampler, maxStep float64) *Follower {
	if !(maxStep > 0) {
		maxStep = DefaultMaxStep
	}
	return &Follower{track: track, maxStep: maxStep}
}

// Reset seeds the transport at progress from the local frame there.
func (f *Follower) Reset(progress float64) (core.Sample, core.Frame) {
	f.transport.Reset()
	f.progress = progress
	s := f.track.Sample(progress)
	up := f.transport.Next(s.Tangent, s.Up)
	return s, Banked(s.Tangent, up, s.Tilt)
}

// AdvanceTo walks forward to progress. When wrapped is set the walk runs to
// the end of the track and continues from 0, without reseeding.
func (f *Follower) AdvanceTo(progress float64, wrapped bool) (core.Sample, core.Frame) {
	if !f.transport.Primed() {
		return f.Reset(progress)
	}
	if wrapped {
		f.walk(f.progress, 1)
		f.progress = 0
	}
	s := f.walk(f.progress, progress)
	f.progress = progress
	return s, Banked(s.Tangent, f.transport.Up(), s.Tilt)
}

func (f *Follower) walk(from, to float64) core.Sample {
	if to < from {
		to = from
	}
	n := 1
	if l := f.track.Length(); l > 0 {
		n = int(math.Ceil((to - from) * l / f.maxStep))
		if n < 1 {
			n = 1
		}
	}
	var s core.Sample
	for i := 1; i <= n; i++ {
		s = f.track.Sample(from + (to-from)*float64(i)/float64(n))
		f.transport.Next(s.Tangent, s.Up)
	}
	return s
}

// Sweep transports a frame over n evenly spaced samples from the start of
// the track, for drawing the rail without twist.
func Sweep(track Sampler, n int) []core.Frame {
	if n < 2 {
		return nil
	}
	var t Transport
	out := make([]core.Frame, n)
	for i := range out {
		s := track.Sample(float64(i) / float64(n-1))
		up := t.Next(s.Tangent, s.Up)
		out[i] = Banked(s.Tangent, up, s.Tilt)
	}
	return out
}
