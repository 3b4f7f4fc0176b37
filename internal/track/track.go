// Package track turns a control point snapshot into an immutable table of
// sections with an arc-length-normalized progress scale.
//
// Build is the only constructor; a Track is never modified afterwards, so
// one may be shared between the preview renderer and a running ride.
package track

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"

	"github.com/nizalia829/roller-coaster-builder/internal/curve"
	"github.com/nizalia829/roller-coaster-builder/internal/loop"
	"github.com/nizalia829/roller-coaster-builder/internal/vmath"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// MaxProgress is the largest progress value Sample evaluates.
const MaxProgress = 1 - 1e-9

// Config controls table resolution and first-peak detection.
type Config struct {
	SplineSamples int     // chord samples per spline or transition section
	LoopSamples   int     // chord samples per loop section
	PeakSamples   int     // samples over the first half when locating the first peak
	PeakRise      float64 // tangent.Y that counts as climbing
}

// DefaultConfig returns the resolution used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		SplineSamples: 32,
		LoopSamples:   96,
		PeakSamples:   200,
		PeakRise:      0.05,
	}
}

// Track is a built section table.
type Track struct {
	points    []core.ControlPoint
	sections  []Section
	length    float64
	closed    bool
	firstPeak float64
}

// Build lays out sections for the given points. Fewer than two points give
// an empty track. Every plain interval becomes a spline section; an interval
// touching a loop-marked point becomes a Hermite transition, and the loop
// itself is a section of its own placed at its control point.
func Build(points []core.ControlPoint, closed bool, cfg Config) *Track {
	t := &Track{points: append([]core.ControlPoint(nil), points...)}
	n := len(points)
	if n < 2 {
		return t
	}

	positions := lo.Map(points, func(p core.ControlPoint, _ int) mgl64.Vec3 { return p.Position })
	c := curve.NewCatmullRom(positions, closed)
	t.closed = c.Closed()
	loops := loop.Place(points, t.closed)

	for k := 0; k < n; k++ {
		if l := loops[k]; l != nil {
			s := Section{
				Kind:      KindLoop,
				Shape:     loopShape{*l},
				From:      k,
				To:        k,
				TiltStart: points[k].Tilt,
				TiltEnd:   points[k].Tilt,
			}
			s.measure(cfg.LoopSamples)
			t.sections = append(t.sections, s)
		}
		if k >= c.Segments() {
			continue
		}
		j := (k + 1) % n
		s := Section{From: k, To: j, TiltStart: points[k].Tilt, TiltEnd: points[j].Tilt}
		if loops[k] == nil && loops[j] == nil {
			s.Kind = KindSpline
			s.Shape = splineShape{curve: c, tStart: c.ParamAt(k), tEnd: c.ParamAt(k + 1)}
		} else {
			s.Kind = KindTransition
			s.Shape = hermiteShape{bridge(c, points, loops, k, j)}
		}
		s.measure(cfg.SplineSamples)
		t.sections = append(t.sections, s)
	}

	t.normalize()
	t.firstPeak = t.findFirstPeak(cfg)
	return t
}

func bridge(c *curve.CatmullRom, points []core.ControlPoint, loops []*loop.Loop, i, j int) curve.Hermite {
	from, fromDir := points[i].Position, c.Tangent(c.ParamAt(i))
	if loops[i] != nil {
		from, fromDir = loops[i].Exit(), loops[i].Forward
	}
	if loops[j] != nil {
		return loops[j].Approach(from, fromDir)
	}
	to := points[j].Position
	toDir := c.Tangent(c.ParamAt(j))
	return loops[i].Depart(to, toDir)
}

func (t *Track) normalize() {
	t.length = lo.SumBy(t.sections, func(s Section) float64 { return s.Length })
	n := len(t.sections)
	run := 0.0
	for i := range t.sections {
		s := &t.sections[i]
		if t.length > vmath.Epsilon {
			s.ProgressStart = run / t.length
			run += s.Length
			s.ProgressEnd = run / t.length
		} else {
			s.ProgressStart = float64(i) / float64(n)
			s.ProgressEnd = float64(i+1) / float64(n)
		}
	}
	if n > 0 {
		t.sections[0].ProgressStart = 0
		t.sections[n-1].ProgressEnd = 1
	}
}

// Empty reports whether the track has no geometry.
func (t *Track) Empty() bool { return len(t.sections) == 0 }

// Length is the total arc length in metres.
func (t *Track) Length() float64 { return t.length }

// Closed reports whether progress wraps from 1 back to 0.
func (t *Track) Closed() bool { return t.closed }

// FirstPeak is the progress at the top of the first lift hill, or 0.
func (t *Track) FirstPeak() float64 { return t.firstPeak }

// Sections returns a copy of the section table.
func (t *Track) Sections() []Section {
	return append([]Section(nil), t.sections...)
}

// Points returns the control points the track was built from.
func (t *Track) Points() []core.ControlPoint {
	return append([]core.ControlPoint(nil), t.points...)
}

// Sample evaluates the track at progress, clamped to [0, MaxProgress].
// Up and Right are defined locally from the section geometry.
func (t *Track) Sample(progress float64) core.Sample {
	if t.Empty() {
		return t.emptySample()
	}
	if math.IsNaN(progress) {
		progress = 0
	}
	p := mgl64.Clamp(progress, 0, MaxProgress)
	i := sort.Search(len(t.sections), func(i int) bool { return t.sections[i].ProgressEnd > p })
	if i >= len(t.sections) {
		i = len(t.sections) - 1
	}
	s := &t.sections[i]

	frac := 0.0
	if w := s.ProgressEnd - s.ProgressStart; w > 0 {
		frac = (p - s.ProgressStart) / w
	}
	u := s.param(frac)
	point, tangent := s.Shape.At(u)
	up := vmath.Orthogonalize(s.Shape.Up(u, tangent), tangent)
	right := vmath.Normalize(tangent.Cross(up), vmath.WorldRight)

	return core.Sample{
		Progress: p,
		Point:    point,
		Tangent:  tangent,
		Up:       up,
		Right:    right,
		Tilt:     vmath.LerpFloat(s.TiltStart, s.TiltEnd, u),
		Section:  i,
	}
}

// Height is the Y coordinate of the track at progress.
func (t *Track) Height(progress float64) float64 {
	return t.Sample(progress).Point.Y()
}

// Samples returns n samples evenly spaced in progress from 0 to MaxProgress.
func (t *Track) Samples(n int) []core.Sample {
	if n < 2 || t.Empty() {
		return nil
	}
	out := make([]core.Sample, n)
	for i := range out {
		out[i] = t.Sample(float64(i) / float64(n-1))
	}
	return out
}

func (t *Track) emptySample() core.Sample {
	s := core.Sample{
		Tangent: vmath.WorldForward,
		Up:      vmath.WorldUp,
		Right:   vmath.WorldForward.Cross(vmath.WorldUp),
	}
	if len(t.points) > 0 {
		s.Point = t.points[0].Position
	}
	return s
}
