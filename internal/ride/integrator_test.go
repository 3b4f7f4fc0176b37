package ride

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nizalia829/roller-coaster-builder/internal/track"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

const dt = 1.0 / 60

func buildTrack(closed bool, positions ...mgl64.Vec3) *track.Track {
	pts := lo.Map(positions, func(p mgl64.Vec3, i int) core.ControlPoint {
		return core.ControlPoint{ID: core.PointID(i + 1), Position: p}
	})
	return track.Build(pts, closed, track.DefaultConfig())
}

// runToEnd ticks until the ride ends or maxTicks pass and returns every result.
func runToEnd(t *testing.T, r *Integrator, step float64, maxTicks int) []Result {
	t.Helper()
	var out []Result
	for i := 0; i < maxTicks; i++ {
		res := r.Tick(step)
		out = append(out, res)
		if res.Ended || !res.State.Running() {
			return out
		}
	}
	t.Fatalf("ride did not end within %d ticks", maxTicks)
	return out
}

func TestTwoPointOpenTrack(t *testing.T) {
	tr := buildTrack(false, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 10})
	r := New(DefaultConfig())

	start := r.Start(tr, false, 1)
	assert.Equal(t, core.RideFreeRolling, start.State)

	results := runToEnd(t, r, dt, 10000)
	last := results[len(results)-1]
	for _, res := range results[:len(results)-1] {
		assert.Equal(t, core.RideFreeRolling, res.State)
		assert.Equal(t, 2.0, res.Speed)
		assert.False(t, res.Wrapped)
	}
	assert.True(t, last.Ended)
	assert.Equal(t, core.RideIdle, last.State)
	assert.Equal(t, 1.0, last.Progress)
	assert.Equal(t, 0, last.Lap)
	// 10 m at 2 m/s
	assert.InDelta(t, 5.0, float64(len(results))*dt, 2*dt)
}

func TestFlatTrackHoldsMinimumSpeed(t *testing.T) {
	tr := buildTrack(false,
		mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{10, 0, 15},
		mgl64.Vec3{0, 0, 30},
		mgl64.Vec3{5, 0, 45},
	)
	cfg := DefaultConfig()
	r := New(cfg)
	r.Start(tr, false, 1)
	for _, res := range runToEnd(t, r, dt, 100000) {
		assert.Equal(t, cfg.MinSpeed, res.Speed)
		assert.False(t, math.IsNaN(res.Progress))
	}
}

func TestDescentSpeedIsPathIndependent(t *testing.T) {
	const h = 20.0
	want := math.Sqrt(2 * 9.81 * h)

	straight := buildTrack(false, mgl64.Vec3{0, h, 0}, mgl64.Vec3{0, 0, 40})
	curved := buildTrack(false,
		mgl64.Vec3{0, h, 0},
		mgl64.Vec3{0, 15, 10},
		mgl64.Vec3{0, 8, 20},
		mgl64.Vec3{0, 3, 30},
		mgl64.Vec3{0, 0, 40},
	)

	for name, tr := range map[string]*track.Track{"straight": straight, "curved": curved} {
		r := New(DefaultConfig())
		r.Start(tr, false, 1)
		results := runToEnd(t, r, 1.0/600, 1000000)
		last := results[len(results)-1]
		require.True(t, last.Ended, name)
		assert.InDelta(t, want, last.Speed, 0.1, name)
	}
}

func TestSpeedMultiplier(t *testing.T) {
	tr := buildTrack(false, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 100})
	r := New(DefaultConfig())
	r.Start(tr, false, 2.5)
	res := r.Tick(dt)
	assert.InDelta(t, 5.0, res.Speed, 1e-12)

	r.SetMultiplier(-1)
	assert.Equal(t, 0.0, r.Multiplier())
	before := r.Progress()
	r.Tick(dt)
	assert.Equal(t, before, r.Progress())

	r.SetMultiplier(math.NaN())
	assert.Equal(t, 1.0, r.Multiplier())
}

func TestChainLiftClimbsThenReleases(t *testing.T) {
	tr := buildTrack(false,
		mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{0, 15, 30},
		mgl64.Vec3{0, 0, 60},
		mgl64.Vec3{0, 0, 90},
	)
	require.Greater(t, tr.FirstPeak(), 0.0)

	cfg := DefaultConfig()
	r := New(cfg)
	assert.Equal(t, core.RideClimbing, r.Start(tr, true, 1).State)

	sawRelease := false
	for _, res := range runToEnd(t, r, dt, 100000) {
		if res.Ended {
			break
		}
		if res.State == core.RideClimbing {
			assert.Less(t, res.Progress, tr.FirstPeak())
			assert.Equal(t, cfg.ChainSpeed, res.Speed)
		}
		if res.State == core.RideFreeRolling {
			sawRelease = true
		}
	}
	assert.True(t, sawRelease)
	assert.GreaterOrEqual(t, r.MaxHeight(), 14.5)
}

func TestClosedTrackWrapReengagesChainLift(t *testing.T) {
	tr := buildTrack(true,
		mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{0, 10, 30},
		mgl64.Vec3{30, 0, 30},
		mgl64.Vec3{30, 0, 0},
	)
	require.True(t, tr.Closed())
	peak := tr.FirstPeak()
	require.Greater(t, peak, 0.0)

	r := New(DefaultConfig())
	r.Start(tr, true, 1)

	var prev, wrap Result
	found := false
	sawFreeRolling := false
	for i := 0; i < 100000; i++ {
		res := r.Tick(dt)
		if res.State == core.RideFreeRolling {
			sawFreeRolling = true
		}
		if res.Wrapped {
			wrap = res
			found = true
			break
		}
		prev = res
	}
	require.True(t, found)
	assert.True(t, sawFreeRolling)
	assert.Greater(t, prev.Progress, 0.9)
	assert.Less(t, wrap.Progress, 0.1)
	assert.Equal(t, 1, wrap.Lap)
	assert.Equal(t, core.RideClimbing, wrap.State)
	assert.Equal(t, tr.Height(0), r.MaxHeight())
}

func TestWrapPastFirstPeakReleasesChainLift(t *testing.T) {
	// flat loop: no lift hill, so the peak sits at the start
	tr := buildTrack(true,
		mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{0, 0, 30},
		mgl64.Vec3{30, 0, 30},
		mgl64.Vec3{30, 0, 0},
	)
	require.True(t, tr.Closed())
	require.Equal(t, 0.0, tr.FirstPeak())

	r := New(DefaultConfig())
	r.Start(tr, true, 1)

	var wrap Result
	found := false
	for i := 0; i < 100000; i++ {
		res := r.Tick(dt)
		if res.Wrapped {
			wrap = res
			found = true
			break
		}
	}
	require.True(t, found)
	assert.Equal(t, 1, wrap.Lap)
	assert.Equal(t, core.RideFreeRolling, wrap.State)
	assert.Equal(t, tr.Height(0), r.MaxHeight())
	assert.Equal(t, core.RideFreeRolling, r.Tick(dt).State)
}

func TestZeroLengthTrackStops(t *testing.T) {
	tr := buildTrack(false, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, 1, 1})
	r := New(DefaultConfig())
	res := r.Start(tr, false, 1)
	assert.Equal(t, core.RideStopped, res.State)
	assert.Equal(t, core.RideStopped, r.Tick(dt).State)
}

func TestStopResetsToIdle(t *testing.T) {
	tr := buildTrack(false, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 100})
	r := New(DefaultConfig())
	r.Start(tr, false, 1.5)
	r.Tick(dt)
	require.Greater(t, r.Progress(), 0.0)

	r.Stop()
	assert.Equal(t, core.RideIdle, r.State())
	assert.Equal(t, 0.0, r.Progress())
	assert.Equal(t, 1.5, r.Multiplier())

	res := r.Tick(dt)
	assert.Equal(t, core.RideIdle, res.State)
	assert.Equal(t, 0.0, res.Progress)
}

func TestTickIgnoresBadDeltas(t *testing.T) {
	tr := buildTrack(false, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 100})
	r := New(DefaultConfig())
	r.Start(tr, false, 1)
	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		assert.Equal(t, 0.0, r.Tick(d).Progress)
	}
}

func TestSetChainLiftOffReleases(t *testing.T) {
	tr := buildTrack(false, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 15, 30}, mgl64.Vec3{0, 0, 60})
	r := New(DefaultConfig())
	r.Start(tr, true, 1)
	r.SetChainLift(false)
	assert.Equal(t, core.RideFreeRolling, r.State())
}
