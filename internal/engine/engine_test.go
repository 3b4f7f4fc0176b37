package engine

import (
	"errors"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nizalia829/roller-coaster-builder/internal/dispatcher"
	"github.com/nizalia829/roller-coaster-builder/internal/path"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

const dt = 1.0 / 60

type recorder struct {
	mu     sync.Mutex
	events []core.Telemetry
	fail   bool
}

func (r *recorder) Dispatch(e dispatcher.Event) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return nil, errors.New("queue full")
	}
	r.events = append(r.events, e.Payload.(core.Telemetry))
	return "queued", nil
}

func (r *recorder) HasHandler(cmd string) bool { return cmd == CmdTelemetry }

func (r *recorder) kinds() []core.TelemetryKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.TelemetryKind
	for _, e := range r.events {
		if len(out) == 0 || out[len(out)-1] != e.Kind {
			out = append(out, e.Kind)
		}
	}
	return out
}

func (r *recorder) last() core.Telemetry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func newEngine(t *testing.T) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	e, err := New(DefaultConfig(), nil, rec)
	require.NoError(t, err)
	return e, rec
}

func addPoints(t *testing.T, e *Engine, positions ...mgl64.Vec3) []core.PointID {
	t.Helper()
	ids := make([]core.PointID, 0, len(positions))
	for _, p := range positions {
		id, err := e.AddPoint(p)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestNew_EmptyTrack(t *testing.T) {
	e, _ := newEngine(t)
	assert.True(t, e.Track().Empty())
	assert.Equal(t, core.RideIdle, e.Status().State)
	assert.Empty(t, e.Points())
}

func TestEdits_RepublishTrack(t *testing.T) {
	e, _ := newEngine(t)
	ids := addPoints(t, e, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 10})

	first := e.Track()
	assert.InDelta(t, 10.0, first.Length(), 1e-6)

	require.NoError(t, e.MovePoint(ids[1], mgl64.Vec3{0, 0, 20}))
	second := e.Track()
	assert.NotSame(t, first, second)
	assert.InDelta(t, 20.0, second.Length(), 1e-6)
	// the old snapshot is untouched
	assert.InDelta(t, 10.0, first.Length(), 1e-6)

	mid, err := e.InsertPoint(ids[0], mgl64.Vec3{0, 0, 5})
	require.NoError(t, err)
	pts := e.Points()
	require.Len(t, pts, 3)
	assert.Equal(t, mid, pts[1].ID)
}

func TestEdits_FailuresLeaveTrackAlone(t *testing.T) {
	e, _ := newEngine(t)
	addPoints(t, e, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 10})
	before := e.Track()

	assert.ErrorIs(t, e.MovePoint(99, mgl64.Vec3{}), path.ErrUnknownPoint)
	assert.ErrorIs(t, e.DeletePoint(99), path.ErrUnknownPoint)
	assert.Same(t, before, e.Track())
}

func TestSetClosed_NoopKeepsSnapshot(t *testing.T) {
	e, _ := newEngine(t)
	addPoints(t, e, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 10}, mgl64.Vec3{10, 0, 10})
	e.SetClosed(true)
	closed := e.Track()
	assert.True(t, closed.Closed())

	e.SetClosed(true)
	assert.Same(t, closed, e.Track())
}

func TestStartRide_TooFewPoints(t *testing.T) {
	e, rec := newEngine(t)
	addPoints(t, e, mgl64.Vec3{0, 0, 0})
	_, err := e.StartRide()
	assert.ErrorIs(t, err, ErrTooFewPoints)
	assert.Empty(t, rec.kinds())
}

func TestRide_OpenTrackRunsToEnd(t *testing.T) {
	e, rec := newEngine(t)
	addPoints(t, e, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 10})

	s, err := e.StartRide()
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Len(t, s.Rail, DefaultConfig().RailSamples)
	assert.InDelta(t, 10.0, s.TrackLength, 1e-6)

	var st Status
	for i := 0; i < 10000; i++ {
		st = e.Tick(dt)
		if st.State == core.RideIdle {
			break
		}
	}
	assert.Equal(t, core.RideIdle, st.State)
	assert.Equal(t, 1.0, st.Progress)
	assert.Equal(t, s.ID, st.SessionID)

	_, running := e.Session()
	assert.False(t, running)

	assert.Equal(t, []core.TelemetryKind{core.TelemetryStart, core.TelemetrySample, core.TelemetryEnd}, rec.kinds())
	end := rec.last()
	require.NotNil(t, end.Session)
	assert.Equal(t, core.RideIdle, end.Session.EndState)
	assert.Equal(t, st.Ticks, end.Session.Ticks)
	assert.InDelta(t, 2.0, end.Session.TopSpeed, 1e-12)

	// ticks after the end change nothing
	assert.Equal(t, st, e.Tick(dt))
}

func TestRide_StatusCarriesEnergyHeight(t *testing.T) {
	e, _ := newEngine(t)
	addPoints(t, e, mgl64.Vec3{0, 10, 0}, mgl64.Vec3{0, 0, 20})

	_, err := e.StartRide()
	require.NoError(t, err)
	assert.InDelta(t, 10.0, e.Status().MaxHeight, 1e-9)

	var st Status
	for i := 0; i < 30; i++ {
		st = e.Tick(dt)
	}
	assert.Less(t, st.Height, 10.0)
	assert.InDelta(t, 10.0, st.MaxHeight, 1e-9)
	assert.Greater(t, st.Speed, DefaultConfig().Ride.MinSpeed)
}

func TestRide_EditsDuringRideOnlyAffectPreview(t *testing.T) {
	e, _ := newEngine(t)
	ids := addPoints(t, e, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 100})
	_, err := e.StartRide()
	require.NoError(t, err)

	e.Tick(dt)
	require.NoError(t, e.MovePoint(ids[1], mgl64.Vec3{0, 0, 10}))
	assert.InDelta(t, 10.0, e.Track().Length(), 1e-6)

	// the ride keeps the 100 m track: 2 m/s for 1 s is 2% of it
	var st Status
	for i := 0; i < 59; i++ {
		st = e.Tick(dt)
	}
	assert.InDelta(t, 0.02, st.Progress, 1e-3)
}

func TestRide_ClosedTrackCountsLaps(t *testing.T) {
	e, _ := newEngine(t)
	addPoints(t, e,
		mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{0, 0, 10},
		mgl64.Vec3{10, 0, 10},
		mgl64.Vec3{10, 0, 0},
	)
	e.SetClosed(true)
	e.SetSpeedMultiplier(5)

	_, err := e.StartRide()
	require.NoError(t, err)

	var st Status
	for i := 0; i < 10000 && st.Lap < 2; i++ {
		st = e.Tick(dt)
	}
	assert.Equal(t, 2, st.Lap)
	assert.Equal(t, core.RideFreeRolling, st.State)

	s, running := e.Session()
	require.True(t, running)
	assert.Equal(t, 2, s.Laps)
	assert.InDelta(t, 10.0, s.TopSpeed, 1e-9)
}

func TestRide_ZeroLengthStopsImmediately(t *testing.T) {
	e, rec := newEngine(t)
	addPoints(t, e, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{1, 1, 1})

	_, err := e.StartRide()
	require.NoError(t, err)
	assert.Equal(t, core.RideStopped, e.Status().State)
	assert.Equal(t, []core.TelemetryKind{core.TelemetryStart, core.TelemetryEnd}, rec.kinds())
	assert.Equal(t, core.RideStopped, rec.last().Session.EndState)
}

func TestStopRide(t *testing.T) {
	e, rec := newEngine(t)
	addPoints(t, e, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 100})
	_, err := e.StartRide()
	require.NoError(t, err)
	e.Tick(dt)

	e.StopRide()
	assert.Equal(t, Status{State: core.RideIdle}, e.Status())
	assert.Nil(t, e.LogAttrs())
	assert.Equal(t, core.TelemetryEnd, rec.last().Kind)
}

func TestRestartEndsPreviousSession(t *testing.T) {
	e, rec := newEngine(t)
	addPoints(t, e, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 100})
	first, err := e.StartRide()
	require.NoError(t, err)
	second, err := e.StartRide()
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, []core.TelemetryKind{core.TelemetryStart, core.TelemetryEnd, core.TelemetryStart}, rec.kinds())
}

func TestChainLiftSetting(t *testing.T) {
	e, _ := newEngine(t)
	addPoints(t, e, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 15, 30}, mgl64.Vec3{0, 0, 60})
	e.SetChainLift(true)

	_, err := e.StartRide()
	require.NoError(t, err)
	assert.Equal(t, core.RideClimbing, e.Status().State)
	st := e.Tick(dt)
	assert.Equal(t, DefaultConfig().Ride.ChainSpeed, st.Speed)

	e.SetChainLift(false)
	assert.Equal(t, core.RideFreeRolling, e.Tick(dt).State)
}

func TestTelemetryEvery(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TelemetryEvery = 0
	rec := &recorder{}
	e, err := New(cfg, nil, rec)
	require.NoError(t, err)
	addPoints(t, e, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 100})
	_, err = e.StartRide()
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		e.Tick(dt)
	}
	assert.Equal(t, []core.TelemetryKind{core.TelemetryStart}, rec.kinds())
}

func TestTelemetryFailureDoesNotStopRide(t *testing.T) {
	e, rec := newEngine(t)
	rec.fail = true
	addPoints(t, e, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 100})
	_, err := e.StartRide()
	require.NoError(t, err)
	assert.Equal(t, core.RideFreeRolling, e.Tick(dt).State)
}

func TestLogAttrs(t *testing.T) {
	e, _ := newEngine(t)
	addPoints(t, e, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 100})
	s, err := e.StartRide()
	require.NoError(t, err)

	attrs := e.LogAttrs()
	require.Len(t, attrs, 3)
	assert.Equal(t, "session", attrs[0].Key)
	assert.Equal(t, s.ID, attrs[0].Value.String())
}

func TestNilEmitter(t *testing.T) {
	e, err := New(DefaultConfig(), nil, nil)
	require.NoError(t, err)
	addPoints(t, e, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 10})
	_, err = e.StartRide()
	require.NoError(t, err)
	e.Tick(dt)
}
