// Package engine ties the control path, the built track and a running ride
// together behind the command surface the host editor talks to.
//
// Every path edit rebuilds the track and publishes it with an atomic swap,
// so preview readers never see a half-built table. A ride captures the
// published track when it starts and keeps it until it stops; edits during
// a ride only change the preview and the next ride.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/nizalia829/roller-coaster-builder/internal/camera"
	"github.com/nizalia829/roller-coaster-builder/internal/dispatcher"
	"github.com/nizalia829/roller-coaster-builder/internal/path"
	"github.com/nizalia829/roller-coaster-builder/internal/ride"
	"github.com/nizalia829/roller-coaster-builder/internal/track"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// ErrTooFewPoints is returned by StartRide when the path cannot produce any
// geometry.
var ErrTooFewPoints = errors.New("at least two control points are needed to ride")

// Config groups the settings of every engine component.
type Config struct {
	Track  track.Config
	Ride   ride.Config
	Camera camera.Config

	DefaultLoop    core.LoopSpec // used when a loop command omits parameters
	RailSamples    int           // rail points stored with each ride session
	TelemetryEvery int           // emit a telemetry sample every n ticks; 0 disables
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Track:          track.DefaultConfig(),
		Ride:           ride.DefaultConfig(),
		Camera:         camera.DefaultConfig(),
		DefaultLoop:    core.LoopSpec{Radius: 8, Pitch: 4, Lateral: 1.5},
		RailSamples:    256,
		TelemetryEvery: 1,
	}
}

// Emitter receives telemetry events. *dispatcher.Dispatcher satisfies it.
type Emitter interface {
	Dispatch(dispatcher.Event) (any, error)
	HasHandler(command string) bool
}

// Status is the ride as seen by the host after a tick.
type Status struct {
	SessionID string
	State     core.RideState
	Progress  float64
	Speed     float64
	Height    float64
	MaxHeight float64 // energy reference height
	Lap       int
	Ticks     uint
	Elapsed   float64
	Pose      core.CameraPose
	Sample    core.Sample
}

// Engine owns the path and the ride. All methods are safe for concurrent
// use; Track, Sample and LogAttrs do not take the engine lock, so LogAttrs
// may be called from a log handler while the engine is logging.
type Engine struct {
	cfg     Config
	log     *slog.Logger
	emitter Emitter
	metrics *metrics

	snapshot atomic.Pointer[track.Track]
	logInfo  atomic.Pointer[rideInfo]

	mu         sync.Mutex
	path       *path.Path
	chainLift  bool
	multiplier float64

	integrator *ride.Integrator
	rig        *camera.Rig
	session    *core.RideSession
	status     Status
}

// rideInfo is the lock-free copy of the ride state used for log records.
type rideInfo struct {
	session  string
	state    core.RideState
	progress float64
}

// New creates an engine with an empty open path. emitter may be nil.
func New(cfg Config, log *slog.Logger, emitter Emitter) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:        cfg,
		log:        log,
		emitter:    emitter,
		metrics:    m,
		path:       path.New(),
		multiplier: 1,
		integrator: ride.New(cfg.Ride),
		rig:        camera.New(cfg.Camera),
	}
	e.status.State = core.RideIdle
	e.snapshot.Store(track.Build(nil, false, cfg.Track))
	return e, nil
}

// Track returns the latest published track.
func (e *Engine) Track() *track.Track {
	return e.snapshot.Load()
}

// Sample evaluates the latest published track for static preview.
func (e *Engine) Sample(progress float64) core.Sample {
	return e.Track().Sample(progress)
}

// Points returns a copy of the control points.
func (e *Engine) Points() []core.ControlPoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path.Points()
}

// AddPoint appends a control point.
func (e *Engine) AddPoint(pos mgl64.Vec3) (core.PointID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, err := e.path.Add(pos)
	if err != nil {
		return 0, err
	}
	e.rebuild("add")
	return id, nil
}

// InsertPoint places a control point after the point with id after.
func (e *Engine) InsertPoint(after core.PointID, pos mgl64.Vec3) (core.PointID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, err := e.path.Insert(after, pos)
	if err != nil {
		return 0, err
	}
	e.rebuild("insert")
	return id, nil
}

// MovePoint moves a control point.
func (e *Engine) MovePoint(id core.PointID, pos mgl64.Vec3) error {
	return e.edit("move", func(p *path.Path) error { return p.Move(id, pos) })
}

// DeletePoint removes a control point.
func (e *Engine) DeletePoint(id core.PointID) error {
	return e.edit("delete", func(p *path.Path) error { return p.Delete(id) })
}

// SetTilt sets the bank of a control point in degrees.
func (e *Engine) SetTilt(id core.PointID, degrees float64) error {
	return e.edit("tilt", func(p *path.Path) error { return p.SetTilt(id, degrees) })
}

// CreateLoop turns a control point into a loop entry.
func (e *Engine) CreateLoop(id core.PointID, spec core.LoopSpec) error {
	return e.edit("loop", func(p *path.Path) error { return p.CreateLoop(id, spec) })
}

// RemoveLoop clears a loop marker.
func (e *Engine) RemoveLoop(id core.PointID) error {
	return e.edit("unloop", func(p *path.Path) error { return p.RemoveLoop(id) })
}

// SetClosed toggles whether the path wraps back to its first point.
func (e *Engine) SetClosed(closed bool) {
	_ = e.edit("close", func(p *path.Path) error {
		p.SetClosed(closed)
		return nil
	})
}

func (e *Engine) edit(op string, fn func(*path.Path) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	before := e.path.Version()
	if err := fn(e.path); err != nil {
		return err
	}
	if e.path.Version() != before {
		e.rebuild(op)
	}
	return nil
}

// rebuild must be called with e.mu held.
func (e *Engine) rebuild(op string) {
	t := track.Build(e.path.Points(), e.path.Closed(), e.cfg.Track)
	e.snapshot.Store(t)
	e.metrics.rebuilds.Add(context.Background(), 1, metric.WithAttributes(attribute.String("op", op)))
	e.log.Debug("track rebuilt",
		"op", op,
		"version", e.path.Version(),
		"points", e.path.Len(),
		"sections", len(t.Sections()),
		"length", t.Length(),
		"closed", t.Closed(),
	)
}

// SetChainLift enables or disables the lift for this and later rides.
func (e *Engine) SetChainLift(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.chainLift = on
	e.integrator.SetChainLift(on)
}

// SetSpeedMultiplier scales every ride speed.
func (e *Engine) SetSpeedMultiplier(m float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.integrator.SetMultiplier(m)
	e.multiplier = e.integrator.Multiplier()
}

// StartRide begins a ride on the current track. A ride already in progress
// is stopped first.
func (e *Engine) StartRide() (*core.RideSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.path.Len() < 2 {
		return nil, ErrTooFewPoints
	}
	if e.session != nil {
		e.finish(core.RideIdle)
	}

	t := e.snapshot.Load()
	res := e.integrator.Start(t, e.chainLift, e.multiplier)
	e.rig.Reset()
	pose := e.rig.Update(res.Sample, res.Frame)

	session := &core.RideSession{
		ID:          uuid.NewString(),
		StartTime:   time.Now().UTC(),
		Closed:      t.Closed(),
		ChainLift:   e.chainLift,
		Multiplier:  e.multiplier,
		TrackLength: t.Length(),
		Points:      t.Points(),
		Rail: lo.Map(t.Samples(e.cfg.RailSamples), func(s core.Sample, _ int) mgl64.Vec3 {
			return s.Point
		}),
	}
	e.session = session
	e.status = Status{
		SessionID: session.ID,
		State:     res.State,
		Progress:  res.Progress,
		Height:    res.Height,
		MaxHeight: e.integrator.MaxHeight(),
		Pose:      pose,
		Sample:    res.Sample,
	}
	e.publishInfo()

	e.metrics.rides.Add(context.Background(), 1)
	e.log.Info("ride started",
		"session", session.ID,
		"state", res.State,
		"length", t.Length(),
		"closed", t.Closed(),
		"chainLift", e.chainLift,
		"firstPeak", t.FirstPeak(),
	)
	e.emit(core.Telemetry{Kind: core.TelemetryStart, Session: session})

	if res.State == core.RideStopped {
		e.log.Warn("track has no length, ride stopped", "session", session.ID)
		e.finish(core.RideStopped)
	}
	copied := *session
	return &copied, nil
}

// StopRide ends the current ride, if any, and returns to Idle.
func (e *Engine) StopRide() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		e.finish(core.RideIdle)
	}
	e.integrator.Stop()
	e.rig.Reset()
	e.status = Status{State: core.RideIdle}
}

// Tick advances the ride by dt seconds and returns the new status. Without
// a ride in progress it returns the last status unchanged.
func (e *Engine) Tick(dt float64) Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return e.status
	}

	res := e.integrator.Tick(dt)
	pose := e.rig.Update(res.Sample, res.Frame)

	if dt > 0 {
		e.status.Elapsed += dt
	}
	e.status.Ticks++
	e.status.State = res.State
	e.status.Progress = res.Progress
	e.status.Speed = res.Speed
	e.status.Height = res.Height
	e.status.MaxHeight = e.integrator.MaxHeight()
	e.status.Lap = res.Lap
	e.status.Pose = pose
	e.status.Sample = res.Sample
	e.publishInfo()

	s := e.session
	s.Ticks = e.status.Ticks
	s.Laps = res.Lap
	s.Duration = e.status.Elapsed
	if res.Speed > s.TopSpeed {
		s.TopSpeed = res.Speed
	}

	e.metrics.ticks.Add(context.Background(), 1)
	if every := e.cfg.TelemetryEvery; every > 0 && e.status.Ticks%uint(every) == 0 {
		e.emit(core.Telemetry{Kind: core.TelemetrySample, Sample: &core.RideSample{
			SessionID: s.ID,
			Tick:      e.status.Ticks,
			Elapsed:   e.status.Elapsed,
			Progress:  res.Progress,
			Lap:       res.Lap,
			State:     res.State,
			Speed:     res.Speed,
			Height:    res.Height,
			Position:  res.Sample.Point,
			FOV:       pose.FOV,
		}})
	}

	if res.Wrapped {
		e.metrics.laps.Add(context.Background(), 1)
		e.log.Info("lap completed", "session", s.ID, "lap", res.Lap, "state", res.State)
	}
	if res.Ended || !res.State.Running() {
		e.log.Info("ride ended",
			"session", s.ID,
			"state", res.State,
			"laps", res.Lap,
			"topSpeed", s.TopSpeed,
			"elapsed", e.status.Elapsed,
		)
		e.finish(res.State)
	}
	return e.status
}

// Status returns the last ride status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Session returns a copy of the ride session in progress.
func (e *Engine) Session() (core.RideSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return core.RideSession{}, false
	}
	return *e.session, true
}

// LogAttrs describes the ride in progress for log records.
func (e *Engine) LogAttrs() []slog.Attr {
	info := e.logInfo.Load()
	if info == nil {
		return nil
	}
	return []slog.Attr{
		slog.String("session", info.session),
		slog.String("state", string(info.state)),
		slog.Float64("progress", info.progress),
	}
}

// publishInfo must be called with e.mu held.
func (e *Engine) publishInfo() {
	e.logInfo.Store(&rideInfo{
		session:  e.status.SessionID,
		state:    e.status.State,
		progress: e.status.Progress,
	})
}

// finish closes the session and emits its summary. Must be called with
// e.mu held.
func (e *Engine) finish(state core.RideState) {
	s := e.session
	s.EndTime = time.Now().UTC()
	s.EndState = state
	e.emit(core.Telemetry{Kind: core.TelemetryEnd, Session: s})
	e.session = nil
	e.logInfo.Store(nil)
}

func (e *Engine) emit(t core.Telemetry) {
	if e.emitter == nil || !e.emitter.HasHandler(CmdTelemetry) {
		return
	}
	if t.Session != nil {
		copied := *t.Session
		t.Session = &copied
	}
	if _, err := e.emitter.Dispatch(dispatcher.Event{
		Command:   CmdTelemetry,
		Payload:   t,
		Timestamp: time.Now(),
	}); err != nil {
		e.log.Warn("telemetry dropped", "kind", t.Kind, "error", fmt.Errorf("dispatch: %w", err))
	}
}
