// Package convert maps ride telemetry between pkg/core and the gorm models.
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/nizalia829/roller-coaster-builder/internal/geo"
	"github.com/nizalia829/roller-coaster-builder/internal/model"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// SessionToModel converts a ride session. The sample list is not touched.
func SessionToModel(s *core.RideSession) (model.RideSession, error) {
	points, err := json.Marshal(s.Points)
	if err != nil {
		return model.RideSession{}, fmt.Errorf("encoding control points: %w", err)
	}
	return model.RideSession{
		ID:          s.ID,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		EndState:    string(s.EndState),
		Closed:      s.Closed,
		ChainLift:   s.ChainLift,
		Multiplier:  s.Multiplier,
		TrackLength: s.TrackLength,
		Points:      datatypes.JSON(points),
		Rail:        geo.LineString(s.Rail),
		Ticks:       s.Ticks,
		Laps:        s.Laps,
		TopSpeed:    s.TopSpeed,
		Duration:    s.Duration,
	}, nil
}

// SessionToCore converts a stored session back. Rail points are restored
// from export coordinates.
func SessionToCore(m model.RideSession) (core.RideSession, error) {
	var points []core.ControlPoint
	if len(m.Points) > 0 {
		if err := json.Unmarshal(m.Points, &points); err != nil {
			return core.RideSession{}, fmt.Errorf("decoding control points: %w", err)
		}
	}
	seq := m.Rail.Coordinates()
	rail := make([]mgl64.Vec3, seq.Length())
	for i := range rail {
		c := seq.Get(i)
		rail[i] = mgl64.Vec3{c.X, c.Z, c.Y}
	}
	return core.RideSession{
		ID:          m.ID,
		StartTime:   m.StartTime,
		EndTime:     m.EndTime,
		EndState:    core.RideState(m.EndState),
		Closed:      m.Closed,
		ChainLift:   m.ChainLift,
		Multiplier:  m.Multiplier,
		TrackLength: m.TrackLength,
		Points:      points,
		Rail:        rail,
		Ticks:       m.Ticks,
		Laps:        m.Laps,
		TopSpeed:    m.TopSpeed,
		Duration:    m.Duration,
	}, nil
}

// SampleToModel converts one telemetry tick.
func SampleToModel(s *core.RideSample) model.RideSample {
	return model.RideSample{
		SessionID: s.SessionID,
		Tick:      s.Tick,
		Elapsed:   s.Elapsed,
		Progress:  s.Progress,
		Lap:       s.Lap,
		State:     string(s.State),
		Speed:     s.Speed,
		Height:    s.Height,
		Position:  geom.NewPoint(geo.Ground(s.Position)),
		FOV:       s.FOV,
	}
}

// SampleToCore converts a stored tick back.
func SampleToCore(m model.RideSample) core.RideSample {
	var pos mgl64.Vec3
	if c, ok := m.Position.Coordinates(); ok {
		pos = mgl64.Vec3{c.X, c.Z, c.Y}
	}
	return core.RideSample{
		SessionID: m.SessionID,
		Tick:      m.Tick,
		Elapsed:   m.Elapsed,
		Progress:  m.Progress,
		Lap:       m.Lap,
		State:     core.RideState(m.State),
		Speed:     m.Speed,
		Height:    m.Height,
		Position:  pos,
		FOV:       m.FOV,
	}
}
