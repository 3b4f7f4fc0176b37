package influx

import (
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// Measurement names written by the coaster.
const (
	MeasurementSample  = "ride_sample"
	MeasurementSession = "ride_session"
)

// SamplePoint builds the point for one telemetry tick. Time is the session
// start plus the simulated elapsed time, so replays line up.
func SamplePoint(s *core.RideSample, session *core.RideSession) *influxdb2_write.Point {
	ts := session.StartTime.Add(secondsToDuration(s.Elapsed))
	p := influxdb2_write.NewPointWithMeasurement(MeasurementSample).
		AddTag("session", s.SessionID).
		AddTag("state", string(s.State)).
		AddField("tick", int64(s.Tick)).
		AddField("elapsed", s.Elapsed).
		AddField("progress", s.Progress).
		AddField("lap", s.Lap).
		AddField("speed", s.Speed).
		AddField("height", s.Height).
		AddField("x", s.Position.X()).
		AddField("y", s.Position.Y()).
		AddField("z", s.Position.Z()).
		AddField("fov", s.FOV).
		SetTime(ts)
	return p
}

// SessionPoint builds the summary point written when a session ends.
func SessionPoint(s *core.RideSession) *influxdb2_write.Point {
	return influxdb2_write.NewPointWithMeasurement(MeasurementSession).
		AddTag("session", s.ID).
		AddTag("endState", string(s.EndState)).
		AddTag("closed", boolTag(s.Closed)).
		AddTag("chainLift", boolTag(s.ChainLift)).
		AddField("trackLength", s.TrackLength).
		AddField("multiplier", s.Multiplier).
		AddField("ticks", int64(s.Ticks)).
		AddField("laps", s.Laps).
		AddField("topSpeed", s.TopSpeed).
		AddField("duration", s.Duration).
		SetTime(s.StartTime)
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
