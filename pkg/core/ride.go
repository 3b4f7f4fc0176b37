// pkg/core/ride.go
package core

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// RideState describes the current phase of a ride.
type RideState string

const (
	RideIdle        RideState = "idle"
	RideClimbing    RideState = "climbing"
	RideFreeRolling RideState = "free_rolling"
	RideStopped     RideState = "stopped"
)

// Running reports whether the vehicle is moving along the track.
func (s RideState) Running() bool {
	return s == RideClimbing || s == RideFreeRolling
}

// CameraPose is the smoothed rider camera.
type CameraPose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Forward     mgl64.Vec3
	Up          mgl64.Vec3
	FOV         float64 // degrees
	Bank        float64 // degrees
	Pitch       float64 // degrees, positive looks down
}

// RideSession identifies one ride from start to stop. The summary fields
// are filled in when the ride ends.
type RideSession struct {
	ID          string
	StartTime   time.Time
	Closed      bool
	ChainLift   bool
	Multiplier  float64
	TrackLength float64 // metres
	Points      []ControlPoint
	Rail        []mgl64.Vec3 // sampled rail centreline for storage/preview

	EndTime  time.Time
	EndState RideState
	Ticks    uint
	Laps     int
	TopSpeed float64 // m/s
	Duration float64 // simulated seconds
}

// RideSample is one tick of ride telemetry.
type RideSample struct {
	SessionID string
	Tick      uint
	Elapsed   float64 // seconds since start
	Progress  float64
	Lap       int
	State     RideState
	Speed     float64 // m/s
	Height    float64 // metres
	Position  mgl64.Vec3
	FOV       float64
}

// TelemetryKind tags a Telemetry record.
type TelemetryKind string

const (
	TelemetryStart  TelemetryKind = "start"
	TelemetrySample TelemetryKind = "sample"
	TelemetryEnd    TelemetryKind = "end"
)

// Telemetry is the payload of a ride telemetry event. Session is set for
// start and end records, Sample for sample records.
type Telemetry struct {
	Kind    TelemetryKind
	Session *RideSession
	Sample  *RideSample
}
