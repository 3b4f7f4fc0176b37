// Package streaming defines the JSON messages of the live telemetry stream.
package streaming

import (
	"encoding/json"
	"time"

	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypeSample       = "sample"
	TypeAck          = "ack"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// SessionPayload describes a session at start or end.
type SessionPayload struct {
	ID          string              `json:"id"`
	StartTime   time.Time           `json:"startTime"`
	EndTime     *time.Time          `json:"endTime,omitempty"`
	EndState    string              `json:"endState,omitempty"`
	Closed      bool                `json:"closed"`
	ChainLift   bool                `json:"chainLift"`
	Multiplier  float64             `json:"multiplier"`
	TrackLength float64             `json:"trackLength"`
	Points      []core.ControlPoint `json:"points,omitempty"`
	Rail        [][3]float64        `json:"rail,omitempty"`
	Ticks       uint                `json:"ticks"`
	Laps        int                 `json:"laps"`
	TopSpeed    float64             `json:"topSpeed"`
	Duration    float64             `json:"duration"`
}

// SamplePayload is one telemetry tick.
type SamplePayload struct {
	Session  string     `json:"session"`
	Tick     uint       `json:"tick"`
	Elapsed  float64    `json:"elapsed"`
	Progress float64    `json:"progress"`
	Lap      int        `json:"lap"`
	State    string     `json:"state"`
	Speed    float64    `json:"speed"`
	Height   float64    `json:"height"`
	Position [3]float64 `json:"position"`
	FOV      float64    `json:"fov"`
}

// NewSessionPayload converts a session. Geometry is only sent at start.
func NewSessionPayload(s *core.RideSession, withGeometry bool) SessionPayload {
	p := SessionPayload{
		ID:          s.ID,
		StartTime:   s.StartTime,
		EndState:    string(s.EndState),
		Closed:      s.Closed,
		ChainLift:   s.ChainLift,
		Multiplier:  s.Multiplier,
		TrackLength: s.TrackLength,
		Ticks:       s.Ticks,
		Laps:        s.Laps,
		TopSpeed:    s.TopSpeed,
		Duration:    s.Duration,
	}
	if !s.EndTime.IsZero() {
		end := s.EndTime
		p.EndTime = &end
	}
	if withGeometry {
		p.Points = s.Points
		p.Rail = make([][3]float64, len(s.Rail))
		for i, v := range s.Rail {
			p.Rail[i] = [3]float64(v)
		}
	}
	return p
}

// NewSamplePayload converts a tick.
func NewSamplePayload(s *core.RideSample) SamplePayload {
	return SamplePayload{
		Session:  s.SessionID,
		Tick:     s.Tick,
		Elapsed:  s.Elapsed,
		Progress: s.Progress,
		Lap:      s.Lap,
		State:    string(s.State),
		Speed:    s.Speed,
		Height:   s.Height,
		Position: [3]float64(s.Position),
		FOV:      s.FOV,
	}
}
