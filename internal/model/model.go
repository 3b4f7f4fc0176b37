package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&RideSession{},
	&RideSample{},
}

// RideSession is one ride from start to stop. Points holds the control
// points the track was built from; Rail is the sampled centreline in export
// coordinates (ground X/Y, elevation Z).
type RideSession struct {
	ID          string    `json:"id" gorm:"primarykey;size:36"`
	StartTime   time.Time `json:"startTime" gorm:"index:idx_ridesession_start_time"`
	EndTime     time.Time `json:"endTime"`
	EndState    string    `json:"endState" gorm:"size:16"`
	Closed      bool      `json:"closed" gorm:"default:false"`
	ChainLift   bool      `json:"chainLift" gorm:"default:false"`
	Multiplier  float64   `json:"multiplier" gorm:"default:1"`
	TrackLength float64   `json:"trackLength"` // metres

	Points datatypes.JSON  `json:"points"`
	Rail   geom.LineString `json:"rail"`

	Ticks    uint    `json:"ticks"`
	Laps     int     `json:"laps"`
	TopSpeed float64 `json:"topSpeed"` // m/s
	Duration float64 `json:"duration"` // simulated seconds

	Samples []RideSample `json:"-" gorm:"foreignKey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (*RideSession) TableName() string {
	return "ride_sessions"
}

// RideSample is one telemetry tick.
type RideSample struct {
	ID        uint    `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID string  `json:"sessionId" gorm:"size:36;index:idx_ridesample_session_tick,priority:1"`
	Tick      uint    `json:"tick" gorm:"index:idx_ridesample_session_tick,priority:2"`
	Elapsed   float64 `json:"elapsed"` // seconds since start
	Progress  float64 `json:"progress"`
	Lap       int     `json:"lap"`
	State     string  `json:"state" gorm:"size:16"`
	Speed     float64 `json:"speed"`  // m/s
	Height    float64 `json:"height"` // metres

	Position geom.Point `json:"position"` // export coordinates, elevation as Z
	FOV      float64    `json:"fov"`
}

func (*RideSample) TableName() string {
	return "ride_samples"
}
