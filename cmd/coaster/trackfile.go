package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nizalia829/roller-coaster-builder/internal/dispatcher"
	"github.com/nizalia829/roller-coaster-builder/internal/engine"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// TrackFile is a saved layout. Replaying it sends the same commands an
// editor would, so a file exercises the full command surface.
type TrackFile struct {
	Closed          bool         `json:"closed"`
	ChainLift       *bool        `json:"chainLift,omitempty"`
	SpeedMultiplier *float64     `json:"speedMultiplier,omitempty"`
	Points          []TrackPoint `json:"points"`
}

// TrackPoint is one control point of a track file.
type TrackPoint struct {
	Position [3]float64     `json:"position"`
	Tilt     float64        `json:"tilt,omitempty"`
	Loop     *core.LoopSpec `json:"loop,omitempty"`
}

// LoadTrackFile reads and validates a track file.
func LoadTrackFile(path string) (*TrackFile, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open track file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	var tf TrackFile
	if err := dec.Decode(&tf); err != nil {
		return nil, fmt.Errorf("failed to decode track file %s: %w", path, err)
	}
	if len(tf.Points) < 2 {
		return nil, fmt.Errorf("track file %s: need at least 2 points, got %d", path, len(tf.Points))
	}
	return &tf, nil
}

// Replay builds the track through d. Loops are created after every point
// exists and after the path is closed, since a loop needs a successor.
func (tf *TrackFile) Replay(d *dispatcher.Dispatcher) error {
	ids := make([]core.PointID, len(tf.Points))
	for i, p := range tf.Points {
		res, err := d.Dispatch(dispatcher.Event{
			Command: engine.CmdPathAdd,
			Args:    []string{vecArg(p.Position)},
		})
		if err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
		id, ok := res.(core.PointID)
		if !ok {
			return fmt.Errorf("point %d: unexpected add result %T", i, res)
		}
		ids[i] = id

		if p.Tilt != 0 {
			if _, err := d.Dispatch(dispatcher.Event{
				Command: engine.CmdPathTilt,
				Args:    []string{idArg(id), floatArg(p.Tilt)},
			}); err != nil {
				return fmt.Errorf("point %d: %w", i, err)
			}
		}
	}

	if _, err := d.Dispatch(dispatcher.Event{
		Command: engine.CmdPathClose,
		Args:    []string{strconv.FormatBool(tf.Closed)},
	}); err != nil {
		return err
	}

	for i, p := range tf.Points {
		if p.Loop == nil {
			continue
		}
		arg := vecArg([3]float64{p.Loop.Radius, p.Loop.Pitch, p.Loop.Lateral})
		if _, err := d.Dispatch(dispatcher.Event{
			Command: engine.CmdPathLoop,
			Args:    []string{idArg(ids[i]), arg},
		}); err != nil {
			return fmt.Errorf("point %d: %w", i, err)
		}
	}
	return nil
}

// ApplyRide sends the ride settings: the file's values unless an override
// is given.
func (tf *TrackFile) ApplyRide(d *dispatcher.Dispatcher, chainLift *bool, speed *float64) error {
	if chainLift == nil {
		chainLift = tf.ChainLift
	}
	if speed == nil {
		speed = tf.SpeedMultiplier
	}
	if chainLift != nil {
		if _, err := d.Dispatch(dispatcher.Event{
			Command: engine.CmdRideChain,
			Args:    []string{strconv.FormatBool(*chainLift)},
		}); err != nil {
			return err
		}
	}
	if speed != nil {
		if _, err := d.Dispatch(dispatcher.Event{
			Command: engine.CmdRideSpeed,
			Args:    []string{floatArg(*speed)},
		}); err != nil {
			return err
		}
	}
	return nil
}

func floatArg(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func idArg(id core.PointID) string {
	return strconv.FormatUint(uint64(id), 10)
}

func vecArg(v [3]float64) string {
	return "[" + floatArg(v[0]) + "," + floatArg(v[1]) + "," + floatArg(v[2]) + "]"
}
