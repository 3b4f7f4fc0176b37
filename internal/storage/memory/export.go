package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"

	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// ExportVersion is written into every export document.
const ExportVersion = 1

// RideExport is the root JSON structure
type RideExport struct {
	Version     int                 `json:"version"`
	ID          string              `json:"id"`
	StartTime   time.Time           `json:"startTime"`
	EndTime     time.Time           `json:"endTime"`
	EndState    string              `json:"endState"`
	Closed      bool                `json:"closed"`
	ChainLift   bool                `json:"chainLift"`
	Multiplier  float64             `json:"multiplier"`
	TrackLength float64             `json:"trackLength"`
	Ticks       uint                `json:"ticks"`
	Laps        int                 `json:"laps"`
	TopSpeed    float64             `json:"topSpeed"`
	Duration    float64             `json:"duration"`
	Points      []core.ControlPoint `json:"points"`
	Rail        [][3]float64        `json:"rail"`
	Samples     []SampleJSON        `json:"samples"`
}

// SampleJSON is one exported tick
type SampleJSON struct {
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

// exportJSON writes the session to a JSON file, gzipped when configured
func (b *Backend) exportJSON(record *SessionRecord) error {
	export := buildExport(record)

	id := record.Session.ID
	if len(id) > 8 {
		id = id[:8]
	}
	id = strings.ReplaceAll(id, string(filepath.Separator), "_")
	timestamp := record.Session.StartTime.Format("20060102_150405")

	filename := fmt.Sprintf("ride_%s_%s.json", timestamp, id)
	if b.cfg.CompressOutput {
		filename += ".gz"
	}
	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	if b.cfg.CompressOutput {
		err = writeGzipJSON(outputPath, export)
	} else {
		err = writeJSON(outputPath, export)
	}
	if err != nil {
		return err
	}

	b.lastExportPath = outputPath
	return nil
}

func buildExport(record *SessionRecord) RideExport {
	s := record.Session
	return RideExport{
		Version:     ExportVersion,
		ID:          s.ID,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		EndState:    string(s.EndState),
		Closed:      s.Closed,
		ChainLift:   s.ChainLift,
		Multiplier:  s.Multiplier,
		TrackLength: s.TrackLength,
		Ticks:       s.Ticks,
		Laps:        s.Laps,
		TopSpeed:    s.TopSpeed,
		Duration:    s.Duration,
		Points:      lo.Ternary(s.Points == nil, []core.ControlPoint{}, s.Points),
		Rail: lo.Map(s.Rail, func(p mgl64.Vec3, _ int) [3]float64 {
			return [3]float64(p)
		}),
		Samples: lo.Map(record.Samples, func(x core.RideSample, _ int) SampleJSON {
			return SampleJSON{
				Tick:     x.Tick,
				Elapsed:  x.Elapsed,
				Progress: x.Progress,
				Lap:      x.Lap,
				State:    string(x.State),
				Speed:    x.Speed,
				Height:   x.Height,
				Position: [3]float64(x.Position),
				FOV:      x.FOV,
			}
		}),
	}
}

func writeJSON(path string, data RideExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data RideExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}

// ReadExport loads an export file written by the memory backend.
func ReadExport(path string) (RideExport, error) {
	var export RideExport

	f, err := os.Open(path)
	if err != nil {
		return export, fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return export, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return export, fmt.Errorf("failed to decode export: %w", err)
	}
	return export, nil
}
