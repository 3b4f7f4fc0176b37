package geo

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/nizalia829/roller-coaster-builder/internal/frame"
	"github.com/nizalia829/roller-coaster-builder/internal/track"
)

// Gauge is the distance in metres between the two running rails.
const Gauge = 1.2

// Rails offsets n centreline samples by half the gauge along the right
// vector of the parallel-transported frame, banked by the track tilt.
func Rails(t *track.Track, n int, gauge float64) (left, right geom.LineString) {
	frames := frame.Sweep(t, n)
	if len(frames) == 0 || t.Empty() {
		return geom.LineString{}, geom.LineString{}
	}
	l := make([]mgl64.Vec3, len(frames))
	r := make([]mgl64.Vec3, len(frames))
	for i, f := range frames {
		p := t.Sample(float64(i) / float64(len(frames)-1)).Point
		off := f.Right.Mul(gauge / 2)
		l[i] = p.Sub(off)
		r[i] = p.Add(off)
	}
	return LineString(l), LineString(r)
}

// RailGeoJSON exports one LineString feature per track section, sampled with
// roughly n points over the whole track, followed by the left and right
// rails. With an anchor the coordinates are WGS84; without one they are
// local metres.
func RailGeoJSON(t *track.Track, n int, anchor *Anchor) ([]byte, error) {
	if n < 2 {
		n = 2
	}
	sections := t.Sections()
	features := make(geom.GeoJSONFeatureCollection, 0, len(sections)+2)
	for i, s := range sections {
		span := s.ProgressEnd - s.ProgressStart
		count := int(math.Ceil(float64(n) * span))
		if count < 2 {
			count = 2
		}
		points := make([]mgl64.Vec3, count)
		for j := range points {
			p := s.ProgressStart + span*float64(j)/float64(count-1)
			if j == count-1 && i == len(sections)-1 {
				p = track.MaxProgress
			}
			points[j] = t.Sample(p).Point
		}

		ls := LineString(points)
		if anchor != nil {
			var err error
			if ls, err = Georeference(ls, *anchor); err != nil {
				return nil, err
			}
		}

		features = append(features, geom.GeoJSONFeature{
			Geometry: ls.AsGeometry(),
			ID:       i,
			Properties: map[string]interface{}{
				"kind":   s.Kind.String(),
				"from":   s.From,
				"to":     s.To,
				"length": s.Length,
				"start":  s.ProgressStart,
				"end":    s.ProgressEnd,
			},
		})
	}

	type rail struct {
		side string
		ls   geom.LineString
	}
	var rails []rail
	if !t.Empty() {
		left, right := Rails(t, n, Gauge)
		rails = []rail{{"left", left}, {"right", right}}
	}
	for i, r := range rails {
		ls := r.ls
		if anchor != nil {
			var err error
			if ls, err = Georeference(ls, *anchor); err != nil {
				return nil, err
			}
		}
		features = append(features, geom.GeoJSONFeature{
			Geometry: ls.AsGeometry(),
			ID:       len(sections) + i,
			Properties: map[string]interface{}{
				"kind":  "rail",
				"side":  r.side,
				"gauge": Gauge,
			},
		})
	}

	out, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("encoding rail geojson: %w", err)
	}
	return out, nil
}
