// Package geo exports rail geometry for GIS tools.
//
// Track space is Y-up metres. Exported coordinates put the ground plane in
// X/Y (track X east, track Z north) and elevation in Z, which is what WKT and
// GeoJSON consumers expect.
package geo

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/samber/lo"
	"github.com/wroge/wgs84"

	"github.com/nizalia829/roller-coaster-builder/internal/track"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// ErrInvalidAnchor is returned when an anchor lies outside the Web Mercator range.
var ErrInvalidAnchor = errors.New("anchor must be a finite longitude in [-180,180] and latitude in (-85,85)")

// Ground converts a track point to export coordinates.
func Ground(p mgl64.Vec3) geom.Coordinates {
	return geom.Coordinates{
		XY:   geom.XY{X: p.X(), Y: p.Z()},
		Z:    p.Y(),
		Type: geom.DimXYZ,
	}
}

// LineString builds an XYZ line string through points. Fewer than two
// points give an empty line string.
func LineString(points []mgl64.Vec3) geom.LineString {
	if len(points) < 2 {
		return geom.LineString{}
	}
	flat := make([]float64, 0, len(points)*3)
	for _, p := range points {
		c := Ground(p)
		flat = append(flat, c.X, c.Y, c.Z)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ))
}

// RailLineString samples the rail centreline n times.
func RailLineString(t *track.Track, n int) geom.LineString {
	return LineString(lo.Map(t.Samples(n), func(s core.Sample, _ int) mgl64.Vec3 {
		return s.Point
	}))
}

// RailWKT returns the sampled rail as WKT.
func RailWKT(t *track.Track, n int) string {
	return RailLineString(t, n).AsText()
}

// Anchor places the track origin on the globe.
type Anchor struct {
	Longitude float64
	Latitude  float64
}

// Validate checks the anchor can be projected.
func (a Anchor) Validate() error {
	ok := !math.IsNaN(a.Longitude) && !math.IsNaN(a.Latitude) &&
		a.Longitude >= -180 && a.Longitude <= 180 &&
		a.Latitude > -85 && a.Latitude < 85
	if !ok {
		return ErrInvalidAnchor
	}
	return nil
}

// Georeference maps a local line string to WGS84 longitude/latitude around
// the anchor. Offsets are applied in EPSG:3857 and scaled by the Mercator
// factor at the anchor latitude, so metres stay metres near the origin.
func Georeference(ls geom.LineString, a Anchor) (geom.LineString, error) {
	if err := a.Validate(); err != nil {
		return geom.LineString{}, err
	}
	epsg := wgs84.EPSG()
	toMercator := epsg.Transform(4326, 3857)
	toLonLat := epsg.Transform(3857, 4326)

	ox, oy, _ := toMercator(a.Longitude, a.Latitude, 0)
	scale := 1 / math.Cos(a.Latitude*math.Pi/180)

	seq := ls.Coordinates()
	flat := make([]float64, 0, seq.Length()*3)
	for i := 0; i < seq.Length(); i++ {
		c := seq.Get(i)
		lon, lat, _ := toLonLat(ox+c.X*scale, oy+c.Y*scale, 0)
		flat = append(flat, lon, lat, c.Z)
	}
	if len(flat) < 6 {
		return geom.LineString{}, nil
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ)), nil
}
