// Package parser turns textual command arguments into typed edit and ride
// parameters. Numbers may arrive as integers or floats ("3" or "3.00");
// vectors may be three separate arguments or one "[x,y,z]" argument.
package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/nizalia829/roller-coaster-builder/internal/util"
	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

// parseUintFromFloat parses a string that may be an integer ("32") or float ("32.00") into uint64.
func parseUintFromFloat(s string) (uint64, error) {
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxUint64 {
		return 0, fmt.Errorf("parseUintFromFloat: %q is not a valid uint64", s)
	}
	return uint64(f), nil
}

// ParseFloat parses a finite number.
func ParseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(util.TrimQuotes(s)), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return f, nil
}

// ParseBool accepts true/false, 1/0 and yes/no.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(util.TrimQuotes(s))) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}

// ParsePointID parses a control point id.
func ParsePointID(s string) (core.PointID, error) {
	v, err := parseUintFromFloat(strings.TrimSpace(util.TrimQuotes(s)))
	if err != nil {
		return 0, fmt.Errorf("invalid point id %q: %w", s, err)
	}
	return core.PointID(v), nil
}

// ParseVec3 reads a position from the front of args and returns the
// remaining arguments.
func ParseVec3(args []string) (mgl64.Vec3, []string, error) {
	var v mgl64.Vec3
	if len(args) == 0 {
		return v, nil, fmt.Errorf("missing position")
	}
	parts, rest := args, []string(nil)
	if elems, ok := util.SplitArray(args[0]); ok {
		parts, rest = elems, args[1:]
		if len(parts) != 3 {
			return v, nil, fmt.Errorf("position needs 3 components, got %d", len(parts))
		}
	} else {
		if len(args) < 3 {
			return v, nil, fmt.Errorf("position needs 3 components, got %d", len(args))
		}
		parts, rest = args[:3], args[3:]
	}
	for i, p := range parts {
		f, err := ParseFloat(p)
		if err != nil {
			return v, nil, fmt.Errorf("position component %d: %w", i, err)
		}
		v[i] = f
	}
	return v, rest, nil
}

// ParseLoop reads optional radius, pitch and lateral values; missing or
// empty values keep the defaults from def.
func ParseLoop(args []string, def core.LoopSpec) (core.LoopSpec, error) {
	if len(args) == 1 {
		if elems, ok := util.SplitArray(args[0]); ok {
			args = elems
		}
	}
	spec := def
	fields := []*float64{&spec.Radius, &spec.Pitch, &spec.Lateral}
	for i, a := range args {
		if i >= len(fields) {
			break
		}
		if strings.TrimSpace(util.TrimQuotes(a)) == "" {
			continue
		}
		f, err := ParseFloat(a)
		if err != nil {
			return def, fmt.Errorf("loop parameter %d: %w", i, err)
		}
		*fields[i] = f
	}
	return spec, nil
}
