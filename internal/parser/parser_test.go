package parser

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nizalia829/roller-coaster-builder/pkg/core"
)

func TestParseUintFromFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint64
		wantErr bool
	}{
		{"integer", "32", 32, false},
		{"zero", "0", 0, false},
		{"float with decimals", "32.00", 32, false},
		{"fractional rejects", "10.99", 0, true},
		{"empty string", "", 0, true},
		{"non-numeric", "abc", 0, true},
		{"negative", "-1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseUintFromFloat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseFloat(t *testing.T) {
	f, err := ParseFloat(`"-2.5"`)
	require.NoError(t, err)
	assert.Equal(t, -2.5, f)

	_, err = ParseFloat("NaN")
	assert.Error(t, err)
	_, err = ParseFloat("Inf")
	assert.Error(t, err)
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "1", "YES", `"on"`} {
		b, err := ParseBool(s)
		require.NoError(t, err, s)
		assert.True(t, b, s)
	}
	b, err := ParseBool("false")
	require.NoError(t, err)
	assert.False(t, b)

	_, err = ParseBool("maybe")
	assert.Error(t, err)
}

func TestParsePointID(t *testing.T) {
	id, err := ParsePointID("12.0")
	require.NoError(t, err)
	assert.Equal(t, core.PointID(12), id)

	_, err = ParsePointID("x")
	assert.Error(t, err)
}

func TestParseVec3(t *testing.T) {
	v, rest, err := ParseVec3([]string{"1", "2.5", "-3", "extra"})
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{1, 2.5, -3}, v)
	assert.Equal(t, []string{"extra"}, rest)

	v, rest, err = ParseVec3([]string{"[4, 5, 6]", "30"})
	require.NoError(t, err)
	assert.Equal(t, mgl64.Vec3{4, 5, 6}, v)
	assert.Equal(t, []string{"30"}, rest)

	_, _, err = ParseVec3([]string{"1", "2"})
	assert.Error(t, err)
	_, _, err = ParseVec3([]string{"[1,2]"})
	assert.Error(t, err)
	_, _, err = ParseVec3([]string{"1", "b", "3"})
	assert.Error(t, err)
	_, _, err = ParseVec3(nil)
	assert.Error(t, err)
}

func TestParseLoop(t *testing.T) {
	def := core.LoopSpec{Radius: 8, Pitch: 4, Lateral: 1.5}

	spec, err := ParseLoop(nil, def)
	require.NoError(t, err)
	assert.Equal(t, def, spec)

	spec, err = ParseLoop([]string{"10"}, def)
	require.NoError(t, err)
	assert.Equal(t, core.LoopSpec{Radius: 10, Pitch: 4, Lateral: 1.5}, spec)

	spec, err = ParseLoop([]string{"[12,,0]"}, def)
	require.NoError(t, err)
	assert.Equal(t, core.LoopSpec{Radius: 12, Pitch: 4, Lateral: 0}, spec)

	_, err = ParseLoop([]string{"big"}, def)
	assert.Error(t, err)
}
