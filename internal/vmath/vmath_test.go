package vmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_ZeroFallsBack(t *testing.T) {
	fb := mgl64.Vec3{0, 0, 1}
	assert.Equal(t, fb, Normalize(mgl64.Vec3{}, fb))
	assert.InDelta(t, 1.0, Normalize(mgl64.Vec3{3, 4, 0}, fb).Len(), 1e-12)
}

func TestUpFor_Horizontal(t *testing.T) {
	up := UpFor(mgl64.Vec3{1, 0, 0})
	assert.True(t, Near(up, WorldUp, 1e-12))
}

func TestUpFor_VerticalTangentUsesFallbackAxis(t *testing.T) {
	up := UpFor(mgl64.Vec3{0, 1, 0})
	assert.InDelta(t, 1.0, up.Len(), 1e-9)
	assert.InDelta(t, 0.0, up.Dot(mgl64.Vec3{0, 1, 0}), 1e-9)
	assert.True(t, Finite(up))
}

func TestOrthogonalize_CollapsedUp(t *testing.T) {
	tangent := mgl64.Vec3{0, 0, 1}
	up := Orthogonalize(tangent, tangent)
	assert.InDelta(t, 0.0, up.Dot(tangent), 1e-9)
	assert.InDelta(t, 1.0, up.Len(), 1e-9)
}

func TestMinimalRotation(t *testing.T) {
	from := mgl64.Vec3{1, 0, 0}
	to := mgl64.Vec3{0, 0, 1}
	q, ok := MinimalRotation(from, to)
	assert.True(t, ok)
	assert.True(t, Near(q.Rotate(from), to, 1e-9))
	// vectors orthogonal to both stay put
	assert.True(t, Near(q.Rotate(WorldUp), WorldUp, 1e-9))

	_, ok = MinimalRotation(from, from)
	assert.False(t, ok)
	_, ok = MinimalRotation(from, from.Mul(-1))
	assert.False(t, ok)
}

func TestRotateAbout(t *testing.T) {
	v := RotateAbout(WorldUp, WorldForward, math.Pi/2)
	assert.True(t, Near(v, mgl64.Vec3{-1, 0, 0}, 1e-9))
}

func TestHorizontal(t *testing.T) {
	_, ok := Horizontal(mgl64.Vec3{0, 5, 0})
	assert.False(t, ok)
	d, ok := Horizontal(mgl64.Vec3{3, 7, 4})
	assert.True(t, ok)
	assert.True(t, Near(d, mgl64.Vec3{0.6, 0, 0.8}, 1e-12))
}
