package tracer

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

const eps = 1e-5

func assertVec(t *testing.T, want, got Vec3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "x")
	assert.InDelta(t, want.Y, got.Y, eps, "y")
	assert.InDelta(t, want.Z, got.Z, eps, "z")
}

func TestRotationMatrixIdentity(t *testing.T) {
	assert.Equal(t, Identity, RotationMatrix(0, 0))
}

func TestRotationMatrixQuarterTurn(t *testing.T) {
	m := RotationMatrix(math32.Pi/2, 0)
	// Looking right: forward maps to +X.
	assertVec(t, Vec3{1, 0, 0}, m.Apply(Vec3{0, 0, 1}))
	assertVec(t, Vec3{0, 0, -1}, m.Apply(Vec3{1, 0, 0}))

	m = RotationMatrix(0, math32.Pi/2)
	// Positive theta tilts forward toward -Y.
	assertVec(t, Vec3{0, -1, 0}, m.Apply(Vec3{0, 0, 1}))
}

func TestRotationPreservesLength(t *testing.T) {
	m := RotationMatrix(0.7, -0.3)
	v := Vec3{1, 2, 3}
	assert.InDelta(t, v.Length(), m.Apply(v).Length(), eps)
}

func TestMatrixFloats(t *testing.T) {
	m := Matrix{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}
	assert.Equal(t, [9]float32{1, 2, 3, 4, 5, 6, 7, 8, 9}, m.Floats())
}

func TestUpdateExit(t *testing.T) {
	prev := NewState()
	prev.Camera.Position = Vec3{1, 2, 3}

	next, done := Update(prev, Input{Exit: true, Move: Vec3{1, 0, 0}})
	assert.True(t, done)
	assert.Equal(t, prev, next)
}

func TestUpdateMovesThenTurns(t *testing.T) {
	s := NewState()
	in := Input{Move: Vec3{0, 0, 1}, LookHorizontal: math32.Pi / 2}

	// The first step uses the orientation before the turn.
	s, done := Update(s, in)
	assert.False(t, done)
	assertVec(t, Vec3{0, 0, 1}, s.Camera.Position)
	assert.InDelta(t, math32.Pi/2, s.Camera.Alpha, eps)
	assert.Equal(t, 1, s.Frame)

	// The second step moves along the turned axis.
	s, _ = Update(s, Input{Move: Vec3{0, 0, 1}})
	assertVec(t, Vec3{1, 0, 1}, s.Camera.Position)
	assertVec(t, Vec3{1, 0, 0}, s.Camera.Matrix.Apply(Vec3{0, 0, 1}))
}

func TestUpdateIsPure(t *testing.T) {
	prev := NewState()
	_, _ = Update(prev, Input{Move: Vec3{1, 1, 1}, LookVertical: 0.5})
	assert.Equal(t, NewState(), prev)
}
