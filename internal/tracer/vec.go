package tracer

import "github.com/chewxy/math32"

// Vec3 is a point or direction in scene space.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Length() float32 { return math32.Sqrt(v.Dot(v)) }

// Matrix is a 3x3 rotation matrix stored by rows.
type Matrix [3]Vec3

// Identity is the rotation of a camera looking down +Z.
var Identity = Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// RotationMatrix returns the camera rotation for a horizontal angle alpha
// and a vertical angle theta, both in radians.
func RotationMatrix(alpha, theta float32) Matrix {
	sa, ca := math32.Sincos(alpha)
	st, ct := math32.Sincos(theta)
	return Matrix{
		{ca, sa * st, sa * ct},
		{0, ct, -st},
		{-sa, st * ca, ca * ct},
	}
}

// Apply rotates v.
func (m Matrix) Apply(v Vec3) Vec3 {
	return Vec3{m[0].Dot(v), m[1].Dot(v), m[2].Dot(v)}
}

// Floats flattens the matrix in row order.
func (m Matrix) Floats() [9]float32 {
	return [9]float32{
		m[0].X, m[0].Y, m[0].Z,
		m[1].X, m[1].Y, m[1].Z,
		m[2].X, m[2].Y, m[2].Z,
	}
}
