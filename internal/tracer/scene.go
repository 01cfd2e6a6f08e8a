package tracer

import (
	"bytes"
	"encoding/binary"
)

// Sphere is one scene object.
type Sphere struct {
	Color    Vec3
	Position Vec3
	Emission float32
	Radius   float32
}

// SphereSize is the device-side size of one sphere record.
const SphereSize = 48

// sphereRecord mirrors the kernel's struct Sphere: float3 members take 16
// bytes and the struct is padded to a multiple of 16.
type sphereRecord struct {
	Color    [4]float32
	Position [4]float32
	Emission float32
	Radius   float32
	_        [2]float32
}

// EncodeScene lays spheres out in the kernel's memory format.
func EncodeScene(spheres []Sphere) []byte {
	var buf bytes.Buffer
	buf.Grow(len(spheres) * SphereSize)
	for _, s := range spheres {
		rec := sphereRecord{
			Color:    [4]float32{s.Color.X, s.Color.Y, s.Color.Z, 0},
			Position: [4]float32{s.Position.X, s.Position.Y, s.Position.Z, 0},
			Emission: s.Emission,
			Radius:   s.Radius,
		}
		// Writes to a bytes.Buffer cannot fail.
		_ = binary.Write(&buf, binary.LittleEndian, rec)
	}
	return buf.Bytes()
}

var (
	red    = Vec3{1, 0.1, 0.1}
	purple = Vec3{0.6, 0.2, 0.8}
	blue   = Vec3{0.2, 0.3, 1}
	white  = Vec3{1, 1, 1}
	cyan   = Vec3{0.1, 0.9, 0.9}
)

// DefaultScene returns the built-in scene: three small spheres resting on a
// large ground sphere, lit by a distant emissive one.
func DefaultScene() []Sphere {
	return []Sphere{
		{Color: red, Position: Vec3{-0.3, -0.8, 9}, Radius: 1},
		{Color: purple, Position: Vec3{0, -100, 0}, Radius: 99},
		{Color: blue, Position: Vec3{0, 0, 7}, Emission: 0.05, Radius: 0.8},
		{Color: white, Position: Vec3{-8, 8, 10}, Emission: 1, Radius: 10},
		{Color: cyan, Position: Vec3{1.3, -0.3, 7}, Radius: 0.7},
	}
}
