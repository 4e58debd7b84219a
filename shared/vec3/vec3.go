// Package vec3 provides the 3-dimensional vector algebra the renderer's
// ray/surface math is built on.
package vec3

import (
	"math"
	"math/rand"
)

// Vec3 represents a vector (or a point, or a colour) in 3-dimensional space.
type Vec3 struct {
	X, Y, Z float64
}

// New builds a Vec3 from its three components.
func New(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns a + b.
func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z}
}

// Sub returns a - b.
func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z}
}

// Scale returns a scaled by s.
func (a Vec3) Scale(s float64) Vec3 {
	return Vec3{a.X * s, a.Y * s, a.Z * s}
}

// Neg returns -a.
func (a Vec3) Neg() Vec3 {
	return Vec3{-a.X, -a.Y, -a.Z}
}

// Mul returns the componentwise product of a and b (used for colour
// attenuation, not a geometric operation).
func (a Vec3) Mul(b Vec3) Vec3 {
	return Vec3{a.X * b.X, a.Y * b.Y, a.Z * b.Z}
}

// Dot returns the dot product of a and b.
func (a Vec3) Dot(b Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Cross returns the cross product of a and b.
func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		a.Y*b.Z - a.Z*b.Y,
		a.Z*b.X - a.X*b.Z,
		a.X*b.Y - a.Y*b.X,
	}
}

// LengthSquared returns |a|^2.
func (a Vec3) LengthSquared() float64 {
	return a.X*a.X + a.Y*a.Y + a.Z*a.Z
}

// Length returns |a|.
func (a Vec3) Length() float64 {
	return math.Sqrt(a.LengthSquared())
}

// Unit returns a normalized to unit length.
func (a Vec3) Unit() Vec3 {
	return a.Scale(1.0 / a.Length())
}

// NearZero reports whether a is close enough to the zero vector in all
// dimensions to be treated as degenerate (used after Lambertian scatter).
func (a Vec3) NearZero() bool {
	const eps = 1e-8
	return math.Abs(a.X) < eps && math.Abs(a.Y) < eps && math.Abs(a.Z) < eps
}

// Reflect returns v reflected about the surface normal n (n must be unit
// length).
func Reflect(v, n Vec3) Vec3 {
	return v.Sub(n.Scale(2 * v.Dot(n)))
}

// Refract returns the refraction of the unit vector uv through a surface
// with unit normal n, given a ratio of refractive indices etaiOverEtat.
func Refract(uv, n Vec3, etaiOverEtat float64) Vec3 {
	cosTheta := math.Min(uv.Neg().Dot(n), 1.0)
	rOutPerp := uv.Add(n.Scale(cosTheta)).Scale(etaiOverEtat)
	rOutParallel := n.Scale(-math.Sqrt(math.Abs(1.0 - rOutPerp.LengthSquared())))
	return rOutPerp.Add(rOutParallel)
}

// RandomUnitVector returns a uniformly distributed random unit vector,
// sampled via rejection from the unit cube.
func RandomUnitVector() Vec3 {
	for {
		p := Vec3{
			X: 2*rand.Float64() - 1,
			Y: 2*rand.Float64() - 1,
			Z: 2*rand.Float64() - 1,
		}
		lenSq := p.LengthSquared()
		if 1e-160 < lenSq && lenSq <= 1.0 {
			return p.Scale(1.0 / math.Sqrt(lenSq))
		}
	}
}

// RandomInUnitDisk returns a random point within the unit disk in the XY
// plane (Z is always 0), used to jitter the defocus disk sample.
func RandomInUnitDisk() Vec3 {
	for {
		p := Vec3{X: 2*rand.Float64() - 1, Y: 2*rand.Float64() - 1, Z: 0}
		if p.LengthSquared() < 1.0 {
			return p
		}
	}
}
