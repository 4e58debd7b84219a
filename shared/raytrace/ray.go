// Package raytrace holds the ray/surface math shared by object workers and
// ray workers: rays, intervals, hit records, the sky gradient, and
// colour/gamma handling. Sphere intersection lives in shared/primitive.
package raytrace

import "github.com/brickrender/distraytracer/shared/vec3"

// Ray is a parametric ray: origin + t*direction.
type Ray struct {
	Origin    vec3.Vec3
	Direction vec3.Vec3
}

// At returns the point along the ray at parameter t.
func (r Ray) At(t float64) vec3.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// Interval represents a closed-or-open range [Min, Max] depending on use.
type Interval struct {
	Min, Max float64
}

// Surrounds reports whether x lies strictly inside the interval.
func (iv Interval) Surrounds(x float64) bool {
	return iv.Min < x && x < iv.Max
}

// Contains reports whether x lies within the closed interval.
func (iv Interval) Contains(x float64) bool {
	return iv.Min <= x && x <= iv.Max
}

// Clamp restricts x to the interval's bounds.
func (iv Interval) Clamp(x float64) float64 {
	if x < iv.Min {
		return iv.Min
	}
	if x > iv.Max {
		return iv.Max
	}
	return x
}
