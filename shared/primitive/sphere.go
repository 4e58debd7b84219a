// Package primitive holds the scene geometry an object worker stores and
// tests rays against. Sphere is the only primitive kind supported today, but
// it carries a Kind discriminator so the wire messages that embed it can
// grow new kinds without changing their shape.
package primitive

import (
	"math"

	"github.com/brickrender/distraytracer/shared/material"
	"github.com/brickrender/distraytracer/shared/raytrace"
	"github.com/brickrender/distraytracer/shared/vec3"
)

// Kind discriminates the closed set of primitive shapes.
type Kind int

const (
	SphereKind Kind = iota
)

// Sphere is a sphere primitive together with the material its surface
// scatters with.
type Sphere struct {
	Kind     Kind
	Center   vec3.Vec3
	Radius   float64
	Material material.Material
}

// NewSphere builds a Sphere, clamping a negative radius to zero.
func NewSphere(center vec3.Vec3, radius float64, mat material.Material) Sphere {
	if radius < 0 {
		radius = 0
	}
	return Sphere{Kind: SphereKind, Center: center, Radius: radius, Material: mat}
}

// Hit tests r against the sphere for an intersection within rayT, returning
// the nearest qualifying root.
func (s Sphere) Hit(r raytrace.Ray, rayT raytrace.Interval) (raytrace.HitRecord, bool) {
	oc := s.Center.Sub(r.Origin)
	a := r.Direction.LengthSquared()
	h := r.Direction.Dot(oc)
	c := oc.LengthSquared() - s.Radius*s.Radius

	discriminant := h*h - a*c
	if discriminant < 0 {
		return raytrace.HitRecord{}, false
	}
	sqrtd := math.Sqrt(discriminant)

	root := (h - sqrtd) / a
	if !rayT.Surrounds(root) {
		root = (h + sqrtd) / a
		if !rayT.Surrounds(root) {
			return raytrace.HitRecord{}, false
		}
	}

	var rec raytrace.HitRecord
	rec.T = root
	rec.P = r.At(rec.T)
	outwardNormal := rec.P.Sub(s.Center).Scale(1.0 / s.Radius)
	rec.SetFaceNormal(r, outwardNormal)
	return rec, true
}

// BoundingBox returns the sphere's axis-aligned bounding box: the center
// offset by the radius along each axis.
func (s Sphere) BoundingBox() (min, max vec3.Vec3) {
	r := vec3.New(s.Radius, s.Radius, s.Radius)
	return s.Center.Sub(r), s.Center.Add(r)
}

// HitAny tests r against every sphere in spheres and returns the nearest hit
// within rayT along with the material to scatter it with.
func HitAny(spheres []Sphere, r raytrace.Ray, rayT raytrace.Interval) (raytrace.HitRecord, material.Material, bool) {
	var (
		closest = rayT
		best    raytrace.HitRecord
		bestMat material.Material
		anyHit  bool
	)
	for _, sp := range spheres {
		rec, ok := sp.Hit(r, closest)
		if !ok {
			continue
		}
		anyHit = true
		best = rec
		bestMat = sp.Material
		closest.Max = rec.T
	}
	return best, bestMat, anyHit
}
