// Package material implements surface scattering as a closed sum type. Each
// Material is a tagged struct rather than an interface: the set of kinds is
// fixed by the wire protocol and both object worker and client need to
// gob-encode/decode it without registering concrete types for an interface.
package material

import (
	"math"
	"math/rand"

	"github.com/brickrender/distraytracer/shared/raytrace"
	"github.com/brickrender/distraytracer/shared/vec3"
)

// Kind discriminates the closed set of scattering behaviours a Material can
// have.
type Kind int

const (
	Absorb Kind = iota
	Lambertian
	Metal
	Dielectric
	Transparent
)

// Material is a tagged union of every scattering behaviour the renderer
// supports. Only the fields relevant to Kind are meaningful.
type Material struct {
	Kind Kind

	// Lambertian, Metal
	Albedo vec3.Vec3

	// Metal
	Fuzz float64

	// Dielectric
	RefractionIndex float64
}

// NewLambertian builds a diffuse material with the given albedo.
func NewLambertian(albedo vec3.Vec3) Material {
	return Material{Kind: Lambertian, Albedo: albedo}
}

// NewMetal builds a reflective material. Fuzz is clamped to [0, 1].
func NewMetal(albedo vec3.Vec3, fuzz float64) Material {
	if fuzz > 1.0 {
		fuzz = 1.0
	}
	if fuzz < 0 {
		fuzz = 0
	}
	return Material{Kind: Metal, Albedo: albedo, Fuzz: fuzz}
}

// NewDielectric builds a refractive material with the given refraction
// index.
func NewDielectric(refractionIndex float64) Material {
	return Material{Kind: Dielectric, RefractionIndex: refractionIndex}
}

// NewTransparent builds a material that passes every ray straight through
// unattenuated.
func NewTransparent() Material {
	return Material{Kind: Transparent}
}

// NewAbsorb builds a material that terminates every ray that strikes it.
func NewAbsorb() Material {
	return Material{Kind: Absorb}
}

// Scatter computes the outgoing ray and colour attenuation for a ray that
// struck rec, dispatching on m.Kind. The second return value is false if the
// ray was absorbed rather than scattered.
func Scatter(m Material, rIn raytrace.Ray, rec raytrace.HitRecord) (scattered raytrace.Ray, attenuation vec3.Vec3, ok bool) {
	switch m.Kind {
	case Absorb:
		return raytrace.Ray{}, vec3.Vec3{}, false

	case Transparent:
		return rIn, vec3.New(1, 1, 1), true

	case Lambertian:
		direction := rec.Normal.Add(vec3.RandomUnitVector())
		if direction.NearZero() {
			direction = rec.Normal
		}
		return raytrace.Ray{Origin: rec.P, Direction: direction}, m.Albedo, true

	case Metal:
		reflected := vec3.Reflect(rIn.Direction, rec.Normal)
		reflected = reflected.Unit().Add(vec3.RandomUnitVector().Scale(m.Fuzz))
		scattered := raytrace.Ray{Origin: rec.P, Direction: reflected}
		if scattered.Direction.Dot(rec.Normal) <= 0 {
			return scattered, m.Albedo, false
		}
		return scattered, m.Albedo, true

	case Dielectric:
		ri := m.RefractionIndex
		if rec.FrontFace {
			ri = 1.0 / m.RefractionIndex
		}
		unitDirection := rIn.Direction.Unit()
		cosTheta := math.Min(unitDirection.Neg().Dot(rec.Normal), 1.0)
		sinTheta := math.Sqrt(1.0 - cosTheta*cosTheta)

		cannotRefract := ri*sinTheta > 1.0

		var direction vec3.Vec3
		if cannotRefract || schlickReflectance(cosTheta, ri) > rand.Float64() {
			direction = vec3.Reflect(unitDirection, rec.Normal)
		} else {
			direction = vec3.Refract(unitDirection, rec.Normal, ri)
		}
		return raytrace.Ray{Origin: rec.P, Direction: direction}, vec3.New(1, 1, 1), true

	default:
		return raytrace.Ray{}, vec3.Vec3{}, false
	}
}

// schlickReflectance is Schlick's approximation for the Fresnel reflectance
// of a dielectric surface.
func schlickReflectance(cosine, refractionIndex float64) float64 {
	r0 := (1 - refractionIndex) / (1 + refractionIndex)
	r0 = r0 * r0
	return r0 + (1-r0)*math.Pow(1-cosine, 5)
}
