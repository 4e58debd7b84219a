package client

import (
	"math/rand"

	"github.com/brickrender/distraytracer/shared/camera"
	"github.com/brickrender/distraytracer/shared/material"
	"github.com/brickrender/distraytracer/shared/primitive"
	"github.com/brickrender/distraytracer/shared/vec3"
)

// newMinimalCamera builds an initialized camera shared by the minimal test
// scenes: origin at (0,0,0) looking down -Z, no defocus blur.
func newMinimalCamera(width, height, samplesPerPixel, maxDepth int) camera.Camera {
	cam := camera.Camera{
		AspectRatio:     float64(width) / float64(height),
		ImageWidth:      width,
		SamplesPerPixel: samplesPerPixel,
		MaxDepth:        maxDepth,
		Vfov:            90,
		LookFrom:        vec3.New(0, 0, 0),
		LookAt:          vec3.New(0, 0, -1),
		Vup:             vec3.New(0, 1, 0),
		DefocusAngle:    0,
		FocusDist:       1,
	}
	cam.Initialize()
	return cam
}

// EmptyScene is scenario S1: zero primitives, so every returned pixel
// equals the sky contribution for its ray direction.
func EmptyScene(width, height, samplesPerPixel, maxDepth int) ([]primitive.Sphere, camera.Camera) {
	return nil, newMinimalCamera(width, height, samplesPerPixel, maxDepth)
}

// TwoSphereScene is scenario S2: a small Lambertian sphere resting on a
// large Lambertian ground sphere.
func TwoSphereScene(width, height, samplesPerPixel, maxDepth int) ([]primitive.Sphere, camera.Camera) {
	spheres := []primitive.Sphere{
		primitive.NewSphere(vec3.New(0, -100.5, -1), 100, material.NewLambertian(vec3.New(0.8, 0.8, 0))),
		primitive.NewSphere(vec3.New(0, 0, -1), 0.5, material.NewLambertian(vec3.New(0.7, 0.3, 0.3))),
	}
	return spheres, newMinimalCamera(width, height, samplesPerPixel, maxDepth)
}

// BookScene reproduces the standalone renderer's default scene: a large
// ground sphere, three fixed
// "anchor" spheres (one of each material), and a grid of small random
// spheres across two axes with probability-weighted material choice (0.8
// Lambertian, 0.15 Metal, 0.05 Dielectric).
func BookScene() ([]primitive.Sphere, camera.Camera) {
	var spheres []primitive.Sphere
	spheres = append(spheres, primitive.NewSphere(vec3.New(0, -1000, 0), 1000, material.NewLambertian(vec3.New(0.5, 0.5, 0.5))))

	keepOut := vec3.New(4, 0.2, 0)
	for a := -11; a < 11; a++ {
		for b := -11; b < 11; b++ {
			center := vec3.New(float64(a)+0.9*rand.Float64(), 0.2, float64(b)+0.9*rand.Float64())
			if center.Sub(keepOut).Length() <= 0.9 {
				continue
			}

			choice := rand.Float64()
			switch {
			case choice < 0.8:
				albedo := randomColor().Mul(randomColor())
				spheres = append(spheres, primitive.NewSphere(center, 0.2, material.NewLambertian(albedo)))
			case choice < 0.95:
				albedo := randomColorRange(0.5, 1)
				fuzz := rand.Float64() * 0.5
				spheres = append(spheres, primitive.NewSphere(center, 0.2, material.NewMetal(albedo, fuzz)))
			default:
				spheres = append(spheres, primitive.NewSphere(center, 0.2, material.NewDielectric(1.5)))
			}
		}
	}

	spheres = append(spheres,
		primitive.NewSphere(vec3.New(0, 1, 0), 1.0, material.NewDielectric(1.5)),
		primitive.NewSphere(vec3.New(-4, 1, 0), 1.0, material.NewLambertian(vec3.New(0.4, 0.2, 0.1))),
		primitive.NewSphere(vec3.New(4, 1, 0), 1.0, material.NewMetal(vec3.New(0.7, 0.6, 0.5), 0.0)),
	)

	cam := camera.Camera{
		AspectRatio:     16.0 / 9.0,
		ImageWidth:      400,
		SamplesPerPixel: 100,
		MaxDepth:        50,
		Vfov:            20,
		LookFrom:        vec3.New(13, 2, 3),
		LookAt:          vec3.New(0, 0, 0),
		Vup:             vec3.New(0, 1, 0),
		DefocusAngle:    0.6,
		FocusDist:       10.0,
	}
	cam.Initialize()
	return spheres, cam
}

func randomColor() vec3.Vec3 {
	return vec3.New(rand.Float64(), rand.Float64(), rand.Float64())
}

func randomColorRange(lo, hi float64) vec3.Vec3 {
	span := hi - lo
	return vec3.New(lo+rand.Float64()*span, lo+rand.Float64()*span, lo+rand.Float64()*span)
}
