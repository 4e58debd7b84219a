// Package camera implements the thin-lens camera model: basis derivation,
// viewport geometry, per-pixel ray construction, and the pixel-sample
// indexing and in-flight bounce state shared between orchestrator, ray
// workers, and object workers.
package camera

import (
	"math"
	"math/rand"

	"github.com/brickrender/distraytracer/shared/raytrace"
	"github.com/brickrender/distraytracer/shared/vec3"
)

// Camera is an immutable, serializable record once Initialize has run. Every
// field set before Initialize is a configuration input; the rest are
// derived.
type Camera struct {
	AspectRatio     float64
	ImageWidth      int
	SamplesPerPixel int
	MaxDepth        int

	Vfov         float64
	LookFrom     vec3.Vec3
	LookAt       vec3.Vec3
	Vup          vec3.Vec3
	DefocusAngle float64
	FocusDist    float64

	ImageHeight int

	// Derived by Initialize. Exported so the record survives a gob
	// round-trip intact when broadcast to ray workers via ShareParams.
	Center       vec3.Vec3
	Pixel00Loc   vec3.Vec3
	PixelDeltaU  vec3.Vec3
	PixelDeltaV  vec3.Vec3
	U, V, W      vec3.Vec3
	DefocusDiskU vec3.Vec3
	DefocusDiskV vec3.Vec3
}

// Default returns a Camera with the same baseline configuration as the
// standalone single-process renderer: 90 degree vertical FOV, looking down
// -Z, no defocus blur.
func Default() Camera {
	return Camera{
		AspectRatio:     1.0,
		ImageWidth:      100,
		SamplesPerPixel: 10,
		MaxDepth:        10,
		Vfov:            90,
		LookFrom:        vec3.New(0, 0, 0),
		LookAt:          vec3.New(0, 0, -1),
		Vup:             vec3.New(0, 1, 0),
		DefocusAngle:    0,
		FocusDist:       10,
	}
}

// Initialize derives image height and the camera basis, viewport, and
// defocus-disk vectors from the configuration fields. It must be called
// before GetRay and before the camera is broadcast to ray workers.
func (c *Camera) Initialize() {
	c.ImageHeight = int(float64(c.ImageWidth) / c.AspectRatio)
	if c.ImageHeight < 1 {
		c.ImageHeight = 1
	}

	c.Center = c.LookFrom

	theta := degreesToRadians(c.Vfov)
	h := math.Tan(theta / 2)
	viewportHeight := 2 * h * c.FocusDist
	viewportWidth := viewportHeight * (float64(c.ImageWidth) / float64(c.ImageHeight))

	c.W = c.LookFrom.Sub(c.LookAt).Unit()
	c.U = c.Vup.Cross(c.W).Unit()
	c.V = c.W.Cross(c.U)

	viewportU := c.U.Scale(viewportWidth)
	viewportV := c.V.Neg().Scale(viewportHeight)

	c.PixelDeltaU = viewportU.Scale(1.0 / float64(c.ImageWidth))
	c.PixelDeltaV = viewportV.Scale(1.0 / float64(c.ImageHeight))

	viewportUpperLeft := c.Center.
		Sub(c.W.Scale(c.FocusDist)).
		Sub(viewportU.Scale(0.5)).
		Sub(viewportV.Scale(0.5))
	c.Pixel00Loc = viewportUpperLeft.Add(c.PixelDeltaU.Add(c.PixelDeltaV).Scale(0.5))

	defocusRadius := c.FocusDist * math.Tan(degreesToRadians(c.DefocusAngle/2))
	c.DefocusDiskU = c.U.Scale(defocusRadius)
	c.DefocusDiskV = c.V.Scale(defocusRadius)
}

// GetRay constructs a camera ray aimed at a randomly jittered point within
// pixel (i, j), originating from the defocus disk if one is configured.
func (c *Camera) GetRay(i, j int) raytrace.Ray {
	offset := sampleSquare()
	pixelSample := c.Pixel00Loc.
		Add(c.PixelDeltaU.Scale(float64(i) + offset.X)).
		Add(c.PixelDeltaV.Scale(float64(j) + offset.Y))

	origin := c.Center
	if c.DefocusAngle > 0 {
		origin = c.defocusDiskSample()
	}
	return raytrace.Ray{Origin: origin, Direction: pixelSample.Sub(origin)}
}

func (c *Camera) defocusDiskSample() vec3.Vec3 {
	p := vec3.RandomInUnitDisk()
	return c.Center.Add(c.DefocusDiskU.Scale(p.X)).Add(c.DefocusDiskV.Scale(p.Y))
}

func sampleSquare() vec3.Vec3 {
	return vec3.New(rand.Float64()-0.5, rand.Float64()-0.5, 0)
}

func degreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
