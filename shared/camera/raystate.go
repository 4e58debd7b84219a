package camera

import (
	"github.com/brickrender/distraytracer/shared/raytrace"
	"github.com/brickrender/distraytracer/shared/vec3"
)

// PixelIndex identifies a single camera ray at submission time. It is the
// routing key orchestrator and ray workers use on the return path.
type PixelIndex struct {
	I      int
	J      int
	Sample int
}

// RayState is the in-flight bounce accumulator for one pixel sample. It is
// mutated only by the ray worker that owns the pixel, and sent by value
// whenever a brick is consulted.
type RayState struct {
	Ray              raytrace.Ray
	Attenuation      vec3.Vec3
	DepthRemaining   int
	AccumulatedColor vec3.Vec3
}

// NewRayState builds the initial RayState for a freshly dispatched pixel
// sample.
func NewRayState(ray raytrace.Ray, maxDepth int) RayState {
	return RayState{
		Ray:            ray,
		Attenuation:    vec3.New(1, 1, 1),
		DepthRemaining: maxDepth,
	}
}

// BounceOutcome is what an object worker returns from a CheckHit call.
type BounceOutcome struct {
	Finished     bool
	HitOrStopped bool
	NewRayState  RayState
}

// ScanOrder returns a Fisher-Yates shuffled permutation of the W*H pixel
// indices for one sample pass, matching the pseudo-random scan order the
// camera ray iterator used in the single-process renderer.
func ScanOrder(width, height int, rng func() float64) []int {
	n := width * height
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := int(rng() * float64(i+1))
		if j > i {
			j = i
		}
		order[i], order[j] = order[j], order[i]
	}
	return order
}
