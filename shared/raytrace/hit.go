package raytrace

import "github.com/brickrender/distraytracer/shared/vec3"

// HitRecord describes a single ray/surface intersection. It carries no
// material reference: the caller (the object worker, which owns the
// primitive that produced the hit) is responsible for looking up the
// material and invoking Scatter separately. That keeps this package free of
// a dependency on shared/material.
type HitRecord struct {
	P         vec3.Vec3
	Normal    vec3.Vec3
	T         float64
	FrontFace bool
}

// SetFaceNormal orients Normal to always point against the incoming ray,
// recording whether the hit was on the outward-facing side.
func (h *HitRecord) SetFaceNormal(r Ray, outwardNormal vec3.Vec3) {
	h.FrontFace = r.Direction.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Neg()
	}
}
