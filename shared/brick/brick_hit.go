package brick

import (
	"math"
	"sort"

	"github.com/brickrender/distraytracer/shared/raytrace"
)

// sentinel stands in for +/-Inf brick bounds whenever a finite coordinate is
// required (a spatial index doesn't accept infinite extents). It's far
// outside any plausible scene.
const sentinel = 1e6

func finite(x float64) float64 {
	if math.IsInf(x, -1) {
		return -sentinel
	}
	if math.IsInf(x, 1) {
		return sentinel
	}
	return x
}

// Hit reports whether r enters b within (0.001, +Inf) and, if so, the
// parametric entry distance. Y is unconstrained; only X and Z clip the
// ray's valid t range.
func Hit(b Brick, r raytrace.Ray) (entryT float64, ok bool) {
	tMin, tMax := 0.001, math.Inf(1)

	if t0, t1, clipped := clipAxis(r.Origin.X, r.Direction.X, b.XMin, b.XMax); clipped {
		tMin, tMax = maxF(tMin, t0), minF(tMax, t1)
	}
	if t0, t1, clipped := clipAxis(r.Origin.Z, r.Direction.Z, b.ZMin, b.ZMax); clipped {
		tMin, tMax = maxF(tMin, t0), minF(tMax, t1)
	}
	if tMin > tMax {
		return 0, false
	}
	return tMin, true
}

// clipAxis narrows [t0, t1] to the portion of the ray's parameter range for
// which origin+t*dir lies within [lo, hi] along one axis. clipped is false
// when the axis is unbounded on both sides (nothing to clip).
func clipAxis(origin, dir, lo, hi float64) (t0, t1 float64, clipped bool) {
	if math.IsInf(lo, -1) && math.IsInf(hi, 1) {
		return 0, math.Inf(1), false
	}
	if dir == 0 {
		if origin >= lo && origin <= hi {
			return math.Inf(-1), math.Inf(1), true
		}
		return 0, math.Inf(-1), true // empty range: t0 > t1
	}
	a := (lo - origin) / dir
	b := (hi - origin) / dir
	if a > b {
		a, b = b, a
	}
	return a, b, true
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// BricksHit returns every brick in bricks that r intersects within
// (0.001, +Inf), sorted by ascending entry-t. This ordering is required for
// correct nearest-surface semantics in the bounce loop.
func BricksHit(bricks []Brick, r raytrace.Ray) []Brick {
	type scored struct {
		b Brick
		t float64
	}
	var hits []scored
	for _, b := range bricks {
		if t, ok := Hit(b, r); ok {
			hits = append(hits, scored{b, t})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].t < hits[j].t })
	out := make([]Brick, len(hits))
	for i, h := range hits {
		out[i] = h.b
	}
	return out
}
