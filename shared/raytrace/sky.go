package raytrace

import (
	"math"

	"github.com/brickrender/distraytracer/shared/vec3"
)

// Sky returns the background colour for a ray that left the scene entirely:
// a linear gradient between white and a pale blue keyed on the ray
// direction's Y component.
func Sky(direction vec3.Vec3) vec3.Vec3 {
	unitDir := direction.Unit()
	a := 0.5 * (unitDir.Y + 1.0)
	white := vec3.New(1.0, 1.0, 1.0)
	blue := vec3.New(0.5, 0.7, 1.0)
	return white.Scale(1.0 - a).Add(blue.Scale(a))
}

// intensity is the clamp range applied before gamma-correcting a colour for
// display.
var intensity = Interval{Min: 0.0, Max: 0.999}

// LinearToGamma applies a gamma-2 transform to a single linear colour
// component.
func LinearToGamma(linear float64) float64 {
	if linear > 0 {
		return math.Sqrt(linear)
	}
	return 0
}

// Gamma converts a linear-space colour to a display-ready, gamma-corrected,
// clamped colour with each component in [0, 1].
func Gamma(c vec3.Vec3) vec3.Vec3 {
	return vec3.New(
		intensity.Clamp(LinearToGamma(c.X)),
		intensity.Clamp(LinearToGamma(c.Y)),
		intensity.Clamp(LinearToGamma(c.Z)),
	)
}
