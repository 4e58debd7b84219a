package objectworker

import (
	"math"

	"github.com/brickrender/distraytracer/shared/vec3"
)

var zeroColor = vec3.New(0, 0, 0)

var posInf = math.Inf(1)
