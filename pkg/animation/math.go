package animation

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/teslashibe/liftviz/pkg/skeleton"
)

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func lerpPoint(a, b skeleton.Point, t float64) skeleton.Point {
	return skeleton.PointFrom(a.Vec().Add(b.Vec().Sub(a.Vec()).Mul(t)))
}

func scalePoint(p skeleton.Point, s float64) skeleton.Point {
	return skeleton.PointFrom(p.Vec().Mul(s))
}

func clamp(v, min, max float64) float64 {
	return mgl64.Clamp(v, min, max)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
