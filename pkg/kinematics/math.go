package kinematics

import "math"

// Radians converts degrees to radians.
func Radians(degrees float64) float64 {
	return degrees * math.Pi / 180.0
}

// Degrees converts radians to degrees.
func Degrees(radians float64) float64 {
	return radians * 180.0 / math.Pi
}

// round rounds v to the given number of decimals and folds -0 into 0.
func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	r := math.Round(v*scale) / scale
	if r == 0 {
		return 0
	}
	return r
}

// sign returns -1, 0 or 1.
func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
