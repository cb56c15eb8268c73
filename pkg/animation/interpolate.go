package animation

import (
	"math"

	"github.com/teslashibe/liftviz/pkg/kinematics"
)

// NormalizeProgress wraps x into [0, 1). Negative values wrap forward and
// non-finite values map to 0.
func NormalizeProgress(x float64) float64 {
	if !finite(x) {
		return 0
	}
	p := math.Mod(x, 1)
	if p < 0 {
		p++
	}
	if p >= 1 || p == 0 {
		return 0
	}
	return p
}

// ResolveSegment finds the keyframes bracketing progress p and the local
// fraction t between them. Keyframes must be sorted by At. When p lies
// outside [first.At, last.At] the segment wraps from the last keyframe
// through 1.0 to the first. Segments are half-open: p equal to an interior
// keyframe's At starts that keyframe's segment with t = 0, so the keyframe's
// own label applies from its exact position.
func ResolveSegment(kfs []Keyframe, p float64) (start, end Keyframe, t float64) {
	switch len(kfs) {
	case 0:
		return Keyframe{}, Keyframe{}, 0
	case 1:
		return kfs[0], kfs[0], 0
	}

	p = NormalizeProgress(p)
	first, last := kfs[0], kfs[len(kfs)-1]

	if p < first.At || p >= last.At {
		span := 1 - last.At + first.At
		into := p - last.At
		if p < first.At {
			into += 1
		}
		if span <= 0 {
			return last, first, 0
		}
		return last, first, clamp(into/span, 0, 1)
	}

	for i := 0; i < len(kfs)-1; i++ {
		start, end = kfs[i], kfs[i+1]
		if p >= start.At && p < end.At {
			break
		}
	}

	span := end.At - start.At
	if span <= 0 {
		return start, end, 0
	}
	return start, end, clamp((p-start.At)/span, 0, 1)
}

// Interpolate evaluates a profile at progress. Joint offsets and the bar and
// root vectors are interpolated linearly and independently, then scaled by
// the setup parameters bound to them. The phase label is the start
// keyframe's, so labels are piecewise constant. Joint offsets in the result
// are in radians.
func Interpolate(profile *Profile, progress float64, params Parameters) Frame {
	p := NormalizeProgress(progress)
	frame := Frame{
		Progress: p,
		Phase:    IdlePhase,
		Joints:   make(map[string]float64),
	}
	if profile == nil || len(profile.Keyframes) == 0 {
		return frame
	}

	start, end, t := ResolveSegment(profile.Keyframes, p)
	scales := profile.channelScales(params)
	scale := func(channel string) float64 {
		if s, ok := scales[channel]; ok {
			return s
		}
		return 1
	}

	for joint, a := range start.Joints {
		frame.Joints[joint] = kinematics.Radians(lerp(a, end.Joints[joint], t) * scale(joint))
	}
	for joint, b := range end.Joints {
		if _, ok := start.Joints[joint]; !ok {
			frame.Joints[joint] = kinematics.Radians(lerp(0, b, t) * scale(joint))
		}
	}

	frame.Bar = scalePoint(lerpPoint(start.Bar, end.Bar, t), scale(ChannelBar))
	frame.Root = scalePoint(lerpPoint(start.Root, end.Root, t), scale(ChannelRoot))
	if start.Label != "" {
		frame.Phase = start.Label
	}
	return frame
}

// Sample evaluates n evenly spaced progress values covering one cycle.
func Sample(profile *Profile, params Parameters, n int) []Frame {
	if n <= 0 {
		return nil
	}
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Interpolate(profile, float64(i)/float64(n), params)
	}
	return frames
}

// CycleScalar is a smooth 0→1→0 envelope over one cycle.
func CycleScalar(p float64) float64 {
	return 0.5 * (1 - math.Cos(2*math.Pi*NormalizeProgress(p)))
}

// CycleDirection is +1 on the first half of the cycle, -1 on the second and
// 0 at the turning points.
func CycleDirection(p float64) int {
	s := math.Sin(2 * math.Pi * NormalizeProgress(p))
	switch {
	case math.Abs(s) < 1e-12:
		return 0
	case s > 0:
		return 1
	default:
		return -1
	}
}

