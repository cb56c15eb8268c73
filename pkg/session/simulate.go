package session

import (
	"github.com/teslashibe/liftviz/pkg/animation"
	"github.com/teslashibe/liftviz/pkg/kinematics"
	"github.com/teslashibe/liftviz/pkg/skeleton"
)

// Sample bounds for Simulate.
const (
	DefaultSamples = 120
	MaxSamples     = 2000
)

// Point is one sample of a simulated cycle.
type Point struct {
	Time        float64            `json:"time"`
	Progress    float64            `json:"progress"`
	Phase       string             `json:"phase"`
	Angles      map[string]float64 `json:"angles"`
	Torque      map[string]float64 `json:"torque"`
	TotalTorque float64            `json:"total_torque"`
	Bar         skeleton.Point     `json:"bar"`
}

// Series is a sampled lift cycle for charting.
type Series struct {
	Lift       string               `json:"lift"`
	Duration   float64              `json:"duration"`
	Parameters animation.Parameters `json:"parameters"`
	Samples    []Point              `json:"samples"`
}

// Simulate samples one full cycle of lift at n evenly spaced progress values
// with the given setup parameters and no manual adjustment. Time is in
// seconds at tempo 1; angles are absolute segment orientations in degrees.
func Simulate(skeletons *skeleton.Registry, profiles *animation.Registry, lift string, params animation.Parameters, n int) (Series, error) {
	resolved, err := skeletons.Get(lift)
	if err != nil {
		return Series{}, err
	}
	profile := profiles.Ensure(resolved.Lift)

	switch {
	case n <= 0:
		n = DefaultSamples
	case n > MaxSamples:
		n = MaxSamples
	}

	clamped := profile.ClampParameters(params)
	engine := kinematics.NewEngine(resolved)
	duration := profile.Duration.Seconds()

	series := Series{
		Lift:       resolved.Lift,
		Duration:   duration,
		Parameters: clamped,
		Samples:    make([]Point, 0, n),
	}
	for _, frame := range animation.Sample(profile, clamped, n) {
		snap := engine.Evaluate(kinematics.Input{Offsets: frame.Joints, Bar: frame.Bar, Root: frame.Root})

		angles := make(map[string]float64, len(snap.Angles))
		for joint, a := range snap.Angles {
			angles[joint] = a.Absolute
		}
		series.Samples = append(series.Samples, Point{
			Time:        frame.Progress * duration,
			Progress:    frame.Progress,
			Phase:       frame.Phase,
			Angles:      angles,
			Torque:      snap.Torque.PerJoint,
			TotalTorque: snap.Torque.Total,
			Bar:         snap.Bar,
		})
	}
	return series, nil
}
