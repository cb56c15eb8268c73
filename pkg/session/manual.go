package session

import (
	"math"

	"github.com/teslashibe/liftviz/pkg/kinematics"
	"github.com/teslashibe/liftviz/pkg/skeleton"
)

// Limits applied to manual adjustments.
const (
	MaxManualAngle = 45.0 // degrees
	MaxBarOffset   = 60.0 // scene units
)

// Manual is the user's adjustment layer for one lift.
type Manual struct {
	// Offsets are angle offsets in degrees keyed by joint.
	Offsets map[string]float64 `json:"offsets"`

	// Pins fix joints at literal positions.
	Pins map[string]skeleton.Point `json:"pins"`

	// Bar is added to the resolved bar position.
	Bar skeleton.Point `json:"bar"`
}

func newManual() *Manual {
	return &Manual{
		Offsets: make(map[string]float64),
		Pins:    make(map[string]skeleton.Point),
	}
}

func (m *Manual) clone() Manual {
	out := Manual{
		Offsets: make(map[string]float64, len(m.Offsets)),
		Pins:    make(map[string]skeleton.Point, len(m.Pins)),
		Bar:     m.Bar,
	}
	for k, v := range m.Offsets {
		out.Offsets[k] = v
	}
	for k, v := range m.Pins {
		out.Pins[k] = v
	}
	return out
}

// overrides converts the adjustment layer into solver directives. A pin
// takes precedence over an angle offset on the same joint.
func (m *Manual) overrides() map[string]kinematics.Override {
	out := make(map[string]kinematics.Override, len(m.Offsets)+len(m.Pins))
	for joint, deg := range m.Offsets {
		if deg != 0 {
			out[joint] = kinematics.AngleOffsetDegrees(deg)
		}
	}
	for joint, p := range m.Pins {
		out[joint] = kinematics.PositionOverride{Position: p}
	}
	return out
}

func (m *Manual) input() kinematics.Manual {
	return kinematics.Manual{Overrides: m.overrides(), Bar: m.Bar}
}

func clampManual(v, limit float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(-limit, math.Min(limit, v))
}
