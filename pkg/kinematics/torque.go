package kinematics

import (
	"math"
	"sort"

	"github.com/teslashibe/liftviz/pkg/skeleton"
)

// TorqueConstant converts a horizontal lever arm (scene units) into the
// displayed moment. It is a display heuristic, not a physical constant.
const TorqueConstant = 0.1

// LeverArm carries what the renderer needs to draw a moment glyph.
type LeverArm struct {
	Lever     float64 `json:"lever"`
	Direction int     `json:"direction"` // -1, 0 or 1
	Magnitude float64 `json:"magnitude"`
}

// Torque is a per-frame moment snapshot.
type Torque struct {
	PerJoint  map[string]float64  `json:"per_joint"`
	Total     float64             `json:"total"`
	LeverArms map[string]LeverArm `json:"lever_arms"`
}

// EstimateTorque computes lever = bar.x - joint.x and torque = lever * K for
// every position except the bar and any extra accessories named. Torques are
// rounded to two decimals; Total is the rounded sum of their magnitudes.
func EstimateTorque(positions map[string]skeleton.Point, bar skeleton.Point, accessories ...string) Torque {
	skip := map[string]bool{skeleton.Bar: true}
	for _, a := range accessories {
		skip[a] = true
	}

	joints := make([]string, 0, len(positions))
	for joint := range positions {
		if !skip[joint] {
			joints = append(joints, joint)
		}
	}
	sort.Strings(joints)

	t := Torque{
		PerJoint:  make(map[string]float64, len(joints)),
		LeverArms: make(map[string]LeverArm, len(joints)),
	}

	var total float64
	for _, joint := range joints {
		lever := bar.X - positions[joint].X
		torque := round(lever*TorqueConstant, 2)

		t.PerJoint[joint] = torque
		t.LeverArms[joint] = LeverArm{
			Lever:     lever,
			Direction: sign(lever),
			Magnitude: math.Abs(torque),
		}
		total += math.Abs(torque)
	}
	t.Total = round(total, 2)

	return t
}
