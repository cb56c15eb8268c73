package kinematics

import (
	"github.com/teslashibe/liftviz/pkg/skeleton"
)

// Override is a per-joint manual directive. It is either a PositionOverride
// or an AngleOffsetOverride; a joint with no entry has no override.
type Override interface {
	isOverride()
}

// PositionOverride pins a joint to a literal position. Children are still
// placed relative to it.
type PositionOverride struct {
	Position skeleton.Point
}

// AngleOffsetOverride rotates a joint's segment by an extra amount, on top of
// any animation offset.
type AngleOffsetOverride struct {
	Radians float64
}

func (PositionOverride) isOverride()    {}
func (AngleOffsetOverride) isOverride() {}

// AngleOffsetDegrees builds an AngleOffsetOverride from degrees.
func AngleOffsetDegrees(deg float64) AngleOffsetOverride {
	return AngleOffsetOverride{Radians: Radians(deg)}
}

// positionOf returns the pinned position for joint, if any.
func positionOf(overrides map[string]Override, joint string) (skeleton.Point, bool) {
	if po, ok := overrides[joint].(PositionOverride); ok {
		return po.Position, true
	}
	return skeleton.Point{}, false
}

// angleOf returns the manual angle offset for joint, or zero.
func angleOf(overrides map[string]Override, joint string) float64 {
	if ao, ok := overrides[joint].(AngleOffsetOverride); ok {
		return ao.Radians
	}
	return 0
}
