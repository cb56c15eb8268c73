package kinematics

import (
	"github.com/teslashibe/liftviz/pkg/skeleton"
)

// Manual holds adjustments supplied by the user on top of the animation.
type Manual struct {
	// Overrides are per-joint manual directives.
	Overrides map[string]Override

	// Bar is added to the bar position after anchoring.
	Bar skeleton.Point
}

// Input is everything the engine needs to place one frame.
type Input struct {
	// Offsets are animation angle offsets in radians, keyed by joint.
	Offsets map[string]float64

	// Bar is the animation bar offset, used when the bar is not anchored.
	Bar skeleton.Point

	// Root is the animation displacement of the root from its base position.
	Root skeleton.Point

	Manual Manual
}

// Snapshot is the placed pose handed to the rendering layer.
type Snapshot struct {
	Lift         string                    `json:"lift"`
	Joints       map[string]skeleton.Point `json:"joints"`
	Limbs        []skeleton.Limb           `json:"limbs"`
	Bar          skeleton.Point            `json:"bar"`
	Root         string                    `json:"root"`
	RootPosition skeleton.Point            `json:"root_position"`
	AngleOffsets map[string]float64        `json:"angle_offsets"`
	Angles       map[string]JointAngle     `json:"angles"`
	Torque       Torque                    `json:"torque"`
	Bounds       skeleton.Bounds           `json:"bounds"`
	BaseBounds   skeleton.Bounds           `json:"base_bounds"`
	Surfaces     skeleton.Surfaces         `json:"surfaces"`
}

// Engine places frames for one resolved skeleton. It holds no mutable state
// and may be shared.
type Engine struct {
	skel       *skeleton.Resolved
	baseBounds skeleton.Bounds
}

// NewEngine creates an engine for a resolved skeleton.
func NewEngine(r *skeleton.Resolved) *Engine {
	return &Engine{
		skel:       r,
		baseBounds: BaseBounds(r),
	}
}

// Skeleton returns the resolved skeleton this engine places.
func (e *Engine) Skeleton() *skeleton.Resolved {
	return e.skel
}

// RootPosition returns where the root sits for the given input: its
// PositionOverride if any, otherwise base position plus animation displacement.
func (e *Engine) RootPosition(in Input) skeleton.Point {
	if pos, ok := positionOf(in.Manual.Overrides, e.skel.Root); ok {
		return pos
	}
	base, _ := e.skel.BasePoint(e.skel.Root)
	return base.Add(in.Root)
}

// BarPosition resolves the bar: anchored joint + anchor offset + manual
// offset when an anchor exists, otherwise base + animation offset + manual offset.
func (e *Engine) BarPosition(joints map[string]skeleton.Point, in Input) skeleton.Point {
	if anchor, ok := e.skel.Anchor(skeleton.Bar); ok {
		if at, ok := joints[anchor.Joint]; ok {
			return at.Add(anchor.Offset).Add(in.Manual.Bar)
		}
	}
	base, _ := e.skel.BasePoint(skeleton.Bar)
	return base.Add(in.Bar).Add(in.Manual.Bar)
}

// Evaluate places every joint, resolves the bar, and derives torque and
// framing for one frame.
func (e *Engine) Evaluate(in Input) Snapshot {
	r := e.skel
	root := e.RootPosition(in)
	effective := EffectiveOffsets(r, in.Offsets, in.Manual.Overrides)

	joints := ComputePositions(r, in.Offsets, root, in.Manual.Overrides)
	bar := e.BarPosition(joints, in)
	if _, ok := joints[skeleton.Bar]; ok {
		joints[skeleton.Bar] = bar
	}

	accessories := r.Accessories()
	return Snapshot{
		Lift:         r.Lift,
		Joints:       joints,
		Limbs:        r.Limbs(),
		Bar:          bar,
		Root:         r.Root,
		RootPosition: root,
		AngleOffsets: effective,
		Angles:       Angles(r, effective),
		Torque:       EstimateTorque(joints, bar, accessories...),
		Bounds:       ComputeBounds(joints, bar, r.Surfaces()),
		BaseBounds:   e.baseBounds,
		Surfaces:     r.Surfaces(),
	}
}
