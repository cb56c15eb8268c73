// Package kinematics places a resolved skeleton in the scene.
//
// The forward solver walks the joint tree from the root, rotating each rigid
// segment by its default angle plus an offset. The package also estimates a
// simplified per-joint torque from the bar's horizontal lever arm and derives
// a framing box for the renderer. Every function here is pure.
package kinematics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/teslashibe/liftviz/pkg/skeleton"
)

// ComputePositions returns the position of every point in the skeleton's
// base path.
//
// Each joint j with parent p is placed at
//
//	p + length(j) * (cos θ, sin θ),  θ = defaultAngle(j) + offsets[j] + manual(j)
//
// where manual(j) is an AngleOffsetOverride, if present. A PositionOverride
// replaces the computed position outright and children follow from it. The
// root sits at root unless it is overridden. Points the walk never reaches
// are back-filled from their override or base position.
func ComputePositions(
	r *skeleton.Resolved,
	offsets map[string]float64,
	root skeleton.Point,
	overrides map[string]Override,
) map[string]skeleton.Point {
	positions := make(map[string]skeleton.Point)
	visited := make(map[string]bool)
	deferred := make(map[string]bool)

	var stack []string
	if r.Root != "" {
		stack = append(stack, r.Root)
	}
	for len(stack) > 0 {
		joint := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[joint] {
			continue
		}

		pos, pinned := positionOf(overrides, joint)
		parent, hasParent := r.Parent(joint)
		if !pinned && joint != r.Root && hasParent && !visited[parent] && !deferred[joint] && !deferred[parent] {
			// Place the parent first, then come back.
			deferred[joint] = true
			stack = append(stack, joint, parent)
			continue
		}
		visited[joint] = true

		switch {
		case pinned:
			positions[joint] = pos
		case joint == r.Root:
			positions[joint] = root
		case hasParent:
			origin, placed := positions[parent]
			if !placed {
				// Parent is on a cycle still being walked.
				origin, _ = r.BasePoint(parent)
			}
			angle := r.DefaultAngle(joint) + offsets[joint] + angleOf(overrides, joint)
			step := mgl64.Rotate2D(angle).Mul2x1(mgl64.Vec2{r.SegmentLength(joint), 0})
			positions[joint] = skeleton.PointFrom(origin.Vec().Add(step))
		default:
			if base, ok := r.BasePoint(joint); ok {
				positions[joint] = base
			}
		}

		children := r.Children(joint)
		for i := len(children) - 1; i >= 0; i-- {
			if !visited[children[i]] {
				stack = append(stack, children[i])
			}
		}
	}

	for _, joint := range r.Joints() {
		if _, ok := positions[joint]; ok {
			continue
		}
		if pos, ok := positionOf(overrides, joint); ok {
			positions[joint] = pos
		} else if base, ok := r.BasePoint(joint); ok {
			positions[joint] = base
		}
	}

	return positions
}

// EffectiveOffsets returns animation + manual angle offsets (radians) for
// every joint that has a parent.
func EffectiveOffsets(r *skeleton.Resolved, animation map[string]float64, overrides map[string]Override) map[string]float64 {
	out := make(map[string]float64)
	for _, joint := range r.Articulated() {
		out[joint] = animation[joint] + angleOf(overrides, joint)
	}
	return out
}

// JointAngle describes a segment's orientation in degrees.
type JointAngle struct {
	Base     float64 `json:"base"`
	Offset   float64 `json:"offset"`
	Absolute float64 `json:"absolute"`
}

// Angles reports base, offset and absolute orientation for every articulated
// joint, in degrees rounded to one decimal.
func Angles(r *skeleton.Resolved, effective map[string]float64) map[string]JointAngle {
	out := make(map[string]JointAngle)
	for _, joint := range r.Articulated() {
		base := r.DefaultAngle(joint)
		off := effective[joint]
		out[joint] = JointAngle{
			Base:     round(Degrees(base), 1),
			Offset:   round(Degrees(off), 1),
			Absolute: round(Degrees(base+off), 1),
		}
	}
	return out
}
