package skeleton

import (
	"math"
)

// Resolved is the rooted tree derived from a Definition. It is immutable
// once built and safe to share between goroutines.
type Resolved struct {
	// Lift is the lift id the tree was resolved from.
	Lift string

	// Root is the joint with no parent.
	Root string

	def      Definition
	joints   []string
	parents  map[string]string
	children map[string][]string
	lengths  map[string]float64
	angles   map[string]float64
}

// Resolve derives parent/child maps, segment lengths, default angles and the
// root joint from a definition. Malformed graphs are not rejected: the last
// limb naming a child wins its parent slot and root selection falls back to
// the first limb's origin.
func Resolve(def *Definition) *Resolved {
	r := &Resolved{
		Lift:     def.Name,
		def:      cloneDefinition(def),
		parents:  make(map[string]string, len(def.Limbs)),
		children: make(map[string][]string),
		lengths:  make(map[string]float64, len(def.Limbs)),
		angles:   make(map[string]float64, len(def.Limbs)),
	}
	r.joints = r.def.JointNames()

	for _, limb := range def.Limbs {
		r.parents[limb.To] = limb.From
		r.children[limb.From] = append(r.children[limb.From], limb.To)

		origin := def.Path[limb.From]
		target := def.Path[limb.To]
		delta := target.Vec().Sub(origin.Vec())
		r.lengths[limb.To] = delta.Len()
		r.angles[limb.To] = math.Atan2(delta.Y(), delta.X())
	}

	r.Root = selectRoot(def, r.parents)
	return r
}

// selectRoot picks the first limb origin that never appears as a child.
func selectRoot(def *Definition, parents map[string]string) string {
	for _, limb := range def.Limbs {
		if _, hasParent := parents[limb.From]; !hasParent {
			return limb.From
		}
	}
	if len(def.Limbs) > 0 {
		return def.Limbs[0].From
	}
	if names := def.JointNames(); len(names) > 0 {
		return names[0]
	}
	return ""
}

// Definition returns a copy of the source definition.
func (r *Resolved) Definition() Definition {
	return cloneDefinition(&r.def)
}

// Joints returns every point name in declaration order, accessories included.
func (r *Resolved) Joints() []string {
	return append([]string(nil), r.joints...)
}

// BasePoint returns the base-pose position of a joint.
func (r *Resolved) BasePoint(joint string) (Point, bool) {
	p, ok := r.def.Path[joint]
	return p, ok
}

// BasePath returns a copy of every base-pose position.
func (r *Resolved) BasePath() map[string]Point {
	out := make(map[string]Point, len(r.def.Path))
	for name, p := range r.def.Path {
		out[name] = p
	}
	return out
}

// Parent returns the parent of joint, if it has one.
func (r *Resolved) Parent(joint string) (string, bool) {
	p, ok := r.parents[joint]
	return p, ok
}

// Children returns the direct children of joint in limb order.
func (r *Resolved) Children(joint string) []string {
	return append([]string(nil), r.children[joint]...)
}

// SegmentLength returns the base-pose distance between joint and its parent.
func (r *Resolved) SegmentLength(joint string) float64 {
	return r.lengths[joint]
}

// DefaultAngle returns the base-pose direction from joint's parent to joint, in radians.
func (r *Resolved) DefaultAngle(joint string) float64 {
	return r.angles[joint]
}

// DefaultAngles returns a copy of every default angle keyed by child joint.
func (r *Resolved) DefaultAngles() map[string]float64 {
	out := make(map[string]float64, len(r.angles))
	for j, a := range r.angles {
		out[j] = a
	}
	return out
}

// Articulated returns the joints that have a parent, in declaration order.
func (r *Resolved) Articulated() []string {
	var out []string
	for _, j := range r.joints {
		if _, ok := r.parents[j]; ok {
			out = append(out, j)
		}
	}
	return out
}

// Limbs returns the limb list.
func (r *Resolved) Limbs() []Limb {
	return append([]Limb(nil), r.def.Limbs...)
}

// Anchor returns the anchor rule for an accessory.
func (r *Resolved) Anchor(accessory string) (Anchor, bool) {
	a, ok := r.def.Anchors[accessory]
	return a, ok
}

// Surfaces returns the surface markers.
func (r *Resolved) Surfaces() Surfaces {
	return r.def.Surfaces
}

// SceneBounds returns the explicit scene bounds declared by the definition, if any.
func (r *Resolved) SceneBounds() (Bounds, bool) {
	if r.def.SceneBounds == nil {
		return Bounds{}, false
	}
	return *r.def.SceneBounds, true
}

// Accessories returns the points that take part in no limb (e.g., the bar).
func (r *Resolved) Accessories() []string {
	linked := make(map[string]bool, len(r.def.Limbs)*2)
	for _, limb := range r.def.Limbs {
		linked[limb.From] = true
		linked[limb.To] = true
	}

	var out []string
	for _, j := range r.joints {
		if !linked[j] {
			out = append(out, j)
		}
	}
	return out
}

func cloneDefinition(def *Definition) Definition {
	out := Definition{
		Name:        def.Name,
		Description: def.Description,
		Path:        make(map[string]Point, len(def.Path)),
		Order:       append([]string(nil), def.Order...),
		Limbs:       append([]Limb(nil), def.Limbs...),
		Anchors:     make(map[string]Anchor, len(def.Anchors)),
		Surfaces:    cloneSurfaces(def.Surfaces),
	}
	for name, p := range def.Path {
		out.Path[name] = p
	}
	for name, a := range def.Anchors {
		out.Anchors[name] = a
	}
	if def.SceneBounds != nil {
		b := *def.SceneBounds
		out.SceneBounds = &b
	}
	return out
}

func cloneSurfaces(s Surfaces) Surfaces {
	return Surfaces{
		Ground:      cloneFloat(s.Ground),
		BenchTop:    cloneFloat(s.BenchTop),
		BenchHeight: cloneFloat(s.BenchHeight),
	}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
