// Package skeleton provides the declarative joint graphs for each lift.
//
// A Definition names the joints of a stick figure with their base 2-D
// coordinates, the rigid limbs linking them, anchor rules for accessories
// such as the barbell, and optional surface markers used for framing.
// Definitions are loaded from YAML (embedded or from disk) and resolved
// once per lift into a rooted tree that the kinematics solver walks.
package skeleton

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Lift identifiers for the bundled definitions.
const (
	Squat    = "squat"
	Bench    = "bench"
	Deadlift = "deadlift"
)

// Bar is the name of the barbell accessory point.
const Bar = "bar"

// Point is a 2-D position in scene units. Y grows downward.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Vec returns the point as a mathgl vector.
func (p Point) Vec() mgl64.Vec2 {
	return mgl64.Vec2{p.X, p.Y}
}

// PointFrom converts a mathgl vector back into a Point.
func PointFrom(v mgl64.Vec2) Point {
	return Point{X: v.X(), Y: v.Y()}
}

// Add returns p + o.
func (p Point) Add(o Point) Point {
	return PointFrom(p.Vec().Add(o.Vec()))
}

// Sub returns p - o.
func (p Point) Sub(o Point) Point {
	return PointFrom(p.Vec().Sub(o.Vec()))
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Limb is a rigid directed link from a parent joint to a child joint.
type Limb struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Anchor binds an accessory to a joint's resolved position plus a fixed offset.
type Anchor struct {
	Joint  string `json:"joint" yaml:"joint"`
	Offset Point  `json:"offset" yaml:"offset"`
}

// Surfaces are optional scalar markers used only for scene framing.
type Surfaces struct {
	Ground      *float64 `json:"ground,omitempty" yaml:"ground,omitempty"`
	BenchTop    *float64 `json:"bench_top,omitempty" yaml:"bench_top,omitempty"`
	BenchHeight *float64 `json:"bench_height,omitempty" yaml:"bench_height,omitempty"`
}

// Bounds is an axis-aligned box in scene units.
type Bounds struct {
	MinX float64 `json:"min_x" yaml:"min_x"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MinY float64 `json:"min_y" yaml:"min_y"`
	MaxY float64 `json:"max_y" yaml:"max_y"`
}

// Width returns MaxX - MinX.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Definition is the static description of one lift's skeleton.
type Definition struct {
	// Name is the lift identifier (e.g., "squat").
	Name string `json:"name"`

	// Description is a short human-readable summary.
	Description string `json:"description,omitempty"`

	// Path maps every joint and accessory to its base position.
	Path map[string]Point `json:"path"`

	// Order preserves the declaration order of Path entries.
	Order []string `json:"order"`

	Limbs       []Limb            `json:"limbs"`
	Anchors     map[string]Anchor `json:"anchors,omitempty"`
	Surfaces    Surfaces          `json:"surfaces"`
	SceneBounds *Bounds           `json:"scene_bounds,omitempty"`
}

// JointNames returns the names in Path, in declaration order when known.
// Names missing from Order are appended alphabetically.
func (d *Definition) JointNames() []string {
	names := make([]string, 0, len(d.Path))
	seen := make(map[string]bool, len(d.Path))
	for _, name := range d.Order {
		if _, ok := d.Path[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}

	var rest []string
	for name := range d.Path {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// jointFile is one entry in the YAML joints list.
type jointFile struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

// definitionFile is the raw YAML structure of a skeleton file.
type definitionFile struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Joints      []jointFile       `yaml:"joints"`
	Limbs       []Limb            `yaml:"limbs"`
	Anchors     map[string]Anchor `yaml:"anchors"`
	Surfaces    Surfaces          `yaml:"surfaces"`
	SceneBounds *Bounds           `yaml:"scene_bounds"`
}
