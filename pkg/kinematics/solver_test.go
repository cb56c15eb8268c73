package kinematics

import (
	"math"
	"strconv"
	"testing"

	"github.com/teslashibe/liftviz/pkg/skeleton"
)

const eps = 1e-6

func floatEquals(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func pointEquals(a, b skeleton.Point) bool {
	return floatEquals(a.X, b.X) && floatEquals(a.Y, b.Y)
}

func mustResolve(t *testing.T, lift string) *skeleton.Resolved {
	t.Helper()
	def, err := skeleton.LoadEmbedded(lift)
	if err != nil {
		t.Fatalf("LoadEmbedded(%s) failed: %v", lift, err)
	}
	return skeleton.Resolve(def)
}

func zeroOffsets(r *skeleton.Resolved) map[string]float64 {
	out := make(map[string]float64)
	for _, j := range r.Articulated() {
		out[j] = 0
	}
	return out
}

// descendants returns joint and everything below it.
func descendants(r *skeleton.Resolved, joint string) map[string]bool {
	out := map[string]bool{joint: true}
	stack := []string{joint}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range r.Children(cur) {
			if !out[c] {
				out[c] = true
				stack = append(stack, c)
			}
		}
	}
	return out
}

var bundled = []string{skeleton.Squat, skeleton.Bench, skeleton.Deadlift}

func TestComputePositions_BasePoseIdentity(t *testing.T) {
	for _, lift := range bundled {
		r := mustResolve(t, lift)
		root, _ := r.BasePoint(r.Root)

		pos := ComputePositions(r, zeroOffsets(r), root, nil)

		for joint, base := range r.BasePath() {
			p, ok := pos[joint]
			if !ok {
				t.Errorf("%s: missing position for %s", lift, joint)
				continue
			}
			if !pointEquals(p, base) {
				t.Errorf("%s %s: got %+v, want %+v", lift, joint, p, base)
			}
		}
	}
}

func TestComputePositions_NilOffsetsMatchZero(t *testing.T) {
	r := mustResolve(t, skeleton.Deadlift)
	root, _ := r.BasePoint(r.Root)

	a := ComputePositions(r, nil, root, nil)
	b := ComputePositions(r, zeroOffsets(r), root, nil)

	for joint := range b {
		if a[joint] != b[joint] {
			t.Errorf("%s: nil offsets %+v differ from zero offsets %+v", joint, a[joint], b[joint])
		}
	}
}

func TestComputePositions_OffsetMovesOnlyDistalJoints(t *testing.T) {
	for _, lift := range bundled {
		r := mustResolve(t, lift)
		root, _ := r.BasePoint(r.Root)
		base := ComputePositions(r, nil, root, nil)

		for _, joint := range r.Articulated() {
			offsets := zeroOffsets(r)
			offsets[joint] = Radians(10)
			moved := ComputePositions(r, offsets, root, nil)
			distal := descendants(r, joint)

			for name, p := range moved {
				changed := !pointEquals(p, base[name])
				if distal[name] && !changed {
					t.Errorf("%s: offset on %s left distal %s unchanged", lift, joint, name)
				}
				if !distal[name] && changed {
					t.Errorf("%s: offset on %s moved non-distal %s", lift, joint, name)
				}
			}
		}
	}
}

func TestComputePositions_SquatKneeRotation(t *testing.T) {
	r := mustResolve(t, skeleton.Squat)
	root, _ := r.BasePoint(r.Root)
	offsets := zeroOffsets(r)
	offsets["knee"] = -math.Pi / 2 // thigh points forward instead of down

	pos := ComputePositions(r, offsets, root, nil)

	want := skeleton.Point{X: 290, Y: 250}
	if !pointEquals(pos["knee"], want) {
		t.Errorf("knee: got %+v, want %+v", pos["knee"], want)
	}
	// Shin keeps its absolute orientation and translates with the knee.
	if !pointEquals(pos["foot"], skeleton.Point{X: 290, Y: 350}) {
		t.Errorf("foot: got %+v", pos["foot"])
	}
}

func TestComputePositions_RootPositionTranslatesPose(t *testing.T) {
	r := mustResolve(t, skeleton.Bench)
	shift := skeleton.Point{X: -15, Y: 40}
	base, _ := r.BasePoint(r.Root)

	pos := ComputePositions(r, nil, base.Add(shift), nil)

	for _, joint := range r.Articulated() {
		want, _ := r.BasePoint(joint)
		if !pointEquals(pos[joint], want.Add(shift)) {
			t.Errorf("%s: got %+v, want %+v", joint, pos[joint], want.Add(shift))
		}
	}
	// The bar is not part of the tree and stays at its base position.
	if bar, _ := r.BasePoint(skeleton.Bar); !pointEquals(pos[skeleton.Bar], bar) {
		t.Errorf("bar: got %+v, want base %+v", pos[skeleton.Bar], bar)
	}
}

func TestComputePositions_PositionOverride(t *testing.T) {
	r := mustResolve(t, skeleton.Squat)
	root, _ := r.BasePoint(r.Root)
	pinned := skeleton.Point{X: 260, Y: 330}

	pos := ComputePositions(r, nil, root, map[string]Override{
		"knee": PositionOverride{Position: pinned},
	})

	if pos["knee"] != pinned {
		t.Errorf("knee: got %+v, want %+v", pos["knee"], pinned)
	}
	// foot follows the pinned knee: base shin is (0, 100).
	if !pointEquals(pos["foot"], skeleton.Point{X: 260, Y: 430}) {
		t.Errorf("foot: got %+v", pos["foot"])
	}
	if hip, _ := r.BasePoint("hip"); pos["hip"] != hip {
		t.Errorf("hip moved: %+v", pos["hip"])
	}
}

func TestComputePositions_RootOverrideWins(t *testing.T) {
	r := mustResolve(t, skeleton.Squat)
	root, _ := r.BasePoint(r.Root)
	pinned := skeleton.Point{X: 100, Y: 100}

	pos := ComputePositions(r, nil, root, map[string]Override{
		r.Root: PositionOverride{Position: pinned},
	})

	if pos[r.Root] != pinned {
		t.Errorf("root: got %+v, want %+v", pos[r.Root], pinned)
	}
	if !pointEquals(pos["shoulder"], skeleton.Point{X: 100, Y: 20}) {
		t.Errorf("shoulder: got %+v", pos["shoulder"])
	}
}

func TestComputePositions_AngleOverrideAddsToAnimation(t *testing.T) {
	r := mustResolve(t, skeleton.Bench)
	root, _ := r.BasePoint(r.Root)

	offsets := zeroOffsets(r)
	offsets["elbow"] = Radians(10)
	combined := ComputePositions(r, offsets, root, map[string]Override{
		"elbow": AngleOffsetDegrees(5),
	})

	offsets["elbow"] = Radians(15)
	direct := ComputePositions(r, offsets, root, nil)

	for joint := range direct {
		if !pointEquals(combined[joint], direct[joint]) {
			t.Errorf("%s: override+animation %+v != direct %+v", joint, combined[joint], direct[joint])
		}
	}
}

func TestComputePositions_AccessoryOverrideBackfill(t *testing.T) {
	r := mustResolve(t, skeleton.Bench)
	root, _ := r.BasePoint(r.Root)
	pinned := skeleton.Point{X: 1, Y: 2}

	pos := ComputePositions(r, nil, root, map[string]Override{
		skeleton.Bar: PositionOverride{Position: pinned},
	})

	if pos[skeleton.Bar] != pinned {
		t.Errorf("bar: got %+v, want %+v", pos[skeleton.Bar], pinned)
	}
}

func TestComputePositions_CyclicGraphTerminates(t *testing.T) {
	def := &skeleton.Definition{
		Name: "loop",
		Path: map[string]skeleton.Point{
			"a": {X: 0, Y: 0},
			"b": {X: 10, Y: 0},
			"c": {X: 10, Y: 10},
		},
		Order: []string{"a", "b", "c"},
		Limbs: []skeleton.Limb{{From: "a", To: "b"}, {From: "b", To: "c"}, {From: "c", To: "a"}},
	}
	r := skeleton.Resolve(def)

	pos := ComputePositions(r, nil, skeleton.Point{X: 0, Y: 0}, nil)

	if len(pos) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(pos))
	}
	for joint, p := range pos {
		if !p.IsFinite() {
			t.Errorf("%s: non-finite position %+v", joint, p)
		}
	}
}

func TestComputePositions_ReachedBeforeParent(t *testing.T) {
	// b is listed under a first but its parent is c, the later limb.
	def := &skeleton.Definition{
		Name: "diamond",
		Path: map[string]skeleton.Point{
			"a": {X: 0, Y: 0},
			"b": {X: 10, Y: 10},
			"c": {X: 0, Y: 10},
		},
		Order: []string{"a", "b", "c"},
		Limbs: []skeleton.Limb{{From: "a", To: "b"}, {From: "a", To: "c"}, {From: "c", To: "b"}},
	}
	r := skeleton.Resolve(def)

	pos := ComputePositions(r, map[string]float64{"c": math.Pi / 2}, skeleton.Point{}, nil)

	// c swings from (0,10) to (-10,0); b keeps its offset (10,0) from c.
	if !pointEquals(pos["c"], skeleton.Point{X: -10, Y: 0}) {
		t.Errorf("c: got %+v", pos["c"])
	}
	if !pointEquals(pos["b"], skeleton.Point{X: 0, Y: 0}) {
		t.Errorf("b: got %+v, want placed from its parent c", pos["b"])
	}
}

func TestComputePositions_LongChain(t *testing.T) {
	const n = 5000
	def := &skeleton.Definition{Name: "chain", Path: make(map[string]skeleton.Point, n)}
	for i := 0; i < n; i++ {
		joint := "j" + strconv.Itoa(i)
		def.Path[joint] = skeleton.Point{X: float64(i), Y: 0}
		def.Order = append(def.Order, joint)
		if i > 0 {
			def.Limbs = append(def.Limbs, skeleton.Limb{From: "j" + strconv.Itoa(i-1), To: joint})
		}
	}
	r := skeleton.Resolve(def)

	pos := ComputePositions(r, nil, skeleton.Point{}, nil)

	last := "j" + strconv.Itoa(n-1)
	if !pointEquals(pos[last], skeleton.Point{X: n - 1, Y: 0}) {
		t.Errorf("%s: got %+v, want (%d, 0)", last, pos[last], n-1)
	}
}

func TestComputePositions_ZeroLengthSegment(t *testing.T) {
	def := &skeleton.Definition{
		Name: "stacked",
		Path: map[string]skeleton.Point{
			"a": {X: 5, Y: 5},
			"b": {X: 5, Y: 5},
		},
		Order: []string{"a", "b"},
		Limbs: []skeleton.Limb{{From: "a", To: "b"}},
	}
	r := skeleton.Resolve(def)

	pos := ComputePositions(r, map[string]float64{"b": 1.3}, skeleton.Point{X: 5, Y: 5}, nil)

	if !pointEquals(pos["b"], skeleton.Point{X: 5, Y: 5}) {
		t.Errorf("zero-length child moved: %+v", pos["b"])
	}
}

func TestAngles_ReportsDegrees(t *testing.T) {
	r := mustResolve(t, skeleton.Squat)
	eff := EffectiveOffsets(r, map[string]float64{"knee": Radians(-30)}, map[string]Override{
		"knee":     AngleOffsetDegrees(10),
		"shoulder": AngleOffsetDegrees(12.34),
	})

	angles := Angles(r, eff)

	if got := angles["knee"]; got.Base != 90 || got.Offset != -20 || got.Absolute != 70 {
		t.Errorf("knee angle: got %+v", got)
	}
	if got := angles["shoulder"]; got.Base != -90 || got.Offset != 12.3 {
		t.Errorf("shoulder angle: got %+v", got)
	}
	if _, ok := angles[r.Root]; ok {
		t.Error("root should have no angle entry")
	}
}
