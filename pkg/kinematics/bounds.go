package kinematics

import (
	"math"

	"github.com/teslashibe/liftviz/pkg/skeleton"
)

// Framing constants, in scene units.
const (
	ScenePaddingX  = 120.0
	ScenePaddingY  = 140.0
	MinSceneWidth  = 420.0
	MinSceneHeight = 420.0
	BarHalfSpan    = 60.0
)

// boundsBuilder accumulates an axis-aligned box, ignoring non-finite points.
type boundsBuilder struct {
	minX, maxX, minY, maxY float64
}

func newBoundsBuilder() *boundsBuilder {
	return &boundsBuilder{
		minX: math.Inf(1),
		maxX: math.Inf(-1),
		minY: math.Inf(1),
		maxY: math.Inf(-1),
	}
}

func (b *boundsBuilder) include(p skeleton.Point) {
	if !p.IsFinite() {
		return
	}
	b.minX = math.Min(b.minX, p.X)
	b.maxX = math.Max(b.maxX, p.X)
	b.minY = math.Min(b.minY, p.Y)
	b.maxY = math.Max(b.maxY, p.Y)
}

// includeBar adds the bar point and both ends of the bar.
func (b *boundsBuilder) includeBar(bar skeleton.Point) {
	b.include(bar)
	b.include(skeleton.Point{X: bar.X - BarHalfSpan, Y: bar.Y})
	b.include(skeleton.Point{X: bar.X + BarHalfSpan, Y: bar.Y})
}

// includeSurfaces projects ground and bench markers at x.
func (b *boundsBuilder) includeSurfaces(s skeleton.Surfaces, x float64) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		x = 0
	}
	if s.Ground != nil {
		b.include(skeleton.Point{X: x, Y: *s.Ground})
	}
	if s.BenchTop != nil {
		b.include(skeleton.Point{X: x, Y: *s.BenchTop})
		height := 0.0
		if s.BenchHeight != nil {
			height = *s.BenchHeight
		}
		b.include(skeleton.Point{X: x, Y: *s.BenchTop + height})
	}
}

// finish pads the box and enforces the minimum size. An empty accumulator
// yields a default box centered on the origin.
func (b *boundsBuilder) finish() skeleton.Bounds {
	if math.IsInf(b.minX, 0) || math.IsInf(b.maxX, 0) || math.IsInf(b.minY, 0) || math.IsInf(b.maxY, 0) {
		return skeleton.Bounds{
			MinX: -MinSceneWidth / 2,
			MaxX: MinSceneWidth / 2,
			MinY: -MinSceneHeight / 2,
			MaxY: MinSceneHeight / 2,
		}
	}

	out := skeleton.Bounds{
		MinX: b.minX - ScenePaddingX,
		MaxX: b.maxX + ScenePaddingX,
		MinY: b.minY - ScenePaddingY,
		MaxY: b.maxY + ScenePaddingY,
	}

	if w := out.Width(); w < MinSceneWidth {
		pad := (MinSceneWidth - w) / 2
		out.MinX -= pad
		out.MaxX += pad
	}
	if h := out.Height(); h < MinSceneHeight {
		pad := (MinSceneHeight - h) / 2
		out.MinY -= pad
		out.MaxY += pad
	}

	return out
}

// ComputeBounds frames the live pose: every joint, the bar with its half
// span, and the surface markers projected at the bar's x. The result always
// has positive, finite width and height.
func ComputeBounds(positions map[string]skeleton.Point, bar skeleton.Point, surfaces skeleton.Surfaces) skeleton.Bounds {
	b := newBoundsBuilder()
	for _, p := range positions {
		b.include(p)
	}
	b.includeBar(bar)
	b.includeSurfaces(surfaces, bar.X)
	return b.finish()
}

// BaseBounds frames a skeleton's base pose. An explicit scene_bounds in the
// definition takes precedence.
func BaseBounds(r *skeleton.Resolved) skeleton.Bounds {
	if declared, ok := r.SceneBounds(); ok {
		return declared
	}

	b := newBoundsBuilder()
	for _, p := range r.BasePath() {
		b.include(p)
	}

	barX := 0.0
	if bar, ok := r.BasePoint(skeleton.Bar); ok {
		b.includeBar(bar)
		barX = bar.X
	}
	if anchor, ok := r.Anchor(skeleton.Bar); ok {
		if base, ok := r.BasePoint(anchor.Joint); ok {
			b.includeBar(base.Add(anchor.Offset))
		}
	}
	b.includeSurfaces(r.Surfaces(), barX)

	return b.finish()
}
