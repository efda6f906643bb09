package fill

import (
	"math"

	"github.com/chazu/strata/pkg/clip"
	"github.com/chazu/strata/pkg/compose"
	"github.com/chazu/strata/pkg/geom"
)

// minFillArea returns the smallest region, in mm², worth filling for a
// line width in micrometres.
func minFillArea(width int64) float64 {
	w := float64(width) / 1000
	return 2 * math.Pi * w * w * 0.3
}

func dropSmall(ps geom.Polygons, width int64) geom.Polygons {
	limit := minFillArea(width)
	out := ps[:0]
	for _, p := range ps {
		if math.Abs(p.Area())/1e6 >= limit {
			out = append(out, p)
		}
	}
	return out
}

// innermost returns the area inside the part's last wall.
func innermost(part *compose.Part, width int64, ops clip.Ops) geom.Polygons {
	return ops.Offset(part.Insets[len(part.Insets)-1], -width/2)
}

// exposed removes from region everything covered by the innermost walls
// of layer n; it returns region unchanged when n is outside the stack.
func exposed(region geom.Polygons, vol *compose.Volume, n int, ops clip.Ops) geom.Polygons {
	l := vol.Layer(n)
	if l == nil {
		return region
	}
	for i := range l.Parts {
		p := &l.Parts[i]
		if len(p.Insets) == 0 {
			continue
		}
		region = ops.Difference(region, p.Insets[len(p.Insets)-1])
	}
	return region
}

// Skins computes the solid-fill region of each part of layer n: the
// interior not covered downCount layers below or upCount layers above,
// plus thin gaps between the outer walls. The first downCount layers and
// the last upCount layers are therefore solid.
func Skins(vol *compose.Volume, n int, width int64, downCount, upCount, overlapPct int, ops clip.Ops) {
	layer := vol.Layer(n)
	if layer == nil {
		return
	}
	for i := range layer.Parts {
		part := &layer.Parts[i]
		if len(part.Insets) == 0 {
			continue
		}
		inner := innermost(part, width, ops)
		down, up := inner.Clone(), inner.Clone()
		if len(part.Insets) > 1 {
			thin := ops.Difference(
				ops.Offset(part.Insets[0], -width/2-width*int64(overlapPct)/100),
				ops.Offset(part.Insets[1], width*6/10),
			)
			down = append(down, thin...)
			up = append(up, thin...)
		}
		if n-downCount >= 0 {
			down = exposed(down, vol, n-downCount, ops)
		}
		if n+upCount < len(vol.Layers) {
			up = exposed(up, vol, n+upCount, ops)
		}
		part.SkinOutline = dropSmall(ops.Union(append(up, down...)), width)
	}
}

// Sparse computes the region of each part of layer n that is neither wall
// nor skin.
func Sparse(vol *compose.Volume, n int, width int64, downCount, upCount int, ops clip.Ops) {
	layer := vol.Layer(n)
	if layer == nil {
		return
	}
	for i := range layer.Parts {
		part := &layer.Parts[i]
		if len(part.Insets) == 0 {
			continue
		}
		sparse := innermost(part, width, ops)
		down, up := sparse.Clone(), sparse.Clone()
		if n-downCount >= 0 {
			down = exposed(down, vol, n-downCount, ops)
		}
		if n+upCount < len(vol.Layers) {
			up = exposed(up, vol, n+upCount, ops)
		}
		solid := dropSmall(ops.Union(append(up, down...)), width)
		part.SparseOutline = ops.Difference(sparse, solid)
	}
}
