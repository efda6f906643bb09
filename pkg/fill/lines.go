package fill

import (
	"math"
	"slices"

	"github.com/chazu/strata/pkg/clip"
	"github.com/chazu/strata/pkg/geom"
)

// rotation maps points into and out of a frame rotated by an angle.
type rotation struct {
	m [4]float64
}

func newRotation(degrees float64) rotation {
	r := degrees / 180 * math.Pi
	c, s := math.Cos(r), math.Sin(r)
	return rotation{m: [4]float64{c, -s, s, c}}
}

func (r rotation) apply(p geom.Point) geom.Point {
	x, y := float64(p.X), float64(p.Y)
	return geom.Point{X: int64(x*r.m[0] + y*r.m[1]), Y: int64(x*r.m[2] + y*r.m[3])}
}

func (r rotation) unapply(p geom.Point) geom.Point {
	x, y := float64(p.X), float64(p.Y)
	return geom.Point{X: int64(x*r.m[0] + y*r.m[2]), Y: int64(x*r.m[1] + y*r.m[3])}
}

// Lines fills outline with parallel lines spacing apart at the given
// angle in degrees. The outline is first grown by overlapPct percent of
// width so lines reach into the walls. Each returned polygon is a
// two-point line. Runs shorter than width/5 are skipped.
func Lines(outline geom.Polygons, width, spacing int64, overlapPct int, angle float64, ops clip.Ops) geom.Polygons {
	if len(outline) == 0 || spacing <= 0 {
		return nil
	}
	grown := outline
	if overlapPct != 0 {
		grown = ops.Offset(outline, width*int64(overlapPct)/100)
	}
	rot := newRotation(angle)
	rotated := make(geom.Polygons, len(grown))
	for i, p := range grown {
		q := make(geom.Polygon, len(p))
		for j, pt := range p {
			q[j] = rot.apply(pt)
		}
		rotated[i] = q
	}
	lo, hi, ok := rotated.Bounds()
	if !ok {
		return nil
	}
	lo.X = (lo.X/spacing - 1) * spacing
	lineCount := (hi.X - lo.X + spacing - 1) / spacing
	cuts := make([][]int64, lineCount)

	for _, poly := range rotated {
		p1 := poly[len(poly)-1]
		for _, p0 := range poly {
			idx0 := (p0.X - lo.X) / spacing
			idx1 := (p1.X - lo.X) / spacing
			xMin, xMax := min(p0.X, p1.X), max(p0.X, p1.X)
			if idx0 > idx1 {
				idx0, idx1 = idx1, idx0
			}
			for idx := idx0; idx <= idx1; idx++ {
				x := idx*spacing + lo.X + spacing/2
				if x < xMin || x >= xMax || idx >= lineCount {
					continue
				}
				y := p1.Y + (p0.Y-p1.Y)*(x-p1.X)/(p0.X-p1.X)
				cuts[idx] = append(cuts[idx], y)
			}
			p1 = p0
		}
	}

	var out geom.Polygons
	idx := 0
	for x := lo.X + spacing/2; x < hi.X && idx < len(cuts); x += spacing {
		ys := cuts[idx]
		slices.Sort(ys)
		for i := 0; i+1 < len(ys); i += 2 {
			if ys[i+1]-ys[i] < width/5 {
				continue
			}
			out = append(out, geom.Polygon{
				rot.unapply(geom.Point{X: x, Y: ys[i]}),
				rot.unapply(geom.Point{X: x, Y: ys[i+1]}),
			})
		}
		idx++
	}
	return out
}
