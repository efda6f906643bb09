package clip

import "github.com/chazu/strata/pkg/geom"

const (
	// minSegment is the shortest edge kept by Simplify.
	minSegment = 10
	// normalLen is the length edges are normalized to before the collinear
	// test; collinearDot is the dot product (of normalLen vectors) below
	// which a point is considered to lie on a straight line.
	normalLen    = 1000000
	collinearDot = -999999000000
)

// Simplify removes points that add nothing to a closed ring: points closer
// than minSegment to their predecessor and points on a straight line
// between their neighbours. The input is not modified.
func Simplify(poly geom.Polygon) geom.Polygon {
	if len(poly) < 3 {
		return poly
	}
	kept := make(geom.Polygon, 0, len(poly))
	p0 := poly[len(poly)-1]
	for i, p1 := range poly {
		if p1.Sub(p0).ShorterThan(minSegment) {
			continue
		}
		var p2 geom.Point
		switch {
		case i < len(poly)-1:
			p2 = poly[i+1]
		case len(kept) > 0:
			p2 = kept[0]
		default:
			p2 = p1
		}
		d0 := p1.Sub(p0).Normal(normalLen)
		d2 := p1.Sub(p2).Normal(normalLen)
		if d0.Dot(d2) < collinearDot {
			continue
		}
		kept = append(kept, p1)
		p0 = p1
	}
	return kept
}

// SimplifyAll applies Simplify to every ring and drops rings left with
// fewer than three points.
func SimplifyAll(ps geom.Polygons) geom.Polygons {
	out := make(geom.Polygons, 0, len(ps))
	for _, p := range ps {
		if s := Simplify(p); len(s) >= 3 {
			out = append(out, s)
		}
	}
	return out
}
