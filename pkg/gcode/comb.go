package gcode

import "github.com/chazu/strata/pkg/geom"

// comb decides whether a travel move can stay inside the printed area, in
// which case no retraction is needed.
type comb struct {
	boundary geom.Polygons
}

func cross(o, a, b geom.Point) int64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

func sign(v int64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// segmentsCross reports whether ab and cd properly intersect. Touching at an
// end point does not count.
func segmentsCross(a, b, c, d geom.Point) bool {
	d1 := sign(cross(c, d, a))
	d2 := sign(cross(c, d, b))
	d3 := sign(cross(a, b, c))
	d4 := sign(cross(a, b, d))
	return d1*d2 < 0 && d3*d4 < 0
}

// direct reports whether the straight move a→b stays inside the boundary.
func (c *comb) direct(a, b geom.Point) bool {
	if !c.boundary.Inside(a) || !c.boundary.Inside(b) {
		return false
	}
	for _, ring := range c.boundary {
		for i := range ring {
			p, q := ring[i], ring[(i+1)%len(ring)]
			if segmentsCross(a, b, p, q) {
				return false
			}
		}
	}
	return true
}
