package geom

// Polygon is an implicitly closed ring of points: the last point connects
// back to the first. Counter-clockwise rings (positive Area) are outer
// boundaries, clockwise rings are holes.
type Polygon []Point

// Area returns the signed area of the ring (shoelace formula).
func (p Polygon) Area() float64 {
	n := len(p)
	if n < 3 {
		return 0
	}
	var a float64
	prev := p[n-1]
	for _, cur := range p {
		a += float64(prev.X)*float64(cur.Y) - float64(cur.X)*float64(prev.Y)
		prev = cur
	}
	return a / 2
}

// Orientation reports whether the ring is counter-clockwise.
func (p Polygon) Orientation() bool {
	return p.Area() >= 0
}

// Length returns the closed perimeter of the ring.
func (p Polygon) Length() int64 {
	if len(p) < 2 {
		return 0
	}
	var l int64
	prev := p[len(p)-1]
	for _, cur := range p {
		l += cur.Sub(prev).Size()
		prev = cur
	}
	return l
}

// Reversed returns a copy of the ring with the opposite winding.
func (p Polygon) Reversed() Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[len(p)-1-i] = pt
	}
	return out
}

// Clone returns a copy of the ring.
func (p Polygon) Clone() Polygon {
	return append(Polygon(nil), p...)
}

// crossings counts how many ring edges a ray from pt towards +X crosses.
func (p Polygon) crossings(pt Point) int {
	n := len(p)
	if n < 3 {
		return 0
	}
	c := 0
	prev := p[n-1]
	for _, cur := range p {
		if (cur.Y > pt.Y) != (prev.Y > pt.Y) {
			// X of the edge at pt.Y, compared without division.
			lhs := (pt.X - cur.X) * (prev.Y - cur.Y)
			rhs := (prev.X - cur.X) * (pt.Y - cur.Y)
			if prev.Y > cur.Y {
				if lhs < rhs {
					c++
				}
			} else if lhs > rhs {
				c++
			}
		}
		prev = cur
	}
	return c
}

// Inside reports whether pt lies inside the ring.
func (p Polygon) Inside(pt Point) bool {
	return p.crossings(pt)%2 == 1
}

// Polygons is a set of rings describing one region, possibly with islands
// and holes.
type Polygons []Polygon

// Clone deep-copies the set.
func (ps Polygons) Clone() Polygons {
	if ps == nil {
		return nil
	}
	out := make(Polygons, len(ps))
	for i, p := range ps {
		out[i] = p.Clone()
	}
	return out
}

// Inside reports whether pt lies inside the region under the even-odd rule.
func (ps Polygons) Inside(pt Point) bool {
	c := 0
	for _, p := range ps {
		c += p.crossings(pt)
	}
	return c%2 == 1
}

// PointCount returns the total number of points in the set.
func (ps Polygons) PointCount() int {
	n := 0
	for _, p := range ps {
		n += len(p)
	}
	return n
}

// Translate returns a copy of the set moved by d.
func (ps Polygons) Translate(d Point) Polygons {
	out := make(Polygons, len(ps))
	for i, p := range ps {
		q := make(Polygon, len(p))
		for j, pt := range p {
			q[j] = pt.Add(d)
		}
		out[i] = q
	}
	return out
}

// Bounds returns the axis-aligned bounding box of the set. ok is false when
// the set has no points.
func (ps Polygons) Bounds() (lo, hi Point, ok bool) {
	for _, p := range ps {
		for _, pt := range p {
			if !ok {
				lo, hi, ok = pt, pt, true
				continue
			}
			lo.X = min(lo.X, pt.X)
			lo.Y = min(lo.Y, pt.Y)
			hi.X = max(hi.X, pt.X)
			hi.Y = max(hi.Y, pt.Y)
		}
	}
	return lo, hi, ok
}

// Area returns the summed signed area of the set. Holes subtract when they
// are wound clockwise.
func (ps Polygons) Area() float64 {
	var a float64
	for _, p := range ps {
		a += p.Area()
	}
	return a
}
