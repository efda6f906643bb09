package slicer

import (
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/mesh"
)

// project2D intersects the plane at z with edges a→b and a→c. Division
// truncates toward zero, so results can land up to one unit short of the
// exact intersection, on the side of a.
func project2D(a, b, c geom.Point3, z int64) Segment {
	return Segment{
		Start: geom.Point{
			X: a.X + (b.X-a.X)*(z-a.Z)/(b.Z-a.Z),
			Y: a.Y + (b.Y-a.Y)*(z-a.Z)/(b.Z-a.Z),
		},
		End: geom.Point{
			X: a.X + (c.X-a.X)*(z-a.Z)/(c.Z-a.Z),
			Y: a.Y + (c.Y-a.Y)*(z-a.Z)/(c.Z-a.Z),
		},
	}
}

// cut returns the segment face p0,p1,p2 leaves on the plane at z. ok is
// false when the plane only touches a vertex or an edge, or misses the
// face; neighbouring faces provide that boundary.
func cut(p0, p1, p2 geom.Point3, z int64) (Segment, bool) {
	switch {
	case p0.Z < z && p1.Z >= z && p2.Z >= z:
		return project2D(p0, p2, p1, z), true
	case p0.Z > z && p1.Z < z && p2.Z < z:
		return project2D(p0, p1, p2, z), true

	case p1.Z < z && p0.Z >= z && p2.Z >= z:
		return project2D(p1, p0, p2, z), true
	case p1.Z > z && p0.Z < z && p2.Z < z:
		return project2D(p1, p2, p0, z), true

	case p2.Z < z && p1.Z >= z && p0.Z >= z:
		return project2D(p2, p1, p0, z), true
	case p2.Z > z && p1.Z < z && p0.Z < z:
		return project2D(p2, p0, p1, z), true
	}
	return Segment{}, false
}

// intersect fills every layer's segment list. Each face contributes at most
// one segment per layer.
func (s *Slicer) intersect(vol *mesh.Volume, initial, thickness int64) {
	count := int64(len(s.Layers))
	for i := range vol.Faces {
		p0, p1, p2 := vol.Corners(i)
		minZ := min(p0.Z, p1.Z, p2.Z)
		maxZ := max(p0.Z, p1.Z, p2.Z)

		for n := (minZ - initial) / thickness; n <= (maxZ-initial)/thickness; n++ {
			z := initial + n*thickness
			if z < minZ || n < 0 || n >= count {
				continue
			}
			seg, ok := cut(p0, p1, p2, z)
			if !ok {
				continue
			}
			seg.Face = i
			layer := &s.Layers[n]
			layer.faceToSegment[i] = len(layer.Segments)
			layer.Segments = append(layer.Segments, seg)
		}
	}
}
