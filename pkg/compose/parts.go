package compose

import (
	"math"

	"github.com/chazu/strata/pkg/clip"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/slicer"
)

// Build turns each slicer's layers into a volume of parts. Volume order
// follows slicers and is the priority order used by ApplyPrecedence.
func Build(slicers []*slicer.Slicer, ops clip.Ops) *Storage {
	s := &Storage{Volumes: make([]Volume, len(slicers))}
	for v, sl := range slicers {
		layers := make([]Layer, len(sl.Layers))
		for n := range sl.Layers {
			layers[n].Parts = CreateLayerParts(sl.Layers[n].Polygons, ops)
		}
		s.Volumes[v].Layers = layers
	}
	return s
}

// CreateLayerParts unions polys and groups each outer ring with the holes
// it contains into a Part.
func CreateLayerParts(polys geom.Polygons, ops clip.Ops) []Part {
	if len(polys) == 0 {
		return nil
	}
	return split(ops.Union(polys))
}

// split groups a normalized ring set into parts. Each hole goes to the
// smallest outer ring containing it.
func split(rings geom.Polygons) []Part {
	var parts []Part
	var areas []float64
	var holes geom.Polygons
	for _, r := range rings {
		if r.Orientation() {
			parts = append(parts, Part{Outline: geom.Polygons{r}})
			areas = append(areas, r.Area())
		} else {
			holes = append(holes, r)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	for _, h := range holes {
		best, bestArea := 0, math.Inf(1)
		for i := range parts {
			if areas[i] < bestArea && containsRing(parts[i].Outline[0], h) {
				best, bestArea = i, areas[i]
			}
		}
		parts[best].Outline = append(parts[best].Outline, h)
	}
	return parts
}

// containsRing reports whether any vertex of inner lies inside outer.
// Holes may touch their outer ring, so one vertex strictly inside is
// enough.
func containsRing(outer, inner geom.Polygon) bool {
	for _, p := range inner {
		if outer.Inside(p) {
			return true
		}
	}
	return false
}
