// Package compose combines independently sliced volumes into one layer
// stack. Each layer's contours are split into parts, overlaps between
// volumes are resolved by priority, and callers may cut arbitrary polygon
// sets out of chosen layers.
package compose

import (
	"github.com/chazu/strata/pkg/geom"
)

// Part is one connected region of a layer: an outer boundary with the
// holes it contains, plus the geometry later stages derive from it.
type Part struct {
	Outline geom.Polygons
	// Insets[0] is the outer wall, Insets[len-1] the innermost.
	Insets        []geom.Polygons
	SkinOutline   geom.Polygons
	SparseOutline geom.Polygons
}

// Layer holds the parts of one volume at one layer index.
type Layer struct {
	Parts []Part
}

// Outlines returns every part outline of the layer as one set.
func (l *Layer) Outlines() geom.Polygons {
	var out geom.Polygons
	for i := range l.Parts {
		out = append(out, l.Parts[i].Outline...)
	}
	return out
}

// Volume is the layer stack of one mesh volume.
type Volume struct {
	Layers []Layer
}

// Layer returns layer n, or nil if the volume has no such layer.
func (v *Volume) Layer(n int) *Layer {
	if n < 0 || n >= len(v.Layers) {
		return nil
	}
	return &v.Layers[n]
}

// Storage is the composited layer set of one print job.
type Storage struct {
	Volumes []Volume

	ModelSize geom.Point3
	ModelMin  geom.Point3
	ModelMax  geom.Point3

	Skirt       geom.Polygons
	RaftOutline geom.Polygons
}

// LayerCount returns the largest layer count over all volumes.
func (s *Storage) LayerCount() int {
	n := 0
	for i := range s.Volumes {
		n = max(n, len(s.Volumes[i].Layers))
	}
	return n
}

// Volume returns volume i, or nil if out of range.
func (s *Storage) Volume(i int) *Volume {
	if i < 0 || i >= len(s.Volumes) {
		return nil
	}
	return &s.Volumes[i]
}
