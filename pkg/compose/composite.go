package compose

import (
	"fmt"

	"github.com/chazu/strata/pkg/clip"
	"github.com/chazu/strata/pkg/geom"
)

// LayerPredicate selects layer indices.
type LayerPredicate func(layerNr int) bool

// AllLayers selects every layer.
func AllLayers(int) bool { return true }

// LayerRange selects layers from <= n < to.
func LayerRange(from, to int) LayerPredicate {
	return func(n int) bool {
		return n >= from && n < to
	}
}

// ApplyPrecedence removes from every volume the area claimed by all
// volumes before it, layer by layer. Layers are matched by index; an index
// missing in either volume is left alone.
func ApplyPrecedence(s *Storage, ops clip.Ops) {
	for v := 1; v < len(s.Volumes); v++ {
		for u := 0; u < v; u++ {
			high := &s.Volumes[u]
			low := &s.Volumes[v]
			for n := range low.Layers {
				hl := high.Layer(n)
				if hl == nil {
					break
				}
				subtract(&low.Layers[n], hl.Outlines(), ops)
			}
		}
	}
}

// subtract cuts clipSet out of every part of l. Parts may split or vanish.
func subtract(l *Layer, clipSet geom.Polygons, ops clip.Ops) {
	if len(clipSet) == 0 || len(l.Parts) == 0 {
		return
	}
	var parts []Part
	for i := range l.Parts {
		parts = append(parts, split(ops.Difference(l.Parts[i].Outline, clipSet))...)
	}
	l.Parts = parts
}

// ClipLayers cuts clipSet out of the given volume on every layer pred
// selects.
func ClipLayers(s *Storage, volume int, clipSet geom.Polygons, pred LayerPredicate, ops clip.Ops) error {
	vol := s.Volume(volume)
	if vol == nil {
		return fmt.Errorf("compose: volume %d out of range (%d volumes)", volume, len(s.Volumes))
	}
	for n := range vol.Layers {
		if pred(n) {
			subtract(&vol.Layers[n], clipSet, ops)
		}
	}
	return nil
}

// ClipByVolume cuts the outlines of cutter's layer n out of the given
// volume's layer n, for every n pred selects and both stacks have.
func ClipByVolume(s *Storage, volume int, cutter *Volume, pred LayerPredicate, ops clip.Ops) error {
	vol := s.Volume(volume)
	if vol == nil {
		return fmt.Errorf("compose: volume %d out of range (%d volumes)", volume, len(s.Volumes))
	}
	for n := range vol.Layers {
		cl := cutter.Layer(n)
		if cl == nil {
			break
		}
		if pred(n) {
			subtract(&vol.Layers[n], cl.Outlines(), ops)
		}
	}
	return nil
}
