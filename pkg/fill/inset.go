// Package fill derives the printable geometry of each part from its
// outline: concentric wall insets, solid skin regions near the top and
// bottom surfaces, sparse interior regions and the scanline patterns that
// fill them, plus the skirt and raft outlines of a job.
package fill

import (
	"github.com/chazu/strata/pkg/clip"
	"github.com/chazu/strata/pkg/compose"
)

// Insets generates count walls of the given line width inside the part
// outline. Wall i is centered width/2 + i*width inside the outline.
// Generation stops at the first wall that vanishes.
func Insets(part *compose.Part, width int64, count int, ops clip.Ops) {
	part.Insets = part.Insets[:0]
	if count == 0 {
		part.Insets = append(part.Insets, part.Outline)
		return
	}
	for i := 0; i < count; i++ {
		inset := clip.SimplifyAll(ops.Offset(part.Outline, -width*int64(i)-width/2))
		if len(inset) == 0 {
			break
		}
		part.Insets = append(part.Insets, inset)
	}
}

// LayerInsets generates insets for every part of the layer and drops the
// parts too small to hold a single wall, so later stages may assume
// Insets[0] exists.
func LayerInsets(layer *compose.Layer, width int64, count int, ops clip.Ops) {
	kept := layer.Parts[:0]
	for i := range layer.Parts {
		Insets(&layer.Parts[i], width, count, ops)
		if len(layer.Parts[i].Insets) > 0 {
			kept = append(kept, layer.Parts[i])
		}
	}
	layer.Parts = kept
}
