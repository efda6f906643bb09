package fill

import (
	"github.com/chazu/strata/pkg/clip"
	"github.com/chazu/strata/pkg/compose"
	"github.com/chazu/strata/pkg/geom"
)

// firstLayerOutlines collects layer 0 of every volume.
func firstLayerOutlines(s *compose.Storage) geom.Polygons {
	var out geom.Polygons
	for v := range s.Volumes {
		if l := s.Volumes[v].Layer(0); l != nil {
			out = append(out, l.Outlines()...)
		}
	}
	return out
}

// Skirt sets s.Skirt to count loops around the first layer, the innermost
// distance away from it. Holes smaller than 100 line widths squared are
// left out. The support outline, if any, is included in the base.
func Skirt(s *compose.Storage, distance, width int64, count int, support geom.Polygons, ops clip.Ops) {
	base := append(firstLayerOutlines(s), support...)
	s.Skirt = nil
	if len(base) == 0 {
		return
	}
	for n := 0; n < count; n++ {
		off := distance + width*int64(n) + width/2
		loops := ops.Union(ops.Offset(base, off))
		for _, p := range loops {
			if a := p.Area(); a < 0 && a > -float64(width*width*100) {
				continue
			}
			s.Skirt = append(s.Skirt, p)
		}
	}
}

// Raft sets s.RaftOutline to the first layer grown by margin.
func Raft(s *compose.Storage, margin int64, support geom.Polygons, ops clip.Ops) {
	base := append(firstLayerOutlines(s), support...)
	if len(base) == 0 {
		s.RaftOutline = nil
		return
	}
	s.RaftOutline = ops.Union(ops.Offset(base, margin))
}
