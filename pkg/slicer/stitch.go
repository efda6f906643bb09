package slicer

import (
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/logx"
	"github.com/chazu/strata/pkg/mesh"
)

const (
	// joinTolerance is how far a segment end may lie from the next
	// segment's start for the adjacency walk to continue.
	joinTolerance = 10
	// repairDistance bounds the gap the nearest-end repair will bridge.
	repairDistance = 10000
	// snapDistance is the minimum contour length kept.
	snapDistance = 1000
)

type polyline struct {
	points []geom.Point
	// segs lists the segment indices the polyline claimed, in order.
	segs   []int
	closed bool
}

// walk builds polylines by following face adjacency from every unclaimed
// segment.
func (l *Layer) walk(vol *mesh.Volume) []polyline {
	var out []polyline
	for start := range l.Segments {
		if l.Segments[start].Added {
			continue
		}
		pl := polyline{points: []geom.Point{l.Segments[start].Start}}
		cur := start
		canClose := false
		for {
			canClose = false
			seg := &l.Segments[cur]
			seg.Added = true
			pl.segs = append(pl.segs, cur)
			end := seg.End
			pl.points = append(pl.points, end)

			next := -1
			for _, nb := range vol.Faces[seg.Face].Touching {
				if nb == mesh.NoFace {
					continue
				}
				idx, ok := l.faceToSegment[nb]
				if !ok || !end.Sub(l.Segments[idx].Start).ShorterThan(joinTolerance) {
					continue
				}
				if idx == start {
					canClose = true
				}
				if l.Segments[idx].Added {
					continue
				}
				next = idx
			}
			if next == -1 {
				break
			}
			cur = next
		}
		pl.closed = canClose
		out = append(out, pl)
	}
	return out
}

// repair joins open polylines end to start, always taking the closest
// remaining pair first. A polyline whose own ends are closest is closed.
// Ties keep the first pair found scanning i, then j.
func repair(pls []polyline) ([]polyline, int) {
	joins := 0
	for {
		best := int64(repairDistance * repairDistance)
		bi, bj := -1, -1
		for i := range pls {
			if pls[i].closed {
				continue
			}
			end := pls[i].points[len(pls[i].points)-1]
			for j := range pls {
				if pls[j].closed {
					continue
				}
				if d := end.Sub(pls[j].points[0]).Size2(); d < best {
					best, bi, bj = d, i, j
				}
			}
		}
		if bi < 0 {
			return pls, joins
		}
		joins++
		if bi == bj {
			pls[bi].closed = true
			continue
		}
		pls[bi].points = append(pls[bi].points, pls[bj].points...)
		pls[bi].segs = append(pls[bi].segs, pls[bj].segs...)

		compact := make([]polyline, 0, len(pls)-1)
		compact = append(compact, pls[:bj]...)
		compact = append(compact, pls[bj+1:]...)
		pls = compact
	}
}

// pathLength sums edge lengths along the open path, stopping once the sum
// passes limit.
func pathLength(pts []geom.Point, limit int64) int64 {
	var length int64
	for n := 1; n < len(pts); n++ {
		length += pts[n].Sub(pts[n-1]).Size()
		if length > limit {
			break
		}
	}
	return length
}

// makePolygons stitches the layer's segments into Polygons.
func (l *Layer) makePolygons(vol *mesh.Volume, simplify Simplifier, log *logx.Logger) {
	pls := l.walk(vol)
	l.stats.Segments = len(l.Segments)
	l.stats.Polylines = len(pls)

	pls, l.stats.Repaired = repair(pls)

	l.Polygons = l.Polygons[:0]
	for _, pl := range pls {
		if !pl.closed {
			l.stats.OpenDropped++
			log.Debugf("layer z=%d: dropping open contour S: %v E: %v", l.Z, pl.points[0], pl.points[len(pl.points)-1])
			continue
		}
		if pathLength(pl.points, snapDistance) < snapDistance {
			l.stats.SmallDropped++
			continue
		}
		poly := simplify(geom.Polygon(pl.points))
		if len(poly) < 3 || poly.Length() < snapDistance {
			l.stats.SmallDropped++
			continue
		}
		l.Polygons = append(l.Polygons, poly)
	}
}
