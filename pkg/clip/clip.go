// Package clip provides the polygon primitives the rest of the engine
// builds on: boolean difference, union and intersection, offsetting and
// point-reduction. The boolean and offset work is delegated to
// github.com/ctessum/go.clipper; simplification is done here.
package clip

import (
	clipper "github.com/ctessum/go.clipper"

	"github.com/chazu/strata/pkg/geom"
)

// Ops is the polygon boolean interface consumed by the layer compositor and
// the fill generators. Implementations must not modify their inputs.
type Ops interface {
	Difference(subject, clip geom.Polygons) geom.Polygons
	Union(subject geom.Polygons) geom.Polygons
	Intersection(subject, clip geom.Polygons) geom.Polygons
	Offset(subject geom.Polygons, delta int64) geom.Polygons
}

// Compile-time interface check.
var _ Ops = (*Clipper)(nil)

// miterLimit bounds how far sharp corners may grow when offsetting.
const miterLimit = 2.0

// Clipper implements Ops on top of go.clipper.
type Clipper struct{}

// New returns a Clipper.
func New() *Clipper {
	return &Clipper{}
}

func toPaths(ps geom.Polygons) clipper.Paths {
	out := make(clipper.Paths, 0, len(ps))
	for _, p := range ps {
		if len(p) == 0 {
			continue
		}
		path := make(clipper.Path, len(p))
		for i, pt := range p {
			path[i] = &clipper.IntPoint{X: clipper.CInt(pt.X), Y: clipper.CInt(pt.Y)}
		}
		out = append(out, path)
	}
	return out
}

func fromPaths(paths clipper.Paths) geom.Polygons {
	out := make(geom.Polygons, 0, len(paths))
	for _, path := range paths {
		if len(path) < 3 {
			continue
		}
		p := make(geom.Polygon, len(path))
		for i, ip := range path {
			p[i] = geom.Pt(int64(ip.X), int64(ip.Y))
		}
		out = append(out, p)
	}
	return out
}

func (c *Clipper) execute(ct clipper.ClipType, subject, clip geom.Polygons) geom.Polygons {
	cl := clipper.NewClipper(0)
	cl.AddPaths(toPaths(subject), clipper.PtSubject, true)
	if len(clip) > 0 {
		cl.AddPaths(toPaths(clip), clipper.PtClip, true)
	}
	solution, ok := cl.Execute1(ct, clipper.PftNonZero, clipper.PftNonZero)
	if !ok {
		return nil
	}
	return fromPaths(solution)
}

// Difference returns subject minus clip.
func (c *Clipper) Difference(subject, clip geom.Polygons) geom.Polygons {
	if len(subject) == 0 {
		return nil
	}
	if len(clip) == 0 {
		return subject.Clone()
	}
	return c.execute(clipper.CtDifference, subject, clip)
}

// Union merges overlapping rings of subject into a normalized set where
// outer rings are counter-clockwise and holes clockwise.
func (c *Clipper) Union(subject geom.Polygons) geom.Polygons {
	if len(subject) == 0 {
		return nil
	}
	return c.execute(clipper.CtUnion, subject, nil)
}

// Intersection returns the area covered by both subject and clip.
func (c *Clipper) Intersection(subject, clip geom.Polygons) geom.Polygons {
	if len(subject) == 0 || len(clip) == 0 {
		return nil
	}
	return c.execute(clipper.CtIntersection, subject, clip)
}

// Offset grows (delta > 0) or shrinks (delta < 0) the region with mitered
// corners.
func (c *Clipper) Offset(subject geom.Polygons, delta int64) geom.Polygons {
	if len(subject) == 0 {
		return nil
	}
	co := clipper.NewClipperOffset()
	co.MiterLimit = miterLimit
	co.AddPaths(toPaths(subject), clipper.JtMiter, clipper.EtClosedPolygon)
	return fromPaths(co.Execute(float64(delta)))
}
