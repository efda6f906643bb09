// Package slicer intersects a mesh volume with horizontal planes and
// stitches the resulting segments into closed contours, one set per layer.
//
// Layer n lies at z = initial + n*thickness. Segments are joined by walking
// the volume's face adjacency table; whatever the walk leaves open is
// repaired by greedily joining the nearest ends, and anything still open or
// too small afterwards is dropped.
package slicer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/strata/pkg/clip"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/logx"
	"github.com/chazu/strata/pkg/mesh"
)

// CoordinateLimit bounds the absolute value of every input coordinate so
// the 64-bit interpolation products cannot overflow.
const CoordinateLimit = 1 << 30

var (
	// ErrCoordinateRange is returned for volumes with a coordinate beyond
	// CoordinateLimit.
	ErrCoordinateRange = errors.New("slicer: coordinate out of range")
	// ErrBadThickness is returned when the layer thickness is not positive.
	ErrBadThickness = errors.New("slicer: layer thickness must be positive")
)

// Simplifier reduces the points of a closed polygon.
type Simplifier func(geom.Polygon) geom.Polygon

// Segment is the intersection of one face with one layer plane.
type Segment struct {
	Start geom.Point
	End   geom.Point
	Face  int
	// Added is set once a polyline has claimed the segment.
	Added bool
}

// Layer holds one plane's segments and, after stitching, its polygons.
type Layer struct {
	Z        int64
	Segments []Segment
	Polygons geom.Polygons

	faceToSegment map[int]int
	stats         LayerStats
}

// LayerStats counts what stitching did with a layer's segments.
type LayerStats struct {
	Segments     int
	Polylines    int
	Repaired     int
	OpenDropped  int
	SmallDropped int
}

// Stats aggregates LayerStats over all layers.
type Stats struct {
	Layers int
	LayerStats
}

// Slicer is the sliced form of one volume.
type Slicer struct {
	Layers    []Layer
	ModelSize geom.Point3
}

type options struct {
	workers      int
	simplify     Simplifier
	log          *logx.Logger
	keepSegments bool
}

// Option configures Slice.
type Option func(*options)

// WithWorkers bounds the number of layers stitched concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithSimplifier replaces clip.Simplify as the final point reduction.
func WithSimplifier(s Simplifier) Option {
	return func(o *options) {
		o.simplify = s
	}
}

// WithLogger sets the logger used for progress and open-contour
// diagnostics.
func WithLogger(l *logx.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithSegments keeps each layer's segment list after stitching instead of
// releasing it.
func WithSegments() Option {
	return func(o *options) {
		o.keepSegments = true
	}
}

// LayerCount returns the number of layers for a model height.
func LayerCount(sizeZ, initial, thickness int64) int {
	n := (sizeZ-initial)/thickness + 1
	if n < 0 {
		return 0
	}
	return int(n)
}

// Slice cuts vol into layers. The volume is only read.
func Slice(ctx context.Context, vol *mesh.Volume, modelSize geom.Point3, initial, thickness int64, opts ...Option) (*Slicer, error) {
	if vol == nil {
		return nil, fmt.Errorf("slicer: nil volume")
	}
	if thickness <= 0 {
		return nil, ErrBadThickness
	}
	o := options{workers: runtime.GOMAXPROCS(0), simplify: clip.Simplify}
	for _, opt := range opts {
		opt(&o)
	}
	if err := checkRange(vol); err != nil {
		return nil, err
	}

	s := &Slicer{ModelSize: modelSize}
	count := LayerCount(modelSize.Z, initial, thickness)
	o.log.Infof("Layer count: %d", count)
	s.Layers = make([]Layer, count)
	for n := range s.Layers {
		s.Layers[n].Z = initial + int64(n)*thickness
		s.Layers[n].faceToSegment = make(map[int]int)
	}
	s.intersect(vol, initial, thickness)

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for n := range s.Layers {
		layer := &s.Layers[n]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			layer.makePolygons(vol, o.simplify, o.log)
			if !o.keepSegments {
				layer.Segments = nil
				layer.faceToSegment = nil
			}
			o.log.Progress("slice", int(done.Add(1)), count)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("slicer: %w", err)
	}
	return s, nil
}

func checkRange(vol *mesh.Volume) error {
	for _, p := range vol.Points {
		for _, c := range [3]int64{p.X, p.Y, p.Z} {
			if c > CoordinateLimit || c < -CoordinateLimit {
				return fmt.Errorf("%w: %v", ErrCoordinateRange, p)
			}
		}
	}
	return nil
}

// Stats sums the per-layer stitching counters.
func (s *Slicer) Stats() Stats {
	st := Stats{Layers: len(s.Layers)}
	for i := range s.Layers {
		ls := s.Layers[i].stats
		st.Segments += ls.Segments
		st.Polylines += ls.Polylines
		st.Repaired += ls.Repaired
		st.OpenDropped += ls.OpenDropped
		st.SmallDropped += ls.SmallDropped
	}
	return st
}

// Stats returns the layer's stitching counters.
func (l *Layer) Stats() LayerStats {
	return l.stats
}
