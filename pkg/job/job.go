// Package job prepares one model file for printing: it loads and places
// the mesh, slices every volume, applies the cutouts of a job script and
// generates walls, skins, sparse areas, skirt and raft outline.
package job

import (
	"context"
	"fmt"
	"math"

	"github.com/chazu/strata/pkg/clip"
	"github.com/chazu/strata/pkg/compose"
	"github.com/chazu/strata/pkg/config"
	"github.com/chazu/strata/pkg/debugplot"
	"github.com/chazu/strata/pkg/engine"
	"github.com/chazu/strata/pkg/fill"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/logx"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/chazu/strata/pkg/polyio"
	"github.com/chazu/strata/pkg/sequence"
	"github.com/chazu/strata/pkg/slicer"
)

// Pipeline holds what every job of a run shares.
type Pipeline struct {
	cfg     *config.Config
	kernel  kernel.Kernel
	ops     clip.Ops
	log     *logx.Logger
	cutouts []engine.Cutout
	support sequence.SupportGenerator
	dumpDir string
	workers int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for progress and diagnostics.
func WithLogger(l *logx.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithCutouts applies cutouts to every job, in order.
func WithCutouts(c []engine.Cutout) Option {
	return func(p *Pipeline) { p.cutouts = c }
}

// WithSupport attaches a support generator to every job.
func WithSupport(g sequence.SupportGenerator) Option {
	return func(p *Pipeline) { p.support = g }
}

// WithDumpDir writes slice and layer plots below dir.
func WithDumpDir(dir string) Option {
	return func(p *Pipeline) { p.dumpDir = dir }
}

// WithWorkers bounds concurrent layer stitching.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// New returns a Pipeline. k tessellates primitive specs and may be nil
// when only STL files are printed.
func New(cfg *config.Config, k kernel.Kernel, ops clip.Ops, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, kernel: k, ops: ops}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Prepare loads spec (mesh paths or primitives joined by
// mesh.VolumeSeparator) and returns the job ready for sequencing.
func (p *Pipeline) Prepare(ctx context.Context, spec string) (sequence.Job, error) {
	c := p.cfg
	p.log.Infof("Loading %s", spec)
	model, err := mesh.Open(spec, c.Matrix, p.kernel)
	if err != nil {
		return sequence.Job{}, fmt.Errorf("job: %w", err)
	}
	p.log.Infof("Loaded %d volumes, %d faces", len(model.Volumes), model.FaceCount())
	model.Center(p.origin(0, 0))

	storage, slicers, err := p.slice(ctx, model)
	if err != nil {
		return sequence.Job{}, err
	}
	if p.dumpDir != "" {
		for v, s := range slicers {
			if _, err := debugplot.DumpSlices(p.dumpDir, v, s); err != nil {
				return sequence.Job{}, fmt.Errorf("job: dump slices: %w", err)
			}
		}
	}

	for i, co := range p.cutouts {
		if err := p.applyCutout(ctx, storage, co); err != nil {
			return sequence.Job{}, fmt.Errorf("job: cutout %d: %w", i, err)
		}
	}
	compose.ApplyPrecedence(storage, p.ops)
	p.generate(storage)

	if p.dumpDir != "" {
		if _, err := debugplot.DumpStorage(p.dumpDir, storage, 1); err != nil {
			return sequence.Job{}, fmt.Errorf("job: dump layers: %w", err)
		}
	}
	return sequence.Job{Storage: storage, Support: p.support}, nil
}

// origin is where a model's bottom center is placed, shifted by d.
func (p *Pipeline) origin(dx, dy int64) geom.Point3 {
	c := p.cfg
	return geom.Point3{
		X: c.ObjectPosition.X + dx,
		Y: c.ObjectPosition.Y + dy,
		Z: -int64(c.ObjectSink),
	}
}

func (p *Pipeline) slice(ctx context.Context, model *mesh.Model) (*compose.Storage, []*slicer.Slicer, error) {
	c := p.cfg
	opts := []slicer.Option{slicer.WithLogger(p.log)}
	if p.workers > 0 {
		opts = append(opts, slicer.WithWorkers(p.workers))
	}
	size := model.Size()
	slicers := make([]*slicer.Slicer, len(model.Volumes))
	for i, vol := range model.Volumes {
		s, err := slicer.Slice(ctx, vol, size,
			int64(c.InitialLayerThickness/2), int64(c.LayerThickness), opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("job: volume %d: %w", i, err)
		}
		p.log.Debugf("Volume %d: %+v", i, s.Stats())
		slicers[i] = s
	}
	storage := compose.Build(slicers, p.ops)
	storage.ModelSize = size
	storage.ModelMin = model.Min
	storage.ModelMax = model.Max
	return storage, slicers, nil
}

func (p *Pipeline) applyCutout(ctx context.Context, storage *compose.Storage, co engine.Cutout) error {
	to := co.To
	if to < 0 {
		to = math.MaxInt
	}
	if co.Model != "" {
		return p.cutModel(ctx, storage, co, to)
	}
	polys, err := polyio.Load(co.File, polyio.Transform{Scale: co.Scale})
	if err != nil {
		return err
	}
	if co.StepDX == 0 && co.StepDY == 0 {
		d := geom.Pt(co.DX, co.DY).Add(p.cfg.ObjectPosition)
		return compose.ClipLayers(storage, co.Volume, polys.Translate(d), compose.LayerRange(co.From, to), p.ops)
	}
	last := min(to, storage.LayerCount())
	for n := co.From; n < last; n++ {
		dx, dy := co.Offset(n)
		d := geom.Pt(dx, dy).Add(p.cfg.ObjectPosition)
		if err := compose.ClipLayers(storage, co.Volume, polys.Translate(d), compose.LayerRange(n, n+1), p.ops); err != nil {
			return err
		}
	}
	return nil
}

// cutModel slices the cutter mesh in the same layer grid as the job,
// placed at the object position shifted by the cutout offset.
func (p *Pipeline) cutModel(ctx context.Context, storage *compose.Storage, co engine.Cutout, to int) error {
	cutter, err := mesh.Open(co.Model, mesh.Identity(), p.kernel)
	if err != nil {
		return err
	}
	cutter.Center(p.origin(co.DX, co.DY))
	cs, _, err := p.slice(ctx, cutter)
	if err != nil {
		return err
	}
	for v := range cs.Volumes {
		if err := compose.ClipByVolume(storage, co.Volume, &cs.Volumes[v], compose.LayerRange(co.From, to), p.ops); err != nil {
			return err
		}
	}
	return nil
}

// generate derives walls, skin and sparse areas of every layer, then the
// skirt and raft outline around the first layer.
func (p *Pipeline) generate(storage *compose.Storage) {
	c := p.cfg
	width := int64(c.ExtrusionWidth)
	total := storage.LayerCount()
	for v := range storage.Volumes {
		vol := &storage.Volumes[v]
		for n := range vol.Layers {
			fill.LayerInsets(&vol.Layers[n], width, c.InsetCount, p.ops)
			p.log.Progress("inset", n+1, total)
		}
	}
	for v := range storage.Volumes {
		vol := &storage.Volumes[v]
		for n := range vol.Layers {
			fill.Skins(vol, n, width, c.DownSkinCount, c.UpSkinCount, c.InfillOverlap, p.ops)
			if c.SparseInfillLineDistance > 0 {
				fill.Sparse(vol, n, width, c.DownSkinCount, c.UpSkinCount, p.ops)
			}
			p.log.Progress("skin", n+1, total)
		}
	}
	fill.Skirt(storage, int64(c.SkirtDistance), width, c.SkirtLineCount, nil, p.ops)
	fill.Raft(storage, int64(c.RaftMargin), nil, p.ops)
}
