// Package sequence turns a composited layer stack into a motion program.
// It decides the per-layer order of volumes, parts and path kinds, applies
// the speed policy (first layer ramp, minimal layer time, fan) and carries
// the state one job leaves for the next when several models are printed in
// one run.
package sequence

import (
	"github.com/chazu/strata/pkg/clip"
	"github.com/chazu/strata/pkg/compose"
	"github.com/chazu/strata/pkg/config"
	"github.com/chazu/strata/pkg/fill"
	"github.com/chazu/strata/pkg/gcode"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/logx"
	"github.com/chazu/strata/pkg/pathorder"
)

// jobClearance is how far above the tallest finished object the head
// travels to the next job's position.
const jobClearance = 5000

// SupportGenerator supplies support regions. Implementations are built
// with the overhang angle and placement policy of the job.
type SupportGenerator interface {
	// Support returns the support polygons for layer layerNr at height z.
	// On layer 0 the result also covers support that does not start on
	// the build plate.
	Support(z int64, layerNr int) geom.Polygons
}

// Job is one model ready to print.
type Job struct {
	Storage *compose.Storage
	// Support may be nil; it is only consulted when support is enabled.
	Support SupportGenerator
}

// State is carried from one Process call to the next.
type State struct {
	FirstJob        bool
	MaxObjectHeight int64
}

// NewState returns the state for the first job of a run.
func NewState() *State {
	return &State{FirstJob: true}
}

// Sequencer writes jobs through one Exporter.
type Sequencer struct {
	cfg *config.Config
	out *gcode.Exporter
	ops clip.Ops
	log *logx.Logger
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithLogger sets where progress is reported.
func WithLogger(l *logx.Logger) Option {
	return func(s *Sequencer) { s.log = l }
}

// New returns a Sequencer. ops is used to generate fill lines.
func New(cfg *config.Config, out *gcode.Exporter, ops clip.Ops, opts ...Option) *Sequencer {
	s := &Sequencer{cfg: cfg, out: out, ops: ops}
	for _, o := range opts {
		o(s)
	}
	for n, off := range cfg.ExtruderOffset {
		out.SetExtruderOffset(n, off)
	}
	return s
}

type pathConfigs struct {
	skirt, wallOuter, wallInner, fill, support gcode.PathConfig
}

func (s *Sequencer) pathConfigs() *pathConfigs {
	c := s.cfg
	return &pathConfigs{
		skirt:     gcode.PathConfig{Speed: c.PrintSpeed, LineWidth: c.ExtrusionWidth, Name: "SKIRT"},
		wallOuter: gcode.PathConfig{Speed: c.PrintSpeed, LineWidth: c.ExtrusionWidth, Name: "WALL-OUTER"},
		wallInner: gcode.PathConfig{Speed: c.PrintSpeed, LineWidth: c.ExtrusionWidth, Name: "WALL-INNER"},
		fill:      gcode.PathConfig{Speed: c.InfillSpeed, LineWidth: c.ExtrusionWidth, Name: "FILL"},
		support:   gcode.PathConfig{Speed: c.PrintSpeed, LineWidth: c.SupportLineWidth, Name: "SUPPORT"},
	}
}

func (s *Sequencer) newPlanner() *gcode.Planner {
	return gcode.NewPlanner(s.out, s.cfg.MoveSpeed, int64(s.cfg.RetractionMinDistance))
}

// Process writes one job and updates st for the next.
func (s *Sequencer) Process(job Job, st *State) error {
	c := s.cfg
	storage := job.Storage
	totalLayers := storage.LayerCount()

	s.out.SetRetraction(c.RetractionAmount, c.RetractionSpeed)
	if st.FirstJob {
		s.out.WriteCode(c.StartCode)
	} else {
		s.out.ResetExtrusionValue()
		s.out.WriteRetraction()
		s.out.SetZ(st.MaxObjectHeight + jobClearance)
		s.out.WriteMove(c.ObjectPosition, c.MoveSpeed, 0)
	}
	s.out.WriteComment("total_layers=%d", totalLayers)
	if c.SupportAngle > -1 && job.Support == nil {
		s.log.Errorf("sequence: support enabled (angle %d) but no support generator is set, printing without support", c.SupportAngle)
	}

	pc := s.pathConfigs()
	if c.RaftBaseThickness > 0 && c.RaftInterfaceThickness > 0 {
		s.writeRaft(storage)
	}

	volumeIdx := 0
	for layerNr := 0; layerNr < totalLayers; layerNr++ {
		s.log.Progress("export", layerNr+1, totalLayers)
		volumeIdx = s.writeLayer(job, layerNr, volumeIdx, pc)
	}

	s.out.WriteFanCommand(0)
	st.MaxObjectHeight = max(st.MaxObjectHeight, storage.ModelSize.Z)
	st.FirstJob = false
	return s.out.Err()
}

// Finish ends the program after the last job.
func (s *Sequencer) Finish() error {
	s.out.WriteFanCommand(0)
	s.out.WriteCode(s.cfg.EndCode)
	return s.out.Err()
}

func (s *Sequencer) writeRaft(storage *compose.Storage) {
	c := s.cfg
	base := gcode.PathConfig{Speed: c.InitialLayerSpeed, LineWidth: c.RaftBaseLinewidth, Name: "SUPPORT"}
	iface := gcode.PathConfig{Speed: c.InitialLayerSpeed, LineWidth: c.RaftInterfaceLinewidth, Name: "SUPPORT"}

	s.out.WriteComment("LAYER:-2")
	s.out.WriteComment("RAFT")
	p := s.newPlanner()
	s.out.SetZ(int64(c.RaftBaseThickness))
	s.out.SetExtrusion(c.RaftBaseThickness, c.FilamentDiameter, c.FilamentFlow)
	p.AddPolygonsByOptimizer(storage.RaftOutline, &base)
	p.AddPolygonsByOptimizer(fill.Lines(storage.RaftOutline, int64(c.RaftBaseLinewidth),
		int64(c.RaftLineSpacing), c.InfillOverlap, 0, s.ops), &base)
	p.Write(false)

	s.out.WriteComment("LAYER:-1")
	s.out.WriteComment("RAFT")
	p = s.newPlanner()
	s.out.SetZ(int64(c.RaftBaseThickness + c.RaftInterfaceThickness))
	s.out.SetExtrusion(c.RaftInterfaceThickness, c.FilamentDiameter, c.FilamentFlow)
	p.AddPolygonsByOptimizer(fill.Lines(storage.RaftOutline, int64(c.RaftInterfaceLinewidth),
		int64(c.RaftLineSpacing), c.InfillOverlap, 90, s.ops), &iface)
	p.Write(false)
}

// LayerZ returns the print height of layer n.
func LayerZ(c *config.Config, n int) int64 {
	z := int64(c.InitialLayerThickness) + int64(n)*int64(c.LayerThickness)
	return z + int64(c.RaftBaseThickness+c.RaftInterfaceThickness)
}

// SpeedupFactor returns the speed percentage of layer n while the first
// layers ramp from the initial layer speed to full speed, and 100 after.
func SpeedupFactor(c *config.Config, n int) int {
	if n >= c.InitialSpeedupLayers || c.PrintSpeed <= 0 {
		return 100
	}
	steps := c.InitialSpeedupLayers
	layer0Factor := c.InitialLayerSpeed * 100 / c.PrintSpeed
	return (layer0Factor*(steps-n) + 100*n) / steps
}

// FanSpeed maps a layer's speed factor to a fan percentage: the minimum
// fan speed at 50% and above, rising linearly to the maximum at 0%.
func FanSpeed(minSpeed, maxSpeed int, factor float64) int {
	if factor >= 50 {
		return minSpeed
	}
	return minSpeed + int(float64(maxSpeed-minSpeed)*(50-factor)/50)
}

// writeLayer emits layer layerNr and returns the volume index the next
// layer starts from.
func (s *Sequencer) writeLayer(job Job, layerNr, volumeIdx int, pc *pathConfigs) int {
	c := s.cfg
	storage := job.Storage
	p := s.newPlanner()

	s.out.WriteComment("LAYER:%d", layerNr)
	z := LayerZ(c, layerNr)
	s.out.SetZ(z)
	if layerNr == 0 {
		p.AddPolygonsByOptimizer(storage.Skirt, &pc.skirt)
	}

	nVolumes := len(storage.Volumes)
	for volumeCnt := 0; volumeCnt < nVolumes; volumeCnt++ {
		if volumeCnt > 0 {
			volumeIdx = (volumeIdx + 1) % nVolumes
		}
		layer := storage.Volumes[volumeIdx].Layer(layerNr)
		if layer == nil || len(layer.Parts) == 0 {
			continue
		}
		p.SetExtruder(volumeIdx)
		s.writeParts(p, layer, layerNr, pc)
		p.SetCombBoundary(nil)
	}

	if c.SupportAngle > -1 && job.Support != nil {
		p.AddPolygonsByOptimizer(job.Support.Support(z, layerNr), &pc.support)
	}

	if layerNr < c.InitialSpeedupLayers {
		p.SetSpeedFactor(float64(SpeedupFactor(c, layerNr)))
	}
	p.ForceMinimalLayerTime(float64(c.MinimalLayerTime), c.MinimalFeedrate)

	if layerNr == 0 {
		s.out.SetExtrusion(c.InitialLayerThickness, c.FilamentDiameter, c.FilamentFlow)
	} else {
		s.out.SetExtrusion(c.LayerThickness, c.FilamentDiameter, c.FilamentFlow)
	}

	if layerNr >= c.FanOnLayerNr {
		s.out.WriteFanCommand(FanSpeed(c.FanSpeedMin, c.FanSpeedMax, p.SpeedFactor()))
	} else {
		s.out.WriteFanCommand(0)
	}
	p.Write(c.CoolHeadLift > 0)
	return volumeIdx
}

// partStart is the polygon a part is entered by: its outer wall, or the
// outline when no walls were generated.
func partStart(part *compose.Part) geom.Polygon {
	if len(part.Insets) > 0 && len(part.Insets[0]) > 0 {
		return part.Insets[0][0]
	}
	if len(part.Outline) > 0 {
		return part.Outline[0]
	}
	return nil
}

func (s *Sequencer) writeParts(p *gcode.Planner, layer *compose.Layer, layerNr int, pc *pathConfigs) {
	c := s.cfg
	starts := make([]geom.Polygon, len(layer.Parts))
	for i := range layer.Parts {
		starts[i] = partStart(&layer.Parts[i])
	}
	order := pathorder.Optimize(s.out.PositionXY(), starts)

	width := int64(c.ExtrusionWidth)
	fillAngle := 45.0
	if layerNr%2 == 1 {
		fillAngle += 90
	}
	for _, nr := range order.Order {
		part := &layer.Parts[nr]
		if len(part.Insets) > 0 {
			p.SetCombBoundary(part.Insets[0])
		} else {
			p.SetCombBoundary(part.Outline)
		}
		for insetNr := range part.Insets {
			cfg := &pc.wallInner
			if insetNr == 0 {
				cfg = &pc.wallOuter
			}
			p.AddPolygonsByOptimizer(part.Insets[insetNr], cfg)
		}

		fillPolys := fill.Lines(part.SkinOutline, width, width, c.InfillOverlap, fillAngle, s.ops)
		if sild := int64(c.SparseInfillLineDistance); sild > 0 {
			if sild > width*4 {
				fillPolys = append(fillPolys, fill.Lines(part.SparseOutline, width, sild*2, c.InfillOverlap, 45, s.ops)...)
				fillPolys = append(fillPolys, fill.Lines(part.SparseOutline, width, sild*2, c.InfillOverlap, 45+90, s.ops)...)
			} else {
				fillPolys = append(fillPolys, fill.Lines(part.SparseOutline, width, sild, c.InfillOverlap, fillAngle, s.ops)...)
			}
		}
		p.AddPolygonsByOptimizer(fillPolys, &pc.fill)
	}
}
