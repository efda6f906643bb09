package gcode

import (
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/pathorder"
)

// PathConfig describes one kind of path: its speed (mm/s), line width (µm,
// zero for travel) and the name written in TYPE comments. Paths are grouped
// by config identity, so callers keep one *PathConfig per kind.
type PathConfig struct {
	Speed     int
	LineWidth int
	Name      string
}

type path struct {
	config   *PathConfig
	retract  bool
	extruder int
	points   []geom.Point
	done     bool
}

// Planner collects the moves of one layer. Nothing is written until Write.
type Planner struct {
	gcode *Exporter

	paths  []*path
	travel PathConfig

	lastPosition    geom.Point
	currentExtruder int
	comb            *comb

	retractionMinimalDistance int64
	forceRetraction           bool
	alwaysRetract             bool

	extrudeSpeedFactor float64
	travelSpeedFactor  float64
	extraTime          float64
}

// NewPlanner starts a layer at the exporter's current position. Travel
// moves run at moveSpeed; moves shorter than retractionMinimalDistance
// never retract.
func NewPlanner(gcode *Exporter, moveSpeed int, retractionMinimalDistance int64) *Planner {
	return &Planner{
		gcode:                     gcode,
		travel:                    PathConfig{Speed: moveSpeed, Name: "travel"},
		lastPosition:              gcode.PositionXY(),
		currentExtruder:           gcode.ExtruderNr(),
		retractionMinimalDistance: retractionMinimalDistance,
		extrudeSpeedFactor:        100,
		travelSpeedFactor:         100,
	}
}

func (p *Planner) latestPath(config *PathConfig) *path {
	if n := len(p.paths); n > 0 {
		last := p.paths[n-1]
		if last.config == config && last.extruder == p.currentExtruder && !last.done {
			return last
		}
	}
	np := &path{config: config, extruder: p.currentExtruder}
	p.paths = append(p.paths, np)
	return np
}

// ForceNewPathStart makes the next move start a new path.
func (p *Planner) ForceNewPathStart() {
	if n := len(p.paths); n > 0 {
		p.paths[n-1].done = true
	}
}

// SetExtruder selects the extruder for subsequent paths and reports whether
// it changed.
func (p *Planner) SetExtruder(n int) bool {
	if n == p.currentExtruder {
		return false
	}
	p.currentExtruder = n
	return true
}

// Extruder returns the extruder subsequent paths use.
func (p *Planner) Extruder() int {
	return p.currentExtruder
}

// SetCombBoundary sets the area travel moves try to stay inside. A nil
// boundary disables combing.
func (p *Planner) SetCombBoundary(boundary geom.Polygons) {
	if len(boundary) == 0 {
		p.comb = nil
		return
	}
	p.comb = &comb{boundary: boundary}
}

// SetAlwaysRetract makes every long enough travel retract when no comb
// boundary is set.
func (p *Planner) SetAlwaysRetract(v bool) {
	p.alwaysRetract = v
}

// ForceRetract makes the next travel retract.
func (p *Planner) ForceRetract() {
	p.forceRetraction = true
}

// SetSpeedFactor scales extrusion speeds, in percent.
func (p *Planner) SetSpeedFactor(f float64) {
	if f < 1 {
		f = 1
	}
	p.extrudeSpeedFactor = f
}

// SpeedFactor returns the extrusion speed scale in percent.
func (p *Planner) SpeedFactor() float64 {
	return p.extrudeSpeedFactor
}

// SetTravelSpeedFactor scales travel speeds, in percent.
func (p *Planner) SetTravelSpeedFactor(f float64) {
	if f < 1 {
		f = 1
	}
	p.travelSpeedFactor = f
}

// LastPosition returns where the planned moves end.
func (p *Planner) LastPosition() geom.Point {
	return p.lastPosition
}

// AddTravel moves to pt without extruding.
func (p *Planner) AddTravel(pt geom.Point) {
	tp := p.latestPath(&p.travel)
	long := !p.lastPosition.Sub(pt).ShorterThan(p.retractionMinimalDistance)
	switch {
	case p.forceRetraction:
		if long {
			tp.retract = true
		}
		p.forceRetraction = false
	case p.comb != nil:
		if !p.comb.direct(p.lastPosition, pt) && long {
			tp.retract = true
		}
	case p.alwaysRetract:
		if long {
			tp.retract = true
		}
	}
	tp.points = append(tp.points, pt)
	p.lastPosition = pt
}

// AddExtrusionMove extrudes from the last position to pt.
func (p *Planner) AddExtrusionMove(pt geom.Point, config *PathConfig) {
	ep := p.latestPath(config)
	ep.points = append(ep.points, pt)
	p.lastPosition = pt
}

// AddPolygon travels to poly[start] and traces the polygon from there.
// Polygons with more than two points are closed.
func (p *Planner) AddPolygon(poly geom.Polygon, start int, config *PathConfig) {
	if len(poly) == 0 {
		return
	}
	p.AddTravel(poly[start])
	for i := 1; i < len(poly); i++ {
		p.AddExtrusionMove(poly[(start+i)%len(poly)], config)
	}
	if len(poly) > 2 {
		p.AddExtrusionMove(poly[start], config)
	}
}

// AddPolygonsByOptimizer adds polys in nearest-first order from the last
// position.
func (p *Planner) AddPolygonsByOptimizer(polys geom.Polygons, config *PathConfig) {
	order := pathorder.Optimize(p.lastPosition, polys)
	for _, nr := range order.Order {
		p.AddPolygon(polys[nr], order.Start[nr], config)
	}
}

// times returns the time spent extruding and travelling at unscaled speeds.
func (p *Planner) times() (extrude, travel float64) {
	p0 := p.gcode.PositionXY()
	for _, pa := range p.paths {
		for _, p1 := range pa.points {
			if pa.config.Speed > 0 {
				t := p1.Sub(p0).SizeMM() / float64(pa.config.Speed)
				if pa.config.LineWidth != 0 {
					extrude += t
				} else {
					travel += t
				}
			}
			p0 = p1
		}
	}
	return extrude, travel
}

// EstimatedTime returns the layer duration in seconds at the current speed
// factors.
func (p *Planner) EstimatedTime() float64 {
	extrude, travel := p.times()
	return extrude*100/p.extrudeSpeedFactor + travel*100/p.travelSpeedFactor
}

// ExtraTime returns how long the head must wait after the layer to reach
// the minimal layer time.
func (p *Planner) ExtraTime() float64 {
	return p.extraTime
}

// ForceMinimalLayerTime slows extrusion so the layer takes at least minTime
// seconds, never going below minFeedrate mm/s on any path and never speeding
// up a layer that is already slower. Time still missing afterwards is kept
// as ExtraTime.
func (p *Planner) ForceMinimalLayerTime(minTime float64, minFeedrate int) {
	extrude, travel := p.times()
	travel = travel * 100 / p.travelSpeedFactor
	if extrude+travel >= minTime || extrude <= 0 {
		return
	}
	minExtrude := minTime - travel
	if minExtrude < 1 {
		minExtrude = 1
	}
	factor := extrude / minExtrude
	for _, pa := range p.paths {
		if pa.config.LineWidth == 0 {
			continue
		}
		if float64(pa.config.Speed)*factor < float64(minFeedrate) {
			factor = float64(minFeedrate) / float64(pa.config.Speed)
		}
	}
	if factor*100 < p.extrudeSpeedFactor {
		p.extrudeSpeedFactor = factor * 100
	} else {
		factor = p.extrudeSpeedFactor / 100
	}
	if missing := minTime - extrude/factor - travel; missing > 0.1 {
		p.extraTime = missing
	}
}

// Write sends the layer to the exporter. With liftHead, a layer that could
// not be slowed enough is followed by a retraction, a 3 mm lift, a short
// move away and a dwell for the missing time.
func (p *Planner) Write(liftHead bool) {
	var lastConfig *PathConfig
	extruder := p.gcode.ExtruderNr()
	for _, pa := range p.paths {
		if extruder != pa.extruder {
			extruder = pa.extruder
			p.gcode.SwitchExtruder(extruder)
		} else if pa.retract {
			p.gcode.WriteRetraction()
		}
		if pa.config != &p.travel && pa.config != lastConfig {
			p.gcode.WriteComment("TYPE:%s", pa.config.Name)
			lastConfig = pa.config
		}
		factor := p.travelSpeedFactor
		if pa.config.LineWidth != 0 {
			factor = p.extrudeSpeedFactor
		}
		speed := int(float64(pa.config.Speed) * factor / 100)
		if speed < 1 {
			speed = 1
		}
		for _, pt := range pa.points {
			p.gcode.WriteMove(pt, speed, pa.config.LineWidth)
		}
	}
	p.gcode.AddPrintTime(p.EstimatedTime())

	if liftHead && p.extraTime > 0 {
		p.gcode.WriteComment("Small layer, adding delay of %f", p.extraTime)
		p.gcode.WriteRetraction()
		p.gcode.SetZ(p.gcode.Z() + 3000)
		pos := p.gcode.PositionXY()
		p.gcode.WriteMove(pos, p.travel.Speed, 0)
		p.gcode.WriteMove(pos.Add(geom.Pt(20000, 0)), p.travel.Speed, 0)
		p.gcode.WriteDelay(p.extraTime)
	}
}
